package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"photo-viewer/internal/metrics"
)

// GetTags returns the cached tags for path. ok is false when nothing is
// cached or the entry was written for a different modification time.
func (d *Database) GetTags(ctx context.Context, path string, modTime time.Time) (tags map[string]string, ok bool, err error) {
	start := time.Now()
	defer func() { recordQuery("get_metadata", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var (
		cachedMod int64
		raw       string
	)
	err = d.db.QueryRowContext(ctx,
		"SELECT mod_time, tags FROM exif_cache WHERE path = ?", path,
	).Scan(&cachedMod, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.MetadataCacheMisses.Inc()
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if cachedMod != modTime.Unix() {
		metrics.MetadataCacheMisses.Inc()
		return nil, false, nil
	}

	if err = json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, false, fmt.Errorf("corrupt cache entry for %s: %w", path, err)
	}
	metrics.MetadataCacheHits.Inc()
	return tags, true, nil
}

// PutTags stores the tags read from path at modTime.
func (d *Database) PutTags(ctx context.Context, path string, modTime time.Time, tags map[string]string) (err error) {
	start := time.Now()
	defer func() { recordQuery("put_metadata", start, err) }()

	raw, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags for %s: %w", path, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO exif_cache (path, mod_time, tags, updated_at)
		VALUES (?, ?, ?, strftime('%s', 'now'))
		ON CONFLICT(path) DO UPDATE SET
			mod_time = excluded.mod_time,
			tags = excluded.tags,
			updated_at = excluded.updated_at
	`, path, modTime.Unix(), string(raw))
	return err
}

// DeleteTags drops the cache entry for path.
func (d *Database) DeleteTags(ctx context.Context, path string) (err error) {
	start := time.Now()
	defer func() { recordQuery("delete_metadata", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, "DELETE FROM exif_cache WHERE path = ?", path)
	return err
}

// PruneTags removes entries not refreshed since cutoff and returns how many
// were deleted.
func (d *Database) PruneTags(ctx context.Context, cutoff time.Time) (n int64, err error) {
	start := time.Now()
	defer func() { recordQuery("prune_metadata", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx, "DELETE FROM exif_cache WHERE updated_at < ?", cutoff.Unix())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
