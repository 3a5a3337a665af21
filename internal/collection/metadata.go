package collection

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"photo-viewer/internal/filesystem"
	"photo-viewer/internal/item"
	"photo-viewer/internal/logging"
	"photo-viewer/internal/transform"
)

// MetadataCache persists tags keyed by path and modification time.
// *database.Database implements it.
type MetadataCache interface {
	GetTags(ctx context.Context, path string, modTime time.Time) (map[string]string, bool, error)
	PutTags(ctx context.Context, path string, modTime time.Time, tags map[string]string) error
	DeleteTags(ctx context.Context, path string) error
}

const cacheTimeout = 2 * time.Second

// exifDateLayout is the layout of EXIF DateTime tags.
const exifDateLayout = "2006:01:02 15:04:05"

// LoadMetadata reads the EXIF tags of an item. Formats without EXIF support
// yield empty metadata; an unreadable or corrupt block yields ErrMetadata.
func (c *Collection) LoadMetadata(info item.Info) (item.Meta, error) {
	if tags, ok := c.cachedTags(info); ok {
		return tags, nil
	}

	meta, err := c.readTags(info.Filename)
	if err != nil {
		return nil, err
	}

	if c.opts.Cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
		defer cancel()
		if err := c.opts.Cache.PutTags(ctx, info.Filename, info.Mtime, meta); err != nil {
			logging.Warn("failed to cache metadata for %s: %v", info.Filename, err)
		}
	}
	return meta, nil
}

func (c *Collection) cachedTags(info item.Info) (item.Meta, bool) {
	if c.opts.Cache == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
	defer cancel()

	tags, ok, err := c.opts.Cache.GetTags(ctx, info.Filename, info.Mtime)
	if err != nil {
		logging.Warn("metadata cache lookup failed for %s: %v", info.Filename, err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	if tags == nil {
		tags = map[string]string{}
	}
	return item.Meta(tags), true
}

func (c *Collection) readTags(path string) (item.Meta, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".jpe", ".tif", ".tiff":
	default:
		return item.Meta{}, nil
	}

	f, err := filesystem.OpenWithRetry(path, c.opts.Retry)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMetadata, err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return item.Meta{}, nil
		}
		if x == nil || exif.IsCriticalError(err) {
			return nil, fmt.Errorf("%w: %w", ErrMetadata, err)
		}
		logging.Debug("partial EXIF in %s: %v", path, err)
	}

	meta := item.Meta{}
	if err := x.Walk(tagWalker(meta)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMetadata, err)
	}
	return meta, nil
}

// tagWalker collects printable tags into a map.
type tagWalker item.Meta

func (w tagWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	if name == exif.MakerNote || tag.Format() == tiff.UndefVal {
		return nil
	}
	if v, ok := formatTag(tag); ok {
		w[string(name)] = v
	}
	return nil
}

func formatTag(tag *tiff.Tag) (string, bool) {
	switch tag.Format() {
	case tiff.StringVal:
		s, err := tag.StringVal()
		if err != nil {
			return "", false
		}
		s = strings.TrimSpace(strings.TrimRight(s, "\x00"))
		return s, s != ""
	case tiff.IntVal:
		if tag.Count == 1 {
			n, err := tag.Int(0)
			if err != nil {
				return "", false
			}
			return strconv.Itoa(n), true
		}
	case tiff.RatVal:
		if tag.Count == 1 {
			num, den, err := tag.Rat2(0)
			if err != nil {
				return "", false
			}
			if den == 1 {
				return strconv.FormatInt(num, 10), true
			}
			return fmt.Sprintf("%d/%d", num, den), true
		}
	}
	return strings.Trim(tag.String(), `"`), true
}

// LoadImage decodes the item as a draft and turns it upright when
// applyTransforms is set.
func (c *Collection) LoadImage(info item.Info, probe transform.Probe, applyTransforms bool) (image.Image, error) {
	img, err := transform.Load(info.Filename, c.opts.Load, probe)
	if err != nil {
		return nil, err
	}
	if !applyTransforms {
		return img, nil
	}
	return transform.ApplyOrientation(img, transform.Orientation(info.Meta.Orientation()), probe)
}

// ViewerText returns the overlay title and subtitle of an item.
func (c *Collection) ViewerText(info item.Info, size image.Point, zoom item.Zoom) (title, subtitle string) {
	title = filepath.Base(info.Filename)
	if i := c.Index(info.ID); i >= 0 {
		title = fmt.Sprintf("%s (%d/%d)", title, i+1, c.Len())
	}

	var parts []string
	if size.X > 0 && size.Y > 0 {
		parts = append(parts, fmt.Sprintf("%dx%d", size.X, size.Y))
	}
	parts = append(parts, zoom.String())
	if model := info.Meta["Model"]; model != "" {
		parts = append(parts, model)
	}
	if when := takenAt(info); !when.IsZero() {
		parts = append(parts, when.Format("2006-01-02 15:04"))
	}
	return title, strings.Join(parts, "  ")
}

// takenAt prefers the capture date and falls back to the file time.
func takenAt(info item.Info) time.Time {
	for _, key := range []string{"DateTimeOriginal", "DateTime"} {
		if v := info.Meta[key]; v != "" {
			if t, err := time.ParseInLocation(exifDateLayout, v, time.Local); err == nil {
				return t
			}
		}
	}
	return info.Mtime
}
