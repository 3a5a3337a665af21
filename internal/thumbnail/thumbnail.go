package thumbnail

import (
	"bytes"
	"crypto/md5"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"

	"photo-viewer/internal/filesystem"
	"photo-viewer/internal/item"
	"photo-viewer/internal/logging"
	"photo-viewer/internal/metrics"
	"photo-viewer/internal/transform"
)

// DefaultSize is the longest side of a thumbnail in pixels.
const DefaultSize = 128

// cacheSizeTTL bounds how often GetCacheSize walks the cache directory.
const cacheSizeTTL = 2 * time.Minute

var (
	// ErrDisabled is returned when thumbnails are turned off.
	ErrDisabled = errors.New("thumbnails disabled")
	// ErrFailed is returned for files whose thumbnail failed before.
	ErrFailed = errors.New("thumbnail generation failed previously")
)

// Source supplies the tags needed to turn a thumbnail upright.
// *collection.Collection implements it.
type Source interface {
	LoadMetadata(info item.Info) (item.Meta, error)
}

// Generator creates thumbnails and caches them as JPEG files.
type Generator struct {
	cacheDir string
	size     int
	enabled  bool
	retry    filesystem.RetryConfig
	throttle Throttle

	// locks serialises generation per cache key.
	locks sync.Map

	cacheMu         sync.Mutex
	cachedSize      int64
	cachedCount     int
	lastCacheUpdate atomic.Int64
}

// NewGenerator returns a generator writing into cacheDir. A size below 1
// selects DefaultSize.
func NewGenerator(cacheDir string, size int, enabled bool) *Generator {
	if size < 1 {
		size = DefaultSize
	}
	if enabled {
		logging.Debug("ThumbnailGenerator: enabled, cache dir: %s", cacheDir)
		if err := os.MkdirAll(cacheDir, 0o755); err != nil {
			logging.Warn("ThumbnailGenerator: failed to create cache dir: %v", err)
		}
	} else {
		logging.Debug("ThumbnailGenerator: disabled")
	}
	return &Generator{
		cacheDir: cacheDir,
		size:     size,
		enabled:  enabled,
		retry:    filesystem.DefaultRetryConfig(),
	}
}

// IsEnabled reports whether thumbnails are generated.
func (g *Generator) IsEnabled() bool {
	return g.enabled
}

// Size returns the longest side of generated thumbnails.
func (g *Generator) Size() int {
	return g.size
}

// CacheKey identifies a file version; a rewritten file gets a new key.
func CacheKey(path string, mtime time.Time) string {
	hash := md5.Sum([]byte(path + "\x00" + strconv.FormatInt(mtime.UnixNano(), 10)))
	return fmt.Sprintf("%x", hash)
}

func (g *Generator) cachePath(key string) string {
	return filepath.Join(g.cacheDir, key+".jpg")
}

func (g *Generator) failPath(key string) string {
	return filepath.Join(g.cacheDir, key+".fail")
}

func (g *Generator) lockFor(key string) *sync.Mutex {
	mu, _ := g.locks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Get returns the thumbnail of info, generating and caching it on a miss.
// A failed generation leaves a marker so the file is not retried until it
// changes.
func (g *Generator) Get(src Source, info item.Info, probe transform.Probe) (*item.Raster, error) {
	if !g.enabled {
		return nil, ErrDisabled
	}

	key := CacheKey(info.Filename, info.Mtime)
	if r, err := g.readCached(key); err == nil {
		metrics.ThumbnailCacheHits.Inc()
		return r, nil
	}

	mu := g.lockFor(key)
	mu.Lock()
	defer func() {
		mu.Unlock()
		g.locks.Delete(key)
	}()

	if r, err := g.readCached(key); err == nil {
		metrics.ThumbnailCacheHits.Inc()
		return r, nil
	}
	if _, err := os.Stat(g.failPath(key)); err == nil {
		return nil, ErrFailed
	}
	metrics.ThumbnailCacheMisses.Inc()

	logging.Debug("Thumbnail generating: %s", info.Filename)
	start := time.Now()
	thumb, data, err := g.generate(src, info, probe)
	metrics.ThumbnailGenerationDuration.Observe(time.Since(start).Seconds())
	if errors.Is(err, transform.ErrInterrupted) {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("interrupted").Inc()
		return nil, err
	}
	if err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("failed").Inc()
		if werr := filesystem.WriteFileWithRetry(g.failPath(key), nil, 0o644, g.retry); werr != nil {
			logging.Warn("Failed to write thumbnail failure marker for %s: %v", info.Filename, werr)
		}
		return nil, fmt.Errorf("thumbnail generation failed: %w", err)
	}
	metrics.ThumbnailGenerationsTotal.WithLabelValues("success").Inc()

	if err := filesystem.WriteFileWithRetry(g.cachePath(key), data, 0o644, g.retry); err != nil {
		logging.Warn("Failed to cache thumbnail %s: %v", info.Filename, err)
	} else {
		logging.Debug("Thumbnail cached: %s", g.cachePath(key))
	}
	return thumb, nil
}

func (g *Generator) readCached(key string) (*item.Raster, error) {
	f, err := os.Open(g.cachePath(key))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := jpeg.Decode(f)
	if err != nil {
		logging.Warn("Discarding unreadable cached thumbnail %s: %v", f.Name(), err)
		_ = os.Remove(f.Name())
		return nil, err
	}
	return item.NewRaster(img, false), nil
}

// generate decodes a small draft, turns it upright and fits it into the
// thumbnail box.
func (g *Generator) generate(src Source, info item.Info, probe transform.Probe) (*item.Raster, []byte, error) {
	meta := info.Meta
	if info.MetaState != item.Loaded && src != nil {
		m, err := src.LoadMetadata(info)
		if err != nil {
			logging.Debug("Thumbnail metadata unavailable for %s: %v", info.Filename, err)
		}
		meta = m
	}

	box := image.Pt(g.size, g.size)
	img, err := transform.Load(info.Filename, transform.LoadOptions{DraftSize: box, Retry: g.retry}, probe)
	if err != nil {
		return nil, nil, err
	}
	img, err = transform.ApplyOrientation(img, transform.Orientation(meta.Orientation()), probe)
	if err != nil {
		return nil, nil, err
	}

	thumb := imaging.Fit(img, g.size, g.size, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 80}); err != nil {
		return nil, nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return item.NewRaster(thumb, false), buf.Bytes(), nil
}

// Invalidate drops the cached thumbnail and failure marker of a file
// version.
func (g *Generator) Invalidate(path string, mtime time.Time) {
	key := CacheKey(path, mtime)
	for _, p := range []string{g.cachePath(key), g.failPath(key)} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logging.Warn("Failed to remove %s: %v", p, err)
		}
	}
}

// GetCacheSize returns the bytes and number of cached thumbnails. The
// result is recomputed at most every two minutes.
func (g *Generator) GetCacheSize() (int64, int, error) {
	g.cacheMu.Lock()
	defer g.cacheMu.Unlock()

	if last := g.lastCacheUpdate.Load(); last != 0 && time.Since(time.Unix(last, 0)) < cacheSizeTTL {
		return g.cachedSize, g.cachedCount, nil
	}

	var size int64
	var count int
	err := filepath.WalkDir(g.cacheDir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(d.Name()) != ".jpg" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		size += info.Size()
		count++
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	g.cachedSize, g.cachedCount = size, count
	g.lastCacheUpdate.Store(time.Now().Unix())
	return size, count, nil
}
