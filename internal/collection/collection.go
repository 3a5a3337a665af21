package collection

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"photo-viewer/internal/filesystem"
	"photo-viewer/internal/item"
	"photo-viewer/internal/logging"
	"photo-viewer/internal/mediatypes"
	"photo-viewer/internal/metrics"
	"photo-viewer/internal/transform"
)

var (
	// ErrMetadata wraps failures to read a file's tags.
	ErrMetadata = errors.New("collection: cannot read metadata")
	// ErrNotImage is returned by Open for a file argument that is not an
	// image.
	ErrNotImage = errors.New("collection: not an image")
)

// Registry owns the items behind a collection. *loader.Loader implements it.
type Registry interface {
	Add(filename string, mtime time.Time) item.ID
	Remove(id item.ID) bool
	Invalidate(id item.ID, mtime time.Time)
}

// Entry is one image file of a collection.
type Entry struct {
	ID      item.ID
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	Mime    string
}

// Options configures Open.
type Options struct {
	Sort      mediatypes.SortField
	Order     mediatypes.SortOrder
	Recursive bool
	// Sniff classifies files without an image extension by their header.
	Sniff bool
	// Vips enables formats only libvips decodes.
	Vips  bool
	Load  transform.LoadOptions
	Retry filesystem.RetryConfig
	// Cache stores tags between runs. It may be nil.
	Cache MetadataCache
	// OnChange is called from the watcher goroutine after the collection
	// changed. It may be nil.
	OnChange func(Change)
}

// DefaultOptions returns name-sorted, non-recursive options.
func DefaultOptions() Options {
	return Options{
		Sort:  mediatypes.SortByName,
		Order: mediatypes.SortAsc,
		Load:  transform.DefaultLoadOptions(),
		Retry: filesystem.DefaultRetryConfig(),
	}
}

// Collection is an ordered set of image files. It implements
// loader.Collection and is safe for concurrent use.
type Collection struct {
	reg  Registry
	opts Options

	mu      sync.RWMutex
	dirs    []string
	entries []Entry
	byID    map[item.ID]int
	byPath  map[string]int
}

// Open builds a collection from files and directories and registers every
// image with reg.
func Open(paths []string, reg Registry, opts Options) (*Collection, error) {
	c := &Collection{
		reg:    reg,
		opts:   opts,
		byID:   make(map[item.ID]int),
		byPath: make(map[string]int),
	}

	var found []Entry
	seenDirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		info, err := filesystem.StatWithRetry(abs, opts.Retry)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}

		if info.IsDir() {
			entries, err := c.scan(abs, seenDirs)
			if err != nil {
				return nil, err
			}
			found = append(found, entries...)
			continue
		}

		e, ok := c.classify(abs, info)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotImage, p)
		}
		found = append(found, e)
		if dir := filepath.Dir(abs); !seenDirs[dir] {
			seenDirs[dir] = true
			c.dirs = append(c.dirs, dir)
		}
	}

	for _, e := range found {
		if _, dup := c.byPath[e.Path]; dup {
			continue
		}
		e.ID = reg.Add(e.Path, e.ModTime)
		c.byPath[e.Path] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	c.sortLocked()

	metrics.CollectionItemsTotal.Set(float64(len(c.entries)))
	logging.Info("Collection opened: %d images in %d directories", len(c.entries), len(c.dirs))
	return c, nil
}

// scan lists the images of dir, descending into subdirectories when
// Recursive is set.
func (c *Collection) scan(dir string, seen map[string]bool) ([]Entry, error) {
	if seen[dir] {
		return nil, nil
	}
	seen[dir] = true
	c.dirs = append(c.dirs, dir)

	des, err := filesystem.ReadDirWithRetry(dir, c.opts.Retry)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var out []Entry
	for _, de := range des {
		if strings.HasPrefix(de.Name(), ".") {
			continue
		}
		full := filepath.Join(dir, de.Name())
		if de.IsDir() {
			if !c.opts.Recursive {
				continue
			}
			sub, err := c.scan(full, seen)
			if err != nil {
				logging.Warn("skipping %s: %v", full, err)
				continue
			}
			out = append(out, sub...)
			continue
		}

		info, err := de.Info()
		if err != nil {
			continue
		}
		if e, ok := c.classify(full, info); ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// classify reports whether path is an image and builds its entry.
func (c *Collection) classify(path string, info os.FileInfo) (Entry, bool) {
	if !info.Mode().IsRegular() {
		return Entry{}, false
	}
	ext := strings.ToLower(filepath.Ext(path))
	e := Entry{
		Path:    path,
		Name:    filepath.Base(path),
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Mime:    mediatypes.GetMimeType(ext),
	}
	if mediatypes.GetFileType(ext, c.opts.Vips) == mediatypes.FileTypeImage {
		return e, true
	}
	if !c.opts.Sniff || mediatypes.ImageExtensions[ext] {
		return Entry{}, false
	}

	head, err := c.readHeader(path)
	if err != nil || mediatypes.SniffFileType(head) != mediatypes.FileTypeImage {
		return Entry{}, false
	}
	e.Mime = mediatypes.SniffMimeType(head)
	return e, true
}

func (c *Collection) readHeader(path string) ([]byte, error) {
	f, err := filesystem.OpenWithRetry(path, c.opts.Retry)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	head := make([]byte, 261)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	return head[:n], nil
}

// sortLocked orders entries and rebuilds the indexes. c.mu must be held or
// c not yet shared.
func (c *Collection) sortLocked() {
	field, desc := c.opts.Sort, c.opts.Order == mediatypes.SortDesc
	slices.SortStableFunc(c.entries, func(a, b Entry) int {
		var cmp int
		switch field {
		case mediatypes.SortByDate:
			cmp = a.ModTime.Compare(b.ModTime)
		case mediatypes.SortBySize:
			cmp = compareInt64(a.Size, b.Size)
		}
		if cmp == 0 {
			cmp = strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
		if cmp == 0 {
			cmp = strings.Compare(a.Path, b.Path)
		}
		if desc {
			return -cmp
		}
		return cmp
	})

	clear(c.byID)
	clear(c.byPath)
	for i, e := range c.entries {
		c.byID[e.ID] = i
		c.byPath[e.Path] = i
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Len returns the number of images.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Dirs returns the directories the collection was built from.
func (c *Collection) Dirs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.dirs)
}

// Entries returns a copy of all entries in order.
func (c *Collection) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.entries)
}

// IDs returns the item IDs in collection order.
func (c *Collection) IDs() []item.ID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]item.ID, len(c.entries))
	for i, e := range c.entries {
		ids[i] = e.ID
	}
	return ids
}

// First returns the first item, or item.Nil when empty.
func (c *Collection) First() item.ID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.entries) == 0 {
		return item.Nil
	}
	return c.entries[0].ID
}

// Entry returns the entry of id.
func (c *Collection) Entry(id item.ID) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[id]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Index returns the position of id, or -1.
func (c *Collection) Index(id item.ID) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i, ok := c.byID[id]; ok {
		return i
	}
	return -1
}

// Next returns the item after id, wrapping at the end when wrap is set.
func (c *Collection) Next(id item.ID, wrap bool) (item.ID, bool) {
	return c.step(id, 1, wrap)
}

// Prev returns the item before id, wrapping at the start when wrap is set.
func (c *Collection) Prev(id item.ID, wrap bool) (item.ID, bool) {
	return c.step(id, -1, wrap)
}

func (c *Collection) step(id item.ID, delta int, wrap bool) (item.ID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := len(c.entries)
	i, ok := c.byID[id]
	if !ok || n == 0 {
		return item.Nil, false
	}
	j := i + delta
	if j < 0 || j >= n {
		if !wrap {
			return item.Nil, false
		}
		j = (j + n) % n
	}
	return c.entries[j].ID, true
}
