package collection

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"photo-viewer/internal/filesystem"
	"photo-viewer/internal/item"
	"photo-viewer/internal/logging"
	"photo-viewer/internal/metrics"
)

// ChangeKind describes how a collection changed.
type ChangeKind int

const (
	// Added means a new image appeared.
	Added ChangeKind = iota
	// Modified means an image was rewritten and must be reloaded.
	Modified
	// Removed means an image disappeared.
	Removed
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Modified:
		return "modified"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Change reports one item affected by a filesystem event.
type Change struct {
	Kind ChangeKind
	ID   item.ID
	Path string
}

// Watch follows the collection's directories until ctx is cancelled,
// keeping entries and the registry in step with the files on disk.
func (c *Collection) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		metrics.WatcherErrors.Inc()
		return err
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			logging.Error("failed to close file watcher: %v", err)
		}
	}()

	watchCount := 0
	for _, dir := range c.Dirs() {
		if err := watcher.Add(dir); err != nil {
			logging.Warn("failed to add path to watcher %s: %v", dir, err)
			metrics.WatcherErrors.Inc()
			continue
		}
		watchCount++
	}
	logging.Debug("Collection watcher started, watching %d directories", watchCount)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			c.handleEvent(event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Error("Watcher error: %v", err)
			metrics.WatcherErrors.Inc()
		}
	}
}

func (c *Collection) handleEvent(event fsnotify.Event) {
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return
	}
	metrics.WatcherEventsTotal.WithLabelValues(getEventType(event.Op)).Inc()

	switch {
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		c.removePath(event.Name)
	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		c.refreshPath(event.Name)
	}
}

// refreshPath adds a new image or invalidates a changed one.
func (c *Collection) refreshPath(path string) {
	info, err := filesystem.StatWithRetry(path, c.opts.Retry)
	if err != nil {
		return
	}

	c.mu.Lock()
	if i, ok := c.byPath[path]; ok {
		e := &c.entries[i]
		if e.ModTime.Equal(info.ModTime()) && e.Size == info.Size() {
			c.mu.Unlock()
			return
		}
		e.ModTime, e.Size = info.ModTime(), info.Size()
		id := e.ID
		c.mu.Unlock()

		c.forgetTags(path)
		c.reg.Invalidate(id, info.ModTime())
		c.notify(Change{Kind: Modified, ID: id, Path: path})
		return
	}
	c.mu.Unlock()

	e, ok := c.classify(path, info)
	if !ok {
		return
	}
	e.ID = c.reg.Add(path, e.ModTime)

	c.mu.Lock()
	if _, dup := c.byPath[path]; dup {
		c.mu.Unlock()
		c.reg.Remove(e.ID)
		return
	}
	c.entries = append(c.entries, e)
	c.sortLocked()
	n := len(c.entries)
	c.mu.Unlock()

	metrics.CollectionItemsTotal.Set(float64(n))
	logging.Debug("Added %s to collection", path)
	c.notify(Change{Kind: Added, ID: e.ID, Path: path})
}

func (c *Collection) removePath(path string) {
	c.mu.Lock()
	i, ok := c.byPath[path]
	if !ok {
		c.mu.Unlock()
		return
	}
	id := c.entries[i].ID
	c.entries = append(c.entries[:i], c.entries[i+1:]...)
	c.sortLocked()
	n := len(c.entries)
	c.mu.Unlock()

	c.reg.Remove(id)
	c.forgetTags(path)
	metrics.CollectionItemsTotal.Set(float64(n))
	logging.Debug("Removed %s from collection", path)
	c.notify(Change{Kind: Removed, ID: id, Path: path})
}

func (c *Collection) forgetTags(path string) {
	if c.opts.Cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
	defer cancel()
	if err := c.opts.Cache.DeleteTags(ctx, path); err != nil {
		logging.Warn("failed to drop cached metadata for %s: %v", path, err)
	}
}

func (c *Collection) notify(ch Change) {
	if c.opts.OnChange != nil {
		c.opts.OnChange(ch)
	}
}

// getEventType returns a string representation of the fsnotify operation
func getEventType(op fsnotify.Op) string {
	switch {
	case op&fsnotify.Create != 0:
		return "create"
	case op&fsnotify.Write != 0:
		return "write"
	case op&fsnotify.Remove != 0:
		return "remove"
	case op&fsnotify.Rename != 0:
		return "rename"
	case op&fsnotify.Chmod != 0:
		return "chmod"
	default:
		return "unknown"
	}
}
