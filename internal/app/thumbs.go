package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"photo-viewer/internal/collection"
	"photo-viewer/internal/item"
	"photo-viewer/internal/loader"
	"photo-viewer/internal/logging"
	"photo-viewer/internal/thumbnail"
)

// thumbSink publishes thumbnails to the loader and tells the UI about each
// one. It remembers which file version every thumbnail was made from so the
// cache entry can be dropped when the file changes.
type thumbSink struct {
	*loader.Loader
	notify func(id item.ID)

	mu       sync.Mutex
	versions map[item.ID]thumbVersion
}

type thumbVersion struct {
	path  string
	mtime time.Time
}

func newThumbSink(l *loader.Loader, notify func(id item.ID)) *thumbSink {
	return &thumbSink{
		Loader:   l,
		notify:   notify,
		versions: make(map[item.ID]thumbVersion),
	}
}

// SetThumb implements thumbnail.Sink.
func (s *thumbSink) SetThumb(id item.ID, thumb *item.Raster) bool {
	info, ok := s.Info(id)
	if !ok || !s.Loader.SetThumb(id, thumb) {
		return false
	}
	s.mu.Lock()
	s.versions[id] = thumbVersion{path: info.Filename, mtime: info.Mtime}
	s.mu.Unlock()
	if s.notify != nil {
		s.notify(id)
	}
	return true
}

// forget returns and drops the version recorded for id.
func (s *thumbSink) forget(id item.ID) (thumbVersion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.versions[id]
	delete(s.versions, id)
	return v, ok
}

// thumbnails keeps the loader's thumbnails in step with the collection.
type thumbnails struct {
	gen  *thumbnail.Generator
	src  thumbnail.Source
	sink *thumbSink
}

// prefetch fills every thumbnail of the collection in the background.
func (t *thumbnails) prefetch(ctx context.Context, ids []item.ID, rec thumbnail.RunRecorder) {
	res, err := t.gen.Prefetch(ctx, t.src, t.sink, ids, rec)
	switch {
	case errors.Is(err, thumbnail.ErrDisabled):
	case err != nil && ctx.Err() == nil:
		logging.Warn("Thumbnail prefetch stopped: %v", err)
	case err == nil:
		logging.Info("Thumbnail prefetch: %d generated, %d failed in %v", res.Generated, res.Failed, res.Duration)
	}
}

// changed drops the cached thumbnail of a rewritten or deleted file and
// makes one for a new or rewritten file.
func (t *thumbnails) changed(ctx context.Context, ch collection.Change) {
	if ch.Kind != collection.Added {
		if v, ok := t.sink.forget(ch.ID); ok {
			t.gen.Invalidate(v.path, v.mtime)
		}
	}
	if ch.Kind == collection.Removed || !t.gen.IsEnabled() {
		return
	}

	info, ok := t.sink.Info(ch.ID)
	if !ok {
		return
	}
	probe := func() bool { return ctx.Err() == nil }
	thumb, err := t.gen.Get(t.src, info, probe)
	if err != nil {
		logging.Debug("Thumbnail for %s: %v", ch.Path, err)
		thumb = nil
	}
	t.sink.SetThumb(ch.ID, thumb)
}
