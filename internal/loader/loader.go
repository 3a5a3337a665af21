package loader

import (
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"photo-viewer/internal/item"
	"photo-viewer/internal/logging"
	"photo-viewer/internal/metrics"
	"photo-viewer/internal/transform"
)

var (
	// ErrQuitTimeout is returned by Quit when the worker did not stop in time.
	ErrQuitTimeout = errors.New("loader: worker did not stop before timeout")
	// ErrHookBusy is returned by SetHook while another hook is registered.
	ErrHookBusy = errors.New("loader: a sizing hook is already registered")
)

// Options configures a Loader.
type Options struct {
	// Scheduler delivers callbacks to the UI thread. Required.
	Scheduler Scheduler
	// Quality selects the resampling filter for scaled views.
	Quality transform.Quality
	// Histogram computes item.Histogram for every decoded image.
	Histogram bool
}

// request is the worker's snapshot of the slot.
type request struct {
	coll           Collection
	id             item.ID
	wantTransforms bool
}

// Loader owns the item arena and the background worker.
type Loader struct {
	sched     Scheduler
	quality   transform.Quality
	histogram bool

	mu             sync.Mutex
	arena          *item.Arena
	coll           Collection
	current        item.ID
	sizing         image.Point
	zoom           item.Zoom
	wantTransforms bool
	pending        bool
	exit           bool
	hook           SizingHook
	handler        Handler
	// imageGen changes whenever a decoded image is discarded, so a decode
	// started before the discard is not published.
	imageGen uint64

	// token holds the current ID for probes running without mu.
	token   atomic.Pointer[item.ID]
	exiting atomic.Bool
	state   atomic.Int32

	wake chan struct{}
	done chan struct{}
}

// New creates a Loader and starts its worker goroutine.
func New(opts Options) *Loader {
	l := &Loader{
		sched:     opts.Scheduler,
		quality:   opts.Quality,
		histogram: opts.Histogram,
		arena:     item.NewArena(),
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	metrics.SetLoaderState(Idle.String())
	go l.run()
	return l
}

// SetHandler registers the receiver of completion callbacks.
func (l *Loader) SetHandler(h Handler) {
	l.mu.Lock()
	l.handler = h
	l.mu.Unlock()
}

// State returns the worker's current state.
func (l *Loader) State() State {
	return State(l.state.Load())
}

func (l *Loader) setState(s State) {
	if State(l.state.Swap(int32(s))) != s {
		metrics.SetLoaderState(s.String())
	}
}

// signal wakes the worker without blocking.
func (l *Loader) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// ---------------------------------------------------------------------------
// Arena access
// ---------------------------------------------------------------------------

// Add creates an item and returns its ID.
func (l *Loader) Add(filename string, mtime time.Time) item.ID {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.arena.Add(filename, mtime)
}

// Remove drops an item. Removing the current item clears the request slot.
func (l *Loader) Remove(id item.ID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if id == l.current {
		l.current = item.Nil
		l.token.Store(nil)
	}
	return l.arena.Remove(id)
}

// Read runs fn with the item while holding the lock. It reports false if id
// is unknown. fn must not block or call the Loader.
func (l *Loader) Read(id item.ID, fn func(it *item.Item)) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	it := l.arena.Get(id)
	if it == nil {
		return false
	}
	fn(it)
	return true
}

// Info returns a snapshot of the item.
func (l *Loader) Info(id item.ID) (item.Info, bool) {
	var info item.Info
	ok := l.Read(id, func(it *item.Item) { info = it.Info() })
	return info, ok
}

// IDs returns every item ID in insertion order.
func (l *Loader) IDs() []item.ID {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.arena.IDs()
}

// Current returns the ID of the item being viewed.
func (l *Loader) Current() item.ID {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// SetThumb publishes a thumbnail; a nil raster marks the thumbnail failed.
// It reports false for unknown items and after Quit.
func (l *Loader) SetThumb(id item.ID, thumb *item.Raster) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	it := l.arena.Get(id)
	if it == nil || l.exit {
		return false
	}
	it.Thumb = thumb
	if thumb != nil {
		it.ThumbState = item.Loaded
	} else {
		it.ThumbState = item.Failed
	}
	return true
}

// Invalidate forgets everything loaded for id after its file changed on
// disk. The current item is reloaded.
func (l *Loader) Invalidate(id item.ID, mtime time.Time) {
	l.mu.Lock()
	it := l.arena.Get(id)
	if it == nil || l.exit {
		l.mu.Unlock()
		return
	}
	it.Mtime = mtime
	it.Meta = nil
	it.MetaState = item.Unloaded
	it.Thumb = nil
	it.ThumbState = item.Unloaded
	it.ReleaseImage()
	reload := id == l.current
	if reload {
		l.imageGen++
		l.pending = true
	}
	l.mu.Unlock()

	if reload {
		l.signal()
	}
}

// GetStats implements metrics.StatsProvider.
func (l *Loader) GetStats() metrics.Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	stats := metrics.Stats{TotalItems: l.arena.Len()}
	for _, id := range l.arena.IDs() {
		it := l.arena.Get(id)
		if it.Image != nil {
			stats.ImagesLoaded++
		}
		if it.Thumb != nil {
			stats.ThumbsLoaded++
		}
	}
	return stats
}

// ---------------------------------------------------------------------------
// Requests
// ---------------------------------------------------------------------------

// SetItem makes id the current item and asks for it to be sized to sizing
// (a zero size requests loading only). Switching items releases the previous
// item's image and scaled view. An item whose decode failed is decoded again.
func (l *Loader) SetItem(coll Collection, id item.ID, sizing image.Point, zoom item.Zoom, wantTransforms bool) {
	l.mu.Lock()
	if l.exit {
		l.mu.Unlock()
		return
	}

	if l.current != id && !l.current.IsNil() {
		if prev := l.arena.Get(l.current); prev != nil {
			prev.ReleaseImage()
		}
		l.imageGen++
	}
	if it := l.arena.Get(id); it != nil {
		switch {
		case it.ImageState == item.Loaded && it.Transformed != wantTransforms:
			it.ReleaseImage()
			l.imageGen++
		case it.ImageState == item.Failed:
			// Selecting a failed item again retries the decode.
			it.ImageState = item.Unloaded
		}
	}

	l.coll = coll
	l.current = id
	l.sizing = sizing
	l.zoom = zoom
	l.wantTransforms = wantTransforms
	l.pending = true
	token := id
	l.token.Store(&token)
	l.mu.Unlock()

	logging.Debug("loader: current item %s, sizing %v, zoom %v", id, sizing, zoom)
	l.signal()
}

// UpdateImageSize requests a new scaled view of the current item.
func (l *Loader) UpdateImageSize(width, height int, zoom item.Zoom) {
	l.mu.Lock()
	if l.exit {
		l.mu.Unlock()
		return
	}
	l.sizing = image.Point{X: width, Y: height}
	l.zoom = zoom
	l.pending = true
	l.mu.Unlock()

	l.signal()
}

// TransformImage drops the current decoded image and reloads it with or
// without orientation applied.
func (l *Loader) TransformImage(wantTransforms bool) {
	l.mu.Lock()
	if l.exit {
		l.mu.Unlock()
		return
	}
	if it := l.arena.Get(l.current); it != nil {
		it.ReleaseImage()
	}
	l.imageGen++
	l.wantTransforms = wantTransforms
	l.pending = true
	l.mu.Unlock()

	l.signal()
}

// SetHook registers the sizing hook.
func (l *Loader) SetHook(h SizingHook) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.hook != nil && l.hook != h {
		return ErrHookBusy
	}
	l.hook = h
	return nil
}

// ReleaseHook unregisters h if it is the registered hook.
func (l *Loader) ReleaseHook(h SizingHook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.hook == h {
		l.hook = nil
	}
}

// Quit stops the worker and waits up to timeout for it to exit. No item is
// written by the worker once Quit returns nil.
func (l *Loader) Quit(timeout time.Duration) error {
	l.mu.Lock()
	l.exit = true
	l.mu.Unlock()
	l.exiting.Store(true)
	l.token.Store(nil)
	l.signal()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-l.done:
		return nil
	case <-timer.C:
		logging.Warn("loader: worker still busy after %v", timeout)
		return ErrQuitTimeout
	}
}

// ---------------------------------------------------------------------------
// Worker
// ---------------------------------------------------------------------------

func (l *Loader) run() {
	defer close(l.done)

	for {
		l.mu.Lock()
		if l.exit {
			l.mu.Unlock()
			l.setState(Exiting)
			logging.Debug("loader: worker exiting")
			return
		}
		if !l.pending {
			l.mu.Unlock()
			l.setState(Idle)
			<-l.wake
			continue
		}
		l.pending = false
		req := request{coll: l.coll, id: l.current, wantTransforms: l.wantTransforms}
		l.mu.Unlock()

		metrics.LoaderWakeupsTotal.Inc()
		l.process(req)
	}
}

// probeFor reports whether id is still the current item.
func (l *Loader) probeFor(id item.ID) transform.Probe {
	return func() bool {
		if l.exiting.Load() {
			return false
		}
		cur := l.token.Load()
		return cur != nil && *cur == id
	}
}

// isCurrent must be called with mu held.
func (l *Loader) isCurrent(id item.ID) bool {
	return !l.exit && l.current == id
}

// callback binds fn to the handler registered at the time of the call and
// returns a func that queues it on the UI thread. It must be called with mu
// held; the returned func must be called without it, since a scheduler may
// block until the UI thread, which also takes mu, reads its queue.
func (l *Loader) callback(fn func(h Handler)) func() {
	h := l.handler
	if h == nil || l.sched == nil {
		return func() {}
	}
	return func() {
		if l.exiting.Load() {
			return
		}
		l.sched.Schedule(func() { fn(h) })
	}
}

func (l *Loader) process(req request) {
	if req.id.IsNil() || req.coll == nil {
		return
	}

	l.mu.Lock()
	it := l.arena.Get(req.id)
	if it == nil {
		l.mu.Unlock()
		return
	}
	needMeta := it.MetaState == item.Unloaded
	l.mu.Unlock()

	if needMeta {
		l.loadMetadata(req)
	}

	if !l.loadImage(req) {
		return
	}
	l.resize(req)
}

func (l *Loader) loadMetadata(req request) {
	info, ok := l.Info(req.id)
	if !ok {
		return
	}

	meta, err := req.coll.LoadMetadata(info)

	l.mu.Lock()
	defer l.mu.Unlock()
	it := l.arena.Get(req.id)
	if it == nil || !l.isCurrent(req.id) {
		return
	}
	if err != nil {
		logging.Debug("loader: metadata for %s failed: %v", info.Filename, err)
		it.Meta = nil
		it.MetaState = item.Failed
		return
	}
	it.Meta = meta
	it.MetaState = item.Loaded
}

// loadImage decodes the item if needed. It reports whether an image is
// available for sizing.
func (l *Loader) loadImage(req request) bool {
	l.mu.Lock()
	it := l.arena.Get(req.id)
	if it == nil || !l.isCurrent(req.id) {
		l.mu.Unlock()
		return false
	}
	switch it.ImageState {
	case item.Loaded:
		l.mu.Unlock()
		return true
	case item.Failed:
		l.mu.Unlock()
		return false
	}
	info := it.Info()
	gen := l.imageGen
	l.mu.Unlock()

	l.setState(Loading)
	start := time.Now()
	img, err := req.coll.LoadImage(info, l.probeFor(req.id), req.wantTransforms)
	if errors.Is(err, transform.ErrInterrupted) {
		metrics.LoaderLoadsTotal.WithLabelValues("interrupted").Inc()
		logging.Debug("loader: load of %s interrupted", info.Filename)
		return false
	}
	metrics.LoaderLoadDuration.Observe(time.Since(start).Seconds())

	var hist *item.Histogram
	if err == nil && l.histogram {
		hist = transform.ComputeHistogram(img)
	}

	l.mu.Lock()
	it = l.arena.Get(req.id)
	if it == nil || !l.isCurrent(req.id) || l.imageGen != gen {
		l.mu.Unlock()
		metrics.LoaderSupersededTotal.Inc()
		return false
	}

	if err != nil {
		logging.Warn("loader: failed to load %s: %v", info.Filename, err)
		metrics.LoaderLoadsTotal.WithLabelValues("error").Inc()
		it.ReleaseImage()
		it.ImageState = item.Failed
	} else {
		metrics.LoaderLoadsTotal.WithLabelValues("success").Inc()
		it.Image = img
		it.ImageState = item.Loaded
		it.Transformed = req.wantTransforms
		it.QView = nil
		it.Histogram = hist
	}

	id := req.id
	post := l.callback(func(h Handler) { h.ImageLoaded(id) })
	l.mu.Unlock()

	post()
	return err == nil
}

func (l *Loader) resize(req request) {
	l.mu.Lock()
	it := l.arena.Get(req.id)
	// A newer request will be handled by the next loop iteration.
	if it == nil || !l.isCurrent(req.id) || l.pending || it.Image == nil {
		l.mu.Unlock()
		return
	}
	sizing, zoom, hook := l.sizing, l.zoom, l.hook
	if sizing.X <= 0 || sizing.Y <= 0 {
		l.mu.Unlock()
		return
	}
	sreq := SizingRequest{ID: req.id, Info: it.Info(), Image: it.Image, Box: sizing, Zoom: zoom}
	l.mu.Unlock()

	l.setState(Sizing)
	start := time.Now()

	var qview *item.Raster
	handled := false
	if hook != nil {
		qview, handled = hook.BeforeSizing(sreq)
	}
	status := "hooked"
	if !handled {
		var err error
		qview, err = transform.Resize(sreq.Image, sizing, zoom, l.quality)
		switch {
		case err != nil:
			logging.Debug("loader: resize of %s to %v at %v failed: %v", sreq.Info.Filename, sizing, zoom, err)
			qview = nil
			status = "degenerate"
		default:
			status = "success"
		}
		metrics.LoaderResizeDuration.WithLabelValues(l.quality.String()).Observe(time.Since(start).Seconds())
	}
	if hook != nil {
		hook.AfterSizing(sreq, qview)
	}

	l.mu.Lock()
	it = l.arena.Get(req.id)
	if it == nil || !l.isCurrent(req.id) || it.Image != sreq.Image {
		l.mu.Unlock()
		metrics.LoaderSupersededTotal.Inc()
		metrics.LoaderResizesTotal.WithLabelValues("superseded").Inc()
		return
	}
	metrics.LoaderResizesTotal.WithLabelValues(status).Inc()
	it.QView = qview

	id := req.id
	post := l.callback(func(h Handler) { h.ImageSized(id, zoom, sizing) })
	l.mu.Unlock()

	post()
}
