package viewer

import (
	"image"
	"math"

	"photo-viewer/internal/item"
	"photo-viewer/internal/loader"
	"photo-viewer/internal/logging"
	"photo-viewer/internal/metrics"
)

// Worker is the part of the loader the controller drives.
type Worker interface {
	SetHandler(h loader.Handler)
	SetItem(coll loader.Collection, id item.ID, sizing image.Point, zoom item.Zoom, wantTransforms bool)
	UpdateImageSize(width, height int, zoom item.Zoom)
	TransformImage(wantTransforms bool)
	Read(id item.ID, fn func(it *item.Item)) bool
	SetHook(h loader.SizingHook) error
	ReleaseHook(h loader.SizingHook)
}

// Plugin takes over sizing of the current item while it holds control.
type Plugin interface {
	loader.SizingHook
	// ViewerRelease asks the plugin to give up control. It reports false to
	// refuse.
	ViewerRelease() bool
}

// Options configures a Controller.
type Options struct {
	// ZoomStep is the factor applied by ZoomIn and ZoomOut.
	ZoomStep float64
	// MinZoom and MaxZoom bound explicit zoom ratios.
	MinZoom float64
	MaxZoom float64
	// ScrollIncrement is the pan distance in screen pixels.
	ScrollIncrement int
	// Redraw asks the render surface to repaint. It may be nil.
	Redraw func()
}

// DefaultOptions returns the stock zoom and scroll settings.
func DefaultOptions() Options {
	return Options{
		ZoomStep:        1.2,
		MinZoom:         0.01,
		MaxZoom:         32,
		ScrollIncrement: 15,
	}
}

// Direction is a pan direction.
type Direction int

const (
	PanLeft Direction = iota
	PanRight
	PanUp
	PanDown
)

type sizing struct {
	zoom  item.Zoom
	size  image.Point
	valid bool
}

// Controller holds the zoom and pan state of the viewed item.
type Controller struct {
	worker Worker
	opts   Options

	coll           loader.Collection
	id             item.ID
	viewport       image.Point
	wantTransforms bool

	zoom       item.Zoom
	pos        Pos
	posRequest Pos
	pending    item.Zoom // last requested explicit zoom awaiting ImageSized
	lastSizing sizing
	requested  sizing // last request sent and not yet delivered

	fullscreen     bool
	frozen         bool
	fullscreenDone func()
	sizeHint       image.Point

	plugin Plugin
}

// New creates a controller and registers it as w's handler.
func New(w Worker, opts Options) *Controller {
	def := DefaultOptions()
	if opts.ZoomStep <= 1 {
		opts.ZoomStep = def.ZoomStep
	}
	if opts.MinZoom <= 0 {
		opts.MinZoom = def.MinZoom
	}
	if opts.MaxZoom < opts.MinZoom {
		opts.MaxZoom = math.Max(def.MaxZoom, opts.MinZoom)
	}
	if opts.ScrollIncrement <= 0 {
		opts.ScrollIncrement = def.ScrollIncrement
	}

	c := &Controller{
		worker:         w,
		opts:           opts,
		zoom:           item.Fit,
		wantTransforms: true,
	}
	w.SetHandler(c)
	return c
}

// Current returns the viewed item.
func (c *Controller) Current() item.ID { return c.id }

// Collection returns the collection of the viewed item.
func (c *Controller) Collection() loader.Collection { return c.coll }

// Zoom returns the zoom mode: item.Fit or the applied ratio.
func (c *Controller) Zoom() item.Zoom { return c.zoom }

// Position returns the pan position.
func (c *Controller) Position() Pos { return c.pos }

// Viewport returns the viewport size.
func (c *Controller) Viewport() image.Point { return c.viewport }

// Transformed reports whether orientation is applied to viewed images.
func (c *Controller) Transformed() bool { return c.wantTransforms }

// Fullscreen reports whether the viewer is in fullscreen mode.
func (c *Controller) Fullscreen() bool { return c.fullscreen }

// Settled reports whether every view requested from the worker has been
// delivered.
func (c *Controller) Settled() bool { return !c.requested.valid }

// Frozen reports whether redraws are held back until the next sized view.
func (c *Controller) Frozen() bool { return c.frozen }

func (c *Controller) redraw() {
	if c.frozen || c.opts.Redraw == nil {
		return
	}
	c.opts.Redraw()
}

// SetItem shows id in fit mode. It reports false when the controlling
// plugin refuses to let go.
func (c *Controller) SetItem(coll loader.Collection, id item.ID) bool {
	if !c.RequestPluginRelease(false) {
		return false
	}
	c.zoom = item.Fit
	c.pos = Pos{}
	c.posRequest = Pos{}
	c.pending = 0
	c.coll = coll
	c.id = id
	c.requested = sizing{zoom: item.Fit, size: c.viewport, valid: true}
	c.worker.SetItem(coll, id, c.viewport, item.Fit, c.wantTransforms)
	c.redraw()
	return true
}

// SetViewportSize records a new viewport size. Fit mode requests a new view.
func (c *Controller) SetViewportSize(width, height int) {
	c.viewport = image.Point{X: width, Y: height}
	if c.zoom.IsFit() {
		c.ResizeAndRefreshView(width, height, item.Fit, false)
	} else {
		c.pos = clampPos(c.pos, c.imageSize(), c.viewport, float64(c.zoom))
	}
	c.redraw()
}

// ResizeAndRefreshView asks the worker for a view of the given size and
// zoom. A request equal to the one in flight, or to the last applied one
// when nothing is in flight, is dropped unless force is set. It reports
// whether a request was sent.
func (c *Controller) ResizeAndRefreshView(width, height int, zoom item.Zoom, force bool) bool {
	if c.frozen {
		metrics.ViewerResizeRequestsTotal.WithLabelValues("frozen").Inc()
		return false
	}
	next := sizing{zoom: zoom, size: image.Point{X: width, Y: height}, valid: true}
	last := c.lastSizing
	if c.requested.valid {
		last = c.requested
	}
	if !force && last == next {
		metrics.ViewerResizeRequestsTotal.WithLabelValues("suppressed").Inc()
		return false
	}
	c.requested = next
	metrics.ViewerResizeRequestsTotal.WithLabelValues("sent").Inc()
	c.worker.UpdateImageSize(width, height, zoom)
	return true
}

// SetZoom zooms about the centre of the viewport.
func (c *Controller) SetZoom(target ZoomTarget) bool {
	return c.SetZoomAt(target, image.Point{X: c.viewport.X / 2, Y: c.viewport.Y / 2})
}

// SetZoomAt zooms so the image point under anchor stays under anchor. The
// new zoom takes effect when the worker delivers the resized view. It
// reports false when there is no view to zoom.
func (c *Controller) SetZoomAt(target ZoomTarget, anchor image.Point) bool {
	g, ok := c.geometry()
	if !ok {
		return false
	}

	current := g.zoom
	if !c.pending.IsFit() {
		current = float64(c.pending)
	}
	zoom, err := target.resolve(current, c.opts.ZoomStep)
	if err != nil {
		logging.Warn("viewer: %v", err)
		return false
	}
	metrics.ViewerZoomChangesTotal.WithLabelValues(target.Label()).Inc()

	if zoom.IsFit() {
		c.posRequest = Pos{}
		c.pending = 0
		return c.ResizeAndRefreshView(c.viewport.X, c.viewport.Y, item.Fit, false)
	}

	zoom = item.Zoom(math.Min(math.Max(float64(zoom), c.opts.MinZoom), c.opts.MaxZoom))
	c.posRequest = c.positionForZoom(g, float64(zoom), anchor)
	c.pending = zoom
	logging.Debug("viewer: zoom %v -> %v about %v, pan %+v", c.zoom, zoom, anchor, c.posRequest)
	return c.ResizeAndRefreshView(c.viewport.X, c.viewport.Y, zoom, false)
}

// Pan moves the view by the scroll increment. It reports false when the
// whole image is already visible.
func (c *Controller) Pan(dir Direction) bool {
	if c.zoom.IsFit() {
		return false
	}
	z := float64(c.zoom)
	img := c.imageSize()
	if img.X == 0 || (float64(img.X)*z < float64(c.viewport.X) && float64(img.Y)*z < float64(c.viewport.Y)) {
		return false
	}

	step := float64(c.opts.ScrollIncrement) / z
	pos := c.pos
	switch dir {
	case PanLeft:
		pos.X -= step
	case PanRight:
		pos.X += step
	case PanUp:
		pos.Y -= step
	case PanDown:
		pos.Y += step
	}
	c.pos = clampPos(pos, img, c.viewport, z)
	c.redraw()
	return true
}

// ScrollTo sets the pan position, clamped to the image.
func (c *Controller) ScrollTo(x, y float64) {
	if c.zoom.IsFit() {
		return
	}
	c.pos = clampPos(Pos{X: x, Y: y}, c.imageSize(), c.viewport, float64(c.zoom))
	c.redraw()
}

// Adjustment describes one scrollbar in image pixels.
type Adjustment struct {
	Value float64
	Lower float64
	Upper float64
	Page  float64
	Step  float64
}

// Scrollbars describes both scrollbars of the view.
type Scrollbars struct {
	Visible    bool
	Horizontal Adjustment
	Vertical   Adjustment
}

// Scrollbars returns the scrollbar state. They are hidden in fit mode and
// whenever the whole image is visible.
func (c *Controller) Scrollbars() Scrollbars {
	if c.zoom.IsFit() {
		return Scrollbars{}
	}
	z := float64(c.zoom)
	img := c.imageSize()
	if img.X == 0 || (float64(img.X)*z < float64(c.viewport.X) && float64(img.Y)*z < float64(c.viewport.Y)) {
		return Scrollbars{}
	}
	pageX := float64(c.viewport.X) / z
	pageY := float64(c.viewport.Y) / z
	return Scrollbars{
		Visible:    true,
		Horizontal: Adjustment{Value: c.pos.X, Upper: float64(img.X), Page: pageX, Step: pageX},
		Vertical:   Adjustment{Value: c.pos.Y, Upper: float64(img.Y), Page: pageY, Step: pageY},
	}
}

// Reload decodes the current item again, with or without orientation.
func (c *Controller) Reload(wantTransforms bool) {
	c.wantTransforms = wantTransforms
	if c.id.IsNil() {
		return
	}
	c.worker.TransformImage(wantTransforms)
}

// ---------------------------------------------------------------------------
// loader.Handler
// ---------------------------------------------------------------------------

// ImageLoaded implements loader.Handler.
func (c *Controller) ImageLoaded(id item.ID) {
	if id != c.id {
		return
	}
	c.redraw()
}

// ImageSized implements loader.Handler.
func (c *Controller) ImageSized(id item.ID, zoom item.Zoom, size image.Point) {
	c.lastSizing = sizing{zoom: zoom, size: size, valid: true}
	if c.requested == c.lastSizing {
		c.requested = sizing{}
	}

	if id == c.id {
		if zoom != c.zoom {
			if zoom.IsFit() {
				c.pos = Pos{}
			} else {
				c.pos = c.posRequest
			}
			c.zoom = zoom
		}
		if !zoom.IsFit() {
			c.pos = clampPos(c.pos, c.imageSize(), c.viewport, float64(zoom))
		}
		if c.pending == zoom {
			c.pending = 0
		}
	} else {
		logging.Warn("viewer: sized result for %s while showing %s", id, c.id)
	}

	if c.frozen {
		c.frozen = false
		done := c.fullscreenDone
		c.fullscreenDone = nil
		if done != nil {
			done()
		}
	}
	if id == c.id {
		c.redraw()
	}
}

// ---------------------------------------------------------------------------
// Fullscreen
// ---------------------------------------------------------------------------

// EnterFullscreen resizes the view to size and holds redraws until the
// resized view arrives, then calls done. It reports false if the viewer is
// already fullscreen or mid-transition.
func (c *Controller) EnterFullscreen(size image.Point, done func()) bool {
	if c.frozen || c.fullscreen {
		return false
	}
	c.fullscreen = true
	c.sizeHint = c.viewport
	c.transition(size, done)
	return true
}

// LeaveFullscreen restores the size saved by EnterFullscreen.
func (c *Controller) LeaveFullscreen(done func()) bool {
	if c.frozen || !c.fullscreen {
		return false
	}
	c.fullscreen = false
	c.transition(c.sizeHint, done)
	return true
}

func (c *Controller) transition(size image.Point, done func()) {
	if size.X > 0 && size.Y > 0 {
		c.viewport = size
	}
	// Without a decoded image no sized view will arrive to end the freeze.
	if c.imageSize() == (image.Point{}) || size.X <= 0 || size.Y <= 0 {
		if done != nil {
			done()
		}
		c.redraw()
		return
	}
	zoom := c.zoom
	if !c.pending.IsFit() {
		zoom = c.pending
	}
	c.ResizeAndRefreshView(size.X, size.Y, zoom, true)
	c.fullscreenDone = done
	c.frozen = true
}

// ---------------------------------------------------------------------------
// Plugin control
// ---------------------------------------------------------------------------

// Plugin returns the plugin in control, or nil.
func (c *Controller) Plugin() Plugin { return c.plugin }

// RequestPluginControl hands sizing over to p. A plugin already in control
// is asked to release first; force overrides a refusal.
func (c *Controller) RequestPluginControl(p Plugin, force bool) bool {
	if c.plugin == p {
		return true
	}
	if c.plugin != nil {
		if !c.plugin.ViewerRelease() && !force {
			return false
		}
		c.PluginRelease(c.plugin)
	}
	if err := c.worker.SetHook(p); err != nil {
		logging.Warn("viewer: plugin could not take control: %v", err)
		return false
	}
	c.plugin = p
	logging.Debug("viewer: plugin %T in control", p)
	if !c.id.IsNil() {
		c.ResizeAndRefreshView(c.viewport.X, c.viewport.Y, c.zoom, true)
	}
	return true
}

// RequestPluginRelease asks the controlling plugin to release. It reports
// true when no plugin is in control afterwards or when force is set.
func (c *Controller) RequestPluginRelease(force bool) bool {
	if c.plugin == nil {
		return true
	}
	if !c.plugin.ViewerRelease() && !force {
		return false
	}
	if c.plugin != nil {
		c.PluginRelease(c.plugin)
	}
	return true
}

// PluginRelease is called by p to give up control.
func (c *Controller) PluginRelease(p Plugin) bool {
	if p == nil || p != c.plugin {
		return false
	}
	c.plugin = nil
	c.worker.ReleaseHook(p)
	logging.Debug("viewer: plugin %T released control", p)
	return true
}
