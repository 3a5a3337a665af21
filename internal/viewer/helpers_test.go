package viewer

import (
	"image"

	"photo-viewer/internal/item"
	"photo-viewer/internal/loader"
	"photo-viewer/internal/transform"
)

type sizeRequest struct {
	size image.Point
	zoom item.Zoom
}

// fakeWorker serves one in-memory item and records requests.
type fakeWorker struct {
	handler    loader.Handler
	it         *item.Item
	setItems   []item.ID
	updates    []sizeRequest
	transforms []bool
	hook       loader.SizingHook
}

func (w *fakeWorker) SetHandler(h loader.Handler) { w.handler = h }

func (w *fakeWorker) SetItem(_ loader.Collection, id item.ID, sizing image.Point, zoom item.Zoom, _ bool) {
	w.setItems = append(w.setItems, id)
	w.updates = append(w.updates, sizeRequest{size: sizing, zoom: zoom})
}

func (w *fakeWorker) UpdateImageSize(width, height int, zoom item.Zoom) {
	w.updates = append(w.updates, sizeRequest{size: image.Pt(width, height), zoom: zoom})
}

func (w *fakeWorker) TransformImage(want bool) { w.transforms = append(w.transforms, want) }

func (w *fakeWorker) Read(id item.ID, fn func(it *item.Item)) bool {
	if w.it == nil || w.it.ID != id {
		return false
	}
	fn(w.it)
	return true
}

func (w *fakeWorker) SetHook(h loader.SizingHook) error {
	if w.hook != nil && w.hook != h {
		return loader.ErrHookBusy
	}
	w.hook = h
	return nil
}

func (w *fakeWorker) ReleaseHook(h loader.SizingHook) {
	if w.hook == h {
		w.hook = nil
	}
}

// lastUpdate returns the most recent size request.
func (w *fakeWorker) lastUpdate() sizeRequest {
	if len(w.updates) == 0 {
		return sizeRequest{}
	}
	return w.updates[len(w.updates)-1]
}

// newLoadedItem returns an item with a decoded image of imgSize.
func newLoadedItem(imgSize image.Point) *item.Item {
	return &item.Item{
		ID:         item.NewID(),
		Filename:   "photo.jpg",
		Image:      image.NewNRGBA(image.Rectangle{Max: imgSize}),
		ImageState: item.Loaded,
	}
}

// deliver installs a scaled view for zoom the way the worker would and runs
// the sized callback.
func deliver(c *Controller, w *fakeWorker, zoom item.Zoom) {
	size, err := transform.TargetSize(w.it.ImageSize(), c.viewport, zoom)
	if err != nil {
		w.it.QView = nil
	} else {
		w.it.QView = &item.Raster{Size: size}
	}
	c.ImageSized(w.it.ID, zoom, c.viewport)
}

// showing builds a controller over a fake worker with one item sized to fit
// viewport.
func showing(imgSize, viewport image.Point, opts Options) (*Controller, *fakeWorker, *int) {
	w := &fakeWorker{it: newLoadedItem(imgSize)}
	redraws := 0
	opts.Redraw = func() { redraws++ }
	c := New(w, opts)
	c.SetViewportSize(viewport.X, viewport.Y)
	c.SetItem(nil, w.it.ID)
	deliver(c, w, item.Fit)
	return c, w, &redraws
}

type fakePlugin struct {
	release bool
	asked   int
}

func (p *fakePlugin) BeforeSizing(loader.SizingRequest) (*item.Raster, bool) { return nil, false }

func (p *fakePlugin) AfterSizing(loader.SizingRequest, *item.Raster) {}

func (p *fakePlugin) ViewerRelease() bool {
	p.asked++
	return p.release
}
