package render

import (
	"image"
	"path/filepath"

	"photo-viewer/internal/item"
	"photo-viewer/internal/viewer"
)

// Reader gives read access to the loader's items. *loader.Loader
// implements it.
type Reader interface {
	Read(id item.ID, fn func(it *item.Item)) bool
}

// Scene is everything needed to draw one frame. Rasters are shared with the
// loader and never modified after publication.
type Scene struct {
	Viewport image.Point

	// View is the scaled view of the current item and ViewOrigin the screen
	// position of its top-left pixel.
	View       *item.Raster
	ViewOrigin image.Point

	// Thumb is drawn centred while View is missing.
	Thumb *item.Raster

	// Message replaces the image when there is nothing to draw.
	Message string

	ShowInfo  bool
	Title     string
	Subtitle  string
	Histogram *item.Histogram
}

// Capture snapshots the controller's current item. It must run on the UI
// thread.
func Capture(c *viewer.Controller, r Reader, showInfo bool) Scene {
	s := Scene{Viewport: c.Viewport(), ShowInfo: showInfo}
	id := c.Current()
	if id.IsNil() {
		s.Message = "No images"
		return s
	}

	var (
		info  item.Info
		state item.LoadState
	)
	found := r.Read(id, func(it *item.Item) {
		info = it.Info()
		state = it.ImageState
		s.View = it.QView
		s.Thumb = it.Thumb
		s.Histogram = it.Histogram
	})
	if !found {
		s.Message = "No images"
		return s
	}

	if s.View != nil {
		origin, ok := c.ScaledImageXYToScreen(image.Point{})
		if !ok {
			origin = centre(s.Viewport, s.View.Size)
		}
		s.ViewOrigin = origin
	}

	switch {
	case s.View != nil || s.Thumb != nil:
	case state == item.Failed:
		s.Message = "Cannot display " + filepath.Base(info.Filename)
	default:
		s.Message = "Loading " + filepath.Base(info.Filename)
	}

	if showInfo {
		zoom := c.Zoom()
		if z, ok := c.GetZoom(); ok {
			zoom = item.Zoom(z)
		}
		if coll := c.Collection(); coll != nil {
			s.Title, s.Subtitle = coll.ViewerText(info, info.ImageSize, zoom)
		} else {
			s.Title = filepath.Base(info.Filename)
		}
	}
	return s
}

// centre returns the origin that centres size in viewport.
func centre(viewport, size image.Point) image.Point {
	return image.Point{
		X: (viewport.X - size.X) / 2,
		Y: (viewport.Y - size.Y) / 2,
	}
}
