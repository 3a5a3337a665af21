package viewer

import (
	"image"
	"math"

	"photo-viewer/internal/item"
	"photo-viewer/internal/transform"
)

// Pos is a pan position: the image-space coordinate shown at the top-left
// corner of the view.
type Pos struct {
	X, Y float64
}

// geometry is a snapshot of the sizes the transforms depend on.
type geometry struct {
	image image.Point
	view  image.Point
	zoom  float64
}

// offset centres a view smaller than the viewport.
func (g geometry) offset(viewport image.Point) image.Point {
	return image.Point{
		X: max((viewport.X-g.view.X)/2, 0),
		Y: max((viewport.Y-g.view.Y)/2, 0),
	}
}

// geometry reads the current item's sizes. It reports false until both a
// decoded image and a scaled view exist.
func (c *Controller) geometry() (geometry, bool) {
	var g geometry
	if c.id.IsNil() {
		return g, false
	}
	c.worker.Read(c.id, func(it *item.Item) {
		g.image = it.ImageSize()
		if it.QView != nil {
			g.view = it.QView.Size
		}
	})
	if g.image.X <= 0 || g.image.Y <= 0 || g.view.X <= 0 || g.view.Y <= 0 {
		return g, false
	}
	if c.zoom.IsFit() {
		g.zoom = float64(g.view.X) / float64(g.image.X)
	} else {
		g.zoom = float64(c.zoom)
	}
	return g, true
}

// imageSize returns the decoded size of the current item, or the zero point.
func (c *Controller) imageSize() image.Point {
	var size image.Point
	if !c.id.IsNil() {
		c.worker.Read(c.id, func(it *item.Item) { size = it.ImageSize() })
	}
	return size
}

// GetZoom returns the effective zoom. In fit mode it is derived from the
// current scaled view and is unknown until one exists.
func (c *Controller) GetZoom() (float64, bool) {
	g, ok := c.geometry()
	if !ok {
		if !c.zoom.IsFit() {
			return float64(c.zoom), true
		}
		return 0, false
	}
	return g.zoom, true
}

func floor(v float64) int {
	return int(math.Floor(v))
}

// ImageXYToScreen maps an image pixel to the viewport.
func (c *Controller) ImageXYToScreen(p image.Point) (image.Point, bool) {
	g, ok := c.geometry()
	if !ok {
		return image.Point{}, false
	}
	off := g.offset(c.viewport)
	return image.Point{
		X: floor((float64(p.X)-c.pos.X)*g.zoom) + off.X,
		Y: floor((float64(p.Y)-c.pos.Y)*g.zoom) + off.Y,
	}, true
}

// ScreenXYToImage is the inverse of ImageXYToScreen.
func (c *Controller) ScreenXYToImage(p image.Point) (image.Point, bool) {
	g, ok := c.geometry()
	if !ok {
		return image.Point{}, false
	}
	x, y := c.screenToImage(g, p)
	return image.Point{X: floor(x), Y: floor(y)}, true
}

func (c *Controller) screenToImage(g geometry, p image.Point) (float64, float64) {
	off := g.offset(c.viewport)
	return float64(p.X-off.X)/g.zoom + c.pos.X,
		float64(p.Y-off.Y)/g.zoom + c.pos.Y
}

// ScreenXYToScaledImage maps a viewport pixel into the scaled view.
func (c *Controller) ScreenXYToScaledImage(p image.Point) (image.Point, bool) {
	g, ok := c.geometry()
	if !ok {
		return image.Point{}, false
	}
	off := g.offset(c.viewport)
	return image.Point{
		X: floor(float64(p.X-off.X) + c.pos.X*g.zoom),
		Y: floor(float64(p.Y-off.Y) + c.pos.Y*g.zoom),
	}, true
}

// ScaledImageXYToScreen is the inverse of ScreenXYToScaledImage.
func (c *Controller) ScaledImageXYToScreen(p image.Point) (image.Point, bool) {
	g, ok := c.geometry()
	if !ok {
		return image.Point{}, false
	}
	off := g.offset(c.viewport)
	return image.Point{
		X: floor(float64(p.X)-c.pos.X*g.zoom) + off.X,
		Y: floor(float64(p.Y)-c.pos.Y*g.zoom) + off.Y,
	}, true
}

// ImageXYToScaledImage scales an image pixel by the effective zoom.
func (c *Controller) ImageXYToScaledImage(p image.Point) (image.Point, bool) {
	z, ok := c.GetZoom()
	if !ok {
		return image.Point{}, false
	}
	return image.Point{X: floor(float64(p.X) * z), Y: floor(float64(p.Y) * z)}, true
}

// ScaledImageXYToImage is the inverse of ImageXYToScaledImage.
func (c *Controller) ScaledImageXYToImage(p image.Point) (image.Point, bool) {
	z, ok := c.GetZoom()
	if !ok {
		return image.Point{}, false
	}
	return image.Point{X: floor(float64(p.X) / z), Y: floor(float64(p.Y) / z)}, true
}

// positionForZoom returns the pan position that keeps the image point under
// anchor in place once newZoom is applied.
func (c *Controller) positionForZoom(g geometry, newZoom float64, anchor image.Point) Pos {
	ox, oy := c.screenToImage(g, anchor)

	scaled := transform.ZoomSize(g.image, newZoom)
	offX := max((c.viewport.X-scaled.X)/2, 0)
	offY := max((c.viewport.Y-scaled.Y)/2, 0)

	pos := Pos{
		X: ox - float64(anchor.X-offX)/newZoom,
		Y: oy - float64(anchor.Y-offY)/newZoom,
	}
	return clampPos(pos, g.image, c.viewport, newZoom)
}

// clampPos limits pos to [0, image - viewport/zoom] on each axis.
func clampPos(pos Pos, img, viewport image.Point, zoom float64) Pos {
	if zoom <= 0 {
		return Pos{}
	}
	maxX := math.Max(float64(img.X)-float64(viewport.X)/zoom, 0)
	maxY := math.Max(float64(img.Y)-float64(viewport.Y)/zoom, 0)
	return Pos{
		X: math.Min(math.Max(pos.X, 0), maxX),
		Y: math.Min(math.Max(pos.Y, 0), maxY),
	}
}
