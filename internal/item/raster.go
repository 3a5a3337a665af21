package item

import (
	"image"
	"image/draw"
)

// Raster is a scaled pixel buffer ready to composite: non-premultiplied RGBA,
// four bytes per pixel.
type Raster struct {
	Pix      []uint8
	Stride   int
	Size     image.Point
	HasAlpha bool
}

// NewRaster wraps img without copying when it is already an NRGBA at the
// origin, and converts otherwise.
func NewRaster(img image.Image, hasAlpha bool) *Raster {
	n, ok := img.(*image.NRGBA)
	if !ok || n.Rect.Min != (image.Point{}) {
		b := img.Bounds()
		n = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(n, n.Rect, img, b.Min, draw.Src)
	}
	return &Raster{
		Pix:      n.Pix,
		Stride:   n.Stride,
		Size:     n.Rect.Size(),
		HasAlpha: hasAlpha,
	}
}

// Image exposes the buffer as an *image.NRGBA sharing the same pixels.
func (r *Raster) Image() *image.NRGBA {
	if r == nil {
		return nil
	}
	return &image.NRGBA{
		Pix:    r.Pix,
		Stride: r.Stride,
		Rect:   image.Rect(0, 0, r.Size.X, r.Size.Y),
	}
}

// Width returns the raster width in pixels.
func (r *Raster) Width() int { return r.Size.X }

// Height returns the raster height in pixels.
func (r *Raster) Height() int { return r.Size.Y }
