package transform

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"photo-viewer/internal/item"
)

// MaxRasterPixels caps the area of a scaled view.
const MaxRasterPixels = 1 << 28

// Quality selects the resampling filter.
type Quality int

const (
	// QualityFast uses nearest neighbour sampling.
	QualityFast Quality = iota
	// QualityHigh uses Lanczos resampling.
	QualityHigh
)

// ParseQuality maps "fast" or "high" to a Quality.
func ParseQuality(s string) (Quality, error) {
	switch s {
	case "fast", "nearest":
		return QualityFast, nil
	case "high", "lanczos", "":
		return QualityHigh, nil
	default:
		return QualityHigh, fmt.Errorf("unknown resize quality %q", s)
	}
}

func (q Quality) String() string {
	if q == QualityFast {
		return "fast"
	}
	return "high"
}

func (q Quality) filter() imaging.ResampleFilter {
	if q == QualityFast {
		return imaging.NearestNeighbor
	}
	return imaging.Lanczos
}

// FitSize returns the largest size with src's aspect ratio that fits in box.
// When box is relatively wider than src, height is the limiting side.
func FitSize(src, box image.Point) image.Point {
	iw, ih := src.X, src.Y
	bw, bh := box.X, box.Y
	if iw <= 0 || ih <= 0 {
		return image.Point{}
	}
	if bw*ih > bh*iw {
		return image.Point{X: bh * iw / ih, Y: bh}
	}
	return image.Point{X: bw, Y: bw * ih / iw}
}

// ZoomSize scales src by z, rounding each side.
func ZoomSize(src image.Point, z float64) image.Point {
	return image.Point{
		X: int(math.Round(z * float64(src.X))),
		Y: int(math.Round(z * float64(src.Y))),
	}
}

// TargetSize computes the scaled size of src for zoom, fitting into box when
// zoom is item.Fit.
func TargetSize(src, box image.Point, zoom item.Zoom) (image.Point, error) {
	if src.X <= 0 || src.Y <= 0 {
		return image.Point{}, fmt.Errorf("%w: source %dx%d", ErrDegenerate, src.X, src.Y)
	}

	var size image.Point
	if zoom.IsFit() {
		size = FitSize(src, box)
	} else {
		size = ZoomSize(src, float64(zoom))
	}

	if size.X <= 0 || size.Y <= 0 {
		return image.Point{}, fmt.Errorf("%w: target %dx%d", ErrDegenerate, size.X, size.Y)
	}
	if float64(size.X)*float64(size.Y) > MaxRasterPixels {
		return image.Point{}, fmt.Errorf("%w: target %dx%d", ErrTooLarge, size.X, size.Y)
	}
	return size, nil
}

// Resize scales img for box and zoom.
func Resize(img image.Image, box image.Point, zoom item.Zoom, q Quality) (*item.Raster, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: no image", ErrDegenerate)
	}
	src := img.Bounds().Size()
	size, err := TargetSize(src, box, zoom)
	if err != nil {
		return nil, err
	}

	var scaled *image.NRGBA
	if size == src {
		scaled = imaging.Clone(img)
	} else {
		scaled = imaging.Resize(img, size.X, size.Y, q.filter())
	}
	return item.NewRaster(scaled, HasAlpha(img)), nil
}

// HasAlpha reports whether img carries a non-opaque alpha band.
func HasAlpha(img image.Image) bool {
	switch img.(type) {
	case *image.YCbCr, *image.Gray, *image.Gray16, *image.CMYK:
		return false
	}
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return true
}
