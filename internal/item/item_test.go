package item

import (
	"image"
	"image/color"
	"testing"
	"time"
)

func TestMetaOrientation(t *testing.T) {
	tests := []struct {
		name string
		meta Meta
		want int
	}{
		{name: "nil meta", meta: nil, want: 1},
		{name: "missing tag", meta: Meta{"Model": "X100"}, want: 1},
		{name: "rotate cw", meta: Meta{OrientationTag: "6"}, want: 6},
		{name: "padded value", meta: Meta{OrientationTag: " 3 "}, want: 3},
		{name: "out of range", meta: Meta{OrientationTag: "9"}, want: 1},
		{name: "not a number", meta: Meta{OrientationTag: "Rotate 90 CW"}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.meta.Orientation(); got != tt.want {
				t.Errorf("Orientation() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestArena(t *testing.T) {
	a := NewArena()
	now := time.Now()

	first := a.Add("a.jpg", now)
	second := a.Add("b.jpg", now)

	if first == second || first.IsNil() {
		t.Fatalf("Add() returned duplicate or nil IDs: %v %v", first, second)
	}
	if a.Len() != 2 {
		t.Errorf("Len() = %d, want 2", a.Len())
	}
	if it := a.Get(first); it == nil || it.Filename != "a.jpg" || it.ID != first {
		t.Errorf("Get(first) = %+v", it)
	}

	if !a.Remove(first) {
		t.Error("Remove(first) = false, want true")
	}
	if a.Remove(first) {
		t.Error("second Remove(first) = true, want false")
	}
	if a.Get(first) != nil {
		t.Error("Get() after Remove returned an item")
	}
	ids := a.IDs()
	if len(ids) != 1 || ids[0] != second {
		t.Errorf("IDs() = %v, want [%v]", ids, second)
	}
}

func TestReleaseImage(t *testing.T) {
	it := &Item{
		Image:       image.NewRGBA(image.Rect(0, 0, 4, 4)),
		ImageState:  Loaded,
		Transformed: true,
		QView:       &Raster{},
		Histogram:   &Histogram{},
		Thumb:       &Raster{},
	}
	it.ReleaseImage()

	if it.Image != nil || it.QView != nil || it.Histogram != nil {
		t.Error("ReleaseImage() left image-derived fields set")
	}
	if it.ImageState != Unloaded || it.Transformed {
		t.Errorf("ImageState = %v, Transformed = %v", it.ImageState, it.Transformed)
	}
	if it.Thumb == nil {
		t.Error("ReleaseImage() should keep the thumbnail")
	}
}

func TestInfoCopiesMeta(t *testing.T) {
	it := &Item{Filename: "x.jpg", Meta: Meta{OrientationTag: "6"}, MetaState: Loaded}
	info := it.Info()
	info.Meta[OrientationTag] = "1"

	if it.Meta.Orientation() != 6 {
		t.Error("mutating Info().Meta changed the item")
	}
}

func TestNewRaster(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 10, 13, 12))
	src.Set(10, 10, color.RGBA{R: 255, A: 255})

	r := NewRaster(src, false)
	if r.Size != (image.Point{X: 3, Y: 2}) {
		t.Fatalf("Size = %v, want (3,2)", r.Size)
	}
	img := r.Image()
	if got := img.NRGBAAt(0, 0); got.R != 255 || got.A != 255 {
		t.Errorf("pixel (0,0) = %v, want opaque red", got)
	}

	n := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	if wrapped := NewRaster(n, true); &wrapped.Pix[0] != &n.Pix[0] {
		t.Error("NewRaster copied an origin-aligned NRGBA")
	}

	var nilRaster *Raster
	if nilRaster.Image() != nil {
		t.Error("nil raster Image() should be nil")
	}
}

func TestZoomString(t *testing.T) {
	tests := []struct {
		zoom Zoom
		want string
	}{
		{Fit, "fit"},
		{1, "100%"},
		{0.5, "50%"},
		{1.2, "120%"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.zoom.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
