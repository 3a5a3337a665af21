package viewer

import (
	"image"
	"math"
	"math/rand"
	"testing"

	"photo-viewer/internal/item"
)

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestCoordinateTransformsAreInverses(t *testing.T) {
	imgSize := image.Pt(1000, 800)
	viewport := image.Pt(640, 480)
	rng := rand.New(rand.NewSource(7))

	for _, z := range []float64{0.1, 0.37, 0.5, 1, 1.2, 2, 3.7} {
		c, w, _ := showing(imgSize, viewport, DefaultOptions())
		deliver(c, w, item.Zoom(z))

		for trial := 0; trial < 20; trial++ {
			c.pos = clampPos(Pos{X: rng.Float64() * 1000, Y: rng.Float64() * 800}, imgSize, viewport, z)

			imgTol := max(1, int(math.Ceil(1/z)))
			screenTol := int(math.Ceil(z)) + 1

			for i := 0; i < 20; i++ {
				p := image.Pt(rng.Intn(imgSize.X), rng.Intn(imgSize.Y))
				s, ok := c.ImageXYToScreen(p)
				if !ok {
					t.Fatalf("zoom %v: ImageXYToScreen not available", z)
				}
				back, _ := c.ScreenXYToImage(s)
				if abs(back.X-p.X) > imgTol || abs(back.Y-p.Y) > imgTol {
					t.Errorf("zoom %v pan %+v: image %v -> screen %v -> image %v", z, c.pos, p, s, back)
				}

				sp := image.Pt(rng.Intn(viewport.X), rng.Intn(viewport.Y))
				ip, _ := c.ScreenXYToImage(sp)
				sback, _ := c.ImageXYToScreen(ip)
				if abs(sback.X-sp.X) > screenTol || abs(sback.Y-sp.Y) > screenTol {
					t.Errorf("zoom %v pan %+v: screen %v -> image %v -> screen %v", z, c.pos, sp, ip, sback)
				}

				q, _ := c.ScreenXYToScaledImage(sp)
				qback, _ := c.ScaledImageXYToScreen(q)
				if abs(qback.X-sp.X) > 1 || abs(qback.Y-sp.Y) > 1 {
					t.Errorf("zoom %v: screen %v -> scaled %v -> screen %v", z, sp, q, qback)
				}

				scaled, _ := c.ImageXYToScaledImage(p)
				pback, _ := c.ScaledImageXYToImage(scaled)
				if abs(pback.X-p.X) > imgTol || abs(pback.Y-p.Y) > imgTol {
					t.Errorf("zoom %v: image %v -> scaled %v -> image %v", z, p, scaled, pback)
				}
			}
		}
	}
}

func TestSmallViewIsCentred(t *testing.T) {
	c, w, _ := showing(image.Pt(100, 50), image.Pt(400, 300), DefaultOptions())
	deliver(c, w, item.Zoom(1))

	got, ok := c.ImageXYToScreen(image.Pt(0, 0))
	if !ok {
		t.Fatal("ImageXYToScreen not available")
	}
	if want := image.Pt(150, 125); got != want {
		t.Errorf("origin maps to %v, want %v", got, want)
	}
}

func TestTransformsNeedAView(t *testing.T) {
	w := &fakeWorker{it: newLoadedItem(image.Pt(10, 10))}
	c := New(w, DefaultOptions())
	c.SetItem(nil, w.it.ID)

	if _, ok := c.ImageXYToScreen(image.Pt(1, 1)); ok {
		t.Error("ImageXYToScreen available without a scaled view")
	}
	if _, ok := c.GetZoom(); ok {
		t.Error("fit zoom known without a scaled view")
	}
}

func TestGetZoomFollowsFitView(t *testing.T) {
	tests := []struct {
		name     string
		img      image.Point
		viewport image.Point
		want     float64
	}{
		{name: "half size", img: image.Pt(1600, 1200), viewport: image.Pt(800, 600), want: 0.5},
		{name: "height limited", img: image.Pt(3000, 4000), viewport: image.Pt(800, 600), want: 0.15},
		{name: "upscaled", img: image.Pt(200, 100), viewport: image.Pt(800, 600), want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := showing(tt.img, tt.viewport, DefaultOptions())
			got, ok := c.GetZoom()
			if !ok || math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("GetZoom() = (%v, %v), want %v", got, ok, tt.want)
			}
		})
	}
}

func TestClampPos(t *testing.T) {
	img := image.Pt(1000, 500)
	viewport := image.Pt(400, 400)

	tests := []struct {
		name string
		pos  Pos
		zoom float64
		want Pos
	}{
		{name: "inside", pos: Pos{X: 100, Y: 50}, zoom: 1, want: Pos{X: 100, Y: 50}},
		{name: "negative", pos: Pos{X: -5, Y: -1}, zoom: 1, want: Pos{}},
		{name: "past the end", pos: Pos{X: 900, Y: 400}, zoom: 1, want: Pos{X: 600, Y: 100}},
		{name: "zoomed in", pos: Pos{X: 900, Y: 400}, zoom: 2, want: Pos{X: 800, Y: 300}},
		{name: "image smaller than viewport", pos: Pos{X: 10, Y: 10}, zoom: 0.25, want: Pos{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clampPos(tt.pos, img, viewport, tt.zoom); got != tt.want {
				t.Errorf("clampPos() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
