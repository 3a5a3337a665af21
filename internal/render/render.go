package render

import (
	"fmt"
	"image"
	"math"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"

	"photo-viewer/internal/item"
	"photo-viewer/internal/logging"
)

// Style sets the colours and sizes of a frame.
type Style struct {
	Background gg.RGBA
	Panel      gg.RGBA
	Text       gg.RGBA
	FontSize   float64
	Padding    float64
	// HistogramHeight is the height of the histogram panel in pixels.
	HistogramHeight float64
}

// DefaultStyle returns a dark theme.
func DefaultStyle() Style {
	return Style{
		Background:      gg.RGB(0, 0, 0),
		Panel:           gg.RGBA2(0, 0, 0, 0.6),
		Text:            gg.RGB(1, 1, 1),
		FontSize:        14,
		Padding:         6,
		HistogramHeight: 80,
	}
}

// Renderer composites scenes into RGBA frames.
type Renderer struct {
	style  Style
	source *text.FontSource
	face   text.Face
}

// New creates a renderer using the Go Regular font.
func New(style Style) (*Renderer, error) {
	if style.FontSize <= 0 {
		style.FontSize = DefaultStyle().FontSize
	}
	source, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	return &Renderer{
		style:  style,
		source: source,
		face:   source.Face(style.FontSize),
	}, nil
}

// Close releases the font.
func (r *Renderer) Close() error {
	return r.source.Close()
}

// Render draws s. The result has the size of s.Viewport.
func (r *Renderer) Render(s Scene) image.Image {
	if s.Viewport.X <= 0 || s.Viewport.Y <= 0 {
		return image.NewRGBA(image.Rectangle{})
	}

	dc := gg.NewContext(s.Viewport.X, s.Viewport.Y)
	defer dc.Close()
	dc.SetFont(r.face)
	dc.ClearWithColor(r.style.Background)

	switch {
	case s.View != nil:
		drawRaster(dc, s.View, s.ViewOrigin)
	case s.Thumb != nil:
		drawRaster(dc, s.Thumb, centre(s.Viewport, s.Thumb.Size))
	}
	if s.Message != "" && s.View == nil {
		dc.SetColor(r.style.Text.Color())
		dc.DrawStringAnchored(s.Message, float64(s.Viewport.X)/2, float64(s.Viewport.Y)/2, 0.5, 0.5)
	}

	if s.ShowInfo {
		r.drawText(dc, s.Title, s.Subtitle)
		if s.Histogram != nil {
			r.drawHistogram(dc, s.Histogram)
		}
	}

	if err := dc.FlushGPU(); err != nil {
		logging.Debug("render: flush failed: %v", err)
	}
	return dc.Image()
}

// drawRaster copies the visible part of ras to the screen at origin, pixel
// for pixel.
func drawRaster(dc *gg.Context, ras *item.Raster, origin image.Point) {
	screen := image.Rect(0, 0, dc.Width(), dc.Height())
	dst := image.Rectangle{Min: origin, Max: origin.Add(ras.Size)}.Intersect(screen)
	if dst.Empty() {
		return
	}
	src := dst.Sub(origin)
	dc.DrawImageEx(gg.ImageBufFromImage(ras.Image()), gg.DrawImageOptions{
		X:             float64(dst.Min.X),
		Y:             float64(dst.Min.Y),
		SrcRect:       &src,
		Interpolation: gg.InterpNearest,
		Opacity:       1,
		BlendMode:     gg.BlendNormal,
	})
}

// drawText draws the title and subtitle in a panel at the bottom left.
func (r *Renderer) drawText(dc *gg.Context, title, subtitle string) {
	lines := make([]string, 0, 2)
	for _, l := range []string{title, subtitle} {
		if l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return
	}

	pad := r.style.Padding
	var width, lineHeight float64
	for _, l := range lines {
		w, h := dc.MeasureString(l)
		width = math.Max(width, w)
		lineHeight = math.Max(lineHeight, h)
	}
	height := lineHeight*float64(len(lines)) + 2*pad
	top := float64(dc.Height()) - height

	dc.SetColor(r.style.Panel.Color())
	dc.DrawRectangle(0, top, width+2*pad, height)
	fill(dc)

	ascent := r.face.Metrics().Ascent
	dc.SetColor(r.style.Text.Color())
	for i, l := range lines {
		dc.DrawString(l, pad, top+pad+ascent+float64(i)*lineHeight)
	}
}

var histogramChannels = []struct {
	colour gg.RGBA
	bins   func(h *item.Histogram) *[256]uint32
}{
	{gg.RGBA2(1, 0, 0, 0.5), func(h *item.Histogram) *[256]uint32 { return &h.R }},
	{gg.RGBA2(0, 1, 0, 0.5), func(h *item.Histogram) *[256]uint32 { return &h.G }},
	{gg.RGBA2(0, 0, 1, 0.5), func(h *item.Histogram) *[256]uint32 { return &h.B }},
}

// drawHistogram draws the RGB histogram in a panel at the bottom right.
func (r *Renderer) drawHistogram(dc *gg.Context, h *item.Histogram) {
	if h.Peak == 0 {
		return
	}
	pad := r.style.Padding
	width := math.Min(256, float64(dc.Width())/3)
	height := math.Min(r.style.HistogramHeight, float64(dc.Height())/3)
	if width < 16 || height < 8 {
		return
	}
	left := float64(dc.Width()) - width - 2*pad
	top := float64(dc.Height()) - height - 2*pad

	dc.SetColor(r.style.Panel.Color())
	dc.DrawRectangle(left, top, width+2*pad, height+2*pad)
	fill(dc)

	x0 := left + pad
	base := top + pad + height
	step := width / 255
	peak := float64(h.Peak)
	for _, ch := range histogramChannels {
		bins := ch.bins(h)
		dc.SetColor(ch.colour.Color())
		dc.MoveTo(x0, base)
		for i, n := range bins {
			dc.LineTo(x0+float64(i)*step, base-height*math.Min(float64(n)/peak, 1))
		}
		dc.LineTo(x0+width, base)
		dc.ClosePath()
		fill(dc)
	}
}

func fill(dc *gg.Context) {
	if err := dc.Fill(); err != nil {
		logging.Debug("render: fill failed: %v", err)
	}
}
