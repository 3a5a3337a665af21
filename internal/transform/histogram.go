package transform

import (
	"image"

	"photo-viewer/internal/item"
)

// ComputeHistogram counts 8-bit channel values of img.
func ComputeHistogram(img image.Image) *item.Histogram {
	h := &item.Histogram{}
	if img == nil {
		return h
	}

	add := func(r, g, b uint8) {
		h.R[r]++
		h.G[g]++
		h.B[b]++
		h.Luma[(299*uint32(r)+587*uint32(g)+114*uint32(b))/1000]++
	}

	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := n.Pix[n.PixOffset(b.Min.X, y):n.PixOffset(b.Max.X, y)]
			for i := 0; i+3 < len(row); i += 4 {
				add(row[i], row[i+1], row[i+2])
			}
		}
	} else {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				r, g, bl, _ := img.At(x, y).RGBA()
				add(uint8(r>>8), uint8(g>>8), uint8(bl>>8))
			}
		}
	}

	for i := 0; i < 256; i++ {
		h.Peak = max(h.Peak, h.R[i], h.G[i], h.B[i])
	}
	return h
}
