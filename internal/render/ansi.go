package render

import (
	"bufio"
	"image"
	"image/color"
	"io"
	"strconv"
	"strings"
)

// upperHalf is drawn with the foreground set to the upper pixel and the
// background to the lower one, so each cell shows two pixel rows.
const upperHalf = "▀"

// CellsToPixels converts a terminal size in cells to the pixel viewport drawn
// by HalfBlocks.
func CellsToPixels(cols, rows int) image.Point {
	return image.Pt(max(cols, 0), max(rows, 0)*2)
}

// HalfBlocks returns img as 24-bit colour terminal text. Each line ends with
// an attribute reset; lines are joined by newlines without a trailing one.
func HalfBlocks(img image.Image) string {
	var b strings.Builder
	// strings.Builder never fails.
	_ = WriteHalfBlocks(&b, img)
	return b.String()
}

// WriteHalfBlocks writes img to w as 24-bit colour half-block characters.
func WriteHalfBlocks(w io.Writer, img image.Image) error {
	bw := bufio.NewWriter(w)
	bounds := img.Bounds()
	buf := make([]byte, 0, 48)

	for y := bounds.Min.Y; y < bounds.Max.Y; y += 2 {
		if y > bounds.Min.Y {
			bw.WriteByte('\n')
		}
		var lastFg, lastBg color.RGBA
		first := true
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			fg := rgb(img.At(x, y))
			bg := color.RGBA{}
			if y+1 < bounds.Max.Y {
				bg = rgb(img.At(x, y+1))
			}

			buf = buf[:0]
			if first || fg != lastFg {
				buf = appendColour(buf, 38, fg)
			}
			if first || bg != lastBg {
				buf = appendColour(buf, 48, bg)
			}
			buf = append(buf, upperHalf...)
			bw.Write(buf)

			lastFg, lastBg, first = fg, bg, false
		}
		bw.WriteString("\x1b[0m")
	}
	return bw.Flush()
}

func appendColour(buf []byte, layer int, c color.RGBA) []byte {
	buf = append(buf, "\x1b["...)
	buf = strconv.AppendInt(buf, int64(layer), 10)
	buf = append(buf, ";2;"...)
	buf = strconv.AppendUint(buf, uint64(c.R), 10)
	buf = append(buf, ';')
	buf = strconv.AppendUint(buf, uint64(c.G), 10)
	buf = append(buf, ';')
	buf = strconv.AppendUint(buf, uint64(c.B), 10)
	return append(buf, 'm')
}

// rgb flattens c onto black.
func rgb(c color.Color) color.RGBA {
	r, g, b, _ := c.RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 0xff}
}
