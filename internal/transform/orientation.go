package transform

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Op is a lossless flip or rotation. Rotations are counter-clockwise.
type Op int

// Primitive operations.
const (
	FlipH Op = iota + 1
	FlipV
	Rotate90
	Rotate180
	Rotate270
)

func (op Op) String() string {
	switch op {
	case FlipH:
		return "flip-h"
	case FlipV:
		return "flip-v"
	case Rotate90:
		return "rotate-90"
	case Rotate180:
		return "rotate-180"
	case Rotate270:
		return "rotate-270"
	default:
		return fmt.Sprintf("Op(%d)", int(op))
	}
}

// Inverse returns the op that undoes op.
func (op Op) Inverse() Op {
	switch op {
	case Rotate90:
		return Rotate270
	case Rotate270:
		return Rotate90
	default:
		return op
	}
}

// Apply performs op on img.
func (op Op) Apply(img image.Image) image.Image {
	switch op {
	case FlipH:
		return imaging.FlipH(img)
	case FlipV:
		return imaging.FlipV(img)
	case Rotate90:
		return imaging.Rotate90(img)
	case Rotate180:
		return imaging.Rotate180(img)
	case Rotate270:
		return imaging.Rotate270(img)
	default:
		return img
	}
}

// Orientation is an EXIF orientation code, 1 through 8.
type Orientation int

// orientationOps undoes each EXIF orientation.
var orientationOps = map[Orientation][]Op{
	2: {FlipH},
	3: {Rotate180},
	4: {FlipV},
	5: {FlipH, Rotate90}, // transpose
	6: {Rotate270},
	7: {FlipV, Rotate90}, // transverse
	8: {Rotate90},
}

// Ops returns the sequence that turns a stored image upright. Codes of 1 or
// below and unknown codes yield nil.
func (o Orientation) Ops() []Op {
	return orientationOps[o]
}

// Inverse returns the sequence that restores the stored layout from an
// upright image.
func (o Orientation) Inverse() []Op {
	ops := o.Ops()
	inv := make([]Op, len(ops))
	for i, op := range ops {
		inv[len(ops)-1-i] = op.Inverse()
	}
	return inv
}

// SwapsAxes reports whether the orientation exchanges width and height.
func (o Orientation) SwapsAxes() bool {
	return o >= 5 && o <= 8
}

// ApplyOrientation turns img upright for the given EXIF code.
func ApplyOrientation(img image.Image, o Orientation, probe Probe) (image.Image, error) {
	return ApplyOps(img, o.Ops(), probe)
}

// ApplyOps applies ops in order, checking probe before each one.
func ApplyOps(img image.Image, ops []Op, probe Probe) (image.Image, error) {
	for _, op := range ops {
		if !probe.ok() {
			return nil, ErrInterrupted
		}
		img = op.Apply(img)
	}
	return img, nil
}
