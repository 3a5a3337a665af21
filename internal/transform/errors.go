package transform

import "errors"

var (
	// ErrDecode wraps any failure to open or decode a source file.
	ErrDecode = errors.New("decode failed")
	// ErrDegenerate is returned when a target size has zero area.
	ErrDegenerate = errors.New("degenerate size")
	// ErrTooLarge is returned when a target size exceeds MaxRasterPixels.
	ErrTooLarge = errors.New("target size too large")
	// ErrInterrupted is returned when a Probe reports the work is stale.
	ErrInterrupted = errors.New("interrupted")
)

// Probe reports whether the caller still wants the result. A nil Probe
// always continues.
type Probe func() bool

func (p Probe) ok() bool {
	return p == nil || p()
}
