package transform

import (
	"errors"
	"image"
	"testing"
)

func TestOrientationRoundTrip(t *testing.T) {
	src := patternImage(5, 3)

	for o := Orientation(0); o <= 9; o++ {
		t.Run(o.name(), func(t *testing.T) {
			upright, err := ApplyOrientation(src, o, nil)
			if err != nil {
				t.Fatalf("ApplyOrientation() error = %v", err)
			}
			restored, err := ApplyOps(upright, o.Inverse(), nil)
			if err != nil {
				t.Fatalf("ApplyOps(inverse) error = %v", err)
			}
			if !samePixels(src, restored) {
				t.Errorf("orientation %d: inverse did not restore the original layout", o)
			}
		})
	}
}

func (o Orientation) name() string {
	return "orientation-" + string(rune('0'+int(o)))
}

func TestOrientationSize(t *testing.T) {
	src := patternImage(4, 3)

	for o := Orientation(1); o <= 8; o++ {
		got, err := ApplyOrientation(src, o, nil)
		if err != nil {
			t.Fatalf("ApplyOrientation(%d) error = %v", o, err)
		}
		want := image.Pt(4, 3)
		if o.SwapsAxes() {
			want = image.Pt(3, 4)
		}
		if size := got.Bounds().Size(); size != want {
			t.Errorf("orientation %d: size = %v, want %v", o, size, want)
		}
	}
}

func TestOrientationCorners(t *testing.T) {
	// Where the stored top-left pixel ends up once the image is upright.
	src := patternImage(4, 3)
	marker := src.At(0, 0)

	tests := []struct {
		o    Orientation
		want image.Point
	}{
		{1, image.Pt(0, 0)},
		{2, image.Pt(3, 0)},
		{3, image.Pt(3, 2)},
		{4, image.Pt(0, 2)},
		{5, image.Pt(0, 0)},
		{6, image.Pt(2, 0)},
		{7, image.Pt(2, 3)},
		{8, image.Pt(0, 3)},
	}
	for _, tt := range tests {
		t.Run(tt.o.name(), func(t *testing.T) {
			got, err := ApplyOrientation(src, tt.o, nil)
			if err != nil {
				t.Fatalf("ApplyOrientation() error = %v", err)
			}
			if got.At(tt.want.X, tt.want.Y) != marker {
				t.Errorf("orientation %d: marker not at %v", tt.o, tt.want)
			}
		})
	}
}

func TestApplyOpsInterrupted(t *testing.T) {
	calls := 0
	probe := func() bool {
		calls++
		return calls < 2
	}
	_, err := ApplyOps(patternImage(2, 2), Orientation(7).Ops(), probe)
	if !errors.Is(err, ErrInterrupted) {
		t.Errorf("ApplyOps() error = %v, want ErrInterrupted", err)
	}
}

func TestOpInverse(t *testing.T) {
	for _, op := range []Op{FlipH, FlipV, Rotate90, Rotate180, Rotate270} {
		if op.Inverse().Inverse() != op {
			t.Errorf("%v: inverse is not an involution", op)
		}
	}
	if Rotate90.Inverse() != Rotate270 {
		t.Errorf("Rotate90.Inverse() = %v", Rotate90.Inverse())
	}
}
