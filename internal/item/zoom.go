package item

import "fmt"

// Zoom is either Fit or a positive scale ratio.
type Zoom float64

// Fit scales the image to the viewport; the ratio is derived from the last
// scaled view rather than stored.
const Fit Zoom = 0

// IsFit reports whether z is the fit mode.
func (z Zoom) IsFit() bool {
	return z <= 0
}

func (z Zoom) String() string {
	if z.IsFit() {
		return "fit"
	}
	return fmt.Sprintf("%.0f%%", float64(z)*100)
}
