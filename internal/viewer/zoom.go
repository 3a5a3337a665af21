package viewer

import (
	"fmt"

	"photo-viewer/internal/item"
)

type zoomKind int

const (
	zoomFit zoomKind = iota
	zoomIn
	zoomOut
	zoomRatio
)

// ZoomTarget is the argument to SetZoom.
type ZoomTarget struct {
	kind  zoomKind
	ratio float64
}

var (
	// ZoomFit fits the whole image into the viewport.
	ZoomFit = ZoomTarget{kind: zoomFit}
	// ZoomIn multiplies the effective zoom by the zoom step.
	ZoomIn = ZoomTarget{kind: zoomIn}
	// ZoomOut divides the effective zoom by the zoom step.
	ZoomOut = ZoomTarget{kind: zoomOut}
)

// ZoomRatio requests an explicit ratio; 1 shows one image pixel per screen
// pixel.
func ZoomRatio(z float64) ZoomTarget {
	return ZoomTarget{kind: zoomRatio, ratio: z}
}

// Label names the target kind for metrics.
func (t ZoomTarget) Label() string {
	switch t.kind {
	case zoomFit:
		return "fit"
	case zoomIn:
		return "in"
	case zoomOut:
		return "out"
	default:
		return "ratio"
	}
}

func (t ZoomTarget) String() string {
	if t.kind == zoomRatio {
		return item.Zoom(t.ratio).String()
	}
	return t.Label()
}

// resolve turns the target into a concrete zoom given the effective zoom.
func (t ZoomTarget) resolve(current, step float64) (item.Zoom, error) {
	switch t.kind {
	case zoomFit:
		return item.Fit, nil
	case zoomIn:
		return item.Zoom(current * step), nil
	case zoomOut:
		return item.Zoom(current / step), nil
	default:
		if t.ratio <= 0 {
			return 0, fmt.Errorf("viewer: invalid zoom ratio %v", t.ratio)
		}
		return item.Zoom(t.ratio), nil
	}
}
