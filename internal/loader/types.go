package loader

import (
	"fmt"
	"image"

	"photo-viewer/internal/item"
	"photo-viewer/internal/transform"
)

// Scheduler queues fn to run on the UI thread. Callbacks for one item must
// run in submission order.
type Scheduler interface {
	Schedule(fn func())
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(fn func())

// Schedule calls f(fn).
func (f SchedulerFunc) Schedule(fn func()) { f(fn) }

// Collection provides metadata and decoded images for items.
type Collection interface {
	// LoadMetadata returns the tags of the item. An error marks the
	// metadata as failed; orientation then defaults to identity.
	LoadMetadata(info item.Info) (item.Meta, error)
	// LoadImage decodes the item, applying its orientation when
	// applyTransforms is set. It returns transform.ErrInterrupted once
	// probe reports false.
	LoadImage(info item.Info, probe transform.Probe, applyTransforms bool) (image.Image, error)
	// ViewerText returns the overlay title and subtitle.
	ViewerText(info item.Info, size image.Point, zoom item.Zoom) (title, subtitle string)
}

// Handler receives completion callbacks on the UI thread.
type Handler interface {
	// ImageLoaded runs after a decode succeeded or failed for good.
	ImageLoaded(id item.ID)
	// ImageSized runs after a resize pass, including one that produced no
	// view because the size was degenerate.
	ImageSized(id item.ID, zoom item.Zoom, sizing image.Point)
}

// SizingRequest describes one resize pass.
type SizingRequest struct {
	ID    item.ID
	Info  item.Info
	Image image.Image
	Box   image.Point
	Zoom  item.Zoom
}

// SizingHook lets one plugin take over or observe resizing.
type SizingHook interface {
	// BeforeSizing may produce the scaled view itself; returning true skips
	// the default resize.
	BeforeSizing(req SizingRequest) (*item.Raster, bool)
	// AfterSizing observes the view about to be published (nil on failure).
	AfterSizing(req SizingRequest, qview *item.Raster)
}

// State is the worker's position in its loop.
type State int32

const (
	Idle State = iota
	Loading
	Sizing
	Exiting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Sizing:
		return "sizing"
	case Exiting:
		return "exiting"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}
