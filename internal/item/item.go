package item

import (
	"fmt"
	"image"
	"maps"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ID is the stable identity of an item. Background results are published
// only while the item they were computed for is still the current ID.
type ID uuid.UUID

// Nil is the zero ID; no item ever carries it.
var Nil ID

// NewID returns a fresh random ID.
func NewID() ID {
	return ID(uuid.New())
}

func (id ID) String() string {
	return uuid.UUID(id).String()
}

// IsNil reports whether id is the zero ID.
func (id ID) IsNil() bool {
	return id == Nil
}

// LoadState tracks a lazily loaded field.
type LoadState int

const (
	// Unloaded means the field has not been requested yet.
	Unloaded LoadState = iota
	// Loaded means the field holds a value.
	Loaded
	// Failed means loading was attempted and failed; a reload may be retried.
	Failed
)

func (s LoadState) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("LoadState(%d)", int(s))
	}
}

// OrientationTag is the metadata key holding the EXIF orientation code.
const OrientationTag = "Orientation"

// Meta maps metadata tag names to their string values.
type Meta map[string]string

// Orientation returns the EXIF orientation code, or 1 when the tag is
// missing or unparseable.
func (m Meta) Orientation() int {
	v, ok := m[OrientationTag]
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 || n > 8 {
		return 1
	}
	return n
}

// Item is one photograph. Fields other than ID, Filename and Mtime are
// written only by the loader while it holds its lock.
type Item struct {
	ID       ID
	Filename string
	Mtime    time.Time

	Meta      Meta
	MetaState LoadState

	// Image is the decoded raster at working resolution.
	Image      image.Image
	ImageState LoadState
	// Transformed records whether Image had orientation applied.
	Transformed bool

	// QView is derived from Image and the last sizing; nil when stale.
	QView *Raster

	Thumb      *Raster
	ThumbState LoadState

	Histogram *Histogram
}

// ReleaseImage drops the decoded image and everything derived from it.
func (it *Item) ReleaseImage() {
	it.Image = nil
	it.ImageState = Unloaded
	it.Transformed = false
	it.QView = nil
	it.Histogram = nil
}

// ImageSize returns the bounds size of the decoded image, or the zero point.
func (it *Item) ImageSize() image.Point {
	if it.Image == nil {
		return image.Point{}
	}
	return it.Image.Bounds().Size()
}

// Info returns an immutable snapshot for collaborators running without the
// lock.
func (it *Item) Info() Info {
	return Info{
		ID:        it.ID,
		Filename:  it.Filename,
		Mtime:     it.Mtime,
		Meta:      maps.Clone(it.Meta),
		MetaState: it.MetaState,
		ImageSize: it.ImageSize(),
	}
}

// Info is a lock-free snapshot of an item's identity and metadata.
type Info struct {
	ID        ID
	Filename  string
	Mtime     time.Time
	Meta      Meta
	MetaState LoadState
	ImageSize image.Point
}

// Histogram holds per-channel 256-bin counts for the info panel.
type Histogram struct {
	R, G, B, Luma [256]uint32
	// Peak is the largest bin across R, G and B.
	Peak uint32
}
