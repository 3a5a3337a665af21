package transform

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"time"

	// Image format decoders
	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/jpegn"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"github.com/h2non/filetype/types"
	_ "golang.org/x/image/bmp"  // BMP format support
	_ "golang.org/x/image/tiff" // TIFF format support
	_ "golang.org/x/image/webp" // WebP format support

	"photo-viewer/internal/filesystem"
	"photo-viewer/internal/logging"
	"photo-viewer/internal/metrics"
)

// DefaultDraftSize is the working resolution a draft decode aims for.
var DefaultDraftSize = image.Point{X: 1024, Y: 600}

// headerSize is the number of bytes filetype needs to identify a format.
const headerSize = 261

// LoadOptions configures Load.
type LoadOptions struct {
	// DraftSize bounds the decoded resolution from below: the image is
	// reduced by powers of two only while both sides stay at least this big.
	// A zero value disables reduction.
	DraftSize image.Point
	Retry     filesystem.RetryConfig
}

// DefaultLoadOptions returns the options used by the viewer.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		DraftSize: DefaultDraftSize,
		Retry:     filesystem.DefaultRetryConfig(),
	}
}

// Load decodes path as a draft bounded to opts.DraftSize. Orientation is not
// applied. The probe is checked after opening, after decoding and after
// draft reduction.
func Load(path string, opts LoadOptions, probe Probe) (image.Image, error) {
	f, err := filesystem.OpenWithRetry(path, opts.Retry)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	if !probe.ok() {
		return nil, ErrInterrupted
	}

	kind, err := sniff(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, filepath.Base(path), err)
	}

	img, err := decode(f, path, kind, opts.DraftSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, filepath.Base(path), err)
	}

	if !probe.ok() {
		return nil, ErrInterrupted
	}

	img = reduceDraft(img, opts.DraftSize)

	if !probe.ok() {
		return nil, ErrInterrupted
	}
	return img, nil
}

// sniff identifies the format from the file header and rewinds f.
func sniff(f *os.File) (types.Type, error) {
	head := make([]byte, headerSize)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return filetype.Unknown, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return filetype.Unknown, err
	}
	kind, _ := filetype.Match(head[:n])
	return kind, nil
}

// decode picks a decoder for the sniffed format: libvips when initialised,
// jpegn for JPEG, and the imaging fallback for everything else.
func decode(f *os.File, path string, kind types.Type, draft image.Point) (image.Image, error) {
	isJPEG := kind == matchers.TypeJpeg
	if IsVipsAvailable() && kind != filetype.Unknown {
		shrink := 1
		if isJPEG {
			if cfg, err := jpegn.DecodeConfig(f); err == nil {
				shrink = draftScale(image.Pt(cfg.Width, cfg.Height), draft)
			}
			if _, err := f.Seek(0, io.SeekStart); err != nil {
				return nil, err
			}
		}
		img, err := timed("vips", func() (image.Image, error) {
			return loadWithVips(path, shrink)
		})
		if err == nil {
			return img, nil
		}
		logging.Debug("vips decode of %s failed, falling back: %v", filepath.Base(path), err)
	}

	if isJPEG {
		return timed("jpegn", func() (image.Image, error) {
			return jpegn.Decode(f, &jpegn.Options{
				ToRGBA:         true,
				UpsampleMethod: jpegn.CatmullRom,
			})
		})
	}

	return timed("imaging", func() (image.Image, error) {
		return imaging.Decode(f, imaging.AutoOrientation(false))
	})
}

func timed(decoder string, fn func() (image.Image, error)) (image.Image, error) {
	start := time.Now()
	img, err := fn()
	metrics.DecodeDuration.WithLabelValues(decoder).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.DecodeTotal.WithLabelValues(decoder, "error").Inc()
		return nil, err
	}
	metrics.DecodeTotal.WithLabelValues(decoder, "success").Inc()
	return img, nil
}

// draftScale returns the largest of 8, 4, 2 or 1 that keeps both sides of
// size at least as large as box.
func draftScale(size, box image.Point) int {
	if box.X <= 0 || box.Y <= 0 {
		return 1
	}
	scale := min(size.X/box.X, size.Y/box.Y)
	for _, s := range []int{8, 4, 2} {
		if scale >= s {
			return s
		}
	}
	return 1
}

func reduceDraft(img image.Image, box image.Point) image.Image {
	size := img.Bounds().Size()
	s := draftScale(size, box)
	if s == 1 {
		return img
	}
	return imaging.Resize(img, size.X/s, size.Y/s, imaging.Box)
}
