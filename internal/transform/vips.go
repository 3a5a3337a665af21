package transform

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"

	"photo-viewer/internal/logging"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsAvailable   bool
)

// errVipsUnavailable is returned by loadWithVips before InitVips.
var errVipsUnavailable = errors.New("libvips not available")

// vipsThreshold maps the application log level to the lowest libvips level
// that is still forwarded.
func vipsThreshold(level logging.LogLevel) vips.LogLevel {
	switch level {
	case logging.LevelDebug:
		return vips.LogLevelInfo
	case logging.LevelInfo:
		return vips.LogLevelWarning
	case logging.LevelWarn:
		return vips.LogLevelError
	case logging.LevelError:
		return vips.LogLevelCritical
	default:
		return vips.LogLevelWarning
	}
}

// forwardVipsLog routes a libvips message to the application logger.
// libvips orders levels from Error (most severe) to Debug.
func forwardVipsLog(domain string, level vips.LogLevel, msg string) {
	switch level {
	case vips.LogLevelError, vips.LogLevelCritical:
		logging.Error("[%s] %s", domain, msg)
	case vips.LogLevelWarning:
		logging.Warn("[%s] %s", domain, msg)
	default:
		logging.Debug("[%s] %s", domain, msg)
	}
}

// InitVips starts libvips. Call it once at startup; until it is called the
// pipeline decodes with jpegn and imaging only.
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	// Logging must be configured before Startup.
	vips.LoggingSettings(forwardVipsLog, vipsThreshold(logging.GetLevel()))

	// One image at a time: the viewer only ever decodes the current item.
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized successfully (version: %s)", vips.Version)
	return nil
}

// ShutdownVips releases libvips resources.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable returns whether libvips is initialized and available
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// loadWithVips decodes path with libvips, shrinking JPEGs by shrink during
// decode. EXIF rotation is left to ApplyOrientation.
func loadWithVips(path string, shrink int) (image.Image, error) {
	if !IsVipsAvailable() {
		return nil, errVipsUnavailable
	}

	params := vips.NewImportParams()
	params.AutoRotate.Set(false)
	if shrink > 1 {
		params.JpegShrinkFactor.Set(shrink)
	}

	ref, err := vips.LoadImageFromFile(path, params)
	if err != nil {
		return nil, fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()

	logging.Debug("Vips loaded %s at 1/%d: %dx%d", filepath.Base(path), shrink, ref.Width(), ref.Height())

	// Round-trip through an encoded buffer to obtain an image.Image; PNG keeps
	// the alpha band.
	var buf []byte
	if ref.HasAlpha() {
		buf, _, err = ref.ExportPng(vips.NewPngExportParams())
	} else {
		buf, _, err = ref.ExportJpeg(&vips.JpegExportParams{
			Quality:        95,
			StripMetadata:  true,
			OptimizeCoding: true,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(buf), imaging.AutoOrientation(false))
	if err != nil {
		return nil, fmt.Errorf("failed to decode vips output: %w", err)
	}
	return img, nil
}
