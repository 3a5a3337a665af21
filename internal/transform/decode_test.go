package transform

import (
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/davidbyttow/govips/v2/vips"

	"photo-viewer/internal/item"
	"photo-viewer/internal/logging"
)

func TestDraftScale(t *testing.T) {
	box := image.Pt(1024, 600)
	tests := []struct {
		size image.Point
		want int
	}{
		{image.Pt(4000, 3000), 2},
		{image.Pt(8192, 6000), 8},
		{image.Pt(5000, 2500), 4},
		{image.Pt(1024, 600), 1},
		{image.Pt(800, 2000), 1},
	}
	for _, tt := range tests {
		if got := draftScale(tt.size, box); got != tt.want {
			t.Errorf("draftScale(%v) = %d, want %d", tt.size, got, tt.want)
		}
	}
	if got := draftScale(image.Pt(4000, 3000), image.Point{}); got != 1 {
		t.Errorf("draftScale with zero box = %d, want 1", got)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name     string
		format   string
		width    int
		height   int
		wantSize image.Point
	}{
		{name: "large jpeg is reduced", format: "jpg", width: 2100, height: 1300, wantSize: image.Pt(1050, 650)},
		{name: "small jpeg untouched", format: "jpg", width: 640, height: 480, wantSize: image.Pt(640, 480)},
		{name: "png", format: "png", width: 300, height: 200, wantSize: image.Pt(300, 200)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tt.name+"."+tt.format)
			createTestImage(t, path, tt.width, tt.height, tt.format)

			img, err := Load(path, DefaultLoadOptions(), nil)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if got := img.Bounds().Size(); got != tt.wantSize {
				t.Errorf("size = %v, want %v", got, tt.wantSize)
			}
		})
	}
}

func TestLoadFailures(t *testing.T) {
	tmpDir := t.TempDir()

	corrupt := filepath.Join(tmpDir, "corrupt.jpg")
	if err := os.WriteFile(corrupt, []byte("\xff\xd8\xff\xe0 definitely not a jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}
	text := filepath.Join(tmpDir, "notes.txt")
	if err := os.WriteFile(text, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{filepath.Join(tmpDir, "missing.jpg"), corrupt, text} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			if _, err := Load(path, DefaultLoadOptions(), nil); !errors.Is(err, ErrDecode) {
				t.Errorf("Load() error = %v, want ErrDecode", err)
			}
		})
	}
}

func TestLoadInterrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.png")
	createTestImage(t, path, 64, 64, "png")

	for checkpoint := 1; checkpoint <= 3; checkpoint++ {
		calls := 0
		probe := func() bool {
			calls++
			return calls < checkpoint
		}
		if _, err := Load(path, DefaultLoadOptions(), probe); !errors.Is(err, ErrInterrupted) {
			t.Errorf("checkpoint %d: Load() error = %v, want ErrInterrupted", checkpoint, err)
		}
	}
}

// A 4000x3000 capture tagged orientation 6 shown fit in an 800x600 viewport.
func TestPipelineRotatedFit(t *testing.T) {
	stored := image.NewNRGBA(image.Rect(0, 0, 4000, 3000))

	draft := reduceDraft(stored, DefaultDraftSize)
	upright, err := ApplyOrientation(draft, 6, nil)
	if err != nil {
		t.Fatalf("ApplyOrientation() error = %v", err)
	}
	if got := upright.Bounds().Size(); got.X >= got.Y {
		t.Fatalf("upright size = %v, want portrait", got)
	}

	qview, err := Resize(upright, image.Pt(800, 600), item.Fit, QualityFast)
	if err != nil {
		t.Fatalf("Resize() error = %v", err)
	}
	if qview.Size != image.Pt(450, 600) {
		t.Errorf("qview size = %v, want 450x600", qview.Size)
	}

	// Without the draft the geometry is identical.
	if got := FitSize(image.Pt(3000, 4000), image.Pt(800, 600)); got != image.Pt(450, 600) {
		t.Errorf("FitSize(3000x4000) = %v, want 450x600", got)
	}
}

func TestVipsThreshold(t *testing.T) {
	tests := []struct {
		level logging.LogLevel
		want  vips.LogLevel
	}{
		{logging.LevelDebug, vips.LogLevelInfo},
		{logging.LevelInfo, vips.LogLevelWarning},
		{logging.LevelWarn, vips.LogLevelError},
		{logging.LevelError, vips.LogLevelCritical},
	}
	for _, tt := range tests {
		if got := vipsThreshold(tt.level); got != tt.want {
			t.Errorf("vipsThreshold(%v) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestLoadWithVipsUnavailable(t *testing.T) {
	if IsVipsAvailable() {
		t.Skip("libvips initialised by another test")
	}
	if _, err := loadWithVips("x.jpg", 1); !errors.Is(err, errVipsUnavailable) {
		t.Errorf("loadWithVips() error = %v, want errVipsUnavailable", err)
	}
}
