package app

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"photo-viewer/internal/collection"
	"photo-viewer/internal/item"
	"photo-viewer/internal/loader"
	"photo-viewer/internal/logging"
	"photo-viewer/internal/thumbnail"
	"photo-viewer/internal/workers"
)

// configEnv lists every variable the configuration reads.
var configEnv = []string{
	"PHOTO_DIR", "DRAFT_SIZE", "ZOOM_STEP", "MIN_ZOOM", "MAX_ZOOM",
	"RESIZE_QUALITY", "SORT", "SORT_ORDER", "RECURSIVE", "METRICS_ADDR",
	"LOG_FILE", workers.OverrideEnv,
}

// isolate points the configuration at temporary directories and returns
// a directory for test photos.
func isolate(t *testing.T) string {
	t.Helper()
	for _, key := range configEnv {
		t.Setenv(key, "")
	}
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CACHE_DIR", t.TempDir())
	t.Chdir(t.TempDir())
	t.Cleanup(func() { logging.SetOutput(os.Stderr) })

	photos := filepath.Join(t.TempDir(), "photos")
	if err := os.MkdirAll(photos, 0o755); err != nil {
		t.Fatalf("failed to create photo dir: %v", err)
	}
	return photos
}

func writeImage(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := imaging.New(w, h, c)
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func runCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func isRed(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r>>8 > 200 && g>>8 < 50 && b>>8 < 50
}

func isBlack(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r>>8 < 20 && g>>8 < 20 && b>>8 < 20
}

func TestRunSnapshotFit(t *testing.T) {
	photos := isolate(t)
	red := color.NRGBA{R: 255, A: 255}
	writeImage(t, filepath.Join(photos, "a.png"), 64, 32, red)
	writeImage(t, filepath.Join(photos, "b.png"), 64, 32, color.NRGBA{B: 255, A: 255})
	out := filepath.Join(t.TempDir(), "out.png")

	err := Run(runCtx(t), Options{Paths: []string{photos}, Snapshot: out, Size: "32x32"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	img, err := imaging.Open(out)
	if err != nil {
		t.Fatalf("failed to read snapshot: %v", err)
	}
	if got := img.Bounds().Size(); got != image.Pt(32, 32) {
		t.Fatalf("snapshot size = %v, want 32x32", got)
	}
	// A 2:1 image fitted into a square leaves bands above and below.
	if c := img.At(16, 16); !isRed(c) {
		t.Errorf("centre = %v, want the first image", c)
	}
	if c := img.At(16, 2); !isBlack(c) {
		t.Errorf("top band = %v, want background", c)
	}
}

func TestRunSnapshotZoom(t *testing.T) {
	photos := isolate(t)
	writeImage(t, filepath.Join(photos, "a.png"), 64, 32, color.NRGBA{R: 255, A: 255})
	out := filepath.Join(t.TempDir(), "out.png")

	err := Run(runCtx(t), Options{Paths: []string{photos}, Snapshot: out, Size: "32x32", Zoom: 1})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	img, err := imaging.Open(out)
	if err != nil {
		t.Fatalf("failed to read snapshot: %v", err)
	}
	// At 100% the image covers the whole viewport.
	for _, p := range []image.Point{{0, 0}, {16, 2}, {31, 31}} {
		if c := img.At(p.X, p.Y); !isRed(c) {
			t.Errorf("pixel %v = %v, want image", p, c)
		}
	}
}

func TestRunSnapshotPlaylist(t *testing.T) {
	photos := isolate(t)
	writeImage(t, filepath.Join(photos, "a.png"), 32, 32, color.NRGBA{B: 255, A: 255})
	writeImage(t, filepath.Join(photos, "b.png"), 32, 32, color.NRGBA{R: 255, A: 255})
	list := filepath.Join(photos, "pick.m3u")
	if err := os.WriteFile(list, []byte("#EXTM3U\nmissing.png\nnotes.txt\nb.png\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(photos, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "out.png")

	err := Run(runCtx(t), Options{Paths: []string{list}, Snapshot: out, Size: "16x16"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	img, err := imaging.Open(out)
	if err != nil {
		t.Fatalf("failed to read snapshot: %v", err)
	}
	if c := img.At(8, 8); !isRed(c) {
		t.Errorf("centre = %v, want the listed photo", c)
	}
}

func TestExpandPlaylists(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, filepath.Join(dir, "a.png"), 4, 4, color.White)
	list := filepath.Join(dir, "l.wpl")
	body := `<smil><body><seq><media src="a.png"/><media src="gone.png"/></seq></body></smil>`
	if err := os.WriteFile(list, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := expandPlaylists([]string{"/photos", list}, "", false)
	if err != nil {
		t.Fatalf("expandPlaylists() error = %v", err)
	}
	want := []string{"/photos", filepath.Join(dir, "a.png")}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("expandPlaylists() = %v, want %v", got, want)
	}

	if _, err := expandPlaylists([]string{filepath.Join(dir, "none.m3u")}, "", false); err == nil {
		t.Error("expected error for missing playlist")
	}
}

func TestRunPrint(t *testing.T) {
	photos := isolate(t)
	writeImage(t, filepath.Join(photos, "a.png"), 16, 8, color.NRGBA{G: 255, A: 255})
	var buf bytes.Buffer

	err := Run(runCtx(t), Options{Paths: []string{photos}, Print: true, Size: "8x4", Stdout: &buf})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	out := buf.String()
	if !strings.HasSuffix(out, "\n") {
		t.Error("output should end with a newline")
	}
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if n := strings.Count(lines[0], "▀"); n != 8 {
		t.Errorf("first line has %d cells, want 8", n)
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name    string
		opts    func(photos string) Options
		wantErr error
	}{
		{
			name: "empty directory",
			opts: func(photos string) Options {
				return Options{Paths: []string{photos}, Snapshot: filepath.Join(photos, "out.png"), Size: "8x8"}
			},
			wantErr: ErrNoImages,
		},
		{
			name: "invalid size",
			opts: func(photos string) Options {
				return Options{Paths: []string{photos}, Snapshot: "out.png", Size: "wide"}
			},
		},
		{
			name: "invalid sort",
			opts: func(photos string) Options {
				return Options{Paths: []string{photos}, Print: true, Sort: "colour"}
			},
		},
		{
			name: "missing path",
			opts: func(photos string) Options {
				return Options{Paths: []string{filepath.Join(photos, "nope")}, Print: true, Size: "8x8"}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			photos := isolate(t)
			err := Run(runCtx(t), tt.opts(photos))
			if err == nil {
				t.Fatal("Run() succeeded, want error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Run() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRunLogFile(t *testing.T) {
	photos := isolate(t)
	writeImage(t, filepath.Join(photos, "a.png"), 8, 8, color.White)
	logFile := filepath.Join(t.TempDir(), "viewer.log")
	t.Setenv("LOG_FILE", logFile)

	var buf bytes.Buffer
	if err := Run(runCtx(t), Options{Paths: []string{photos}, Print: true, Size: "4x4", Stdout: &buf}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	// Lines written before the configuration was read are replayed.
	for _, want := range []string{"CONFIGURATION", "COLLECTION", "MEMORY"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("log file is missing %s section", want)
		}
	}
	if strings.Contains(buf.String(), "CONFIGURATION") {
		t.Error("log lines leaked into the rendered output")
	}
}

func TestThumbSinkRecordsVersions(t *testing.T) {
	l := loader.New(loader.Options{Scheduler: loader.SchedulerFunc(func(func()) {})})
	t.Cleanup(func() { _ = l.Quit(5 * time.Second) })
	mtime := time.Unix(100, 0)
	id := l.Add("/photos/a.jpg", mtime)

	var notified []item.ID
	sink := newThumbSink(l, func(id item.ID) { notified = append(notified, id) })

	if sink.SetThumb(item.NewID(), nil) {
		t.Error("SetThumb() accepted an unknown item")
	}
	thumb := item.NewRaster(imaging.New(4, 4, color.White), false)
	if !sink.SetThumb(id, thumb) {
		t.Fatal("SetThumb() = false")
	}
	if len(notified) != 1 || notified[0] != id {
		t.Errorf("notified = %v, want [%v]", notified, id)
	}

	v, ok := sink.forget(id)
	if !ok || v.path != "/photos/a.jpg" || !v.mtime.Equal(mtime) {
		t.Fatalf("forget() = %+v, %v", v, ok)
	}
	if _, ok := sink.forget(id); ok {
		t.Error("forget() should drop the version")
	}
}

func TestThumbnailsChangedRemoved(t *testing.T) {
	l := loader.New(loader.Options{Scheduler: loader.SchedulerFunc(func(func()) {})})
	t.Cleanup(func() { _ = l.Quit(5 * time.Second) })
	id := l.Add("/photos/a.jpg", time.Unix(100, 0))

	dir := t.TempDir()
	gen := thumbnail.NewGenerator(dir, 32, true)
	sink := newThumbSink(l, nil)
	thumbs := &thumbnails{gen: gen, sink: sink}

	key := thumbnail.CacheKey("/photos/a.jpg", time.Unix(100, 0))
	cached := filepath.Join(dir, key+".jpg")
	if err := os.WriteFile(cached, []byte("jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}
	sink.SetThumb(id, item.NewRaster(imaging.New(4, 4, color.White), false))

	thumbs.changed(context.Background(), collection.Change{Kind: collection.Removed, ID: id, Path: "/photos/a.jpg"})
	if _, err := os.Stat(cached); !os.IsNotExist(err) {
		t.Errorf("cached thumbnail still exists: %v", err)
	}
}

func TestMetricsHandler(t *testing.T) {
	handler, _ := metricsHandler()
	srv := httptest.NewServer(handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(string(body), "photo_viewer_") {
		t.Error("metrics output has no application metrics")
	}

	resp, err = http.Post(srv.URL+"/metrics", "text/plain", nil)
	if err != nil {
		t.Fatalf("POST /metrics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", resp.StatusCode)
	}
}
