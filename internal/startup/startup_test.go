package startup

import (
	"image"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"photo-viewer/internal/mediatypes"
	"photo-viewer/internal/memory"
	"photo-viewer/internal/transform"
	"photo-viewer/internal/workers"
)

// configEnv lists every variable LoadConfig reads.
var configEnv = []string{
	"PHOTO_DIR", "CACHE_DIR", "DRAFT_SIZE", "ZOOM_STEP", "MIN_ZOOM", "MAX_ZOOM",
	"RESIZE_QUALITY", "SORT", "SORT_ORDER", "RECURSIVE", "METRICS_ADDR",
	"LOG_FILE", workers.OverrideEnv,
}

// isolate clears the configuration environment and points HOME at an
// empty directory so no real config file is read.
func isolate(t *testing.T) string {
	t.Helper()
	for _, key := range configEnv {
		t.Setenv(key, "")
	}
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())
	return home
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
	if info.OS == "" || info.Arch == "" {
		t.Errorf("Expected OS and Arch to be set, got %q/%q", info.OS, info.Arch)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.ConfigFile != "" {
		t.Errorf("ConfigFile = %q, want none", cfg.ConfigFile)
	}
	if want := filepath.Join(home, ".cache", "photo-viewer"); cfg.CacheDir != want {
		t.Errorf("CacheDir = %q, want %q", cfg.CacheDir, want)
	}
	if cfg.DraftSize != image.Pt(1024, 600) {
		t.Errorf("DraftSize = %v", cfg.DraftSize)
	}
	if cfg.ZoomStep != 1.2 || cfg.MinZoom != 0.01 || cfg.MaxZoom != 32 {
		t.Errorf("zoom = (%g, %g, %g)", cfg.ZoomStep, cfg.MinZoom, cfg.MaxZoom)
	}
	if cfg.ResizeQuality != transform.QualityHigh {
		t.Errorf("ResizeQuality = %v", cfg.ResizeQuality)
	}
	if cfg.SortField != mediatypes.SortByName || cfg.SortOrder != mediatypes.SortAsc {
		t.Errorf("sort = %s %s", cfg.SortField, cfg.SortOrder)
	}
	if !filepath.IsAbs(cfg.PhotoDir) {
		t.Errorf("PhotoDir %q is not absolute", cfg.PhotoDir)
	}
	if cfg.DatabasePath != filepath.Join(cfg.CacheDir, "metadata.db") {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
	if !cfg.CacheEnabled || !cfg.ThumbnailsEnabled {
		t.Errorf("features = cache %v, thumbnails %v, want both enabled", cfg.CacheEnabled, cfg.ThumbnailsEnabled)
	}
	if _, err := os.Stat(cfg.ThumbnailDir); err != nil {
		t.Errorf("thumbnail dir not created: %v", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	isolate(t)
	cache := t.TempDir()
	path := writeConfig(t, `
photo_dir = "/srv/photos"
cache_dir = "`+cache+`"
draft_size = "2048x1536"
zoom_step = 1.5
max_zoom = 8.0
resize_quality = "fast"
sort = "date"
order = "desc"
recursive = true
metrics_addr = "127.0.0.1:9102"
thumbnail_workers = 3
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.ConfigFile != path {
		t.Errorf("ConfigFile = %q, want %q", cfg.ConfigFile, path)
	}
	if cfg.PhotoDir != "/srv/photos" || cfg.CacheDir != cache {
		t.Errorf("dirs = (%q, %q)", cfg.PhotoDir, cfg.CacheDir)
	}
	if cfg.DraftSize != image.Pt(2048, 1536) {
		t.Errorf("DraftSize = %v", cfg.DraftSize)
	}
	if cfg.ZoomStep != 1.5 || cfg.MinZoom != 0.01 || cfg.MaxZoom != 8 {
		t.Errorf("zoom = (%g, %g, %g)", cfg.ZoomStep, cfg.MinZoom, cfg.MaxZoom)
	}
	if cfg.ResizeQuality != transform.QualityFast {
		t.Errorf("ResizeQuality = %v", cfg.ResizeQuality)
	}
	if cfg.SortField != mediatypes.SortByDate || cfg.SortOrder != mediatypes.SortDesc || !cfg.Recursive {
		t.Errorf("sort = %s %s recursive=%v", cfg.SortField, cfg.SortOrder, cfg.Recursive)
	}
	if cfg.MetricsAddr != "127.0.0.1:9102" {
		t.Errorf("MetricsAddr = %q", cfg.MetricsAddr)
	}
	if cfg.ThumbnailWorkers != 3 || os.Getenv(workers.OverrideEnv) != "3" {
		t.Errorf("ThumbnailWorkers = %d, env = %q", cfg.ThumbnailWorkers, os.Getenv(workers.OverrideEnv))
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
zoom_step = 1.5
sort = "size"
thumbnail_workers = 3
`)
	t.Setenv("ZOOM_STEP", "2")
	t.Setenv("SORT", "name")
	t.Setenv("DRAFT_SIZE", "640x480")
	t.Setenv("RESIZE_QUALITY", "FAST")
	t.Setenv(workers.OverrideEnv, "5")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.ZoomStep != 2 || cfg.SortField != mediatypes.SortByName {
		t.Errorf("env did not win: zoom step %g, sort %s", cfg.ZoomStep, cfg.SortField)
	}
	if cfg.DraftSize != image.Pt(640, 480) || cfg.ResizeQuality != transform.QualityFast {
		t.Errorf("DraftSize = %v, ResizeQuality = %v", cfg.DraftSize, cfg.ResizeQuality)
	}
	if cfg.ThumbnailWorkers != 5 || os.Getenv(workers.OverrideEnv) != "5" {
		t.Errorf("ThumbnailWorkers = %d, env = %q", cfg.ThumbnailWorkers, os.Getenv(workers.OverrideEnv))
	}
}

func TestLoadConfigDotEnv(t *testing.T) {
	isolate(t)
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(wd, ".env"), []byte("MAX_ZOOM=16\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// godotenv sets variables directly; remove it again after the test.
	t.Cleanup(func() { os.Unsetenv("MAX_ZOOM") })
	os.Unsetenv("MAX_ZOOM")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.MaxZoom != 16 {
		t.Errorf("MaxZoom = %g, want 16 from .env", cfg.MaxZoom)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{name: "missing explicit file", file: "missing"},
		{name: "malformed toml", file: "zoom_step = ["},
		{name: "bad draft size in file", file: `draft_size = "big"`},
		{name: "bad sort in file", file: `sort = "colour"`},
		{name: "zoom step too small", env: map[string]string{"ZOOM_STEP": "1"}},
		{name: "inverted zoom range", env: map[string]string{"MIN_ZOOM": "4", "MAX_ZOOM": "2"}},
		{name: "bad draft size", env: map[string]string{"DRAFT_SIZE": "0x600"}},
		{name: "bad quality", env: map[string]string{"RESIZE_QUALITY": "ultra"}},
		{name: "bad sort order", env: map[string]string{"SORT_ORDER": "random"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := ""
			switch tt.file {
			case "":
			case "missing":
				path = filepath.Join(t.TempDir(), "nope.toml")
			default:
				path = writeConfig(t, tt.file)
			}

			if _, err := LoadConfig(path); err == nil {
				t.Error("LoadConfig() succeeded, want an error")
			}
		})
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    image.Point
		wantErr bool
	}{
		{in: "800x600", want: image.Pt(800, 600)},
		{in: " 1920X1080 ", want: image.Pt(1920, 1080)},
		{in: "800 x 600", want: image.Pt(800, 600)},
		{in: "800", wantErr: true},
		{in: "800x", wantErr: true},
		{in: "-1x5", wantErr: true},
		{in: "axb", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSize(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSize(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseSize(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue string
		want         string
	}{
		{name: "Returns default when env var not set", defaultValue: "default", want: "default"},
		{name: "Returns env value when set", envValue: "custom", defaultValue: "default", want: "custom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_STARTUP_VAR", tt.envValue)
			if got := getEnv("TEST_STARTUP_VAR", tt.defaultValue); got != tt.want {
				t.Errorf("getEnv() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		envValue     string
		defaultValue bool
		want         bool
	}{
		{envValue: "", defaultValue: true, want: true},
		{envValue: "true", want: true},
		{envValue: "1", want: true},
		{envValue: "F", defaultValue: true, want: false},
		{envValue: "yes please", defaultValue: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.envValue, func(t *testing.T) {
			t.Setenv("TEST_STARTUP_BOOL", tt.envValue)
			if got := getEnvBool("TEST_STARTUP_BOOL", tt.defaultValue); got != tt.want {
				t.Errorf("getEnvBool(%q) = %v, want %v", tt.envValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvFloat(t *testing.T) {
	tests := []struct {
		envValue string
		want     float64
	}{
		{envValue: "", want: 1.2},
		{envValue: "1.5", want: 1.5},
		{envValue: "lots", want: 1.2},
	}

	for _, tt := range tests {
		t.Run(tt.envValue, func(t *testing.T) {
			t.Setenv("TEST_STARTUP_FLOAT", tt.envValue)
			if got := getEnvFloat("TEST_STARTUP_FLOAT", 1.2); got != tt.want {
				t.Errorf("getEnvFloat(%q) = %g, want %g", tt.envValue, got, tt.want)
			}
		})
	}
}

func TestGetRoutes(t *testing.T) {
	router := mux.NewRouter()
	router.Handle("/metrics", http.NotFoundHandler()).Methods("GET").Name("metrics")
	router.Handle("/healthz", http.NotFoundHandler())

	routes, err := GetRoutes(router)
	if err != nil {
		t.Fatalf("GetRoutes() error = %v", err)
	}
	if len(routes) != 2 {
		t.Fatalf("GetRoutes() = %v, want 2 routes", routes)
	}
	if routes[0] != (RouteInfo{Method: "GET", Path: "/metrics", Name: "metrics"}) {
		t.Errorf("routes[0] = %+v", routes[0])
	}
	if routes[1].Method != "*" {
		t.Errorf("route without methods = %+v, want method *", routes[1])
	}

	// Logging never fails, whatever the level.
	LogMetricsServer(router, "127.0.0.1:9102")
}

func TestLifecycleLogging(_ *testing.T) {
	LogDatabaseInit(0)
	LogCodecInit(false)
	LogThumbnailInit(false, time.Time{})
	LogThumbnailInit(true, time.Now())
	LogMemoryConfig(memory.ConfigResult{Source: "none"})
	LogMemoryConfig(memory.ConfigResult{Source: "MEMORY_LIMIT", Limit: 1 << 30, GoMemLimit: 1 << 29, Ratio: 0.5})
	LogCollectionOpened(3, 1, time.Second)
	LogShutdownInitiated("quit")
	LogShutdownStep("closing database")
	LogShutdownStepComplete("database closed")
	LogShutdownComplete()
}
