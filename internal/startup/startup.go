package startup

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"

	"photo-viewer/internal/logging"
	"photo-viewer/internal/mediatypes"
	"photo-viewer/internal/memory"
	"photo-viewer/internal/transform"
	"photo-viewer/internal/workers"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

const (
	defaultConfigPath = "~/.config/photo-viewer/config.toml"
	defaultCacheDir   = "~/.cache/photo-viewer"
	defaultDraftSize  = "1024x600"
)

// Config holds all application configuration
type Config struct {
	PhotoDir      string
	CacheDir      string
	DraftSize     image.Point
	ZoomStep      float64
	MinZoom       float64
	MaxZoom       float64
	ResizeQuality transform.Quality
	SortField     mediatypes.SortField
	SortOrder     mediatypes.SortOrder
	Recursive     bool
	Sniff         bool
	MetricsAddr   string
	LogFile       string

	ThumbnailSize    int
	ThumbnailWorkers int

	// ConfigFile is the TOML file that was read, or "" when none existed.
	ConfigFile string

	// Derived paths
	DatabasePath string
	ThumbnailDir string

	// Feature flags based on directory availability
	CacheEnabled      bool
	ThumbnailsEnabled bool
}

// fileConfig mirrors the TOML file. Empty values keep the defaults.
type fileConfig struct {
	PhotoDir         string   `toml:"photo_dir"`
	CacheDir         string   `toml:"cache_dir"`
	DraftSize        string   `toml:"draft_size"`
	ZoomStep         *float64 `toml:"zoom_step"`
	MinZoom          *float64 `toml:"min_zoom"`
	MaxZoom          *float64 `toml:"max_zoom"`
	ResizeQuality    string   `toml:"resize_quality"`
	Sort             string   `toml:"sort"`
	Order            string   `toml:"order"`
	Recursive        *bool    `toml:"recursive"`
	Sniff            *bool    `toml:"sniff"`
	MetricsAddr      string   `toml:"metrics_addr"`
	LogFile          string   `toml:"log_file"`
	ThumbnailSize    *int     `toml:"thumbnail_size"`
	ThumbnailWorkers *int     `toml:"thumbnail_workers"`
}

// LoadConfig loads configuration from an optional .env file, an optional
// TOML file and the environment, in increasing order of precedence. An
// empty path selects ~/.config/photo-viewer/config.toml, which may be
// missing; an explicit path must exist.
func LoadConfig(path string) (*Config, error) {
	printBanner()
	logSystemInfo()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.Warn("failed to read .env: %v", err)
	}

	cfg := &Config{
		PhotoDir:      ".",
		ZoomStep:      1.2,
		MinZoom:       0.01,
		MaxZoom:       32,
		ResizeQuality: transform.QualityHigh,
		SortField:     mediatypes.SortByName,
		SortOrder:     mediatypes.SortAsc,
		ThumbnailSize: 128,
	}
	cfg.DraftSize, _ = parseSize(defaultDraftSize)
	cfg.CacheDir = mustExpand(defaultCacheDir)

	if err := cfg.readFile(path); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	if cfg.ConfigFile != "" {
		logging.Info("  Config file:         %s", cfg.ConfigFile)
	}
	logging.Info("  PHOTO_DIR:           %s", cfg.PhotoDir)
	logging.Info("  CACHE_DIR:           %s", cfg.CacheDir)
	logging.Info("  DRAFT_SIZE:          %dx%d", cfg.DraftSize.X, cfg.DraftSize.Y)
	logging.Info("  ZOOM_STEP:           %g", cfg.ZoomStep)
	logging.Info("  MIN_ZOOM:            %g", cfg.MinZoom)
	logging.Info("  MAX_ZOOM:            %g", cfg.MaxZoom)
	logging.Info("  RESIZE_QUALITY:      %s", cfg.ResizeQuality)
	logging.Info("  SORT:                %s %s", cfg.SortField, cfg.SortOrder)
	logging.Info("  METRICS_ADDR:        %s", valueOr(cfg.MetricsAddr, "(disabled)"))
	logging.Info("  LOG_FILE:            %s", valueOr(cfg.LogFile, "(stderr)"))
	logging.Info("  THUMBNAIL_WORKERS:   %s", workersString(cfg.ThumbnailWorkers))
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	cfg.DatabasePath = filepath.Join(cfg.CacheDir, "metadata.db")
	cfg.ThumbnailDir = filepath.Join(cfg.CacheDir, "thumbnails")

	if err := ensureDirectory(cfg.CacheDir, "cache"); err != nil {
		logging.Warn("  Cache directory issue: %v", err)
	} else if err := testWriteAccess(cfg.CacheDir); err != nil {
		logging.Warn("  Cache directory is not writable: %v", err)
	} else {
		cfg.CacheEnabled = true
		logging.Info("  [OK] Cache directory is writable")
	}
	if cfg.CacheEnabled {
		cfg.ThumbnailsEnabled = setupOptionalDir(cfg.ThumbnailDir, "thumbnails")
	}

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Metadata cache: %s", enabledString(cfg.CacheEnabled))
	logging.Info("    Thumbnails:     %s", enabledString(cfg.ThumbnailsEnabled))
	logging.Info("    Metrics:        %s", enabledString(cfg.MetricsAddr != ""))

	return cfg, nil
}

func (c *Config) readFile(path string) error {
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = defaultConfigPath
	}
	resolved, err := expandPath(path)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	var raw fileConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse config %s: %w", resolved, err)
	}
	c.ConfigFile = resolved

	if v := strings.TrimSpace(raw.PhotoDir); v != "" {
		c.PhotoDir = v
	}
	if v := strings.TrimSpace(raw.CacheDir); v != "" {
		c.CacheDir = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.DraftSize); v != "" {
		size, err := parseSize(v)
		if err != nil {
			return fmt.Errorf("config draft_size: %w", err)
		}
		c.DraftSize = size
	}
	if raw.ZoomStep != nil {
		c.ZoomStep = *raw.ZoomStep
	}
	if raw.MinZoom != nil {
		c.MinZoom = *raw.MinZoom
	}
	if raw.MaxZoom != nil {
		c.MaxZoom = *raw.MaxZoom
	}
	if v := strings.TrimSpace(raw.ResizeQuality); v != "" {
		q, err := transform.ParseQuality(v)
		if err != nil {
			return fmt.Errorf("config resize_quality: %w", err)
		}
		c.ResizeQuality = q
	}
	if raw.Sort != "" {
		f, err := mediatypes.ParseSortField(raw.Sort)
		if err != nil {
			return fmt.Errorf("config sort: %w", err)
		}
		c.SortField = f
	}
	if raw.Order != "" {
		o, err := mediatypes.ParseSortOrder(raw.Order)
		if err != nil {
			return fmt.Errorf("config order: %w", err)
		}
		c.SortOrder = o
	}
	if raw.Recursive != nil {
		c.Recursive = *raw.Recursive
	}
	if raw.Sniff != nil {
		c.Sniff = *raw.Sniff
	}
	if v := strings.TrimSpace(raw.MetricsAddr); v != "" {
		c.MetricsAddr = v
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		c.LogFile = mustExpand(v)
	}
	if raw.ThumbnailSize != nil {
		c.ThumbnailSize = *raw.ThumbnailSize
	}
	if raw.ThumbnailWorkers != nil {
		c.ThumbnailWorkers = *raw.ThumbnailWorkers
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.PhotoDir = getEnv("PHOTO_DIR", c.PhotoDir)
	if v := os.Getenv("CACHE_DIR"); v != "" {
		c.CacheDir = mustExpand(v)
	}
	if v := os.Getenv("DRAFT_SIZE"); v != "" {
		size, err := parseSize(v)
		if err != nil {
			return fmt.Errorf("DRAFT_SIZE: %w", err)
		}
		c.DraftSize = size
	}
	c.ZoomStep = getEnvFloat("ZOOM_STEP", c.ZoomStep)
	c.MinZoom = getEnvFloat("MIN_ZOOM", c.MinZoom)
	c.MaxZoom = getEnvFloat("MAX_ZOOM", c.MaxZoom)
	if v := os.Getenv("RESIZE_QUALITY"); v != "" {
		q, err := transform.ParseQuality(strings.ToLower(v))
		if err != nil {
			return fmt.Errorf("RESIZE_QUALITY: %w", err)
		}
		c.ResizeQuality = q
	}
	if v := os.Getenv("SORT"); v != "" {
		f, err := mediatypes.ParseSortField(v)
		if err != nil {
			return fmt.Errorf("SORT: %w", err)
		}
		c.SortField = f
	}
	if v := os.Getenv("SORT_ORDER"); v != "" {
		o, err := mediatypes.ParseSortOrder(v)
		if err != nil {
			return fmt.Errorf("SORT_ORDER: %w", err)
		}
		c.SortOrder = o
	}
	c.Recursive = getEnvBool("RECURSIVE", c.Recursive)
	c.MetricsAddr = getEnv("METRICS_ADDR", c.MetricsAddr)
	if v := os.Getenv("LOG_FILE"); v != "" {
		c.LogFile = mustExpand(v)
	}

	// THUMBNAIL_WORKERS is read by the worker pool itself; a value from the
	// config file is exported so both sources behave the same.
	if v := os.Getenv(workers.OverrideEnv); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			logging.Warn("Invalid value for %s: %q, using automatic sizing", workers.OverrideEnv, v)
			n = 0
		}
		c.ThumbnailWorkers = n
	} else if c.ThumbnailWorkers > 0 {
		if err := os.Setenv(workers.OverrideEnv, strconv.Itoa(c.ThumbnailWorkers)); err != nil {
			return fmt.Errorf("export %s: %w", workers.OverrideEnv, err)
		}
	}
	return nil
}

func (c *Config) validate() error {
	if c.ZoomStep <= 1 {
		return fmt.Errorf("zoom step must be greater than 1, got %g", c.ZoomStep)
	}
	if c.MinZoom <= 0 || c.MaxZoom <= c.MinZoom {
		return fmt.Errorf("zoom range [%g, %g] is invalid", c.MinZoom, c.MaxZoom)
	}
	if c.ThumbnailSize < 16 {
		return fmt.Errorf("thumbnail size must be at least 16, got %d", c.ThumbnailSize)
	}

	abs, err := filepath.Abs(c.PhotoDir)
	if err != nil {
		return fmt.Errorf("failed to resolve photo directory path: %w", err)
	}
	c.PhotoDir = abs
	return nil
}

// parseSize parses "WxH" into a point with both sides positive.
func parseSize(s string) (image.Point, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return image.Point{}, fmt.Errorf("size %q is not WxH", s)
	}
	x, errX := strconv.Atoi(strings.TrimSpace(w))
	y, errY := strconv.Atoi(strings.TrimSpace(h))
	if errX != nil || errY != nil || x <= 0 || y <= 0 {
		return image.Point{}, fmt.Errorf("size %q is not WxH", s)
	}
	return image.Pt(x, y), nil
}

// ParseSize parses a "WxH" size as used by DRAFT_SIZE and the -size flag.
func ParseSize(s string) (image.Point, error) {
	return parseSize(s)
}

func setupOptionalDir(path, name string) bool {
	logging.Debug("  Setting up %s directory: %s", name, path)

	if err := os.MkdirAll(path, 0o755); err != nil {
		logging.Warn("    Failed to create %s directory: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	if err := testWriteAccess(path); err != nil {
		logging.Warn("    %s directory is not writable: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	logging.Debug("    [OK] %s directory ready", name)
	return true
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

func workersString(n int) string {
	if n > 0 {
		return strconv.Itoa(n)
	}
	return fmt.Sprintf("auto (%d)", workers.ForMixed(0))
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Metadata cache opened in %v", duration)
}

// LogCodecInit logs which decoders are available.
func LogCodecInit(vips bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DECODER INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	if vips {
		logging.Info("  [OK] libvips is available (HEIC/AVIF enabled)")
	} else {
		logging.Warn("  libvips unavailable, using pure Go decoders")
	}
}

// LogThumbnailInit logs thumbnail generator initialization
func LogThumbnailInit(enabled bool, lastRun time.Time) {
	if !enabled {
		logging.Info("  Thumbnails disabled (cache directory not writable)")
		return
	}
	if lastRun.IsZero() {
		logging.Info("  Thumbnails: no previous prefetch")
	} else {
		logging.Info("  Thumbnails: last prefetch %s", lastRun.Format(time.RFC1123))
	}
}

// LogMemoryConfig logs the outcome of memory.ConfigureFromEnv.
func LogMemoryConfig(result memory.ConfigResult) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("MEMORY")
	logging.Info("------------------------------------------------------------")
	switch result.Source {
	case "GOMEMLIMIT":
		logging.Info("  GOMEMLIMIT:      %s (from environment)", memory.FormatBytes(result.GoMemLimit))
	case "MEMORY_LIMIT":
		logging.Info("  MEMORY_LIMIT:    %s", memory.FormatBytes(result.Limit))
		logging.Info("  GOMEMLIMIT:      %s (%.0f%%)", memory.FormatBytes(result.GoMemLimit), result.Ratio*100)
	default:
		logging.Info("  No memory limit (set MEMORY_LIMIT to bound decoding and prefetch)")
	}
}

// LogCollectionOpened logs the result of the initial scan.
func LogCollectionOpened(images, dirs int, duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("COLLECTION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] %d images in %d directories (%v)", images, dirs, duration)
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	return routes, err
}

// LogMetricsServer logs the metrics endpoint and, in debug mode, its routes.
func LogMetricsServer(router *mux.Router, addr string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("METRICS SERVER")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Listening on:    http://%s/metrics", addr)

	if !logging.IsDebugEnabled() {
		return
	}
	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("error walking routes: %v", err)
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i].Path < routes[j].Path })
	logging.Debug("  Registered routes (%d total):", len(routes))
	for _, route := range routes {
		logging.Debug("    %-6s %s", route.Method, route.Path)
	}
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(reason string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (%s)", reason)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// Helper functions

func printBanner() {
	banner := []string{
		"------------------------------------------------------------",
		"        _           _                _                        ",
		"  _ __ | |__   ___ | |_ ___   __   _(_) _____      _____ _ __ ",
		" | '_ \\| '_ \\ / _ \\| __/ _ \\  \\ \\ / / |/ _ \\ \\ /\\ / / _ \\ '__|",
		" | |_) | | | | (_) | || (_) |  \\ V /| |  __/\\ V  V /  __/ |   ",
		" | .__/|_| |_|\\___/ \\__\\___/    \\_/ |_|\\___| \\_/\\_/ \\___|_|   ",
		" |_|                                                          ",
		"------------------------------------------------------------",
	}
	for _, line := range banner {
		logging.Info("%s", line)
	}
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
	}
	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		logging.Warn("Invalid number for %s: %q, using default: %g", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
