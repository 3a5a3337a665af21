package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"time"

	"photo-viewer/internal/collection"
	"photo-viewer/internal/database"
	"photo-viewer/internal/filesystem"
	"photo-viewer/internal/loader"
	"photo-viewer/internal/logging"
	"photo-viewer/internal/mediatypes"
	"photo-viewer/internal/memory"
	"photo-viewer/internal/metrics"
	"photo-viewer/internal/playlist"
	"photo-viewer/internal/startup"
	"photo-viewer/internal/transform"
	"photo-viewer/internal/viewer"
)

// ErrNoImages is returned when the given paths hold no displayable image.
var ErrNoImages = errors.New("no images found")

// Options configure one run of the viewer.
type Options struct {
	ConfigPath string
	// Paths are the files and directories to show; empty uses the
	// configured photo directory.
	Paths []string

	// Snapshot writes the first image to this file instead of starting the
	// interactive viewer.
	Snapshot string
	// Print writes the first image to Stdout as half-block text.
	Print bool
	// Size is the "WxH" viewport of Snapshot and Print. Empty uses the
	// configured draft size, or the terminal size when printing.
	Size string
	// Zoom is the ratio of Snapshot and Print; zero fits the viewport.
	Zoom float64

	ShowInfo  bool
	Recursive bool
	// Sort overrides the configured sort field when set.
	Sort string
	// Vips starts libvips for HEIC, AVIF and the other formats only it
	// decodes.
	Vips bool

	Stdout io.Writer
}

func (o Options) interactive() bool {
	return o.Snapshot == "" && !o.Print
}

// env holds the services shared by every mode.
type env struct {
	cfg  *startup.Config
	db   *database.Database
	vips bool
}

// Run loads the configuration, opens the collection and runs the selected
// mode until it completes or ctx is cancelled.
func Run(ctx context.Context, opts Options) (err error) {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	// Startup logging is held back until the log destination is known.
	var boot bytes.Buffer
	logging.SetOutput(&boot)
	closeLog := func() error { return nil }
	defer func() {
		if cerr := closeLog(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	mem := memory.ConfigureFromEnv()
	cfg, err := startup.LoadConfig(opts.ConfigPath)
	if err != nil {
		logging.SetOutput(os.Stderr)
		_, _ = os.Stderr.Write(boot.Bytes())
		return fmt.Errorf("load config: %w", err)
	}
	closeLog, err = redirectLogs(cfg.LogFile, opts.interactive(), &boot)
	if err != nil {
		return err
	}
	startup.LogMemoryConfig(mem)

	if err := applyOverrides(cfg, opts); err != nil {
		return err
	}

	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"photos": cfg.PhotoDir,
		"cache":  cfg.CacheDir,
	}))
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	metrics.InitializeMetrics()

	e := &env{cfg: cfg}
	if opts.Vips {
		if verr := transform.InitVips(); verr != nil {
			logging.Warn("libvips: %v", verr)
		} else {
			e.vips = true
			defer transform.ShutdownVips()
		}
	}
	startup.LogCodecInit(e.vips)
	build := startup.GetBuildInfo()
	metrics.SetAppInfo(build.Version, build.GoVersion, e.vips)

	if cfg.CacheEnabled {
		dbStart := time.Now()
		db, derr := database.New(ctx, cfg.DatabasePath)
		if derr != nil {
			logging.Warn("Metadata cache unavailable: %v", derr)
		} else {
			e.db = db
			defer func() {
				pruneCache(db, cacheRetention)
				if cerr := db.Close(); cerr != nil {
					logging.Warn("Failed to close metadata cache: %v", cerr)
				}
			}()
			startup.LogDatabaseInit(time.Since(dbStart))
		}
	}

	paths := opts.Paths
	if len(paths) == 0 {
		paths = []string{cfg.PhotoDir}
	}
	if paths, err = expandPlaylists(paths, cfg.PhotoDir, e.vips); err != nil {
		return err
	}

	if opts.interactive() {
		return runInteractive(ctx, e, paths, opts)
	}
	size, err := viewportSize(cfg, opts)
	if err != nil {
		return err
	}
	return runHeadless(ctx, e, paths, size, opts)
}

// cacheRetention is how long cached tags are kept after they were written.
const cacheRetention = 90 * 24 * time.Hour

// pruneCache drops tags not refreshed within keep and compacts the file
// when anything was removed.
func pruneCache(db *database.Database, keep time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	n, err := db.PruneTags(ctx, time.Now().Add(-keep))
	if err != nil {
		logging.Warn("Failed to prune metadata cache: %v", err)
		return
	}
	if n == 0 {
		return
	}
	logging.Info("Pruned %d stale metadata cache entries", n)
	if err := db.Vacuum(); err != nil {
		logging.Warn("Failed to vacuum metadata cache: %v", err)
	}
}

// expandPlaylists replaces playlist arguments with the photos they list.
// Missing entries are logged and skipped.
func expandPlaylists(paths []string, photoDir string, vips bool) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !playlist.IsPlaylist(p) {
			out = append(out, p)
			continue
		}
		pl, err := playlist.Parse(p, photoDir)
		if err != nil {
			return nil, fmt.Errorf("playlist %s: %w", p, err)
		}
		n := len(out)
		for _, it := range pl.Items {
			switch {
			case !it.Exists:
				logging.Warn("Playlist %q: %s not found", pl.Name, it.OrigPath)
			case !mediatypes.IsImageFile(it.Path, vips):
				logging.Debug("Playlist %q: skipping non-image %s", pl.Name, it.Name)
			default:
				out = append(out, it.Path)
			}
		}
		logging.Info("Playlist %q: %d of %d entries", pl.Name, len(out)-n, len(pl.Items))
	}
	return out, nil
}

// redirectLogs sends log output to file, or to stderr for headless modes.
// The interactive viewer owns the terminal, so without a log file its
// output is discarded. Buffered startup lines are replayed first.
func redirectLogs(file string, interactive bool, boot *bytes.Buffer) (func() error, error) {
	var out io.Writer = os.Stderr
	closeFn := func() error { return nil }
	switch {
	case file != "":
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			logging.SetOutput(os.Stderr)
			_, _ = os.Stderr.Write(boot.Bytes())
			return closeFn, fmt.Errorf("open log file: %w", err)
		}
		out, closeFn = f, f.Close
	case interactive:
		out = io.Discard
	}
	logging.SetOutput(out)
	_, _ = out.Write(boot.Bytes())
	return closeFn, nil
}

func applyOverrides(cfg *startup.Config, opts Options) error {
	if opts.Recursive {
		cfg.Recursive = true
	}
	if opts.Sort != "" {
		f, err := mediatypes.ParseSortField(opts.Sort)
		if err != nil {
			return err
		}
		cfg.SortField = f
	}
	return nil
}

func viewportSize(cfg *startup.Config, opts Options) (image.Point, error) {
	if opts.Size != "" {
		size, err := startup.ParseSize(opts.Size)
		if err != nil {
			return image.Point{}, fmt.Errorf("size: %w", err)
		}
		return size, nil
	}
	if opts.Print {
		return terminalViewport(opts.Stdout), nil
	}
	return cfg.DraftSize, nil
}

// openCollection scans paths and registers every image with the loader.
func openCollection(e *env, paths []string, reg collection.Registry, onChange func(collection.Change)) (*collection.Collection, error) {
	copts := collection.DefaultOptions()
	copts.Sort = e.cfg.SortField
	copts.Order = e.cfg.SortOrder
	copts.Recursive = e.cfg.Recursive
	copts.Sniff = e.cfg.Sniff
	copts.Vips = e.vips
	copts.Load.DraftSize = e.cfg.DraftSize
	copts.OnChange = onChange
	if e.db != nil {
		copts.Cache = e.db
	}

	start := time.Now()
	coll, err := collection.Open(paths, reg, copts)
	if err != nil {
		return nil, err
	}
	startup.LogCollectionOpened(coll.Len(), len(coll.Dirs()), time.Since(start))
	return coll, nil
}

func (e *env) loaderOptions(sched loader.Scheduler, histogram bool) loader.Options {
	return loader.Options{
		Scheduler: sched,
		Quality:   e.cfg.ResizeQuality,
		Histogram: histogram,
	}
}

func (e *env) viewerOptions() viewer.Options {
	opts := viewer.DefaultOptions()
	opts.ZoomStep = e.cfg.ZoomStep
	opts.MinZoom = e.cfg.MinZoom
	opts.MaxZoom = e.cfg.MaxZoom
	return opts
}

// quitLoader stops the worker, logging rather than failing on a timeout.
func quitLoader(l *loader.Loader) {
	startup.LogShutdownStep("Stopping image worker")
	if err := l.Quit(5 * time.Second); err != nil {
		logging.Warn("Image worker did not stop: %v", err)
		return
	}
	startup.LogShutdownStepComplete("Image worker stopped")
}
