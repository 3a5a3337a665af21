package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"photo-viewer/internal/collection"
	"photo-viewer/internal/item"
	"photo-viewer/internal/loader"
	"photo-viewer/internal/logging"
	"photo-viewer/internal/memory"
	"photo-viewer/internal/metrics"
	"photo-viewer/internal/middleware"
	"photo-viewer/internal/render"
	"photo-viewer/internal/startup"
	"photo-viewer/internal/thumbnail"
	"photo-viewer/internal/tui"
)

const statsInterval = 5 * time.Second

// runInteractive starts the terminal viewer with its background services:
// the file watcher, thumbnail prefetch and the optional metrics endpoint.
func runInteractive(ctx context.Context, e *env, paths []string, opts Options) error {
	defer startup.LogShutdownComplete()

	sched := tui.NewScheduler()
	l := loader.New(e.loaderOptions(sched, true))
	defer quitLoader(l)

	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()
	defer monitor.Stop()

	bg, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		startup.LogShutdownStep("Waiting for background tasks")
		wg.Wait()
		startup.LogShutdownStepComplete("Background tasks stopped")
	}()

	// The model is created after the collection it browses; changes are
	// only reported once Watch runs, after model is set.
	var model *tui.Model
	var thumbs *thumbnails
	onChange := func(ch collection.Change) {
		sched.Schedule(func() { model.CollectionChanged(ch) })
		wg.Add(1)
		go func() {
			defer wg.Done()
			thumbs.changed(bg, ch)
		}()
	}

	coll, err := openCollection(e, paths, l, onChange)
	if err != nil {
		return err
	}

	r, err := render.New(render.DefaultStyle())
	if err != nil {
		return fmt.Errorf("init renderer: %w", err)
	}
	defer func() {
		if cerr := r.Close(); cerr != nil {
			logging.Warn("Failed to close renderer: %v", cerr)
		}
	}()

	model = tui.New(tui.Options{
		Collection: coll,
		Worker:     l,
		Scheduler:  sched,
		Renderer:   r,
		Viewer:     e.viewerOptions(),
		ShowInfo:   opts.ShowInfo,
	})

	collector := metrics.NewCollector(l, statsInterval)
	collector.Start()
	defer collector.Stop()

	thumbs = e.thumbnails(coll, l, func(id item.ID) {
		sched.Schedule(func() { model.ThumbnailReady(id) })
	})
	thumbs.gen.SetThrottle(monitor)

	var rec thumbnail.RunRecorder
	if e.db != nil {
		rec = e.db
	}
	wg.Add(2)
	go func() {
		defer wg.Done()
		thumbs.prefetch(bg, coll.IDs(), rec)
	}()
	go func() {
		defer wg.Done()
		if err := coll.Watch(bg); err != nil && bg.Err() == nil {
			logging.Error("File watcher stopped: %v", err)
		}
	}()

	if e.cfg.MetricsAddr != "" {
		srv := startMetricsServer(e.cfg.MetricsAddr)
		defer stopMetricsServer(srv)
	}

	err = tui.Run(ctx, model)
	reason := "user quit"
	if ctx.Err() != nil {
		reason = "signal"
	}
	startup.LogShutdownInitiated(reason)
	return err
}

// thumbnails builds the generator and logs its state.
func (e *env) thumbnails(coll *collection.Collection, l *loader.Loader, notify func(item.ID)) *thumbnails {
	gen := thumbnail.NewGenerator(e.cfg.ThumbnailDir, e.cfg.ThumbnailSize, e.cfg.ThumbnailsEnabled)

	var lastRun time.Time
	if e.db != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		t, err := e.db.GetLastThumbnailRun(ctx)
		cancel()
		if err != nil {
			logging.Debug("Last thumbnail run: %v", err)
		}
		lastRun = t
	}
	startup.LogThumbnailInit(gen.IsEnabled(), lastRun)

	return &thumbnails{gen: gen, src: coll, sink: newThumbSink(l, notify)}
}

// metricsHandler serves Prometheus metrics at /metrics.
func metricsHandler() (http.Handler, *mux.Router) {
	router := mux.NewRouter()
	router.Use(middleware.Metrics())
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	return middleware.Logger(middleware.DefaultLoggingConfig())(router), router
}

func startMetricsServer(addr string) *http.Server {
	handler, router := metricsHandler()
	startup.LogMetricsServer(router, addr)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Metrics server error: %v", err)
		}
	}()
	return srv
}

func stopMetricsServer(srv *http.Server) {
	startup.LogShutdownStep("Shutting down metrics server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Metrics server shutdown error: %v", err)
		return
	}
	startup.LogShutdownStepComplete("Metrics server stopped")
}
