package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Loader (image worker) metrics
var (
	LoaderLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_viewer_loader_loads_total",
			Help: "Total number of image loads by status",
		},
		[]string{"status"},
	)

	LoaderLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photo_viewer_loader_load_duration_seconds",
			Help:    "Time spent decoding and orienting an image",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	LoaderResizesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_viewer_loader_resizes_total",
			Help: "Total number of resize passes by status",
		},
		[]string{"status"},
	)

	LoaderResizeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_viewer_loader_resize_duration_seconds",
			Help:    "Time spent producing a scaled view",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"quality"},
	)

	LoaderSupersededTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_viewer_loader_superseded_total",
			Help: "Total number of results discarded because the current item changed",
		},
	)

	LoaderWakeupsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_viewer_loader_wakeups_total",
			Help: "Total number of times the worker woke to process a request",
		},
	)

	LoaderState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photo_viewer_loader_state",
			Help: "Current worker state (1 for the active state, 0 otherwise)",
		},
		[]string{"state"},
	)
)

// Decode metrics
var (
	DecodeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_viewer_decode_total",
			Help: "Total number of draft decodes by decoder and status",
		},
		[]string{"decoder", "status"},
	)

	DecodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_viewer_decode_duration_seconds",
			Help:    "Draft decode duration in seconds by decoder",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"decoder"},
	)
)

// Viewer metrics
var (
	ViewerZoomChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_viewer_viewer_zoom_changes_total",
			Help: "Total number of zoom changes by target",
		},
		[]string{"target"},
	)

	ViewerResizeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_viewer_viewer_resize_requests_total",
			Help: "Total number of resize requests by outcome (sent/suppressed/frozen)",
		},
		[]string{"outcome"},
	)
)

// Thumbnail metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_viewer_thumbnail_generations_total",
			Help: "Total number of thumbnail generations by status",
		},
		[]string{"status"},
	)

	ThumbnailGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photo_viewer_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	ThumbnailCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_viewer_thumbnail_cache_hits_total",
			Help: "Total number of thumbnail cache hits",
		},
	)

	ThumbnailCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_viewer_thumbnail_cache_misses_total",
			Help: "Total number of thumbnail cache misses",
		},
	)

	ThumbnailGeneratorRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_viewer_thumbnail_generator_running",
			Help: "Whether a background thumbnail prefetch is running",
		},
	)
)

// Metadata database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_viewer_db_queries_total",
			Help: "Total number of metadata database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_viewer_db_query_duration_seconds",
			Help:    "Metadata database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)

	MetadataCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_viewer_metadata_cache_hits_total",
			Help: "Total number of metadata lookups served from the cache",
		},
	)

	MetadataCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_viewer_metadata_cache_misses_total",
			Help: "Total number of metadata lookups that parsed the file",
		},
	)
)

// Collection metrics
var (
	CollectionItemsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_viewer_collection_items",
			Help: "Number of items in the open collection",
		},
	)

	CollectionImagesLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_viewer_collection_images_loaded",
			Help: "Number of items currently holding a decoded image",
		},
	)

	CollectionThumbsLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_viewer_collection_thumbnails_loaded",
			Help: "Number of items currently holding a thumbnail",
		},
	)

	WatcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_viewer_watcher_events_total",
			Help: "Total number of filesystem watcher events",
		},
		[]string{"event_type"},
	)

	WatcherErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_viewer_watcher_errors_total",
			Help: "Total number of filesystem watcher errors",
		},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_viewer_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_viewer_filesystem_operation_errors_total",
			Help: "Total number of failed filesystem operations",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_viewer_filesystem_retry_attempts_total",
			Help: "Total number of filesystem retry attempts",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_viewer_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_viewer_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_viewer_filesystem_stale_errors_total",
			Help: "Total number of stale file handle errors",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_viewer_filesystem_retry_duration_seconds",
			Help:    "Total duration of filesystem operations including retries",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_viewer_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_viewer_memory_paused",
			Help: "Whether background work is paused for memory pressure",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_viewer_memory_gc_pauses_total",
			Help: "Total number of times background work paused for memory pressure",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photo_viewer_app_info",
			Help: "Application information",
		},
		[]string{"version", "go_version", "vips"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, goVersion string, vipsAvailable bool) {
	vips := "false"
	if vipsAvailable {
		vips = "true"
	}
	AppInfo.WithLabelValues(version, goVersion, vips).Set(1)
}

// Metrics endpoint HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_viewer_http_requests_total",
			Help: "Total number of HTTP requests to the metrics endpoint",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_viewer_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_viewer_http_requests_in_flight",
			Help: "Number of HTTP requests being served",
		},
	)
)
