// Package metrics provides Prometheus instrumentation for the photo viewer.
//
// All metrics are prefixed with "photo_viewer_" and registered with the
// default registry through promauto.
//
// # Metric Categories
//
// ## Loader Metrics
//
// Track the background image worker:
//   - LoaderLoadsTotal: Counter of loads by status (success/error/interrupted)
//   - LoaderLoadDuration: Histogram of decode plus orientation time
//   - LoaderResizesTotal: Counter of resize passes by status
//   - LoaderResizeDuration: Histogram of resize time by quality
//   - LoaderSupersededTotal: Counter of results dropped for a stale item
//   - LoaderState: Gauge set to 1 for the active worker state
//
// ## Decode Metrics
//
//   - DecodeTotal: Counter of draft decodes by decoder (jpegn/vips/imaging)
//   - DecodeDuration: Histogram of decode time by decoder
//
// ## Thumbnail, Metadata and Collection Metrics
//
//   - ThumbnailGenerationsTotal, ThumbnailCacheHits, ThumbnailCacheMisses
//   - DBQueryTotal, DBQueryDuration, MetadataCacheHits, MetadataCacheMisses
//   - CollectionItemsTotal, CollectionImagesLoaded, CollectionThumbsLoaded
//   - WatcherEventsTotal, WatcherErrors
//
// ## Filesystem Metrics
//
// Recorded through the filesystem.Observer returned by NewFilesystemObserver.
//
// # Usage
//
// Mount promhttp.Handler() on the metrics endpoint:
//
//	mux.Handle("/metrics", promhttp.Handler())
package metrics
