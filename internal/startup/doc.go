// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// [LoadConfig] merges three sources, later ones winning:
//
//  1. A .env file in the working directory, if present
//  2. A TOML file (default ~/.config/photo-viewer/config.toml)
//  3. Environment variables
//
// The following environment variables are supported:
//
//   - PHOTO_DIR: Directory opened when no arguments are given (default: .)
//   - CACHE_DIR: Metadata cache and thumbnails (default: ~/.cache/photo-viewer)
//   - DRAFT_SIZE: Minimum decoded resolution as WxH (default: 1024x600)
//   - ZOOM_STEP: Factor applied by zoom in/out (default: 1.2)
//   - MIN_ZOOM, MAX_ZOOM: Zoom range (default: 0.01 to 32)
//   - RESIZE_QUALITY: fast or high (default: high)
//   - SORT, SORT_ORDER: name/date/size and asc/desc (default: name asc)
//   - RECURSIVE: Descend into subdirectories (default: false)
//   - METRICS_ADDR: Serve Prometheus metrics on this address (default: off)
//   - LOG_FILE: Write logs here instead of stderr
//   - THUMBNAIL_WORKERS: Fixed size of the thumbnail worker pool
//   - LOG_LEVEL, DEBUG: Logging level
//
// The TOML keys use the same names in lower case.
//
// # Directory Setup
//
// The cache directory is created when missing. When it is not writable the
// metadata cache and thumbnails are disabled and the viewer still runs.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
//
// # Lifecycle Logging
//
// [LogDatabaseInit], [LogCodecInit], [LogThumbnailInit], [LogMemoryConfig],
// [LogCollectionOpened], [LogMetricsServer] and the shutdown helpers print
// the sections of the startup log in a consistent format.
package startup
