package metrics

// Worker states reported through LoaderState.
var loaderStates = []string{"idle", "loading", "sizing", "exiting"}

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	// --- Loader ---
	for _, status := range []string{"success", "error", "interrupted"} {
		LoaderLoadsTotal.WithLabelValues(status)
	}
	for _, status := range []string{"success", "degenerate", "hooked", "superseded"} {
		LoaderResizesTotal.WithLabelValues(status)
	}
	for _, q := range []string{"fast", "high"} {
		LoaderResizeDuration.WithLabelValues(q)
	}
	for _, s := range loaderStates {
		LoaderState.WithLabelValues(s)
	}

	// --- Decoders ---
	for _, decoder := range []string{"jpegn", "vips", "imaging"} {
		DecodeTotal.WithLabelValues(decoder, "success")
		DecodeTotal.WithLabelValues(decoder, "error")
		DecodeDuration.WithLabelValues(decoder)
	}

	// --- Viewer ---
	for _, target := range []string{"fit", "in", "out", "ratio"} {
		ViewerZoomChangesTotal.WithLabelValues(target)
	}
	for _, outcome := range []string{"sent", "suppressed", "frozen"} {
		ViewerResizeRequestsTotal.WithLabelValues(outcome)
	}

	// --- Thumbnails ---
	for _, status := range []string{"success", "failed", "interrupted"} {
		ThumbnailGenerationsTotal.WithLabelValues(status)
	}

	// --- Metadata DB ---
	for _, op := range []string{"initialize_schema", "get_metadata", "put_metadata", "delete_metadata", "prune_metadata", "vacuum"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	// --- HTTP ---
	HTTPRequestsTotal.WithLabelValues("GET", "/metrics", "200")
	HTTPRequestDuration.WithLabelValues("GET", "/metrics")

	// --- Watcher ---
	for _, ev := range []string{"create", "write", "remove", "rename", "chmod"} {
		WatcherEventsTotal.WithLabelValues(ev)
	}

	// --- Filesystem (per volume × operation) ---
	volumes := []string{"photos", "cache", "unknown"}
	for _, vol := range volumes {
		for _, op := range []string{"read", "write", "stat", "readdir"} {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
		}
		for _, op := range []string{"stat", "open", "readdir", "write"} {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}
}

// SetLoaderState marks state as the active worker state.
func SetLoaderState(state string) {
	for _, s := range loaderStates {
		v := 0.0
		if s == state {
			v = 1
		}
		LoaderState.WithLabelValues(s).Set(v)
	}
}
