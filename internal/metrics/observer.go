package metrics

import (
	"time"

	"photo-viewer/internal/filesystem"
)

type filesystemObserver struct{}

// NewFilesystemObserver returns the filesystem.Observer that feeds the
// photo_viewer_filesystem_* series.
func NewFilesystemObserver() filesystem.Observer {
	return filesystemObserver{}
}

func (filesystemObserver) Operation(volume, op string, d time.Duration, err error) {
	FilesystemOperationDuration.WithLabelValues(volume, op).Observe(d.Seconds())
	if err != nil {
		FilesystemOperationErrors.WithLabelValues(volume, op).Inc()
	}
}

func (filesystemObserver) Retry(ev filesystem.RetryEvent) {
	switch ev.Kind {
	case filesystem.StaleHandle:
		FilesystemStaleErrors.WithLabelValues(ev.Op, ev.Volume).Inc()
	case filesystem.RetryAttempt:
		FilesystemRetryAttempts.WithLabelValues(ev.Op, ev.Volume).Inc()
	case filesystem.RetrySucceeded:
		FilesystemRetrySuccess.WithLabelValues(ev.Op, ev.Volume).Inc()
	case filesystem.RetryFailed:
		FilesystemRetryFailures.WithLabelValues(ev.Op, ev.Volume).Inc()
	case filesystem.RetryDone:
		FilesystemRetryDuration.WithLabelValues(ev.Op, ev.Volume).Observe(ev.Duration.Seconds())
	}
}
