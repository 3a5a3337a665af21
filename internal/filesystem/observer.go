package filesystem

import "time"

// RetryKind identifies a step of a retried operation.
type RetryKind int

const (
	// StaleHandle is reported for every ESTALE error seen.
	StaleHandle RetryKind = iota
	// RetryAttempt is reported before sleeping for another attempt.
	RetryAttempt
	// RetrySucceeded is reported when a retried operation succeeds.
	RetrySucceeded
	// RetryFailed is reported when retries are exhausted.
	RetryFailed
	// RetryDone is reported once per call with the total duration.
	RetryDone
)

func (k RetryKind) String() string {
	switch k {
	case StaleHandle:
		return "stale"
	case RetryAttempt:
		return "attempt"
	case RetrySucceeded:
		return "success"
	case RetryFailed:
		return "failure"
	case RetryDone:
		return "done"
	}
	return "unknown"
}

// RetryEvent describes one step of withRetry. Op is "stat", "open",
// "readdir" or "write"; Volume is the label from the VolumeResolver.
// Duration is only set for RetryDone.
type RetryEvent struct {
	Kind     RetryKind
	Op       string
	Volume   string
	Duration time.Duration
}

// Observer receives filesystem measurements. The metrics package provides
// the implementation, so filesystem does not import it.
type Observer interface {
	Operation(volume, op string, d time.Duration, err error)
	Retry(ev RetryEvent)
}

var defaultObserver Observer

// SetObserver installs o for all later operations. nil disables recording.
func SetObserver(o Observer) {
	defaultObserver = o
}

func report(ev RetryEvent) {
	if o := defaultObserver; o != nil {
		o.Retry(ev)
	}
}

func reportOp(volume, op string, start time.Time, err error) {
	if o := defaultObserver; o != nil {
		o.Operation(volume, op, time.Since(start), err)
	}
}
