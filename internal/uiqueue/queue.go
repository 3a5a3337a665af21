package uiqueue

import (
	"context"
	"sync"
)

// Queue collects scheduled callbacks until Drain runs them.
type Queue struct {
	mu     sync.Mutex
	fns    []func()
	notify chan struct{}
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{notify: make(chan struct{}, 1)}
}

// Schedule appends fn. It is safe to call from any goroutine.
func (q *Queue) Schedule(fn func()) {
	q.mu.Lock()
	q.fns = append(q.fns, fn)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Len returns the number of queued callbacks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.fns)
}

// Drain runs queued callbacks in order on the calling goroutine, including
// any scheduled while draining, and returns how many ran.
func (q *Queue) Drain() int {
	n := 0
	for {
		q.mu.Lock()
		fns := q.fns
		q.fns = nil
		q.mu.Unlock()

		if len(fns) == 0 {
			return n
		}
		for _, fn := range fns {
			fn()
		}
		n += len(fns)
	}
}

// RunUntil drains the queue until done reports true or ctx ends. done is
// evaluated on the calling goroutine after every drain.
func (q *Queue) RunUntil(ctx context.Context, done func() bool) error {
	for {
		q.Drain()
		if done() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.notify:
		}
	}
}
