package tui

import (
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"photo-viewer/internal/uiqueue"
)

// drainMsg asks the model to run queued callbacks.
type drainMsg struct{}

// Scheduler runs loader callbacks on the bubbletea goroutine. Callbacks are
// queued in order and the program is woken with a message; callbacks
// scheduled before Attach run once the program starts.
type Scheduler struct {
	queue   *uiqueue.Queue
	program atomic.Pointer[tea.Program]
	woken   atomic.Bool
}

// NewScheduler returns a scheduler with no program attached.
func NewScheduler() *Scheduler {
	return &Scheduler{queue: uiqueue.New()}
}

// Attach routes wake-ups to p.
func (s *Scheduler) Attach(p *tea.Program) {
	s.program.Store(p)
}

// Schedule implements loader.Scheduler. It never blocks: at most one wake-up
// message is in flight, sent from its own goroutine.
func (s *Scheduler) Schedule(fn func()) {
	s.queue.Schedule(fn)
	p := s.program.Load()
	if p == nil || !s.woken.CompareAndSwap(false, true) {
		return
	}
	go p.Send(drainMsg{})
}

// drain runs queued callbacks on the calling goroutine.
func (s *Scheduler) drain() int {
	s.woken.Store(false)
	return s.queue.Drain()
}

func drainCmd() tea.Msg {
	return drainMsg{}
}
