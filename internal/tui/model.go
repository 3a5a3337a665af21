package tui

import (
	"context"
	"errors"
	"image"
	"path/filepath"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"photo-viewer/internal/collection"
	"photo-viewer/internal/item"
	"photo-viewer/internal/loader"
	"photo-viewer/internal/logging"
	"photo-viewer/internal/render"
	"photo-viewer/internal/viewer"
)

// Collection is the ordered image set the viewer steps through.
// *collection.Collection implements it.
type Collection interface {
	loader.Collection
	Len() int
	IDs() []item.ID
	First() item.ID
	Index(id item.ID) int
	Next(id item.ID, wrap bool) (item.ID, bool)
	Prev(id item.ID, wrap bool) (item.ID, bool)
}

// Options configures the terminal viewer.
type Options struct {
	Collection Collection
	// Worker is the image loader. *loader.Loader implements it.
	Worker    viewer.Worker
	Scheduler *Scheduler
	Renderer  *render.Renderer
	Viewer    viewer.Options
	// Start is the first item shown; the nil ID selects the first one.
	Start    item.ID
	ShowInfo bool
}

// Model is the bubbletea model of the viewer. All of its methods run on the
// program goroutine, which is the UI thread of the loader and controller.
type Model struct {
	coll     Collection
	worker   viewer.Worker
	sched    *Scheduler
	renderer *render.Renderer
	ctrl     *viewer.Controller

	keys   keyMap
	help   help.Model
	styles styles

	width    int
	height   int
	ready    bool
	showInfo bool
	showHelp bool
	quitting bool
	start    item.ID
	// index is the position of the current item, kept to pick a neighbour
	// when the item is deleted.
	index int

	dirty bool
	frame string
}

// New creates the model and its viewer controller.
func New(opts Options) *Model {
	m := &Model{
		coll:     opts.Collection,
		worker:   opts.Worker,
		sched:    opts.Scheduler,
		renderer: opts.Renderer,
		keys:     defaultKeyMap(),
		help:     help.New(),
		styles:   defaultStyles(),
		showInfo: opts.ShowInfo,
		start:    opts.Start,
		dirty:    true,
	}
	if m.start.IsNil() {
		m.start = m.coll.First()
	}

	vopts := opts.Viewer
	vopts.Redraw = func() { m.dirty = true }
	m.ctrl = viewer.New(opts.Worker, vopts)
	return m
}

// Controller exposes the viewer controller, for use on the UI thread only.
func (m *Model) Controller() *viewer.Controller {
	return m.ctrl
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return drainCmd
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case drainMsg:
		m.sched.drain()
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resize()
		if !m.ready {
			m.ready = true
			if !m.start.IsNil() {
				m.show(m.start)
			}
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.showHelp && msg.String() == "esc" {
			m.toggleHelp()
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.toggleHelp()

	case key.Matches(msg, m.keys.Next):
		m.step(m.coll.Next)
	case key.Matches(msg, m.keys.Prev):
		m.step(m.coll.Prev)
	case key.Matches(msg, m.keys.First):
		if id := m.coll.First(); !id.IsNil() {
			m.show(id)
		}
	case key.Matches(msg, m.keys.Last):
		if ids := m.coll.IDs(); len(ids) > 0 {
			m.show(ids[len(ids)-1])
		}

	case key.Matches(msg, m.keys.ZoomIn):
		m.ctrl.SetZoom(viewer.ZoomIn)
	case key.Matches(msg, m.keys.ZoomOut):
		m.ctrl.SetZoom(viewer.ZoomOut)
	case key.Matches(msg, m.keys.Fit):
		m.ctrl.SetZoom(viewer.ZoomFit)
	case key.Matches(msg, m.keys.Actual):
		m.ctrl.SetZoom(viewer.ZoomRatio(1))

	case key.Matches(msg, m.keys.Left):
		m.ctrl.Pan(viewer.PanLeft)
	case key.Matches(msg, m.keys.Right):
		m.ctrl.Pan(viewer.PanRight)
	case key.Matches(msg, m.keys.Up):
		m.ctrl.Pan(viewer.PanUp)
	case key.Matches(msg, m.keys.Down):
		m.ctrl.Pan(viewer.PanDown)

	case key.Matches(msg, m.keys.Transformed):
		m.ctrl.Reload(true)
	case key.Matches(msg, m.keys.Original):
		m.ctrl.Reload(false)
	case key.Matches(msg, m.keys.Info):
		m.showInfo = !m.showInfo
		m.dirty = true
	case key.Matches(msg, m.keys.Fullscreen):
		m.toggleFullscreen()
	}
	return m, nil
}

// show makes id the current item.
func (m *Model) show(id item.ID) {
	if m.ctrl.SetItem(m.coll, id) {
		m.index = m.coll.Index(id)
	}
}

func (m *Model) step(move func(item.ID, bool) (item.ID, bool)) {
	cur := m.ctrl.Current()
	if cur.IsNil() {
		return
	}
	if id, ok := move(cur, true); ok && id != cur {
		m.show(id)
	}
}

func (m *Model) toggleHelp() {
	m.showHelp = !m.showHelp
	m.help.ShowAll = m.showHelp
	m.dirty = true
}

// imageArea is the viewport in pixels: the whole terminal in fullscreen,
// otherwise everything above the status bar.
func (m *Model) imageArea(fullscreen bool) (width, height int) {
	rows := m.height
	if !fullscreen {
		rows--
	}
	px := render.CellsToPixels(m.width, max(rows, 0))
	return px.X, px.Y
}

func (m *Model) resize() {
	w, h := m.imageArea(m.ctrl.Fullscreen())
	m.ctrl.SetViewportSize(w, h)
}

func (m *Model) toggleFullscreen() {
	done := func() {
		m.dirty = true
		// The terminal may have been resized during the transition.
		m.resize()
	}
	if m.ctrl.Fullscreen() {
		m.ctrl.LeaveFullscreen(done)
		return
	}
	w, h := m.imageArea(true)
	m.ctrl.EnterFullscreen(image.Pt(w, h), done)
}

// CollectionChanged updates the view after a file was added, rewritten or
// deleted. It must run on the UI thread.
func (m *Model) CollectionChanged(ch collection.Change) {
	cur := m.ctrl.Current()
	switch {
	case ch.Kind == collection.Removed && ch.ID == cur:
		ids := m.coll.IDs()
		if len(ids) == 0 {
			logging.Info("Last image removed: %s", filepath.Base(ch.Path))
			break
		}
		m.show(ids[min(m.index, len(ids)-1)])
	case ch.Kind == collection.Added && (cur.IsNil() || m.coll.Index(cur) < 0):
		m.show(ch.ID)
	default:
		if !cur.IsNil() {
			m.index = m.coll.Index(cur)
		}
	}
	m.dirty = true
}

// ThumbnailReady repaints when the thumbnail of the current item arrives.
// It must run on the UI thread.
func (m *Model) ThumbnailReady(id item.ID) {
	if id == m.ctrl.Current() {
		m.dirty = true
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Starting..."
	}
	if m.showHelp {
		return m.styles.help.Render(m.help.View(m.keys))
	}

	// Keep the previous frame while a fullscreen transition is pending.
	if m.dirty && !m.ctrl.Frozen() {
		scene := render.Capture(m.ctrl, m.worker, m.showInfo)
		m.frame = render.HalfBlocks(m.renderer.Render(scene))
		m.dirty = false
	}
	if m.ctrl.Fullscreen() {
		return m.frame
	}
	return m.frame + "\n" + m.statusBar()
}

// Run starts a bubbletea program around m and blocks until the user quits
// or ctx ends.
func Run(ctx context.Context, m *Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	m.sched.Attach(p)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
