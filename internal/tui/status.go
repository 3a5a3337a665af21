package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"photo-viewer/internal/item"
)

// styles holds the lipgloss styles of the status bar and help screen.
type styles struct {
	bar   lipgloss.Style
	title lipgloss.Style
	muted lipgloss.Style
	zoom  lipgloss.Style
	help  lipgloss.Style
}

func defaultStyles() styles {
	bar := lipgloss.NewStyle().
		Background(lipgloss.Color("#282a36")).
		Foreground(lipgloss.Color("#f8f8f2"))
	return styles{
		bar:   bar,
		title: bar.Bold(true).Padding(0, 1),
		muted: bar.Foreground(lipgloss.Color("#6272a4")).Padding(0, 1),
		zoom: lipgloss.NewStyle().
			Background(lipgloss.Color("#bd93f9")).
			Foreground(lipgloss.Color("#282a36")).
			Bold(true).
			Padding(0, 1),
		help: lipgloss.NewStyle().Padding(1, 2),
	}
}

// statusBar renders one line: the file and position on the left, the load
// state in the middle and the zoom on the right.
func (m *Model) statusBar() string {
	title, state := "No images", ""
	cur := m.ctrl.Current()

	var (
		info    item.Info
		loaded  item.LoadState
		hasView bool
	)
	if !cur.IsNil() && m.worker.Read(cur, func(it *item.Item) {
		info = it.Info()
		loaded = it.ImageState
		hasView = it.QView != nil
	}) {
		title, _ = m.coll.ViewerText(info, info.ImageSize, m.effectiveZoom())
		switch {
		case loaded == item.Failed:
			state = "cannot display"
		case !hasView:
			state = "loading..."
		case !m.ctrl.Transformed():
			state = "as stored"
		}
	}

	left := m.styles.title.Render(title)
	middle := m.styles.muted.Render(state)
	right := m.styles.zoom.Render(m.effectiveZoom().String())

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(middle) - lipgloss.Width(right)
	if gap < 0 {
		// Too narrow: drop the state, then truncate the title.
		middle = ""
		gap = m.width - lipgloss.Width(left) - lipgloss.Width(right)
		if gap < 0 {
			left = m.styles.title.Render(truncate(title, max(m.width-lipgloss.Width(right)-3, 1)))
			gap = max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 0)
		}
	}
	return left + middle + m.styles.bar.Render(strings.Repeat(" ", gap)) + right
}

// effectiveZoom is the zoom shown to the user: the derived ratio in fit mode
// once a view exists.
func (m *Model) effectiveZoom() item.Zoom {
	if z, ok := m.ctrl.GetZoom(); ok {
		return item.Zoom(z)
	}
	return m.ctrl.Zoom()
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}
