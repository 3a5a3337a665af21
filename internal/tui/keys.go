package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings of the viewer.
type keyMap struct {
	// Navigation
	Next  key.Binding
	Prev  key.Binding
	First key.Binding
	Last  key.Binding

	// Zoom
	ZoomIn  key.Binding
	ZoomOut key.Binding
	Fit     key.Binding
	Actual  key.Binding

	// Pan
	Left  key.Binding
	Right key.Binding
	Up    key.Binding
	Down  key.Binding

	// Image
	Transformed key.Binding
	Original    key.Binding
	Info        key.Binding
	Fullscreen  key.Binding

	// Global
	Help key.Binding
	Quit key.Binding
}

// defaultKeyMap returns the default key bindings.
func defaultKeyMap() keyMap {
	return keyMap{
		Next: key.NewBinding(
			key.WithKeys("n", " ", "pgdown"),
			key.WithHelp("n/space", "Next image"),
		),
		Prev: key.NewBinding(
			key.WithKeys("p", "backspace", "pgup"),
			key.WithHelp("p/bksp", "Previous image"),
		),
		First: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g", "First image"),
		),
		Last: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("G", "Last image"),
		),
		ZoomIn: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "Zoom in"),
		),
		ZoomOut: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "Zoom out"),
		),
		Fit: key.NewBinding(
			key.WithKeys("f", "0"),
			key.WithHelp("f/0", "Fit to window"),
		),
		Actual: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "Actual size"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "Pan left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "Pan right"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "Pan up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "Pan down"),
		),
		Transformed: key.NewBinding(
			key.WithKeys("t", "r"),
			key.WithHelp("t", "Reload upright"),
		),
		Original: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "Reload as stored"),
		),
		Info: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "Toggle info"),
		),
		Fullscreen: key.NewBinding(
			key.WithKeys("F"),
			key.WithHelp("F", "Toggle fullscreen"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "Quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.ZoomIn, k.ZoomOut, k.Fit, k.Info, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.First, k.Last},
		{k.ZoomIn, k.ZoomOut, k.Fit, k.Actual},
		{k.Left, k.Right, k.Up, k.Down},
		{k.Transformed, k.Original, k.Info, k.Fullscreen},
		{k.Help, k.Quit},
	}
}
