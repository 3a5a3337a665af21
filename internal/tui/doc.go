// Package tui is the interactive terminal front end of the viewer.
//
// The bubbletea program goroutine is the UI thread: the viewer controller,
// rendering and every loader callback run there. The loader reaches it
// through a Scheduler, which queues callbacks and wakes the program with a
// message so that callbacks keep their submission order.
//
// Frames are drawn with the render package and printed as half-block
// characters, so the viewport is the terminal width in pixels by twice the
// number of rows above the status bar.
package tui
