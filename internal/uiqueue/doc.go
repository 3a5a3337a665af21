// Package uiqueue is a FIFO of callbacks drained by one goroutine that plays
// the role of the UI thread. Headless rendering and tests use it as the
// loader's Scheduler; the terminal front end uses the bubbletea program
// instead.
package uiqueue
