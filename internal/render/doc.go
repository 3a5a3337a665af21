// Package render draws the viewer's state into frames.
//
// Capture takes a Scene from a viewer.Controller on the UI thread: the
// current scaled view and where it sits on screen, the thumbnail shown while
// the full image loads, and the overlay text and histogram. A Renderer then
// composites the scene with gogpu/gg without touching the loader again, so
// drawing may happen off the UI thread.
//
// HalfBlocks turns a frame into 24-bit colour terminal text, two pixel rows
// per character cell.
package render
