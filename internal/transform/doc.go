// Package transform holds the image pipeline used by the background loader:
// bounded draft decoding, EXIF orientation correction, and resizing to a
// target box or zoom ratio.
//
// Every function is free of shared state except the libvips lifecycle in
// vips.go. Long-running steps take a Probe and return ErrInterrupted as soon
// as it reports false.
package transform
