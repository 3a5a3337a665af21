// Package viewer keeps the zoom and pan state of the image on screen and
// converts between the three coordinate spaces used when drawing it:
//
//   - image space: pixels of the decoded (oriented) image
//   - scaled-image space: pixels of the scaled view produced by the loader
//   - screen space: pixels of the viewport, where a view smaller than the
//     viewport is centred
//
// A Controller is confined to the UI thread. It never blocks on the loader;
// it sends requests through the Worker interface and learns about results
// through the loader.Handler callbacks, which the loader delivers on the UI
// thread's scheduler.
//
// While the item is in fit mode the effective zoom is derived from the width
// of the current scaled view, so it is only known once a view exists.
package viewer
