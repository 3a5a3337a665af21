// Package memory bounds the memory used by the viewer.
//
// Decoded photographs are large: a 24 megapixel image is close to 100 MB as
// NRGBA, and libvips allocates outside the Go heap. [ConfigureFromEnv] sets
// GOMEMLIMIT from MEMORY_LIMIT so the collector works harder before the
// process is killed, leaving a share of the budget for cgo.
//
//	func main() {
//	    memory.ConfigureFromEnv()
//	    // ...
//	}
//
// A [Monitor] samples the heap and reports backpressure. Bulk jobs such as
// thumbnail prefetch call [Monitor.WaitIfPaused] before each item, so a
// prefetch over thousands of files stalls instead of crowding out the image
// being viewed.
package memory
