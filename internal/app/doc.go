// Package app is the composition root of the photo viewer.
//
// Run loads the configuration, starts the decoders, opens the metadata
// cache and the collection, and then runs one of three modes:
//
//   - interactive: the bubbletea viewer, with the file watcher, thumbnail
//     prefetch and the optional Prometheus endpoint running alongside
//   - snapshot: renders the first image into a file
//   - print: renders the first image to stdout as half-block text
//
// # Threads
//
// Every mode has exactly one UI thread. In interactive mode it is the
// bubbletea program goroutine, reached through tui.Scheduler. The headless
// modes use a uiqueue.Queue drained by the calling goroutine until the
// worker has delivered a view.
//
//	Run()
//	  ├─> startup.LoadConfig()      .env, TOML file, environment
//	  ├─> transform.InitVips()      optional
//	  ├─> database.New()            EXIF cache, thumbnail run time
//	  ├─> loader.New()              image worker goroutine
//	  ├─> collection.Open()         registers every image
//	  └─> runInteractive() / runHeadless()
//
// # Logging
//
// Startup lines are buffered until the log destination is known. The
// interactive viewer owns the terminal, so its logs go to LOG_FILE or are
// dropped; the headless modes log to stderr.
package app
