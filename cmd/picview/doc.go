// Command picview is a terminal photo viewer.
//
// Usage:
//
//	picview [flags] <file|dir|playlist>...
//
// Without -snapshot or -print it opens an interactive viewer in the
// alternate screen. Images are drawn with half-block characters in 24-bit
// colour, two pixel rows per terminal row. The directories given are
// watched, so added, rewritten and deleted files show up while viewing.
// WPL and M3U playlists are replaced by the photos they list.
//
// # Keys
//
//	n, space, pgdown   next image
//	p, bksp, pgup      previous image
//	g, G               first, last image
//	+, -               zoom in, out
//	f, 0               fit to window
//	1                  actual size
//	arrows, hjkl       pan
//	t, o               reload upright, reload as stored
//	i                  info overlay
//	F                  fullscreen
//	?                  help
//	q, esc             quit
//
// # Headless rendering
//
//	picview -snapshot out.png -size 800x600 -zoom 1 ~/Pictures
//	picview -print -info photo.jpg
//
// -snapshot writes the first image of the collection to a file. The format
// follows the extension. -print writes it to stdout sized to the terminal.
//
// # Configuration
//
// Settings are read from an optional .env file, the TOML file given by
// -config (default ~/.config/photo-viewer/config.toml) and the environment,
// in increasing order of precedence. Useful variables:
//
//   - PHOTO_DIR: directory shown when no path is given
//   - CACHE_DIR: metadata cache and thumbnails (default ~/.cache/photo-viewer)
//   - LOG_FILE: log destination; the interactive viewer logs nowhere otherwise
//   - LOG_LEVEL: debug, info, warn or error
//   - METRICS_ADDR: serve Prometheus metrics on this address
//   - MEMORY_LIMIT: memory budget used to set GOMEMLIMIT
package main
