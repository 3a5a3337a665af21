// Package database provides the SQLite cache used by the photo viewer.
//
// It stores:
//   - EXIF tags per file, keyed by path and invalidated by modification time
//   - Key/value settings such as the time of the last thumbnail prefetch
//
// The database uses WAL mode so the thumbnail prefetch workers and the image
// loader can read concurrently.
package database
