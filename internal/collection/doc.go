// Package collection turns files and directories into an ordered set of
// images and supplies the loader with their metadata and pixels.
//
// Open scans its arguments once, registering every image with a Registry
// (normally the loader) so each file gets a stable item ID. Watch keeps the
// set current: new files are added, rewritten files are invalidated and
// removed files are dropped.
//
// EXIF tags are read with goexif and cached in a MetadataCache keyed by
// path and modification time, so reopening a large directory does not
// re-parse every file.
package collection
