// Package playlist reads photo playlists given on the command line.
//
// Supported formats:
//   - WPL (Windows Playlist): XML-based playlist format used by Windows Media Player
//   - M3U and M3U8: one path per line, # lines ignored
//
// Entries may be written with Windows separators or drive letters. Each is
// looked up relative to the playlist first and then by file name in the
// photo directory, so playlists made on another machine still work when
// the photos exist locally.
package playlist
