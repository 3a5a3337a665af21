// Package mediatypes decides which files are photos and how collections
// are ordered.
//
// GetFileType and IsImageFile classify by extension. Formats that only
// libvips decodes (HEIC, HEIF, AVIF) count as images only when
// the vips flag is set:
//
//	if mediatypes.IsImageFile(name, transform.IsVipsAvailable()) {
//	    paths = append(paths, name)
//	}
//
// SniffFileType and SniffMimeType read magic bytes instead, for files with
// a missing or misleading extension. The first 261 bytes are enough.
//
// ParseSortField and ParseSortOrder read the SORT and SORT_ORDER settings.
package mediatypes
