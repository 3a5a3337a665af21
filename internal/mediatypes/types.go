package mediatypes

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

// FileType represents the kind of a file found in a photo directory.
type FileType string

const (
	// FileTypeFolder represents a directory.
	FileTypeFolder FileType = "folder"
	// FileTypeImage represents a decodable image file.
	FileTypeImage FileType = "image"
	// FileTypeOther represents an unknown or unsupported file type.
	FileTypeOther FileType = "other"
)

// SortField specifies which field a collection is ordered by.
type SortField string

// SortOrder specifies the direction of sorting.
type SortOrder string

const (
	// SortByName sorts by filename.
	SortByName SortField = "name"
	// SortByDate sorts by modification time.
	SortByDate SortField = "date"
	// SortBySize sorts by file size.
	SortBySize SortField = "size"

	// SortAsc sorts in ascending order.
	SortAsc SortOrder = "asc"
	// SortDesc sorts in descending order.
	SortDesc SortOrder = "desc"
)

// ParseSortField validates a sort field name.
func ParseSortField(s string) (SortField, error) {
	switch f := SortField(strings.ToLower(strings.TrimSpace(s))); f {
	case SortByName, SortByDate, SortBySize:
		return f, nil
	case "":
		return SortByName, nil
	default:
		return "", fmt.Errorf("unknown sort field %q (want name, date or size)", s)
	}
}

// ParseSortOrder validates a sort order name.
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case SortAsc, SortDesc:
		return o, nil
	case "":
		return SortAsc, nil
	default:
		return "", fmt.Errorf("unknown sort order %q (want asc or desc)", s)
	}
}

// ImageExtensions maps file extensions to whether the viewer can decode them.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".jpe":  true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
}

// VipsOnlyExtensions are decodable only when libvips is available.
var VipsOnlyExtensions = map[string]bool{
	".heic": true,
	".heif": true,
	".avif": true,
}

// MimeTypes maps image extensions to their MIME types.
var MimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".jpe":  "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".heic": "image/heic",
	".heif": "image/heif",
	".avif": "image/avif",
}

// GetFileType returns the FileType for a given file extension.
// The extension should be lowercase and include the leading dot (e.g., ".jpg").
// vips reports whether libvips formats are decodable.
func GetFileType(ext string, vips bool) FileType {
	if ImageExtensions[ext] || (vips && VipsOnlyExtensions[ext]) {
		return FileTypeImage
	}
	return FileTypeOther
}

// GetMimeType returns the MIME type for a given file extension.
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// IsImageFile reports whether name has a decodable image extension.
func IsImageFile(name string, vips bool) bool {
	return GetFileType(strings.ToLower(filepath.Ext(name)), vips) == FileTypeImage
}

// SniffFileType classifies a file header. It reports FileTypeImage for any
// image signature filetype recognises, whether or not the extension says so.
func SniffFileType(head []byte) FileType {
	if filetype.IsImage(head) {
		return FileTypeImage
	}
	return FileTypeOther
}

// SniffMimeType returns the MIME type detected from a file header, or ""
// when the header is not recognised.
func SniffMimeType(head []byte) string {
	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return ""
	}
	return kind.MIME.Value
}
