package playlist

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"photo-viewer/internal/filesystem"
)

// WPL structure based on Windows Media Player playlist format
type WPL struct {
	XMLName xml.Name `xml:"smil"`
	Head    WPLHead  `xml:"head"`
	Body    WPLBody  `xml:"body"`
}

type WPLHead struct {
	Title string `xml:"title"`
}

type WPLBody struct {
	Seq WPLSeq `xml:"seq"`
}

type WPLSeq struct {
	Media []WPLMedia `xml:"media"`
}

type WPLMedia struct {
	Src string `xml:"src,attr"`
}

// Playlist is an ordered list of photos read from a playlist file.
type Playlist struct {
	Name  string
	Path  string
	Items []Item
}

// Item is one playlist entry.
type Item struct {
	Name string
	// Path is the resolved absolute path, or the entry as written when it
	// could not be found.
	Path     string
	OrigPath string
	Exists   bool
}

// Existing returns the resolved paths of entries found on disk, in order.
func (p *Playlist) Existing() []string {
	var paths []string
	for _, it := range p.Items {
		if it.Exists {
			paths = append(paths, it.Path)
		}
	}
	return paths
}

// IsPlaylist reports whether path names a supported playlist file.
func IsPlaylist(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wpl", ".m3u", ".m3u8":
		return true
	}
	return false
}

// Parse reads a WPL or M3U playlist. Entries are looked up next to the
// playlist first and then by file name in photoDir.
func Parse(path, photoDir string) (*Playlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var title string
	var srcs []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wpl":
		var wpl WPL
		if err := xml.Unmarshal(data, &wpl); err != nil {
			return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
		}
		title = wpl.Head.Title
		for _, m := range wpl.Body.Seq.Media {
			srcs = append(srcs, m.Src)
		}
	case ".m3u", ".m3u8":
		srcs = parseM3U(data)
	default:
		return nil, fmt.Errorf("unsupported playlist format: %s", filepath.Ext(path))
	}

	p := &Playlist{Name: title, Path: path}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	dir := filepath.Dir(path)
	for _, src := range srcs {
		p.Items = append(p.Items, resolve(src, dir, photoDir))
	}
	return p, nil
}

// parseM3U returns the entries of an M3U file, skipping comments and
// extended directives.
func parseM3U(data []byte) []string {
	var srcs []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(sc.Text(), "\ufeff"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		srcs = append(srcs, line)
	}
	return srcs
}

func resolve(src, playlistDir, photoDir string) Item {
	// Handle Windows paths
	clean := strings.ReplaceAll(src, "\\", "/")
	it := Item{Name: filepath.Base(clean), OrigPath: src}

	var candidates []string
	if filepath.IsAbs(clean) {
		candidates = append(candidates, clean)
	} else {
		candidates = append(candidates, filepath.Join(playlistDir, clean))
	}
	if photoDir != "" {
		candidates = append(candidates, filepath.Join(photoDir, it.Name))
	}

	for _, c := range candidates {
		if fileExists(c) {
			it.Path, it.Exists = c, true
			return it
		}
	}
	it.Path = clean
	return it
}

func fileExists(path string) bool {
	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
	return err == nil && !info.IsDir()
}
