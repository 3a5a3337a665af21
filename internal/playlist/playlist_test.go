package playlist

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func TestIsPlaylist(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"holiday.wpl", true},
		{"HOLIDAY.WPL", true},
		{"list.m3u", true},
		{"list.m3u8", true},
		{"photo.jpg", false},
		{"noext", false},
	}
	for _, tt := range tests {
		if got := IsPlaylist(tt.path); got != tt.want {
			t.Errorf("IsPlaylist(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestParseWPL(t *testing.T) {
	dir := t.TempDir()
	photoDir := filepath.Join(dir, "photos")
	touch(t, filepath.Join(dir, "lists", "local.jpg"))
	touch(t, filepath.Join(photoDir, "remote.jpg"))

	wpl := filepath.Join(dir, "lists", "holiday.wpl")
	writeFile(t, wpl, `<?wpl version="1.0"?>
<smil>
  <head><title>Summer 2023</title></head>
  <body>
    <seq>
      <media src="local.jpg"/>
      <media src="C:\Users\me\Pictures\remote.jpg"/>
      <media src="..\missing.jpg"/>
    </seq>
  </body>
</smil>`)

	p, err := Parse(wpl, photoDir)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if p.Name != "Summer 2023" {
		t.Errorf("Name = %q, want title from the file", p.Name)
	}
	if len(p.Items) != 3 {
		t.Fatalf("got %d items, want 3", len(p.Items))
	}

	want := []struct {
		name   string
		path   string
		exists bool
	}{
		{"local.jpg", filepath.Join(dir, "lists", "local.jpg"), true},
		{"remote.jpg", filepath.Join(photoDir, "remote.jpg"), true},
		{"missing.jpg", "../missing.jpg", false},
	}
	for i, w := range want {
		it := p.Items[i]
		if it.Name != w.name || it.Path != w.path || it.Exists != w.exists {
			t.Errorf("item %d = %+v, want name=%s path=%s exists=%v", i, it, w.name, w.path, w.exists)
		}
	}
	if it := p.Items[1]; it.OrigPath != `C:\Users\me\Pictures\remote.jpg` {
		t.Errorf("OrigPath = %q, want the entry as written", it.OrigPath)
	}

	existing := p.Existing()
	if len(existing) != 2 || existing[0] != want[0].path || existing[1] != want[1].path {
		t.Errorf("Existing() = %v", existing)
	}
}

func TestParseWPLNameFallback(t *testing.T) {
	dir := t.TempDir()
	wpl := filepath.Join(dir, "Trip.wpl")
	writeFile(t, wpl, `<smil><head></head><body><seq></seq></body></smil>`)

	p, err := Parse(wpl, "")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if p.Name != "Trip" {
		t.Errorf("Name = %q, want file name", p.Name)
	}
	if len(p.Items) != 0 || p.Existing() != nil {
		t.Errorf("expected an empty playlist, got %+v", p.Items)
	}
}

func TestParseM3U(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.jpg"))
	abs := filepath.Join(dir, "sub", "b.jpg")
	touch(t, abs)

	m3u := filepath.Join(dir, "list.m3u")
	writeFile(t, m3u, "\ufeff#EXTM3U\n#EXTINF:-1,First\na.jpg\n\n"+abs+"\n  # comment\nnope.jpg\n")

	p, err := Parse(m3u, "")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	got := p.Existing()
	if len(got) != 2 || got[0] != filepath.Join(dir, "a.jpg") || got[1] != abs {
		t.Errorf("Existing() = %v", got)
	}
	if len(p.Items) != 3 || p.Items[2].Exists {
		t.Errorf("Items = %+v, want a missing third entry", p.Items)
	}
}

func TestParseErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.wpl")
	writeFile(t, bad, "<smil><head>")
	other := filepath.Join(dir, "list.txt")
	writeFile(t, other, "a.jpg")

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "none.wpl")},
		{"malformed xml", bad},
		{"unsupported format", other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.path, dir); err == nil {
				t.Error("Parse() succeeded, want error")
			}
		})
	}
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.txt")
	touch(t, testFile)

	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{"Existing file", testFile, true},
		{"Non-existent file", filepath.Join(tmpDir, "nonexistent.txt"), false},
		{"Directory", tmpDir, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fileExists(tt.path); got != tt.expected {
				t.Errorf("fileExists(%s) = %v, want %v", tt.path, got, tt.expected)
			}
		})
	}
}
