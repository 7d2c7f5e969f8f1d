package discover

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiscoverLayoutFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "app/src/main/res/layout/main.xml", "<LinearLayout/>")
	writeFile(t, dir, "app/src/main/res/layout-land/main.xml", "<FrameLayout/>")
	writeFile(t, dir, "web/index.html", "<div></div>")
	// Not layouts
	writeFile(t, dir, "app/src/main/res/values/strings.xml", "<resources/>")
	writeFile(t, dir, "app/src/main/AndroidManifest.xml", "<manifest/>")
	writeFile(t, dir, "readme.txt", "hello")
	// Hidden file should be ignored
	writeFile(t, dir, "web/.draft.html", "<p></p>")

	entries, err := Files(dir, Options{})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}

	want := []string{
		filepath.Join("app", "src", "main", "res", "layout-land", "main.xml"),
		filepath.Join("app", "src", "main", "res", "layout", "main.xml"),
		filepath.Join("web", "index.html"),
	}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d: %v", len(want), len(entries), paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("entry %d: got %q, want %q", i, paths[i], want[i])
		}
	}
	if entries[2].Format != "html" || entries[0].Format != "xml" {
		t.Errorf("formats = %q, %q", entries[0].Format, entries[2].Format)
	}
	if entries[2].Size != int64(len("<div></div>")) {
		t.Errorf("size = %d", entries[2].Size)
	}
}

func TestDiscoverAllXML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "screens/login.xml", "<LinearLayout/>")

	entries, err := Files(dir, Options{})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries outside layout dirs, got %d", len(entries))
	}

	entries, err = Files(dir, Options{AllXML: true})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry with AllXML, got %d", len(entries))
	}
}

func TestDiscoverSkipDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "index.html", "<p></p>")
	writeFile(t, dir, "node_modules/pkg/index.html", "<p></p>")
	writeFile(t, dir, "app/build/res/layout/gen.xml", "<View/>")
	writeFile(t, dir, ".hidden/secret.html", "<p></p>")

	entries, err := Files(dir, Options{})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Path != "index.html" {
		t.Errorf("expected index.html, got %q", entries[0].Path)
	}
}

func TestDiscoverGitignore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", "drafts/\n")
	writeFile(t, dir, "index.html", "<p></p>")
	writeFile(t, dir, "drafts/old.html", "<p></p>")

	entries, err := Files(dir, Options{})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "index.html" {
		t.Errorf("entries = %v", entries)
	}
}

func TestDiscoverFormatFilter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "res/layout/a.xml", "<View/>")
	writeFile(t, dir, "b.html", "<p></p>")
	writeFile(t, dir, "c.htm", "<p></p>")

	entries, err := Files(dir, Options{Formats: []string{"html"}})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries for html filter, got %d", len(entries))
	}

	entries, err = Files(dir, Options{Formats: []string{"svg"}})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected 0 entries for svg filter, got %d", len(entries))
	}
}

func TestDiscoverMaxFileSize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "small.html", "<p></p>")
	writeFile(t, dir, "large.html", "<div>"+string(make([]byte, 200))+"</div>")

	entries, err := Files(dir, Options{MaxFileSize: 100})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "small.html" {
		t.Errorf("entries = %v", entries)
	}
}

func TestDiscoverSymlinksSkipped(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "real.html", "<p></p>")

	// Create symlink
	err := os.Symlink(filepath.Join(dir, "real.html"), filepath.Join(dir, "link.html"))
	if err != nil {
		t.Skip("symlinks not supported")
	}

	entries, err := Files(dir, Options{})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry (no symlink), got %d", len(entries))
	}
	if entries[0].Path != "real.html" {
		t.Errorf("expected real.html, got %q", entries[0].Path)
	}
}

func TestIsLayoutResource(t *testing.T) {
	t.Parallel()
	cases := []struct {
		path string
		want bool
	}{
		{"app/src/main/res/layout/activity_main.xml", true},
		{"res/layout-land/main.xml", true},
		{"res/layout-sw600dp-v21/main.xml", true},
		{"layout/main.xml", true},
		{"res/values/strings.xml", false},
		{"res/layouts/main.xml", false},
		{"main.xml", false},
		{"res/drawable/layout.xml", false},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			t.Parallel()
			got := IsLayoutResource(tc.path)
			if got != tc.want {
				t.Errorf("IsLayoutResource(%q) = %v, want %v", tc.path, got, tc.want)
			}
		})
	}
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
