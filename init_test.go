package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phobologic/layoutsync/internal/config"
)

// TestApplySectionCreate verifies that applySection on empty content returns
// the section with a trailing newline.
func TestApplySectionCreate(t *testing.T) {
	t.Parallel()
	section := sentinelStart + "\nbody\n" + sentinelEnd
	got := applySection("", section)
	if got != section+"\n" {
		t.Errorf("got %q", got)
	}
}

// TestApplySectionAppend verifies that existing content without a sentinel block
// is preserved and the section is appended.
func TestApplySectionAppend(t *testing.T) {
	t.Parallel()
	existing := "*.log\n/build/\n"
	section := sentinelStart + "\n/.layoutsync/\n" + sentinelEnd
	got := applySection(existing, section)

	if !strings.HasPrefix(got, existing) {
		t.Errorf("existing content should be preserved at start:\n%s", got)
	}
	if !strings.HasSuffix(got, "\n"+section+"\n") {
		t.Errorf("section should be appended after a blank line:\n%s", got)
	}
}

// TestApplySectionUpdate verifies that an existing sentinel block is replaced
// precisely, leaving surrounding content intact.
func TestApplySectionUpdate(t *testing.T) {
	t.Parallel()
	before := "*.log\n\n"
	after := "\n\n/tmp/\n"
	old := before + sentinelStart + "\n/old-store/\n" + sentinelEnd + after

	section := sentinelStart + "\n/.layoutsync/\n" + sentinelEnd
	got := applySection(old, section)

	if got != before+section+after {
		t.Errorf("got %q", got)
	}
	if strings.Contains(got, "old-store") {
		t.Error("old content should be replaced")
	}
}

// TestApplySectionNoTrailingNewline verifies a separator is added when the
// existing content does not end in a newline.
func TestApplySectionNoTrailingNewline(t *testing.T) {
	t.Parallel()
	got := applySection("*.log", sentinelStart+"\nx\n"+sentinelEnd)
	if !strings.HasPrefix(got, "*.log\n\n"+sentinelStart) {
		t.Errorf("got %q", got)
	}
}

func TestGenerateSection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		db   string
		want string
	}{
		{".layoutsync/state.db", "/.layoutsync/"},
		{"state.db", "/state.db*"},
		{"cache/layouts/state.db", "/cache/layouts/"},
	}
	for _, tt := range tests {
		t.Run(tt.db, func(t *testing.T) {
			t.Parallel()
			cfg := config.Default()
			cfg.DB = tt.db
			got := generateSection(cfg)
			want := sentinelStart + "\n" + tt.want + "\n" + sentinelEnd
			if got != want {
				t.Errorf("got %q, want %q", got, want)
			}
		})
	}
}

func TestRunInit(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, ".gitignore", "*.log\n")

	var stdout, stderr bytes.Buffer
	if err := runInit([]string{dir}, &stdout, &stderr); err != nil {
		t.Fatalf("init: %v", err)
	}

	cfg, err := config.LoadFile(config.Path(dir))
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if cfg.DB != config.Default().DB {
		t.Errorf("db = %q", cfg.DB)
	}

	ignore, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(ignore), "*.log\n") || !strings.Contains(string(ignore), "/.layoutsync/") {
		t.Errorf(".gitignore = %q", ignore)
	}
	if !strings.Contains(stderr.String(), "wrote") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRunInitExistingConfig(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, config.FileName, "keys: sequence\n")

	var stdout, stderr bytes.Buffer
	err := runInit([]string{dir}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "--force") {
		t.Fatalf("expected an error suggesting --force, got %v", err)
	}

	if err := runInit([]string{"--force", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("init --force: %v", err)
	}
	cfg, err := config.LoadFile(config.Path(dir))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Keys != config.KeysUUID {
		t.Errorf("keys = %q after --force, want default", cfg.Keys)
	}
}

func TestRunInitIdempotentGitignore(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	var stdout, stderr bytes.Buffer
	if err := runInit([]string{dir}, &stdout, &stderr); err != nil {
		t.Fatal(err)
	}
	first, _ := os.ReadFile(filepath.Join(dir, ".gitignore"))

	if err := runInit([]string{"--force", dir}, &stdout, &stderr); err != nil {
		t.Fatal(err)
	}
	second, _ := os.ReadFile(filepath.Join(dir, ".gitignore"))

	if string(first) != string(second) {
		t.Errorf(".gitignore changed on rerun:\n%q\n%q", first, second)
	}
	if strings.Count(string(second), sentinelStart) != 1 {
		t.Errorf("sentinel block duplicated:\n%s", second)
	}
}

func TestRunInitDryRun(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	var stdout, stderr bytes.Buffer
	if err := runInit([]string{"--dry-run", dir}, &stdout, &stderr); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout.String(), "# "+config.FileName) || !strings.Contains(stdout.String(), "/.layoutsync/") {
		t.Errorf("dry run output:\n%s", stdout.String())
	}
	for _, name := range []string{config.FileName, ".gitignore"} {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Errorf("%s written during dry run", name)
		}
	}
}

func TestRunInitThenTrack(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)

	var stdout, stderr bytes.Buffer
	if err := run(t.Context(), []string{"init", dir}, &stdout, &stderr); err != nil {
		t.Fatal(err)
	}
	out := runOK(t, dir)
	if !strings.Contains(out, "files[2]") {
		t.Errorf("track after init:\n%s", out)
	}
}
