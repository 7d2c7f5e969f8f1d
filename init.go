package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/phobologic/layoutsync/internal/config"
)

const (
	sentinelStart = "# layoutsync:start"
	sentinelEnd   = "# layoutsync:end"
)

// runInit implements the `layoutsync init` subcommand, which writes a default
// config file and keeps the component store out of git.
func runInit(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("layoutsync init", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var dryRun, force bool
	fs.BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying any file")
	fs.BoolVar(&force, "force", false, "overwrite an existing config file")

	fs.Usage = func() {
		fmt.Fprintf(stderr, `Usage: layoutsync init [flags] [project-dir]

Write a default %s to the project directory and add the component store
to its .gitignore. The .gitignore entry is wrapped in sentinel comments so it
can be updated in place on subsequent runs without touching surrounding
content.

project-dir defaults to the current directory.

Flags:
`, config.FileName)
		fs.PrintDefaults()
	}

	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}

	dir := "."
	if fs.NArg() > 0 {
		dir = fs.Arg(0)
	}

	cfg := config.Default()
	body, err := cfg.Marshal()
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	content := configHeader + string(body)

	ignorePath := filepath.Join(dir, ".gitignore")
	existing, _ := os.ReadFile(ignorePath)
	updated := applySection(string(existing), generateSection(cfg))

	if dryRun {
		_, _ = fmt.Fprintf(stdout, "# %s\n%s\n# .gitignore\n%s", config.FileName, content, updated)
		return nil
	}

	path := config.Path(dir)
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.WriteFile(ignorePath, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", ignorePath, err)
	}

	_, _ = fmt.Fprintf(stderr, "wrote %s\n", path)
	return nil
}

const configHeader = `# layoutsync configuration. Flags given on the command line take precedence.
#
# db:              component store, relative to the project root
# formats:         formats to track (empty means all)
# max_file_size:   skip documents larger than this many bytes
# all_xml:         track every .xml file, not only res/layout* resources
# check_integrity: verify tree structure after every sync
# log_level:       debug, info, warn or error
# keys:            uuid or sequence
`

// generateSection returns the sentinel-wrapped .gitignore block for the
// component store.
func generateSection(cfg *config.Config) string {
	dir := filepath.ToSlash(filepath.Dir(cfg.DB))
	entry := "/" + dir + "/"
	if dir == "." {
		entry = "/" + filepath.ToSlash(cfg.DB) + "*"
	}
	return sentinelStart + "\n" + entry + "\n" + sentinelEnd
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not. It is a pure function for easy testing.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	// Append, ensuring a blank line separator.
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if len(content) == 0 {
		return section + "\n"
	}
	return content + "\n" + section + "\n"
}
