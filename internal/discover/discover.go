// Package discover finds layout documents in a project tree.
package discover

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/phobologic/layoutsync/internal/doc"
)

// FileEntry represents a discovered layout document.
type FileEntry struct {
	Path   string // Relative to project root
	Format string
	Size   int64
}

// Options narrows what Files returns.
type Options struct {
	// Formats restricts results to the named formats. Empty means all.
	Formats []string
	// MaxFileSize skips files larger than this many bytes. Zero means no limit.
	MaxFileSize int64
	// AllXML accepts any .xml file rather than only Android layout resources.
	AllXML bool
}

var skipDirs = map[string]struct{}{
	"node_modules": {},
	".git":         {},
	".hg":          {},
	".svn":         {},
	".gradle":      {},
	".idea":        {},
	"build":        {},
	"dist":         {},
	"out":          {},
	"bin":          {},
	"gen":          {},
	"target":       {},
	"vendor":       {},
}

// Files discovers layout documents under root, sorted by path.
func Files(root string, opts Options) ([]FileEntry, error) {
	formatSet := make(map[string]struct{}, len(opts.Formats))
	for _, f := range opts.Formats {
		formatSet[f] = struct{}{}
	}
	gitFiles := gitLsFiles(root)
	var gi *ignore.GitIgnore
	if gitFiles == nil {
		gi = loadGitignore(root)
	}

	var results []FileEntry

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors
		}

		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}

		// Skip symlinks
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}

		if gitFiles != nil {
			if _, ok := gitFiles[filepath.ToSlash(rel)]; !ok {
				return nil
			}
		} else if gi != nil && gi.MatchesPath(rel) {
			return nil
		}

		format := doc.ForExtension(strings.ToLower(filepath.Ext(name)))
		if format == "" {
			return nil
		}
		if format == "xml" && !opts.AllXML && !IsLayoutResource(rel) {
			return nil
		}

		if len(formatSet) > 0 {
			if _, ok := formatSet[format]; !ok {
				return nil
			}
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if opts.MaxFileSize > 0 && info.Size() > opts.MaxFileSize {
			return nil
		}

		results = append(results, FileEntry{Path: rel, Format: format, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	return results, nil
}

// IsLayoutResource reports whether path sits in an Android layout resource
// directory such as res/layout or res/layout-land.
func IsLayoutResource(path string) bool {
	dir := filepath.Base(filepath.Dir(path))
	return dir == "layout" || strings.HasPrefix(dir, "layout-")
}

func gitLsFiles(root string) map[string]struct{} {
	gitDir := filepath.Join(root, ".git")
	info, err := os.Stat(gitDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	files := make(map[string]struct{})
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line != "" {
			files[line] = struct{}{}
		}
	}
	return files
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
