package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/phobologic/layoutsync/internal/doc"
	"github.com/phobologic/layoutsync/internal/model"
	"github.com/phobologic/layoutsync/internal/reconcile"
)

// runDiff implements `layoutsync diff OLD NEW`: OLD is loaded into a model,
// the same document is then updated with NEW's bytes and reconciled again.
func runDiff(_ context.Context, args []string, stdout, stderr io.Writer) error {
	fs, f := newFlagSet("layoutsync diff", stderr)
	var noReuse bool
	fs.BoolVar(&noReuse, "no-reuse", false, "reparse NEW from scratch instead of reusing unchanged elements")

	fs.Usage = func() {
		fmt.Fprintf(stderr, `Usage: layoutsync diff [flags] OLD NEW

Reconcile the components of OLD against NEW and report which components kept
their identity, which were created and which were dropped. Both files must be
of the same format.

Flags:
`)
		fs.PrintDefaults()
	}

	if err := parseFlags(fs, f, args); err != nil {
		return err
	}

	if f.showVersion {
		_, _ = fmt.Fprintf(stdout, "layoutsync %s\n", version)
		return nil
	}

	if fs.NArg() != 2 {
		fs.Usage()
		return fmt.Errorf("diff needs exactly two files, got %d", fs.NArg())
	}
	oldPath, newPath := fs.Arg(0), fs.Arg(1)

	cfg, err := resolveConfig(f, ".")
	if err != nil {
		return err
	}
	logger := newLogger(stderr, cfg)

	d, err := doc.Open(oldPath)
	if err != nil {
		return err
	}
	if got := doc.ForExtension(filepath.Ext(newPath)); got != d.Format().Name {
		return fmt.Errorf("%s: format %q does not match %s (%s)", newPath, got, oldPath, d.Format().Name)
	}
	newSource, err := os.ReadFile(newPath)
	if err != nil {
		return err
	}

	m := reconcile.NewModel(modelOptions(cfg, d.Format(), keyGenerator(cfg, ""), logger)...)
	if _, err := syncDocument(m, d); err != nil {
		return err
	}

	if noReuse {
		err = d.Replace(newSource)
	} else {
		err = d.Update(newSource)
	}
	if err != nil {
		return err
	}

	res, err := syncDocument(m, d)
	if err != nil {
		return err
	}

	fr := res.FileReport(newPath, d.Format().Name, m.IDAttr())
	fr.TagsReused = d.Reused()
	return writeReport(stdout, f, &model.Report{
		Root:  filepath.Base(oldPath),
		Files: []model.FileReport{fr},
	})
}
