package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/phobologic/layoutsync/internal/store"
	"github.com/phobologic/layoutsync/internal/toon"
)

// runList implements `layoutsync list [root]`, printing the documents the
// store holds component trees for.
func runList(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	st, fs, err := openStore(ctx, "layoutsync list", true, args, stderr)
	if err != nil {
		return err
	}
	defer st.Close()
	if fs.NArg() > 1 {
		return fmt.Errorf("list takes at most one root")
	}

	docs, err := st.Paths(ctx)
	if err != nil {
		return err
	}

	rows := make([][]string, len(docs))
	for i, d := range docs {
		rows[i] = []string{d.Path, d.Format, strconv.Itoa(d.Components), d.SavedAt.UTC().Format("2006-01-02T15:04:05Z")}
	}
	_, _ = fmt.Fprintln(stdout, toon.Table("documents", []string{"path", "format", "components", "saved"}, rows))
	return nil
}

// runForget implements `layoutsync forget [--db path] DOC...`, removing
// stored trees so the next track run starts the documents from scratch.
func runForget(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	st, fs, err := openStore(ctx, "layoutsync forget", false, args, stderr)
	if err != nil {
		return err
	}
	defer st.Close()
	if fs.NArg() == 0 {
		return fmt.Errorf("forget needs at least one document path")
	}

	for _, p := range fs.Args() {
		if err := st.Forget(ctx, filepath.ToSlash(p)); err != nil {
			return fmt.Errorf("forgetting %s: %w", p, err)
		}
		_, _ = fmt.Fprintf(stderr, "forgot %s\n", p)
	}
	return nil
}

// openStore parses args and opens the store configured for the project.
// With rootArg set, the first positional argument names the project root;
// otherwise the current directory is used.
func openStore(ctx context.Context, name string, rootArg bool, args []string, stderr io.Writer) (*store.Store, *flag.FlagSet, error) {
	fs, f := newFlagSet(name, stderr)
	if err := parseFlags(fs, f, args); err != nil {
		return nil, nil, err
	}

	root := "."
	if rootArg && fs.NArg() > 0 {
		root = fs.Arg(0)
	}
	cfg, err := resolveConfig(f, root)
	if err != nil {
		return nil, nil, err
	}

	st, err := store.Open(ctx, cfg.DB, newLogger(stderr, cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}
	return st, fs, nil
}
