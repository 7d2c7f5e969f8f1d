package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/phobologic/layoutsync/internal/config"
	"github.com/phobologic/layoutsync/internal/discover"
	"github.com/phobologic/layoutsync/internal/doc"
	"github.com/phobologic/layoutsync/internal/idgen"
	"github.com/phobologic/layoutsync/internal/model"
	"github.com/phobologic/layoutsync/internal/reconcile"
	"github.com/phobologic/layoutsync/internal/store"
)

// runTrack implements `layoutsync [track]`: every layout document under root
// is reconciled against the components stored for it by the previous run.
func runTrack(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, f := newFlagSet("layoutsync track", stderr)
	if err := parseFlags(fs, f, args); err != nil {
		return err
	}

	if f.showVersion {
		_, _ = fmt.Fprintf(stdout, "layoutsync %s\n", version)
		return nil
	}

	root := "."
	if fs.NArg() > 0 {
		root = fs.Arg(0)
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving root: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", root)
	}

	cfg, err := resolveConfig(f, root)
	if err != nil {
		return err
	}
	logger := newLogger(stderr, cfg)

	files, err := discover.Files(root, discover.Options{
		Formats:     cfg.Formats,
		MaxFileSize: cfg.MaxFileSize,
		AllXML:      cfg.AllXML,
	})
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no layout files found")
	}

	st, err := store.Open(ctx, cfg.DB, logger)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	reports := trackFilesConcurrent(ctx, root, files, st, cfg, logger)
	if len(reports) == 0 {
		return fmt.Errorf("no files could be tracked")
	}

	removed, err := pruneRemoved(ctx, root, st, logger)
	if err != nil {
		return err
	}
	reports = append(reports, removed...)

	return writeReport(stdout, f, &model.Report{
		Root:  filepath.Base(root),
		Files: reports,
	})
}

func trackFilesConcurrent(ctx context.Context, root string, files []discover.FileEntry, st *store.Store, cfg *config.Config, logger *slog.Logger) []model.FileReport {
	type result struct {
		index  int
		report model.FileReport
	}

	numWorkers := min(cfg.Workers, len(files))

	work := make(chan int, len(files))
	results := make(chan result, len(files))

	// One generator for the whole run so sequence keys never collide.
	keys := keyGenerator(cfg, strconv.FormatInt(time.Now().UnixMilli(), 36)+"-")

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				if ctx.Err() != nil {
					continue
				}
				fe := files[idx]
				report, err := trackFile(ctx, root, fe, st, cfg, keys, logger)
				if err != nil {
					logger.Warn("skipping file", "path", fe.Path, "error", err)
					continue
				}
				results <- result{index: idx, report: report}
			}
		}()
	}

	for i := range files {
		work <- i
	}
	close(work)

	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect results in original order
	indexed := make([]model.FileReport, len(files))
	valid := make([]bool, len(files))
	for r := range results {
		indexed[r.index] = r.report
		valid[r.index] = true
	}

	var reports []model.FileReport
	for i, v := range valid {
		if v {
			reports = append(reports, indexed[i])
		}
	}
	return reports
}

func trackFile(ctx context.Context, root string, fe discover.FileEntry, st *store.Store, cfg *config.Config, keys idgen.Generator, logger *slog.Logger) (model.FileReport, error) {
	d, err := doc.Open(filepath.Join(root, fe.Path))
	if err != nil {
		return model.FileReport{}, err
	}

	key := filepath.ToSlash(fe.Path)
	prev, err := st.Load(ctx, key)
	if err != nil {
		return model.FileReport{}, err
	}

	m := reconcile.NewModelWith(prev, modelOptions(cfg, d.Format(), keys, logger)...)
	res, err := syncDocument(m, d)
	if err != nil {
		return model.FileReport{}, err
	}

	if err := st.Save(ctx, key, fe.Format, m.Components()); err != nil {
		return model.FileReport{}, err
	}

	logger.Debug("tracked", "path", key, "kept", len(res.Reused),
		"created", len(res.Created), "dropped", len(res.Dropped))
	return res.FileReport(key, fe.Format, m.IDAttr()), nil
}

// pruneRemoved reports stored documents whose file no longer exists as
// fully dropped and forgets them.
func pruneRemoved(ctx context.Context, root string, st *store.Store, logger *slog.Logger) ([]model.FileReport, error) {
	docs, err := st.Paths(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing stored documents: %w", err)
	}

	var reports []model.FileReport
	for _, info := range docs {
		_, err := os.Stat(filepath.Join(root, filepath.FromSlash(info.Path)))
		if !errors.Is(err, os.ErrNotExist) {
			continue
		}

		prev, err := st.Load(ctx, info.Path)
		if err != nil {
			return nil, err
		}
		idAttr := model.AndroidID
		if format, ok := doc.Formats[info.Format]; ok {
			idAttr = format.IDAttr
		}
		res := reconcile.Reconcile(prev, nil, nil,
			reconcile.WithIDAttr(idAttr), reconcile.WithLogger(logger))
		reports = append(reports, res.FileReport(info.Path, info.Format, idAttr))

		if err := st.Forget(ctx, info.Path); err != nil {
			return nil, fmt.Errorf("forgetting %s: %w", info.Path, err)
		}
		logger.Info("document removed", "path", info.Path, "dropped", len(res.Dropped))
	}
	return reports, nil
}
