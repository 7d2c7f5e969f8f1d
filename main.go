// layoutsync keeps component identities stable across edits of layout
// documents and reports how each edit was reconciled, in TOON format.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/phobologic/layoutsync/internal/config"
	"github.com/phobologic/layoutsync/internal/doc"
	"github.com/phobologic/layoutsync/internal/filter"
	"github.com/phobologic/layoutsync/internal/idgen"
	"github.com/phobologic/layoutsync/internal/model"
	"github.com/phobologic/layoutsync/internal/reconcile"
	"github.com/phobologic/layoutsync/internal/toon"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		switch args[0] {
		case "init":
			return runInit(args[1:], stdout, stderr)
		case "diff":
			return runDiff(ctx, args[1:], stdout, stderr)
		case "track":
			return runTrack(ctx, args[1:], stdout, stderr)
		case "list":
			return runList(ctx, args[1:], stdout, stderr)
		case "forget":
			return runForget(ctx, args[1:], stdout, stderr)
		}
	}
	return runTrack(ctx, args, stdout, stderr)
}

// cliFlags holds the flags shared by every subcommand except init.
type cliFlags struct {
	maxFiles    int
	formats     string
	dbPath      string
	configPath  string
	maxFileSize int64
	file        string
	status      string
	check       bool
	allXML      bool
	verbose     bool
	showVersion bool

	set map[string]bool
}

func newFlagSet(name string, stderr io.Writer) (*flag.FlagSet, *cliFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)

	f := &cliFlags{}
	fs.IntVar(&f.maxFiles, "n", 0, "maximum number of files to report, most changed first")
	fs.IntVar(&f.maxFiles, "max-files", 0, "maximum number of files to report, most changed first")
	fs.StringVar(&f.formats, "f", "", "comma-separated formats to include ("+strings.Join(doc.Names(), ",")+")")
	fs.StringVar(&f.formats, "formats", "", "comma-separated formats to include")
	fs.StringVar(&f.dbPath, "db", "", "component store path (default from config)")
	fs.StringVar(&f.configPath, "config", "", "config file (default <root>/"+config.FileName+")")
	fs.Int64Var(&f.maxFileSize, "max-file-size", 0, "skip files larger than this many bytes")
	fs.StringVar(&f.file, "file", "", "only report files whose path contains this substring")
	fs.StringVar(&f.status, "status", "", "only report rows with this status (kept, created, dropped)")
	fs.BoolVar(&f.check, "check", false, "verify tree structure after every sync")
	fs.BoolVar(&f.allXML, "all-xml", false, "track every .xml file, not only layout resources")
	fs.BoolVar(&f.verbose, "v", false, "verbose logging")
	fs.BoolVar(&f.showVersion, "V", false, "show version and exit")
	fs.BoolVar(&f.showVersion, "version", false, "show version and exit")
	return fs, f
}

func parseFlags(fs *flag.FlagSet, f *cliFlags, args []string) error {
	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}
	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	return nil
}

// resolveConfig loads the config for root and lets explicitly set flags
// override it.
func resolveConfig(f *cliFlags, root string) (*config.Config, error) {
	path := f.configPath
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(config.Path(root))
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if f.set["f"] || f.set["formats"] {
		cfg.Formats = nil
		for _, name := range strings.Split(f.formats, ",") {
			name = strings.TrimSpace(name)
			if _, ok := doc.Formats[name]; !ok {
				return nil, fmt.Errorf("unsupported format %q", name)
			}
			cfg.Formats = append(cfg.Formats, name)
		}
	}
	if f.set["db"] {
		cfg.DB = f.dbPath
	}
	if f.set["max-file-size"] {
		cfg.MaxFileSize = f.maxFileSize
	}
	if f.set["check"] {
		cfg.CheckIntegrity = f.check
	}
	if f.set["all-xml"] {
		cfg.AllXML = f.allXML
	}
	if f.verbose {
		cfg.LogLevel = "debug"
	}

	if !filepath.IsAbs(cfg.DB) && cfg.DB != ":memory:" {
		cfg.DB = filepath.Join(root, cfg.DB)
	}
	return cfg, nil
}

func newLogger(stderr io.Writer, cfg *config.Config) *slog.Logger {
	level, err := cfg.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
}

// keyGenerator builds the component key generator the config asks for.
// Sequence keys restart with every process, so runs that persist keys pass a
// prefix unique to the run.
func keyGenerator(cfg *config.Config, prefix string) idgen.Generator {
	if cfg.Keys != config.KeysSequence {
		return idgen.UUIDv7()
	}
	gen := idgen.Sequence("c")
	if prefix != "" {
		gen = idgen.Prefixed(prefix, gen)
	}
	return gen
}

func modelOptions(cfg *config.Config, format *doc.Format, keys idgen.Generator, logger *slog.Logger) []reconcile.Option {
	return []reconcile.Option{
		reconcile.WithIDAttr(format.IDAttr),
		reconcile.WithKeys(keys),
		reconcile.WithLogger(logger),
		reconcile.WithIntegrityChecks(cfg.CheckIntegrity),
	}
}

// syncDocument reconciles m against the current state of d. An integrity
// violation is returned as an error instead of crashing the run.
func syncDocument(m *reconcile.Model, d *doc.Document) (res reconcile.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok && errors.Is(e, reconcile.ErrIntegrity) {
				err = e
				return
			}
			panic(r)
		}
	}()
	d.Read(func(root model.Tag, roots []*model.SnapshotNode) {
		res = m.Sync(root, roots)
	})
	return res, nil
}

// writeReport applies the output filters and prints r.
func writeReport(stdout io.Writer, f *cliFlags, r *model.Report) error {
	if f.file != "" {
		r = filter.ByFile(r, f.file)
		if len(r.Files) == 0 {
			return fmt.Errorf("no files matching %q", f.file)
		}
	}
	if f.status != "" {
		status, ok := filter.ParseStatus(f.status)
		if !ok {
			return fmt.Errorf("unknown status %q", f.status)
		}
		r = filter.ByStatus(r, status)
	}
	if f.maxFiles > 0 {
		r = filter.SelectFiles(r, f.maxFiles)
	}

	_, _ = fmt.Fprintln(stdout, toon.Encode(r))
	return nil
}

// flagsWithValue lists flags that take a value argument.
var flagsWithValue = map[string]bool{
	"-n": true, "--n": true,
	"-max-files": true, "--max-files": true,
	"-f": true, "--f": true,
	"-formats": true, "--formats": true,
	"-db": true, "--db": true,
	"-config": true, "--config": true,
	"-max-file-size": true, "--max-file-size": true,
	"-file": true, "--file": true,
	"-status": true, "--status": true,
}

// reorderArgs moves positional arguments after all flags so Go's flag package
// can parse them correctly (it stops at the first non-flag arg).
func reorderArgs(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(args[i]) > 0 && args[i][0] == '-' {
			flags = append(flags, args[i])
			if flagsWithValue[args[i]] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, args[i])
		}
	}
	return append(flags, positional...)
}
