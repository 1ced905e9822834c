package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/backmassage/cbzscan/internal/config"
	"github.com/backmassage/cbzscan/internal/display"
	"github.com/backmassage/cbzscan/internal/imagecheck"
	"github.com/backmassage/cbzscan/internal/logging"
	"github.com/backmassage/cbzscan/internal/publish"
	"github.com/backmassage/cbzscan/internal/report"
)

// Options controls one scan.
type Options struct {
	ArchiveExt   string
	EntryExt     string
	Workers      int    // 0 = GOMAXPROCS
	MaxEntrySize uint64 // 0 = unlimited
	Verbose      bool
	Checker      Checker // nil = imagecheck.Checker
}

// OptionsFromConfig derives scan options from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ArchiveExt:   cfg.ArchiveExt,
		EntryExt:     cfg.EntryExt,
		Workers:      cfg.Workers,
		MaxEntrySize: cfg.MaxEntrySize,
		Verbose:      cfg.Verbose,
	}
}

func (o Options) checker() Checker {
	if o.Checker == nil {
		return imagecheck.Checker{}
	}
	return o.Checker
}

// Result is a finished scan. Diagnostics are in archive-discovery order,
// and in member-listing order within one archive.
type Result struct {
	Root        string
	Archives    []string
	Workers     int
	Diagnostics []report.Diagnostic
	Summary     report.Summary
}

// Scan discovers archives under root and checks them on a worker pool.
// It returns the context error if ctx is cancelled before every archive
// has been processed.
func Scan(ctx context.Context, root string, opts Options, log *logging.Logger) (*Result, error) {
	paths, err := Discover(root, opts.ArchiveExt, func(path string, err error) {
		log.Warn("Skipping unreadable path %s: %v", path, err)
	})
	if err != nil {
		return nil, fmt.Errorf("discover archives: %w", err)
	}

	res := &Result{Root: root, Archives: paths}
	res.Summary.Archives = len(paths)
	if len(paths) == 0 {
		log.Info("Found 0 archives")
		return res, nil
	}

	res.Workers = EffectiveWorkers(opts.Workers, len(paths))
	log.Info("Found %d archives, scanning with %d workers", len(paths), res.Workers)

	total := len(paths)
	results, err := processAll(ctx, paths, res.Workers,
		func(ctx context.Context, path string) ArchiveResult {
			return ProcessArchive(ctx, path, opts)
		},
		func(done int, r ArchiveResult) {
			if n := len(r.Diagnostics); n > 0 {
				log.Debug(opts.Verbose, "%s: %d %s", r.Path, n, display.Plural(n, "issue", "issues"))
			}
			log.Record("DEBUG", "archive scanned",
				zap.String("archive", r.Path),
				zap.Int("entries", r.EntriesListed),
				zap.Int("checked", r.EntriesChecked),
				zap.Int("issues", len(r.Diagnostics)))
			log.Progress(progressLine(done, total, filepath.Base(r.Path)))
		})
	log.ClearProgress()
	if err != nil {
		return nil, err
	}

	for _, r := range results {
		res.Diagnostics = append(res.Diagnostics, r.Diagnostics...)
		res.Summary.EntriesListed += r.EntriesListed
		res.Summary.EntriesChecked += r.EntriesChecked
		res.Summary.BytesChecked += r.BytesChecked
	}
	res.Summary.Count(res.Diagnostics)
	return res, nil
}

// progressLine formats the inline TTY status for archive done of total.
func progressLine(done, total int, name string) string {
	const maxName = 40
	if r := []rune(name); len(r) > maxName {
		name = string(r[:maxName-1]) + "…"
	}
	return fmt.Sprintf("  Scanning [%d/%d] %d%% %s", done, total, done*100/total, name)
}

// sinkOpener builds the configured publish sinks. Replaced in tests.
type sinkOpener func(ctx context.Context, cfg *config.Config) ([]publish.Sink, error)

// Run is the top-level entry point: scan cfg.RootDir, write the text report
// (and JSON report when configured), then publish to any configured sinks.
// An interrupted scan returns the context error and writes nothing.
// A publish failure is returned after the local reports are written.
func Run(ctx context.Context, cfg *config.Config, log *logging.Logger, version string) (RunStats, error) {
	return run(ctx, cfg, log, version, publish.Open)
}

func run(ctx context.Context, cfg *config.Config, log *logging.Logger, version string, open sinkOpener) (RunStats, error) {
	stats := RunStats{RunID: uuid.NewString(), ReportPath: cfg.ReportPath}
	started := time.Now()
	log.Debug(cfg.Verbose, "Run %s: root %s, max entry size %s",
		stats.RunID, cfg.RootDir, display.FormatBytes(cfg.MaxEntrySize))

	res, err := Scan(ctx, cfg.RootDir, OptionsFromConfig(cfg), log)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return stats, err
	}
	stats.Archives = len(res.Archives)
	stats.Workers = res.Workers
	stats.Summary = res.Summary

	if err := report.WriteText(cfg.ReportPath, res.Diagnostics); err != nil {
		return stats, err
	}
	files := []string{cfg.ReportPath}

	doc := &report.Document{
		RunID:       stats.RunID,
		ToolVersion: version,
		Root:        res.Root,
		StartedAt:   started.UTC(),
		FinishedAt:  time.Now().UTC(),
		Summary:     res.Summary,
		Diagnostics: res.Diagnostics,
	}
	if cfg.JSONReport != "" {
		if err := report.WriteJSON(cfg.JSONReport, doc); err != nil {
			return stats, err
		}
		stats.JSONPath = cfg.JSONReport
		files = append(files, cfg.JSONReport)
	}
	stats.Elapsed = time.Since(started)

	logSummary(log, &stats, cfg.Verbose)

	sinks, err := open(ctx, cfg)
	if err != nil {
		return stats, fmt.Errorf("%w: %w", publish.ErrPublish, err)
	}
	if len(sinks) == 0 {
		return stats, nil
	}
	defer func() {
		for _, s := range sinks {
			if cerr := s.Close(); cerr != nil {
				log.Warn("Closing %s: %v", s.Name(), cerr)
			}
		}
	}()

	return stats, publish.All(ctx, sinks, &publish.Run{Doc: doc, Files: files}, log)
}

func logSummary(log *logging.Logger, stats *RunStats, verbose bool) {
	s := stats.Summary
	log.Info("Checked %s %s (%s) across %s %s in %s",
		display.FormatCount(s.EntriesChecked), display.Plural(s.EntriesChecked, "page", "pages"),
		display.FormatBytes(s.BytesChecked),
		display.FormatCount(stats.Archives), display.Plural(stats.Archives, "archive", "archives"),
		display.FormatElapsed(stats.Elapsed))
	if s.ArchiveErrors+s.Unreadable > 0 {
		log.Warn("%d unopenable %s, %d unreadable %s",
			s.ArchiveErrors, display.Plural(s.ArchiveErrors, "archive", "archives"),
			s.Unreadable, display.Plural(s.Unreadable, "page", "pages"))
	}
	classes := make([]string, 0, len(s.ByClass))
	for c := range s.ByClass {
		classes = append(classes, string(c))
	}
	sort.Strings(classes)
	for _, c := range classes {
		log.Debug(verbose, "  %s: %d", c, s.ByClass[imagecheck.Class(c)])
	}

	msg := fmt.Sprintf("Scan complete: %d issue(s) found. Results written to %s", s.Issues(), stats.ReportPath)
	if s.Issues() == 0 {
		log.Success("%s", msg)
	} else {
		log.Warn("%s", msg)
	}
}
