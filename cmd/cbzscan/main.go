// Command cbzscan finds corrupted WebP pages in a tree of CBZ archives.
//
// It parses flags, validates configuration and the root path, and either
// runs system diagnostics (--check) or the scan pipeline, writing the
// report to corrupted_webp_files.txt unless told otherwise.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/backmassage/cbzscan/internal/check"
	"github.com/backmassage/cbzscan/internal/config"
	"github.com/backmassage/cbzscan/internal/display"
	"github.com/backmassage/cbzscan/internal/logging"
	"github.com/backmassage/cbzscan/internal/pipeline"
	"github.com/backmassage/cbzscan/internal/publish"
	"github.com/backmassage/cbzscan/internal/report"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "1.0.0"
	commit  = "unknown"
)

// Exit codes.
const (
	exitOK          = 0
	exitFailure     = 1
	exitUsage       = 2
	exitInterrupted = 130
)

func main() {
	os.Exit(run())
}

func run() int {
	// Phase 1: Bootstrap. The logger doesn't exist yet, so errors go
	// directly to stderr via fmt.
	config.LoadDotEnv()
	cfg := config.DefaultConfig()
	if err := config.ParseFlags(&cfg, version, os.Args[1:]); err != nil {
		if errors.Is(err, config.ErrHelp) {
			return exitOK
		}
		return usageError(err)
	}
	if err := cfg.Validate(); err != nil {
		return usageError(err)
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cbzscan: %v\n", err)
		return exitFailure
	}
	defer log.Close()

	// Phase 2: Logger available.
	display.PrintBanner(os.Stdout, version)

	// Phase 3: Signal handling. Cancelling stops workers between entries;
	// an interrupted run writes no report.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Received interrupt, stopping workers…")
			cancel()
		case <-ctx.Done():
		}
	}()

	if cfg.CheckOnly {
		if !check.RunCheck(ctx, &cfg, log) {
			return exitFailure
		}
		return exitOK
	}

	// A missing root must not touch the report, so this comes before
	// CheckDeps probes the report directory.
	if err := cfg.ValidateRoot(); err != nil {
		if errors.Is(err, config.ErrPathNotFound) {
			log.Error("The path '%s' does not exist.", cfg.RootDir)
		} else {
			log.Error("%v", err)
		}
		return exitFailure
	}

	log.Debug(cfg.Verbose, "cbzscan v%s (%s)", version, commit)
	if cfg.ConfigFile != "" {
		log.Debug(cfg.Verbose, "Config file: %s", cfg.ConfigFile)
	}

	if err := check.CheckDeps(&cfg); err != nil {
		log.Error("%v", err)
		return exitFailure
	}

	// Phase 4: Scan, report, publish.
	_, err = pipeline.Run(ctx, &cfg, log, version)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, context.Canceled):
		log.Warn("Scan interrupted; no report written")
		return exitInterrupted
	case errors.Is(err, report.ErrWrite):
		log.Error("Cannot write report: %v", err)
		return exitFailure
	case errors.Is(err, publish.ErrPublish):
		log.Error("%v", err)
		log.Warn("Local report is complete: %s", cfg.ReportPath)
		return exitFailure
	default:
		log.Error("%v", err)
		return exitFailure
	}
}

// usageError prints err and, for a wrong argument count, the usage text.
func usageError(err error) int {
	fmt.Fprintf(os.Stderr, "cbzscan: %v\n", err)
	if errors.Is(err, config.ErrUsage) {
		fmt.Fprintln(os.Stderr)
		config.PrintUsage(os.Stderr, version)
	} else {
		fmt.Fprintln(os.Stderr, "Run 'cbzscan --help' for usage.")
	}
	return exitUsage
}
