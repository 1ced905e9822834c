// Package check provides system diagnostics (--check mode) and the
// pre-scan validation (CheckDeps): decoder self-test, report destination,
// and reachability of the optional S3 and Postgres sinks.
package check

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/backmassage/cbzscan/internal/config"
	"github.com/backmassage/cbzscan/internal/display"
	"github.com/backmassage/cbzscan/internal/imagecheck"
	"github.com/backmassage/cbzscan/internal/publish"
)

// Sentinel errors returned by CheckDeps.
var (
	ErrDecoderSelfTest   = errors.New("image decoder self-test failed")
	ErrReportNotWritable = errors.New("report destination is not writable")
)

// sinkTimeout bounds each network probe in RunCheck.
const sinkTimeout = 10 * time.Second

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// stays testable with a recording logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(bool, string, ...interface{})
}

// RunCheck runs the --check flow and reports whether every check passed.
// It does not stop at the first failure.
func RunCheck(ctx context.Context, cfg *config.Config, log Logger) bool {
	log.Info("=== System Check ===")

	ok := checkDecoders(log)
	checkParallelism(cfg, log)
	ok = checkReportDirs(cfg, log) && ok
	ok = checkS3(ctx, cfg, log) && ok
	ok = checkPostgres(ctx, cfg, log) && ok

	if ok {
		log.Success("All checks passed")
	} else {
		log.Error("Some checks failed")
	}
	return ok
}

// checkDecoders runs the decoder self-test and lists registered formats.
func checkDecoders(log Logger) bool {
	if err := imagecheck.SelfTest(); err != nil {
		log.Error("Decoder self-test: %v", err)
		return false
	}
	log.Success("Decoders: %s (self-test passed)", strings.Join(imagecheck.Formats, ", "))
	return true
}

// checkParallelism logs the CPU budget and the worker count a scan would use.
func checkParallelism(cfg *config.Config, log Logger) {
	workers := "auto"
	if cfg.Workers > 0 {
		workers = fmt.Sprint(cfg.Workers)
	}
	log.Info("CPUs: %d, GOMAXPROCS: %d, workers: %s", runtime.NumCPU(), runtime.GOMAXPROCS(0), workers)
	log.Info("Max entry size: %s", display.FormatBytes(cfg.MaxEntrySize))
}

func checkReportDirs(cfg *config.Config, log Logger) bool {
	ok := true
	for _, p := range reportPaths(cfg) {
		if err := dirWritable(filepath.Dir(p)); err != nil {
			log.Error("Report %s: %v", p, err)
			ok = false
			continue
		}
		log.Success("Report %s: writable", p)
	}
	return ok
}

func checkS3(ctx context.Context, cfg *config.Config, log Logger) bool {
	if cfg.UploadURL == "" {
		log.Debug(cfg.Verbose, "S3 upload not configured")
		return true
	}
	p, err := publish.NewS3Publisher(cfg)
	if err != nil {
		log.Error("S3: %v", err)
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, sinkTimeout)
	defer cancel()
	exists, err := p.BucketExists(ctx)
	switch {
	case err != nil:
		log.Error("S3 %s: %v", p.Name(), err)
		return false
	case !exists:
		log.Error("S3 %s: bucket does not exist", p.Name())
		return false
	}
	log.Success("S3 %s: reachable", p.Name())
	return true
}

func checkPostgres(ctx context.Context, cfg *config.Config, log Logger) bool {
	if cfg.DatabaseURL == "" {
		log.Debug(cfg.Verbose, "Postgres history not configured")
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, sinkTimeout)
	defer cancel()
	r, err := publish.NewPostgresRecorder(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("Postgres: %v", err)
		return false
	}
	defer r.Close()
	log.Success("Postgres: connected, schema ready")
	return true
}

// CheckDeps is the pre-scan validation: the decoders must pass their
// self-test and every report destination directory must accept new files.
// Returns a sentinel-wrapped error on failure.
func CheckDeps(cfg *config.Config) error {
	if err := imagecheck.SelfTest(); err != nil {
		return fmt.Errorf("%w: %w", ErrDecoderSelfTest, err)
	}
	for _, p := range reportPaths(cfg) {
		if err := dirWritable(filepath.Dir(p)); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrReportNotWritable, p, err)
		}
	}
	return nil
}

// --- internal helpers ---

func reportPaths(cfg *config.Config) []string {
	paths := []string{cfg.ReportPath}
	if cfg.JSONReport != "" {
		paths = append(paths, cfg.JSONReport)
	}
	return paths
}

// dirWritable creates and removes a temp file in dir.
func dirWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".cbzscan-check-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
