// Package publish exports a finished run to external sinks: report files to
// S3-compatible object storage and run history to Postgres. Sinks are
// write-only; nothing here is read back by later scans.
package publish

import (
	"context"
	"errors"
	"fmt"

	"github.com/backmassage/cbzscan/internal/config"
	"github.com/backmassage/cbzscan/internal/report"
)

// ErrPublish wraps every sink failure returned by [All] and [Open].
var ErrPublish = errors.New("publish failed")

// Logger is the subset of logging.Logger used here.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Error(string, ...interface{})
}

// Run is what gets published: the JSON document (always built, even when
// no JSON report file was requested) and the report files written locally.
type Run struct {
	Doc   *report.Document
	Files []string
}

// Sink receives finished runs.
type Sink interface {
	Name() string
	Publish(ctx context.Context, run *Run) error
	Close() error
}

// Open connects every sink configured in cfg. It returns no sinks and no
// error when nothing is configured.
func Open(ctx context.Context, cfg *config.Config) ([]Sink, error) {
	var sinks []Sink
	fail := func(err error) ([]Sink, error) {
		for _, s := range sinks {
			_ = s.Close()
		}
		return nil, err
	}

	if cfg.UploadURL != "" {
		p, err := NewS3Publisher(cfg)
		if err != nil {
			return fail(fmt.Errorf("s3: %w", err))
		}
		sinks = append(sinks, p)
	}
	if cfg.DatabaseURL != "" {
		r, err := NewPostgresRecorder(ctx, cfg.DatabaseURL)
		if err != nil {
			return fail(fmt.Errorf("postgres: %w", err))
		}
		sinks = append(sinks, r)
	}
	return sinks, nil
}

// All publishes run to every sink, continuing past failures. The returned
// error wraps [ErrPublish] and joins each sink's error.
func All(ctx context.Context, sinks []Sink, run *Run, log Logger) error {
	var errs []error
	for _, s := range sinks {
		log.Info("Publishing run %s to %s", run.Doc.RunID, s.Name())
		if err := s.Publish(ctx, run); err != nil {
			log.Error("Publishing to %s failed: %v", s.Name(), err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		log.Success("Published to %s", s.Name())
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPublish, errors.Join(errs...))
}
