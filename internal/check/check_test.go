package check

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/backmassage/cbzscan/internal/config"
)

type recordLogger struct {
	lines []string
}

func (r *recordLogger) add(level, format string, args ...interface{}) {
	r.lines = append(r.lines, level+" "+fmt.Sprintf(format, args...))
}
func (r *recordLogger) Info(f string, a ...interface{})    { r.add("INFO", f, a...) }
func (r *recordLogger) Success(f string, a ...interface{}) { r.add("SUCCESS", f, a...) }
func (r *recordLogger) Warn(f string, a ...interface{})    { r.add("WARN", f, a...) }
func (r *recordLogger) Error(f string, a ...interface{})   { r.add("ERROR", f, a...) }
func (r *recordLogger) Debug(v bool, f string, a ...interface{}) {
	if v {
		r.add("DEBUG", f, a...)
	}
}

func (r *recordLogger) has(prefix string) bool {
	for _, l := range r.lines {
		if strings.HasPrefix(l, prefix) {
			return true
		}
	}
	return false
}

func TestCheckDeps(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ReportPath = filepath.Join(t.TempDir(), "report.txt")
	if err := CheckDeps(&cfg); err != nil {
		t.Fatalf("CheckDeps() = %v", err)
	}
	entries, _ := os.ReadDir(filepath.Dir(cfg.ReportPath))
	if len(entries) != 0 {
		t.Errorf("probe file left behind: %v", entries)
	}
}

func TestCheckDeps_ReportDirMissing(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ReportPath = filepath.Join(t.TempDir(), "report.txt")
	cfg.JSONReport = filepath.Join(t.TempDir(), "gone", "report.json")
	if err := CheckDeps(&cfg); !errors.Is(err, ErrReportNotWritable) {
		t.Errorf("CheckDeps() = %v, want ErrReportNotWritable", err)
	}
}

func TestRunCheck_LocalOnly(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ReportPath = filepath.Join(t.TempDir(), "report.txt")
	log := &recordLogger{}

	if !RunCheck(context.Background(), &cfg, log) {
		t.Fatalf("RunCheck() failed: %v", log.lines)
	}
	if !log.has("SUCCESS Decoders: webp") {
		t.Errorf("decoder line missing: %v", log.lines)
	}
	if !log.has("SUCCESS All checks passed") {
		t.Errorf("summary line missing: %v", log.lines)
	}
}

func TestRunCheck_ReportsFailures(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ReportPath = filepath.Join(t.TempDir(), "missing", "report.txt")
	cfg.UploadURL = "s3://"
	cfg.S3Endpoint = "localhost:9000"
	log := &recordLogger{}

	if RunCheck(context.Background(), &cfg, log) {
		t.Fatal("RunCheck() should fail")
	}
	if !log.has("ERROR Report") || !log.has("ERROR S3") {
		t.Errorf("expected report and S3 errors: %v", log.lines)
	}
	if !log.has("ERROR Some checks failed") {
		t.Errorf("summary line missing: %v", log.lines)
	}
}
