package publish

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/backmassage/cbzscan/internal/config"
	"github.com/backmassage/cbzscan/internal/imagecheck"
	"github.com/backmassage/cbzscan/internal/report"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})    {}
func (nopLogger) Success(string, ...interface{}) {}
func (nopLogger) Error(string, ...interface{})   {}

type fakeSink struct {
	name   string
	err    error
	called int
}

func (f *fakeSink) Name() string { return f.name }
func (f *fakeSink) Publish(context.Context, *Run) error {
	f.called++
	return f.err
}
func (f *fakeSink) Close() error { return nil }

func testRun() *Run {
	return &Run{Doc: &report.Document{RunID: "run-1"}}
}

func TestAll(t *testing.T) {
	ok := &fakeSink{name: "ok"}
	bad := &fakeSink{name: "bad", err: errors.New("connection refused")}
	after := &fakeSink{name: "after"}

	err := All(context.Background(), []Sink{ok, bad, after}, testRun(), nopLogger{})
	if !errors.Is(err, ErrPublish) {
		t.Fatalf("All() = %v, want ErrPublish", err)
	}
	if !errors.Is(err, bad.err) {
		t.Errorf("All() = %v, should wrap the sink error", err)
	}
	if ok.called != 1 || bad.called != 1 || after.called != 1 {
		t.Errorf("calls = %d/%d/%d, every sink should be tried once", ok.called, bad.called, after.called)
	}
}

func TestAll_Success(t *testing.T) {
	if err := All(context.Background(), []Sink{&fakeSink{name: "a"}}, testRun(), nopLogger{}); err != nil {
		t.Errorf("All() = %v", err)
	}
	if err := All(context.Background(), nil, testRun(), nopLogger{}); err != nil {
		t.Errorf("All(no sinks) = %v", err)
	}
}

func TestOpen_NothingConfigured(t *testing.T) {
	cfg := config.DefaultConfig()
	sinks, err := Open(context.Background(), &cfg)
	if err != nil || len(sinks) != 0 {
		t.Errorf("Open() = %v, %v; want no sinks", sinks, err)
	}
}

func TestOpen_BadUploadURL(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.UploadURL = "s3://"
	cfg.S3Endpoint = "localhost:9000"
	if _, err := Open(context.Background(), &cfg); err == nil {
		t.Error("Open() with bucketless URL should fail")
	}
}

func TestParseS3URL(t *testing.T) {
	tests := []struct {
		raw     string
		want    S3Target
		wantErr bool
	}{
		{"s3://reports", S3Target{Bucket: "reports"}, false},
		{"s3://reports/", S3Target{Bucket: "reports"}, false},
		{"s3://reports/comics/nightly/", S3Target{Bucket: "reports", Prefix: "comics/nightly"}, false},
		{"https://reports/x", S3Target{}, true},
		{"s3:///x", S3Target{}, true},
		{"://bad", S3Target{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseS3URL(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseS3URL(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseS3URL(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestS3TargetKey(t *testing.T) {
	tests := []struct {
		target S3Target
		file   string
		want   string
	}{
		{S3Target{Bucket: "b", Prefix: "comics"}, "/tmp/out/corrupted_webp_files.txt", "comics/run-1/corrupted_webp_files.txt"},
		{S3Target{Bucket: "b"}, "report.json", "run-1/report.json"},
	}
	for _, tt := range tests {
		if got := tt.target.Key("run-1", tt.file); got != tt.want {
			t.Errorf("Key(%q) = %q, want %q", tt.file, got, tt.want)
		}
	}
	if got := (S3Target{Bucket: "b", Prefix: "p"}).String(); got != "s3://b/p" {
		t.Errorf("String() = %q", got)
	}
}

func TestContentType(t *testing.T) {
	if got := contentType("r.JSON"); got != "application/json" {
		t.Errorf("contentType(json) = %q", got)
	}
	if got := contentType("r.txt"); got != "text/plain; charset=utf-8" {
		t.Errorf("contentType(txt) = %q", got)
	}
}

func TestRetry(t *testing.T) {
	calls := 0
	err := retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Errorf("retry() = %v after %d calls, want success on 3rd", err, calls)
	}
}

func TestRetry_GivesUp(t *testing.T) {
	calls := 0
	want := errors.New("permanent")
	err := retry(context.Background(), 2, time.Millisecond, func() error {
		calls++
		return want
	})
	if !errors.Is(err, want) || calls != 2 {
		t.Errorf("retry() = %v after %d calls", err, calls)
	}
}

func TestRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := retry(ctx, 5, time.Hour, func() error {
		calls++
		cancel()
		return fmt.Errorf("attempt %d", calls)
	})
	if err == nil || calls != 1 {
		t.Errorf("retry() = %v after %d calls, want stop after first", err, calls)
	}
}

func TestDiagnosticRows(t *testing.T) {
	diags := []report.Diagnostic{
		report.NewArchiveError("/a.cbz", errors.New("zip: not a valid zip file")),
		report.NewEntryCorrupted("/b.cbz", "p1.webp", imagecheck.Result{
			Outcome: imagecheck.Corrupted, Reason: errors.New("unexpected EOF"), Class: imagecheck.ClassTruncated,
		}),
	}
	rows := diagnosticRows("run-1", diags)
	if len(rows) != 2 {
		t.Fatalf("got %d rows", len(rows))
	}
	for _, r := range rows {
		if len(r) != len(diagnosticColumns) {
			t.Fatalf("row has %d values, want %d", len(r), len(diagnosticColumns))
		}
	}
	if rows[0][1] != int32(0) || rows[0][2] != "archive-error" || rows[0][4] != "" {
		t.Errorf("row 0 = %v", rows[0])
	}
	if rows[1][1] != int32(1) || rows[1][6] != "truncated" {
		t.Errorf("row 1 = %v", rows[1])
	}
}

// Integration: set CBZSCAN_TEST_DATABASE_URL to a disposable database.
func TestPostgresRecorder_Integration(t *testing.T) {
	url := os.Getenv("CBZSCAN_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("CBZSCAN_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	r, err := NewPostgresRecorder(ctx, url)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	id := uuid.NewString()
	run := &Run{Doc: &report.Document{
		RunID:       id,
		ToolVersion: "test",
		Root:        "/lib",
		StartedAt:   time.Now().UTC(),
		FinishedAt:  time.Now().UTC(),
		Diagnostics: []report.Diagnostic{report.NewArchiveError("/lib/x.cbz", errors.New("bad"))},
	}}
	run.Doc.Summary.Count(run.Doc.Diagnostics)
	if err := r.Publish(ctx, run); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM scan_diagnostics WHERE run_id = $1`, id).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("stored %d diagnostics, want 1", n)
	}
	if _, err := r.pool.Exec(ctx, `DELETE FROM scan_runs WHERE id = $1`, id); err != nil {
		t.Errorf("cleanup: %v", err)
	}
}

// Integration: set CBZSCAN_TEST_S3_ENDPOINT, S3_ACCESS_KEY, S3_SECRET_KEY and
// CBZSCAN_TEST_S3_BUCKET to an existing bucket.
func TestS3Publisher_Integration(t *testing.T) {
	endpoint := os.Getenv("CBZSCAN_TEST_S3_ENDPOINT")
	bucket := os.Getenv("CBZSCAN_TEST_S3_BUCKET")
	if endpoint == "" || bucket == "" {
		t.Skip("CBZSCAN_TEST_S3_ENDPOINT / CBZSCAN_TEST_S3_BUCKET not set")
	}
	cfg := config.DefaultConfig()
	cfg.UploadURL = "s3://" + bucket + "/cbzscan-test"
	cfg.S3Endpoint = endpoint
	cfg.S3AccessKey = os.Getenv("S3_ACCESS_KEY")
	cfg.S3SecretKey = os.Getenv("S3_SECRET_KEY")
	cfg.S3UseSSL = os.Getenv("S3_USE_SSL") != "false"

	p, err := NewS3Publisher(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	ok, err := p.BucketExists(ctx)
	if err != nil || !ok {
		t.Fatalf("BucketExists() = %v, %v", ok, err)
	}

	file := filepath.Join(t.TempDir(), "corrupted_webp_files.txt")
	if err := os.WriteFile(file, []byte("No corrupted WebP files found.\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	run := &Run{Doc: &report.Document{RunID: uuid.NewString()}, Files: []string{file}}
	if err := p.Publish(ctx, run); err != nil {
		t.Fatalf("Publish: %v", err)
	}
}
