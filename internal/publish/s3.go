package publish

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/backmassage/cbzscan/internal/config"
)

const (
	uploadAttempts  = 4
	uploadBaseDelay = 250 * time.Millisecond
)

// S3Target is a parsed s3://bucket/prefix destination.
type S3Target struct {
	Bucket string
	Prefix string // no leading or trailing slash; may be empty
}

// ParseS3URL parses "s3://bucket[/prefix]".
func ParseS3URL(raw string) (S3Target, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return S3Target{}, fmt.Errorf("invalid upload URL %q: %w", raw, err)
	}
	if u.Scheme != "s3" {
		return S3Target{}, fmt.Errorf("invalid upload URL %q: scheme must be s3", raw)
	}
	if u.Host == "" {
		return S3Target{}, fmt.Errorf("invalid upload URL %q: missing bucket", raw)
	}
	return S3Target{Bucket: u.Host, Prefix: strings.Trim(u.Path, "/")}, nil
}

// Key returns the object key for a report file of the given run:
// <prefix>/<run-id>/<basename>.
func (t S3Target) Key(runID, file string) string {
	return path.Join(t.Prefix, runID, filepath.Base(file))
}

func (t S3Target) String() string {
	if t.Prefix == "" {
		return "s3://" + t.Bucket
	}
	return "s3://" + t.Bucket + "/" + t.Prefix
}

// S3Publisher uploads report files to an S3-compatible store.
type S3Publisher struct {
	mc        *minio.Client
	target    S3Target
	attempts  int
	baseDelay time.Duration
}

// NewS3Publisher builds a client for cfg.S3Endpoint targeting cfg.UploadURL.
// No request is made until Publish or BucketExists.
func NewS3Publisher(cfg *config.Config) (*S3Publisher, error) {
	target, err := ParseS3URL(cfg.UploadURL)
	if err != nil {
		return nil, err
	}
	if cfg.S3Endpoint == "" {
		return nil, errors.New("no S3 endpoint configured")
	}
	mc, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, err
	}
	return &S3Publisher{mc: mc, target: target, attempts: uploadAttempts, baseDelay: uploadBaseDelay}, nil
}

func (p *S3Publisher) Name() string { return p.target.String() }

// Publish uploads every report file under the run's key prefix.
func (p *S3Publisher) Publish(ctx context.Context, run *Run) error {
	for _, f := range run.Files {
		key := p.target.Key(run.Doc.RunID, f)
		err := retry(ctx, p.attempts, p.baseDelay, func() error {
			_, err := p.mc.FPutObject(ctx, p.target.Bucket, key, f, minio.PutObjectOptions{
				ContentType:  contentType(f),
				UserMetadata: map[string]string{"run-id": run.Doc.RunID},
			})
			return err
		})
		if err != nil {
			return fmt.Errorf("upload %s to %s: %w", filepath.Base(f), key, err)
		}
	}
	return nil
}

// BucketExists reports whether the target bucket is reachable and exists.
func (p *S3Publisher) BucketExists(ctx context.Context) (bool, error) {
	return p.mc.BucketExists(ctx, p.target.Bucket)
}

func (p *S3Publisher) Close() error { return nil }

func contentType(file string) string {
	if strings.EqualFold(filepath.Ext(file), ".json") {
		return "application/json"
	}
	return "text/plain; charset=utf-8"
}
