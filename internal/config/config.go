// Package config holds runtime configuration: defaults, a YAML config file,
// environment overrides, CLI flag parsing, and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// Sentinel errors for the fatal, pre-scan failure modes.
var (
	ErrUsage        = errors.New("need exactly one path to scan")
	ErrPathNotFound = errors.New("path does not exist")
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// DefaultReportName is the report file written to the working directory.
const DefaultReportName = "corrupted_webp_files.txt"

// Config holds all runtime settings. It is populated by [DefaultConfig],
// layered with [LoadFile] and [ApplyEnv], and finally mutated by
// [ParseFlags] before being passed (by pointer) to packages that need it.
type Config struct {
	// Root directory to scan (set from the positional arg).
	RootDir string

	// Matching rules (fixed).
	ArchiveExt string // Fixed: ".cbz".
	EntryExt   string // Fixed: ".webp".

	// Scan behavior.
	Workers      int    // Default: 0 (use available parallelism).
	MaxEntrySize uint64 // Default: 512 MiB decompressed per entry.

	// Outputs.
	ReportPath string // Default: "corrupted_webp_files.txt" in the working directory.
	JSONReport string // Optional JSON report path.

	// Publishing (all optional).
	UploadURL   string // s3://bucket/prefix
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3UseSSL    bool // Default: true.
	S3Region    string
	DatabaseURL string

	// Display and logging.
	Verbose    bool
	ColorMode  ColorMode // Default: "auto".
	LogFile    string    // Optional JSON-lines log file.
	CheckOnly  bool      // Run --check diagnostics and exit.
	ConfigFile string    // Optional YAML config file.
}

// DefaultConfig returns a Config with all defaults applied. Used as the base
// before the config file, environment and CLI flags are layered on top.
func DefaultConfig() Config {
	return Config{
		ArchiveExt:   ".cbz",
		EntryExt:     ".webp",
		Workers:      0,
		MaxEntrySize: 512 * humanize.MiByte,
		ReportPath:   DefaultReportName,
		S3UseSSL:     true,
		ColorMode:    ColorAuto,
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks enum and numeric fields. When not in CheckOnly mode, it
// also requires a root path.
func (c *Config) Validate() error {
	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}
	if c.Workers < 0 {
		return fmt.Errorf("invalid worker count %d (use 0 for auto or a positive number)", c.Workers)
	}
	if c.MaxEntrySize == 0 {
		return errors.New("max entry size must be positive")
	}
	if strings.TrimSpace(c.ReportPath) == "" {
		return errors.New("report path must not be empty")
	}
	if c.UploadURL != "" {
		if !strings.HasPrefix(c.UploadURL, "s3://") {
			return fmt.Errorf("invalid upload target %q (use s3://bucket/prefix)", c.UploadURL)
		}
		if c.S3Endpoint == "" {
			return errors.New("--upload needs S3_ENDPOINT (or s3.endpoint in the config file)")
		}
	}

	if c.CheckOnly {
		return nil
	}
	if c.RootDir == "" {
		return ErrUsage
	}
	return nil
}

// ValidateRoot reports whether RootDir exists. A missing root is wrapped in
// [ErrPathNotFound]; other stat failures are returned as-is.
func (c *Config) ValidateRoot() error {
	if _, err := os.Stat(c.RootDir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrPathNotFound, c.RootDir)
		}
		return fmt.Errorf("cannot access %s: %w", c.RootDir, err)
	}
	return nil
}

// ReportDir returns the directory the text report will be written into.
func (c *Config) ReportDir() string {
	return filepath.Dir(c.ReportPath)
}
