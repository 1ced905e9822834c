package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dustin/go-humanize"
)

func TestParseFlags_Positional(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantRoot string
		wantErr  error
	}{
		{"single path", []string{"/comics"}, "/comics", nil},
		{"trailing slash stripped", []string{"/comics/"}, "/comics", nil},
		{"flags before path", []string{"-w", "2", "/comics"}, "/comics", nil},
		{"no path", nil, "", ErrUsage},
		{"two paths", []string{"/a", "/b"}, "", ErrUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			cfg := DefaultConfig()
			err := ParseFlags(&cfg, "test", tt.args)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseFlags(%v) error = %v, want %v", tt.args, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFlags(%v) unexpected error: %v", tt.args, err)
			}
			if cfg.RootDir != tt.wantRoot {
				t.Errorf("RootDir = %q, want %q", cfg.RootDir, tt.wantRoot)
			}
		})
	}
}

func TestParseFlags_CheckOnlyNeedsNoPath(t *testing.T) {
	clearEnv(t)
	cfg := DefaultConfig()
	if err := ParseFlags(&cfg, "test", []string{"--check"}); err != nil {
		t.Fatalf("ParseFlags(--check) error = %v", err)
	}
	if !cfg.CheckOnly {
		t.Error("CheckOnly should be set")
	}
}

func TestParseFlags_Values(t *testing.T) {
	clearEnv(t)
	cfg := DefaultConfig()
	args := []string{
		"--workers", "7",
		"--max-entry-size", "32MiB",
		"-o", "out.txt",
		"--json", "out.json",
		"--no-color",
		"-v",
		"-l", "scan.log",
		"/comics",
	}
	if err := ParseFlags(&cfg, "test", args); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if cfg.Workers != 7 {
		t.Errorf("Workers = %d, want 7", cfg.Workers)
	}
	if cfg.MaxEntrySize != 32*humanize.MiByte {
		t.Errorf("MaxEntrySize = %d, want 32 MiB", cfg.MaxEntrySize)
	}
	if cfg.ReportPath != "out.txt" || cfg.JSONReport != "out.json" {
		t.Errorf("reports = %q, %q", cfg.ReportPath, cfg.JSONReport)
	}
	if cfg.ColorMode != ColorNever {
		t.Errorf("ColorMode = %q, want never", cfg.ColorMode)
	}
	if !cfg.Verbose {
		t.Error("Verbose should be set")
	}
	if cfg.LogFile != "scan.log" {
		t.Errorf("LogFile = %q", cfg.LogFile)
	}
}

func TestParseFlags_ForceColor(t *testing.T) {
	clearEnv(t)
	cfg := DefaultConfig()
	if err := ParseFlags(&cfg, "test", []string{"--color", "/comics"}); err != nil {
		t.Fatal(err)
	}
	if cfg.ColorMode != ColorAlways {
		t.Errorf("ColorMode = %q, want always", cfg.ColorMode)
	}
}

func TestParseFlags_BadValues(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"zero entry size", []string{"--max-entry-size", "0", "/comics"}},
		{"garbage entry size", []string{"--max-entry-size", "lots", "/comics"}},
		{"non-numeric workers", []string{"-w", "many", "/comics"}},
		{"unknown flag", []string{"--frobnicate", "/comics"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			cfg := DefaultConfig()
			if err := ParseFlags(&cfg, "test", tt.args); err == nil {
				t.Errorf("ParseFlags(%v) should fail", tt.args)
			}
		})
	}
}

func TestParseFlags_Help(t *testing.T) {
	clearEnv(t)
	for _, arg := range []string{"-h", "--help", "-V", "--version"} {
		t.Run(arg, func(t *testing.T) {
			cfg := DefaultConfig()
			if err := ParseFlags(&cfg, "test", []string{arg}); !errors.Is(err, ErrHelp) {
				t.Errorf("ParseFlags(%s) = %v, want ErrHelp", arg, err)
			}
		})
	}
}

// Flags beat the environment, which beats the config file, which beats defaults.
func TestParseFlags_Precedence(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "cbzscan.yaml")
	yml := "workers: 2\noutput: from-file.txt\njson: from-file.json\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvWorkers, "4")
	t.Setenv(EnvReport, "from-env.txt")

	cfg := DefaultConfig()
	args := []string{"--config", path, "-o", "from-flag.txt", "/comics"}
	if err := ParseFlags(&cfg, "test", args); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}

	if cfg.ReportPath != "from-flag.txt" {
		t.Errorf("ReportPath = %q, want flag value", cfg.ReportPath)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want env value 4", cfg.Workers)
	}
	if cfg.JSONReport != "from-file.json" {
		t.Errorf("JSONReport = %q, want file value", cfg.JSONReport)
	}
	if cfg.EntryExt != ".webp" {
		t.Errorf("EntryExt = %q, want default", cfg.EntryExt)
	}
	if cfg.ConfigFile != path {
		t.Errorf("ConfigFile = %q, want %q", cfg.ConfigFile, path)
	}
}

func TestParseFlags_MissingConfigFile(t *testing.T) {
	clearEnv(t)
	cfg := DefaultConfig()
	args := []string{"--config", filepath.Join(t.TempDir(), "nope.yaml"), "/comics"}
	if err := ParseFlags(&cfg, "test", args); err == nil {
		t.Error("ParseFlags with missing config file should fail")
	}
}

func TestPrintUsage(t *testing.T) {
	var buf bytes.Buffer
	PrintUsage(&buf, "1.2.3")
	out := buf.String()

	for _, want := range []string{"cbzscan v1.2.3", "--workers", "--max-entry-size", "--upload", DefaultReportName} {
		if !strings.Contains(out, want) {
			t.Errorf("usage text missing %q", want)
		}
	}
}

func TestByteSizeValue(t *testing.T) {
	var n uint64
	v := &byteSizeValue{&n}

	if err := v.Set("1 KiB"); err != nil {
		t.Fatal(err)
	}
	if n != 1024 {
		t.Errorf("Set(1 KiB) = %d, want 1024", n)
	}
	if got := v.String(); got != "1.0 KiB" {
		t.Errorf("String() = %q, want %q", got, "1.0 KiB")
	}
}
