package config

// This file implements CLI flag parsing and help text.
// Flags are grouped into scan, output, publish, display, and utility.
// Parsing happens in two passes: the first only locates --config/--help/--version,
// the second applies flags on top of the config file and environment so that
// command-line values always win.

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
)

// ErrHelp is returned by ParseFlags after --help or --version was printed.
// Callers should exit successfully without scanning.
var ErrHelp = flag.ErrHelp

// ParseFlags parses args (usually os.Args[1:]) into cfg. The config file named
// by --config and the environment are applied before the flags themselves.
// On --help or --version it prints and returns [ErrHelp]. A wrong number of
// positional args yields [ErrUsage].
func ParseFlags(cfg *Config, version string, args []string) error {
	// Pass 1: discover --config, --help and --version without touching cfg.
	scratch := *cfg
	var pre utilityFlags
	fs := newFlagSet(&scratch, &pre, io.Discard)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if pre.showHelp {
		printUsage(os.Stderr, version)
		return ErrHelp
	}
	if pre.showVersion {
		fmt.Fprintln(os.Stdout, "cbzscan v"+version)
		return ErrHelp
	}

	if scratch.ConfigFile != "" {
		if err := LoadFile(cfg, scratch.ConfigFile); err != nil {
			return err
		}
		cfg.ConfigFile = scratch.ConfigFile
	}
	if err := ApplyEnv(cfg); err != nil {
		return err
	}

	// Pass 2: flags override file and environment.
	var util utilityFlags
	fs = newFlagSet(cfg, &util, os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	applyUtilityFlags(cfg, &util)

	return parsePositionalArgs(fs, cfg)
}

// utilityFlags holds boolean flags that are applied after Parse.
// These either override a default (forceColor, noColor) or trigger exit (showHelp, showVersion).
type utilityFlags struct {
	forceColor  bool
	noColor     bool
	showVersion bool
	showHelp    bool
}

func newFlagSet(cfg *Config, u *utilityFlags, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("cbzscan", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() {}

	defineScanFlags(fs, cfg)
	defineOutputFlags(fs, cfg)
	definePublishFlags(fs, cfg)
	defineDisplayFlags(fs, cfg, u)
	defineUtilityFlags(fs, cfg, u)
	return fs
}

// defineScanFlags registers -w/--workers and --max-entry-size.
func defineScanFlags(fs *flag.FlagSet, cfg *Config) {
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Parallel workers (0 = available CPUs)")
	fs.IntVar(&cfg.Workers, "w", cfg.Workers, "Same as --workers")
	fs.Var(&byteSizeValue{&cfg.MaxEntrySize}, "max-entry-size", "Largest decompressed entry to check (e.g. 512MiB)")
}

// defineOutputFlags registers -o/--output and --json.
func defineOutputFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.ReportPath, "output", cfg.ReportPath, "Text report path")
	fs.StringVar(&cfg.ReportPath, "o", cfg.ReportPath, "Same as --output")
	fs.StringVar(&cfg.JSONReport, "json", cfg.JSONReport, "Also write a JSON report to this path")
}

// definePublishFlags registers --upload and --database-url.
func definePublishFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.UploadURL, "upload", cfg.UploadURL, "Upload reports to s3://bucket/prefix")
	fs.StringVar(&cfg.DatabaseURL, "database-url", cfg.DatabaseURL, "Record the run in Postgres")
}

// defineDisplayFlags registers --color, --no-color, verbose, --check, --log.
func defineDisplayFlags(fs *flag.FlagSet, cfg *Config, u *utilityFlags) {
	fs.BoolVar(&u.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&u.noColor, "no-color", false, "Disable colored logs")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Verbose output")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Same as --verbose")
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Run system diagnostics and exit")
	fs.BoolVar(&cfg.CheckOnly, "c", false, "Same as --check")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "Append JSON logs to file")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "Same as --log")
}

// defineUtilityFlags registers --config, --version and --help.
func defineUtilityFlags(fs *flag.FlagSet, cfg *Config, u *utilityFlags) {
	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "YAML config file")
	fs.BoolVar(&u.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&u.showVersion, "V", false, "Same as --version")
	fs.BoolVar(&u.showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&u.showHelp, "h", false, "Same as --help")
}

func applyUtilityFlags(cfg *Config, u *utilityFlags) {
	if u.noColor {
		cfg.ColorMode = ColorNever
	} else if u.forceColor {
		cfg.ColorMode = ColorAlways
	}
}

// parsePositionalArgs sets RootDir from the single positional arg when not in CheckOnly mode.
func parsePositionalArgs(fs *flag.FlagSet, cfg *Config) error {
	args := fs.Args()
	if cfg.CheckOnly {
		return nil
	}
	if len(args) != 1 {
		return ErrUsage
	}
	cfg.RootDir = NormalizeDirArg(args[0])
	return nil
}

// PrintUsage writes the help text to w.
func PrintUsage(w io.Writer, version string) {
	printUsage(w, version)
}

// printUsage writes the help text. Column-aligned for readability.
func printUsage(w io.Writer, version string) {
	const col1 = 28 // width of "  -x, --long-name <arg>  "
	lines := []struct {
		flags string
		desc  string
	}{
		{"", "cbzscan v" + version + " - find corrupted WebP pages in CBZ archives"},
		{"", ""},
		{"  cbzscan [OPTIONS] <path>", ""},
		{"", ""},
		{"Scan", ""},
		{"  -w, --workers <n>", "Parallel workers (default: available CPUs)"},
		{"  --max-entry-size <size>", "Largest decompressed page to check (default: 512MiB)"},
		{"", ""},
		{"Output", ""},
		{"  -o, --output <path>", "Text report (default: " + DefaultReportName + ")"},
		{"  --json <path>", "Also write a JSON report"},
		{"", ""},
		{"Publish", ""},
		{"  --upload <s3://bucket/prefix>", "Upload reports (needs S3_ENDPOINT, S3_ACCESS_KEY, S3_SECRET_KEY)"},
		{"  --database-url <url>", "Record the run in Postgres (or DATABASE_URL)"},
		{"", ""},
		{"Display", ""},
		{"  --color", "Force colored logs"},
		{"  --no-color", "Disable colored logs"},
		{"  -v, --verbose", "Verbose output"},
		{"", ""},
		{"Utility", ""},
		{"  --config <path>", "YAML config file"},
		{"  -l, --log <path>", "Append JSON logs to file"},
		{"  -c, --check", "System diagnostics (decoders, report path, S3, Postgres)"},
		{"  -V, --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
	}

	for _, l := range lines {
		if l.flags == "" && l.desc == "" {
			fmt.Fprintln(w)
			continue
		}
		if l.desc == "" {
			fmt.Fprintln(w, l.flags)
			continue
		}
		if l.flags == "" {
			fmt.Fprintln(w, l.desc)
			continue
		}
		padding := col1 - len(l.flags)
		if padding < 1 {
			padding = 1
		}
		fmt.Fprintf(w, "%s%*s%s\n", l.flags, padding, "", l.desc)
	}
}

// flag.Value adapters so we can use typed fields with flag.Var.

type byteSizeValue struct{ p *uint64 }

func (b *byteSizeValue) String() string {
	if b.p == nil {
		return ""
	}
	return humanize.IBytes(*b.p)
}

func (b *byteSizeValue) Set(s string) error {
	n, err := parseByteSize(s)
	if err != nil {
		return err
	}
	*b.p = n
	return nil
}

type colorModeValue struct{ p *ColorMode }

func (c *colorModeValue) String() string {
	if c.p == nil {
		return ""
	}
	return string(*c.p)
}

func (c *colorModeValue) Set(s string) error {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "auto":
		*c.p = ColorAuto
	case "always":
		*c.p = ColorAlways
	case "never":
		*c.p = ColorNever
	default:
		return fmt.Errorf("invalid color mode %q (use 'auto', 'always' or 'never')", s)
	}
	return nil
}

// parseByteSize accepts humanized sizes ("512MiB", "64 MB", "1048576").
func parseByteSize(s string) (uint64, error) {
	n, err := humanize.ParseBytes(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid size %q (e.g. 512MiB): %w", s, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("size must be positive (got %q)", s)
	}
	return n, nil
}
