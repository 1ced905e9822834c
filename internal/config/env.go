package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables read by ApplyEnv. The S3 and database names match
// what other tools in a typical deployment already export.
const (
	EnvWorkers      = "CBZSCAN_WORKERS"
	EnvMaxEntrySize = "CBZSCAN_MAX_ENTRY_SIZE"
	EnvReport       = "CBZSCAN_REPORT"
	EnvJSONReport   = "CBZSCAN_JSON_REPORT"
	EnvLogFile      = "CBZSCAN_LOG_FILE"
	EnvUpload       = "CBZSCAN_UPLOAD"
	EnvS3Endpoint   = "S3_ENDPOINT"
	EnvS3AccessKey  = "S3_ACCESS_KEY"
	EnvS3SecretKey  = "S3_SECRET_KEY"
	EnvS3UseSSL     = "S3_USE_SSL"
	EnvS3Region     = "S3_REGION"
	EnvDatabaseURL  = "DATABASE_URL"
)

// LoadDotEnv loads KEY=VALUE pairs from the given files (default ".env")
// into the process environment. Missing files are ignored and variables that
// are already set are never overwritten.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// ApplyEnv overrides cfg with any of the supported environment variables
// that are set and non-empty.
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s must be a whole number (got %q)", EnvWorkers, v)
		}
		cfg.Workers = n
	}
	if v := os.Getenv(EnvMaxEntrySize); v != "" {
		n, err := parseByteSize(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxEntrySize, err)
		}
		cfg.MaxEntrySize = n
	}
	setString(&cfg.ReportPath, EnvReport)
	setString(&cfg.JSONReport, EnvJSONReport)
	setString(&cfg.LogFile, EnvLogFile)
	setString(&cfg.UploadURL, EnvUpload)
	setString(&cfg.S3Endpoint, EnvS3Endpoint)
	setString(&cfg.S3AccessKey, EnvS3AccessKey)
	setString(&cfg.S3SecretKey, EnvS3SecretKey)
	setString(&cfg.S3Region, EnvS3Region)
	setString(&cfg.DatabaseURL, EnvDatabaseURL)
	if v := os.Getenv(EnvS3UseSSL); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s must be true or false (got %q)", EnvS3UseSSL, v)
		}
		cfg.S3UseSSL = b
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
