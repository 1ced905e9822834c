package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk YAML layout. Pointer fields distinguish "unset"
// from zero values so only keys present in the file override cfg.
//
//	workers: 8
//	max_entry_size: 256MiB
//	output: /var/log/cbzscan/report.txt
//	json: /var/log/cbzscan/report.json
//	color: never
//	log: /var/log/cbzscan/cbzscan.log
//	s3:
//	  endpoint: minio.local:9000
//	  use_ssl: false
//	  upload: s3://reports/comics
//	database_url: postgres://scan@db/scans
type fileConfig struct {
	Workers      *int    `yaml:"workers"`
	MaxEntrySize *string `yaml:"max_entry_size"`
	Output       *string `yaml:"output"`
	JSON         *string `yaml:"json"`
	Color        *string `yaml:"color"`
	Verbose      *bool   `yaml:"verbose"`
	Log          *string `yaml:"log"`
	DatabaseURL  *string `yaml:"database_url"`
	S3           *struct {
		Endpoint  *string `yaml:"endpoint"`
		AccessKey *string `yaml:"access_key"`
		SecretKey *string `yaml:"secret_key"`
		UseSSL    *bool   `yaml:"use_ssl"`
		Region    *string `yaml:"region"`
		Upload    *string `yaml:"upload"`
	} `yaml:"s3"`
}

// LoadFile reads a YAML config file and applies every key it sets to cfg.
// Unknown keys are rejected so typos surface instead of being ignored.
func LoadFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	var fc fileConfig
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return fc.apply(cfg)
}

func (fc *fileConfig) apply(cfg *Config) error {
	if fc.Workers != nil {
		cfg.Workers = *fc.Workers
	}
	if fc.MaxEntrySize != nil {
		n, err := parseByteSize(*fc.MaxEntrySize)
		if err != nil {
			return fmt.Errorf("max_entry_size: %w", err)
		}
		cfg.MaxEntrySize = n
	}
	if fc.Output != nil {
		cfg.ReportPath = *fc.Output
	}
	if fc.JSON != nil {
		cfg.JSONReport = *fc.JSON
	}
	if fc.Color != nil {
		if err := (&colorModeValue{&cfg.ColorMode}).Set(*fc.Color); err != nil {
			return err
		}
	}
	if fc.Verbose != nil {
		cfg.Verbose = *fc.Verbose
	}
	if fc.Log != nil {
		cfg.LogFile = *fc.Log
	}
	if fc.DatabaseURL != nil {
		cfg.DatabaseURL = *fc.DatabaseURL
	}
	if s := fc.S3; s != nil {
		if s.Endpoint != nil {
			cfg.S3Endpoint = *s.Endpoint
		}
		if s.AccessKey != nil {
			cfg.S3AccessKey = *s.AccessKey
		}
		if s.SecretKey != nil {
			cfg.S3SecretKey = *s.SecretKey
		}
		if s.UseSSL != nil {
			cfg.S3UseSSL = *s.UseSSL
		}
		if s.Region != nil {
			cfg.S3Region = *s.Region
		}
		if s.Upload != nil {
			cfg.UploadURL = *s.Upload
		}
	}
	return nil
}
