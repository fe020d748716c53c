package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v3"

	"example.com/mwfgate/internal/common"
)

type logConfig struct {
	Directory  string `yaml:"directory"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	MaxBackups int    `yaml:"maxBackups"`
	Compress   bool   `yaml:"compress"`
}

type manifestSigningConfig struct {
	PrivateKey  string `yaml:"privateKey"`
	Certificate string `yaml:"certificate"`
}

type config struct {
	Strict           bool                  `yaml:"strict"`
	AuditLog         string                `yaml:"auditLog"`
	ProgressInterval time.Duration         `yaml:"progressInterval"`
	Concurrency      int                   `yaml:"concurrency"`
	Lang             string                `yaml:"lang"`
	ManifestSigning  manifestSigningConfig `yaml:"manifestSigning"`
	Logs             logConfig             `yaml:"logs"`
}

// loadConfig reads path and applies defaults. An empty path yields the
// defaults alone. Relative paths inside the file are resolved against
// its directory.
func loadConfig(path string) (config, error) {
	var cfg config
	baseDir := "."
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cfg, err
		}
		defer f.Close()
		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
		baseDir = filepath.Dir(path)
	}
	resolvePath := func(p string) string {
		p = strings.TrimSpace(p)
		if p == "" {
			return ""
		}
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Clean(filepath.Join(baseDir, p))
	}
	cfg.AuditLog = resolvePath(cfg.AuditLog)
	cfg.ManifestSigning.PrivateKey = resolvePath(cfg.ManifestSigning.PrivateKey)
	cfg.ManifestSigning.Certificate = resolvePath(cfg.ManifestSigning.Certificate)
	cfg.Logs.Directory = resolvePath(cfg.Logs.Directory)
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = 500 * time.Millisecond
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = runtime.NumCPU()
	}
	if cfg.Lang == "" {
		cfg.Lang = "en"
	}
	if cfg.Logs.MaxSizeMB <= 0 {
		cfg.Logs.MaxSizeMB = 25
	}
	if cfg.Logs.MaxAgeDays <= 0 {
		cfg.Logs.MaxAgeDays = 7
	}
	if cfg.Logs.MaxBackups <= 0 {
		cfg.Logs.MaxBackups = 5
	}
	return cfg, nil
}

// setupLogging mirrors the shared logger into a rotating file when a log
// directory is configured. The returned closer is nil when logging stays
// on stderr.
func setupLogging(cfg config, stderr io.Writer) (io.Closer, error) {
	if cfg.Logs.Directory == "" {
		common.SetLogOutput(stderr)
		return nil, nil
	}
	if err := os.MkdirAll(cfg.Logs.Directory, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Logs.Directory, "mwfctl.log"),
		MaxSize:    cfg.Logs.MaxSizeMB,
		MaxAge:     cfg.Logs.MaxAgeDays,
		MaxBackups: cfg.Logs.MaxBackups,
		Compress:   cfg.Logs.Compress,
	}
	common.SetLogOutput(io.MultiWriter(stderr, rotator))
	return rotator, nil
}
