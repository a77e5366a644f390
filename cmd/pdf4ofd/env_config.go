package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ranvane/pdf4ofd/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string        // PDF4OFD_CONFIG: config file name or path
	OutputDir  string        // PDF4OFD_OUTPUT_DIR: default output directory
	Timeout    time.Duration // PDF4OFD_TIMEOUT: per-file timeout
	Workers    int           // PDF4OFD_WORKERS: parallel workers
	Mode       string        // PDF4OFD_MODE: text or image
	FontDirs   []string      // PDF4OFD_FONT_DIRS: path-list of font directories
	JBIG2Dec   string        // PDF4OFD_JBIG2DEC: decoder binary
	LogLevel   string        // PDF4OFD_LOG_LEVEL: debug, info, warn, error
	LogFormat  string        // PDF4OFD_LOG_FORMAT: text or json
}

// knownEnvVars lists valid PDF4OFD_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"PDF4OFD_CONFIG":     true,
	"PDF4OFD_OUTPUT_DIR": true,
	"PDF4OFD_TIMEOUT":    true,
	"PDF4OFD_WORKERS":    true,
	"PDF4OFD_MODE":       true,
	"PDF4OFD_FONT_DIRS":  true,
	"PDF4OFD_JBIG2DEC":   true,
	"PDF4OFD_LOG_LEVEL":  true,
	"PDF4OFD_LOG_FORMAT": true,
	// Read by the doctor command only.
	"PDF4OFD_CONTAINER": true,
}

// loadEnvConfig reads configuration from environment variables.
// Malformed numbers and durations are ignored.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath: os.Getenv("PDF4OFD_CONFIG"),
		OutputDir:  os.Getenv("PDF4OFD_OUTPUT_DIR"),
		Mode:       os.Getenv("PDF4OFD_MODE"),
		JBIG2Dec:   os.Getenv("PDF4OFD_JBIG2DEC"),
		LogLevel:   os.Getenv("PDF4OFD_LOG_LEVEL"),
		LogFormat:  os.Getenv("PDF4OFD_LOG_FORMAT"),
	}

	if timeout := os.Getenv("PDF4OFD_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	if workers := os.Getenv("PDF4OFD_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	for _, dir := range filepath.SplitList(os.Getenv("PDF4OFD_FONT_DIRS")) {
		if dir = strings.TrimSpace(dir); dir != "" {
			cfg.FontDirs = append(cfg.FontDirs, dir)
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized PDF4OFD_* variables.
// Helps catch typos like PDF4OFD_WORKER instead of PDF4OFD_WORKERS.
func warnUnknownEnvVars(w io.Writer) {
	var unknown []string
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "PDF4OFD_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				unknown = append(unknown, name)
			}
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
	}
}

// applyEnvConfig applies environment variable values to config.
// Only sets values if the env var is set AND the config value is empty/zero.
// This ensures: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergeFlags)
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.OutputDir != "" && cfg.Output.Directory == "" {
		cfg.Output.Directory = env.OutputDir
	}
	if env.Timeout > 0 && cfg.Convert.Timeout == "" {
		cfg.Convert.Timeout = env.Timeout.String()
	}
	if env.Workers > 0 && cfg.Convert.Workers == 0 {
		cfg.Convert.Workers = env.Workers
	}
	if env.Mode != "" && cfg.Convert.Mode == "" {
		cfg.Convert.Mode = env.Mode
	}
	if len(env.FontDirs) > 0 && len(cfg.Fonts.Dirs) == 0 {
		cfg.Fonts.Dirs = env.FontDirs
	}
	if env.JBIG2Dec != "" && cfg.Images.JBIG2Dec == "" {
		cfg.Images.JBIG2Dec = env.JBIG2Dec
	}
}
