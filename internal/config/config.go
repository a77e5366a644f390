package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ranvane/pdf4ofd/internal/dateutil"
	"github.com/ranvane/pdf4ofd/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPathLength     = 4096 // PATH_MAX on Linux
	MaxTitleLength    = 200
	MaxAuthorLength   = 100
	MaxSubjectLength  = 500
	MaxKeywordLength  = 50
	MaxKeywords       = 20
	MaxDateLength     = 30 // "2025-12-31" or "auto:YYYY[年]M[月]D[日]"
	MaxFontNameLength = 100
)

// Numeric bounds.
const (
	MaxWorkers = 8
	MaxDPI     = 2400.0
	MaxScale   = 8.0
)

// Config holds the settings a config file may provide. Zero values mean
// "use the default".
type Config struct {
	Output   OutputConfig   `yaml:"output"`
	Convert  ConvertConfig  `yaml:"convert"`
	Fonts    FontsConfig    `yaml:"fonts"`
	Images   ImagesConfig   `yaml:"images"`
	Raster   RasterConfig   `yaml:"raster"`
	Document DocumentConfig `yaml:"document"`
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	Directory string `yaml:"directory"` // Empty = next to the source
	Force     bool   `yaml:"force"`     // Overwrite existing outputs
}

// ConvertConfig defines conversion options.
type ConvertConfig struct {
	Mode     string `yaml:"mode"`     // "text" or "image" (default: "text")
	Fallback bool   `yaml:"fallback"` // Placeholder PDF for unreadable OFD
	Timeout  string `yaml:"timeout"`  // Go duration, e.g. "45s"
	Workers  int    `yaml:"workers"`  // 0 = auto
}

// FontsConfig defines font lookup options.
type FontsConfig struct {
	Dirs    []string `yaml:"dirs"`    // Searched before the system directories
	Default string   `yaml:"default"` // Family name or file path
}

// ImagesConfig defines image handling options.
type ImagesConfig struct {
	DPI      float64 `yaml:"dpi"`      // Page size for image inputs (default: 200)
	JBIG2Dec string  `yaml:"jbig2dec"` // Decoder binary (default: jbig2dec on PATH)
}

// RasterConfig defines OFD page rasterization options.
type RasterConfig struct {
	Scale float64 `yaml:"scale"` // Device pixels per CSS pixel (default: 2)
}

// DocumentConfig overrides document metadata.
type DocumentConfig struct {
	Title    string   `yaml:"title"`
	Author   string   `yaml:"author"`
	Subject  string   `yaml:"subject"`
	Keywords []string `yaml:"keywords"`
	Date     string   `yaml:"date"` // "auto", "auto:FORMAT" or a literal
}

// Validate checks field lengths and value ranges.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	if err := validateFieldLength("output.directory", c.Output.Directory, MaxPathLength); err != nil {
		return err
	}

	switch strings.ToLower(c.Convert.Mode) {
	case "", "text", "image":
	default:
		return fmt.Errorf("%w: convert.mode %q (must be text or image)", ErrInvalidValue, c.Convert.Mode)
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}
	if c.Convert.Workers < 0 || c.Convert.Workers > MaxWorkers {
		return fmt.Errorf("%w: convert.workers must be between 0 and %d, got %d", ErrInvalidValue, MaxWorkers, c.Convert.Workers)
	}

	for i, dir := range c.Fonts.Dirs {
		if err := validateFieldLength(fmt.Sprintf("fonts.dirs[%d]", i), dir, MaxPathLength); err != nil {
			return err
		}
	}
	if err := validateFieldLength("fonts.default", c.Fonts.Default, MaxPathLength); err != nil {
		return err
	}

	if c.Images.DPI < 0 || c.Images.DPI > MaxDPI {
		return fmt.Errorf("%w: images.dpi must be between 0 and %g, got %g", ErrInvalidValue, MaxDPI, c.Images.DPI)
	}
	if err := validateFieldLength("images.jbig2dec", c.Images.JBIG2Dec, MaxPathLength); err != nil {
		return err
	}
	if c.Raster.Scale < 0 || c.Raster.Scale > MaxScale {
		return fmt.Errorf("%w: raster.scale must be between 0 and %g, got %g", ErrInvalidValue, MaxScale, c.Raster.Scale)
	}

	d := c.Document
	if err := validateFieldLength("document.title", d.Title, MaxTitleLength); err != nil {
		return err
	}
	if err := validateFieldLength("document.author", d.Author, MaxAuthorLength); err != nil {
		return err
	}
	if err := validateFieldLength("document.subject", d.Subject, MaxSubjectLength); err != nil {
		return err
	}
	if len(d.Keywords) > MaxKeywords {
		return fmt.Errorf("%w: document.keywords (%d entries, max %d)", ErrFieldTooLong, len(d.Keywords), MaxKeywords)
	}
	for i, kw := range d.Keywords {
		if err := validateFieldLength(fmt.Sprintf("document.keywords[%d]", i), kw, MaxKeywordLength); err != nil {
			return err
		}
	}
	if err := validateFieldLength("document.date", d.Date, MaxDateLength); err != nil {
		return err
	}
	if _, err := dateutil.ResolveDate(d.Date, time.Now()); err != nil {
		return fmt.Errorf("document.date: %w", err)
	}

	return nil
}

// TimeoutDuration parses convert.timeout. An empty value is zero.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	if c.Convert.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Convert.Timeout)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: convert.timeout %q (want a positive duration like 30s)", ErrInvalidValue, c.Convert.Timeout)
	}
	return d, nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns a configuration with every field at its default.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !isFilePath(nameOrPath) {
		var err error
		if configPath, err = resolveConfigPath(nameOrPath); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := yamlutil.ReadFileStrict(configPath, &cfg); err != nil {
		var pathErr *fs.PathError
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, &NotFoundError{Paths: []string{configPath}}
		case errors.As(err, &pathErr):
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, configPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// NotFoundError lists the locations searched for a config file. It
// matches ErrConfigNotFound with errors.Is.
type NotFoundError struct {
	Paths []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: tried %s", ErrConfigNotFound, strings.Join(e.Paths, ", "))
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrConfigNotFound
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, <user config dir>/pdf4ofd/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "pdf4ofd", name+ext)
			if fileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", &NotFoundError{Paths: triedPaths}
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
