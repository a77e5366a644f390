package main

// Notes:
// - runConvert is tested end to end against a mock pool; real conversions
//   are covered by the root package tests.
// - converterOptions: options set unexported fields, so we only check how
//   many are produced.

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/ranvane/pdf4ofd"
	"github.com/ranvane/pdf4ofd/internal/config"
	"github.com/ranvane/pdf4ofd/internal/logging"
)

// ---------------------------------------------------------------------------
// TestParseConvertFlags - Flag parsing
// ---------------------------------------------------------------------------

func TestParseConvertFlags(t *testing.T) {
	t.Parallel()

	f, args, err := parseConvertFlags([]string{
		"-o", "out", "--to", "png", "--mode", "image", "--force", "--fallback",
		"-w", "3", "-t", "1m", "--font-dir", "/a", "--font-dir", "/b",
		"--default-font", "SimSun", "--dpi", "300", "--scale", "1.5",
		"--keywords", "tax,invoice", "--title", "T", "-q", "in.ofd",
	})
	if err != nil {
		t.Fatalf("parseConvertFlags() error: %v", err)
	}
	if !slices.Equal(args, []string{"in.ofd"}) {
		t.Errorf("args = %q", args)
	}
	if f.output != "out" || f.to != "png" || f.mode != "image" || !f.force || !f.fallback {
		t.Errorf("io flags = %+v", f)
	}
	if f.workers != 3 || f.timeout != "1m" || !f.common.quiet {
		t.Errorf("run flags = %+v", f)
	}
	if !slices.Equal(f.fonts.dirs, []string{"/a", "/b"}) || f.fonts.defaultFont != "SimSun" {
		t.Errorf("font flags = %+v", f.fonts)
	}
	if f.images.dpi != 300 || f.images.scale != 1.5 {
		t.Errorf("image flags = %+v", f.images)
	}
	if !slices.Equal(f.metadata.keywords, []string{"tax", "invoice"}) || f.metadata.title != "T" {
		t.Errorf("metadata flags = %+v", f.metadata)
	}
}

func TestParseConvertFlags_Unknown(t *testing.T) {
	t.Parallel()

	if _, _, err := parseConvertFlags([]string{"--page-size", "a4"}); err == nil {
		t.Error("expected error for unknown flag")
	}
}

// ---------------------------------------------------------------------------
// TestMergeFlags - CLI overrides config
// ---------------------------------------------------------------------------

func TestMergeFlags(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Fonts.Dirs = []string{"/cfg"}
	cfg.Document.Author = "Config Author"

	f := &convertFlags{
		output:   "out",
		force:    true,
		mode:     "image",
		fallback: true,
		timeout:  "2m",
		workers:  2,
		fonts:    fontFlags{dirs: []string{"/flag"}, defaultFont: "/f.ttf"},
		images:   imageFlags{jbig2dec: "/j", dpi: 150, scale: 3},
		metadata: metadataFlags{title: "Flag Title", keywords: []string{"k"}, date: "2024-01-01"},
	}
	if err := mergeFlags(f, cfg); err != nil {
		t.Fatalf("mergeFlags() error: %v", err)
	}

	if cfg.Output.Directory != "out" || !cfg.Output.Force {
		t.Errorf("output = %+v", cfg.Output)
	}
	if cfg.Convert.Mode != "image" || !cfg.Convert.Fallback || cfg.Convert.Timeout != "2m" || cfg.Convert.Workers != 2 {
		t.Errorf("convert = %+v", cfg.Convert)
	}
	if !slices.Equal(cfg.Fonts.Dirs, []string{"/flag", "/cfg"}) || cfg.Fonts.Default != "/f.ttf" {
		t.Errorf("fonts = %+v", cfg.Fonts)
	}
	if cfg.Images.JBIG2Dec != "/j" || cfg.Images.DPI != 150 || cfg.Raster.Scale != 3 {
		t.Errorf("images = %+v raster = %+v", cfg.Images, cfg.Raster)
	}
	if cfg.Document.Title != "Flag Title" || cfg.Document.Author != "Config Author" || cfg.Document.Date != "2024-01-01" {
		t.Errorf("document = %+v", cfg.Document)
	}
}

func TestMergeFlags_NegativeNumbers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		images imageFlags
	}{
		{"dpi", imageFlags{dpi: -1}},
		{"scale", imageFlags{scale: -0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := mergeFlags(&convertFlags{images: tt.images}, config.DefaultConfig())
			if !errors.Is(err, ErrInvalidFlag) {
				t.Errorf("mergeFlags() error = %v, want ErrInvalidFlag", err)
			}
		})
	}
}

func TestBuildMetadata(t *testing.T) {
	t.Parallel()

	if m := buildMetadata(config.DefaultConfig()); m != nil {
		t.Errorf("buildMetadata(empty) = %+v, want nil", m)
	}

	cfg := config.DefaultConfig()
	cfg.Document = config.DocumentConfig{Title: "T", Keywords: []string{"a"}, Date: "2024-05-06"}
	m := buildMetadata(cfg)
	if m == nil || m.Title != "T" || m.CreationDate != "2024-05-06" || !slices.Equal(m.Keywords, []string{"a"}) {
		t.Errorf("buildMetadata() = %+v", m)
	}
	if m != nil && m.Creator != "" {
		t.Errorf("Creator = %q, want empty", m.Creator)
	}
}

func TestConverterOptions(t *testing.T) {
	t.Parallel()

	logger := logging.Discard()

	base, err := converterOptions(config.DefaultConfig(), logger)
	if err != nil {
		t.Fatalf("converterOptions() error: %v", err)
	}
	if len(base) != 2 {
		t.Errorf("default options = %d, want 2 (logger, fallback)", len(base))
	}

	cfg := config.DefaultConfig()
	cfg.Convert.Timeout = "30s"
	cfg.Fonts.Dirs = []string{"/f"}
	cfg.Fonts.Default = "SimSun"
	cfg.Images = config.ImagesConfig{DPI: 300, JBIG2Dec: "/j"}
	cfg.Raster.Scale = 2
	full, err := converterOptions(cfg, logger)
	if err != nil {
		t.Fatalf("converterOptions() error: %v", err)
	}
	if len(full) != 8 {
		t.Errorf("full options = %d, want 8", len(full))
	}

	cfg.Convert.Timeout = "later"
	if _, err := converterOptions(cfg, logger); err == nil {
		t.Error("expected error for invalid timeout")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := loadConfig("", &envConfig{})
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.Output.Directory != "" || cfg.Convert.Workers != 0 {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestLoadConfig_FlagBeatsEnv(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "conf.yaml", "output:\n  directory: from-flag\n")

	cfg, err := loadConfig(path, &envConfig{ConfigPath: filepath.Join(dir, "missing.yaml")})
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.Output.Directory != "from-flag" {
		t.Errorf("Output.Directory = %q, want from-flag", cfg.Output.Directory)
	}

	_, err = loadConfig("", &envConfig{ConfigPath: filepath.Join(dir, "missing.yaml")})
	if !errors.Is(err, config.ErrConfigNotFound) {
		t.Errorf("loadConfig(env missing) error = %v, want ErrConfigNotFound", err)
	}
}

// ---------------------------------------------------------------------------
// TestRunConvert - End to end with a mock pool
// ---------------------------------------------------------------------------

func TestRunConvert_SingleFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writeFile(t, dir, "invoice.pdf", "%PDF-1.7 fake")
	pool := &mockPool{conv: &mockConverter{}}
	env, stdout, _ := testEnv(pool)

	f := &convertFlags{mode: "image", metadata: metadataFlags{title: "Invoice", date: "auto"}}
	if err := runConvert(context.Background(), []string{in}, f, env); err != nil {
		t.Fatalf("runConvert() error: %v", err)
	}

	out := filepath.Join(dir, "invoice.ofd")
	data, err := os.ReadFile(out)
	if err != nil || string(data) != "converted" {
		t.Fatalf("output = %q, %v", data, err)
	}
	if !strings.Contains(stdout.String(), "Created "+out) {
		t.Errorf("stdout = %q", stdout.String())
	}
	if !pool.closed {
		t.Error("pool not closed")
	}

	calls := pool.conv.calls()
	if len(calls) != 1 {
		t.Fatalf("got %d conversions, want 1", len(calls))
	}
	in0 := calls[0]
	if in0.Direction != pdf4ofd.PDFToOFD || in0.Mode != "image" || string(in0.Document) != "%PDF-1.7 fake" {
		t.Errorf("input = %+v", in0)
	}
	if in0.Metadata == nil || in0.Metadata.Title != "Invoice" || in0.Metadata.CreationDate != "2024-03-09" {
		t.Errorf("metadata = %+v", in0.Metadata)
	}
}

func TestRunConvert_ImagesGoInImages(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writeFile(t, dir, "scan.png", "png bytes")
	pool := &mockPool{conv: &mockConverter{}}
	env, _, _ := testEnv(pool)

	if err := runConvert(context.Background(), []string{in}, &convertFlags{to: "pdf"}, env); err != nil {
		t.Fatalf("runConvert() error: %v", err)
	}
	calls := pool.conv.calls()
	if len(calls) != 1 || calls[0].Direction != pdf4ofd.ImagesToPDF || len(calls[0].Images) != 1 || calls[0].Document != nil {
		t.Errorf("input = %+v", calls)
	}
	if _, err := os.Stat(filepath.Join(dir, "scan.pdf")); err != nil {
		t.Errorf("output missing: %v", err)
	}
}

func TestRunConvert_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writeFile(t, dir, "a.pdf", "x")

	tests := []struct {
		name    string
		args    []string
		flags   *convertFlags
		wantErr error
	}{
		{"negative workers", []string{in}, &convertFlags{workers: -1}, ErrInvalidWorkerCount},
		{"bad target", []string{in}, &convertFlags{to: "docx"}, ErrInvalidTarget},
		{"no input", nil, &convertFlags{}, ErrNoInput},
		{"missing file", []string{filepath.Join(dir, "none.pdf")}, &convertFlags{}, os.ErrNotExist},
		{"unsupported", []string{in}, &convertFlags{to: "png"}, ErrUnsupportedInput},
		{"bad mode", []string{in}, &convertFlags{mode: "ocr"}, config.ErrInvalidValue},
		{"bad dpi", []string{in}, &convertFlags{images: imageFlags{dpi: -3}}, ErrInvalidFlag},
		{"missing config", []string{in}, &convertFlags{common: commonFlags{config: filepath.Join(dir, "no.yaml")}}, config.ErrConfigNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, _, _ := testEnv(nil)
			err := runConvert(context.Background(), tt.args, tt.flags, env)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("runConvert() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRunConvert_FailureIsBatchError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writeFile(t, dir, "a.ofd", "x")
	pool := &mockPool{conv: &mockConverter{err: pdf4ofd.ErrInvalidOFD}}
	env, _, stderr := testEnv(pool)

	err := runConvert(context.Background(), []string{in}, &convertFlags{}, env)
	var batch *batchError
	if !errors.As(err, &batch) {
		t.Fatalf("error = %v, want *batchError", err)
	}
	if exitCodeFor(err) != ExitFormat {
		t.Errorf("exit code = %d, want %d", exitCodeFor(err), ExitFormat)
	}
	if !strings.Contains(stderr.String(), "FAILED "+in) {
		t.Errorf("stderr = %q", stderr.String())
	}
}

// ---------------------------------------------------------------------------
// TestNewLogger - Level selection
// ---------------------------------------------------------------------------

func TestNewLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		flags     commonFlags
		envLevel  string
		wantDebug bool
		wantWarn  bool
	}{
		{"default is warn", commonFlags{}, "", false, true},
		{"verbose is debug", commonFlags{verbose: true}, "", true, true},
		{"quiet is error", commonFlags{quiet: true}, "", false, false},
		{"env level", commonFlags{}, "debug", true, true},
		{"flag beats env", commonFlags{logLevel: "error"}, "debug", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, _, _ := testEnv(nil)
			logger := newLogger(&convertFlags{common: tt.flags}, &envConfig{LogLevel: tt.envLevel}, env)
			ctx := context.Background()
			if got := logger.Enabled(ctx, slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("debug enabled = %v, want %v", got, tt.wantDebug)
			}
			if got := logger.Enabled(ctx, slog.LevelWarn); got != tt.wantWarn {
				t.Errorf("warn enabled = %v, want %v", got, tt.wantWarn)
			}
		})
	}
}
