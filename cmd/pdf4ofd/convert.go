package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/ranvane/pdf4ofd"
	"github.com/ranvane/pdf4ofd/internal/config"
	"github.com/ranvane/pdf4ofd/internal/dateutil"
	"github.com/ranvane/pdf4ofd/internal/logging"
)

// ErrInvalidFlag reports a flag value outside its range.
var ErrInvalidFlag = errors.New("invalid flag value")

// runConvert orchestrates the conversion process.
func runConvert(ctx context.Context, positionalArgs []string, flags *convertFlags, env *Environment) error {
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}
	if err := validateTarget(flags.to); err != nil {
		return err
	}

	envCfg := loadEnvConfig()
	warnUnknownEnvVars(env.Stderr)
	logger := newLogger(flags, envCfg, env)

	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		logger.Debug(fmt.Sprintf(format, args...))
	}))

	cfg, err := loadConfig(flags.common.config, envCfg)
	if err != nil {
		return err
	}
	applyEnvConfig(envCfg, cfg)
	if err := mergeFlags(flags, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	resolvedDate, err := dateutil.ResolveDate(cfg.Document.Date, env.Now())
	if err != nil {
		return fmt.Errorf("invalid date format: %w", err)
	}
	cfg.Document.Date = resolvedDate

	if len(positionalArgs) == 0 {
		return ErrNoInput
	}
	inputPath := positionalArgs[0]

	files, err := discoverFiles(inputPath, cfg.Output.Directory, flags.to)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: nothing to convert in %s", ErrNoInput, inputPath)
	}

	opts, err := converterOptions(cfg, logger)
	if err != nil {
		return err
	}
	poolSize := min(pdf4ofd.ResolvePoolSize(cfg.Convert.Workers), len(files))
	logger.Debug("starting conversion", "files", len(files), "workers", poolSize)

	pool, err := env.NewPool(poolSize, opts...)
	if err != nil {
		return err
	}
	defer func() { _ = pool.Close() }()

	params := &conversionParams{
		mode:     pdf4ofd.Mode(cfg.Convert.Mode),
		metadata: buildMetadata(cfg),
		force:    cfg.Output.Force,
	}

	results := convertBatch(ctx, pool, files, params)
	return printResultsWithWriter(results, flags.common.quiet, flags.common.verbose, cfg.Fonts.Dirs, env)
}

// newLogger builds the CLI logger. Flags win over the environment; with
// neither, --verbose means debug, --quiet means error and the default is
// warn.
func newLogger(flags *convertFlags, envCfg *envConfig, env *Environment) *slog.Logger {
	level := flags.common.logLevel
	if level == "" {
		level = envCfg.LogLevel
	}
	if level == "" {
		switch {
		case flags.common.verbose:
			level = "debug"
		case flags.common.quiet:
			level = "error"
		default:
			level = "warn"
		}
	}
	format := flags.common.logFormat
	if format == "" {
		format = envCfg.LogFormat
	}
	return logging.New(level, format, env.Stderr)
}

// loadConfig loads the config named by --config, else PDF4OFD_CONFIG, else
// returns defaults.
func loadConfig(flagPath string, envCfg *envConfig) (*config.Config, error) {
	name := flagPath
	if name == "" {
		name = envCfg.ConfigPath
	}
	if name == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.LoadConfig(name)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// mergeFlags merges CLI flags into config. CLI values override config values.
func mergeFlags(flags *convertFlags, cfg *config.Config) error {
	if flags.output != "" {
		cfg.Output.Directory = flags.output
	}
	if flags.force {
		cfg.Output.Force = true
	}

	if flags.mode != "" {
		cfg.Convert.Mode = flags.mode
	}
	if flags.fallback {
		cfg.Convert.Fallback = true
	}
	if flags.timeout != "" {
		cfg.Convert.Timeout = flags.timeout
	}
	if flags.workers > 0 {
		cfg.Convert.Workers = flags.workers
	}

	if len(flags.fonts.dirs) > 0 {
		cfg.Fonts.Dirs = append(append([]string(nil), flags.fonts.dirs...), cfg.Fonts.Dirs...)
	}
	if flags.fonts.defaultFont != "" {
		cfg.Fonts.Default = flags.fonts.defaultFont
	}

	if flags.images.jbig2dec != "" {
		cfg.Images.JBIG2Dec = flags.images.jbig2dec
	}
	if flags.images.dpi < 0 || flags.images.scale < 0 {
		return fmt.Errorf("%w: --dpi and --scale must be positive", ErrInvalidFlag)
	}
	if flags.images.dpi > 0 {
		cfg.Images.DPI = flags.images.dpi
	}
	if flags.images.scale > 0 {
		cfg.Raster.Scale = flags.images.scale
	}

	m := flags.metadata
	if m.title != "" {
		cfg.Document.Title = m.title
	}
	if m.author != "" {
		cfg.Document.Author = m.author
	}
	if m.subject != "" {
		cfg.Document.Subject = m.subject
	}
	if len(m.keywords) > 0 {
		cfg.Document.Keywords = m.keywords
	}
	if m.date != "" {
		cfg.Document.Date = m.date
	}
	return nil
}

// converterOptions translates a validated config into converter options.
func converterOptions(cfg *config.Config, logger *slog.Logger) ([]pdf4ofd.Option, error) {
	opts := []pdf4ofd.Option{
		pdf4ofd.WithLogger(logger),
		pdf4ofd.WithFallbackPDF(cfg.Convert.Fallback),
	}

	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	if timeout > 0 {
		opts = append(opts, pdf4ofd.WithTimeout(timeout))
	}

	if len(cfg.Fonts.Dirs) > 0 {
		opts = append(opts, pdf4ofd.WithFontDirs(cfg.Fonts.Dirs...))
	}
	if cfg.Fonts.Default != "" {
		opts = append(opts, pdf4ofd.WithDefaultFont(cfg.Fonts.Default))
	}
	if cfg.Images.JBIG2Dec != "" {
		opts = append(opts, pdf4ofd.WithJBIG2Decoder(cfg.Images.JBIG2Dec))
	}
	if cfg.Images.DPI > 0 {
		opts = append(opts, pdf4ofd.WithImageDPI(cfg.Images.DPI))
	}
	if cfg.Raster.Scale > 0 {
		opts = append(opts, pdf4ofd.WithRasterScale(cfg.Raster.Scale))
	}
	return opts, nil
}

// buildMetadata returns the metadata overrides, or nil when there are none.
func buildMetadata(cfg *config.Config) *pdf4ofd.Metadata {
	d := cfg.Document
	if d.Title == "" && d.Author == "" && d.Subject == "" && len(d.Keywords) == 0 && d.Date == "" {
		return nil
	}
	return &pdf4ofd.Metadata{
		Title:        d.Title,
		Author:       d.Author,
		Subject:      d.Subject,
		Keywords:     d.Keywords,
		CreationDate: d.Date,
	}
}
