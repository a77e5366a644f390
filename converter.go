package pdf4ofd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ranvane/pdf4ofd/internal/fileutil"
	"github.com/ranvane/pdf4ofd/internal/fonts"
	"github.com/ranvane/pdf4ofd/internal/imageconv"
	"github.com/ranvane/pdf4ofd/internal/ofd"
	"github.com/ranvane/pdf4ofd/internal/render"
)

// Compile-time interface implementation checks.
var (
	_ render.FontResolver    = (*fonts.Registry)(nil)
	_ render.ImageNormalizer = imageconv.Normalizer{}
	_ rasterizer             = (*rodRasterizer)(nil)
)

// Converter converts between PDF, OFD and images.
// Create with NewConverter(), use Convert() for conversion, and Close() when done.
// A Converter may be used from several goroutines; ofd2img requests share
// one browser and run one page at a time.
type Converter struct {
	cfg        converterConfig
	fonts      *fontSource
	rasterizer rasterizer
}

// NewConverter creates a Converter with default configuration.
// Use options to customize behavior (e.g., WithTimeout, WithFontDirs).
// Returns an error if the default font is a path that does not exist.
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{
		cfg: converterConfig{
			timeout:     defaultTimeout,
			logger:      slog.New(slog.DiscardHandler),
			systemFonts: true,
			rasterScale: DefaultRasterScale,
			imageDPI:    DefaultImageDPI,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	if def := c.cfg.defaultFont; fileutil.IsFilePath(def) && !fileutil.FileExists(def) {
		return nil, fmt.Errorf("%w: default font %q", ErrFontNotFound, def)
	}

	if c.fonts == nil {
		c.fonts = newFontSource(c.cfg)
	}
	if c.rasterizer == nil {
		c.rasterizer = newRodRasterizer(c.cfg.timeout, c.cfg.rasterScale)
	}

	return c, nil
}

// Convert runs one conversion. The context is used for cancellation and
// timeout; the converter's own timeout applies on top of it.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Converter) Convert(ctx context.Context, input Input) (result *ConvertResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if err := c.validateInput(input); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.timeout)
	defer cancel()

	start := time.Now()
	log := c.cfg.logger.With("direction", string(input.Direction))
	log.Debug("conversion started", "bytes", len(input.Document), "images", len(input.Images))

	switch input.Direction {
	case PDFToOFD:
		result, err = c.pdfToOFD(ctx, input)
	case OFDToPDF:
		result, err = c.ofdToPDF(ctx, input)
	case OFDToImages:
		result, err = c.ofdToImages(ctx, input)
	case ImagesToOFD:
		result, err = c.imagesToOFD(ctx, input)
	case ImagesToPDF:
		result, err = c.imagesToPDF(ctx, input)
	}
	if err != nil {
		log.Debug("conversion failed", "error", err, "duration", time.Since(start))
		return nil, err
	}

	for _, w := range result.Warnings {
		log.Warn("conversion warning", "warning", w)
	}
	log.Info("converted",
		"pages", result.Pages,
		"fallback", result.Fallback,
		"warnings", len(result.Warnings),
		"duration", time.Since(start).Round(time.Millisecond))
	return result, nil
}

// Close releases resources (headless Chrome browser).
func (c *Converter) Close() error {
	if c.rasterizer != nil {
		return c.rasterizer.Close()
	}
	return nil
}

// validateInput checks that required fields are present and valid.
//
// This is a TRUST BOUNDARY for direct library users who build Input manually.
// CLI users have their settings validated earlier by Config.Validate().
func (c *Converter) validateInput(input Input) error {
	if err := input.Direction.Validate(); err != nil {
		return err
	}
	if err := input.Mode.Validate(); err != nil {
		return err
	}
	if err := input.Metadata.Validate(); err != nil {
		return err
	}

	if input.Direction.takesImages() {
		if len(input.Images) == 0 {
			return ErrNoImages
		}
		if len(input.Images) > MaxImagesPerInput {
			return fmt.Errorf("%w: %d images (max %d)", ErrInputTooLarge, len(input.Images), MaxImagesPerInput)
		}
		total := 0
		for _, img := range input.Images {
			total += len(img)
		}
		return checkSize(total)
	}

	if len(input.Document) == 0 {
		return ErrEmptyDocument
	}
	return checkSize(len(input.Document))
}

// renderOptions wires the font registry and image normalizer into the
// renderers.
func (c *Converter) renderOptions(ctx context.Context) render.Options {
	return render.Options{
		Fonts:  c.fonts.registry(ctx, c.cfg.logger),
		Images: c.normalizer(),
	}
}

func (c *Converter) normalizer() imageconv.Normalizer {
	return imageconv.Normalizer{JBIG2Decoder: c.cfg.jbig2dec}
}

// parseOFD wraps package errors so callers can match ErrInvalidOFD.
func parseOFD(ctx context.Context, data []byte) (*ofd.Document, error) {
	doc, err := ofd.Parse(ctx, data)
	if err == nil {
		return doc, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	return nil, fmt.Errorf("%w: %w", ErrInvalidOFD, err)
}

// ofdToPDF renders an OFD document as PDF. With WithFallbackPDF, any
// failure other than cancellation yields the placeholder page.
func (c *Converter) ofdToPDF(ctx context.Context, input Input) (*ConvertResult, error) {
	opts := c.renderOptions(ctx)

	doc, err := parseOFD(ctx, input.Document)
	if err != nil {
		return c.fallbackPDF(ctx, err, opts)
	}
	applyMetadata(&doc.Info, input.Metadata)

	out, warnings, err := render.PDF(ctx, doc, opts)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return c.fallbackPDF(ctx, fmt.Errorf("%w: %w", ErrRender, err), opts)
	}
	return &ConvertResult{Output: out, Pages: len(doc.Pages), Warnings: warnings}, nil
}

func (c *Converter) fallbackPDF(ctx context.Context, cause error, opts render.Options) (*ConvertResult, error) {
	if !c.cfg.fallback || errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		return nil, cause
	}
	out, err := render.Placeholder(ctx, FallbackMessage, opts)
	if err != nil {
		return nil, errors.Join(cause, fmt.Errorf("%w: placeholder: %w", ErrRender, err))
	}
	c.cfg.logger.Warn("unreadable OFD replaced by placeholder", "error", cause)
	return &ConvertResult{
		Output:   out,
		Pages:    1,
		Fallback: true,
		Warnings: []string{cause.Error()},
	}, nil
}

// ofdToImages rasterizes every page to PNG.
func (c *Converter) ofdToImages(ctx context.Context, input Input) (*ConvertResult, error) {
	doc, err := parseOFD(ctx, input.Document)
	if err != nil {
		return nil, err
	}
	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrRender, render.ErrNoPages)
	}

	opts := c.renderOptions(ctx)
	res := &ConvertResult{Pages: len(doc.Pages)}
	seen := make(map[string]bool)
	for _, page := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		svg, warnings := render.SVG(ctx, doc, page, opts)
		for _, w := range warnings {
			if !seen[w] {
				seen[w] = true
				res.Warnings = append(res.Warnings, w)
			}
		}
		png, err := c.rasterizer.Rasterize(ctx, svg, page.Box.W, page.Box.H)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page.Index+1, err)
		}
		res.Images = append(res.Images, png)
	}
	return res, nil
}

// applyMetadata copies the non-empty fields of m over info.
func applyMetadata(info *ofd.Info, m *Metadata) {
	if m == nil {
		return
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&info.Title, m.Title)
	set(&info.Author, m.Author)
	set(&info.Subject, m.Subject)
	set(&info.Creator, m.Creator)
	set(&info.CreationDate, m.CreationDate)
	if len(m.Keywords) > 0 {
		info.Keywords = append([]string(nil), m.Keywords...)
	}
}

// fontSource builds the font registry on first use. Scanning system font
// directories can take seconds, and pdf2ofd never needs it.
type fontSource struct {
	once     sync.Once
	dirs     []string
	fallback string
	reg      *fonts.Registry
}

func newFontSource(cfg converterConfig) *fontSource {
	dirs := append([]string(nil), cfg.fontDirs...)
	if cfg.systemFonts {
		dirs = append(dirs, fonts.DefaultDirs()...)
	}
	return &fontSource{dirs: dirs, fallback: cfg.defaultFont, reg: fonts.NewRegistry()}
}

func (s *fontSource) registry(ctx context.Context, log *slog.Logger) *fonts.Registry {
	s.once.Do(func() {
		start := time.Now()
		if err := s.reg.Scan(context.WithoutCancel(ctx), s.dirs...); err != nil {
			log.Warn("font scan incomplete", "error", err)
		}
		if s.fallback != "" {
			s.reg.SetDefault(s.fallback)
		}
		log.Debug("fonts indexed", "faces", len(s.reg.Faces()), "duration", time.Since(start))
	})
	return s.reg
}
