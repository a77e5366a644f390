package pdf4ofd

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"
)

// Direction names a conversion.
type Direction string

// Supported directions.
const (
	PDFToOFD    Direction = "pdf2ofd"
	OFDToPDF    Direction = "ofd2pdf"
	ImagesToOFD Direction = "img2ofd"
	ImagesToPDF Direction = "img2pdf"
	OFDToImages Direction = "ofd2img"
)

// Directions lists every supported direction.
var Directions = []Direction{PDFToOFD, OFDToPDF, ImagesToOFD, ImagesToPDF, OFDToImages}

// Validate reports whether d is a supported direction.
func (d Direction) Validate() error {
	for _, known := range Directions {
		if d == known {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidDirection, string(d))
}

// takesImages reports whether the direction reads Input.Images.
func (d Direction) takesImages() bool {
	return d == ImagesToOFD || d == ImagesToPDF
}

// Mode selects how PDF content is carried into OFD.
type Mode string

// Conversion modes. The empty Mode is ModeText.
const (
	ModeText  Mode = "text"
	ModeImage Mode = "image"
)

// Validate checks the mode, case-insensitively. The empty mode is valid.
func (m Mode) Validate() error {
	switch Mode(strings.ToLower(string(m))) {
	case "", ModeText, ModeImage:
		return nil
	}
	return fmt.Errorf("%w: %q (must be text or image)", ErrInvalidMode, string(m))
}

func (m Mode) normalized() Mode {
	if m == "" {
		return ModeText
	}
	return Mode(strings.ToLower(string(m)))
}

// Input contains conversion parameters.
type Input struct {
	Direction Direction // Required
	Document  []byte    // PDF or OFD bytes, for pdf2ofd, ofd2pdf and ofd2img
	Images    [][]byte  // JPEG, PNG, BMP, TIFF, GIF or JBIG2, for img2ofd and img2pdf
	Mode      Mode      // pdf2ofd only (optional, default text)
	Metadata  *Metadata // Overrides source metadata (optional)
}

// Metadata field limits, in characters.
const (
	MaxTitleLength    = 200
	MaxAuthorLength   = 100
	MaxSubjectLength  = 500
	MaxCreatorLength  = 100
	MaxKeywordLength  = 50
	MaxKeywords       = 20
	MaxDateLength     = 30
	MaxImagesPerInput = 1000
)

// Metadata overrides the document information of the output. Empty fields
// keep what the source document carries.
type Metadata struct {
	Title        string
	Author       string
	Subject      string
	Creator      string
	Keywords     []string
	CreationDate string // OFD only, e.g. "2024-01-02"
}

// Validate checks field lengths. Returns nil if m is nil.
func (m *Metadata) Validate() error {
	if m == nil {
		return nil
	}
	fields := []struct {
		name  string
		value string
		max   int
	}{
		{"title", m.Title, MaxTitleLength},
		{"author", m.Author, MaxAuthorLength},
		{"subject", m.Subject, MaxSubjectLength},
		{"creator", m.Creator, MaxCreatorLength},
		{"creation date", m.CreationDate, MaxDateLength},
	}
	for _, f := range fields {
		if n := utf8.RuneCountInString(f.value); n > f.max {
			return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, f.name, n, f.max)
		}
	}
	if len(m.Keywords) > MaxKeywords {
		return fmt.Errorf("%w: keywords (%d entries, max %d)", ErrFieldTooLong, len(m.Keywords), MaxKeywords)
	}
	for _, k := range m.Keywords {
		if n := utf8.RuneCountInString(k); n > MaxKeywordLength {
			return fmt.Errorf("%w: keyword %q (%d chars, max %d)", ErrFieldTooLong, k, n, MaxKeywordLength)
		}
	}
	return nil
}

// ConvertResult holds the output of a conversion.
type ConvertResult struct {
	Output   []byte   // Target document; empty for ofd2img
	Images   [][]byte // PNG pages, for ofd2img
	Pages    int
	Fallback bool     // A placeholder PDF replaced an unreadable OFD
	Warnings []string // Content that could not be carried over
}

// Option configures a Converter.
type Option func(*Converter)

// converterConfig holds internal configuration for Converter.
type converterConfig struct {
	timeout     time.Duration
	logger      *slog.Logger
	fallback    bool
	fontDirs    []string
	systemFonts bool
	defaultFont string
	jbig2dec    string
	rasterScale float64
	imageDPI    float64
}

// Defaults.
const (
	defaultTimeout     = 30 * time.Second
	DefaultRasterScale = 2.0
	DefaultImageDPI    = 200.0
)

// FallbackMessage is the text of the placeholder PDF produced by
// WithFallbackPDF: "OFD format error, cannot be parsed".
const FallbackMessage = "ofd 格式错误,不支持解析"

// WithTimeout bounds each conversion.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("pdf4ofd: WithTimeout duration must be positive")
	}
	return func(c *Converter) {
		c.cfg.timeout = d
	}
}

// WithLogger sets the logger for conversion events. The default discards
// every record.
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.cfg.logger = l
		}
	}
}

// WithFallbackPDF makes ofd2pdf answer an unreadable OFD with a one-page
// PDF showing FallbackMessage instead of an error.
func WithFallbackPDF(enabled bool) Option {
	return func(c *Converter) {
		c.cfg.fallback = enabled
	}
}

// WithFontDirs adds directories searched for fonts before the system ones.
func WithFontDirs(dirs ...string) Option {
	return func(c *Converter) {
		c.cfg.fontDirs = append(c.cfg.fontDirs, dirs...)
	}
}

// WithSystemFonts controls whether the operating system font directories
// are scanned. Enabled by default.
func WithSystemFonts(enabled bool) Option {
	return func(c *Converter) {
		c.cfg.systemFonts = enabled
	}
}

// WithDefaultFont sets the font used for text whose font cannot be found:
// a family name or the path of a font file.
func WithDefaultFont(nameOrPath string) Option {
	return func(c *Converter) {
		c.cfg.defaultFont = nameOrPath
	}
}

// WithJBIG2Decoder sets the jbig2dec executable used for JBIG2 images.
func WithJBIG2Decoder(path string) Option {
	return func(c *Converter) {
		c.cfg.jbig2dec = path
	}
}

// WithRasterScale sets the device pixels per CSS pixel used by ofd2img.
// Panics if scale <= 0.
func WithRasterScale(scale float64) Option {
	if scale <= 0 {
		panic("pdf4ofd: WithRasterScale scale must be positive")
	}
	return func(c *Converter) {
		c.cfg.rasterScale = scale
	}
}

// WithImageDPI sets the resolution that sizes pages built from images.
// Panics if dpi <= 0.
func WithImageDPI(dpi float64) Option {
	if dpi <= 0 {
		panic("pdf4ofd: WithImageDPI dpi must be positive")
	}
	return func(c *Converter) {
		c.cfg.imageDPI = dpi
	}
}
