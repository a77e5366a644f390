// Package imageconv turns the picture formats found in OFD packages and
// image inputs into JPEG or PNG, the two formats every renderer here can
// embed.
//
// JPEG and PNG pass through untouched. BMP, TIFF and GIF are decoded and
// re-encoded as JPEG. JBIG2, common in scanned invoices, has no Go decoder
// and is handed to the external jbig2dec program.
package imageconv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif" // register GIF
	"image/jpeg"
	"image/png"
	"os"
	"strings"

	_ "golang.org/x/image/bmp"  // register BMP
	_ "golang.org/x/image/tiff" // register TIFF

	"github.com/ranvane/pdf4ofd/internal/fileutil"
	"github.com/ranvane/pdf4ofd/internal/process"
)

// Formats reported by Sniff and carried by Image.
const (
	FormatJPEG  = "jpeg"
	FormatPNG   = "png"
	FormatGIF   = "gif"
	FormatBMP   = "bmp"
	FormatTIFF  = "tiff"
	FormatJBIG2 = "jbig2"
)

// JPEGQuality is used for every re-encoded picture.
const JPEGQuality = 95

// DefaultJBIG2Decoder is the program run when no decoder path is set.
const DefaultJBIG2Decoder = "jbig2dec"

// Sentinel errors.
var (
	ErrDecoderNotFound = errors.New("jbig2dec not found")
	ErrUnsupported     = errors.New("unsupported image format")
	ErrDecode          = errors.New("decoding image")
)

// Image is a picture ready for embedding.
type Image struct {
	Data   []byte
	Format string // FormatJPEG or FormatPNG
	Width  int
	Height int
}

// Ext is the file extension matching the format.
func (im Image) Ext() string {
	if im.Format == FormatJPEG {
		return "jpg"
	}
	return im.Format
}

var magics = []struct {
	prefix string
	format string
}{
	{"\xff\xd8\xff", FormatJPEG},
	{"\x89PNG\r\n\x1a\n", FormatPNG},
	{"GIF87a", FormatGIF},
	{"GIF89a", FormatGIF},
	{"BM", FormatBMP},
	{"II*\x00", FormatTIFF},
	{"MM\x00*", FormatTIFF},
	{"\x97JB2\r\n\x1a\n", FormatJBIG2},
}

var extFormats = map[string]string{
	"jpg":   FormatJPEG,
	"jpeg":  FormatJPEG,
	"png":   FormatPNG,
	"gif":   FormatGIF,
	"bmp":   FormatBMP,
	"tif":   FormatTIFF,
	"tiff":  FormatTIFF,
	"jb2":   FormatJBIG2,
	"jbig2": FormatJBIG2,
}

// Sniff detects the format from magic bytes, falling back to the
// extension of name. Embedded JBIG2 streams usually lack a file header,
// so the extension is what identifies them.
func Sniff(name string, data []byte) string {
	for _, m := range magics {
		if bytes.HasPrefix(data, []byte(m.prefix)) {
			return m.format
		}
	}
	return extFormats[fileutil.Ext(name)]
}

// Normalizer converts pictures. The zero value runs jbig2dec from PATH.
type Normalizer struct {
	// JBIG2Decoder is the jbig2dec executable, a name or a path.
	JBIG2Decoder string
}

// Normalize converts data to JPEG or PNG. name is used only to identify
// headerless formats by extension.
func Normalize(ctx context.Context, name string, data []byte) (Image, error) {
	return Normalizer{}.Normalize(ctx, name, data)
}

// Normalize converts data to JPEG or PNG.
func (n Normalizer) Normalize(ctx context.Context, name string, data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, fmt.Errorf("%w: empty data for %q", ErrDecode, name)
	}

	switch format := Sniff(name, data); format {
	case FormatJPEG, FormatPNG:
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return Image{}, fmt.Errorf("%w: %s: %v", ErrDecode, name, err)
		}
		return Image{Data: data, Format: format, Width: cfg.Width, Height: cfg.Height}, nil

	case FormatBMP, FormatTIFF, FormatGIF:
		img, _, err := Decode(data)
		if err != nil {
			return Image{}, fmt.Errorf("%s: %w", name, err)
		}
		out, err := EncodeJPEG(img)
		if err != nil {
			return Image{}, err
		}
		b := img.Bounds()
		return Image{Data: out, Format: FormatJPEG, Width: b.Dx(), Height: b.Dy()}, nil

	case FormatJBIG2:
		out, err := n.jbig2ToPNG(ctx, data)
		if err != nil {
			return Image{}, err
		}
		cfg, err := png.DecodeConfig(bytes.NewReader(out))
		if err != nil {
			return Image{}, fmt.Errorf("%w: jbig2dec output: %v", ErrDecode, err)
		}
		return Image{Data: out, Format: FormatPNG, Width: cfg.Width, Height: cfg.Height}, nil

	default:
		return Image{}, fmt.Errorf("%w: %s", ErrUnsupported, name)
	}
}

// jbig2ToPNG runs "jbig2dec -o out.png in.jb2" in a scratch location.
func (n Normalizer) jbig2ToPNG(ctx context.Context, data []byte) ([]byte, error) {
	bin := n.JBIG2Decoder
	if bin == "" {
		bin = DefaultJBIG2Decoder
	}
	if _, ok := process.Available(bin); !ok {
		return nil, fmt.Errorf("%w: %s", ErrDecoderNotFound, bin)
	}

	in, cleanup, err := fileutil.WriteTempFile(data, "jb2")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	out := strings.TrimSuffix(in, ".jb2") + ".png"
	defer func() { _ = os.Remove(out) }()

	if _, err := process.Run(ctx, "", bin, "-o", out, in); err != nil {
		if errors.Is(err, process.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrDecoderNotFound, bin)
		}
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	b, err := os.ReadFile(out) // #nosec G304 -- path built from our own temp file
	if err != nil {
		return nil, fmt.Errorf("%w: reading jbig2dec output: %v", ErrDecode, err)
	}
	return b, nil
}

// Decode decodes any supported raster format except JBIG2.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, format, nil
}

// EncodeJPEG encodes img as an RGB JPEG. Transparent areas become white.
func EncodeJPEG(img image.Image) ([]byte, error) {
	b := img.Bounds()
	rgb := image.NewRGBA(b)
	draw.Draw(rgb, b, &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(rgb, b, img, b.Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, rgb, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}
