// Package render draws parsed OFD documents as PDF and SVG.
//
// OFD coordinates are millimetres measured from the top-left corner of the
// page. PDF output uses points measured from the bottom-left corner; SVG
// output keeps millimetres and uses the page box as its viewBox.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/ranvane/pdf4ofd/internal/fonts"
	"github.com/ranvane/pdf4ofd/internal/imageconv"
	"github.com/ranvane/pdf4ofd/internal/ofd"
	"github.com/ranvane/pdf4ofd/internal/seal"
)

// Producer is written to the PDF Info dictionary.
const Producer = "pdf4ofd"

// DefaultDPI sizes image pages when no resolution is given.
const DefaultDPI = 200

// ErrNoPages indicates there was nothing to put on a page.
var ErrNoPages = errors.New("no pages to render")

// FontResolver finds embeddable font data for an OFD font name and family.
// *fonts.Registry implements it.
type FontResolver interface {
	Resolve(name, family string) ([]byte, *fonts.Face, error)
}

// ImageNormalizer converts media to JPEG or PNG. imageconv.Normalizer
// implements it.
type ImageNormalizer interface {
	Normalize(ctx context.Context, name string, data []byte) (imageconv.Image, error)
}

// Options configures rendering. A nil Fonts means only fonts embedded in
// the document are used; a nil Images uses imageconv.Normalizer with
// jbig2dec from PATH.
type Options struct {
	Fonts  FontResolver
	Images ImageNormalizer
}

func (o Options) normalizer() ImageNormalizer {
	if o.Images == nil {
		return imageconv.Normalizer{}
	}
	return o.Images
}

// decode normalizes and decodes one picture.
func (o Options) decode(ctx context.Context, name string, data []byte) (image.Image, imageconv.Image, error) {
	norm, err := o.normalizer().Normalize(ctx, name, data)
	if err != nil {
		return nil, imageconv.Image{}, err
	}
	img, _, err := imageconv.Decode(norm.Data)
	if err != nil {
		return nil, imageconv.Image{}, fmt.Errorf("%s: %w", name, err)
	}
	return img, norm, nil
}

// warnings collects non-fatal problems, each message once.
type warnings struct {
	seen map[string]bool
	list []string
}

func (w *warnings) add(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if w.seen == nil {
		w.seen = make(map[string]bool)
	}
	if w.seen[msg] {
		return
	}
	w.seen[msg] = true
	w.list = append(w.list, msg)
}

// frame maps document millimetres onto the target page. Pages use the
// identity frame; OFD-formatted seals are drawn through a scaled one.
type frame struct {
	sx, sy float64
	dx, dy float64
}

func (f frame) point(x, y float64) (float64, float64) {
	return x*f.sx + f.dx, y*f.sy + f.dy
}

func (f frame) box(b ofd.Box) ofd.Box {
	x, y := f.point(b.X, b.Y)
	return ofd.Box{X: x, Y: y, W: b.W * f.sx, H: b.H * f.sy}
}

// fit returns the frame that draws the area src into dst.
func fit(src, dst ofd.Box) frame {
	if src.W <= 0 || src.H <= 0 {
		return frame{sx: 1, sy: 1, dx: dst.X - src.X, dy: dst.Y - src.Y}
	}
	sx, sy := dst.W/src.W, dst.H/src.H
	return frame{sx: sx, sy: sy, dx: dst.X - src.X*sx, dy: dst.Y - src.Y*sy}
}

// pageFrame places a page's own content: the page box origin moves to 0,0.
func pageFrame(box ofd.Box) frame {
	return frame{sx: 1, sy: 1, dx: -box.X, dy: -box.Y}
}

// sealContent picks what to draw for a seal: the first page of an
// OFD-formatted seal if one parses, otherwise the first raster picture.
func sealContent(ctx context.Context, s *ofd.Seal) (*ofd.Document, []byte) {
	var pic []byte
	for _, data := range s.Images {
		if seal.Format(data) == seal.FormatOFD {
			if doc, err := ofd.Parse(ctx, data); err == nil && len(doc.Pages) > 0 {
				return doc, nil
			}
			continue
		}
		if pic == nil {
			pic = data
		}
	}
	return nil, pic
}

// fontFamily is the family name shown for a font resource.
func fontFamily(doc *ofd.Document, id string) string {
	f, ok := doc.Fonts[id]
	if !ok {
		return ""
	}
	if f.Family != "" {
		return f.Family
	}
	return f.Name
}
