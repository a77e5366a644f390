package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"strings"
	"unicode"

	"github.com/ranvane/pdf4ofd/internal/imageconv"
	"github.com/ranvane/pdf4ofd/internal/ofd"
)

// SVG renders one page as a standalone SVG document in millimetres. Media
// and seal pictures are inlined as data URIs, so the result can be loaded
// from a file without its package.
func SVG(ctx context.Context, doc *ofd.Document, page *ofd.Page, opts Options) ([]byte, []string) {
	s := &svgRenderer{ctx: ctx, opts: opts}
	box := page.Box

	fmt.Fprintf(&s.buf,
		`<svg xmlns="http://www.w3.org/2000/svg" width="%smm" height="%smm" viewBox="%s">`,
		ofd.FormatNumber(box.W), ofd.FormatNumber(box.H), box)
	fmt.Fprintf(&s.buf, `<rect x="%s" y="%s" width="%s" height="%s" fill="#fff"/>`,
		ofd.FormatNumber(box.X), ofd.FormatNumber(box.Y), ofd.FormatNumber(box.W), ofd.FormatNumber(box.H))

	s.objects(doc, page.Objects)
	for _, a := range page.Annotations {
		s.objects(doc, a.Objects)
	}
	for _, sl := range page.Seals {
		s.seal(sl)
	}
	s.buf.WriteString("</svg>")
	return s.buf.Bytes(), s.warn.list
}

type svgRenderer struct {
	ctx  context.Context
	opts Options
	buf  bytes.Buffer
	warn warnings
}

func (s *svgRenderer) objects(doc *ofd.Document, objs []ofd.Object) {
	for _, o := range objs {
		switch o := o.(type) {
		case *ofd.Text:
			s.text(doc, o)
		case *ofd.Path:
			s.path(o)
		case *ofd.Image:
			s.image(doc, o)
		}
	}
}

func svgColor(c ofd.Color) string {
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}

func (s *svgRenderer) text(doc *ofd.Document, t *ofd.Text) {
	family := "serif"
	if f := fontFamily(doc, t.Font); f != "" {
		family = escapeAttr(f) + ",serif"
	}
	size := ofd.FormatNumber(t.FontSize())
	fill := svgColor(t.Fill)

	xs, ys := t.Positions()
	i := 0
	for _, ch := range t.Value {
		x, y := xs[i], ys[i]
		i++
		if unicode.IsSpace(ch) {
			continue
		}
		fmt.Fprintf(&s.buf, `<text x="%s" y="%s" font-size="%s" font-family="%s" fill="%s">`,
			ofd.FormatNumber(x), ofd.FormatNumber(y), size, family, fill)
		_ = xml.EscapeText(&s.buf, []byte(string(ch)))
		s.buf.WriteString("</text>")
	}
}

func (s *svgRenderer) path(p *ofd.Path) {
	if !p.Stroke && !p.Fill {
		return
	}
	subs, err := p.Outline()
	if err != nil {
		s.warn.add("path %s: %v", p.ID, err)
		return
	}

	var d strings.Builder
	for _, sub := range subs {
		for _, pt := range sub.Points {
			switch pt.Kind {
			case ofd.MoveTo:
				d.WriteString("M" + ofd.FormatNumbers(pt.X, pt.Y))
			case ofd.LineTo:
				d.WriteString("L" + ofd.FormatNumbers(pt.X, pt.Y))
			case ofd.CurveTo:
				d.WriteString("C" + ofd.FormatNumbers(pt.C1X, pt.C1Y, pt.C2X, pt.C2Y, pt.X, pt.Y))
			}
		}
		if sub.Closed {
			d.WriteString("Z")
		}
	}

	fill, stroke := "none", "none"
	if p.Fill {
		fill = svgColor(p.FillColor)
	}
	if p.Stroke {
		stroke = svgColor(p.StrokeColor)
	}
	fmt.Fprintf(&s.buf, `<path d="%s" fill="%s" stroke="%s" stroke-width="%s"/>`,
		d.String(), fill, stroke, ofd.FormatNumber(p.Width()))
}

func (s *svgRenderer) image(doc *ofd.Document, im *ofd.Image) {
	m, ok := doc.Media[im.ResourceID]
	if !ok || len(m.Data) == 0 {
		s.warn.add("image resource %s is missing", im.ResourceID)
		return
	}
	s.picture(m.Name, m.Data, im.Placement())
}

func (s *svgRenderer) picture(name string, data []byte, box ofd.Box) {
	norm, err := s.opts.normalizer().Normalize(s.ctx, name, data)
	if err != nil {
		s.warn.add("image %s: %v", name, err)
		return
	}
	mime := "image/png"
	if norm.Format == imageconv.FormatJPEG {
		mime = "image/jpeg"
	}
	fmt.Fprintf(&s.buf,
		`<image x="%s" y="%s" width="%s" height="%s" preserveAspectRatio="none" href="data:%s;base64,%s"/>`,
		ofd.FormatNumber(box.X), ofd.FormatNumber(box.Y), ofd.FormatNumber(box.W), ofd.FormatNumber(box.H),
		mime, base64.StdEncoding.EncodeToString(norm.Data))
}

// seal draws an OFD-formatted seal as a nested SVG whose viewBox is the
// seal's own page, so its content scales into the stamp area.
func (s *svgRenderer) seal(sl *ofd.Seal) {
	nested, pic := sealContent(s.ctx, sl)
	b := sl.Boundary
	switch {
	case nested != nil:
		page := nested.Pages[0]
		fmt.Fprintf(&s.buf, `<svg x="%s" y="%s" width="%s" height="%s" viewBox="%s" preserveAspectRatio="none">`,
			ofd.FormatNumber(b.X), ofd.FormatNumber(b.Y), ofd.FormatNumber(b.W), ofd.FormatNumber(b.H), page.Box)
		s.objects(nested, page.Objects)
		s.buf.WriteString("</svg>")
	case pic != nil:
		s.picture("seal "+sl.ID, pic, b)
	default:
		s.warn.add("seal %s has no picture", sl.ID)
	}
}

func escapeAttr(v string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(v))
	return b.String()
}
