package render

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"unicode"

	"github.com/wudi/pdfkit/builder"
	"github.com/wudi/pdfkit/contentstream"
	pdffonts "github.com/wudi/pdfkit/fonts"
	"github.com/wudi/pdfkit/ir/semantic"
	"github.com/wudi/pdfkit/writer"

	"github.com/ranvane/pdf4ofd/internal/ofd"
)

// baseFont is the resource name for text without a usable font program.
// pdfkit binds unregistered names to Helvetica.
const baseFont = "Helvetica"

// placeholderFonts are tried, in order, for the placeholder message.
var placeholderFonts = [][2]string{{"宋体", "SimSun"}, {"黑体", "SimHei"}}

var black = builder.Color{A: 1}

// PDF renders every page of doc. The second result lists non-fatal
// problems: fonts replaced by Helvetica, media that could not be decoded,
// malformed path data.
func PDF(ctx context.Context, doc *ofd.Document, opts Options) ([]byte, []string, error) {
	if len(doc.Pages) == 0 {
		return nil, nil, ErrNoPages
	}

	r := &pdfRenderer{
		ctx:    ctx,
		opts:   opts,
		b:      builder.NewBuilder(),
		fonts:  make(map[*ofd.Font]string),
		images: make(map[*ofd.Media]*semantic.Image),
	}
	for _, page := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		r.page(doc, page)
	}

	r.b.SetInfo(pdfInfo(doc.Info))
	for _, a := range doc.Attachments {
		r.b.AddEmbeddedFile(semantic.EmbeddedFile{Name: a.Name, Data: a.Data})
	}

	out, err := write(ctx, r.b)
	if err != nil {
		return nil, nil, err
	}
	return out, r.warn.list, nil
}

type pdfRenderer struct {
	ctx    context.Context
	opts   Options
	b      builder.PDFBuilder
	warn   warnings
	fonts  map[*ofd.Font]string
	images map[*ofd.Media]*semantic.Image
	nfonts int
}

func (r *pdfRenderer) page(doc *ofd.Document, page *ofd.Page) {
	box := page.Box
	pb := r.b.NewPage(ofd.MMToPt(box.W), ofd.MMToPt(box.H))
	fr := pageFrame(box)

	r.objects(pb, doc, fr, box.H, page.Objects)
	for _, a := range page.Annotations {
		r.objects(pb, doc, fr, box.H, a.Objects)
	}
	for _, s := range page.Seals {
		r.seal(pb, fr, box.H, s)
	}
	pb.Finish()
}

func (r *pdfRenderer) objects(pb builder.PageBuilder, doc *ofd.Document, fr frame, h float64, objs []ofd.Object) {
	for _, o := range objs {
		switch o := o.(type) {
		case *ofd.Text:
			r.text(pb, doc, fr, h, o)
		case *ofd.Path:
			r.path(pb, fr, h, o)
		case *ofd.Image:
			r.image(pb, doc, fr, h, o)
		}
	}
}

// toPt converts a document point to PDF user space on a page h mm tall.
func toPt(fr frame, h, x, y float64) (float64, float64) {
	x, y = fr.point(x, y)
	return ofd.MMToPt(x), ofd.MMToPt(h - y)
}

func pdfColor(c ofd.Color) builder.Color {
	return builder.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255, A: 1}
}

func (r *pdfRenderer) text(pb builder.PageBuilder, doc *ofd.Document, fr frame, h float64, t *ofd.Text) {
	opts := builder.TextOptions{
		Font:     r.font(doc, t.Font),
		FontSize: ofd.MMToPt(t.FontSize() * fr.sy),
		Color:    pdfColor(t.Fill),
	}
	xs, ys := t.Positions()
	i := 0
	for _, ch := range t.Value {
		x, y := toPt(fr, h, xs[i], ys[i])
		i++
		if unicode.IsSpace(ch) {
			continue
		}
		pb.DrawText(string(ch), x, y, opts)
	}
}

// font returns the resource name for an OFD font, registering the font
// program on first use. Embedded font files win over installed fonts.
func (r *pdfRenderer) font(doc *ofd.Document, id string) string {
	f, ok := doc.Fonts[id]
	if !ok {
		r.warn.add("font %s is not declared, using %s", id, baseFont)
		return baseFont
	}
	if name, ok := r.fonts[f]; ok {
		return name
	}

	r.nfonts++
	res := "F" + strconv.Itoa(r.nfonts+1)
	name := baseFont
	if font := r.loadFont(res, f); font != nil {
		r.b.RegisterFont(res, font)
		name = res
	} else {
		r.warn.add("font %q not found, using %s", f.Name, baseFont)
	}
	r.fonts[f] = name
	return name
}

func (r *pdfRenderer) loadFont(res string, f *ofd.Font) *semantic.Font {
	if len(f.File) > 0 {
		if font, err := pdffonts.LoadTrueType(res, f.File); err == nil {
			return font
		}
		r.warn.add("embedded font %q is unusable", f.Name)
	}
	if r.opts.Fonts == nil {
		return nil
	}
	data, _, err := r.opts.Fonts.Resolve(f.Name, f.Family)
	if err != nil {
		return nil
	}
	font, err := pdffonts.LoadTrueType(res, data)
	if err != nil {
		return nil
	}
	return font
}

func (r *pdfRenderer) path(pb builder.PageBuilder, fr frame, h float64, p *ofd.Path) {
	if !p.Stroke && !p.Fill {
		return
	}
	subs, err := p.Outline()
	if err != nil {
		r.warn.add("path %s: %v", p.ID, err)
		return
	}

	out := &contentstream.Path{}
	for _, sub := range subs {
		cs := contentstream.Subpath{Closed: sub.Closed}
		for _, pt := range sub.Points {
			cp := contentstream.PathPoint{}
			cp.X, cp.Y = toPt(fr, h, pt.X, pt.Y)
			switch pt.Kind {
			case ofd.MoveTo:
				cp.Type = contentstream.PathMoveTo
			case ofd.LineTo:
				cp.Type = contentstream.PathLineTo
			case ofd.CurveTo:
				cp.Type = contentstream.PathCurveTo
				cp.Control1X, cp.Control1Y = toPt(fr, h, pt.C1X, pt.C1Y)
				cp.Control2X, cp.Control2Y = toPt(fr, h, pt.C2X, pt.C2Y)
			}
			cs.Points = append(cs.Points, cp)
		}
		out.Subpaths = append(out.Subpaths, cs)
	}

	pb.DrawPath(out, builder.PathOptions{
		Stroke:      p.Stroke,
		Fill:        p.Fill,
		StrokeColor: pdfColor(p.StrokeColor),
		FillColor:   pdfColor(p.FillColor),
		LineWidth:   ofd.MMToPt(p.Width() * fr.sy),
	})
}

func (r *pdfRenderer) image(pb builder.PageBuilder, doc *ofd.Document, fr frame, h float64, im *ofd.Image) {
	m, ok := doc.Media[im.ResourceID]
	if !ok || len(m.Data) == 0 {
		r.warn.add("image resource %s is missing", im.ResourceID)
		return
	}
	img, seen := r.images[m]
	if !seen {
		src, _, err := r.opts.decode(r.ctx, m.Name, m.Data)
		if err != nil {
			r.warn.add("image %s: %v", m.Name, err)
		} else {
			img = builder.FromImage(src)
		}
		r.images[m] = img
	}
	if img == nil {
		return
	}
	r.place(pb, img, fr.box(im.Placement()), h)
}

func (r *pdfRenderer) place(pb builder.PageBuilder, img *semantic.Image, box ofd.Box, h float64) {
	pb.DrawImage(img,
		ofd.MMToPt(box.X), ofd.MMToPt(h-box.Y-box.H),
		ofd.MMToPt(box.W), ofd.MMToPt(box.H),
		builder.ImageOptions{})
}

func (r *pdfRenderer) seal(pb builder.PageBuilder, fr frame, h float64, s *ofd.Seal) {
	area := fr.box(s.Boundary)
	nested, pic := sealContent(r.ctx, s)
	switch {
	case nested != nil:
		page := nested.Pages[0]
		r.objects(pb, nested, fit(page.Box, area), h, page.Objects)
	case pic != nil:
		src, _, err := r.opts.decode(r.ctx, "seal "+s.ID, pic)
		if err != nil {
			r.warn.add("seal %s: %v", s.ID, err)
			return
		}
		r.place(pb, builder.FromImage(src), area, h)
	default:
		r.warn.add("seal %s has no picture", s.ID)
	}
}

// Placeholder builds a one-page A4 PDF showing message. A CJK font is used
// when the resolver has one, otherwise Helvetica.
func Placeholder(ctx context.Context, message string, opts Options) ([]byte, error) {
	b := builder.NewBuilder()
	font := baseFont
	if opts.Fonts != nil {
		for _, c := range placeholderFonts {
			data, _, err := opts.Fonts.Resolve(c[0], c[1])
			if err != nil {
				continue
			}
			if f, err := pdffonts.LoadTrueType("F2", data); err == nil {
				b.RegisterFont("F2", f)
				font = "F2"
				break
			}
		}
	}

	pb := b.NewPage(ofd.MMToPt(ofd.A4.W), ofd.MMToPt(ofd.A4.H))
	pb.DrawText(message, ofd.MMToPt(20), ofd.MMToPt(ofd.A4.H-30), builder.TextOptions{
		Font:     font,
		FontSize: 16,
		Color:    black,
	})
	pb.Finish()
	b.SetInfo(&semantic.DocumentInfo{Producer: Producer})
	return write(ctx, b)
}

// ImagesPDF lays out one picture per page. Each page is sized so its
// picture prints at dpi. Pictures that cannot be decoded are skipped with a
// warning; ErrNoPages is returned when none could be placed.
func ImagesPDF(ctx context.Context, images [][]byte, dpi float64, info ofd.Info, opts Options) ([]byte, []string, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	var warn warnings
	b := builder.NewBuilder()
	pages := 0
	for i, data := range images {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		name := fmt.Sprintf("image %d", i+1)
		src, norm, err := opts.decode(ctx, name, data)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			warn.add("%v", err)
			continue
		}
		w := ofd.MMToPt(ofd.PixelsToMM(norm.Width, dpi))
		h := ofd.MMToPt(ofd.PixelsToMM(norm.Height, dpi))
		b.NewPage(w, h).DrawImage(builder.FromImage(src), 0, 0, w, h, builder.ImageOptions{}).Finish()
		pages++
	}
	if pages == 0 {
		return nil, warn.list, ErrNoPages
	}

	b.SetInfo(pdfInfo(info))
	out, err := write(ctx, b)
	if err != nil {
		return nil, nil, err
	}
	return out, warn.list, nil
}

// pdfInfo maps DocInfo to the PDF Info dictionary. OFD has no producer
// field, so Producer is always ours.
func pdfInfo(info ofd.Info) *semantic.DocumentInfo {
	return &semantic.DocumentInfo{
		Title:    info.Title,
		Author:   info.Author,
		Subject:  info.Subject,
		Creator:  info.Creator,
		Producer: Producer,
		Keywords: info.Keywords,
	}
}

func write(ctx context.Context, b builder.PDFBuilder) ([]byte, error) {
	doc, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("building PDF: %w", err)
	}
	var buf bytes.Buffer
	w := (&writer.WriterBuilder{}).Build()
	cfg := writer.Config{
		Version:       writer.PDF17,
		ContentFilter: writer.FilterFlate,
		Deterministic: true,
		SubsetFonts:   true,
	}
	if err := w.Write(ctx, doc, &buf, cfg); err != nil {
		return nil, fmt.Errorf("writing PDF: %w", err)
	}
	return buf.Bytes(), nil
}
