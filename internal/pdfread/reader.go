package pdfread

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/wudi/pdfkit/extractor"

	"github.com/ranvane/pdf4ofd/internal/ofd"
)

// Line grouping thresholds, in points or average glyph widths.
const (
	baselineTolerance = 0.5
	sizeTolerance     = 0.01
	gapFactor         = 1.5
)

var errNoImageData = errors.New("image data unavailable")

// guard turns a panic inside ledongthuc/pdf into an error.
func guard(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("malformed PDF content: %v", r)
	}
}

func openReader(data []byte) (rd *pdf.Reader, err error) {
	defer guard(&err)
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

func pagesFromReader(rd *pdf.Reader) (pages []*Page) {
	defer func() { _ = recover() }()
	for i := 1; i <= rd.NumPage(); i++ {
		p := &Page{Index: i - 1, Width: a4Width, Height: a4Height}
		box := rd.Page(i).V.Key("MediaBox")
		if box.Kind() == pdf.Array && box.Len() == 4 {
			w := box.Index(2).Float64() - box.Index(0).Float64()
			h := box.Index(3).Float64() - box.Index(1).Float64()
			if w > 0 && h > 0 {
				p.Width, p.Height = w, h
			}
		}
		pages = append(pages, p)
	}
	return pages
}

func infoFromTrailer(rd *pdf.Reader) (info Info) {
	defer func() { _ = recover() }()
	v := rd.Trailer().Key("Info")
	info = Info{
		Title:        v.Key("Title").Text(),
		Author:       v.Key("Author").Text(),
		Subject:      v.Key("Subject").Text(),
		Creator:      v.Key("Creator").Text(),
		Producer:     v.Key("Producer").Text(),
		CreationDate: v.Key("CreationDate").Text(),
	}
	if kw := v.Key("Keywords").Text(); kw != "" {
		info.Keywords = SplitKeywords(kw)
	}
	return info
}

func trailerString(rd *pdf.Reader, key string) (s string) {
	defer func() { _ = recover() }()
	return rd.Trailer().Key("Info").Key(key).Text()
}

// SplitKeywords splits a PDF Keywords string on commas and semicolons.
func SplitKeywords(s string) []string {
	var out []string
	for _, k := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' }) {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// readContent fills the text lines and rectangles of a page.
func (pg *Page) readContent(p pdf.Page) (err error) {
	defer guard(&err)
	c := p.Content()
	pg.Blocks = append(pg.Blocks, GroupLines(c.Text)...)
	for _, r := range c.Rect {
		pg.Rects = append(pg.Rects, Rect{
			X: math.Min(r.Min.X, r.Max.X),
			Y: math.Min(r.Min.Y, r.Max.Y),
			W: math.Abs(r.Max.X - r.Min.X),
			H: math.Abs(r.Max.Y - r.Min.Y),
		})
	}
	return nil
}

// countContent records how much text and how many rectangles the page
// draws without keeping them.
func (pg *Page) countContent(p pdf.Page) (err error) {
	defer guard(&err)
	c := p.Content()
	for _, t := range c.Text {
		if strings.TrimSpace(t.S) != "" {
			pg.SkippedGlyphs++
		}
	}
	pg.SkippedRects = len(c.Rect)
	return nil
}

type line struct {
	font  string
	size  float64
	y     float64
	x0    float64
	end   float64
	text  []rune
	width float64
	count int
}

func newLine(t pdf.Text) *line {
	l := &line{font: t.Font, size: t.FontSize, y: t.Y, x0: t.X}
	l.add(t)
	return l
}

func (l *line) add(t pdf.Text) {
	l.text = append(l.text, []rune(t.S)...)
	l.end = t.X + t.W
	l.width += t.W
	l.count += utf8.RuneCountInString(t.S)
}

// accepts reports whether t continues the line: same font and size, same
// baseline, and a gap under gapFactor average glyph widths.
func (l *line) accepts(t pdf.Text) bool {
	if t.Font != l.font || math.Abs(t.FontSize-l.size) > sizeTolerance || math.Abs(t.Y-l.y) > baselineTolerance {
		return false
	}
	avg := l.size / 2
	if l.count > 0 && l.width > 0 {
		avg = l.width / float64(l.count)
	}
	gap := t.X - l.end
	return gap > -avg && gap < gapFactor*avg
}

func (l *line) block() (Block, bool) {
	text := strings.TrimRightFunc(string(l.text), unicode.IsSpace)
	if text == "" {
		return Block{}, false
	}
	return Block{
		Kind: TextBlock,
		X:    l.x0,
		Y:    l.y,
		W:    l.end - l.x0,
		H:    l.size,
		Text: text,
		Font: FontName(l.font),
		Size: l.size,
	}, true
}

// GroupLines joins positioned glyphs into text lines in content order.
func GroupLines(texts []pdf.Text) []Block {
	var blocks []Block
	var cur *line
	flush := func() {
		if cur == nil {
			return
		}
		if b, ok := cur.block(); ok {
			blocks = append(blocks, b)
		}
		cur = nil
	}
	for _, t := range texts {
		if t.S == "" {
			continue
		}
		if cur != nil && cur.accepts(t) {
			cur.add(t)
			continue
		}
		flush()
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		cur = newLine(t)
	}
	flush()
	return blocks
}

// FontName strips the six-letter subset tag from an embedded font name:
// "ABCDEF+SimSun" becomes "SimSun".
func FontName(name string) string {
	if i := strings.IndexByte(name, '+'); i == 6 {
		return name[7:]
	}
	return name
}

type placement struct {
	name string
	box  ofd.Box
}

// placeImages finds where each image XObject is drawn and attaches its
// data. Images inside form XObjects are not followed.
func (pg *Page) placeImages(p pdf.Page, assets map[string]extractor.ImageAsset) (err error) {
	defer guard(&err)

	names := imageNames(p)
	if len(names) == 0 {
		return nil
	}
	placed := locateImages(p.V.Key("Contents"), names)

	type encoded struct {
		data []byte
		ext  string
		err  error
	}
	cache := make(map[string]encoded)
	var firstErr error
	for _, pl := range placed {
		enc, ok := cache[pl.name]
		if !ok {
			if a, found := assets[pl.name]; found {
				enc.data, enc.ext, enc.err = encodeAsset(a)
			} else {
				enc.err = errNoImageData
			}
			cache[pl.name] = enc
		}
		if enc.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", pl.name, enc.err)
			}
			continue
		}
		pg.Blocks = append(pg.Blocks, Block{
			Kind:     ImageBlock,
			X:        pl.box.X,
			Y:        pl.box.Y,
			W:        pl.box.W,
			H:        pl.box.H,
			Resource: pl.name,
			Data:     enc.data,
			Ext:      enc.ext,
		})
	}
	return firstErr
}

// imageNames lists the page's XObject resources whose Subtype is Image.
func imageNames(p pdf.Page) map[string]bool {
	xobj := p.Resources().Key("XObject")
	names := make(map[string]bool)
	for _, k := range xobj.Keys() {
		if xobj.Key(k).Key("Subtype").Name() == "Image" {
			names[k] = true
		}
	}
	return names
}

// locateImages interprets the content streams, tracking q, Q and cm, and
// records the area each Do of a known image covers: the unit square
// mapped through the current transformation matrix.
func locateImages(contents pdf.Value, names map[string]bool) []placement {
	var placed []placement
	ctm := ofd.Identity
	var saved []ofd.Matrix

	do := func(stk *pdf.Stack, op string) {
		n := stk.Len()
		args := make([]pdf.Value, n)
		for i := n - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}
		switch op {
		case "q":
			saved = append(saved, ctm)
		case "Q":
			if len(saved) > 0 {
				ctm = saved[len(saved)-1]
				saved = saved[:len(saved)-1]
			}
		case "cm":
			if n != 6 {
				return
			}
			m := ofd.Matrix{
				A: args[0].Float64(), B: args[1].Float64(),
				C: args[2].Float64(), D: args[3].Float64(),
				E: args[4].Float64(), F: args[5].Float64(),
			}
			ctm = m.Then(ctm)
		case "Do":
			if n != 1 || !names[args[0].Name()] {
				return
			}
			placed = append(placed, placement{name: args[0].Name(), box: unitSquare(ctm)})
		}
	}

	if contents.Kind() == pdf.Array {
		for i := 0; i < contents.Len(); i++ {
			pdf.Interpret(contents.Index(i), do)
		}
	} else {
		pdf.Interpret(contents, do)
	}
	return placed
}

// unitSquare is the bounding box of the unit square under m.
func unitSquare(m ofd.Matrix) ofd.Box {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range [4][2]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		x, y := m.Apply(c[0], c[1])
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	return ofd.Box{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}
