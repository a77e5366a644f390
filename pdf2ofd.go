package pdf4ofd

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/ranvane/pdf4ofd/internal/dateutil"
	"github.com/ranvane/pdf4ofd/internal/ofd"
	"github.com/ranvane/pdf4ofd/internal/pdfread"
)

// Text boxes are taller than the font size so descenders stay inside.
const lineHeight = 1.2

// defaultFontName is bound when a text run carries no font name.
const defaultFontName = "SimSun"

// pdfToOFD rebuilds each PDF page as an OFD page. Coordinates move from
// points with a bottom-left origin to millimetres with a top-left origin.
func (c *Converter) pdfToOFD(ctx context.Context, input Input) (*ConvertResult, error) {
	mode := input.Mode.normalized()
	src, err := pdfread.Read(ctx, input.Document, pdfread.Options{SkipText: mode == ModeImage})
	if err != nil {
		if errors.Is(err, pdfread.ErrInvalid) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPDF, err)
		}
		return nil, err
	}
	if len(src.Pages) == 0 {
		return nil, fmt.Errorf("%w: no pages", ErrInvalidPDF)
	}

	first := src.Pages[0]
	b := ofd.NewBuilder(ofd.Box{W: ofd.PtToMM(first.Width), H: ofd.PtToMM(first.Height)})
	res := &ConvertResult{Warnings: src.Warnings}

	for _, page := range src.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if page.Rotate%180 != 0 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("page %d: rotation %d ignored", page.Index+1, page.Rotate))
		}
		if page.SkippedGlyphs > 0 || page.SkippedRects > 0 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("page %d: image mode dropped %d characters and %d rectangles",
				page.Index+1, page.SkippedGlyphs, page.SkippedRects))
		}
		w := &pageWriter{
			b:  b,
			pw: b.AddPage(ofd.Box{W: ofd.PtToMM(page.Width), H: ofd.PtToMM(page.Height)}),
			h:  page.Height,
		}
		for _, blk := range page.Blocks {
			switch {
			case blk.Kind == pdfread.ImageBlock:
				w.image(blk)
			case mode == ModeText:
				w.text(blk)
			}
		}
		if mode == ModeText {
			for _, r := range page.Rects {
				w.rect(r)
			}
		}
	}

	info := ofd.Info{
		Title:        src.Info.Title,
		Author:       src.Info.Author,
		Subject:      src.Info.Subject,
		Creator:      src.Info.Creator,
		Keywords:     src.Info.Keywords,
		CreationDate: dateutil.PDFToOFD(src.Info.CreationDate),
	}
	applyMetadata(&info, input.Metadata)
	b.SetInfo(info)

	out, err := b.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: writing OFD: %w", ErrRender, err)
	}
	res.Output = out
	res.Pages = b.Pages()
	return res, nil
}

// pageWriter places extracted PDF content on one OFD page.
type pageWriter struct {
	b  *ofd.Builder
	pw *ofd.PageWriter
	h  float64 // page height in points
}

// box converts a PDF rectangle given by its bottom-left corner to an OFD
// boundary.
func (w *pageWriter) box(x, y, width, height float64) ofd.Box {
	return ofd.Box{
		X: ofd.PtToMM(x),
		Y: ofd.PtToMM(w.h - y - height),
		W: ofd.PtToMM(width),
		H: ofd.PtToMM(height),
	}
}

// text writes a line as one TextObject. Characters are spread evenly over
// the line width with a "g" delta.
func (w *pageWriter) text(blk pdfread.Block) {
	name := blk.Font
	if name == "" {
		name = defaultFontName
	}
	font := w.b.AddFont(name, name)

	size := ofd.PtToMM(blk.Size)
	n := utf8.RuneCountInString(blk.Text)
	width := ofd.PtToMM(blk.W)
	if width <= 0 {
		width = size * float64(n)
	}

	t := ofd.Text{
		Boundary: ofd.Box{
			X: ofd.PtToMM(blk.X),
			Y: ofd.PtToMM(w.h-blk.Y) - size,
			W: width,
			H: size * lineHeight,
		},
		Font:  strconv.Itoa(font),
		Size:  size,
		Fill:  ofd.Black,
		Y:     size,
		Value: blk.Text,
	}
	if n > 1 {
		t.DeltaX = "g " + strconv.Itoa(n-1) + " " + ofd.FormatNumber(width/float64(n))
	}
	w.pw.AddText(t)
}

// rect writes a stroked rectangle.
func (w *pageWriter) rect(r pdfread.Rect) {
	box := w.box(r.X, r.Y, r.W, r.H)
	w.pw.AddPath(ofd.Path{
		Boundary:    box,
		Stroke:      true,
		StrokeColor: ofd.Black,
		Data:        ofd.RectPath(box.W, box.H),
	})
}

// image places a picture so its unit square fills the boundary. Identical
// pictures share one resource.
func (w *pageWriter) image(blk pdfread.Block) {
	sum := sha256.Sum256(blk.Data)
	id := w.b.AddImage(hex.EncodeToString(sum[:8]), blk.Data, blk.Ext)
	box := w.box(blk.X, blk.Y, blk.W, blk.H)
	w.pw.AddImage(ofd.Image{
		Boundary:   box,
		CTM:        &ofd.Matrix{A: box.W, D: box.H},
		ResourceID: strconv.Itoa(id),
	})
}
