// Package pdfread extracts the content of a PDF that an OFD page can carry:
// positioned text lines, rectangles and placed images.
//
// Two readers are combined. pdfkit supplies page boxes, document metadata
// and decoded image XObjects; ledongthuc/pdf supplies glyph positions,
// rectangles and a content-stream interpreter used to find where images
// are drawn. ledongthuc/pdf panics on some malformed files, so every call
// into it is guarded and a failure there only costs the text layer.
package pdfread

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/wudi/pdfkit/extractor"
	"github.com/wudi/pdfkit/ir"
	"github.com/wudi/pdfkit/ir/semantic"

	"github.com/ranvane/pdf4ofd/internal/imageconv"
)

// ErrInvalid indicates neither reader could open the data.
var ErrInvalid = errors.New("invalid PDF")

// A4 in points, used when a page declares no MediaBox.
const (
	a4Width  = 595.28
	a4Height = 841.89
)

// Options selects what is extracted.
type Options struct {
	// SkipText leaves out text lines and rectangles; only images are read.
	// What was left out is counted in Page.SkippedGlyphs and SkippedRects.
	SkipText bool
}

// Document is the extracted content of a PDF.
type Document struct {
	Info     Info
	Pages    []*Page
	Warnings []string
}

// Info is the PDF Info dictionary.
type Info struct {
	Title    string
	Author   string
	Subject  string
	Creator  string
	Producer string
	Keywords []string
	// CreationDate is the raw PDF date string, e.g. D:20240102030405+08'00'.
	CreationDate string
}

// Page holds one page in PDF user space: points, origin bottom-left.
type Page struct {
	Index  int
	Width  float64
	Height float64
	Rotate int
	Blocks []Block
	Rects  []Rect

	SkippedGlyphs int
	SkippedRects  int
}

// BlockKind tells text blocks from image blocks.
type BlockKind int

const (
	TextBlock BlockKind = iota
	ImageBlock
)

// Block is a text line or a placed image. Page.Blocks holds images first,
// then text. For text, Y is the baseline and H the font size; for images,
// X and Y locate the bottom-left corner.
type Block struct {
	Kind BlockKind
	X, Y float64
	W, H float64

	Text string
	Font string
	Size float64

	Resource string
	Data     []byte
	Ext      string
}

// Rect is a rectangle drawn with the "re" operator.
type Rect struct {
	X, Y, W, H float64
}

// Read extracts the content of every page. Pages, text and images come
// from whichever reader can supply them; what is lost is listed in
// Document.Warnings.
func Read(ctx context.Context, data []byte, opts Options) (*Document, error) {
	doc := &Document{}

	sem, semErr := ir.NewDefault().Parse(ctx, bytes.NewReader(data))
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rd, rdErr := openReader(data)
	if semErr != nil && rdErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, semErr)
	}

	var assets map[int]map[string]extractor.ImageAsset
	if semErr == nil {
		doc.Pages = pagesFrom(sem)
		assets = doc.readAssets(sem)
	} else {
		doc.warn("page boxes and images unavailable: %v", semErr)
		doc.Pages = pagesFromReader(rd)
		doc.Info = infoFromTrailer(rd)
	}
	if rdErr != nil {
		doc.warn("text layer unavailable: %v", rdErr)
	} else {
		if len(doc.Pages) == 0 {
			doc.Pages = pagesFromReader(rd)
		}
		if doc.Info.CreationDate == "" {
			doc.Info.CreationDate = trailerString(rd, "CreationDate")
		}
	}

	for i, page := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if rd == nil || i >= rd.NumPage() {
			continue
		}
		p := rd.Page(i + 1)
		// Images come first so text is painted above a scanned background.
		if err := page.placeImages(p, assets[i]); err != nil {
			doc.warn("page %d images: %v", i+1, err)
		}
		if opts.SkipText {
			if err := page.countContent(p); err != nil {
				doc.warn("page %d text: %v", i+1, err)
			}
			continue
		}
		if err := page.readContent(p); err != nil {
			doc.warn("page %d text: %v", i+1, err)
		}
	}
	return doc, nil
}

func (d *Document) warn(format string, args ...any) {
	d.Warnings = append(d.Warnings, fmt.Sprintf(format, args...))
}

func pagesFrom(sem *semantic.Document) []*Page {
	pages := make([]*Page, 0, len(sem.Pages))
	for i, sp := range sem.Pages {
		box := sp.MediaBox
		p := &Page{Index: i, Width: box.URX - box.LLX, Height: box.URY - box.LLY, Rotate: sp.Rotate}
		if p.Width <= 0 || p.Height <= 0 {
			p.Width, p.Height = a4Width, a4Height
		}
		pages = append(pages, p)
	}
	return pages
}

// readAssets collects metadata and decoded image XObjects, keyed by page
// index and resource name.
func (d *Document) readAssets(sem *semantic.Document) map[int]map[string]extractor.ImageAsset {
	if sem.Info != nil {
		d.Info = Info{
			Title:    sem.Info.Title,
			Author:   sem.Info.Author,
			Subject:  sem.Info.Subject,
			Creator:  sem.Info.Creator,
			Producer: sem.Info.Producer,
			Keywords: sem.Info.Keywords,
		}
	}
	dec := sem.Decoded()
	if dec == nil {
		return nil
	}
	ext, err := extractor.New(dec)
	if err != nil {
		d.warn("images unavailable: %v", err)
		return nil
	}
	if d.Info.Title == "" && d.Info.Author == "" {
		meta := ext.ExtractMetadata().Info
		d.Info = Info{
			Title:    meta.Title,
			Author:   meta.Author,
			Subject:  meta.Subject,
			Creator:  meta.Creator,
			Producer: meta.Producer,
			Keywords: meta.Keywords,
		}
	}
	images, err := ext.ExtractImages()
	if err != nil {
		d.warn("images unavailable: %v", err)
		return nil
	}
	out := make(map[int]map[string]extractor.ImageAsset)
	for _, a := range images {
		if out[a.Page] == nil {
			out[a.Page] = make(map[string]extractor.ImageAsset)
		}
		out[a.Page][a.ResourceName] = a
	}
	return out
}

// encodeAsset re-encodes a decoded XObject. DCT images stay JPEG; the rest
// become PNG so masks and line art survive.
func encodeAsset(a extractor.ImageAsset) ([]byte, string, error) {
	img, err := a.ToImage()
	if err != nil {
		return nil, "", err
	}
	for _, f := range a.Filters {
		if f == "DCTDecode" {
			data, err := imageconv.EncodeJPEG(img)
			return data, "jpg", err
		}
	}
	data, err := imageconv.EncodePNG(img)
	return data, "png", err
}
