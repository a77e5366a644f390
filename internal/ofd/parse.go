package ofd

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/ranvane/pdf4ofd/internal/seal"
)

// defaultDocRoot is used when OFD.xml does not name one.
const defaultDocRoot = "Doc_0/Document.xml"

// Parse opens an OFD package and parses its first document.
func Parse(ctx context.Context, data []byte) (*Document, error) {
	p, err := Open(data)
	if err != nil {
		return nil, err
	}
	return p.Document(ctx)
}

// Document parses the first document of the package.
//
// Missing optional parts (resources, templates, annotations, signatures,
// attachments) are tolerated; a missing Document.xml or page content part
// is an error.
func (p *Package) Document(ctx context.Context) (*Document, error) {
	var root xmlOFD
	if err := p.Decode(EntryName, &root); err != nil {
		return nil, fmt.Errorf("reading %s: %w", EntryName, err)
	}

	var body xmlDocBody
	if len(root.DocBody) > 0 {
		body = root.DocBody[0]
	}
	docPath := p.Resolve(EntryName, body.DocRoot)
	if docPath == "" || !p.Has(docPath) {
		docPath = defaultDocRoot
	}

	var xdoc xmlDocument
	if err := p.Decode(docPath, &xdoc); err != nil {
		return nil, fmt.Errorf("reading document root: %w", err)
	}

	doc := &Document{
		Info:    infoFrom(body.DocInfo),
		PageBox: ParseBox(xdoc.CommonData.PageArea.PhysicalBox),
		Fonts:   make(map[string]*Font),
		Media:   make(map[string]*Media),
	}
	if doc.PageBox.IsEmpty() {
		doc.PageBox = A4
	}

	docDir := path.Dir(docPath)
	for _, loc := range append(append([]string{}, xdoc.CommonData.PublicRes...), xdoc.CommonData.DocumentRes...) {
		if err := p.readRes(resolveIn(docDir, loc), doc); err != nil && !errors.Is(err, ErrMissingPart) {
			return nil, fmt.Errorf("reading resources %s: %w", loc, err)
		}
	}

	templates := make(map[string]xmlTemplateDef, len(xdoc.CommonData.TemplatePage))
	for _, t := range xdoc.CommonData.TemplatePage {
		templates[t.ID] = t
	}

	byID := make(map[string]*Page, len(xdoc.Pages))
	for i, ref := range xdoc.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := p.readPage(docDir, ref, i, templates, doc.PageBox)
		if err != nil {
			return nil, fmt.Errorf("reading page %d: %w", i+1, err)
		}
		doc.Pages = append(doc.Pages, page)
		byID[page.ID] = page
	}

	if xdoc.Annotations != "" {
		if err := p.readAnnotations(resolveIn(docDir, xdoc.Annotations), byID); err != nil && !errors.Is(err, ErrMissingPart) {
			return nil, fmt.Errorf("reading annotations: %w", err)
		}
	}

	if body.Signatures != "" {
		if err := p.readSignatures(p.Resolve(EntryName, body.Signatures), byID); err != nil && !errors.Is(err, ErrMissingPart) {
			return nil, fmt.Errorf("reading signatures: %w", err)
		}
	}

	if xdoc.Attachments != "" {
		if err := p.readAttachments(resolveIn(docDir, xdoc.Attachments), doc); err != nil && !errors.Is(err, ErrMissingPart) {
			return nil, fmt.Errorf("reading attachments: %w", err)
		}
	}

	return doc, nil
}

func infoFrom(x xmlDocInfo) Info {
	return Info{
		DocID:          strings.TrimSpace(x.DocID),
		Title:          strings.TrimSpace(x.Title),
		Author:         strings.TrimSpace(x.Author),
		Subject:        strings.TrimSpace(x.Subject),
		Abstract:       strings.TrimSpace(x.Abstract),
		Creator:        strings.TrimSpace(x.Creator),
		CreatorVersion: strings.TrimSpace(x.CreatorVersion),
		CreationDate:   strings.TrimSpace(x.CreationDate),
		Keywords:       x.Keywords,
	}
}

// readRes loads fonts and multimedia from a PublicRes or DocumentRes part.
// Files are looked up relative to the part's BaseLoc directory.
func (p *Package) readRes(name string, doc *Document) error {
	var res xmlRes
	if err := p.Decode(name, &res); err != nil {
		return err
	}
	base := path.Dir(name)
	if res.BaseLoc != "" {
		base = resolveIn(base, res.BaseLoc)
	}

	for _, f := range res.Fonts {
		font := &Font{
			ID:         f.ID,
			Name:       f.FontName,
			Family:     f.FamilyName,
			Charset:    f.Charset,
			Bold:       parseBool(f.Bold, false),
			Italic:     parseBool(f.Italic, false),
			Serif:      parseBool(f.Serif, false),
			FixedWidth: parseBool(f.FixedWidth, false),
		}
		if loc := strings.TrimSpace(f.FontFile); loc != "" {
			if fname, data, err := p.Find(base, loc); err == nil {
				font.FileName, font.File = fname, data
			}
		}
		doc.Fonts[f.ID] = font
	}

	for _, m := range res.MultiMedias {
		media := &Media{
			ID:     m.ID,
			Type:   m.Type,
			Format: strings.ToLower(m.Format),
			Name:   strings.TrimSpace(m.MediaFile),
		}
		if media.Format == "" {
			media.Format = strings.TrimPrefix(strings.ToLower(path.Ext(media.Name)), ".")
		}
		if media.Name != "" {
			if _, data, err := p.Find(base, media.Name); err == nil {
				media.Data = data
			}
		}
		doc.Media[m.ID] = media
	}
	return nil
}

func (p *Package) readPage(docDir string, ref xmlPageRef, idx int, templates map[string]xmlTemplateDef, def Box) (*Page, error) {
	name, raw, err := p.Find(docDir, ref.BaseLoc)
	if err != nil {
		return nil, err
	}
	var xp xmlPage
	if err := decodeXML(raw, &xp); err != nil {
		return nil, err
	}
	objs, err := collectObjects(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	page := &Page{
		ID:    ref.ID,
		Index: idx,
		Box:   ParseBox(xp.Area.PhysicalBox),
	}
	if page.ID == "" {
		page.ID = strconv.Itoa(idx)
	}
	if page.Box.IsEmpty() {
		page.Box = def
	}

	// Background templates go under the page content, foreground ones over it.
	var under, over []Object
	for _, use := range xp.Template {
		tdef, ok := templates[use.TemplateID]
		if !ok {
			continue
		}
		_, traw, err := p.Find(docDir, tdef.BaseLoc)
		if err != nil {
			continue
		}
		tobjs, err := collectObjects(traw)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", tdef.ID, err)
		}
		zorder := use.ZOrder
		if zorder == "" {
			zorder = tdef.ZOrder
		}
		if strings.EqualFold(zorder, "Foreground") {
			over = append(over, tobjs...)
		} else {
			under = append(under, tobjs...)
		}
	}
	page.Objects = append(append(under, objs...), over...)
	return page, nil
}

// collectObjects returns the TextObject, PathObject and ImageObject
// elements of a content part in document order, at any depth.
func collectObjects(raw []byte) ([]Object, error) {
	dec := newDecoder(raw)
	var objs []Object
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return objs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadXML, err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "TextObject":
			var x xmlTextObject
			if err := dec.DecodeElement(&x, &se); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrBadXML, err)
			}
			objs = append(objs, x.texts()...)
		case "PathObject":
			var x xmlPathObject
			if err := dec.DecodeElement(&x, &se); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrBadXML, err)
			}
			objs = append(objs, x.path())
		case "ImageObject":
			var x xmlImageObject
			if err := dec.DecodeElement(&x, &se); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrBadXML, err)
			}
			objs = append(objs, x.image())
		}
	}
}

func parseCTM(s string) *Matrix {
	m, ok := ParseMatrix(s)
	if !ok {
		return nil
	}
	return &m
}

// texts yields one Text per non-empty TextCode.
func (x *xmlTextObject) texts() []Object {
	box := ParseBox(x.Boundary)
	fill := Black
	if x.FillColor != nil {
		fill = ParseColor(x.FillColor.Value, Black)
	}
	var glyphs []Glyphs
	for _, cg := range x.CGTransform {
		g := Glyphs{CodePosition: cg.CodePosition, CodeCount: cg.CodeCount, GlyphCount: cg.GlyphCount}
		for _, f := range strings.Fields(cg.Glyphs) {
			if v, err := strconv.Atoi(f); err == nil {
				g.Indices = append(g.Indices, v)
			}
		}
		glyphs = append(glyphs, g)
	}

	// A TextCode without X or Y continues with the previous code's value.
	var out []Object
	var cx, cy float64
	for _, code := range x.TextCode {
		if v := strings.TrimSpace(code.X); v != "" {
			cx = parseFloat(v)
		}
		if v := strings.TrimSpace(code.Y); v != "" {
			cy = parseFloat(v)
		}
		if strings.TrimSpace(code.Text) == "" {
			continue
		}
		out = append(out, &Text{
			ID:       x.ID,
			Boundary: box,
			Font:     x.Font,
			Size:     parseFloat(x.Size),
			CTM:      parseCTM(x.CTM),
			Fill:     fill,
			X:        cx,
			Y:        cy,
			DeltaX:   code.DeltaX,
			DeltaY:   code.DeltaY,
			Value:    code.Text,
			Glyphs:   glyphs,
		})
	}
	return out
}

func (x *xmlPathObject) path() *Path {
	p := &Path{
		ID:          x.ID,
		Boundary:    ParseBox(x.Boundary),
		CTM:         parseCTM(x.CTM),
		LineWidth:   parseFloat(x.LineWidth),
		Stroke:      parseBool(x.Stroke, true),
		Fill:        parseBool(x.Fill, false),
		StrokeColor: Black,
		FillColor:   Black,
		Data:        strings.TrimSpace(x.AbbreviatedData),
	}
	if x.StrokeColor != nil {
		p.StrokeColor = ParseColor(x.StrokeColor.Value, Black)
	}
	if x.FillColor != nil {
		p.FillColor = ParseColor(x.FillColor.Value, Black)
	}
	return p
}

func (x *xmlImageObject) image() *Image {
	return &Image{
		ID:         x.ID,
		Boundary:   ParseBox(x.Boundary),
		CTM:        parseCTM(x.CTM),
		ResourceID: x.ResourceID,
	}
}

// readAnnotations attaches visible annotations to their pages. Appearance
// content is shifted by the appearance Boundary origin.
func (p *Package) readAnnotations(name string, pages map[string]*Page) error {
	var index xmlAnnotations
	if err := p.Decode(name, &index); err != nil {
		return err
	}
	dir := path.Dir(name)
	for _, entry := range index.Pages {
		page, ok := pages[entry.PageID]
		if !ok || strings.TrimSpace(entry.FileLoc) == "" {
			continue
		}
		_, raw, err := p.Find(dir, entry.FileLoc)
		if err != nil {
			continue
		}
		var pa xmlPageAnnot
		if err := decodeXML(raw, &pa); err != nil {
			return err
		}
		for _, a := range pa.Annots {
			if !parseBool(a.Visible, true) {
				continue
			}
			annot := &Annotation{ID: a.ID, Type: a.Type, Subtype: a.Subtype}
			for _, ap := range a.Appearance {
				box := ParseBox(ap.Boundary)
				objs, err := collectObjects(ap.Inner)
				if err != nil {
					return err
				}
				for _, o := range objs {
					offset(o, box.X, box.Y)
				}
				annot.Boundary = annot.Boundary.Union(box)
				annot.Objects = append(annot.Objects, objs...)
			}
			page.Annotations = append(page.Annotations, annot)
		}
	}
	return nil
}

func offset(o Object, dx, dy float64) {
	switch v := o.(type) {
	case *Text:
		v.Boundary.X += dx
		v.Boundary.Y += dy
	case *Path:
		v.Boundary.X += dx
		v.Boundary.Y += dy
	case *Image:
		v.Boundary.X += dx
		v.Boundary.Y += dy
	}
}

// readSignatures resolves every signature to its stamp annotation and
// extracts the seal pictures from the signed value.
func (p *Package) readSignatures(name string, pages map[string]*Page) error {
	var list xmlSignatures
	if err := p.Decode(name, &list); err != nil {
		return err
	}
	dir := path.Dir(name)
	for _, s := range list.Signatures {
		sigName, raw, err := p.Find(dir, s.BaseLoc)
		if err != nil {
			continue
		}
		var sig xmlSignature
		if err := decodeXML(raw, &sig); err != nil {
			return err
		}
		sigDir := path.Dir(sigName)

		valueLoc := strings.TrimSpace(sig.SignedValue)
		if valueLoc == "" {
			valueLoc = "SignedValue.dat"
		}
		var value []byte
		if _, b, err := p.Find(sigDir, valueLoc); err == nil {
			value = b
		}
		images := seal.Extract(value)
		if len(images) == 0 && sig.SealLoc != "" {
			if _, b, err := p.Find(sigDir, sig.SealLoc); err == nil {
				images = seal.Extract(b)
			}
		}

		for _, st := range sig.StampAnnots {
			page, ok := pages[st.PageRef]
			if !ok {
				continue
			}
			page.Seals = append(page.Seals, &Seal{
				SignatureID: s.ID,
				ID:          st.ID,
				PageRef:     st.PageRef,
				Boundary:    ParseBox(st.Boundary),
				SignedValue: value,
				Images:      images,
			})
		}
	}
	return nil
}

func (p *Package) readAttachments(name string, doc *Document) error {
	var list xmlAttachments
	if err := p.Decode(name, &list); err != nil {
		return err
	}
	dir := path.Dir(name)
	for _, a := range list.Attachments {
		_, data, err := p.Find(dir, a.FileLoc)
		if err != nil {
			continue
		}
		doc.Attachments = append(doc.Attachments, &Attachment{
			ID:     a.ID,
			Name:   a.Name,
			Format: a.Format,
			Data:   data,
		})
	}
	return nil
}
