package ofd

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Namespace is the OFD XML namespace written on every part.
const Namespace = "http://www.ofdspec.org/2016"

// DefaultCreator is written to DocInfo when the caller sets none.
const DefaultCreator = "pdf4ofd"

const (
	docDir      = "Doc_0"
	resDir      = "Res"
	dateLayout  = "2006-01-02"
	publicRes   = "PublicRes.xml"
	documentRes = "DocumentRes.xml"
)

// zipTime is stamped on every entry so equal input gives equal archives.
var zipTime = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Builder assembles a single-document OFD package.
//
// Fonts and images are bound by caller-chosen keys; adding the same key
// twice returns the identifier of the first call. Pages are written in the
// order they were added.
type Builder struct {
	ids     *IDAllocator
	info    Info
	pageBox Box
	csID    int
	fonts   []wFont
	media   []wMultiMedia
	files   map[string][]byte
	pages   []*PageWriter
	now     func() time.Time
}

// NewBuilder returns a Builder whose default page box is box. An empty
// box means A4.
func NewBuilder(box Box) *Builder {
	if box.IsEmpty() {
		box = A4
	}
	b := &Builder{
		ids:     NewIDAllocator(),
		pageBox: box,
		files:   make(map[string][]byte),
		now:     time.Now,
	}
	b.csID = b.ids.Next()
	return b
}

// SetInfo sets the DocInfo block. An empty DocID is replaced by a random
// one and an empty CreationDate by today's date when the package is built.
func (b *Builder) SetInfo(info Info) {
	b.info = info
}

// AddFont binds a font resource and returns its identifier.
func (b *Builder) AddFont(key, name string) int {
	id, fresh := b.ids.Bind("font:" + key)
	if fresh {
		b.fonts = append(b.fonts, wFont{ID: id, FontName: name, FamilyName: name})
	}
	return id
}

// AddImage binds an image resource and returns its identifier. ext is the
// file extension without the dot, e.g. "png".
func (b *Builder) AddImage(key string, data []byte, ext string) int {
	id, fresh := b.ids.Bind("image:" + key)
	if !fresh {
		return id
	}
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		ext = "png"
	}
	file := "Image_" + strconv.Itoa(id) + "." + ext
	b.media = append(b.media, wMultiMedia{
		ID:        id,
		Type:      "Image",
		Format:    strings.ToUpper(ext),
		MediaFile: file,
	})
	b.files[docDir+"/"+resDir+"/"+file] = data
	return id
}

// AddPage appends a page. An empty box uses the document page box.
func (b *Builder) AddPage(box Box) *PageWriter {
	pw := &PageWriter{
		b:       b,
		id:      b.ids.Next(),
		layerID: b.ids.Next(),
	}
	if !box.IsEmpty() && box != b.pageBox {
		pw.box = &box
	}
	b.pages = append(b.pages, pw)
	return pw
}

// Pages reports how many pages have been added.
func (b *Builder) Pages() int { return len(b.pages) }

// PageWriter collects the content objects of one page.
type PageWriter struct {
	b       *Builder
	id      int
	layerID int
	box     *Box
	objects []any
}

// AddText writes t as a TextObject with a single TextCode. t.Font must be
// an identifier returned by AddFont.
func (pw *PageWriter) AddText(t Text) int {
	id := pw.b.ids.Next()
	obj := wText{
		ID:        id,
		Boundary:  t.Boundary.String(),
		Font:      t.Font,
		Size:      FormatNumber(t.Size),
		FillColor: &wColor{Value: t.Fill.String()},
		TextCode: wTextCode{
			X:      FormatNumber(t.X),
			Y:      FormatNumber(t.Y),
			DeltaX: t.DeltaX,
			DeltaY: t.DeltaY,
			Text:   t.Value,
		},
	}
	if t.CTM != nil {
		obj.CTM = t.CTM.String()
	}
	pw.objects = append(pw.objects, obj)
	return id
}

// AddPath writes p as a PathObject.
func (pw *PageWriter) AddPath(p Path) int {
	id := pw.b.ids.Next()
	obj := wPath{
		ID:              id,
		Boundary:        p.Boundary.String(),
		AbbreviatedData: p.Data,
	}
	if p.CTM != nil {
		obj.CTM = p.CTM.String()
	}
	if p.LineWidth > 0 {
		obj.LineWidth = FormatNumber(p.LineWidth)
	}
	if !p.Stroke {
		obj.Stroke = "false"
	} else {
		obj.StrokeColor = &wColor{Value: p.StrokeColor.String()}
	}
	if p.Fill {
		obj.Fill = "true"
		obj.FillColor = &wColor{Value: p.FillColor.String()}
	}
	pw.objects = append(pw.objects, obj)
	return id
}

// AddImage places an image resource. im.ResourceID must be an identifier
// returned by Builder.AddImage.
func (pw *PageWriter) AddImage(im Image) int {
	id := pw.b.ids.Next()
	obj := wImage{
		ID:         id,
		Boundary:   im.Boundary.String(),
		ResourceID: im.ResourceID,
	}
	if im.CTM != nil {
		obj.CTM = im.CTM.String()
	}
	pw.objects = append(pw.objects, obj)
	return id
}

// Bytes builds the package and returns the zip archive.
func (b *Builder) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := b.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write builds the package and writes the zip archive to w.
func (b *Builder) Write(w io.Writer) error {
	zw := zip.NewWriter(w)

	info := b.info
	if info.DocID == "" {
		info.DocID = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	if info.CreationDate == "" {
		info.CreationDate = b.now().Format(dateLayout)
	}
	if info.Creator == "" {
		info.Creator = DefaultCreator
	}

	root := wOFD{
		Xmlns:   Namespace,
		Version: "1.0",
		DocType: "OFD",
		DocBody: wDocBody{
			DocInfo: docInfo(info),
			DocRoot: docDir + "/Document.xml",
		},
	}

	doc := wDocument{
		Xmlns: Namespace,
		CommonData: wCommonData{
			PageArea:  wArea{PhysicalBox: b.pageBox.String()},
			PublicRes: publicRes,
		},
	}
	if len(b.media) > 0 {
		doc.CommonData.DocumentRes = documentRes
	}
	for i, pw := range b.pages {
		doc.Pages = append(doc.Pages, wPageRef{
			ID:      pw.id,
			BaseLoc: pageLoc(i),
		})
	}
	// Every identifier is issued by now.
	doc.CommonData.MaxUnitID = b.ids.MaxUnitID()

	parts := []part{
		{EntryName, root},
		{docDir + "/Document.xml", doc},
		{docDir + "/" + publicRes, wRes{
			Xmlns:       Namespace,
			BaseLoc:     resDir,
			ColorSpaces: []wColorSpace{{ID: b.csID, Type: "RGB", BitsPerComponent: 8}},
			Fonts:       b.fonts,
		}},
	}
	if len(b.media) > 0 {
		parts = append(parts, part{docDir + "/" + documentRes, wRes{
			Xmlns:       Namespace,
			BaseLoc:     resDir,
			MultiMedias: b.media,
		}})
	}
	for i, pw := range b.pages {
		page := wPage{
			Xmlns: Namespace,
			Layer: wLayer{ID: pw.layerID, Type: "Body", Objects: pw.objects},
		}
		if pw.box != nil {
			page.Area = &wArea{PhysicalBox: pw.box.String()}
		}
		parts = append(parts, part{docDir + "/" + pageLoc(i), page})
	}

	for _, p := range parts {
		data, err := marshalPart(p.v)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", p.name, err)
		}
		if err := writeEntry(zw, p.name, data); err != nil {
			return err
		}
	}
	for _, m := range b.media {
		name := docDir + "/" + resDir + "/" + m.MediaFile
		if err := writeEntry(zw, name, b.files[name]); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("closing archive: %w", err)
	}
	return nil
}

type part struct {
	name string
	v    any
}

func pageLoc(i int) string {
	return "Pages/Page_" + strconv.Itoa(i) + "/Content.xml"
}

func docInfo(info Info) wDocInfo {
	di := wDocInfo{
		DocID:          info.DocID,
		Title:          info.Title,
		Author:         info.Author,
		Subject:        info.Subject,
		Abstract:       info.Abstract,
		CreationDate:   info.CreationDate,
		Creator:        info.Creator,
		CreatorVersion: info.CreatorVersion,
	}
	if len(info.Keywords) > 0 {
		di.Keywords = &wKeywords{Keyword: info.Keywords}
	}
	return di
}

func marshalPart(v any) ([]byte, error) {
	out, err := xml.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: zipTime,
	})
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// Output shapes. Element names carry the ofd prefix literally so the
// namespace is declared once on each part root.

type wOFD struct {
	XMLName xml.Name `xml:"ofd:OFD"`
	Xmlns   string   `xml:"xmlns:ofd,attr"`
	Version string   `xml:"Version,attr"`
	DocType string   `xml:"DocType,attr"`
	DocBody wDocBody `xml:"ofd:DocBody"`
}

type wDocBody struct {
	DocInfo wDocInfo `xml:"ofd:DocInfo"`
	DocRoot string   `xml:"ofd:DocRoot"`
}

type wDocInfo struct {
	DocID          string     `xml:"ofd:DocID"`
	Title          string     `xml:"ofd:Title,omitempty"`
	Author         string     `xml:"ofd:Author,omitempty"`
	Subject        string     `xml:"ofd:Subject,omitempty"`
	Abstract       string     `xml:"ofd:Abstract,omitempty"`
	CreationDate   string     `xml:"ofd:CreationDate,omitempty"`
	Keywords       *wKeywords `xml:"ofd:Keywords,omitempty"`
	Creator        string     `xml:"ofd:Creator,omitempty"`
	CreatorVersion string     `xml:"ofd:CreatorVersion,omitempty"`
}

type wKeywords struct {
	Keyword []string `xml:"ofd:Keyword"`
}

type wDocument struct {
	XMLName    xml.Name    `xml:"ofd:Document"`
	Xmlns      string      `xml:"xmlns:ofd,attr"`
	CommonData wCommonData `xml:"ofd:CommonData"`
	Pages      []wPageRef  `xml:"ofd:Pages>ofd:Page"`
}

type wCommonData struct {
	MaxUnitID   int    `xml:"ofd:MaxUnitID"`
	PageArea    wArea  `xml:"ofd:PageArea"`
	PublicRes   string `xml:"ofd:PublicRes"`
	DocumentRes string `xml:"ofd:DocumentRes,omitempty"`
}

type wArea struct {
	PhysicalBox string `xml:"ofd:PhysicalBox"`
}

type wPageRef struct {
	ID      int    `xml:"ID,attr"`
	BaseLoc string `xml:"BaseLoc,attr"`
}

type wRes struct {
	XMLName     xml.Name      `xml:"ofd:Res"`
	Xmlns       string        `xml:"xmlns:ofd,attr"`
	BaseLoc     string        `xml:"BaseLoc,attr"`
	ColorSpaces []wColorSpace `xml:"ofd:ColorSpaces>ofd:ColorSpace,omitempty"`
	Fonts       []wFont       `xml:"ofd:Fonts>ofd:Font,omitempty"`
	MultiMedias []wMultiMedia `xml:"ofd:MultiMedias>ofd:MultiMedia,omitempty"`
}

type wColorSpace struct {
	ID               int    `xml:"ID,attr"`
	Type             string `xml:"Type,attr"`
	BitsPerComponent int    `xml:"BitsPerComponent,attr"`
}

type wFont struct {
	ID         int    `xml:"ID,attr"`
	FontName   string `xml:"FontName,attr"`
	FamilyName string `xml:"FamilyName,attr"`
}

type wMultiMedia struct {
	ID        int    `xml:"ID,attr"`
	Type      string `xml:"Type,attr"`
	Format    string `xml:"Format,attr"`
	MediaFile string `xml:"ofd:MediaFile"`
}

type wPage struct {
	XMLName xml.Name `xml:"ofd:Page"`
	Xmlns   string   `xml:"xmlns:ofd,attr"`
	Area    *wArea   `xml:"ofd:Area"`
	Layer   wLayer   `xml:"ofd:Content>ofd:Layer"`
}

type wLayer struct {
	ID      int    `xml:"ID,attr"`
	Type    string `xml:"Type,attr"`
	Objects []any
}

type wColor struct {
	Value string `xml:"Value,attr"`
}

type wText struct {
	XMLName   xml.Name  `xml:"ofd:TextObject"`
	ID        int       `xml:"ID,attr"`
	Boundary  string    `xml:"Boundary,attr"`
	Font      string    `xml:"Font,attr"`
	Size      string    `xml:"Size,attr"`
	CTM       string    `xml:"CTM,attr,omitempty"`
	FillColor *wColor   `xml:"ofd:FillColor"`
	TextCode  wTextCode `xml:"ofd:TextCode"`
}

type wTextCode struct {
	X      string `xml:"X,attr"`
	Y      string `xml:"Y,attr"`
	DeltaX string `xml:"DeltaX,attr,omitempty"`
	DeltaY string `xml:"DeltaY,attr,omitempty"`
	Text   string `xml:",chardata"`
}

type wPath struct {
	XMLName         xml.Name `xml:"ofd:PathObject"`
	ID              int      `xml:"ID,attr"`
	Boundary        string   `xml:"Boundary,attr"`
	CTM             string   `xml:"CTM,attr,omitempty"`
	LineWidth       string   `xml:"LineWidth,attr,omitempty"`
	Stroke          string   `xml:"Stroke,attr,omitempty"`
	Fill            string   `xml:"Fill,attr,omitempty"`
	FillColor       *wColor  `xml:"ofd:FillColor"`
	StrokeColor     *wColor  `xml:"ofd:StrokeColor"`
	AbbreviatedData string   `xml:"ofd:AbbreviatedData"`
}

type wImage struct {
	XMLName    xml.Name `xml:"ofd:ImageObject"`
	ID         int      `xml:"ID,attr"`
	Boundary   string   `xml:"Boundary,attr"`
	CTM        string   `xml:"CTM,attr,omitempty"`
	ResourceID string   `xml:"ResourceID,attr"`
}
