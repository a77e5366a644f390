package ofd_test

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/ranvane/pdf4ofd/internal/ofd"
)

func sampleBuilder() *ofd.Builder {
	b := ofd.NewBuilder(ofd.Box{W: 100, H: 150})
	b.SetInfo(ofd.Info{
		DocID:        "0123456789abcdef0123456789abcdef",
		Title:        "Report",
		Author:       "QA",
		CreationDate: "2024-01-02",
		Keywords:     []string{"a", "b"},
	})

	font := b.AddFont("SimSun", "SimSun")
	img := b.AddImage("page1/Im0", []byte("PNGDATA"), "png")

	p1 := b.AddPage(ofd.Box{})
	ctm := ofd.Matrix{A: 1, D: 1}
	p1.AddText(ofd.Text{
		Boundary: ofd.Box{X: 10, Y: 20, W: 30, H: 5},
		Font:     strconv.Itoa(font),
		Size:     4.2,
		CTM:      &ctm,
		Fill:     ofd.Color{R: 10, G: 20, B: 30},
		Y:        4.2,
		DeltaX:   "g 2 5",
		Value:    "abc",
	})
	p1.AddPath(ofd.Path{
		Boundary:    ofd.Box{X: 1, Y: 2, W: 10, H: 5},
		Stroke:      true,
		StrokeColor: ofd.Black,
		LineWidth:   0.5,
		Data:        ofd.RectPath(10, 5),
	})
	p1.AddImage(ofd.Image{
		Boundary:   ofd.Box{X: 0, Y: 0, W: 50, H: 40},
		CTM:        &ofd.Matrix{A: 50, D: 40},
		ResourceID: strconv.Itoa(img),
	})

	b.AddPage(ofd.Box{W: 210, H: 297})
	return b
}

// ---------------------------------------------------------------------------
// TestBuilder - Round trip through Parse
// ---------------------------------------------------------------------------

func TestBuilder_RoundTrip(t *testing.T) {
	t.Parallel()

	data, err := sampleBuilder().Bytes()
	if err != nil {
		t.Fatalf("Bytes() error: %v", err)
	}
	doc, err := ofd.Parse(context.Background(), data)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if doc.Info.Title != "Report" || doc.Info.Author != "QA" || doc.Info.CreationDate != "2024-01-02" {
		t.Errorf("Info = %+v", doc.Info)
	}
	if doc.Info.Creator != ofd.DefaultCreator {
		t.Errorf("Creator = %q, want %q", doc.Info.Creator, ofd.DefaultCreator)
	}
	if len(doc.Info.Keywords) != 2 {
		t.Errorf("Keywords = %v, want [a b]", doc.Info.Keywords)
	}
	if len(doc.Pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(doc.Pages))
	}
	if want := (ofd.Box{W: 100, H: 150}); doc.Pages[0].Box != want {
		t.Errorf("page 1 box = %+v, want %+v", doc.Pages[0].Box, want)
	}
	if want := (ofd.Box{W: 210, H: 297}); doc.Pages[1].Box != want {
		t.Errorf("page 2 box = %+v, want %+v", doc.Pages[1].Box, want)
	}

	objs := doc.Pages[0].Objects
	if len(objs) != 3 {
		t.Fatalf("got %d objects, want 3", len(objs))
	}

	txt := objs[0].(*ofd.Text)
	if txt.Value != "abc" || txt.Size != 4.2 || txt.DeltaX != "g 2 5" {
		t.Errorf("text = %+v", txt)
	}
	if txt.Boundary != (ofd.Box{X: 10, Y: 20, W: 30, H: 5}) {
		t.Errorf("text boundary = %+v", txt.Boundary)
	}
	if txt.Fill != (ofd.Color{R: 10, G: 20, B: 30}) {
		t.Errorf("text fill = %+v", txt.Fill)
	}
	font, ok := doc.Fonts[txt.Font]
	if !ok || font.Name != "SimSun" {
		t.Errorf("font %q = %+v, want SimSun", txt.Font, font)
	}

	path := objs[1].(*ofd.Path)
	if !path.Stroke || path.Fill || path.LineWidth != 0.5 || path.Data != ofd.RectPath(10, 5) {
		t.Errorf("path = %+v", path)
	}

	img := objs[2].(*ofd.Image)
	media, ok := doc.Media[img.ResourceID]
	if !ok || string(media.Data) != "PNGDATA" || media.Format != "png" {
		t.Errorf("media %q = %+v", img.ResourceID, media)
	}
	if img.Placement() != (ofd.Box{W: 50, H: 40}) {
		t.Errorf("placement = %+v", img.Placement())
	}
}

func TestBuilder_Layout(t *testing.T) {
	t.Parallel()

	data, err := sampleBuilder().Bytes()
	if err != nil {
		t.Fatal(err)
	}
	p, err := ofd.Open(data)
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{
		"OFD.xml",
		"Doc_0/Document.xml",
		"Doc_0/PublicRes.xml",
		"Doc_0/DocumentRes.xml",
		"Doc_0/Res/Image_3.png",
		"Doc_0/Pages/Page_0/Content.xml",
		"Doc_0/Pages/Page_1/Content.xml",
	} {
		if !p.Has(name) {
			t.Errorf("missing part %s (have %v)", name, p.Names())
		}
	}

	root, _ := p.Read("OFD.xml")
	if !bytes.Contains(root, []byte(`xmlns:ofd="`+ofd.Namespace+`"`)) {
		t.Errorf("OFD.xml lacks the namespace declaration:\n%s", root)
	}
	if !bytes.Contains(root, []byte("<ofd:DocRoot>Doc_0/Document.xml</ofd:DocRoot>")) {
		t.Errorf("OFD.xml lacks DocRoot:\n%s", root)
	}

	// colorspace 1, font 2, image 3, page 4 + layer 5, three objects,
	// page 9 + layer 10.
	document, _ := p.Read("Doc_0/Document.xml")
	if !bytes.Contains(document, []byte("<ofd:MaxUnitID>11</ofd:MaxUnitID>")) {
		t.Errorf("Document.xml MaxUnitID wrong:\n%s", document)
	}
}

func TestBuilder_ResourceReuse(t *testing.T) {
	t.Parallel()

	b := ofd.NewBuilder(ofd.Box{})
	f1 := b.AddFont("k", "SimSun")
	f2 := b.AddFont("k", "Other")
	if f1 != f2 {
		t.Errorf("AddFont same key = %d, %d, want equal", f1, f2)
	}
	i1 := b.AddImage("img", []byte("x"), ".JPG")
	i2 := b.AddImage("img", []byte("y"), "jpg")
	if i1 != i2 {
		t.Errorf("AddImage same key = %d, %d, want equal", i1, i2)
	}
	if f1 == i1 {
		t.Error("font and image share an identifier")
	}

	data, err := b.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	p, err := ofd.Open(data)
	if err != nil {
		t.Fatal(err)
	}
	img, err := p.Read("Doc_0/Res/Image_" + strconv.Itoa(i1) + ".jpg")
	if err != nil || string(img) != "x" {
		t.Errorf("image part = %q, %v, want first data", img, err)
	}
}

func TestBuilder_Deterministic(t *testing.T) {
	t.Parallel()

	a, err := sampleBuilder().Bytes()
	if err != nil {
		t.Fatal(err)
	}
	b, err := sampleBuilder().Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("equal input produced different archives")
	}
}

func TestBuilder_GeneratedDocID(t *testing.T) {
	t.Parallel()

	b := ofd.NewBuilder(ofd.Box{})
	b.AddPage(ofd.Box{})
	data, err := b.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	doc, err := ofd.Parse(context.Background(), data)
	if err != nil {
		t.Fatal(err)
	}
	id := doc.Info.DocID
	if len(id) != 32 || strings.Contains(id, "-") {
		t.Errorf("DocID = %q, want 32 hex digits", id)
	}
	if len(doc.Info.CreationDate) != len("2006-01-02") {
		t.Errorf("CreationDate = %q, want YYYY-MM-DD", doc.Info.CreationDate)
	}
	if doc.PageBox != ofd.A4 {
		t.Errorf("PageBox = %+v, want A4", doc.PageBox)
	}
}
