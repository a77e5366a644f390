package render

// Notes:
// - PDF output is Flate-compressed, so PDF tests check the header and the
//   reported warnings rather than drawing operators. The SVG tests cover
//   the geometry, which both renderers share through frame and Outline.
// - Fonts come from golang.org/x/image's Go fonts through a stub resolver;
//   no system fonts are needed.

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/ranvane/pdf4ofd/internal/fonts"
	"github.com/ranvane/pdf4ofd/internal/ofd"
)

// ---------------------------------------------------------------------------
// Test fixtures
// ---------------------------------------------------------------------------

type stubFonts struct {
	data []byte
}

func (s stubFonts) Resolve(name, family string) ([]byte, *fonts.Face, error) {
	if s.data == nil {
		return nil, nil, fonts.ErrNotFound
	}
	return s.data, &fonts.Face{FullName: name, Embeddable: true}, nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func sealOFD(t *testing.T) []byte {
	t.Helper()
	b := ofd.NewBuilder(ofd.Box{W: 40, H: 40})
	b.AddPage(ofd.Box{}).AddPath(ofd.Path{
		Boundary:    ofd.Box{X: 2, Y: 2, W: 36, H: 36},
		Stroke:      true,
		StrokeColor: ofd.Color{R: 255},
		Data:        ofd.RectPath(36, 36),
	})
	data, err := b.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func sampleDoc(t *testing.T) *ofd.Document {
	t.Helper()
	ctm := ofd.Matrix{A: 20, D: 10}
	page := &ofd.Page{
		ID:  "1",
		Box: ofd.A4,
		Objects: []ofd.Object{
			&ofd.Text{
				ID:       "10",
				Boundary: ofd.Box{X: 10, Y: 20, W: 50, H: 6},
				Font:     "1",
				Size:     5,
				Y:        5,
				DeltaX:   "g 2 5",
				Value:    "A B",
			},
			&ofd.Path{
				ID:          "11",
				Boundary:    ofd.Box{X: 10, Y: 40, W: 30, H: 10},
				Stroke:      true,
				Fill:        true,
				FillColor:   ofd.Color{G: 128},
				StrokeColor: ofd.Color{B: 255},
				Data:        ofd.RectPath(30, 10),
			},
			&ofd.Image{ID: "12", Boundary: ofd.Box{X: 10, Y: 60, W: 20, H: 10}, CTM: &ctm, ResourceID: "5"},
		},
		Annotations: []*ofd.Annotation{{
			ID:   "20",
			Type: "Watermark",
			Objects: []ofd.Object{&ofd.Path{
				ID:       "21",
				Boundary: ofd.Box{X: 100, Y: 100, W: 10, H: 10},
				Stroke:   true,
				Data:     "M 0 0 L 10 10",
			}},
		}},
		Seals: []*ofd.Seal{
			{ID: "30", Boundary: ofd.Box{X: 150, Y: 200, W: 40, H: 40}, Images: [][]byte{sealOFD(t)}},
			{ID: "31", Boundary: ofd.Box{X: 100, Y: 200, W: 30, H: 30}, Images: [][]byte{pngBytes(t, 3, 3)}},
		},
	}
	return &ofd.Document{
		Info:    ofd.Info{Title: "Invoice", Author: "Finance", Keywords: []string{"tax"}},
		PageBox: ofd.A4,
		Pages:   []*ofd.Page{page},
		Fonts: map[string]*ofd.Font{
			"1": {ID: "1", Name: "宋体", Family: "宋体"},
		},
		Media: map[string]*ofd.Media{
			"5": {ID: "5", Type: "Image", Format: "png", Name: "Image_5.png", Data: pngBytes(t, 4, 2)},
		},
		Attachments: []*ofd.Attachment{{ID: "1", Name: "data.xml", Data: []byte("<a/>")}},
	}
}

// ---------------------------------------------------------------------------
// TestFrame - Coordinate mapping
// ---------------------------------------------------------------------------

func TestFit(t *testing.T) {
	t.Parallel()

	fr := fit(ofd.Box{W: 40, H: 20}, ofd.Box{X: 100, Y: 50, W: 20, H: 10})
	x, y := fr.point(40, 20)
	if x != 120 || y != 60 {
		t.Errorf("fit().point(40,20) = (%v,%v), want (120,60)", x, y)
	}
	if got, want := fr.box(ofd.Box{X: 10, Y: 10, W: 10, H: 10}), (ofd.Box{X: 105, Y: 55, W: 5, H: 5}); got != want {
		t.Errorf("fit().box = %+v, want %+v", got, want)
	}

	moved := fit(ofd.Box{}, ofd.Box{X: 3, Y: 4})
	if x, y := moved.point(1, 1); x != 4 || y != 5 {
		t.Errorf("empty source point(1,1) = (%v,%v), want (4,5)", x, y)
	}
}

func TestToPt(t *testing.T) {
	t.Parallel()

	x, y := toPt(pageFrame(ofd.A4), 297, 25.4, 297-25.4)
	if diff := x - 72; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("x = %v, want 72", x)
	}
	if diff := y - 72; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("y = %v, want 72 (flipped)", y)
	}
}

func TestWarnings_Deduplicated(t *testing.T) {
	t.Parallel()

	var w warnings
	w.add("font %q not found", "宋体")
	w.add("font %q not found", "宋体")
	w.add("image %s missing", "5")
	if len(w.list) != 2 {
		t.Errorf("got %d warnings, want 2: %v", len(w.list), w.list)
	}
}

func TestSealContent(t *testing.T) {
	t.Parallel()

	pic := pngBytes(t, 2, 2)
	s := &ofd.Seal{Images: [][]byte{[]byte("PK\x03\x04broken"), pic}}
	nested, got := sealContent(context.Background(), s)
	if nested != nil {
		t.Error("broken OFD seal should not parse")
	}
	if !bytes.Equal(got, pic) {
		t.Error("expected raster picture fallback")
	}

	nested, _ = sealContent(context.Background(), &ofd.Seal{Images: [][]byte{pic, sealOFD(t)}})
	if nested == nil {
		t.Error("OFD seal not preferred over raster picture")
	}
}

// ---------------------------------------------------------------------------
// TestPDF - OFD to PDF rendering
// ---------------------------------------------------------------------------

func TestPDF_Output(t *testing.T) {
	t.Parallel()

	out, warns, err := PDF(context.Background(), sampleDoc(t), Options{Fonts: stubFonts{data: goregular.TTF}})
	if err != nil {
		t.Fatalf("PDF() error: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Errorf("output does not start with a PDF header: %q", out[:min(len(out), 16)])
	}
	if len(warns) != 0 {
		t.Errorf("unexpected warnings: %v", warns)
	}
}

func TestPDF_Warnings(t *testing.T) {
	t.Parallel()

	doc := sampleDoc(t)
	page := doc.Pages[0]
	page.Objects = append(page.Objects,
		&ofd.Image{ID: "40", Boundary: ofd.Box{W: 1, H: 1}, ResourceID: "404"},
		&ofd.Path{ID: "41", Stroke: true, Data: "M 0 0 X"},
	)
	page.Seals = append(page.Seals, &ofd.Seal{ID: "42"})

	_, warns, err := PDF(context.Background(), doc, Options{})
	if err != nil {
		t.Fatalf("PDF() error: %v", err)
	}

	want := []string{
		`font "宋体" not found`,
		"image resource 404 is missing",
		"path 41:",
		"seal 42 has no picture",
	}
	joined := strings.Join(warns, "\n")
	for _, w := range want {
		if !strings.Contains(joined, w) {
			t.Errorf("warnings %q missing %q", warns, w)
		}
	}
}

func TestPDF_NoPages(t *testing.T) {
	t.Parallel()

	_, _, err := PDF(context.Background(), &ofd.Document{}, Options{})
	if !errors.Is(err, ErrNoPages) {
		t.Errorf("PDF() error = %v, want ErrNoPages", err)
	}
}

func TestPDF_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := PDF(ctx, sampleDoc(t), Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("PDF() error = %v, want context.Canceled", err)
	}
}

func TestPlaceholder(t *testing.T) {
	t.Parallel()

	for _, opts := range []Options{{}, {Fonts: stubFonts{data: goregular.TTF}}} {
		out, err := Placeholder(context.Background(), "ofd 格式错误,不支持解析", opts)
		if err != nil {
			t.Fatalf("Placeholder() error: %v", err)
		}
		if !bytes.HasPrefix(out, []byte("%PDF-")) {
			t.Error("placeholder is not a PDF")
		}
	}
}

// ---------------------------------------------------------------------------
// TestImagesPDF - One page per picture
// ---------------------------------------------------------------------------

func TestImagesPDF(t *testing.T) {
	t.Parallel()

	images := [][]byte{pngBytes(t, 200, 100), []byte("not an image"), pngBytes(t, 10, 10)}
	out, warns, err := ImagesPDF(context.Background(), images, 0, ofd.Info{Title: "Scans"}, Options{})
	if err != nil {
		t.Fatalf("ImagesPDF() error: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Error("output is not a PDF")
	}
	if len(warns) != 1 || !strings.Contains(warns[0], "image 2") {
		t.Errorf("warnings = %v, want one for image 2", warns)
	}
}

func TestImagesPDF_NothingDecodable(t *testing.T) {
	t.Parallel()

	_, warns, err := ImagesPDF(context.Background(), [][]byte{[]byte("x")}, 300, ofd.Info{}, Options{})
	if !errors.Is(err, ErrNoPages) {
		t.Errorf("ImagesPDF() error = %v, want ErrNoPages", err)
	}
	if len(warns) != 1 {
		t.Errorf("warnings = %v, want 1", warns)
	}
}

// ---------------------------------------------------------------------------
// TestSVG - Page to SVG
// ---------------------------------------------------------------------------

func TestSVG(t *testing.T) {
	t.Parallel()

	doc := sampleDoc(t)
	out, warns := SVG(context.Background(), doc, doc.Pages[0], Options{})
	if len(warns) != 0 {
		t.Errorf("unexpected warnings: %v", warns)
	}
	svg := string(out)

	checks := []struct {
		name string
		want string
	}{
		{"root", `viewBox="0 0 210 297"`},
		{"size", `width="210mm" height="297mm"`},
		{"first char", `<text x="10" y="25" font-size="5" font-family="宋体,serif" fill="rgb(0,0,0)">A</text>`},
		{"third char", `<text x="20" y="25"`},
		{"rect path", `<path d="M10 40L40 40L40 50L10 50Z" fill="rgb(0,128,0)" stroke="rgb(0,0,255)" stroke-width="0.353"/>`},
		{"annotation", `<path d="M100 100L110 110" fill="none"`},
		{"image", `<image x="10" y="60" width="20" height="10" preserveAspectRatio="none" href="data:image/png;base64,`},
		{"nested seal", `<svg x="150" y="200" width="40" height="40" viewBox="0 0 40 40" preserveAspectRatio="none">`},
		{"seal path", `stroke="rgb(255,0,0)"`},
		{"seal picture", `<image x="100" y="200" width="30" height="30"`},
	}
	for _, c := range checks {
		if !strings.Contains(svg, c.want) {
			t.Errorf("%s: SVG missing %q", c.name, c.want)
		}
	}
	if !strings.Contains(svg, ">B</text>") {
		t.Error("second visible character missing")
	}
	if strings.Count(svg, "<text ") != 2 {
		t.Errorf("got %d text elements, want 2 (space skipped)", strings.Count(svg, "<text "))
	}
	if !strings.HasSuffix(svg, "</svg>") {
		t.Error("SVG not closed")
	}
}

func TestSVG_EscapesText(t *testing.T) {
	t.Parallel()

	doc := &ofd.Document{
		Fonts: map[string]*ofd.Font{"1": {Name: `A"B`}},
		Pages: []*ofd.Page{{Box: ofd.Box{W: 10, H: 10}, Objects: []ofd.Object{
			&ofd.Text{Font: "1", Size: 3, Value: "<"},
		}}},
	}
	out, _ := SVG(context.Background(), doc, doc.Pages[0], Options{})
	svg := string(out)
	if !strings.Contains(svg, ">&lt;</text>") {
		t.Errorf("text not escaped: %s", svg)
	}
	if !strings.Contains(svg, `font-family="A&#34;B,serif"`) {
		t.Errorf("font family not escaped: %s", svg)
	}
}
