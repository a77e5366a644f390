package ofd

import (
	"unicode/utf8"
)

// Document is the parsed form of the first document in a package.
type Document struct {
	Info        Info
	PageBox     Box
	Pages       []*Page
	Fonts       map[string]*Font
	Media       map[string]*Media
	Attachments []*Attachment
}

// Info is the DocInfo block of OFD.xml.
type Info struct {
	DocID          string
	Title          string
	Author         string
	Subject        string
	Abstract       string
	Creator        string
	CreatorVersion string
	CreationDate   string
	Keywords       []string
}

// Page is one page with its content in drawing order. Template content
// is already merged in.
type Page struct {
	ID          string
	Index       int
	Box         Box
	Objects     []Object
	Annotations []*Annotation
	Seals       []*Seal
}

// Object is a drawable content object: *Text, *Path or *Image.
type Object interface {
	Bounds() Box
}

// Text is a single TextCode of a TextObject. A TextObject with several
// TextCode children yields several Text values sharing ID, Font and Size.
type Text struct {
	ID       string
	Boundary Box
	Font     string
	Size     float64
	CTM      *Matrix
	Fill     Color
	X, Y     float64
	DeltaX   string
	DeltaY   string
	Value    string
	Glyphs   []Glyphs
}

// Glyphs is a CGTransform entry mapping characters to glyph indices.
type Glyphs struct {
	CodePosition int
	CodeCount    int
	GlyphCount   int
	Indices      []int
}

func (t *Text) Bounds() Box { return t.Boundary }

// Positions returns the page position of every character in millimetres.
// Each coordinate is Boundary + (TextCode offset + CTM translation) * CTM
// scale, advanced by the delta lists.
func (t *Text) Positions() (xs, ys []float64) {
	n := utf8.RuneCountInString(t.Value)
	scaleX, scaleY := 1.0, 1.0
	moveX, moveY := 0.0, 0.0
	if t.CTM != nil {
		scaleX, scaleY = t.CTM.A, t.CTM.D
		moveX, moveY = t.CTM.E, t.CTM.F
	}
	x0 := t.Boundary.X + (t.X+moveX)*scaleX
	y0 := t.Boundary.Y + (t.Y+moveY)*scaleY
	return ExpandDeltas(x0, t.DeltaX, scaleX, n), ExpandDeltas(y0, t.DeltaY, scaleY, n)
}

// FontSize is the rendered size in millimetres, scaled by the CTM.
func (t *Text) FontSize() float64 {
	if t.CTM == nil {
		return t.Size
	}
	if s := t.CTM.ScaleY(); s > 0 {
		return t.Size * s
	}
	return t.Size
}

// Path is a PathObject.
type Path struct {
	ID          string
	Boundary    Box
	CTM         *Matrix
	LineWidth   float64
	Stroke      bool
	Fill        bool
	StrokeColor Color
	FillColor   Color
	Data        string
}

// DefaultLineWidth is the stroke width used when a path declares none.
const DefaultLineWidth = 0.353

func (p *Path) Bounds() Box { return p.Boundary }

// Outline parses the path data and returns page-space subpaths. Points are
// transformed by the CTM and then offset by the Boundary origin.
func (p *Path) Outline() ([]Subpath, error) {
	cmds, err := ParsePath(p.Data)
	if err != nil {
		return nil, err
	}
	m := Identity
	if p.CTM != nil {
		m = *p.CTM
	}
	m = m.Then(Matrix{A: 1, D: 1, E: p.Boundary.X, F: p.Boundary.Y})
	return Outline(cmds, m), nil
}

// Width returns the stroke width, falling back to DefaultLineWidth.
func (p *Path) Width() float64 {
	if p.LineWidth > 0 {
		return p.LineWidth
	}
	return DefaultLineWidth
}

// Image is an ImageObject referring to a multimedia resource.
type Image struct {
	ID         string
	Boundary   Box
	CTM        *Matrix
	ResourceID string
}

func (im *Image) Bounds() Box { return im.Boundary }

// Placement is the page area the image covers. The CTM maps the unit
// square into the Boundary's coordinate space; without one the image
// fills the Boundary.
func (im *Image) Placement() Box {
	if im.CTM == nil {
		return im.Boundary
	}
	m := *im.CTM
	xs := [4]float64{}
	ys := [4]float64{}
	for i, c := range [4][2]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		xs[i], ys[i] = m.Apply(c[0], c[1])
	}
	minX, maxX := xs[0], xs[0]
	minY, maxY := ys[0], ys[0]
	for i := 1; i < 4; i++ {
		minX, maxX = min(minX, xs[i]), max(maxX, xs[i])
		minY, maxY = min(minY, ys[i]), max(maxY, ys[i])
	}
	return Box{
		X: im.Boundary.X + minX,
		Y: im.Boundary.Y + minY,
		W: maxX - minX,
		H: maxY - minY,
	}
}

// Font is a PublicRes font entry.
type Font struct {
	ID         string
	Name       string
	Family     string
	Bold       bool
	Italic     bool
	Serif      bool
	FixedWidth bool
	Charset    string
	FileName   string
	File       []byte
}

// Media is a DocumentRes multimedia entry with its file content.
type Media struct {
	ID     string
	Type   string
	Format string
	Name   string
	Data   []byte
}

// Annotation is a visible page annotation with its appearance content.
type Annotation struct {
	ID       string
	Type     string
	Subtype  string
	Boundary Box
	Objects  []Object
}

// Seal is the stamp of an electronic signature.
type Seal struct {
	SignatureID string
	ID          string
	PageRef     string
	Boundary    Box
	SignedValue []byte
	// Images holds the seal pictures found in the signature data.
	Images      [][]byte
}

// Attachment is a file attached to the document.
type Attachment struct {
	ID     string
	Name   string
	Format string
	Data   []byte
}
