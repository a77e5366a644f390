package ofd

import (
	"math"
	"strconv"
	"strings"
)

// A4 is the page box used when a document declares none.
var A4 = Box{W: 210, H: 297}

// PointsPerMM converts millimetres to PDF points (1/72 inch).
const PointsPerMM = 72 / 25.4

// MMToPt converts millimetres to points.
func MMToPt(mm float64) float64 { return mm * PointsPerMM }

// PtToMM converts points to millimetres.
func PtToMM(pt float64) float64 { return pt / PointsPerMM }

// PixelsToMM is the printed size of px pixels at dpi.
func PixelsToMM(px int, dpi float64) float64 { return float64(px) * 25.4 / dpi }

// Box is a rectangle in millimetres. X and Y locate the top-left corner.
type Box struct {
	X, Y, W, H float64
}

// ParseBox reads an "x y w h" attribute. Missing components are zero and
// unparseable tokens are skipped.
func ParseBox(s string) Box {
	v := parseFloats(s)
	var b Box
	dst := []*float64{&b.X, &b.Y, &b.W, &b.H}
	for i := 0; i < len(dst) && i < len(v); i++ {
		*dst[i] = v[i]
	}
	return b
}

// IsEmpty reports whether the box has no area.
func (b Box) IsEmpty() bool {
	return b.W <= 0 || b.H <= 0
}

// Union returns the smallest box containing both b and o.
func (b Box) Union(o Box) Box {
	if b.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return b
	}
	x0 := math.Min(b.X, o.X)
	y0 := math.Min(b.Y, o.Y)
	x1 := math.Max(b.X+b.W, o.X+o.W)
	y1 := math.Max(b.Y+b.H, o.Y+o.H)
	return Box{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

func (b Box) String() string {
	return FormatNumbers(b.X, b.Y, b.W, b.H)
}

// Matrix is a content transformation matrix "a b c d e f". A point (x, y)
// maps to (a*x + c*y + e, b*x + d*y + f).
type Matrix struct {
	A, B, C, D, E, F float64
}

// Identity is the matrix that leaves points unchanged.
var Identity = Matrix{A: 1, D: 1}

// ParseMatrix reads a CTM attribute. It reports false unless exactly six
// numbers are present.
func ParseMatrix(s string) (Matrix, bool) {
	v := parseFloats(s)
	if len(v) != 6 {
		return Identity, false
	}
	return Matrix{A: v[0], B: v[1], C: v[2], D: v[3], E: v[4], F: v[5]}, true
}

// Apply transforms a point.
func (m Matrix) Apply(x, y float64) (float64, float64) {
	return m.A*x + m.C*y + m.E, m.B*x + m.D*y + m.F
}

// Then returns the matrix that applies m first and n second.
func (m Matrix) Then(n Matrix) Matrix {
	return Matrix{
		A: m.A*n.A + m.B*n.C,
		B: m.A*n.B + m.B*n.D,
		C: m.C*n.A + m.D*n.C,
		D: m.C*n.B + m.D*n.D,
		E: m.E*n.A + m.F*n.C + n.E,
		F: m.E*n.B + m.F*n.D + n.F,
	}
}

// ScaleY is the vertical scale factor of the matrix, used for font sizes.
func (m Matrix) ScaleY() float64 {
	return math.Hypot(m.C, m.D)
}

func (m Matrix) String() string {
	return FormatNumbers(m.A, m.B, m.C, m.D, m.E, m.F)
}

// Color is an RGB color with 8-bit components.
type Color struct {
	R, G, B uint8
}

// Black is the default fill and stroke color.
var Black = Color{}

// ParseColor reads a "r g b" value. Anything with fewer than three
// components yields def; components are clamped to 0..255.
func ParseColor(s string, def Color) Color {
	v := parseFloats(s)
	if len(v) < 3 {
		return def
	}
	return Color{R: clampByte(v[0]), G: clampByte(v[1]), B: clampByte(v[2])}
}

func (c Color) String() string {
	return strconv.Itoa(int(c.R)) + " " + strconv.Itoa(int(c.G)) + " " + strconv.Itoa(int(c.B))
}

// ExpandDeltas returns n positions along one axis for the characters of a
// TextCode. start is the first character's position, already transformed.
//
// delta is a DeltaX or DeltaY attribute: plain numbers are added one per
// character after multiplying by scale, and "g N step" adds step N times.
// The g step is applied as written, without scale. An empty delta puts
// every character at start. The result is padded with its last value or
// truncated so that it always has n entries.
func ExpandDeltas(start float64, delta string, scale float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	pos := start
	out := make([]float64, 1, n)
	out[0] = pos

	tokens := strings.Fields(delta)
	for i := 0; i < len(tokens) && len(out) < n; {
		if tokens[i] == "g" {
			if i+2 >= len(tokens) {
				break
			}
			repeat, err1 := strconv.Atoi(tokens[i+1])
			step, err2 := strconv.ParseFloat(tokens[i+2], 64)
			i += 3
			if err1 != nil || err2 != nil || repeat < 0 {
				continue
			}
			for k := 0; k < repeat && len(out) < n; k++ {
				pos += step
				out = append(out, pos)
			}
			continue
		}
		v, err := strconv.ParseFloat(tokens[i], 64)
		i++
		if err != nil {
			continue
		}
		pos += v * scale
		out = append(out, pos)
	}

	for len(out) < n {
		out = append(out, pos)
	}
	return out
}

// FormatNumber renders a coordinate with at most three decimals.
func FormatNumber(v float64) string {
	r := math.Round(v*1000) / 1000
	if r == 0 {
		r = 0 // drop negative zero
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// FormatNumbers joins coordinates with single spaces.
func FormatNumbers(vs ...float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = FormatNumber(v)
	}
	return strings.Join(parts, " ")
}

func parseFloats(s string) []float64 {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n' || r == '\r'
	})
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseBool(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1":
		return true
	case "false", "0":
		return false
	}
	return def
}

func clampByte(v float64) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(math.Round(v))
}
