package ofd

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Op is an abbreviated path data operator.
type Op byte

// Path operators.
const (
	OpStart Op = 'S' // start point, same as move
	OpMove  Op = 'M'
	OpLine  Op = 'L'
	OpQuad  Op = 'Q'
	OpCubic Op = 'B'
	OpArc   Op = 'A'
	OpClose Op = 'C'
)

var opArity = map[Op]int{
	OpStart: 2,
	OpMove:  2,
	OpLine:  2,
	OpQuad:  4,
	OpCubic: 6,
	OpArc:   7,
	OpClose: 0,
}

// Command is one operator with its operands.
type Command struct {
	Op   Op
	Args []float64
}

// ParsePath parses AbbreviatedData such as "M 0 0 L 10 0 L 10 5 C".
// A number where an operator is expected repeats the previous operator.
func ParsePath(s string) ([]Command, error) {
	tokens := strings.Fields(strings.ReplaceAll(s, ",", " "))
	var cmds []Command
	var last Op
	for i := 0; i < len(tokens); {
		tok := tokens[i]
		op := Op(0)
		if len(tok) == 1 {
			if _, ok := opArity[Op(tok[0])]; ok {
				op = Op(tok[0])
				i++
			}
		}
		if op == 0 {
			if _, err := strconv.ParseFloat(tok, 64); err != nil {
				return nil, fmt.Errorf("%w: unknown operator %q", ErrBadPath, tok)
			}
			if last == 0 || opArity[last] == 0 {
				return nil, fmt.Errorf("%w: operand %q without operator", ErrBadPath, tok)
			}
			op = last
		}

		n := opArity[op]
		if i+n > len(tokens) {
			return nil, fmt.Errorf("%w: %c needs %d operands", ErrBadPath, op, n)
		}
		args := make([]float64, n)
		for k := 0; k < n; k++ {
			v, err := strconv.ParseFloat(tokens[i+k], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: operand %q of %c", ErrBadPath, tokens[i+k], op)
			}
			args[k] = v
		}
		i += n
		cmds = append(cmds, Command{Op: op, Args: args})
		last = op
	}
	return cmds, nil
}

// PointKind tells how a path point is reached from the previous one.
type PointKind int

const (
	MoveTo PointKind = iota
	LineTo
	CurveTo
)

// PathPoint is an absolute point on an outline. Curve points carry their
// two control points.
type PathPoint struct {
	Kind     PointKind
	X, Y     float64
	C1X, C1Y float64
	C2X, C2Y float64
}

// Subpath is a run of points starting with a MoveTo.
type Subpath struct {
	Points []PathPoint
	Closed bool
}

// Outline converts commands into absolute subpaths. Each point is mapped
// through m; quadratic curves and arcs become cubic curves.
func Outline(cmds []Command, m Matrix) []Subpath {
	var (
		subs   []Subpath
		cx, cy float64 // current point, object space
		sx, sy float64 // subpath start, object space
	)
	add := func(p PathPoint) {
		last := &subs[len(subs)-1]
		last.Points = append(last.Points, p)
	}
	begin := func(x, y float64) {
		px, py := m.Apply(x, y)
		subs = append(subs, Subpath{Points: []PathPoint{{Kind: MoveTo, X: px, Y: py}}})
		cx, cy, sx, sy = x, y, x, y
	}
	ensure := func() {
		if len(subs) == 0 || subs[len(subs)-1].Closed {
			begin(cx, cy)
		}
	}
	curve := func(x1, y1, x2, y2, x, y float64) {
		ensure()
		ax, ay := m.Apply(x1, y1)
		bx, by := m.Apply(x2, y2)
		px, py := m.Apply(x, y)
		add(PathPoint{Kind: CurveTo, X: px, Y: py, C1X: ax, C1Y: ay, C2X: bx, C2Y: by})
		cx, cy = x, y
	}

	for _, c := range cmds {
		a := c.Args
		switch c.Op {
		case OpStart, OpMove:
			begin(a[0], a[1])
		case OpLine:
			ensure()
			px, py := m.Apply(a[0], a[1])
			add(PathPoint{Kind: LineTo, X: px, Y: py})
			cx, cy = a[0], a[1]
		case OpQuad:
			// Degree elevation of the quadratic segment.
			x1 := cx + 2.0/3.0*(a[0]-cx)
			y1 := cy + 2.0/3.0*(a[1]-cy)
			x2 := a[2] + 2.0/3.0*(a[0]-a[2])
			y2 := a[3] + 2.0/3.0*(a[1]-a[3])
			curve(x1, y1, x2, y2, a[2], a[3])
		case OpCubic:
			curve(a[0], a[1], a[2], a[3], a[4], a[5])
		case OpArc:
			for _, seg := range arcToCubics(cx, cy, a[0], a[1], a[2], a[3] != 0, a[4] != 0, a[5], a[6]) {
				curve(seg[0], seg[1], seg[2], seg[3], seg[4], seg[5])
			}
			cx, cy = a[5], a[6]
		case OpClose:
			if n := len(subs); n > 0 && !subs[n-1].Closed {
				subs[n-1].Closed = true
				cx, cy = sx, sy
			}
		}
	}
	return subs
}

// arcToCubics converts an SVG-style endpoint arc into cubic segments of at
// most 90 degrees each. Each segment is x1 y1 x2 y2 x y.
func arcToCubics(x0, y0, rx, ry, angle float64, large, sweep bool, x, y float64) [][6]float64 {
	if x0 == x && y0 == y {
		return nil
	}
	rx, ry = math.Abs(rx), math.Abs(ry)
	if rx == 0 || ry == 0 {
		return [][6]float64{{x0, y0, x, y, x, y}}
	}

	phi := angle * math.Pi / 180
	cosPhi, sinPhi := math.Cos(phi), math.Sin(phi)

	dx, dy := (x0-x)/2, (y0-y)/2
	x1p := cosPhi*dx + sinPhi*dy
	y1p := -sinPhi*dx + cosPhi*dy

	// Scale radii up when the endpoints are too far apart.
	if lambda := (x1p*x1p)/(rx*rx) + (y1p*y1p)/(ry*ry); lambda > 1 {
		s := math.Sqrt(lambda)
		rx, ry = rx*s, ry*s
	}

	num := rx*rx*ry*ry - rx*rx*y1p*y1p - ry*ry*x1p*x1p
	den := rx*rx*y1p*y1p + ry*ry*x1p*x1p
	coef := 0.0
	if den != 0 && num > 0 {
		coef = math.Sqrt(num / den)
	}
	if large == sweep {
		coef = -coef
	}
	cxp := coef * rx * y1p / ry
	cyp := -coef * ry * x1p / rx

	ccx := cosPhi*cxp - sinPhi*cyp + (x0+x)/2
	ccy := sinPhi*cxp + cosPhi*cyp + (y0+y)/2

	theta1 := vectorAngle(1, 0, (x1p-cxp)/rx, (y1p-cyp)/ry)
	delta := vectorAngle((x1p-cxp)/rx, (y1p-cyp)/ry, (-x1p-cxp)/rx, (-y1p-cyp)/ry)
	if !sweep && delta > 0 {
		delta -= 2 * math.Pi
	} else if sweep && delta < 0 {
		delta += 2 * math.Pi
	}

	n := int(math.Ceil(math.Abs(delta) / (math.Pi / 2)))
	if n == 0 {
		return nil
	}
	step := delta / float64(n)
	k := 4.0 / 3.0 * math.Tan(step/4)

	point := func(t float64) (float64, float64) {
		ex, ey := rx*math.Cos(t), ry*math.Sin(t)
		return cosPhi*ex - sinPhi*ey + ccx, sinPhi*ex + cosPhi*ey + ccy
	}
	deriv := func(t float64) (float64, float64) {
		ex, ey := -rx*math.Sin(t), ry*math.Cos(t)
		return cosPhi*ex - sinPhi*ey, sinPhi*ex + cosPhi*ey
	}

	segs := make([][6]float64, 0, n)
	t := theta1
	for i := 0; i < n; i++ {
		t2 := t + step
		px, py := point(t)
		qx, qy := point(t2)
		d1x, d1y := deriv(t)
		d2x, d2y := deriv(t2)
		segs = append(segs, [6]float64{
			px + k*d1x, py + k*d1y,
			qx - k*d2x, qy - k*d2y,
			qx, qy,
		})
		t = t2
	}
	// Land exactly on the requested end point.
	segs[n-1][4], segs[n-1][5] = x, y
	return segs
}

func vectorAngle(ux, uy, vx, vy float64) float64 {
	a := math.Atan2(uy, ux)
	b := math.Atan2(vy, vx)
	d := b - a
	for d > math.Pi {
		d -= 2 * math.Pi
	}
	for d <= -math.Pi {
		d += 2 * math.Pi
	}
	return d
}

// RectPath returns abbreviated data for a w×h rectangle at the origin.
func RectPath(w, h float64) string {
	return "M 0 0 L " + FormatNumbers(w, 0) + " L " + FormatNumbers(w, h) + " L " + FormatNumbers(0, h) + " C"
}
