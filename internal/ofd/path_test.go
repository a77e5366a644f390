package ofd_test

import (
	"errors"
	"testing"

	"github.com/ranvane/pdf4ofd/internal/ofd"
)

// ---------------------------------------------------------------------------
// TestParsePath - Abbreviated path data
// ---------------------------------------------------------------------------

func TestParsePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantOps string
		wantErr error
	}{
		{name: "rectangle", input: "M 0 0 L 10 0 L 10 5 L 0 5 C", wantOps: "MLLLC"},
		{name: "start point", input: "S 0 0 L 1 1", wantOps: "SL"},
		{name: "implicit repeat", input: "M 0 0 L 1 1 2 2 3 3", wantOps: "MLLL"},
		{name: "commas", input: "M 0,0 L 1,1", wantOps: "ML"},
		{name: "curves", input: "M 0 0 Q 1 1 2 0 B 1 1 2 2 3 3", wantOps: "MQB"},
		{name: "arc", input: "M 0 0 A 5 5 0 0 1 10 0", wantOps: "MA"},
		{name: "empty", input: "", wantOps: ""},
		{name: "unknown operator", input: "M 0 0 X 1", wantErr: ofd.ErrBadPath},
		{name: "operand first", input: "1 2", wantErr: ofd.ErrBadPath},
		{name: "too few operands", input: "M 1", wantErr: ofd.ErrBadPath},
		{name: "operand after close", input: "M 0 0 C 1", wantErr: ofd.ErrBadPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cmds, err := ofd.ParsePath(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParsePath(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePath(%q) unexpected error: %v", tt.input, err)
			}
			var ops []byte
			for _, c := range cmds {
				ops = append(ops, byte(c.Op))
			}
			if string(ops) != tt.wantOps {
				t.Errorf("ops = %q, want %q", ops, tt.wantOps)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestOutline - Absolute subpaths
// ---------------------------------------------------------------------------

func TestOutline_Rectangle(t *testing.T) {
	t.Parallel()

	p := &ofd.Path{
		Boundary: ofd.Box{X: 5, Y: 5, W: 10, H: 5},
		Data:     ofd.RectPath(10, 5),
	}
	subs, err := p.Outline()
	if err != nil {
		t.Fatalf("Outline() error: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("got %d subpaths, want 1", len(subs))
	}
	sub := subs[0]
	if !sub.Closed {
		t.Error("subpath not closed")
	}
	want := [][2]float64{{5, 5}, {15, 5}, {15, 10}, {5, 10}}
	if len(sub.Points) != len(want) {
		t.Fatalf("got %d points, want %d", len(sub.Points), len(want))
	}
	for i, w := range want {
		pt := sub.Points[i]
		if !approx(pt.X, w[0]) || !approx(pt.Y, w[1]) {
			t.Errorf("point %d = (%v,%v), want (%v,%v)", i, pt.X, pt.Y, w[0], w[1])
		}
	}
	if sub.Points[0].Kind != ofd.MoveTo || sub.Points[1].Kind != ofd.LineTo {
		t.Errorf("kinds = %v,%v, want MoveTo,LineTo", sub.Points[0].Kind, sub.Points[1].Kind)
	}
}

func TestOutline_CTM(t *testing.T) {
	t.Parallel()

	ctm := ofd.Matrix{A: 2, D: 2, E: 1}
	p := &ofd.Path{Boundary: ofd.Box{X: 10, Y: 10}, CTM: &ctm, Data: "M 0 0 L 3 4"}
	subs, err := p.Outline()
	if err != nil {
		t.Fatalf("Outline() error: %v", err)
	}
	end := subs[0].Points[1]
	if !approx(end.X, 17) || !approx(end.Y, 18) {
		t.Errorf("end = (%v,%v), want (17,18)", end.X, end.Y)
	}
}

func TestOutline_QuadraticElevation(t *testing.T) {
	t.Parallel()

	cmds, err := ofd.ParsePath("M 0 0 Q 3 3 6 0")
	if err != nil {
		t.Fatal(err)
	}
	subs := ofd.Outline(cmds, ofd.Identity)
	c := subs[0].Points[1]
	if c.Kind != ofd.CurveTo {
		t.Fatalf("kind = %v, want CurveTo", c.Kind)
	}
	if !approx(c.C1X, 2) || !approx(c.C1Y, 2) || !approx(c.C2X, 4) || !approx(c.C2Y, 2) {
		t.Errorf("controls = (%v,%v) (%v,%v), want (2,2) (4,2)", c.C1X, c.C1Y, c.C2X, c.C2Y)
	}
	if !approx(c.X, 6) || !approx(c.Y, 0) {
		t.Errorf("end = (%v,%v), want (6,0)", c.X, c.Y)
	}
}

func TestOutline_ArcSplitsIntoQuarters(t *testing.T) {
	t.Parallel()

	cmds, err := ofd.ParsePath("M 0 0 A 10 10 0 0 1 20 0")
	if err != nil {
		t.Fatal(err)
	}
	subs := ofd.Outline(cmds, ofd.Identity)
	pts := subs[0].Points
	// Move plus two 90 degree segments for a half circle.
	if len(pts) != 3 {
		t.Fatalf("got %d points, want 3", len(pts))
	}
	last := pts[len(pts)-1]
	if !approx(last.X, 20) || !approx(last.Y, 0) {
		t.Errorf("arc end = (%v,%v), want (20,0)", last.X, last.Y)
	}
	mid := pts[1]
	if !approx(mid.X, 10) || !approx(abs(mid.Y), 10) {
		t.Errorf("arc midpoint = (%v,%v), want (10,±10)", mid.X, mid.Y)
	}
}

func TestOutline_LineAfterClose(t *testing.T) {
	t.Parallel()

	cmds, err := ofd.ParsePath("M 1 1 L 5 1 C L 1 5")
	if err != nil {
		t.Fatal(err)
	}
	subs := ofd.Outline(cmds, ofd.Identity)
	if len(subs) != 2 {
		t.Fatalf("got %d subpaths, want 2", len(subs))
	}
	start := subs[1].Points[0]
	if start.Kind != ofd.MoveTo || start.X != 1 || start.Y != 1 {
		t.Errorf("second subpath starts at %+v, want MoveTo (1,1)", start)
	}
}

func TestRectPath(t *testing.T) {
	t.Parallel()

	if got, want := ofd.RectPath(10, 5.5), "M 0 0 L 10 0 L 10 5.5 L 0 5.5 C"; got != want {
		t.Errorf("RectPath = %q, want %q", got, want)
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
