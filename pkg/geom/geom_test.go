package geom

import (
	"math"
	"testing"
)

func TestSignedArea(t *testing.T) {
	tests := []struct {
		name string
		loop Loop
		want float64
	}{
		{"empty", nil, 0},
		{"two points", Loop{Pt(0, 0), Pt(1, 1)}, 0},
		{"ccw unit square", Rectangle(0, 0, 1, 1), 1},
		{"cw unit square", Rectangle(0, 0, 1, 1).Reversed(), -1},
		{"ccw triangle", Loop{Pt(0, 0), Pt(4, 0), Pt(0, 3)}, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.loop.SignedArea(); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("SignedArea() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWithWinding(t *testing.T) {
	sq := Rectangle(0, 0, 2, 2)
	if !sq.WithWinding(true).IsCCW() {
		t.Error("WithWinding(true) should be CCW")
	}
	if sq.WithWinding(false).IsCCW() {
		t.Error("WithWinding(false) should be CW")
	}
	cw := sq.Reversed()
	if cw[0] != sq[3] || cw[3] != sq[0] {
		t.Errorf("Reversed() = %v", cw)
	}
}

func TestContains(t *testing.T) {
	sq := Rectangle(0, 0, 10, 10)
	tests := []struct {
		p    Point
		want bool
	}{
		{Pt(5, 5), true},
		{Pt(0.1, 9.9), true},
		{Pt(-1, 5), false},
		{Pt(5, 11), false},
		{Pt(20, 20), false},
	}
	for _, tt := range tests {
		if got := sq.Contains(tt.p); got != tt.want {
			t.Errorf("Contains(%v) = %v, want %v", tt.p, got, tt.want)
		}
		if got := sq.Reversed().Contains(tt.p); got != tt.want {
			t.Errorf("reversed Contains(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestLoopClosedAndPerimeter(t *testing.T) {
	sq := Rectangle(0, 0, 3, 1)
	c := sq.Closed()
	if len(c) != 5 || c[0] != c[4] {
		t.Fatalf("Closed() = %v", c)
	}
	if p := sq.Perimeter(); math.Abs(p-8) > 1e-12 {
		t.Errorf("Perimeter() = %v, want 8", p)
	}
	if Loop(nil).Closed() != nil {
		t.Error("Closed() of empty loop should be nil")
	}
}

func TestBoundingBoxNormalize(t *testing.T) {
	t.Run("already ordered", func(t *testing.T) {
		b := BoundingBox{0, 0, 0, 10, 10, 1}
		got, swapped := b.Normalize()
		if swapped || got != b {
			t.Errorf("Normalize() = %v, %v", got, swapped)
		}
	})
	t.Run("inverted z", func(t *testing.T) {
		b := BoundingBox{XMin: 0, YMin: 0, ZMin: 5, XMax: 1, YMax: 1, ZMax: 2}
		got, swapped := b.Normalize()
		if !swapped {
			t.Fatal("expected swap")
		}
		if got.ZMin != 2 || got.ZMax != 5 {
			t.Errorf("Normalize() z = [%v, %v], want [2, 5]", got.ZMin, got.ZMax)
		}
	})
}

func TestBoundingBoxFinite(t *testing.T) {
	if !(BoundingBox{0, 0, 0, 1, 1, 1}).Finite() {
		t.Error("finite box reported non-finite")
	}
	if (BoundingBox{ZMax: math.NaN()}).Finite() {
		t.Error("NaN box reported finite")
	}
	if (BoundingBox{XMin: math.Inf(-1)}).Finite() {
		t.Error("Inf box reported finite")
	}
}

func TestRect(t *testing.T) {
	r := EmptyRect()
	if !r.IsEmpty() {
		t.Fatal("EmptyRect should be empty")
	}
	r = r.Extend(Pt(1, 2)).Extend(Pt(-1, 5))
	if r.Min != Pt(-1, 2) || r.Max != Pt(1, 5) {
		t.Errorf("Extend = %+v", r)
	}
	if r.Dx() != 2 || r.Dy() != 3 {
		t.Errorf("Dx, Dy = %v, %v", r.Dx(), r.Dy())
	}
	u := r.Union(EmptyRect())
	if u != r {
		t.Errorf("Union with empty changed rect: %+v", u)
	}
}

func TestSegment(t *testing.T) {
	s := Segment{A: Pt(0, 0), B: Pt(3, 4)}
	if s.Length() != 5 {
		t.Errorf("Length() = %v, want 5", s.Length())
	}
	f := s.Flip()
	if f.A != s.B || f.B != s.A {
		t.Errorf("Flip() = %v", f)
	}
	if !NearlyEqual(Pt(0, 0), Pt(0, 1e-7), 1e-6) {
		t.Error("NearlyEqual should accept points within tolerance")
	}
	if Finite(Pt(math.NaN(), 0)) {
		t.Error("Finite should reject NaN")
	}
}
