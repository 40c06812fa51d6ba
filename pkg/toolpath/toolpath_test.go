package toolpath

import (
	"math"
	"testing"

	"github.com/chazu/strata/pkg/contour"
	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/hatch"
)

func TestAssembleOrder(t *testing.T) {
	sets := contour.Classify([]geom.Loop{
		geom.Rectangle(0, 0, 10, 10),
		geom.Rectangle(4, 4, 6, 6),
		geom.Rectangle(20, 0, 26, 6),
	})
	p := contour.Params{NumOuter: 2, NumInner: 1, OuterSpacing: 0.5, InnerSpacing: 0.5}
	for i := range sets {
		s, err := contour.Offset(sets[i], p)
		if err != nil {
			t.Fatalf("Offset failed: %v", err)
		}
		sets[i] = s
	}
	hv := []hatch.Vector{
		{A: geom.Pt(1, 1), B: geom.Pt(2, 1)},
		{A: geom.Pt(2, 2), B: geom.Pt(1, 2), Reversed: true},
	}

	tp := Assemble(500, 0.5, sets, hv)
	if tp.LayerID != 500 || tp.Z != 0.5 {
		t.Errorf("LayerID, Z = %d, %v", tp.LayerID, tp.Z)
	}

	var types []SegmentType
	for _, s := range tp.Segments {
		types = append(types, s.Type)
	}
	want := []SegmentType{OuterContour, OuterContour, OuterContour, OuterContour, InnerContour, Hatch, Hatch}
	if len(types) != len(want) {
		t.Fatalf("segment types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("segment %d type = %v, want %v", i, types[i], want[i])
		}
	}

	// The first outer offset of the large set precedes its second.
	a0 := geom.Loop(tp.Segments[0].Points[:len(tp.Segments[0].Points)-1]).Area()
	a1 := geom.Loop(tp.Segments[1].Points[:len(tp.Segments[1].Points)-1]).Area()
	if !(a0 > a1) {
		t.Errorf("outermost offset should come first: areas %v, %v", a0, a1)
	}

	// Hatch endpoints are taken as given.
	last := tp.Segments[len(tp.Segments)-1]
	if last.Points[0] != geom.Pt(2, 2) || last.Points[1] != geom.Pt(1, 2) {
		t.Errorf("hatch endpoints changed: %v", last.Points)
	}
}

func TestAssemblePreservesWinding(t *testing.T) {
	sets := contour.Classify([]geom.Loop{geom.Rectangle(0, 0, 10, 10), geom.Rectangle(3, 3, 7, 7)})
	s, err := contour.Offset(sets[0], contour.Params{NumOuter: 1, NumInner: 1, OuterSpacing: 1, InnerSpacing: 1})
	if err != nil {
		t.Fatalf("Offset failed: %v", err)
	}
	tp := Assemble(0, 0, []contour.Set{s}, nil)
	for _, seg := range tp.Segments {
		pts := seg.Points
		if pts[0] != pts[len(pts)-1] {
			t.Errorf("%v segment is not closed", seg.Type)
		}
		ccw := geom.Loop(pts[:len(pts)-1]).IsCCW()
		if seg.Type == OuterContour && !ccw {
			t.Error("outer contour should be counter-clockwise")
		}
		if seg.Type == InnerContour && ccw {
			t.Error("inner contour should be clockwise")
		}
	}
}

func TestCountAndLength(t *testing.T) {
	tp := Toolpath{Segments: []Segment{
		{Type: OuterContour, Points: geom.Rectangle(0, 0, 1, 1).Closed()},
		{Type: Hatch, Points: []geom.Point{geom.Pt(0, 0), geom.Pt(3, 4)}},
		{Type: Hatch, Points: []geom.Point{geom.Pt(0, 0), geom.Pt(0, 1)}},
	}}
	if n := tp.Count(Hatch); n != 2 {
		t.Errorf("Count(Hatch) = %d, want 2", n)
	}
	if n := tp.Count(InnerContour); n != 0 {
		t.Errorf("Count(InnerContour) = %d, want 0", n)
	}
	if l := tp.Length(); math.Abs(l-10) > 1e-12 {
		t.Errorf("Length() = %v, want 10", l)
	}
}

func TestSegmentTypeString(t *testing.T) {
	if OuterContour.String() != "outer contour" || Hatch.String() != "hatch" || SegmentType(9).String() != "unknown" {
		t.Error("unexpected SegmentType strings")
	}
}
