package contour

import (
	"fmt"

	"github.com/chazu/strata/pkg/geom"
)

// Params controls contour offsetting.
type Params struct {
	NumOuter     int     // inward offsets of each outer loop
	NumInner     int     // offsets of each hole into the material
	OuterSpacing float64 // distance between successive outer offsets, mm
	InnerSpacing float64 // distance between successive hole offsets, mm
	Scale        float64 // Clipper grid scale; DefaultScale when zero
}

// Validate checks counts and spacings.
func (p Params) Validate() error {
	if p.NumOuter < 0 || p.NumInner < 0 {
		return fmt.Errorf("contour: negative offset count (outer %d, inner %d)", p.NumOuter, p.NumInner)
	}
	if p.NumOuter > 0 && !(p.OuterSpacing > 0) {
		return fmt.Errorf("contour: outer offset spacing must be positive, got %g", p.OuterSpacing)
	}
	if p.NumInner > 0 && !(p.InnerSpacing > 0) {
		return fmt.Errorf("contour: inner offset spacing must be positive, got %g", p.InnerSpacing)
	}
	return nil
}

func (p Params) scale() float64 {
	if p.Scale > 0 {
		return p.Scale
	}
	return DefaultScale
}

// Offset fills in the offsets of a set. Outer offsets move inward by
// k*OuterSpacing and hole offsets grow the hole by k*InnerSpacing, for
// k = 1..N. Offsetting stops early for a loop once the next offset would
// vanish, split into several loops, fail to shrink (outer) or grow (hole),
// or touch another contour: an outer offset must keep every hole strictly
// inside it, and a hole offset must stay strictly inside the innermost outer
// offset and clear of every other hole and its offsets. Outer offsets are
// placed first; holes then grow one ring at a time, so neighbouring holes
// share the material between them. Offsets keep the winding of their source
// loop.
func Offset(s Set, p Params) (Set, error) {
	if err := p.Validate(); err != nil {
		return s, err
	}
	scale := p.scale()
	margin := clearance / scale
	s.RequestedOuter = p.NumOuter
	s.RequestedInner = p.NumInner
	s.OuterOffsets = nil
	s.InnerOffsets = make([][]geom.Loop, len(s.Inners))

	prevArea := s.Outer.Area()
	for k := 1; k <= p.NumOuter; k++ {
		res := offsetLoop(s.Outer, -float64(k)*p.OuterSpacing, scale)
		if len(res) != 1 {
			break
		}
		l := res[0].WithWinding(true)
		a := l.Area()
		if !(a < prevArea) || a <= 1/(scale*scale) || !enclosesAll(l, s.Inners, margin, scale) {
			break
		}
		s.OuterOffsets = append(s.OuterOffsets, l)
		prevArea = a
	}

	boundary := s.Outer
	if n := len(s.OuterOffsets); n > 0 {
		boundary = s.OuterOffsets[n-1]
	}

	// extent[i] is the outermost loop accepted so far for hole i.
	extent := make([]geom.Loop, len(s.Inners))
	copy(extent, s.Inners)
	growing := make([]bool, len(s.Inners))
	for i := range growing {
		growing[i] = true
	}
	for k := 1; k <= p.NumInner; k++ {
		for i, hole := range s.Inners {
			if !growing[i] {
				continue
			}
			l, ok := growHole(hole, float64(k)*p.InnerSpacing, extent, i, boundary, margin, scale)
			if !ok {
				growing[i] = false
				continue
			}
			s.InnerOffsets[i] = append(s.InnerOffsets[i], l)
			extent[i] = l
		}
	}
	return s, nil
}

// growHole offsets hole i by delta and reports whether the result may be
// kept given the current extents of all holes and the boundary it must stay
// inside.
func growHole(hole geom.Loop, delta float64, extent []geom.Loop, i int, boundary geom.Loop, margin, scale float64) (geom.Loop, bool) {
	res := offsetLoop(hole, delta, scale)
	if len(res) != 1 {
		return nil, false
	}
	l := res[0].WithWinding(false)
	if !(l.Area() > extent[i].Area()) || !within(l, boundary, margin, scale) {
		return nil, false
	}
	for j, other := range extent {
		if j != i && overlaps(l, other, margin, scale) {
			return nil, false
		}
	}
	return l, true
}

// enclosesAll reports whether every loop of inner lies strictly inside l.
func enclosesAll(l geom.Loop, inner []geom.Loop, margin, scale float64) bool {
	for _, h := range inner {
		if !within(h, l, margin, scale) {
			return false
		}
	}
	return true
}

// Build runs the full contour stage for one layer: assemble, classify and
// offset.
func Build(segments []geom.Segment, tol float64, p Params) ([]Set, error) {
	loops, err := Assemble(segments, tol)
	if err != nil {
		return nil, err
	}
	sets := Classify(loops)
	for i := range sets {
		out, err := Offset(sets[i], p)
		if err != nil {
			return nil, err
		}
		sets[i] = out
	}
	return sets, nil
}
