// Package contour turns the unordered segments of a planar cross-section
// into closed, classified polygon loops and derives the inward offsets a
// toolpath follows.
package contour

import (
	"fmt"
	"math"
	"sort"

	"github.com/chazu/strata/pkg/geom"
)

// DefaultTolerance is the endpoint matching distance used when none is given.
const DefaultTolerance = 1e-6

// OpenChainError reports a chain of segments that could neither be extended
// nor closed within tolerance.
type OpenChainError struct {
	Start, Tail geom.Point
	Gap         float64 // distance from tail to nearest unused endpoint, or to start
	Segments    int     // segments consumed by the chain
}

func (e *OpenChainError) Error() string {
	return fmt.Sprintf("contour: open chain of %d segments: tail (%.4f, %.4f) is %.4g from start (%.4f, %.4f)",
		e.Segments, e.Tail.X, e.Tail.Y, e.Gap, e.Start.X, e.Start.Y)
}

type endRef struct {
	seg int
	end int // 0 = A, 1 = B
}

// endpointIndex buckets segment endpoints in a grid whose cell size equals
// the tolerance, so any point within tolerance is in one of the 3x3
// neighbour cells.
type endpointIndex struct {
	cell  float64
	cells map[[2]int64][]endRef
}

func newEndpointIndex(segs []geom.Segment, tol float64) *endpointIndex {
	idx := &endpointIndex{cell: tol, cells: make(map[[2]int64][]endRef, len(segs)*2)}
	for i, s := range segs {
		idx.add(s.A, endRef{i, 0})
		idx.add(s.B, endRef{i, 1})
	}
	return idx
}

func (idx *endpointIndex) key(p geom.Point) [2]int64 {
	return [2]int64{int64(math.Floor(p.X / idx.cell)), int64(math.Floor(p.Y / idx.cell))}
}

func (idx *endpointIndex) add(p geom.Point, r endRef) {
	k := idx.key(p)
	idx.cells[k] = append(idx.cells[k], r)
}

// nearest returns the closest endpoint of an unused segment within tol of p.
// Ties go to the lower segment index so results do not depend on map order.
func (idx *endpointIndex) nearest(p geom.Point, segs []geom.Segment, used []bool, tol float64) (endRef, float64, bool) {
	k := idx.key(p)
	best := endRef{seg: -1}
	bestD := math.Inf(1)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, r := range idx.cells[[2]int64{k[0] + dx, k[1] + dy}] {
				if used[r.seg] {
					continue
				}
				q := segs[r.seg].A
				if r.end == 1 {
					q = segs[r.seg].B
				}
				d := geom.Dist(p, q)
				if d > tol {
					continue
				}
				if d < bestD || (d == bestD && (r.seg < best.seg || (r.seg == best.seg && r.end < best.end))) {
					best, bestD = r, d
				}
			}
		}
	}
	return best, bestD, best.seg >= 0
}

// Assemble chains segments into closed loops. Two segments join when an
// endpoint of one lies within tol of an endpoint of the other; either end may
// match, so input direction does not matter. Zero-length segments are
// dropped, and collinear or duplicate vertices are removed from the result.
// Loops that collapse to fewer than three vertices are discarded.
//
// A chain that cannot be closed yields an *OpenChainError.
func Assemble(segments []geom.Segment, tol float64) ([]geom.Loop, error) {
	if tol <= 0 || math.IsNaN(tol) {
		tol = DefaultTolerance
	}

	segs := make([]geom.Segment, 0, len(segments))
	for _, s := range segments {
		if !geom.Finite(s.A) || !geom.Finite(s.B) {
			return nil, fmt.Errorf("contour: non-finite segment %v", s)
		}
		if s.Length() > tol {
			segs = append(segs, s)
		}
	}
	if len(segs) == 0 {
		return nil, nil
	}

	idx := newEndpointIndex(segs, tol)
	used := make([]bool, len(segs))
	var loops []geom.Loop

	for i := range segs {
		if used[i] {
			continue
		}
		used[i] = true
		start := segs[i].A
		pts := []geom.Point{segs[i].A, segs[i].B}
		n := 1

		for {
			tail := pts[len(pts)-1]
			if len(pts) >= 3 && geom.Dist(tail, start) <= tol {
				pts = pts[:len(pts)-1]
				break
			}
			r, _, ok := idx.nearest(tail, segs, used, tol)
			if !ok {
				return nil, &OpenChainError{
					Start:    start,
					Tail:     tail,
					Gap:      geom.Dist(tail, start),
					Segments: n,
				}
			}
			used[r.seg] = true
			n++
			if r.end == 0 {
				pts = append(pts, segs[r.seg].B)
			} else {
				pts = append(pts, segs[r.seg].A)
			}
		}

		loop := simplify(geom.Loop(pts), tol)
		if len(loop) < 3 || loop.Area() <= tol*tol {
			continue
		}
		loops = append(loops, loop)
	}
	return loops, nil
}

// simplify removes repeated and collinear vertices.
func simplify(l geom.Loop, tol float64) geom.Loop {
	changed := true
	for changed && len(l) >= 3 {
		changed = false
		out := make(geom.Loop, 0, len(l))
		n := len(l)
		for i := 0; i < n; i++ {
			prev := l[(i+n-1)%n]
			if len(out) > 0 {
				prev = out[len(out)-1]
			}
			p, next := l[i], l[(i+1)%n]
			if geom.Dist(prev, p) <= tol {
				changed = true
				continue
			}
			u, v := p.Sub(prev), next.Sub(p)
			cross := u.X*v.Y - u.Y*v.X
			if math.Abs(cross) <= tol*(u.Length()+v.Length()) && u.Dot(v) > 0 {
				changed = true
				continue
			}
			out = append(out, p)
		}
		l = out
	}
	return l
}

// sortLoopsByArea orders loops largest first, keeping input order on ties.
func sortLoopsByArea(loops []geom.Loop) {
	sort.SliceStable(loops, func(i, j int) bool {
		return loops[i].Area() > loops[j].Area()
	})
}
