package contour

import (
	"sort"

	"github.com/chazu/strata/pkg/geom"
)

// Kind distinguishes material boundaries from holes.
type Kind int

const (
	Outer Kind = iota
	Inner
)

func (k Kind) String() string {
	if k == Inner {
		return "inner"
	}
	return "outer"
}

// Set is one outer loop, the holes directly inside it, and their offsets.
// Outer winds counter-clockwise and every inner loop clockwise.
type Set struct {
	Outer  geom.Loop   `json:"outer"`
	Inners []geom.Loop `json:"inners,omitempty"`

	// OuterOffsets are inward offsets of Outer, outermost first.
	OuterOffsets []geom.Loop `json:"outerOffsets,omitempty"`
	// InnerOffsets[i] are the offsets of Inners[i] into the material,
	// nearest the hole first.
	InnerOffsets [][]geom.Loop `json:"innerOffsets,omitempty"`

	RequestedOuter int `json:"requestedOuter"`
	RequestedInner int `json:"requestedInner"`
}

// Clamped reports whether fewer offsets were produced than requested.
func (s Set) Clamped() bool {
	if len(s.OuterOffsets) < s.RequestedOuter {
		return true
	}
	for i := range s.Inners {
		if i >= len(s.InnerOffsets) || len(s.InnerOffsets[i]) < s.RequestedInner {
			return true
		}
	}
	return false
}

// HatchBoundary returns the loop hatching stays inside: the innermost outer
// offset, or Outer itself when there are none.
func (s Set) HatchBoundary() geom.Loop {
	if n := len(s.OuterOffsets); n > 0 {
		return s.OuterOffsets[n-1]
	}
	return s.Outer
}

// HatchHoles returns, per hole, the loop hatching stays outside of: its
// outermost offset, or the hole itself.
func (s Set) HatchHoles() []geom.Loop {
	out := make([]geom.Loop, len(s.Inners))
	for i, h := range s.Inners {
		out[i] = h
		if i < len(s.InnerOffsets) {
			if n := len(s.InnerOffsets[i]); n > 0 {
				out[i] = s.InnerOffsets[i][n-1]
			}
		}
	}
	return out
}

// Classify groups loops by containment. A loop nested inside an even number
// of others is an outer boundary; an odd number makes it a hole of the
// smallest enclosing outer loop. Islands inside holes become sets of their
// own. Sets are ordered by descending outer area.
func Classify(loops []geom.Loop) []Set {
	n := len(loops)
	if n == 0 {
		return nil
	}
	areas := make([]float64, n)
	for i, l := range loops {
		areas[i] = l.Area()
	}

	// parents[i] lists the loops that contain loop i.
	parents := make([][]int, n)
	for i := range loops {
		first := loops[i][0]
		for j := range loops {
			if i == j || areas[j] <= areas[i] {
				continue
			}
			if loops[j].Contains(first) {
				parents[i] = append(parents[i], j)
			}
		}
	}

	setOf := make(map[int]int)
	var sets []Set
	for i := range loops {
		if len(parents[i])%2 == 0 {
			setOf[i] = len(sets)
			sets = append(sets, Set{Outer: loops[i].WithWinding(true)})
		}
	}
	for i := range loops {
		depth := len(parents[i])
		if depth%2 == 0 {
			continue
		}
		owner := -1
		for _, j := range parents[i] {
			if len(parents[j]) != depth-1 {
				continue
			}
			if owner < 0 || areas[j] < areas[owner] {
				owner = j
			}
		}
		if owner < 0 {
			continue
		}
		s := &sets[setOf[owner]]
		s.Inners = append(s.Inners, loops[i].WithWinding(false))
	}

	sort.SliceStable(sets, func(a, b int) bool {
		return sets[a].Outer.Area() > sets[b].Outer.Area()
	})
	for i := range sets {
		sortLoopsByArea(sets[i].Inners)
	}
	return sets
}
