package hatch

import (
	"fmt"
	"sort"

	"github.com/chazu/strata/pkg/geom"
)

// SortPolicy orders hatch vectors and chooses their traversal direction.
// Implementations must not modify the input slice.
type SortPolicy interface {
	Sort(vs []Vector) []Vector
}

// PolicyByName returns the policy registered under name: "alternate",
// "unidirectional" or "greedy".
func PolicyByName(name string) (SortPolicy, error) {
	switch name {
	case "", "alternate":
		return AlternateSort{}, nil
	case "unidirectional":
		return UnidirectionalSort{}, nil
	case "greedy":
		return GreedySort{}, nil
	}
	return nil, fmt.Errorf("hatch: unknown sort policy %q", name)
}

// canonical returns a copy of vs with every vector pointing along the family
// direction, ordered by scan line and then by position along the line.
func canonical(vs []Vector) []Vector {
	out := make([]Vector, len(vs))
	copy(out, vs)
	for i, v := range out {
		if v.Reversed {
			out[i] = v.Flip()
		}
	}
	dir := familyDirection(out)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].A.Dot(dir) < out[j].A.Dot(dir)
	})
	return out
}

func familyDirection(vs []Vector) geom.Point {
	for _, v := range vs {
		d := v.B.Sub(v.A)
		if l := d.Length(); l > 0 {
			return d.Mul(1 / l)
		}
	}
	return geom.Pt(1, 0)
}

// AlternateSort visits vectors line by line and reverses every other
// vector, giving a zig-zag scan.
type AlternateSort struct{}

func (AlternateSort) Sort(vs []Vector) []Vector {
	out := canonical(vs)
	for i := 1; i < len(out); i += 2 {
		out[i] = out[i].Flip()
	}
	return out
}

// UnidirectionalSort visits vectors line by line, all in the family
// direction.
type UnidirectionalSort struct{}

func (UnidirectionalSort) Sort(vs []Vector) []Vector {
	return canonical(vs)
}

// GreedySort starts at the first canonical vector and repeatedly jumps to
// the unvisited vector with the nearest endpoint, entering it from that end.
type GreedySort struct{}

func (GreedySort) Sort(vs []Vector) []Vector {
	in := canonical(vs)
	if len(in) == 0 {
		return in
	}
	used := make([]bool, len(in))
	out := make([]Vector, 0, len(in))
	out = append(out, in[0])
	used[0] = true
	pos := in[0].B
	for len(out) < len(in) {
		best, flip := -1, false
		bestD := 0.0
		for i, v := range in {
			if used[i] {
				continue
			}
			if d := geom.Dist(pos, v.A); best < 0 || d < bestD {
				best, bestD, flip = i, d, false
			}
			if d := geom.Dist(pos, v.B); d < bestD {
				best, bestD, flip = i, d, true
			}
		}
		v := in[best]
		if flip {
			v = v.Flip()
		}
		used[best] = true
		out = append(out, v)
		pos = v.B
	}
	return out
}
