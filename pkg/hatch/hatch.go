// Package hatch fills layer regions with families of parallel scan vectors.
// The line family of each layer is rotated by a per-layer angle and the
// resulting vectors are ordered by a pluggable sort policy.
package hatch

import (
	"fmt"
	"math"

	"seehuhn.de/go/geom/matrix"

	"github.com/chazu/strata/pkg/contour"
	"github.com/chazu/strata/pkg/geom"
)

// DefaultAngleIncrement is the rotation applied between consecutive layers,
// in degrees.
const DefaultAngleIncrement = 66.7

// Vector is one straight hatch stroke from A to B.
type Vector struct {
	A        geom.Point `json:"a"`
	B        geom.Point `json:"b"`
	Line     int        `json:"line"`     // index of the scan line within the family
	Reversed bool       `json:"reversed"` // traversed against the family direction
}

// Length returns the stroke length.
func (v Vector) Length() float64 {
	return geom.Dist(v.A, v.B)
}

// Flip exchanges the endpoints and toggles Reversed.
func (v Vector) Flip() Vector {
	return Vector{A: v.B, B: v.A, Line: v.Line, Reversed: !v.Reversed}
}

// Angle returns the hatch angle of layer index: base + index*increment
// degrees. No modulo is applied; see Normalize for display.
func Angle(base, increment float64, index int) float64 {
	return base + float64(index)*increment
}

// Normalize maps an angle in degrees into [0, 360).
func Normalize(deg float64) float64 {
	r := math.Mod(deg, 360)
	if r < 0 {
		r += 360
	}
	return r
}

// Hatcher generates hatch vectors for a layer.
type Hatcher struct {
	Spacing      float64    // distance between scan lines, mm
	VolumeOffset float64    // extra inset of the hatch region, mm
	Policy       SortPolicy // nil means AlternateSort
	Scale        float64    // Clipper grid scale; contour.DefaultScale when zero
	MinLength    float64    // shorter pieces are discarded; 1e-6 when zero
}

func apply(m matrix.Matrix, p geom.Point) geom.Point {
	x, y := m.Apply(p.X, p.Y)
	return geom.Pt(x, y)
}

// Region returns the loops hatching fills for the given sets: each set's
// hatch boundary minus its hatch holes, inset by VolumeOffset.
func (h *Hatcher) Region(sets []contour.Set) []geom.Loop {
	scale := h.scale()
	var region []geom.Loop
	for _, s := range sets {
		r := contour.Region(s.HatchBoundary(), s.HatchHoles(), scale)
		if h.VolumeOffset > 0 {
			r = contour.OffsetRegion(r, -h.VolumeOffset, scale)
		}
		region = append(region, r...)
	}
	return region
}

func (h *Hatcher) scale() float64 {
	if h.Scale > 0 {
		return h.Scale
	}
	return contour.DefaultScale
}

// Hatch fills the sets with parallel lines at angleDeg degrees (measured
// counter-clockwise from +X) and returns them in policy order.
func (h *Hatcher) Hatch(sets []contour.Set, angleDeg float64) ([]Vector, error) {
	if !(h.Spacing > 0) || math.IsInf(h.Spacing, 0) {
		return nil, fmt.Errorf("hatch: spacing must be positive and finite, got %g", h.Spacing)
	}
	if math.IsNaN(angleDeg) || math.IsInf(angleDeg, 0) {
		return nil, fmt.Errorf("hatch: invalid angle %g", angleDeg)
	}
	region := h.Region(sets)
	if len(region) == 0 {
		return nil, nil
	}

	scale := h.scale()
	if h.Spacing*scale < 1 {
		return nil, fmt.Errorf("hatch: spacing %g is below the %g mm grid", h.Spacing, 1/scale)
	}

	// Hatch in a frame where the scan lines are horizontal.
	toFrame := matrix.RotateDeg(-angleDeg)
	fromFrame := matrix.RotateDeg(angleDeg)

	rotated := make([]geom.Loop, len(region))
	bounds := geom.EmptyRect()
	for i, l := range region {
		r := make(geom.Loop, len(l))
		for j, p := range l {
			r[j] = apply(toFrame, p)
			bounds = bounds.Extend(r[j])
		}
		rotated[i] = r
	}

	var ys []float64
	for k := 0; ; k++ {
		y := bounds.Min.Y + (float64(k)+0.5)*h.Spacing
		if y >= bounds.Max.Y {
			break
		}
		ys = append(ys, y)
	}
	if len(ys) == 0 {
		return nil, nil
	}

	pieces, err := clipLines(rotated, ys, bounds.Min.X-1, bounds.Max.X+1, h.Spacing, scale)
	if err != nil {
		return nil, err
	}

	minLen := h.MinLength
	if minLen <= 0 {
		minLen = 1e-6
	}

	var out []Vector
	for k, y := range ys {
		for _, iv := range pieces[k] {
			if iv.hi-iv.lo <= minLen {
				continue
			}
			out = append(out, Vector{
				A:    apply(fromFrame, geom.Pt(iv.lo, y)),
				B:    apply(fromFrame, geom.Pt(iv.hi, y)),
				Line: k,
			})
		}
	}

	policy := h.Policy
	if policy == nil {
		policy = AlternateSort{}
	}
	return policy.Sort(out), nil
}
