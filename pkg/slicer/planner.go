package slicer

import (
	"math"

	"github.com/chazu/strata/pkg/geom"
)

// MaxLayers bounds a single plan.
const MaxLayers = 1 << 24

// planEpsilon admits a final height that lands on ZMax up to rounding.
const planEpsilon = 1e-9

// PlanLayers returns the cut heights for a solid with bounding box bb:
// z_i = ZMin + i*thickness for every i with z_i <= ZMax (within 1e-9).
// An inverted Z range is swapped with a warning. Thickness that is not
// positive and finite, a range of zero height, or a plan longer than
// MaxLayers yields a *DegenerateRangeError.
func PlanLayers(bb geom.BoundingBox, thickness float64) ([]float64, error) {
	if bb.ZMin > bb.ZMax {
		Logger().Warn("inverted z range, swapping", "zmin", bb.ZMin, "zmax", bb.ZMax)
		bb.ZMin, bb.ZMax = bb.ZMax, bb.ZMin
	}
	degenerate := func(reason string) error {
		return &DegenerateRangeError{ZMin: bb.ZMin, ZMax: bb.ZMax, Thickness: thickness, Reason: reason}
	}

	switch {
	case math.IsNaN(thickness) || math.IsInf(thickness, 0):
		return nil, degenerate("thickness is not finite")
	case thickness <= 0:
		return nil, degenerate("thickness must be positive")
	case math.IsNaN(bb.ZMin) || math.IsNaN(bb.ZMax) || math.IsInf(bb.ZMin, 0) || math.IsInf(bb.ZMax, 0):
		return nil, degenerate("z range is not finite")
	case bb.ZMax-bb.ZMin <= 0:
		return nil, degenerate("z range has zero height")
	}

	n := math.Floor((bb.ZMax-bb.ZMin+planEpsilon)/thickness) + 1
	if n > MaxLayers {
		return nil, degenerate("too many layers")
	}

	zs := make([]float64, 0, int(n))
	for i := 0; ; i++ {
		z := bb.ZMin + float64(i)*thickness
		if z > bb.ZMax+planEpsilon {
			break
		}
		zs = append(zs, z)
	}
	return zs, nil
}

// LayerID is the integer key of a layer at height z: round(z * 1000).
func LayerID(z float64) int64 {
	return int64(math.Round(z * 1000))
}
