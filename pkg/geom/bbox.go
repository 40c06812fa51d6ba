package geom

import "math"

// BoundingBox is an axis-aligned box in model space (millimetres).
type BoundingBox struct {
	XMin, YMin, ZMin float64
	XMax, YMax, ZMax float64
}

// BoxFromCorners builds a BoundingBox from the min/max corner arrays used by
// kernel solids.
func BoxFromCorners(min, max [3]float64) BoundingBox {
	return BoundingBox{
		XMin: min[0], YMin: min[1], ZMin: min[2],
		XMax: max[0], YMax: max[1], ZMax: max[2],
	}
}

// Normalize returns a copy with min <= max on every axis. swapped is true when
// at least one axis had to be exchanged.
func (b BoundingBox) Normalize() (out BoundingBox, swapped bool) {
	out = b
	if out.XMin > out.XMax {
		out.XMin, out.XMax = out.XMax, out.XMin
		swapped = true
	}
	if out.YMin > out.YMax {
		out.YMin, out.YMax = out.YMax, out.YMin
		swapped = true
	}
	if out.ZMin > out.ZMax {
		out.ZMin, out.ZMax = out.ZMax, out.ZMin
		swapped = true
	}
	return out, swapped
}

// Height returns ZMax - ZMin.
func (b BoundingBox) Height() float64 {
	return b.ZMax - b.ZMin
}

// Size returns the extent along each axis.
func (b BoundingBox) Size() [3]float64 {
	return [3]float64{b.XMax - b.XMin, b.YMax - b.YMin, b.ZMax - b.ZMin}
}

// Finite reports whether every bound is a finite number.
func (b BoundingBox) Finite() bool {
	for _, v := range []float64{b.XMin, b.YMin, b.ZMin, b.XMax, b.YMax, b.ZMax} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Rect is a 2D extent in the layer plane.
type Rect struct {
	Min, Max Point
}

// EmptyRect returns a Rect that any Extend call will replace.
func EmptyRect() Rect {
	return Rect{
		Min: Pt(math.Inf(1), math.Inf(1)),
		Max: Pt(math.Inf(-1), math.Inf(-1)),
	}
}

// Extend grows r to include p.
func (r Rect) Extend(p Point) Rect {
	r.Min.X = math.Min(r.Min.X, p.X)
	r.Min.Y = math.Min(r.Min.Y, p.Y)
	r.Max.X = math.Max(r.Max.X, p.X)
	r.Max.Y = math.Max(r.Max.Y, p.Y)
	return r
}

// Union returns the smallest Rect containing r and o.
func (r Rect) Union(o Rect) Rect {
	if o.IsEmpty() {
		return r
	}
	return r.Extend(o.Min).Extend(o.Max)
}

// IsEmpty reports whether r contains no points.
func (r Rect) IsEmpty() bool {
	return r.Min.X > r.Max.X || r.Min.Y > r.Max.Y
}

// Dx returns the width of r.
func (r Rect) Dx() float64 { return r.Max.X - r.Min.X }

// Dy returns the height of r.
func (r Rect) Dy() float64 { return r.Max.Y - r.Min.Y }
