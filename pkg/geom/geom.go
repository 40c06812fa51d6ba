// Package geom holds the plane-local and spatial value types shared by the
// slicing pipeline: points, raw section segments, closed polygon loops and
// axis-aligned bounding boxes.
package geom

import (
	"math"

	"seehuhn.de/go/geom/vec"
)

// Point is a coordinate in the plane of a layer.
type Point = vec.Vec2

// Pt is shorthand for constructing a Point.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Dist returns the Euclidean distance between a and b.
func Dist(a, b Point) float64 {
	return b.Sub(a).Length()
}

// NearlyEqual reports whether a and b are within tol of each other.
func NearlyEqual(a, b Point, tol float64) bool {
	return Dist(a, b) <= tol
}

// Segment is one straight piece of a raw planar cross-section. Segments are
// emitted by a geometry provider in no particular order or direction.
type Segment struct {
	A, B Point
}

// Length returns the length of the segment.
func (s Segment) Length() float64 {
	return Dist(s.A, s.B)
}

// Flip returns the segment with its endpoints exchanged.
func (s Segment) Flip() Segment {
	return Segment{A: s.B, B: s.A}
}

// Finite reports whether every coordinate of p is a finite number.
func Finite(p Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}
