// Package toolpath orders a layer's contours and hatch vectors into the
// sequence a machine traverses.
package toolpath

import (
	"github.com/samber/lo"

	"github.com/chazu/strata/pkg/contour"
	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/hatch"
)

// SegmentType tags what a toolpath segment traces.
type SegmentType int

const (
	OuterContour SegmentType = iota
	InnerContour
	Hatch
)

func (t SegmentType) String() string {
	switch t {
	case OuterContour:
		return "outer contour"
	case InnerContour:
		return "inner contour"
	case Hatch:
		return "hatch"
	}
	return "unknown"
}

// Segment is one continuous stroke. Closed contours list their first point
// again at the end.
type Segment struct {
	Type   SegmentType  `json:"type"`
	Points []geom.Point `json:"points"`
}

// Length returns the stroke length.
func (s Segment) Length() float64 {
	var sum float64
	for i := 1; i < len(s.Points); i++ {
		sum += geom.Dist(s.Points[i-1], s.Points[i])
	}
	return sum
}

// Toolpath is the ordered stroke list for one layer.
type Toolpath struct {
	LayerID  int64     `json:"layerId"`
	Z        float64   `json:"z"`
	Segments []Segment `json:"segments"`
}

// Count returns the number of segments of type t.
func (tp Toolpath) Count(t SegmentType) int {
	return lo.CountBy(tp.Segments, func(s Segment) bool { return s.Type == t })
}

// Length returns the summed stroke length.
func (tp Toolpath) Length() float64 {
	return lo.SumBy(tp.Segments, func(s Segment) float64 { return s.Length() })
}

// Assemble orders a layer: the outer offsets of every set (outermost first),
// then the hole offsets of every set, then hatch vectors in the order given.
// Contours keep the winding they were computed with.
func Assemble(layerID int64, z float64, sets []contour.Set, hatches []hatch.Vector) Toolpath {
	tp := Toolpath{LayerID: layerID, Z: z}
	for _, s := range sets {
		for _, l := range s.OuterOffsets {
			tp.Segments = append(tp.Segments, Segment{Type: OuterContour, Points: l.Closed()})
		}
	}
	for _, s := range sets {
		for _, offsets := range s.InnerOffsets {
			for _, l := range offsets {
				tp.Segments = append(tp.Segments, Segment{Type: InnerContour, Points: l.Closed()})
			}
		}
	}
	tp.Segments = append(tp.Segments, lo.Map(hatches, func(v hatch.Vector, _ int) Segment {
		return Segment{Type: Hatch, Points: []geom.Point{v.A, v.B}}
	})...)
	return tp
}
