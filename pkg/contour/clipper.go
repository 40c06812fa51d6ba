package contour

import (
	clipper "github.com/ctessum/go.clipper"

	"github.com/chazu/strata/pkg/geom"
)

// DefaultScale converts millimetres to Clipper's integer grid (10 nm).
const DefaultScale = 1e5

// clearance is the minimum gap, in grid units, between contours that must
// not touch.
const clearance = 2

// ToPath converts a loop to a Clipper path on a grid of 1/scale.
func ToPath(l geom.Loop, scale float64) clipper.Path {
	p := make(clipper.Path, len(l))
	for i, pt := range l {
		p[i] = &clipper.IntPoint{X: clipper.Round(pt.X * scale), Y: clipper.Round(pt.Y * scale)}
	}
	return p
}

// ToPaths converts several loops.
func ToPaths(ls []geom.Loop, scale float64) clipper.Paths {
	ps := make(clipper.Paths, len(ls))
	for i, l := range ls {
		ps[i] = ToPath(l, scale)
	}
	return ps
}

// FromPath converts a Clipper path back to millimetres.
func FromPath(p clipper.Path, scale float64) geom.Loop {
	l := make(geom.Loop, len(p))
	for i, ip := range p {
		l[i] = geom.Pt(float64(ip.X)/scale, float64(ip.Y)/scale)
	}
	return l
}

// FromPaths converts several Clipper paths.
func FromPaths(ps clipper.Paths, scale float64) []geom.Loop {
	ls := make([]geom.Loop, 0, len(ps))
	for _, p := range ps {
		ls = append(ls, FromPath(p, scale))
	}
	return ls
}

// offsetLoop offsets a single closed loop by delta millimetres with mitered
// joins. Positive delta grows the enclosed area, negative shrinks it,
// independent of the loop's winding.
func offsetLoop(l geom.Loop, delta, scale float64) []geom.Loop {
	co := clipper.NewClipperOffset()
	co.AddPath(ToPath(l, scale), clipper.JtMiter, clipper.EtClosedPolygon)
	return FromPaths(co.Execute(delta*scale), scale)
}

// OffsetRegion offsets every loop of a region (outer boundaries plus holes)
// by delta millimetres in one pass.
func OffsetRegion(region []geom.Loop, delta, scale float64) []geom.Loop {
	if len(region) == 0 || delta == 0 {
		return region
	}
	co := clipper.NewClipperOffset()
	co.AddPaths(ToPaths(region, scale), clipper.JtMiter, clipper.EtClosedPolygon)
	return FromPaths(co.Execute(delta*scale), scale)
}

// Region returns the material area of a set, bounded by boundary and with
// holes removed, as Clipper output loops (outer boundaries counter-clockwise,
// holes clockwise).
func Region(boundary geom.Loop, holes []geom.Loop, scale float64) []geom.Loop {
	c := clipper.NewClipper(clipper.IoNone)
	c.AddPath(ToPath(boundary, scale), clipper.PtSubject, true)
	if len(holes) > 0 {
		c.AddPaths(ToPaths(holes, scale), clipper.PtClip, true)
	}
	out, ok := c.Execute1(clipper.CtDifference, clipper.PftNonZero, clipper.PftNonZero)
	if !ok {
		return nil
	}
	return FromPaths(out, scale)
}

// within reports whether a, grown by margin, lies entirely inside b.
func within(a, b geom.Loop, margin, scale float64) bool {
	c := clipper.NewClipper(clipper.IoNone)
	c.AddPaths(ToPaths(offsetLoop(a, margin, scale), scale), clipper.PtSubject, true)
	c.AddPath(ToPath(b, scale), clipper.PtClip, true)
	out, ok := c.Execute1(clipper.CtDifference, clipper.PftNonZero, clipper.PftNonZero)
	return ok && len(out) == 0
}

// overlaps reports whether a, grown by margin, shares any area with b.
func overlaps(a, b geom.Loop, margin, scale float64) bool {
	c := clipper.NewClipper(clipper.IoNone)
	c.AddPaths(ToPaths(offsetLoop(a, margin, scale), scale), clipper.PtSubject, true)
	c.AddPath(ToPath(b, scale), clipper.PtClip, true)
	out, ok := c.Execute1(clipper.CtIntersection, clipper.PftNonZero, clipper.PftNonZero)
	return !ok || len(out) > 0
}
