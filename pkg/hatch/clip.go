package hatch

import (
	"errors"
	"math"
	"sort"

	clipper "github.com/ctessum/go.clipper"

	"github.com/chazu/strata/pkg/contour"
	"github.com/chazu/strata/pkg/geom"
)

// interval is the [lo, hi] extent of one clipped piece along its scan line.
type interval struct{ lo, hi float64 }

// clipLines intersects the horizontal lines y = ys[k], x0 <= x <= x1, with
// region under the even-odd rule, all in one Clipper pass. The result is
// indexed like ys; each line's pieces are sorted by x and pieces that merely
// touch are merged.
func clipLines(region []geom.Loop, ys []float64, x0, x1, spacing, scale float64) ([][]interval, error) {
	c := clipper.NewClipper(clipper.IoNone)
	ix0, ix1 := clipper.Round(x0*scale), clipper.Round(x1*scale)
	for _, y := range ys {
		iy := clipper.Round(y * scale)
		c.AddPath(clipper.Path{{X: ix0, Y: iy}, {X: ix1, Y: iy}}, clipper.PtSubject, false)
	}
	c.AddPaths(contour.ToPaths(region, scale), clipper.PtClip, true)

	tree, ok := c.Execute2(clipper.CtIntersection, clipper.PftEvenOdd, clipper.PftEvenOdd)
	if !ok {
		return nil, errors.New("hatch: clipping scan lines failed")
	}

	pieces := make([][]interval, len(ys))
	for _, p := range c.OpenPathsFromPolyTree(tree) {
		if len(p) < 2 {
			continue
		}
		k := int(math.Round((float64(p[0].Y)/scale - ys[0]) / spacing))
		if k < 0 || k >= len(ys) {
			continue
		}
		lo, hi := p[0].X, p[0].X
		for _, pt := range p[1:] {
			lo, hi = min(lo, pt.X), max(hi, pt.X)
		}
		pieces[k] = append(pieces[k], interval{float64(lo) / scale, float64(hi) / scale})
	}

	for k, ivs := range pieces {
		if len(ivs) < 2 {
			continue
		}
		sort.Slice(ivs, func(i, j int) bool { return ivs[i].lo < ivs[j].lo })
		merged := ivs[:1]
		for _, iv := range ivs[1:] {
			last := &merged[len(merged)-1]
			if iv.lo-last.hi <= 1/scale {
				last.hi = max(last.hi, iv.hi)
				continue
			}
			merged = append(merged, iv)
		}
		pieces[k] = merged
	}
	return pieces, nil
}
