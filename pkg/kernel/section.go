package kernel

import "github.com/chazu/strata/pkg/geom"

// topTolerance is how close to the highest vertex a plane must be to count
// as sectioning the top face.
const topTolerance = 1e-9

// SectionMesh intersects the mesh with the horizontal plane at height z and
// returns the resulting segments. A vertex lying exactly on the plane counts
// as below it, so a plane through an upward step yields the material just
// above the plane. At the top of the mesh, where nothing lies above, the rule
// flips and the plane yields the outline of the top face.
//
// Segments are directed so that, seen from +Z, the solid lies to their left
// (counter-clockwise around material) whenever the mesh is outward facing.
func SectionMesh(m *Mesh, z float64) []geom.Segment {
	if m == nil {
		return nil
	}
	_, max := m.Bounds()
	onTop := z >= max[2]-topTolerance

	var out []geom.Segment
	for t := 0; t < m.TriangleCount(); t++ {
		tri := m.Triangle(t)
		var above [3]bool
		n := 0
		for i, v := range tri {
			above[i] = v[2]-z > 0 || (onTop && v[2]-z >= -topTolerance)
			if above[i] {
				n++
			}
		}
		if n == 0 || n == 3 {
			continue
		}

		pts := make([]geom.Point, 0, 2)
		for i := 0; i < 3; i++ {
			j := (i + 1) % 3
			if above[i] == above[j] {
				continue
			}
			pts = append(pts, edgeCrossing(tri[i], tri[j], z))
		}
		if len(pts) != 2 {
			continue
		}

		s := geom.Segment{A: pts[0], B: pts[1]}
		nx, ny := faceNormalXY(tri)
		// Boundary direction is Z x n.
		if (s.B.X-s.A.X)*(-ny)+(s.B.Y-s.A.Y)*nx < 0 {
			s = s.Flip()
		}
		out = append(out, s)
	}
	return out
}

func edgeCrossing(a, b [3]float64, z float64) geom.Point {
	da, db := a[2]-z, b[2]-z
	t := da / (da - db)
	return geom.Pt(a[0]+t*(b[0]-a[0]), a[1]+t*(b[1]-a[1]))
}

// faceNormalXY returns the XY part of the unnormalized geometric normal.
func faceNormalXY(tri [3][3]float64) (float64, float64) {
	ux, uy, uz := tri[1][0]-tri[0][0], tri[1][1]-tri[0][1], tri[1][2]-tri[0][2]
	vx, vy, vz := tri[2][0]-tri[0][0], tri[2][1]-tri[0][1], tri[2][2]-tri[0][2]
	return uy*vz - uz*vy, uz*vx - ux*vz
}
