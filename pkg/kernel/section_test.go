package kernel

import (
	"math"
	"testing"

	"github.com/chazu/strata/pkg/geom"
)

// chainArea sums the signed area contribution of unordered directed
// segments. For a closed, consistently directed boundary this equals the
// enclosed signed area.
func chainArea(segs []geom.Segment) float64 {
	var a float64
	for _, s := range segs {
		a += s.A.X*s.B.Y - s.B.X*s.A.Y
	}
	return a / 2
}

func TestSectionMeshBox(t *testing.T) {
	m := NewBoxMesh(0, 0, 0, 10, 20, 5)

	tests := []struct {
		name     string
		z        float64
		wantArea float64
	}{
		{"bottom face", 0, 200},
		{"middle", 2.5, 200},
		{"top face", 5, 200},
		{"below", -1, 0},
		{"above", 6, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs := SectionMesh(m, tt.z)
			if tt.wantArea == 0 {
				var nonzero int
				for _, s := range segs {
					if s.Length() > 0 {
						nonzero++
					}
				}
				if nonzero != 0 {
					t.Fatalf("expected no section at z=%v, got %d segments", tt.z, nonzero)
				}
				return
			}
			if got := chainArea(segs); math.Abs(got-tt.wantArea) > 1e-6 {
				t.Errorf("signed area = %v, want %v (counter-clockwise)", got, tt.wantArea)
			}
		})
	}
}

func TestSectionMeshNil(t *testing.T) {
	if segs := SectionMesh(nil, 0); segs != nil {
		t.Errorf("SectionMesh(nil) = %v, want nil", segs)
	}
}

func TestSectionMeshPointsOnPlane(t *testing.T) {
	m := NewBoxMesh(-1, -1, -1, 1, 1, 1)
	for _, s := range SectionMesh(m, 0.25) {
		for _, p := range []geom.Point{s.A, s.B} {
			if math.Abs(math.Abs(p.X)-1) > 1e-9 && math.Abs(math.Abs(p.Y)-1) > 1e-9 {
				t.Errorf("point %v is not on the box outline", p)
			}
		}
	}
}
