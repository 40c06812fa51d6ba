package sdfx

import (
	"math"
	"testing"

	"github.com/chazu/strata/pkg/kernel"
)

// coarse keeps marching cubes fast in tests.
func coarse() *SdfxKernel {
	return NewWithResolution(40)
}

func mustBox(t *testing.T, k *SdfxKernel, x, y, z float64) kernel.Solid {
	t.Helper()
	s, err := k.Box(x, y, z)
	if err != nil {
		t.Fatalf("Box(%g, %g, %g) error = %v", x, y, z, err)
	}
	return s
}

func assertBounds(t *testing.T, s kernel.Solid, wantMin, wantMax [3]float64, tol float64) {
	t.Helper()
	min, max := s.BoundingBox()
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-wantMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected ~%f", i, min[i], wantMin[i])
		}
		if math.Abs(max[i]-wantMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected ~%f", i, max[i], wantMax[i])
		}
	}
}

func TestBox(t *testing.T) {
	k := coarse()
	mesh, err := k.ToMesh(mustBox(t, k, 100, 50, 25))
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	triCount := mesh.TriangleCount()
	if triCount == 0 {
		t.Fatal("expected non-zero triangle count")
	}
	if len(mesh.Vertices) != len(mesh.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(mesh.Vertices), len(mesh.Normals))
	}
	if len(mesh.Indices) != triCount*3 {
		t.Fatalf("indices length %d != triCount*3 %d", len(mesh.Indices), triCount*3)
	}
}

func TestBoxBoundingBox(t *testing.T) {
	k := New()
	assertBounds(t, mustBox(t, k, 100, 50, 25), [3]float64{0, 0, 0}, [3]float64{100, 50, 25}, 0.01)
}

func TestBoxInvalid(t *testing.T) {
	k := New()
	if _, err := k.Box(-1, 1, 1); err == nil {
		t.Error("expected error for negative box dimension")
	}
}

func TestCylinder(t *testing.T) {
	k := coarse()
	cyl, err := k.Cylinder(50, 10, 32)
	if err != nil {
		t.Fatalf("Cylinder failed: %v", err)
	}
	assertBounds(t, cyl, [3]float64{-10, -10, 0}, [3]float64{10, 10, 50}, 0.01)

	mesh, err := k.ToMesh(cyl)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.TriangleCount() == 0 {
		t.Fatal("expected non-zero triangle count")
	}
}

func TestSphere(t *testing.T) {
	k := coarse()
	s, err := k.Sphere(5)
	if err != nil {
		t.Fatalf("Sphere failed: %v", err)
	}
	assertBounds(t, s, [3]float64{-5, -5, -5}, [3]float64{5, 5, 5}, 0.01)
}

func TestDifference(t *testing.T) {
	k := coarse()

	box := mustBox(t, k, 100, 100, 100)
	boxMesh, err := k.ToMesh(box)
	if err != nil {
		t.Fatalf("ToMesh(box) failed: %v", err)
	}

	cyl, err := k.Cylinder(120, 20, 32)
	if err != nil {
		t.Fatalf("Cylinder failed: %v", err)
	}
	diff := k.Difference(box, k.Translate(cyl, 50, 50, -10))
	diffMesh, err := k.ToMesh(diff)
	if err != nil {
		t.Fatalf("ToMesh(diff) failed: %v", err)
	}
	// A box with a hole should have more triangles than a plain box.
	if diffMesh.TriangleCount() <= boxMesh.TriangleCount() {
		t.Fatalf("difference (%d triangles) should have more triangles than box (%d triangles)",
			diffMesh.TriangleCount(), boxMesh.TriangleCount())
	}
}

func TestUnionAndIntersection(t *testing.T) {
	k := coarse()
	a := mustBox(t, k, 50, 50, 50)
	b := k.Translate(mustBox(t, k, 50, 50, 50), 30, 0, 0)

	assertBounds(t, k.Union(a, b), [3]float64{0, 0, 0}, [3]float64{80, 50, 50}, 0.5)

	inter := k.Intersection(a, b)
	mesh, err := k.ToMesh(inter)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("intersection mesh is empty")
	}
}

func TestTranslate(t *testing.T) {
	k := New()
	translated := k.Translate(mustBox(t, k, 10, 10, 10), 100, 200, 300)
	assertBounds(t, translated, [3]float64{100, 200, 300}, [3]float64{110, 210, 310}, 0.5)
}

func TestRotate(t *testing.T) {
	k := New()

	// A long box along X rotated 90 degrees around Z should extend along Y instead.
	rotated := k.Rotate(mustBox(t, k, 100, 10, 10), 0, 0, 90)
	min, max := rotated.BoundingBox()

	const tol = 1.0
	if xExtent := max[0] - min[0]; math.Abs(xExtent-10) > tol {
		t.Errorf("rotated X extent = %f, expected ~10", xExtent)
	}
	if yExtent := max[1] - min[1]; math.Abs(yExtent-100) > tol {
		t.Errorf("rotated Y extent = %f, expected ~100", yExtent)
	}
}

func TestMeshSectionsToOutline(t *testing.T) {
	k := coarse()
	mesh, err := k.ToMesh(mustBox(t, k, 20, 20, 10))
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	segs := kernel.SectionMesh(mesh, 5)
	if len(segs) == 0 {
		t.Fatal("expected segments at mid height")
	}
	var sum float64
	for _, s := range segs {
		sum += s.Length()
	}
	// Perimeter of a 20x20 square, allowing for marching cubes rounding.
	if math.Abs(sum-80) > 4 {
		t.Errorf("section perimeter = %f, want ~80", sum)
	}
}

func TestToMeshForeignSolid(t *testing.T) {
	k := New()
	if _, err := k.ToMesh(foreign{}); err == nil {
		t.Error("expected error for a solid from another kernel")
	}
}

type foreign struct{}

func (foreign) BoundingBox() (min, max [3]float64) { return min, max }
