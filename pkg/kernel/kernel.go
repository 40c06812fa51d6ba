// Package kernel defines the abstract geometry kernel interface.
// Implementations provide solid modeling and boolean operations behind this
// interface, and produce triangle meshes the slicer can section. The kernel
// abstraction allows swapping backends without changing the rest of the
// system.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives. Box has its minimum corner at the origin, Cylinder stands
	// on the XY plane centered on the Z axis, Sphere is centered.
	Box(x, y, z float64) (Solid, error)
	Cylinder(height, radius float64, segments int) (Solid, error)
	Sphere(radius float64) (Solid, error)

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
