package kernel

import "math"

// Mesh is a triangle mesh.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	Name     string    `json:"name"`     // solid this mesh was built from
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Vertex returns vertex i as float64 coordinates.
func (m *Mesh) Vertex(i uint32) [3]float64 {
	j := int(i) * 3
	return [3]float64{float64(m.Vertices[j]), float64(m.Vertices[j+1]), float64(m.Vertices[j+2])}
}

// Triangle returns the three corners of triangle t.
func (m *Mesh) Triangle(t int) [3][3]float64 {
	return [3][3]float64{
		m.Vertex(m.Indices[t*3]),
		m.Vertex(m.Indices[t*3+1]),
		m.Vertex(m.Indices[t*3+2]),
	}
}

// Bounds returns the axis-aligned extent of the mesh vertices. An empty mesh
// yields zero corners.
func (m *Mesh) Bounds() (min, max [3]float64) {
	if m.IsEmpty() {
		return min, max
	}
	for a := 0; a < 3; a++ {
		min[a] = math.Inf(1)
		max[a] = math.Inf(-1)
	}
	for i := 0; i < len(m.Vertices); i += 3 {
		for a := 0; a < 3; a++ {
			v := float64(m.Vertices[i+a])
			min[a] = math.Min(min[a], v)
			max[a] = math.Max(max[a], v)
		}
	}
	return min, max
}

// NewBoxMesh returns an exact, outward-facing 12-triangle mesh of the box
// spanning the two corners.
func NewBoxMesh(x0, y0, z0, x1, y1, z1 float64) *Mesh {
	c := func(x, y, z float64) []float32 { return []float32{float32(x), float32(y), float32(z)} }
	m := &Mesh{Name: "box"}
	corners := [][]float32{
		c(x0, y0, z0), c(x1, y0, z0), c(x1, y1, z0), c(x0, y1, z0),
		c(x0, y0, z1), c(x1, y0, z1), c(x1, y1, z1), c(x0, y1, z1),
	}
	// Counter-clockwise when seen from outside.
	faces := [][4]int{
		{0, 3, 2, 1}, // bottom
		{4, 5, 6, 7}, // top
		{0, 1, 5, 4}, // front
		{1, 2, 6, 5}, // right
		{2, 3, 7, 6}, // back
		{3, 0, 4, 7}, // left
	}
	normals := [][3]float32{{0, 0, -1}, {0, 0, 1}, {0, -1, 0}, {1, 0, 0}, {0, 1, 0}, {-1, 0, 0}}
	for f, q := range faces {
		for _, k := range []int{q[0], q[1], q[2], q[0], q[2], q[3]} {
			m.Indices = append(m.Indices, uint32(m.VertexCount()))
			m.Vertices = append(m.Vertices, corners[k]...)
			m.Normals = append(m.Normals, normals[f][0], normals[f][1], normals[f][2])
		}
	}
	return m
}
