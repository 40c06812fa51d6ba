// Package tessellate turns kernel solids into triangle meshes and answers
// bounding-box and planar-section queries against them. Provider is the
// geometry provider the slicer runs on.
package tessellate

import (
	"fmt"
	"sync"
	"time"

	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/kernel"
	"github.com/chazu/strata/pkg/slicer"
)

var _ slicer.GeometryProvider = (*Provider)(nil)

// MeshSolid is a kernel.Solid backed directly by a mesh. It lets callers
// slice geometry that did not come from a kernel, such as an exact
// hand-built mesh.
type MeshSolid struct {
	mesh *kernel.Mesh
}

// NewMeshSolid wraps m. The mesh must not be modified afterwards.
func NewMeshSolid(m *kernel.Mesh) *MeshSolid {
	return &MeshSolid{mesh: m}
}

// BoundingBox returns the extent of the mesh vertices.
func (s *MeshSolid) BoundingBox() (min, max [3]float64) {
	return s.mesh.Bounds()
}

// Mesh returns the wrapped mesh.
func (s *MeshSolid) Mesh() *kernel.Mesh {
	return s.mesh
}

type entry struct {
	once sync.Once
	mesh *kernel.Mesh
	err  error
}

// Provider tessellates each solid once and sections the cached mesh.
// It is safe for concurrent use; solids must be comparable (pointer)
// values because they key the cache.
type Provider struct {
	k kernel.Kernel

	mu     sync.Mutex
	meshes map[kernel.Solid]*entry
}

// New returns a Provider that tessellates with k. k may be nil when only
// MeshSolid values are sliced.
func New(k kernel.Kernel) *Provider {
	return &Provider{k: k, meshes: make(map[kernel.Solid]*entry)}
}

// BoundingBox returns the kernel's bounding box of s.
func (p *Provider) BoundingBox(s kernel.Solid) (geom.BoundingBox, error) {
	if s == nil {
		return geom.BoundingBox{}, fmt.Errorf("tessellate: nil solid")
	}
	bb := geom.BoxFromCorners(s.BoundingBox())
	if !bb.Finite() {
		return geom.BoundingBox{}, fmt.Errorf("tessellate: non-finite bounding box %+v", bb)
	}
	return bb, nil
}

// SectionAt intersects the tessellated solid with the plane at height z.
// A plane that misses the solid yields no segments and no error.
func (p *Provider) SectionAt(s kernel.Solid, z float64) ([]geom.Segment, error) {
	m, err := p.Mesh(s)
	if err != nil {
		return nil, err
	}
	return kernel.SectionMesh(m, z), nil
}

// Mesh returns the cached mesh for s, tessellating it on first use.
func (p *Provider) Mesh(s kernel.Solid) (*kernel.Mesh, error) {
	if s == nil {
		return nil, fmt.Errorf("tessellate: nil solid")
	}
	if ms, ok := s.(*MeshSolid); ok {
		if ms.mesh == nil {
			return nil, fmt.Errorf("tessellate: mesh solid has no mesh")
		}
		return ms.mesh, nil
	}

	p.mu.Lock()
	e, ok := p.meshes[s]
	if !ok {
		e = &entry{}
		p.meshes[s] = e
	}
	p.mu.Unlock()

	e.once.Do(func() {
		if p.k == nil {
			e.err = fmt.Errorf("tessellate: no kernel configured for solid %T", s)
			return
		}
		start := time.Now()
		e.mesh, e.err = p.k.ToMesh(s)
		if e.err != nil {
			e.err = fmt.Errorf("tessellate: ToMesh failed: %w", e.err)
			return
		}
		slicer.Logger().Debug("tessellated solid",
			"triangles", e.mesh.TriangleCount(),
			"elapsed", time.Since(start))
	})
	return e.mesh, e.err
}

// Forget drops the cached mesh for s.
func (p *Provider) Forget(s kernel.Solid) {
	p.mu.Lock()
	delete(p.meshes, s)
	p.mu.Unlock()
}
