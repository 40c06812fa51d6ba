// Package slicer converts a solid into a stack of manufacturable layers.
//
// For each planned Z height the solid is sectioned, the section segments are
// assembled into classified and offset contours, the interior is hatched at
// a per-layer angle, and everything is ordered into a toolpath. Layers are
// independent once their height and angle are fixed, so they are computed
// by a pool of workers and returned in ascending Z.
package slicer

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/chazu/strata/pkg/contour"
	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/hatch"
	"github.com/chazu/strata/pkg/kernel"
	"github.com/chazu/strata/pkg/toolpath"
)

// GeometryProvider answers the two questions the slicer asks of a solid.
// SectionAt must be safe for concurrent use and returns no segments when
// the plane misses the solid.
type GeometryProvider interface {
	BoundingBox(s kernel.Solid) (geom.BoundingBox, error)
	SectionAt(s kernel.Solid, z float64) ([]geom.Segment, error)
}

// Layer is the finished result for one height. Layers are not modified
// after Slice returns them.
type Layer struct {
	Index    int               `json:"index"`
	Z        float64           `json:"z"`
	ID       int64             `json:"id"`
	Angle    float64           `json:"angle"`
	Contours []contour.Set     `json:"contours"`
	Hatches  []hatch.Vector    `json:"hatches"`
	Toolpath toolpath.Toolpath `json:"toolpath"`
}

// Empty reports whether the layer has no geometry.
func (l Layer) Empty() bool {
	return len(l.Contours) == 0 && len(l.Hatches) == 0
}

// Toolpaths extracts the toolpath of every layer, in order.
func Toolpaths(layers []Layer) []toolpath.Toolpath {
	out := make([]toolpath.Toolpath, len(layers))
	for i, l := range layers {
		out[i] = l.Toolpath
	}
	return out
}

// Slicer runs the layer pipeline against a GeometryProvider.
type Slicer struct {
	provider GeometryProvider
	cfg      Config
}

// New returns a Slicer. cfg is validated when slicing starts.
func New(p GeometryProvider, cfg Config) *Slicer {
	return &Slicer{provider: p, cfg: cfg}
}

// Config returns the slicer's configuration.
func (s *Slicer) Config() Config {
	return s.cfg
}

// Plan returns the layer heights for solid.
func (s *Slicer) Plan(solid kernel.Solid) ([]float64, error) {
	bb, err := s.provider.BoundingBox(solid)
	if err != nil {
		return nil, &GeometryLoadError{Err: err}
	}
	return PlanLayers(bb, s.cfg.LayerThickness)
}

// Slice computes every layer of solid. Under AbortOnFirst the first failure
// (lowest layer index among those observed) is returned with no layers.
// Under SkipAndContinue the successful layers are returned together with a
// *LayerErrors. Cancelling ctx stops outstanding work and returns ctx.Err().
func (s *Slicer) Slice(ctx context.Context, solid kernel.Solid) ([]Layer, error) {
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	zs, err := s.Plan(solid)
	if err != nil {
		return nil, err
	}

	log := Logger()
	start := time.Now()
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(zs) {
		workers = len(zs)
	}
	log.Info("slicing", "layers", len(zs), "workers", workers,
		"zmin", zs[0], "zmax", zs[len(zs)-1], "policy", s.cfg.Policy.String())

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]Layer, len(zs))
	errs := make([]error, len(zs))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				layer, err := s.SliceLayer(solid, i, zs[i])
				if err != nil {
					errs[i] = err
					if s.cfg.Policy == AbortOnFirst {
						cancel()
					}
					continue
				}
				results[i] = layer
			}
		}()
	}

feed:
	for i := range zs {
		select {
		case jobs <- i:
		case <-runCtx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}

	if s.cfg.Policy == AbortOnFirst && len(failed) > 0 {
		return nil, failed[0]
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	layers := make([]Layer, 0, len(zs))
	for i := range zs {
		if errs[i] != nil {
			log.Warn("skipping layer", "index", i, "z", zs[i], "err", errs[i])
			continue
		}
		layers = append(layers, results[i])
	}
	log.Info("sliced", "layers", len(layers), "failed", len(failed), "elapsed", time.Since(start))

	if len(failed) > 0 {
		return layers, &LayerErrors{Errs: failed}
	}
	return layers, nil
}

// SliceLayer computes the layer with the given index at height z. The hatch
// angle depends only on index, so any layer can be recomputed on its own.
func (s *Slicer) SliceLayer(solid kernel.Solid, index int, z float64) (Layer, error) {
	start := time.Now()
	layer := Layer{
		Index: index,
		Z:     z,
		ID:    LayerID(z),
		Angle: hatch.Angle(s.cfg.Hatch.BaseAngle, s.cfg.Hatch.AngleIncrement, index),
	}

	segs, err := s.provider.SectionAt(solid, z)
	if err != nil {
		return Layer{}, &SectionComputationError{Index: index, Z: z, Err: err}
	}

	sets, err := contour.Build(segs, s.cfg.Tolerance, s.cfg.contourParams())
	if err != nil {
		return Layer{}, &SectionAssemblyError{Index: index, Z: z, Err: err}
	}
	for i, set := range sets {
		if set.Clamped() {
			Logger().Debug("contour offsets clamped",
				"layer", index, "set", i,
				"outer", len(set.OuterOffsets), "requestedOuter", set.RequestedOuter)
		}
	}

	hatches, err := s.cfg.hatcher().Hatch(sets, layer.Angle)
	if err != nil {
		return Layer{}, &SectionAssemblyError{Index: index, Z: z, Err: fmt.Errorf("hatch: %w", err)}
	}

	layer.Contours = sets
	layer.Hatches = hatches
	layer.Toolpath = toolpath.Assemble(layer.ID, z, sets, hatches)
	Logger().Debug("layer done", "index", index, "z", z,
		"contours", len(sets), "hatches", len(hatches), "elapsed", time.Since(start))
	return layer, nil
}

// IsLayerError reports whether err stems from a single layer rather than
// from the solid or configuration as a whole.
func IsLayerError(err error) bool {
	var sc *SectionComputationError
	var sa *SectionAssemblyError
	return errors.As(err, &sc) || errors.As(err, &sa)
}
