package slicer

import (
	"fmt"
	"strings"
)

// GeometryLoadError reports that the provider could not describe the solid.
// It is fatal: no layers are planned.
type GeometryLoadError struct {
	Err error
}

func (e *GeometryLoadError) Error() string {
	return fmt.Sprintf("slicer: geometry load failed: %v", e.Err)
}

func (e *GeometryLoadError) Unwrap() error { return e.Err }

// DegenerateRangeError reports a Z range or layer thickness that cannot
// produce a layer plan.
type DegenerateRangeError struct {
	ZMin, ZMax float64
	Thickness  float64
	Reason     string
}

func (e *DegenerateRangeError) Error() string {
	return fmt.Sprintf("slicer: degenerate range [%g, %g] with thickness %g: %s",
		e.ZMin, e.ZMax, e.Thickness, e.Reason)
}

// SectionComputationError reports that the provider failed to section the
// solid at one layer.
type SectionComputationError struct {
	Index int
	Z     float64
	Err   error
}

func (e *SectionComputationError) Error() string {
	return fmt.Sprintf("slicer: layer %d (z=%.3f): section failed: %v", e.Index, e.Z, e.Err)
}

func (e *SectionComputationError) Unwrap() error { return e.Err }

// SectionAssemblyError reports that a layer's segments could not be turned
// into contours or hatches.
type SectionAssemblyError struct {
	Index int
	Z     float64
	Err   error
}

func (e *SectionAssemblyError) Error() string {
	return fmt.Sprintf("slicer: layer %d (z=%.3f): assembly failed: %v", e.Index, e.Z, e.Err)
}

func (e *SectionAssemblyError) Unwrap() error { return e.Err }

// LayerErrors collects per-layer failures under SkipAndContinue, ordered by
// layer index.
type LayerErrors struct {
	Errs []error
}

func (e *LayerErrors) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("slicer: %d layers failed: %s", len(e.Errs), strings.Join(msgs, "; "))
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *LayerErrors) Unwrap() []error { return e.Errs }
