package slicer

import (
	"fmt"
	"math"

	"github.com/chazu/strata/pkg/contour"
	"github.com/chazu/strata/pkg/hatch"
)

// FailurePolicy decides what happens when a single layer fails.
type FailurePolicy int

const (
	// AbortOnFirst cancels outstanding work and returns the failure.
	AbortOnFirst FailurePolicy = iota
	// SkipAndContinue drops failed layers and reports them together.
	SkipAndContinue
)

func (p FailurePolicy) String() string {
	if p == SkipAndContinue {
		return "skip"
	}
	return "abort"
}

// ParseFailurePolicy accepts "abort" or "skip".
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch s {
	case "", "abort":
		return AbortOnFirst, nil
	case "skip":
		return SkipAndContinue, nil
	}
	return AbortOnFirst, fmt.Errorf("slicer: unknown failure policy %q", s)
}

// HatchConfig holds the per-layer contour and infill parameters.
type HatchConfig struct {
	BaseAngle      float64 // degrees, layer 0
	AngleIncrement float64 // degrees added per layer
	Spacing        float64 // hatch line distance, mm

	NumOuterContours   int
	NumInnerContours   int
	OuterOffsetSpacing float64 // mm between outer contour offsets
	InnerOffsetSpacing float64 // mm between hole contour offsets

	VolumeOffset float64 // extra inset of the hatch region, mm
	SortPolicy   hatch.SortPolicy
}

// Config configures a Slicer.
type Config struct {
	LayerThickness float64 // mm
	Tolerance      float64 // segment endpoint matching distance, mm
	Hatch          HatchConfig
	Workers        int // parallel layers; NumCPU when <= 0
	Policy         FailurePolicy
}

// DefaultConfig returns the parameters of a typical powder-bed build.
func DefaultConfig() Config {
	return Config{
		LayerThickness: 0.04,
		Tolerance:      1e-5,
		Hatch: HatchConfig{
			BaseAngle:          10,
			AngleIncrement:     hatch.DefaultAngleIncrement,
			Spacing:            0.08,
			NumOuterContours:   1,
			NumInnerContours:   2,
			OuterOffsetSpacing: 0.06,
			InnerOffsetSpacing: 0.06,
			VolumeOffset:       0.08,
			SortPolicy:         hatch.AlternateSort{},
		},
		Policy: AbortOnFirst,
	}
}

// Validate checks the parameters the layer stages depend on. Layer
// thickness is checked by PlanLayers.
func (c Config) Validate() error {
	h := c.Hatch
	finite := func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
	switch {
	case !finite(h.BaseAngle) || !finite(h.AngleIncrement):
		return fmt.Errorf("slicer: hatch angles must be finite")
	case !(h.Spacing > 0) || !finite(h.Spacing):
		return fmt.Errorf("slicer: hatch spacing must be positive, got %g", h.Spacing)
	case h.VolumeOffset < 0 || !finite(h.VolumeOffset):
		return fmt.Errorf("slicer: volume offset must be non-negative, got %g", h.VolumeOffset)
	case c.Tolerance < 0 || !finite(c.Tolerance):
		return fmt.Errorf("slicer: tolerance must be non-negative, got %g", c.Tolerance)
	}
	return c.contourParams().Validate()
}

func (c Config) contourParams() contour.Params {
	return contour.Params{
		NumOuter:     c.Hatch.NumOuterContours,
		NumInner:     c.Hatch.NumInnerContours,
		OuterSpacing: c.Hatch.OuterOffsetSpacing,
		InnerSpacing: c.Hatch.InnerOffsetSpacing,
	}
}

func (c Config) hatcher() *hatch.Hatcher {
	return &hatch.Hatcher{
		Spacing:      c.Hatch.Spacing,
		VolumeOffset: c.Hatch.VolumeOffset,
		Policy:       c.Hatch.SortPolicy,
	}
}
