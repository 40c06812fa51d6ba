package gcode

import (
	"errors"
	"strings"
	"testing"

	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/toolpath"
)

func sampleLayer(z float64) toolpath.Toolpath {
	return toolpath.Toolpath{
		LayerID: int64(z * 1000),
		Z:       z,
		Segments: []toolpath.Segment{
			{Type: toolpath.OuterContour, Points: geom.Rectangle(0, 0, 1, 1).Closed()},
			{Type: toolpath.Hatch, Points: []geom.Point{geom.Pt(0.25, 0.5), geom.Pt(0.75, 0.5)}},
		},
	}
}

func TestEmitFormat(t *testing.T) {
	got, err := String([]toolpath.Toolpath{sampleLayer(0.5)}, Options{Feedrate: 1200})
	if err != nil {
		t.Fatalf("String failed: %v", err)
	}
	want := strings.Join([]string{
		"G21 ; mm units",
		"G90 ; absolute positioning",
		"G28 ; home",
		"; Layer Z=0.500",
		"G1 Z0.500 F300",
		"G0 X0.000 Y0.000 Z0.500 F1200",
		"G1 X1.000 Y0.000 Z0.500 F1200",
		"G1 X1.000 Y1.000 Z0.500 F1200",
		"G1 X0.000 Y1.000 Z0.500 F1200",
		"G1 X0.000 Y0.000 Z0.500 F1200",
		"G0 X0.250 Y0.500 Z0.500 F1200",
		"G1 X0.750 Y0.500 Z0.500 F1200",
		"",
	}, "\n")
	if got != want {
		t.Errorf("unexpected output:\n%s\nwant:\n%s", got, want)
	}
}

func TestEmitDeterministic(t *testing.T) {
	paths := []toolpath.Toolpath{sampleLayer(0), sampleLayer(0.04), sampleLayer(0.08)}
	a, err := String(paths, DefaultOptions())
	if err != nil {
		t.Fatalf("String failed: %v", err)
	}
	b, err := String(paths, DefaultOptions())
	if err != nil {
		t.Fatalf("String failed: %v", err)
	}
	if a != b {
		t.Error("re-emission is not byte-identical")
	}
	if n := strings.Count(a, "; Layer Z="); n != 3 {
		t.Errorf("expected 3 layer comments, got %d", n)
	}
	if !strings.Contains(a, "G0 X0.000 Y0.000 Z0.040 F3000") {
		t.Error("expected travel move at travel feedrate")
	}
}

func TestEmitNegativeZero(t *testing.T) {
	tp := toolpath.Toolpath{Z: -0.0001, Segments: []toolpath.Segment{
		{Type: toolpath.Hatch, Points: []geom.Point{geom.Pt(-0.0004, 1), geom.Pt(2, -0.0002)}},
	}}
	got, err := String([]toolpath.Toolpath{tp}, Options{Feedrate: 100})
	if err != nil {
		t.Fatalf("String failed: %v", err)
	}
	if strings.Contains(got, "-0.000") {
		t.Errorf("output contains negative zero:\n%s", got)
	}
}

func TestEmitNoLayers(t *testing.T) {
	got, err := String(nil, Options{Feedrate: 1})
	if err != nil {
		t.Fatalf("String failed: %v", err)
	}
	if got != "G21 ; mm units\nG90 ; absolute positioning\nG28 ; home\n" {
		t.Errorf("unexpected header-only output %q", got)
	}
}

func TestEmitInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"zero feedrate", Options{}},
		{"negative feedrate", Options{Feedrate: -5}},
		{"negative travel", Options{Feedrate: 5, TravelFeedrate: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := String(nil, tt.opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestEmitWriteError(t *testing.T) {
	if err := Emit(failWriter{}, []toolpath.Toolpath{sampleLayer(1)}, DefaultOptions()); err == nil {
		t.Error("expected write error to surface")
	}
}
