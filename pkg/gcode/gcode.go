// Package gcode emits layered toolpaths as plain-text G-code.
//
// Output is a pure function of its input: the same toolpaths and options
// always produce byte-identical text. Coordinates are millimetres printed
// with three decimals.
package gcode

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/toolpath"
)

// Options are the feedrates used for emitted moves, in mm/min.
type Options struct {
	Feedrate       float64 // printing moves
	TravelFeedrate float64 // rapid moves between segments; Feedrate when zero
	ZFeedrate      float64 // layer changes; 300 when zero
}

// DefaultOptions returns the feedrates used when none are configured.
func DefaultOptions() Options {
	return Options{Feedrate: 1200, TravelFeedrate: 3000, ZFeedrate: 300}
}

func (o Options) resolve() (Options, error) {
	if !(o.Feedrate > 0) || math.IsInf(o.Feedrate, 0) {
		return o, fmt.Errorf("gcode: feedrate must be positive, got %g", o.Feedrate)
	}
	if o.TravelFeedrate < 0 || o.ZFeedrate < 0 {
		return o, fmt.Errorf("gcode: negative feedrate (travel %g, z %g)", o.TravelFeedrate, o.ZFeedrate)
	}
	if o.TravelFeedrate == 0 {
		o.TravelFeedrate = o.Feedrate
	}
	if o.ZFeedrate == 0 {
		o.ZFeedrate = 300
	}
	return o, nil
}

// coord formats a coordinate with three decimals and no negative zero.
func coord(v float64) string {
	s := strconv.FormatFloat(v, 'f', 3, 64)
	if s == "-0.000" {
		return "0.000"
	}
	return s
}

func rate(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Emit writes the program for paths to w.
func Emit(w io.Writer, paths []toolpath.Toolpath, opts Options) error {
	o, err := opts.resolve()
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "G21 ; mm units")
	fmt.Fprintln(bw, "G90 ; absolute positioning")
	fmt.Fprintln(bw, "G28 ; home")

	for _, tp := range paths {
		z := coord(tp.Z)
		fmt.Fprintf(bw, "; Layer Z=%s\n", z)
		fmt.Fprintf(bw, "G1 Z%s F%s\n", z, rate(o.ZFeedrate))
		for _, seg := range tp.Segments {
			if len(seg.Points) == 0 {
				continue
			}
			writeMove(bw, "G0", seg.Points[0], z, o.TravelFeedrate)
			for _, p := range seg.Points[1:] {
				writeMove(bw, "G1", p, z, o.Feedrate)
			}
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("gcode: write: %w", err)
	}
	return nil
}

func writeMove(w *bufio.Writer, cmd string, p geom.Point, z string, f float64) {
	fmt.Fprintf(w, "%s X%s Y%s Z%s F%s\n", cmd, coord(p.X), coord(p.Y), z, rate(f))
}

// String returns the program for paths as a string.
func String(paths []toolpath.Toolpath, opts Options) (string, error) {
	var buf bytes.Buffer
	if err := Emit(&buf, paths, opts); err != nil {
		return "", err
	}
	return buf.String(), nil
}
