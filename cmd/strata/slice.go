package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/chazu/strata/pkg/engine"
	"github.com/chazu/strata/pkg/gcode"
	"github.com/chazu/strata/pkg/hatch"
	"github.com/chazu/strata/pkg/kernel"
	"github.com/chazu/strata/pkg/kernel/sdfx"
	"github.com/chazu/strata/pkg/layerio"
	"github.com/chazu/strata/pkg/preview"
	"github.com/chazu/strata/pkg/slicer"
	"github.com/chazu/strata/pkg/store"
	"github.com/chazu/strata/pkg/tessellate"
)

// SliceCommand evaluates a design script, slices it and writes the
// requested outputs.
type SliceCommand struct {
	*pflag.FlagSet

	settings settings
	stderr   io.Writer

	Solid      string
	GCodePath  string
	LayersPath string
	PreviewDir string
	JobName    string
	PixelsMM   float64
}

func NewSliceCommand(s settings) (cmd *SliceCommand) {
	flagSet := pflag.NewFlagSet("slice", pflag.ContinueOnError)

	cmd = &SliceCommand{FlagSet: flagSet, settings: s}
	cfg := &cmd.settings.Slicer
	h := &cfg.Hatch
	g := &cmd.settings.GCode

	cmd.SetInterspersed(true)
	cmd.StringVarP(&cmd.Solid, "solid", "s", "", "Named solid to slice (default: the design root)")
	cmd.StringVarP(&cmd.GCodePath, "output", "o", "", "G-code output file ('-' for stdout)")
	cmd.StringVarP(&cmd.LayersPath, "layers", "l", "", "Binary layer file output")
	cmd.StringVarP(&cmd.PreviewDir, "preview", "p", "", "Directory for per-layer PNG previews")
	cmd.StringVar(&cmd.JobName, "name", "", "Job name stored with --db (default: script base name)")
	cmd.Float64Var(&cmd.PixelsMM, "preview-scale", 10, "Preview pixels per millimeter")
	cmd.StringVar(&cmd.settings.DBPath, "db", s.DBPath, "SQLite database to record the job in")
	cmd.IntVar(&cmd.settings.Resolution, "resolution", s.Resolution, "Marching cubes cells along the longest axis")
	cmd.StringVar(&cmd.settings.Policy, "policy", s.Policy, "Layer failure policy: abort or skip")
	cmd.StringVar(&cmd.settings.Sort, "sort", s.Sort, "Hatch order: alternate, unidirectional or greedy")

	cmd.Float64VarP(&cfg.LayerThickness, "thickness", "t", cfg.LayerThickness, "Layer thickness, mm")
	cmd.Float64Var(&cfg.Tolerance, "tolerance", cfg.Tolerance, "Segment endpoint matching tolerance, mm")
	cmd.IntVarP(&cfg.Workers, "workers", "j", cfg.Workers, "Parallel layers (0: one per CPU)")
	cmd.Float64Var(&h.BaseAngle, "angle", h.BaseAngle, "Hatch angle of the first layer, degrees")
	cmd.Float64Var(&h.AngleIncrement, "angle-increment", h.AngleIncrement, "Hatch rotation per layer, degrees")
	cmd.Float64Var(&h.Spacing, "hatch-spacing", h.Spacing, "Hatch line spacing, mm")
	cmd.IntVar(&h.NumOuterContours, "outer-contours", h.NumOuterContours, "Contour passes inside each outer boundary")
	cmd.IntVar(&h.NumInnerContours, "inner-contours", h.NumInnerContours, "Contour passes around each hole")
	cmd.Float64Var(&h.OuterOffsetSpacing, "outer-offset", h.OuterOffsetSpacing, "Outer contour offset, mm")
	cmd.Float64Var(&h.InnerOffsetSpacing, "inner-offset", h.InnerOffsetSpacing, "Hole contour offset, mm")
	cmd.Float64Var(&h.VolumeOffset, "volume-offset", h.VolumeOffset, "Inset of the hatch area from the last contour, mm")
	cmd.Float64Var(&g.Feedrate, "feedrate", g.Feedrate, "Scan feedrate, mm/min")
	cmd.Float64Var(&g.TravelFeedrate, "travel-feedrate", g.TravelFeedrate, "Travel feedrate, mm/min")
	cmd.Float64Var(&g.ZFeedrate, "z-feedrate", g.ZFeedrate, "Layer change feedrate, mm/min")

	return
}

// Run slices the design script named by the single positional argument.
// Outputs named "-" go to stdout; warnings and the summary go to stderr.
func (cmd *SliceCommand) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd.stderr = stderr
	cmd.SetOutput(stderr)
	if err := cmd.Parse(args); err != nil {
		return err
	}
	if cmd.NArg() != 1 {
		return errors.New("slice: expected exactly one design script")
	}
	script := cmd.Arg(0)

	cfg := cmd.settings.Slicer
	policy, err := slicer.ParseFailurePolicy(cmd.settings.Policy)
	if err != nil {
		return err
	}
	cfg.Policy = policy
	if cfg.Hatch.SortPolicy, err = hatch.PolicyByName(cmd.settings.Sort); err != nil {
		return err
	}

	source, err := os.ReadFile(script)
	if err != nil {
		return err
	}

	k := sdfx.NewWithResolution(cmd.settings.Resolution)
	solid, err := cmd.evaluate(k, string(source))
	if err != nil {
		return fmt.Errorf("%s: %w", script, err)
	}

	layers, sliceErr := slicer.New(tessellate.New(k), cfg).Slice(ctx, solid)
	var layerErrs *slicer.LayerErrors
	if sliceErr != nil && !errors.As(sliceErr, &layerErrs) {
		return sliceErr
	}
	failed := 0
	if layerErrs != nil {
		failed = len(layerErrs.Errs)
		for _, e := range layerErrs.Errs {
			fmt.Fprintf(cmd.stderr, "warning: %v\n", e)
		}
	}

	if err := cmd.writeOutputs(ctx, script, cfg, layers, failed, stdout); err != nil {
		return err
	}

	var hatches, contours int
	for _, l := range layers {
		hatches += len(l.Hatches)
		for _, s := range l.Contours {
			contours += len(s.OuterOffsets)
			for _, offs := range s.InnerOffsets {
				contours += len(offs)
			}
		}
	}
	fmt.Fprintf(cmd.stderr, "%d layers (%d failed), %d contours, %d hatch vectors\n",
		len(layers), failed, contours, hatches)
	return nil
}

func (cmd *SliceCommand) evaluate(k kernel.Kernel, source string) (kernel.Solid, error) {
	d, evalErrs, err := engine.NewEngine(k).Evaluate(source)
	if err != nil {
		return nil, err
	}
	if len(evalErrs) > 0 {
		msgs := make([]string, len(evalErrs))
		for i, e := range evalErrs {
			msgs[i] = e.Error()
		}
		return nil, errors.New(strings.Join(msgs, "; "))
	}
	for _, w := range d.Warnings {
		fmt.Fprintf(cmd.stderr, "warning: %s: %s\n", w.Solid, w.Message)
	}

	if cmd.Solid != "" {
		s, ok := d.Solid(cmd.Solid)
		if !ok {
			return nil, fmt.Errorf("no solid named %q (have %s)", cmd.Solid, strings.Join(d.SortedNames(), ", "))
		}
		return s, nil
	}
	if d.Root() == nil {
		return nil, errors.New("design defines no solids")
	}
	return d.Root(), nil
}

func (cmd *SliceCommand) writeOutputs(ctx context.Context, script string, cfg slicer.Config, layers []slicer.Layer, failed int, stdout io.Writer) error {
	if cmd.GCodePath != "" {
		err := withOutput(cmd.GCodePath, stdout, func(w io.Writer) error {
			return gcode.Emit(w, slicer.Toolpaths(layers), cmd.settings.GCode)
		})
		if err != nil {
			return err
		}
	}

	if cmd.LayersPath != "" {
		err := withOutput(cmd.LayersPath, stdout, func(w io.Writer) error {
			return layerio.Encode(w, layerio.HeaderFor(cfg, layers), layers)
		})
		if err != nil {
			return err
		}
	}

	if cmd.PreviewDir != "" {
		if err := os.MkdirAll(cmd.PreviewDir, 0o755); err != nil {
			return err
		}
		bounds := preview.StackBounds(layers)
		opts := preview.Options{PixelsPerMM: cmd.PixelsMM, Bounds: &bounds, Label: true}
		for _, l := range layers {
			name := filepath.Join(cmd.PreviewDir, fmt.Sprintf("layer-%05d.png", l.Index))
			err := withOutput(name, stdout, func(w io.Writer) error {
				return preview.WritePNG(w, l, opts)
			})
			if err != nil {
				return err
			}
		}
	}

	if cmd.settings.DBPath != "" {
		db, err := store.Open(ctx, cmd.settings.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		name := cmd.JobName
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(script), filepath.Ext(script))
		}
		id, err := db.SaveJob(ctx, store.JobFor(name, cfg, layers, failed), layers)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.stderr, "job %s\n", id)
	}
	return nil
}

// withOutput opens path for writing ('-' is stdout), runs fn on a buffered
// writer and closes the file.
func withOutput(path string, stdout io.Writer, fn func(io.Writer) error) (err error) {
	var w io.Writer = stdout
	if path != "-" {
		f, ferr := os.Create(path)
		if ferr != nil {
			return ferr
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}
	bw := bufio.NewWriter(w)
	if err := fn(bw); err != nil {
		return err
	}
	return bw.Flush()
}
