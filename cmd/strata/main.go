// Command strata slices Lisp-described solids into hatched layers and
// writes them as g-code, a binary layer file, PNG previews or a job
// database.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/chazu/strata/pkg/slicer"
)

// Runner is a subcommand.
type Runner interface {
	Run(ctx context.Context, args []string, stdout, stderr io.Writer) error
	PrintDefaults()
}

var param struct {
	verbose bool
}

func usage(flags *pflag.FlagSet, out io.Writer) {
	fmt.Fprintln(out, "Usage: strata [global flags] <command> [flags] [args]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  slice <design.lisp>   slice a design (default)")
	fmt.Fprintln(out, "  jobs [id]             list or show recorded jobs")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Global flags:")
	flags.SetOutput(out)
	flags.PrintDefaults()
}

func newCommand(name string, s settings) (Runner, bool) {
	switch name {
	case "slice":
		return NewSliceCommand(s), true
	case "jobs":
		return NewJobsCommand(s), true
	}
	return nil, false
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	flags := pflag.NewFlagSet("strata", pflag.ContinueOnError)
	flags.SetInterspersed(false)
	flags.SetOutput(stderr)
	flags.BoolVarP(&param.verbose, "verbose", "v", false, "Log slicing progress to stderr")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if param.verbose {
		slicer.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	rest := flags.Args()
	if len(rest) == 0 {
		usage(flags, stderr)
		return errors.New("no command or design given")
	}

	s := loadSettings()
	cmd, ok := newCommand(rest[0], s)
	if ok {
		rest = rest[1:]
	} else {
		cmd = NewSliceCommand(s)
	}

	err := cmd.Run(ctx, rest, stdout, stderr)
	if errors.Is(err, pflag.ErrHelp) {
		cmd.PrintDefaults()
		return nil
	}
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "strata: %v\n", err)
		os.Exit(1)
	}
}
