package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/chazu/strata/pkg/store"
)

// JobsCommand lists, shows or deletes slicing jobs recorded in a database.
type JobsCommand struct {
	*pflag.FlagSet

	DBPath string
	JSON   bool
	Delete bool
}

func NewJobsCommand(s settings) (cmd *JobsCommand) {
	flagSet := pflag.NewFlagSet("jobs", pflag.ContinueOnError)

	cmd = &JobsCommand{FlagSet: flagSet}
	cmd.StringVar(&cmd.DBPath, "db", s.DBPath, "SQLite database of recorded jobs")
	cmd.BoolVar(&cmd.JSON, "json", false, "Print as JSON")
	cmd.BoolVar(&cmd.Delete, "delete", false, "Delete the named job")
	cmd.SetInterspersed(true)

	return
}

// Run lists every job, or with a job id prints its layers.
func (cmd *JobsCommand) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd.SetOutput(stderr)
	if err := cmd.Parse(args); err != nil {
		return err
	}
	if cmd.DBPath == "" {
		return errors.New("jobs: --db is required")
	}
	if cmd.NArg() > 1 {
		return errors.New("jobs: at most one job id")
	}

	db, err := store.Open(ctx, cmd.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if cmd.NArg() == 0 {
		if cmd.Delete {
			return errors.New("jobs: --delete needs a job id")
		}
		return cmd.list(ctx, db, stdout)
	}

	id := cmd.Arg(0)
	if cmd.Delete {
		return db.DeleteJob(ctx, id)
	}
	return cmd.show(ctx, db, id, stdout)
}

func (cmd *JobsCommand) list(ctx context.Context, db *store.Store, stdout io.Writer) error {
	jobs, err := db.ListJobs(ctx)
	if err != nil {
		return err
	}
	if cmd.JSON {
		return json.NewEncoder(stdout).Encode(jobs)
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCREATED\tLAYERS\tFAILED\tTHICKNESS")
	for _, j := range jobs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%g\n",
			j.ID, j.Name, j.CreatedAt.Local().Format(time.DateTime),
			j.LayerCount, j.FailedLayers, j.LayerThickness)
	}
	return tw.Flush()
}

func (cmd *JobsCommand) show(ctx context.Context, db *store.Store, id string, stdout io.Writer) error {
	job, err := db.GetJob(ctx, id)
	if err != nil {
		return err
	}
	summaries, err := db.LayerSummaries(ctx, id)
	if err != nil {
		return err
	}
	total, err := db.TotalPathLength(ctx, id)
	if err != nil {
		return err
	}

	if cmd.JSON {
		return json.NewEncoder(stdout).Encode(struct {
			Job        *store.Job           `json:"job"`
			Layers     []store.LayerSummary `json:"layers"`
			PathLength float64              `json:"pathLength"`
		}{job, summaries, total})
	}

	fmt.Fprintf(stdout, "Job %s (%s): %d layers, %d failed, %.3f mm scanned\n",
		job.ID, job.Name, job.LayerCount, job.FailedLayers, total)
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tZ\tANGLE\tCONTOURS\tHATCHES\tLENGTH")
	for _, l := range summaries {
		fmt.Fprintf(tw, "%d\t%.3f\t%.1f\t%d\t%d\t%.3f\n",
			l.Index, l.Z, l.Angle, l.ContourCount, l.HatchCount, l.PathLength)
	}
	return tw.Flush()
}
