package cli

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"

	"github.com/aristath/fundsim/internal/export"
	"github.com/aristath/fundsim/internal/modules/statistics"
	"github.com/aristath/fundsim/internal/report"
)

// describeCmd holds the flags for the 'describe' subcommand.
type describeCmd struct {
	app *App

	in          string
	currency    string
	percentiles string
	style       string
}

func (*describeCmd) Name() string     { return "describe" }
func (*describeCmd) Synopsis() string { return "compute statistics of an exported dataset CSV" }
func (*describeCmd) Usage() string {
	return `fundsim describe -in <dataset.csv> [-percentiles <list>]

  Reads a dataset written by 'simulate' and prints the same report.
`
}

func (c *describeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.in, "in", "", "Dataset CSV to describe")
	f.StringVar(&c.currency, "currency", "", "ISO currency code used to format amounts")
	f.StringVar(&c.percentiles, "percentiles", "", "Comma separated percentiles, e.g. 10,50,90")
	f.StringVar(&c.style, "style", "auto", "Report style: auto, dark, light, notty, or empty for raw markdown")
}

func (c *describeCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	app := c.app
	if c.in == "" {
		app.errorf("Error: -in is required")
		return subcommands.ExitUsageError
	}
	ps, err := parsePercentiles(c.percentiles)
	if err != nil {
		app.errorf("Error parsing percentiles: %v", err)
		return subcommands.ExitUsageError
	}

	f, err := os.Open(c.in)
	if err != nil {
		app.errorf("Error opening dataset: %v", err)
		return subcommands.ExitFailure
	}
	defer f.Close()

	ds, err := export.ReadDatasetCSV(f)
	if err != nil {
		app.errorf("Error reading dataset %q: %v", c.in, err)
		return subcommands.ExitFailure
	}

	overall, err := statistics.ComputeDataset(ds)
	if err != nil {
		app.errorf("Error computing statistics: %v", err)
		return subcommands.ExitFailure
	}
	segments, err := statistics.ComputeBySegment(ds)
	if err != nil {
		app.errorf("Error computing segment statistics: %v", err)
		return subcommands.ExitFailure
	}
	percentiles, err := statistics.Percentiles(ds.Holdings(), ps)
	if err != nil {
		app.errorf("Error computing percentiles: %v", err)
		return subcommands.ExitFailure
	}

	sample := ds.Records
	if len(sample) > report.SampleSize {
		sample = sample[:report.SampleSize]
	}
	rep := report.Report{
		Title:       c.in,
		Currency:    c.currency,
		Overall:     overall,
		Segments:    segments,
		Percentiles: percentiles,
		Sample:      sample,
	}
	if err := report.Render(app.Stdout, rep, report.Options{Style: c.style}); err != nil {
		app.errorf("Error rendering report: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
