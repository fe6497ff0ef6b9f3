package cli

import (
	"context"
	"flag"
	"path/filepath"

	"github.com/google/subcommands"

	"github.com/aristath/fundsim/internal/database"
	"github.com/aristath/fundsim/internal/metrics"
	"github.com/aristath/fundsim/internal/modules/charts"
	"github.com/aristath/fundsim/internal/modules/runs"
	"github.com/aristath/fundsim/internal/modules/simulation"
	"github.com/aristath/fundsim/internal/publish"
	"github.com/aristath/fundsim/internal/report"
	"github.com/aristath/fundsim/internal/scenario"
)

// simulateCmd holds the flags for the 'simulate' subcommand.
type simulateCmd struct {
	app *App

	scenarioPath string
	outDir       string
	workers      int
	dbPath       string
	storeRecords bool
	publish      bool
	noCharts     bool
	noSnapshot   bool
	percentiles  string
	style        string
}

func (*simulateCmd) Name() string     { return "simulate" }
func (*simulateCmd) Synopsis() string { return "generate investor holdings and export the run" }
func (*simulateCmd) Usage() string {
	return `fundsim simulate [-scenario <file>] [-out <dir>] [-workers <n>] [-db <path>] [-store-records] [-publish]

  Generates every segment of the scenario, computes statistics and writes the
  dataset, summary, snapshot and charts under <out>/<run id>.
`
}

func (c *simulateCmd) SetFlags(f *flag.FlagSet) {
	cfg := c.app.Config
	f.StringVar(&c.scenarioPath, "scenario", "", "Scenario YAML file. Defaults to the built-in scenario.")
	f.StringVar(&c.outDir, "out", cfg.OutputDir, "Output directory")
	f.IntVar(&c.workers, "workers", cfg.Workers, "Segments generated concurrently, 0 for one per segment")
	f.StringVar(&c.dbPath, "db", cfg.DBPath, "SQLite run store. Empty disables persistence.")
	f.BoolVar(&c.storeRecords, "store-records", cfg.StoreRecords, "Also store every investor record in the run store")
	f.BoolVar(&c.publish, "publish", false, "Upload run artifacts to the configured S3 bucket")
	f.BoolVar(&c.noCharts, "no-charts", false, "Skip chart data and PNG rendering")
	f.BoolVar(&c.noSnapshot, "no-snapshot", false, "Skip the msgpack snapshot")
	f.StringVar(&c.percentiles, "percentiles", "", "Comma separated percentiles, e.g. 10,50,90")
	f.StringVar(&c.style, "style", "auto", "Report style: auto, dark, light, notty, or empty for raw markdown")
}

func (c *simulateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	app := c.app

	ps, err := parsePercentiles(c.percentiles)
	if err != nil {
		app.errorf("Error parsing percentiles: %v", err)
		return subcommands.ExitUsageError
	}
	if c.workers < 0 {
		app.errorf("Error: -workers must not be negative")
		return subcommands.ExitUsageError
	}

	if c.publish && !app.Config.S3.Enabled() {
		app.errorf("Error: -publish requires FUNDSIM_S3_BUCKET")
		return subcommands.ExitUsageError
	}

	sc, err := scenario.LoadOrDefault(c.scenarioPath)
	if err != nil {
		app.errorf("Error loading scenario: %v", err)
		return subcommands.ExitFailure
	}

	deps := simulation.Dependencies{Memory: simulation.VirtualMemoryProbe}

	if c.dbPath != "" {
		profile := database.ProfileStandard
		if c.storeRecords {
			profile = database.ProfileBulk
		}
		db, err := app.openRunStore(ctx, c.dbPath, profile)
		if err != nil {
			app.errorf("Error opening run store %q: %v", c.dbPath, err)
			return subcommands.ExitFailure
		}
		defer db.Close()
		deps.Runs = runs.NewRepository(db.Conn(), app.Log)
	}

	if !c.noCharts {
		deps.Charts = charts.NewService(charts.DefaultOptions(), app.Log)
	}
	if app.Config.Metrics {
		deps.Metrics = metrics.New()
	}
	if c.publish {
		client, err := publish.NewClient(ctx, app.Config.S3, app.Log)
		if err != nil {
			app.errorf("Error creating S3 client: %v", err)
			return subcommands.ExitFailure
		}
		deps.Publisher = publish.NewPublisher(client, app.Config.S3.Prefix, app.Log)
	}

	outDir, err := filepath.Abs(c.outDir)
	if err != nil {
		app.errorf("Error resolving output directory: %v", err)
		return subcommands.ExitFailure
	}

	svc := simulation.NewService(simulation.Config{
		OutputDir:    outDir,
		Workers:      c.workers,
		Percentiles:  ps,
		StoreRecords: c.storeRecords,
		SkipSnapshot: c.noSnapshot,
	}, deps, app.Log)

	res, err := svc.Run(ctx, sc)
	if err != nil {
		app.errorf("Error running simulation: %v", err)
		return subcommands.ExitFailure
	}

	sample := res.Dataset.Records
	if len(sample) > report.SampleSize {
		sample = sample[:report.SampleSize]
	}
	rep := report.Report{
		Title:       sc.Name,
		Currency:    sc.Currency,
		RunID:       res.Meta.ID,
		Elapsed:     res.Meta.FinishedAt.Sub(res.Meta.StartedAt),
		Overall:     res.Overall,
		Segments:    res.SegmentReports(),
		Percentiles: res.Percentiles,
		Sample:      sample,
	}
	if err := report.Render(app.Stdout, rep, report.Options{Style: c.style}); err != nil {
		app.errorf("Error rendering report: %v", err)
		return subcommands.ExitFailure
	}

	app.Log.Info().Str("dir", res.Dir).Msg("Run artifacts written")
	return subcommands.ExitSuccess
}
