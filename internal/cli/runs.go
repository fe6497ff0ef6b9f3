package cli

import (
	"context"
	"flag"
	"time"

	"github.com/google/subcommands"

	"github.com/aristath/fundsim/internal/database"
	"github.com/aristath/fundsim/internal/modules/runs"
	"github.com/aristath/fundsim/internal/publish"
	"github.com/aristath/fundsim/internal/report"
)

// runsCmd holds the flags for the 'runs' subcommand.
type runsCmd struct {
	app *App

	dbPath    string
	limit     int
	published bool
	unpublish string
	style     string
}

func (*runsCmd) Name() string     { return "runs" }
func (*runsCmd) Synopsis() string { return "list stored or published runs" }
func (*runsCmd) Usage() string {
	return `fundsim runs [-db <path>] [-limit <n>]
fundsim runs -published
fundsim runs -unpublish <run id>

  Lists runs from the SQLite run store, or from the S3 bucket with -published.
`
}

func (c *runsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dbPath, "db", c.app.Config.DBPath, "SQLite run store")
	f.IntVar(&c.limit, "limit", 20, "Maximum number of runs listed")
	f.BoolVar(&c.published, "published", false, "List runs published to the S3 bucket")
	f.StringVar(&c.unpublish, "unpublish", "", "Delete every published object of a run")
	f.StringVar(&c.style, "style", "auto", "Report style: auto, dark, light, notty, or empty for raw markdown")
}

func (c *runsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.published || c.unpublish != "" {
		return c.executeBucket(ctx)
	}

	app := c.app
	if c.dbPath == "" {
		app.errorf("Error: -db or FUNDSIM_DB_PATH is required")
		return subcommands.ExitUsageError
	}

	db, err := app.openRunStore(ctx, c.dbPath, database.ProfileStandard)
	if err != nil {
		app.errorf("Error opening run store %q: %v", c.dbPath, err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	list, err := runs.NewRepository(db.Conn(), app.Log).List(ctx, c.limit)
	if err != nil {
		app.errorf("Error listing runs: %v", err)
		return subcommands.ExitFailure
	}

	if err := app.render(report.RunsMarkdown(list), c.style); err != nil {
		app.errorf("Error rendering runs: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *runsCmd) executeBucket(ctx context.Context) subcommands.ExitStatus {
	app := c.app
	if !app.Config.S3.Enabled() {
		app.errorf("Error: FUNDSIM_S3_BUCKET is not configured")
		return subcommands.ExitUsageError
	}

	client, err := publish.NewClient(ctx, app.Config.S3, app.Log)
	if err != nil {
		app.errorf("Error creating S3 client: %v", err)
		return subcommands.ExitFailure
	}
	pub := publish.NewPublisher(client, app.Config.S3.Prefix, app.Log)

	if c.unpublish != "" {
		n, err := pub.Unpublish(ctx, c.unpublish)
		if err != nil {
			app.errorf("Error unpublishing %s after %d objects: %v", c.unpublish, n, err)
			return subcommands.ExitFailure
		}
		app.Log.Info().Str("run_id", c.unpublish).Int("objects", n).Msg("Run unpublished")
		return subcommands.ExitSuccess
	}

	list, err := pub.ListPublished(ctx)
	if err != nil {
		app.errorf("Error listing published runs: %v", err)
		return subcommands.ExitFailure
	}
	if err := app.render(report.PublishedMarkdown(list, time.Now()), c.style); err != nil {
		app.errorf("Error rendering runs: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
