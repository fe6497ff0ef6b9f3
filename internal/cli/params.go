package cli

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"github.com/aristath/fundsim/internal/modules/generator"
	"github.com/aristath/fundsim/internal/report"
	"github.com/aristath/fundsim/internal/scenario"
)

// paramsCmd holds the flags for the 'params' subcommand.
type paramsCmd struct {
	app *App

	scenarioPath string
	style        string
}

func (*paramsCmd) Name() string     { return "params" }
func (*paramsCmd) Synopsis() string { return "show the lognormal parameters derived for each segment" }
func (*paramsCmd) Usage() string {
	return `fundsim params [-scenario <file>]

  Prints each segment's target moments, the derived (mu, sigma) and the
  moments those parameters imply. Nothing is generated.
`
}

func (c *paramsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.scenarioPath, "scenario", "", "Scenario YAML file. Defaults to the built-in scenario.")
	f.StringVar(&c.style, "style", "auto", "Report style: auto, dark, light, notty, or empty for raw markdown")
}

func (c *paramsCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sc, err := scenario.LoadOrDefault(c.scenarioPath)
	if err != nil {
		c.app.errorf("Error loading scenario: %v", err)
		return subcommands.ExitFailure
	}

	rows := make([]report.ParamRow, 0, len(sc.Segments))
	for _, seg := range sc.Segments {
		params, err := generator.DeriveParams(seg.Mean, seg.Variance)
		if err != nil {
			c.app.errorf("Error deriving parameters for %q: %v", seg.Label, err)
			return subcommands.ExitFailure
		}
		rows = append(rows, report.ParamRow{Segment: seg, Params: params})
	}

	if err := c.app.render(report.ParamsMarkdown(sc.Name, sc.Currency, rows), c.style); err != nil {
		c.app.errorf("Error rendering parameters: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
