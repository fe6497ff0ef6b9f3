// Package cli implements the fundsim subcommands.
package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"

	"github.com/aristath/fundsim/internal/config"
	"github.com/aristath/fundsim/internal/database"
	"github.com/aristath/fundsim/internal/modules/statistics"
	"github.com/aristath/fundsim/internal/report"
)

// App carries what every subcommand needs.
type App struct {
	Config *config.Config
	Log    zerolog.Logger
	Stdout io.Writer
	Stderr io.Writer
}

// Register adds the fundsim subcommands to c.
func Register(c *subcommands.Commander, app *App) {
	c.Register(&simulateCmd{app: app}, "simulation")
	c.Register(&paramsCmd{app: app}, "simulation")
	c.Register(&describeCmd{app: app}, "analysis")
	c.Register(&runsCmd{app: app}, "analysis")
}

func (a *App) errorf(format string, args ...any) {
	fmt.Fprintf(a.Stderr, format+"\n", args...)
}

func (a *App) render(md, style string) error {
	return report.RenderMarkdown(a.Stdout, md, report.Options{Style: style})
}

// openRunStore opens, checks and migrates the SQLite run store at path.
func (a *App) openRunStore(ctx context.Context, path string, profile database.DatabaseProfile) (*database.DB, error) {
	db, err := database.New(database.Config{Path: path, Profile: profile, Name: "runs"})
	if err != nil {
		return nil, err
	}
	if err := db.QuickCheck(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// parsePercentiles parses a comma separated list such as "10,50,90". An
// empty string selects the default list.
func parsePercentiles(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return statistics.DefaultPercentiles, nil
	}

	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		p, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid percentile %q: %w", part, err)
		}
		out = append(out, p)
	}
	if err := statistics.ValidatePercentiles(out); err != nil {
		return nil, err
	}
	return out, nil
}
