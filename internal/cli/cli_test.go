package cli

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fundsim/internal/config"
	"github.com/aristath/fundsim/internal/modules/simulation"
	"github.com/aristath/fundsim/internal/modules/statistics"
)

const smallScenario = `
name: small
total_investors: 300
market:
  currency: USD
segments:
  - label: Domestic
    population: 200
    seed: 1
    mean: 1000
    cv_multiplier: 2
  - label: Foreign
    population: 100
    seed: 2
    mean: 2000
    variance: 0
`

type harness struct {
	app    *App
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	return &harness{
		app: &App{
			Config: &config.Config{
				OutputDir: filepath.Join(t.TempDir(), "output"),
				Metrics:   true,
				S3:        &config.S3Config{},
			},
			Log:    zerolog.Nop(),
			Stdout: stdout,
			Stderr: stderr,
		},
		stdout: stdout,
		stderr: stderr,
	}
}

func (h *harness) run(t *testing.T, args ...string) subcommands.ExitStatus {
	t.Helper()
	h.stdout.Reset()
	h.stderr.Reset()

	top := flag.NewFlagSet("fundsim", flag.ContinueOnError)
	cmdr := subcommands.NewCommander(top, "fundsim")
	cmdr.Output = h.stderr
	cmdr.Error = h.stderr
	Register(cmdr, h.app)

	require.NoError(t, top.Parse(args))
	return cmdr.Execute(context.Background())
}

func writeScenario(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "small.yaml")
	require.NoError(t, os.WriteFile(path, []byte(smallScenario), 0o644))
	return path
}

func TestSimulateDescribeAndRuns(t *testing.T) {
	h := newHarness(t)
	scenarioPath := writeScenario(t)
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	status := h.run(t, "simulate", "-scenario", scenarioPath, "-db", dbPath, "-no-charts", "-style=")
	require.Equal(t, subcommands.ExitSuccess, status, h.stderr.String())

	out := h.stdout.String()
	assert.Contains(t, out, "# Fund holdings simulation: small")
	assert.Contains(t, out, "| Investors | 300 |")
	assert.Contains(t, out, "## First 10 investors")

	entries, err := os.ReadDir(h.app.Config.OutputDir)
	require.NoError(t, err)
	var runDir string
	for _, e := range entries {
		if e.IsDir() {
			runDir = filepath.Join(h.app.Config.OutputDir, e.Name())
		}
	}
	require.NotEmpty(t, runDir)
	assert.FileExists(t, filepath.Join(h.app.Config.OutputDir, "fundsim.prom"))

	t.Run("describe", func(t *testing.T) {
		status := h.run(t, "describe", "-in", filepath.Join(runDir, simulation.DatasetFile), "-percentiles", "50", "-style=")
		require.Equal(t, subcommands.ExitSuccess, status, h.stderr.String())
		assert.Contains(t, h.stdout.String(), "| Investors | 300 |")
		assert.Contains(t, h.stdout.String(), "| 50th |")
	})

	t.Run("runs", func(t *testing.T) {
		status := h.run(t, "runs", "-db", dbPath, "-style=")
		require.Equal(t, subcommands.ExitSuccess, status, h.stderr.String())
		assert.Contains(t, h.stdout.String(), "| "+filepath.Base(runDir)+" | small |")
	})
}

func TestParams(t *testing.T) {
	h := newHarness(t)

	status := h.run(t, "params", "-style=")
	require.Equal(t, subcommands.ExitSuccess, status, h.stderr.String())
	assert.Contains(t, h.stdout.String(), "| Domestic | 5,617,861 | 42 |")
	assert.Contains(t, h.stdout.String(), "| Foreign | 50,873 | 43 |")
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"describe without input", []string{"describe"}},
		{"bad percentile", []string{"simulate", "-percentiles", "10,abc"}},
		{"negative workers", []string{"simulate", "-workers", "-1"}},
		{"runs without store", []string{"runs"}},
		{"publish without bucket", []string{"simulate", "-publish", "-scenario", "missing.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			assert.Equal(t, subcommands.ExitUsageError, h.run(t, tt.args...))
			assert.NotEmpty(t, h.stderr.String())
		})
	}
}

func TestMissingScenarioFails(t *testing.T) {
	h := newHarness(t)
	status := h.run(t, "simulate", "-scenario", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, subcommands.ExitFailure, status)
	assert.Contains(t, h.stderr.String(), "Error loading scenario")
}

func TestParsePercentiles(t *testing.T) {
	tests := []struct {
		in      string
		want    []float64
		wantErr bool
	}{
		{"", statistics.DefaultPercentiles, false},
		{"50", []float64{50}, false},
		{" 10, 90 ,99.9", []float64{10, 90, 99.9}, false},
		{"10,,20", nil, true},
		{"101", nil, true},
		{"-1", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parsePercentiles(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
