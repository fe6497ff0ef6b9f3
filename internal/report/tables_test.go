package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/fundsim/internal/domain"
	"github.com/aristath/fundsim/internal/modules/runs"
	"github.com/aristath/fundsim/internal/publish"
)

func TestParamsMarkdown(t *testing.T) {
	rows := []ParamRow{{
		Segment: domain.Segment{Label: "Domestic", Population: 5617861, Mean: 100, Variance: 0, Seed: 42},
		Params:  domain.LognormalParams{Mu: 4.605170, Sigma: 0},
	}}

	md := ParamsMarkdown("default", "USD", rows)
	assert.Contains(t, md, "# Lognormal parameters: default")
	assert.Contains(t, md, "| Domestic | 5,617,861 | 42 | $100.00 | 0 | 4.605170 | 0.000000 |")
}

func TestRunsMarkdown(t *testing.T) {
	assert.Contains(t, RunsMarkdown(nil), "No runs stored yet.")

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	md := RunsMarkdown([]runs.Run{{
		Meta: domain.RunMetadata{
			ID: "run-1", Scenario: "default",
			StartedAt: start, FinishedAt: start.Add(2500 * time.Millisecond),
		},
		Overall: domain.StatisticsReport{Count: 1500, Mean: 1234.5, Median: 900},
	}})
	assert.Contains(t, md, "| run-1 | default | 2026-03-01T12:00:00Z | 2.5s | 1,500 | 1,234.5 | 900 |")
}

func TestPublishedMarkdown(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	md := PublishedMarkdown([]publish.PublishedRun{
		{RunID: "run-1", ManifestKey: "fundsim/run-1/manifest.json", PublishedAt: now.Add(-2 * time.Hour)},
	}, now)
	assert.Contains(t, md, "| run-1 | 2 hours ago | fundsim/run-1/manifest.json |")
	assert.Contains(t, PublishedMarkdown(nil, now), "No runs published yet.")
}
