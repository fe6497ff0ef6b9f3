package report

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fundsim/internal/domain"
)

func testReport() Report {
	return Report{
		Title:    "baseline",
		Currency: "USD",
		RunID:    "run-1",
		Elapsed:  1500 * time.Millisecond,
		Overall: domain.StatisticsReport{
			Count: 1234567, Mean: 1234.5, Median: 800, StdDev: 50,
			Variance: 2500, Min: 1, Max: 99999.994, Sum: 1e6,
		},
		Segments: []domain.SegmentReport{
			{Label: "Domestic", Report: domain.StatisticsReport{Count: 1, Mean: 10, Median: 10, StdDev: math.NaN(), Variance: math.NaN(), Min: 10, Max: 10, Sum: 10}},
		},
		Percentiles: []domain.Percentile{{P: 50, Value: 800}, {P: 99, Value: 5000}},
		Sample: []domain.InvestorRecord{
			{ID: 1, Segment: "Domestic", Holding: 10},
		},
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(testReport())

	tests := []struct {
		name string
		want string
	}{
		{"title", "# Fund holdings simulation: baseline"},
		{"run line", "Run `run-1` generated 1,234,567 investors in 1.5s."},
		{"investor count", "| Investors | 1,234,567 |"},
		{"currency mean", "| Mean | $1,234.50 |"},
		{"plain variance", "| Variance | 2,500 |"},
		{"rounded maximum", "| Maximum | $99,999.99 |"},
		{"segment row with n/a", "| Domestic | 1 | $10.00 | $10.00 | n/a | $10.00 | $10.00 | $10.00 |"},
		{"ordinal percentile", "| 99th | $5,000.00 |"},
		{"sample row", "| 1 | Domestic | $10.00 |"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, md, tt.want)
		})
	}
}

func TestMarkdownOmitsEmptySections(t *testing.T) {
	md := Markdown(Report{Overall: domain.StatisticsReport{Count: 3, Mean: 2}})

	assert.Contains(t, md, "# Fund holdings simulation\n")
	assert.NotContains(t, md, "## Segments")
	assert.NotContains(t, md, "## Percentiles")
	assert.NotContains(t, md, "investors in")
	// no currency falls back to plain numbers
	assert.Contains(t, md, "| Mean | 2 |")
}

func TestRenderRaw(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, testReport(), Options{}))
	assert.Equal(t, Markdown(testReport()), buf.String())
}

func TestRenderStyled(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, testReport(), Options{Style: "notty", Width: 120}))
	out := buf.String()
	assert.Contains(t, out, "General statistics")
	assert.Contains(t, out, "Domestic")
	assert.NotContains(t, out, "|---|")
}
