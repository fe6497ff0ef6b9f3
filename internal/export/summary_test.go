package export

import (
	"bytes"
	"encoding/csv"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fundsim/internal/domain"
)

func TestSummaryRows(t *testing.T) {
	overall := domain.StatisticsReport{
		Count: 4, Mean: 25, Median: 25, StdDev: 12.909944, Variance: 166.666667,
		Min: 10, Max: 40, Sum: 100,
	}
	segments := []domain.SegmentReport{
		{Label: "Domestic", Report: domain.StatisticsReport{Count: 3}},
		{Label: "Foreign", Report: domain.StatisticsReport{Count: 1}},
	}
	percentiles := []domain.Percentile{{P: 50, Value: 25}, {P: 99.5, Value: 39.85}}

	rows := SummaryRows(overall, segments, percentiles)

	want := []SummaryRow{
		{"Total investors", "4"},
		{"Domestic investors", "3"},
		{"Foreign investors", "1"},
		{"Mean holding", "25.00"},
		{"Median holding", "25.00"},
		{"Standard deviation", "12.91"},
		{"Variance", "166.67"},
		{"Minimum holding", "10.00"},
		{"Maximum holding", "40.00"},
		{"Total holdings", "100"},
		{"Percentile 50", "25.00"},
		{"Percentile 99.5", "39.85"},
	}
	assert.Equal(t, want, rows)
}

func TestSummaryRows_NaNDispersion(t *testing.T) {
	overall := domain.StatisticsReport{Count: 1, Mean: 7, Median: 7, StdDev: math.NaN(), Variance: math.NaN(), Min: 7, Max: 7, Sum: 7}

	rows := SummaryRows(overall, nil, nil)

	values := map[string]string{}
	for _, r := range rows {
		values[r.Metric] = r.Value
	}
	assert.Equal(t, "NaN", values["Standard deviation"])
	assert.Equal(t, "NaN", values["Variance"])
}

func TestWriteSummaryCSV(t *testing.T) {
	overall := domain.StatisticsReport{Count: 2, Mean: 1.5, Median: 1.5, StdDev: 0.7071, Variance: 0.5, Min: 1, Max: 2, Sum: 3}

	var buf bytes.Buffer
	require.NoError(t, WriteSummaryCSV(&buf, overall, nil, nil))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, records)

	assert.Equal(t, []string{"metric", "value"}, records[0])
	assert.Equal(t, []string{"Total investors", "2"}, records[1])
	assert.Equal(t, []string{"Total holdings", "3"}, records[len(records)-1])
}
