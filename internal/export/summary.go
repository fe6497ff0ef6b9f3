package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/aristath/fundsim/internal/domain"
)

// SummaryRow is one metric/value pair of the summary export.
type SummaryRow struct {
	Metric string
	Value  string
}

// SummaryRows flattens the statistics of a run into metric/value pairs:
// investor counts first, then moments, then percentiles.
func SummaryRows(overall domain.StatisticsReport, segments []domain.SegmentReport, percentiles []domain.Percentile) []SummaryRow {
	rows := []SummaryRow{
		{"Total investors", strconv.Itoa(overall.Count)},
	}
	for _, s := range segments {
		rows = append(rows, SummaryRow{s.Label + " investors", strconv.Itoa(s.Report.Count)})
	}

	rows = append(rows,
		SummaryRow{"Mean holding", money(overall.Mean, 2)},
		SummaryRow{"Median holding", money(overall.Median, 2)},
		SummaryRow{"Standard deviation", money(overall.StdDev, 2)},
		SummaryRow{"Variance", money(overall.Variance, 2)},
		SummaryRow{"Minimum holding", money(overall.Min, 2)},
		SummaryRow{"Maximum holding", money(overall.Max, 2)},
		SummaryRow{"Total holdings", money(overall.Sum, 0)},
	)

	for _, p := range percentiles {
		rows = append(rows, SummaryRow{
			Metric: "Percentile " + strconv.FormatFloat(p.P, 'f', -1, 64),
			Value:  money(p.Value, 2),
		})
	}
	return rows
}

// WriteSummaryCSV writes SummaryRows with a metric,value header.
func WriteSummaryCSV(w io.Writer, overall domain.StatisticsReport, segments []domain.SegmentReport, percentiles []domain.Percentile) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"metric", "value"}); err != nil {
		return fmt.Errorf("failed to write summary header: %w", err)
	}
	for _, row := range SummaryRows(overall, segments, percentiles) {
		if err := cw.Write([]string{row.Metric, row.Value}); err != nil {
			return fmt.Errorf("failed to write summary row %q: %w", row.Metric, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// money renders a currency amount with fixed decimals. NaN and infinities
// have no decimal form and are written as-is.
func money(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}
