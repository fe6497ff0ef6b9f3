// Package statistics computes summary moments and percentiles over a dataset.
// Every function is pure: inputs are never reordered or retained.
package statistics

import (
	"math"

	"github.com/aristath/fundsim/internal/domain"
	"github.com/aristath/fundsim/pkg/formulas"
)

// DefaultPercentiles are reported when the caller does not ask for others.
var DefaultPercentiles = []float64{10, 25, 50, 75, 90, 95, 99}

// Compute returns count, mean, median, sample variance and standard deviation
// (N-1 divisor), min, max and sum. Variance and StdDev are NaN for a single
// observation.
func Compute(values []float64) (domain.StatisticsReport, error) {
	if len(values) == 0 {
		return domain.StatisticsReport{}, domain.ErrEmptyDataset
	}

	sorted := formulas.SortedCopy(values)
	variance := formulas.SampleVariance(values)

	return domain.StatisticsReport{
		Count:    len(values),
		Mean:     formulas.Mean(values),
		Median:   formulas.Percentile(sorted, 50),
		StdDev:   math.Sqrt(variance),
		Variance: variance,
		Min:      sorted[0],
		Max:      sorted[len(sorted)-1],
		Sum:      formulas.Sum(values),
	}, nil
}

// ComputeDataset runs Compute over every holding in ds.
func ComputeDataset(ds domain.Dataset) (domain.StatisticsReport, error) {
	return Compute(ds.Holdings())
}

// ComputeBySegment reports each segment in declaration order. A declared
// segment without records fails with ErrEmptyDataset.
func ComputeBySegment(ds domain.Dataset) ([]domain.SegmentReport, error) {
	if ds.Len() == 0 {
		return nil, domain.ErrEmptyDataset
	}

	parts := ds.Partition()
	reports := make([]domain.SegmentReport, 0, len(ds.Segments))
	for _, label := range ds.Segments {
		report, err := Compute(parts[label])
		if err != nil {
			return nil, err
		}
		reports = append(reports, domain.SegmentReport{Label: label, Report: report})
	}
	return reports, nil
}

// Percentiles evaluates each p in ps (0..100) with linear interpolation
// between order statistics. Results keep the order of ps.
func Percentiles(values []float64, ps []float64) ([]domain.Percentile, error) {
	if len(values) == 0 {
		return nil, domain.ErrEmptyDataset
	}
	if err := ValidatePercentiles(ps); err != nil {
		return nil, err
	}

	sorted := formulas.SortedCopy(values)
	out := make([]domain.Percentile, len(ps))
	for i, p := range ps {
		out[i] = domain.Percentile{P: p, Value: formulas.Percentile(sorted, p)}
	}
	return out, nil
}

// ValidatePercentiles rejects NaN and values outside [0, 100].
func ValidatePercentiles(ps []float64) error {
	for _, p := range ps {
		if math.IsNaN(p) || p < 0 || p > 100 {
			return domain.InvalidParameter("percentile must be within [0, 100], got %v", p)
		}
	}
	return nil
}
