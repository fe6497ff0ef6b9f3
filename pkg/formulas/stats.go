package formulas

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// SampleVariance calculates the unbiased (N-1) variance.
// Returns NaN for fewer than two observations: the estimator is undefined there.
func SampleVariance(data []float64) float64 {
	if len(data) < 2 {
		return math.NaN()
	}
	return stat.Variance(data, nil)
}

// Sum adds all values
func Sum(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return floats.Sum(data)
}

// SortedCopy returns an ascending copy of data, leaving the input untouched
func SortedCopy(data []float64) []float64 {
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	return sorted
}

// Percentile returns the p-th percentile (0..100) of ascending data using
// linear interpolation between the closest ranks:
//
//	h = (n-1) * p/100
//	value = x[floor(h)] + (h - floor(h)) * (x[ceil(h)] - x[floor(h)])
//
// Callers are responsible for sorting and for validating p.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}

	h := float64(n-1) * p / 100
	lo := int(math.Floor(h))
	hi := int(math.Ceil(h))
	if lo < 0 {
		lo = 0
	}
	if hi > n-1 {
		hi = n - 1
	}

	frac := h - float64(lo)
	if lo == hi || frac == 0 {
		return sorted[lo]
	}
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// Histogram counts ascending values into bins equal-width bins spanning
// [lo, hi). Values equal to hi land in the last bin.
// Returns the bin edges (len bins+1) and counts (len bins).
func Histogram(sorted []float64, bins int, lo, hi float64) ([]float64, []float64) {
	if bins <= 0 || len(sorted) == 0 {
		return nil, nil
	}
	if hi <= lo {
		hi = lo + 1
	}

	edges := floats.Span(make([]float64, bins+1), lo, hi)
	dividers := make([]float64, len(edges))
	copy(dividers, edges)
	// stat.Histogram wants the upper divider strictly above the maximum.
	dividers[bins] = math.Nextafter(math.Max(hi, sorted[len(sorted)-1]), math.Inf(1))

	counts := stat.Histogram(nil, dividers, sorted, nil)
	return edges, counts
}
