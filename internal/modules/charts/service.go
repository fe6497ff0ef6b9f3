// Package charts builds visualization data from a generated dataset and
// renders it to PNG.
package charts

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/aristath/fundsim/internal/domain"
	"github.com/aristath/fundsim/internal/scenario"
	"github.com/aristath/fundsim/pkg/formulas"
)

// Histogram is a binned series. Edges has len(Counts)+1 entries.
type Histogram struct {
	Label   string    `json:"label"`
	Edges   []float64 `json:"edges"`
	Counts  []float64 `json:"counts"`
	Density bool      `json:"density"` // Counts normalized to unit area
}

// BoxSummary is a Tukey box: quartiles plus whiskers at the most extreme
// observations within 1.5 IQR of the box.
type BoxSummary struct {
	Label       string  `json:"label"`
	Min         float64 `json:"min"`
	Q1          float64 `json:"q1"`
	Median      float64 `json:"median"`
	Q3          float64 `json:"q3"`
	Max         float64 `json:"max"`
	WhiskerLow  float64 `json:"whisker_low"`
	WhiskerHigh float64 `json:"whisker_high"`
}

// Share is one slice of a pie chart.
type Share struct {
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Percent float64 `json:"percent"`
}

// Point is an (x, y) pair.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ChartSet is the complete visualization input for one run.
type ChartSet struct {
	Title          string       `json:"title"`
	Investors      int          `json:"investors"`
	LogHistogram   Histogram    `json:"log_histogram"` // log10(holding + 1)
	LogMean        float64      `json:"log_mean"`
	LogMedian      float64      `json:"log_median"`
	Mean           float64      `json:"mean"`
	Median         float64      `json:"median"`
	Boxes          []BoxSummary `json:"boxes"`
	InvestorShares []Share      `json:"investor_shares"`
	FundShares     []Share      `json:"fund_shares"`
	CDF            []Point      `json:"cdf"` // x = holding, y = cumulative percent
	CDFMarkers     []Point      `json:"cdf_markers"`
	Densities      []Histogram  `json:"densities"` // per segment, log10(holding + 1)
}

// Options tunes Build.
type Options struct {
	HistogramBins int       // Bins of the overall log histogram
	CDFPoints     int       // Approximate number of CDF points kept
	CDFMarkers    []float64 // Percentiles marked on the CDF
}

// DefaultOptions mirrors the layout of the standard report figure.
func DefaultOptions() Options {
	return Options{
		HistogramBins: 100,
		CDFPoints:     1000,
		CDFMarkers:    []float64{50, 90, 99},
	}
}

// Service provides chart data operations
type Service struct {
	opts Options
	log  zerolog.Logger
}

// NewService creates a new charts service
func NewService(opts Options, log zerolog.Logger) *Service {
	def := DefaultOptions()
	if opts.HistogramBins <= 0 {
		opts.HistogramBins = def.HistogramBins
	}
	if opts.CDFPoints <= 0 {
		opts.CDFPoints = def.CDFPoints
	}
	if opts.CDFMarkers == nil {
		opts.CDFMarkers = def.CDFMarkers
	}
	return &Service{
		opts: opts,
		log:  log.With().Str("service", "charts").Logger(),
	}
}

// Build derives every chart series from ds. Holdings must be strictly
// positive and finite.
func (s *Service) Build(title string, ds domain.Dataset, categories []scenario.Category) (ChartSet, error) {
	if ds.Len() == 0 {
		return ChartSet{}, domain.ErrEmptyDataset
	}
	for _, r := range ds.Records {
		if !(r.Holding > 0) || math.IsInf(r.Holding, 0) {
			return ChartSet{}, domain.InvalidParameter("investor %d has invalid holding %v", r.ID, r.Holding)
		}
	}
	for _, p := range s.opts.CDFMarkers {
		if math.IsNaN(p) || p < 0 || p > 100 {
			return ChartSet{}, domain.InvalidParameter("cdf marker must be within [0, 100], got %v", p)
		}
	}

	holdings := ds.Holdings()
	sorted := formulas.SortedCopy(holdings)
	mean := formulas.Mean(holdings)
	median := formulas.Percentile(sorted, 50)

	set := ChartSet{
		Title:        title,
		Investors:    ds.Len(),
		Mean:         mean,
		Median:       median,
		LogMean:      math.Log10(mean),
		LogMedian:    math.Log10(median),
		LogHistogram: logHistogram("All investors", sorted, s.opts.HistogramBins, false),
		CDF:          cdf(sorted, s.opts.CDFPoints),
	}

	for _, p := range s.opts.CDFMarkers {
		set.CDFMarkers = append(set.CDFMarkers, Point{X: formulas.Percentile(sorted, p), Y: p})
	}

	parts := ds.Partition()
	counts := make([]float64, 0, len(ds.Segments))
	for _, label := range ds.Segments {
		segSorted := formulas.SortedCopy(parts[label])
		if len(segSorted) == 0 {
			continue
		}
		set.Boxes = append(set.Boxes, boxSummary(label, segSorted))
		set.Densities = append(set.Densities, logHistogram(label, segSorted, densityBins(len(segSorted)), true))
		counts = append(counts, float64(len(segSorted)))
	}

	labels := make([]string, 0, len(counts))
	for _, label := range ds.Segments {
		if len(parts[label]) > 0 {
			labels = append(labels, label)
		}
	}
	set.InvestorShares = shares(labels, counts)

	catLabels := make([]string, len(categories))
	catValues := make([]float64, len(categories))
	for i, c := range categories {
		catLabels[i] = c.Name
		catValues[i] = c.Value
	}
	set.FundShares = shares(catLabels, catValues)

	s.log.Debug().
		Int("investors", set.Investors).
		Int("segments", len(set.Boxes)).
		Int("cdf_points", len(set.CDF)).
		Msg("Built chart data")

	return set, nil
}

// logHistogram bins log10(x + 1) of ascending values.
func logHistogram(label string, sorted []float64, bins int, density bool) Histogram {
	logs := make([]float64, len(sorted))
	for i, v := range sorted {
		logs[i] = math.Log10(v + 1)
	}

	edges, counts := formulas.Histogram(logs, bins, logs[0], logs[len(logs)-1])
	if density {
		width := edges[1] - edges[0]
		n := float64(len(logs))
		for i := range counts {
			counts[i] /= n * width
		}
	}
	return Histogram{Label: label, Edges: edges, Counts: counts, Density: density}
}

// densityBins picks a bin count that grows with the sample, between 10 and 100.
func densityBins(n int) int {
	bins := int(math.Sqrt(float64(n)))
	return max(10, min(bins, 100))
}

func boxSummary(label string, sorted []float64) BoxSummary {
	q1 := formulas.Percentile(sorted, 25)
	q3 := formulas.Percentile(sorted, 75)
	iqr := q3 - q1
	lowFence, highFence := q1-1.5*iqr, q3+1.5*iqr

	b := BoxSummary{
		Label:       label,
		Min:         sorted[0],
		Q1:          q1,
		Median:      formulas.Percentile(sorted, 50),
		Q3:          q3,
		Max:         sorted[len(sorted)-1],
		WhiskerLow:  sorted[0],
		WhiskerHigh: sorted[len(sorted)-1],
	}
	for _, v := range sorted {
		if v >= lowFence {
			b.WhiskerLow = v
			break
		}
	}
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i] <= highFence {
			b.WhiskerHigh = sorted[i]
			break
		}
	}
	return b
}

// cdf keeps every step-th order statistic plus the maximum.
func cdf(sorted []float64, points int) []Point {
	n := len(sorted)
	step := max(1, n/points)

	out := make([]Point, 0, n/step+1)
	for i := 0; i < n; i += step {
		out = append(out, Point{X: sorted[i], Y: float64(i+1) / float64(n) * 100})
	}
	if last := out[len(out)-1]; last.Y != 100 {
		out = append(out, Point{X: sorted[n-1], Y: 100})
	}
	return out
}

func shares(labels []string, values []float64) []Share {
	total := formulas.Sum(values)
	out := make([]Share, len(values))
	for i, v := range values {
		pct := 0.0
		if total > 0 {
			pct = v / total * 100
		}
		out[i] = Share{Label: labels[i], Value: v, Percent: pct}
	}
	return out
}
