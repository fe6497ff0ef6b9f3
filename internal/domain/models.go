// Package domain holds the value types shared by the generator, the
// statistics reporter and the export collaborators.
package domain

import (
	"math"
	"time"
)

// Segment is a disjoint investor cohort with its own generation parameters.
type Segment struct {
	Label      string  `json:"label" msgpack:"label"`
	Population int     `json:"population" msgpack:"population"`
	Mean       float64 `json:"mean" msgpack:"mean"`         // Target mean holding, currency units
	Variance   float64 `json:"variance" msgpack:"variance"` // Target variance, currency units squared
	Seed       int64   `json:"seed" msgpack:"seed"`
}

// Validate checks the generation preconditions of a segment.
func (s Segment) Validate() error {
	return ValidateGenerationInputs(s.Population, s.Mean, s.Variance)
}

// ValidateGenerationInputs checks population > 0, finite mean > 0 and finite variance >= 0.
func ValidateGenerationInputs(population int, mean, variance float64) error {
	if population <= 0 {
		return InvalidParameter("population must be positive, got %d", population)
	}
	if math.IsNaN(mean) || math.IsInf(mean, 0) || mean <= 0 {
		return InvalidParameter("mean must be a positive finite number, got %v", mean)
	}
	if math.IsNaN(variance) || math.IsInf(variance, 0) || variance < 0 {
		return InvalidParameter("variance must be a non-negative finite number, got %v", variance)
	}
	return nil
}

// LognormalParams are the (mu, sigma) of the underlying normal distribution.
type LognormalParams struct {
	Mu    float64 `json:"mu" msgpack:"mu"`
	Sigma float64 `json:"sigma" msgpack:"sigma"`
}

// ImpliedMean returns exp(mu + sigma^2/2).
func (p LognormalParams) ImpliedMean() float64 {
	return math.Exp(p.Mu + p.Sigma*p.Sigma/2)
}

// ImpliedVariance returns (exp(sigma^2) - 1) * exp(2mu + sigma^2).
func (p LognormalParams) ImpliedVariance() float64 {
	s2 := p.Sigma * p.Sigma
	return math.Expm1(s2) * math.Exp(2*p.Mu+s2)
}

// InvestorRecord is one synthetic investor. Immutable once built.
type InvestorRecord struct {
	ID      int     `json:"id" msgpack:"id"`
	Segment string  `json:"segment" msgpack:"segment"`
	Holding float64 `json:"holding" msgpack:"holding"`
}

// Dataset is the ordered, merged output of one run.
type Dataset struct {
	Records  []InvestorRecord `json:"records" msgpack:"records"`
	Segments []string         `json:"segments" msgpack:"segments"` // Segment labels in declaration order
}

// Len returns the number of records
func (d Dataset) Len() int {
	return len(d.Records)
}

// Holdings returns the holding amounts in record order
func (d Dataset) Holdings() []float64 {
	out := make([]float64, len(d.Records))
	for i, r := range d.Records {
		out[i] = r.Holding
	}
	return out
}

// Partition splits holdings by segment label, preserving record order within
// each segment.
func (d Dataset) Partition() map[string][]float64 {
	parts := make(map[string][]float64, len(d.Segments))
	for _, label := range d.Segments {
		parts[label] = nil
	}
	for _, r := range d.Records {
		parts[r.Segment] = append(parts[r.Segment], r.Holding)
	}
	return parts
}

// StatisticsReport holds summary moments. StdDev and Variance are NaN when
// Count <= 1.
type StatisticsReport struct {
	Count    int     `json:"count" msgpack:"count"`
	Mean     float64 `json:"mean" msgpack:"mean"`
	Median   float64 `json:"median" msgpack:"median"`
	StdDev   float64 `json:"stddev" msgpack:"stddev"`
	Variance float64 `json:"variance" msgpack:"variance"`
	Min      float64 `json:"min" msgpack:"min"`
	Max      float64 `json:"max" msgpack:"max"`
	Sum      float64 `json:"sum" msgpack:"sum"`
}

// SegmentReport pairs a segment label with its statistics.
type SegmentReport struct {
	Label  string           `json:"label" msgpack:"label"`
	Report StatisticsReport `json:"report" msgpack:"report"`
}

// Percentile is one (p, value) pair, p in [0, 100].
type Percentile struct {
	P     float64 `json:"p" msgpack:"p"`
	Value float64 `json:"value" msgpack:"value"`
}

// RunMetadata identifies one simulation run.
type RunMetadata struct {
	ID         string    `json:"id" msgpack:"id"`
	Scenario   string    `json:"scenario" msgpack:"scenario"`
	StartedAt  time.Time `json:"started_at" msgpack:"started_at"`
	FinishedAt time.Time `json:"finished_at" msgpack:"finished_at"`
}
