package generator

import (
	"context"
	"iter"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/aristath/fundsim/internal/domain"
)

// seedStream is xor-ed into the seed to form the second PCG word.
const seedStream uint64 = 0x9E3779B97F4A7C15

// cancelCheckInterval is how many draws happen between context checks.
const cancelCheckInterval = 1 << 16

// NewSource returns the deterministic random source used for a segment:
// PCG (math/rand/v2) seeded with (seed, seed^0x9E3779B97F4A7C15).
func NewSource(seed int64) rand.Source {
	return rand.NewPCG(uint64(seed), uint64(seed)^seedStream)
}

// Generate draws population holdings for one segment. Identical inputs
// produce an identical sequence. IDs run 1..population in draw order.
func Generate(population int, mean, variance float64, label string, seed int64) ([]domain.InvestorRecord, error) {
	return GenerateContext(context.Background(), population, mean, variance, label, seed)
}

// GenerateContext is Generate with cancellation, checked every 65536 draws.
func GenerateContext(ctx context.Context, population int, mean, variance float64, label string, seed int64) ([]domain.InvestorRecord, error) {
	if err := domain.ValidateGenerationInputs(population, mean, variance); err != nil {
		return nil, err
	}
	params, err := DeriveParams(mean, variance)
	if err != nil {
		return nil, err
	}

	draw := newSampler(params, mean, seed)
	records := make([]domain.InvestorRecord, population)
	for i := range records {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		records[i] = domain.InvestorRecord{
			ID:      i + 1,
			Segment: label,
			Holding: draw(),
		}
	}

	return records, nil
}

// Stream returns a lazy, restartable sequence yielding exactly the records
// Generate would return for the same inputs.
func Stream(population int, mean, variance float64, label string, seed int64) (iter.Seq[domain.InvestorRecord], error) {
	if err := domain.ValidateGenerationInputs(population, mean, variance); err != nil {
		return nil, err
	}
	params, err := DeriveParams(mean, variance)
	if err != nil {
		return nil, err
	}

	return func(yield func(domain.InvestorRecord) bool) {
		draw := newSampler(params, mean, seed)
		for i := 0; i < population; i++ {
			if !yield(domain.InvestorRecord{ID: i + 1, Segment: label, Holding: draw()}) {
				return
			}
		}
	}, nil
}

// newSampler returns a closure producing successive holdings. Sigma 0 is a
// point mass at mean and never touches the random source.
func newSampler(params domain.LognormalParams, mean float64, seed int64) func() float64 {
	if params.Sigma == 0 {
		return func() float64 { return mean }
	}

	dist := distuv.LogNormal{
		Mu:    params.Mu,
		Sigma: params.Sigma,
		Src:   NewSource(seed),
	}
	return func() float64 {
		v := dist.Rand()
		switch {
		case !(v > 0):
			// exp underflow on extreme sigma
			return math.SmallestNonzeroFloat64
		case math.IsInf(v, 1):
			return math.MaxFloat64
		}
		return v
	}
}
