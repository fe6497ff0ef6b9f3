package generator

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fundsim/internal/domain"
	"github.com/aristath/fundsim/pkg/formulas"
)

func TestGenerate_Deterministic(t *testing.T) {
	a, err := Generate(5000, 1000, 250000, "X", 42)
	require.NoError(t, err)
	b, err := Generate(5000, 1000, 250000, "X", 42)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestGenerate_SeedChangesDraws(t *testing.T) {
	a, err := Generate(100, 1000, 250000, "X", 42)
	require.NoError(t, err)
	b, err := Generate(100, 1000, 250000, "X", 43)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestGenerate_PopulationAndOrdering(t *testing.T) {
	for _, pop := range []int{1, 2, 17, 1000} {
		records, err := Generate(pop, 50, 400, "Domestic", 7)
		require.NoError(t, err)
		require.Len(t, records, pop)

		for i, r := range records {
			assert.Equal(t, i+1, r.ID)
			assert.Equal(t, "Domestic", r.Segment)
		}
	}
}

func TestGenerate_StrictlyPositive(t *testing.T) {
	tests := []struct {
		name     string
		mean     float64
		variance float64
	}{
		{"moderate", 1000, 1e6},
		{"extreme dispersion", 1, 1e12},
		{"zero variance", 3, 0},
		{"tiny mean", 1e-9, 1e-10},
		{"tiny mean large ratio", 1e-100, 1},
		{"huge mean", 1e300, 1e308},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := Generate(20000, tt.mean, tt.variance, "X", 1)
			require.NoError(t, err)
			for _, r := range records {
				if !(r.Holding > 0) || math.IsInf(r.Holding, 0) {
					t.Fatalf("record %d has invalid holding %v", r.ID, r.Holding)
				}
			}
		})
	}
}

func TestGenerate_ZeroVarianceIsPointMass(t *testing.T) {
	records, err := Generate(100, 1000.0, 0.0, "X", 1)
	require.NoError(t, err)
	require.Len(t, records, 100)

	for _, r := range records {
		assert.Equal(t, 1000.0, r.Holding)
	}
}

func TestGenerate_InvalidParameters(t *testing.T) {
	_, err := Generate(100, -5.0, 10.0, "X", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	_, err = Generate(0, 5.0, 10.0, "X", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	_, err = Generate(10, 5.0, -1, "X", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	_, err = Generate(1000, 1e-200, 1, "X", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestGenerate_LargeSampleConvergesToTargets(t *testing.T) {
	if testing.Short() {
		t.Skip("large-sample simulation")
	}

	const (
		mean     = 1000.0
		variance = 250000.0 // coefficient of variation 0.5
	)
	records, err := Generate(200000, mean, variance, "X", 42)
	require.NoError(t, err)

	values := make([]float64, len(records))
	for i, r := range records {
		values[i] = r.Holding
	}

	assert.InEpsilon(t, mean, formulas.Mean(values), 0.01)
	assert.InEpsilon(t, variance, formulas.SampleVariance(values), 0.05)
}

func TestGenerateContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := GenerateContext(ctx, 10, 1, 1, "X", 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStream_MatchesGenerate(t *testing.T) {
	want, err := Generate(1000, 500, 1e5, "Foreign", 43)
	require.NoError(t, err)

	seq, err := Stream(1000, 500, 1e5, "Foreign", 43)
	require.NoError(t, err)

	// Two passes: the sequence restarts from the seed each time.
	for pass := 0; pass < 2; pass++ {
		var got []domain.InvestorRecord
		for r := range seq {
			got = append(got, r)
		}
		assert.Equal(t, want, got, "pass %d", pass)
	}
}

func TestStream_StopsEarly(t *testing.T) {
	seq, err := Stream(1000, 500, 1e5, "X", 1)
	require.NoError(t, err)

	n := 0
	for range seq {
		n++
		if n == 10 {
			break
		}
	}
	assert.Equal(t, 10, n)
}

func TestStream_InvalidParameters(t *testing.T) {
	_, err := Stream(10, 0, 1, "X", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}
