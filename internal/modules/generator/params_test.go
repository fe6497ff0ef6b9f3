package generator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fundsim/internal/domain"
)

func TestDeriveParams_RecoversTargetMoments(t *testing.T) {
	tests := []struct {
		name     string
		mean     float64
		variance float64
	}{
		{"unit", 1, 1},
		{"low dispersion", 1000, 100},
		{"domestic default", 1445433.06, math.Pow(1445433.06*5, 2)},
		{"foreign default", 2890866.12, math.Pow(2890866.12*6, 2)},
		{"tiny mean", 1e-3, 1e-4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := DeriveParams(tt.mean, tt.variance)
			require.NoError(t, err)

			assert.InEpsilon(t, tt.mean, p.ImpliedMean(), 1e-9)
			assert.InEpsilon(t, tt.variance, p.ImpliedVariance(), 1e-6)
			assert.Greater(t, p.Sigma, 0.0)
		})
	}
}

func TestDeriveParams_ZeroVariance(t *testing.T) {
	p, err := DeriveParams(1000, 0)
	require.NoError(t, err)

	assert.Equal(t, 0.0, p.Sigma)
	assert.InDelta(t, math.Log(1000), p.Mu, 1e-15)
}

func TestDeriveParams_ExtremeMagnitudes(t *testing.T) {
	tests := []struct {
		name     string
		mean     float64
		variance float64
	}{
		{"huge mean keeps dispersion", 1e300, 1e308},
		{"small mean large ratio", 1e-100, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := DeriveParams(tt.mean, tt.variance)
			require.NoError(t, err)

			assert.False(t, math.IsInf(p.Mu, 0) || math.IsNaN(p.Mu))
			assert.False(t, math.IsInf(p.Sigma, 0) || math.IsNaN(p.Sigma))
			assert.Greater(t, p.Sigma, 0.0)
		})
	}
}

func TestDeriveParams_InvalidInputs(t *testing.T) {
	tests := []struct {
		name     string
		mean     float64
		variance float64
	}{
		{"zero mean", 0, 1},
		{"negative mean", -5, 10},
		{"NaN mean", math.NaN(), 1},
		{"negative variance", 10, -1},
		{"NaN variance", 10, math.NaN()},
		{"squared mean underflows", 1e-200, 1},
		{"huge variance on tiny mean", 1e-170, 1e10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DeriveParams(tt.mean, tt.variance)
			assert.ErrorIs(t, err, domain.ErrInvalidParameter)
		})
	}
}
