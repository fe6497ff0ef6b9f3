// Package generator synthesizes per-investor holdings by drawing from a
// lognormal distribution fitted to a target mean and variance per segment.
//
// The fit is the method of moments:
//
//	sigma^2 = ln(1 + v/m^2)
//	mu      = ln(m) - sigma^2/2
//
// so that exp(mu + sigma^2/2) = m and (exp(sigma^2)-1)exp(2mu+sigma^2) = v.
package generator

import (
	"math"

	"github.com/aristath/fundsim/internal/domain"
)

// DeriveParams converts a target mean and variance into lognormal (mu, sigma).
// A zero variance yields sigma = 0 and mu = ln(mean).
func DeriveParams(mean, variance float64) (domain.LognormalParams, error) {
	if math.IsNaN(mean) || math.IsInf(mean, 0) || mean <= 0 {
		return domain.LognormalParams{}, domain.InvalidParameter("mean must be a positive finite number, got %v", mean)
	}
	if math.IsNaN(variance) || math.IsInf(variance, 0) || variance < 0 {
		return domain.LognormalParams{}, domain.InvalidParameter("variance must be a non-negative finite number, got %v", variance)
	}

	// mean*mean under- or overflows at the ends of the float64 range
	sigma2 := math.Log1p(variance / mean / mean)
	mu := math.Log(mean) - sigma2/2
	if math.IsInf(sigma2, 0) || math.IsNaN(sigma2) || math.IsInf(mu, 0) || math.IsNaN(mu) {
		return domain.LognormalParams{}, domain.InvalidParameter(
			"mean %v and variance %v have no finite lognormal fit", mean, variance)
	}
	return domain.LognormalParams{
		Mu:    mu,
		Sigma: math.Sqrt(sigma2),
	}, nil
}
