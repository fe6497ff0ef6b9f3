// Package scenario describes the investor segments of one simulation run and
// loads them from YAML files.
package scenario

import "github.com/aristath/fundsim/internal/domain"

// Category is one fund category with its market value.
type Category struct {
	Name  string  `json:"name" msgpack:"name"`
	Value float64 `json:"value" msgpack:"value"`
}

// Scenario is a resolved, validated scenario: every segment carries concrete
// generation parameters.
type Scenario struct {
	Name           string           `json:"name" msgpack:"name"`
	Currency       string           `json:"currency" msgpack:"currency"`
	TotalInvestors int              `json:"total_investors" msgpack:"total_investors"`
	TotalFundValue float64          `json:"total_fund_value" msgpack:"total_fund_value"`
	FundCategories []Category       `json:"fund_categories" msgpack:"fund_categories"`
	Segments       []domain.Segment `json:"segments" msgpack:"segments"`
}

// Population returns the sum of segment populations
func (s Scenario) Population() int {
	total := 0
	for _, seg := range s.Segments {
		total += seg.Population
	}
	return total
}

// AverageHolding is the total fund value spread over every investor.
// Zero when the scenario has no market total.
func (s Scenario) AverageHolding() float64 {
	investors := s.TotalInvestors
	if investors == 0 {
		investors = s.Population()
	}
	if investors == 0 || s.TotalFundValue <= 0 {
		return 0
	}
	return s.TotalFundValue / float64(investors)
}
