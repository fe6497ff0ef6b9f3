package scenario

import (
	"math"

	"github.com/aristath/fundsim/internal/domain"
	"github.com/aristath/fundsim/internal/modules/generator"
)

// MapScenario resolves a YAML scenario into concrete segments.
//
// Segment mean: explicit mean, else average holding × mean_multiplier
// (default 1). Segment variance: explicit variance, else
// (mean × cv_multiplier)^2.
func MapScenario(path string, dto YAMLScenario) (Scenario, error) {
	sc := Scenario{
		Name:           dto.Name,
		Currency:       dto.Market.Currency,
		TotalInvestors: dto.TotalInvestors,
		TotalFundValue: dto.Market.TotalFundValue,
	}
	if sc.Name == "" {
		sc.Name = "unnamed"
	}
	for _, c := range dto.Market.FundCategories {
		sc.FundCategories = append(sc.FundCategories, Category{Name: c.Name, Value: c.Value})
	}

	for _, s := range dto.Segments {
		sc.Segments = append(sc.Segments, domain.Segment{
			Label:      s.Label,
			Population: s.Population,
			Seed:       s.Seed,
		})
	}

	avg := sc.AverageHolding()
	for i, s := range dto.Segments {
		seg := &sc.Segments[i]

		switch {
		case s.Mean != nil:
			seg.Mean = *s.Mean
		case avg > 0:
			mult := 1.0
			if s.MeanMultiplier != nil {
				mult = *s.MeanMultiplier
			}
			seg.Mean = avg * mult
		default:
			return Scenario{}, invalid(path, "segment %q: mean is required when the market has no total_fund_value", s.Label)
		}

		switch {
		case s.Variance != nil:
			seg.Variance = *s.Variance
		case s.CVMultiplier != nil:
			cv := *s.CVMultiplier
			seg.Variance = math.Pow(seg.Mean*cv, 2)
		default:
			return Scenario{}, invalid(path, "segment %q: variance or cv_multiplier is required", s.Label)
		}
	}

	if err := Validate(sc); err != nil {
		return Scenario{}, &domain.OpError{Op: "scenario.map", Kind: domain.KindInvalidConfig, Path: path, Err: err}
	}
	return sc, nil
}

// Validate checks segment parameters and, when TotalInvestors is set, that
// segment populations add up to it.
func Validate(sc Scenario) error {
	if err := generator.ValidateSegments(sc.Segments); err != nil {
		return err
	}
	if sc.TotalInvestors > 0 && sc.Population() != sc.TotalInvestors {
		return domain.InvalidParameter("segment populations sum to %d, total_investors is %d", sc.Population(), sc.TotalInvestors)
	}
	if sc.TotalInvestors < 0 {
		return domain.InvalidParameter("total_investors must not be negative")
	}
	for _, c := range sc.FundCategories {
		if c.Value < 0 {
			return domain.InvalidParameter("fund category %q has a negative value", c.Name)
		}
	}
	return nil
}

func invalid(path, format string, args ...any) error {
	return &domain.OpError{
		Op:   "scenario.map",
		Kind: domain.KindInvalidConfig,
		Path: path,
		Err:  domain.InvalidParameter(format, args...),
	}
}
