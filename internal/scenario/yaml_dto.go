package scenario

// YAMLScenario is the on-disk shape of a scenario file.
type YAMLScenario struct {
	Name           string        `yaml:"name"`
	TotalInvestors int           `yaml:"total_investors"`
	Market         YAMLMarket    `yaml:"market"`
	Segments       []YAMLSegment `yaml:"segments"`
}

// YAMLMarket carries the aggregate figures segment means can be derived from.
type YAMLMarket struct {
	Currency       string         `yaml:"currency"`
	TotalFundValue float64        `yaml:"total_fund_value"`
	FundCategories []YAMLCategory `yaml:"fund_categories"`
}

type YAMLCategory struct {
	Name  string  `yaml:"name"`
	Value float64 `yaml:"value"`
}

// YAMLSegment sets either explicit moments (mean, variance) or multipliers
// applied to the market average holding.
type YAMLSegment struct {
	Label          string   `yaml:"label"`
	Population     int      `yaml:"population"`
	Seed           int64    `yaml:"seed"`
	Mean           *float64 `yaml:"mean"`
	Variance       *float64 `yaml:"variance"`
	MeanMultiplier *float64 `yaml:"mean_multiplier"`
	CVMultiplier   *float64 `yaml:"cv_multiplier"`
}
