package assumptions

// MarketRegime overrides the return assumptions for the leading years of a
// simulation. Adverse regimes model sequence-of-returns risk: the shock hits
// immediately, when the portfolio has the least time to recover.
type MarketRegime struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	// ReturnShift is added to every asset's expected annual return while the
	// regime is in effect. Negative for adverse regimes.
	ReturnShift float64 `yaml:"return_shift" json:"return_shift"`
	// VolatilityScale multiplies every asset's annual volatility while the
	// regime is in effect.
	VolatilityScale float64 `yaml:"volatility_scale" json:"volatility_scale"`
	// AffectedYears is how many leading years of the projection the regime
	// covers. Zero means the regime never alters the baseline.
	AffectedYears int `yaml:"affected_years" json:"affected_years"`
}

// IsBaseline reports whether the regime leaves the assumptions untouched.
func (r MarketRegime) IsBaseline() bool {
	return r.AffectedYears == 0 || (r.ReturnShift == 0 && r.VolatilityScale == 1)
}

// Built-in regime names.
const (
	RegimeBaseline    = "baseline"
	RegimeCrash2008   = "2008_crash"
	RegimeStagflation = "stagflation"
	RegimeLostDecade  = "lost_decade"
)

func defaultRegimes() map[string]MarketRegime {
	return map[string]MarketRegime{
		RegimeBaseline: {
			Name:            RegimeBaseline,
			Description:     "Long-run capital market assumptions, unmodified",
			ReturnShift:     0,
			VolatilityScale: 1,
			AffectedYears:   0,
		},
		RegimeCrash2008: {
			Name:            RegimeCrash2008,
			Description:     "2008-style crash: deeply depressed returns and elevated volatility for the first two years",
			ReturnShift:     -0.30,
			VolatilityScale: 1.8,
			AffectedYears:   2,
		},
		RegimeStagflation: {
			Name:            RegimeStagflation,
			Description:     "1970s-style stagflation: weak real returns and choppy markets for a decade",
			ReturnShift:     -0.06,
			VolatilityScale: 1.3,
			AffectedYears:   10,
		},
		RegimeLostDecade: {
			Name:            RegimeLostDecade,
			Description:     "Japan-style lost decade: near-zero equity returns for ten years",
			ReturnShift:     -0.08,
			VolatilityScale: 1.1,
			AffectedYears:   10,
		},
	}
}
