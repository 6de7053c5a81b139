package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RiskTolerance identifies a named model portfolio.
type RiskTolerance string

const (
	RiskConservative           RiskTolerance = "conservative"
	RiskModeratelyConservative RiskTolerance = "moderately_conservative"
	RiskModerate               RiskTolerance = "moderate"
	RiskModeratelyAggressive   RiskTolerance = "moderately_aggressive"
	RiskAggressive             RiskTolerance = "aggressive"
)

// RiskTolerances lists the supported levels in increasing-risk order.
func RiskTolerances() []RiskTolerance {
	return []RiskTolerance{
		RiskConservative,
		RiskModeratelyConservative,
		RiskModerate,
		RiskModeratelyAggressive,
		RiskAggressive,
	}
}

// Mode selects the depth of a simulation run.
type Mode string

const (
	// ModeComprehensive runs every stage the request asks for.
	ModeComprehensive Mode = "comprehensive"
	// ModeQuick trades accuracy for latency: a reduced path count and no
	// trade-off or stress stages.
	ModeQuick Mode = "quick"
)

// Default simulation controls.
const (
	DefaultNumSimulations      = 10000
	QuickModeNumSimulations    = 1000
	MaxNumSimulations          = 100000
	DefaultRebalancesPerYear   = 1
	MaxRebalancesPerYear       = 12
	AllocationSumTolerance     = 1e-6
	DefaultMarketRegime        = "baseline"
	DefaultReplacementRatioPct = 0.80
)

// SimulationRequest is the immutable input describing one simulation run.
// Construct it, call Normalize once, then treat it as read-only.
type SimulationRequest struct {
	// UserID is an opaque identity passed through for attribution only.
	UserID string `yaml:"user_id" json:"user_id"`

	// Demographics.
	CurrentAge     int `yaml:"current_age" json:"current_age"`
	RetirementAge  int `yaml:"retirement_age" json:"retirement_age"`
	LifeExpectancy int `yaml:"life_expectancy" json:"life_expectancy"`

	// Financial parameters.
	CurrentPortfolioValue  decimal.Decimal `yaml:"current_portfolio_value" json:"current_portfolio_value"`
	AnnualContribution     decimal.Decimal `yaml:"annual_contribution" json:"annual_contribution"`
	ContributionGrowthRate float64         `yaml:"contribution_growth_rate" json:"contribution_growth_rate"`
	CurrentAnnualIncome decimal.Decimal `yaml:"current_annual_income" json:"current_annual_income"`
	// TargetReplacementRatio is a pointer so that, like RandomSeed, an
	// explicit zero is distinguishable from "not provided".
	TargetReplacementRatio *float64 `yaml:"target_replacement_ratio,omitempty" json:"target_replacement_ratio,omitempty"`
	// EffectiveTaxRate grosses up retirement withdrawals. Zero means
	// withdrawals are treated as already net of tax.
	EffectiveTaxRate float64 `yaml:"effective_tax_rate" json:"effective_tax_rate"`

	// Risk preference: either a named risk tolerance or an explicit custom
	// allocation. When both are set the custom allocation wins.
	RiskTolerance    RiskTolerance      `yaml:"risk_tolerance" json:"risk_tolerance"`
	CustomAllocation map[string]float64 `yaml:"custom_allocation,omitempty" json:"custom_allocation,omitempty"`

	// Simulation controls.
	NumSimulations     int    `yaml:"num_simulations" json:"num_simulations"`
	RandomSeed         *int64 `yaml:"random_seed,omitempty" json:"random_seed,omitempty"`
	RebalancesPerYear  int    `yaml:"rebalances_per_year" json:"rebalances_per_year"`
	MarketRegime       string `yaml:"market_regime" json:"market_regime"`
	IncludeTradeOffs   bool   `yaml:"include_trade_off_analysis" json:"include_trade_off_analysis"`
	IncludeStressTests bool   `yaml:"include_stress_testing" json:"include_stress_testing"`
	Mode               Mode   `yaml:"mode" json:"mode"`
}

// Normalize fills defaulted fields in place. It does not validate.
func (r *SimulationRequest) Normalize() {
	if r.Mode == "" {
		r.Mode = ModeComprehensive
	}
	if r.NumSimulations == 0 {
		if r.Mode == ModeQuick {
			r.NumSimulations = QuickModeNumSimulations
		} else {
			r.NumSimulations = DefaultNumSimulations
		}
	}
	if r.RebalancesPerYear == 0 {
		r.RebalancesPerYear = DefaultRebalancesPerYear
	}
	if r.MarketRegime == "" {
		r.MarketRegime = DefaultMarketRegime
	}
	if r.TargetReplacementRatio == nil {
		ratio := DefaultReplacementRatioPct
		r.TargetReplacementRatio = &ratio
	}
}

// Validate checks the request invariants. It returns a *ValidationError
// listing every violated field, or nil when the request is well formed.
// Allocation contents are checked separately by the portfolio mapper, which
// knows the set of valid asset classes.
func (r *SimulationRequest) Validate() error {
	verr := &ValidationError{}

	if r.CurrentAge <= 0 {
		verr.Add("current_age", "must be positive")
	}
	if r.RetirementAge <= r.CurrentAge {
		verr.Add("retirement_age", fmt.Sprintf("must be greater than current_age (%d)", r.CurrentAge))
	}
	if r.LifeExpectancy <= r.RetirementAge {
		verr.Add("life_expectancy", fmt.Sprintf("must be greater than retirement_age (%d)", r.RetirementAge))
	}
	if r.CurrentPortfolioValue.IsNegative() {
		verr.Add("current_portfolio_value", "cannot be negative")
	}
	if r.AnnualContribution.IsNegative() {
		verr.Add("annual_contribution", "cannot be negative")
	}
	if r.ContributionGrowthRate < -1 {
		verr.Add("contribution_growth_rate", "cannot be below -100%")
	}
	if r.CurrentAnnualIncome.IsNegative() {
		verr.Add("current_annual_income", "cannot be negative")
	}
	if r.TargetReplacementRatio != nil && (*r.TargetReplacementRatio < 0 || *r.TargetReplacementRatio > 2) {
		verr.Add("target_replacement_ratio", "must be between 0 and 2")
	}
	if r.EffectiveTaxRate < 0 || r.EffectiveTaxRate >= 1 {
		verr.Add("effective_tax_rate", "must be in [0, 1)")
	}
	if r.NumSimulations <= 0 {
		verr.Add("num_simulations", "must be positive")
	} else if r.NumSimulations > MaxNumSimulations {
		verr.Add("num_simulations", fmt.Sprintf("cannot exceed %d", MaxNumSimulations))
	}
	if r.RebalancesPerYear <= 0 || r.RebalancesPerYear > MaxRebalancesPerYear {
		verr.Add("rebalances_per_year", fmt.Sprintf("must be between 1 and %d", MaxRebalancesPerYear))
	}
	if r.Mode != ModeComprehensive && r.Mode != ModeQuick {
		verr.Add("mode", fmt.Sprintf("unsupported mode %q", r.Mode))
	}
	if len(r.CustomAllocation) == 0 {
		switch r.RiskTolerance {
		case RiskConservative, RiskModeratelyConservative, RiskModerate,
			RiskModeratelyAggressive, RiskAggressive:
		default:
			verr.Add("risk_tolerance", fmt.Sprintf("unsupported risk tolerance %q", r.RiskTolerance))
		}
	}

	if verr.Empty() {
		return nil
	}
	return verr
}

// YearsToRetirement is the length of the accumulation phase in years.
func (r *SimulationRequest) YearsToRetirement() int {
	return r.RetirementAge - r.CurrentAge
}

// YearsInRetirement is the length of the decumulation phase in years.
func (r *SimulationRequest) YearsInRetirement() int {
	return r.LifeExpectancy - r.RetirementAge
}

// HorizonYears is the full projection length in years.
func (r *SimulationRequest) HorizonYears() int {
	return r.LifeExpectancy - r.CurrentAge
}

// Clone returns a deep copy, used when deriving trade-off variants so the
// base request stays immutable.
func (r *SimulationRequest) Clone() *SimulationRequest {
	cp := *r
	if r.RandomSeed != nil {
		seed := *r.RandomSeed
		cp.RandomSeed = &seed
	}
	if r.TargetReplacementRatio != nil {
		ratio := *r.TargetReplacementRatio
		cp.TargetReplacementRatio = &ratio
	}
	if r.CustomAllocation != nil {
		cp.CustomAllocation = make(map[string]float64, len(r.CustomAllocation))
		for k, v := range r.CustomAllocation {
			cp.CustomAllocation[k] = v
		}
	}
	return &cp
}
