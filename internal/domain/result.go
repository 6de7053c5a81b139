package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// AssetClass is a named asset category with its return assumptions. The set
// of asset classes is fixed by the market assumption provider, not extensible
// at request time.
type AssetClass struct {
	Name           string  `yaml:"name" json:"name"`
	Label          string  `yaml:"label" json:"label"`
	ExpectedReturn float64 `yaml:"expected_return" json:"expected_return"`
	Volatility     float64 `yaml:"volatility" json:"volatility"`
}

// PortfolioAllocation maps asset-class name to weight. Accepted allocations
// have non-negative weights summing to 1 within AllocationSumTolerance.
type PortfolioAllocation map[string]float64

// Sum returns the total weight.
func (a PortfolioAllocation) Sum() float64 {
	total := 0.0
	for _, w := range a {
		total += w
	}
	return total
}

// Names returns the asset-class names in deterministic (sorted) order.
func (a PortfolioAllocation) Names() []string {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy.
func (a PortfolioAllocation) Clone() PortfolioAllocation {
	cp := make(PortfolioAllocation, len(a))
	for k, v := range a {
		cp[k] = v
	}
	return cp
}

// PortfolioMetrics summarizes an allocation against the market assumptions.
// ExpectedVolatility comes from the full covariance matrix (sqrt of w'Σw),
// not the weighted sum of individual volatilities.
type PortfolioMetrics struct {
	ExpectedReturn     float64 `json:"expected_return"`
	ExpectedVolatility float64 `json:"expected_volatility"`
	SharpeRatio        float64 `json:"sharpe_ratio"`
}

// ETFRecommendation is one fund suggestion for an asset class.
type ETFRecommendation struct {
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	AssetClass   string  `json:"asset_class"`
	ExpenseRatio float64 `json:"expense_ratio"`
	Description  string  `json:"description"`
}

// RiskMetrics are dispersion and tail measures over the simulated outcomes.
type RiskMetrics struct {
	TerminalStdDev   decimal.Decimal `json:"terminal_std_dev"`
	MaxDrawdown      float64         `json:"max_drawdown"`
	PercentileSpread decimal.Decimal `json:"percentile_spread"`
	ValueAtRisk95    decimal.Decimal `json:"value_at_risk_95"`
	ConditionalVaR95 decimal.Decimal `json:"conditional_var_95"`
}

// PerformanceMetrics describe one engine run.
type PerformanceMetrics struct {
	NumPaths       int     `json:"num_paths"`
	PeriodsPerPath int     `json:"periods_per_path"`
	PathsPerSecond float64 `json:"paths_per_second"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

// Recommendations are derived deterministically from the percentile and
// success data, never from anything stochastic beyond the simulation itself.
type Recommendations struct {
	// SuggestedMonthlyContributionIncrease is the estimated additional
	// monthly contribution needed to reach the target success probability,
	// zero when already there.
	SuggestedMonthlyContributionIncrease decimal.Decimal `json:"suggested_monthly_contribution_increase"`
	// SuggestedRetirementAgeDelay is the estimated number of extra working
	// years needed, zero when none.
	SuggestedRetirementAgeDelay int `json:"suggested_retirement_age_delay"`
	// TargetSuccessProbability the suggestions aim for.
	TargetSuccessProbability float64  `json:"target_success_probability"`
	Notes                    []string `json:"notes"`
}

// ScenarioOutcome is the compact per-run summary used for trade-off and
// stress comparisons.
type ScenarioOutcome struct {
	SuccessProbability      float64         `json:"success_probability"`
	MedianRetirementBalance decimal.Decimal `json:"median_retirement_balance"`
	Percentile10Balance     decimal.Decimal `json:"percentile_10_balance"`
	Percentile90Balance     decimal.Decimal `json:"percentile_90_balance"`
	MedianTerminalBalance   decimal.Decimal `json:"median_terminal_balance"`
}

// TradeOffVariant is one alternative parameter set and its outcome.
type TradeOffVariant struct {
	Label       string          `json:"label"`
	Description string          `json:"description"`
	Outcome     ScenarioOutcome `json:"outcome"`
}

// TradeOffReport compares a fixed set of parameter variants against the base
// case.
type TradeOffReport struct {
	Base     ScenarioOutcome   `json:"base"`
	Variants []TradeOffVariant `json:"variants"`
}

// StressScenarioOutcome is one adverse-regime run.
type StressScenarioOutcome struct {
	Regime      string          `json:"regime"`
	Description string          `json:"description"`
	Outcome     ScenarioOutcome `json:"outcome"`
}

// StressTestReport compares pre-defined adverse market regimes against the
// base case.
type StressTestReport struct {
	Base      ScenarioOutcome         `json:"base"`
	Scenarios []StressScenarioOutcome `json:"scenarios"`
}

// SimulationResult is the derived, immutable summary of one comprehensive
// run. Owned by the orchestrator for the duration of the request, returned to
// the caller, and never mutated afterward.
type SimulationResult struct {
	RunID  string `json:"run_id"`
	UserID string `json:"user_id,omitempty"`

	SuccessProbability      float64         `json:"success_probability"`
	MedianRetirementBalance decimal.Decimal `json:"median_retirement_balance"`
	Percentile10Balance     decimal.Decimal `json:"percentile_10_balance"`
	Percentile90Balance     decimal.Decimal `json:"percentile_90_balance"`
	MedianTerminalBalance   decimal.Decimal `json:"median_terminal_balance"`
	Percentile10Terminal    decimal.Decimal `json:"percentile_10_terminal"`
	Percentile90Terminal    decimal.Decimal `json:"percentile_90_terminal"`

	PortfolioAllocation PortfolioAllocation `json:"portfolio_allocation"`
	PortfolioMetrics    PortfolioMetrics    `json:"portfolio_metrics"`
	ETFRecommendations  []ETFRecommendation `json:"etf_recommendations"`
	RiskMetrics         RiskMetrics         `json:"risk_metrics"`

	TradeOffAnalysis  *TradeOffReport   `json:"trade_off_analysis,omitempty"`
	StressTestResults *StressTestReport `json:"stress_test_results,omitempty"`

	SimulationTimeSeconds float64            `json:"simulation_time_seconds"`
	PerformanceMetrics    PerformanceMetrics `json:"performance_metrics"`
	Recommendations       Recommendations    `json:"recommendations"`
	SummaryReport         string             `json:"summary_report"`
	CompletedAt           time.Time          `json:"completed_at"`
}

// Outcome reduces the result to the compact comparison form.
func (r *SimulationResult) Outcome() ScenarioOutcome {
	return ScenarioOutcome{
		SuccessProbability:      r.SuccessProbability,
		MedianRetirementBalance: r.MedianRetirementBalance,
		Percentile10Balance:     r.Percentile10Balance,
		Percentile90Balance:     r.Percentile90Balance,
		MedianTerminalBalance:   r.MedianTerminalBalance,
	}
}

// Assessment labels for quick-mode results.
const (
	AssessmentHighConfidence   = "high"
	AssessmentMediumConfidence = "medium"
	AssessmentLowConfidence    = "low"
)

// QuickResult is the reduced output of a quick-mode run.
type QuickResult struct {
	RunID              string          `json:"run_id"`
	SuccessProbability float64         `json:"success_probability"`
	MedianBalance      decimal.Decimal `json:"median_balance"`
	Assessment         string          `json:"assessment"`
	KeyRecommendations []string        `json:"key_recommendations"`
}
