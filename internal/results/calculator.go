// Package results reduces raw simulation paths to the statistical summary
// callers consume: success probability, balance percentiles and risk metrics.
package results

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/wealthpath/planning-engine/internal/domain"
	"github.com/wealthpath/planning-engine/internal/engine"
	"github.com/wealthpath/planning-engine/pkg/formulas"
)

// Summary is the aggregate view of one path set. Monetary amounts are
// rounded to cents; probabilities and ratios stay float64.
type Summary struct {
	SuccessProbability float64

	RetirementP10 decimal.Decimal
	RetirementP50 decimal.Decimal
	RetirementP90 decimal.Decimal

	TerminalP10 decimal.Decimal
	TerminalP50 decimal.Decimal
	TerminalP90 decimal.Decimal

	Risk        domain.RiskMetrics
	Performance domain.PerformanceMetrics
}

// Calculator computes summaries. Stateless; safe for concurrent use.
type Calculator struct {
	log zerolog.Logger
}

// NewCalculator creates a calculator.
func NewCalculator(log zerolog.Logger) *Calculator {
	return &Calculator{log: log.With().Str("component", "results").Logger()}
}

// Summarize reduces a path set. Percentiles use linear interpolation between
// order statistics, so P10 <= P50 <= P90 always holds.
func (c *Calculator) Summarize(ps *engine.PathSet) (*Summary, error) {
	if ps == nil || len(ps.Balances) == 0 {
		return nil, &domain.ComputationError{
			Stage: "aggregation",
			Err:   fmt.Errorf("empty path set"),
		}
	}

	terminal := ps.Column(ps.PeriodsPerPath)
	atRetirement := ps.Column(ps.RetirementIndex)
	for _, v := range terminal {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &domain.ComputationError{
				Stage: "aggregation",
				Err:   fmt.Errorf("non-finite terminal balance"),
			}
		}
	}

	success := float64(ps.SuccessCount()) / float64(len(ps.Failed))

	retP10 := formulas.Percentile(atRetirement, 0.10)
	retP50 := formulas.Percentile(atRetirement, 0.50)
	retP90 := formulas.Percentile(atRetirement, 0.90)
	termP10 := formulas.Percentile(terminal, 0.10)
	termP50 := formulas.Percentile(terminal, 0.50)
	termP90 := formulas.Percentile(terminal, 0.90)

	risk := domain.RiskMetrics{
		TerminalStdDev:   cents(formulas.StdDev(terminal)),
		MaxDrawdown:      formulas.MaxDrawdown(c.medianTrajectory(ps)),
		PercentileSpread: cents(termP90 - termP10),
		ValueAtRisk95:    cents(formulas.ValueAtRisk(terminal, 0.95)),
		ConditionalVaR95: cents(formulas.ConditionalValueAtRisk(terminal, 0.95)),
	}

	summary := &Summary{
		SuccessProbability: success,
		RetirementP10:      cents(retP10),
		RetirementP50:      cents(retP50),
		RetirementP90:      cents(retP90),
		TerminalP10:        cents(termP10),
		TerminalP50:        cents(termP50),
		TerminalP90:        cents(termP90),
		Risk:               risk,
		Performance: domain.PerformanceMetrics{
			NumPaths:       len(ps.Balances),
			PeriodsPerPath: ps.PeriodsPerPath,
			PathsPerSecond: ps.PathsPerSecond,
			ElapsedSeconds: ps.Elapsed.Seconds(),
		},
	}

	c.log.Debug().
		Float64("success_probability", success).
		Str("median_terminal", summary.TerminalP50.String()).
		Msg("Summarized path set")

	return summary, nil
}

// medianTrajectory builds the per-period median balance series, the curve a
// typical path follows. Drawdown is measured against it rather than against
// any single (noisy) path.
func (c *Calculator) medianTrajectory(ps *engine.PathSet) []float64 {
	out := make([]float64, ps.PeriodsPerPath+1)
	for t := 0; t <= ps.PeriodsPerPath; t++ {
		out[t] = formulas.Percentile(ps.Column(t), 0.50)
	}
	return out
}

// cents converts an aggregate float to a monetary decimal rounded to cents.
// Rounding happens once, here at the reporting boundary, never inside the
// simulation itself.
func cents(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}
