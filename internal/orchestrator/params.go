package orchestrator

import (
	"time"

	"github.com/wealthpath/planning-engine/internal/assumptions"
	"github.com/wealthpath/planning-engine/internal/domain"
	"github.com/wealthpath/planning-engine/internal/engine"
)

// buildParams translates a validated request and resolved allocation into
// engine parameters against one assumption snapshot.
//
// The retirement withdrawal is sized from the income-replacement goal: the
// target spending is the replacement ratio applied to today's income, grown
// by inflation to retirement, then grossed up for taxes so the after-tax
// amount meets the goal. It is indexed to inflation through retirement.
func buildParams(req *domain.SimulationRequest, snap *assumptions.Snapshot, alloc domain.PortfolioAllocation, regime assumptions.MarketRegime) (engine.Params, error) {
	order := alloc.Names()
	weights := make([]float64, len(order))
	for i, name := range order {
		weights[i] = alloc[name]
	}

	returns, err := snap.Returns(order)
	if err != nil {
		return engine.Params{}, err
	}
	vols, err := snap.Vols(order)
	if err != nil {
		return engine.Params{}, err
	}
	corr, err := snap.SubCorrelation(order)
	if err != nil {
		return engine.Params{}, err
	}

	income, _ := req.CurrentAnnualIncome.Float64()
	yearsToRetirement := req.YearsToRetirement()
	replacementRatio := domain.DefaultReplacementRatioPct
	if req.TargetReplacementRatio != nil {
		replacementRatio = *req.TargetReplacementRatio
	}
	targetSpending := replacementRatio * income *
		pow(1+assumptions.DefaultInflationRate, yearsToRetirement)
	grossWithdrawal := targetSpending / (1 - req.EffectiveTaxRate)

	initial, _ := req.CurrentPortfolioValue.Float64()
	contribution, _ := req.AnnualContribution.Float64()

	return engine.Params{
		Order:       order,
		Weights:     weights,
		Returns:     returns,
		Vols:        vols,
		Correlation: corr,

		InitialBalance:         initial,
		AnnualContribution:     contribution,
		ContributionGrowthRate: req.ContributionGrowthRate,
		AnnualWithdrawal:       grossWithdrawal,
		WithdrawalGrowthRate:   assumptions.DefaultInflationRate,

		YearsToRetirement: yearsToRetirement,
		YearsInRetirement: req.YearsInRetirement(),
		StepsPerYear:      req.RebalancesPerYear,

		NumPaths: req.NumSimulations,
		Seed:     resolveSeed(req),
		Regime:   regime,
	}, nil
}

// resolveSeed honors an explicit request seed; otherwise each run gets a
// fresh wall-clock seed.
func resolveSeed(req *domain.SimulationRequest) int64 {
	if req.RandomSeed != nil {
		return *req.RandomSeed
	}
	return time.Now().UnixNano()
}

// pow is integer exponentiation for year-count exponents.
func pow(base float64, exp int) float64 {
	out := 1.0
	for i := 0; i < exp; i++ {
		out *= base
	}
	return out
}
