package domain

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ratioOf(v float64) *float64 {
	return &v
}

func validRequest() *SimulationRequest {
	return &SimulationRequest{
		CurrentAge:             35,
		RetirementAge:          65,
		LifeExpectancy:         90,
		CurrentPortfolioValue:  decimal.NewFromInt(100000),
		AnnualContribution:     decimal.NewFromInt(12000),
		CurrentAnnualIncome:    decimal.NewFromInt(80000),
		TargetReplacementRatio: ratioOf(0.7),
		RiskTolerance:          RiskModerate,
		NumSimulations:         10000,
		RebalancesPerYear:      1,
		MarketRegime:           "baseline",
		Mode:                   ModeComprehensive,
	}
}

func TestNormalizeDefaults(t *testing.T) {
	req := &SimulationRequest{}
	req.Normalize()

	assert.Equal(t, ModeComprehensive, req.Mode)
	assert.Equal(t, DefaultNumSimulations, req.NumSimulations)
	assert.Equal(t, DefaultRebalancesPerYear, req.RebalancesPerYear)
	assert.Equal(t, DefaultMarketRegime, req.MarketRegime)
	require.NotNil(t, req.TargetReplacementRatio)
	assert.Equal(t, DefaultReplacementRatioPct, *req.TargetReplacementRatio)
}

func TestNormalizeKeepsExplicitZeroReplacementRatio(t *testing.T) {
	// Zero means a zero-withdrawal projection; only a nil ratio defaults.
	req := validRequest()
	req.TargetReplacementRatio = ratioOf(0)
	req.Normalize()
	require.NotNil(t, req.TargetReplacementRatio)
	assert.Zero(t, *req.TargetReplacementRatio)
	require.NoError(t, req.Validate())
}

func TestNormalizeQuickModePathCount(t *testing.T) {
	req := &SimulationRequest{Mode: ModeQuick}
	req.Normalize()
	assert.Equal(t, QuickModeNumSimulations, req.NumSimulations)
}

func TestNormalizeKeepsExplicitValues(t *testing.T) {
	req := &SimulationRequest{NumSimulations: 777, RebalancesPerYear: 4}
	req.Normalize()
	assert.Equal(t, 777, req.NumSimulations)
	assert.Equal(t, 4, req.RebalancesPerYear)
}

func TestValidateAcceptsWellFormedRequest(t *testing.T) {
	require.NoError(t, validRequest().Validate())
}

func TestValidateAccumulatesAllViolations(t *testing.T) {
	req := validRequest()
	req.CurrentAge = 0
	req.RetirementAge = 0
	req.NumSimulations = -5
	req.EffectiveTaxRate = 1.5

	err := req.Validate()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	// One pass reports every problem, not just the first.
	assert.GreaterOrEqual(t, len(verr.Violations), 4)

	msg := err.Error()
	assert.Contains(t, msg, "current_age")
	assert.Contains(t, msg, "num_simulations")
	assert.Contains(t, msg, "effective_tax_rate")
}

func TestValidateAgeOrdering(t *testing.T) {
	req := validRequest()
	req.RetirementAge = req.CurrentAge
	err := req.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retirement_age")

	req = validRequest()
	req.LifeExpectancy = req.RetirementAge
	err = req.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "life_expectancy")
}

func TestValidatePathCountCeiling(t *testing.T) {
	req := validRequest()
	req.NumSimulations = MaxNumSimulations
	require.NoError(t, req.Validate())

	req.NumSimulations = MaxNumSimulations + 1
	require.Error(t, req.Validate())
}

func TestValidateUnknownRiskToleranceWithoutCustomAllocation(t *testing.T) {
	req := validRequest()
	req.RiskTolerance = "degenerate"
	err := req.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "risk_tolerance")

	// A custom allocation makes the named tolerance irrelevant.
	req.CustomAllocation = map[string]float64{"BONDS": 1}
	require.NoError(t, req.Validate())
}

func TestHorizonHelpers(t *testing.T) {
	req := validRequest()
	assert.Equal(t, 30, req.YearsToRetirement())
	assert.Equal(t, 25, req.YearsInRetirement())
	assert.Equal(t, 55, req.HorizonYears())
}

func TestCloneIsDeep(t *testing.T) {
	seed := int64(42)
	req := validRequest()
	req.RandomSeed = &seed
	req.CustomAllocation = map[string]float64{"BONDS": 1}

	cp := req.Clone()
	*cp.RandomSeed = 99
	*cp.TargetReplacementRatio = 0.1
	cp.CustomAllocation["BONDS"] = 0.5

	assert.Equal(t, int64(42), *req.RandomSeed)
	assert.Equal(t, 0.7, *req.TargetReplacementRatio)
	assert.Equal(t, 1.0, req.CustomAllocation["BONDS"])
}

func TestValidationErrorFormatting(t *testing.T) {
	verr := &ValidationError{}
	assert.True(t, verr.Empty())

	verr.Add("current_age", "must be positive")
	verr.Add("mode", `unsupported mode "warp"`)
	assert.False(t, verr.Empty())

	msg := verr.Error()
	assert.True(t, strings.HasPrefix(msg, "invalid request: "))
	assert.Contains(t, msg, "current_age: must be positive")
}

func TestTaxonomyErrorMessages(t *testing.T) {
	assert.Equal(t, `market regime "x" not found`,
		(&NotFoundError{Kind: "market regime", Name: "x"}).Error())

	dqe := &DataQualityError{Reason: "matrix asymmetric"}
	assert.Contains(t, dqe.Error(), "matrix asymmetric")

	cerr := &ComputationError{Stage: "path generation"}
	assert.Contains(t, cerr.Error(), "path generation")
}
