package orchestrator

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wealthpath/planning-engine/internal/analysis"
	"github.com/wealthpath/planning-engine/internal/domain"
)

// buildRecommendations derives actionable suggestions from the simulated
// outcomes. Everything here is a deterministic function of the result: the
// same result always yields the same recommendations.
//
// When trade-off data is available, the contribution and delay suggestions
// extrapolate linearly from the measured variant deltas. Linear
// extrapolation overstates what large changes achieve (success probability
// saturates), so suggestions are estimates to iterate on, not guarantees.
func buildRecommendations(res *domain.SimulationResult) domain.Recommendations {
	rec := domain.Recommendations{
		TargetSuccessProbability:             TargetSuccessProbability,
		SuggestedMonthlyContributionIncrease: decimal.Zero,
	}

	gap := TargetSuccessProbability - res.SuccessProbability
	if gap <= 0 {
		rec.Notes = append(rec.Notes, fmt.Sprintf(
			"Plan is on track: %.0f%% success probability meets the %.0f%% target.",
			res.SuccessProbability*100, TargetSuccessProbability*100))
		return rec
	}

	rec.Notes = append(rec.Notes, fmt.Sprintf(
		"Success probability is %.0f%%, below the %.0f%% target.",
		res.SuccessProbability*100, TargetSuccessProbability*100))

	if res.TradeOffAnalysis == nil {
		rec.Notes = append(rec.Notes,
			"Run a trade-off analysis to size contribution or retirement-age changes.")
		return rec
	}

	base := res.TradeOffAnalysis.Base.SuccessProbability
	for _, v := range res.TradeOffAnalysis.Variants {
		delta := v.Outcome.SuccessProbability - base
		if delta <= 0 {
			continue
		}
		switch v.Label {
		case "contribute_more":
			extraAnnual := gap / delta * analysis.ExtraAnnualContribution
			rec.SuggestedMonthlyContributionIncrease =
				decimal.NewFromFloat(extraAnnual / 12).Round(2)
			rec.Notes = append(rec.Notes, fmt.Sprintf(
				"Increasing contributions by about %s/month is estimated to close the gap.",
				rec.SuggestedMonthlyContributionIncrease.StringFixed(2)))
		case "retire_later":
			years := int(math.Ceil(gap / delta * analysis.RetirementDelayYears))
			rec.SuggestedRetirementAgeDelay = years
			rec.Notes = append(rec.Notes, fmt.Sprintf(
				"Delaying retirement by about %d year(s) is estimated to close the gap.", years))
		case "spend_less":
			rec.Notes = append(rec.Notes, fmt.Sprintf(
				"Reducing retirement spending by %.0f%% raises success probability to %.0f%%.",
				analysis.SpendingReduction*100, v.Outcome.SuccessProbability*100))
		}
	}
	return rec
}

// buildSummaryReport renders the human-readable run summary.
func buildSummaryReport(req *domain.SimulationRequest, res *domain.SimulationResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Retirement outlook: %.0f%% of %d simulated futures fund spending through age %d.\n",
		res.SuccessProbability*100, res.PerformanceMetrics.NumPaths, req.LifeExpectancy)
	fmt.Fprintf(&b, "Projected balance at retirement (age %d): median %s, with 80%% of outcomes between %s and %s.\n",
		req.RetirementAge,
		money(res.MedianRetirementBalance),
		money(res.Percentile10Balance),
		money(res.Percentile90Balance))
	fmt.Fprintf(&b, "Projected terminal balance (age %d): median %s (P10 %s, P90 %s).\n",
		req.LifeExpectancy,
		money(res.MedianTerminalBalance),
		money(res.Percentile10Terminal),
		money(res.Percentile90Terminal))
	fmt.Fprintf(&b, "Portfolio: expected return %.1f%%, volatility %.1f%%, Sharpe %.2f.\n",
		res.PortfolioMetrics.ExpectedReturn*100,
		res.PortfolioMetrics.ExpectedVolatility*100,
		res.PortfolioMetrics.SharpeRatio)

	if res.StressTestResults != nil {
		worst := res.StressTestResults.Base.SuccessProbability
		worstName := ""
		for _, sc := range res.StressTestResults.Scenarios {
			if sc.Outcome.SuccessProbability < worst {
				worst = sc.Outcome.SuccessProbability
				worstName = sc.Regime
			}
		}
		if worstName != "" {
			fmt.Fprintf(&b, "Worst stress scenario (%s) drops success probability to %.0f%%.\n",
				worstName, worst*100)
		}
	}

	for _, note := range res.Recommendations.Notes {
		fmt.Fprintf(&b, "%s\n", note)
	}
	return b.String()
}

func money(d decimal.Decimal) string {
	return "$" + d.Round(0).String()
}
