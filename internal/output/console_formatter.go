package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wealthpath/planning-engine/internal/domain"
)

// ConsoleFormatter renders a result as a readable terminal report.
type ConsoleFormatter struct{}

// Name implements Formatter.
func (ConsoleFormatter) Name() string { return "console" }

// Format implements Formatter.
func (ConsoleFormatter) Format(res *domain.SimulationResult) ([]byte, error) {
	var b strings.Builder

	rule := strings.Repeat("=", 64)
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "RETIREMENT SIMULATION RESULTS")
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Run ID:               %s\n", res.RunID)
	fmt.Fprintf(&b, "Success probability:  %.1f%%\n", res.SuccessProbability*100)
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "Balance at retirement")
	fmt.Fprintf(&b, "  P10:     %14s\n", formatMoney(res.Percentile10Balance))
	fmt.Fprintf(&b, "  Median:  %14s\n", formatMoney(res.MedianRetirementBalance))
	fmt.Fprintf(&b, "  P90:     %14s\n", formatMoney(res.Percentile90Balance))
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "Terminal balance")
	fmt.Fprintf(&b, "  P10:     %14s\n", formatMoney(res.Percentile10Terminal))
	fmt.Fprintf(&b, "  Median:  %14s\n", formatMoney(res.MedianTerminalBalance))
	fmt.Fprintf(&b, "  P90:     %14s\n", formatMoney(res.Percentile90Terminal))
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "Risk")
	fmt.Fprintf(&b, "  Terminal std dev:   %s\n", formatMoney(res.RiskMetrics.TerminalStdDev))
	fmt.Fprintf(&b, "  Max drawdown:       %.1f%%\n", res.RiskMetrics.MaxDrawdown*100)
	fmt.Fprintf(&b, "  VaR (95%%):          %s\n", formatMoney(res.RiskMetrics.ValueAtRisk95))
	fmt.Fprintf(&b, "  CVaR (95%%):         %s\n", formatMoney(res.RiskMetrics.ConditionalVaR95))
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "Portfolio")
	fmt.Fprintf(&b, "  Expected return:    %.2f%%\n", res.PortfolioMetrics.ExpectedReturn*100)
	fmt.Fprintf(&b, "  Expected volatility: %.2f%%\n", res.PortfolioMetrics.ExpectedVolatility*100)
	for _, name := range sortedByWeight(res.PortfolioAllocation) {
		fmt.Fprintf(&b, "  %-20s %5.1f%%\n", name, res.PortfolioAllocation[name]*100)
	}
	fmt.Fprintln(&b)

	if res.TradeOffAnalysis != nil {
		fmt.Fprintln(&b, "Trade-offs (success probability)")
		fmt.Fprintf(&b, "  %-24s %.1f%%\n", "base case", res.TradeOffAnalysis.Base.SuccessProbability*100)
		for _, v := range res.TradeOffAnalysis.Variants {
			fmt.Fprintf(&b, "  %-24s %.1f%%\n", v.Label, v.Outcome.SuccessProbability*100)
		}
		fmt.Fprintln(&b)
	}

	if res.StressTestResults != nil {
		fmt.Fprintln(&b, "Stress tests (success probability)")
		fmt.Fprintf(&b, "  %-24s %.1f%%\n", "base case", res.StressTestResults.Base.SuccessProbability*100)
		for _, sc := range res.StressTestResults.Scenarios {
			fmt.Fprintf(&b, "  %-24s %.1f%%\n", sc.Regime, sc.Outcome.SuccessProbability*100)
		}
		fmt.Fprintln(&b)
	}

	if res.SummaryReport != "" {
		fmt.Fprintln(&b, rule)
		fmt.Fprint(&b, res.SummaryReport)
	}

	return []byte(b.String()), nil
}

// sortedByWeight orders allocation names by descending weight, ties by name.
func sortedByWeight(alloc domain.PortfolioAllocation) []string {
	names := alloc.Names()
	sort.SliceStable(names, func(i, j int) bool {
		return alloc[names[i]] > alloc[names[j]]
	})
	return names
}

// formatMoney renders a decimal with a dollar sign and thousands separators.
func formatMoney(d decimal.Decimal) string {
	whole := d.Round(0).IntPart()
	neg := whole < 0
	if neg {
		whole = -whole
	}

	digits := fmt.Sprintf("%d", whole)
	var parts []string
	for len(digits) > 3 {
		parts = append([]string{digits[len(digits)-3:]}, parts...)
		digits = digits[:len(digits)-3]
	}
	parts = append([]string{digits}, parts...)

	out := "$" + strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}
