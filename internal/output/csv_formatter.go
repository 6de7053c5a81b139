package output

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/wealthpath/planning-engine/internal/domain"
)

// CSVFormatter writes the headline metrics as a two-row CSV, one header row
// and one value row, for spreadsheet import.
type CSVFormatter struct{}

// Name implements Formatter.
func (CSVFormatter) Name() string { return "csv" }

// Format implements Formatter.
func (CSVFormatter) Format(res *domain.SimulationResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"run_id",
		"success_probability",
		"retirement_p10", "retirement_median", "retirement_p90",
		"terminal_p10", "terminal_median", "terminal_p90",
		"terminal_std_dev", "max_drawdown", "var_95", "cvar_95",
		"expected_return", "expected_volatility",
	}
	row := []string{
		res.RunID,
		fmt.Sprintf("%.4f", res.SuccessProbability),
		res.Percentile10Balance.StringFixed(2),
		res.MedianRetirementBalance.StringFixed(2),
		res.Percentile90Balance.StringFixed(2),
		res.Percentile10Terminal.StringFixed(2),
		res.MedianTerminalBalance.StringFixed(2),
		res.Percentile90Terminal.StringFixed(2),
		res.RiskMetrics.TerminalStdDev.StringFixed(2),
		fmt.Sprintf("%.4f", res.RiskMetrics.MaxDrawdown),
		res.RiskMetrics.ValueAtRisk95.StringFixed(2),
		res.RiskMetrics.ConditionalVaR95.StringFixed(2),
		fmt.Sprintf("%.4f", res.PortfolioMetrics.ExpectedReturn),
		fmt.Sprintf("%.4f", res.PortfolioMetrics.ExpectedVolatility),
	}

	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.Write(row); err != nil {
		return nil, err
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
