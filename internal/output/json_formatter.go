package output

import (
	"encoding/json"

	"github.com/wealthpath/planning-engine/internal/domain"
)

// JSONFormatter renders the full result as indented JSON, the machine-facing
// counterpart to the console report.
type JSONFormatter struct{}

// Name implements Formatter.
func (JSONFormatter) Name() string { return "json" }

// Format implements Formatter.
func (JSONFormatter) Format(res *domain.SimulationResult) ([]byte, error) {
	return json.MarshalIndent(res, "", "  ")
}
