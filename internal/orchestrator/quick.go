package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/wealthpath/planning-engine/internal/domain"
)

// Quick-mode assessment thresholds.
const (
	highConfidenceThreshold   = 0.85
	mediumConfidenceThreshold = 0.60
)

// RunQuick executes a reduced run: a fixed small path count, no trade-off or
// stress stages, and a coarse assessment instead of the full report. Latency
// over precision.
func (o *Orchestrator) RunQuick(ctx context.Context, req *domain.SimulationRequest) (*domain.QuickResult, error) {
	runID := uuid.NewString()
	log := o.log.With().Str("run_id", runID).Str("mode", "quick").Logger()
	log.Info().Str("stage", stageReceived).Msg("Quick simulation request received")

	req = req.Clone()
	req.Mode = domain.ModeQuick
	req.NumSimulations = domain.QuickModeNumSimulations
	req.IncludeTradeOffs = false
	req.IncludeStressTests = false
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.budget)
		defer cancel()
	}

	core, err := o.runCore(ctx, req, log)
	if err != nil {
		return nil, err
	}

	res := &domain.QuickResult{
		RunID:              runID,
		SuccessProbability: core.summary.SuccessProbability,
		MedianBalance:      core.summary.RetirementP50,
		Assessment:         assess(core.summary.SuccessProbability),
		KeyRecommendations: quickRecommendations(core.summary.SuccessProbability),
	}

	log.Info().Str("stage", stageReported).
		Str("assessment", res.Assessment).
		Float64("success_probability", res.SuccessProbability).
		Msg("Quick simulation complete")

	return res, nil
}

func assess(successProbability float64) string {
	switch {
	case successProbability >= highConfidenceThreshold:
		return domain.AssessmentHighConfidence
	case successProbability >= mediumConfidenceThreshold:
		return domain.AssessmentMediumConfidence
	default:
		return domain.AssessmentLowConfidence
	}
}

func quickRecommendations(successProbability float64) []string {
	switch {
	case successProbability >= highConfidenceThreshold:
		return []string{"Plan looks solid; run a comprehensive simulation to confirm the details."}
	case successProbability >= mediumConfidenceThreshold:
		return []string{
			"Plan is workable but not robust; consider contributing more or retiring later.",
			"Run a comprehensive simulation with trade-off analysis to size the changes.",
		}
	default:
		return []string{
			fmt.Sprintf("Only %.0f%% of simulated futures fund the plan; material changes are needed.", successProbability*100),
			"Increase contributions, delay retirement, or reduce the spending target.",
			"Run a comprehensive simulation with trade-off analysis for concrete numbers.",
		}
	}
}
