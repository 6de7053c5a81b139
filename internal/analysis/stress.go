package analysis

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/wealthpath/planning-engine/internal/assumptions"
	"github.com/wealthpath/planning-engine/internal/domain"
)

// StressTests re-runs the base request under each adverse regime and compares
// against the base outcome. The variant keeps the base seed, so any drop in
// success probability comes from the regime alone, not from different draws.
func (a *Analyzer) StressTests(ctx context.Context, base *domain.SimulationRequest, baseOutcome domain.ScenarioOutcome, regimes []assumptions.MarketRegime) (*domain.StressTestReport, error) {
	results := make([]domain.StressScenarioOutcome, len(regimes))

	g, gctx := errgroup.WithContext(ctx)
	for i, regime := range regimes {
		i, regime := i, regime
		g.Go(func() error {
			req := base.Clone()
			req.MarketRegime = regime.Name
			outcome, err := a.runner.RunScenario(gctx, req)
			if err != nil {
				return fmt.Errorf("stress scenario %s: %w", regime.Name, err)
			}
			results[i] = domain.StressScenarioOutcome{
				Regime:      regime.Name,
				Description: regime.Description,
				Outcome:     outcome,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	a.log.Debug().Int("scenarios", len(results)).Msg("Stress testing complete")

	return &domain.StressTestReport{
		Base:      baseOutcome,
		Scenarios: results,
	}, nil
}
