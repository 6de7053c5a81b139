// Package analysis derives comparative what-if reports from re-running the
// simulation pipeline under alternative parameters and adverse market
// regimes. It never computes outcomes itself: variants go back through the
// same pipeline as the base case, so every comparison is apples-to-apples.
package analysis

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/wealthpath/planning-engine/internal/domain"
)

// ExtraAnnualContribution is the fixed contribution bump explored by the
// trade-off analysis ($200/month).
const ExtraAnnualContribution = 2400

// RetirementDelayYears is the fixed retirement delay explored by the
// trade-off analysis.
const RetirementDelayYears = 2

// SpendingReduction is the fractional cut in target retirement spending
// explored by the trade-off analysis.
const SpendingReduction = 0.10

// Runner executes one scenario end to end and reduces it to the compact
// comparison form. The orchestrator implements it; the indirection keeps this
// package free of engine wiring and lets tests substitute a scripted runner.
type Runner interface {
	RunScenario(ctx context.Context, req *domain.SimulationRequest) (domain.ScenarioOutcome, error)
}

// Analyzer produces trade-off and stress-test reports.
type Analyzer struct {
	runner Runner
	log    zerolog.Logger
}

// NewAnalyzer creates an analyzer backed by the given scenario runner.
func NewAnalyzer(runner Runner, log zerolog.Logger) *Analyzer {
	return &Analyzer{
		runner: runner,
		log:    log.With().Str("component", "analysis").Logger(),
	}
}

type variant struct {
	label       string
	description string
	derive      func(*domain.SimulationRequest) *domain.SimulationRequest
}

// tradeOffVariants is the fixed set of alternatives every trade-off report
// explores. Each derives from a clone, so the base request is never touched,
// and keeps the base seed so variants face identical market draws.
func tradeOffVariants(base *domain.SimulationRequest) []variant {
	variants := []variant{
		{
			label: "contribute_more",
			description: fmt.Sprintf("Contribute $%d more per year ($%d/month)",
				ExtraAnnualContribution, ExtraAnnualContribution/12),
			derive: func(r *domain.SimulationRequest) *domain.SimulationRequest {
				cp := r.Clone()
				cp.AnnualContribution = cp.AnnualContribution.Add(decimal.NewFromInt(ExtraAnnualContribution))
				return cp
			},
		},
		{
			label:       "spend_less",
			description: fmt.Sprintf("Reduce retirement spending by %.0f%%", SpendingReduction*100),
			derive: func(r *domain.SimulationRequest) *domain.SimulationRequest {
				cp := r.Clone()
				ratio := domain.DefaultReplacementRatioPct
				if cp.TargetReplacementRatio != nil {
					ratio = *cp.TargetReplacementRatio
				}
				ratio *= 1 - SpendingReduction
				cp.TargetReplacementRatio = &ratio
				return cp
			},
		},
	}

	// The delay variant only makes sense while it leaves a retirement phase.
	if base.RetirementAge+RetirementDelayYears < base.LifeExpectancy {
		variants = append(variants, variant{
			label:       "retire_later",
			description: fmt.Sprintf("Delay retirement by %d years", RetirementDelayYears),
			derive: func(r *domain.SimulationRequest) *domain.SimulationRequest {
				cp := r.Clone()
				cp.RetirementAge += RetirementDelayYears
				return cp
			},
		})
	}
	return variants
}

// TradeOffs runs the fixed variant set against the base outcome. Variants run
// concurrently; a failure in any one fails the whole report.
func (a *Analyzer) TradeOffs(ctx context.Context, base *domain.SimulationRequest, baseOutcome domain.ScenarioOutcome) (*domain.TradeOffReport, error) {
	variants := tradeOffVariants(base)
	results := make([]domain.TradeOffVariant, len(variants))

	g, gctx := errgroup.WithContext(ctx)
	for i, v := range variants {
		i, v := i, v
		g.Go(func() error {
			outcome, err := a.runner.RunScenario(gctx, v.derive(base))
			if err != nil {
				return fmt.Errorf("trade-off variant %s: %w", v.label, err)
			}
			results[i] = domain.TradeOffVariant{
				Label:       v.label,
				Description: v.description,
				Outcome:     outcome,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	a.log.Debug().Int("variants", len(results)).Msg("Trade-off analysis complete")

	return &domain.TradeOffReport{
		Base:     baseOutcome,
		Variants: results,
	}, nil
}
