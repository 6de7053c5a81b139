// Package orchestrator coordinates one simulation request through the fixed
// pipeline: validate, resolve the portfolio, simulate, aggregate, analyze,
// report. It owns the error taxonomy boundary: everything a caller sees is
// one of the domain error types, and the orchestrator is the only component
// that maps between them.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wealthpath/planning-engine/internal/analysis"
	"github.com/wealthpath/planning-engine/internal/assumptions"
	"github.com/wealthpath/planning-engine/internal/domain"
	"github.com/wealthpath/planning-engine/internal/engine"
	"github.com/wealthpath/planning-engine/internal/portfolio"
	"github.com/wealthpath/planning-engine/internal/results"
)

// DefaultBudget is the wall-clock limit for one comprehensive run, sized for
// 50k paths with comfortable headroom.
const DefaultBudget = 30 * time.Second

// TargetSuccessProbability is the success level recommendations aim for.
const TargetSuccessProbability = 0.90

// Pipeline stages, logged in order as a request moves through.
const (
	stageReceived   = "RECEIVED"
	stageValidated  = "VALIDATED"
	stageMapped     = "MAPPED"
	stageSimulated  = "SIMULATED"
	stageAggregated = "AGGREGATED"
	stageAnalyzed   = "ANALYZED"
	stageReported   = "REPORTED"
)

// Engine is the simulation core as the orchestrator sees it.
type Engine interface {
	Run(ctx context.Context, p engine.Params) (*engine.PathSet, error)
}

// ResultSink persists completed results. Persistence is best-effort: a sink
// failure is logged and never fails the request.
type ResultSink interface {
	SaveResult(ctx context.Context, res *domain.SimulationResult) error
}

// Orchestrator runs the pipeline. Safe for concurrent use.
type Orchestrator struct {
	provider *assumptions.Provider
	engine   Engine
	calc     *results.Calculator
	sink     ResultSink
	budget   time.Duration
	log      zerolog.Logger
}

// Option configures optional orchestrator behavior.
type Option func(*Orchestrator)

// WithSink attaches a result sink.
func WithSink(s ResultSink) Option {
	return func(o *Orchestrator) { o.sink = s }
}

// WithBudget overrides the default wall-clock budget.
func WithBudget(d time.Duration) Option {
	return func(o *Orchestrator) { o.budget = d }
}

// New creates an orchestrator.
func New(provider *assumptions.Provider, eng Engine, calc *results.Calculator, log zerolog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		provider: provider,
		engine:   eng,
		calc:     calc,
		budget:   DefaultBudget,
		log:      log.With().Str("component", "orchestrator").Logger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunSimulation executes a comprehensive run. The returned result is fully
// populated and never mutated afterward; on error the result is nil and the
// error is one of the domain taxonomy types.
func (o *Orchestrator) RunSimulation(ctx context.Context, req *domain.SimulationRequest) (*domain.SimulationResult, error) {
	runID := uuid.NewString()
	log := o.log.With().Str("run_id", runID).Logger()
	started := time.Now()
	log.Info().Str("stage", stageReceived).Str("user_id", req.UserID).Msg("Simulation request received")

	req = req.Clone()
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	log.Debug().Str("stage", stageValidated).Int("num_simulations", req.NumSimulations).Msg("Request validated")

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.budget)
		defer cancel()
	}

	core, err := o.runCore(ctx, req, log)
	if err != nil {
		return nil, err
	}

	res := &domain.SimulationResult{
		RunID:  runID,
		UserID: req.UserID,

		SuccessProbability:      core.summary.SuccessProbability,
		MedianRetirementBalance: core.summary.RetirementP50,
		Percentile10Balance:     core.summary.RetirementP10,
		Percentile90Balance:     core.summary.RetirementP90,
		MedianTerminalBalance:   core.summary.TerminalP50,
		Percentile10Terminal:    core.summary.TerminalP10,
		Percentile90Terminal:    core.summary.TerminalP90,

		PortfolioAllocation: core.alloc,
		PortfolioMetrics:    core.metrics,
		ETFRecommendations:  core.etfs,
		RiskMetrics:         core.summary.Risk,

		PerformanceMetrics: core.summary.Performance,
	}

	baseOutcome := res.Outcome()
	analyzer := analysis.NewAnalyzer(o, log)

	// Requested analysis stages are part of the contract: a failure in one
	// fails the request rather than returning a silently partial result.
	if req.IncludeTradeOffs {
		report, err := analyzer.TradeOffs(ctx, req, baseOutcome)
		if err != nil {
			return nil, err
		}
		res.TradeOffAnalysis = report
	}
	if req.IncludeStressTests {
		report, err := analyzer.StressTests(ctx, req, baseOutcome, o.provider.Regimes())
		if err != nil {
			return nil, err
		}
		res.StressTestResults = report
	}
	if req.IncludeTradeOffs || req.IncludeStressTests {
		log.Debug().Str("stage", stageAnalyzed).
			Bool("trade_offs", req.IncludeTradeOffs).
			Bool("stress_tests", req.IncludeStressTests).
			Msg("Analysis complete")
	}

	res.Recommendations = buildRecommendations(res)
	res.SummaryReport = buildSummaryReport(req, res)
	res.SimulationTimeSeconds = time.Since(started).Seconds()
	res.CompletedAt = time.Now().UTC()

	if o.sink != nil {
		if err := o.sink.SaveResult(ctx, res); err != nil {
			log.Warn().Err(err).Msg("Failed to persist simulation result")
		}
	}

	log.Info().Str("stage", stageReported).
		Float64("success_probability", res.SuccessProbability).
		Float64("elapsed_seconds", res.SimulationTimeSeconds).
		Msg("Simulation complete")

	return res, nil
}

// coreResult bundles the outputs of the validate-map-simulate-aggregate
// spine shared by comprehensive, quick and scenario runs.
type coreResult struct {
	alloc   domain.PortfolioAllocation
	metrics domain.PortfolioMetrics
	etfs    []domain.ETFRecommendation
	summary *results.Summary
}

// runCore executes the pipeline spine against the current assumption
// snapshot. The snapshot is taken once, so a concurrent refresh never mixes
// assumption versions within one request.
func (o *Orchestrator) runCore(ctx context.Context, req *domain.SimulationRequest, log zerolog.Logger) (*coreResult, error) {
	snap := o.provider.Snapshot()
	mapper := portfolio.NewMapper(snap, log)

	alloc, err := mapper.Resolve(req)
	if err != nil {
		return nil, err
	}
	metrics, err := mapper.CalculatePortfolioMetrics(alloc)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("stage", stageMapped).
		Float64("expected_return", metrics.ExpectedReturn).
		Float64("expected_volatility", metrics.ExpectedVolatility).
		Msg("Portfolio resolved")

	regime, err := o.provider.Regime(req.MarketRegime)
	if err != nil {
		return nil, err
	}

	params, err := buildParams(req, snap, alloc, regime)
	if err != nil {
		return nil, err
	}

	ps, err := o.engine.Run(ctx, params)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("stage", stageSimulated).
		Int("paths", len(ps.Balances)).
		Float64("paths_per_second", ps.PathsPerSecond).
		Msg("Simulation finished")

	summary, err := o.calc.Summarize(ps)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("stage", stageAggregated).
		Float64("success_probability", summary.SuccessProbability).
		Msg("Results aggregated")

	return &coreResult{
		alloc:   alloc,
		metrics: metrics,
		etfs:    mapper.GetETFRecommendations(alloc),
		summary: summary,
	}, nil
}

// RunScenario implements analysis.Runner: one variant through the pipeline
// spine, reduced to the compact comparison form. No analysis recursion, no
// persistence, no report.
func (o *Orchestrator) RunScenario(ctx context.Context, req *domain.SimulationRequest) (domain.ScenarioOutcome, error) {
	req = req.Clone()
	req.Normalize()
	if err := req.Validate(); err != nil {
		return domain.ScenarioOutcome{}, fmt.Errorf("derived scenario invalid: %w", err)
	}

	core, err := o.runCore(ctx, req, o.log)
	if err != nil {
		return domain.ScenarioOutcome{}, err
	}
	return domain.ScenarioOutcome{
		SuccessProbability:      core.summary.SuccessProbability,
		MedianRetirementBalance: core.summary.RetirementP50,
		Percentile10Balance:     core.summary.RetirementP10,
		Percentile90Balance:     core.summary.RetirementP90,
		MedianTerminalBalance:   core.summary.TerminalP50,
	}, nil
}
