// Package engine implements the Monte Carlo simulation core: N independent
// life-paths of portfolio growth, contributions and withdrawals under
// correlated stochastic returns.
package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/wealthpath/planning-engine/internal/assumptions"
	"github.com/wealthpath/planning-engine/internal/domain"
)

// pathSeedStride decorrelates per-path generators derived from one request
// seed (golden-ratio increment, as in splitmix64). Mixing happens in uint64
// arithmetic: the stride exceeds MaxInt64 and the multiply is expected to
// wrap.
const pathSeedStride uint64 = 0x9E3779B97F4A7C15

// Params fully determines one engine run. All rates are annual; monetary
// amounts are in the request currency.
type Params struct {
	// Asset order shared by Weights, Returns and Vols, and by the rows and
	// columns of Correlation.
	Order       []string
	Weights     []float64
	Returns     []float64
	Vols        []float64
	Correlation *mat.SymDense

	InitialBalance         float64
	AnnualContribution     float64
	ContributionGrowthRate float64
	// AnnualWithdrawal is the gross withdrawal for the first retirement
	// year; it grows by WithdrawalGrowthRate each subsequent year.
	AnnualWithdrawal     float64
	WithdrawalGrowthRate float64

	YearsToRetirement int
	YearsInRetirement int
	// StepsPerYear is the rebalancing frequency: weights reset to target at
	// every period boundary, and returns are drawn per period.
	StepsPerYear int

	NumPaths int
	Seed     int64

	// Regime optionally overrides the leading years' return assumptions.
	Regime assumptions.MarketRegime
}

// PathSet is the raw output of one run: a paths × periods balance matrix
// with a parallel success flag per path. Column 0 is the initial balance;
// column RetirementIndex is the retirement boundary; the last column is the
// terminal balance at life expectancy. Failed paths are zeroed from the
// period their balance would have gone negative.
type PathSet struct {
	Balances        [][]float64
	Failed          []bool
	RetirementIndex int
	PeriodsPerPath  int

	Elapsed        time.Duration
	PathsPerSecond float64
}

// SuccessCount returns the number of paths that never depleted.
func (ps *PathSet) SuccessCount() int {
	n := 0
	for _, failed := range ps.Failed {
		if !failed {
			n++
		}
	}
	return n
}

// Column extracts one period's balance across all paths.
func (ps *PathSet) Column(period int) []float64 {
	out := make([]float64, len(ps.Balances))
	for i, path := range ps.Balances {
		out[i] = path[period]
	}
	return out
}

// Engine runs simulations with data-parallelism across paths. Paths are
// fully independent: each owns a generator seeded from (request seed, path
// index), so output is bit-for-bit reproducible for a fixed seed no matter
// how work is split across workers.
type Engine struct {
	workers int
	log     zerolog.Logger
}

// New creates an engine sized to the available CPUs.
func New(log zerolog.Logger) *Engine {
	return &Engine{
		workers: runtime.NumCPU(),
		log:     log.With().Str("component", "engine").Logger(),
	}
}

// Run executes p.NumPaths independent trajectories. The context carries the
// wall-clock budget: when it expires mid-run the engine returns a
// TimeoutError and no partial results.
func (e *Engine) Run(ctx context.Context, p Params) (*PathSet, error) {
	if err := e.validate(p); err != nil {
		return nil, err
	}

	// Factorize the correlation matrix once; shared read-only by all paths.
	var chol mat.Cholesky
	if ok := chol.Factorize(p.Correlation); !ok {
		return nil, &domain.DataQualityError{
			Reason: "correlation matrix is not positive definite; Cholesky factorization failed",
		}
	}
	var lower mat.TriDense
	chol.LTo(&lower)

	periods := (p.YearsToRetirement + p.YearsInRetirement) * p.StepsPerYear
	start := time.Now()

	balances := make([][]float64, p.NumPaths)
	failed := make([]bool, p.NumPaths)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	chunk := (p.NumPaths + e.workers - 1) / e.workers
	for lo := 0; lo < p.NumPaths; lo += chunk {
		hi := lo + chunk
		if hi > p.NumPaths {
			hi = p.NumPaths
		}
		lo, hi := lo, hi
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				path, depleted, err := e.runPath(p, &lower, i, periods)
				if err != nil {
					return err
				}
				balances[i] = path
				failed[i] = depleted
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			budget := time.Duration(0)
			if deadline, ok := ctx.Deadline(); ok {
				budget = deadline.Sub(start)
			}
			return nil, &domain.TimeoutError{Budget: budget, Elapsed: time.Since(start)}
		}
		return nil, err
	}

	elapsed := time.Since(start)
	ps := &PathSet{
		Balances:        balances,
		Failed:          failed,
		RetirementIndex: p.YearsToRetirement * p.StepsPerYear,
		PeriodsPerPath:  periods,
		Elapsed:         elapsed,
	}
	if secs := elapsed.Seconds(); secs > 0 {
		ps.PathsPerSecond = float64(p.NumPaths) / secs
	}

	e.log.Debug().
		Int("paths", p.NumPaths).
		Int("periods", periods).
		Dur("elapsed", elapsed).
		Float64("paths_per_second", ps.PathsPerSecond).
		Msg("Simulation run complete")

	return ps, nil
}

func (e *Engine) validate(p Params) error {
	if p.NumPaths <= 0 {
		verr := &domain.ValidationError{}
		verr.Add("num_simulations", "must be positive")
		return verr
	}
	n := len(p.Order)
	if n == 0 || len(p.Weights) != n || len(p.Returns) != n || len(p.Vols) != n {
		return &domain.DataQualityError{
			Reason: fmt.Sprintf("misaligned parameter vectors: %d assets, %d weights, %d returns, %d vols",
				n, len(p.Weights), len(p.Returns), len(p.Vols)),
		}
	}
	if p.Correlation == nil {
		return &domain.DataQualityError{Reason: "correlation matrix is missing"}
	}
	if r, c := p.Correlation.Dims(); r != n || c != n {
		return &domain.DataQualityError{
			Reason: fmt.Sprintf("correlation matrix is %dx%d for %d assets", r, c, n),
		}
	}
	if p.StepsPerYear <= 0 {
		return &domain.DataQualityError{Reason: "steps per year must be positive"}
	}
	if p.YearsToRetirement < 0 || p.YearsInRetirement <= 0 {
		return &domain.DataQualityError{Reason: "projection horizon is empty"}
	}
	return nil
}

// runPath simulates a single trajectory. It draws one correlated shock
// vector per period, compounds the portfolio return, then applies the
// period's contribution or withdrawal.
func (e *Engine) runPath(p Params, lower *mat.TriDense, pathIndex, periods int) ([]float64, bool, error) {
	rng := rand.New(rand.NewSource(int64(uint64(p.Seed) + uint64(pathIndex)*pathSeedStride)))

	n := len(p.Order)
	z := make([]float64, n)
	shocks := make([]float64, n)
	steps := float64(p.StepsPerYear)
	sqrtDT := math.Sqrt(1 / steps)

	balances := make([]float64, periods+1)
	balances[0] = p.InitialBalance
	balance := p.InitialBalance
	depleted := false

	for t := 0; t < periods; t++ {
		year := t / p.StepsPerYear

		if depleted {
			balances[t+1] = 0
			continue
		}

		// Standard normal vector, correlated through the Cholesky factor.
		for i := range z {
			z[i] = rng.NormFloat64()
		}
		for i := 0; i < n; i++ {
			s := 0.0
			for j := 0; j <= i; j++ {
				s += lower.At(i, j) * z[j]
			}
			shocks[i] = s
		}

		shift, scale := p.regimeAt(year)
		periodReturn := 0.0
		for i := 0; i < n; i++ {
			mu := p.Returns[i] + shift
			sigma := p.Vols[i] * scale
			periodReturn += p.Weights[i] * (mu/steps + sigma*sqrtDT*shocks[i])
		}

		// A period cannot lose more than the whole balance.
		growth := 1 + periodReturn
		if growth < 0 {
			growth = 0
		}
		balance *= growth

		if year < p.YearsToRetirement {
			contribution := p.AnnualContribution * math.Pow(1+p.ContributionGrowthRate, float64(year))
			balance += contribution / steps
		} else {
			retirementYear := year - p.YearsToRetirement
			withdrawal := p.AnnualWithdrawal * math.Pow(1+p.WithdrawalGrowthRate, float64(retirementYear))
			balance -= withdrawal / steps
			if balance < 0 {
				depleted = true
				balance = 0
			}
		}

		if math.IsNaN(balance) || math.IsInf(balance, 0) {
			return nil, false, &domain.ComputationError{
				Stage: "path generation",
				Err:   fmt.Errorf("non-finite balance at path %d period %d", pathIndex, t),
			}
		}
		balances[t+1] = balance
	}

	return balances, depleted, nil
}

// regimeAt returns the return shift and volatility scale in effect for a
// projection year.
func (p Params) regimeAt(year int) (shift, scale float64) {
	if year < p.Regime.AffectedYears {
		return p.Regime.ReturnShift, p.Regime.VolatilityScale
	}
	return 0, 1
}
