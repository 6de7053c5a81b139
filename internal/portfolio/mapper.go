package portfolio

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/wealthpath/planning-engine/internal/assumptions"
	"github.com/wealthpath/planning-engine/internal/domain"
)

// Mapper resolves risk preferences into concrete allocations and prices them
// against one assumption snapshot. Construct a new mapper per request so the
// snapshot stays fixed for the request's duration.
type Mapper struct {
	snap *assumptions.Snapshot
	log  zerolog.Logger
}

// NewMapper creates a mapper bound to an assumption snapshot.
func NewMapper(snap *assumptions.Snapshot, log zerolog.Logger) *Mapper {
	return &Mapper{
		snap: snap,
		log:  log.With().Str("component", "portfolio").Logger(),
	}
}

// GetModelPortfolio returns the pre-defined allocation for a risk-tolerance
// level.
func (m *Mapper) GetModelPortfolio(risk domain.RiskTolerance) (domain.PortfolioAllocation, error) {
	model, ok := modelPortfolios()[risk]
	if !ok {
		return nil, &domain.NotFoundError{Kind: "model portfolio", Name: string(risk)}
	}
	return model.Clone(), nil
}

// ValidateAllocation checks that every key is a known asset class, all
// weights are non-negative, and the weights sum to 1 within tolerance. It
// never returns an error: all problems are reported together so the caller
// can surface them at once.
func (m *Mapper) ValidateAllocation(alloc map[string]float64) (bool, []string) {
	var problems []string

	if len(alloc) == 0 {
		return false, []string{"allocation is empty"}
	}

	// Deterministic report order.
	names := make([]string, 0, len(alloc))
	for name := range alloc {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !m.snap.Has(name) {
			problems = append(problems, fmt.Sprintf("unknown asset class %q", name))
		}
		switch w := alloc[name]; {
		case math.IsNaN(w) || math.IsInf(w, 0):
			problems = append(problems, fmt.Sprintf("weight for %s is not a finite number (%v)", name, w))
		case w < 0:
			problems = append(problems, fmt.Sprintf("weight for %s is negative (%v)", name, w))
		}
	}

	sum := 0.0
	for _, w := range alloc {
		sum += w
	}
	if math.Abs(sum-1) > domain.AllocationSumTolerance {
		problems = append(problems, fmt.Sprintf("weights sum to %.6f, must sum to 1", sum))
	}

	return len(problems) == 0, problems
}

// Resolve turns a request's risk preference into a validated allocation. A
// custom allocation takes precedence over the named risk tolerance.
func (m *Mapper) Resolve(req *domain.SimulationRequest) (domain.PortfolioAllocation, error) {
	if len(req.CustomAllocation) > 0 {
		ok, problems := m.ValidateAllocation(req.CustomAllocation)
		if !ok {
			verr := &domain.ValidationError{}
			for _, p := range problems {
				verr.Add("custom_allocation", p)
			}
			return nil, verr
		}
		return domain.PortfolioAllocation(req.CustomAllocation).Clone(), nil
	}
	return m.GetModelPortfolio(req.RiskTolerance)
}

// CalculatePortfolioMetrics computes the expected return and volatility for
// an allocation. Expected return is the weight-weighted sum of per-asset
// expected returns. Expected volatility is sqrt(w' Σ w) over the full
// covariance matrix; the naive weighted sum of individual volatilities
// ignores correlation and overstates risk for any diversified portfolio.
func (m *Mapper) CalculatePortfolioMetrics(alloc domain.PortfolioAllocation) (domain.PortfolioMetrics, error) {
	if ok, problems := m.ValidateAllocation(alloc); !ok {
		return domain.PortfolioMetrics{}, &domain.DataQualityError{
			Reason: fmt.Sprintf("allocation rejected: %v", problems),
		}
	}

	order := alloc.Names()
	weights := make([]float64, len(order))
	for i, name := range order {
		weights[i] = alloc[name]
	}

	returns, err := m.snap.Returns(order)
	if err != nil {
		return domain.PortfolioMetrics{}, err
	}
	vols, err := m.snap.Vols(order)
	if err != nil {
		return domain.PortfolioMetrics{}, err
	}
	corr, err := m.snap.SubCorrelation(order)
	if err != nil {
		return domain.PortfolioMetrics{}, err
	}

	expReturn := 0.0
	for i, w := range weights {
		expReturn += w * returns[i]
	}

	// Σij = σi σj ρij restricted to the allocation's assets.
	n := len(order)
	cov := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			cov.SetSym(i, j, vols[i]*vols[j]*corr.At(i, j))
		}
	}

	w := mat.NewVecDense(n, weights)
	variance := mat.Inner(w, cov, w)
	if variance < 0 || math.IsNaN(variance) {
		return domain.PortfolioMetrics{}, &domain.DataQualityError{
			Reason: fmt.Sprintf("portfolio variance is %v; covariance matrix is not positive semi-definite", variance),
		}
	}
	expVol := math.Sqrt(variance)

	riskFree := 0.02
	if cash, err := m.snap.AssetClass(assumptions.AssetCash); err == nil {
		riskFree = cash.ExpectedReturn
	}
	sharpe := 0.0
	if expVol > 0 {
		sharpe = (expReturn - riskFree) / expVol
	}

	return domain.PortfolioMetrics{
		ExpectedReturn:     expReturn,
		ExpectedVolatility: expVol,
		SharpeRatio:        sharpe,
	}, nil
}

// GetETFRecommendations returns fund suggestions for every asset class with
// non-zero weight, ordered by descending weight (ties broken by asset-class
// name). Zero-weight classes never appear.
func (m *Mapper) GetETFRecommendations(alloc domain.PortfolioAllocation) []domain.ETFRecommendation {
	type weighted struct {
		name   string
		weight float64
	}
	classes := make([]weighted, 0, len(alloc))
	for name, w := range alloc {
		if w > 0 {
			classes = append(classes, weighted{name, w})
		}
	}
	sort.Slice(classes, func(i, j int) bool {
		if classes[i].weight != classes[j].weight {
			return classes[i].weight > classes[j].weight
		}
		return classes[i].name < classes[j].name
	})

	catalog := etfCatalog()
	var recs []domain.ETFRecommendation
	for _, c := range classes {
		recs = append(recs, catalog[c.name]...)
	}
	return recs
}

func modelPortfolios() map[domain.RiskTolerance]domain.PortfolioAllocation {
	return map[domain.RiskTolerance]domain.PortfolioAllocation{
		domain.RiskConservative: {
			assumptions.AssetUSLargeCap:    0.15,
			assumptions.AssetInternational: 0.05,
			assumptions.AssetBonds:         0.55,
			assumptions.AssetRealEstate:    0.05,
			assumptions.AssetCash:          0.20,
		},
		domain.RiskModeratelyConservative: {
			assumptions.AssetUSLargeCap:    0.22,
			assumptions.AssetUSSmallCap:    0.05,
			assumptions.AssetInternational: 0.08,
			assumptions.AssetBonds:         0.45,
			assumptions.AssetRealEstate:    0.08,
			assumptions.AssetCash:          0.12,
		},
		domain.RiskModerate: {
			assumptions.AssetUSLargeCap:      0.30,
			assumptions.AssetUSSmallCap:      0.10,
			assumptions.AssetInternational:   0.12,
			assumptions.AssetEmergingMarkets: 0.03,
			assumptions.AssetBonds:           0.30,
			assumptions.AssetRealEstate:      0.10,
			assumptions.AssetCash:            0.05,
		},
		domain.RiskModeratelyAggressive: {
			assumptions.AssetUSLargeCap:      0.35,
			assumptions.AssetUSSmallCap:      0.13,
			assumptions.AssetInternational:   0.15,
			assumptions.AssetEmergingMarkets: 0.07,
			assumptions.AssetBonds:           0.18,
			assumptions.AssetRealEstate:      0.10,
			assumptions.AssetCash:            0.02,
		},
		domain.RiskAggressive: {
			assumptions.AssetUSLargeCap:      0.40,
			assumptions.AssetUSSmallCap:      0.17,
			assumptions.AssetInternational:   0.17,
			assumptions.AssetEmergingMarkets: 0.11,
			assumptions.AssetBonds:           0.05,
			assumptions.AssetRealEstate:      0.10,
		},
	}
}
