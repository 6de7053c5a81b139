package assumptions

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/wealthpath/planning-engine/internal/domain"
)

// Provider supplies expected-return, volatility and correlation inputs per
// asset class. It is read-only from the pipeline's point of view: a request
// takes a Snapshot when its allocation is resolved and holds it for the
// request's duration, so a concurrent Refresh never changes in-flight
// simulations.
type Provider struct {
	mu      sync.RWMutex
	snap    *Snapshot
	regimes map[string]MarketRegime
	log     zerolog.Logger
}

// Snapshot is an immutable view of the assumption set. The asset order is
// fixed at construction; all vector and matrix accessors use that order.
type Snapshot struct {
	assets      []domain.AssetClass
	index       map[string]int
	corr        *mat.SymDense
	lastUpdated time.Time
}

// SummaryStatistics is the aggregate view exposed for diagnostics.
type SummaryStatistics struct {
	NumAssetClasses    int       `json:"num_asset_classes"`
	MeanExpectedReturn float64   `json:"mean_expected_return"`
	MeanVolatility     float64   `json:"mean_volatility"`
	LastUpdated        time.Time `json:"last_updated"`
}

// assumptionFile is the YAML shape for an override data file.
type assumptionFile struct {
	AssetClasses []domain.AssetClass `yaml:"asset_classes"`
	Correlations [][]float64         `yaml:"correlations"`
}

// NewProvider returns a provider loaded with the built-in default assumption
// set.
func NewProvider(log zerolog.Logger) *Provider {
	snap, err := buildSnapshot(defaultAssetClasses(), defaultCorrelations(), time.Now().UTC())
	if err != nil {
		// The built-in defaults are validated by tests; a failure here is a
		// programming error.
		panic(fmt.Sprintf("assumptions: invalid built-in defaults: %v", err))
	}
	return &Provider{
		snap:    snap,
		regimes: defaultRegimes(),
		log:     log.With().Str("component", "assumptions").Logger(),
	}
}

// LoadFile replaces the live assumption set from a YAML data file. The
// previous set stays in place when the file is invalid.
func (p *Provider) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read assumption file %s: %w", path, err)
	}

	var file assumptionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse assumption file %s: %w", path, err)
	}

	snap, err := buildSnapshot(file.AssetClasses, file.Correlations, time.Now().UTC())
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.snap = snap
	p.mu.Unlock()

	p.log.Info().Str("path", path).Int("asset_classes", len(file.AssetClasses)).
		Msg("Loaded market assumptions")
	return nil
}

// Refresh re-stamps the assumption set. The default set is static, so this
// only moves LastUpdated forward; a file-backed deployment re-reads its
// source through LoadFile on the same schedule.
func (p *Provider) Refresh() {
	p.mu.Lock()
	snap := *p.snap
	snap.lastUpdated = time.Now().UTC()
	p.snap = &snap
	p.mu.Unlock()

	p.log.Debug().Msg("Refreshed market assumptions")
}

// Snapshot returns the current immutable assumption set.
func (p *Provider) Snapshot() *Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap
}

// Regime looks up a named market regime.
func (p *Provider) Regime(name string) (MarketRegime, error) {
	regime, ok := p.regimes[name]
	if !ok {
		return MarketRegime{}, &domain.NotFoundError{Kind: "market regime", Name: name}
	}
	return regime, nil
}

// Regimes returns the adverse regimes used for stress testing, in a stable
// order, excluding the baseline.
func (p *Provider) Regimes() []MarketRegime {
	names := []string{RegimeCrash2008, RegimeStagflation, RegimeLostDecade}
	out := make([]MarketRegime, 0, len(names))
	for _, name := range names {
		out = append(out, p.regimes[name])
	}
	return out
}

// GetSummaryStatistics returns the aggregate view of the live set.
func (p *Provider) GetSummaryStatistics() SummaryStatistics {
	snap := p.Snapshot()
	var sumRet, sumVol float64
	for _, a := range snap.assets {
		sumRet += a.ExpectedReturn
		sumVol += a.Volatility
	}
	n := float64(len(snap.assets))
	return SummaryStatistics{
		NumAssetClasses:    len(snap.assets),
		MeanExpectedReturn: sumRet / n,
		MeanVolatility:     sumVol / n,
		LastUpdated:        snap.lastUpdated,
	}
}

func buildSnapshot(assets []domain.AssetClass, corr [][]float64, updated time.Time) (*Snapshot, error) {
	n := len(assets)
	if n == 0 {
		return nil, &domain.DataQualityError{Reason: "no asset classes defined"}
	}
	if len(corr) != n {
		return nil, &domain.DataQualityError{
			Reason: fmt.Sprintf("correlation matrix has %d rows for %d asset classes", len(corr), n),
		}
	}

	index := make(map[string]int, n)
	for i, a := range assets {
		if a.Name == "" {
			return nil, &domain.DataQualityError{Reason: fmt.Sprintf("asset class %d has no name", i)}
		}
		if _, dup := index[a.Name]; dup {
			return nil, &domain.DataQualityError{Reason: fmt.Sprintf("duplicate asset class %s", a.Name)}
		}
		if a.Volatility < 0 {
			return nil, &domain.DataQualityError{Reason: fmt.Sprintf("asset class %s has negative volatility", a.Name)}
		}
		index[a.Name] = i
	}

	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		if len(corr[i]) != n {
			return nil, &domain.DataQualityError{
				Reason: fmt.Sprintf("correlation row %d has %d columns, want %d", i, len(corr[i]), n),
			}
		}
		for j := i; j < n; j++ {
			if i == j && corr[i][j] != 1 {
				return nil, &domain.DataQualityError{
					Reason: fmt.Sprintf("correlation diagonal for %s is %v, want 1", assets[i].Name, corr[i][j]),
				}
			}
			if corr[i][j] != corr[j][i] {
				return nil, &domain.DataQualityError{
					Reason: fmt.Sprintf("correlation matrix asymmetric at (%d,%d)", i, j),
				}
			}
			sym.SetSym(i, j, corr[i][j])
		}
	}

	snapAssets := make([]domain.AssetClass, n)
	copy(snapAssets, assets)

	return &Snapshot{
		assets:      snapAssets,
		index:       index,
		corr:        sym,
		lastUpdated: updated,
	}, nil
}

// AssetClass looks up a single asset class by name.
func (s *Snapshot) AssetClass(name string) (domain.AssetClass, error) {
	i, ok := s.index[name]
	if !ok {
		return domain.AssetClass{}, &domain.NotFoundError{Kind: "asset class", Name: name}
	}
	return s.assets[i], nil
}

// Has reports whether the named asset class exists.
func (s *Snapshot) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Order returns the asset-class names in snapshot order.
func (s *Snapshot) Order() []string {
	names := make([]string, len(s.assets))
	for i, a := range s.assets {
		names[i] = a.Name
	}
	return names
}

// AssetClasses returns all asset classes in snapshot order.
func (s *Snapshot) AssetClasses() []domain.AssetClass {
	out := make([]domain.AssetClass, len(s.assets))
	copy(out, s.assets)
	return out
}

// LastUpdated is the time this snapshot's data was loaded or refreshed.
func (s *Snapshot) LastUpdated() time.Time { return s.lastUpdated }

// CorrelationMatrix returns a copy of the correlation matrix in snapshot
// order: symmetric with unit diagonal.
func (s *Snapshot) CorrelationMatrix() *mat.SymDense {
	n := len(s.assets)
	out := mat.NewSymDense(n, nil)
	out.CopySym(s.corr)
	return out
}

// CovarianceMatrix returns the covariance matrix Σ with Σij = σi σj ρij.
func (s *Snapshot) CovarianceMatrix() *mat.SymDense {
	n := len(s.assets)
	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			out.SetSym(i, j, s.assets[i].Volatility*s.assets[j].Volatility*s.corr.At(i, j))
		}
	}
	return out
}

// Returns and Vols extract the per-asset parameter vectors for the given
// asset order. Every name must exist in the snapshot.

func (s *Snapshot) Returns(order []string) ([]float64, error) {
	out := make([]float64, len(order))
	for i, name := range order {
		idx, ok := s.index[name]
		if !ok {
			return nil, &domain.NotFoundError{Kind: "asset class", Name: name}
		}
		out[i] = s.assets[idx].ExpectedReturn
	}
	return out, nil
}

func (s *Snapshot) Vols(order []string) ([]float64, error) {
	out := make([]float64, len(order))
	for i, name := range order {
		idx, ok := s.index[name]
		if !ok {
			return nil, &domain.NotFoundError{Kind: "asset class", Name: name}
		}
		out[i] = s.assets[idx].Volatility
	}
	return out, nil
}

// SubCorrelation returns the correlation matrix restricted to the given
// asset order.
func (s *Snapshot) SubCorrelation(order []string) (*mat.SymDense, error) {
	idx := make([]int, len(order))
	for i, name := range order {
		j, ok := s.index[name]
		if !ok {
			return nil, &domain.NotFoundError{Kind: "asset class", Name: name}
		}
		idx[i] = j
	}
	out := mat.NewSymDense(len(order), nil)
	for i := range idx {
		for j := i; j < len(idx); j++ {
			out.SetSym(i, j, s.corr.At(idx[i], idx[j]))
		}
	}
	return out, nil
}

// Asset-class names in the built-in default set.
const (
	AssetUSLargeCap      = "US_LARGE_CAP"
	AssetUSSmallCap      = "US_SMALL_CAP"
	AssetInternational   = "INTERNATIONAL"
	AssetEmergingMarkets = "EMERGING_MARKETS"
	AssetBonds           = "BONDS"
	AssetRealEstate      = "REAL_ESTATE"
	AssetCash            = "CASH"
)

// DefaultInflationRate is the long-run annual inflation assumption used for
// contribution growth baselines and withdrawal indexing.
const DefaultInflationRate = 0.025

func defaultAssetClasses() []domain.AssetClass {
	return []domain.AssetClass{
		{Name: AssetUSLargeCap, Label: "US Large Cap Equity", ExpectedReturn: 0.090, Volatility: 0.16},
		{Name: AssetUSSmallCap, Label: "US Small Cap Equity", ExpectedReturn: 0.100, Volatility: 0.20},
		{Name: AssetInternational, Label: "International Developed Equity", ExpectedReturn: 0.075, Volatility: 0.17},
		{Name: AssetEmergingMarkets, Label: "Emerging Markets Equity", ExpectedReturn: 0.095, Volatility: 0.22},
		{Name: AssetBonds, Label: "US Aggregate Bonds", ExpectedReturn: 0.040, Volatility: 0.05},
		{Name: AssetRealEstate, Label: "Real Estate (REITs)", ExpectedReturn: 0.070, Volatility: 0.18},
		{Name: AssetCash, Label: "Cash & Equivalents", ExpectedReturn: 0.020, Volatility: 0.01},
	}
}

func defaultCorrelations() [][]float64 {
	// Order matches defaultAssetClasses. Long-run estimates; the equity
	// block is highly correlated, bonds slightly negative to equities.
	return [][]float64{
		{1.00, 0.85, 0.75, 0.70, -0.10, 0.60, 0.00},
		{0.85, 1.00, 0.70, 0.68, -0.12, 0.62, 0.00},
		{0.75, 0.70, 1.00, 0.80, -0.05, 0.55, 0.00},
		{0.70, 0.68, 0.80, 1.00, -0.08, 0.50, 0.00},
		{-0.10, -0.12, -0.05, -0.08, 1.00, 0.05, 0.30},
		{0.60, 0.62, 0.55, 0.50, 0.05, 1.00, 0.00},
		{0.00, 0.00, 0.00, 0.00, 0.30, 0.00, 1.00},
	}
}
