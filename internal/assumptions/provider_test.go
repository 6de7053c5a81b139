package assumptions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/wealthpath/planning-engine/internal/domain"
)

func TestDefaultsAreComplete(t *testing.T) {
	p := NewProvider(zerolog.Nop())
	snap := p.Snapshot()

	assert.Len(t, snap.AssetClasses(), 7)
	for _, name := range []string{
		AssetUSLargeCap, AssetUSSmallCap, AssetInternational,
		AssetEmergingMarkets, AssetBonds, AssetRealEstate, AssetCash,
	} {
		assert.True(t, snap.Has(name), "missing default asset class %s", name)
	}
}

func TestDefaultCorrelationIsPositiveDefinite(t *testing.T) {
	p := NewProvider(zerolog.Nop())

	var chol mat.Cholesky
	ok := chol.Factorize(p.Snapshot().CorrelationMatrix())
	assert.True(t, ok, "default correlation matrix must be positive definite")
}

func TestRegimeLookup(t *testing.T) {
	p := NewProvider(zerolog.Nop())

	baseline, err := p.Regime(RegimeBaseline)
	require.NoError(t, err)
	assert.True(t, baseline.IsBaseline())

	crash, err := p.Regime(RegimeCrash2008)
	require.NoError(t, err)
	assert.False(t, crash.IsBaseline())
	assert.Negative(t, crash.ReturnShift)
	assert.Greater(t, crash.VolatilityScale, 1.0)
	assert.Equal(t, 2, crash.AffectedYears)

	_, err = p.Regime("meteor_strike")
	var nfe *domain.NotFoundError
	require.ErrorAs(t, err, &nfe)
}

func TestRegimesOrderedAndAdverseOnly(t *testing.T) {
	p := NewProvider(zerolog.Nop())

	regimes := p.Regimes()
	require.Len(t, regimes, 3)
	assert.Equal(t, RegimeCrash2008, regimes[0].Name)
	assert.Equal(t, RegimeStagflation, regimes[1].Name)
	assert.Equal(t, RegimeLostDecade, regimes[2].Name)
	for _, r := range regimes {
		assert.False(t, r.IsBaseline())
	}
}

func TestSnapshotIsolationAcrossRefresh(t *testing.T) {
	p := NewProvider(zerolog.Nop())

	before := p.Snapshot()
	stamp := before.LastUpdated()
	p.Refresh()

	// The held snapshot is untouched; the provider serves a new one.
	assert.Equal(t, stamp, before.LastUpdated())
	assert.True(t, p.Snapshot().LastUpdated().After(stamp) || p.Snapshot().LastUpdated().Equal(stamp))
	assert.NotSame(t, before, p.Snapshot())
}

func TestVectorAccessorsFollowRequestedOrder(t *testing.T) {
	snap := NewProvider(zerolog.Nop()).Snapshot()

	order := []string{AssetBonds, AssetUSLargeCap}
	returns, err := snap.Returns(order)
	require.NoError(t, err)
	vols, err := snap.Vols(order)
	require.NoError(t, err)

	bonds, _ := snap.AssetClass(AssetBonds)
	large, _ := snap.AssetClass(AssetUSLargeCap)
	assert.Equal(t, []float64{bonds.ExpectedReturn, large.ExpectedReturn}, returns)
	assert.Equal(t, []float64{bonds.Volatility, large.Volatility}, vols)

	_, err = snap.Returns([]string{"NOPE"})
	var nfe *domain.NotFoundError
	require.ErrorAs(t, err, &nfe)
}

func TestSubCorrelationMatchesFullMatrix(t *testing.T) {
	snap := NewProvider(zerolog.Nop()).Snapshot()

	sub, err := snap.SubCorrelation([]string{AssetUSLargeCap, AssetBonds})
	require.NoError(t, err)

	r, c := sub.Dims()
	require.Equal(t, 2, r)
	require.Equal(t, 2, c)
	assert.Equal(t, 1.0, sub.At(0, 0))
	assert.Equal(t, 1.0, sub.At(1, 1))
	assert.Equal(t, -0.10, sub.At(0, 1))
}

func TestCovarianceMatrixDiagonal(t *testing.T) {
	snap := NewProvider(zerolog.Nop()).Snapshot()
	cov := snap.CovarianceMatrix()

	for i, a := range snap.AssetClasses() {
		assert.InDelta(t, a.Volatility*a.Volatility, cov.At(i, i), 1e-12)
	}
}

func TestLoadFileReplacesAssumptions(t *testing.T) {
	p := NewProvider(zerolog.Nop())

	good := `
asset_classes:
  - name: STOCKS
    label: Stocks
    expected_return: 0.08
    volatility: 0.15
  - name: BONDS
    label: Bonds
    expected_return: 0.04
    volatility: 0.05
correlations:
  - [1.0, -0.2]
  - [-0.2, 1.0]
`
	path := filepath.Join(t.TempDir(), "assumptions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(good), 0o644))

	require.NoError(t, p.LoadFile(path))
	snap := p.Snapshot()
	assert.Len(t, snap.AssetClasses(), 2)
	assert.True(t, snap.Has("STOCKS"))
}

func TestLoadFileRejectsBadDataAndKeepsPreviousSet(t *testing.T) {
	p := NewProvider(zerolog.Nop())

	cases := map[string]string{
		"asymmetric": `
asset_classes:
  - {name: A, expected_return: 0.05, volatility: 0.1}
  - {name: B, expected_return: 0.05, volatility: 0.1}
correlations:
  - [1.0, 0.5]
  - [0.4, 1.0]
`,
		"bad diagonal": `
asset_classes:
  - {name: A, expected_return: 0.05, volatility: 0.1}
correlations:
  - [0.9]
`,
		"duplicate names": `
asset_classes:
  - {name: A, expected_return: 0.05, volatility: 0.1}
  - {name: A, expected_return: 0.06, volatility: 0.1}
correlations:
  - [1.0, 0.1]
  - [0.1, 1.0]
`,
		"row size mismatch": `
asset_classes:
  - {name: A, expected_return: 0.05, volatility: 0.1}
  - {name: B, expected_return: 0.05, volatility: 0.1}
correlations:
  - [1.0]
  - [0.1, 1.0]
`,
	}

	for name, yaml := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

			err := p.LoadFile(path)
			var dqe *domain.DataQualityError
			require.ErrorAs(t, err, &dqe)
			// The previous (default) set survives a failed load.
			assert.Len(t, p.Snapshot().AssetClasses(), 7)
		})
	}
}

func TestGetSummaryStatistics(t *testing.T) {
	p := NewProvider(zerolog.Nop())
	stats := p.GetSummaryStatistics()

	assert.Equal(t, 7, stats.NumAssetClasses)
	assert.Greater(t, stats.MeanExpectedReturn, 0.0)
	assert.Greater(t, stats.MeanVolatility, 0.0)
	assert.False(t, stats.LastUpdated.IsZero())
}
