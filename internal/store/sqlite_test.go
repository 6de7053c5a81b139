package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wealthpath/planning-engine/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleResult(runID, userID string, success float64, completed time.Time) *domain.SimulationResult {
	return &domain.SimulationResult{
		RunID:                   runID,
		UserID:                  userID,
		SuccessProbability:      success,
		MedianRetirementBalance: decimal.NewFromInt(1500000),
		MedianTerminalBalance:   decimal.NewFromInt(800000),
		PortfolioAllocation:     domain.PortfolioAllocation{"BONDS": 0.4, "US_LARGE_CAP": 0.6},
		SummaryReport:           "looks fine",
		CompletedAt:             completed,
	}
}

func TestSaveAndGetResult(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	original := sampleResult("run-1", "user-a", 0.87, time.Now().UTC())
	require.NoError(t, s.SaveResult(ctx, original))

	loaded, err := s.GetResult(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", loaded.RunID)
	assert.Equal(t, "user-a", loaded.UserID)
	assert.InDelta(t, 0.87, loaded.SuccessProbability, 1e-12)
	assert.True(t, loaded.MedianRetirementBalance.Equal(original.MedianRetirementBalance))
	assert.Equal(t, original.PortfolioAllocation, loaded.PortfolioAllocation)
	assert.Equal(t, "looks fine", loaded.SummaryReport)
}

func TestGetResultMissing(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetResult(context.Background(), "nope")
	var nfe *domain.NotFoundError
	require.ErrorAs(t, err, &nfe)
}

func TestSaveResultDuplicateRunID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	res := sampleResult("run-dup", "", 0.5, time.Now().UTC())
	require.NoError(t, s.SaveResult(ctx, res))
	require.Error(t, s.SaveResult(ctx, res))
}

func TestListResultsFiltersAndOrders(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveResult(ctx, sampleResult("run-1", "user-a", 0.6, base)))
	require.NoError(t, s.SaveResult(ctx, sampleResult("run-2", "user-a", 0.7, base.Add(time.Hour))))
	require.NoError(t, s.SaveResult(ctx, sampleResult("run-3", "user-b", 0.8, base.Add(2*time.Hour))))

	forA, err := s.ListResults(ctx, "user-a", 10)
	require.NoError(t, err)
	require.Len(t, forA, 2)
	assert.Equal(t, "run-2", forA[0].RunID, "newest first")
	assert.Equal(t, "run-1", forA[1].RunID)

	all, err := s.ListResults(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	limited, err := s.ListResults(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "run-3", limited[0].RunID)
}
