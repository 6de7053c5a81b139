// Package store persists completed simulation results to SQLite so users can
// review past runs. Persistence is best-effort from the pipeline's point of
// view; the authoritative result is always the in-memory one returned to the
// caller.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/wealthpath/planning-engine/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS simulation_results (
	run_id              TEXT PRIMARY KEY,
	user_id             TEXT NOT NULL DEFAULT '',
	success_probability REAL NOT NULL,
	median_retirement   TEXT NOT NULL,
	median_terminal     TEXT NOT NULL,
	result_json         TEXT NOT NULL,
	completed_at        TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_results_user_completed
	ON simulation_results (user_id, completed_at DESC);
`

// ResultSummary is the compact listing row for result history.
type ResultSummary struct {
	RunID              string    `json:"run_id"`
	UserID             string    `json:"user_id,omitempty"`
	SuccessProbability float64   `json:"success_probability"`
	MedianRetirement   string    `json:"median_retirement_balance"`
	MedianTerminal     string    `json:"median_terminal_balance"`
	CompletedAt        time.Time `json:"completed_at"`
}

// Store is a SQLite-backed result archive.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens (creating if needed) the SQLite database at path and ensures the
// schema exists.
func Open(path string, log zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	// SQLite handles one writer at a time; serialize access through one
	// connection instead of letting database/sql pool them.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{
		db:  db,
		log: log.With().Str("component", "store").Logger(),
	}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveResult archives one completed result. The full result is stored as
// JSON next to the indexed summary columns.
func (s *Store) SaveResult(ctx context.Context, res *domain.SimulationResult) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to encode result %s: %w", res.RunID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO simulation_results
			(run_id, user_id, success_probability, median_retirement, median_terminal, result_json, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.RunID,
		res.UserID,
		res.SuccessProbability,
		res.MedianRetirementBalance.String(),
		res.MedianTerminalBalance.String(),
		string(payload),
		res.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save result %s: %w", res.RunID, err)
	}

	s.log.Debug().Str("run_id", res.RunID).Msg("Saved simulation result")
	return nil
}

// GetResult loads one archived result by run ID.
func (s *Store) GetResult(ctx context.Context, runID string) (*domain.SimulationResult, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT result_json FROM simulation_results WHERE run_id = ?`, runID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Kind: "simulation result", Name: runID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load result %s: %w", runID, err)
	}

	var res domain.SimulationResult
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		return nil, fmt.Errorf("failed to decode result %s: %w", runID, err)
	}
	return &res, nil
}

// ListResults returns summaries for a user, newest first. An empty userID
// lists across all users.
func (s *Store) ListResults(ctx context.Context, userID string, limit int) ([]ResultSummary, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT run_id, user_id, success_probability, median_retirement, median_terminal, completed_at
		FROM simulation_results`
	args := []any{}
	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY completed_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	var out []ResultSummary
	for rows.Next() {
		var r ResultSummary
		if err := rows.Scan(&r.RunID, &r.UserID, &r.SuccessProbability,
			&r.MedianRetirement, &r.MedianTerminal, &r.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
