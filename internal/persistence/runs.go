package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/asyncweather/internal/orchestrator"
)

// ErrRunNotFound is returned by GetRun for unknown IDs.
var ErrRunNotFound = errors.New("run not found")

// RunRecord is one persisted task group run.
type RunRecord struct {
	ID        string
	Durations []float64
	Forbidden float64
	Unit      time.Duration
	Outcome   orchestrator.Outcome
	CreatedAt time.Time
}

// SaveRun saves or replaces a run and its operation reports.
func (s *SQLiteStore) SaveRun(ctx context.Context, run RunRecord) error {
	if run.ID == "" {
		return errors.New("run id is required")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var results, cause sql.NullString
	if run.Outcome.Cause != nil {
		cause = sql.NullString{String: run.Outcome.Cause.Error(), Valid: true}
	} else {
		results = sql.NullString{String: joinFloats(run.Outcome.Results), Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO group_runs (id, durations, forbidden, unit_ns, results, cause, elapsed_ns, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			durations = excluded.durations,
			forbidden = excluded.forbidden,
			unit_ns = excluded.unit_ns,
			results = excluded.results,
			cause = excluded.cause,
			elapsed_ns = excluded.elapsed_ns
	`, run.ID, joinFloats(run.Durations), run.Forbidden, int64(run.Unit), results, cause,
		int64(run.Outcome.Elapsed), run.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM group_operations WHERE run_id = ?`, run.ID); err != nil {
		return fmt.Errorf("failed to delete old operations: %w", err)
	}

	for _, op := range run.Outcome.Operations {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO group_operations (run_id, idx, duration, status)
			VALUES (?, ?, ?, ?)
		`, run.ID, op.Index, op.Duration, op.Status)
		if err != nil {
			return fmt.Errorf("failed to insert operation %d of run %s: %w", op.Index, run.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetRun retrieves a run by ID, including its operations.
func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, durations, forbidden, unit_ns, results, cause, elapsed_ns, created_at
		FROM group_runs
		WHERE id = ?
	`, runID)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("failed to query run: %w", err)
	}

	if err := s.loadOperations(ctx, &run); err != nil {
		return RunRecord{}, err
	}
	return run, nil
}

// ListRuns returns the most recent runs first. A non-positive limit returns all runs.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, durations, forbidden, unit_ns, results, cause, elapsed_ns, created_at
		FROM group_runs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	var runs []RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	rows.Close()

	// Operations are loaded after the cursor is released; the store holds a single connection.
	for i := range runs {
		if err := s.loadOperations(ctx, &runs[i]); err != nil {
			return nil, err
		}
	}

	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (RunRecord, error) {
	var (
		run       RunRecord
		durations string
		results   sql.NullString
		cause     sql.NullString
		unitNs    int64
		elapsedNs int64
	)

	err := sc.Scan(&run.ID, &durations, &run.Forbidden, &unitNs, &results, &cause, &elapsedNs, &run.CreatedAt)
	if err != nil {
		return RunRecord{}, err
	}

	run.Durations, err = splitFloats(durations)
	if err != nil {
		return RunRecord{}, fmt.Errorf("run %s durations: %w", run.ID, err)
	}
	run.Unit = time.Duration(unitNs)
	run.Outcome.Elapsed = time.Duration(elapsedNs)

	if cause.Valid {
		run.Outcome.Cause = fmt.Errorf("%s", cause.String)
	} else {
		run.Outcome.Results, err = splitFloats(results.String)
		if err != nil {
			return RunRecord{}, fmt.Errorf("run %s results: %w", run.ID, err)
		}
	}

	return run, nil
}

func (s *SQLiteStore) loadOperations(ctx context.Context, run *RunRecord) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, duration, status
		FROM group_operations
		WHERE run_id = ?
		ORDER BY idx
	`, run.ID)
	if err != nil {
		return fmt.Errorf("failed to query operations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var op orchestrator.OperationReport
		if err := rows.Scan(&op.Index, &op.Duration, &op.Status); err != nil {
			return fmt.Errorf("failed to scan operation: %w", err)
		}
		run.Outcome.Operations = append(run.Outcome.Operations, op)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating operations: %w", err)
	}
	return nil
}

func joinFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

// splitFloats parses a joinFloats string. The empty string is an empty, non-nil slice.
func splitFloats(s string) ([]float64, error) {
	if s == "" {
		return []float64{}, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
