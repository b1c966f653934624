package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AnalysisRun records one batch pass over a trial directory.
type AnalysisRun struct {
	RunID        string     `json:"run_id"`
	Source       string     `json:"source"`
	ModelVersion string     `json:"model_version"`
	TrialCount   int64      `json:"trial_count"`
	FailedCount  int64      `json:"failed_count"`
	SampleCount  int64      `json:"sample_count"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at"`
}

// NewAnalysisRun creates a run row in the running state and returns its ID.
func (db *DB) NewAnalysisRun(ctx context.Context, source, modelVersion string) (string, error) {
	runID := uuid.New().String()
	_, err := db.ExecContext(ctx, `
		INSERT INTO analysis_runs (run_id, source, model_version, started_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
	`, runID, source, modelVersion)
	if err != nil {
		return "", fmt.Errorf("failed to create analysis run: %w", err)
	}
	return runID, nil
}

// FinishAnalysisRun closes out a run with its final counts.
func (db *DB) FinishAnalysisRun(ctx context.Context, runID string, trials, failed, samples int64) error {
	res, err := db.ExecContext(ctx, `
		UPDATE analysis_runs
		SET trial_count = ?, failed_count = ?, sample_count = ?, finished_at = CURRENT_TIMESTAMP
		WHERE run_id = ?
	`, trials, failed, samples, runID)
	if err != nil {
		return fmt.Errorf("failed to finish analysis run: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("analysis run not found")
	}
	return nil
}

// ListAnalysisRuns returns runs newest first.
func (db *DB) ListAnalysisRuns(ctx context.Context) ([]AnalysisRun, error) {
	query := `
		SELECT run_id, source, model_version, trial_count, failed_count,
		       sample_count, started_at, finished_at
		FROM analysis_runs
		ORDER BY started_at DESC
	`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis runs: %w", err)
	}
	defer rows.Close()

	var runs []AnalysisRun
	for rows.Next() {
		var r AnalysisRun
		var finished sql.NullTime
		err := rows.Scan(&r.RunID, &r.Source, &r.ModelVersion,
			&r.TrialCount, &r.FailedCount, &r.SampleCount,
			&r.StartedAt, &finished)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis run: %w", err)
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analysis runs: %w", err)
	}

	return runs, nil
}
