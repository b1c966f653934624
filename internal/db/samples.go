package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gazelab/gaze.report/internal/gaze"
)

// TrialInfo summarizes one stored trial.
type TrialInfo struct {
	Subject     string `json:"subject"`
	Question    string `json:"question"`
	SampleCount int64  `json:"sample_count"`
}

// ReplaceTrialSamples swaps in a fresh copy of a trial's samples. Re-ingesting
// the same source file therefore leaves exactly one copy behind.
func (db *DB) ReplaceTrialSamples(ctx context.Context, trial gaze.TrialID, samples []gaze.Sample) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM gaze_samples WHERE subject_id = ? AND question_id = ?`,
		trial.Subject, trial.Question)
	if err != nil {
		return fmt.Errorf("failed to clear trial samples: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO gaze_samples (
			subject_id, question_id, timestamp_ms, gaze_x, gaze_y,
			fixation_run_id, left_pupil_px, right_pupil_px, fix_duration_s
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range samples {
		_, err := stmt.ExecContext(ctx,
			trial.Subject,
			trial.Question,
			nullFloat(s.TimestampMS),
			nullFloat(s.GazeX),
			nullFloat(s.GazeY),
			s.FixationRun,
			nullFloat(s.PupilLeftPX),
			nullFloat(s.PupilRightPX),
			nullFloat(s.FixDurationS),
		)
		if err != nil {
			return fmt.Errorf("failed to insert sample: %w", err)
		}
	}

	return tx.Commit()
}

// SamplesForTrial returns a trial's stored samples ordered by timestamp,
// ready to feed back through the pipeline.
func (db *DB) SamplesForTrial(ctx context.Context, trial gaze.TrialID) ([]gaze.Sample, error) {
	query := `
		SELECT timestamp_ms, gaze_x, gaze_y, fixation_run_id,
		       left_pupil_px, right_pupil_px, fix_duration_s
		FROM gaze_samples
		WHERE subject_id = ? AND question_id = ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := db.QueryContext(ctx, query, trial.Subject, trial.Question)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var samples []gaze.Sample
	for rows.Next() {
		var (
			s                          gaze.Sample
			ts, gx, gy, lp, rp, fixDur sql.NullFloat64
		)
		if err := rows.Scan(&ts, &gx, &gy, &s.FixationRun, &lp, &rp, &fixDur); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		s.Trial = trial
		s.TimestampMS = floatOrNaN(ts)
		s.GazeX = floatOrNaN(gx)
		s.GazeY = floatOrNaN(gy)
		s.PupilLeftPX = floatOrNaN(lp)
		s.PupilRightPX = floatOrNaN(rp)
		s.FixDurationS = floatOrNaN(fixDur)
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating samples: %w", err)
	}

	return samples, nil
}

// ListTrials returns every stored trial with its sample count, ordered by
// subject then question.
func (db *DB) ListTrials(ctx context.Context) ([]TrialInfo, error) {
	query := `
		SELECT subject_id, question_id, COUNT(*)
		FROM gaze_samples
		GROUP BY subject_id, question_id
		ORDER BY subject_id ASC, question_id ASC
	`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query trials: %w", err)
	}
	defer rows.Close()

	var trials []TrialInfo
	for rows.Next() {
		var t TrialInfo
		if err := rows.Scan(&t.Subject, &t.Question, &t.SampleCount); err != nil {
			return nil, fmt.Errorf("failed to scan trial: %w", err)
		}
		trials = append(trials, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trials: %w", err)
	}

	return trials, nil
}

// SampleCount returns the number of stored samples for one trial.
func (db *DB) SampleCount(ctx context.Context, trial gaze.TrialID) (int64, error) {
	var n int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM gaze_samples WHERE subject_id = ? AND question_id = ?`,
		trial.Subject, trial.Question).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count samples: %w", err)
	}
	return n, nil
}
