package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gazelab/gaze.report/internal/gaze"
)

// UpsertTrialMetrics stores (or refreshes) per-trial summary rows.
func (db *DB) UpsertTrialMetrics(ctx context.Context, metrics []gaze.TrialMetrics, modelVersion string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trial_metrics (
			subject_id, question_id, fixation_count, mean_fixation_ms,
			mean_saccade_amp_px, mean_saccade_angle_deg, mean_pupil_change_rate,
			model_version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(subject_id, question_id, model_version) DO UPDATE SET
			fixation_count = excluded.fixation_count,
			mean_fixation_ms = excluded.mean_fixation_ms,
			mean_saccade_amp_px = excluded.mean_saccade_amp_px,
			mean_saccade_angle_deg = excluded.mean_saccade_angle_deg,
			mean_pupil_change_rate = excluded.mean_pupil_change_rate,
			created_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range metrics {
		_, err := stmt.ExecContext(ctx,
			m.Trial.Subject, m.Trial.Question, m.FixationCount,
			nullFloat(m.MeanFixationMS),
			nullFloat(m.MeanSaccadeAmpPX),
			nullFloat(m.MeanSaccadeAngleDeg),
			nullFloat(m.MeanPupilChangeRate),
			modelVersion)
		if err != nil {
			return fmt.Errorf("failed to upsert trial metrics: %w", err)
		}
	}

	return tx.Commit()
}

// UpsertSubjectMetrics stores (or refreshes) per-subject summary rows.
func (db *DB) UpsertSubjectMetrics(ctx context.Context, metrics []gaze.SubjectMetrics, modelVersion string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO subject_metrics (
			subject_id, trial_count, fixation_count, mean_fixation_ms,
			mean_saccade_amp_px, mean_saccade_angle_deg, mean_pupil_change_rate,
			model_version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(subject_id, model_version) DO UPDATE SET
			trial_count = excluded.trial_count,
			fixation_count = excluded.fixation_count,
			mean_fixation_ms = excluded.mean_fixation_ms,
			mean_saccade_amp_px = excluded.mean_saccade_amp_px,
			mean_saccade_angle_deg = excluded.mean_saccade_angle_deg,
			mean_pupil_change_rate = excluded.mean_pupil_change_rate,
			created_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range metrics {
		_, err := stmt.ExecContext(ctx,
			m.Subject, m.TrialCount, m.FixationCount,
			nullFloat(m.MeanFixationMS),
			nullFloat(m.MeanSaccadeAmpPX),
			nullFloat(m.MeanSaccadeAngleDeg),
			nullFloat(m.MeanPupilChangeRate),
			modelVersion)
		if err != nil {
			return fmt.Errorf("failed to upsert subject metrics: %w", err)
		}
	}

	return tx.Commit()
}

// TrialMetricsAll returns stored per-trial metrics ordered by subject then
// question.
func (db *DB) TrialMetricsAll(ctx context.Context, modelVersion string) ([]gaze.TrialMetrics, error) {
	query := `
		SELECT subject_id, question_id, fixation_count, mean_fixation_ms,
		       mean_saccade_amp_px, mean_saccade_angle_deg, mean_pupil_change_rate
		FROM trial_metrics
		WHERE model_version = ?
		ORDER BY subject_id ASC, question_id ASC
	`

	rows, err := db.QueryContext(ctx, query, modelVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to query trial metrics: %w", err)
	}
	defer rows.Close()

	var out []gaze.TrialMetrics
	for rows.Next() {
		var m gaze.TrialMetrics
		var dur, amp, angle, rate sql.NullFloat64
		err := rows.Scan(&m.Trial.Subject, &m.Trial.Question, &m.FixationCount,
			&dur, &amp, &angle, &rate)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trial metrics: %w", err)
		}
		m.MeanFixationMS = floatOrNaN(dur)
		m.MeanSaccadeAmpPX = floatOrNaN(amp)
		m.MeanSaccadeAngleDeg = floatOrNaN(angle)
		m.MeanPupilChangeRate = floatOrNaN(rate)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trial metrics: %w", err)
	}

	return out, nil
}

// SubjectMetricsAll returns stored per-subject metrics ordered by subject.
func (db *DB) SubjectMetricsAll(ctx context.Context, modelVersion string) ([]gaze.SubjectMetrics, error) {
	query := `
		SELECT subject_id, trial_count, fixation_count, mean_fixation_ms,
		       mean_saccade_amp_px, mean_saccade_angle_deg, mean_pupil_change_rate
		FROM subject_metrics
		WHERE model_version = ?
		ORDER BY subject_id ASC
	`

	rows, err := db.QueryContext(ctx, query, modelVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to query subject metrics: %w", err)
	}
	defer rows.Close()

	var out []gaze.SubjectMetrics
	for rows.Next() {
		var m gaze.SubjectMetrics
		var dur, amp, angle, rate sql.NullFloat64
		err := rows.Scan(&m.Subject, &m.TrialCount, &m.FixationCount,
			&dur, &amp, &angle, &rate)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subject metrics: %w", err)
		}
		m.MeanFixationMS = floatOrNaN(dur)
		m.MeanSaccadeAmpPX = floatOrNaN(amp)
		m.MeanSaccadeAngleDeg = floatOrNaN(angle)
		m.MeanPupilChangeRate = floatOrNaN(rate)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subject metrics: %w", err)
	}

	return out, nil
}

// Summary is the dataset-level rollup served by /api/summary.
type Summary struct {
	TrialCount    int64    `json:"trial_count"`
	SubjectCount  int64    `json:"subject_count"`
	SampleCount   int64    `json:"sample_count"`
	FixationCount int64    `json:"fixation_count"`
	SaccadeCount  int64    `json:"saccade_count"`
	DurationP50MS *float64 `json:"duration_p50_ms"`
	DurationP85MS *float64 `json:"duration_p85_ms"`
	DurationP95MS *float64 `json:"duration_p95_ms"`
	ModelVersion  string   `json:"model_version"`
}

// Summarize computes the dataset rollup for one model version.
func (db *DB) Summarize(ctx context.Context, modelVersion string) (*Summary, error) {
	s := &Summary{ModelVersion: modelVersion}

	err := db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT subject_id || '/' || question_id),
		       COUNT(DISTINCT subject_id),
		       COUNT(*)
		FROM gaze_samples
	`).Scan(&s.TrialCount, &s.SubjectCount, &s.SampleCount)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize samples: %w", err)
	}

	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM fixation_events WHERE model_version = ?`,
		modelVersion).Scan(&s.FixationCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count fixations: %w", err)
	}

	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM saccade_events WHERE model_version = ?`,
		modelVersion).Scan(&s.SaccadeCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count saccades: %w", err)
	}

	durations, err := db.FixationDurations(ctx, modelVersion)
	if err != nil {
		return nil, err
	}
	p50, p85, p95 := gaze.DurationPercentiles(durations)
	s.DurationP50MS = jsonFloat(p50)
	s.DurationP85MS = jsonFloat(p85)
	s.DurationP95MS = jsonFloat(p95)

	return s, nil
}
