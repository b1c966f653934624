package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gazelab/gaze.report/internal/gaze"
)

// ReplaceTrialEvents swaps in freshly derived events for one trial under the
// given model version, replacing whatever an earlier pass produced. The
// event_state row records how many samples the events were derived from so
// the worker can tell when a trial has gone stale.
func (db *DB) ReplaceTrialEvents(ctx context.Context, trial gaze.TrialID, ev *gaze.TrialEvents, modelVersion string, sampleCount int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"fixation_events", "saccade_events", "pupil_samples"} {
		q := fmt.Sprintf(`DELETE FROM %s WHERE subject_id = ? AND question_id = ? AND model_version = ?`, table)
		if _, err := tx.ExecContext(ctx, q, trial.Subject, trial.Question, modelVersion); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	fixStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fixation_events (
			subject_id, question_id, run_id, start_ms, end_ms, duration_ms,
			x_px, y_px, pupil_px, model_version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer fixStmt.Close()

	for _, f := range ev.Fixations {
		_, err := fixStmt.ExecContext(ctx,
			trial.Subject, trial.Question, f.Run,
			f.StartMS, f.EndMS, f.DurationMS, f.XPX, f.YPX, f.PupilPX,
			modelVersion)
		if err != nil {
			return fmt.Errorf("failed to insert fixation: %w", err)
		}
	}

	sacStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO saccade_events (
			subject_id, question_id, run_id, start_ms, end_ms, duration_ms,
			start_x_px, start_y_px, end_x_px, end_y_px, amplitude_px, angle_deg,
			model_version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer sacStmt.Close()

	for _, s := range ev.Saccades {
		_, err := sacStmt.ExecContext(ctx,
			trial.Subject, trial.Question, s.Run,
			s.StartMS, s.EndMS, s.DurationMS,
			s.StartXPX, s.StartYPX, s.EndXPX, s.EndYPX,
			s.AmplitudePX, s.AngleDeg,
			modelVersion)
		if err != nil {
			return fmt.Errorf("failed to insert saccade: %w", err)
		}
	}

	pupStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO pupil_samples (
			subject_id, question_id, timestamp_ms, current_px, baseline_px,
			change_rate, model_version
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer pupStmt.Close()

	for _, p := range ev.Pupils {
		_, err := pupStmt.ExecContext(ctx,
			trial.Subject, trial.Question,
			nullFloat(p.TimestampMS),
			nullFloat(p.CurrentPX),
			nullFloat(p.BaselinePX),
			nullFloat(p.ChangeRate),
			modelVersion)
		if err != nil {
			return fmt.Errorf("failed to insert pupil sample: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO event_state (subject_id, question_id, model_version, sample_count, computed_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(subject_id, question_id, model_version)
		DO UPDATE SET sample_count = excluded.sample_count, computed_at = CURRENT_TIMESTAMP
	`, trial.Subject, trial.Question, modelVersion, sampleCount)
	if err != nil {
		return fmt.Errorf("failed to upsert event state: %w", err)
	}

	return tx.Commit()
}

// FixationsForTrial returns a trial's fixations ordered by start time.
func (db *DB) FixationsForTrial(ctx context.Context, trial gaze.TrialID, modelVersion string) ([]gaze.FixationEvent, error) {
	query := `
		SELECT run_id, start_ms, end_ms, duration_ms, x_px, y_px, pupil_px
		FROM fixation_events
		WHERE subject_id = ? AND question_id = ? AND model_version = ?
		ORDER BY start_ms ASC
	`

	rows, err := db.QueryContext(ctx, query, trial.Subject, trial.Question, modelVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to query fixations: %w", err)
	}
	defer rows.Close()

	var out []gaze.FixationEvent
	for rows.Next() {
		f := gaze.FixationEvent{Trial: trial}
		err := rows.Scan(&f.Run, &f.StartMS, &f.EndMS, &f.DurationMS, &f.XPX, &f.YPX, &f.PupilPX)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fixation: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fixations: %w", err)
	}

	return out, nil
}

// SaccadesForTrial returns a trial's saccades ordered by start time.
func (db *DB) SaccadesForTrial(ctx context.Context, trial gaze.TrialID, modelVersion string) ([]gaze.SaccadeEvent, error) {
	query := `
		SELECT run_id, start_ms, end_ms, duration_ms,
		       start_x_px, start_y_px, end_x_px, end_y_px, amplitude_px, angle_deg
		FROM saccade_events
		WHERE subject_id = ? AND question_id = ? AND model_version = ?
		ORDER BY start_ms ASC
	`

	rows, err := db.QueryContext(ctx, query, trial.Subject, trial.Question, modelVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to query saccades: %w", err)
	}
	defer rows.Close()

	var out []gaze.SaccadeEvent
	for rows.Next() {
		s := gaze.SaccadeEvent{Trial: trial}
		err := rows.Scan(&s.Run, &s.StartMS, &s.EndMS, &s.DurationMS,
			&s.StartXPX, &s.StartYPX, &s.EndXPX, &s.EndYPX, &s.AmplitudePX, &s.AngleDeg)
		if err != nil {
			return nil, fmt.Errorf("failed to scan saccade: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating saccades: %w", err)
	}

	return out, nil
}

// PupilsForTrial returns a trial's baseline-normalized pupil rows ordered by
// timestamp. NULL columns come back as NaN.
func (db *DB) PupilsForTrial(ctx context.Context, trial gaze.TrialID, modelVersion string) ([]gaze.PupilSample, error) {
	query := `
		SELECT timestamp_ms, current_px, baseline_px, change_rate
		FROM pupil_samples
		WHERE subject_id = ? AND question_id = ? AND model_version = ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := db.QueryContext(ctx, query, trial.Subject, trial.Question, modelVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to query pupil samples: %w", err)
	}
	defer rows.Close()

	var out []gaze.PupilSample
	for rows.Next() {
		p := gaze.PupilSample{Trial: trial}
		var ts, cur, base, rate sql.NullFloat64
		if err := rows.Scan(&ts, &cur, &base, &rate); err != nil {
			return nil, fmt.Errorf("failed to scan pupil sample: %w", err)
		}
		p.TimestampMS = floatOrNaN(ts)
		p.CurrentPX = floatOrNaN(cur)
		p.BaselinePX = floatOrNaN(base)
		p.ChangeRate = floatOrNaN(rate)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pupil samples: %w", err)
	}

	return out, nil
}

// FixationsForSubject returns every fixation stored for one subject across
// all of their trials.
func (db *DB) FixationsForSubject(ctx context.Context, subject, modelVersion string) ([]gaze.FixationEvent, error) {
	query := `
		SELECT question_id, run_id, start_ms, end_ms, duration_ms, x_px, y_px, pupil_px
		FROM fixation_events
		WHERE subject_id = ? AND model_version = ?
		ORDER BY question_id ASC, start_ms ASC
	`

	rows, err := db.QueryContext(ctx, query, subject, modelVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to query subject fixations: %w", err)
	}
	defer rows.Close()

	var out []gaze.FixationEvent
	for rows.Next() {
		f := gaze.FixationEvent{Trial: gaze.TrialID{Subject: subject}}
		err := rows.Scan(&f.Trial.Question, &f.Run, &f.StartMS, &f.EndMS,
			&f.DurationMS, &f.XPX, &f.YPX, &f.PupilPX)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fixation: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subject fixations: %w", err)
	}

	return out, nil
}

// SaccadesForSubject returns every saccade stored for one subject.
func (db *DB) SaccadesForSubject(ctx context.Context, subject, modelVersion string) ([]gaze.SaccadeEvent, error) {
	query := `
		SELECT question_id, run_id, start_ms, end_ms, duration_ms,
		       start_x_px, start_y_px, end_x_px, end_y_px, amplitude_px, angle_deg
		FROM saccade_events
		WHERE subject_id = ? AND model_version = ?
		ORDER BY question_id ASC, start_ms ASC
	`

	rows, err := db.QueryContext(ctx, query, subject, modelVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to query subject saccades: %w", err)
	}
	defer rows.Close()

	var out []gaze.SaccadeEvent
	for rows.Next() {
		s := gaze.SaccadeEvent{Trial: gaze.TrialID{Subject: subject}}
		err := rows.Scan(&s.Trial.Question, &s.Run, &s.StartMS, &s.EndMS, &s.DurationMS,
			&s.StartXPX, &s.StartYPX, &s.EndXPX, &s.EndYPX, &s.AmplitudePX, &s.AngleDeg)
		if err != nil {
			return nil, fmt.Errorf("failed to scan saccade: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subject saccades: %w", err)
	}

	return out, nil
}

// PupilsForSubject returns every stored pupil row for one subject.
func (db *DB) PupilsForSubject(ctx context.Context, subject, modelVersion string) ([]gaze.PupilSample, error) {
	query := `
		SELECT question_id, timestamp_ms, current_px, baseline_px, change_rate
		FROM pupil_samples
		WHERE subject_id = ? AND model_version = ?
		ORDER BY question_id ASC, timestamp_ms ASC
	`

	rows, err := db.QueryContext(ctx, query, subject, modelVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to query subject pupil samples: %w", err)
	}
	defer rows.Close()

	var out []gaze.PupilSample
	for rows.Next() {
		p := gaze.PupilSample{Trial: gaze.TrialID{Subject: subject}}
		var ts, cur, base, rate sql.NullFloat64
		if err := rows.Scan(&p.Trial.Question, &ts, &cur, &base, &rate); err != nil {
			return nil, fmt.Errorf("failed to scan pupil sample: %w", err)
		}
		p.TimestampMS = floatOrNaN(ts)
		p.CurrentPX = floatOrNaN(cur)
		p.BaselinePX = floatOrNaN(base)
		p.ChangeRate = floatOrNaN(rate)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subject pupil samples: %w", err)
	}

	return out, nil
}

// FixationDurations returns every stored fixation duration under the given
// model version, for distribution charts.
func (db *DB) FixationDurations(ctx context.Context, modelVersion string) ([]float64, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT duration_ms FROM fixation_events WHERE model_version = ? ORDER BY duration_ms ASC`,
		modelVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to query durations: %w", err)
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var d float64
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan duration: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating durations: %w", err)
	}

	return out, nil
}

// EventCounts returns how many fixations and saccades are stored for a trial.
func (db *DB) EventCounts(ctx context.Context, trial gaze.TrialID, modelVersion string) (fixations, saccades int64, err error) {
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM fixation_events WHERE subject_id = ? AND question_id = ? AND model_version = ?`,
		trial.Subject, trial.Question, modelVersion).Scan(&fixations)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count fixations: %w", err)
	}
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM saccade_events WHERE subject_id = ? AND question_id = ? AND model_version = ?`,
		trial.Subject, trial.Question, modelVersion).Scan(&saccades)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count saccades: %w", err)
	}
	return fixations, saccades, nil
}
