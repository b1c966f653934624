// Package db persists samples, derived events and metrics in SQLite and
// hosts the background worker that keeps events current as samples arrive.
package db

import (
	"database/sql"
	"fmt"
	"math"

	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
}

// NewDB opens (creating if necessary) the analysis database and applies the
// baseline schema. Versioned schema changes beyond the baseline go through
// the migrations in db/migrations.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS gaze_samples (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			subject_id         TEXT NOT NULL,
			question_id        TEXT NOT NULL,
			timestamp_ms       DOUBLE,
			gaze_x             DOUBLE,
			gaze_y             DOUBLE,
			fixation_run_id    BIGINT NOT NULL DEFAULT 0,
			left_pupil_px      DOUBLE,
			right_pupil_px     DOUBLE,
			fix_duration_s     DOUBLE,
			created_at         TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_gaze_samples_trial
			ON gaze_samples(subject_id, question_id, timestamp_ms);

		CREATE TABLE IF NOT EXISTS fixation_events (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			subject_id         TEXT NOT NULL,
			question_id        TEXT NOT NULL,
			run_id             BIGINT NOT NULL,
			start_ms           DOUBLE NOT NULL,
			end_ms             DOUBLE NOT NULL,
			duration_ms        DOUBLE NOT NULL,
			x_px               DOUBLE NOT NULL,
			y_px               DOUBLE NOT NULL,
			pupil_px           DOUBLE NOT NULL,
			model_version      TEXT NOT NULL,
			created_at         TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(subject_id, question_id, run_id, model_version)
		);

		CREATE TABLE IF NOT EXISTS saccade_events (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			subject_id         TEXT NOT NULL,
			question_id        TEXT NOT NULL,
			run_id             BIGINT NOT NULL,
			start_ms           DOUBLE NOT NULL,
			end_ms             DOUBLE NOT NULL,
			duration_ms        DOUBLE NOT NULL,
			start_x_px         DOUBLE NOT NULL,
			start_y_px         DOUBLE NOT NULL,
			end_x_px           DOUBLE NOT NULL,
			end_y_px           DOUBLE NOT NULL,
			amplitude_px       DOUBLE NOT NULL,
			angle_deg          DOUBLE NOT NULL,
			model_version      TEXT NOT NULL,
			created_at         TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(subject_id, question_id, run_id, model_version)
		);

		CREATE TABLE IF NOT EXISTS pupil_samples (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			subject_id         TEXT NOT NULL,
			question_id        TEXT NOT NULL,
			timestamp_ms       DOUBLE,
			current_px         DOUBLE,
			baseline_px        DOUBLE,
			change_rate        DOUBLE,
			model_version      TEXT NOT NULL,
			created_at         TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_pupil_samples_trial
			ON pupil_samples(subject_id, question_id, model_version);

		CREATE TABLE IF NOT EXISTS event_state (
			subject_id         TEXT NOT NULL,
			question_id        TEXT NOT NULL,
			model_version      TEXT NOT NULL,
			sample_count       BIGINT NOT NULL,
			computed_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(subject_id, question_id, model_version)
		);

		CREATE TABLE IF NOT EXISTS trial_metrics (
			subject_id              TEXT NOT NULL,
			question_id             TEXT NOT NULL,
			fixation_count          BIGINT NOT NULL,
			mean_fixation_ms        DOUBLE,
			mean_saccade_amp_px     DOUBLE,
			mean_saccade_angle_deg  DOUBLE,
			mean_pupil_change_rate  DOUBLE,
			model_version           TEXT NOT NULL,
			created_at              TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(subject_id, question_id, model_version)
		);

		CREATE TABLE IF NOT EXISTS subject_metrics (
			subject_id              TEXT NOT NULL,
			trial_count             BIGINT NOT NULL,
			fixation_count          BIGINT NOT NULL,
			mean_fixation_ms        DOUBLE,
			mean_saccade_amp_px     DOUBLE,
			mean_saccade_angle_deg  DOUBLE,
			mean_pupil_change_rate  DOUBLE,
			model_version           TEXT NOT NULL,
			created_at              TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(subject_id, model_version)
		);

		CREATE TABLE IF NOT EXISTS analysis_runs (
			run_id             TEXT PRIMARY KEY,
			source             TEXT NOT NULL,
			model_version      TEXT NOT NULL,
			trial_count        BIGINT NOT NULL DEFAULT 0,
			failed_count       BIGINT NOT NULL DEFAULT 0,
			sample_count       BIGINT NOT NULL DEFAULT 0,
			started_at         TIMESTAMP,
			finished_at        TIMESTAMP,
			created_at         TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// nullFloat maps the engine's NaN-as-NA onto SQL NULL.
func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// floatOrNaN maps SQL NULL back onto NaN.
func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

// jsonFloat maps NaN onto nil so encoding/json emits null instead of choking.
func jsonFloat(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

