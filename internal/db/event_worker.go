package db

import (
	"context"
	"time"

	"github.com/gazelab/gaze.report/internal/gaze"
	"github.com/gazelab/gaze.report/internal/monitoring"
	"github.com/gazelab/gaze.report/internal/timeutil"
)

// EventWorker periodically rescans stored trials and rebuilds events and
// metrics for any trial whose sample set changed since the last pass. A
// trial is stale when its gaze_samples count differs from the count recorded
// in event_state for this model version, so re-ingests are picked up even
// within the same second.
type EventWorker struct {
	DB           *DB
	Config       gaze.Config
	Bounds       gaze.ValidityBounds
	ModelVersion string
	Interval     time.Duration  // how often to scan (e.g., 1m)
	Clock        timeutil.Clock // swapped for a mock in tests
	StopChan     chan struct{}
}

func NewEventWorker(db *DB, cfg gaze.Config, bounds gaze.ValidityBounds, modelVersion string) *EventWorker {
	return &EventWorker{
		DB:           db,
		Config:       cfg,
		Bounds:       bounds,
		ModelVersion: modelVersion,
		Interval:     time.Minute,
		Clock:        timeutil.RealClock{},
		StopChan:     make(chan struct{}),
	}
}

// Start runs the periodic worker loop in a goroutine.
func (w *EventWorker) Start() {
	go func() {
		ticker := w.Clock.NewTicker(w.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C():
				if err := w.RunOnce(context.Background()); err != nil {
					monitoring.Logf("event worker run error: %v", err)
				}
			case <-w.StopChan:
				return
			}
		}
	}()
}

// Stop requests the worker to stop.
func (w *EventWorker) Stop() {
	close(w.StopChan)
}

// TrialsNeedingEvents returns trials whose stored events are missing or were
// derived from a different number of samples than are stored now.
func (w *EventWorker) TrialsNeedingEvents(ctx context.Context) ([]gaze.TrialID, error) {
	query := `
		SELECT s.subject_id, s.question_id
		FROM (
			SELECT subject_id, question_id, COUNT(*) AS n
			FROM gaze_samples
			GROUP BY subject_id, question_id
		) s
		LEFT JOIN event_state e
			ON e.subject_id = s.subject_id
			AND e.question_id = s.question_id
			AND e.model_version = ?
		WHERE e.sample_count IS NULL OR e.sample_count != s.n
		ORDER BY s.subject_id ASC, s.question_id ASC
	`

	rows, err := w.DB.QueryContext(ctx, query, w.ModelVersion)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trials []gaze.TrialID
	for rows.Next() {
		var t gaze.TrialID
		if err := rows.Scan(&t.Subject, &t.Question); err != nil {
			return nil, err
		}
		trials = append(trials, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return trials, nil
}

// RunOnce rebuilds every stale trial, then refreshes pooled metrics for the
// subjects that changed. A trial that fails is logged and skipped; the rest
// of the pass continues.
func (w *EventWorker) RunOnce(ctx context.Context) error {
	trials, err := w.TrialsNeedingEvents(ctx)
	if err != nil {
		return err
	}

	subjects := make(map[string]struct{})
	for _, trial := range trials {
		if err := w.RunTrial(ctx, trial); err != nil {
			monitoring.Logf("event worker: trial %s: %v", trial, err)
			continue
		}
		subjects[trial.Subject] = struct{}{}
	}

	for subject := range subjects {
		if err := w.RefreshSubjectMetrics(ctx, subject); err != nil {
			monitoring.Logf("event worker: subject %s metrics: %v", subject, err)
		}
	}

	return nil
}

// RunTrial recomputes one trial end to end: segmentation, events, pupil rows
// and the trial's metrics row.
func (w *EventWorker) RunTrial(ctx context.Context, trial gaze.TrialID) error {
	samples, err := w.DB.SamplesForTrial(ctx, trial)
	if err != nil {
		return err
	}

	ev, err := gaze.ProcessTrial(samples, w.Config)
	if err != nil {
		return err
	}

	if err := w.DB.ReplaceTrialEvents(ctx, trial, ev, w.ModelVersion, int64(len(samples))); err != nil {
		return err
	}

	metrics := gaze.ComputeTrialMetrics(ev.Fixations, ev.Saccades, ev.Pupils, w.Bounds)
	return w.DB.UpsertTrialMetrics(ctx, metrics, w.ModelVersion)
}

// RefreshSubjectMetrics recomputes one subject's pooled metrics from the
// events currently stored for them.
func (w *EventWorker) RefreshSubjectMetrics(ctx context.Context, subject string) error {
	fixations, err := w.DB.FixationsForSubject(ctx, subject, w.ModelVersion)
	if err != nil {
		return err
	}
	saccades, err := w.DB.SaccadesForSubject(ctx, subject, w.ModelVersion)
	if err != nil {
		return err
	}
	pupils, err := w.DB.PupilsForSubject(ctx, subject, w.ModelVersion)
	if err != nil {
		return err
	}

	metrics := gaze.ComputeSubjectMetrics(fixations, saccades, pupils, w.Bounds)
	return w.DB.UpsertSubjectMetrics(ctx, metrics, w.ModelVersion)
}
