package batch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gazelab/gaze.report/internal/config"
	"github.com/gazelab/gaze.report/internal/db"
	"github.com/gazelab/gaze.report/internal/gaze"
	"github.com/gazelab/gaze.report/internal/ingest"
	"github.com/gazelab/gaze.report/internal/monitoring"
	"github.com/gazelab/gaze.report/internal/plotter"
	"github.com/gazelab/gaze.report/internal/telemetry"
)

// TrialOutcome is the result of processing one trial file. Err is per-trial:
// a failed trial never aborts its siblings.
type TrialOutcome struct {
	Trial     gaze.TrialID
	Path      string
	Samples   int
	Warnings  int
	Fixations int64
	Saccades  int64
	Err       error
}

// Report summarizes one batch run.
type Report struct {
	RunID    string
	Outcomes []TrialOutcome
	Trials   int
	Failed   int
	Samples  int64
}

// Runner executes batch runs against one database.
type Runner struct {
	DB       *db.DB
	Analysis *config.AnalysisConfig
	Cfg      *Config
}

func NewRunner(database *db.DB, analysis *config.AnalysisConfig, cfg *Config) *Runner {
	return &Runner{
		DB:       database,
		Analysis: analysis,
		Cfg:      cfg,
	}
}

// Run processes every trial CSV under Cfg.SourceDir: normalize, persist
// samples, derive events, roll up metrics, then refresh subject metrics and
// export CSVs. Trials run concurrently under a worker cap; each failure is
// recorded in its outcome and logged, and the rest of the batch continues.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	files, err := ingest.ListTrialFiles(r.Cfg.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list trial files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no trial files under %s", r.Cfg.SourceDir)
	}

	runID, err := r.DB.NewAnalysisRun(ctx, r.Cfg.SourceDir, r.Cfg.ModelVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis run: %w", err)
	}
	logf := monitoring.Prefixed("batch " + runID[:8])
	logf("processing %d trial files from %s with %d workers", len(files), r.Cfg.SourceDir, r.Cfg.Workers)

	worker := db.NewEventWorker(r.DB,
		gaze.ConfigFromAnalysis(r.Analysis), gaze.BoundsFromAnalysis(r.Analysis), r.Cfg.ModelVersion)

	type result struct {
		index   int
		outcome TrialOutcome
	}

	resultChan := make(chan result, len(files))
	semaphore := make(chan struct{}, r.Cfg.Workers)

	var wg sync.WaitGroup
	for i, path := range files {
		wg.Add(1)
		go func(idx int, path string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			resultChan <- result{index: idx, outcome: r.processFile(ctx, worker, path)}
		}(i, path)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	outcomes := make([]TrialOutcome, len(files))
	for res := range resultChan {
		outcomes[res.index] = res.outcome
	}

	report := &Report{RunID: runID, Outcomes: outcomes, Trials: len(files)}
	subjects := make(map[string]bool)
	for _, out := range outcomes {
		if out.Err != nil {
			report.Failed++
			logf("trial %s: %v", filepath.Base(out.Path), out.Err)
			continue
		}
		report.Samples += int64(out.Samples)
		subjects[out.Trial.Subject] = true
	}

	for _, subject := range sortedKeys(subjects) {
		if err := worker.RefreshSubjectMetrics(ctx, subject); err != nil {
			logf("subject %s metrics: %v", subject, err)
		}
	}

	if r.Cfg.OutputDir != "" {
		if err := r.export(ctx, sortedKeys(subjects)); err != nil {
			return nil, fmt.Errorf("failed to export results: %w", err)
		}
	}
	if r.Cfg.PlotDir != "" {
		if err := r.renderPlots(ctx, outcomes); err != nil {
			return nil, fmt.Errorf("failed to render plots: %w", err)
		}
	}

	if err := r.DB.FinishAnalysisRun(ctx, runID,
		int64(report.Trials), int64(report.Failed), report.Samples); err != nil {
		return nil, fmt.Errorf("failed to finish analysis run: %w", err)
	}
	logf("done: %d trials, %d failed, %d samples", report.Trials, report.Failed, report.Samples)
	return report, nil
}

// processFile takes one trial CSV from file to derived events and trial
// metrics. Sample storage and event derivation share the event worker's code
// path, so a batch run and a background pass produce identical rows.
func (r *Runner) processFile(ctx context.Context, worker *db.EventWorker, path string) TrialOutcome {
	out := TrialOutcome{Path: path}
	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}
	start := time.Now()

	trial, err := ingest.TrialIDFromFilename(path)
	if err != nil {
		out.Err = err
		telemetry.RecordTrialFailed()
		return out
	}
	out.Trial = trial

	raw, err := ingest.ReadTrialFile(path)
	if err != nil {
		out.Err = err
		telemetry.RecordTrialFailed()
		return out
	}

	samples, warnings, err := gaze.Normalize(raw, trial)
	if err != nil {
		out.Err = err
		telemetry.RecordTrialFailed()
		return out
	}
	out.Samples = len(samples)
	out.Warnings = len(warnings)

	if err := r.DB.ReplaceTrialSamples(ctx, trial, samples); err != nil {
		out.Err = err
		telemetry.RecordTrialFailed()
		return out
	}

	if err := worker.RunTrial(ctx, trial); err != nil {
		out.Err = err
		telemetry.RecordTrialFailed()
		return out
	}

	out.Fixations, out.Saccades, err = r.DB.EventCounts(ctx, trial, r.Cfg.ModelVersion)
	if err != nil {
		out.Err = err
		telemetry.RecordTrialFailed()
		return out
	}

	telemetry.RecordTrialProcessed()
	telemetry.RecordSamplesIngested(out.Samples)
	telemetry.RecordCoercionWarnings(out.Warnings)
	telemetry.RecordEventsEmitted(int(out.Fixations), int(out.Saccades))
	telemetry.RecordTrialSeconds(time.Since(start).Seconds())
	return out
}

// export writes the pooled event and metric tables as CSV under OutputDir.
func (r *Runner) export(ctx context.Context, subjects []string) error {
	if err := os.MkdirAll(r.Cfg.OutputDir, 0o755); err != nil {
		return err
	}

	var fixations []gaze.FixationEvent
	var saccades []gaze.SaccadeEvent
	var pupils []gaze.PupilSample
	for _, subject := range subjects {
		fx, err := r.DB.FixationsForSubject(ctx, subject, r.Cfg.ModelVersion)
		if err != nil {
			return err
		}
		fixations = append(fixations, fx...)

		sc, err := r.DB.SaccadesForSubject(ctx, subject, r.Cfg.ModelVersion)
		if err != nil {
			return err
		}
		saccades = append(saccades, sc...)

		pp, err := r.DB.PupilsForSubject(ctx, subject, r.Cfg.ModelVersion)
		if err != nil {
			return err
		}
		pupils = append(pupils, pp...)
	}

	trialMetrics, err := r.DB.TrialMetricsAll(ctx, r.Cfg.ModelVersion)
	if err != nil {
		return err
	}
	subjectMetrics, err := r.DB.SubjectMetricsAll(ctx, r.Cfg.ModelVersion)
	if err != nil {
		return err
	}

	exports := []struct {
		name  string
		write func(io.Writer) error
	}{
		{"fixation_events.csv", func(w io.Writer) error { return ingest.WriteFixationsCSV(w, fixations) }},
		{"saccade_events.csv", func(w io.Writer) error { return ingest.WriteSaccadesCSV(w, saccades) }},
		{"pupil_samples.csv", func(w io.Writer) error { return ingest.WritePupilsCSV(w, pupils) }},
		{"trial_metrics.csv", func(w io.Writer) error { return ingest.WriteTrialMetricsCSV(w, trialMetrics) }},
		{"subject_metrics.csv", func(w io.Writer) error { return ingest.WriteSubjectMetricsCSV(w, subjectMetrics) }},
	}
	for _, ex := range exports {
		if err := ingest.ExportFile(filepath.Join(r.Cfg.OutputDir, ex.name), ex.write); err != nil {
			return err
		}
	}
	return nil
}

// renderPlots writes a gaze path and pupil trace PNG for every trial that
// processed cleanly.
func (r *Runner) renderPlots(ctx context.Context, outcomes []TrialOutcome) error {
	if err := os.MkdirAll(r.Cfg.PlotDir, 0o755); err != nil {
		return err
	}
	cfg := gaze.ConfigFromAnalysis(r.Analysis)

	for _, out := range outcomes {
		if out.Err != nil {
			continue
		}
		trial := out.Trial

		fixations, err := r.DB.FixationsForTrial(ctx, trial, r.Cfg.ModelVersion)
		if err != nil {
			return err
		}
		saccades, err := r.DB.SaccadesForTrial(ctx, trial, r.Cfg.ModelVersion)
		if err != nil {
			return err
		}
		pupils, err := r.DB.PupilsForTrial(ctx, trial, r.Cfg.ModelVersion)
		if err != nil {
			return err
		}

		stem := fmt.Sprintf("%s_%s", trial.Subject, trial.Question)
		if err := plotter.RenderGazePath(fixations, saccades, cfg,
			filepath.Join(r.Cfg.PlotDir, stem+"_gaze.png")); err != nil {
			return err
		}
		if err := plotter.RenderPupilTrace(pupils,
			filepath.Join(r.Cfg.PlotDir, stem+"_pupil.png")); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
