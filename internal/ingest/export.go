package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/gazelab/gaze.report/internal/gaze"
)

// Exported column orders. NA values render as empty cells so the files load
// cleanly into R and pandas.
var (
	fixationHeader = []string{"subject", "question", "run", "start_ms", "end_ms", "duration_ms", "x_px", "y_px", "pupil_px"}
	saccadeHeader  = []string{"subject", "question", "run", "start_ms", "end_ms", "duration_ms", "start_x_px", "start_y_px", "end_x_px", "end_y_px", "amplitude_px", "angle_deg"}
	pupilHeader    = []string{"subject", "question", "timestamp_ms", "current_px", "baseline_px", "change_rate"}
	trialHeader    = []string{"subject", "question", "fixation_count", "mean_fixation_ms", "mean_saccade_amplitude_px", "mean_saccade_angle_deg", "mean_pupil_change_rate"}
	subjectHeader  = []string{"subject", "trial_count", "fixation_count", "mean_fixation_ms", "mean_saccade_amplitude_px", "mean_saccade_angle_deg", "mean_pupil_change_rate"}
)

func csvFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return fmt.Sprintf("%.6f", v)
}

// WriteFixationsCSV writes the fixation event table.
func WriteFixationsCSV(w io.Writer, events []gaze.FixationEvent) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(fixationHeader); err != nil {
		return err
	}
	for _, e := range events {
		row := []string{
			e.Trial.Subject, e.Trial.Question, strconv.FormatInt(e.Run, 10),
			csvFloat(e.StartMS), csvFloat(e.EndMS), csvFloat(e.DurationMS),
			csvFloat(e.XPX), csvFloat(e.YPX), csvFloat(e.PupilPX),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSaccadesCSV writes the saccade event table.
func WriteSaccadesCSV(w io.Writer, events []gaze.SaccadeEvent) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(saccadeHeader); err != nil {
		return err
	}
	for _, e := range events {
		row := []string{
			e.Trial.Subject, e.Trial.Question, strconv.FormatInt(e.Run, 10),
			csvFloat(e.StartMS), csvFloat(e.EndMS), csvFloat(e.DurationMS),
			csvFloat(e.StartXPX), csvFloat(e.StartYPX), csvFloat(e.EndXPX), csvFloat(e.EndYPX),
			csvFloat(e.AmplitudePX), csvFloat(e.AngleDeg),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePupilsCSV writes the per-sample pupil table.
func WritePupilsCSV(w io.Writer, pupils []gaze.PupilSample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(pupilHeader); err != nil {
		return err
	}
	for _, p := range pupils {
		row := []string{
			p.Trial.Subject, p.Trial.Question,
			csvFloat(p.TimestampMS), csvFloat(p.CurrentPX), csvFloat(p.BaselinePX), csvFloat(p.ChangeRate),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTrialMetricsCSV writes the per-trial metric table.
func WriteTrialMetricsCSV(w io.Writer, metrics []gaze.TrialMetrics) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(trialHeader); err != nil {
		return err
	}
	for _, m := range metrics {
		row := []string{
			m.Trial.Subject, m.Trial.Question, strconv.Itoa(m.FixationCount),
			csvFloat(m.MeanFixationMS), csvFloat(m.MeanSaccadeAmpPX),
			csvFloat(m.MeanSaccadeAngleDeg), csvFloat(m.MeanPupilChangeRate),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSubjectMetricsCSV writes the per-subject metric table.
func WriteSubjectMetricsCSV(w io.Writer, metrics []gaze.SubjectMetrics) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(subjectHeader); err != nil {
		return err
	}
	for _, m := range metrics {
		row := []string{
			m.Subject, strconv.Itoa(m.TrialCount), strconv.Itoa(m.FixationCount),
			csvFloat(m.MeanFixationMS), csvFloat(m.MeanSaccadeAmpPX),
			csvFloat(m.MeanSaccadeAngleDeg), csvFloat(m.MeanPupilChangeRate),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFile writes one table through fn with create/truncate semantics.
func ExportFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("write export %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close export %s: %w", path, err)
	}
	return nil
}
