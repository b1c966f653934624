package gaze

import (
	"errors"
	"math"
	"testing"
)

func TestNormalizeColumn(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"timestamp_ms", "timestamp_ms"},
		{"left/pupil radius px", "left_pupil_radius_px"},
		{"right pupil radius px", "right_pupil_radius_px"},
		{"gaze/x", "gaze_x"},
		{"fixation run id", "fixation_run_id"},
	}
	for _, tt := range tests {
		if got := NormalizeColumn(tt.in); got != tt.want {
			t.Errorf("NormalizeColumn(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func rawHeader() []string {
	return []string{
		"timestamp_ms", "gaze_x", "gaze_y", "fixation_run_id",
		"left_pupil_radius_px", "right_pupil_radius_px", "fixation_duration_s",
	}
}

func TestNormalize_BasicRow(t *testing.T) {
	raw := RawTable{
		Columns: rawHeader(),
		Rows: [][]string{
			{"0", "0.1", "0.2", "1", "3.1", "3.2", "0.25"},
		},
	}
	samples, warns, err := Normalize(raw, trialT1)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if len(warns) != 0 {
		t.Fatalf("Normalize() warnings = %v, want none", warns)
	}
	if len(samples) != 1 {
		t.Fatalf("Normalize() returned %d samples, want 1", len(samples))
	}
	s := samples[0]
	if s.Trial != trialT1 {
		t.Errorf("Trial = %v, want %v", s.Trial, trialT1)
	}
	if s.TimestampMS != 0 || s.GazeX != 0.1 || s.GazeY != 0.2 {
		t.Errorf("unexpected sample values: %+v", s)
	}
	if s.FixationRun != 1 {
		t.Errorf("FixationRun = %d, want 1", s.FixationRun)
	}
	if s.PupilLeftPX != 3.1 || s.PupilRightPX != 3.2 {
		t.Errorf("pupils = %v/%v, want 3.1/3.2", s.PupilLeftPX, s.PupilRightPX)
	}
	if s.FixDurationS != 0.25 {
		t.Errorf("FixDurationS = %v, want 0.25", s.FixDurationS)
	}
}

func TestNormalize_RenamesRawHeaders(t *testing.T) {
	raw := RawTable{
		Columns: []string{
			"timestamp ms", "gaze/x", "gaze/y", "fixation run id",
			"left/pupil radius px", "right/pupil radius px",
		},
		Rows: [][]string{{"5", "0.3", "0.4", "2", "2.9", "3.0"}},
	}
	samples, _, err := Normalize(raw, trialT1)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if samples[0].FixationRun != 2 || samples[0].GazeX != 0.3 {
		t.Errorf("renamed columns were not bound: %+v", samples[0])
	}
}

func TestNormalize_MissingColumn(t *testing.T) {
	raw := RawTable{
		Columns: []string{"timestamp_ms", "gaze_x", "gaze_y", "fixation_run_id", "left_pupil_radius_px"},
		Rows:    [][]string{{"0", "0.1", "0.1", "1", "3.0"}},
	}
	samples, warns, err := Normalize(raw, trialT1)
	if err == nil {
		t.Fatal("Normalize() expected error for missing column")
	}
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("error = %T, want *SchemaError", err)
	}
	if schemaErr.Column != ColPupilRightPX {
		t.Errorf("SchemaError.Column = %q, want %q", schemaErr.Column, ColPupilRightPX)
	}
	if samples != nil || warns != nil {
		t.Error("schema error must not produce partial output")
	}
}

func TestNormalize_CoercionWarnings(t *testing.T) {
	raw := RawTable{
		Columns: rawHeader(),
		Rows: [][]string{
			{"0", "oops", "0.2", "1", "3.0", "3.0", "0.2"},
			{"10", "0.1", "0.2", "not-a-run", "3.0", "3.0", "0.2"},
		},
	}
	samples, warns, err := Normalize(raw, trialT1)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if len(warns) != 2 {
		t.Fatalf("warnings = %d, want 2: %v", len(warns), warns)
	}
	if warns[0].Column != ColGazeX || warns[0].Row != 0 {
		t.Errorf("first warning = %+v, want gaze_x row 0", warns[0])
	}
	if !math.IsNaN(samples[0].GazeX) {
		t.Error("unparseable gaze_x should coerce to NaN")
	}
	if samples[1].FixationRun != 0 {
		t.Errorf("unparseable run id should coerce to 0, got %d", samples[1].FixationRun)
	}
}

func TestNormalize_NATokensAreSilent(t *testing.T) {
	raw := RawTable{
		Columns: rawHeader(),
		Rows: [][]string{
			{"0", "", "NA", "NaN", "null", "3.0", ""},
		},
	}
	samples, warns, err := Normalize(raw, trialT1)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if len(warns) != 0 {
		t.Fatalf("native NA tokens must not warn, got %v", warns)
	}
	s := samples[0]
	if !math.IsNaN(s.GazeX) || !math.IsNaN(s.GazeY) || !math.IsNaN(s.PupilLeftPX) {
		t.Errorf("NA tokens should coerce silently to NaN: %+v", s)
	}
	if s.FixationRun != 0 {
		t.Errorf("NA run id = %d, want 0", s.FixationRun)
	}
}

func TestNormalize_SentinelRecode(t *testing.T) {
	raw := RawTable{
		Columns: rawHeader(),
		Rows: [][]string{
			// -1 means "lost the eye" for gaze and duration, but a -1 pupil
			// radius is just a (bad) measurement and passes through.
			{"0", "-1", "-1", "1", "-1", "3.0", "-1"},
		},
	}
	samples, warns, err := Normalize(raw, trialT1)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if len(warns) != 0 {
		t.Fatalf("sentinel recode must not warn, got %v", warns)
	}
	s := samples[0]
	if !math.IsNaN(s.GazeX) || !math.IsNaN(s.GazeY) || !math.IsNaN(s.FixDurationS) {
		t.Errorf("-1 sentinels should recode to NaN: %+v", s)
	}
	if s.PupilLeftPX != -1 {
		t.Errorf("pupil radius -1 should not recode, got %v", s.PupilLeftPX)
	}
}

func TestNormalize_SortsByTimestamp(t *testing.T) {
	raw := RawTable{
		Columns: rawHeader(),
		Rows: [][]string{
			{"20", "0.1", "0.1", "1", "3.0", "3.0", ""},
			{"0", "0.1", "0.1", "1", "3.0", "3.0", ""},
			{"", "0.1", "0.1", "0", "3.0", "3.0", ""}, // NA timestamp sorts last
			{"10", "0.1", "0.1", "1", "3.0", "3.0", ""},
		},
	}
	samples, _, err := Normalize(raw, trialT1)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	want := []float64{0, 10, 20}
	for i, w := range want {
		if samples[i].TimestampMS != w {
			t.Errorf("samples[%d].TimestampMS = %v, want %v", i, samples[i].TimestampMS, w)
		}
	}
	if !math.IsNaN(samples[3].TimestampMS) {
		t.Errorf("NA timestamp should sort last, got %v", samples[3].TimestampMS)
	}
}

func TestNormalize_NegativeRunIDWarns(t *testing.T) {
	raw := RawTable{
		Columns: rawHeader(),
		Rows:    [][]string{{"0", "0.1", "0.1", "-3", "3.0", "3.0", ""}},
	}
	samples, warns, err := Normalize(raw, trialT1)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if len(warns) != 1 || warns[0].Column != ColFixationRunID {
		t.Fatalf("negative run id should warn, got %v", warns)
	}
	if samples[0].FixationRun != 0 {
		t.Errorf("FixationRun = %d, want 0", samples[0].FixationRun)
	}
}
