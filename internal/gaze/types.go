// Package gaze derives eye-movement events from eye-tracker sample tables.
//
// The pipeline is pure batch: a trial's samples go in, fixation events,
// saccade events, baseline-normalized pupil rates, and summary metrics come
// out. Missing data degrades cells to NA, NA cells drop event rows, and empty
// metric inputs yield NA means; nothing in this package touches the clock,
// the filesystem, or the network.
//
// NA convention: float64 fields use NaN, run identifiers use zero. The
// storage layer maps these to SQL NULL at its boundary.
package gaze

import "fmt"

// TrialID identifies one subject answering one question. Every trial is
// processed independently of its siblings.
type TrialID struct {
	Subject  string `json:"subject"`
	Question string `json:"question"`
}

func (t TrialID) String() string {
	return fmt.Sprintf("%s/%s", t.Subject, t.Question)
}

// Sample is one normalized eye-tracker measurement.
//
// GazeX/GazeY are in normalized display coordinates ([0,1] when on screen).
// FixationRun is the tracker-assigned fixation id: positive while the eye is
// fixating, zero while it is in transit. SaccadeRun is assigned by
// SegmentRuns and is never read from input data.
type Sample struct {
	Trial        TrialID
	TimestampMS  float64
	GazeX        float64
	GazeY        float64
	FixationRun  int64
	SaccadeRun   int64
	PupilLeftPX  float64
	PupilRightPX float64

	// FixDurationS is the tracker's own fixation-duration estimate in
	// seconds. It is cleaned alongside the gaze fields and retained for
	// export, but event durations are always derived from timestamps.
	FixDurationS float64
}

// FixationEvent is one fixation run collapsed to a single row. Positions are
// in screen pixels. EndMS is the timestamp of the first sample after the run,
// so DurationMS covers the run up to the moment the eye moved on.
type FixationEvent struct {
	Trial      TrialID `json:"trial"`
	Run        int64   `json:"run"`
	StartMS    float64 `json:"start_ms"`
	EndMS      float64 `json:"end_ms"`
	DurationMS float64 `json:"duration_ms"`
	XPX        float64 `json:"x_px"`
	YPX        float64 `json:"y_px"`
	PupilPX    float64 `json:"pupil_px"`
}

// SaccadeEvent is one transit gap between two fixation runs. Start position
// comes from the last sample before the gap, end position from the first
// sample after it.
type SaccadeEvent struct {
	Trial       TrialID `json:"trial"`
	Run         int64   `json:"run"`
	StartMS     float64 `json:"start_ms"`
	EndMS       float64 `json:"end_ms"`
	DurationMS  float64 `json:"duration_ms"`
	StartXPX    float64 `json:"start_x_px"`
	StartYPX    float64 `json:"start_y_px"`
	EndXPX      float64 `json:"end_x_px"`
	EndYPX      float64 `json:"end_y_px"`
	AmplitudePX float64 `json:"amplitude_px"`
	AngleDeg    float64 `json:"angle_deg"`
}

// PupilSample is one input sample's baseline-normalized pupil state. Unlike
// the event tables, every input sample produces a row; any field may be NaN.
type PupilSample struct {
	Trial       TrialID
	TimestampMS float64
	CurrentPX   float64
	BaselinePX  float64
	ChangeRate  float64
}

// Config carries the display geometry and derivation parameters for a run.
// It is read-only once constructed and safe to share across workers.
type Config struct {
	// ScreenWidthPX and ScreenHeightPX scale normalized gaze coordinates to
	// pixels. Both must be positive; there is no usable default.
	ScreenWidthPX  float64
	ScreenHeightPX float64

	// BaselineWindowMS bounds the pupil baseline window measured from each
	// trial's first sample. Zero or negative falls back to
	// DefaultBaselineWindowMS.
	BaselineWindowMS float64
}

// DefaultBaselineWindowMS is the pupil baseline window used when the config
// does not set one.
const DefaultBaselineWindowMS = 500

func (c Config) validateScreen() error {
	if !(c.ScreenWidthPX > 0) {
		return &ValidationError{Field: "screen_width_px", Reason: fmt.Sprintf("must be positive, got %v", c.ScreenWidthPX)}
	}
	if !(c.ScreenHeightPX > 0) {
		return &ValidationError{Field: "screen_height_px", Reason: fmt.Sprintf("must be positive, got %v", c.ScreenHeightPX)}
	}
	return nil
}

func (c Config) baselineWindowMS() float64 {
	if c.BaselineWindowMS > 0 {
		return c.BaselineWindowMS
	}
	return DefaultBaselineWindowMS
}

// TrialEvents is the complete derivation output for one trial.
type TrialEvents struct {
	Fixations []FixationEvent
	Saccades  []SaccadeEvent
	Pupils    []PupilSample
}
