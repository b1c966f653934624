package db

import (
	"github.com/gazelab/gaze.report/internal/gaze"
)

// The *API types mirror rows whose floats can hold NaN. encoding/json
// refuses to marshal NaN, so the mirrors carry *float64 and encode a
// missing value as null.

// SaccadeEventAPI is a saccade row plus an optional rendering of amplitude
// in degrees of visual angle. Saccade rows are NaN-free once aggregated, so
// the embedded pixel fields encode as-is.
type SaccadeEventAPI struct {
	gaze.SaccadeEvent
	AmplitudeDeg *float64 `json:"amplitude_deg,omitempty"`
}

type PupilSampleAPI struct {
	Subject     string   `json:"subject"`
	Question    string   `json:"question"`
	TimestampMS *float64 `json:"timestamp_ms"`
	CurrentPX   *float64 `json:"current_px"`
	BaselinePX  *float64 `json:"baseline_px"`
	ChangeRate  *float64 `json:"change_rate"`
}

func PupilSampleToAPI(p gaze.PupilSample) PupilSampleAPI {
	return PupilSampleAPI{
		Subject:     p.Trial.Subject,
		Question:    p.Trial.Question,
		TimestampMS: jsonFloat(p.TimestampMS),
		CurrentPX:   jsonFloat(p.CurrentPX),
		BaselinePX:  jsonFloat(p.BaselinePX),
		ChangeRate:  jsonFloat(p.ChangeRate),
	}
}

type TrialMetricsAPI struct {
	Subject             string   `json:"subject"`
	Question            string   `json:"question"`
	FixationCount       int      `json:"fixation_count"`
	MeanFixationMS      *float64 `json:"mean_fixation_ms"`
	MeanSaccadeAmpPX    *float64 `json:"mean_saccade_amp_px"`
	MeanSaccadeAngleDeg *float64 `json:"mean_saccade_angle_deg"`
	MeanPupilChangeRate *float64 `json:"mean_pupil_change_rate"`
}

func TrialMetricsToAPI(m gaze.TrialMetrics) TrialMetricsAPI {
	return TrialMetricsAPI{
		Subject:             m.Trial.Subject,
		Question:            m.Trial.Question,
		FixationCount:       m.FixationCount,
		MeanFixationMS:      jsonFloat(m.MeanFixationMS),
		MeanSaccadeAmpPX:    jsonFloat(m.MeanSaccadeAmpPX),
		MeanSaccadeAngleDeg: jsonFloat(m.MeanSaccadeAngleDeg),
		MeanPupilChangeRate: jsonFloat(m.MeanPupilChangeRate),
	}
}

type SubjectMetricsAPI struct {
	Subject             string   `json:"subject"`
	TrialCount          int      `json:"trial_count"`
	FixationCount       int      `json:"fixation_count"`
	MeanFixationMS      *float64 `json:"mean_fixation_ms"`
	MeanSaccadeAmpPX    *float64 `json:"mean_saccade_amp_px"`
	MeanSaccadeAngleDeg *float64 `json:"mean_saccade_angle_deg"`
	MeanPupilChangeRate *float64 `json:"mean_pupil_change_rate"`
}

func SubjectMetricsToAPI(m gaze.SubjectMetrics) SubjectMetricsAPI {
	return SubjectMetricsAPI{
		Subject:             m.Subject,
		TrialCount:          m.TrialCount,
		FixationCount:       m.FixationCount,
		MeanFixationMS:      jsonFloat(m.MeanFixationMS),
		MeanSaccadeAmpPX:    jsonFloat(m.MeanSaccadeAmpPX),
		MeanSaccadeAngleDeg: jsonFloat(m.MeanSaccadeAngleDeg),
		MeanPupilChangeRate: jsonFloat(m.MeanPupilChangeRate),
	}
}
