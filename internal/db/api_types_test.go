package db

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/gazelab/gaze.report/internal/gaze"
)

func TestPupilSampleToAPI(t *testing.T) {
	tests := []struct {
		name    string
		sample  gaze.PupilSample
		hasRate bool
	}{
		{
			name: "with rate",
			sample: gaze.PupilSample{
				Trial:       gaze.TrialID{Subject: "s01", Question: "q01"},
				TimestampMS: 10,
				CurrentPX:   3.2,
				BaselinePX:  3.0,
				ChangeRate:  0.0667,
			},
			hasRate: true,
		},
		{
			name: "missing rate",
			sample: gaze.PupilSample{
				Trial:       gaze.TrialID{Subject: "s01", Question: "q01"},
				TimestampMS: 10,
				CurrentPX:   math.NaN(),
				BaselinePX:  3.0,
				ChangeRate:  math.NaN(),
			},
			hasRate: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := PupilSampleToAPI(tt.sample)
			if api.Subject != "s01" || api.Question != "q01" {
				t.Errorf("trial fields wrong: %q/%q", api.Subject, api.Question)
			}
			if tt.hasRate {
				if api.ChangeRate == nil {
					t.Fatal("expected non-nil ChangeRate")
				}
				if *api.ChangeRate != tt.sample.ChangeRate {
					t.Errorf("expected ChangeRate %v, got %v", tt.sample.ChangeRate, *api.ChangeRate)
				}
			} else {
				if api.ChangeRate != nil {
					t.Errorf("expected nil ChangeRate, got %v", *api.ChangeRate)
				}
				if api.CurrentPX != nil {
					t.Errorf("expected nil CurrentPX, got %v", *api.CurrentPX)
				}
			}
		})
	}
}

// NaN metric means must reach the wire as null, not break the encoder.
func TestTrialMetricsToAPI_EncodesNaNAsNull(t *testing.T) {
	m := gaze.TrialMetrics{
		Trial:               gaze.TrialID{Subject: "s01", Question: "q01"},
		FixationCount:       3,
		MeanFixationMS:      240,
		MeanSaccadeAmpPX:    math.NaN(),
		MeanSaccadeAngleDeg: math.NaN(),
		MeanPupilChangeRate: 0.01,
	}

	out, err := json.Marshal(TrialMetricsToAPI(m))
	if err != nil {
		t.Fatalf("failed to marshal trial metrics: %v", err)
	}
	s := string(out)
	if !strings.Contains(s, `"mean_saccade_amp_px":null`) {
		t.Errorf("expected null amplitude mean in %s", s)
	}
	if !strings.Contains(s, `"mean_fixation_ms":240`) {
		t.Errorf("expected numeric fixation mean in %s", s)
	}
	if !strings.Contains(s, `"fixation_count":3`) {
		t.Errorf("expected fixation count in %s", s)
	}
}

func TestSubjectMetricsToAPI(t *testing.T) {
	m := gaze.SubjectMetrics{
		Subject:             "s02",
		TrialCount:          4,
		FixationCount:       12,
		MeanFixationMS:      math.NaN(),
		MeanSaccadeAmpPX:    130.5,
		MeanSaccadeAngleDeg: -42.0,
		MeanPupilChangeRate: math.NaN(),
	}

	api := SubjectMetricsToAPI(m)
	if api.Subject != "s02" || api.TrialCount != 4 || api.FixationCount != 12 {
		t.Errorf("count fields wrong: %+v", api)
	}
	if api.MeanFixationMS != nil {
		t.Errorf("expected nil MeanFixationMS, got %v", *api.MeanFixationMS)
	}
	if api.MeanSaccadeAmpPX == nil || *api.MeanSaccadeAmpPX != 130.5 {
		t.Errorf("expected MeanSaccadeAmpPX 130.5, got %v", api.MeanSaccadeAmpPX)
	}
	if api.MeanSaccadeAngleDeg == nil || *api.MeanSaccadeAngleDeg != -42.0 {
		t.Errorf("expected MeanSaccadeAngleDeg -42, got %v", api.MeanSaccadeAngleDeg)
	}
}
