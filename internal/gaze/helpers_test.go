package gaze

import "math"

var nan = math.NaN()

var testCfg = Config{ScreenWidthPX: 1920, ScreenHeightPX: 1080, BaselineWindowMS: 500}

var trialT1 = TrialID{Subject: "s01", Question: "q01"}

// sampleAt builds one sample for trialT1 with healthy 3.0px pupils.
func sampleAt(ts, x, y float64, fix int64) Sample {
	return Sample{
		Trial:        trialT1,
		TimestampMS:  ts,
		GazeX:        x,
		GazeY:        y,
		FixationRun:  fix,
		PupilLeftPX:  3.0,
		PupilRightPX: 3.0,
		FixDurationS: nan,
	}
}

// trialOf re-homes samples onto another trial id.
func trialOf(trial TrialID, samples []Sample) []Sample {
	out := make([]Sample, len(samples))
	for i, s := range samples {
		s.Trial = trial
		out[i] = s
	}
	return out
}

// fiveSampleTrial is the canonical worked example: two fixation runs around
// one transit gap, gaze lost during the gap.
//
//	ts:   0      10     20   30   40
//	fix:  1      1      -    -    2
//	gaze: .1,.1  .1,.1  -    -    .5,.5
func fiveSampleTrial() []Sample {
	return []Sample{
		sampleAt(0, 0.1, 0.1, 1),
		sampleAt(10, 0.1, 0.1, 1),
		sampleAt(20, nan, nan, 0),
		sampleAt(30, nan, nan, 0),
		sampleAt(40, 0.5, 0.5, 2),
	}
}

func almostEqual(a, b, tol float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	return math.Abs(a-b) <= tol
}
