package gaze

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateFixations_WorkedExample(t *testing.T) {
	segmented := SegmentRuns(fiveSampleTrial())

	fixations, err := AggregateFixations(segmented, testCfg)
	require.NoError(t, err)

	// Run 2 touches the end of the trial, so it has no end timestamp and is
	// dropped; only run 1 survives.
	require.Len(t, fixations, 1)
	f := fixations[0]
	assert.Equal(t, trialT1, f.Trial)
	assert.Equal(t, int64(1), f.Run)
	assert.Equal(t, 0.0, f.StartMS)
	assert.Equal(t, 20.0, f.EndMS)
	assert.Equal(t, 20.0, f.DurationMS)
	assert.InDelta(t, 192.0, f.XPX, 1e-9)  // 0.1 * 1920
	assert.InDelta(t, 108.0, f.YPX, 1e-9)  // 0.1 * 1080
	assert.InDelta(t, 3.0, f.PupilPX, 1e-9)
}

func TestAggregateFixations_ScreenValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero width", Config{ScreenWidthPX: 0, ScreenHeightPX: 1080}},
		{"negative height", Config{ScreenWidthPX: 1920, ScreenHeightPX: -1}},
		{"NaN width", Config{ScreenWidthPX: math.NaN(), ScreenHeightPX: 1080}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AggregateFixations(fiveSampleTrial(), tt.cfg)
			require.Error(t, err)
			var verr *ValidationError
			assert.True(t, errors.As(err, &verr), "want *ValidationError, got %T", err)
		})
	}
}

func TestAggregateFixations_FirstSampleGeometry(t *testing.T) {
	// Position comes from the run's first sample even when later samples
	// drift; that is the anchor the tracker chose.
	samples := []Sample{
		sampleAt(0, 0.25, 0.5, 1),
		sampleAt(10, 0.30, 0.55, 1),
		sampleAt(20, 0.9, 0.9, 2),
		sampleAt(30, 0.9, 0.9, 2),
		sampleAt(40, 0.1, 0.1, 3), // follower so run 2 survives
	}
	fixations, err := AggregateFixations(SegmentRuns(samples), testCfg)
	require.NoError(t, err)
	require.Len(t, fixations, 2)
	assert.InDelta(t, 0.25*1920, fixations[0].XPX, 1e-9)
	assert.InDelta(t, 0.5*1080, fixations[0].YPX, 1e-9)
}

func TestAggregateFixations_NAGazeDropsRow(t *testing.T) {
	samples := []Sample{
		sampleAt(0, nan, 0.1, 1), // first sample of run 1 has no x
		sampleAt(10, 0.1, 0.1, 1),
		sampleAt(20, 0.5, 0.5, 2),
		sampleAt(30, 0.5, 0.5, 2),
		sampleAt(40, 0.6, 0.6, 3),
	}
	fixations, err := AggregateFixations(SegmentRuns(samples), testCfg)
	require.NoError(t, err)
	runs := make([]int64, 0, len(fixations))
	for _, f := range fixations {
		runs = append(runs, f.Run)
	}
	assert.Equal(t, []int64{2}, runs, "run 1 lacks geometry, run 3 lacks an end")
}

func TestAggregateFixations_PupilPooling(t *testing.T) {
	mk := func(ts float64, fix int64, l, r float64) Sample {
		s := sampleAt(ts, 0.1, 0.1, fix)
		s.PupilLeftPX, s.PupilRightPX = l, r
		return s
	}
	tests := []struct {
		name string
		run  []Sample
		want float64 // NaN means expect NA
	}{
		{
			name: "both eyes pool across the run",
			run:  []Sample{mk(0, 1, 2.0, 4.0), mk(10, 1, 3.0, 3.0)},
			want: 3.0,
		},
		{
			name: "NA contributors are ignored",
			run:  []Sample{mk(0, 1, nan, 4.0), mk(10, 1, 2.0, nan)},
			want: 3.0,
		},
		{
			name: "all NA pools to NA",
			run:  []Sample{mk(0, 1, nan, nan), mk(10, 1, nan, nan)},
			want: nan,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Terminating fixation keeps the run under test alive.
			samples := append(tt.run, mk(20, 2, 3.0, 3.0), mk(30, 3, 3.0, 3.0))
			fixations, err := AggregateFixations(SegmentRuns(samples), testCfg)
			require.NoError(t, err)
			if math.IsNaN(tt.want) {
				for _, f := range fixations {
					assert.NotEqual(t, int64(1), f.Run, "all-NA pupil run should be dropped")
				}
				return
			}
			require.NotEmpty(t, fixations)
			assert.InDelta(t, tt.want, fixations[0].PupilPX, 1e-9)
		})
	}
}

func TestAggregateFixations_DuplicateSamplesMergeIntoRun(t *testing.T) {
	// A double-logged sample does not split or duplicate its run.
	samples := []Sample{
		sampleAt(0, 0.1, 0.1, 1),
		sampleAt(0, 0.1, 0.1, 1),
		sampleAt(10, 0.1, 0.1, 1),
		sampleAt(20, 0.5, 0.5, 2),
	}
	fixations, err := AggregateFixations(SegmentRuns(samples), testCfg)
	require.NoError(t, err)
	require.Len(t, fixations, 1)
	assert.Equal(t, int64(1), fixations[0].Run)
	assert.Equal(t, 20.0, fixations[0].EndMS)
}
