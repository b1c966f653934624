package gaze

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateSaccades_WorkedExample(t *testing.T) {
	segmented := SegmentRuns(fiveSampleTrial())

	saccades, err := AggregateSaccades(segmented, testCfg)
	require.NoError(t, err)
	require.Len(t, saccades, 1)

	s := saccades[0]
	assert.Equal(t, trialT1, s.Trial)
	assert.Equal(t, int64(1), s.Run)
	assert.Equal(t, 20.0, s.StartMS)
	assert.Equal(t, 40.0, s.EndMS)
	assert.Equal(t, 20.0, s.DurationMS)
	assert.InDelta(t, 192.0, s.StartXPX, 1e-9) // launch from the last fixated sample
	assert.InDelta(t, 108.0, s.StartYPX, 1e-9)
	assert.InDelta(t, 960.0, s.EndXPX, 1e-9) // land on the next fixated sample
	assert.InDelta(t, 540.0, s.EndYPX, 1e-9)
	assert.InDelta(t, math.Hypot(768, 432), s.AmplitudePX, 1e-9)
	assert.InDelta(t, 881.16, s.AmplitudePX, 0.01)
	assert.InDelta(t, 29.358, s.AngleDeg, 0.01)
}

func TestAggregateSaccades_TrailingGapEmitsNothing(t *testing.T) {
	samples := []Sample{
		sampleAt(0, 0.1, 0.1, 1),
		sampleAt(10, 0.1, 0.1, 1),
		sampleAt(20, nan, nan, 0),
		sampleAt(30, nan, nan, 0),
	}
	saccades, err := AggregateSaccades(SegmentRuns(samples), testCfg)
	require.NoError(t, err)
	assert.Empty(t, saccades, "a recording that ends mid-saccade has no saccade to report")
}

func TestAggregateSaccades_ScreenValidation(t *testing.T) {
	_, err := AggregateSaccades(fiveSampleTrial(), Config{ScreenWidthPX: 1920})
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "screen_height_px", verr.Field)
}

func TestAggregateSaccades_NANeighborDropsRow(t *testing.T) {
	// The sample before the gap has no gaze, so the saccade has no launch
	// point. The row drops; the sibling gap survives.
	samples := []Sample{
		sampleAt(0, nan, nan, 1),
		sampleAt(10, nan, nan, 0),
		sampleAt(20, 0.5, 0.5, 2),
		sampleAt(30, nan, nan, 0),
		sampleAt(40, 0.6, 0.6, 3),
	}
	saccades, err := AggregateSaccades(SegmentRuns(samples), testCfg)
	require.NoError(t, err)
	require.Len(t, saccades, 1)
	assert.Equal(t, int64(2), saccades[0].Run)
}

func TestAngleDeg_ReverseDiffersBy180(t *testing.T) {
	pairs := []struct{ sx, sy, ex, ey float64 }{
		{192, 108, 960, 540},
		{0, 0, -100, 50},
		{10, 10, 10, 200},  // straight down in screen coordinates
		{300, 40, 20, 40},  // straight left
		{-5, -5, 12, -300},
	}
	for _, p := range pairs {
		fwd := angleDeg(p.sx, p.sy, p.ex, p.ey)
		rev := angleDeg(p.ex, p.ey, p.sx, p.sy)
		diff := math.Mod(math.Abs(fwd-rev), 360)
		if !almostEqual(diff, 180, 1e-9) {
			t.Errorf("angleDeg fwd=%v rev=%v: |diff| mod 360 = %v, want 180", fwd, rev, diff)
		}
		for _, a := range []float64{fwd, rev} {
			if !(a > -180 && a <= 180) {
				t.Errorf("angleDeg = %v, want in (-180, 180]", a)
			}
		}
	}
}

func TestAngleDeg_CardinalDirections(t *testing.T) {
	tests := []struct {
		name   string
		sx, sy float64
		ex, ey float64
		want   float64
	}{
		{"right", 0, 0, 10, 0, 0},
		{"down", 0, 0, 0, 10, 90}, // +y grows downward on screens; angle convention is raw atan2
		{"left", 0, 0, -10, 0, 180},
		{"up", 0, 0, 0, -10, -90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := angleDeg(tt.sx, tt.sy, tt.ex, tt.ey); !almostEqual(got, tt.want, 1e-9) {
				t.Errorf("angleDeg() = %v, want %v", got, tt.want)
			}
		})
	}
}
