package gaze

import "math"

// AggregateFixations collapses each fixation run into one event row.
//
// Geometry comes from the run's first sample scaled to screen pixels; the end
// timestamp comes from the first sample after the run, so a run that touches
// the end of its trial has no end and is dropped by the NA filter. The pupil
// value pools both eyes across the whole run, ignoring NA contributors.
func AggregateFixations(samples []Sample, cfg Config) ([]FixationEvent, error) {
	if err := cfg.validateScreen(); err != nil {
		return nil, err
	}

	var events []FixationEvent
	for i := 0; i < len(samples); {
		first := samples[i]
		if first.FixationRun == 0 {
			i++
			continue
		}
		j := i + 1
		for j < len(samples) && samples[j].Trial == first.Trial && samples[j].FixationRun == first.FixationRun {
			j++
		}
		endMS := math.NaN()
		if j < len(samples) && samples[j].Trial == first.Trial {
			endMS = samples[j].TimestampMS
		}
		events = append(events, FixationEvent{
			Trial:      first.Trial,
			Run:        first.FixationRun,
			StartMS:    first.TimestampMS,
			EndMS:      endMS,
			DurationMS: endMS - first.TimestampMS,
			XPX:        first.GazeX * cfg.ScreenWidthPX,
			YPX:        first.GazeY * cfg.ScreenHeightPX,
			PupilPX:    pooledPupilMean(samples[i:j]),
		})
		i = j
	}

	events = keep(events, func(e FixationEvent) bool {
		return !anyNaN(e.StartMS, e.EndMS, e.DurationMS, e.XPX, e.YPX, e.PupilPX)
	})
	return dedupe(events), nil
}

// pooledPupilMean averages every non-NA left and right radius in the span.
// NA only when no sample contributed either eye.
func pooledPupilMean(span []Sample) float64 {
	var sum float64
	var n int
	for _, s := range span {
		if !math.IsNaN(s.PupilLeftPX) {
			sum += s.PupilLeftPX
			n++
		}
		if !math.IsNaN(s.PupilRightPX) {
			sum += s.PupilRightPX
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
