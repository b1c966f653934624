package gaze

import "math"

// AggregateSaccades collapses each assigned gap run into one saccade row.
//
// The saccade launches from the last sample before the gap and lands on the
// first sample after it; both neighbors must carry usable gaze for the row to
// survive the NA filter. Amplitude is the straight-line pixel distance,
// AngleDeg the direction of travel in (-180, 180] with 0 pointing along +x.
func AggregateSaccades(samples []Sample, cfg Config) ([]SaccadeEvent, error) {
	if err := cfg.validateScreen(); err != nil {
		return nil, err
	}

	var events []SaccadeEvent
	for i := 0; i < len(samples); {
		first := samples[i]
		if first.SaccadeRun == 0 {
			i++
			continue
		}
		j := i + 1
		for j < len(samples) && samples[j].Trial == first.Trial && samples[j].SaccadeRun == first.SaccadeRun {
			j++
		}

		startX, startY := math.NaN(), math.NaN()
		if i > 0 && samples[i-1].Trial == first.Trial {
			startX = samples[i-1].GazeX * cfg.ScreenWidthPX
			startY = samples[i-1].GazeY * cfg.ScreenHeightPX
		}
		endMS, endX, endY := math.NaN(), math.NaN(), math.NaN()
		if j < len(samples) && samples[j].Trial == first.Trial {
			endMS = samples[j].TimestampMS
			endX = samples[j].GazeX * cfg.ScreenWidthPX
			endY = samples[j].GazeY * cfg.ScreenHeightPX
		}

		events = append(events, SaccadeEvent{
			Trial:       first.Trial,
			Run:         first.SaccadeRun,
			StartMS:     first.TimestampMS,
			EndMS:       endMS,
			DurationMS:  endMS - first.TimestampMS,
			StartXPX:    startX,
			StartYPX:    startY,
			EndXPX:      endX,
			EndYPX:      endY,
			AmplitudePX: math.Hypot(endX-startX, endY-startY),
			AngleDeg:    angleDeg(startX, startY, endX, endY),
		})
		i = j
	}

	events = keep(events, func(e SaccadeEvent) bool {
		return !anyNaN(e.StartMS, e.EndMS, e.DurationMS,
			e.StartXPX, e.StartYPX, e.EndXPX, e.EndYPX,
			e.AmplitudePX, e.AngleDeg)
	})
	return dedupe(events), nil
}

// angleDeg is the direction from (sx,sy) to (ex,ey) in degrees, normalized to
// (-180, 180]. atan2 can only return -180 on a negative-zero dy, which folds
// onto +180.
func angleDeg(sx, sy, ex, ey float64) float64 {
	deg := math.Atan2(ey-sy, ex-sx) * 180 / math.Pi
	if deg == -180 {
		deg = 180
	}
	return deg
}
