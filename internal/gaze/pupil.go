package gaze

import "math"

// NormalizePupil computes the baseline-normalized pupil change rate for every
// sample. Unlike the event aggregators it never drops rows: each input sample
// yields exactly one output row, with NA wherever the data cannot support a
// value.
//
// A sample's current size is the mean of the two radii, valid only when both
// eyes were measured and neither radius is zero (a zero is tracker noise, not
// an aperture). The baseline is the NA-ignoring mean of current size over the
// trial's opening window, broadcast to every sample; the change rate is the
// relative deviation from that baseline.
func NormalizePupil(samples []Sample, cfg Config) []PupilSample {
	window := cfg.baselineWindowMS()
	out := make([]PupilSample, 0, len(samples))

	for start := 0; start < len(samples); {
		end := start + 1
		for end < len(samples) && samples[end].Trial == samples[start].Trial {
			end++
		}
		trial := samples[start:end]

		current := make([]float64, len(trial))
		for i, s := range trial {
			current[i] = currentPupilPX(s)
		}

		baseline := math.NaN()
		if limit := trial[0].TimestampMS + window; !math.IsNaN(limit) {
			var sum float64
			var n int
			for i, s := range trial {
				if s.TimestampMS > limit || math.IsNaN(s.TimestampMS) {
					break
				}
				if !math.IsNaN(current[i]) {
					sum += current[i]
					n++
				}
			}
			if n > 0 {
				baseline = sum / float64(n)
			}
		}

		for i, s := range trial {
			rate := math.NaN()
			if !math.IsNaN(current[i]) && !math.IsNaN(baseline) && baseline != 0 {
				rate = (current[i] - baseline) / baseline
			}
			out = append(out, PupilSample{
				Trial:       s.Trial,
				TimestampMS: s.TimestampMS,
				CurrentPX:   current[i],
				BaselinePX:  baseline,
				ChangeRate:  rate,
			})
		}
		start = end
	}
	return out
}

// currentPupilPX is the sample's instantaneous pupil size: the two-eye mean,
// NA unless both radii are present and non-zero.
func currentPupilPX(s Sample) float64 {
	l, r := s.PupilLeftPX, s.PupilRightPX
	if math.IsNaN(l) || math.IsNaN(r) || l == 0 || r == 0 {
		return math.NaN()
	}
	return (l + r) / 2
}
