package gaze

// SegmentRuns assigns saccade run ids to the transit gaps between fixation
// runs and returns a new slice; the input is not modified.
//
// The pass walks each trial once with a gap accumulator. A gap opens on the
// edge where a positive FixationRun is followed by a zero one; every sample
// until the next fixation gets the accumulator's value. A gap that was not
// opened by such an edge (the trial starts mid-transit) stays unassigned, and
// a gap still open at the trial's last sample is unassigned again afterwards:
// the recording ended mid-saccade and there is no terminating fixation to
// land on, so no saccade can be derived from it.
//
// Samples must be in trial-then-timestamp order, as produced by Normalize.
// Multiple trials may share the slice; the accumulator resets on every trial
// boundary.
func SegmentRuns(samples []Sample) []Sample {
	out := make([]Sample, len(samples))
	copy(out, samples)

	var (
		gap     int64
		open    bool
		prevFix int64
	)
	for i := range out {
		s := &out[i]
		if i == 0 || s.Trial != out[i-1].Trial {
			gap, open, prevFix = 0, false, 0
		}
		if s.FixationRun != 0 {
			s.SaccadeRun = 0
			open = false
		} else {
			if prevFix != 0 {
				gap++
				open = true
			}
			if open {
				s.SaccadeRun = gap
			} else {
				s.SaccadeRun = 0
			}
		}
		prevFix = s.FixationRun
	}

	// Unassign trailing gaps. Walk trials back to front; if a trial's last
	// sample sits inside an assigned gap run, clear that whole run.
	for end := len(out); end > 0; {
		start := end - 1
		for start > 0 && out[start-1].Trial == out[end-1].Trial {
			start--
		}
		if run := out[end-1].SaccadeRun; run != 0 {
			for i := end - 1; i >= start && out[i].SaccadeRun == run; i-- {
				out[i].SaccadeRun = 0
			}
		}
		end = start
	}
	return out
}
