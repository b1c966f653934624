package gaze

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Bound is an inclusive interval used as a validity predicate. A NaN endpoint
// leaves that side open; the zero Bound accepts nothing useful, so build one
// with Between, AtMost or Unbounded.
type Bound struct {
	Min float64
	Max float64
}

// Between bounds a value to [min, max].
func Between(min, max float64) Bound { return Bound{Min: min, Max: max} }

// AtMost bounds a value to (-inf, max].
func AtMost(max float64) Bound { return Bound{Min: math.NaN(), Max: max} }

// Unbounded accepts every non-NA value.
func Unbounded() Bound { return Bound{Min: math.NaN(), Max: math.NaN()} }

// Contains reports whether v passes the predicate. NA never passes.
func (b Bound) Contains(v float64) bool {
	if math.IsNaN(v) {
		return false
	}
	if !math.IsNaN(b.Min) && v < b.Min {
		return false
	}
	if !math.IsNaN(b.Max) && v > b.Max {
		return false
	}
	return true
}

// ValidityBounds filter which events contribute to summary means. Each bound
// guards its own metric; events outside a bound are implausible for that
// measurement and excluded from it, not deleted.
type ValidityBounds struct {
	// FixationDurationMS gates mean fixation duration.
	FixationDurationMS Bound
	// SaccadeAmplitudePX gates the saccade means. Amplitude and angle share
	// it: a saccade too large to be real has no trustworthy direction.
	SaccadeAmplitudePX Bound
	// PupilChangeRate gates the mean pupil change rate (two-sided).
	PupilChangeRate Bound
}

// DefaultValidityBounds are the conventional trust thresholds: fixations
// between 50 and 2000 ms, saccades up to 500 px, pupil deviation within 20%.
func DefaultValidityBounds() ValidityBounds {
	return ValidityBounds{
		FixationDurationMS: Between(50, 2000),
		SaccadeAmplitudePX: AtMost(500),
		PupilChangeRate:    Between(-0.2, 0.2),
	}
}

// TrialMetrics summarizes one trial's events. Means are NaN when no valid
// contributor exists; a sparse trial is a gap, not an error.
type TrialMetrics struct {
	Trial               TrialID
	FixationCount       int
	MeanFixationMS      float64
	MeanSaccadeAmpPX    float64
	MeanSaccadeAngleDeg float64
	MeanPupilChangeRate float64
}

// SubjectMetrics pools every trial of one subject.
type SubjectMetrics struct {
	Subject             string
	TrialCount          int
	FixationCount       int
	MeanFixationMS      float64
	MeanSaccadeAmpPX    float64
	MeanSaccadeAngleDeg float64
	MeanPupilChangeRate float64
}

// ComputeTrialMetrics summarizes events per trial. Every trial present in any
// of the three tables gets a row; output is ordered by subject then question.
func ComputeTrialMetrics(fixations []FixationEvent, saccades []SaccadeEvent, pupils []PupilSample, vb ValidityBounds) []TrialMetrics {
	acc := make(map[TrialID]*metricAcc)
	at := func(t TrialID) *metricAcc {
		a, ok := acc[t]
		if !ok {
			a = &metricAcc{}
			acc[t] = a
		}
		return a
	}
	for _, f := range fixations {
		at(f.Trial).addFixation(f, vb)
	}
	for _, s := range saccades {
		at(s.Trial).addSaccade(s, vb)
	}
	for _, p := range pupils {
		at(p.Trial).addPupil(p, vb)
	}

	trials := make([]TrialID, 0, len(acc))
	for t := range acc {
		trials = append(trials, t)
	}
	sort.Slice(trials, func(i, j int) bool {
		if trials[i].Subject != trials[j].Subject {
			return trials[i].Subject < trials[j].Subject
		}
		return trials[i].Question < trials[j].Question
	})

	out := make([]TrialMetrics, 0, len(trials))
	for _, t := range trials {
		a := acc[t]
		out = append(out, TrialMetrics{
			Trial:               t,
			FixationCount:       a.fixations,
			MeanFixationMS:      meanOrNaN(a.durations),
			MeanSaccadeAmpPX:    meanOrNaN(a.amplitudes),
			MeanSaccadeAngleDeg: meanOrNaN(a.angles),
			MeanPupilChangeRate: meanOrNaN(a.rates),
		})
	}
	return out
}

// ComputeSubjectMetrics pools events across each subject's trials. Output is
// ordered by subject.
func ComputeSubjectMetrics(fixations []FixationEvent, saccades []SaccadeEvent, pupils []PupilSample, vb ValidityBounds) []SubjectMetrics {
	acc := make(map[string]*metricAcc)
	trialSeen := make(map[TrialID]struct{})
	at := func(s string) *metricAcc {
		a, ok := acc[s]
		if !ok {
			a = &metricAcc{}
			acc[s] = a
		}
		return a
	}
	for _, f := range fixations {
		trialSeen[f.Trial] = struct{}{}
		at(f.Trial.Subject).addFixation(f, vb)
	}
	for _, s := range saccades {
		trialSeen[s.Trial] = struct{}{}
		at(s.Trial.Subject).addSaccade(s, vb)
	}
	for _, p := range pupils {
		trialSeen[p.Trial] = struct{}{}
		at(p.Trial.Subject).addPupil(p, vb)
	}
	trialCounts := make(map[string]int)
	for t := range trialSeen {
		trialCounts[t.Subject]++
	}

	subjects := make([]string, 0, len(acc))
	for s := range acc {
		subjects = append(subjects, s)
	}
	sort.Strings(subjects)

	out := make([]SubjectMetrics, 0, len(subjects))
	for _, s := range subjects {
		a := acc[s]
		out = append(out, SubjectMetrics{
			Subject:             s,
			TrialCount:          trialCounts[s],
			FixationCount:       a.fixations,
			MeanFixationMS:      meanOrNaN(a.durations),
			MeanSaccadeAmpPX:    meanOrNaN(a.amplitudes),
			MeanSaccadeAngleDeg: meanOrNaN(a.angles),
			MeanPupilChangeRate: meanOrNaN(a.rates),
		})
	}
	return out
}

type metricAcc struct {
	fixations  int
	durations  []float64
	amplitudes []float64
	angles     []float64
	rates      []float64
}

func (a *metricAcc) addFixation(f FixationEvent, vb ValidityBounds) {
	a.fixations++
	if vb.FixationDurationMS.Contains(f.DurationMS) {
		a.durations = append(a.durations, f.DurationMS)
	}
}

func (a *metricAcc) addSaccade(s SaccadeEvent, vb ValidityBounds) {
	if vb.SaccadeAmplitudePX.Contains(s.AmplitudePX) {
		a.amplitudes = append(a.amplitudes, s.AmplitudePX)
		a.angles = append(a.angles, s.AngleDeg)
	}
}

func (a *metricAcc) addPupil(p PupilSample, vb ValidityBounds) {
	if vb.PupilChangeRate.Contains(p.ChangeRate) {
		a.rates = append(a.rates, p.ChangeRate)
	}
}

func meanOrNaN(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	return stat.Mean(vals, nil)
}

// DurationPercentiles reports the 50th, 85th and 95th percentile of fixation
// durations, NaN on empty input. Used by the reporting rollups.
func DurationPercentiles(durationsMS []float64) (p50, p85, p95 float64) {
	vals := make([]float64, 0, len(durationsMS))
	for _, d := range durationsMS {
		if !math.IsNaN(d) {
			vals = append(vals, d)
		}
	}
	if len(vals) == 0 {
		return math.NaN(), math.NaN(), math.NaN()
	}
	sort.Float64s(vals)
	p50 = stat.Quantile(0.50, stat.Empirical, vals, nil)
	p85 = stat.Quantile(0.85, stat.Empirical, vals, nil)
	p95 = stat.Quantile(0.95, stat.Empirical, vals, nil)
	return p50, p85, p95
}
