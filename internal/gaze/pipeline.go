package gaze

// ProcessTrial runs the full derivation over one trial's normalized samples:
// gap segmentation, then fixation/saccade aggregation, then pupil baseline
// normalization. Deterministic: the same samples and config always produce
// the same tables, so re-running an analysis is a safe no-op.
//
// Samples must be in the order Normalize produces. The call fails only on an
// unusable Config; data problems surface as dropped rows or NA fields, never
// as errors.
func ProcessTrial(samples []Sample, cfg Config) (*TrialEvents, error) {
	segmented := SegmentRuns(samples)

	fixations, err := AggregateFixations(segmented, cfg)
	if err != nil {
		return nil, err
	}
	saccades, err := AggregateSaccades(segmented, cfg)
	if err != nil {
		return nil, err
	}
	return &TrialEvents{
		Fixations: fixations,
		Saccades:  saccades,
		Pupils:    NormalizePupil(segmented, cfg),
	}, nil
}
