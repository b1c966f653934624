package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gazelab/gaze.report/internal/gaze"
)

// TrialIDFromFilename derives the trial identity from a trial file name of
// the form <subject>_<question>.csv, e.g. "s01_q03.csv". The split is on the
// last underscore, so subjects may contain underscores but questions may not.
func TrialIDFromFilename(path string) (gaze.TrialID, error) {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if !strings.EqualFold(ext, ".csv") {
		return gaze.TrialID{}, fmt.Errorf("trial file %q: want .csv extension", base)
	}
	stem := strings.TrimSuffix(base, ext)
	cut := strings.LastIndex(stem, "_")
	if cut <= 0 || cut == len(stem)-1 {
		return gaze.TrialID{}, fmt.Errorf("trial file %q: want <subject>_<question>.csv", base)
	}
	return gaze.TrialID{Subject: stem[:cut], Question: stem[cut+1:]}, nil
}

// FilenameForTrial is the inverse of TrialIDFromFilename.
func FilenameForTrial(trial gaze.TrialID) string {
	return fmt.Sprintf("%s_%s.csv", trial.Subject, trial.Question)
}
