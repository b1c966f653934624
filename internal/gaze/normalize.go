package gaze

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Canonical column names after header normalization.
const (
	ColTimestampMS   = "timestamp_ms"
	ColGazeX         = "gaze_x"
	ColGazeY         = "gaze_y"
	ColFixationRunID = "fixation_run_id"
	ColPupilLeftPX   = "left_pupil_radius_px"
	ColPupilRightPX  = "right_pupil_radius_px"
	ColFixDurationS  = "fixation_duration_s"
)

// RequiredColumns must all be present (after header normalization) for a raw
// table to normalize. ColFixDurationS is optional.
var RequiredColumns = []string{
	ColTimestampMS,
	ColGazeX,
	ColGazeY,
	ColFixationRunID,
	ColPupilLeftPX,
	ColPupilRightPX,
}

// RawTable is a parsed but untyped trial table: a header row plus string
// cells, exactly as read from a source file.
type RawTable struct {
	Columns []string
	Rows    [][]string
}

// NormalizeColumn maps a raw header to its canonical form: every slash and
// space becomes an underscore ("left/pupil radius px" -> "left_pupil_radius_px").
func NormalizeColumn(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	return strings.ReplaceAll(name, " ", "_")
}

// Normalize converts a raw trial table into canonical samples.
//
// Headers are normalized first; a missing required column is a *SchemaError
// and produces no partial output. Numeric cells that fail to parse degrade to
// NA and are reported as CoercionWarnings. The tracker's -1 sentinel is
// recoded to NA for gaze_x, gaze_y and fixation_duration_s after coercion.
// Output samples are stably sorted by timestamp, which every later stage
// relies on.
func Normalize(raw RawTable, trial TrialID) ([]Sample, []CoercionWarning, error) {
	idx := make(map[string]int, len(raw.Columns))
	for i, col := range raw.Columns {
		canon := NormalizeColumn(col)
		if _, ok := idx[canon]; !ok {
			idx[canon] = i
		}
	}
	for _, col := range RequiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, nil, &SchemaError{Column: col}
		}
	}
	durIdx, hasDur := idx[ColFixDurationS]

	var warns []CoercionWarning
	floatCell := func(rowNum int, row []string, col int, name string) float64 {
		s := cellAt(row, col)
		if isNAToken(s) {
			return math.NaN()
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			warns = append(warns, CoercionWarning{Row: rowNum, Column: name, Value: s})
			return math.NaN()
		}
		return v
	}

	samples := make([]Sample, 0, len(raw.Rows))
	for n, row := range raw.Rows {
		s := Sample{
			Trial:        trial,
			TimestampMS:  floatCell(n, row, idx[ColTimestampMS], ColTimestampMS),
			GazeX:        floatCell(n, row, idx[ColGazeX], ColGazeX),
			GazeY:        floatCell(n, row, idx[ColGazeY], ColGazeY),
			PupilLeftPX:  floatCell(n, row, idx[ColPupilLeftPX], ColPupilLeftPX),
			PupilRightPX: floatCell(n, row, idx[ColPupilRightPX], ColPupilRightPX),
			FixDurationS: math.NaN(),
		}
		if hasDur {
			s.FixDurationS = floatCell(n, row, durIdx, ColFixDurationS)
		}

		// Run ids are positive integers; zero or NA means the eye was in
		// transit. Anything else is tracker garbage.
		runCell := cellAt(row, idx[ColFixationRunID])
		if !isNAToken(runCell) {
			v, err := strconv.ParseInt(runCell, 10, 64)
			if err != nil || v < 0 {
				warns = append(warns, CoercionWarning{Row: n, Column: ColFixationRunID, Value: runCell})
				v = 0
			}
			s.FixationRun = v
		}

		// Sentinel recode: the tracker writes -1 where it lost the eye.
		if s.GazeX == -1 {
			s.GazeX = math.NaN()
		}
		if s.GazeY == -1 {
			s.GazeY = math.NaN()
		}
		if s.FixDurationS == -1 {
			s.FixDurationS = math.NaN()
		}

		samples = append(samples, s)
	}

	sortSamples(samples)
	return samples, warns, nil
}

func cellAt(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// isNAToken reports whether a cell natively encodes a missing value. These
// parse to NA without a warning; only genuinely malformed cells warn.
func isNAToken(s string) bool {
	switch {
	case s == "":
		return true
	case strings.EqualFold(s, "na"), strings.EqualFold(s, "nan"), strings.EqualFold(s, "null"):
		return true
	}
	return false
}

// sortSamples orders samples by trial then timestamp, NaN timestamps last.
// The sort is stable so equal-timestamp rows keep file order.
func sortSamples(samples []Sample) {
	sort.SliceStable(samples, func(i, j int) bool {
		a, b := samples[i], samples[j]
		if a.Trial != b.Trial {
			if a.Trial.Subject != b.Trial.Subject {
				return a.Trial.Subject < b.Trial.Subject
			}
			return a.Trial.Question < b.Trial.Question
		}
		if math.IsNaN(a.TimestampMS) {
			return false
		}
		if math.IsNaN(b.TimestampMS) {
			return true
		}
		return a.TimestampMS < b.TimestampMS
	})
}
