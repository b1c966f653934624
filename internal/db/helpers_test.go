package db

import (
	"math"
	"os"
	"testing"

	"github.com/gazelab/gaze.report/internal/gaze"
)

var nan = math.NaN()

var testCfg = gaze.Config{ScreenWidthPX: 1920, ScreenHeightPX: 1080, BaselineWindowMS: 500}

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	fname := t.Name() + ".db"
	_ = os.Remove(fname)

	db, err := NewDB(fname)
	if err != nil {
		t.Fatalf("failed to create test DB: %v", err)
	}
	return db
}

func cleanupTestDB(t *testing.T, db *DB) {
	t.Helper()
	fname := t.Name() + ".db"
	db.Close()
	_ = os.Remove(fname)
	_ = os.Remove(fname + "-shm")
	_ = os.Remove(fname + "-wal")
}

// workedTrial returns the five-sample reference trial: a two-sample fixation,
// a two-sample transit gap, then a final one-sample fixation.
func workedTrial(trial gaze.TrialID) []gaze.Sample {
	mk := func(ts, x, y float64, fix int64) gaze.Sample {
		return gaze.Sample{
			Trial:        trial,
			TimestampMS:  ts,
			GazeX:        x,
			GazeY:        y,
			FixationRun:  fix,
			PupilLeftPX:  3,
			PupilRightPX: 3,
			FixDurationS: nan,
		}
	}
	return []gaze.Sample{
		mk(0, 0.1, 0.1, 1),
		mk(10, 0.1, 0.1, 1),
		mk(20, nan, nan, 0),
		mk(30, nan, nan, 0),
		mk(40, 0.5, 0.5, 2),
	}
}
