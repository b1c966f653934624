package db

import (
	"context"
	"testing"
)

func TestAnalysisRunLifecycle(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	ctx := context.Background()

	runID, err := db.NewAnalysisRun(ctx, "testdata/trials", "v1")
	if err != nil {
		t.Fatalf("NewAnalysisRun failed: %v", err)
	}
	if runID == "" {
		t.Fatal("expected non-empty run ID")
	}

	runs, err := db.ListAnalysisRuns(ctx)
	if err != nil {
		t.Fatalf("ListAnalysisRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].RunID != runID || runs[0].Source != "testdata/trials" {
		t.Errorf("unexpected run: %+v", runs[0])
	}
	if runs[0].FinishedAt != nil {
		t.Errorf("expected unfinished run, got finished at %v", runs[0].FinishedAt)
	}

	if err := db.FinishAnalysisRun(ctx, runID, 12, 1, 48000); err != nil {
		t.Fatalf("FinishAnalysisRun failed: %v", err)
	}

	runs, err = db.ListAnalysisRuns(ctx)
	if err != nil {
		t.Fatalf("ListAnalysisRuns failed: %v", err)
	}
	r := runs[0]
	if r.TrialCount != 12 || r.FailedCount != 1 || r.SampleCount != 48000 {
		t.Errorf("unexpected counts: %+v", r)
	}
	if r.FinishedAt == nil {
		t.Error("expected finished timestamp")
	}
}

func TestFinishAnalysisRun_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	err := db.FinishAnalysisRun(context.Background(), "no-such-run", 0, 0, 0)
	if err == nil {
		t.Fatal("expected error for unknown run ID")
	}
}
