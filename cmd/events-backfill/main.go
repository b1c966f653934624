// Command events-backfill recomputes events and metrics for trials already
// stored in the database, without re-reading any source CSVs. Use it after
// an analysis config change or when stamping rows with a new model version.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/gazelab/gaze.report/internal/config"
	"github.com/gazelab/gaze.report/internal/db"
	"github.com/gazelab/gaze.report/internal/gaze"
)

func main() {
	var dbPath string
	var configPath string
	var modelVer string
	var subjectFilter string
	var dryRun bool

	flag.StringVar(&dbPath, "db", "gaze.db", "path to sqlite db")
	flag.StringVar(&configPath, "config", "", "path to analysis config JSON (empty uses bundled defaults)")
	flag.StringVar(&modelVer, "model", "manual-backfill", "model version string for recomputed events")
	flag.StringVar(&subjectFilter, "subject", "", "only recompute trials for this subject")
	flag.BoolVar(&dryRun, "dry-run", false, "list the trials that would be recomputed and exit")
	flag.Parse()

	var analysis *config.AnalysisConfig
	var err error
	if configPath != "" {
		analysis, err = config.LoadAnalysisConfig(configPath)
		if err != nil {
			log.Fatalf("load analysis config %s: %v", configPath, err)
		}
	} else {
		analysis = config.MustLoadDefaultConfig()
	}

	dbConn, err := db.NewDB(dbPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer dbConn.Close()

	ctx := context.Background()
	trials, err := dbConn.ListTrials(ctx)
	if err != nil {
		log.Fatalf("list trials: %v", err)
	}

	w := db.NewEventWorker(dbConn,
		gaze.ConfigFromAnalysis(analysis), gaze.BoundsFromAnalysis(analysis), modelVer)

	subjects := make(map[string]bool)
	recomputed := 0
	for _, info := range trials {
		if subjectFilter != "" && info.Subject != subjectFilter {
			continue
		}
		trial := gaze.TrialID{Subject: info.Subject, Question: info.Question}
		if dryRun {
			fmt.Printf("would recompute %s_%s (%d samples)\n",
				trial.Subject, trial.Question, info.SampleCount)
			continue
		}

		if err := w.RunTrial(ctx, trial); err != nil {
			log.Fatalf("recompute %s_%s: %v", trial.Subject, trial.Question, err)
		}
		fixations, saccades, err := dbConn.EventCounts(ctx, trial, modelVer)
		if err != nil {
			log.Fatalf("event counts %s_%s: %v", trial.Subject, trial.Question, err)
		}
		fmt.Printf("recomputed %s_%s: %d fixations, %d saccades\n",
			trial.Subject, trial.Question, fixations, saccades)
		subjects[trial.Subject] = true
		recomputed++
	}

	for subject := range subjects {
		if err := w.RefreshSubjectMetrics(ctx, subject); err != nil {
			log.Fatalf("subject metrics %s: %v", subject, err)
		}
	}

	if dryRun {
		return
	}
	fmt.Printf("backfill complete: %d trials\n", recomputed)
}
