// Command gazebatch runs a directory of trial CSVs through the full
// analysis pipeline: ingest, event derivation, metric rollups, CSV exports
// and optional plots. Settings come from built-in defaults layered with an
// optional YAML file (GAZE_CONFIG) and GAZE_* env vars; flags passed here
// override all of those.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gazelab/gaze.report/internal/batch"
	"github.com/gazelab/gaze.report/internal/config"
	"github.com/gazelab/gaze.report/internal/db"
	"github.com/gazelab/gaze.report/internal/version"
)

func main() {
	var sourceDir string
	var outputDir string
	var plotDir string
	var dbPath string
	var analysisPath string
	var modelVer string
	var workers int
	var showVersion bool

	flag.StringVar(&sourceDir, "source", "", "directory of trial CSVs named <subject>_<question>.csv")
	flag.StringVar(&outputDir, "out", "", "directory for event and metric CSV exports")
	flag.StringVar(&plotDir, "plots", "", "directory for per-trial PNG plots (empty disables)")
	flag.StringVar(&dbPath, "db", "", "path to sqlite db")
	flag.StringVar(&analysisPath, "config", "", "path to analysis config JSON")
	flag.StringVar(&modelVer, "model", "", "model version string for derived events")
	flag.IntVar(&workers, "workers", 0, "trial-level concurrency (0 uses the configured default)")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("gazebatch %s (%s)\n", version.Version, version.GitSHA)
		return
	}

	cfg, err := batch.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if sourceDir != "" {
		cfg.SourceDir = sourceDir
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if plotDir != "" {
		cfg.PlotDir = plotDir
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if analysisPath != "" {
		cfg.AnalysisConfig = analysisPath
	}
	if modelVer != "" {
		cfg.ModelVersion = modelVer
	}
	if workers > 0 {
		cfg.Workers = workers
	}

	analysis, err := config.LoadAnalysisConfig(cfg.AnalysisConfig)
	if err != nil {
		log.Fatalf("load analysis config %s: %v", cfg.AnalysisConfig, err)
	}

	database, err := db.NewDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := batch.NewRunner(database, analysis, cfg).Run(ctx)
	if err != nil {
		log.Fatalf("batch run failed: %v", err)
	}

	for _, out := range report.Outcomes {
		name := filepath.Base(out.Path)
		if out.Err != nil {
			fmt.Printf("✗ %-28s %v\n", name, out.Err)
			continue
		}
		fmt.Printf("✓ %-28s samples=%d fixations=%d saccades=%d warnings=%d\n",
			name, out.Samples, out.Fixations, out.Saccades, out.Warnings)
	}
	fmt.Printf("run %s: %d trials, %d failed, %d samples\n",
		report.RunID, report.Trials, report.Failed, report.Samples)

	if report.Failed == report.Trials {
		log.Fatalf("every trial failed")
	}
}
