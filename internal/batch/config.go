// Package batch runs a whole directory of trial CSVs through the analysis
// pipeline concurrently: ingest, event derivation, metric rollups, CSV
// exports and an analysis_runs audit row. Trials are independent; one bad
// file never stops its siblings.
package batch

import (
	"errors"
	"os"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config drives one batch analysis run.
type Config struct {
	// SourceDir holds the trial CSVs, named <subject>_<question>.csv.
	SourceDir string `koanf:"source_dir"`

	// OutputDir receives the event and metric CSV exports. Empty disables
	// the export step.
	OutputDir string `koanf:"output_dir"`

	// PlotDir receives per-trial gaze path and pupil trace PNGs. Empty
	// disables plot rendering.
	PlotDir string `koanf:"plot_dir"`

	// DBPath is the sqlite database the run persists into.
	DBPath string `koanf:"db_path"`

	// AnalysisConfig points at the JSON analysis config (display geometry,
	// validity bounds).
	AnalysisConfig string `koanf:"analysis_config"`

	// ModelVersion labels every derived event and metric row.
	ModelVersion string `koanf:"model_version"`

	// Workers bounds trial-level concurrency.
	Workers int `koanf:"workers"`
}

// New returns the built-in defaults.
func New() *Config {
	return &Config{
		SourceDir:      "data",
		OutputDir:      "out",
		DBPath:         "gaze.db",
		AnalysisConfig: "config/analysis.defaults.json",
		ModelVersion:   "v1",
		Workers:        runtime.NumCPU(),
	}
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if GAZE_CONFIG is set
//  3. env (prefix GAZE_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("GAZE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// GAZE_SOURCE_DIR -> source_dir, matching the koanf tags on the struct
	envProvider := env.Provider("GAZE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "gaze_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if cfg.SourceDir == "" {
		return nil, errors.New("source_dir must not be empty")
	}
	if cfg.DBPath == "" {
		return nil, errors.New("db_path must not be empty")
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &cfg, nil
}
