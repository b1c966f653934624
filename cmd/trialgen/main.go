// Command trialgen writes synthetic eye-tracker trial CSVs for demos and
// batch pipeline smoke tests. Headers use the tracker's raw spellings
// ("gaze x", "left/pupil radius px") and gap rows carry the -1 gaze
// sentinel, so a generated directory also exercises header normalization
// and sentinel recoding on ingest.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gazelab/gaze.report/internal/gaze"
	"github.com/gazelab/gaze.report/internal/ingest"
)

var rawHeader = []string{
	"timestamp ms",
	"gaze x",
	"gaze y",
	"fixation run id",
	"left/pupil radius px",
	"right/pupil radius px",
	"fixation duration s",
}

// trialGenerator emits synthetic trials one at a time. All randomness comes
// from rng, so a fixed seed reproduces the same files byte for byte.
type trialGenerator struct {
	SampleRateHz float64 // tracker sampling rate
	Runs         int     // fixation runs per trial
	RunSamples   int     // samples per fixation run
	GapSamples   int     // samples between runs, and before the first
	PupilBasePX  float64 // resting pupil radius
	Corrupt      float64 // fraction of rows given an unparsable gaze x

	rng *rand.Rand
}

func newTrialGenerator(seed int64) *trialGenerator {
	return &trialGenerator{
		SampleRateHz: 100,
		Runs:         8,
		RunSamples:   30,
		GapSamples:   5,
		PupilBasePX:  3.5,
		rng:          rand.New(rand.NewSource(seed)),
	}
}

// WriteTrial writes one trial: the raw header, then alternating gap and
// fixation stretches. Gap rows get run id 0 and -1 gaze; fixation rows
// share a run id and jitter around a fixed point.
func (g *trialGenerator) WriteTrial(w *csv.Writer) error {
	if err := w.Write(rawHeader); err != nil {
		return err
	}

	stepMS := 1000 / g.SampleRateHz
	runDurS := float64(g.RunSamples) * stepMS / 1000
	ts := 0.0

	row := func(gx, gy string, runID int, fixDur string) error {
		left := g.pupilPX(ts)
		right := left + g.rng.NormFloat64()*0.05
		// occasional single-eye dropout, recorded as a zero radius
		if g.rng.Float64() < 0.01 {
			left = 0
		}
		if g.Corrupt > 0 && g.rng.Float64() < g.Corrupt {
			gx = "??"
		}
		err := w.Write([]string{
			formatFloat(ts),
			gx,
			gy,
			strconv.Itoa(runID),
			formatFloat(left),
			formatFloat(right),
			fixDur,
		})
		ts += stepMS
		return err
	}

	for run := 1; run <= g.Runs; run++ {
		for i := 0; i < g.GapSamples; i++ {
			if err := row("-1", "-1", 0, "-1"); err != nil {
				return err
			}
		}
		cx := 0.05 + 0.9*g.rng.Float64()
		cy := 0.05 + 0.9*g.rng.Float64()
		for i := 0; i < g.RunSamples; i++ {
			gx := formatFloat(cx + g.rng.NormFloat64()*0.002)
			gy := formatFloat(cy + g.rng.NormFloat64()*0.002)
			if err := row(gx, gy, run, formatFloat(runDurS)); err != nil {
				return err
			}
		}
	}
	return nil
}

// pupilPX models a slow dilation wave on top of the resting radius.
func (g *trialGenerator) pupilPX(tsMS float64) float64 {
	return g.PupilBasePX + 0.2*math.Sin(2*math.Pi*tsMS/4000) + g.rng.NormFloat64()*0.02
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func main() {
	var outDir string
	var subjects int
	var questions int
	var seed int64
	var corrupt float64

	flag.StringVar(&outDir, "o", "data", "output directory")
	flag.IntVar(&subjects, "subjects", 3, "number of subjects")
	flag.IntVar(&questions, "questions", 4, "trials per subject")
	flag.Int64Var(&seed, "seed", 1, "rng seed; the same seed reproduces the same files")
	flag.Float64Var(&corrupt, "corrupt", 0, "fraction of rows given an unparsable gaze cell")
	flag.Parse()

	if subjects < 1 || questions < 1 {
		log.Fatalf("subjects and questions must be at least 1")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Fatalf("mkdir %s: %v", outDir, err)
	}

	gen := newTrialGenerator(seed)
	gen.Corrupt = corrupt

	written := 0
	for s := 1; s <= subjects; s++ {
		for q := 1; q <= questions; q++ {
			trial := gaze.TrialID{
				Subject:  fmt.Sprintf("s%02d", s),
				Question: fmt.Sprintf("q%02d", q),
			}
			path := filepath.Join(outDir, ingest.FilenameForTrial(trial))
			if err := writeTrialFile(gen, path); err != nil {
				log.Fatalf("write %s: %v", path, err)
			}
			written++
			log.Printf("%d/%d trials", written, subjects*questions)
		}
	}
	log.Printf("✓ Created: %d trial files under %s", written, outDir)
}

func writeTrialFile(gen *trialGenerator, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := gen.WriteTrial(w); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
