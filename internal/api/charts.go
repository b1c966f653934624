package api

import (
	"bytes"
	"fmt"
	"math"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// viridis endpoints for the change-rate color scale
var viridisColors = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// gazeChart renders one trial's fixation positions with the saccade launch
// and landing points overlaid, in screen pixel coordinates. Debugging-only
// endpoint; the same data is available as JSON under /api/fixations and
// /api/saccades.
func (s *Server) gazeChart(w http.ResponseWriter, r *http.Request) {
	trial, ok := s.trialParam(w, r)
	if !ok {
		return
	}

	fixations, err := s.db.FixationsForTrial(r.Context(), trial, s.modelVersion)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve fixations: %v", err))
		return
	}
	saccades, err := s.db.SaccadesForTrial(r.Context(), trial, s.modelVersion)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve saccades: %v", err))
		return
	}
	if len(fixations) == 0 && len(saccades) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "No events recorded for this trial")
		return
	}

	fixPts := make([]opts.ScatterData, 0, len(fixations))
	for _, f := range fixations {
		fixPts = append(fixPts, opts.ScatterData{Value: []interface{}{f.XPX, f.YPX, f.DurationMS}})
	}
	launchPts := make([]opts.ScatterData, 0, len(saccades))
	landPts := make([]opts.ScatterData, 0, len(saccades))
	for _, sc := range saccades {
		launchPts = append(launchPts, opts.ScatterData{Value: []interface{}{sc.StartXPX, sc.StartYPX}})
		landPts = append(landPts, opts.ScatterData{Value: []interface{}{sc.EndXPX, sc.EndYPX}})
	}

	width := s.cfg.GetScreenWidthPX()
	height := s.cfg.GetScreenHeightPX()

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Gaze Map", Theme: "dark", Width: "1280px", Height: "720px"}),
		charts.WithTitleOpts(opts.Title{Title: "Gaze Map", Subtitle: fmt.Sprintf("trial=%s/%s fixations=%d saccades=%d", trial.Subject, trial.Question, len(fixations), len(saccades))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: width, Name: "x (px)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: height, Name: "y (px)", NameLocation: "middle", NameGap: 30}),
	)

	scatter.AddSeries("fixations", fixPts, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 12}), charts.WithItemStyleOpts(opts.ItemStyle{Color: "#35b779"}))
	scatter.AddSeries("saccade launch", launchPts, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}), charts.WithItemStyleOpts(opts.ItemStyle{Color: "#9e9e9e"}))
	scatter.AddSeries("saccade landing", landPts, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}), charts.WithItemStyleOpts(opts.ItemStyle{Color: "#ff5252"}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to render gaze chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// durationsChart renders a histogram of fixation durations across every
// trial, bucketed at 50ms.
func (s *Server) durationsChart(w http.ResponseWriter, r *http.Request) {
	durations, err := s.db.FixationDurations(r.Context(), s.modelVersion)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve durations: %v", err))
		return
	}
	if len(durations) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "No fixation events recorded")
		return
	}

	const bucketMS = 50.0
	// durations come back sorted ascending, so the last one sizes the axis
	nBuckets := int(durations[len(durations)-1]/bucketMS) + 1
	counts := make([]int, nBuckets)
	for _, d := range durations {
		counts[int(d/bucketMS)]++
	}

	x := make([]string, nBuckets)
	y := make([]opts.BarData, nBuckets)
	for i := 0; i < nBuckets; i++ {
		x[i] = fmt.Sprintf("%d-%d", i*int(bucketMS), (i+1)*int(bucketMS))
		y[i] = opts.BarData{Value: counts[i]}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Fixation Durations", Theme: "dark", Width: "1280px", Height: "720px"}),
		charts.WithTitleOpts(opts.Title{Title: "Fixation Durations", Subtitle: fmt.Sprintf("model=%s events=%d bucket=%.0fms", s.modelVersion, len(durations), bucketMS)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "duration (ms)", NameLocation: "middle", NameGap: 35}),
		charts.WithYAxisOpts(opts.YAxis{Name: "fixations", NameLocation: "middle", NameGap: 40}),
	)
	bar.SetXAxis(x).
		AddSeries("fixations", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to render durations chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// pupilChart renders one trial's pupil trace over time, colored by the
// baseline-relative change rate. Samples without a usable current radius are
// left out; the subtitle carries both counts.
func (s *Server) pupilChart(w http.ResponseWriter, r *http.Request) {
	trial, ok := s.trialParam(w, r)
	if !ok {
		return
	}

	pupils, err := s.db.PupilsForTrial(r.Context(), trial, s.modelVersion)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve pupil samples: %v", err))
		return
	}
	if len(pupils) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "No pupil samples recorded for this trial")
		return
	}

	data := make([]opts.ScatterData, 0, len(pupils))
	maxAbsRate := 0.0
	for _, p := range pupils {
		if math.IsNaN(p.TimestampMS) || math.IsNaN(p.CurrentPX) {
			continue
		}
		rate := p.ChangeRate
		if math.IsNaN(rate) {
			rate = 0
		}
		if math.Abs(rate) > maxAbsRate {
			maxAbsRate = math.Abs(rate)
		}
		data = append(data, opts.ScatterData{Value: []interface{}{p.TimestampMS, p.CurrentPX, rate}})
	}
	if maxAbsRate == 0 {
		maxAbsRate = 0.01
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Pupil Trace", Theme: "dark", Width: "1280px", Height: "720px"}),
		charts.WithTitleOpts(opts.Title{Title: "Pupil Trace", Subtitle: fmt.Sprintf("trial=%s/%s samples=%d plotted=%d", trial.Subject, trial.Question, len(pupils), len(data))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (ms)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "pupil (px)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(-maxAbsRate),
			Max:        float32(maxAbsRate),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridisColors},
		}),
	)
	scatter.AddSeries("pupil", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to render pupil chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
