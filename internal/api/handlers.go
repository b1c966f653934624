package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gazelab/gaze.report/internal/db"
	"github.com/gazelab/gaze.report/internal/gaze"
	"github.com/gazelab/gaze.report/internal/ingest"
	"github.com/gazelab/gaze.report/internal/telemetry"
	"github.com/gazelab/gaze.report/internal/version"
)

func (s *Server) listTrials(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	trials, err := s.db.ListTrials(r.Context())
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve trials: %v", err))
		return
	}

	if err := json.NewEncoder(w).Encode(trials); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write trials")
		return
	}
}

func (s *Server) listFixations(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	trial, ok := s.trialParam(w, r)
	if !ok {
		return
	}

	events, err := s.db.FixationsForTrial(r.Context(), trial, s.modelVersion)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve fixations: %v", err))
		return
	}

	// fixation rows are NaN-free once the aggregator has filtered them, so
	// they can be encoded as-is.
	if err := json.NewEncoder(w).Encode(events); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write fixations")
		return
	}
}

func (s *Server) listSaccades(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	trial, ok := s.trialParam(w, r)
	if !ok {
		return
	}

	events, err := s.db.SaccadesForTrial(r.Context(), trial, s.modelVersion)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve saccades: %v", err))
		return
	}

	apiEvents := make([]db.SaccadeEventAPI, len(events))
	for i, e := range events {
		apiEvents[i] = s.convertSaccadeAPI(db.SaccadeEventAPI{SaccadeEvent: e})
	}

	if err := json.NewEncoder(w).Encode(apiEvents); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write saccades")
		return
	}
}

func (s *Server) listPupil(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	trial, ok := s.trialParam(w, r)
	if !ok {
		return
	}

	pupils, err := s.db.PupilsForTrial(r.Context(), trial, s.modelVersion)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve pupil samples: %v", err))
		return
	}

	// pupil rows keep NaN for values the pipeline could not derive, and
	// encoding/json refuses NaN. The API mirror turns those into null.
	apiPupils := make([]db.PupilSampleAPI, len(pupils))
	for i, p := range pupils {
		apiPupils[i] = db.PupilSampleToAPI(p)
	}

	if err := json.NewEncoder(w).Encode(apiPupils); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write pupil samples")
		return
	}
}

func (s *Server) listTrialMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	metrics, err := s.db.TrialMetricsAll(r.Context(), s.modelVersion)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve trial metrics: %v", err))
		return
	}

	apiMetrics := make([]db.TrialMetricsAPI, len(metrics))
	for i, m := range metrics {
		apiMetrics[i] = db.TrialMetricsToAPI(m)
	}

	if err := json.NewEncoder(w).Encode(apiMetrics); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write trial metrics")
		return
	}
}

func (s *Server) listSubjectMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	metrics, err := s.db.SubjectMetricsAll(r.Context(), s.modelVersion)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve subject metrics: %v", err))
		return
	}

	apiMetrics := make([]db.SubjectMetricsAPI, len(metrics))
	for i, m := range metrics {
		apiMetrics[i] = db.SubjectMetricsToAPI(m)
	}

	if err := json.NewEncoder(w).Encode(apiMetrics); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write subject metrics")
		return
	}
}

func (s *Server) showSummary(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	summary, err := s.db.Summarize(r.Context(), s.modelVersion)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve summary: %v", err))
		return
	}

	if err := json.NewEncoder(w).Encode(summary); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write summary")
		return
	}
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	runs, err := s.db.ListAnalysisRuns(r.Context())
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve analysis runs: %v", err))
		return
	}

	if err := json.NewEncoder(w).Encode(runs); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write analysis runs")
		return
	}
}

// ingestTrial accepts one trial CSV, either as a multipart upload under the
// "trial" field or as a raw request body. The subject/question pair comes
// from query parameters when given, otherwise from the filename. Samples
// replace whatever the trial already had; the event worker notices the
// changed sample count and recomputes events on its next pass.
func (s *Server) ingestTrial(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var body io.ReadCloser
	var name string
	if file, header, err := r.FormFile("trial"); err == nil {
		body, name = file, header.Filename
	} else {
		body, name = r.Body, r.URL.Query().Get("filename")
	}
	defer body.Close()

	trial := gaze.TrialID{
		Subject:  r.URL.Query().Get("subject"),
		Question: r.URL.Query().Get("question"),
	}
	if trial.Subject == "" || trial.Question == "" {
		var err error
		trial, err = ingest.TrialIDFromFilename(name)
		if err != nil {
			s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Cannot derive trial from filename: %v", err))
			return
		}
	}

	raw, err := ingest.ReadTrial(body)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Failed to read trial CSV: %v", err))
		return
	}

	samples, warnings, err := gaze.Normalize(raw, trial)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Failed to normalize trial: %v", err))
		return
	}

	if err := s.db.ReplaceTrialSamples(r.Context(), trial, samples); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to store samples: %v", err))
		return
	}

	telemetry.RecordSamplesIngested(len(samples))
	telemetry.RecordCoercionWarnings(len(warnings))

	warningStrings := make([]string, len(warnings))
	for i, cw := range warnings {
		warningStrings[i] = cw.String()
	}

	resp := map[string]interface{}{
		"subject":  trial.Subject,
		"question": trial.Question,
		"samples":  len(samples),
		"warnings": warningStrings,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write ingest response")
		return
	}
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	config := map[string]interface{}{
		"server_version":           version.Version,
		"model_version":            s.modelVersion,
		"units":                    s.units,
		"screen_width_px":          s.cfg.GetScreenWidthPX(),
		"screen_height_px":         s.cfg.GetScreenHeightPX(),
		"baseline_window_ms":       s.cfg.GetBaselineWindowMS(),
		"fixation_duration_min_ms": s.cfg.GetFixationDurationMinMS(),
		"fixation_duration_max_ms": s.cfg.GetFixationDurationMaxMS(),
		"saccade_amplitude_max_px": s.cfg.GetSaccadeAmplitudeMaxPX(),
		"pupil_change_rate_max":    s.cfg.GetPupilChangeRateMaxAbs(),
	}
	if s.cfg.ScreenWidthMM != nil {
		config["screen_width_mm"] = s.cfg.GetScreenWidthMM()
	}
	if s.cfg.ViewingDistanceMM != nil {
		config["viewing_distance_mm"] = s.cfg.GetViewingDistanceMM()
	}

	if err := json.NewEncoder(w).Encode(config); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write config")
		return
	}
}
