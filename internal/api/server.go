// Package api serves the analysis results over HTTP: trial listings, derived
// events, metric rollups, CSV ingest and a couple of debug charts.
package api

import (
	"encoding/json"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gazelab/gaze.report/internal/config"
	"github.com/gazelab/gaze.report/internal/db"
	"github.com/gazelab/gaze.report/internal/gaze"
	"github.com/gazelab/gaze.report/internal/units"
)

// ANSI escape codes for request log coloring
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	db           *db.DB
	cfg          *config.AnalysisConfig
	modelVersion string
	units        string
	pxPerDeg     float64
}

func NewServer(database *db.DB, cfg *config.AnalysisConfig, modelVersion, displayUnits string) *Server {
	return &Server{
		db:           database,
		cfg:          cfg,
		modelVersion: modelVersion,
		units:        displayUnits,
		pxPerDeg: units.PXPerDeg(cfg.GetScreenWidthPX(),
			cfg.GetScreenWidthMM(), cfg.GetViewingDistanceMM()),
	}
}

// convertSaccadeAPI annotates a saccade with its amplitude in the server's
// display units. Pixel fields stay untouched; without a physical display
// geometry the annotation is omitted.
func (s *Server) convertSaccadeAPI(event db.SaccadeEventAPI) db.SaccadeEventAPI {
	if s.units != units.Deg {
		return event
	}
	deg := units.ConvertDistance(event.AmplitudePX, s.units, s.pxPerDeg)
	if math.IsNaN(deg) {
		return event
	}
	event.AmplitudeDeg = &deg
	return event
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/trials", s.listTrials)
	mux.HandleFunc("/api/fixations", s.listFixations)
	mux.HandleFunc("/api/saccades", s.listSaccades)
	mux.HandleFunc("/api/pupil", s.listPupil)
	mux.HandleFunc("/api/metrics/trials", s.listTrialMetrics)
	mux.HandleFunc("/api/metrics/subjects", s.listSubjectMetrics)
	mux.HandleFunc("/api/summary", s.showSummary)
	mux.HandleFunc("/api/runs", s.listRuns)
	mux.HandleFunc("/api/ingest", s.ingestTrial)
	mux.HandleFunc("/api/config", s.showConfig)
	mux.HandleFunc("/charts/gaze", s.gazeChart)
	mux.HandleFunc("/charts/durations", s.durationsChart)
	mux.HandleFunc("/charts/pupil", s.pupilChart)
	return mux
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// trialParam extracts the subject/question pair every per-trial endpoint
// takes. Returns false (with the error already written) when either is
// missing.
func (s *Server) trialParam(w http.ResponseWriter, r *http.Request) (gaze.TrialID, bool) {
	trial := gaze.TrialID{
		Subject:  r.URL.Query().Get("subject"),
		Question: r.URL.Query().Get("question"),
	}
	if trial.Subject == "" || trial.Question == "" {
		s.writeJSONError(w, http.StatusBadRequest, "Missing 'subject' or 'question' parameter")
		return gaze.TrialID{}, false
	}
	return trial, true
}
