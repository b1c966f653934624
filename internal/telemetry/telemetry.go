// Package telemetry exposes Prometheus counters for the analysis pipeline.
// Metrics live on a custom registry so the /metrics endpoint stays free of
// the default Go runtime collectors.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager holds all Prometheus metrics for the analysis service.
type Manager struct {
	registry prometheus.Registerer

	trialsProcessed  prometheus.Counter
	trialsFailed     prometheus.Counter
	samplesIngested  prometheus.Counter
	coercionWarnings prometheus.Counter
	fixationsEmitted prometheus.Counter
	saccadesEmitted  prometheus.Counter
	trialSeconds     prometheus.Histogram
}

var globalManager *Manager

var customRegistry = prometheus.NewRegistry()

func init() {
	globalManager = NewManager(customRegistry)
}

// NewManager creates a metrics manager registered on the given registry.
func NewManager(reg prometheus.Registerer) *Manager {
	m := &Manager{registry: reg}

	auto := promauto.With(reg)

	m.trialsProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: "gaze",
		Subsystem: "pipeline",
		Name:      "trials_processed_total",
		Help:      "Total number of trials processed successfully",
	})

	m.trialsFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: "gaze",
		Subsystem: "pipeline",
		Name:      "trials_failed_total",
		Help:      "Total number of trials that failed processing",
	})

	m.samplesIngested = auto.NewCounter(prometheus.CounterOpts{
		Namespace: "gaze",
		Subsystem: "pipeline",
		Name:      "samples_ingested_total",
		Help:      "Total number of samples read from trial sources",
	})

	m.coercionWarnings = auto.NewCounter(prometheus.CounterOpts{
		Namespace: "gaze",
		Subsystem: "pipeline",
		Name:      "coercion_warnings_total",
		Help:      "Total number of cells degraded to NA during normalization",
	})

	m.fixationsEmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: "gaze",
		Subsystem: "pipeline",
		Name:      "fixation_events_total",
		Help:      "Total number of fixation events emitted",
	})

	m.saccadesEmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: "gaze",
		Subsystem: "pipeline",
		Name:      "saccade_events_total",
		Help:      "Total number of saccade events emitted",
	})

	m.trialSeconds = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gaze",
		Subsystem: "pipeline",
		Name:      "trial_processing_seconds",
		Help:      "Histogram of per-trial processing time in seconds",
		Buckets:   prometheus.DefBuckets,
	})

	return m
}

// RecordTrialProcessed increments the processed trials counter.
func RecordTrialProcessed() {
	globalManager.trialsProcessed.Inc()
}

// RecordTrialFailed increments the failed trials counter.
func RecordTrialFailed() {
	globalManager.trialsFailed.Inc()
}

// RecordSamplesIngested adds to the ingested samples counter.
func RecordSamplesIngested(n int) {
	globalManager.samplesIngested.Add(float64(n))
}

// RecordCoercionWarnings adds to the coercion warnings counter.
func RecordCoercionWarnings(n int) {
	globalManager.coercionWarnings.Add(float64(n))
}

// RecordEventsEmitted adds to the fixation and saccade event counters.
func RecordEventsEmitted(fixations, saccades int) {
	globalManager.fixationsEmitted.Add(float64(fixations))
	globalManager.saccadesEmitted.Add(float64(saccades))
}

// RecordTrialSeconds records one trial's processing time.
func RecordTrialSeconds(seconds float64) {
	globalManager.trialSeconds.Observe(seconds)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Handler serves the custom registry in Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(customRegistry, promhttp.HandlerOpts{})
}
