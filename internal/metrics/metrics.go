// Package metrics holds the Prometheus instruments of the service. They are
// registered on the default registry at init and served by the /metrics
// endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediaconvert_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediaconvert_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediaconvert_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Conversion metrics
var (
	ConversionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediaconvert_conversions_total",
			Help: "Total number of conversions by backend, tool and outcome",
		},
		[]string{"backend", "tool", "outcome"},
	)

	ConversionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediaconvert_conversion_duration_seconds",
			Help:    "Conversion duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"backend"},
	)

	ConversionInputBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediaconvert_conversion_input_bytes",
			Help:    "Size of conversion inputs in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10), // 1KB .. 256MB
		},
		[]string{"backend"},
	)

	PlaceholderResultsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediaconvert_placeholder_results_total",
			Help: "Total number of results that carry placeholder content",
		},
	)
)

// Video engine metrics
var (
	VideoEngineState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mediaconvert_video_engine_state",
			Help: "Current video engine state (1 for the active state, 0 otherwise)",
		},
		[]string{"state"},
	)

	VideoTranscodesInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediaconvert_video_transcodes_in_flight",
			Help: "Number of ffmpeg processes currently running",
		},
	)
)

// Publish metrics
var (
	PublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediaconvert_publish_total",
			Help: "Total number of result uploads to object storage",
		},
		[]string{"status"},
	)
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// OtherTool labels conversions whose tool id is not known to any backend.
const OtherTool = "other"

// EngineStates lists every state label of VideoEngineState.
var EngineStates = []string{"unloaded", "loading", "ready"}

// ObserveConversion records one finished conversion.
func ObserveConversion(backend, tool string, err error, elapsed time.Duration, inputBytes int) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	ConversionsTotal.WithLabelValues(backend, tool, outcome).Inc()
	ConversionDuration.WithLabelValues(backend).Observe(elapsed.Seconds())
	ConversionInputBytes.WithLabelValues(backend).Observe(float64(inputBytes))
}

// SetVideoEngineState marks state as the active engine state.
func SetVideoEngineState(state string) {
	for _, s := range EngineStates {
		v := 0.0
		if s == state {
			v = 1
		}
		VideoEngineState.WithLabelValues(s).Set(v)
	}
}
