package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDurationSeconds is a histogram for HTTP request latencies
	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of response latency (seconds) of HTTP requests handled by the server.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route", "code"},
	)

	// InferenceLatencySeconds is a histogram for classifier-only latency
	InferenceLatencySeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "inference_latency_seconds",
			Help:    "Histogram of classifier latency (seconds) excluding decode and detection.",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	// DetectionLatencySeconds is a histogram for face detection latency
	DetectionLatencySeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "detection_latency_seconds",
			Help:    "Histogram of face detection latency (seconds).",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	// AnalysisTotal counts analyze requests by outcome
	AnalysisTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gender_analysis_total",
			Help: "Number of analyze requests by outcome (male, female, no_face, decode_error, unavailable, bad_request, internal_error).",
		},
		[]string{"outcome"},
	)

	// CacheRequestsTotal counts result cache lookups
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "result_cache_requests_total",
			Help: "Number of result cache lookups by result (hit, miss, error).",
		},
		[]string{"result"},
	)

	// ModelLoaded is a gauge per model component (1 = loaded, 0 = absent)
	ModelLoaded = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "model_loaded",
			Help: "Whether a model component loaded at startup (1 = loaded, 0 = absent).",
		},
		[]string{"component"},
	)

	// HealthStatus is a gauge indicating the health status of the service
	HealthStatus = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "health_status",
			Help: "Health status of the service (1 = healthy, 0 = unhealthy).",
		},
	)
)

// RecordHTTPLatency records the latency of an HTTP request
func RecordHTTPLatency(method, route, code string, seconds float64) {
	HTTPRequestDurationSeconds.WithLabelValues(method, route, code).Observe(seconds)
}

// RecordInferenceLatency records the latency of a classifier call
func RecordInferenceLatency(seconds float64) {
	InferenceLatencySeconds.Observe(seconds)
}

// RecordDetectionLatency records the latency of a detector call
func RecordDetectionLatency(seconds float64) {
	DetectionLatencySeconds.Observe(seconds)
}

// RecordAnalysis counts one analyze request outcome
func RecordAnalysis(outcome string) {
	AnalysisTotal.WithLabelValues(outcome).Inc()
}

// RecordCache counts one result cache lookup
func RecordCache(result string) {
	CacheRequestsTotal.WithLabelValues(result).Inc()
}

// SetModelLoaded records whether a model component is available
func SetModelLoaded(component string, loaded bool) {
	v := 0.0
	if loaded {
		v = 1
	}
	ModelLoaded.WithLabelValues(component).Set(v)
}

// SetHealthy sets the health status to healthy
func SetHealthy() {
	HealthStatus.Set(1)
}

// SetUnhealthy sets the health status to unhealthy
func SetUnhealthy() {
	HealthStatus.Set(0)
}
