// Package metrics provides Prometheus metrics collection for the CKD risk
// predictor. It defines counters, gauges, and histograms covering prediction
// throughput, validation failures, model health, and request latency, all
// exposed via the Prometheus metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the predictor service.
type Metrics struct {
	// Prediction metrics
	PredictionsTotal   prometheus.Counter   // Total predictions served
	PredictionFailures prometheus.Counter   // Predictions that errored
	FallbackUse        prometheus.Counter   // Predictions served by the heuristic fallback
	PredictionLatency  prometheus.Histogram // End-to-end prediction latency in seconds
	RiskScores         prometheus.Histogram // Distribution of predicted risk probabilities
	ModelAge           prometheus.Gauge     // Age of the loaded model artifact in seconds
	ModelLoadErrors    prometheus.Counter   // Model artifact load failures

	// Input metrics
	ValidationFailures prometheus.Counter // Submissions rejected by input validation

	// HTTP and system metrics
	RequestsTotal prometheus.Counter // HTTP requests served
	HistoryWrites prometheus.Counter // Prediction records persisted
	ErrorsTotal   prometheus.Counter // Total errors encountered
}

// New creates and registers all metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		PredictionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total number of risk predictions served",
		}),
		PredictionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "prediction_failures_total",
			Help: "Total number of predictions that failed",
		}),
		FallbackUse: factory.NewCounter(prometheus.CounterOpts{
			Name: "fallback_use_total",
			Help: "Total number of predictions served by the heuristic fallback",
		}),
		PredictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prediction_latency_seconds",
			Help:    "Prediction latency in seconds (end-to-end)",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		RiskScores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "risk_scores",
			Help:    "Distribution of predicted CKD risk probabilities",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		ModelAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "model_age_seconds",
			Help: "Age of the loaded model artifact in seconds",
		}),
		ModelLoadErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "model_load_errors_total",
			Help: "Total number of model artifact load failures",
		}),
		ValidationFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "validation_failures_total",
			Help: "Total number of submissions rejected by input validation",
		}),
		RequestsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "requests_total",
			Help: "Total number of HTTP requests served",
		}),
		HistoryWrites: factory.NewCounter(prometheus.CounterOpts{
			Name: "history_writes_total",
			Help: "Total number of prediction records persisted",
		}),
		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors encountered",
		}),
	}
}
