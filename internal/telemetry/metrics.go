package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	requestDuration *prometheus.HistogramVec
	requestCount    *prometheus.CounterVec

	uploadBytes      prometheus.Counter
	trainingDuration *prometheus.HistogramVec
	trainingCount    *prometheus.CounterVec
	predictionCount  *prometheus.CounterVec
}

// NewMetrics registers the service's collectors under the given namespace.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"handler", "method", "status"},
		),
		requestCount: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"handler", "method", "status"},
		),
		uploadBytes: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upload_bytes_total",
				Help:      "Total bytes of uploaded datasets",
			},
		),
		trainingDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "training_duration_seconds",
				Help:      "Duration of model training runs",
				Buckets:   []float64{.1, .5, 1, 5, 15, 30, 60, 120, 300},
			},
			[]string{"problem_type", "status"},
		),
		trainingCount: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "training_runs_total",
				Help:      "Total number of model training runs",
			},
			[]string{"problem_type", "status"},
		),
		predictionCount: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_predictions_total",
				Help:      "Total number of scored prediction records",
			},
			[]string{"model_id"},
		),
	}
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(handler, method, status string, duration time.Duration) {
	m.requestDuration.WithLabelValues(handler, method, status).Observe(duration.Seconds())
	m.requestCount.WithLabelValues(handler, method, status).Inc()
}

// ObserveUpload records the size of an accepted dataset upload.
func (m *Metrics) ObserveUpload(bytes int) {
	m.uploadBytes.Add(float64(bytes))
}

// ObserveTraining records one finished training run.
func (m *Metrics) ObserveTraining(problemType, status string, duration time.Duration) {
	m.trainingDuration.WithLabelValues(problemType, status).Observe(duration.Seconds())
	m.trainingCount.WithLabelValues(problemType, status).Inc()
}

// ObservePredictions records how many records one prediction call scored.
func (m *Metrics) ObservePredictions(modelID string, records int) {
	m.predictionCount.WithLabelValues(modelID).Add(float64(records))
}
