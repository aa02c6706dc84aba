package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics implements Metrics using the Prometheus client library.
// All metric names are prefixed with the service name.
type PrometheusMetrics struct {
	processedTotal  *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	durationSeconds *prometheus.HistogramVec
	fileSizeBytes   *prometheus.HistogramVec
	inProgress      *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a PrometheusMetrics and registers its
// collectors. A nil registerer uses the default Prometheus registry.
func NewPrometheusMetrics(serviceName string, reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &PrometheusMetrics{
		processedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: fmt.Sprintf("%s_processed_total", serviceName),
				Help: fmt.Sprintf("Total processed operations by %s", serviceName),
			},
			[]string{"status", "operation"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: fmt.Sprintf("%s_errors_total", serviceName),
				Help: fmt.Sprintf("Total errors in %s", serviceName),
			},
			[]string{"error_type", "operation"},
		),
		durationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    fmt.Sprintf("%s_duration_seconds", serviceName),
				Help:    fmt.Sprintf("Operation duration in %s", serviceName),
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		fileSizeBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: fmt.Sprintf("%s_file_size_bytes", serviceName),
				Help: fmt.Sprintf("File sizes processed by %s", serviceName),
				// 1KB up to 1GB
				Buckets: prometheus.ExponentialBuckets(1024, 10, 7),
			},
			[]string{"file_type"},
		),
		inProgress: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: fmt.Sprintf("%s_in_progress", serviceName),
				Help: fmt.Sprintf("Operations currently in progress in %s", serviceName),
			},
			[]string{"operation"},
		),
	}

	reg.MustRegister(
		m.processedTotal,
		m.errorsTotal,
		m.durationSeconds,
		m.fileSizeBytes,
		m.inProgress,
	)

	return m
}

func (m *PrometheusMetrics) RecordSuccess(operation string) {
	m.processedTotal.WithLabelValues("success", operation).Inc()
}

func (m *PrometheusMetrics) RecordError(operation string, errorType string) {
	m.processedTotal.WithLabelValues("error", operation).Inc()
	m.errorsTotal.WithLabelValues(errorType, operation).Inc()
}

func (m *PrometheusMetrics) RecordDuration(operation string, seconds float64) {
	m.durationSeconds.WithLabelValues(operation).Observe(seconds)
}

func (m *PrometheusMetrics) RecordFileSize(fileType string, bytes int64) {
	m.fileSizeBytes.WithLabelValues(fileType).Observe(float64(bytes))
}

func (m *PrometheusMetrics) StartOperation(operation string) {
	m.inProgress.WithLabelValues(operation).Inc()
}

func (m *PrometheusMetrics) EndOperation(operation string) {
	m.inProgress.WithLabelValues(operation).Dec()
}
