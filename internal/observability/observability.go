// Package observability provides structured logging and metrics collection
// for the auto-downloader. Core code depends on the Logger and Metrics
// interfaces; concrete implementations are chosen at startup.
package observability

import (
	"context"
	"io"
	"sync"
)

// Fields represents structured logging fields as key-value pairs.
type Fields map[string]interface{}

// Logger is the contract for structured, context-aware logging.
// Implementations emit JSON lines suitable for log aggregation.
type Logger interface {
	Debug(ctx context.Context, msg string, fields Fields)
	Info(ctx context.Context, msg string, fields Fields)
	Warn(ctx context.Context, msg string, fields Fields)
	Error(ctx context.Context, msg string, err error, fields Fields)

	// WithFields returns a Logger that includes the given fields in every
	// subsequent entry.
	WithFields(fields Fields) Logger
}

// Metrics is the contract for metrics collection. Implementations should be
// Prometheus-compatible and follow Prometheus naming conventions.
type Metrics interface {
	RecordSuccess(operation string)
	RecordError(operation string, errorType string)
	// RecordDuration records an operation duration in seconds.
	RecordDuration(operation string, seconds float64)
	RecordFileSize(fileType string, bytes int64)
	// StartOperation/EndOperation bracket an in-flight operation for the
	// in-progress gauge. EndOperation belongs in a defer.
	StartOperation(operation string)
	EndOperation(operation string)
}

// Config holds provider-level observability settings.
type Config struct {
	ServiceName string
	Environment string
	LogLevel    string
	// LogOutput defaults to os.Stdout when nil.
	LogOutput io.Writer
}

// Provider hands out per-component Logger and Metrics instances sharing one
// underlying sink and one Prometheus registration.
type Provider struct {
	cfg     Config
	mu      sync.Mutex
	root    Logger
	metrics Metrics
	loggers map[string]Logger
}

// NewProvider creates a Provider. Metrics are registered once against the
// default Prometheus registerer.
func NewProvider(cfg Config) *Provider {
	return &Provider{
		cfg:     cfg,
		root:    NewJSONLogger(cfg.ServiceName, cfg.Environment, cfg.LogLevel, cfg.LogOutput),
		metrics: NewPrometheusMetrics(cfg.ServiceName, nil),
		loggers: make(map[string]Logger),
	}
}

// Logger returns a logger tagged with the component name. Repeated calls with
// the same component return the same instance.
func (p *Provider) Logger(component string) Logger {
	p.mu.Lock()
	defer p.mu.Unlock()

	if l, ok := p.loggers[component]; ok {
		return l
	}
	l := p.root.WithFields(Fields{"component": component})
	p.loggers[component] = l
	return l
}

// Metrics returns the shared metrics collector.
func (p *Provider) Metrics() Metrics {
	return p.metrics
}
