package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// LogLevel represents the severity of a log message.
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// ParseLevel converts a string level to a LogLevel. Unrecognized values
// default to InfoLevel.
func ParseLevel(level string) LogLevel {
	switch level {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	default:
		return "unknown"
	}
}

// JSONLogger implements Logger with one JSON object per line, structured for
// log aggregation systems. Entries below the configured minimum level are
// dropped. Safe for concurrent use.
type JSONLogger struct {
	mu               sync.Mutex
	output           io.Writer
	serviceName      string
	environment      string
	hostname         string
	minLevel         LogLevel
	persistentFields Fields
}

// NewJSONLogger creates a JSONLogger. A nil output defaults to os.Stdout.
func NewJSONLogger(serviceName, environment, logLevel string, output io.Writer) *JSONLogger {
	if output == nil {
		output = os.Stdout
	}
	hostname, _ := os.Hostname()
	return &JSONLogger{
		output:           output,
		serviceName:      serviceName,
		environment:      environment,
		hostname:         hostname,
		minLevel:         ParseLevel(logLevel),
		persistentFields: Fields{},
	}
}

func (l *JSONLogger) Debug(ctx context.Context, msg string, fields Fields) {
	l.log(ctx, DebugLevel, msg, nil, fields)
}

func (l *JSONLogger) Info(ctx context.Context, msg string, fields Fields) {
	l.log(ctx, InfoLevel, msg, nil, fields)
}

func (l *JSONLogger) Warn(ctx context.Context, msg string, fields Fields) {
	l.log(ctx, WarnLevel, msg, nil, fields)
}

func (l *JSONLogger) Error(ctx context.Context, msg string, err error, fields Fields) {
	l.log(ctx, ErrorLevel, msg, err, fields)
}

// WithFields returns a copy of the logger carrying additional persistent
// fields. The receiver is unchanged.
func (l *JSONLogger) WithFields(fields Fields) Logger {
	merged := make(Fields, len(l.persistentFields)+len(fields))
	for k, v := range l.persistentFields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &JSONLogger{
		output:           l.output,
		serviceName:      l.serviceName,
		environment:      l.environment,
		hostname:         l.hostname,
		minLevel:         l.minLevel,
		persistentFields: merged,
	}
}

func (l *JSONLogger) log(_ context.Context, level LogLevel, msg string, err error, fields Fields) {
	if level < l.minLevel {
		return
	}

	entry := map[string]interface{}{
		"timestamp":   time.Now().UTC().Format(time.RFC3339Nano),
		"level":       level.String(),
		"service":     l.serviceName,
		"environment": l.environment,
		"hostname":    l.hostname,
		"message":     msg,
	}
	for k, v := range l.persistentFields {
		entry[k] = v
	}
	for k, v := range fields {
		entry[k] = v
	}
	if err != nil {
		entry["error"] = err.Error()
	}

	line, marshalErr := json.Marshal(entry)
	if marshalErr != nil {
		line = []byte(fmt.Sprintf(`{"level":"error","message":"failed to marshal log entry: %v"}`, marshalErr))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.output.Write(append(line, '\n'))
}
