package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Logger is the minimal logging interface used across the service.
// The *WithContext variants correlate log lines with the active trace.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})

	DebugWithContext(ctx context.Context, msg string, fields map[string]interface{})
	InfoWithContext(ctx context.Context, msg string, fields map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, fields map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, fields map[string]interface{})
}

const (
	levelDebug = iota
	levelInfo
	levelWarn
	levelError
)

func parseLevel(s string) int {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return levelDebug
	case "WARN", "WARNING":
		return levelWarn
	case "ERROR":
		return levelError
	default:
		return levelInfo
	}
}

// ProductionLogger writes leveled, structured log lines.
// Format is JSON when running in Kubernetes (for log aggregation) and
// human-readable text otherwise; both can be overridden explicitly.
type ProductionLogger struct {
	serviceName string
	level       int
	format      string
	output      io.Writer
	mu          sync.Mutex
}

// Option configures a ProductionLogger.
type Option func(*ProductionLogger)

// WithLevel sets the minimum level ("DEBUG", "INFO", "WARN", "ERROR").
func WithLevel(level string) Option {
	return func(l *ProductionLogger) { l.level = parseLevel(level) }
}

// WithFormat sets the output format ("json" or "text").
func WithFormat(format string) Option {
	return func(l *ProductionLogger) { l.format = format }
}

// WithOutput redirects log output, primarily for tests.
func WithOutput(w io.Writer) Option {
	return func(l *ProductionLogger) { l.output = w }
}

// NewLogger creates a production logger for a service.
// Defaults: INFO level, JSON format inside Kubernetes, text elsewhere.
func NewLogger(serviceName string, opts ...Option) *ProductionLogger {
	format := "text"
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		format = "json"
	}

	l := &ProductionLogger{
		serviceName: serviceName,
		level:       levelInfo,
		format:      format,
		output:      os.Stdout,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *ProductionLogger) log(level int, levelName, msg string, fields map[string]interface{}) {
	if level < l.level {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339Nano)

	if l.format == "json" {
		entry := map[string]interface{}{
			"timestamp": now,
			"level":     levelName,
			"service":   l.serviceName,
			"message":   msg,
		}
		for k, v := range fields {
			if err, ok := v.(error); ok {
				entry[k] = err.Error()
				continue
			}
			entry[k] = v
		}
		data, err := json.Marshal(entry)
		if err != nil {
			fmt.Fprintf(l.output, "{\"timestamp\":%q,\"level\":%q,\"message\":%q}\n", now, levelName, msg)
			return
		}
		fmt.Fprintln(l.output, string(data))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s [%s] %s: %s", now, levelName, l.serviceName, msg)
	for k, v := range fields {
		fmt.Fprintf(&sb, " %s=%v", k, v)
	}
	fmt.Fprintln(l.output, sb.String())
}

// logWithContext appends trace correlation fields when a span is recording.
func (l *ProductionLogger) logWithContext(ctx context.Context, level int, levelName, msg string, fields map[string]interface{}) {
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		enriched := make(map[string]interface{}, len(fields)+2)
		for k, v := range fields {
			enriched[k] = v
		}
		enriched["trace_id"] = span.SpanContext().TraceID().String()
		enriched["span_id"] = span.SpanContext().SpanID().String()
		fields = enriched
	}
	l.log(level, levelName, msg, fields)
}

func (l *ProductionLogger) Debug(msg string, fields map[string]interface{}) {
	l.log(levelDebug, "DEBUG", msg, fields)
}

func (l *ProductionLogger) Info(msg string, fields map[string]interface{}) {
	l.log(levelInfo, "INFO", msg, fields)
}

func (l *ProductionLogger) Warn(msg string, fields map[string]interface{}) {
	l.log(levelWarn, "WARN", msg, fields)
}

func (l *ProductionLogger) Error(msg string, fields map[string]interface{}) {
	l.log(levelError, "ERROR", msg, fields)
}

func (l *ProductionLogger) DebugWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.logWithContext(ctx, levelDebug, "DEBUG", msg, fields)
}

func (l *ProductionLogger) InfoWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.logWithContext(ctx, levelInfo, "INFO", msg, fields)
}

func (l *ProductionLogger) WarnWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.logWithContext(ctx, levelWarn, "WARN", msg, fields)
}

func (l *ProductionLogger) ErrorWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.logWithContext(ctx, levelError, "ERROR", msg, fields)
}

// NoOpLogger discards everything. Useful as a default and in tests.
type NoOpLogger struct{}

func (NoOpLogger) Debug(msg string, fields map[string]interface{}) {}
func (NoOpLogger) Info(msg string, fields map[string]interface{})  {}
func (NoOpLogger) Warn(msg string, fields map[string]interface{})  {}
func (NoOpLogger) Error(msg string, fields map[string]interface{}) {}

func (NoOpLogger) DebugWithContext(ctx context.Context, msg string, fields map[string]interface{}) {}
func (NoOpLogger) InfoWithContext(ctx context.Context, msg string, fields map[string]interface{})  {}
func (NoOpLogger) WarnWithContext(ctx context.Context, msg string, fields map[string]interface{})  {}
func (NoOpLogger) ErrorWithContext(ctx context.Context, msg string, fields map[string]interface{}) {}
