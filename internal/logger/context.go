package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds request-scoped logging context
type LogContext struct {
	TraceID   string    // OpenTelemetry trace ID
	SpanID    string    // OpenTelemetry span ID
	BusID     string    // RS-485 bus identifier
	ReaderID  string    // Reader UUID
	Operation string    // Gateway operation name (poll, pipeline, feedback, ...)
	StartTime time.Time // For duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext for a reader/bus scoped operation
func NewLogContext(readerID string) *LogContext {
	return &LogContext{
		ReaderID:  readerID,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	return &LogContext{
		TraceID:   lc.TraceID,
		SpanID:    lc.SpanID,
		BusID:     lc.BusID,
		ReaderID:  lc.ReaderID,
		Operation: lc.Operation,
		StartTime: lc.StartTime,
	}
}

// WithBus returns a copy with the bus ID set
func (lc *LogContext) WithBus(busID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.BusID = busID
	}
	return clone
}

// WithReader returns a copy with the reader ID set
func (lc *LogContext) WithReader(readerID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.ReaderID = readerID
	}
	return clone
}

// WithOperation returns a copy with the operation name set
func (lc *LogContext) WithOperation(op string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Operation = op
	}
	return clone
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
