package logger

import (
	"context"
	"time"
)

type contextKey struct{}

var logContextKey = contextKey{}

// LogContext holds request-scoped logging fields. It is treated as
// immutable once stored in a context; the With* methods return copies.
type LogContext struct {
	RequestID string    // chi request id
	TraceID   string    // OpenTelemetry trace ID
	SpanID    string    // OpenTelemetry span ID
	Method    string    // HTTP method
	ClientIP  string    // Client IP address (without port)
	Share     string    // Remote host and share, e.g. smb://fileserver/media
	Path      string    // Path inside the share
	Range     string    // Raw Range header, if any
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

// NewLogContext creates a LogContext for one HTTP request.
func NewLogContext(requestID, method, clientIP string) *LogContext {
	return &LogContext{
		RequestID: requestID,
		Method:    method,
		ClientIP:  clientIP,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	c := *lc
	return &c
}

// WithTarget returns a copy with the share and path set.
func (lc *LogContext) WithTarget(share, path string) *LogContext {
	c := lc.Clone()
	if c != nil {
		c.Share = share
		c.Path = path
	}
	return c
}

// WithRange returns a copy with the Range header set.
func (lc *LogContext) WithRange(header string) *LogContext {
	c := lc.Clone()
	if c != nil {
		c.Range = header
	}
	return c
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	c := lc.Clone()
	if c != nil {
		c.TraceID = traceID
		c.SpanID = spanID
	}
	return c
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
