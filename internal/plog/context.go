package plog

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds client-instance-scoped logging context. Unlike a
// server's per-request context, one LogContext is built once at Connect
// and threaded through a single client's blocking calls.
type LogContext struct {
	StoreSocket string    // store_socket_path this client is attached to
	ManagerSet  bool      // whether a manager connection was configured
	Op          string    // current public operation name (Create, Get, Wait, ...)
	ObjectID    string    // hex-encoded ObjectID the current op concerns, if any
	StartTime   time.Time // for duration calculation
}

// WithContext returns a new context with the given LogContext.
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present.
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext scoped to one store socket.
func NewLogContext(storeSocket string) *LogContext {
	return &LogContext{
		StoreSocket: storeSocket,
		StartTime:   time.Now(),
	}
}

// Clone creates a copy of the LogContext.
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	clone := *lc
	return &clone
}

// WithOp returns a copy with the current operation and object id set.
func (lc *LogContext) WithOp(op, objectID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Op = op
		clone.ObjectID = objectID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds.
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
