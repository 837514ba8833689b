package logger

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey int

const traceIDKey ctxKey = 0

// WithTraceID attaches a trace id to ctx so every *WithFields call made
// while handling this request carries it through to the log line.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// GetTraceID extracts the trace id WithTraceID attached, or "" if none.
func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if traceID, ok := ctx.Value(traceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// NewTraceID mints a trace id for one accepted connection. The server
// worker's handleConnection calls this once per connection and threads the
// resulting context through its handlers so every line logged for that
// connection's lifetime can be grepped out of the shared log file.
func NewTraceID() string {
	return uuid.NewString()
}
