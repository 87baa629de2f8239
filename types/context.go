package types

import "context"

// contextKey is used for storing values in context.Context.
type contextKey string

const (
	keyRequestID contextKey = "request_id"
	keyAttempt   contextKey = "attempt"
)

// WithRequestID adds the generation request ID to context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, keyRequestID, requestID)
}

// RequestID extracts the generation request ID from context.
func RequestID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyRequestID).(string)
	return v, ok && v != ""
}

// WithAttempt adds the 1-based attempt number to context.
func WithAttempt(ctx context.Context, attempt int) context.Context {
	return context.WithValue(ctx, keyAttempt, attempt)
}

// Attempt extracts the 1-based attempt number from context.
func Attempt(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(keyAttempt).(int)
	return v, ok
}
