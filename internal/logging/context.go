package logging

import "context"

type ctxKey struct{}

// ContextWithRequestID returns a copy of ctx carrying the request id.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// RequestID returns the request id stored in ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// For returns a logger tagged with the request id from ctx, or l itself when
// ctx carries none.
func (l *Logger) For(ctx context.Context) *Logger {
	if id := RequestID(ctx); id != "" {
		return l.With("requestId", id)
	}
	return l
}
