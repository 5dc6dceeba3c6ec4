package slogx

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// WithContext stores logger for the rest of the request. The HTTP middleware
// seeds it with the request id, and the access services pull it back out
// with FromContext so lockout, login and termination lines share that id.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// WithAttrs extends the stored logger. Authentication tags it with user_id
// and session_id once the bearer token checks out.
func WithAttrs(ctx context.Context, args ...any) context.Context {
	return WithContext(ctx, FromContext(ctx).With(args...))
}
