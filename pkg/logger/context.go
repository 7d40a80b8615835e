package logger

import (
	"context"
	"log/slog"
)

type scopeKey struct{}

// scope is the request-bound logging state carried in a context.
type scope struct {
	log       *slog.Logger
	requestID string
}

func scopeFrom(ctx context.Context) scope {
	if s, ok := ctx.Value(scopeKey{}).(scope); ok {
		return s
	}
	return scope{log: LoggerWrapper()}
}

// With scopes the context logger with extra attributes.
func With(ctx context.Context, fields ...any) context.Context {
	s := scopeFrom(ctx)
	s.log = s.log.With(fields...)
	return context.WithValue(ctx, scopeKey{}, s)
}

// WithRequestID records the request id and tags every later log line with it.
func WithRequestID(ctx context.Context, id string) context.Context {
	s := scopeFrom(ctx)
	s.log = s.log.With("request_id", id)
	s.requestID = id
	return context.WithValue(ctx, scopeKey{}, s)
}

// From returns the context logger, or the process logger outside a request.
func From(ctx context.Context) *slog.Logger {
	return scopeFrom(ctx).log
}

func RequestID(ctx context.Context) string {
	return scopeFrom(ctx).requestID
}
