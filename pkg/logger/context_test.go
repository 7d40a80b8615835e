package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureBase(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := defaultLogger
	t.Cleanup(func() { defaultLogger = prev })

	buf := &bytes.Buffer{}
	defaultLogger = slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return buf
}

func TestFromFallsBackToProcessLogger(t *testing.T) {
	captureBase(t)

	assert.Same(t, defaultLogger, From(context.Background()))
	assert.Empty(t, RequestID(context.Background()))
}

func TestRequestScopeAccumulates(t *testing.T) {
	buf := captureBase(t)

	ctx := WithRequestID(context.Background(), "req-42")
	ctx = With(ctx, "user_id", 7)
	From(ctx).Info("license listed")

	out := buf.String()
	assert.Contains(t, out, "request_id=req-42")
	assert.Contains(t, out, "user_id=7")
	assert.Equal(t, "req-42", RequestID(ctx))
}

func TestWithDoesNotLeakIntoParent(t *testing.T) {
	buf := captureBase(t)

	parent := WithRequestID(context.Background(), "req-1")
	_ = With(parent, "user_id", 9)
	From(parent).Info("parent line")

	assert.NotContains(t, buf.String(), "user_id")
}
