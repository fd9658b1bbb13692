package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	l := zap.NewExample()
	assert.Same(t, l, FromContext(WithContext(context.Background(), l)))
}

func TestContextChaining(t *testing.T) {
	l := zap.NewNop()
	ctx := context.Background()

	ctx, l = WithRequestID(ctx, l, "req-1")
	ctx, l = WithChannelID(ctx, l, "channel-1")
	ctx, _ = WithUserID(ctx, l, "user-1")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "channel-1", GetChannelID(ctx))
	assert.Equal(t, "user-1", GetUserID(ctx))
}

func TestGetters_NotFound(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetChannelID(ctx))
	assert.Empty(t, GetUserID(ctx))
	assert.Empty(t, GetTraceID(ctx))
}

func TestContextLogger_EnrichesWithContextFields(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	ctx := WithContext(context.Background(), zap.New(core))
	ctx = context.WithValue(ctx, RequestIDKey, "req-9")
	ctx = context.WithValue(ctx, ChannelIDKey, "channel-9")

	L(ctx).With(zap.String("extra", "x")).Info("allocated")

	logs := recorded.All()
	assert.Len(t, logs, 1)
	fields := logs[0].ContextMap()
	assert.Equal(t, "req-9", fields["request_id"])
	assert.Equal(t, "channel-9", fields["channel_id"])
	assert.Equal(t, "x", fields["extra"])
	assert.NotContains(t, fields, "user_id")
}

func TestContextLogger_WithSpan(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1, 2, 3},
		SpanID:     trace.SpanID{4, 5, 6},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), spanCtx)

	WithLogger(ctx, zap.New(core)).Warn("slow")

	assert.Equal(t, spanCtx.TraceID().String(), GetTraceID(ctx))
	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, spanCtx.TraceID().String(), fields["trace_id"])
	assert.Equal(t, spanCtx.SpanID().String(), fields["span_id"])
}

func TestContextLogger_NilLogger(t *testing.T) {
	cl := WithLogger(context.Background(), nil)
	assert.NotPanics(t, func() {
		cl.Debug("d")
		cl.With(zap.Int("n", 1)).Error("e")
	})
	assert.NotNil(t, cl.Zap())
}
