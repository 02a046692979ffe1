package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	l, err := New("debug", "console")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = New("warn", "json")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))

	_, err = New("loud", "json")
	assert.Error(t, err)

	_, err = New("info", "xml")
	assert.Error(t, err)
}

func TestContextLoggerAddsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	cl := NewContextLogger(zap.New(core))

	ctx := WithRequestID(WithUserID(context.Background(), "user1"), "req-1")
	cl.LogInfo(ctx, "dispatched")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "user1", fields["user_id"])
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "req-1", RequestIDFrom(ctx))
}

func TestContextLoggerWithoutFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	cl := NewContextLogger(zap.New(core))

	cl.LogError(context.Background(), errors.New("boom"), "failed")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "error_occurred", entry.Message)
	assert.Equal(t, "failed", entry.ContextMap()["message"])
	assert.Equal(t, "", RequestIDFrom(context.Background()))
}
