package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestWithCorrelationID_UsesContextValue(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	ctx := ContextWithCorrelationID(context.Background(), "abc-123")
	logger.WithCorrelationID(ctx).WithComponent("waitlist").Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "abc-123", line["correlation_id"])
	assert.Equal(t, "waitlist", line["component"])
	assert.Equal(t, "hello", line["msg"])
}

func TestGetOrGenerateCorrelationID_GeneratesWhenMissing(t *testing.T) {
	id := GetOrGenerateCorrelationID(context.Background())
	assert.Len(t, id, 36)
	assert.NotEqual(t, id, GetOrGenerateCorrelationID(context.Background()))
}

func TestGetLoggerInstanceFromContext(t *testing.T) {
	var buf bytes.Buffer
	stored := NewLogger(&buf, slog.LevelInfo)

	ctx := ContextWithLogger(context.Background(), stored)
	assert.Same(t, stored, GetLoggerInstanceFromContext(ctx, nil))

	fallback := NewLogger(&buf, slog.LevelInfo)
	assert.NotNil(t, GetLoggerInstanceFromContext(context.Background(), fallback))
}

func TestNewLogger_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}
