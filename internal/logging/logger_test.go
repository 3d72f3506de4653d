package logging

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newBufferLogger(level LogLevel, format string) (*WeftLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{
		Level:  level,
		Format: format,
		Output: &buf,
	})
	return logger, &buf
}

func TestLogger_LevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger(LevelWarn, "text")
	ctx := context.Background()

	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	assert.Empty(t, buf.String())

	logger.Warn(ctx, nil, "warn message")
	logger.Error(ctx, nil, "error message")
	assert.Contains(t, buf.String(), "warn message")
	assert.Contains(t, buf.String(), "error message")
}

func TestLogger_ErrorFieldIncluded(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo, "text")

	logger.Error(context.Background(), errors.New("boom"), "render failed")

	assert.Contains(t, buf.String(), "render failed")
	assert.Contains(t, buf.String(), "boom")
}

func TestLogger_WithFields(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo, "json")

	logger.With("page", "Index").Info(context.Background(), "rendered")

	assert.Contains(t, buf.String(), `"page":"Index"`)
}

func TestLogger_WithComponent(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo, "json")

	logger.WithComponent("scanner").Info(context.Background(), "scan complete")

	assert.Contains(t, buf.String(), `"component":"scanner"`)
}

func TestLogger_NilConfigUsesDefaults(t *testing.T) {
	assert.NotPanics(t, func() {
		logger := NewLogger(nil)
		logger.Debug(context.Background(), "dropped at default level")
	})
}

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}
