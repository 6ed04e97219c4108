package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"demandcli/internal/config"
)

func TestInitializeLoggerOnce(t *testing.T) {
	ResetLoggerForTesting()
	t.Cleanup(ResetLoggerForTesting)

	cfg := config.LoggingConfig{Level: "info", Output: "stdout"}

	first, err := InitializeLogger(cfg)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := InitializeLogger(cfg)
	require.NoError(t, err)
	assert.Same(t, first, second, "initialization happens once")
	assert.Same(t, first, GetLogger())
}

func TestInitializeLoggerFileOutput(t *testing.T) {
	ResetLoggerForTesting()
	t.Cleanup(ResetLoggerForTesting)

	path := filepath.Join(t.TempDir(), "logs", "app.log")
	logger, err := InitializeLogger(config.LoggingConfig{
		Level:    "debug",
		Output:   "file",
		FilePath: path,
	})
	require.NoError(t, err)

	logger.Info("hello")
	require.NoError(t, CloseLogFile())
	assert.FileExists(t, path)
}

func TestTraceIDContext(t *testing.T) {
	ctx := WithTraceID(context.Background(), "trace-123")
	assert.Equal(t, "trace-123", GetTraceID(ctx))
	assert.Empty(t, GetTraceID(context.Background()))

	ensured := EnsureTraceID(context.Background())
	assert.NotEmpty(t, GetTraceID(ensured))

	// An existing trace ID is preserved.
	assert.Equal(t, "trace-123", GetTraceID(EnsureTraceID(ctx)))
}

func TestTraceHandlerInjectsTraceID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(&traceHandler{Handler: slog.NewJSONHandler(&buf, nil)})

	ctx := WithTraceID(context.Background(), "abc-def")
	logger.InfoContext(ctx, "extraction started")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "abc-def", record["trace_id"])
	assert.Equal(t, "extraction started", record["msg"])
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("WARN"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("unknown"))
}
