package logger_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectorcam/vectorinsight/internal/logger"
)

func TestSlogLoggerLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		level     logger.LogLevel
		logFunc   func(l logger.Logger)
		wantEmpty bool
	}{
		{"info at info", logger.LogLevelInfo, func(l logger.Logger) { l.Info("visible") }, false},
		{"debug at info", logger.LogLevelInfo, func(l logger.Logger) { l.Debug("hidden") }, true},
		{"trace at debug", logger.LogLevelDebug, func(l logger.Logger) { l.Trace("hidden") }, true},
		{"trace at trace", logger.LogLevelTrace, func(l logger.Logger) { l.Trace("visible") }, false},
		{"error at error", logger.LogLevelError, func(l logger.Logger) { l.Error("visible") }, false},
		{"warn at error", logger.LogLevelError, func(l logger.Logger) { l.Warn("hidden") }, true},
		{"explicit level", logger.LogLevelInfo, func(l logger.Logger) { l.Log(logger.LogLevelWarn, "visible") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			buf := &bytes.Buffer{}
			tt.logFunc(logger.NewSlogLogger(buf, tt.level, time.UTC))
			if tt.wantEmpty {
				assert.Empty(t, buf.String())
			} else {
				assert.NotEmpty(t, buf.String())
			}
		})
	}
}

func TestModuleAndFields(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.NewSlogLogger(buf, logger.LogLevelDebug, time.UTC).
		Module("pipeline").
		Module("extract").
		With(logger.String("run_id", "run-1"))

	log.Info("fetched rows",
		logger.Int("rows", 42),
		logger.Float64("ratio", 0.123456),
		logger.Duration("elapsed", 1500*time.Millisecond),
		logger.Error(errors.New("boom")))

	out := buf.String()
	assert.Contains(t, out, "module=pipeline.extract")
	assert.Contains(t, out, "run_id=run-1")
	assert.Contains(t, out, "rows=42")
	assert.Contains(t, out, "ratio=0.123")
	assert.Contains(t, out, "elapsed=1.5s")
	assert.Contains(t, out, "error=boom")
	assert.NotContains(t, out, "time=")
}

func TestWithContextTraceID(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.NewSlogLogger(buf, logger.LogLevelInfo, time.UTC)

	ctx := logger.WithTraceID(context.Background(), "abc-123")
	log.WithContext(ctx).Info("step finished")
	log.WithContext(context.Background()).Info("no trace")

	assert.Contains(t, buf.String(), "trace_id=abc-123")
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("trace_id")))
}

func TestCentralLoggerWritesJSONFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "pipeline.log")
	central, err := logger.NewCentralLogger(&logger.LoggingConfig{
		DefaultLevel: "debug",
		Timezone:     "UTC",
		Console:      &logger.ConsoleOutput{Enabled: false},
		FileOutput:   &logger.FileOutput{Enabled: true, Path: path, Level: "debug"},
		ModuleLevels: map[string]string{"datastore": "warn"},
	})
	require.NoError(t, err)

	central.Module("cleaning").Debug("cleaned sessions", logger.Int("rows", 3))
	central.Module("datastore").Info("suppressed by module level")
	require.NoError(t, central.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var records []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, records, 1)
	assert.Equal(t, "cleaned sessions", records[0]["msg"])
	assert.Equal(t, "DEBUG", records[0]["level"])
	assert.Equal(t, "cleaning", records[0]["module"])
	assert.InDelta(t, 3, records[0]["rows"], 0)
}

func TestCentralLoggerInvalidTimezone(t *testing.T) {
	t.Parallel()

	_, err := logger.NewCentralLogger(&logger.LoggingConfig{Timezone: "Mars/Olympus"})
	require.Error(t, err)

	_, err = logger.NewCentralLogger(nil)
	require.Error(t, err)
}

func TestBufferedFileWriter(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "buffered.log")
	w, err := logger.NewBufferedFileWriter(path, logger.WithFlushInterval(0), logger.WithBufferSize(1024))
	require.NoError(t, err)

	_, err = w.Write([]byte("hello\n"))
	require.NoError(t, err)
	assert.Equal(t, 6, w.Buffered())

	require.NoError(t, w.Flush())
	assert.Equal(t, 0, w.Buffered())

	require.NoError(t, w.Close())
	require.NoError(t, w.Close(), "close is idempotent")

	_, err = w.Write([]byte("late"))
	require.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}
