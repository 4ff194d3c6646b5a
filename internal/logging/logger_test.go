package logging_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vpkplaces/internal/config"
	"vpkplaces/internal/logging"
)

func TestConsoleLoggerFormatsComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	require.NoError(t, err)

	logger = logging.NewComponentLogger(logger, "batch")
	logger.Info("Processing", logging.String(logging.FieldFile, "de_dust2.vpk"), logging.Int(logging.FieldPlaces, 3))

	line := buf.String()
	assert.Contains(t, line, " INFO batch: Processing")
	assert.Contains(t, line, "file=de_dust2.vpk")
	assert.Contains(t, line, "places=3")
	assert.NotContains(t, line, "component=")
	assert.NotContains(t, line, "\x1b[", "buffer writer is not a terminal")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestConsoleLoggerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Writer: &buf})
	require.NoError(t, err)

	logger.Warn("Skipping", logging.String(logging.FieldReason, "no vpk or no ents"), logging.Error(errors.New("boom")))

	assert.Contains(t, buf.String(), `reason="no vpk or no ents"`)
	assert.Contains(t, buf.String(), "error=boom")
	assert.Contains(t, buf.String(), " WARN ")
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	require.NoError(t, err)

	logger.Info("message without caller")
	assert.NotContains(t, buf.String(), ".go:")
}

func TestDebugLevelAddsCaller(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", Writer: &buf})
	require.NoError(t, err)

	logger.Debug("with caller")
	assert.Contains(t, buf.String(), "logger_test.go:")
}

func TestLevelFiltersRecords(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Writer: &buf})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestJSONLoggerUsesStandardKeysAndRunID(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Writer: &buf, RunID: "run-123"})
	require.NoError(t, err)

	logging.NewComponentLogger(logger, "cli").Info("Done", logging.String(logging.FieldPath, "/tmp/out"))

	var payload map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &payload))
	assert.Equal(t, "info", payload["level"])
	assert.Equal(t, "Done", payload["msg"])
	assert.Equal(t, "cli", payload["component"])
	assert.Equal(t, "run-123", payload["run_id"])
	assert.Equal(t, "/tmp/out", payload["path"])
	assert.Contains(t, payload, "ts")
}

func TestConsoleLoggerCarriesRunID(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Writer: &buf, RunID: "abc"})
	require.NoError(t, err)

	logger.With(logging.String(logging.FieldComponent, "x")).Info("hello")
	assert.Contains(t, buf.String(), "run_id=abc")
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := logging.New(logging.Options{Format: "xml", Writer: &bytes.Buffer{}})
	assert.Error(t, err)
}

func TestNewWritesToFilePaths(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "vpkplaces.log")
	logger, err := logging.New(logging.Options{OutputPaths: []string{path}})
	require.NoError(t, err)

	logger.Info("to file")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Format = "json"
	var buf bytes.Buffer
	logger, err := logging.NewFromConfig(&cfg, &buf, "run")
	require.NoError(t, err)
	logger.Info("hello")
	assert.Contains(t, buf.String(), `"run_id":"run"`)

	logger, err = logging.NewFromConfig(nil, io.Discard, "")
	require.NoError(t, err)
	require.NotNil(t, logger)
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	assert.False(t, logger.Enabled(t.Context(), 12))
	logging.NewComponentLogger(nil, "x").Error("ignored")
}
