package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerAdapterWritesFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	l.Warn("Failed to cache value", map[string]interface{}{
		"key":   "bike:7",
		"error": "connection refused",
	})

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "Failed to cache value", line["msg"])
	assert.Equal(t, "bike:7", line["key"])
	assert.Equal(t, "connection refused", line["error"])
}

func TestLoggerAdapterNilFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithHandler(slog.NewTextHandler(&buf, nil))

	l.Info("Application stopped successfully", nil)
	l.Debug("hidden below info", nil)

	assert.Contains(t, buf.String(), "Application stopped successfully")
	assert.NotContains(t, buf.String(), "hidden below info")
}
