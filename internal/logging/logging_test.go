package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"Error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestInitJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := Init(Config{Level: "info", Format: "json"}, &buf)

	logger.Debug("hidden")
	logger.Info("generated", "group", "REM001")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "generated", entry["msg"])
	assert.Equal(t, "REM001", entry["group"])
}

func TestInitText(t *testing.T) {
	var buf bytes.Buffer
	logger := Init(Config{Level: "debug", Format: "text"}, &buf)

	logger.Debug("sequenced", "records", 6)

	assert.Contains(t, buf.String(), "msg=sequenced")
	assert.Contains(t, buf.String(), "records=6")
}
