package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_TextDefault(t *testing.T) {
	var buf bytes.Buffer
	log := Setup(Options{Output: &buf})

	log.Info("server started", "port", 8080)

	out := buf.String()
	assert.Contains(t, out, "server started")
	assert.Contains(t, out, "port=8080")
}

func TestSetup_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := Setup(Options{Format: "json", Output: &buf})

	log.Info("server started", "port", 8080)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "server started", record["msg"])
	assert.Equal(t, float64(8080), record["port"])
}

func TestSetup_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := Setup(Options{Level: "warn", Output: &buf})

	log.Info("hidden")
	log.Warn("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
}

func TestSetup_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	log := Setup(Options{Level: "debug", Output: &buf})

	log.Debug("pipeline step")
	assert.True(t, strings.Contains(buf.String(), "pipeline step"))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.input), "input %q", tt.input)
	}
}
