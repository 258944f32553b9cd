package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, WarnLevel)

	log.Debug("debug message")
	log.Info("info message")
	log.Warn("warn message")
	log.Error("error message")

	output := buf.String()
	require.NotContains(t, output, "debug message")
	require.NotContains(t, output, "info message")
	require.Contains(t, output, "warn message")
	require.Contains(t, output, "error message")
}

func TestStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, DebugLevel)

	log.Info("session registered",
		String("handle", "abc123"),
		Int("count", 3),
		Bool("restored", true),
	)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "INFO", entry["level"])
	require.Equal(t, "session registered", entry["message"])
	require.Equal(t, "abc123", entry["handle"])
	require.Equal(t, float64(3), entry["count"])
	require.Equal(t, true, entry["restored"])
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, InfoLevel).WithFields(String("component", "session"))

	log.Info("first")
	log.Info("second")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		require.Equal(t, "session", entry["component"])
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, InfoLevel)
	require.Equal(t, InfoLevel, log.GetLevel())

	log.SetLevel(ErrorLevel)
	require.Equal(t, ErrorLevel, log.GetLevel())

	log.Info("suppressed")
	require.Empty(t, buf.String())
}

func TestLevelString(t *testing.T) {
	require.Equal(t, "DEBUG", DebugLevel.String())
	require.Equal(t, "INFO", InfoLevel.String())
	require.Equal(t, "WARN", WarnLevel.String())
	require.Equal(t, "ERROR", ErrorLevel.String())
	require.Equal(t, "UNKNOWN", Level(42).String())
}
