package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestNewWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(Options{Level: "info", ServiceName: "test-svc", Version: "1.2.3"}, &buf)

	log.Debug("hidden")
	log.Info("values applied", zap.Int("displayed", 19))
	require.NoError(t, log.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "values applied", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "test-svc", entry["service"])
	assert.Equal(t, "1.2.3", entry["version"])
	assert.EqualValues(t, 19, entry["displayed"])
}

func TestNewWriter_DefaultService(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(Options{Format: "console"}, &buf)
	log.Warn("widget connection failed")

	assert.Contains(t, buf.String(), "widget connection failed")
	assert.Contains(t, buf.String(), "energy-dashboard")
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.log")
	log, err := New(Options{Output: path})
	require.NoError(t, err)

	log.Info("status updated")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "status updated")
}

func TestNew_BadOutput(t *testing.T) {
	_, err := New(Options{Output: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
	assert.Error(t, err)
}
