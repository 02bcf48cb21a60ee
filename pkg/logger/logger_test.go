package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"behancesync/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{name: "info level", cfg: &config.LoggingConfig{Level: "info"}},
		{name: "debug json", cfg: &config.LoggingConfig{Level: "debug", Format: "json"}},
		{name: "empty level defaults to info", cfg: &config.LoggingConfig{}},
		{name: "invalid log level", cfg: &config.LoggingConfig{Level: "loud"}, wantErr: true},
		{
			name: "file output",
			cfg:  &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "sync.log")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"verbose", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			got, err := parseLogLevel(tt.level)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var lines []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		lines = append(lines, m)
	}
	return lines
}

func TestStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&config.LoggingConfig{Level: "debug"}, &buf)
	require.NoError(t, err)

	l.WithField("component", "mirror").
		WithError(errors.New("timeout")).
		InfoWithFields("Asset mirror failed", map[string]interface{}{
			"url":      "https://cdn.example.com/a.png",
			"attempt":  1,
			"duration": 250 * time.Millisecond,
		})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	line := lines[0]
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "Asset mirror failed", line["message"])
	assert.Equal(t, "mirror", line["component"])
	assert.Equal(t, "timeout", line["error"])
	assert.Equal(t, "https://cdn.example.com/a.png", line["url"])
	assert.Equal(t, "behancesync", line["app"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&config.LoggingConfig{Level: "warn"}, &buf)
	require.NoError(t, err)

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")
	l.Error("shown")

	assert.Len(t, decodeLines(t, &buf), 2)
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent, err := NewWithWriter(&config.LoggingConfig{Level: "info"}, &buf)
	require.NoError(t, err)

	_ = parent.WithField("child", true)
	parent.Info("plain")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	_, ok := lines[0]["child"]
	assert.False(t, ok)
}

func TestHelpers(t *testing.T) {
	tl := NewTestLogger()

	LogRequest(tl, "GET", "/users/jdoe", 200, time.Millisecond)
	LogRequest(tl, "GET", "/users/missing", 404, time.Millisecond)
	LogRequest(tl, "GET", "/users/jdoe", 503, time.Millisecond)
	LogAsset(tl, "https://cdn/a.png", "ref-1", false, nil)
	LogAsset(tl, "https://cdn/b.png", "", false, errors.New("boom"))
	LogMetrics(tl, "sync", map[string]interface{}{"projects": 2})

	assert.Len(t, tl.GetMessagesByLevel("DEBUG"), 2)
	assert.Len(t, tl.GetMessagesByLevel("WARN"), 2)
	assert.True(t, tl.HasError())
	assert.True(t, tl.HasMessage("Run summary"))

	warns := tl.GetMessagesByLevel("WARN")
	assert.Equal(t, "boom", warns[1].Fields["error"])
}

func TestTestLoggerChildrenShareMessages(t *testing.T) {
	tl := NewTestLogger()
	child := tl.WithField("stage", "user")
	child.Info("fetched")

	msgs := tl.GetMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0].Fields["stage"])

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.WithField("a", 1).Info("ignored")
	assert.NotNil(t, l.GetZerolog())
}
