package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"followcheck/pkg/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "followcheck.log")

	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{"info level", &config.LoggingConfig{Level: "info"}, false},
		{"debug level", &config.LoggingConfig{Level: "debug"}, false},
		{"disabled", &config.LoggingConfig{Level: "disabled"}, false},
		{"invalid level", &config.LoggingConfig{Level: "invalid"}, true},
		{"file output", &config.LoggingConfig{Level: "info", File: logFile}, false},
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

	_, err := os.Stat(logFile)
	assert.NoError(t, err, "log file and its directory should be created")
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"fatal", zerolog.FatalLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"invalid", zerolog.InfoLevel, true},
		{"", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func newBufferLogger(t *testing.T) (Logger, *bytes.Buffer) {
	t.Helper()
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer
	return NewWithWriter(&buf), &buf
}

func TestLoggerMethods(t *testing.T) {
	l, buf := newBufferLogger(t)

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message")

	output := buf.String()
	for _, msg := range []string{"debug message", "info message", "warn message", "error message"} {
		assert.Contains(t, output, msg)
	}
	assert.Contains(t, output, `"app":"followcheck"`)
}

func TestFieldChaining(t *testing.T) {
	l, buf := newBufferLogger(t)

	base := l.WithField("username", "alice")
	base.
		WithField("kind", "followers").
		WithFields(map[string]interface{}{"count": 42, "partial": false}).
		Info("fetched")

	output := buf.String()
	assert.Contains(t, output, `"username":"alice"`)
	assert.Contains(t, output, `"kind":"followers"`)
	assert.Contains(t, output, `"count":42`)
	assert.Contains(t, output, `"partial":false`)

	// Deriving a logger must not mutate its parent
	buf.Reset()
	base.Info("parent")
	assert.NotContains(t, buf.String(), `"kind"`)
}

func TestWithError(t *testing.T) {
	l, buf := newBufferLogger(t)

	assert.Same(t, l, l.WithError(nil))

	l.WithError(errors.New("session expired")).Warn("probe failed")
	assert.Contains(t, buf.String(), "session expired")
}

func TestFieldTypes(t *testing.T) {
	l, buf := newBufferLogger(t)

	l.InfoWithFields("all types", map[string]interface{}{
		"string":   "x",
		"int":      1,
		"int64":    int64(2),
		"float":    1.5,
		"bool":     true,
		"time":     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		"duration": 3 * time.Second,
		"strings":  []string{"a", "b"},
		"custom":   struct{ Name string }{Name: "y"},
	})

	output := buf.String()
	assert.Contains(t, output, `"strings":["a","b"]`)
	assert.Contains(t, output, `"custom":{"Name":"y"}`)
}

func TestGlobalLogger(t *testing.T) {
	require.NoError(t, Initialize(&config.LoggingConfig{Level: "debug"}))
	require.NotNil(t, GetLogger())

	// Smoke test: none of these may panic
	Debug("debug message")
	Info("info message")
	Warn("warn message")
	Error("error message")
	WithField("key", "value").Info("with field")
	WithFields(map[string]interface{}{"k1": "v1"}).Info("with fields")
	WithError(errors.New("boom")).Error("with error")
	LogComponentStart("compare", map[string]interface{}{"username": "alice"})
	LogComparison("alice", 3, 3, 1, 1)
	LogReportWritten("outputs/fans.txt", 1)
	LogEnrichmentSummary(2, 1)
}

func TestTestLogger(t *testing.T) {
	tl := NewTestLogger()

	tl.WithField("username", "b").WithError(errors.New("not found")).Warn("lookup failed")
	tl.Info("done")

	messages := tl.GetMessages()
	require.Len(t, messages, 2)
	assert.Equal(t, "WARN", messages[0].Level)
	assert.Equal(t, "b", messages[0].Fields["username"])
	assert.EqualError(t, messages[0].Error, "not found")
	assert.True(t, tl.HasMessage("done"))
	assert.False(t, tl.HasError())
	assert.True(t, strings.Contains(tl.String(), "[WARN] lookup failed"))

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	assert.Same(t, l, l.WithField("a", 1))
	assert.NotNil(t, l.GetZerolog())
}
