package logging

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDir points the package at a temporary log directory and
// resets global state, restoring everything on cleanup.
func setupTestDir(t *testing.T) {
	t.Helper()

	tempDir := t.TempDir()

	stateMu.Lock()
	origLogDir := logDir
	origInitDone := initDone
	origInitErr := initErr
	origRunID := runID

	logDir = tempDir
	initDone = true // directory already exists
	initErr = nil
	runID = ""
	stateMu.Unlock()

	t.Cleanup(func() {
		stateMu.Lock()
		logDir = origLogDir
		initDone = origInitDone
		initErr = origInitErr
		runID = origRunID
		stateMu.Unlock()
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"", LevelInfo},
		{"warn", LevelWarn},
		{"WARNING", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.input), "input %q", tt.input)
	}
}

func TestNewLoggerWritesToFile(t *testing.T) {
	setupTestDir(t)

	logger, err := NewLogger("pool")
	require.NoError(t, err)
	defer logger.Close()

	logger.Infof("launching %s", "chromium")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(logger.LogPath())
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, "[pool]")
	assert.Contains(t, content, "[INFO]")
	assert.Contains(t, content, "launching chromium")
}

func TestLoggerLevelFiltering(t *testing.T) {
	setupTestDir(t)

	logger, err := NewLogger("fetch")
	require.NoError(t, err)
	defer logger.Close()

	logger.SetMinLevel(LevelWarn)
	logger.Debugf("hidden debug")
	logger.Infof("hidden info")
	logger.Warnf("visible warning")
	logger.Errorf("visible error")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(logger.LogPath())
	require.NoError(t, err)

	content := string(data)
	assert.NotContains(t, content, "hidden debug")
	assert.NotContains(t, content, "hidden info")
	assert.Contains(t, content, "visible warning")
	assert.Contains(t, content, "visible error")
}

func TestLoggersShareRunFile(t *testing.T) {
	setupTestDir(t)

	first, err := NewLogger("pool")
	require.NoError(t, err)
	defer first.Close()

	second, err := NewLogger("fetch")
	require.NoError(t, err)
	defer second.Close()

	assert.Equal(t, first.LogPath(), second.LogPath())
	assert.True(t, strings.HasSuffix(first.LogPath(), "-prowl.log"))
}

func TestCloseIsIdempotent(t *testing.T) {
	setupTestDir(t)

	logger, err := NewLogger("pool")
	require.NoError(t, err)

	require.NoError(t, logger.Close())
	require.NoError(t, logger.Close())
}
