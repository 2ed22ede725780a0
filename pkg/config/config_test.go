package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prowl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, EngineChromium, cfg.Engine)
	assert.Equal(t, 4, cfg.MaxPagesPerContext)
	assert.Equal(t, 30000.0, cfg.NavigationTimeoutMS)
	assert.True(t, cfg.Launch.Headless)
	assert.Equal(t, "passthrough", cfg.HeaderProcessor)
	require.NoError(t, cfg.Validate())
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
engine: firefox
max_pages_per_context: 2
contexts:
  default:
    user_agent: prowl-test
    viewport:
      width: 800
      height: 600
abort_patterns:
  - "*://*.example.com/ads/*"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, EngineFirefox, cfg.Engine)
	assert.Equal(t, 2, cfg.MaxPagesPerContext)
	// untouched fields keep their defaults
	assert.Equal(t, 30000.0, cfg.NavigationTimeoutMS)
	assert.True(t, cfg.Launch.Headless)

	require.Contains(t, cfg.Contexts, "default")
	assert.Equal(t, "prowl-test", cfg.Contexts["default"].UserAgent)
	require.NotNil(t, cfg.Contexts["default"].Viewport)
	assert.Equal(t, 800, cfg.Contexts["default"].Viewport.Width)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsUnknownEngine(t *testing.T) {
	cfg := Default()
	cfg.Engine = "netscape"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown engine")
}

func TestValidateRejectsNonPositiveCap(t *testing.T) {
	cfg := Default()
	cfg.MaxPagesPerContext = 0
	assert.Error(t, cfg.Validate())

	cfg.MaxPagesPerContext = -1
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNegativeTimeout(t *testing.T) {
	cfg := Default()
	cfg.NavigationTimeoutMS = -1
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadAbortPattern(t *testing.T) {
	cfg := Default()
	cfg.AbortPatterns = []string{"[unclosed"}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid abort pattern")
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := writeConfig(t, "engine: [chromium")
	_, err := Load(path)
	assert.Error(t, err)
}
