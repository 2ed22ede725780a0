// Package config holds the settings consumed by the browser pool and
// the fetch pipeline. Settings are loaded from a YAML file and overlay
// the defaults, so a config file only needs the fields it changes.
package config

import (
	"fmt"
	"os"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

// Supported browser engines.
const (
	EngineChromium = "chromium"
	EngineFirefox  = "firefox"
	EngineWebKit   = "webkit"
)

// Config is the full settings surface for a prowl process.
type Config struct {
	// Engine selects the browser engine: chromium, firefox or webkit.
	Engine string `yaml:"engine"`

	// MaxPagesPerContext caps simultaneously open pages per context.
	MaxPagesPerContext int `yaml:"max_pages_per_context"`

	// NavigationTimeoutMS is the default navigation timeout in
	// milliseconds, applied to contexts and pages. Zero means the
	// engine default.
	NavigationTimeoutMS float64 `yaml:"navigation_timeout_ms"`

	// Launch configures the browser process.
	Launch Launch `yaml:"launch"`

	// Contexts are named context definitions created at pool startup.
	Contexts map[string]ContextConfig `yaml:"contexts"`

	// HeaderProcessor names a registered header processor used by
	// default for every fetch.
	HeaderProcessor string `yaml:"header_processor"`

	// AbortPatterns are glob patterns; intercepted requests whose URL
	// matches any pattern are aborted.
	AbortPatterns []string `yaml:"abort_patterns"`
}

// Launch configures how the browser process is started.
type Launch struct {
	Headless       bool     `yaml:"headless"`
	Args           []string `yaml:"args"`
	ExecutablePath string   `yaml:"executable_path"`
	SlowMoMS       float64  `yaml:"slow_mo_ms"`
}

// ContextConfig describes a browser context (an isolated session).
type ContextConfig struct {
	UserAgent         string            `yaml:"user_agent"`
	Viewport          *Viewport         `yaml:"viewport"`
	Locale            string            `yaml:"locale"`
	IgnoreHTTPSErrors bool              `yaml:"ignore_https_errors"`
	ExtraHeaders      map[string]string `yaml:"extra_headers"`
}

// Viewport is the context's initial viewport size.
type Viewport struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Default returns the configuration used when no file is provided.
func Default() *Config {
	return &Config{
		Engine:              EngineChromium,
		MaxPagesPerContext:  4,
		NavigationTimeoutMS: 30000,
		Launch: Launch{
			Headless: true,
		},
		HeaderProcessor: "passthrough",
	}
}

// Load reads a YAML config file and overlays it on the defaults.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the configuration for values the pool cannot run with.
func (c *Config) Validate() error {
	switch c.Engine {
	case EngineChromium, EngineFirefox, EngineWebKit:
	default:
		return fmt.Errorf("unknown engine %q (must be %s, %s or %s)",
			c.Engine, EngineChromium, EngineFirefox, EngineWebKit)
	}

	if c.MaxPagesPerContext <= 0 {
		return fmt.Errorf("max_pages_per_context must be positive, got %d", c.MaxPagesPerContext)
	}

	if c.NavigationTimeoutMS < 0 {
		return fmt.Errorf("navigation_timeout_ms must not be negative, got %v", c.NavigationTimeoutMS)
	}

	for _, pattern := range c.AbortPatterns {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("invalid abort pattern %q: %w", pattern, err)
		}
	}

	return nil
}
