// Package config holds the runtime settings for the motion server and
// loads them from an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dm/motion-go/internal/model"
	"github.com/dm/motion-go/internal/tui"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")


type Config struct {
	Listen    string        `yaml:"listen"`
	TLS       TLSConfig     `yaml:"tls"`
	StaticDir string        `yaml:"static_dir"`
	History   int           `yaml:"history"`
	Tick      time.Duration `yaml:"tick"`
	Headless  bool          `yaml:"headless"`
	Log       LogConfig     `yaml:"log"`
}

type TLSConfig struct {
	Enabled  *bool  `yaml:"enabled"`
	CertFile string `yaml:"cert"`
	KeyFile  string `yaml:"key"`
}

// On reports whether TLS is enabled. Unset means enabled.
func (t TLSConfig) On() bool {
	return t.Enabled == nil || *t.Enabled
}

type LogConfig struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

// Default returns a Config with every default applied.
func Default() *Config {
	var cfg Config
	cfg.ApplyDefaults()
	return &cfg
}

// Load reads a YAML config file, fills in defaults and validates the result.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Listen == "" {
		c.Listen = ":3000"
	}
	if c.TLS.CertFile == "" {
		c.TLS.CertFile = "certs/cert.pem"
	}
	if c.TLS.KeyFile == "" {
		c.TLS.KeyFile = "certs/key.pem"
	}
	if c.History == 0 {
		c.History = model.DefaultHistoryCap
	}
	if c.Tick == 0 {
		c.Tick = tui.DefaultTick
	}
	if c.Log.File == "" {
		c.Log.File = "motion.log"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	if c.History < 1 {
		return fmt.Errorf("%w: history must be positive, got %d", ErrInvalid, c.History)
	}
	if c.Tick <= 0 {
		return fmt.Errorf("%w: tick must be positive, got %s", ErrInvalid, c.Tick)
	}
	if c.Listen == "" {
		return fmt.Errorf("%w: listen address is required", ErrInvalid)
	}
	if c.TLS.On() && (c.TLS.CertFile == "" || c.TLS.KeyFile == "") {
		return fmt.Errorf("%w: tls.cert and tls.key are required when TLS is enabled", ErrInvalid)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
