// Package config provides configuration management for flowpad.
//
// Config file locations (priority order):
//  1. $FLOWPAD_CONFIG
//  2. ./flowpad.yaml
//  3. $XDG_CONFIG_HOME/flowpad/config.yaml
//  4. ~/.config/flowpad/config.yaml
//  5. /etc/flowpad/config.yaml
//
// A .env file in the working directory is loaded first, and FLOWPAD_ADDR,
// FLOWPAD_LOG_LEVEL and FLOWPAD_SEED override the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"flowpad/internal/validation"
)

// Environment variables that override the config file
const (
	EnvAddr     = "FLOWPAD_ADDR"
	EnvLogLevel = "FLOWPAD_LOG_LEVEL"
	EnvSeed     = "FLOWPAD_SEED"
)

// Load reads .env, finds and loads the config file (or explicit, when set),
// applies environment overrides and validates the result. The returned path
// is empty when defaults were used.
func Load(explicit string) (*Config, string, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, "", err
	}

	path := explicit
	if path == "" {
		path = FindConfigPath()
	}

	cfg := DefaultConfig()
	if path != "" {
		loaded, _, err := LoadFromPath(path)
		if err != nil {
			return nil, path, err
		}
		cfg = loaded
	}

	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// LoadFromPath loads config from a specific path. Keys missing from the file
// keep their defaults.
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	return cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     Duration(15 * time.Second),
			IdleTimeout:     Duration(60 * time.Second),
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Log: LogConfig{
			Level: "info",
		},
		Editor: EditorConfig{
			HistoryLimit:        100,
			DefaultEdgeAnimated: true,
			DerivedLabel:        "new node",
		},
		Export: ExportConfig{
			Width:      1024,
			Height:     768,
			MinZoom:    0.5,
			MaxZoom:    2,
			Padding:    0.1,
			Background: "whitesmoke",
			CacheSize:  32,
		},
	}
}

// applyDefaults fills in values a file may have blanked
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = def.Server.ShutdownTimeout
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	c.Log.Level = strings.ToLower(c.Log.Level)
	if c.Editor.DerivedLabel == "" {
		c.Editor.DerivedLabel = def.Editor.DerivedLabel
	}
	if c.Export.Background == "" {
		c.Export.Background = def.Export.Background
	}
}

// ApplyEnv overrides settings from the environment
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAddr); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v, ok := lookup(EnvSeed); ok {
		c.Editor.SeedPath = v
	}
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Editor.WatchSeed && c.Editor.SeedPath == "" {
		return fmt.Errorf("invalid config: editor.watch_seed requires editor.seed_path")
	}
	return nil
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	summary := fmt.Sprintf("Listen: %s, Log: %s\n", c.Server.Addr, c.Log.Level)
	summary += fmt.Sprintf("History limit: %d, Animated edges: %t\n", c.Editor.HistoryLimit, c.Editor.DefaultEdgeAnimated)
	seed := c.Editor.SeedPath
	if seed == "" {
		seed = "(built-in)"
	}
	summary += fmt.Sprintf("Seed: %s, Watch: %t\n", seed, c.Editor.WatchSeed)
	summary += fmt.Sprintf("Export: %dx%d on %s", c.Export.Width, c.Export.Height, c.Export.Background)
	return summary
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
