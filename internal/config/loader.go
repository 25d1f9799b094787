package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath returns the standard config file location.
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "softveil", "config.yaml"), nil
}

// Load reads the configuration from the standard location. A missing file
// yields the defaults.
func Load() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads and validates the configuration at path, merged onto
// the built-in defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	applyFallbacks(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// applyFallbacks re-fills fields an explicit empty value would otherwise
// blank out.
func applyFallbacks(cfg *Config) {
	def := Default()
	if cfg.Profile == "" {
		cfg.Profile = def.Profile
	}
	if cfg.MaskScope == "" {
		cfg.MaskScope = def.MaskScope
	}
	if cfg.Overlay.Tint == "" {
		cfg.Overlay.Tint = def.Overlay.Tint
	}
	if cfg.Overlay.Opacity == 0 {
		cfg.Overlay.Opacity = def.Overlay.Opacity
	}
	if len(cfg.Peripherals.ShellNames) == 0 {
		cfg.Peripherals.ShellNames = def.Peripherals.ShellNames
	}
	if cfg.Peripherals.Dock.Edge == "" {
		cfg.Peripherals.Dock.Edge = def.Peripherals.Dock.Edge
	}
	if cfg.Peripherals.Dock.TileSize == 0 {
		cfg.Peripherals.Dock.TileSize = def.Peripherals.Dock.TileSize
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
}

// Print renders the effective configuration as YAML.
func (c *Config) Print() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(out), nil
}
