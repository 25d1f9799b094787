package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Profile selects the tracking cadence tier.
type Profile string

const (
	ProfileEfficient  Profile = "efficient"
	ProfileBalanced   Profile = "balanced"
	ProfileResponsive Profile = "responsive"
)

// Intervals returns the base polling interval and the interaction-boost
// interval for the profile. The boost intervals approximate 30/60/90 Hz.
func (p Profile) Intervals() (base, boost time.Duration) {
	switch p {
	case ProfileEfficient:
		return 500 * time.Millisecond, 33 * time.Millisecond
	case ProfileResponsive:
		return 100 * time.Millisecond, 11 * time.Millisecond
	default:
		return 250 * time.Millisecond, 16 * time.Millisecond
	}
}

func (p Profile) valid() bool {
	switch p {
	case ProfileEfficient, ProfileBalanced, ProfileResponsive:
		return true
	}
	return false
}

// MaskScope controls whether only the focused window or every window of
// the focused application stays uncovered.
type MaskScope string

const (
	ScopeWindow      MaskScope = "window"
	ScopeApplication MaskScope = "application"
)

// OverlayConfig styles the veil surface itself.
type OverlayConfig struct {
	Tint    string  `yaml:"tint"`
	Opacity float64 `yaml:"opacity"`
}

// TintValue parses the configured "#rrggbb" tint into a pixel value.
func (o OverlayConfig) TintValue() (uint32, error) {
	s := strings.TrimPrefix(strings.TrimSpace(o.Tint), "#")
	if len(s) != 6 {
		return 0, fmt.Errorf("tint must be #rrggbb, got %q", o.Tint)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid tint %q: %w", o.Tint, err)
	}
	return uint32(v), nil
}

// DockConfig carries the stored dock preferences used to synthesize a
// placeholder region when the dock is auto-hidden.
type DockConfig struct {
	Edge     string  `yaml:"edge"`
	TileSize float64 `yaml:"tile_size"`
	AutoHide bool    `yaml:"auto_hide"`
}

// PeripheralsConfig controls detection of system shelf surfaces.
type PeripheralsConfig struct {
	ExcludeDock  bool       `yaml:"exclude_dock"`
	ExcludeShelf bool       `yaml:"exclude_shelf"`
	ShellNames   []string   `yaml:"shell_names"`
	Dock         DockConfig `yaml:"dock"`
}

// LoggingConfig controls daemon log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Config is the effective daemon configuration.
type Config struct {
	Profile     Profile           `yaml:"profile"`
	MaskScope   MaskScope         `yaml:"mask_scope"`
	Overlay     OverlayConfig     `yaml:"overlay"`
	Exclusions  []ExclusionRule   `yaml:"exclusions"`
	Peripherals PeripheralsConfig `yaml:"peripherals"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Profile:   ProfileBalanced,
		MaskScope: ScopeWindow,
		Overlay: OverlayConfig{
			Tint:    "#1f2933",
			Opacity: 0.55,
		},
		Peripherals: PeripheralsConfig{
			ExcludeDock: true,
			ShellNames: []string{
				"plank", "docky", "cairo-dock", "latte-dock",
				"polybar", "tint2", "xfce4-panel", "lxpanel", "mate-panel",
			},
			Dock: DockConfig{
				Edge:     "bottom",
				TileSize: 48,
			},
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Validate checks the effective configuration for values the daemon
// cannot run with.
func (c *Config) Validate() error {
	if !c.Profile.valid() {
		return fmt.Errorf("unknown profile %q (expected efficient, balanced or responsive)", c.Profile)
	}
	if c.MaskScope != ScopeWindow && c.MaskScope != ScopeApplication {
		return fmt.Errorf("unknown mask_scope %q (expected window or application)", c.MaskScope)
	}
	if c.Overlay.Opacity < 0 || c.Overlay.Opacity > 1 {
		return fmt.Errorf("overlay opacity %v out of range [0, 1]", c.Overlay.Opacity)
	}
	if _, err := c.Overlay.TintValue(); err != nil {
		return err
	}
	switch c.Peripherals.Dock.Edge {
	case "left", "right", "top", "bottom":
	default:
		return fmt.Errorf("unknown dock edge %q", c.Peripherals.Dock.Edge)
	}
	if c.Peripherals.Dock.TileSize <= 0 {
		return fmt.Errorf("dock tile_size must be positive, got %v", c.Peripherals.Dock.TileSize)
	}
	for i := range c.Exclusions {
		if err := c.Exclusions[i].validate(); err != nil {
			return fmt.Errorf("exclusions[%d]: %w", i, err)
		}
	}
	return nil
}

// ExclusionList builds the queryable exclusion set from the config rules.
func (c *Config) ExclusionList() *Exclusions {
	return NewExclusions(c.Exclusions)
}
