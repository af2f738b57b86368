package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/screenrole/internal/roles"
)

// Selector identifies a client window by WM_CLASS and a title substring.
type Selector struct {
	Class string `yaml:"class,omitempty"`
	Title string `yaml:"title,omitempty"`
}

// Empty reports whether the selector matches nothing.
func (s Selector) Empty() bool {
	return strings.TrimSpace(s.Class) == "" && strings.TrimSpace(s.Title) == ""
}

// RuleConfig is one entry of the screen role table.
type RuleConfig struct {
	Match  string `yaml:"match"`
	Role   string `yaml:"role"`
	Offset int    `yaml:"offset,omitempty"`
}

// ScreensConfig holds the ordered role table. First match wins.
type ScreensConfig struct {
	Rules []RuleConfig `yaml:"rules"`
}

// SurfacesConfig selects the windows managed as surfaces.
type SurfacesConfig struct {
	Control  Selector   `yaml:"control"`
	Display  Selector   `yaml:"display"`
	Desktop  Selector   `yaml:"desktop"`
	Previous []Selector `yaml:"previous"`
	// ReconcileInterval is how often selectors are re-resolved; 0 disables
	// periodic reconciliation.
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
}

// BlackoutConfig configures the blackout hotkey and overlay text.
type BlackoutConfig struct {
	Hotkey string `yaml:"hotkey"`
	Label  string `yaml:"label"`
	Logo   string `yaml:"logo"`
}

// DBusConfig configures the session bus service.
type DBusConfig struct {
	Enabled bool   `yaml:"enabled"`
	Name    string `yaml:"name"`
}

// Config is the effective daemon configuration.
type Config struct {
	LogLevel       string         `yaml:"log_level"`
	MultiScreen    bool           `yaml:"multi_screen"`
	Screens        ScreensConfig  `yaml:"screens"`
	Surfaces       SurfacesConfig `yaml:"surfaces"`
	Blackout       BlackoutConfig `yaml:"blackout"`
	RelayoutHotkey string         `yaml:"relayout_hotkey"`
	DBus           DBusConfig     `yaml:"dbus"`
	WatchConfig    bool           `yaml:"watch_config"`
}

const (
	DefaultDBusName          = "io.github.screenrole"
	DefaultReconcileInterval = 5 * time.Second
)

// DefaultRuleConfigs mirrors roles.DefaultRules in configuration form.
func DefaultRuleConfigs() []RuleConfig {
	defaults := roles.DefaultRules()
	out := make([]RuleConfig, 0, len(defaults))
	for _, r := range defaults {
		name, offset := r.Role.ConfigName()
		out = append(out, RuleConfig{Match: r.Match, Role: name, Offset: offset})
	}
	return out
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:    "info",
		MultiScreen: true,
		Screens:     ScreensConfig{Rules: DefaultRuleConfigs()},
		Surfaces: SurfacesConfig{
			ReconcileInterval: DefaultReconcileInterval,
		},
		Blackout: BlackoutConfig{
			Hotkey: "Mod4-Shift-b",
			Label:  "Click to return",
			Logo:   "screenrole",
		},
		DBus: DBusConfig{
			Enabled: true,
			Name:    DefaultDBusName,
		},
		WatchConfig: true,
	}
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := *c
	out.Screens.Rules = slices.Clone(c.Screens.Rules)
	out.Surfaces.Previous = slices.Clone(c.Surfaces.Previous)
	return &out
}

// RoleRules converts the configured table into resolver rules.
func (c *Config) RoleRules() ([]roles.Rule, error) {
	out := make([]roles.Rule, 0, len(c.Screens.Rules))
	for i, rc := range c.Screens.Rules {
		role, err := roles.ParseRole(rc.Role, rc.Offset)
		if err != nil {
			return nil, &ValidationError{Path: fmt.Sprintf("screens.rules[%d].role", i), Err: err}
		}
		out = append(out, roles.Rule{Match: rc.Match, Role: role})
	}
	if _, err := roles.NewResolver(out); err != nil {
		return nil, &ValidationError{Path: "screens.rules", Err: err}
	}
	return out, nil
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/screenrole/config.yaml, falling
// back to ~/.config.
func DefaultConfigPath() (string, error) {
	if dir := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); dir != "" {
		return filepath.Join(dir, "screenrole", "config.yaml"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "screenrole", "config.yaml"), nil
}

// Save writes the configuration to the standard location.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to path.
//
// Note: this marshals the effective config and will not preserve comments or
// include structure from the original YAML.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warn, error")}
	}

	for i, rc := range c.Screens.Rules {
		if strings.TrimSpace(rc.Match) == "" {
			return &ValidationError{Path: fmt.Sprintf("screens.rules[%d].match", i), Err: fmt.Errorf("match is required")}
		}
		if rc.Offset < 0 {
			return &ValidationError{Path: fmt.Sprintf("screens.rules[%d].offset", i), Err: fmt.Errorf("offset must be >= 0")}
		}
	}
	if _, err := c.RoleRules(); err != nil {
		return err
	}

	if c.Surfaces.ReconcileInterval < 0 {
		return &ValidationError{Path: "surfaces.reconcile_interval", Err: fmt.Errorf("reconcile_interval must be >= 0")}
	}
	if c.DBus.Enabled && strings.TrimSpace(c.DBus.Name) == "" {
		return &ValidationError{Path: "dbus.name", Err: fmt.Errorf("dbus.name is required when dbus is enabled")}
	}

	if warnings := c.validationWarnings(); len(warnings) > 0 {
		for _, w := range warnings {
			fmt.Fprintln(os.Stderr, "warning:", w)
		}
	}
	return nil
}

func (c *Config) validationWarnings() []string {
	var warnings []string

	primaries := 0
	for _, rc := range c.Screens.Rules {
		if role, err := roles.ParseRole(rc.Role, rc.Offset); err == nil && role.Kind == roles.KindPrimary {
			primaries++
		}
	}
	if primaries > 1 {
		warnings = append(warnings, fmt.Sprintf("screens.rules has %d primary rules; only the first matching display becomes primary", primaries))
	}

	if c.Blackout.Hotkey != "" && c.Blackout.Hotkey == c.RelayoutHotkey {
		warnings = append(warnings, fmt.Sprintf("blackout.hotkey and relayout_hotkey are both %q; relayout will not be bound", c.RelayoutHotkey))
	}
	return warnings
}
