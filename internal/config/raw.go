package config

import (
	"fmt"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		// Not present.
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawSelector struct {
	Class *string `yaml:"class"`
	Title *string `yaml:"title"`
}

type RawRule struct {
	Match  *string `yaml:"match"`
	Role   *string `yaml:"role"`
	Offset *int    `yaml:"offset"`
}

type RawScreens struct {
	Rules []RawRule `yaml:"rules"`
}

type RawSurfaces struct {
	Control           *RawSelector   `yaml:"control"`
	Display           *RawSelector   `yaml:"display"`
	Desktop           *RawSelector   `yaml:"desktop"`
	Previous          []RawSelector  `yaml:"previous"`
	ReconcileInterval *time.Duration `yaml:"reconcile_interval"`
}

type RawBlackout struct {
	Hotkey *string `yaml:"hotkey"`
	Label  *string `yaml:"label"`
	Logo   *string `yaml:"logo"`
}

type RawDBus struct {
	Enabled *bool   `yaml:"enabled"`
	Name    *string `yaml:"name"`
}

type RawConfig struct {
	Include        IncludeList  `yaml:"include"`
	LogLevel       *string      `yaml:"log_level"`
	MultiScreen    *bool        `yaml:"multi_screen"`
	Screens        *RawScreens  `yaml:"screens"`
	Surfaces       *RawSurfaces `yaml:"surfaces"`
	Blackout       *RawBlackout `yaml:"blackout"`
	RelayoutHotkey *string      `yaml:"relayout_hotkey"`
	DBus           *RawDBus     `yaml:"dbus"`
	WatchConfig    *bool        `yaml:"watch_config"`
}

// merge overlays scalar fields one by one. Lists (rules, previous
// selectors) are replaced as a whole because their order is meaningful.
func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	if overlay.MultiScreen != nil {
		out.MultiScreen = overlay.MultiScreen
	}
	if overlay.RelayoutHotkey != nil {
		out.RelayoutHotkey = overlay.RelayoutHotkey
	}
	if overlay.WatchConfig != nil {
		out.WatchConfig = overlay.WatchConfig
	}

	if overlay.Screens != nil && overlay.Screens.Rules != nil {
		out.Screens = &RawScreens{Rules: slices.Clone(overlay.Screens.Rules)}
	}

	if overlay.Surfaces != nil {
		merged := RawSurfaces{}
		if out.Surfaces != nil {
			merged = *out.Surfaces
		}
		merged.Control = mergeRawSelector(merged.Control, overlay.Surfaces.Control)
		merged.Display = mergeRawSelector(merged.Display, overlay.Surfaces.Display)
		merged.Desktop = mergeRawSelector(merged.Desktop, overlay.Surfaces.Desktop)
		if overlay.Surfaces.Previous != nil {
			// An explicit empty list stays non-nil so it clears inherited entries.
			merged.Previous = slices.Clone(overlay.Surfaces.Previous)
		}
		if overlay.Surfaces.ReconcileInterval != nil {
			merged.ReconcileInterval = overlay.Surfaces.ReconcileInterval
		}
		out.Surfaces = &merged
	}

	if overlay.Blackout != nil {
		merged := RawBlackout{}
		if out.Blackout != nil {
			merged = *out.Blackout
		}
		if overlay.Blackout.Hotkey != nil {
			merged.Hotkey = overlay.Blackout.Hotkey
		}
		if overlay.Blackout.Label != nil {
			merged.Label = overlay.Blackout.Label
		}
		if overlay.Blackout.Logo != nil {
			merged.Logo = overlay.Blackout.Logo
		}
		out.Blackout = &merged
	}

	if overlay.DBus != nil {
		merged := RawDBus{}
		if out.DBus != nil {
			merged = *out.DBus
		}
		if overlay.DBus.Enabled != nil {
			merged.Enabled = overlay.DBus.Enabled
		}
		if overlay.DBus.Name != nil {
			merged.Name = overlay.DBus.Name
		}
		out.DBus = &merged
	}

	return out
}

func mergeRawSelector(base *RawSelector, overlay *RawSelector) *RawSelector {
	if overlay == nil {
		return base
	}
	out := RawSelector{}
	if base != nil {
		out = *base
	}
	if overlay.Class != nil {
		out.Class = overlay.Class
	}
	if overlay.Title != nil {
		out.Title = overlay.Title
	}
	return &out
}
