package config

import (
	"fmt"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// BuildEffectiveConfig applies raw onto DefaultConfig.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.MultiScreen != nil {
		cfg.MultiScreen = *raw.MultiScreen
	}
	if raw.RelayoutHotkey != nil {
		cfg.RelayoutHotkey = *raw.RelayoutHotkey
	}
	if raw.WatchConfig != nil {
		cfg.WatchConfig = *raw.WatchConfig
	}

	if raw.Screens != nil && raw.Screens.Rules != nil {
		rules := make([]RuleConfig, 0, len(raw.Screens.Rules))
		for i, rr := range raw.Screens.Rules {
			if rr.Match == nil {
				return nil, &ValidationError{Path: fmt.Sprintf("screens.rules[%d].match", i), Err: fmt.Errorf("match is required")}
			}
			if rr.Role == nil {
				return nil, &ValidationError{Path: fmt.Sprintf("screens.rules[%d].role", i), Err: fmt.Errorf("role is required")}
			}
			rc := RuleConfig{Match: *rr.Match, Role: *rr.Role}
			if rr.Offset != nil {
				rc.Offset = *rr.Offset
			}
			rules = append(rules, rc)
		}
		cfg.Screens.Rules = rules
	}

	if s := raw.Surfaces; s != nil {
		applySelector(&cfg.Surfaces.Control, s.Control)
		applySelector(&cfg.Surfaces.Display, s.Display)
		applySelector(&cfg.Surfaces.Desktop, s.Desktop)
		if s.Previous != nil {
			cfg.Surfaces.Previous = make([]Selector, 0, len(s.Previous))
			for i := range s.Previous {
				var sel Selector
				applySelector(&sel, &s.Previous[i])
				cfg.Surfaces.Previous = append(cfg.Surfaces.Previous, sel)
			}
		}
		if s.ReconcileInterval != nil {
			cfg.Surfaces.ReconcileInterval = *s.ReconcileInterval
		}
	}

	if b := raw.Blackout; b != nil {
		if b.Hotkey != nil {
			cfg.Blackout.Hotkey = *b.Hotkey
		}
		if b.Label != nil {
			cfg.Blackout.Label = *b.Label
		}
		if b.Logo != nil {
			cfg.Blackout.Logo = *b.Logo
		}
	}

	if d := raw.DBus; d != nil {
		if d.Enabled != nil {
			cfg.DBus.Enabled = *d.Enabled
		}
		if d.Name != nil {
			cfg.DBus.Name = *d.Name
		}
	}

	return cfg, nil
}

func applySelector(dst *Selector, raw *RawSelector) {
	if raw == nil {
		return
	}
	if raw.Class != nil {
		dst.Class = *raw.Class
	}
	if raw.Title != nil {
		dst.Title = *raw.Title
	}
}
