package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths include:
//
//	log_level
//	multi_screen
//	screens.rules
//	screens.rules[0].match
//	surfaces.control.class
//	surfaces.previous[1].title
//	surfaces.reconcile_interval
//	blackout.hotkey
//	relayout_hotkey
//	dbus.name
//	watch_config
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	head, _, hasIndex, err := splitIndex(parts[0])
	if err != nil {
		return nil, fmt.Errorf("unknown path: %s", path)
	}
	unknown := fmt.Errorf("unknown path: %s", path)

	if hasIndex {
		return nil, unknown
	}
	switch head {
	case "log_level":
		if len(parts) != 1 {
			return nil, unknown
		}
		return cfg.LogLevel, nil
	case "multi_screen":
		if len(parts) != 1 {
			return nil, unknown
		}
		return cfg.MultiScreen, nil
	case "relayout_hotkey":
		if len(parts) != 1 {
			return nil, unknown
		}
		return cfg.RelayoutHotkey, nil
	case "watch_config":
		if len(parts) != 1 {
			return nil, unknown
		}
		return cfg.WatchConfig, nil
	case "screens":
		if len(parts) < 2 {
			return cfg.Screens, nil
		}
		field, index, hasIndex, err := splitIndex(parts[1])
		if err != nil || field != "rules" {
			return nil, unknown
		}
		if !hasIndex {
			if len(parts) != 2 {
				return nil, unknown
			}
			return cfg.Screens.Rules, nil
		}
		if index >= len(cfg.Screens.Rules) {
			return nil, fmt.Errorf("%s: index out of range", path)
		}
		rule := cfg.Screens.Rules[index]
		if len(parts) == 2 {
			return rule, nil
		}
		if len(parts) != 3 {
			return nil, unknown
		}
		switch parts[2] {
		case "match":
			return rule.Match, nil
		case "role":
			return rule.Role, nil
		case "offset":
			return rule.Offset, nil
		}
		return nil, unknown
	case "surfaces":
		if len(parts) < 2 {
			return cfg.Surfaces, nil
		}
		field, index, hasIndex, err := splitIndex(parts[1])
		if err != nil {
			return nil, unknown
		}
		var sel Selector
		switch {
		case field == "reconcile_interval" && !hasIndex && len(parts) == 2:
			return cfg.Surfaces.ReconcileInterval.String(), nil
		case field == "control" && !hasIndex:
			sel = cfg.Surfaces.Control
		case field == "display" && !hasIndex:
			sel = cfg.Surfaces.Display
		case field == "desktop" && !hasIndex:
			sel = cfg.Surfaces.Desktop
		case field == "previous" && !hasIndex && len(parts) == 2:
			return cfg.Surfaces.Previous, nil
		case field == "previous" && hasIndex:
			if index >= len(cfg.Surfaces.Previous) {
				return nil, fmt.Errorf("%s: index out of range", path)
			}
			sel = cfg.Surfaces.Previous[index]
		default:
			return nil, unknown
		}
		return selectorField(sel, parts[2:], unknown)
	case "blackout":
		if len(parts) == 1 {
			return cfg.Blackout, nil
		}
		if len(parts) != 2 {
			return nil, unknown
		}
		switch parts[1] {
		case "hotkey":
			return cfg.Blackout.Hotkey, nil
		case "label":
			return cfg.Blackout.Label, nil
		case "logo":
			return cfg.Blackout.Logo, nil
		}
		return nil, unknown
	case "dbus":
		if len(parts) == 1 {
			return cfg.DBus, nil
		}
		if len(parts) != 2 {
			return nil, unknown
		}
		switch parts[1] {
		case "enabled":
			return cfg.DBus.Enabled, nil
		case "name":
			return cfg.DBus.Name, nil
		}
		return nil, unknown
	default:
		return nil, unknown
	}
}

func selectorField(sel Selector, rest []string, unknown error) (any, error) {
	switch {
	case len(rest) == 0:
		return sel, nil
	case len(rest) == 1 && rest[0] == "class":
		return sel.Class, nil
	case len(rest) == 1 && rest[0] == "title":
		return sel.Title, nil
	default:
		return nil, unknown
	}
}

// splitIndex parses "rules[2]" into ("rules", 2, true).
func splitIndex(part string) (string, int, bool, error) {
	open := strings.IndexByte(part, '[')
	if open < 0 {
		return part, 0, false, nil
	}
	if !strings.HasSuffix(part, "]") {
		return "", 0, false, fmt.Errorf("malformed index in %q", part)
	}
	n, err := strconv.Atoi(part[open+1 : len(part)-1])
	if err != nil || n < 0 {
		return "", 0, false, fmt.Errorf("malformed index in %q", part)
	}
	return part[:open], n, true, nil
}
