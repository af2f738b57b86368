package mcp

import "github.com/1broseidon/screenrole/internal/display"

// EmptyInput is the input for tools that take no arguments.
type EmptyInput struct{}

// StatusOutput is the output for the get_status tool.
type StatusOutput struct {
	display.Status
	UptimeSeconds int64  `json:"uptime_seconds"`
	ConfigPath    string `json:"config_path,omitempty"`
	PID           int    `json:"pid"`
}

// ListDisplaysOutput is the output for the list_displays tool.
type ListDisplaysOutput struct {
	Displays []display.DisplayStatus `json:"displays"`
}

// BlackoutInput is the input for the blackout tool.
type BlackoutInput struct {
	Toggle bool `json:"toggle,omitempty" jsonschema:"When true, toggle the blackout instead of entering it"`
}

// BlackoutOutput reports the blackout state after a blackout tool call.
type BlackoutOutput struct {
	Blacked bool `json:"blacked"`
}

// SetDesktopModeInput is the input for the set_desktop_mode tool.
type SetDesktopModeInput struct {
	Displayed bool `json:"displayed" jsonschema:"True when the desktop surface should replace the presentation on the primary display"`
}

// SetMultiScreenInput is the input for the set_multi_screen tool.
type SetMultiScreenInput struct {
	Enabled bool `json:"enabled" jsonschema:"Whether previous-page surfaces spread across paged displays"`
}

// SetSurfaceInput is the input for the set_surface tool.
type SetSurfaceInput struct {
	Kind   string `json:"kind" jsonschema:"Surface slot: control, display, desktop or previous"`
	Index  int    `json:"index,omitempty" jsonschema:"Previous-page index, only used when kind is previous"`
	Window uint32 `json:"window" jsonschema:"X11 window ID to bind; 0 unpins the slot and returns it to selector matching"`
}

// AckOutput is returned by tools that only report success.
type AckOutput struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}
