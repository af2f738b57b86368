package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/screenrole/internal/display"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandPing           CommandType = "PING"
	CommandStatus         CommandType = "STATUS"
	CommandDisplays       CommandType = "DISPLAYS"
	CommandBlackout       CommandType = "BLACKOUT"
	CommandUnblackout     CommandType = "UNBLACKOUT"
	CommandToggleBlackout CommandType = "TOGGLE_BLACKOUT"
	CommandSetDesktopMode CommandType = "SET_DESKTOP_MODE"
	CommandMainMode       CommandType = "MAIN_MODE"
	CommandSetMultiScreen CommandType = "SET_MULTI_SCREEN"
	CommandSetSurface     CommandType = "SET_SURFACE"
	CommandRelayout       CommandType = "RELAYOUT"
	CommandReload         CommandType = "RELOAD"
)

const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData is returned by STATUS.
type StatusData struct {
	display.Status
	UptimeSeconds int64  `json:"uptime_seconds"`
	ConfigPath    string `json:"config_path,omitempty"`
	PID           int    `json:"pid"`
}

// DisplaysData is returned by DISPLAYS.
type DisplaysData struct {
	Displays []display.DisplayStatus `json:"displays"`
}

// BlackoutData is returned by the blackout commands.
type BlackoutData struct {
	Blacked bool `json:"blacked"`
}

type SetDesktopModePayload struct {
	Displayed bool `json:"displayed"`
}

type SetMultiScreenPayload struct {
	Enabled bool `json:"enabled"`
}

// SetSurfacePayload assigns an X window to a surface slot. Window 0 clears
// the slot.
type SetSurfacePayload struct {
	Kind   string `json:"kind"`
	Index  int    `json:"index,omitempty"`
	Window uint32 `json:"window"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: StatusOK,
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: StatusError,
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	if req.Command == "" {
		return nil, fmt.Errorf("failed to parse request: command is required")
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
