package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/screenrole/internal/runtimepath"
)

// ErrDaemonNotRunning is returned when the daemon socket cannot be reached.
var ErrDaemonNotRunning = errors.New("daemon is not running")

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the default socket path.
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientAt(socketPath)
}

// NewClientAt creates a client for socketPath.
func NewClientAt(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// SetTimeout changes the per-request deadline.
func (c *Client) SetTimeout(d time.Duration) {
	if d > 0 {
		c.timeout = d
	}
}

func (c *Client) sendRequest(req *Request) (*Response, error) {
	if c.socketPath == "" {
		return nil, ErrDaemonNotRunning
	}
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDaemonNotRunning, err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == StatusError {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

func (c *Client) send(cmd CommandType, payload any) (*Response, error) {
	req := &Request{Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", cmd, err)
		}
		req.Payload = data
	}
	return c.sendRequest(req)
}

func decodeData[T any](resp *Response, what string) (*T, error) {
	var out T
	if err := json.Unmarshal(resp.Data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse %s data: %w", what, err)
	}
	return &out, nil
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.send(CommandPing, nil)
	return err
}

// Status retrieves the daemon and display manager state.
func (c *Client) Status() (*StatusData, error) {
	resp, err := c.send(CommandStatus, nil)
	if err != nil {
		return nil, err
	}
	return decodeData[StatusData](resp, "status")
}

// Displays retrieves the displays and their roles.
func (c *Client) Displays() (*DisplaysData, error) {
	resp, err := c.send(CommandDisplays, nil)
	if err != nil {
		return nil, err
	}
	return decodeData[DisplaysData](resp, "displays")
}

// Blackout covers every display.
func (c *Client) Blackout() error {
	_, err := c.send(CommandBlackout, nil)
	return err
}

// Unblackout leaves blackout. It is a no-op when not blacked out.
func (c *Client) Unblackout() error {
	_, err := c.send(CommandUnblackout, nil)
	return err
}

// ToggleBlackout flips blackout and reports the new state.
func (c *Client) ToggleBlackout() (bool, error) {
	resp, err := c.send(CommandToggleBlackout, nil)
	if err != nil {
		return false, err
	}
	data, err := decodeData[BlackoutData](resp, "blackout")
	if err != nil {
		return false, err
	}
	return data.Blacked, nil
}

// SetDesktopMode tells the daemon whether the desktop is being shown.
func (c *Client) SetDesktopMode(displayed bool) error {
	_, err := c.send(CommandSetDesktopMode, SetDesktopModePayload{Displayed: displayed})
	return err
}

// MainMode leaves desktop mode.
func (c *Client) MainMode() error {
	_, err := c.send(CommandMainMode, nil)
	return err
}

// SetMultiScreen toggles the multi-screen setting.
func (c *Client) SetMultiScreen(enabled bool) error {
	_, err := c.send(CommandSetMultiScreen, SetMultiScreenPayload{Enabled: enabled})
	return err
}

// SetSurface assigns window to a surface slot.
func (c *Client) SetSurface(kind string, index int, window uint32) error {
	_, err := c.send(CommandSetSurface, SetSurfacePayload{Kind: kind, Index: index, Window: window})
	return err
}

// Relayout forces a resolution pass.
func (c *Client) Relayout() error {
	_, err := c.send(CommandRelayout, nil)
	return err
}

// Reload asks the daemon to re-read its config file.
func (c *Client) Reload() error {
	_, err := c.send(CommandReload, nil)
	return err
}
