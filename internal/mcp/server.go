package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/screenrole/internal/ipc"
)

const (
	ServerName    = "screenrole"
	ServerVersion = "0.1.0"
)

// DaemonClient is the part of the IPC client the tools forward to.
type DaemonClient interface {
	Status() (*ipc.StatusData, error)
	Displays() (*ipc.DisplaysData, error)
	Blackout() error
	Unblackout() error
	ToggleBlackout() (bool, error)
	SetDesktopMode(displayed bool) error
	SetMultiScreen(enabled bool) error
	SetSurface(kind string, index int, window uint32) error
	Relayout() error
}

var _ DaemonClient = (*ipc.Client)(nil)

// Server exposes the running daemon to MCP clients over stdio.
type Server struct {
	mcpServer *mcpsdk.Server
	client    DaemonClient
	logger    *slog.Logger
}

// NewServer creates an MCP server that forwards every tool call to the
// daemon through client.
func NewServer(client DaemonClient, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		mcpServer: mcpsdk.NewServer(&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		}, nil),
		client: client,
		logger: logger,
	}
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Connect serves a single session over t. Used by tests with in-memory
// transports.
func (s *Server) Connect(ctx context.Context, t mcpsdk.Transport) (*mcpsdk.ServerSession, error) {
	return s.mcpServer.Connect(ctx, t, nil)
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Report the daemon state: screen count, previous-page count, managed surfaces, multi-screen and desktop mode, blackout state and the last layout pass.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_displays",
		Description: "List the attached displays in canonical order with their resolved role, bounds and usable work area.",
	}, s.handleListDisplays)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "blackout",
		Description: "Cover every display with an opaque overlay. Pass toggle to leave the blackout when it is already active.",
	}, s.handleBlackout)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "unblackout",
		Description: "Remove the blackout overlays and restore the previous presentation.",
	}, s.handleUnblackout)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_desktop_mode",
		Description: "Show or hide the desktop surface on the primary display in place of the presentation.",
	}, s.handleSetDesktopMode)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_multi_screen",
		Description: "Enable or disable spreading previous-page surfaces across paged displays.",
	}, s.handleSetMultiScreen)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_surface",
		Description: "Pin an X11 window to a surface slot (control, display, desktop or previous[index]). Window 0 unpins the slot.",
	}, s.handleSetSurface)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "relayout",
		Description: "Re-run the layout pass for the current display topology.",
	}, s.handleRelayout)
}
