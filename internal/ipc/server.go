package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/screenrole/internal/display"
	"github.com/1broseidon/screenrole/internal/runtimepath"
)

// Handler executes daemon commands. Implementations serialize the calls
// onto the daemon loop; the server invokes them from connection goroutines.
type Handler interface {
	Status() (display.Status, error)
	Blackout() error
	Unblackout() error
	ToggleBlackout() (bool, error)
	SetDesktopMode(displayed bool) error
	MainMode() error
	SetMultiScreen(enabled bool) error
	SetSurface(kind string, index int, window uint32) error
	Relayout() error
	Reload() error
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	handler      Handler
	logger       *slog.Logger
	configPath   string
	startTime    time.Time
	shuttingDown bool
	shutdownMu   sync.Mutex
	wg           sync.WaitGroup
}

// NewServer creates a server on the default socket path.
func NewServer(handler Handler, logger *slog.Logger) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}
	return NewServerAt(socketPath, handler, logger), nil
}

// NewServerAt creates a server listening on socketPath.
func NewServerAt(socketPath string, handler Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		socketPath: socketPath,
		handler:    handler,
		logger:     logger,
		startTime:  time.Now(),
	}
}

// SetConfigPath records the config path reported by STATUS.
func (s *Server) SetConfigPath(path string) {
	s.configPath = path
}

// SocketPath returns the socket the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	// Remove a stale socket left by a crashed daemon.
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			s.logger.Warn("IPC accept error", "error", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(30 * time.Second))

	reader := bufio.NewReader(conn)

	// One JSON request per line.
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	s.logger.Debug("IPC request", "command", string(req.Command))
	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal IPC response", "error", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.logger.Warn("failed to send IPC response", "error", err)
	}
}

func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandPing:
		return ok(nil)
	case CommandStatus:
		return s.handleStatus()
	case CommandDisplays:
		return s.handleDisplays()
	case CommandBlackout:
		return s.handleBlackout(s.handler.Blackout, true)
	case CommandUnblackout:
		return s.handleBlackout(s.handler.Unblackout, false)
	case CommandToggleBlackout:
		blacked, err := s.handler.ToggleBlackout()
		if err != nil {
			return NewErrorResponse(fmt.Sprintf("Failed to toggle blackout: %v", err))
		}
		return ok(BlackoutData{Blacked: blacked})
	case CommandSetDesktopMode:
		var p SetDesktopModePayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return NewErrorResponse(fmt.Sprintf("Invalid desktop mode payload: %v", err))
		}
		return result(s.handler.SetDesktopMode(p.Displayed), "Failed to set desktop mode")
	case CommandMainMode:
		return result(s.handler.MainMode(), "Failed to enter main mode")
	case CommandSetMultiScreen:
		var p SetMultiScreenPayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return NewErrorResponse(fmt.Sprintf("Invalid multi-screen payload: %v", err))
		}
		return result(s.handler.SetMultiScreen(p.Enabled), "Failed to set multi-screen")
	case CommandSetSurface:
		var p SetSurfacePayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return NewErrorResponse(fmt.Sprintf("Invalid surface payload: %v", err))
		}
		if p.Kind == "" {
			return NewErrorResponse("kind is required")
		}
		return result(s.handler.SetSurface(p.Kind, p.Index, p.Window), "Failed to set surface")
	case CommandRelayout:
		return result(s.handler.Relayout(), "Failed to relayout")
	case CommandReload:
		s.logger.Info("IPC: received RELOAD command")
		return result(s.handler.Reload(), "Failed to reload config")
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleStatus() *Response {
	st, err := s.handler.Status()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to get status: %v", err))
	}
	return ok(StatusData{
		Status:        st,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		ConfigPath:    s.configPath,
		PID:           os.Getpid(),
	})
}

func (s *Server) handleDisplays() *Response {
	st, err := s.handler.Status()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to get displays: %v", err))
	}
	return ok(DisplaysData{Displays: st.Displays})
}

func (s *Server) handleBlackout(fn func() error, want bool) *Response {
	if err := fn(); err != nil {
		return NewErrorResponse(err.Error())
	}
	return ok(BlackoutData{Blacked: want})
}

func decodePayload(payload json.RawMessage, out any) error {
	if len(payload) == 0 {
		return fmt.Errorf("payload is required")
	}
	return json.Unmarshal(payload, out)
}

func ok(data any) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func result(err error, msg string) *Response {
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("%s: %v", msg, err))
	}
	return ok(nil)
}

func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	if s.shuttingDown {
		s.shutdownMu.Unlock()
		return
	}
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
		s.wg.Wait()
	}
	os.Remove(s.socketPath)
}
