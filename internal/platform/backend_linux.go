//go:build linux

package platform

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/1broseidon/screenrole/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// Fader performs the display fade transitions around a blackout.
type Fader interface {
	FadeDisplayOut()
	FadeDisplayIn()
}

// OverlayStyle is the text drawn on the dismissable blackout overlay.
type OverlayStyle struct {
	Logo  string
	Label string
}

// LinuxBackend wraps an X11 connection behind the platform Backend interface.
type LinuxBackend struct {
	conn     *x11.Connection
	tracker  *Tracker
	dispatch func(func())
	fader    Fader
	style    OverlayStyle
	logger   *slog.Logger
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection, logger *slog.Logger) *LinuxBackend {
	if logger == nil {
		logger = slog.Default()
	}
	b := &LinuxBackend{
		conn:     conn,
		dispatch: func(fn func()) { fn() },
		style:    OverlayStyle{Logo: "screenrole", Label: "Click to return"},
		logger:   logger,
	}
	b.tracker = NewTracker(EnumeratorFunc(b.rawDisplays), logger)
	return b
}

// NewLinuxBackendFromDisplay creates a new Linux backend by opening a fresh X11 connection.
func NewLinuxBackendFromDisplay(logger *slog.Logger) (*LinuxBackend, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return NewLinuxBackend(conn, logger), nil
}

// SetDispatcher routes every X-originated callback (topology changes,
// overlay activity) through dispatch, typically onto the daemon loop.
func (b *LinuxBackend) SetDispatcher(dispatch func(func())) {
	if dispatch != nil {
		b.dispatch = dispatch
	}
}

// SetFader installs the collaborator that performs fade transitions.
func (b *LinuxBackend) SetFader(f Fader) {
	b.fader = f
}

// SetOverlayStyle sets the text used on dismissable overlays.
func (b *LinuxBackend) SetOverlayStyle(style OverlayStyle) {
	b.style = style
}

// WatchTopology subscribes to X display change events. Each event triggers
// a tracker refresh on the dispatcher.
func (b *LinuxBackend) WatchTopology() error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.WatchTopology(func(change x11.TopologyChange) {
		b.dispatch(func() {
			b.logger.Debug("x11 topology event", "source", change.String())
			if err := b.tracker.Refresh(); err != nil {
				b.logger.Warn("display refresh failed", "error", err)
			}
		})
	})
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// EventLoop starts the X11 event loop (blocking).
func (b *LinuxBackend) EventLoop() {
	if b != nil && b.conn != nil {
		b.conn.EventLoop()
	}
}

// Quit stops the X11 event loop.
func (b *LinuxBackend) Quit() {
	if b != nil && b.conn != nil {
		b.conn.Quit()
	}
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.XUtil
}

// RootWindow returns the X11 root window ID.
func (b *LinuxBackend) RootWindow() xproto.Window {
	if b == nil || b.conn == nil {
		return 0
	}
	return b.conn.Root
}

// Displays returns all active displays and records them as the tracked
// snapshot.
func (b *LinuxBackend) Displays() ([]Display, error) {
	return b.tracker.Displays()
}

// OnDisplaysChanged implements Host.
func (b *LinuxBackend) OnDisplaysChanged(fn func(ChangeKind)) func() {
	return b.tracker.OnDisplaysChanged(fn)
}

// OnDisplayChanged implements Host.
func (b *LinuxBackend) OnDisplayChanged(name string, fn func(ChangeKind)) func() {
	return b.tracker.OnDisplayChanged(name, fn)
}

func (b *LinuxBackend) rawDisplays() ([]Display, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	monitors, err := conn.GetMonitors()
	if err != nil {
		return nil, err
	}

	displays := make([]Display, 0, len(monitors))
	for _, m := range monitors {
		displays = append(displays, displayFromMonitor(m))
	}
	sort.Slice(displays, func(i, j int) bool {
		return displays[i].ID < displays[j].ID
	})
	return displays, nil
}

// Surface returns a handle for a client window.
func (b *LinuxBackend) Surface(id WindowID) Surface {
	return &windowSurface{conn: b.conn, id: id}
}

// FindWindows lists client windows matching a WM_CLASS and title substring.
func (b *LinuxBackend) FindWindows(class, title string) ([]Window, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	clients, err := conn.FindWindows(class, title)
	if err != nil {
		return nil, err
	}

	windows := make([]Window, 0, len(clients))
	for _, cw := range clients {
		w := Window{ID: WindowID(cw.ID), AppID: cw.Class, Title: cw.Title}
		if g, err := conn.WindowGeometry(cw.ID); err == nil {
			w.Bounds = rectFromGeometry(g)
		}
		windows = append(windows, w)
	}
	sort.Slice(windows, func(i, j int) bool {
		return windows[i].ID < windows[j].ID
	})
	return windows, nil
}

// ShowFullScreen presents s full-screen on its current geometry.
func (b *LinuxBackend) ShowFullScreen(s Surface) error {
	if fs, ok := s.(fullScreener); ok {
		return fs.FullScreen()
	}
	return s.Show()
}

// FadeDisplayOut delegates to the installed fader.
func (b *LinuxBackend) FadeDisplayOut() {
	if b.fader == nil {
		b.logger.Debug("no fader installed; skipping fade out")
		return
	}
	b.fader.FadeDisplayOut()
}

// FadeDisplayIn delegates to the installed fader.
func (b *LinuxBackend) FadeDisplayIn() {
	if b.fader == nil {
		b.logger.Debug("no fader installed; skipping fade in")
		return
	}
	b.fader.FadeDisplayIn()
}

// NewOverlay creates a blackout overlay covering bounds. Repaints and
// activity on the overlay run through the dispatcher.
func (b *LinuxBackend) NewOverlay(bounds Rect, dismissable bool, onActivity func()) (Overlay, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	opts := x11.OverlayOptions{
		Bounds:      geometryFromRect(bounds),
		Dismissable: dismissable,
		Logo:        b.style.Logo,
		Label:       b.style.Label,
		Dispatch:    b.dispatch,
	}
	if dismissable {
		opts.OnActivity = onActivity
	}

	ov, err := conn.NewOverlay(opts)
	if err != nil {
		return nil, err
	}
	return &overlaySurface{ov: ov}, nil
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}

type fullScreener interface {
	FullScreen() error
}

// windowSurface is a client window owned by another application.
type windowSurface struct {
	conn *x11.Connection
	id   WindowID
}

func (s *windowSurface) ID() WindowID { return s.id }

func (s *windowSurface) Hide() error {
	return s.conn.UnmapWindow(xproto.Window(s.id))
}

func (s *windowSurface) Show() error {
	if err := s.conn.MapWindow(xproto.Window(s.id)); err != nil {
		return err
	}
	return s.conn.SetFullScreen(xproto.Window(s.id), false)
}

func (s *windowSurface) FullScreen() error {
	if err := s.conn.MapWindow(xproto.Window(s.id)); err != nil {
		return err
	}
	return s.conn.SetFullScreen(xproto.Window(s.id), true)
}

func (s *windowSurface) SetGeometry(r Rect) error {
	return s.conn.MoveResizeWindow(xproto.Window(s.id), r.X, r.Y, r.Width, r.Height)
}

func (s *windowSurface) Geometry() (Rect, error) {
	g, err := s.conn.WindowGeometry(xproto.Window(s.id))
	if err != nil {
		return Rect{}, err
	}
	return rectFromGeometry(g), nil
}

func (s *windowSurface) Activate() error {
	return s.conn.FocusWindow(xproto.Window(s.id))
}

// overlaySurface adapts an X11 blackout overlay to Overlay.
type overlaySurface struct {
	ov *x11.Overlay
}

func (o *overlaySurface) ID() WindowID      { return WindowID(o.ov.Window()) }
func (o *overlaySurface) Hide() error       { return o.ov.Hide() }
func (o *overlaySurface) Show() error       { return o.ov.Show() }
func (o *overlaySurface) FullScreen() error { return o.ov.FullScreen() }
func (o *overlaySurface) Activate() error   { return o.ov.Focus() }
func (o *overlaySurface) Close() error      { return o.ov.Close() }

func (o *overlaySurface) Geometry() (Rect, error) {
	return rectFromGeometry(o.ov.Bounds()), nil
}

func (o *overlaySurface) SetGeometry(r Rect) error {
	return o.ov.SetBounds(geometryFromRect(r))
}

func displayFromMonitor(m x11.Monitor) Display {
	return Display{
		ID:     m.ID,
		Name:   m.Name,
		Bounds: rectFromGeometry(m.Geometry),
		Usable: rectFromGeometry(m.Usable),
	}
}

func rectFromGeometry(g x11.Geometry) Rect {
	return Rect{X: g.X, Y: g.Y, Width: g.Width, Height: g.Height}
}

func geometryFromRect(r Rect) x11.Geometry {
	return x11.Geometry{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}
