// Package bus exposes the display manager on the session bus and forwards
// its notifications to the host application as signals.
package bus

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/1broseidon/screenrole/internal/display"
)

const (
	ObjectPath = dbus.ObjectPath("/io/github/screenrole")
	Interface  = "io.github.screenrole.Displays"
)

const introspectXML = `
<node>
	<interface name="` + Interface + `">
		<method name="Blackout"/>
		<method name="Unblackout"/>
		<method name="SetDesktopMode">
			<arg name="displayed" direction="in" type="b"/>
		</method>
		<method name="MainModeChanged"/>
		<method name="Relayout"/>
		<method name="Status">
			<arg name="screens" direction="out" type="i"/>
			<arg name="previous" direction="out" type="i"/>
			<arg name="blacked" direction="out" type="b"/>
		</method>
		<signal name="LayoutChanged"/>
		<signal name="ViewsNeedAdjustment"/>
		<signal name="InteractiveContentFrozen">
			<arg name="frozen" type="b"/>
		</signal>
		<signal name="DisplayFade">
			<arg name="direction" type="s"/>
		</signal>
	</interface>` + introspect.IntrospectDataString + `</node>`

// Controller is the daemon side of the bus methods. Calls arrive on the bus
// goroutine; implementations hand them to the daemon loop.
type Controller interface {
	Blackout() error
	Unblackout() error
	SetDesktopMode(displayed bool) error
	MainMode() error
	Relayout() error
	Status() (display.Status, error)
}

// Conn is the subset of *dbus.Conn the service uses.
type Conn interface {
	Export(v interface{}, path dbus.ObjectPath, iface string) error
	Emit(path dbus.ObjectPath, name string, values ...interface{}) error
	RequestName(name string, flags dbus.RequestNameFlags) (dbus.RequestNameReply, error)
	Close() error
}

// Service owns the bus name and emits signals. It implements
// display.Observer, blackout.Freezer and platform.Fader.
type Service struct {
	conn   Conn
	name   string
	ctrl   Controller
	logger *slog.Logger
}

// ConnectSession connects to the session bus and starts a service named
// name.
func ConnectSession(name string, ctrl Controller, logger *slog.Logger) (*Service, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	svc, err := NewService(conn, name, ctrl, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return svc, nil
}

// NewService exports the object on conn and claims name.
func NewService(conn Conn, name string, ctrl Controller, logger *slog.Logger) (*Service, error) {
	if conn == nil || ctrl == nil {
		return nil, errors.New("dbus: connection and controller are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{conn: conn, name: name, ctrl: ctrl, logger: logger}

	if err := conn.Export(methods{s}, ObjectPath, Interface); err != nil {
		return nil, fmt.Errorf("export %s: %w", Interface, err)
	}
	if err := conn.Export(introspect.Introspectable(introspectXML), ObjectPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return nil, fmt.Errorf("export introspection: %w", err)
	}

	reply, err := conn.RequestName(name, dbus.NameFlagDoNotQueue)
	if err != nil {
		return nil, fmt.Errorf("request name %s: %w", name, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return nil, fmt.Errorf("bus name %s already taken", name)
	}

	logger.Info("dbus service registered", "name", name, "path", string(ObjectPath))
	return s, nil
}

// Close releases the bus connection.
func (s *Service) Close() error {
	return s.conn.Close()
}

// LayoutChanged implements display.Observer.
func (s *Service) LayoutChanged() {
	s.emit("LayoutChanged")
}

// ViewsNeedAdjustment implements display.Observer.
func (s *Service) ViewsNeedAdjustment() {
	s.emit("ViewsNeedAdjustment")
}

// FreezeInteractiveContent implements blackout.Freezer.
func (s *Service) FreezeInteractiveContent(frozen bool) {
	s.emit("InteractiveContentFrozen", frozen)
}

// FadeDisplayOut implements platform.Fader.
func (s *Service) FadeDisplayOut() {
	s.emit("DisplayFade", "out")
}

// FadeDisplayIn implements platform.Fader.
func (s *Service) FadeDisplayIn() {
	s.emit("DisplayFade", "in")
}

func (s *Service) emit(signal string, values ...interface{}) {
	if err := s.conn.Emit(ObjectPath, Interface+"."+signal, values...); err != nil {
		s.logger.Warn("dbus signal failed", "signal", signal, "error", err)
		return
	}
	s.logger.Debug("dbus signal", "signal", signal)
}

// methods is the exported object. Only its methods are reachable over the
// bus.
type methods struct {
	s *Service
}

func (m methods) Blackout() *dbus.Error {
	return busError(m.s.ctrl.Blackout())
}

func (m methods) Unblackout() *dbus.Error {
	return busError(m.s.ctrl.Unblackout())
}

func (m methods) SetDesktopMode(displayed bool) *dbus.Error {
	return busError(m.s.ctrl.SetDesktopMode(displayed))
}

func (m methods) MainModeChanged() *dbus.Error {
	return busError(m.s.ctrl.MainMode())
}

func (m methods) Relayout() *dbus.Error {
	return busError(m.s.ctrl.Relayout())
}

func (m methods) Status() (int32, int32, bool, *dbus.Error) {
	st, err := m.s.ctrl.Status()
	if err != nil {
		return 0, 0, false, busError(err)
	}
	return int32(st.Screens), int32(st.PreviousPages), st.Blacked, nil
}

func busError(err error) *dbus.Error {
	if err == nil {
		return nil
	}
	return dbus.MakeFailedError(err)
}
