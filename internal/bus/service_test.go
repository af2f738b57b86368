package bus

import (
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/screenrole/internal/display"
)

type emitted struct {
	name   string
	values []interface{}
}

type fakeConn struct {
	exports map[string]interface{}
	signals []emitted
	reply   dbus.RequestNameReply
	closed  bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{exports: map[string]interface{}{}, reply: dbus.RequestNameReplyPrimaryOwner}
}

func (c *fakeConn) Export(v interface{}, path dbus.ObjectPath, iface string) error {
	c.exports[iface] = v
	return nil
}

func (c *fakeConn) Emit(path dbus.ObjectPath, name string, values ...interface{}) error {
	c.signals = append(c.signals, emitted{name: name, values: values})
	return nil
}

func (c *fakeConn) RequestName(name string, flags dbus.RequestNameFlags) (dbus.RequestNameReply, error) {
	return c.reply, nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

type fakeController struct {
	calls   []string
	desktop bool
	err     error
}

func (f *fakeController) Blackout() error   { f.calls = append(f.calls, "blackout"); return f.err }
func (f *fakeController) Unblackout() error { f.calls = append(f.calls, "unblackout"); return f.err }
func (f *fakeController) MainMode() error   { f.calls = append(f.calls, "main"); return f.err }
func (f *fakeController) Relayout() error   { f.calls = append(f.calls, "relayout"); return f.err }

func (f *fakeController) SetDesktopMode(displayed bool) error {
	f.calls = append(f.calls, "desktop")
	f.desktop = displayed
	return f.err
}

func (f *fakeController) Status() (display.Status, error) {
	return display.Status{Screens: 3, PreviousPages: 1, Blacked: true}, f.err
}

func TestNewServiceExportsAndClaimsName(t *testing.T) {
	conn := newFakeConn()
	svc, err := NewService(conn, "io.github.screenrole", &fakeController{}, nil)
	require.NoError(t, err)

	assert.Contains(t, conn.exports, Interface)
	assert.Contains(t, conn.exports, "org.freedesktop.DBus.Introspectable")

	require.NoError(t, svc.Close())
	assert.True(t, conn.closed)
}

func TestNewServiceNameTaken(t *testing.T) {
	conn := newFakeConn()
	conn.reply = dbus.RequestNameReplyExists
	_, err := NewService(conn, "io.github.screenrole", &fakeController{}, nil)
	assert.ErrorContains(t, err, "already taken")

	_, err = NewService(nil, "x", &fakeController{}, nil)
	assert.Error(t, err)
}

func TestMethodsForwardToController(t *testing.T) {
	conn := newFakeConn()
	ctrl := &fakeController{}
	_, err := NewService(conn, "io.github.screenrole", ctrl, nil)
	require.NoError(t, err)

	m, ok := conn.exports[Interface].(methods)
	require.True(t, ok)

	assert.Nil(t, m.Blackout())
	assert.Nil(t, m.SetDesktopMode(true))
	assert.Nil(t, m.MainModeChanged())
	assert.Nil(t, m.Relayout())
	assert.Nil(t, m.Unblackout())
	assert.Equal(t, []string{"blackout", "desktop", "main", "relayout", "unblackout"}, ctrl.calls)
	assert.True(t, ctrl.desktop)

	screens, previous, blacked, derr := m.Status()
	assert.Nil(t, derr)
	assert.Equal(t, int32(3), screens)
	assert.Equal(t, int32(1), previous)
	assert.True(t, blacked)

	ctrl.err = errors.New("blackout already active")
	derr = m.Blackout()
	require.NotNil(t, derr)
	assert.Equal(t, "org.freedesktop.DBus.Error.Failed", derr.Name)
}

func TestSignals(t *testing.T) {
	conn := newFakeConn()
	svc, err := NewService(conn, "io.github.screenrole", &fakeController{}, nil)
	require.NoError(t, err)

	svc.FadeDisplayOut()
	svc.FreezeInteractiveContent(true)
	svc.LayoutChanged()
	svc.ViewsNeedAdjustment()
	svc.FreezeInteractiveContent(false)
	svc.FadeDisplayIn()

	require.Len(t, conn.signals, 6)
	assert.Equal(t, emitted{name: Interface + ".DisplayFade", values: []interface{}{"out"}}, conn.signals[0])
	assert.Equal(t, emitted{name: Interface + ".InteractiveContentFrozen", values: []interface{}{true}}, conn.signals[1])
	assert.Equal(t, Interface+".LayoutChanged", conn.signals[2].name)
	assert.Empty(t, conn.signals[2].values)
	assert.Equal(t, Interface+".ViewsNeedAdjustment", conn.signals[3].name)
	assert.Equal(t, []interface{}{false}, conn.signals[4].values)
	assert.Equal(t, []interface{}{"in"}, conn.signals[5].values)
}
