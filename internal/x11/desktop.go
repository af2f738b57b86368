package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// ClientWindow is a managed top-level window as listed by the window manager.
type ClientWindow struct {
	ID    xproto.Window
	Class string
	Title string
}

// FocusWindow activates and raises a window using _NET_ACTIVE_WINDOW.
// The message is built by hand because the xgbutil ewmh helpers panic on
// this library version.
func (c *Connection) FocusWindow(windowID xproto.Window) error {
	atomReply, err := xproto.InternAtom(c.XUtil.Conn(), false,
		uint16(len("_NET_ACTIVE_WINDOW")), "_NET_ACTIVE_WINDOW").Reply()
	if err != nil {
		return fmt.Errorf("failed to intern _NET_ACTIVE_WINDOW: %w", err)
	}

	const sourceIndication = 2 // pager/direct action
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: windowID,
		Type:   atomReply.Atom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{sourceIndication, 0, 0, 0, 0}),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		c.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}

// FindWindows lists normal client windows whose WM_CLASS equals class
// (case-insensitive) and whose title contains title. Empty criteria match
// everything; both empty matches nothing.
func (c *Connection) FindWindows(class, title string) ([]ClientWindow, error) {
	if class == "" && title == "" {
		return nil, nil
	}

	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to get client list: %w", err)
	}

	var out []ClientWindow
	for _, win := range clients {
		if !c.IsNormalWindow(win) {
			continue
		}
		cw := ClientWindow{
			ID:    win,
			Class: c.WindowClass(win),
			Title: c.WindowTitle(win),
		}
		if matchesClient(cw, class, title) {
			out = append(out, cw)
		}
	}
	return out, nil
}

func matchesClient(cw ClientWindow, class, title string) bool {
	if class != "" && !strings.EqualFold(cw.Class, class) {
		return false
	}
	if title != "" && !strings.Contains(cw.Title, title) {
		return false
	}
	return true
}
