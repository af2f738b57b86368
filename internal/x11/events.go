package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// TopologyChange identifies the X event behind a topology notification.
type TopologyChange int

const (
	ChangeScreen TopologyChange = iota
	ChangeCrtc
	ChangeOutput
	ChangeWorkarea
)

func (t TopologyChange) String() string {
	switch t {
	case ChangeScreen:
		return "screen"
	case ChangeCrtc:
		return "crtc"
	case ChangeOutput:
		return "output"
	case ChangeWorkarea:
		return "workarea"
	default:
		return "unknown"
	}
}

// WatchTopology invokes fn from the X event loop goroutine whenever RandR
// reports a screen, CRTC or output change, or the window manager updates
// _NET_WORKAREA.
func (c *Connection) WatchTopology(fn func(TopologyChange)) error {
	if c.hasRandr {
		mask := uint16(randr.NotifyMaskScreenChange | randr.NotifyMaskCrtcChange | randr.NotifyMaskOutputChange)
		if err := randr.SelectInputChecked(c.XUtil.Conn(), c.Root, mask).Check(); err != nil {
			return fmt.Errorf("randr select input: %w", err)
		}

		// RandR events are not dispatched through per-window callbacks.
		xevent.HookFun(func(xu *xgbutil.XUtil, ev interface{}) bool {
			switch e := ev.(type) {
			case randr.ScreenChangeNotifyEvent:
				fn(ChangeScreen)
			case randr.NotifyEvent:
				switch e.SubCode {
				case randr.NotifyCrtcChange:
					fn(ChangeCrtc)
				case randr.NotifyOutputChange:
					fn(ChangeOutput)
				}
			}
			return true
		}).Connect(c.XUtil)
	}

	workarea, err := xprop.Atm(c.XUtil, "_NET_WORKAREA")
	if err != nil {
		return fmt.Errorf("failed to intern _NET_WORKAREA: %w", err)
	}
	if err := xwindow.New(c.XUtil, c.Root).Listen(xproto.EventMaskPropertyChange); err != nil {
		return fmt.Errorf("listen on root: %w", err)
	}
	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		if ev.Atom == workarea {
			fn(ChangeWorkarea)
		}
	}).Connect(c.XUtil, c.Root)

	return nil
}
