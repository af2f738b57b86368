package palette

import (
	"errors"
	"fmt"

	"github.com/1broseidon/screenrole/internal/ipc"
)

// Action identifiers carried by palette rows.
const (
	ActionToggleBlackout = "blackout.toggle"
	ActionDesktopOn      = "desktop.on"
	ActionDesktopOff     = "desktop.off"
	ActionMultiOn        = "multiscreen.on"
	ActionMultiOff       = "multiscreen.off"
	ActionRelayout       = "relayout"
	ActionReload         = "reload"
)

// DaemonClient is the subset of the IPC client the palette drives.
type DaemonClient interface {
	Status() (*ipc.StatusData, error)
	ToggleBlackout() (bool, error)
	SetDesktopMode(displayed bool) error
	SetMultiScreen(enabled bool) error
	Relayout() error
	Reload() error
}

var _ DaemonClient = (*ipc.Client)(nil)

// Items builds the rows for the current daemon state.
func Items(st *ipc.StatusData) []Item {
	items := []Item{{Label: fmt.Sprintf("%d screen(s)", st.Screens), IsHeader: true}}

	blackout := Item{Label: "Blackout", Action: ActionToggleBlackout, Icon: "video-display"}
	if st.Blacked {
		blackout.Label = "End blackout"
		blackout.IsActive = true
	}
	items = append(items, blackout)

	if st.ShowingDesktop {
		items = append(items, Item{Label: "Hide desktop", Action: ActionDesktopOff, Icon: "user-desktop", IsActive: true})
	} else {
		items = append(items, Item{Label: "Show desktop", Action: ActionDesktopOn, Icon: "user-desktop"})
	}

	if st.MultiScreen {
		items = append(items, Item{Label: "Use a single screen", Action: ActionMultiOff, Icon: "view-restore"})
	} else {
		items = append(items, Item{Label: "Use all screens", Action: ActionMultiOn, Icon: "view-fullscreen"})
	}

	return append(items,
		Item{Label: "Re-run layout", Action: ActionRelayout, Icon: "view-refresh"},
		Item{Label: "Reload config", Action: ActionReload, Icon: "document-revert"},
	)
}

// Dispatch performs action against the daemon and returns a short summary.
func Dispatch(client DaemonClient, action string) (string, error) {
	switch action {
	case ActionToggleBlackout:
		blacked, err := client.ToggleBlackout()
		if err != nil {
			return "", err
		}
		if blacked {
			return "blackout: on", nil
		}
		return "blackout: off", nil
	case ActionDesktopOn:
		return "desktop shown", client.SetDesktopMode(true)
	case ActionDesktopOff:
		return "desktop hidden", client.SetDesktopMode(false)
	case ActionMultiOn:
		return "multi-screen on", client.SetMultiScreen(true)
	case ActionMultiOff:
		return "multi-screen off", client.SetMultiScreen(false)
	case ActionRelayout:
		return "layout pass requested", client.Relayout()
	case ActionReload:
		return "config reloaded", client.Reload()
	default:
		return "", fmt.Errorf("unknown palette action %q", action)
	}
}

// Run shows the palette once and performs the chosen action.
// A cancelled launcher returns ErrCancelled.
func Run(backend Backend, client DaemonClient) (string, error) {
	st, err := client.Status()
	if err != nil {
		return "", err
	}
	items := Items(st)
	msg := ""
	if st.LastError != "" {
		msg = "last error: " + st.LastError
	}
	for {
		item, err := backend.Show("screenrole", items, msg)
		if err != nil {
			return "", err
		}
		// dmenu and wofi cannot make the header unselectable.
		if item.IsHeader {
			continue
		}
		out, err := Dispatch(client, item.Action)
		if err != nil {
			return "", fmt.Errorf("%s: %w", item.Label, err)
		}
		return out, nil
	}
}

// IsCancelled reports whether err came from closing the launcher.
func IsCancelled(err error) bool { return errors.Is(err, ErrCancelled) }
