package daemon

import (
	"log/slog"

	"github.com/1broseidon/screenrole/internal/bus"
	"github.com/1broseidon/screenrole/internal/display"
	"github.com/1broseidon/screenrole/internal/ipc"
	"github.com/1broseidon/screenrole/internal/platform"
)

var (
	_ ipc.Handler    = (*Controller)(nil)
	_ bus.Controller = (*Controller)(nil)
)

// Controller serves IPC and D-Bus requests by running them on the loop.
type Controller struct {
	loop    *Loop
	manager *display.Manager
	sync    *SurfaceSynchronizer
	reload  func() error
	logger  *slog.Logger
}

// NewController creates a controller. reload re-reads configuration and is
// invoked on the loop.
func NewController(loop *Loop, manager *display.Manager, sync *SurfaceSynchronizer, reload func() error, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{loop: loop, manager: manager, sync: sync, reload: reload, logger: logger}
}

func (c *Controller) Status() (display.Status, error) {
	var st display.Status
	err := c.loop.Call(func() error {
		st = c.manager.Status()
		return nil
	})
	return st, err
}

func (c *Controller) Blackout() error {
	return c.loop.Call(c.manager.Blackout)
}

func (c *Controller) Unblackout() error {
	return c.loop.Call(c.manager.Unblackout)
}

func (c *Controller) ToggleBlackout() (bool, error) {
	var blacked bool
	err := c.loop.Call(func() error {
		err := c.manager.ToggleBlackout()
		blacked = c.manager.Blacked()
		return err
	})
	return blacked, err
}

func (c *Controller) SetDesktopMode(displayed bool) error {
	return c.loop.Call(func() error {
		return c.manager.DesktopModeChanged(displayed)
	})
}

func (c *Controller) MainMode() error {
	return c.loop.Call(c.manager.MainModeChanged)
}

// SetMultiScreen stores the flag and relayouts so it takes effect.
func (c *Controller) SetMultiScreen(enabled bool) error {
	return c.loop.Call(func() error {
		if c.manager.MultiScreen() == enabled {
			return nil
		}
		c.manager.SetMultiScreen(enabled)
		return c.manager.Relayout()
	})
}

// SetSurface pins window to a surface slot; window 0 clears it.
func (c *Controller) SetSurface(kind string, index int, window uint32) error {
	k, err := display.ParseSurfaceKind(kind)
	if err != nil {
		return err
	}
	return c.loop.Call(func() error {
		if err := c.sync.Pin(Slot{Kind: k, Index: index}, platform.WindowID(window)); err != nil {
			return err
		}
		return c.manager.Relayout()
	})
}

func (c *Controller) Relayout() error {
	return c.loop.Call(c.manager.Relayout)
}

func (c *Controller) Reload() error {
	if c.reload == nil {
		return nil
	}
	return c.loop.Call(c.reload)
}
