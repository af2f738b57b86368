// Package blackout covers every non-ignored display with an opaque overlay
// and restores the previous state on dismissal.
package blackout

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/1broseidon/screenrole/internal/platform"
	"github.com/1broseidon/screenrole/internal/roles"
)

// ErrAlreadyBlackedOut is returned by Enter while a blackout is active.
var ErrAlreadyBlackedOut = errors.New("blackout already active")

// State is the blackout controller state.
type State int

const (
	Normal State = iota
	Blacked
)

func (s State) String() string {
	switch s {
	case Normal:
		return "normal"
	case Blacked:
		return "blacked"
	default:
		return "unknown"
	}
}

// OverlayFactory creates overlays. Dismissable overlays show the return
// affordance and call onActivity when it is used.
type OverlayFactory interface {
	NewOverlay(bounds platform.Rect, dismissable bool, onActivity func()) (platform.Overlay, error)
}

// Freezer pauses and resumes interactive content while blacked out.
type Freezer interface {
	FreezeInteractiveContent(frozen bool)
}

// Config wires a Controller.
type Config struct {
	Overlays OverlayFactory
	Shim     platform.Shim
	Freezer  Freezer
	// OnStateChange runs after every transition.
	OnStateChange func(State)
	Logger        *slog.Logger
}

// Controller owns blackout overlays. It must be used from a single
// goroutine.
type Controller struct {
	cfg      Config
	logger   *slog.Logger
	state    State
	overlays []platform.Overlay
	session  uint64
}

// New returns a controller in the Normal state.
func New(cfg Config) (*Controller, error) {
	if cfg.Overlays == nil {
		return nil, errors.New("blackout: overlay factory is required")
	}
	if cfg.Shim == nil {
		return nil, errors.New("blackout: platform shim is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{cfg: cfg, logger: logger}, nil
}

// Enter blacks out every non-ignored display of m. Only the overlay on the
// primary display can be dismissed. On failure every overlay created so far
// is released and the controller stays Normal.
func (c *Controller) Enter(m roles.Map) error {
	if c.state == Blacked {
		return ErrAlreadyBlackedOut
	}

	c.freeze(true)
	c.session++
	session := c.session

	var created []platform.Overlay
	var focus platform.Overlay
	for _, a := range m.NonIgnored() {
		dismissable := a.Role.Kind == roles.KindPrimary
		var onActivity func()
		if dismissable {
			onActivity = func() { c.dismiss(session) }
		}
		ov, err := c.cfg.Overlays.NewOverlay(a.Display.Bounds, dismissable, onActivity)
		if err != nil {
			c.rollback(created, false)
			return fmt.Errorf("create overlay for %s: %w", a.Display.Name, err)
		}
		created = append(created, ov)
		if dismissable {
			focus = ov
		}
	}

	c.cfg.Shim.FadeDisplayOut()
	for i, ov := range created {
		if err := c.cfg.Shim.ShowFullScreen(ov); err != nil {
			c.rollback(created, true)
			return fmt.Errorf("show overlay %d: %w", i, err)
		}
	}

	// Override-redirect windows are never focused by the window manager;
	// key presses only reach the dismiss overlay once it holds input focus.
	if focus != nil {
		if err := focus.Activate(); err != nil {
			c.logger.Warn("focus dismiss overlay failed", "error", err)
		}
	}

	c.overlays = created
	c.transition(Blacked)
	c.logger.Info("blackout entered", "overlays", len(created))
	return nil
}

// Exit closes every overlay and resumes normal display. Calling Exit while
// Normal does nothing.
func (c *Controller) Exit() error {
	if c.state == Normal {
		return nil
	}

	err := closeAll(c.overlays)
	c.overlays = nil
	c.cfg.Shim.FadeDisplayIn()
	c.freeze(false)
	c.transition(Normal)
	c.logger.Info("blackout exited")
	return err
}

// Toggle enters a blackout when Normal and exits it when Blacked.
func (c *Controller) Toggle(m roles.Map) error {
	if c.state == Blacked {
		return c.Exit()
	}
	return c.Enter(m)
}

// State returns the current state.
func (c *Controller) State() State { return c.state }

// Blacked reports whether a blackout is active.
func (c *Controller) Blacked() bool { return c.state == Blacked }

// Overlays returns the number of live overlays.
func (c *Controller) Overlays() int { return len(c.overlays) }

// dismiss handles activity on the return affordance of a given blackout
// session. Activity from an older session or after exit is ignored.
func (c *Controller) dismiss(session uint64) {
	if session != c.session || c.state != Blacked {
		return
	}
	if err := c.Exit(); err != nil {
		c.logger.Warn("blackout exit failed", "error", err)
	}
}

func (c *Controller) rollback(created []platform.Overlay, faded bool) {
	if err := closeAll(created); err != nil {
		c.logger.Warn("closing overlays after failed blackout", "error", err)
	}
	if faded {
		c.cfg.Shim.FadeDisplayIn()
	}
	c.freeze(false)
}

func (c *Controller) freeze(frozen bool) {
	if c.cfg.Freezer != nil {
		c.cfg.Freezer.FreezeInteractiveContent(frozen)
	}
}

func (c *Controller) transition(s State) {
	c.state = s
	if c.cfg.OnStateChange != nil {
		c.cfg.OnStateChange(s)
	}
}

func closeAll(overlays []platform.Overlay) error {
	var errs []error
	for _, ov := range overlays {
		if err := ov.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
