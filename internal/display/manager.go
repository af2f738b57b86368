// Package display ties role resolution, layout, topology watching and
// blackout together behind one Manager.
package display

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/1broseidon/screenrole/internal/blackout"
	"github.com/1broseidon/screenrole/internal/layout"
	"github.com/1broseidon/screenrole/internal/platform"
	"github.com/1broseidon/screenrole/internal/roles"
	"github.com/1broseidon/screenrole/internal/topology"
)

// Observer receives layout notifications.
type Observer interface {
	// LayoutChanged fires after every completed layout pass.
	LayoutChanged()
	// ViewsNeedAdjustment asks dependent views to refresh.
	ViewsNeedAdjustment()
}

// Config wires a Manager.
type Config struct {
	Host     platform.Host
	Shim     platform.Shim
	Overlays blackout.OverlayFactory
	Freezer  blackout.Freezer
	// Rules is the role table; nil uses roles.DefaultRules.
	Rules       []roles.Rule
	MultiScreen bool
	Logger      *slog.Logger
}

// Manager owns the current role map and the managed surfaces. All methods
// must be called from the same goroutine that delivers host events.
type Manager struct {
	logger *slog.Logger
	shim   platform.Shim

	resolver *roles.Resolver
	engine   *layout.Engine
	watcher  *topology.Watcher
	blackout *blackout.Controller

	surfaces  layout.Surfaces
	flags     layout.Flags
	observers []Observer

	started    bool
	lastPass   string
	lastLayout time.Time
	lastErr    error
}

// New creates a stopped Manager.
func New(cfg Config) (*Manager, error) {
	if cfg.Host == nil || cfg.Shim == nil {
		return nil, errors.New("display: host and shim are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rules := cfg.Rules
	if rules == nil {
		rules = roles.DefaultRules()
	}
	resolver, err := roles.NewResolver(rules)
	if err != nil {
		return nil, fmt.Errorf("display: %w", err)
	}

	m := &Manager{
		logger:   logger,
		shim:     cfg.Shim,
		resolver: resolver,
		engine:   layout.NewEngine(cfg.Shim, logger),
		flags:    layout.Flags{MultiScreen: cfg.MultiScreen},
	}

	m.watcher, err = topology.New(topology.Config{
		Host:            cfg.Host,
		Resolve:         func(ds []platform.Display) roles.Map { return m.resolver.Resolve(ds) },
		Apply:           m.apply,
		OnLayoutChanged: m.layoutChanged,
		Logger:          logger,
	})
	if err != nil {
		return nil, err
	}

	if cfg.Overlays != nil {
		m.blackout, err = blackout.New(blackout.Config{
			Overlays: cfg.Overlays,
			Shim:     cfg.Shim,
			Freezer:  cfg.Freezer,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

// AddObserver registers o for layout notifications.
func (m *Manager) AddObserver(o Observer) {
	m.observers = append(m.observers, o)
}

// Start subscribes to topology changes and performs the first layout.
func (m *Manager) Start() error {
	m.started = true
	return m.watcher.Start()
}

// Stop detaches from the host and releases any blackout overlays.
func (m *Manager) Stop() error {
	m.watcher.Stop()
	m.started = false
	if m.blackout != nil {
		return m.blackout.Exit()
	}
	return nil
}

// Relayout re-resolves roles and repositions every surface.
func (m *Manager) Relayout() error {
	return m.watcher.Relayout()
}

// SetRules swaps the role table. A running manager relayouts immediately.
func (m *Manager) SetRules(rules []roles.Rule) error {
	resolver, err := roles.NewResolver(rules)
	if err != nil {
		return err
	}
	m.resolver = resolver
	if m.started {
		return m.Relayout()
	}
	return nil
}

// Rules returns the active role table.
func (m *Manager) Rules() []roles.Rule {
	return m.resolver.Rules()
}

// SetMultiScreen changes the multi-screen policy. It takes effect on the
// next layout pass.
func (m *Manager) SetMultiScreen(enabled bool) {
	m.flags.MultiScreen = enabled
}

// MultiScreen reports the multi-screen policy.
func (m *Manager) MultiScreen() bool { return m.flags.MultiScreen }

// ShowingDesktop reports whether desktop mode is active.
func (m *Manager) ShowingDesktop() bool { return m.flags.ShowingDesktop }

// SetControlSurface sets the operator console surface.
func (m *Manager) SetControlSurface(s platform.Surface) {
	m.surfaces.Control = s
}

// SetDesktopSurface sets the desktop mirror surface.
func (m *Manager) SetDesktopSurface(s platform.Surface) {
	m.surfaces.Desktop = s
}

// SetDisplaySurface replaces the presentation surface. The old surface is
// hidden and its geometry handed to the new one before it is moved onto the
// presentation display.
func (m *Manager) SetDisplaySurface(s platform.Surface) error {
	if s == nil || s == m.surfaces.Display {
		return nil
	}

	var errs []error
	if old := m.surfaces.Display; old != nil {
		errs = append(errs, old.Hide())
		if g, err := old.Geometry(); err == nil {
			errs = append(errs, s.SetGeometry(g))
		}
	}
	m.surfaces.Display = s

	current := m.watcher.Current()
	if d, ok := current.Presentation(); ok && !m.flags.ShowingDesktop {
		errs = append(errs, m.engine.Place(s, d.Bounds, layout.FullScreenPaged(current, m.flags)))
	}

	m.viewsNeedAdjustment()
	return errors.Join(errs...)
}

// SetPreviousSurfaces replaces the previous-page surfaces. Index i realizes
// Paged(i+1).
func (m *Manager) SetPreviousSurfaces(surfaces []platform.Surface) {
	m.surfaces.Previous = append([]platform.Surface(nil), surfaces...)
	m.viewsNeedAdjustment()
}

// Surfaces returns the managed surfaces.
func (m *Manager) Surfaces() layout.Surfaces {
	s := m.surfaces
	s.Previous = append([]platform.Surface(nil), s.Previous...)
	return s
}

// DesktopModeChanged switches between desktop mode and presentation mode.
// Leaving desktop mode shows the presentation surface again.
func (m *Manager) DesktopModeChanged(displayed bool) error {
	if m.flags.ShowingDesktop == displayed {
		return nil
	}
	m.flags.ShowingDesktop = displayed
	m.logger.Debug("desktop mode changed", "displayed", displayed)

	var errs []error
	if s := m.surfaces.Display; s != nil {
		errs = append(errs, s.Hide())
		current := m.watcher.Current()
		if d, ok := current.Presentation(); ok && !displayed {
			errs = append(errs, m.engine.Place(s, d.Bounds, layout.FullScreenPaged(current, m.flags)))
		}
	}
	if !displayed {
		m.viewsNeedAdjustment()
	}
	return errors.Join(errs...)
}

// MainModeChanged leaves desktop mode.
func (m *Manager) MainModeChanged() error {
	return m.DesktopModeChanged(false)
}

// Blackout covers every non-ignored display.
func (m *Manager) Blackout() error {
	if m.blackout == nil {
		return errors.New("blackout is not available")
	}
	return m.blackout.Enter(m.watcher.Current())
}

// Unblackout ends a blackout. It is a no-op when none is active.
func (m *Manager) Unblackout() error {
	if m.blackout == nil {
		return nil
	}
	return m.blackout.Exit()
}

// ToggleBlackout enters or leaves a blackout.
func (m *Manager) ToggleBlackout() error {
	if m.blackout == nil {
		return errors.New("blackout is not available")
	}
	return m.blackout.Toggle(m.watcher.Current())
}

// Blacked reports whether a blackout is active.
func (m *Manager) Blacked() bool {
	return m.blackout != nil && m.blackout.Blacked()
}

// Roles returns the current role map.
func (m *Manager) Roles() roles.Map { return m.watcher.Current() }

func (m *Manager) ScreenCount() int { return m.watcher.Current().ScreenCount() }

func (m *Manager) PreviousPageCount() int { return m.watcher.Current().PreviousPageCount() }

func (m *Manager) HasControlDisplay() bool { return m.watcher.Current().HasControl() }

func (m *Manager) HasPresentationDisplay() bool { return m.watcher.Current().HasPresentation() }

func (m *Manager) HasPreviousPages() bool { return m.watcher.Current().HasPrevious() }

// ControlGeometry returns the bounds of the primary display.
func (m *Manager) ControlGeometry() (platform.Rect, bool) {
	d, ok := m.watcher.Current().Control()
	return d.Bounds, ok
}

// PresentationGeometry returns the bounds of the presentation display.
func (m *Manager) PresentationGeometry() (platform.Rect, bool) {
	d, ok := m.watcher.Current().Presentation()
	return d.Bounds, ok
}

func (m *Manager) apply(rm roles.Map) error {
	pass := ulid.Make().String()
	logger := m.logger.With("pass", pass)
	m.lastPass = pass

	err := m.engine.WithLogger(logger).Apply(rm, m.surfaces, m.flags)
	m.lastErr = err
	logger.Info("layout applied",
		"screens", rm.ScreenCount(),
		"previous", rm.PreviousPageCount(),
		"roles", rm.String(),
		"multi_screen", m.flags.MultiScreen,
		"showing_desktop", m.flags.ShowingDesktop,
	)
	return err
}

func (m *Manager) layoutChanged(roles.Map) {
	m.lastLayout = time.Now()
	for _, o := range m.observers {
		o.LayoutChanged()
	}
}

func (m *Manager) viewsNeedAdjustment() {
	for _, o := range m.observers {
		o.ViewsNeedAdjustment()
	}
}
