// Package topology re-resolves display roles whenever the host reports a
// display being added, removed, resized or having its work area change.
package topology

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/1broseidon/screenrole/internal/platform"
	"github.com/1broseidon/screenrole/internal/roles"
)

// State is the watcher lifecycle state.
type State int

const (
	Subscribed State = iota
	Resolving
)

func (s State) String() string {
	switch s {
	case Subscribed:
		return "subscribed"
	case Resolving:
		return "resolving"
	default:
		return "unknown"
	}
}

// Event is a host display notification. Display is empty for global
// add/remove events. The payload is only logged: every event triggers a
// full pass.
type Event struct {
	Kind    platform.ChangeKind
	Display string
}

// Config wires a Watcher to its collaborators.
type Config struct {
	Host platform.Host
	// Resolve maps the current display list to roles.
	Resolve func([]platform.Display) roles.Map
	// Apply lays out surfaces for a freshly resolved map.
	Apply func(roles.Map) error
	// OnLayoutChanged runs after every completed pass.
	OnLayoutChanged func(roles.Map)
	Logger          *slog.Logger
}

// Watcher drives resolve and layout passes from host events. It must be
// used from a single goroutine.
type Watcher struct {
	cfg    Config
	logger *slog.Logger

	state    State
	current  roles.Map
	started  bool
	cancels  []func()
	watching []string
	dropped  int
	passes   int
}

// New validates cfg and returns an idle watcher.
func New(cfg Config) (*Watcher, error) {
	if cfg.Host == nil {
		return nil, errors.New("topology: host is required")
	}
	if cfg.Resolve == nil {
		return nil, errors.New("topology: resolve func is required")
	}
	if cfg.Apply == nil {
		cfg.Apply = func(roles.Map) error { return nil }
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{cfg: cfg, logger: logger}, nil
}

// Start subscribes to host notifications and runs the initial pass.
func (w *Watcher) Start() error {
	w.started = true
	return w.pass("start")
}

// Stop detaches every listener. Events are ignored until Start is called
// again.
func (w *Watcher) Stop() {
	w.detach()
	w.started = false
}

// Handle runs a full pass for ev. Events arriving while a pass is in
// progress are dropped.
func (w *Watcher) Handle(ev Event) error {
	if !w.started {
		return nil
	}
	reason := ev.Kind.String()
	if ev.Display != "" {
		reason = fmt.Sprintf("%s %s", ev.Display, reason)
	}
	return w.pass(reason)
}

// Relayout runs a full pass on demand.
func (w *Watcher) Relayout() error {
	if !w.started {
		return errors.New("topology: watcher not started")
	}
	return w.pass("relayout")
}

func (w *Watcher) pass(reason string) error {
	if w.state == Resolving {
		w.dropped++
		w.logger.Debug("dropping re-entrant topology event", "reason", reason, "dropped", w.dropped)
		return nil
	}

	w.state = Resolving
	w.detach()

	displays, err := w.cfg.Host.Displays()
	if err != nil {
		w.attach(w.current.Assignments())
		w.state = Subscribed
		w.logger.Warn("display enumeration failed", "reason", reason, "error", err)
		return fmt.Errorf("enumerate displays: %w", err)
	}

	m := w.cfg.Resolve(displays)
	w.current = m
	w.attach(m.Assignments())

	w.logger.Debug("roles resolved", "reason", reason, "roles", m.String())
	applyErr := w.cfg.Apply(m)

	w.state = Subscribed
	w.passes++
	if w.cfg.OnLayoutChanged != nil {
		w.cfg.OnLayoutChanged(m)
	}
	return applyErr
}

func (w *Watcher) attach(assignments []roles.Assignment) {
	w.cancels = append(w.cancels, w.cfg.Host.OnDisplaysChanged(func(kind platform.ChangeKind) {
		w.notify(Event{Kind: kind})
	}))
	w.watching = w.watching[:0]
	for _, a := range assignments {
		name := a.Display.Name
		w.cancels = append(w.cancels, w.cfg.Host.OnDisplayChanged(name, func(kind platform.ChangeKind) {
			w.notify(Event{Kind: kind, Display: name})
		}))
		w.watching = append(w.watching, name)
	}
}

func (w *Watcher) detach() {
	for _, cancel := range w.cancels {
		cancel()
	}
	w.cancels = nil
	w.watching = nil
}

func (w *Watcher) notify(ev Event) {
	if err := w.Handle(ev); err != nil {
		w.logger.Warn("layout pass failed", "event", ev.Kind.String(), "display", ev.Display, "error", err)
	}
}

// State returns the current lifecycle state.
func (w *Watcher) State() State { return w.state }

// Current returns the role map of the last pass.
func (w *Watcher) Current() roles.Map { return w.current }

// Watching returns the names of displays with an attached listener.
func (w *Watcher) Watching() []string { return append([]string(nil), w.watching...) }

// Dropped returns the number of re-entrant events discarded so far.
func (w *Watcher) Dropped() int { return w.dropped }

// Passes returns the number of completed passes.
func (w *Watcher) Passes() int { return w.passes }
