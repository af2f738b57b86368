package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/screenrole/internal/config"
	"github.com/1broseidon/screenrole/internal/display"
	"github.com/1broseidon/screenrole/internal/platform"
)

// WindowFinder looks up client windows by class and title.
type WindowFinder interface {
	FindWindows(class, title string) ([]platform.Window, error)
}

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval  time.Duration
	Selectors config.SurfacesConfig
	Finder    WindowFinder
	Sync      *SurfaceSynchronizer
	// Post runs a closure on the daemon loop.
	Post func(func())
	// OnChange runs on the loop after any binding changed.
	OnChange func()
	Logger   *slog.Logger
}

// Reconciler periodically resolves the configured surface selectors to
// windows and rebinds slots whose window changed.
type Reconciler struct {
	finder   WindowFinder
	sync     *SurfaceSynchronizer
	post     func(func())
	onChange func()
	logger   *slog.Logger

	mu        sync.Mutex
	interval  time.Duration
	selectors config.SurfacesConfig
	reset     chan struct{}
}

// NewReconciler creates a new reconciler with the given configuration.
func NewReconciler(cfg ReconcilerConfig) *Reconciler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	post := cfg.Post
	if post == nil {
		post = func(fn func()) { fn() }
	}
	return &Reconciler{
		finder:    cfg.Finder,
		sync:      cfg.Sync,
		post:      post,
		onChange:  cfg.OnChange,
		logger:    logger,
		interval:  cfg.Interval,
		selectors: cfg.Selectors,
		reset:     make(chan struct{}, 1),
	}
}

// Update swaps the selectors and interval after a config reload.
func (r *Reconciler) Update(interval time.Duration, selectors config.SurfacesConfig) {
	r.mu.Lock()
	r.interval = interval
	r.selectors = selectors
	r.mu.Unlock()

	select {
	case r.reset <- struct{}{}:
	default:
	}
}

// Run starts the reconciliation loop. Blocks until context is cancelled.
// An interval of 0 disables periodic passes until Update sets one.
func (r *Reconciler) Run(ctx context.Context) {
	r.logger.Info("reconciler started", "interval", r.currentInterval())
	for {
		var tick <-chan time.Time
		var ticker *time.Ticker
		if interval := r.currentInterval(); interval > 0 {
			ticker = time.NewTicker(interval)
			tick = ticker.C
		}

		select {
		case <-ctx.Done():
			if ticker != nil {
				ticker.Stop()
			}
			r.logger.Info("reconciler stopped")
			return
		case <-r.reset:
		case <-tick:
			want := r.resolve()
			r.post(func() { r.apply(want) })
		}
		if ticker != nil {
			ticker.Stop()
		}
	}
}

// ReconcileNow resolves and applies on the calling goroutine, which must be
// the loop.
func (r *Reconciler) ReconcileNow() {
	r.apply(r.resolve())
}

func (r *Reconciler) currentInterval() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.interval
}

// resolve maps every configured selector to the first matching window, or
// to 0 when nothing matches. Empty selectors are not managed.
func (r *Reconciler) resolve() map[Slot]platform.WindowID {
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
		}
	}()

	r.mu.Lock()
	sel := r.selectors
	r.mu.Unlock()

	want := make(map[Slot]platform.WindowID)
	lookup := func(slot Slot, s config.Selector) {
		if s.Empty() {
			return
		}
		windows, err := r.finder.FindWindows(s.Class, s.Title)
		if err != nil {
			r.logger.Warn("reconciler: window lookup failed", "surface", slot.String(), "error", err)
			return
		}
		var id platform.WindowID
		if len(windows) > 0 {
			id = windows[0].ID
		}
		want[slot] = id
	}

	lookup(Slot{Kind: display.SurfaceControl}, sel.Control)
	lookup(Slot{Kind: display.SurfaceDisplay}, sel.Display)
	lookup(Slot{Kind: display.SurfaceDesktop}, sel.Desktop)
	for i, s := range sel.Previous {
		lookup(Slot{Kind: display.SurfacePrevious, Index: i}, s)
	}
	return want
}

func (r *Reconciler) apply(want map[Slot]platform.WindowID) {
	changed, err := r.sync.Apply(want)
	if err != nil {
		r.logger.Warn("reconciler: surface binding failed", "error", err)
	}
	if changed && r.onChange != nil {
		r.onChange()
	}
}
