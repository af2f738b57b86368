//go:build linux

package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/screenrole/internal/blackout"
	"github.com/1broseidon/screenrole/internal/bus"
	"github.com/1broseidon/screenrole/internal/config"
	"github.com/1broseidon/screenrole/internal/display"
	"github.com/1broseidon/screenrole/internal/hotkeys"
	"github.com/1broseidon/screenrole/internal/ipc"
	"github.com/1broseidon/screenrole/internal/platform"
)

// Options configures a Daemon.
type Options struct {
	// ConfigPath overrides the default config location.
	ConfigPath string
	// SocketPath overrides the IPC socket location.
	SocketPath string
	// Level, when set, follows the configured log_level across reloads.
	Level  *slog.LevelVar
	Logger *slog.Logger
}

// Daemon wires the X11 backend, the display manager and every control
// surface (hotkeys, IPC, D-Bus, config watcher, signals) around one loop.
type Daemon struct {
	opts   Options
	logger *slog.Logger

	cfg        *config.Config
	configPath string

	loop       *Loop
	backend    *platform.LinuxBackend
	manager    *display.Manager
	sync       *SurfaceSynchronizer
	reconciler *Reconciler
	hotkeys    *hotkeys.Handler
	service    *bus.Service
	ipc        *ipc.Server
	watcher    *config.FileWatcher
}

// New loads configuration; nothing is connected until Run.
func New(opts Options) (*Daemon, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	path := opts.ConfigPath
	if path == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	res, err := config.LoadFromPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	d := &Daemon{
		opts:       opts,
		logger:     logger,
		cfg:        res.Config,
		configPath: path,
		loop:       NewLoop(128, logger),
	}
	d.applyLogLevel()
	return d, nil
}

// Run connects to X11, starts every component and blocks until ctx is
// cancelled or SIGINT/SIGTERM arrives.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	backend, err := platform.NewLinuxBackendFromDisplay(d.logger)
	if err != nil {
		return err
	}
	defer backend.Disconnect()
	d.backend = backend
	backend.SetDispatcher(d.loop.Dispatch)
	backend.SetOverlayStyle(platform.OverlayStyle{Logo: d.cfg.Blackout.Logo, Label: d.cfg.Blackout.Label})

	rules, err := d.cfg.RoleRules()
	if err != nil {
		return err
	}

	// The freezer is resolved lazily so the bus service, created after the
	// manager, can take over once connected.
	freezer := &freezerProxy{logger: d.logger}
	d.manager, err = display.New(display.Config{
		Host:        backend,
		Shim:        backend,
		Overlays:    backend,
		Freezer:     freezer,
		Rules:       rules,
		MultiScreen: d.cfg.MultiScreen,
		Logger:      d.logger,
	})
	if err != nil {
		return err
	}

	d.sync = NewSurfaceSynchronizer(backend, d.manager, d.logger)
	controller := NewController(d.loop, d.manager, d.sync, d.reload, d.logger)

	if d.cfg.DBus.Enabled {
		svc, err := bus.ConnectSession(d.cfg.DBus.Name, controller, d.logger)
		if err != nil {
			d.logger.Warn("dbus service unavailable", "error", err)
		} else {
			d.service = svc
			defer svc.Close()
			backend.SetFader(svc)
			freezer.target = svc
			d.manager.AddObserver(svc)
		}
	}

	go d.loop.Run(ctx)

	d.reconciler = NewReconciler(ReconcilerConfig{
		Interval:  d.cfg.Surfaces.ReconcileInterval,
		Selectors: d.cfg.Surfaces,
		Finder:    backend,
		Sync:      d.sync,
		Post:      d.loop.Dispatch,
		OnChange:  d.relayout,
		Logger:    d.logger,
	})

	if err := d.loop.Call(func() error {
		err := d.manager.Start()
		d.reconciler.ReconcileNow()
		return err
	}); err != nil {
		d.logger.Warn("initial layout incomplete", "error", err)
	}
	defer func() {
		cancel()
		<-d.loop.Done()
		if err := d.manager.Stop(); err != nil {
			d.logger.Warn("failed to release blackout", "error", err)
		}
	}()

	if err := backend.WatchTopology(); err != nil {
		return fmt.Errorf("failed to watch display topology: %w", err)
	}

	d.hotkeys = hotkeys.NewHandler(backend, d.loop.Dispatch, d.logger)
	if err := d.hotkeys.Bind(d.bindings()...); err != nil {
		d.logger.Warn("hotkeys unavailable", "error", err)
	}

	if d.opts.SocketPath != "" {
		d.ipc = ipc.NewServerAt(d.opts.SocketPath, controller, d.logger)
	} else if d.ipc, err = ipc.NewServer(controller, d.logger); err != nil {
		return err
	}
	d.ipc.SetConfigPath(d.configPath)
	if err := d.ipc.Start(); err != nil {
		return err
	}
	defer d.ipc.Stop()

	if d.cfg.WatchConfig {
		d.watcher, err = config.NewFileWatcher(d.configPath, func() {
			d.loop.Dispatch(func() {
				if err := d.reload(); err != nil {
					d.logger.Error("config reload failed", "error", err)
				}
			})
		}, d.logger)
		if err == nil {
			err = d.watcher.Start()
		}
		if err != nil {
			d.logger.Warn("config watcher unavailable", "error", err)
		} else {
			defer d.watcher.Stop()
		}
	}

	go d.reconciler.Run(ctx)
	go d.handleSignals(ctx, cancel)

	go func() {
		<-ctx.Done()
		backend.Quit()
	}()

	d.logger.Info("screenrole daemon started", "config", d.configPath)
	backend.EventLoop()
	d.logger.Info("shutting down screenrole daemon")
	return nil
}

func (d *Daemon) handleSignals(ctx context.Context, cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGHUP:
				d.logger.Info("received SIGHUP, reloading config")
				d.loop.Dispatch(func() {
					if err := d.reload(); err != nil {
						d.logger.Error("config reload failed", "error", err)
					}
				})
			default:
				d.logger.Info("received signal", "signal", sig.String())
				cancel()
				return
			}
		}
	}
}

func (d *Daemon) bindings() []hotkeys.Binding {
	return []hotkeys.Binding{
		{Name: "toggle-blackout", Keys: d.cfg.Blackout.Hotkey, Action: func() {
			if err := d.manager.ToggleBlackout(); err != nil {
				d.logger.Warn("blackout toggle failed", "error", err)
			}
		}},
		{Name: "relayout", Keys: d.cfg.RelayoutHotkey, Action: d.relayout},
	}
}

func (d *Daemon) relayout() {
	if err := d.manager.Relayout(); err != nil {
		d.logger.Warn("relayout failed", "error", err)
	}
}

// reload re-reads the config file and applies what can change at runtime:
// rules, multi-screen, selectors, hotkeys, overlay text and log level.
// Runs on the loop.
func (d *Daemon) reload() error {
	res, err := config.LoadFromPath(d.configPath)
	if err != nil {
		return err
	}
	cfg := res.Config
	rules, err := cfg.RoleRules()
	if err != nil {
		return err
	}

	old := d.cfg
	d.cfg = cfg
	d.applyLogLevel()

	d.backend.SetOverlayStyle(platform.OverlayStyle{Logo: cfg.Blackout.Logo, Label: cfg.Blackout.Label})
	d.manager.SetMultiScreen(cfg.MultiScreen)
	d.reconciler.Update(cfg.Surfaces.ReconcileInterval, cfg.Surfaces)
	d.reconciler.ReconcileNow()

	if old.Blackout.Hotkey != cfg.Blackout.Hotkey || old.RelayoutHotkey != cfg.RelayoutHotkey {
		if err := d.hotkeys.Rebind(d.bindings()...); err != nil {
			d.logger.Warn("hotkey rebind failed", "error", err)
		}
	}

	// SetRules relayouts.
	if err := d.manager.SetRules(rules); err != nil {
		return err
	}
	d.logger.Info("config reloaded", "rules", len(rules), "multi_screen", cfg.MultiScreen)
	return nil
}

func (d *Daemon) applyLogLevel() {
	if d.opts.Level == nil {
		return
	}
	level, err := ParseLevel(d.cfg.LogLevel)
	if err != nil {
		return
	}
	d.opts.Level.Set(level)
}

// freezerProxy forwards to the bus service once it exists.
type freezerProxy struct {
	target blackout.Freezer
	logger *slog.Logger
}

func (f *freezerProxy) FreezeInteractiveContent(frozen bool) {
	if f.target == nil {
		f.logger.Debug("no freezer connected", "frozen", frozen)
		return
	}
	f.target.FreezeInteractiveContent(frozen)
}
