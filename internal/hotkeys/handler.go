package hotkeys

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// X11Accessor is implemented by backends that expose X11 internals.
type X11Accessor interface {
	XUtil() *xgbutil.XUtil
	RootWindow() xproto.Window
}

// Binding pairs a key sequence such as "Mod4-Shift-b" with an action.
type Binding struct {
	Name   string
	Keys   string
	Action func()
}

// Handler manages global keyboard shortcuts on the root window.
type Handler struct {
	xu       *xgbutil.XUtil
	root     xproto.Window
	dispatch func(func())
	logger   *slog.Logger
	bound    []Binding
}

var ignoreModsOnce sync.Once

// NewHandler creates a hotkey handler. Key callbacks run through dispatch
// (the daemon loop); a nil dispatch calls them directly.
func NewHandler(x X11Accessor, dispatch func(func()), logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if dispatch == nil {
		dispatch = func(fn func()) { fn() }
	}
	h := &Handler{
		dispatch: dispatch,
		logger:   logger,
	}
	if x != nil {
		h.xu = x.XUtil()
		h.root = x.RootWindow()
	}

	if h.xu != nil {
		ignoreModsOnce.Do(func() {
			configureIgnoreMods(h.xu)
		})
	}
	return h
}

// Bind registers every binding with a non-empty key sequence. Duplicate
// sequences keep the first binding. All bindings are attempted; failures
// are joined.
func (h *Handler) Bind(bindings ...Binding) error {
	var errs []string
	for _, b := range Dedup(bindings) {
		if err := h.RegisterFunc(b.Keys, b.Action); err != nil {
			errs = append(errs, fmt.Sprintf("%s (%s): %v", b.Name, b.Keys, err))
			continue
		}
		h.bound = append(h.bound, b)
		h.logger.Info("hotkey registered", "action", b.Name, "keys", b.Keys)
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to register hotkeys: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Rebind drops all root-window bindings and registers bindings afresh.
func (h *Handler) Rebind(bindings ...Binding) error {
	h.Unbind()
	return h.Bind(bindings...)
}

// Unbind removes every binding registered on the root window.
func (h *Handler) Unbind() {
	if h.xu != nil && len(h.bound) > 0 {
		keybind.Detach(h.xu, h.root)
	}
	h.bound = nil
}

// Bound returns the registered bindings.
func (h *Handler) Bound() []Binding {
	return append([]Binding(nil), h.bound...)
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	if h.xu == nil {
		return fmt.Errorf("hotkeys require an X11 connection")
	}
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		h.dispatch(callback)
	}).Connect(h.xu, h.root, keySequence, true)
}

// Dedup drops bindings with empty keys and later bindings reusing a key
// sequence already taken.
func Dedup(bindings []Binding) []Binding {
	seen := make(map[string]bool, len(bindings))
	out := make([]Binding, 0, len(bindings))
	for _, b := range bindings {
		keys := strings.TrimSpace(b.Keys)
		if keys == "" || b.Action == nil || seen[keys] {
			continue
		}
		seen[keys] = true
		b.Keys = keys
		out = append(out, b)
	}
	return out
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	unique := make(map[uint16]struct{})
	add := func(mask uint16) {
		unique[mask] = struct{}{}
	}

	add(0)
	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		add(mask)
	}

	ignore := make([]uint16, 0, len(unique))
	for mask := range unique {
		ignore = append(ignore, mask)
	}

	xevent.IgnoreMods = ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
