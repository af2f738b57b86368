package daemon

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/screenrole/internal/config"
	"github.com/1broseidon/screenrole/internal/display"
	"github.com/1broseidon/screenrole/internal/platform"
	"github.com/1broseidon/screenrole/internal/platform/platformtest"
)

type harness struct {
	host     *platformtest.Host
	shim     *platformtest.Shim
	overlays *platformtest.OverlayFactory
	windows  *platformtest.Windows
	manager  *display.Manager
	sync     *SurfaceSynchronizer
}

func newHarness(t *testing.T, windows ...platform.Window) *harness {
	t.Helper()
	h := &harness{
		host: platformtest.NewHost(
			platformtest.Display("Virtual-2", 0, 0, 1920, 1080),
			platformtest.Display("Virtual-3", 1920, 0, 1920, 1080),
			platformtest.Display("Virtual-4", 3840, 0, 1920, 1080),
		),
		shim:     &platformtest.Shim{},
		overlays: &platformtest.OverlayFactory{},
		windows:  platformtest.NewWindows(windows...),
	}
	var err error
	h.manager, err = display.New(display.Config{
		Host:        h.host,
		Shim:        h.shim,
		Overlays:    h.overlays,
		MultiScreen: true,
	})
	require.NoError(t, err)
	h.sync = NewSurfaceSynchronizer(h.windows, h.manager, nil)
	return h
}

func selectors() config.SurfacesConfig {
	return config.SurfacesConfig{
		Control:  config.Selector{Class: "board", Title: "Control"},
		Display:  config.Selector{Class: "board", Title: "Display"},
		Previous: []config.Selector{{Title: "Previous"}},
	}
}

func TestSurfaceSynchronizerBindsAndClears(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.manager.Start())

	changed, err := h.sync.Apply(map[Slot]platform.WindowID{
		{Kind: display.SurfaceDisplay}: 0x10,
		{Kind: display.SurfaceControl}: 0x20,
	})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Same(t, h.windows.SurfaceFor(0x10), h.manager.Surfaces().Display)
	assert.Same(t, h.windows.SurfaceFor(0x20), h.manager.Surfaces().Control)

	changed, err = h.sync.Apply(map[Slot]platform.WindowID{{Kind: display.SurfaceDisplay}: 0x10})
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = h.sync.Apply(map[Slot]platform.WindowID{{Kind: display.SurfaceDisplay}: 0})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Nil(t, h.manager.Surfaces().Display)
	assert.NotContains(t, h.sync.Bound(), Slot{Kind: display.SurfaceDisplay})
}

func TestSurfaceSynchronizerPinnedSlotsIgnoreApply(t *testing.T) {
	h := newHarness(t)
	slot := Slot{Kind: display.SurfacePrevious, Index: 0}

	require.NoError(t, h.sync.Pin(slot, 0x30))
	assert.True(t, h.sync.Pinned(slot))

	changed, err := h.sync.Apply(map[Slot]platform.WindowID{slot: 0x31})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, platform.WindowID(0x30), h.sync.Bound()[slot])

	// Clearing a pin hands the slot back.
	require.NoError(t, h.sync.Pin(slot, 0))
	assert.False(t, h.sync.Pinned(slot))
	changed, err = h.sync.Apply(map[Slot]platform.WindowID{slot: 0x31})
	require.NoError(t, err)
	assert.True(t, changed)

	assert.Error(t, h.sync.Pin(Slot{Kind: "sidebar"}, 1))
	assert.Error(t, h.sync.Pin(Slot{Kind: display.SurfacePrevious, Index: -1}, 1))
}

type flakySetter struct {
	err   error
	calls int
}

func (f *flakySetter) SetSurface(kind display.SurfaceKind, index int, s platform.Surface) error {
	f.calls++
	return f.err
}

func TestSurfaceSynchronizerFailedPinStaysUnpinned(t *testing.T) {
	target := &flakySetter{err: errors.New("window gone")}
	sync := NewSurfaceSynchronizer(platformtest.NewWindows(), target, nil)
	slot := Slot{Kind: display.SurfaceDisplay}

	require.Error(t, sync.Pin(slot, 0x40))
	assert.False(t, sync.Pinned(slot))
	assert.NotContains(t, sync.Bound(), slot)

	// The reconciler still owns the slot and can bind it once the target works.
	target.err = nil
	changed, err := sync.Apply(map[Slot]platform.WindowID{slot: 0x41})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, platform.WindowID(0x41), sync.Bound()[slot])
	assert.Equal(t, 2, target.calls)
}

func TestReconcilerResolvesSelectors(t *testing.T) {
	h := newHarness(t,
		platform.Window{ID: 0x42, AppID: "board", Title: "Board Display"},
		platform.Window{ID: 0x41, AppID: "board", Title: "Board Control"},
		platform.Window{ID: 0x43, AppID: "viewer", Title: "Previous page"},
	)
	require.NoError(t, h.manager.Start())

	relayouts := 0
	r := NewReconciler(ReconcilerConfig{
		Selectors: selectors(),
		Finder:    h.windows,
		Sync:      h.sync,
		OnChange: func() {
			relayouts++
			require.NoError(t, h.manager.Relayout())
		},
	})

	r.ReconcileNow()
	assert.Equal(t, 1, relayouts)
	assert.Equal(t, map[Slot]platform.WindowID{
		{Kind: display.SurfaceControl}:            0x41,
		{Kind: display.SurfaceDisplay}:            0x42,
		{Kind: display.SurfacePrevious, Index: 0}: 0x43,
	}, h.sync.Bound())

	// Virtual-3 is presentation, Virtual-4 previous page 1.
	assert.True(t, h.windows.SurfaceFor(0x42).Full)
	assert.Equal(t, 1920, h.windows.SurfaceFor(0x42).Bounds.X)
	assert.Equal(t, 3840, h.windows.SurfaceFor(0x43).Bounds.X)

	// Nothing changed: no relayout.
	r.ReconcileNow()
	assert.Equal(t, 1, relayouts)

	// The display window closes.
	h.windows.Set(
		platform.Window{ID: 0x41, AppID: "board", Title: "Board Control"},
		platform.Window{ID: 0x43, AppID: "viewer", Title: "Previous page"},
	)
	r.ReconcileNow()
	assert.Equal(t, 2, relayouts)
	assert.Nil(t, h.manager.Surfaces().Display)
}

func TestReconcilerLookupFailureKeepsBindings(t *testing.T) {
	h := newHarness(t, platform.Window{ID: 0x41, AppID: "board", Title: "Control"})
	r := NewReconciler(ReconcilerConfig{Selectors: selectors(), Finder: h.windows, Sync: h.sync})
	r.ReconcileNow()
	require.Contains(t, h.sync.Bound(), Slot{Kind: display.SurfaceControl})

	h.windows.Err = errors.New("x11 gone")
	r.ReconcileNow()
	assert.Contains(t, h.sync.Bound(), Slot{Kind: display.SurfaceControl})
}

func TestReconcilerUpdateSelectors(t *testing.T) {
	h := newHarness(t, platform.Window{ID: 0x50, AppID: "other", Title: "Desk"})
	r := NewReconciler(ReconcilerConfig{Selectors: selectors(), Finder: h.windows, Sync: h.sync})
	r.ReconcileNow()
	assert.Empty(t, h.sync.Bound())

	r.Update(0, config.SurfacesConfig{Desktop: config.Selector{Class: "other"}})
	r.ReconcileNow()
	assert.Equal(t, platform.WindowID(0x50), h.sync.Bound()[Slot{Kind: display.SurfaceDesktop}])
}

func TestReconcilerRunStopsOnCancel(t *testing.T) {
	h := newHarness(t)
	r := NewReconciler(ReconcilerConfig{Finder: h.windows, Sync: h.sync})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	r.Update(0, config.SurfacesConfig{})
	cancel()
	<-done
}

func TestControllerRunsOnLoop(t *testing.T) {
	h := newHarness(t, platform.Window{ID: 0x60, AppID: "board", Title: "Display"})
	loop, _ := startLoop(t)
	require.NoError(t, loop.Call(h.manager.Start))

	reloads := 0
	c := NewController(loop, h.manager, h.sync, func() error { reloads++; return nil }, nil)

	st, err := c.Status()
	require.NoError(t, err)
	assert.Equal(t, 3, st.Screens)
	assert.Equal(t, 1, st.PreviousPages)

	require.NoError(t, c.Blackout())
	blacked, err := c.ToggleBlackout()
	require.NoError(t, err)
	assert.False(t, blacked)
	blacked, err = c.ToggleBlackout()
	require.NoError(t, err)
	assert.True(t, blacked)
	require.NoError(t, c.Unblackout())
	require.NoError(t, c.Unblackout())

	require.NoError(t, c.SetSurface("display", 0, 0x60))
	require.NoError(t, loop.Call(func() error {
		assert.True(t, h.sync.Pinned(Slot{Kind: display.SurfaceDisplay}))
		return nil
	}))
	assert.Error(t, c.SetSurface("sidebar", 0, 1))

	require.NoError(t, c.SetDesktopMode(true))
	require.NoError(t, c.MainMode())
	require.NoError(t, c.SetMultiScreen(false))
	st, err = c.Status()
	require.NoError(t, err)
	assert.False(t, st.MultiScreen)
	assert.False(t, st.ShowingDesktop)

	require.NoError(t, c.Relayout())
	require.NoError(t, c.Reload())
	assert.Equal(t, 1, reloads)
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"debug", "info", "", "warn", "warning", "ERROR"} {
		_, err := ParseLevel(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseLevel("loud")
	assert.ErrorIs(t, err, ErrUnknownLevel)
}
