package blackout

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/screenrole/internal/platform"
	"github.com/1broseidon/screenrole/internal/platform/platformtest"
	"github.com/1broseidon/screenrole/internal/roles"
)

type fixture struct {
	factory     *platformtest.OverlayFactory
	shim        *platformtest.Shim
	freezer     *platformtest.Freezer
	controller  *Controller
	transitions []State
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		factory: &platformtest.OverlayFactory{},
		shim:    &platformtest.Shim{},
		freezer: &platformtest.Freezer{},
	}
	var err error
	f.controller, err = New(Config{
		Overlays:      f.factory,
		Shim:          f.shim,
		Freezer:       f.freezer,
		OnStateChange: func(s State) { f.transitions = append(f.transitions, s) },
	})
	require.NoError(t, err)
	return f
}

func resolve(t *testing.T, names ...string) roles.Map {
	t.Helper()
	r, err := roles.NewResolver(roles.DefaultRules())
	require.NoError(t, err)
	var displays []platform.Display
	for i, n := range names {
		displays = append(displays, platformtest.Display(n, i*1920, 0, 1920, 1080))
	}
	return r.Resolve(displays)
}

func dismissable(overlays []*platformtest.Overlay) []*platformtest.Overlay {
	var out []*platformtest.Overlay
	for _, o := range overlays {
		if o.Dismissable {
			out = append(out, o)
		}
	}
	return out
}

func TestEnterCoversNonIgnoredDisplays(t *testing.T) {
	f := newFixture(t)
	m := resolve(t, "Virtual-1", "Virtual-2", "Virtual-3", "Virtual-4")

	require.NoError(t, f.controller.Enter(m))

	assert.Equal(t, Blacked, f.controller.State())
	assert.Equal(t, len(m.NonIgnored()), f.controller.Overlays())
	require.Len(t, f.factory.Created, 3)

	primary := dismissable(f.factory.Created)
	require.Len(t, primary, 1)
	ctl, _ := m.Control()
	assert.Equal(t, ctl.Bounds, primary[0].Bounds)

	for _, o := range f.factory.Created {
		assert.True(t, o.Full, o.Name)
	}
	assert.Equal(t, []string{"fade-out", "fullscreen:overlay-1", "fullscreen:overlay-2", "fullscreen:overlay-3"}, f.shim.Calls)
	assert.True(t, f.freezer.Frozen)
}

func TestEnterFocusesDismissOverlay(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.controller.Enter(resolve(t, "Virtual-2", "Virtual-3")))

	for _, o := range f.factory.Created {
		assert.Equal(t, o.Dismissable, o.Active, o.Name)
	}
	primary := dismissable(f.factory.Created)
	require.Len(t, primary, 1)
	assert.Equal(t, []string{"fullscreen", "activate"}, primary[0].Calls)
}

func TestEnterSurvivesFocusFailure(t *testing.T) {
	f := newFixture(t)
	f.factory.Errs = map[string]error{"activate": errors.New("no focus")}

	require.NoError(t, f.controller.Enter(resolve(t, "Virtual-2", "Virtual-3")))
	assert.Equal(t, Blacked, f.controller.State())
	assert.Len(t, f.factory.Open(), 2)
}

func TestTwoDisplayScenario(t *testing.T) {
	f := newFixture(t)
	m := resolve(t, "Virtual-2", "Virtual-3")

	require.NoError(t, f.controller.Enter(m))
	require.Len(t, f.factory.Created, 2)

	primary := dismissable(f.factory.Created)
	require.Len(t, primary, 1)

	primary[0].Trigger()
	primary[0].Trigger()

	assert.Equal(t, []State{Blacked, Normal}, f.transitions)
	assert.Equal(t, 1, f.shim.FadeIns)
	assert.Empty(t, f.factory.Open())
	for _, o := range f.factory.Created {
		assert.Equal(t, 1, o.Closed, o.Name)
	}
}

func TestEnterWhileBlackedIsRejected(t *testing.T) {
	f := newFixture(t)
	m := resolve(t, "Virtual-2", "Virtual-3")

	require.NoError(t, f.controller.Enter(m))
	err := f.controller.Enter(m)
	assert.ErrorIs(t, err, ErrAlreadyBlackedOut)
	assert.Len(t, f.factory.Created, 2)
	assert.Equal(t, 1, f.shim.FadeOuts)
}

func TestExitIsIdempotent(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.controller.Exit())
	assert.Empty(t, f.transitions)
	assert.Zero(t, f.shim.FadeIns)

	require.NoError(t, f.controller.Enter(resolve(t, "Virtual-2")))
	require.NoError(t, f.controller.Exit())
	require.NoError(t, f.controller.Exit())

	assert.Equal(t, 1, f.shim.FadeIns)
	assert.Zero(t, f.controller.Overlays())
	assert.Equal(t, []bool{true, false}, f.freezer.Calls)
}

func TestStaleActivityIsIgnored(t *testing.T) {
	f := newFixture(t)
	m := resolve(t, "Virtual-2", "Virtual-3")

	require.NoError(t, f.controller.Enter(m))
	first := dismissable(f.factory.Created)[0]
	require.NoError(t, f.controller.Exit())

	require.NoError(t, f.controller.Enter(m))
	first.Trigger()
	assert.True(t, f.controller.Blacked())

	second := dismissable(f.factory.Open())[0]
	second.Trigger()
	assert.False(t, f.controller.Blacked())
}

func TestEnterCreateFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.factory.FailAt = 2

	err := f.controller.Enter(resolve(t, "Virtual-2", "Virtual-3"))
	require.Error(t, err)

	assert.Equal(t, Normal, f.controller.State())
	assert.Empty(t, f.factory.Open())
	assert.Zero(t, f.shim.FadeOuts)
	assert.False(t, f.freezer.Frozen)
	assert.Empty(t, f.transitions)
}

func TestEnterShowFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	m := resolve(t, "Virtual-2", "Virtual-3")
	boom := errors.New("boom")

	// Fail the second overlay's full-screen call.
	orig := f.factory
	f.controller.cfg.Overlays = overlayFactoryFunc(func(b platform.Rect, d bool, fn func()) (platform.Overlay, error) {
		ov, err := orig.NewOverlay(b, d, fn)
		if err == nil && len(orig.Created) == 2 {
			orig.Created[1].Errs = map[string]error{"fullscreen": boom}
		}
		return ov, err
	})

	err := f.controller.Enter(m)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, Normal, f.controller.State())
	assert.Empty(t, orig.Open())
	assert.Equal(t, 1, f.shim.FadeOuts)
	assert.Equal(t, 1, f.shim.FadeIns)
	assert.False(t, f.freezer.Frozen)
}

func TestDisplayVanishingWhileBlacked(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.controller.Enter(resolve(t, "Virtual-2", "Virtual-3", "Virtual-4")))

	// The topology shrinks; exit still releases every overlay it owns.
	require.NoError(t, f.controller.Exit())
	assert.Empty(t, f.factory.Open())
}

func TestEnterWithNoDisplays(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.controller.Enter(roles.Map{}))
	assert.True(t, f.controller.Blacked())
	assert.Zero(t, f.controller.Overlays())
	require.NoError(t, f.controller.Exit())
}

func TestToggle(t *testing.T) {
	f := newFixture(t)
	m := resolve(t, "Virtual-2")
	require.NoError(t, f.controller.Toggle(m))
	assert.True(t, f.controller.Blacked())
	require.NoError(t, f.controller.Toggle(m))
	assert.False(t, f.controller.Blacked())
}

type overlayFactoryFunc func(platform.Rect, bool, func()) (platform.Overlay, error)

func (f overlayFactoryFunc) NewOverlay(b platform.Rect, d bool, fn func()) (platform.Overlay, error) {
	return f(b, d, fn)
}
