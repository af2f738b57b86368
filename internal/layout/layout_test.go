package layout

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
	shim     *platformtest.Shim
	engine   *Engine
	control  *platformtest.Surface
	display  *platformtest.Surface
	desktop  *platformtest.Surface
	previous []*platformtest.Surface
}

func newFixture(previous int) *fixture {
	f := &fixture{
		shim:    &platformtest.Shim{},
		control: platformtest.NewSurface("control"),
		display: platformtest.NewSurface("display"),
		desktop: platformtest.NewSurface("desktop"),
	}
	for i := 0; i < previous; i++ {
		f.previous = append(f.previous, platformtest.NewSurface("previous"))
	}
	f.engine = NewEngine(f.shim, nil)
	return f
}

func (f *fixture) surfaces() Surfaces {
	s := Surfaces{Control: f.control, Display: f.display, Desktop: f.desktop}
	for _, p := range f.previous {
		s.Previous = append(s.Previous, p)
	}
	return s
}

func resolve(t *testing.T, names ...string) roles.Map {
	t.Helper()
	r, err := roles.NewResolver(roles.DefaultRules())
	require.NoError(t, err)
	displays := make([]platform.Display, 0, len(names))
	for i, n := range names {
		displays = append(displays, platformtest.Display(n, i*1920, 0, 1920, 1080))
	}
	return r.Resolve(displays)
}

func bounds(t *testing.T, m roles.Map, name string) platform.Rect {
	t.Helper()
	for _, a := range m.Assignments() {
		if a.Display.Name == name {
			return a.Display.Bounds
		}
	}
	t.Fatalf("display %q not in map", name)
	return platform.Rect{}
}

func TestApplyPlacesEverySurface(t *testing.T) {
	f := newFixture(1)
	m := resolve(t, "Virtual-1", "Virtual-2", "Virtual-3", "Virtual-4")

	require.NoError(t, f.engine.Apply(m, f.surfaces(), Flags{MultiScreen: true}))

	assert.Equal(t, bounds(t, m, "Virtual-2"), f.control.Bounds)
	assert.True(t, f.control.Full)
	assert.True(t, f.control.Active)
	assert.Equal(t, bounds(t, m, "Virtual-2"), f.desktop.Bounds)
	assert.True(t, f.desktop.Full)

	assert.Equal(t, bounds(t, m, "Virtual-3"), f.display.Bounds)
	assert.True(t, f.display.Full)
	assert.Equal(t, bounds(t, m, "Virtual-4"), f.previous[0].Bounds)
	assert.True(t, f.previous[0].Full)

	assert.Equal(t, []string{"hide", "geometry", "fullscreen", "activate"}, f.control.Calls)
	assert.Equal(t, "activate", f.control.Calls[len(f.control.Calls)-1])
}

func TestApplyDesktopModeSuppressesPresentation(t *testing.T) {
	f := newFixture(0)
	m := resolve(t, "Virtual-2", "Virtual-3")
	f.display.Visible = true

	require.NoError(t, f.engine.Apply(m, f.surfaces(), Flags{MultiScreen: true, ShowingDesktop: true}))

	assert.False(t, f.display.Visible)
	assert.Equal(t, []string{"hide"}, f.display.Calls)
	assert.True(t, f.control.Full)
}

func TestApplyMultiScreenPolicy(t *testing.T) {
	tests := []struct {
		name     string
		displays []string
		multi    bool
		wantFull bool
	}{
		{name: "multi screen on", displays: []string{"Virtual-2", "Virtual-3"}, multi: true, wantFull: true},
		{name: "multi screen off", displays: []string{"Virtual-2", "Virtual-3"}, multi: false, wantFull: false},
		{name: "single display", displays: []string{"Virtual-3"}, multi: true, wantFull: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(0)
			m := resolve(t, tt.displays...)
			require.NoError(t, f.engine.Apply(m, f.surfaces(), Flags{MultiScreen: tt.multi}))

			assert.True(t, f.display.Visible)
			assert.Equal(t, tt.wantFull, f.display.Full)
			assert.Equal(t, bounds(t, m, "Virtual-3"), f.display.Bounds)
		})
	}
}

func TestApplyIgnoresMissingSurfacesAndDisplays(t *testing.T) {
	f := newFixture(0)
	// Virtual-4 wants previous page 0, which does not exist.
	m := resolve(t, "Virtual-1", "Virtual-4")

	require.NoError(t, f.engine.Apply(m, Surfaces{Display: f.display}, Flags{MultiScreen: true}))
	assert.Empty(t, f.display.Calls)

	require.NoError(t, f.engine.Apply(m, Surfaces{}, Flags{}))
}

func TestApplyEmptyMapIsNoop(t *testing.T) {
	f := newFixture(2)
	require.NoError(t, f.engine.Apply(roles.Map{}, f.surfaces(), Flags{MultiScreen: true}))
	assert.Empty(t, f.control.Calls)
	assert.Empty(t, f.display.Calls)
	assert.Empty(t, f.previous[0].Calls)
	assert.Empty(t, f.shim.Calls)
}

func TestApplyIsIdempotent(t *testing.T) {
	f := newFixture(1)
	m := resolve(t, "Virtual-1", "Virtual-2", "Virtual-3", "Virtual-4")

	require.NoError(t, f.engine.Apply(m, f.surfaces(), Flags{MultiScreen: true}))
	first := []platform.Rect{f.control.Bounds, f.display.Bounds, f.previous[0].Bounds}

	require.NoError(t, f.engine.Apply(m, f.surfaces(), Flags{MultiScreen: true}))
	second := []platform.Rect{f.control.Bounds, f.display.Bounds, f.previous[0].Bounds}

	assert.Equal(t, first, second)
	assert.True(t, f.display.Visible)
}

func TestApplyNoOverlappingPlacements(t *testing.T) {
	f := newFixture(1)
	m := resolve(t, "Virtual-4", "Virtual-3", "Virtual-2")
	require.NoError(t, f.engine.Apply(m, f.surfaces(), Flags{MultiScreen: true}))

	placed := []platform.Rect{f.control.Bounds, f.display.Bounds, f.previous[0].Bounds}
	for i := range placed {
		for j := i + 1; j < len(placed); j++ {
			assert.Falsef(t, placed[i].Overlaps(placed[j]), "%v overlaps %v", placed[i], placed[j])
		}
	}
}

func TestApplyContinuesAfterFailure(t *testing.T) {
	f := newFixture(1)
	boom := errors.New("boom")
	f.display.Errs = map[string]error{"geometry": boom}
	m := resolve(t, "Virtual-2", "Virtual-3", "Virtual-4")

	err := f.engine.Apply(m, f.surfaces(), Flags{MultiScreen: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "display on Virtual-3")

	assert.True(t, f.previous[0].Full)
	assert.True(t, f.control.Active)
}

func TestSurfacesForOffset(t *testing.T) {
	f := newFixture(2)
	s := f.surfaces()
	assert.Same(t, f.display, s.ForOffset(0))
	assert.Same(t, f.previous[1], s.ForOffset(2))
	assert.Nil(t, s.ForOffset(3))
	assert.Nil(t, s.ForOffset(-1))
}
