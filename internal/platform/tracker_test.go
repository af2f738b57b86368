package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func display(name string, x, w int) Display {
	r := Rect{X: x, Y: 0, Width: w, Height: 1080}
	return Display{Name: name, Bounds: r, Usable: r}
}

func TestDiff(t *testing.T) {
	a := display("DP-1", 0, 1920)
	b := display("HDMI-1", 1920, 1920)

	moved := b
	moved.Bounds.X = 3840
	moved.Usable = moved.Bounds

	docked := a
	docked.Usable.Height = 1040

	tests := []struct {
		name   string
		before []Display
		after  []Display
		want   []Change
	}{
		{name: "unchanged", before: []Display{a, b}, after: []Display{b, a}},
		{
			name:   "added",
			before: []Display{a},
			after:  []Display{a, b},
			want:   []Change{{Kind: DisplayAdded, Display: b}},
		},
		{
			name:   "removed",
			before: []Display{a, b},
			after:  []Display{a},
			want:   []Change{{Kind: DisplayRemoved, Display: b}},
		},
		{
			name:   "geometry wins over work area",
			before: []Display{b},
			after:  []Display{moved},
			want:   []Change{{Kind: GeometryChanged, Display: moved}},
		},
		{
			name:   "work area",
			before: []Display{a},
			after:  []Display{docked},
			want:   []Change{{Kind: WorkAreaChanged, Display: docked}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Diff(tt.before, tt.after))
		})
	}
}

func TestTrackerRefreshNotifiesListeners(t *testing.T) {
	current := []Display{display("DP-1", 0, 1920)}
	tr := NewTracker(EnumeratorFunc(func() ([]Display, error) { return current, nil }), nil)

	_, err := tr.Displays()
	require.NoError(t, err)

	var global []ChangeKind
	var perDisplay []ChangeKind
	tr.OnDisplaysChanged(func(k ChangeKind) { global = append(global, k) })
	cancel := tr.OnDisplayChanged("DP-1", func(k ChangeKind) { perDisplay = append(perDisplay, k) })
	assert.Equal(t, 2, tr.Listeners())

	// Two additions fire the global listener once.
	current = []Display{display("DP-1", 0, 1920), display("DP-2", 1920, 1920), display("DP-3", 3840, 1920)}
	require.NoError(t, tr.Refresh())
	assert.Equal(t, []ChangeKind{DisplayAdded}, global)
	assert.Empty(t, perDisplay)

	current = []Display{display("DP-1", 0, 2560), display("DP-2", 2560, 1920), display("DP-3", 4480, 1920)}
	require.NoError(t, tr.Refresh())
	assert.Equal(t, []ChangeKind{GeometryChanged}, perDisplay)

	cancel()
	assert.Equal(t, 1, tr.Listeners())
	current = []Display{display("DP-1", 0, 1920)}
	require.NoError(t, tr.Refresh())
	assert.Len(t, perDisplay, 1)
	assert.Equal(t, []ChangeKind{DisplayAdded, DisplayRemoved}, global)
}

func TestTrackerSkipsListenersCancelledMidRefresh(t *testing.T) {
	current := []Display{display("DP-1", 0, 1920)}
	tr := NewTracker(EnumeratorFunc(func() ([]Display, error) { return current, nil }), nil)
	_, err := tr.Displays()
	require.NoError(t, err)

	var cancelSecond func()
	fired := 0
	tr.OnDisplaysChanged(func(ChangeKind) { cancelSecond() })
	cancelSecond = tr.OnDisplaysChanged(func(ChangeKind) { fired++ })

	current = nil
	require.NoError(t, tr.Refresh())
	assert.Zero(t, fired)
}

func TestRectIntersect(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 100, Height: 100}
	assert.Equal(t, Rect{X: 50, Y: 50, Width: 50, Height: 50}, a.Intersect(Rect{X: 50, Y: 50, Width: 100, Height: 100}))
	assert.True(t, a.Intersect(Rect{X: 100, Y: 0, Width: 10, Height: 10}).Empty())
	assert.False(t, a.Overlaps(Rect{X: 100, Y: 0, Width: 10, Height: 10}))
}
