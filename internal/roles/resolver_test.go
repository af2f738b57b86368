package roles

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/screenrole/internal/platform"
	"github.com/1broseidon/screenrole/internal/platform/platformtest"
)

func defaultResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver(DefaultRules())
	require.NoError(t, err)
	return r
}

func virtual(names ...string) []platform.Display {
	out := make([]platform.Display, 0, len(names))
	for i, n := range names {
		out = append(out, platformtest.Display(n, i*1920, 0, 1920, 1080))
	}
	return out
}

func roleNames(m Map) map[string]string {
	out := make(map[string]string)
	for _, a := range m.Assignments() {
		out[a.Display.Name] = a.Role.String()
	}
	return out
}

func TestResolveDefaultTable(t *testing.T) {
	m := defaultResolver(t).Resolve(virtual("Virtual-1", "Virtual-2", "Virtual-3"))

	assert.Equal(t, map[string]string{
		"Virtual-1": "ignored",
		"Virtual-2": "primary",
		"Virtual-3": "display",
	}, roleNames(m))
	assert.Equal(t, 3, m.ScreenCount())
	assert.Equal(t, 0, m.PreviousPageCount())
	assert.True(t, m.HasControl())
	assert.True(t, m.HasPresentation())
	assert.False(t, m.HasPrevious())
	assert.Len(t, m.NonIgnored(), 2)

	ctl, ok := m.Control()
	require.True(t, ok)
	assert.Equal(t, "Virtual-2", ctl.Name)
}

func TestResolvePreviousPageCollisions(t *testing.T) {
	rules := []Rule{
		{Match: "Virtual-2", Role: Primary()},
		{Match: "Virtual-4*", Role: Paged(1)},
	}
	r, err := NewResolver(rules)
	require.NoError(t, err)

	m := r.Resolve(virtual("Virtual-4b", "Virtual-2", "Virtual-4"))
	assert.Equal(t, map[string]string{
		"Virtual-2":  "primary",
		"Virtual-4":  "previous(1)",
		"Virtual-4b": "previous(2)",
	}, roleNames(m))
	assert.Equal(t, 2, m.PreviousPageCount())
	assert.False(t, m.HasPresentation())

	page, ok := m.Page(2)
	require.True(t, ok)
	assert.Equal(t, "Virtual-4b", page.Name)
}

func TestResolveUnmatchedDefaultsToPresentation(t *testing.T) {
	// Virtual-4b has no rule in the default table, so it takes the free
	// presentation role.
	m := defaultResolver(t).Resolve(virtual("Virtual-2", "Virtual-4", "Virtual-4b"))
	assert.Equal(t, map[string]string{
		"Virtual-2":  "primary",
		"Virtual-4":  "previous(1)",
		"Virtual-4b": "display",
	}, roleNames(m))
}

func TestResolveExplicitPresentationBeatsFallback(t *testing.T) {
	// HDMI-1 sorts before Virtual-3 but has no rule; the explicit rule must
	// still win Paged(0).
	m := defaultResolver(t).Resolve(virtual("HDMI-1", "Virtual-3"))
	assert.Equal(t, map[string]string{
		"HDMI-1":    "ignored",
		"Virtual-3": "display",
	}, roleNames(m))
}

func TestResolveDuplicateExclusiveRoles(t *testing.T) {
	r, err := NewResolver([]Rule{
		{Match: "DP-*", Role: Primary()},
		{Match: "HDMI-*", Role: Paged(0)},
	})
	require.NoError(t, err)

	m := r.Resolve(virtual("DP-1", "DP-2", "HDMI-1", "HDMI-2"))
	assert.Equal(t, map[string]string{
		"DP-1":   "primary",
		"DP-2":   "ignored", // second primary falls through; Paged(0) is taken by HDMI-1
		"HDMI-1": "display",
		"HDMI-2": "ignored",
	}, roleNames(m))
}

func TestResolveEmpty(t *testing.T) {
	m := defaultResolver(t).Resolve(nil)
	assert.Equal(t, 0, m.ScreenCount())
	assert.False(t, m.HasControl())
	assert.False(t, m.HasPresentation())
	assert.False(t, m.HasPrevious())
	assert.Empty(t, m.NonIgnored())

	_, ok := m.Control()
	assert.False(t, ok)
	assert.True(t, m.Equal(Map{}))
}

func TestResolveSingleUnmatchedDisplay(t *testing.T) {
	m := defaultResolver(t).Resolve(virtual("eDP-1"))
	role, ok := m.RoleOf("eDP-1")
	require.True(t, ok)
	assert.Equal(t, Paged(0), role)
	assert.False(t, m.HasControl())
}

func TestResolveIsOrderIndependentAndIdempotent(t *testing.T) {
	r := defaultResolver(t)
	displays := virtual("Virtual-1", "Virtual-2", "Virtual-3", "Virtual-4", "HDMI-1", "DP-3")
	want := r.Resolve(displays)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		shuffled := append([]platform.Display(nil), displays...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got := r.Resolve(shuffled)
		assert.Truef(t, want.Equal(got), "permutation %d: %s != %s", i, got, want)
	}
	assert.True(t, r.Resolve(displays).Equal(r.Resolve(displays)))
}

func TestResolveExclusiveRoleInvariants(t *testing.T) {
	r, err := NewResolver([]Rule{
		{Match: "A-*", Role: Primary()},
		{Match: "B-*", Role: Paged(0)},
		{Match: "C-*", Role: Paged(1)},
		{Match: "D-*", Role: Paged(2)},
		{Match: "E-*", Role: Ignored()},
	})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	prefixes := []string{"A", "B", "C", "D", "E", "F"}
	for i := 0; i < 200; i++ {
		n := rng.Intn(8)
		names := make([]string, n)
		for j := range names {
			names[j] = fmt.Sprintf("%s-%d", prefixes[rng.Intn(len(prefixes))], j)
		}
		m := r.Resolve(virtual(names...))

		primary, presentation := 0, 0
		offsets := make(map[int]bool)
		for _, a := range m.Assignments() {
			switch {
			case a.Role.Kind == KindPrimary:
				primary++
			case a.Role.IsPresentation():
				presentation++
			case a.Role.IsPrevious():
				assert.Falsef(t, offsets[a.Role.Offset], "duplicate offset %d in %s", a.Role.Offset, m)
				offsets[a.Role.Offset] = true
			}
		}
		assert.LessOrEqual(t, primary, 1, m.String())
		assert.LessOrEqual(t, presentation, 1, m.String())
		assert.Equal(t, n, m.ScreenCount())
	}
}

func TestNewResolverRejectsBadRules(t *testing.T) {
	_, err := NewResolver([]Rule{{Match: "[", Role: Primary()}})
	assert.Error(t, err)

	_, err = NewResolver([]Rule{{Match: "", Role: Primary()}})
	assert.Error(t, err)

	_, err = NewResolver([]Rule{{Match: "x", Role: Paged(-1)}})
	assert.Error(t, err)
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		name    string
		offset  int
		want    Role
		wantErr bool
	}{
		{name: "ignored", want: Ignored()},
		{name: "Primary", want: Primary()},
		{name: "display", want: Paged(0)},
		{name: "previous", want: Paged(1)},
		{name: "previous", offset: 3, want: Paged(3)},
		{name: "paged", want: Paged(0)},
		{name: "paged", offset: 2, want: Paged(2)},
		{name: "sideways", wantErr: true},
		{name: "paged", offset: -1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%d", tt.name, tt.offset), func(t *testing.T) {
			got, err := ParseRole(tt.name, tt.offset)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			name, offset := got.ConfigName()
			back, err := ParseRole(name, offset)
			require.NoError(t, err)
			assert.Equal(t, got, back)
		})
	}
}
