package platform

import (
	"log/slog"
	"sort"
)

// ChangeKind is a display topology notification.
type ChangeKind int

const (
	DisplayAdded ChangeKind = iota
	DisplayRemoved
	GeometryChanged
	WorkAreaChanged
)

func (k ChangeKind) String() string {
	switch k {
	case DisplayAdded:
		return "display-added"
	case DisplayRemoved:
		return "display-removed"
	case GeometryChanged:
		return "geometry-changed"
	case WorkAreaChanged:
		return "work-area-changed"
	default:
		return "unknown"
	}
}

// EnumeratorFunc adapts a function to Enumerator.
type EnumeratorFunc func() ([]Display, error)

// Displays calls f.
func (f EnumeratorFunc) Displays() ([]Display, error) { return f() }

// Change is one difference between two display snapshots.
type Change struct {
	Kind    ChangeKind
	Display Display
}

// Diff compares two snapshots by display name. Changes are ordered by name,
// and a display whose bounds changed does not also report a work-area change.
func Diff(before, after []Display) []Change {
	old := make(map[string]Display, len(before))
	for _, d := range before {
		old[d.Name] = d
	}
	cur := make(map[string]Display, len(after))
	for _, d := range after {
		cur[d.Name] = d
	}

	var changes []Change
	for name, d := range cur {
		prev, ok := old[name]
		switch {
		case !ok:
			changes = append(changes, Change{Kind: DisplayAdded, Display: d})
		case prev.Bounds != d.Bounds:
			changes = append(changes, Change{Kind: GeometryChanged, Display: d})
		case prev.Usable != d.Usable:
			changes = append(changes, Change{Kind: WorkAreaChanged, Display: d})
		}
	}
	for name, d := range old {
		if _, ok := cur[name]; !ok {
			changes = append(changes, Change{Kind: DisplayRemoved, Display: d})
		}
	}

	sort.Slice(changes, func(i, j int) bool {
		if changes[i].Display.Name != changes[j].Display.Name {
			return changes[i].Display.Name < changes[j].Display.Name
		}
		return changes[i].Kind < changes[j].Kind
	})
	return changes
}

// Tracker turns raw "something changed" host signals into per-display
// notifications. It keeps the last snapshot handed out and is not safe for
// concurrent use; callers run it on a single goroutine.
type Tracker struct {
	source Enumerator
	logger *slog.Logger

	last    []Display
	nextID  int
	global  map[int]func(ChangeKind)
	display map[int]displayListener
}

type displayListener struct {
	name string
	fn   func(ChangeKind)
}

// NewTracker creates a tracker over a raw display source.
func NewTracker(source Enumerator, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		source:  source,
		logger:  logger,
		global:  make(map[int]func(ChangeKind)),
		display: make(map[int]displayListener),
	}
}

var _ Host = (*Tracker)(nil)

// Displays enumerates the source and records the result as the current
// snapshot.
func (t *Tracker) Displays() ([]Display, error) {
	displays, err := t.source.Displays()
	if err != nil {
		return nil, err
	}
	t.last = append(t.last[:0:0], displays...)
	return displays, nil
}

// OnDisplaysChanged registers fn for added and removed displays.
func (t *Tracker) OnDisplaysChanged(fn func(ChangeKind)) func() {
	id := t.nextID
	t.nextID++
	t.global[id] = fn
	return func() { delete(t.global, id) }
}

// OnDisplayChanged registers fn for geometry and work-area changes of name.
func (t *Tracker) OnDisplayChanged(name string, fn func(ChangeKind)) func() {
	id := t.nextID
	t.nextID++
	t.display[id] = displayListener{name: name, fn: fn}
	return func() { delete(t.display, id) }
}

// Listeners returns the number of registered listeners.
func (t *Tracker) Listeners() int {
	return len(t.global) + len(t.display)
}

// Refresh re-enumerates, diffs against the last snapshot and notifies
// listeners. Each listener fires at most once per refresh, and listeners
// removed by an earlier callback in the same refresh are skipped.
func (t *Tracker) Refresh() error {
	displays, err := t.source.Displays()
	if err != nil {
		return err
	}
	changes := Diff(t.last, displays)
	t.last = append(t.last[:0:0], displays...)
	if len(changes) == 0 {
		return nil
	}

	type pending struct {
		id     int
		global bool
		kind   ChangeKind
	}
	var queue []pending
	seen := make(map[int]bool)
	for _, ch := range changes {
		t.logger.Debug("display change", "display", ch.Display.Name, "kind", ch.Kind.String())
		switch ch.Kind {
		case DisplayAdded, DisplayRemoved:
			for _, id := range sortedIDs(t.global) {
				if !seen[id] {
					seen[id] = true
					queue = append(queue, pending{id: id, global: true, kind: ch.Kind})
				}
			}
		default:
			for _, id := range sortedIDs(t.display) {
				if t.display[id].name == ch.Display.Name && !seen[id] {
					seen[id] = true
					queue = append(queue, pending{id: id, kind: ch.Kind})
				}
			}
		}
	}

	for _, p := range queue {
		if p.global {
			if fn, ok := t.global[p.id]; ok {
				fn(p.kind)
			}
			continue
		}
		if l, ok := t.display[p.id]; ok {
			l.fn(p.kind)
		}
	}
	return nil
}

func sortedIDs[V any](m map[int]V) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
