package daemon

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/1broseidon/screenrole/internal/display"
	"github.com/1broseidon/screenrole/internal/platform"
)

// Slot names one managed surface position.
type Slot struct {
	Kind  display.SurfaceKind
	Index int
}

func (s Slot) String() string {
	if s.Kind == display.SurfacePrevious {
		return fmt.Sprintf("%s[%d]", s.Kind, s.Index)
	}
	return string(s.Kind)
}

// SurfaceSetter receives surface assignments; display.Manager implements it.
type SurfaceSetter interface {
	SetSurface(kind display.SurfaceKind, index int, s platform.Surface) error
}

// SurfaceSource turns window IDs into surfaces.
type SurfaceSource interface {
	Surface(id platform.WindowID) platform.Surface
}

// SurfaceSynchronizer keeps the manager's surface slots in step with the
// windows bound to them. Bindings come from the reconciler (selector
// matches) or explicitly from clients; explicit bindings are pinned and the
// reconciler leaves them alone. Loop goroutine only.
type SurfaceSynchronizer struct {
	source SurfaceSource
	target SurfaceSetter
	logger *slog.Logger

	bound  map[Slot]platform.WindowID
	pinned map[Slot]bool
}

// NewSurfaceSynchronizer creates a synchronizer with no bindings.
func NewSurfaceSynchronizer(source SurfaceSource, target SurfaceSetter, logger *slog.Logger) *SurfaceSynchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SurfaceSynchronizer{
		source: source,
		target: target,
		logger: logger,
		bound:  make(map[Slot]platform.WindowID),
		pinned: make(map[Slot]bool),
	}
}

// Pin binds id to slot on behalf of a client. Window 0 clears the slot and
// hands it back to the reconciler.
func (s *SurfaceSynchronizer) Pin(slot Slot, id platform.WindowID) error {
	if slot.Index < 0 {
		return fmt.Errorf("surface index must be non-negative, got %d", slot.Index)
	}
	if _, err := display.ParseSurfaceKind(string(slot.Kind)); err != nil {
		return err
	}
	// A failed bind leaves the pin state untouched so the reconciler keeps
	// managing a slot that never got its window.
	if _, err := s.bind(slot, id); err != nil {
		return err
	}
	if id == 0 {
		delete(s.pinned, slot)
	} else {
		s.pinned[slot] = true
	}
	return nil
}

// Apply binds every slot in want that is not pinned. It reports whether any
// binding changed.
func (s *SurfaceSynchronizer) Apply(want map[Slot]platform.WindowID) (bool, error) {
	slots := make([]Slot, 0, len(want))
	for slot := range want {
		slots = append(slots, slot)
	}
	sortSlots(slots)

	changed := false
	var firstErr error
	for _, slot := range slots {
		if s.pinned[slot] {
			continue
		}
		c, err := s.bind(slot, want[slot])
		changed = changed || c
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return changed, firstErr
}

// Bound returns the current bindings.
func (s *SurfaceSynchronizer) Bound() map[Slot]platform.WindowID {
	out := make(map[Slot]platform.WindowID, len(s.bound))
	for k, v := range s.bound {
		out[k] = v
	}
	return out
}

// Pinned reports whether slot was bound explicitly.
func (s *SurfaceSynchronizer) Pinned(slot Slot) bool {
	return s.pinned[slot]
}

func (s *SurfaceSynchronizer) bind(slot Slot, id platform.WindowID) (bool, error) {
	if s.bound[slot] == id {
		return false, nil
	}

	var surface platform.Surface
	if id != 0 {
		surface = s.source.Surface(id)
	}
	if err := s.target.SetSurface(slot.Kind, slot.Index, surface); err != nil {
		return true, fmt.Errorf("bind %s to window 0x%x: %w", slot, uint32(id), err)
	}

	if id == 0 {
		delete(s.bound, slot)
	} else {
		s.bound[slot] = id
	}
	s.logger.Info("surface bound", "surface", slot.String(), "window", fmt.Sprintf("0x%x", uint32(id)))
	return true, nil
}

func sortSlots(slots []Slot) {
	order := map[display.SurfaceKind]int{
		display.SurfaceControl:  0,
		display.SurfaceDisplay:  1,
		display.SurfaceDesktop:  2,
		display.SurfacePrevious: 3,
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Kind != slots[j].Kind {
			return order[slots[i].Kind] < order[slots[j].Kind]
		}
		return slots[i].Index < slots[j].Index
	})
}
