package display

import (
	"fmt"
	"time"

	"github.com/1broseidon/screenrole/internal/platform"
)

// DisplayStatus describes one display and its role.
type DisplayStatus struct {
	Name   string        `json:"name"`
	Role   string        `json:"role"`
	Bounds platform.Rect `json:"bounds"`
	Usable platform.Rect `json:"usable"`
}

// Status is a snapshot of the manager state.
type Status struct {
	Screens         int             `json:"screens"`
	PreviousPages   int             `json:"previous_pages"`
	HasControl      bool            `json:"has_control"`
	HasPresentation bool            `json:"has_presentation"`
	MultiScreen     bool            `json:"multi_screen"`
	ShowingDesktop  bool            `json:"showing_desktop"`
	Blacked         bool            `json:"blacked"`
	Pass            string          `json:"pass,omitempty"`
	LastLayout      time.Time       `json:"last_layout,omitempty"`
	LastError       string          `json:"last_error,omitempty"`
	Surfaces        SurfaceStatus   `json:"surfaces"`
	Displays        []DisplayStatus `json:"displays"`
}

// SurfaceStatus reports which managed surfaces are set.
type SurfaceStatus struct {
	Control  bool `json:"control"`
	Display  bool `json:"display"`
	Desktop  bool `json:"desktop"`
	Previous int  `json:"previous"`
}

// Status returns a snapshot of the current state.
func (m *Manager) Status() Status {
	current := m.watcher.Current()
	st := Status{
		Screens:         current.ScreenCount(),
		PreviousPages:   current.PreviousPageCount(),
		HasControl:      current.HasControl(),
		HasPresentation: current.HasPresentation(),
		MultiScreen:     m.flags.MultiScreen,
		ShowingDesktop:  m.flags.ShowingDesktop,
		Blacked:         m.Blacked(),
		Pass:            m.lastPass,
		LastLayout:      m.lastLayout,
		Surfaces: SurfaceStatus{
			Control:  m.surfaces.Control != nil,
			Display:  m.surfaces.Display != nil,
			Desktop:  m.surfaces.Desktop != nil,
			Previous: len(m.surfaces.Previous),
		},
	}
	if m.lastErr != nil {
		st.LastError = m.lastErr.Error()
	}
	for _, a := range current.Assignments() {
		st.Displays = append(st.Displays, DisplayStatus{
			Name:   a.Display.Name,
			Role:   a.Role.String(),
			Bounds: a.Display.Bounds,
			Usable: a.Display.Usable,
		})
	}
	return st
}

// SurfaceKind names a managed surface slot.
type SurfaceKind string

const (
	SurfaceControl  SurfaceKind = "control"
	SurfaceDisplay  SurfaceKind = "display"
	SurfaceDesktop  SurfaceKind = "desktop"
	SurfacePrevious SurfaceKind = "previous"
)

// ParseSurfaceKind validates a surface slot name.
func ParseSurfaceKind(s string) (SurfaceKind, error) {
	switch k := SurfaceKind(s); k {
	case SurfaceControl, SurfaceDisplay, SurfaceDesktop, SurfacePrevious:
		return k, nil
	default:
		return "", fmt.Errorf("unknown surface %q (want control, display, desktop or previous)", s)
	}
}

// SetSurface assigns s to a slot; a nil s clears it. For SurfacePrevious,
// index selects the previous page (0-based) and the list grows with nil
// entries as needed.
func (m *Manager) SetSurface(kind SurfaceKind, index int, s platform.Surface) error {
	switch kind {
	case SurfaceControl:
		m.SetControlSurface(s)
	case SurfaceDisplay:
		if s == nil {
			if m.surfaces.Display != nil {
				m.surfaces.Display = nil
				m.viewsNeedAdjustment()
			}
			return nil
		}
		return m.SetDisplaySurface(s)
	case SurfaceDesktop:
		m.SetDesktopSurface(s)
	case SurfacePrevious:
		if index < 0 {
			return fmt.Errorf("previous surface index must be non-negative, got %d", index)
		}
		previous := m.Surfaces().Previous
		for len(previous) <= index {
			previous = append(previous, nil)
		}
		previous[index] = s
		for len(previous) > 0 && previous[len(previous)-1] == nil {
			previous = previous[:len(previous)-1]
		}
		m.SetPreviousSurfaces(previous)
	default:
		return fmt.Errorf("unknown surface %q", kind)
	}
	return nil
}
