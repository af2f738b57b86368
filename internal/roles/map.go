package roles

import (
	"fmt"
	"strings"

	"github.com/1broseidon/screenrole/internal/platform"
)

// Assignment pairs a display with its role.
type Assignment struct {
	Display platform.Display
	Role    Role
}

// Map is an immutable role assignment, ordered by display name. The zero
// value is an empty map.
type Map struct {
	assignments []Assignment
}

// Assignments returns a copy of every assignment in canonical order.
func (m Map) Assignments() []Assignment {
	return append([]Assignment(nil), m.assignments...)
}

// ScreenCount returns the number of displays, ignored ones included.
func (m Map) ScreenCount() int {
	return len(m.assignments)
}

// PreviousPageCount returns the number of displays holding Paged(k>0).
func (m Map) PreviousPageCount() int {
	n := 0
	for _, a := range m.assignments {
		if a.Role.IsPrevious() {
			n++
		}
	}
	return n
}

// NonIgnored returns every assignment whose role is not Ignored.
func (m Map) NonIgnored() []Assignment {
	var out []Assignment
	for _, a := range m.assignments {
		if a.Role.Kind != KindIgnored {
			out = append(out, a)
		}
	}
	return out
}

// Control returns the display holding Primary.
func (m Map) Control() (platform.Display, bool) {
	for _, a := range m.assignments {
		if a.Role.Kind == KindPrimary {
			return a.Display, true
		}
	}
	return platform.Display{}, false
}

// Presentation returns the display holding Paged(0).
func (m Map) Presentation() (platform.Display, bool) {
	return m.Page(0)
}

// Page returns the display holding Paged(offset).
func (m Map) Page(offset int) (platform.Display, bool) {
	for _, a := range m.assignments {
		if a.Role.Kind == KindPaged && a.Role.Offset == offset {
			return a.Display, true
		}
	}
	return platform.Display{}, false
}

func (m Map) HasControl() bool {
	_, ok := m.Control()
	return ok
}

func (m Map) HasPresentation() bool {
	_, ok := m.Presentation()
	return ok
}

func (m Map) HasPrevious() bool {
	return m.PreviousPageCount() > 0
}

// RoleOf returns the role assigned to the named display.
func (m Map) RoleOf(name string) (Role, bool) {
	for _, a := range m.assignments {
		if a.Display.Name == name {
			return a.Role, true
		}
	}
	return Role{}, false
}

// Equal reports whether both maps assign the same roles to the same
// displays with the same geometry.
func (m Map) Equal(o Map) bool {
	if len(m.assignments) != len(o.assignments) {
		return false
	}
	for i := range m.assignments {
		if m.assignments[i] != o.assignments[i] {
			return false
		}
	}
	return true
}

func (m Map) String() string {
	parts := make([]string, 0, len(m.assignments))
	for _, a := range m.assignments {
		parts = append(parts, fmt.Sprintf("%s=%s", a.Display.Name, a.Role))
	}
	return "{" + strings.Join(parts, " ") + "}"
}
