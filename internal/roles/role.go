// Package roles maps displays to the semantic role they play: the control
// console, the presentation page, a previous page, or nothing at all.
package roles

import (
	"fmt"
	"strings"
)

// Kind is the tag of a Role.
type Kind int

const (
	KindIgnored Kind = iota
	KindPrimary
	KindPaged
)

func (k Kind) String() string {
	switch k {
	case KindIgnored:
		return "ignored"
	case KindPrimary:
		return "primary"
	case KindPaged:
		return "paged"
	default:
		return "unknown"
	}
}

// Role is the purpose assigned to one display. Offset is only meaningful for
// KindPaged: offset 0 hosts the presentation surface and offset k hosts the
// k-th previous page.
type Role struct {
	Kind   Kind
	Offset int
}

// Ignored excludes a display from all placement.
func Ignored() Role { return Role{Kind: KindIgnored} }

// Primary hosts the control surface and the desktop mirror.
func Primary() Role { return Role{Kind: KindPrimary} }

// Paged hosts the presentation surface (offset 0) or a previous page.
func Paged(offset int) Role { return Role{Kind: KindPaged, Offset: offset} }

// IsPresentation reports whether r is Paged(0).
func (r Role) IsPresentation() bool {
	return r.Kind == KindPaged && r.Offset == 0
}

// IsPrevious reports whether r is Paged(k) with k > 0.
func (r Role) IsPrevious() bool {
	return r.Kind == KindPaged && r.Offset > 0
}

func (r Role) String() string {
	switch {
	case r.IsPresentation():
		return "display"
	case r.IsPrevious():
		return fmt.Sprintf("previous(%d)", r.Offset)
	default:
		return r.Kind.String()
	}
}

// ParseRole converts a configured role name into a Role.
//
//	ignored           Ignored
//	primary           Primary
//	display           Paged(0)
//	previous          Paged(offset), offset defaults to 1
//	paged             Paged(offset)
func ParseRole(name string, offset int) (Role, error) {
	if offset < 0 {
		return Role{}, fmt.Errorf("offset must be non-negative, got %d", offset)
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "ignored", "ignore":
		return Ignored(), nil
	case "primary", "control":
		return Primary(), nil
	case "display", "presentation":
		return Paged(0), nil
	case "previous":
		if offset == 0 {
			offset = 1
		}
		return Paged(offset), nil
	case "paged":
		return Paged(offset), nil
	default:
		return Role{}, fmt.Errorf("unknown role %q (want ignored, primary, display, previous or paged)", name)
	}
}

// ConfigName returns the role name and offset as written in configuration.
func (r Role) ConfigName() (string, int) {
	switch {
	case r.Kind == KindIgnored:
		return "ignored", 0
	case r.Kind == KindPrimary:
		return "primary", 0
	case r.IsPresentation():
		return "display", 0
	default:
		return "previous", r.Offset
	}
}
