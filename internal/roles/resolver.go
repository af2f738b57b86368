package roles

import (
	"fmt"
	"path"
	"sort"

	"github.com/1broseidon/screenrole/internal/platform"
)

// Rule assigns Role to every display whose name matches the Match glob
// (path.Match syntax).
type Rule struct {
	Match string
	Role  Role
}

// DefaultRules follows the Virtual-N output naming of a four-output
// presentation rig.
func DefaultRules() []Rule {
	return []Rule{
		{Match: "Virtual-1", Role: Ignored()},
		{Match: "Virtual-2", Role: Primary()},
		{Match: "Virtual-3", Role: Paged(0)},
		{Match: "Virtual-4", Role: Paged(1)},
	}
}

// Resolver turns a display list into a role Map. It holds no state beyond
// its rule table.
type Resolver struct {
	rules []Rule
}

// NewResolver validates rules and returns a resolver. A nil table yields a
// resolver where every display falls through to the default assignment.
func NewResolver(rules []Rule) (*Resolver, error) {
	for i, r := range rules {
		if r.Match == "" {
			return nil, fmt.Errorf("rule %d: empty match pattern", i)
		}
		if _, err := path.Match(r.Match, ""); err != nil {
			return nil, fmt.Errorf("rule %d: invalid pattern %q: %w", i, r.Match, err)
		}
		if r.Role.Kind == KindPaged && r.Role.Offset < 0 {
			return nil, fmt.Errorf("rule %d: negative offset %d", i, r.Role.Offset)
		}
	}
	return &Resolver{rules: append([]Rule(nil), rules...)}, nil
}

// Rules returns a copy of the rule table.
func (r *Resolver) Rules() []Rule {
	return append([]Rule(nil), r.rules...)
}

func (r *Resolver) match(name string) (Role, bool) {
	for _, rule := range r.rules {
		if ok, _ := path.Match(rule.Match, name); ok {
			return rule.Role, true
		}
	}
	return Role{}, false
}

// Resolve assigns one role per display.
//
// Displays are processed in (name, x, y) order so host enumeration order
// never affects the result. Explicit rules are applied first:
//
//   - a second Primary match is treated as unmatched
//   - a second Paged(0) match becomes Ignored
//   - a Paged(k) match whose offset is taken moves to the next free offset
//
// Unmatched displays then take Paged(0) if it is still free, and are
// Ignored otherwise.
func (r *Resolver) Resolve(displays []platform.Display) Map {
	ordered := append([]platform.Display(nil), displays...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.Bounds.X != b.Bounds.X {
			return a.Bounds.X < b.Bounds.X
		}
		return a.Bounds.Y < b.Bounds.Y
	})

	assigned := make([]Assignment, len(ordered))
	done := make([]bool, len(ordered))
	primary := false
	offsets := make(map[int]bool)

	for i, d := range ordered {
		role, ok := r.match(d.Name)
		if !ok {
			continue
		}
		switch role.Kind {
		case KindIgnored:
		case KindPrimary:
			if primary {
				continue
			}
			primary = true
		case KindPaged:
			if role.Offset == 0 {
				if offsets[0] {
					role = Ignored()
					break
				}
			} else {
				for offsets[role.Offset] {
					role.Offset++
				}
			}
			offsets[role.Offset] = true
		}
		assigned[i] = Assignment{Display: d, Role: role}
		done[i] = true
	}

	for i, d := range ordered {
		if done[i] {
			continue
		}
		role := Ignored()
		if !offsets[0] {
			role = Paged(0)
			offsets[0] = true
		}
		assigned[i] = Assignment{Display: d, Role: role}
	}

	return Map{assignments: assigned}
}
