package binpac

import "strings"

// ID is a possibly-scoped identifier: a dotted path of components.
// Equality is path-wise and case-sensitive, except the top-level
// module component, which is lowered (module names are
// case-insensitive at the point where a scoped ID is first qualified
// by its module, mirroring BinPAC's module-name lowering rule).
type ID struct {
	rg         Range
	Components []string
}

func NewID(components []string, rg Range) ID {
	normalized := make([]string, len(components))
	copy(normalized, components)
	if len(normalized) > 1 {
		normalized[0] = strings.ToLower(normalized[0])
	}
	return ID{rg: rg, Components: normalized}
}

func NewSimpleID(name string, rg Range) ID {
	return NewID([]string{name}, rg)
}

func (id ID) Range() Range { return id.rg }

func (id ID) String() string {
	return strings.Join(id.Components, ".")
}

// Name returns the last (unqualified) component of the ID.
func (id ID) Name() string {
	if len(id.Components) == 0 {
		return ""
	}
	return id.Components[len(id.Components)-1]
}

// IsScoped returns true if the ID has more than one component.
func (id ID) IsScoped() bool {
	return len(id.Components) > 1
}

// Qualifier returns every component but the last, joined by dots.
func (id ID) Qualifier() string {
	if len(id.Components) < 2 {
		return ""
	}
	return strings.Join(id.Components[:len(id.Components)-1], ".")
}

// Equal compares two IDs path-wise.
func (id ID) Equal(other ID) bool {
	if len(id.Components) != len(other.Components) {
		return false
	}
	for i := range id.Components {
		if id.Components[i] != other.Components[i] {
			return false
		}
	}
	return true
}
