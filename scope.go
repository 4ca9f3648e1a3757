package binpac

// Scope is a mapping from unqualified ID to a value binding, chained
// to a parent for outer lookups (§4.1). A module scope composes
// aliased child module scopes so imports behave as if their top-level
// declarations were visible under a module prefix.
type Scope struct {
	parent   *Scope
	bindings map[string]Binding
	imports  map[string]*Scope // module-prefix -> imported module's scope
	name     string             // for diagnostics only
}

// BindingKind discriminates what a Scope entry refers to.
type BindingKind int

const (
	BindingConst BindingKind = iota
	BindingType
	BindingUnit
	BindingFunction
	BindingField
	BindingVariable
	BindingParam
)

// Binding is a single scope entry.
type Binding struct {
	Kind BindingKind
	Name ID
	Decl any // *Decl, *Field, *UnitVariable, *Param, depending on Kind
}

func NewScope(name string, parent *Scope) *Scope {
	return &Scope{
		name:     name,
		parent:   parent,
		bindings: map[string]Binding{},
		imports:  map[string]*Scope{},
	}
}

// Declare binds name in this scope. Redeclaration is reported by the
// caller (the resolver), not by Scope itself — Scope is a mechanism,
// not a policy.
func (s *Scope) Declare(name string, b Binding) {
	s.bindings[name] = b
}

// DeclaredHere reports whether name is already bound directly in this
// scope (not an ancestor), used by the resolver to detect duplicate
// declarations.
func (s *Scope) DeclaredHere(name string) bool {
	_, ok := s.bindings[name]
	return ok
}

// Import registers a child module's scope under the given prefix, so
// `prefix.Name` resolves into it.
func (s *Scope) Import(prefix string, modScope *Scope) {
	s.imports[prefix] = modScope
}

// Lookup resolves a possibly-scoped ID. A scoped ID `a.b.c` resolves
// `a` in the current chain (walking up through parents, then through
// imports) and descends from there; an unqualified ID walks up the
// chain only.
func (s *Scope) Lookup(id ID) (Binding, bool) {
	if !id.IsScoped() {
		return s.lookupUnqualified(id.Name())
	}
	head := id.Components[0]
	rest := id.Components[1:]

	if child, ok := s.findImport(head); ok {
		if len(rest) == 1 {
			return child.lookupUnqualified(rest[0])
		}
		return child.Lookup(NewID(rest, id.Range()))
	}

	// Not an import prefix: fall back to unqualified lookup of the
	// full dotted name (e.g. a nested unit.field access resolved
	// structurally elsewhere, not via Scope).
	return s.lookupUnqualified(id.String())
}

func (s *Scope) lookupUnqualified(name string) (Binding, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if b, ok := cur.bindings[name]; ok {
			return b, true
		}
	}
	return Binding{}, false
}

func (s *Scope) findImport(prefix string) (*Scope, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if child, ok := cur.imports[prefix]; ok {
			return child, true
		}
	}
	return nil, false
}
