package binpac

import "testing"

func TestScopeDeclareAndLookup(t *testing.T) {
	root := NewScope("module", nil)
	root.Declare("x", Binding{Kind: BindingVariable, Name: NewSimpleID("x", Range{})})

	child := NewScope("unit", root)
	child.Declare("y", Binding{Kind: BindingField, Name: NewSimpleID("y", Range{})})

	if _, ok := child.Lookup(NewSimpleID("y", Range{})); !ok {
		t.Fatal("expected to find a binding declared directly in the scope")
	}
	if _, ok := child.Lookup(NewSimpleID("x", Range{})); !ok {
		t.Fatal("expected to find a binding declared in a parent scope")
	}
	if _, ok := root.Lookup(NewSimpleID("y", Range{})); ok {
		t.Fatal("a parent scope must not see bindings declared only in a child")
	}
}

func TestScopeDeclaredHere(t *testing.T) {
	root := NewScope("module", nil)
	child := NewScope("unit", root)
	root.Declare("x", Binding{Kind: BindingConst})

	if child.DeclaredHere("x") {
		t.Fatal("DeclaredHere must not see a parent's bindings")
	}
	if !root.DeclaredHere("x") {
		t.Fatal("DeclaredHere must see a binding declared directly in this scope")
	}
}

func TestScopeImportQualifiedLookup(t *testing.T) {
	other := NewScope("other", nil)
	other.Declare("Thing", Binding{Kind: BindingUnit, Name: NewID([]string{"other", "Thing"}, Range{})})

	root := NewScope("main", nil)
	root.Import("other", other)

	qualified := NewID([]string{"other", "Thing"}, Range{})
	b, ok := root.Lookup(qualified)
	if !ok {
		t.Fatal("expected a qualified lookup through an imported scope to succeed")
	}
	if b.Kind != BindingUnit {
		t.Fatalf("resolved binding kind = %v, want BindingUnit", b.Kind)
	}

	if _, ok := root.Lookup(NewSimpleID("Thing", Range{})); ok {
		t.Fatal("an imported binding must not be visible unqualified")
	}
}

func TestScopeImportInheritedFromAncestor(t *testing.T) {
	other := NewScope("other", nil)
	other.Declare("Thing", Binding{Kind: BindingUnit})

	root := NewScope("main", nil)
	root.Import("other", other)
	nested := NewScope("nested", root)

	qualified := NewID([]string{"other", "Thing"}, Range{})
	if _, ok := nested.Lookup(qualified); !ok {
		t.Fatal("an import registered on an ancestor scope should still resolve from a descendant")
	}
}
