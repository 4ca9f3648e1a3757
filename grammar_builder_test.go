package binpac

import "testing"

func TestBuilderBuildsFixedWidthFields(t *testing.T) {
	mod := newTestModule("m")
	x := &Field{Name: NewSimpleID("x", Range{}), Typ: NewInteger(8, false)}
	y := &Field{Name: NewSimpleID("y", Range{}), Typ: NewInteger(16, false)}
	unit := &Unit{Name: NewSimpleID("Header", Range{}), Fields: []*Field{x, y}}
	mod.Decls = []Decl{{Kind: DeclUnit, Name: unit.Name, UnitValue: unit}}

	cfg := NewConfig()
	diags := NewDiagnostics(cfg)
	b := NewBuilder(cfg, mod, diags)

	g, err := b.Build("Header")
	if err != nil {
		t.Fatalf("Build returned an error: %v", err)
	}
	if g.Root == nil || g.Root.Kind != ProdSequence {
		t.Fatalf("expected the root production to be a Sequence, got %+v", g.Root)
	}
	if len(g.Root.Items) != 2 {
		t.Fatalf("expected 2 field productions, got %d", len(g.Root.Items))
	}
	if g.Root.Items[0].Kind != ProdVariable || g.Root.Items[1].Kind != ProdVariable {
		t.Fatalf("expected both fields to lower to Variable productions")
	}
}

func TestBuilderMemoizesPerUnit(t *testing.T) {
	mod := newTestModule("m")
	field := &Field{Name: NewSimpleID("x", Range{}), Typ: NewInteger(8, false)}
	unit := &Unit{Name: NewSimpleID("U", Range{}), Fields: []*Field{field}}
	mod.Decls = []Decl{{Kind: DeclUnit, Name: unit.Name, UnitValue: unit}}

	cfg := NewConfig()
	diags := NewDiagnostics(cfg)
	b := NewBuilder(cfg, mod, diags)

	g1, err := b.Build("U")
	if err != nil {
		t.Fatal(err)
	}
	g2, err := b.Build("U")
	if err != nil {
		t.Fatal(err)
	}
	if g1 != g2 {
		t.Fatal("expected Build to return the same cached *Grammar across repeated calls")
	}
}

func TestBuilderLengthBoundedList(t *testing.T) {
	mod := newTestModule("m")
	lenAttr := NewAttributeSet()
	lenAttr.Set(Attribute{Key: "length", Value: &Expression{Kind: ExprLiteralInt, IntVal: 3}})
	field := &Field{
		Name:  NewSimpleID("count", Range{}),
		Typ:   NewList(NewInteger(8, false)),
		Attrs: lenAttr,
	}
	unit := &Unit{Name: NewSimpleID("FixedList", Range{}), Fields: []*Field{field}}
	mod.Decls = []Decl{{Kind: DeclUnit, Name: unit.Name, UnitValue: unit}}

	cfg := NewConfig()
	diags := NewDiagnostics(cfg)
	b := NewBuilder(cfg, mod, diags)

	g, err := b.Build("FixedList")
	if err != nil {
		t.Fatal(err)
	}
	fieldProd := g.Root.Items[0]
	if fieldProd.Kind != ProdCounter {
		t.Fatalf("expected a &length list to lower to a Counter production, got %s", fieldProd.Kind)
	}
}

func TestBuilderUnknownUnitIsScopeError(t *testing.T) {
	mod := newTestModule("m")
	cfg := NewConfig()
	diags := NewDiagnostics(cfg)
	b := NewBuilder(cfg, mod, diags)

	_, err := b.Build("DoesNotExist")
	if err == nil {
		t.Fatal("expected an error building a grammar for an unknown unit")
	}
	if _, ok := err.(ScopeError); !ok {
		t.Fatalf("expected a ScopeError, got %T", err)
	}
}
