package binpac

import "testing"

func newTestModule(name string) *Module {
	return &Module{Name: NewSimpleID(name, Range{}), Exported: map[string]bool{}}
}

func TestResolverResolvesUnitByNameReference(t *testing.T) {
	mod := newTestModule("m")

	innerField := &Field{Name: NewSimpleID("x", Range{}), Typ: NewInteger(8, false)}
	inner := &Unit{Name: NewSimpleID("Inner", Range{}), Fields: []*Field{innerField}}

	outerField := &Field{Name: NewSimpleID("a", Range{}), Typ: NewUnknownByName(NewSimpleID("Inner", Range{}))}
	outer := &Unit{Name: NewSimpleID("Outer", Range{}), Fields: []*Field{outerField}}

	mod.Decls = []Decl{
		{Kind: DeclUnit, Name: inner.Name, UnitValue: inner},
		{Kind: DeclUnit, Name: outer.Name, UnitValue: outer},
	}

	cfg := NewConfig()
	diags := NewDiagnostics(cfg)
	r := NewResolver(cfg, diags)

	if err := r.Resolve(mod); err != nil {
		t.Fatalf("Resolve returned an error: %v", err)
	}
	if outerField.Typ.IsUnknown() {
		t.Fatal("expected the outer field's type to be resolved to a concrete unit reference")
	}
	if outerField.Typ.Kind != TypeUnit || outerField.Typ.Name.Name() != "Inner" {
		t.Fatalf("resolved type = %+v, want a unit reference to Inner", outerField.Typ)
	}
}

func TestResolverReportsUnresolvedReference(t *testing.T) {
	mod := newTestModule("m")
	field := &Field{Name: NewSimpleID("a", Range{}), Typ: NewUnknownByName(NewSimpleID("DoesNotExist", Range{}))}
	unit := &Unit{Name: NewSimpleID("Outer", Range{}), Fields: []*Field{field}}
	mod.Decls = []Decl{{Kind: DeclUnit, Name: unit.Name, UnitValue: unit}}

	cfg := NewConfig()
	diags := NewDiagnostics(cfg)
	r := NewResolver(cfg, diags)

	if err := r.Resolve(mod); err == nil {
		t.Fatal("expected Resolve to report an error for an unresolvable type reference")
	}
}

func TestResolverRejectsDuplicateTopLevelDeclaration(t *testing.T) {
	mod := newTestModule("m")
	name := NewSimpleID("Dup", Range{})
	mod.Decls = []Decl{
		{Kind: DeclUnit, Name: name, UnitValue: &Unit{Name: name}},
		{Kind: DeclUnit, Name: name, UnitValue: &Unit{Name: name}},
	}

	cfg := NewConfig()
	diags := NewDiagnostics(cfg)
	r := NewResolver(cfg, diags)

	if err := r.Resolve(mod); err == nil {
		t.Fatal("expected a duplicate top-level declaration to be reported")
	}
}

func TestResolverSynchronizeConsistency(t *testing.T) {
	mod := newTestModule("m")
	attrs := NewAttributeSet()
	attrs.Set(Attribute{Key: "synchronize", Value: &Expression{Kind: ExprLiteralBool, BoolVal: false}})
	field := &Field{Name: NewSimpleID("a", Range{}), Typ: NewAtomic(TypeBytes), Attrs: attrs}
	unit := &Unit{
		Name:   NewSimpleID("U", Range{}),
		Fields: []*Field{field},
		Properties: []UnitProperty{
			{Key: "synchronize-after", Values: []Expression{{Kind: ExprLiteralBool, BoolVal: true}}},
		},
	}
	mod.Decls = []Decl{{Kind: DeclUnit, Name: unit.Name, UnitValue: unit}}

	cfg := NewConfig()
	diags := NewDiagnostics(cfg)
	r := NewResolver(cfg, diags)

	if err := r.Resolve(mod); err == nil {
		t.Fatal("expected a field/unit &synchronize disagreement to be reported as an AttributeError")
	}
}
