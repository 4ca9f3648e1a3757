package binpac

import "testing"

func TestTypeEqual(t *testing.T) {
	u8a := NewInteger(8, false)
	u8b := NewInteger(8, false)
	i8 := NewInteger(8, true)

	if !u8a.Equal(u8b) {
		t.Fatal("two uint8 types should compare equal")
	}
	if u8a.Equal(i8) {
		t.Fatal("uint8 and int8 must not compare equal")
	}

	la := NewList(u8a)
	lb := NewList(u8b)
	lc := NewList(i8)
	if !la.Equal(lb) {
		t.Fatal("list<uint8> should equal list<uint8>")
	}
	if la.Equal(lc) {
		t.Fatal("list<uint8> must not equal list<int8>")
	}
}

func TestTypeHasTrait(t *testing.T) {
	if !NewList(NewAtomic(TypeBytes)).HasTrait(TraitIterable) {
		t.Fatal("list should be iterable")
	}
	if NewAtomic(TypeBool).HasTrait(TraitIterable) {
		t.Fatal("bool should not be iterable")
	}
	if !NewAtomic(TypeInteger).HasTrait(TraitHashable) {
		t.Fatal("integer should be hashable")
	}
	sinkT := NewAtomic(TypeSink)
	if !sinkT.HasTrait(TraitSinkable) {
		t.Fatal("sink should be sinkable")
	}
	if sinkT.HasTrait(TraitParseable) {
		t.Fatal("sink should not be parseable")
	}
}

func TestTypeUnknownVariants(t *testing.T) {
	unk := NewUnknown()
	if !unk.IsUnknown() {
		t.Fatal("NewUnknown() must report IsUnknown")
	}
	ref := NewUnknownByName(NewSimpleID("Foo", Range{}))
	if !ref.IsUnknown() {
		t.Fatal("NewUnknownByName() must report IsUnknown")
	}
	elemOf := NewUnknownElementOf(NewAtomic(TypeBytes))
	if !elemOf.IsUnknown() {
		t.Fatal("NewUnknownElementOf() must report IsUnknown")
	}
	if NewAtomic(TypeBytes).IsUnknown() {
		t.Fatal("a concrete atomic type must not report IsUnknown")
	}
}

func TestTypeString(t *testing.T) {
	cases := []struct {
		typ  Type
		want string
	}{
		{NewInteger(8, false), "uint8"},
		{NewInteger(32, true), "int32"},
		{NewList(NewInteger(8, false)), "list<uint8>"},
		{NewMap(NewAtomic(TypeString), NewAtomic(TypeBytes)), "map<string,bytes>"},
	}
	for _, c := range cases {
		if got := c.typ.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}
