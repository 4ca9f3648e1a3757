package binpac

import "testing"

func TestIDEquality(t *testing.T) {
	a := NewID([]string{"Mod", "Unit", "field"}, Range{})
	b := NewID([]string{"mod", "Unit", "field"}, Range{})
	if !a.Equal(b) {
		t.Fatalf("expected %s to equal %s (top-level component is lowered)", a, b)
	}

	c := NewID([]string{"Mod", "Unit", "Field"}, Range{})
	if a.Equal(c) {
		t.Fatalf("did not expect %s to equal %s (non-top-level components stay case-sensitive)", a, c)
	}
}

func TestIDNameAndQualifier(t *testing.T) {
	id := NewID([]string{"mod", "Unit", "field"}, Range{})
	if id.Name() != "field" {
		t.Fatalf("Name() = %q, want %q", id.Name(), "field")
	}
	if id.Qualifier() != "mod.Unit" {
		t.Fatalf("Qualifier() = %q, want %q", id.Qualifier(), "mod.Unit")
	}
	if !id.IsScoped() {
		t.Fatal("expected a three-component ID to be scoped")
	}

	simple := NewSimpleID("x", Range{})
	if simple.IsScoped() {
		t.Fatal("a single-component ID must not be scoped")
	}
	if simple.Qualifier() != "" {
		t.Fatalf("Qualifier() of an unscoped ID = %q, want empty", simple.Qualifier())
	}
}

func TestLineIndexLocation(t *testing.T) {
	src := []byte("abc\ndef\nghi")
	li := NewLineIndex(src)

	loc := li.LocationAt(0)
	if loc.Line != 1 || loc.Column != 1 {
		t.Fatalf("LocationAt(0) = %+v, want line 1 col 1", loc)
	}

	loc = li.LocationAt(4) // 'd', first byte of line 2
	if loc.Line != 2 || loc.Column != 1 {
		t.Fatalf("LocationAt(4) = %+v, want line 2 col 1", loc)
	}

	loc = li.LocationAt(9) // 'h', third line, second column
	if loc.Line != 3 || loc.Column != 2 {
		t.Fatalf("LocationAt(9) = %+v, want line 3 col 2", loc)
	}
}
