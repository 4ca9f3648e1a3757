package binpac

import "testing"

func TestTokenIDStableAcrossCalls(t *testing.T) {
	a := TokenID("b\"HELO\"", "ctor:0")
	b := TokenID("b\"HELO\"", "ctor:0")
	if a != b {
		t.Fatalf("TokenID must be stable for the same (terminal, type) pair: got %d and %d", a, b)
	}
}

func TestTokenIDDistinctForDifferentPairs(t *testing.T) {
	a := TokenID("b\"ABCD\"", "ctor:0")
	b := TokenID("b\"WXYZ\"", "ctor:0")
	if a == b {
		t.Fatal("TokenID must assign distinct ids to distinct terminals")
	}
	c := TokenID("b\"ABCD\"", "ctor:1")
	if a == c {
		t.Fatal("TokenID must assign distinct ids when the type component differs, even with the same terminal")
	}
}

func TestInternerLenCountsDistinctTokens(t *testing.T) {
	in := NewInterner()
	in.ID("x", "t1")
	in.ID("y", "t1")
	in.ID("x", "t1") // repeat, must not grow Len
	if in.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", in.Len())
	}
}
