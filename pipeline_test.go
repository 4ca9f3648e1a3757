package binpac

import "testing"

const tinyHeaderSource = `module Tiny;

export unit Header {
	x: uint8;
	y: uint16;
};
`

func TestCompileEndToEndEmitsGrammarAndHILTI(t *testing.T) {
	cfg := NewConfig()
	result, diags, err := Compile("tiny.bpac", []byte(tinyHeaderSource), cfg)
	if err != nil {
		t.Fatalf("Compile returned an error: %v (%s)", err, diags.String())
	}
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags.String())
	}

	if result.Module == nil {
		t.Fatal("expected a resolved Module")
	}
	if !result.Module.Exported["Header"] {
		t.Fatal("expected the `export` keyword to mark Header as exported")
	}

	g, ok := result.Grammars["Header"]
	if !ok {
		t.Fatal("expected a grammar to be built for the exported Header unit")
	}
	if !g.IsAnalyzed() {
		t.Fatal("expected the Header grammar to be analyzed")
	}

	if result.HILTI == nil {
		t.Fatal("expected a HILTI module to be emitted for an exported unit")
	}
	if _, ok := result.HILTI.Func("Header_parse"); !ok {
		t.Fatal("expected the emitted HILTI module to contain a Header_parse function")
	}
}

func TestCompileDoesNotEmitForUnexportedUnit(t *testing.T) {
	cfg := NewConfig()
	source := `module Tiny;

unit Internal {
	x: uint8;
};
`
	result, diags, err := Compile("tiny.bpac", []byte(source), cfg)
	if err != nil {
		t.Fatalf("Compile returned an error: %v (%s)", err, diags.String())
	}
	if len(result.Grammars) != 0 {
		t.Fatalf("expected no grammars to be built for a module with no exported units, got %v", result.Grammars)
	}
}

func TestCompileSyntaxErrorIsReported(t *testing.T) {
	cfg := NewConfig()
	_, diags, err := Compile("bad.bpac", []byte("this is not valid binpac"), cfg)
	if err == nil {
		t.Fatal("expected a syntax error for malformed source")
	}
	if !diags.HasErrors() {
		t.Fatal("expected diagnostics to record the syntax error")
	}
}

func TestCompileGrammarErrorPreventsCodegen(t *testing.T) {
	cfg := NewConfig()
	source := `module Tiny;

export unit Choice {
	switch() {
		b"HELO": a: b"HELO";
		b"HELO": b: b"HELO";
	}
};
`
	result, diags, err := Compile("tiny.bpac", []byte(source), cfg)
	if err == nil {
		t.Fatal("expected an ambiguous-lookahead grammar error to fail compilation")
	}
	if !diags.HasErrors() {
		t.Fatal("expected diagnostics to record the grammar error")
	}
	if result.HILTI != nil {
		t.Fatal("expected no HILTI module to be emitted once diagnostics recorded an error")
	}
}
