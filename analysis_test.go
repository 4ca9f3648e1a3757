package binpac

import "testing"

func bytesCtor(b string) *Ctor {
	return &Ctor{Kind: CtorBytes, Bytes: []byte(b)}
}

func newTestAnalyzer(mod *Module) (*Analyzer, *Diagnostics) {
	cfg := NewConfig()
	diags := NewDiagnostics(cfg)
	builder := NewBuilder(cfg, mod, diags)
	return NewAnalyzer(cfg, builder, diags), diags
}

func TestAnalyzerNullableSequence(t *testing.T) {
	g := NewGrammar("G", nil)
	eps1 := NewEpsilon()
	eps2 := NewEpsilon()
	g.MintSymbol("e1", eps1)
	g.MintSymbol("e2", eps2)
	seq := NewSequence(eps1, eps2)
	g.MintSymbol("root", seq)
	g.Root = seq

	a, diags := newTestAnalyzer(newTestModule("m"))
	if err := a.Analyze(g); err != nil {
		t.Fatalf("Analyze returned an error: %v", err)
	}
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Errors())
	}
	if !g.Nullable[seq.Symbol] {
		t.Fatal("a sequence of two epsilons must be nullable")
	}
}

func TestAnalyzerSequenceWithLiteralIsNotNullable(t *testing.T) {
	g := NewGrammar("G", nil)
	lit := NewLiteralCtor(bytesCtor("HELO"))
	g.MintSymbol("lit", lit)
	seq := NewSequence(lit)
	g.MintSymbol("root", seq)
	g.Root = seq

	a, _ := newTestAnalyzer(newTestModule("m"))
	if err := a.Analyze(g); err != nil {
		t.Fatalf("Analyze returned an error: %v", err)
	}
	if g.Nullable[seq.Symbol] {
		t.Fatal("a sequence containing a literal must not be nullable")
	}
}

func TestAnalyzerDisjointLookAheadIsFine(t *testing.T) {
	g := NewGrammar("G", nil)
	helo := NewLiteralCtor(bytesCtor("HELO"))
	quit := NewLiteralCtor(bytesCtor("QUIT"))
	g.MintSymbol("helo", helo)
	g.MintSymbol("quit", quit)
	la := NewLookAhead(helo, quit)
	g.MintSymbol("root", la)
	g.Root = la

	a, diags := newTestAnalyzer(newTestModule("m"))
	if err := a.Analyze(g); err != nil {
		t.Fatalf("Analyze returned an unexpected error: %v", err)
	}
	if diags.HasErrors() {
		t.Fatalf("expected no diagnostics for disjoint look-ahead alternatives, got: %v", diags.Errors())
	}
}

func TestAnalyzerAmbiguousLookAheadIsDiagnosed(t *testing.T) {
	g := NewGrammar("G", nil)
	helo1 := NewLiteralCtor(bytesCtor("HELO"))
	helo2 := NewLiteralCtor(bytesCtor("HELO"))
	g.MintSymbol("helo1", helo1)
	g.MintSymbol("helo2", helo2)
	la := NewLookAhead(helo1, helo2)
	g.MintSymbol("root", la)
	g.Root = la

	a, _ := newTestAnalyzer(newTestModule("m"))
	err := a.Analyze(g)
	if err == nil {
		t.Fatal("expected an ambiguity error when both look-ahead alternatives share the same literal")
	}
}

func TestAnalyzerMarksGrammarAnalyzed(t *testing.T) {
	g := NewGrammar("G", nil)
	eps := NewEpsilon()
	g.MintSymbol("root", eps)
	g.Root = eps

	a, _ := newTestAnalyzer(newTestModule("m"))
	if g.IsAnalyzed() {
		t.Fatal("a fresh grammar must not report analyzed before Analyze runs")
	}
	if err := a.Analyze(g); err != nil {
		t.Fatal(err)
	}
	if !g.IsAnalyzed() {
		t.Fatal("Analyze must mark the grammar analyzed on success")
	}
}
