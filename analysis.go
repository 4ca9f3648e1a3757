package binpac

import (
	"fmt"
	"sort"

	"github.com/bits-and-blooms/bitset"
)

// Analyzer computes nullable/FIRST/FOLLOW and assigns per-alternative
// look-ahead sets to every LookAhead node, diagnosing ambiguity (§4.3).
// It implements the textbook Appel/Ginsburg dataflow fix-point,
// grounded on shadowCow-cow-lang-go/tooling/ll1's first.go/follow.go
// iterate-until-no-change shape, reapplied to this spec's Production
// lattice.
type Analyzer struct {
	cfg     *Config
	builder *Builder
	diags   *Diagnostics
	log     *logEntryShim

	// childVisiting guards against infinite recursion when a unit's
	// grammar transitively references itself through a ChildGrammar
	// with no intervening list/optional indirection; cycles are
	// tolerated per §3 Ownership by breaking traversal with a
	// visited-symbol set, here keyed by unit name.
	childVisiting map[string]bool
}

func NewAnalyzer(cfg *Config, builder *Builder, diags *Diagnostics) *Analyzer {
	return &Analyzer{
		cfg:           cfg,
		builder:       builder,
		diags:         diags,
		log:           newLogShim("analyzer", "fixpoint"),
		childVisiting: map[string]bool{},
	}
}

// Analyze runs the fix-point to convergence, assigns look-ahead sets,
// diagnoses ambiguity, and (if configured) first prunes unreachable
// productions. Simple productions are not inlined.
func (a *Analyzer) Analyze(g *Grammar) error {
	if a.cfg.GetBool("analysis.prune_unreachable") {
		a.pruneUnreachable(g)
	}

	changed := true
	iterations := 0
	for changed {
		changed = false
		for _, sym := range sortedSymbols(g) {
			p := g.symbols[sym]
			if a.update(g, p) {
				changed = true
			}
		}
		iterations++
		if iterations > 10000 {
			a.log.warnf("fix-point did not converge within %d iterations for grammar %s", iterations, g.Name)
			break
		}
	}
	a.log.debugf("grammar %s converged after %d iterations", g.Name, iterations)

	a.assignLookAheads(g)
	a.checkAmbiguity(g)

	g.markAnalyzed()
	return a.diags.Err()
}

func sortedSymbols(g *Grammar) []Symbol {
	syms := g.Symbols()
	sort.Strings(syms)
	return syms
}

// update recomputes nullable/first/follow for p and returns true if
// anything changed.
func (a *Analyzer) update(g *Grammar, p *Production) bool {
	changed := false

	nullable := a.computeNullable(g, p)
	if nullable != g.Nullable[p.Symbol] {
		g.Nullable[p.Symbol] = nullable
		changed = true
	}

	first := a.computeFirst(g, p)
	if g.First[p.Symbol] == nil {
		g.First[p.Symbol] = bitset.New(0)
	}
	if !first.Equal(g.First[p.Symbol]) {
		g.First[p.Symbol] = g.First[p.Symbol].Union(first)
		changed = true
	}

	followSize := func() (n uint) {
		for _, s := range g.Follow {
			n += s.Count()
		}
		return n
	}
	before := followSize()
	a.propagateFollow(g, p)
	if followSize() != before {
		changed = true
	}
	return changed
}

func (a *Analyzer) childNullableFirst(name string) (nullable bool, first *bitset.BitSet) {
	if a.childVisiting[name] {
		return false, bitset.New(0)
	}
	a.childVisiting[name] = true
	defer delete(a.childVisiting, name)

	child, err := a.builder.Build(name)
	if err != nil {
		return false, bitset.New(0)
	}
	if !child.analyzed {
		if err := a.Analyze(child); err != nil {
			a.log.warnf("nested analysis of %s reported errors", name)
		}
	}
	return child.Nullable[child.Root.Symbol], firstOrEmpty(child, child.Root.Symbol)
}

func firstOrEmpty(g *Grammar, sym Symbol) *bitset.BitSet {
	if s, ok := g.First[sym]; ok {
		return s
	}
	return bitset.New(0)
}

func (a *Analyzer) computeNullable(g *Grammar, p *Production) bool {
	switch p.Kind {
	case ProdEpsilon:
		return true
	case ProdLiteral, ProdVariable:
		return false
	case ProdSequence:
		for _, it := range p.Items {
			if !g.Nullable[it.Symbol] {
				return false
			}
		}
		return true
	case ProdLookAhead:
		return g.Nullable[p.Alt1.Symbol] || g.Nullable[p.Alt2.Symbol]
	case ProdSwitch:
		if p.DefaultCase == nil {
			for _, c := range p.Cases {
				if !g.Nullable[c.Body.Symbol] {
					return false
				}
			}
			return len(p.Cases) > 0
		}
		return g.Nullable[p.DefaultCase.Symbol]
	case ProdBoolean:
		return g.Nullable[p.TrueB.Symbol] || g.Nullable[p.FalseB.Symbol]
	case ProdCounter:
		// Conservative simplification: a Counter's iteration count
		// is a runtime expression, so we can't fold it at analysis
		// time; we assume at least one iteration unless the count
		// literal is zero.
		if p.Count != nil && p.Count.Kind == ExprLiteralInt && p.Count.IntVal == 0 {
			return true
		}
		return false
	case ProdWhile, ProdLoop:
		return true
	case ProdChildGrammar:
		nullable, _ := a.childNullableFirst(p.ChildUnit.Name())
		return nullable
	default:
		return false
	}
}

func (a *Analyzer) computeFirst(g *Grammar, p *Production) *bitset.BitSet {
	out := bitset.New(0)
	switch p.Kind {
	case ProdEpsilon, ProdVariable:
		// no look-ahead symbol
	case ProdLiteral:
		out.Set(uint(a.literalTokenID(p)))
	case ProdSequence:
		for _, it := range p.Items {
			out = out.Union(firstOrEmpty(g, it.Symbol))
			if !g.Nullable[it.Symbol] {
				break
			}
		}
	case ProdLookAhead:
		out = out.Union(firstOrEmpty(g, p.Alt1.Symbol)).Union(firstOrEmpty(g, p.Alt2.Symbol))
	case ProdSwitch:
		for _, c := range p.Cases {
			out = out.Union(firstOrEmpty(g, c.Body.Symbol))
		}
		if p.DefaultCase != nil {
			out = out.Union(firstOrEmpty(g, p.DefaultCase.Symbol))
		}
	case ProdBoolean:
		out = out.Union(firstOrEmpty(g, p.TrueB.Symbol)).Union(firstOrEmpty(g, p.FalseB.Symbol))
	case ProdCounter:
		out = out.Union(firstOrEmpty(g, p.Body.Symbol))
	case ProdWhile:
		out = out.Union(firstOrEmpty(g, p.WhileBody.Symbol))
	case ProdLoop:
		out = out.Union(firstOrEmpty(g, p.LoopBody.Symbol))
	case ProdChildGrammar:
		_, first := a.childNullableFirst(p.ChildUnit.Name())
		out = out.Union(first)
	}
	return out
}

// propagateFollow pushes FOLLOW contributions from p onto its direct
// children, per the textbook rule: for RHS Y1...Yk, FOLLOW(Yi) gains
// FIRST of the nullable-prefix-respecting remainder, and gains
// FOLLOW(p) when the remainder is entirely nullable.
func (a *Analyzer) propagateFollow(g *Grammar, p *Production) {
	ensureFollow := func(sym Symbol) *bitset.BitSet {
		if g.Follow[sym] == nil {
			g.Follow[sym] = bitset.New(0)
		}
		return g.Follow[sym]
	}

	switch p.Kind {
	case ProdSequence:
		for i, yi := range p.Items {
			tailNullable := true
			tailFirst := bitset.New(0)
			for j := i + 1; j < len(p.Items); j++ {
				tailFirst = tailFirst.Union(firstOrEmpty(g, p.Items[j].Symbol))
				if !g.Nullable[p.Items[j].Symbol] {
					tailNullable = false
					break
				}
			}
			g.Follow[yi.Symbol] = ensureFollow(yi.Symbol).Union(tailFirst)
			if tailNullable {
				g.Follow[yi.Symbol] = ensureFollow(yi.Symbol).Union(ensureFollow(p.Symbol))
			}
		}
	case ProdLookAhead:
		g.Follow[p.Alt1.Symbol] = ensureFollow(p.Alt1.Symbol).Union(ensureFollow(p.Symbol))
		g.Follow[p.Alt2.Symbol] = ensureFollow(p.Alt2.Symbol).Union(ensureFollow(p.Symbol))
	case ProdCounter:
		g.Follow[p.Body.Symbol] = ensureFollow(p.Body.Symbol).Union(firstOrEmpty(g, p.Body.Symbol)).Union(ensureFollow(p.Symbol))
	case ProdWhile:
		g.Follow[p.WhileBody.Symbol] = ensureFollow(p.WhileBody.Symbol).Union(firstOrEmpty(g, p.WhileBody.Symbol)).Union(ensureFollow(p.Symbol))
	case ProdLoop:
		g.Follow[p.LoopBody.Symbol] = ensureFollow(p.LoopBody.Symbol).Union(firstOrEmpty(g, p.LoopBody.Symbol)).Union(ensureFollow(p.Symbol))
	case ProdBoolean:
		g.Follow[p.TrueB.Symbol] = ensureFollow(p.TrueB.Symbol).Union(ensureFollow(p.Symbol))
		g.Follow[p.FalseB.Symbol] = ensureFollow(p.FalseB.Symbol).Union(ensureFollow(p.Symbol))
	case ProdSwitch:
		for _, c := range p.Cases {
			g.Follow[c.Body.Symbol] = ensureFollow(c.Body.Symbol).Union(ensureFollow(p.Symbol))
		}
		if p.DefaultCase != nil {
			g.Follow[p.DefaultCase.Symbol] = ensureFollow(p.DefaultCase.Symbol).Union(ensureFollow(p.Symbol))
		}
	}
}

// literalTokenID assigns a Literal production its token id via the
// process-global interner, keyed on (terminal-render, type-render).
func (a *Analyzer) literalTokenID(p *Production) int {
	var terminal, typ string
	if p.LitKind == LiteralCtor {
		terminal = p.Ctor.String()
		typ = fmt.Sprintf("ctor:%d", p.Ctor.Kind)
	} else {
		terminal = p.Const.String()
		typ = "constant"
	}
	return TokenID(terminal, typ)
}

// assignLookAheads computes, for every LookAhead node, the two
// look-ahead sets: FIRST(alt) ∪ (FOLLOW(p) if alt is nullable) (§4.3
// step 3).
func (a *Analyzer) assignLookAheads(g *Grammar) {
	WalkProductions(g.Root, func(p *Production) bool {
		if p.Kind != ProdLookAhead {
			return true
		}
		_ = a.lookAheadSet(g, p, p.Alt1)
		_ = a.lookAheadSet(g, p, p.Alt2)
		return true
	})
}

func (a *Analyzer) lookAheadSet(g *Grammar, la, alt *Production) *bitset.BitSet {
	set := firstOrEmpty(g, alt.Symbol).Clone()
	if follow := g.Follow[la.Symbol]; g.Nullable[alt.Symbol] && follow != nil {
		set = set.Union(follow)
	}
	return set
}

// checkAmbiguity diagnoses every LookAhead whose two sets intersect,
// are both empty, or reference a non-terminal (a Variable production
// leaking into a look-ahead position is itself the diagnosable
// condition, since Variable contributes no terminal token to FIRST —
// §4.3).
func (a *Analyzer) checkAmbiguity(g *Grammar) {
	WalkProductions(g.Root, func(p *Production) bool {
		if p.Kind != ProdLookAhead {
			return true
		}
		set1 := a.lookAheadSet(g, p, p.Alt1)
		set2 := a.lookAheadSet(g, p, p.Alt2)

		if hasNonTerminalAlt(p.Alt1) || hasNonTerminalAlt(p.Alt2) {
			a.diags.Report(GrammarError{
				Message:    "look-ahead cannot depend on non-terminal",
				Production: p.Symbol,
			})
		}

		if set1.Count() == 0 && set2.Count() == 0 {
			a.diags.Report(GrammarError{
				Message:    "no look-ahead symbol",
				Production: p.Symbol,
			})
			return true
		}

		if set1.IntersectionCardinality(set2) > 0 {
			a.diags.Report(GrammarError{
				Message:    "ambiguous look-ahead: alternatives are not disjoint",
				Production: p.Symbol,
			})
		}
		return true
	})
}

// hasNonTerminalAlt reports whether alt is a bare Variable used
// directly as a look-ahead alternative default (§3 Grammar invariant:
// "At most one Variable may appear as a default alternative in a
// LookAhead" — here we flag any Variable appearing where a terminal
// look-ahead symbol is required, since Variable is never scannable).
func hasNonTerminalAlt(p *Production) bool {
	return p.Kind == ProdVariable
}

// pruneUnreachable removes productions not in g.Root's closure from
// the symbol map (§4.3 "Simplification").
func (a *Analyzer) pruneUnreachable(g *Grammar) {
	reachable := map[Symbol]bool{}
	WalkProductions(g.Root, func(p *Production) bool {
		reachable[p.Symbol] = true
		return true
	})
	for sym := range g.symbols {
		if !reachable[sym] {
			delete(g.symbols, sym)
		}
	}
}
