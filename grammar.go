package binpac

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// Symbol names a Production, unique within a Grammar (§3).
type Symbol = string

// Grammar is a named production graph with a root, a parameter list,
// and the three computed maps the analyzer fills in (§3).
type Grammar struct {
	Name   string
	Root   *Production
	Params []Param

	// symbols owns every production reachable from Root, keyed by
	// its unique Symbol (§3 Ownership: "Productions within a grammar
	// are owned by that grammar via their symbol map").
	symbols map[Symbol]*Production
	seen    map[string]int // base name -> next collision suffix

	Nullable map[Symbol]bool
	First    map[Symbol]*bitset.BitSet
	Follow   map[Symbol]*bitset.BitSet

	// analyzed is set by Analyzer.Analyze once its fix-point,
	// look-ahead assignment and ambiguity checks have run, whether or
	// not they reported errors. The code generator refuses a grammar
	// that is not analyzed; Compile separately skips code generation
	// when diagnostics hold any error (§4.3: "the code generator
	// refuses to run if the report is non-empty").
	analyzed bool
}

func NewGrammar(name string, params []Param) *Grammar {
	return &Grammar{
		Name:     name,
		Params:   params,
		symbols:  map[Symbol]*Production{},
		seen:     map[string]int{},
		Nullable: map[Symbol]bool{},
		First:    map[Symbol]*bitset.BitSet{},
		Follow:   map[Symbol]*bitset.BitSet{},
	}
}

// MintSymbol assigns p a unique symbol derived from base, suffixing on
// collision (§3: "symbol uniqueness is enforced by suffixing on
// collision").
func (g *Grammar) MintSymbol(base string, p *Production) Symbol {
	sym := base
	if _, exists := g.symbols[sym]; exists {
		n := g.seen[base] + 1
		for {
			candidate := fmt.Sprintf("%s#%d", base, n)
			if _, exists := g.symbols[candidate]; !exists {
				sym = candidate
				g.seen[base] = n
				break
			}
			n++
		}
	}
	p.Symbol = sym
	g.symbols[sym] = p
	return sym
}

// Lookup returns the production registered under sym, if any.
func (g *Grammar) Lookup(sym Symbol) (*Production, bool) {
	p, ok := g.symbols[sym]
	return p, ok
}

// Symbols returns every minted symbol. Order is not guaranteed; callers
// that need determinism should sort.
func (g *Grammar) Symbols() []Symbol {
	out := make([]Symbol, 0, len(g.symbols))
	for s := range g.symbols {
		out = append(out, s)
	}
	return out
}

func (g *Grammar) IsAnalyzed() bool { return g.analyzed }

func (g *Grammar) markAnalyzed() { g.analyzed = true }
