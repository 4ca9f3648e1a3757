package binpac

import (
	"fmt"

	"golang.org/x/sync/singleflight"
)

// Builder lowers unit types to production graphs (§4.2). Grammars are
// built lazily, once per unit type, the first time a ChildGrammar
// reference (or an explicit Build call for an exported unit) needs
// one — see §3 Lifecycle.
type Builder struct {
	cfg     *Config
	mod     *Module
	diags   *Diagnostics
	group   singleflight.Group
	cache   map[string]*Grammar
	log     *logEntryShim
}

func NewBuilder(cfg *Config, mod *Module, diags *Diagnostics) *Builder {
	return &Builder{
		cfg:   cfg,
		mod:   mod,
		diags: diags,
		cache: map[string]*Grammar{},
		log:   newLogShim("grammarbuilder", "build"),
	}
}

// Build returns the Grammar for unit name, memoized per unit type.
// The singleflight.Group collapses concurrent requests for the same
// unit type into one build (§4.2 [ADD]); the compiler itself stays
// single-threaded (§5), but ChildGrammar references and repeated
// exported-unit builds share the cache either way.
func (b *Builder) Build(name string) (*Grammar, error) {
	if !b.cfg.GetBool("grammarbuild.memoize") {
		return b.buildUncached(name)
	}
	if g, ok := b.cache[name]; ok {
		return g, nil
	}
	v, err, _ := b.group.Do(name, func() (any, error) {
		if g, ok := b.cache[name]; ok {
			return g, nil
		}
		g, err := b.buildUncached(name)
		if err != nil {
			return nil, err
		}
		b.cache[name] = g
		return g, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Grammar), nil
}

func (b *Builder) buildUncached(name string) (*Grammar, error) {
	u := b.lookupUnit(name)
	if u == nil {
		return nil, ScopeError{Message: "unknown unit type", ID: NewSimpleID(name, Range{})}
	}
	b.log.debugf("building grammar for unit %s", name)

	g := NewGrammar(name, u.Params)

	items := make([]*Production, 0, len(u.Fields))
	for _, f := range u.Fields {
		p, err := b.buildField(g, u, f)
		if err != nil {
			b.diags.Report(err)
			continue
		}
		items = append(items, p)
	}
	root := NewSequence(items...)
	g.MintSymbol(name, root)
	g.Root = root
	u.Grammar = g
	return g, nil
}

func (b *Builder) lookupUnit(name string) *Unit {
	for _, d := range b.mod.Decls {
		if d.Kind == DeclUnit && d.Name.Name() == name {
			return d.UnitValue
		}
	}
	return nil
}

// buildField applies the §4.2 field→production translation rules.
func (b *Builder) buildField(g *Grammar, u *Unit, f *Field) (*Production, error) {
	var p *Production

	switch {
	case f.Switch != nil:
		p = b.buildSwitchField(g, u, f)

	case f.Ctor != nil:
		p = NewLiteralCtor(f.Ctor)

	case f.Typ.Kind == TypeUnit:
		p = NewChildGrammar(f.Typ.Name)

	case f.Typ.Kind == TypeList:
		p = b.buildListField(g, u, f)

	case f.Typ.Kind == TypeBitfield:
		// Bitfields lower to a Variable over the declared width
		// (SPEC_FULL §4.2); no sub-bit accessors are generated for
		// their bit ranges.
		p = NewVariable(f.Typ, nil)

	default:
		var length *Expression
		if attr, ok := f.Attrs.Get("length"); ok {
			length = attr.Value
		}
		p = NewVariable(f.Typ, length)
	}

	p.Field = f
	sym := fieldSymbolBase(f)
	g.MintSymbol(sym, p)

	if pa, ok := f.Attrs.Get("parse-at"); ok && pa.Value != nil {
		p = wrapParseAt(g, p, pa.Value)
	} else if pf, ok := f.Attrs.Get("parse-from"); ok && pf.Value != nil {
		p = wrapParseAt(g, p, pf.Value)
	}

	if f.Cond != nil {
		epsilon := NewEpsilon()
		g.MintSymbol(sym+"_skip", epsilon)
		boolean := NewBoolean(f.Cond, p, epsilon)
		g.MintSymbol(sym+"_cond", boolean)
		return boolean, nil
	}

	return p, nil
}

// wrapParseAt models `&parse-at`/`&parse-from` as a Sequence wrapping
// a position-save production, the field's own production, and a
// position-restore production (SPEC_FULL §4.2).
func wrapParseAt(g *Grammar, inner *Production, at *Expression) *Production {
	save := &Production{Kind: ProdVariable, VarType: NewAtomic(TypeIterator)}
	g.MintSymbol(inner.Symbol+"_save", save)
	restore := &Production{Kind: ProdVariable, VarType: NewAtomic(TypeIterator)}
	g.MintSymbol(inner.Symbol+"_restore", restore)
	seq := NewSequence(save, inner, restore)
	g.MintSymbol(inner.Symbol+"_seq", seq)
	return seq
}

func (b *Builder) buildListField(g *Grammar, u *Unit, f *Field) *Production {
	elem := *f.Typ.Elem

	if lenAttr, ok := f.Attrs.Get("length"); ok {
		sub := NewVariable(elem, nil)
		g.MintSymbol(fieldSymbolBase(f)+"_elem", sub)
		return NewCounter(lenAttr.Value, sub)
	}

	if _, ok := f.Attrs.Get("until"); ok {
		sub := NewVariable(elem, nil)
		g.MintSymbol(fieldSymbolBase(f)+"_elem", sub)
		sub.InUntil = true
		return NewLoop(sub)
	}

	// No length/until: left-factored right-recursive LL(1) list,
	// `L1 -> sub L2`, `L2 -> ε | L1` (§4.2).
	sub := NewVariable(elem, nil)
	g.MintSymbol(fieldSymbolBase(f)+"_elem", sub)

	l1 := &Production{Kind: ProdSequence}
	l2 := &Production{Kind: ProdLookAhead}
	g.MintSymbol(fieldSymbolBase(f)+"_L1", l1)
	g.MintSymbol(fieldSymbolBase(f)+"_L2", l2)

	l1.Items = []*Production{sub, l2}
	l2.Alt1 = NewEpsilon()
	g.MintSymbol(fieldSymbolBase(f)+"_L2_eps", l2.Alt1)
	l2.Alt2 = l1

	return l1
}

func (b *Builder) buildSwitchField(g *Grammar, u *Unit, f *Field) *Production {
	sf := f.Switch
	cases := make([]SwitchProdCase, 0, len(sf.Cases))
	for _, c := range sf.Cases {
		body := b.buildFieldList(g, u, c.Fields)
		cases = append(cases, SwitchProdCase{Values: c.Values, Body: body})
	}
	var def *Production
	if sf.Default != nil {
		def = b.buildFieldList(g, u, sf.Default)
	}

	if sf.Discriminant != nil {
		return NewSwitch(sf.Discriminant, cases, def)
	}

	// A switch without a discriminant becomes a LookAhead chain
	// (§4.2).
	var chain *Production
	if def != nil {
		chain = def
	} else {
		chain = NewEpsilon()
		g.MintSymbol(fieldSymbolBase(f)+"_default", chain)
	}
	for i := len(cases) - 1; i >= 0; i-- {
		la := NewLookAhead(cases[i].Body, chain)
		g.MintSymbol(fmt.Sprintf("%s_la%d", fieldSymbolBase(f), i), la)
		chain = la
	}
	return chain
}

func (b *Builder) buildFieldList(g *Grammar, u *Unit, fields []*Field) *Production {
	items := make([]*Production, 0, len(fields))
	for _, f := range fields {
		p, err := b.buildField(g, u, f)
		if err != nil {
			b.diags.Report(err)
			continue
		}
		items = append(items, p)
	}
	seq := NewSequence(items...)
	g.MintSymbol("Seq", seq)
	return seq
}

func fieldSymbolBase(f *Field) string {
	if f.Name.Name() != "" {
		return f.Name.Name()
	}
	return "Field"
}
