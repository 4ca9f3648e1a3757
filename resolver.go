package binpac

import "fmt"

// Resolver turns a freshly parsed Module into one where every ID
// references a concrete declaration and every type placeholder is
// either a concrete type or a diagnosable error (§4.1).
type Resolver struct {
	cfg   *Config
	diags *Diagnostics
	log   *logEntryShim
}

// logEntryShim avoids importing logrus directly in every file that
// wants to log; passLog already returns *logrus.Entry, this just
// narrows the surface this file depends on to Debugf/Warnf.
type logEntryShim struct {
	debugf func(string, ...any)
	warnf  func(string, ...any)
}

func newLogShim(module, pass string) *logEntryShim {
	e := passLog(module, pass)
	return &logEntryShim{
		debugf: func(f string, a ...any) { e.Debugf(f, a...) },
		warnf:  func(f string, a ...any) { e.Warnf(f, a...) },
	}
}

func NewResolver(cfg *Config, diags *Diagnostics) *Resolver {
	return &Resolver{cfg: cfg, diags: diags, log: newLogShim("resolver", "resolve")}
}

// Resolve runs phase 1 (scope construction) followed by phase 2 (the
// fix-point rewrite loop), and the §9 Open Question validation.
func (r *Resolver) Resolve(mod *Module) error {
	r.buildScopes(mod)

	maxPasses := r.cfg.GetInt("resolver.max_passes")
	stable := false
	for pass := 0; pass < maxPasses; pass++ {
		changed := r.runPass(mod)
		r.log.debugf("pass %d: changed=%d", pass, changed)
		if changed == 0 {
			stable = true
			break
		}
	}
	if !stable {
		r.log.warnf("resolver did not reach a fix point within %d passes", maxPasses)
	}

	if r.cfg.GetBool("resolver.report_unresolved_as_errors") {
		r.reportUnresolved(mod)
	}

	r.validateSynchronizeConsistency(mod)

	return r.diags.Err()
}

// --- Phase 1: scope construction ---

func (r *Resolver) buildScopes(mod *Module) {
	mod.Scope = NewScope(mod.Name.String(), nil)
	for i := range mod.Decls {
		d := &mod.Decls[i]
		if mod.Scope.DeclaredHere(d.Name.Name()) {
			r.diags.Report(ScopeError{
				Message: "duplicate top-level declaration",
				ID:      d.Name,
				Span:    d.Span,
			})
			continue
		}
		switch d.Kind {
		case DeclConst:
			mod.Scope.Declare(d.Name.Name(), Binding{Kind: BindingConst, Name: d.Name, Decl: d})
		case DeclType:
			mod.Scope.Declare(d.Name.Name(), Binding{Kind: BindingType, Name: d.Name, Decl: d})
		case DeclUnit:
			mod.Scope.Declare(d.Name.Name(), Binding{Kind: BindingUnit, Name: d.Name, Decl: d})
			r.buildUnitScope(mod, d.UnitValue)
		case DeclFunction:
			mod.Scope.Declare(d.Name.Name(), Binding{Kind: BindingFunction, Name: d.Name, Decl: d})
		}
	}
}

func (r *Resolver) buildUnitScope(mod *Module, u *Unit) {
	u.Scope = NewScope(u.Name.String(), mod.Scope)
	for _, p := range u.Params {
		u.Scope.Declare(p.Name.Name(), Binding{Kind: BindingParam, Name: p.Name, Decl: &p})
	}
	index := 0
	for _, f := range u.Fields {
		f.Index = index
		index++
		if f.Name.Name() == "" {
			continue
		}
		if u.Scope.DeclaredHere(f.Name.Name()) && !f.Alias {
			r.diags.Report(ScopeError{
				Message: "duplicate field identifier (mark one &alias if intentional)",
				ID:      f.Name,
				Span:    f.Span,
			})
			continue
		}
		u.Scope.Declare(f.Name.Name(), Binding{Kind: BindingField, Name: f.Name, Decl: f})
	}
	for _, v := range u.Variables {
		u.Scope.Declare(v.Name.Name(), Binding{Kind: BindingVariable, Name: v.Name, Decl: v})
	}
}

// --- Phase 2: fix-point rewrite ---

func (r *Resolver) runPass(mod *Module) (changed int) {
	coercer := NewCoercer(r.diags)
	for i := range mod.Decls {
		d := &mod.Decls[i]
		if d.Kind != DeclUnit || d.UnitValue == nil {
			continue
		}
		u := d.UnitValue
		for _, f := range u.Fields {
			if r.resolveFieldType(mod, u, f) {
				changed++
			}
			if r.resolveFieldExprs(coercer, u, f) {
				changed++
			}
		}
	}
	return changed
}

// resolveFieldType replaces an unknown-by-name or unknown-element-of
// field type with its concrete resolution. Returns true if it changed
// anything (drives the fix-point loop). Operator resolution inside the
// field's expressions is done by resolveFieldExprs.
func (r *Resolver) resolveFieldType(mod *Module, u *Unit, f *Field) bool {
	if !f.Typ.IsUnknown() {
		return false
	}
	switch f.Typ.Kind {
	case TypeUnknownByName:
		resolved, ok := r.resolveTypeByName(mod, u, f.Typ.RefName)
		if ok {
			f.Typ = resolved
			return true
		}
	case TypeUnknownElementOf:
		if f.Typ.Elem != nil && !f.Typ.Elem.IsUnknown() {
			f.Typ = NewList(*f.Typ.Elem)
			return true
		}
	}
	return false
}

func (r *Resolver) resolveTypeByName(mod *Module, u *Unit, ref ID) (Type, bool) {
	scope := mod.Scope
	if u != nil && u.Scope != nil {
		scope = u.Scope
	}
	b, ok := scope.Lookup(ref)
	if !ok {
		return Type{}, false
	}
	switch b.Kind {
	case BindingType:
		if d, ok := b.Decl.(*Decl); ok && d.TypeValue != nil {
			return *d.TypeValue, true
		}
	case BindingUnit:
		if d, ok := b.Decl.(*Decl); ok && d.UnitValue != nil {
			return NewUnitRef(d.Name), true
		}
	}
	return Type{}, false
}

// resolveFieldExprs walks every expression a field carries (its
// condition, its attribute values, and — recursively — any switch
// case/default sub-fields) and resolves operator candidates once
// operand types are known (§4.1), completing what resolveFieldType
// leaves to the type-by-name half of the fix point.
func (r *Resolver) resolveFieldExprs(c *Coercer, u *Unit, f *Field) bool {
	changed := false
	if r.resolveExprOperators(c, u.Scope, f.Cond) {
		changed = true
	}
	for _, key := range f.Attrs.Keys() {
		attr, _ := f.Attrs.Get(key)
		if r.resolveExprOperators(c, u.Scope, attr.Value) {
			changed = true
		}
	}
	if f.Switch != nil {
		if r.resolveExprOperators(c, u.Scope, f.Switch.Discriminant) {
			changed = true
		}
		for i := range f.Switch.Cases {
			for j := range f.Switch.Cases[i].Values {
				if r.resolveExprOperators(c, u.Scope, &f.Switch.Cases[i].Values[j]) {
					changed = true
				}
			}
			for _, cf := range f.Switch.Cases[i].Fields {
				if r.resolveFieldExprs(c, u, cf) {
					changed = true
				}
			}
		}
		for _, df := range f.Switch.Default {
			if r.resolveFieldExprs(c, u, df) {
				changed = true
			}
		}
	}
	return changed
}

// resolveExprOperators recurses through e's operand tree and, for
// every ExprBinary node whose operand types are both known, picks the
// first compatible candidate signature via Coercer.ResolveOperator and
// wraps each operand in an explicit coercion via Coercer.CoerceExpr
// (§4.1). Reports a TypeErr through diags (rather than panicking) when
// no candidate matches, so resolution keeps collecting errors (§7).
func (r *Resolver) resolveExprOperators(c *Coercer, scope *Scope, e *Expression) bool {
	if e == nil {
		return false
	}
	changed := false
	switch e.Kind {
	case ExprBinary:
		if r.resolveExprOperators(c, scope, e.Left) {
			changed = true
		}
		if r.resolveExprOperators(c, scope, e.Right) {
			changed = true
		}
		if !e.ResolvedType.IsUnknown() {
			return changed
		}
		lt, lok := inferExprType(scope, e.Left)
		rt, rok := inferExprType(scope, e.Right)
		if !lok || !rok {
			return changed
		}
		candidates := operatorCandidates(e.Op)
		idx := c.ResolveOperator(lt, rt, candidates)
		if idx < 0 {
			r.diags.Report(TypeErr{
				Message: fmt.Sprintf("no matching operator %q for operand types %s, %s", e.Op, lt, rt),
				Span:    e.Span,
			})
			return true
		}
		cand := candidates[idx]
		e.Left = c.CoerceExpr(e.Left, lt, cand[0])
		e.Right = c.CoerceExpr(e.Right, rt, cand[1])
		if isComparisonOp(e.Op) {
			e.ResolvedType = NewAtomic(TypeBool)
		} else {
			e.ResolvedType = cand[0]
		}
		return true
	case ExprUnary:
		return r.resolveExprOperators(c, scope, e.Left)
	case ExprCall:
		if r.resolveExprOperators(c, scope, e.Callee) {
			changed = true
		}
		for i := range e.Args {
			if r.resolveExprOperators(c, scope, &e.Args[i]) {
				changed = true
			}
		}
		return changed
	case ExprIndex:
		if r.resolveExprOperators(c, scope, e.Left) {
			changed = true
		}
		if r.resolveExprOperators(c, scope, e.Right) {
			changed = true
		}
		return changed
	case ExprAttr:
		return r.resolveExprOperators(c, scope, e.Object)
	case ExprTuple:
		for i := range e.Tuple {
			if r.resolveExprOperators(c, scope, &e.Tuple[i]) {
				changed = true
			}
		}
		return changed
	default:
		return false
	}
}

// inferExprType reports e's type without mutating it: literals carry
// their type outright, identifiers resolve through scope to the
// field/variable/param that declared them, and an already-resolved
// binary expression reports its ResolvedType.
func inferExprType(scope *Scope, e *Expression) (Type, bool) {
	if e == nil {
		return Type{}, false
	}
	switch e.Kind {
	case ExprLiteralInt:
		return NewInteger(64, true), true
	case ExprLiteralBool:
		return NewAtomic(TypeBool), true
	case ExprLiteralString:
		return NewAtomic(TypeString), true
	case ExprLiteralDouble:
		return NewAtomic(TypeDouble), true
	case ExprIdent, ExprField:
		if scope == nil {
			return Type{}, false
		}
		b, ok := scope.Lookup(e.Ident)
		if !ok {
			return Type{}, false
		}
		switch decl := b.Decl.(type) {
		case *Field:
			if decl.Typ.IsUnknown() {
				return Type{}, false
			}
			return decl.Typ, true
		case *UnitVariable:
			if decl.Typ.IsUnknown() {
				return Type{}, false
			}
			return decl.Typ, true
		case *Param:
			return decl.Typ, true
		}
		return Type{}, false
	case ExprBinary:
		if !e.ResolvedType.IsUnknown() {
			return e.ResolvedType, true
		}
		return Type{}, false
	default:
		return Type{}, false
	}
}

// operatorCandidates is the built-in (src, dst) signature table §4.1
// operator resolution matches against. BinPAC++'s real operator table
// is declared per-type (e.g. a unit can overload `==`); this reference
// implementation only wires the built-in numeric/boolean signatures
// every expression grammar needs, since no pack example declares a
// richer user-overload table to ground one against.
func operatorCandidates(op string) [][2]Type {
	sint := NewInteger(64, true)
	uint := NewInteger(64, false)
	boolT := NewAtomic(TypeBool)
	switch op {
	case "&&", "||":
		return [][2]Type{{boolT, boolT}}
	case "==", "!=", "<", "<=", ">", ">=",
		"+", "-", "*", "/", "%", "&", "|", "^", "<<", ">>":
		return [][2]Type{{sint, sint}, {uint, uint}}
	default:
		return nil
	}
}

func isComparisonOp(op string) bool {
	switch op {
	case "==", "!=", "<", "<=", ">", ">=":
		return true
	default:
		return false
	}
}

// reportUnresolved appends a TypeErr for every field whose type is
// still a placeholder once the fix-point loop has stabilized.
func (r *Resolver) reportUnresolved(mod *Module) {
	for _, d := range mod.Decls {
		if d.Kind != DeclUnit || d.UnitValue == nil {
			continue
		}
		for _, f := range d.UnitValue.Fields {
			if f.Typ.IsUnknown() {
				r.diags.Report(TypeErr{
					Message: fmt.Sprintf("could not resolve type of field %q", f.Name),
					Span:    f.Span,
				})
			}
		}
	}
}

// validateSynchronizeConsistency implements the §9 Open Question
// decision: an explicit &synchronize disagreement between a field and
// its enclosing unit is a hard error; an unset level simply inherits
// the set one, and that is not a conflict.
func (r *Resolver) validateSynchronizeConsistency(mod *Module) {
	for _, d := range mod.Decls {
		if d.Kind != DeclUnit || d.UnitValue == nil {
			continue
		}
		u := d.UnitValue
		unitAttr, unitSet := unitSynchronizeValue(u)
		for _, f := range u.Fields {
			fieldAttr, fieldOk := f.Attrs.Get("synchronize")
			if !fieldOk || fieldAttr.Value == nil || !unitSet {
				continue
			}
			fieldVal, ok := boolLiteral(fieldAttr.Value)
			if !ok {
				continue
			}
			if fieldVal != unitAttr {
				r.diags.Report(AttributeError{
					Message: fmt.Sprintf("inconsistent &synchronize between field %q and unit %q", f.Name, u.Name),
					Key:     "synchronize",
					Span:    f.Span,
				})
			}
		}
	}
}

func unitSynchronizeValue(u *Unit) (value bool, set bool) {
	for _, p := range u.Properties {
		if p.Key == "synchronize-after" || p.Key == "synchronize-at" {
			return true, true
		}
	}
	return false, false
}

func boolLiteral(e *Expression) (bool, bool) {
	if e.Kind == ExprLiteralBool {
		return e.BoolVal, true
	}
	return false, false
}
