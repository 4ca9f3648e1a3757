package binpac

import (
	"strconv"
	"strings"

	"github.com/binpac-go/binpac/sourceparse"
)

// Convert lowers a sourceparse.File (the raw participle syntax tree)
// into the typed Module the resolver/grammar-builder/codegen consume,
// in the style of pgraph's convertGrammar/convertStatement: one
// function per surface-grammar node, switching on which optional
// pointer field of a dispatch struct is populated.
func Convert(f *sourceparse.File) (*Module, error) {
	mod := &Module{
		Name:     NewSimpleID(f.Module.Name, Range{}),
		Exported: map[string]bool{},
	}
	for _, imp := range f.Imports {
		mod.Imports = append(mod.Imports, Import{Path: NewSimpleID(imp.Path, Range{})})
	}
	for _, d := range f.Decls {
		decl, err := convertTopDecl(d)
		if err != nil {
			return nil, err
		}
		mod.Decls = append(mod.Decls, decl)
		if d.Export {
			mod.Exported[decl.Name.Name()] = true
		}
	}
	return mod, nil
}

func convertTopDecl(d *sourceparse.TopDecl) (Decl, error) {
	switch {
	case d.Const != nil:
		c := d.Const
		return Decl{
			Kind:         DeclConst,
			Name:         NewSimpleID(c.Name, Range{}),
			DeclaredType: convertTypeRef(c.Typ),
			ConstValue:   convertExpr(c.Value),
		}, nil

	case d.Type != nil:
		t := d.Type
		typ := convertTypeRef(t.Typ)
		return Decl{Kind: DeclType, Name: NewSimpleID(t.Name, Range{}), TypeValue: &typ}, nil

	case d.Unit != nil:
		u, err := convertUnit(d.Unit)
		if err != nil {
			return Decl{}, err
		}
		return Decl{Kind: DeclUnit, Name: u.Name, UnitValue: u}, nil

	case d.Func != nil:
		fn := convertFunc(d.Func)
		return Decl{Kind: DeclFunction, Name: fn.Name, FuncValue: fn}, nil
	}
	return Decl{}, SourceSyntaxError{Message: "empty top-level declaration"}
}

func convertFunc(f *sourceparse.FuncDecl) *Function {
	fn := &Function{Name: NewSimpleID(f.Name, Range{})}
	for _, p := range f.Params {
		fn.Params = append(fn.Params, Param{Name: NewSimpleID(p.Name, Range{}), Typ: convertTypeRef(p.Typ)})
	}
	if f.Result != nil {
		fn.Result = convertTypeRef(f.Result)
	}
	for _, s := range f.Body {
		fn.Body = append(fn.Body, convertStmt(s))
	}
	return fn
}

func convertUnit(u *sourceparse.UnitDecl) (*Unit, error) {
	unit := &Unit{Name: NewSimpleID(u.Name, Range{})}
	for _, p := range u.Params {
		unit.Params = append(unit.Params, Param{Name: NewSimpleID(p.Name, Range{}), Typ: convertTypeRef(p.Typ)})
	}
	for _, item := range u.Items {
		switch {
		case item.Property != nil:
			prop := UnitProperty{Key: strings.TrimPrefix(item.Property.Key, "%")}
			for _, v := range item.Property.Values {
				prop.Values = append(prop.Values, *convertExpr(v))
			}
			unit.Properties = append(unit.Properties, prop)

		case item.Hook != nil:
			unit.Hooks = append(unit.Hooks, convertHook(item.Hook))

		case item.Variable != nil:
			v := item.Variable
			uv := &UnitVariable{Name: NewSimpleID(v.Name, Range{}), Typ: convertTypeRef(v.Typ)}
			if v.Init != nil {
				uv.Init = convertExpr(v.Init)
			}
			unit.Variables = append(unit.Variables, uv)

		case item.Field != nil:
			field, err := convertField(item.Field)
			if err != nil {
				return nil, err
			}
			unit.Fields = append(unit.Fields, field)
		}
	}
	return unit, nil
}

func convertHook(h *sourceparse.HookDecl) *Hook {
	hook := &Hook{Field: NewSimpleID(h.Field, Range{}), Event: h.Event}
	if h.Priority != nil {
		hook.Priority = int(*h.Priority)
	}
	for _, s := range h.Body {
		hook.Body = append(hook.Body, convertStmt(s))
	}
	return hook
}

func convertField(f *sourceparse.FieldDecl) (*Field, error) {
	field := &Field{Name: NewSimpleID(f.Name, Range{}), Attrs: NewAttributeSet()}

	switch {
	case f.Switch != nil:
		sw := &SwitchField{}
		if f.Switch.Discriminant != nil {
			sw.Discriminant = convertExpr(f.Switch.Discriminant)
		}
		for _, c := range f.Switch.Cases {
			sc := SwitchCase{}
			for _, v := range c.Values {
				sc.Values = append(sc.Values, *convertExpr(v))
			}
			for _, cf := range c.Fields {
				conv, err := convertField(cf)
				if err != nil {
					return nil, err
				}
				sc.Fields = append(sc.Fields, conv)
			}
			sw.Cases = append(sw.Cases, sc)
		}
		for _, df := range f.Switch.Default {
			conv, err := convertField(df)
			if err != nil {
				return nil, err
			}
			sw.Default = append(sw.Default, conv)
		}
		field.Switch = sw

	case f.Ctor != nil:
		field.Ctor = convertCtorLit(f.Ctor)

	case f.Typ != nil:
		field.Typ = convertTypeRef(f.Typ)
	}

	if f.Cond != nil {
		field.Cond = convertExpr(f.Cond)
	}

	for _, a := range f.Attrs {
		attr := Attribute{Key: strings.TrimPrefix(a.Key, "&")}
		if a.Value != nil {
			attr.Value = convertExpr(a.Value)
		}
		if err := ValidateContext(attr.Key, "field", Span{}); err != nil {
			return nil, err
		}
		field.Attrs.Set(attr)
	}

	for _, h := range f.Hooks {
		field.Hooks = append(field.Hooks, convertHook(h))
	}

	return field, nil
}

func convertCtorLit(c *sourceparse.CtorLit) *Ctor {
	switch {
	case c.Bytes != nil:
		return &Ctor{Kind: CtorBytes, Bytes: []byte(unquoteBytes(*c.Bytes))}
	case c.Regexp != nil:
		return &Ctor{Kind: CtorRegexp, Regexp: strings.Trim(*c.Regexp, "/")}
	}
	return &Ctor{Kind: CtorBytes}
}

func unquoteBytes(lit string) string {
	s := strings.TrimPrefix(lit, "b")
	s = strings.Trim(s, `"`)
	return s
}

// --- Types ---

var builtinAtomics = map[string]TypeKind{
	"bool": TypeBool, "double": TypeDouble, "address": TypeAddress,
	"network": TypeNetwork, "port": TypePort, "time": TypeTime,
	"interval": TypeInterval, "string": TypeString, "bytes": TypeBytes,
	"regexp": TypeRegexp, "mark": TypeMark, "sink": TypeSink,
}

func convertTypeRef(t *sourceparse.TypeRef) Type {
	if t == nil {
		return NewUnknown()
	}
	if kind, ok := builtinAtomics[t.Name]; ok {
		return NewAtomic(kind)
	}
	if width, signed, ok := parseIntTypeName(t.Name); ok {
		return NewInteger(width, signed)
	}
	switch t.Name {
	case "list":
		return NewList(convertTypeRef(firstArg(t)))
	case "vector":
		return NewVector(convertTypeRef(firstArg(t)))
	case "set":
		return NewSet(convertTypeRef(firstArg(t)))
	case "optional":
		return NewOptional(convertTypeRef(firstArg(t)))
	case "iterator":
		return NewIterator(convertTypeRef(firstArg(t)))
	case "map":
		if len(t.Args) == 2 {
			return NewMap(convertTypeRef(t.Args[0]), convertTypeRef(t.Args[1]))
		}
		return NewUnknown()
	case "tuple":
		elems := make([]Type, 0, len(t.Args))
		for _, a := range t.Args {
			elems = append(elems, convertTypeRef(a))
		}
		return NewTuple(elems...)
	}
	// Not a builtin: a reference to a unit/type/enum declared
	// elsewhere in the module, resolved by the Resolver's fix-point.
	return NewUnknownByName(NewSimpleID(t.Name, Range{}))
}

func firstArg(t *sourceparse.TypeRef) *sourceparse.TypeRef {
	if len(t.Args) == 0 {
		return nil
	}
	return t.Args[0]
}

// parseIntTypeName recognizes int8/uint8/int16/uint16/.../int64/uint64.
func parseIntTypeName(name string) (width int, signed bool, ok bool) {
	signed = strings.HasPrefix(name, "int")
	unsigned := strings.HasPrefix(name, "uint")
	if !signed && !unsigned {
		return 0, false, false
	}
	digits := strings.TrimPrefix(name, "uint")
	digits = strings.TrimPrefix(digits, "int")
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false, false
	}
	return n, !unsigned, true
}

// --- Expressions ---

func convertExpr(e *sourceparse.Expr) *Expression {
	if e == nil {
		return nil
	}
	left := convertUnary(e.Left)
	if e.Right == nil {
		return left
	}
	return &Expression{
		Kind:         ExprBinary,
		Op:           e.Op,
		Left:         left,
		Right:        convertExpr(e.Right),
		ResolvedType: NewUnknown(),
	}
}

func convertUnary(u *sourceparse.Unary) *Expression {
	inner := convertPostfix(u.Operand)
	if u.Not {
		return &Expression{Kind: ExprUnary, Op: "!", Left: inner}
	}
	if u.Neg {
		return &Expression{Kind: ExprUnary, Op: "-", Left: inner}
	}
	return inner
}

func convertPostfix(p *sourceparse.Postfix) *Expression {
	expr := convertAtom(p.Atom)
	for _, m := range p.Members {
		expr = &Expression{Kind: ExprAttr, Object: expr, Member: m}
	}
	for _, c := range p.Calls {
		args := make([]Expression, 0, len(c.Values))
		for _, v := range c.Values {
			args = append(args, *convertExpr(v))
		}
		expr = &Expression{Kind: ExprCall, Callee: expr, Args: args}
	}
	for _, idx := range p.Indexes {
		expr = &Expression{Kind: ExprIndex, Left: expr, Right: convertExpr(idx)}
	}
	return expr
}

func convertAtom(a *sourceparse.Atom) *Expression {
	switch {
	case a.Float != nil:
		return &Expression{Kind: ExprLiteralDouble, DoubleVal: *a.Float}
	case a.Int != nil:
		n, _ := strconv.ParseInt(*a.Int, 0, 64)
		return &Expression{Kind: ExprLiteralInt, IntVal: n}
	case a.String != nil:
		return &Expression{Kind: ExprLiteralString, StrVal: strings.Trim(*a.String, `"`)}
	case a.Ctor != nil:
		return &Expression{Kind: ExprCtorExpr, CtorVal: convertCtorLit(a.Ctor)}
	case a.Ident != nil:
		if *a.Ident == "true" || *a.Ident == "false" {
			return &Expression{Kind: ExprLiteralBool, BoolVal: *a.Ident == "true"}
		}
		return &Expression{Kind: ExprIdent, Ident: NewSimpleID(*a.Ident, Range{})}
	case a.Sub != nil:
		return convertExpr(a.Sub)
	}
	return &Expression{Kind: ExprLiteralBool, BoolVal: false}
}

// --- Statements ---

func convertStmt(s *sourceparse.Stmt) Statement {
	switch {
	case s.If != nil:
		st := Statement{Kind: StmtIf, Cond: convertExpr(s.If.Cond)}
		for _, t := range s.If.Then {
			st.Then = append(st.Then, convertStmt(t))
		}
		for _, e := range s.If.Else {
			st.Else = append(st.Else, convertStmt(e))
		}
		return st

	case s.Try != nil:
		st := Statement{Kind: StmtTryCatch, CatchName: NewSimpleID(s.Try.CatchName, Range{})}
		for _, b := range s.Try.Body {
			st.TryBody = append(st.TryBody, convertStmt(b))
		}
		for _, b := range s.Try.Catch {
			st.CatchBody = append(st.CatchBody, convertStmt(b))
		}
		return st

	case s.Print != nil:
		st := Statement{Kind: StmtPrint}
		for _, a := range s.Print.Args {
			st.PrintArgs = append(st.PrintArgs, *convertExpr(a))
		}
		return st

	case s.Stop != nil:
		return Statement{Kind: StmtStop}

	case s.Ret != nil:
		return Statement{Kind: StmtReturn, ReturnVal: convertExpr(s.Ret.Value)}

	case s.Expr != nil:
		return Statement{Kind: StmtExpr, ExprVal: convertExpr(s.Expr.Value)}
	}
	return Statement{Kind: StmtBlock}
}
