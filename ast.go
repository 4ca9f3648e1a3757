package binpac

// This file defines the typed AST produced by sourceparse.Convert
// (ast_convert.go) and consumed by the resolver, grammar builder, and
// code generator. Per the Design Notes (§9) the Production, Type,
// Expression, Statement, and Ctor hierarchies are modeled as closed
// sums via a tagged struct with an exhaustive switch, not a
// subclass/visitor hierarchy — it keeps the grammar analyses and the
// emitter tractable, the way the spec recommends.

// Module is a named compilation unit.
type Module struct {
	Name     ID
	Imports  []Import
	Decls    []Decl
	Exported map[string]bool
	Scope    *Scope
}

// Import is a single `import MODULE` statement.
type Import struct {
	Path ID
	Span Span
}

// DeclKind discriminates the top-level declarations a module owns.
type DeclKind int

const (
	DeclConst DeclKind = iota
	DeclType
	DeclUnit
	DeclFunction
	DeclHook
	DeclVariable
)

// Decl is one top-level declaration. Only the field matching Kind is
// populated.
type Decl struct {
	Kind DeclKind
	Name ID
	Span Span

	ConstValue *Expression
	TypeValue  *Type
	UnitValue  *Unit
	FuncValue  *Function

	DeclaredType Type
}

// Function is a user-defined function (used by hooks and top-level
// funcs alike).
type Function struct {
	Name   ID
	Params []Param
	Result Type
	Body   []Statement
	Span   Span
}

// Unit is the parameterized product type at the center of BinPAC++
// (§3). Field identifiers are unique within a unit unless explicitly
// marked aliased (Field.Alias).
type Unit struct {
	Name       ID
	Params     []Param
	Fields     []*Field
	Variables  []*UnitVariable
	Properties []UnitProperty
	Hooks      []*Hook // global hooks: %init/%done/%error
	Scope      *Scope
	Span       Span

	// Grammar is populated lazily once per unit type, on first
	// reference, by the Grammar Builder (§3 Lifecycle).
	Grammar *Grammar
}

// UnitVariable is computed (non-parsed) storage declared inside a
// unit body.
type UnitVariable struct {
	Name ID
	Typ  Type
	Init *Expression
	Span Span
}

// UnitProperty is a per-unit directive like `%byteorder = big;` or
// `%mime-type = "text/plain";`. SPEC_FULL §3.3 widens mime-type/port
// to accept a list of values, matching real BinPAC unit properties.
type UnitProperty struct {
	Key    string
	Values []Expression
	Span   Span
}

// Field is one item inside a unit body (§3). Anonymous fields have an
// empty Name. Conditional fields carry a non-nil Cond.
type Field struct {
	Name      ID // empty for anonymous fields
	Alias     bool
	Typ       Type
	Ctor      *Ctor // for ctor/const fields, instead of Typ
	Cond      *Expression
	Attrs     AttributeSet
	Hooks     []*Hook
	Switch    *SwitchField
	Span      Span

	// Index is set by the resolver to the field's position in the
	// unit's declaration order (§3 Unit invariant).
	Index int
}

// SwitchField models `switch(expr){ case v: field; ... default: field; }`
// inside a unit body.
type SwitchField struct {
	Discriminant *Expression // nil for a no-discriminant switch
	Cases        []SwitchCase
	Default      []*Field
}

type SwitchCase struct {
	Values []Expression
	Fields []*Field
}

// Hook is a user-written or attribute-synthesized code fragment
// attached to a field or to a unit-level event.
type Hook struct {
	Field     ID     // empty for %init/%done/%error
	Event     string // "init", "done", "error", or "" for a field hook
	Priority  int
	Debug     bool
	Body      []Statement
	Span      Span
}

// --- Attribute / AttributeSet (§3) ---

// Attribute is one `&key[=expr]` entry. Value is nil for valueless
// attributes like `&transient`.
type Attribute struct {
	Key   string
	Value *Expression
	Span  Span
}

// AttributeSet is a key→optional-expression map; duplicate keys
// overwrite (§3).
type AttributeSet struct {
	order []string
	byKey map[string]Attribute
}

func NewAttributeSet() AttributeSet {
	return AttributeSet{byKey: map[string]Attribute{}}
}

func (as *AttributeSet) Set(a Attribute) {
	if as.byKey == nil {
		as.byKey = map[string]Attribute{}
	}
	if _, exists := as.byKey[a.Key]; !exists {
		as.order = append(as.order, a.Key)
	}
	as.byKey[a.Key] = a
}

func (as AttributeSet) Get(key string) (Attribute, bool) {
	a, ok := as.byKey[key]
	return a, ok
}

func (as AttributeSet) Has(key string) bool {
	_, ok := as.byKey[key]
	return ok
}

// Keys returns attribute keys in first-insertion order.
func (as AttributeSet) Keys() []string {
	return as.order
}

// legalAttributeContexts lists, per attribute key, the contexts
// (expressed as a free-form tag the caller checks against) in which
// the attribute is legal to declare. Context-sensitive validation
// (§3) is driven from this table rather than scattered type-switches.
var legalAttributeContexts = map[string]map[string]bool{
	"default":      {"field": true},
	"convert":      {"field": true, "type": true},
	"length":       {"field": true},
	"until":        {"field": true},
	"parse-from":   {"field": true},
	"parse-at":     {"field": true},
	"synchronize":  {"field": true, "unit": true, "production": true},
	"transient":    {"field": true},
	"requires":     {"field": true, "unit": true},
	"chunked":      {"field": true},
	"foreach":      {"field": true},
}

// ValidateContext reports an AttributeError if key is not legal in
// the given context.
func ValidateContext(key, context string, span Span) error {
	ctxs, known := legalAttributeContexts[key]
	if !known {
		// Unknown attribute keys are tolerated structurally (an
		// implementation may add vendor attributes); only known
		// keys are context-checked.
		return nil
	}
	if !ctxs[context] {
		return AttributeError{
			Message: "not legal in this context (" + context + ")",
			Key:     key,
			Span:    span,
		}
	}
	return nil
}

// --- Ctor: literal constructors (§3) ---

type CtorKind int

const (
	CtorBytes CtorKind = iota
	CtorRegexp
	CtorList
	CtorMap
	CtorSet
	CtorTuple
)

// Ctor is a literal constructor expression, e.g. b"HELO" or a regexp
// literal. Only the field matching Kind is populated.
type Ctor struct {
	Kind   CtorKind
	Bytes  []byte
	Regexp string
	Elems  []Expression
	Span   Span
}

func (c Ctor) String() string {
	switch c.Kind {
	case CtorBytes:
		return "b\"" + string(c.Bytes) + "\""
	case CtorRegexp:
		return "/" + c.Regexp + "/"
	default:
		return "<ctor>"
	}
}

// --- Expression (§6 input language) ---

type ExprKind int

const (
	ExprLiteralInt ExprKind = iota
	ExprLiteralString
	ExprLiteralBool
	ExprLiteralDouble
	ExprIdent
	ExprField // $$ / self-field reference inside a hook/attribute expr
	ExprBinary
	ExprUnary
	ExprCall
	ExprIndex
	ExprAttr // a.b member access
	ExprCtorExpr
	ExprTuple
)

type Expression struct {
	Kind ExprKind
	Span Span

	IntVal    int64
	StrVal    string
	BoolVal   bool
	DoubleVal float64

	Ident ID

	Op    string // for ExprBinary/ExprUnary
	Left  *Expression
	Right *Expression

	Callee *Expression
	Args   []Expression

	Object *Expression
	Member string

	CtorVal *Ctor
	Tuple   []Expression

	// ResolvedType is filled in by the resolver once operator
	// resolution (§4.1) completes.
	ResolvedType Type
	// ResolvedModule is the target module an operator call resolves
	// against (needed to emit qualified calls, §4.1).
	ResolvedModule ID
}

func (e Expression) String() string {
	switch e.Kind {
	case ExprLiteralInt:
		return itoa(e.IntVal)
	case ExprIdent, ExprField:
		return e.Ident.String()
	case ExprBinary:
		return "(" + e.Left.String() + " " + e.Op + " " + e.Right.String() + ")"
	default:
		return "<expr>"
	}
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [24]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// --- Statement (§6 input language) ---

type StmtKind int

const (
	StmtExpr StmtKind = iota
	StmtIf
	StmtSwitch
	StmtFor
	StmtWhile
	StmtReturn
	StmtPrint
	StmtTryCatch
	StmtBlock
	StmtAssign
	StmtStop // calls the `stop` builtin inside a &foreach/&until hook
)

type Statement struct {
	Kind StmtKind
	Span Span

	ExprVal *Expression

	Cond     *Expression
	Then     []Statement
	Else     []Statement

	SwitchOn    *Expression
	SwitchCases []StmtSwitchCase

	ForInit *Statement
	ForCond *Expression
	ForPost *Statement
	Body    []Statement

	ReturnVal *Expression
	PrintArgs []Expression

	TryBody   []Statement
	CatchName ID
	CatchBody []Statement

	AssignTarget *Expression
	AssignValue  *Expression
}

type StmtSwitchCase struct {
	Values []Expression
	Body   []Statement
}
