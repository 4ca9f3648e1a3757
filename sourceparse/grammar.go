// Package sourceparse defines the BinPAC++ surface-syntax grammar as a
// participle/v2 struct-tag grammar, in the style of
// ritamzico-pgraph/internal/dsl/grammar.go: one exported struct per
// production, `parser:"..."` tags driving the PEG-ish alternation/
// repetition participle compiles into a recursive-descent parser.
//
// This grammar covers the surface syntax named in §2 and §6 of the
// specification (module/import/const/type/unit declarations, fields,
// switches, hooks, attributes, properties) plus the expression/
// statement subset §6 and the supplemented original_source/ features
// need. It is deliberately not a from-scratch copy of any upstream
// BinPAC grammar file; field/production names follow this compiler's
// own AST (ast.go), not the original implementation's.
package sourceparse

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var binpacLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Keyword", Pattern: `\b(module|import|export|type|unit|function|const|global|on|switch|default|if|else|for|while|return|print|try|catch|stop)\b`},
	{Name: "Float", Pattern: `\d+\.\d+`},
	{Name: "Int", Pattern: `0x[0-9a-fA-F]+|\d+`},
	{Name: "String", Pattern: `"([^"\\]|\\.)*"`},
	{Name: "Bytes", Pattern: `b"([^"\\]|\\.)*"`},
	{Name: "Regexp", Pattern: `/([^/\\]|\\.)*/`},
	{Name: "Attr", Pattern: `&[a-zA-Z_][a-zA-Z0-9_-]*`},
	{Name: "Prop", Pattern: `%[a-zA-Z_][a-zA-Z0-9_-]*`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*(::[a-zA-Z_][a-zA-Z0-9_]*)*`},
	{Name: "Op", Pattern: `==|!=|<=|>=|&&|\|\|`},
	{Name: "Punct", Pattern: `[(){}\[\]<>,;:.=|*+\-/!?]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// File is the top-level parse unit: one BinPAC++ source module.
type File struct {
	Module  *ModuleDecl  `parser:"@@"`
	Imports []*ImportDecl `parser:"@@*"`
	Decls   []*TopDecl    `parser:"@@*"`
}

type ModuleDecl struct {
	Name string `parser:"\"module\" @Ident \";\""`
}

type ImportDecl struct {
	Path string `parser:"\"import\" @Ident"`
}

// TopDecl dispatches on the four top-level declaration kinds. A
// leading `export` marks the declaration's ID visible outside the
// module (§3 Module: "Exported unit types receive generated public
// parser entry points").
type TopDecl struct {
	Export bool        `parser:"@\"export\"?"`
	Const  *ConstDecl  `parser:"( @@"`
	Type   *TypeDecl   `parser:"| @@"`
	Unit   *UnitDecl   `parser:"| @@"`
	Func   *FuncDecl   `parser:"| @@ )"`
}

type ConstDecl struct {
	Name  string      `parser:"\"const\" @Ident"`
	Typ   *TypeRef    `parser:"\":\" @@"`
	Value *Expr       `parser:"\"=\" @@"`
}

type TypeDecl struct {
	Name string   `parser:"\"type\" @Ident"`
	Typ  *TypeRef `parser:"\"=\" @@"`
}

type FuncDecl struct {
	Name   string       `parser:"\"function\" @Ident"`
	Params []*ParamDecl `parser:"\"(\" ( @@ ( \",\" @@ )* )? \")\""`
	Result *TypeRef     `parser:"( \":\" @@ )?"`
	Body   []*Stmt      `parser:"\"{\" @@* \"}\""`
}

type ParamDecl struct {
	Name string   `parser:"@Ident"`
	Typ  *TypeRef `parser:"\":\" @@"`
}

// UnitDecl is a unit type declaration: params, then a brace-delimited
// body of fields/variables/properties/hooks in any order.
type UnitDecl struct {
	Name   string       `parser:"\"unit\" @Ident"`
	Params []*ParamDecl `parser:"( \"(\" ( @@ ( \",\" @@ )* )? \")\" )?"`
	Items  []*UnitItem  `parser:"\"{\" @@* \"}\" \";\"?"`
}

type UnitItem struct {
	Property *PropertyDecl `parser:"( @@"`
	Hook     *HookDecl     `parser:"| @@"`
	Variable *VarDecl      `parser:"| @@"`
	Field    *FieldDecl    `parser:"| @@ )"`
}

// PropertyDecl: `%mime-type = value, value;` style unit property.
type PropertyDecl struct {
	Key    string  `parser:"@Prop"`
	Values []*Expr `parser:"\"=\" @@ ( \",\" @@ )* \";\""`
}

type VarDecl struct {
	Name string   `parser:"\"global\" @Ident"`
	Typ  *TypeRef `parser:"\":\" @@"`
	Init *Expr    `parser:"( \"=\" @@ )?"`
	_    string   `parser:"\";\""`
}

// FieldDecl covers: plain typed field, ctor-literal field, switch
// field, each with an optional `if (cond)` condition and trailing
// attribute list.
type FieldDecl struct {
	Name   string       `parser:"( @Ident \":\" )?"`
	Switch *SwitchDecl  `parser:"( @@"`
	Ctor   *CtorLit     `parser:"| @@"`
	Typ    *TypeRef     `parser:"| @@ )"`
	Cond   *Expr        `parser:"( \"if\" \"(\" @@ \")\" )?"`
	Attrs  []*AttrDecl  `parser:"@@*"`
	Hooks  []*HookDecl  `parser:"@@*"`
	_      string       `parser:"\";\"?"`
}

type SwitchDecl struct {
	Discriminant *Expr            `parser:"\"switch\" \"(\" @@? \")\""`
	Cases        []*SwitchCase    `parser:"\"{\" @@*"`
	Default      []*FieldDecl     `parser:"( \"default\" \":\" @@* )? \"}\""`
}

type SwitchCase struct {
	Values []*Expr      `parser:"@@ ( \",\" @@ )* \":\""`
	Fields []*FieldDecl `parser:"@@*"`
}

type AttrDecl struct {
	Key   string `parser:"@Attr"`
	Value *Expr  `parser:"( \"=\" @@ )?"`
}

type HookDecl struct {
	Field    string  `parser:"\"on\" @Ident"`
	Event    string  `parser:"( \".\" @Ident )?"`
	Priority *int64  `parser:"( \"(\" @Int \")\" )?"`
	Body     []*Stmt `parser:"\"{\" @@* \"}\""`
}

// TypeRef covers atomic names, parameterized composites
// (`list<T>`, `map<K,V>`, `vector<T>`, `set<T>`, `optional<T>`,
// `iterator<T>`), and bare unit/type references.
type TypeRef struct {
	Name string     `parser:"@Ident"`
	Args []*TypeRef `parser:"( \"<\" @@ ( \",\" @@ )* \">\" )?"`
}

type CtorLit struct {
	Bytes  *string `parser:"( @Bytes"`
	Regexp *string `parser:"| @Regexp )"`
}

// Expr is a minimal precedence-flattened expression grammar: a unary
// term optionally followed by a binary operator and another Expr.
// ast_convert.go keeps this right-nested shape as it is, so every
// operator groups to the right (`a - b - c` is `a - (b - c)`); no
// operator precedence is applied.
type Expr struct {
	Left  *Unary `parser:"@@"`
	Op    string `parser:"( @(\"==\"|\"!=\"|\"<=\"|\">=\"|\"&&\"|\"||\"|\"+\"|\"-\"|\"*\"|\"/\"|\"<\"|\">\")"`
	Right *Expr  `parser:"  @@ )?"`
}

// Unary is a single optionally-negated/notted postfix term.
type Unary struct {
	Not     bool     `parser:"@\"!\"?"`
	Neg     bool     `parser:"@\"-\"?"`
	Operand *Postfix `parser:"@@"`
}

type Postfix struct {
	Atom    *Atom    `parser:"@@"`
	Members []string `parser:"( \".\" @Ident )*"`
	Calls   []*Args  `parser:"@@*"`
	Indexes []*Expr  `parser:"( \"[\" @@ \"]\" )*"`
}

type Args struct {
	Values []*Expr `parser:"\"(\" ( @@ ( \",\" @@ )* )? \")\""`
}

type Atom struct {
	Float  *float64 `parser:"( @Float"`
	Int    *string  `parser:"| @Int"`
	String *string  `parser:"| @String"`
	Ctor   *CtorLit `parser:"| @@"`
	Ident  *string  `parser:"| @Ident"`
	Sub    *Expr    `parser:"| \"(\" @@ \")\" )"`
}

// --- Statements (§6 input language) ---

type Stmt struct {
	If    *IfStmt    `parser:"( @@"`
	Try   *TryStmt   `parser:"| @@"`
	Print *PrintStmt `parser:"| @@"`
	Stop  *StopStmt  `parser:"| @@"`
	Ret   *RetStmt   `parser:"| @@"`
	Expr  *ExprStmt  `parser:"| @@ )"`
}

type IfStmt struct {
	Cond *Expr   `parser:"\"if\" \"(\" @@ \")\""`
	Then []*Stmt `parser:"\"{\" @@* \"}\""`
	Else []*Stmt `parser:"( \"else\" \"{\" @@* \"}\" )?"`
}

type TryStmt struct {
	Body      []*Stmt `parser:"\"try\" \"{\" @@* \"}\""`
	CatchName string  `parser:"\"catch\" \"(\" @Ident \")\""`
	Catch     []*Stmt `parser:"\"{\" @@* \"}\""`
}

type PrintStmt struct {
	Args []*Expr `parser:"\"print\" @@ ( \",\" @@ )*"`
	_    string  `parser:"\";\""`
}

type StopStmt struct {
	Stop bool   `parser:"@\"stop\""`
	_    string `parser:"\";\""`
}

type RetStmt struct {
	Value *Expr  `parser:"\"return\" @@?"`
	_     string `parser:"\";\""`
}

type ExprStmt struct {
	Value *Expr  `parser:"@@"`
	_     string `parser:"\";\""`
}

// Parser is the compiled participle parser for File.
var Parser = participle.MustBuild[File](
	participle.Lexer(binpacLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(2),
)

// Parse parses src (a full BinPAC++ source module) into a surface
// syntax tree.
func Parse(filename string, src []byte) (*File, error) {
	return Parser.ParseBytes(filename, src)
}
