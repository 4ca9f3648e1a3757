// Package hilti is a small typed intermediate representation modeling
// the subset of HILTI surface this compiler targets: modules, global
// and local variable declarations, the composite/reference type
// vocabulary BinPAC++ units lower to, and the control-flow and
// domain-specific instruction families the parser generator emits
// (§6, SPEC_FULL §4.4 [ADD]).
//
// Grounded on the teacher's vm_program.go/vm_instructions.go
// (Program/Instruction) shape, generalized from a single flat
// bytecode array into a module/function/instruction tree, since HILTI
// (unlike the teacher's own toy VM) has named globals, typed locals,
// and function boundaries.
package hilti

import "fmt"

// TypeKind is HILTI's own type vocabulary, distinct from (but mapped
// from) binpac.Type by the code generator.
type TypeKind int

const (
	KindVoid TypeKind = iota
	KindBool
	KindInt
	KindDouble
	KindBytes
	KindString
	KindRegexp
	KindStruct
	KindUnion
	KindTuple
	KindReference
	KindIterator
	KindList
	KindVector
	KindSet
	KindMap
	KindTimerMgr
	KindSink
)

func (k TypeKind) String() string {
	names := [...]string{
		"void", "bool", "int", "double", "bytes", "string", "regexp",
		"struct", "union", "tuple", "ref", "iterator", "list", "vector",
		"set", "map", "timer_mgr", "sink",
	}
	if int(k) < 0 || int(k) >= len(names) {
		return "invalid"
	}
	return names[k]
}

// Type is HILTI's own flat type representation.
type Type struct {
	Kind   TypeKind
	Width  int
	Signed bool
	Elem   *Type
	Key    *Type
	Val    *Type
	Fields []Field // KindStruct/KindUnion
	Elems  []Type  // KindTuple
	Name   string  // KindStruct/KindUnion/KindReference
}

// Field is one struct/union member.
type Field struct {
	Name string
	Typ  Type
}

// Module is one compiled HILTI module: the unit of codegen output for
// one BinPAC++ module (§6).
type Module struct {
	Name    string
	Globals []*Global
	Structs []Type
	Funcs   []*Function
}

// Global is a module-scope variable declaration (e.g. the MIME
// registry entries, parser descriptor tables emitted at init).
type Global struct {
	Name string
	Typ  Type
	Init Instruction
}

// Local is a function-scope variable declaration.
type Local struct {
	Name string
	Typ  Type
}

// Function is one emitted parser entry point (`parse`, `resume`, the
// sink-facing variant, or a `%new` hook) or helper routine.
type Function struct {
	Name    string
	Params  []Local
	Locals  []Local
	Result  Type
	Body    []Instruction
	// Resumable marks functions that can suspend. Of the emitted
	// entry points, only the `_resume` function's Body begins with a
	// `switch continuation.PC` dispatch.
	Resumable bool
}

func NewModule(name string) *Module { return &Module{Name: name} }

func (m *Module) AddGlobal(g *Global)     { m.Globals = append(m.Globals, g) }
func (m *Module) AddFunc(f *Function)     { m.Funcs = append(m.Funcs, f) }
func (m *Module) AddStruct(t Type)        { m.Structs = append(m.Structs, t) }

// Func looks up a function by name, for callers (and tests) that only
// know the emitted entry point's name.
func (m *Module) Func(name string) (*Function, bool) {
	for _, f := range m.Funcs {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

func (m *Module) String() string {
	out := fmt.Sprintf("module %s {\n", m.Name)
	for _, s := range m.Structs {
		out += fmt.Sprintf("  struct %s\n", s.Name)
	}
	for _, g := range m.Globals {
		out += fmt.Sprintf("  global %s: %s\n", g.Name, g.Typ.Kind)
	}
	for _, f := range m.Funcs {
		out += f.String()
	}
	out += "}\n"
	return out
}

func (f *Function) String() string {
	out := fmt.Sprintf("  function %s(", f.Name)
	for i, p := range f.Params {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s: %s", p.Name, p.Typ.Kind)
	}
	out += fmt.Sprintf(") -> %s {\n", f.Result.Kind)
	for _, ins := range f.Body {
		out += "    " + ins.String() + "\n"
	}
	out += "  }\n"
	return out
}
