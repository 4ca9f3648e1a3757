// Package codegen lowers an analyzed binpac.Grammar to a hilti.Module
// via tree-walking emission functions, one per Production kind,
// mirroring the teacher's AstNodeVisitor/grammar_compiler.go
// visitor-per-node-kind structure (SPEC_FULL §4.4 [ADD]).
package codegen

import (
	"fmt"

	"github.com/binpac-go/binpac"
	"github.com/binpac-go/binpac/hilti"
)

// Emitter walks one unit's analyzed Grammar and appends instructions
// to the current function body. One Emitter may emit several units in
// turn (EmitUnit resets its per-function state); every function it
// emits is added to the shared Module, and it emits no separate helper
// functions.
type Emitter struct {
	cfg     *binpac.Config
	mod     *hilti.Module
	fn      *hilti.Function
	pcCount int
	labels  map[string]int

	// yields records, for the function currently being emitted, every
	// yield point's continuation PC and the index in fn.Body execution
	// should resume at (the instruction right after the yield). This
	// feeds emitResumeEntry's OpSwitch Cases (§4.4).
	yields []yieldPoint
}

type yieldPoint struct {
	pc     int
	resume int
}

func NewEmitter(cfg *binpac.Config, mod *hilti.Module) *Emitter {
	return &Emitter{cfg: cfg, mod: mod, labels: map[string]int{}}
}

// EmitUnit emits three runtime ABI entry points for an exported unit's
// grammar (§6): `parse`, `resume`, and the sink-facing variant. No
// `%new` hook function is emitted.
func (e *Emitter) EmitUnit(unitName string, g *binpac.Grammar) (*hilti.Function, error) {
	if !g.IsAnalyzed() {
		return nil, fmt.Errorf("codegen: grammar %s was not analyzed before emission (§4.3: \"the code generator refuses to run if the report is non-empty\")", unitName)
	}

	fn := &hilti.Function{
		Name:      unitName + "_parse",
		Params:    []hilti.Local{{Name: "input", Typ: hilti.Type{Kind: hilti.KindBytes}}, {Name: "sink", Typ: hilti.Type{Kind: hilti.KindSink}}},
		Result:    hilti.Type{Kind: hilti.KindStruct, Name: unitName},
		Resumable: true,
	}
	e.fn = fn
	e.pcCount = 0
	e.yields = nil

	e.emit(g.Root)
	fn.Body = append(fn.Body, hilti.Instruction{Op: hilti.OpReturn, Src1: "self"})

	e.mod.AddFunc(fn)
	e.emitResumeEntry(unitName, fn)
	e.emitSinkEntry(unitName, fn)
	return fn, nil
}

// emitResumeEntry builds the `resume(continuation, input)` ABI entry
// point (§6). Its body is parseFn's body, verbatim, with an OpSwitch on
// continuation.PC prepended that dispatches straight past whatever
// instructions already ran before the suspending yield (§4.4): every
// yield point recorded while emitting parseFn becomes one Cases entry,
// keyed by the yield's continuation PC and pointing at the instruction
// following that yield (offset by one slot for the prepended switch).
func (e *Emitter) emitResumeEntry(unitName string, parseFn *hilti.Function) {
	resume := &hilti.Function{
		Name:      unitName + "_resume",
		Params:    []hilti.Local{{Name: "continuation", Typ: hilti.Type{Kind: hilti.KindReference, Name: "Continuation"}}, {Name: "input", Typ: hilti.Type{Kind: hilti.KindBytes}}},
		Result:    parseFn.Result,
		Resumable: true,
	}

	cases := make(map[int]int, len(e.yields))
	for _, y := range e.yields {
		cases[y.pc] = y.resume + 1 // +1: body is shifted down by the prepended switch
	}

	resume.Body = make([]hilti.Instruction, 0, len(parseFn.Body)+1)
	resume.Body = append(resume.Body, hilti.Instruction{Op: hilti.OpSwitch, Src1: "continuation.PC", Cases: cases})
	resume.Body = append(resume.Body, parseFn.Body...)

	e.mod.AddFunc(resume)
}

func (e *Emitter) emitSinkEntry(unitName string, parseFn *hilti.Function) {
	sinkFn := &hilti.Function{
		Name: unitName + "_parse_sink",
		Params: []hilti.Local{
			{Name: "parse_object", Typ: parseFn.Result},
			{Name: "begin_iter", Typ: hilti.Type{Kind: hilti.KindIterator}},
			{Name: "user_cookie", Typ: hilti.Type{Kind: hilti.KindString}},
		},
		Result:    parseFn.Result,
		Resumable: true,
	}
	sinkFn.Body = []hilti.Instruction{
		{Op: hilti.OpCall, Dst: "self", Callee: parseFn.Name, Args: []string{"parse_object", "begin_iter"}},
		{Op: hilti.OpReturn, Src1: "self"},
	}
	e.mod.AddFunc(sinkFn)
}

// emit dispatches on Production kind to the per-kind emission
// function (emitVariable, emitLiteral, emitLookAhead, emitSequence,
// emitCounter, emitWhile, emitLoop, emitSwitch, emitChildGrammar,
// emitBoolean), mirroring the teacher's visitor structure.
func (e *Emitter) emit(p *binpac.Production) {
	if p == nil {
		return
	}
	switch p.Kind {
	case binpac.ProdEpsilon:
		e.emitEpsilon(p)
	case binpac.ProdLiteral:
		e.emitLiteral(p)
	case binpac.ProdVariable:
		e.emitVariable(p)
	case binpac.ProdSequence:
		e.emitSequence(p)
	case binpac.ProdLookAhead:
		e.emitLookAhead(p)
	case binpac.ProdSwitch:
		e.emitSwitch(p)
	case binpac.ProdBoolean:
		e.emitBoolean(p)
	case binpac.ProdCounter:
		e.emitCounter(p)
	case binpac.ProdWhile:
		e.emitWhile(p)
	case binpac.ProdLoop:
		e.emitLoop(p)
	case binpac.ProdChildGrammar:
		e.emitChildGrammar(p)
	}
}

func (e *Emitter) append(ins hilti.Instruction) {
	e.fn.Body = append(e.fn.Body, ins)
}

func (e *Emitter) emitEpsilon(p *binpac.Production) {
	e.append(hilti.Instruction{Op: hilti.OpNop})
}

func (e *Emitter) emitLiteral(p *binpac.Production) {
	var lit []byte
	if p.LitKind == binpac.LiteralCtor && p.Ctor != nil {
		lit = p.Ctor.Bytes
	}
	e.append(hilti.Instruction{Op: hilti.OpBytesFind, Dst: fieldSlot(p), Src1: "input", Literal: lit})
	e.maybeYield(p)
	e.emitFieldHooks(p)
}

func (e *Emitter) emitVariable(p *binpac.Production) {
	e.append(hilti.Instruction{Op: hilti.OpBytesExtract, Dst: fieldSlot(p), Src1: "input"})
	if p.Field != nil {
		e.append(hilti.Instruction{Op: hilti.OpStructSet, Dst: "self", Field: p.Field.Name.Name(), Src1: fieldSlot(p)})
	}
	e.maybeYield(p)
	e.emitFieldHooks(p)
}

func (e *Emitter) emitSequence(p *binpac.Production) {
	for _, it := range p.Items {
		e.emit(it)
	}
}

// emitLookAhead emits "if the look-ahead token matches alt1's first
// set, take alt1, else take alt2" as a real two-way branch: a
// conditional jump into alt1, alt2 falling through, an unconditional
// jump over alt1, then alt1 itself (§4.2 LL(1) lookahead resolution).
func (e *Emitter) emitLookAhead(p *binpac.Production) {
	toAlt1 := e.appendJumpCond("look_ahead_matches_alt1")
	e.emit(p.Alt2)
	overAlt1 := e.appendJump()
	e.patchJump(toAlt1)
	e.emit(p.Alt1)
	e.patchJump(overAlt1)
}

func (e *Emitter) emitSwitch(p *binpac.Production) {
	for _, c := range p.Cases {
		e.emit(c.Body)
	}
	if p.DefaultCase != nil {
		e.emit(p.DefaultCase)
	}
}

// emitBoolean emits `&if(cond)`-style conditional fields: a conditional
// jump into the true branch, the false branch falling through, an
// unconditional jump over the true branch, then the true branch.
func (e *Emitter) emitBoolean(p *binpac.Production) {
	toTrue := e.appendJumpCond(exprSlot(p.Cond))
	e.emit(p.FalseB)
	overTrue := e.appendJump()
	e.patchJump(toTrue)
	e.emit(p.TrueB)
	e.patchJump(overTrue)
}

func (e *Emitter) emitCounter(p *binpac.Production) {
	e.append(hilti.Instruction{Op: hilti.OpConst, Dst: "__count", ConstValue: exprSlot(p.Count)})
	e.emit(p.Body)
}

// emitWhile emits `while(cond) body` as: check cond, jump into the
// body if true else jump past it; body; unconditional jump back to the
// check. All three targets are backpatched to real instruction indices.
func (e *Emitter) emitWhile(p *binpac.Production) {
	checkIdx := e.appendJumpCond(exprSlot(p.WhileCond))
	exitIdx := e.appendJump()
	e.patchJump(checkIdx)
	e.emit(p.WhileBody)
	backIdx := e.appendJump()
	e.patchJumpTo(backIdx, checkIdx)
	e.patchJump(exitIdx)
}

func (e *Emitter) emitLoop(p *binpac.Production) {
	p.LoopBody.InUntil = true
	e.emit(p.LoopBody)
}

func (e *Emitter) emitChildGrammar(p *binpac.Production) {
	e.append(hilti.Instruction{Op: hilti.OpCall, Dst: fieldSlot(p), Callee: p.ChildUnit.Name() + "_parse", Args: []string{"input", "sink"}})
	e.maybeYield(p)
	e.emitFieldHooks(p)
}

// maybeYield emits the suspend instruction every field-consuming
// production hits when the backing input is exhausted mid-field (§4.4:
// the suspend/resume requirement applies to every terminal, not just a
// distinguished subset, so this is unconditional). It also records the
// yield point so emitResumeEntry can dispatch resume() back to the
// instruction right after it.
func (e *Emitter) maybeYield(p *binpac.Production) {
	pc := e.nextPC()
	e.append(hilti.Instruction{Op: hilti.OpYieldUntil, ContinuationRef: p.Symbol, PC: pc})
	e.yields = append(e.yields, yieldPoint{pc: pc, resume: len(e.fn.Body)})
}

// emitFieldHooks emits p.Field's user hooks once its value has been
// computed. A hook marked `debug` (§4.4's debug-hook concept, distinct
// from the mandatory yields above) only fires when
// codegen.emit_debug_hooks is enabled; ordinary hooks always fire.
func (e *Emitter) emitFieldHooks(p *binpac.Production) {
	if p.Field == nil {
		return
	}
	debugHooks := e.cfg.GetBool("codegen.emit_debug_hooks")
	for i, h := range p.Field.Hooks {
		if h.Debug && !debugHooks {
			continue
		}
		e.append(hilti.Instruction{
			Op:     hilti.OpCall,
			Callee: fmt.Sprintf("%s_hook_%s_%d", fieldSlot(p), h.Event, i),
			Args:   []string{"self"},
		})
	}
}

func (e *Emitter) nextPC() int {
	e.pcCount++
	return e.pcCount
}

// appendJumpCond appends a conditional jump whose Target is patched
// later by patchJump/patchJumpTo, and returns its index in fn.Body.
func (e *Emitter) appendJumpCond(src1 string) int {
	e.append(hilti.Instruction{Op: hilti.OpJumpCond, Src1: src1})
	return len(e.fn.Body) - 1
}

// appendJump appends an unconditional jump whose Target is patched
// later, and returns its index in fn.Body.
func (e *Emitter) appendJump() int {
	e.append(hilti.Instruction{Op: hilti.OpJump})
	return len(e.fn.Body) - 1
}

// patchJump backpatches the jump at idx to target the next instruction
// about to be emitted (the current end of fn.Body).
func (e *Emitter) patchJump(idx int) {
	e.fn.Body[idx].Target = len(e.fn.Body)
}

// patchJumpTo backpatches the jump at idx to target a known index,
// e.g. jumping back to a loop's condition check.
func (e *Emitter) patchJumpTo(idx, target int) {
	e.fn.Body[idx].Target = target
}

func fieldSlot(p *binpac.Production) string {
	if p.Field != nil && p.Field.Name.Name() != "" {
		return p.Field.Name.Name()
	}
	return p.Symbol
}

func exprSlot(e *binpac.Expression) string {
	if e == nil {
		return ""
	}
	return e.String()
}
