package binpac

import "fmt"

// Compile-time error kinds (§7). Each carries a source Span so
// diagnostics can point at the offending code.

// SourceSyntaxError reports a malformed BinPAC++ source file.
type SourceSyntaxError struct {
	Message string
	Span    Span
}

func (e SourceSyntaxError) Error() string {
	return fmt.Sprintf("syntax error: %s @ %s", e.Message, e.Span)
}

// ScopeError reports a duplicate declaration or an unknown import.
type ScopeError struct {
	Message string
	ID      ID
	Span    Span
}

func (e ScopeError) Error() string {
	return fmt.Sprintf("scope error: %s (%s) @ %s", e.Message, e.ID, e.Span)
}

// TypeErr reports an unresolvable ID, an illegal coercion, or a wrong
// operand type. Named TypeErr (not TypeError) to leave the name
// TypeError free for the runtime error kind of the same name in §7.
type TypeErr struct {
	Message string
	Span    Span
}

func (e TypeErr) Error() string {
	return fmt.Sprintf("type error: %s @ %s", e.Message, e.Span)
}

// GrammarError reports an ambiguous look-ahead, a non-terminal leaking
// into a look-ahead set, an empty look-ahead, or an unreachable
// production.
type GrammarError struct {
	Message    string
	Production string
	Span       Span
}

func (e GrammarError) Error() string {
	return fmt.Sprintf("grammar error: %s (production %s) @ %s", e.Message, e.Production, e.Span)
}

// AttributeError reports an attribute that is not legal in the
// context it was declared in, including the §9 Open Question
// resolution for inconsistent &synchronize. The untyped
// bytes.at_object form is reported as a TypeErr instead
// (Coercer.AtObjectRequiresType).
type AttributeError struct {
	Message string
	Key     string
	Span    Span
}

func (e AttributeError) Error() string {
	return fmt.Sprintf("attribute error: %s (&%s) @ %s", e.Message, e.Key, e.Span)
}

// Runtime error kinds (§7). These are the values carried on the
// normal return path of generated code, and are also what the
// reference sink/synchronizer/coercion implementations in this
// package raise so their own tests can exercise catch/propagate
// behavior identically to generated code.

// ParseError reports that the input did not conform to the grammar.
type ParseError struct {
	Message    string
	Production string
	Cursor     int
}

func (e ParseError) Error() string {
	return fmt.Sprintf("parse error: %s (in %s, at byte %d)", e.Message, e.Production, e.Cursor)
}

// SynchronizationError reports that a resync anchor was never found
// before the input was frozen.
type SynchronizationError struct {
	Unit   string
	Anchor string
}

func (e SynchronizationError) Error() string {
	return fmt.Sprintf("synchronization error: anchor %s not found for unit %s before end of input", e.Anchor, e.Unit)
}

// FilterError reports that a filter had residual pending data on
// close.
type FilterError struct {
	Filter string
}

func (e FilterError) Error() string {
	return fmt.Sprintf("filter error: %s has residual pending input on close", e.Filter)
}

// FilterUnsupported reports an unknown filter kind.
type FilterUnsupported struct {
	Kind string
}

func (e FilterUnsupported) Error() string {
	return fmt.Sprintf("unsupported filter kind: %s", e.Kind)
}

// OutOfMemory mirrors the runtime's allocator-exhaustion error.
type OutOfMemory struct{}

func (e OutOfMemory) Error() string { return "out of memory" }

// TypeError is the *runtime* reflection-mismatch error (distinct from
// the compile-time TypeErr above).
type TypeError struct {
	Expected string
	Got      string
}

func (e TypeError) Error() string {
	return fmt.Sprintf("type error: expected %s, got %s", e.Expected, e.Got)
}

// Yield is not an error in the user-visible sense but shares the
// exception channel per §7 ("a Yield is not an error but shares the
// exception channel"). Generated/simulated parsers return it from a
// suspending operation; callers type-switch on it to distinguish
// "need more input" from a real failure.
type Yield struct {
	Continuation *Continuation
}

func (e Yield) Error() string {
	return fmt.Sprintf("yield: suspended at %s", e.Continuation.Production)
}

func isYield(err error) bool {
	_, ok := err.(Yield)
	return ok
}
