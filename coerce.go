package binpac

import (
	"fmt"

	"github.com/spf13/cast"
)

// Coercer implements the (src-type, dst-type) -> (expr -> expr) partial
// function used for `&default`, `&convert`, and operator-candidate
// matching (§4.1 operator resolution, §4.8). Constant folding of the
// literal half goes through cast; the structural half (sign/width
// extension, optional unwrap, tuple/reference/bytes<->string, enum) is
// hand-written because it encodes BinPAC-specific semantics cast has no
// notion of (see DESIGN.md for why this part is stdlib-only).
type Coercer struct {
	diags *Diagnostics
}

func NewCoercer(diags *Diagnostics) *Coercer {
	return &Coercer{diags: diags}
}

// CanCoerce reports whether a value of type src can be coerced to dst
// without evaluating anything; used for operator-candidate matching
// when resolving overloaded operators (§4.1).
func (c *Coercer) CanCoerce(src, dst Type) bool {
	if src.Equal(dst) {
		return true
	}
	switch {
	case dst.Kind == TypeOptional:
		return c.CanCoerce(src, *dst.Elem)
	case src.Kind == TypeOptional:
		return c.CanCoerce(*src.Elem, dst)
	case isInteger(src.Kind) && isInteger(dst.Kind):
		return true
	case isInteger(src.Kind) && dst.Kind == TypeBool:
		return true
	case src.Kind == TypeBytes && dst.Kind == TypeString:
		return true
	case src.Kind == TypeString && dst.Kind == TypeBytes:
		return true
	case src.Kind == TypeEnum && isInteger(dst.Kind):
		return true
	case isInteger(src.Kind) && dst.Kind == TypeEnum:
		return true
	case src.Kind == TypeUnit && dst.Kind == TypeUnit:
		// Any unit reference coerces to any other: BinPAC units are
		// structurally open, so this check is deferred to runtime
		// field access.
		return true
	case src.Kind == TypeTuple && dst.Kind == TypeTuple:
		return coerceTupleShapesMatch(src, dst, c)
	case src.Kind == TypeIterator && dst.Kind == TypeIterator:
		// Reference rule: an iterator coerces to any iterator whose
		// pointee type its own pointee type coerces to.
		return src.Elem != nil && dst.Elem != nil && c.CanCoerce(*src.Elem, *dst.Elem)
	default:
		return false
	}
}

func isInteger(k TypeKind) bool {
	return k == TypeInteger
}

func coerceTupleShapesMatch(src, dst Type, c *Coercer) bool {
	if len(src.Elems) != len(dst.Elems) {
		return false
	}
	for i := range src.Elems {
		if !c.CanCoerce(src.Elems[i], dst.Elems[i]) {
			return false
		}
	}
	return true
}

// Fold evaluates a literal attribute-expression constant (`&default`,
// `&convert`) against a known destination type, using cast for the
// Go-native representation conversion and our own structural rules for
// everything cast doesn't know about (optionals, enums, bytes/string).
func (c *Coercer) Fold(lit any, dst Type) (any, error) {
	switch dst.Kind {
	case TypeInteger:
		if dst.Signed {
			return cast.ToInt64E(lit)
		}
		return cast.ToUint64E(lit)
	case TypeBool:
		return cast.ToBoolE(lit)
	case TypeString:
		return cast.ToStringE(lit)
	case TypeDouble:
		return cast.ToFloat64E(lit)
	case TypeBytes:
		s, err := cast.ToStringE(lit)
		if err != nil {
			return nil, err
		}
		return []byte(s), nil
	case TypeOptional:
		return c.Fold(lit, *dst.Elem)
	case TypeEnum:
		n, err := cast.ToInt64E(lit)
		if err != nil {
			return nil, TypeErr{Message: fmt.Sprintf("cannot fold %v to enum %s", lit, dst.Name)}
		}
		return n, nil
	default:
		return nil, TypeErr{Message: fmt.Sprintf("no constant-folding rule for destination type %s", dst)}
	}
}

// CoerceExpr wraps expr in the right implicit-conversion Expression node
// if src != dst and a coercion is legal; returns expr unchanged if the
// types already agree. It reports a TypeErr through diags (rather than
// failing the caller outright) so resolution can keep collecting errors
// (§7).
func (c *Coercer) CoerceExpr(expr *Expression, src, dst Type) *Expression {
	if src.Equal(dst) {
		return expr
	}
	if !c.CanCoerce(src, dst) {
		c.diags.Report(TypeErr{
			Message: fmt.Sprintf("cannot coerce %s to %s", src, dst),
			Span:    expr.Span,
		})
		return expr
	}
	coerced := &Expression{
		Kind:          ExprCall,
		Span:          expr.Span,
		Callee:        &Expression{Kind: ExprIdent, Ident: NewSimpleID("__coerce", Range{})},
		Args:          []Expression{*expr},
		ResolvedType:  dst,
	}
	return coerced
}

// ResolveOperator matches a binary operator's operand types against a
// list of declared candidate signatures, checking implicit coercion of
// each operand in turn (§4.1). Returns the index of the first
// candidate, in list order, that both operands coerce to, or -1.
// Candidates are not ranked by specificity, and more than one
// compatible candidate is not reported as an ambiguity.
func (c *Coercer) ResolveOperator(lhs, rhs Type, candidates [][2]Type) int {
	for i, cand := range candidates {
		if c.CanCoerce(lhs, cand[0]) && c.CanCoerce(rhs, cand[1]) {
			return i
		}
	}
	return -1
}

// AtObjectRequiresType implements Open Question #2's resolution: the
// untyped form of `&parse-at`/bytes.at_object (no explicit type
// argument) is rejected outright; only the typed form is legal. See
// DESIGN.md "Open Questions" for the rationale.
func (c *Coercer) AtObjectRequiresType(attr Attribute) error {
	if attr.Key != "parse-at" && attr.Key != "parse-from" {
		return nil
	}
	if attr.Value != nil && attr.Value.Kind == ExprCall && attr.Value.Callee != nil &&
		attr.Value.Callee.Ident.Name() == "at_object" {
		if len(attr.Value.Args) == 0 || attr.Value.Args[0].ResolvedType.IsUnknown() {
			return TypeErr{
				Message: "bytes.at_object requires an explicit type argument; the untyped form is not supported",
				Span:    attr.Span,
			}
		}
	}
	return nil
}
