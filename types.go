package binpac

import (
	"fmt"
	"strings"
)

// TypeKind discriminates the closed sum of Type variants (§3).
type TypeKind int

const (
	// Atomic types
	TypeBool TypeKind = iota
	TypeInteger
	TypeDouble
	TypeAddress
	TypeNetwork
	TypePort
	TypeTime
	TypeInterval
	TypeString
	TypeBytes
	TypeRegexp

	// Composite types
	TypeTuple
	TypeList
	TypeVector
	TypeSet
	TypeMap
	TypeOptional
	TypeBitfield
	TypeBitset
	TypeEnum
	TypeException

	// Parser-specific types
	TypeUnit
	TypeSink
	TypeEmbeddedObject
	TypeMark

	// Reference types
	TypeIterator

	// Placeholders
	TypeUnknown
	TypeUnknownByName
	TypeUnknownElementOf
)

func (k TypeKind) String() string {
	names := [...]string{
		"bool", "integer", "double", "address", "network", "port", "time",
		"interval", "string", "bytes", "regexp",
		"tuple", "list", "vector", "set", "map", "optional", "bitfield",
		"bitset", "enum", "exception",
		"unit", "sink", "embedded-object", "mark",
		"iterator",
		"unknown", "unknown-by-name", "unknown-element-of",
	}
	if int(k) < 0 || int(k) >= len(names) {
		return "invalid"
	}
	return names[k]
}

// Trait is a structural category a Type may satisfy. Implementers
// check traits structurally (by kind/shape), not nominally.
type Trait int

const (
	TraitParseable Trait = iota
	TraitIterable
	TraitContainer
	TraitHashable
	TraitParameterized
	TraitTypeList
	TraitSinkable
)

// BitRange names a sub-range of a bitfield, e.g. `a: 0..3`.
type BitRange struct {
	Name     string
	Lo, Hi   int
	RangeVal Range
}

// Type is the sum of every BinPAC++ type variant named in §3. Only
// the fields relevant to its Kind are populated; this mirrors the
// teacher's tagged-struct convention (one struct per node kind) but
// folded into a single struct because Type, unlike the AST node
// hierarchy, is a flat, frequently-compared, frequently-copied value
// that every expression and field carries — a discriminated struct
// keeps equality and the attribute/coercion tables simple.
type Type struct {
	Kind TypeKind

	// TypeInteger
	Width    int
	Signed   bool

	// TypeList, TypeVector, TypeSet, TypeOptional, TypeIterator,
	// TypeEmbeddedObject
	Elem *Type

	// TypeMap
	Key *Type
	Val *Type

	// TypeTuple
	Elems []Type

	// TypeBitfield
	BitWidth int
	Bits     []BitRange

	// TypeEnum, TypeBitset
	Labels []string

	// TypeUnit, TypeException
	Name   ID
	Params []Param

	// TypeUnknownByName
	RefName ID

	Attrs AttributeSet
}

// Param is a unit/function parameter: a name plus declared type.
type Param struct {
	Name ID
	Typ  Type
}

func NewAtomic(k TypeKind) Type { return Type{Kind: k} }

func NewInteger(width int, signed bool) Type {
	return Type{Kind: TypeInteger, Width: width, Signed: signed}
}

func NewList(elem Type) Type     { return Type{Kind: TypeList, Elem: &elem} }
func NewVector(elem Type) Type   { return Type{Kind: TypeVector, Elem: &elem} }
func NewSet(elem Type) Type      { return Type{Kind: TypeSet, Elem: &elem} }
func NewOptional(elem Type) Type { return Type{Kind: TypeOptional, Elem: &elem} }
func NewIterator(elem Type) Type { return Type{Kind: TypeIterator, Elem: &elem} }
func NewMap(k, v Type) Type      { return Type{Kind: TypeMap, Key: &k, Val: &v} }
func NewTuple(elems ...Type) Type {
	return Type{Kind: TypeTuple, Elems: elems}
}

func NewUnitRef(name ID, params ...Param) Type {
	return Type{Kind: TypeUnit, Name: name, Params: params}
}

func NewUnknown() Type              { return Type{Kind: TypeUnknown} }
func NewUnknownByName(ref ID) Type  { return Type{Kind: TypeUnknownByName, RefName: ref} }
func NewUnknownElementOf(t Type) Type {
	return Type{Kind: TypeUnknownElementOf, Elem: &t}
}

func (t Type) IsUnknown() bool {
	switch t.Kind {
	case TypeUnknown, TypeUnknownByName, TypeUnknownElementOf:
		return true
	default:
		return false
	}
}

// HasTrait answers the trait system's structural membership test
// (§3: "implementers check traits structurally").
func (t Type) HasTrait(tr Trait) bool {
	switch tr {
	case TraitParseable:
		switch t.Kind {
		case TypeSink, TypeMark, TypeException:
			return false
		default:
			return !t.IsUnknown()
		}
	case TraitIterable:
		switch t.Kind {
		case TypeList, TypeVector, TypeSet, TypeBytes, TypeString, TypeMap:
			return true
		default:
			return false
		}
	case TraitContainer:
		switch t.Kind {
		case TypeList, TypeVector, TypeSet, TypeMap, TypeOptional:
			return true
		default:
			return false
		}
	case TraitHashable:
		switch t.Kind {
		case TypeBool, TypeInteger, TypeString, TypeBytes, TypeEnum,
			TypeAddress, TypePort:
			return true
		default:
			return false
		}
	case TraitParameterized:
		return t.Kind == TypeUnit && len(t.Params) > 0
	case TraitTypeList:
		return t.Kind == TypeTuple
	case TraitSinkable:
		switch t.Kind {
		case TypeSink, TypeUnit:
			return true
		default:
			return false
		}
	default:
		return false
	}
}

// Equal is a structural comparison ignoring attributes (attributes
// never distinguish otherwise-identical types per §3's trait system
// being purely structural).
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case TypeInteger:
		return t.Width == o.Width && t.Signed == o.Signed
	case TypeList, TypeVector, TypeSet, TypeOptional, TypeIterator:
		return elemEqual(t.Elem, o.Elem)
	case TypeMap:
		return elemEqual(t.Key, o.Key) && elemEqual(t.Val, o.Val)
	case TypeTuple:
		if len(t.Elems) != len(o.Elems) {
			return false
		}
		for i := range t.Elems {
			if !t.Elems[i].Equal(o.Elems[i]) {
				return false
			}
		}
		return true
	case TypeUnit, TypeException:
		return t.Name.Equal(o.Name)
	case TypeUnknownByName:
		return t.RefName.Equal(o.RefName)
	default:
		return true
	}
}

func elemEqual(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func (t Type) String() string {
	switch t.Kind {
	case TypeInteger:
		sign := "int"
		if !t.Signed {
			sign = "uint"
		}
		return fmt.Sprintf("%s%d", sign, t.Width)
	case TypeList:
		return fmt.Sprintf("list<%s>", t.Elem)
	case TypeVector:
		return fmt.Sprintf("vector<%s>", t.Elem)
	case TypeSet:
		return fmt.Sprintf("set<%s>", t.Elem)
	case TypeOptional:
		return fmt.Sprintf("optional<%s>", t.Elem)
	case TypeIterator:
		return fmt.Sprintf("iterator<%s>", t.Elem)
	case TypeMap:
		return fmt.Sprintf("map<%s,%s>", t.Key, t.Val)
	case TypeTuple:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = e.String()
		}
		return fmt.Sprintf("tuple<%s>", strings.Join(parts, ","))
	case TypeUnit, TypeException:
		return t.Name.String()
	case TypeUnknownByName:
		return fmt.Sprintf("unknown-by-name(%s)", t.RefName)
	case TypeBitfield:
		return fmt.Sprintf("bitfield(%d)", t.BitWidth)
	default:
		return t.Kind.String()
	}
}
