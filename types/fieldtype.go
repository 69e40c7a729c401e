package types

import (
	"strconv"
	"strings"
)

// TypeKind tags the variant held by a FieldType.
type TypeKind uint8

const (
	KindPrimitive TypeKind = iota
	KindLiteral
	KindEnum
	KindClass
	KindList
	KindMap
	KindUnion
	KindOptional
	KindTuple
	KindAlias
	KindWithMetadata
)

var typeKindNames = [...]string{
	KindPrimitive:    "primitive",
	KindLiteral:      "literal",
	KindEnum:         "enum",
	KindClass:        "class",
	KindList:         "list",
	KindMap:          "map",
	KindUnion:        "union",
	KindOptional:     "optional",
	KindTuple:        "tuple",
	KindAlias:        "alias",
	KindWithMetadata: "with_metadata",
}

func (k TypeKind) String() string {
	if int(k) < len(typeKindNames) {
		return typeKindNames[k]
	}
	return "unknown"
}

// Primitive enumerates the built-in scalar types, media included.
type Primitive uint8

const (
	PrimString Primitive = iota
	PrimInt
	PrimFloat
	PrimBool
	PrimNull
	PrimImage
	PrimAudio
)

var primitiveNames = [...]string{
	PrimString: "string",
	PrimInt:    "int",
	PrimFloat:  "float",
	PrimBool:   "bool",
	PrimNull:   "null",
	PrimImage:  "image",
	PrimAudio:  "audio",
}

func (p Primitive) String() string {
	if int(p) < len(primitiveNames) {
		return primitiveNames[p]
	}
	return "unknown"
}

// IsMedia reports whether p is one of the media primitives.
func (p Primitive) IsMedia() bool {
	return p == PrimImage || p == PrimAudio
}

// ParsePrimitive maps a primitive name back to its Primitive.
func ParsePrimitive(name string) (Primitive, bool) {
	for i, n := range primitiveNames {
		if n == name {
			return Primitive(i), true
		}
	}
	return 0, false
}

// LiteralKind tags the value held by a LiteralValue.
type LiteralKind uint8

const (
	LitString LiteralKind = iota
	LitInt
	LitBool
)

// LiteralValue is the payload of a literal type.
type LiteralValue struct {
	Kind LiteralKind
	Str  string
	Int  int64
	Bool bool
}

// BaseType returns the primitive a literal widens to.
func (l LiteralValue) BaseType() *FieldType {
	switch l.Kind {
	case LitInt:
		return Int()
	case LitBool:
		return Bool()
	default:
		return String()
	}
}

func (l LiteralValue) String() string {
	switch l.Kind {
	case LitInt:
		return strconv.FormatInt(l.Int, 10)
	case LitBool:
		return strconv.FormatBool(l.Bool)
	default:
		return strconv.Quote(l.Str)
	}
}

// FieldType is a declared type. Only the fields relevant to Kind are set:
// Elem holds the inner type of List, Optional and WithMetadata and the value
// type of Map, Key holds the key type of Map, Items holds Union and Tuple
// members, and Name holds the Enum, Class or alias name.
type FieldType struct {
	Kind      TypeKind
	Primitive Primitive
	Literal   LiteralValue
	Name      string
	Key       *FieldType
	Elem      *FieldType
	Items     []*FieldType

	// WithMetadata only.
	Constraints []Constraint
	Streaming   StreamingBehavior
}

func Prim(p Primitive) *FieldType { return &FieldType{Kind: KindPrimitive, Primitive: p} }

func String() *FieldType { return Prim(PrimString) }
func Int() *FieldType    { return Prim(PrimInt) }
func Float() *FieldType  { return Prim(PrimFloat) }
func Bool() *FieldType   { return Prim(PrimBool) }
func Null() *FieldType   { return Prim(PrimNull) }
func Image() *FieldType  { return Prim(PrimImage) }
func Audio() *FieldType  { return Prim(PrimAudio) }

func LiteralString(s string) *FieldType {
	return &FieldType{Kind: KindLiteral, Literal: LiteralValue{Kind: LitString, Str: s}}
}

func LiteralInt(i int64) *FieldType {
	return &FieldType{Kind: KindLiteral, Literal: LiteralValue{Kind: LitInt, Int: i}}
}

func LiteralBool(b bool) *FieldType {
	return &FieldType{Kind: KindLiteral, Literal: LiteralValue{Kind: LitBool, Bool: b}}
}

func EnumRef(name string) *FieldType  { return &FieldType{Kind: KindEnum, Name: name} }
func ClassRef(name string) *FieldType { return &FieldType{Kind: KindClass, Name: name} }

// AliasRef references a recursive type alias by name. Catalog builders also
// accept it as an unresolved reference to any declared name.
func AliasRef(name string) *FieldType { return &FieldType{Kind: KindAlias, Name: name} }

func ListOf(elem *FieldType) *FieldType { return &FieldType{Kind: KindList, Elem: elem} }

func MapOf(key, value *FieldType) *FieldType {
	return &FieldType{Kind: KindMap, Key: key, Elem: value}
}

func OptionalOf(elem *FieldType) *FieldType { return &FieldType{Kind: KindOptional, Elem: elem} }

func UnionOf(items ...*FieldType) *FieldType { return &FieldType{Kind: KindUnion, Items: items} }

// TupleOf builds a tuple. TupleOf() is the unit type.
func TupleOf(items ...*FieldType) *FieldType {
	if items == nil {
		items = []*FieldType{}
	}
	return &FieldType{Kind: KindTuple, Items: items}
}

// WithMetadata wraps base with constraints and streaming annotations.
func WithMetadata(base *FieldType, constraints []Constraint, streaming StreamingBehavior) *FieldType {
	return &FieldType{
		Kind:        KindWithMetadata,
		Elem:        base,
		Constraints: constraints,
		Streaming:   streaming,
	}
}

// Unit is the empty tuple, used for values whose type cannot be inferred.
func Unit() *FieldType { return TupleOf() }

// IsPrimitive reports whether t is the bare primitive p.
func (t *FieldType) IsPrimitive(p Primitive) bool {
	return t != nil && t.Kind == KindPrimitive && t.Primitive == p
}

// IsOptional reports whether null is admitted by t without consulting a
// catalog: optional types, null itself, and unions containing either.
func (t *FieldType) IsOptional() bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case KindOptional:
		return true
	case KindPrimitive:
		return t.Primitive == PrimNull
	case KindUnion:
		for _, item := range t.Items {
			if item.IsOptional() {
				return true
			}
		}
	case KindWithMetadata:
		return t.Elem.IsOptional()
	}
	return false
}

// IsNull reports whether t is the null type, seen through metadata wrappers.
func (t *FieldType) IsNull() bool {
	if t == nil {
		return false
	}
	if t.Kind == KindWithMetadata {
		return t.Elem.IsNull()
	}
	return t.IsPrimitive(PrimNull)
}

// Equal reports structural equality, metadata included.
func (t *FieldType) Equal(o *FieldType) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil || t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindPrimitive:
		return t.Primitive == o.Primitive
	case KindLiteral:
		return t.Literal == o.Literal
	case KindEnum, KindClass, KindAlias:
		return t.Name == o.Name
	case KindList, KindOptional:
		return t.Elem.Equal(o.Elem)
	case KindMap:
		return t.Key.Equal(o.Key) && t.Elem.Equal(o.Elem)
	case KindUnion, KindTuple:
		return equalTypes(t.Items, o.Items)
	case KindWithMetadata:
		if t.Streaming != o.Streaming || len(t.Constraints) != len(o.Constraints) {
			return false
		}
		for i := range t.Constraints {
			if t.Constraints[i] != o.Constraints[i] {
				return false
			}
		}
		return t.Elem.Equal(o.Elem)
	}
	return false
}

func equalTypes(a, b []*FieldType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// DedupTypes removes structurally equal duplicates, keeping first occurrences.
func DedupTypes(ts []*FieldType) []*FieldType {
	out := make([]*FieldType, 0, len(ts))
outer:
	for _, t := range ts {
		for _, seen := range out {
			if seen.Equal(t) {
				continue outer
			}
		}
		out = append(out, t)
	}
	return out
}

// String renders t in schema notation. Metadata wrappers render as their base.
func (t *FieldType) String() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t *FieldType) write(b *strings.Builder) {
	if t == nil {
		b.WriteString("<nil>")
		return
	}
	switch t.Kind {
	case KindPrimitive:
		b.WriteString(t.Primitive.String())
	case KindLiteral:
		b.WriteString(t.Literal.String())
	case KindEnum, KindClass, KindAlias:
		b.WriteString(t.Name)
	case KindList:
		t.Elem.write(b)
		b.WriteString("[]")
	case KindOptional:
		t.Elem.write(b)
		b.WriteString("?")
	case KindMap:
		b.WriteString("map<")
		t.Key.write(b)
		b.WriteString(", ")
		t.Elem.write(b)
		b.WriteString(">")
	case KindUnion:
		writeJoined(b, t.Items, " | ")
	case KindTuple:
		writeJoined(b, t.Items, ", ")
	case KindWithMetadata:
		t.Elem.write(b)
	}
}

func writeJoined(b *strings.Builder, items []*FieldType, sep string) {
	b.WriteByte('(')
	for i, item := range items {
		if i > 0 {
			b.WriteString(sep)
		}
		item.write(b)
	}
	b.WriteByte(')')
}
