package types

import (
	"fmt"
	"iter"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ValueKind tags the variant held by a Node.
type ValueKind uint8

const (
	ValueString ValueKind = iota
	ValueInt
	ValueFloat
	ValueBool
	ValueNull
	ValueMedia
	ValueEnum
	ValueClass
	ValueList
	ValueMap
)

var valueKindNames = [...]string{
	ValueString: "string",
	ValueInt:    "int",
	ValueFloat:  "float",
	ValueBool:   "bool",
	ValueNull:   "null",
	ValueMedia:  "media",
	ValueEnum:   "enum",
	ValueClass:  "class",
	ValueList:   "list",
	ValueMap:    "map",
}

func (k ValueKind) String() string {
	if int(k) < len(valueKindNames) {
		return valueKindNames[k]
	}
	return "unknown"
}

// Media is an image or audio payload referenced by URL or carried inline.
type Media struct {
	Type     Primitive `json:"-"`
	URL      string    `json:"url,omitempty"`
	Base64   string    `json:"base64,omitempty"`
	MimeType string    `json:"media_type,omitempty"`
}

// NoMeta is the payload of a plain value tree.
type NoMeta struct{}

// Value is a value tree without metadata.
type Value = Node[NoMeta]

// FieldMap holds class fields and map entries in insertion order.
type FieldMap[M any] = orderedmap.OrderedMap[string, *Node[M]]

// Node is one node of a value tree carrying a metadata payload of type M.
// The same shape is reused at every pipeline stage with M swapped.
type Node[M any] struct {
	Kind  ValueKind
	Str   string // string value or enum variant
	Int   int64
	Float float64
	Bool  bool
	Media *Media
	Name  string // enum or class name

	Items  []*Node[M]
	Fields *orderedmap.OrderedMap[string, *Node[M]] // class fields or map entries

	Meta M
}

// Entry is a key/value pair used to build classes and maps.
type Entry[M any] struct {
	Key   string
	Value *Node[M]
}

// KV builds an Entry.
func KV[M any](key string, value *Node[M]) Entry[M] {
	return Entry[M]{Key: key, Value: value}
}

// NewFieldMap returns an empty ordered field map.
func NewFieldMap[M any](entries ...Entry[M]) *FieldMap[M] {
	fm := orderedmap.New[string, *Node[M]](len(entries))
	for _, e := range entries {
		fm.Set(e.Key, e.Value)
	}
	return fm
}

func NewString[M any](s string, meta M) *Node[M] {
	return &Node[M]{Kind: ValueString, Str: s, Meta: meta}
}

func NewInt[M any](i int64, meta M) *Node[M] {
	return &Node[M]{Kind: ValueInt, Int: i, Meta: meta}
}

func NewFloat[M any](f float64, meta M) *Node[M] {
	return &Node[M]{Kind: ValueFloat, Float: f, Meta: meta}
}

func NewBool[M any](b bool, meta M) *Node[M] {
	return &Node[M]{Kind: ValueBool, Bool: b, Meta: meta}
}

func NewNull[M any](meta M) *Node[M] {
	return &Node[M]{Kind: ValueNull, Meta: meta}
}

func NewMedia[M any](m *Media, meta M) *Node[M] {
	return &Node[M]{Kind: ValueMedia, Media: m, Meta: meta}
}

func NewEnum[M any](enum, variant string, meta M) *Node[M] {
	return &Node[M]{Kind: ValueEnum, Name: enum, Str: variant, Meta: meta}
}

func NewList[M any](meta M, items ...*Node[M]) *Node[M] {
	if items == nil {
		items = []*Node[M]{}
	}
	return &Node[M]{Kind: ValueList, Items: items, Meta: meta}
}

func NewMap[M any](meta M, entries ...Entry[M]) *Node[M] {
	return &Node[M]{Kind: ValueMap, Fields: NewFieldMap(entries...), Meta: meta}
}

func NewClass[M any](name string, meta M, fields ...Entry[M]) *Node[M] {
	return &Node[M]{Kind: ValueClass, Name: name, Fields: NewFieldMap(fields...), Meta: meta}
}

// Describe names the node's kind for error messages, with the enum or class
// name when there is one.
func (n *Node[M]) Describe() string {
	switch n.Kind {
	case ValueEnum, ValueClass:
		return n.Kind.String() + " " + n.Name
	case ValueMedia:
		if n.Media != nil {
			return n.Media.Type.String()
		}
	}
	return n.Kind.String()
}

// Field returns a class field or map entry by key.
func (n *Node[M]) Field(key string) (*Node[M], bool) {
	if n.Fields == nil {
		return nil, false
	}
	return n.Fields.Get(key)
}

// Keys lists class field or map keys in order.
func (n *Node[M]) Keys() []string {
	if n.Fields == nil {
		return nil
	}
	keys := make([]string, 0, n.Fields.Len())
	for pair := n.Fields.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Entries yields class fields or map entries in order.
func (n *Node[M]) Entries() iter.Seq2[string, *Node[M]] {
	return func(yield func(string, *Node[M]) bool) {
		if n.Fields == nil {
			return
		}
		for pair := n.Fields.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

// Children returns list items, or class/map values in order.
func (n *Node[M]) Children() []*Node[M] {
	switch n.Kind {
	case ValueList:
		return n.Items
	case ValueClass, ValueMap:
		var out []*Node[M]
		for _, child := range n.Entries() {
			out = append(out, child)
		}
		return out
	}
	return nil
}

// All yields every node of the tree depth-first, parents before children.
func (n *Node[M]) All() iter.Seq[*Node[M]] {
	return func(yield func(*Node[M]) bool) {
		stack := []*Node[M]{n}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !yield(cur) {
				return
			}
			children := cur.Children()
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, children[i])
			}
		}
	}
}

// shallow copies the scalar payload of n into a node with a new meta.
func shallow[A, B any](n *Node[A], meta B) *Node[B] {
	return &Node[B]{
		Kind:  n.Kind,
		Str:   n.Str,
		Int:   n.Int,
		Float: n.Float,
		Bool:  n.Bool,
		Media: n.Media,
		Name:  n.Name,
		Meta:  meta,
	}
}

// Rebuild returns a node with the same scalar payload as n, the given
// children, and a new meta. Children are ignored for scalar kinds.
func Rebuild[A, B any](n *Node[A], meta B, items []*Node[B], fields *FieldMap[B]) *Node[B] {
	out := shallow(n, meta)
	switch n.Kind {
	case ValueList:
		if items == nil {
			items = []*Node[B]{}
		}
		out.Items = items
	case ValueClass, ValueMap:
		if fields == nil {
			fields = NewFieldMap[B]()
		}
		out.Fields = fields
	}
	return out
}

// MapMeta rebuilds the tree with every payload transformed by f.
func MapMeta[A, B any](n *Node[A], f func(A) B) *Node[B] {
	out := shallow(n, f(n.Meta))
	switch n.Kind {
	case ValueList:
		out.Items = make([]*Node[B], len(n.Items))
		for i, item := range n.Items {
			out.Items[i] = MapMeta(item, f)
		}
	case ValueClass, ValueMap:
		out.Fields = NewFieldMap[B]()
		for pair := n.Fields.Oldest(); pair != nil; pair = pair.Next() {
			out.Fields.Set(pair.Key, MapMeta(pair.Value, f))
		}
	}
	return out
}

// Pair holds two payloads side by side.
type Pair[A, B any] struct {
	First  A
	Second B
}

// ZipMeta combines the payloads of two trees of the same shape. A null on
// the left zips with any right-hand node, which lets a partial tree be
// paired with a fuller one.
func ZipMeta[A, B any](a *Node[A], b *Node[B]) (*Node[Pair[A, B]], error) {
	meta := Pair[A, B]{First: a.Meta, Second: b.Meta}
	if a.Kind == ValueNull {
		return NewNull(meta), nil
	}
	if a.Kind != b.Kind {
		return nil, NewError(ErrShapeMismatch,
			fmt.Sprintf("cannot zip %s with %s", a.Describe(), b.Describe()))
	}
	out := shallow(a, meta)
	switch a.Kind {
	case ValueList:
		if len(a.Items) != len(b.Items) {
			return nil, NewError(ErrShapeMismatch,
				fmt.Sprintf("cannot zip lists of length %d and %d", len(a.Items), len(b.Items)))
		}
		out.Items = make([]*Node[Pair[A, B]], len(a.Items))
		for i := range a.Items {
			item, err := ZipMeta(a.Items[i], b.Items[i])
			if err != nil {
				return nil, err
			}
			out.Items[i] = item
		}
	case ValueClass, ValueMap:
		out.Fields = NewFieldMap[Pair[A, B]]()
		for pair := a.Fields.Oldest(); pair != nil; pair = pair.Next() {
			other, ok := b.Fields.Get(pair.Key)
			if !ok {
				return nil, NewError(ErrShapeMismatch,
					fmt.Sprintf("cannot zip: key %q missing on the right", pair.Key))
			}
			child, err := ZipMeta(pair.Value, other)
			if err != nil {
				return nil, err
			}
			out.Fields.Set(pair.Key, child)
		}
	}
	return out, nil
}

// EqualTrees compares two trees including their payloads and key order.
func EqualTrees[M comparable](a, b *Node[M]) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Meta != b.Meta || a.Name != b.Name {
		return false
	}
	switch a.Kind {
	case ValueString, ValueEnum:
		return a.Str == b.Str
	case ValueInt:
		return a.Int == b.Int
	case ValueFloat:
		return a.Float == b.Float
	case ValueBool:
		return a.Bool == b.Bool
	case ValueMedia:
		if a.Media == nil || b.Media == nil {
			return a.Media == b.Media
		}
		return *a.Media == *b.Media
	case ValueList:
		if len(a.Items) != len(b.Items) {
			return false
		}
		for i := range a.Items {
			if !EqualTrees(a.Items[i], b.Items[i]) {
				return false
			}
		}
	case ValueClass, ValueMap:
		if a.Fields.Len() != b.Fields.Len() {
			return false
		}
		pa, pb := a.Fields.Oldest(), b.Fields.Oldest()
		for ; pa != nil; pa, pb = pa.Next(), pb.Next() {
			if pa.Key != pb.Key || !EqualTrees(pa.Value, pb.Value) {
				return false
			}
		}
	}
	return true
}

// Plain converts the tree to ordinary Go values for encoding. Classes and
// maps become ordered maps so that encoders keep declared key order.
func (n *Node[M]) Plain() any {
	switch n.Kind {
	case ValueString, ValueEnum:
		return n.Str
	case ValueInt:
		return n.Int
	case ValueFloat:
		return n.Float
	case ValueBool:
		return n.Bool
	case ValueMedia:
		return n.Media
	case ValueList:
		out := make([]any, len(n.Items))
		for i, item := range n.Items {
			out[i] = item.Plain()
		}
		return out
	case ValueClass, ValueMap:
		out := orderedmap.New[string, any](n.Fields.Len())
		for pair := n.Fields.Oldest(); pair != nil; pair = pair.Next() {
			out.Set(pair.Key, pair.Value.Plain())
		}
		return out
	}
	return nil
}
