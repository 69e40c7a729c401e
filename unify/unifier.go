package unify

import (
	"github.com/BaSui01/shapeflow/catalog"
	"github.com/BaSui01/shapeflow/types"
)

// Unifier answers type questions against a catalog. It holds no mutable
// state and is safe for concurrent use.
type Unifier struct {
	catalog catalog.Catalog
}

// New creates a Unifier over the given catalog.
func New(c catalog.Catalog) *Unifier {
	return &Unifier{catalog: c}
}

// Catalog returns the catalog the unifier reads from.
func (u *Unifier) Catalog() catalog.Catalog {
	return u.catalog
}

// assumption is a pair of types currently being compared through an alias.
type assumption struct {
	base, other string
}

// IsSubtype reports whether every value of base is also a value of other.
func (u *Unifier) IsSubtype(base, other *types.FieldType) bool {
	return u.isSubtype(base, other, make(map[assumption]bool))
}

func (u *Unifier) isSubtype(base, other *types.FieldType, assumed map[assumption]bool) bool {
	if base == nil || other == nil {
		return false
	}
	if base.Equal(other) {
		return true
	}

	if other.Kind == types.KindUnion {
		for _, item := range other.Items {
			if u.isSubtype(base, item, assumed) {
				return true
			}
		}
	}

	// Recursive aliases unfold one level at a time. A pair that comes back
	// while it is still being compared holds coinductively.
	if base.Kind == types.KindAlias || other.Kind == types.KindAlias {
		key := assumption{base: base.String(), other: other.String()}
		if assumed[key] {
			return true
		}
		assumed[key] = true
		defer delete(assumed, key)

		if base.Kind == types.KindAlias {
			target, ok := u.catalog.RecursiveAlias(base.Name)
			return ok && u.isSubtype(target, other, assumed)
		}
		target, ok := u.catalog.RecursiveAlias(other.Name)
		return ok && u.isSubtype(base, target, assumed)
	}

	switch {
	case base.Kind == types.KindWithMetadata:
		return u.isSubtype(base.Elem, other, assumed)
	case other.Kind == types.KindWithMetadata:
		return u.isSubtype(base, other.Elem, assumed)

	case base.IsPrimitive(types.PrimNull) && other.Kind == types.KindOptional:
		return true
	case base.Kind == types.KindOptional && other.Kind == types.KindOptional:
		return u.isSubtype(base.Elem, other.Elem, assumed)
	case other.Kind == types.KindOptional:
		return u.isSubtype(base, other.Elem, assumed)
	case base.Kind == types.KindOptional:
		return false

	case base.Kind == types.KindList:
		return other.Kind == types.KindList && u.isSubtype(base.Elem, other.Elem, assumed)

	case base.Kind == types.KindMap:
		return other.Kind == types.KindMap &&
			u.isSubtype(other.Key, base.Key, assumed) &&
			u.isSubtype(base.Elem, other.Elem, assumed)

	case base.Kind == types.KindLiteral:
		widened := base.Literal.BaseType()
		if other.Kind == types.KindPrimitive {
			return other.Primitive == widened.Primitive
		}
		return u.isSubtype(widened, other, assumed)

	case base.Kind == types.KindUnion:
		for _, item := range base.Items {
			if !u.isSubtype(item, other, assumed) {
				return false
			}
		}
		return true

	case base.Kind == types.KindTuple:
		if other.Kind != types.KindTuple || len(base.Items) != len(other.Items) {
			return false
		}
		for i := range base.Items {
			if !u.isSubtype(base.Items[i], other.Items[i], assumed) {
				return false
			}
		}
		return true
	}

	// primitives, enums and classes only match by equality
	return false
}
