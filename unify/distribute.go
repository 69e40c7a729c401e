package unify

import (
	"fmt"
	"strconv"

	"github.com/BaSui01/shapeflow/types"
)

// Typed pairs a node's existing payload with the declared type it satisfies.
type Typed[T any] struct {
	Meta T
	Type *types.FieldType
}

// InferType returns the simplest type covering v, or nil when the value
// carries no type information (an empty container, or one holding only
// empty containers).
func InferType[M any](v *types.Node[M]) *types.FieldType {
	switch v.Kind {
	case types.ValueString:
		return types.String()
	case types.ValueInt:
		return types.Int()
	case types.ValueFloat:
		return types.Float()
	case types.ValueBool:
		return types.Bool()
	case types.ValueNull:
		return types.Null()
	case types.ValueMedia:
		return mediaType(v)
	case types.ValueEnum:
		return types.EnumRef(v.Name)
	case types.ValueClass:
		return types.ClassRef(v.Name)
	case types.ValueList:
		if elem := inferElems(v.Items); elem != nil {
			return types.ListOf(elem)
		}
	case types.ValueMap:
		if elem := inferElems(v.Children()); elem != nil {
			return types.MapOf(types.String(), elem)
		}
	}
	return nil
}

func inferElems[M any](items []*types.Node[M]) *types.FieldType {
	var found []*types.FieldType
	for _, item := range items {
		if t := InferType(item); t != nil {
			found = append(found, t)
		}
	}
	return joinTypes(types.DedupTypes(found))
}

// inferLoose is InferType for values with no declared type at all. Empty
// containers get the unit element type so they can still be distributed.
func inferLoose[M any](v *types.Node[M]) *types.FieldType {
	switch v.Kind {
	case types.ValueList:
		return types.ListOf(looseElems(v.Items))
	case types.ValueMap:
		return types.MapOf(types.String(), looseElems(v.Children()))
	}
	if t := InferType(v); t != nil {
		return t
	}
	return types.Unit()
}

func looseElems[M any](items []*types.Node[M]) *types.FieldType {
	found := make([]*types.FieldType, 0, len(items))
	for _, item := range items {
		found = append(found, inferLoose(item))
	}
	if t := joinTypes(types.DedupTypes(found)); t != nil {
		return t
	}
	return types.Unit()
}

func joinTypes(ts []*types.FieldType) *types.FieldType {
	switch len(ts) {
	case 0:
		return nil
	case 1:
		return ts[0]
	}
	return types.UnionOf(ts...)
}

func mediaType[M any](v *types.Node[M]) *types.FieldType {
	if v.Media == nil {
		return types.Image()
	}
	return types.Prim(v.Media.Type)
}

// ListElem returns the element type that items of a list declared as t
// should satisfy. A union yields the union of its variants' element types.
func (u *Unifier) ListElem(t *types.FieldType) *types.FieldType {
	return u.childType(t, types.KindList, make(map[string]bool))
}

// MapTypes returns the key and value types for a map declared as t. In a
// union the first map variant wins.
func (u *Unifier) MapTypes(t *types.FieldType) (key, value *types.FieldType, ok bool) {
	return u.mapTypes(t, make(map[string]bool))
}

func (u *Unifier) childType(t *types.FieldType, want types.TypeKind, seen map[string]bool) *types.FieldType {
	base, _ := u.DistributeMetadata(t)
	switch base.Kind {
	case types.KindList, types.KindMap:
		if base.Kind == want {
			return base.Elem
		}
	case types.KindOptional:
		return u.childType(base.Elem, want, seen)
	case types.KindAlias:
		if seen[base.Name] {
			return nil
		}
		seen[base.Name] = true
		defer delete(seen, base.Name)
		if target, ok := u.catalog.RecursiveAlias(base.Name); ok {
			return u.childType(target, want, seen)
		}
	case types.KindUnion:
		var found []*types.FieldType
		for _, item := range base.Items {
			if elem := u.childType(item, want, seen); elem != nil {
				found = append(found, elem)
			}
		}
		return joinTypes(found)
	}
	return nil
}

func (u *Unifier) mapTypes(t *types.FieldType, seen map[string]bool) (*types.FieldType, *types.FieldType, bool) {
	base, _ := u.DistributeMetadata(t)
	switch base.Kind {
	case types.KindMap:
		return base.Key, base.Elem, true
	case types.KindOptional:
		return u.mapTypes(base.Elem, seen)
	case types.KindAlias:
		if seen[base.Name] {
			return nil, nil, false
		}
		seen[base.Name] = true
		defer delete(seen, base.Name)
		if target, ok := u.catalog.RecursiveAlias(base.Name); ok {
			return u.mapTypes(target, seen)
		}
	case types.KindUnion:
		for _, item := range base.Items {
			if k, v, ok := u.mapTypes(item, seen); ok {
				return k, v, true
			}
		}
	}
	return nil, nil, false
}

// DistributeType walks v and t together and tags every node with the type
// it satisfies. Container element types are inferred from the elements and
// checked against the declared container type.
func (u *Unifier) DistributeType(v *types.Value, t *types.FieldType) (*types.Node[*types.FieldType], error) {
	d := &distributor[types.NoMeta]{u: u, infer: true}
	typed, err := d.walk(v, t, "")
	if err != nil {
		return nil, err
	}
	return types.MapMeta(typed, func(m Typed[types.NoMeta]) *types.FieldType { return m.Type }), nil
}

// DistributeTypeWithMeta is DistributeType for a tree that already carries
// a payload. The payload is kept and paired with the declared type of each
// node. Container elements take their type from the declaration rather than
// from inference, and null is accepted anywhere.
func DistributeTypeWithMeta[T any](u *Unifier, v *types.Node[T], t *types.FieldType) (*types.Node[Typed[T]], error) {
	d := &distributor[T]{u: u}
	return d.walk(v, t, "")
}

type distributor[T any] struct {
	u     *Unifier
	infer bool
}

func (d *distributor[T]) mismatch(v *types.Node[T], t *types.FieldType, path string) error {
	return types.NewError(types.ErrUnification,
		fmt.Sprintf("could not unify %s with %s", v.Describe(), t)).WithPath(rootPath(path))
}

func (d *distributor[T]) accepts(t *types.FieldType, candidates ...*types.FieldType) bool {
	for _, c := range candidates {
		if d.u.IsSubtype(c, t) {
			return true
		}
	}
	return false
}

func (d *distributor[T]) walk(v *types.Node[T], t *types.FieldType, path string) (*types.Node[Typed[T]], error) {
	if v == nil || t == nil {
		return nil, types.NewError(types.ErrUnification, "nil value or type").WithPath(rootPath(path))
	}
	meta := Typed[T]{Meta: v.Meta, Type: t}
	base, _ := d.u.DistributeMetadata(t)

	var ok bool
	switch v.Kind {
	case types.ValueString:
		ok = d.accepts(base, types.LiteralString(v.Str), types.String())
	case types.ValueInt:
		ok = d.accepts(base, types.LiteralInt(v.Int), types.Int())
	case types.ValueFloat:
		ok = d.accepts(base, types.Float())
	case types.ValueBool:
		ok = d.accepts(base, types.LiteralBool(v.Bool), types.Bool())
	case types.ValueNull:
		ok = !d.infer || d.accepts(base, types.Null())
	case types.ValueMedia:
		ok = d.accepts(base, mediaType(v))
	case types.ValueEnum:
		ok = d.accepts(base, types.EnumRef(v.Name))
	case types.ValueList:
		return d.list(v, t, meta, path)
	case types.ValueMap:
		return d.mapping(v, t, meta, path)
	case types.ValueClass:
		return d.class(v, t, meta, path)
	}
	if !ok {
		return nil, d.mismatch(v, t, path)
	}
	return types.Rebuild[T, Typed[T]](v, meta, nil, nil), nil
}

// elemType picks the type a container element is walked with. Inference
// wins when it has something to say about the element; otherwise the
// declared element type is used.
func (d *distributor[T]) elemType(item *types.Node[T], inferred, declared *types.FieldType) *types.FieldType {
	if inferred != nil && (InferType(item) != nil || declared == nil) {
		return inferred
	}
	return declared
}

func (d *distributor[T]) list(v *types.Node[T], t *types.FieldType, meta Typed[T], path string) (*types.Node[Typed[T]], error) {
	declared := d.u.ListElem(t)
	var inferred *types.FieldType
	if d.infer {
		inferred = inferElems(v.Items)
		if inferred != nil && !d.u.IsSubtype(types.ListOf(inferred), t) {
			return nil, types.NewError(types.ErrUnification,
				fmt.Sprintf("could not unify %s with %s", types.ListOf(inferred), t)).WithPath(rootPath(path))
		}
	}
	if inferred == nil && declared == nil {
		return nil, d.mismatch(v, t, path)
	}

	items := make([]*types.Node[Typed[T]], len(v.Items))
	for i, item := range v.Items {
		out, err := d.walk(item, d.elemType(item, inferred, declared), indexPath(path, i))
		if err != nil {
			return nil, err
		}
		items[i] = out
	}
	return types.Rebuild(v, meta, items, nil), nil
}

func (d *distributor[T]) mapping(v *types.Node[T], t *types.FieldType, meta Typed[T], path string) (*types.Node[Typed[T]], error) {
	declaredKey, declared, ok := d.u.MapTypes(t)
	var inferred *types.FieldType
	if d.infer {
		inferred = inferElems(v.Children())
		if inferred != nil {
			key := types.String()
			if ok && declaredKey.Kind == types.KindEnum {
				key = declaredKey
			}
			if !d.u.IsSubtype(types.MapOf(key, inferred), t) {
				return nil, types.NewError(types.ErrUnification,
					fmt.Sprintf("could not unify %s with %s", types.MapOf(key, inferred), t)).WithPath(rootPath(path))
			}
		}
	}
	if inferred == nil && !ok {
		return nil, d.mismatch(v, t, path)
	}

	fields := types.NewFieldMap[Typed[T]]()
	for key, child := range v.Entries() {
		out, err := d.walk(child, d.elemType(child, inferred, declared), fieldPath(path, key))
		if err != nil {
			return nil, err
		}
		fields.Set(key, out)
	}
	return types.Rebuild(v, meta, nil, fields), nil
}

func (d *distributor[T]) class(v *types.Node[T], t *types.FieldType, meta Typed[T], path string) (*types.Node[Typed[T]], error) {
	decl, known := d.u.catalog.FindClass(v.Name)
	if known && !d.u.IsSubtype(types.ClassRef(v.Name), t) {
		return nil, d.mismatch(v, t, path)
	}
	if !known {
		// Only the metadata path tolerates undeclared classes; their fields
		// are typed by inference.
		if d.infer {
			return nil, d.mismatch(v, t, path)
		}
		meta.Type = types.ClassRef(v.Name)
	}

	fields := types.NewFieldMap[Typed[T]]()
	for key, child := range v.Entries() {
		var ft *types.FieldType
		if known {
			if f, ok := decl.Field(key); ok {
				ft = f.Type
			}
		}
		if ft == nil {
			ft = inferLoose(child)
		}
		out, err := d.walk(child, ft, fieldPath(path, key))
		if err != nil {
			return nil, err
		}
		fields.Set(key, out)
	}
	return types.Rebuild(v, meta, nil, fields), nil
}

func rootPath(path string) string {
	if path == "" {
		return "<root>"
	}
	return "<root>" + path
}

func indexPath(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}

func fieldPath(path, key string) string {
	return path + "." + key
}
