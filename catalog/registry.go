package catalog

import (
	"fmt"
	"sort"

	"github.com/BaSui01/shapeflow/types"
)

// Registry is the in-memory Catalog produced by a Builder. It is immutable
// once built.
type Registry struct {
	classes map[string]*Class
	enums   map[string]*Enum
	aliases map[string]*TypeAlias

	classOrder []string
	enumOrder  []string
	aliasOrder []string

	structural []map[string]*types.FieldType
	finite     [][]string

	res *resolver
}

var _ Catalog = (*Registry)(nil)

func (r *Registry) FindClass(name string) (*Class, bool) {
	c, ok := r.classes[name]
	return c, ok
}

func (r *Registry) FindEnum(name string) (*Enum, bool) {
	e, ok := r.enums[name]
	return e, ok
}

func (r *Registry) FindAlias(name string) (*TypeAlias, bool) {
	a, ok := r.aliases[name]
	return a, ok
}

func (r *Registry) RecursiveAlias(name string) (*types.FieldType, bool) {
	for _, cycle := range r.structural {
		if t, ok := cycle[name]; ok {
			return t, true
		}
	}
	return nil, false
}

func (r *Registry) StructuralCycles() []map[string]*types.FieldType {
	return r.structural
}

func (r *Registry) FiniteCycles() [][]string {
	return r.finite
}

// Resolve rewrites the named references in t the same way Build rewrites
// field types.
func (r *Registry) Resolve(t *types.FieldType) (*types.FieldType, error) {
	if r.res == nil {
		return nil, invalid("registry was not built")
	}
	out, err := r.res.resolve(t, nil)
	if err != nil {
		return nil, types.NewError(types.ErrCatalogNotFound, err.Error())
	}
	return out, nil
}

// Classes returns all classes in declaration order.
func (r *Registry) Classes() []*Class {
	out := make([]*Class, len(r.classOrder))
	for i, name := range r.classOrder {
		out[i] = r.classes[name]
	}
	return out
}

// Enums returns all enums in declaration order.
func (r *Registry) Enums() []*Enum {
	out := make([]*Enum, len(r.enumOrder))
	for i, name := range r.enumOrder {
		out[i] = r.enums[name]
	}
	return out
}

// Aliases returns all aliases in declaration order.
func (r *Registry) Aliases() []*TypeAlias {
	out := make([]*TypeAlias, len(r.aliasOrder))
	for i, name := range r.aliasOrder {
		out[i] = r.aliases[name]
	}
	return out
}

// Builder collects declarations and resolves them into a Registry.
//
// Type expressions may reference any declared name with types.AliasRef.
// Build rewrites each reference to a class, an enum, a recursive alias, or
// the inlined definition of a non-recursive alias.
type Builder struct {
	classes []*Class
	enums   []*Enum
	aliases []*TypeAlias
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddClass declares a class.
func (b *Builder) AddClass(c *Class) *Builder {
	b.classes = append(b.classes, c)
	return b
}

// AddEnum declares an enum.
func (b *Builder) AddEnum(e *Enum) *Builder {
	b.enums = append(b.enums, e)
	return b
}

// AddAlias declares a type alias.
func (b *Builder) AddAlias(name string, target *types.FieldType) *Builder {
	b.aliases = append(b.aliases, &TypeAlias{Name: name, Target: target})
	return b
}

func invalid(format string, args ...any) *types.Error {
	return types.NewError(types.ErrCatalogInvalid, fmt.Sprintf(format, args...))
}

// Build resolves all references and computes the recursion tables.
func (b *Builder) Build() (*Registry, error) {
	r := &Registry{
		classes: make(map[string]*Class, len(b.classes)),
		enums:   make(map[string]*Enum, len(b.enums)),
		aliases: make(map[string]*TypeAlias, len(b.aliases)),
	}

	seen := make(map[string]string)
	declare := func(kind, name string) error {
		if name == "" {
			return invalid("%s with empty name", kind)
		}
		if prev, ok := seen[name]; ok {
			return invalid("%s %s already declared as %s", kind, name, prev)
		}
		if _, ok := types.ParsePrimitive(name); ok {
			return invalid("%s %s shadows a primitive type", kind, name)
		}
		seen[name] = kind
		return nil
	}

	for _, c := range b.classes {
		if err := declare("class", c.Name); err != nil {
			return nil, err
		}
		fieldSeen := make(map[string]bool, len(c.Fields))
		for _, f := range c.Fields {
			if fieldSeen[f.Name] {
				return nil, invalid("class %s declares field %s twice", c.Name, f.Name)
			}
			if f.Type == nil {
				return nil, invalid("class %s field %s has no type", c.Name, f.Name)
			}
			fieldSeen[f.Name] = true
		}
		r.classOrder = append(r.classOrder, c.Name)
	}
	for _, e := range b.enums {
		if err := declare("enum", e.Name); err != nil {
			return nil, err
		}
		r.enums[e.Name] = e
		r.enumOrder = append(r.enumOrder, e.Name)
	}
	for _, a := range b.aliases {
		if err := declare("alias", a.Name); err != nil {
			return nil, err
		}
		if a.Target == nil {
			return nil, invalid("alias %s has no target", a.Name)
		}
		r.aliasOrder = append(r.aliasOrder, a.Name)
	}

	aliasTargets := make(map[string]*types.FieldType, len(b.aliases))
	for _, a := range b.aliases {
		aliasTargets[a.Name] = a.Target
	}

	// Alias recursion.
	aliasEdges := make(map[string][]string, len(b.aliases))
	for _, name := range r.aliasOrder {
		aliasEdges[name] = referencedNames(aliasTargets[name], func(n string) bool {
			_, ok := aliasTargets[n]
			return ok
		})
	}
	recursive := make(map[string]bool)
	var aliasCycles [][]string
	for _, scc := range stronglyConnected(r.aliasOrder, aliasEdges) {
		if !isCycle(scc, aliasEdges) {
			continue
		}
		if err := checkIndirection(scc, aliasTargets); err != nil {
			return nil, err
		}
		for _, name := range scc {
			recursive[name] = true
		}
		aliasCycles = append(aliasCycles, scc)
	}

	res := &resolver{
		classes:   seenKind(seen, "class"),
		enums:     seenKind(seen, "enum"),
		aliases:   aliasTargets,
		recursive: recursive,
	}

	for _, c := range b.classes {
		resolved := *c
		resolved.Fields = make([]Field, len(c.Fields))
		for i, f := range c.Fields {
			t, err := res.resolve(f.Type, nil)
			if err != nil {
				return nil, invalid("class %s field %s: %v", c.Name, f.Name, err)
			}
			f.Type = t
			resolved.Fields[i] = f
		}
		r.classes[c.Name] = &resolved
	}
	for _, name := range r.aliasOrder {
		t, err := res.resolve(aliasTargets[name], nil)
		if err != nil {
			return nil, invalid("alias %s: %v", name, err)
		}
		r.aliases[name] = &TypeAlias{Name: name, Target: t, Recursive: recursive[name]}
	}
	for _, scc := range aliasCycles {
		cycle := make(map[string]*types.FieldType, len(scc))
		for _, name := range scc {
			cycle[name] = r.aliases[name].Target
		}
		r.structural = append(r.structural, cycle)
	}
	r.res = res

	// Class recursion, looking through recursive aliases.
	classEdges := make(map[string][]string, len(r.classOrder))
	for _, name := range r.classOrder {
		var refs []string
		visited := make(map[string]bool)
		for _, f := range r.classes[name].Fields {
			refs = append(refs, classRefs(f.Type, r, visited)...)
		}
		classEdges[name] = refs
	}
	for _, scc := range stronglyConnected(r.classOrder, classEdges) {
		if isCycle(scc, classEdges) {
			sort.Strings(scc)
			r.finite = append(r.finite, scc)
		}
	}

	return r, nil
}

func seenKind(seen map[string]string, kind string) map[string]bool {
	out := make(map[string]bool)
	for name, k := range seen {
		if k == kind {
			out[name] = true
		}
	}
	return out
}

// referencedNames lists the names referenced by unresolved references in t
// that satisfy keep.
func referencedNames(t *types.FieldType, keep func(string) bool) []string {
	var out []string
	var walk func(*types.FieldType)
	walk = func(t *types.FieldType) {
		if t == nil {
			return
		}
		if t.Kind == types.KindAlias && keep(t.Name) {
			out = append(out, t.Name)
		}
		walk(t.Key)
		walk(t.Elem)
		for _, item := range t.Items {
			walk(item)
		}
	}
	walk(t)
	return out
}

func isCycle(scc []string, edges map[string][]string) bool {
	if len(scc) > 1 {
		return true
	}
	for _, to := range edges[scc[0]] {
		if to == scc[0] {
			return true
		}
	}
	return false
}

// checkIndirection rejects alias cycles in which every member is a bare
// reference to another member. Such a type has no finite unfolding.
func checkIndirection(scc []string, targets map[string]*types.FieldType) error {
	members := make(map[string]bool, len(scc))
	for _, name := range scc {
		members[name] = true
	}
	for _, name := range scc {
		t := targets[name]
		for t.Kind == types.KindWithMetadata {
			t = t.Elem
		}
		if t.Kind != types.KindAlias || !members[t.Name] {
			return nil
		}
	}
	return invalid("alias cycle %v has no list, map or union indirection", scc)
}

type resolver struct {
	classes   map[string]bool
	enums     map[string]bool
	aliases   map[string]*types.FieldType
	recursive map[string]bool
}

// resolve copies t with every reference rewritten. expanding tracks the
// non-recursive aliases being inlined; it can only repeat on a bug in the
// cycle computation, so a repeat is reported instead of looping.
func (r *resolver) resolve(t *types.FieldType, expanding map[string]bool) (*types.FieldType, error) {
	switch t.Kind {
	case types.KindPrimitive, types.KindLiteral:
		c := *t
		return &c, nil
	case types.KindClass:
		if !r.classes[t.Name] {
			return nil, fmt.Errorf("unknown class %s", t.Name)
		}
		return types.ClassRef(t.Name), nil
	case types.KindEnum:
		if !r.enums[t.Name] {
			return nil, fmt.Errorf("unknown enum %s", t.Name)
		}
		return types.EnumRef(t.Name), nil
	case types.KindAlias:
		switch {
		case r.classes[t.Name]:
			return types.ClassRef(t.Name), nil
		case r.enums[t.Name]:
			return types.EnumRef(t.Name), nil
		case r.recursive[t.Name]:
			return types.AliasRef(t.Name), nil
		}
		target, ok := r.aliases[t.Name]
		if !ok {
			return nil, fmt.Errorf("unknown type %s", t.Name)
		}
		if expanding[t.Name] {
			return nil, fmt.Errorf("alias %s expands into itself", t.Name)
		}
		next := make(map[string]bool, len(expanding)+1)
		for k := range expanding {
			next[k] = true
		}
		next[t.Name] = true
		return r.resolve(target, next)
	}

	c := *t
	var err error
	if t.Key != nil {
		if c.Key, err = r.resolve(t.Key, expanding); err != nil {
			return nil, err
		}
	}
	if t.Elem != nil {
		if c.Elem, err = r.resolve(t.Elem, expanding); err != nil {
			return nil, err
		}
	}
	if t.Items != nil {
		c.Items = make([]*types.FieldType, len(t.Items))
		for i, item := range t.Items {
			if c.Items[i], err = r.resolve(item, expanding); err != nil {
				return nil, err
			}
		}
	}
	if t.Constraints != nil {
		c.Constraints = append([]types.Constraint(nil), t.Constraints...)
	}
	return &c, nil
}

// classRefs lists classes reachable from t, descending into recursive
// aliases once each.
func classRefs(t *types.FieldType, r *Registry, visited map[string]bool) []string {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case types.KindClass:
		return []string{t.Name}
	case types.KindAlias:
		if visited[t.Name] {
			return nil
		}
		visited[t.Name] = true
		target, ok := r.RecursiveAlias(t.Name)
		if !ok {
			return nil
		}
		return classRefs(target, r, visited)
	}
	var out []string
	out = append(out, classRefs(t.Key, r, visited)...)
	out = append(out, classRefs(t.Elem, r, visited)...)
	for _, item := range t.Items {
		out = append(out, classRefs(item, r, visited)...)
	}
	return out
}

// stronglyConnected runs Tarjan's algorithm. Components come out in reverse
// topological order; members keep declaration order.
func stronglyConnected(nodes []string, edges map[string][]string) [][]string {
	var (
		index   = make(map[string]int, len(nodes))
		low     = make(map[string]int, len(nodes))
		onStack = make(map[string]bool, len(nodes))
		stack   []string
		next    int
		out     [][]string
	)
	position := make(map[string]int, len(nodes))
	for i, n := range nodes {
		position[n] = i
	}

	var connect func(v string)
	connect = func(v string) {
		index[v] = next
		low[v] = next
		next++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range edges[v] {
			if _, known := position[w]; !known {
				continue
			}
			if _, visited := index[w]; !visited {
				connect(w)
				low[v] = min(low[v], low[w])
			} else if onStack[w] {
				low[v] = min(low[v], index[w])
			}
		}

		if low[v] == index[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sort.Slice(scc, func(i, j int) bool { return position[scc[i]] < position[scc[j]] })
			out = append(out, scc)
		}
	}

	for _, n := range nodes {
		if _, visited := index[n]; !visited {
			connect(n)
		}
	}
	return out
}
