package flagged

import (
	"strconv"

	"github.com/BaSui01/shapeflow/types"
)

// Value is a parsed value tree whose nodes carry provenance flags.
type Value = types.Node[*Conditions]

// Entry is a class field or map entry of a flagged tree.
type Entry = types.Entry[*Conditions]

// Field builds an Entry.
func Field(key string, value *Value) Entry {
	return Entry{Key: key, Value: value}
}

func NewString(s string, flags ...Flag) *Value {
	return types.NewString(s, NewConditions(flags...))
}

func NewInt(i int64, flags ...Flag) *Value {
	return types.NewInt(i, NewConditions(flags...))
}

func NewFloat(f float64, flags ...Flag) *Value {
	return types.NewFloat(f, NewConditions(flags...))
}

func NewBool(b bool, flags ...Flag) *Value {
	return types.NewBool(b, NewConditions(flags...))
}

func NewNull(flags ...Flag) *Value {
	return types.NewNull(NewConditions(flags...))
}

func NewMedia(m *types.Media, flags ...Flag) *Value {
	return types.NewMedia(m, NewConditions(flags...))
}

func NewEnum(enum, variant string, flags ...Flag) *Value {
	return types.NewEnum(enum, variant, NewConditions(flags...))
}

// NewList builds a list node. Flags for the list itself go in conds.
func NewList(conds *Conditions, items ...*Value) *Value {
	return types.NewList(orEmpty(conds), items...)
}

func NewMap(conds *Conditions, entries ...Entry) *Value {
	return types.NewMap(orEmpty(conds), entries...)
}

func NewClass(name string, conds *Conditions, fields ...Entry) *Value {
	return types.NewClass(name, orEmpty(conds), fields...)
}

func orEmpty(c *Conditions) *Conditions {
	if c == nil {
		return NewConditions()
	}
	return c
}

// Score is the node's own flag score plus the scores of all its children.
func Score(v *Value) int {
	total := v.Meta.Score()
	for _, child := range v.Children() {
		total += Score(child)
	}
	return total
}

// Explanation walks the tree and reports every node whose flags carry parse
// errors, scoped by its path from the root.
func Explanation(v *Value) []*ParsingError {
	var out []*ParsingError
	explain(v, []string{"<root>"}, &out)
	return out
}

func explain(v *Value, scope []string, out *[]*ParsingError) {
	var causes []*ParsingError
	var byKey []Flag
	for _, f := range v.Meta.Flags() {
		switch {
		case f.Cause == nil:
		case v.Kind == types.ValueMap && f.Kind == FlagMapValueParseError:
			byKey = append(byKey, f)
		default:
			causes = append(causes, f.Cause)
		}
	}
	if len(causes) > 0 {
		*out = append(*out, &ParsingError{
			Scope:  append([]string(nil), scope...),
			Reason: reason(v),
			Causes: causes,
		})
	}
	switch v.Kind {
	case types.ValueList:
		for i, item := range v.Items {
			explain(item, child(scope, "parsed:"+strconv.Itoa(i)), out)
		}
	case types.ValueMap:
		// Entries have no flag slot of their own; per-key failures are
		// recorded on the map and reported under the entry's scope.
		for _, f := range byKey {
			*out = append(*out, &ParsingError{
				Scope:  child(scope, "parsed:"+f.Key),
				Reason: "error while parsing value for map key '" + f.Key + "'",
				Causes: []*ParsingError{f.Cause},
			})
		}
		for key, value := range v.Entries() {
			explain(value, child(scope, "parsed:"+key), out)
		}
	case types.ValueClass:
		for key, value := range v.Entries() {
			explain(value, child(scope, key), out)
		}
	}
}

func child(scope []string, name string) []string {
	out := make([]string, len(scope), len(scope)+1)
	copy(out, scope)
	return append(out, name)
}

func reason(v *Value) string {
	switch v.Kind {
	case types.ValueEnum:
		return "error while parsing " + v.Name + " enum value"
	case types.ValueClass:
		return "error while parsing class " + v.Name
	}
	return "error while parsing " + v.Kind.String()
}

// ToFlags retags the tree with plain flag slices.
func ToFlags(v *Value) *types.Node[[]Flag] {
	return types.MapMeta(v, (*Conditions).Flags)
}

// ToPlain drops every flag.
func ToPlain(v *Value) *types.Value {
	return types.MapMeta(v, func(*Conditions) types.NoMeta { return types.NoMeta{} })
}

// ToConstraintResults retags the tree with the constraint results recorded
// on each node.
func ToConstraintResults(v *Value) *types.Node[[]ConstraintResult] {
	return types.MapMeta(v, (*Conditions).ConstraintResults)
}

// FromPlain lifts a plain tree into a flagged one with empty flag sets.
func FromPlain(v *types.Value) *Value {
	return types.MapMeta(v, func(types.NoMeta) *Conditions { return NewConditions() })
}
