package unify

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/BaSui01/shapeflow/catalog"
	"github.com/BaSui01/shapeflow/types"
)

// testUnifier builds the catalog shared by the unify tests.
func testUnifier(t testing.TB) *Unifier {
	t.Helper()
	reg, err := catalog.NewBuilder().
		AddEnum(&catalog.Enum{
			Name:        "Color",
			Values:      []catalog.EnumValue{{Name: "RED"}, {Name: "BLUE"}},
			Constraints: []types.Constraint{types.Check("known", "this != ''")},
		}).
		AddClass(&catalog.Class{
			Name: "Person",
			Fields: []catalog.Field{
				{Name: "name", Type: types.String(), StreamingNeeded: true},
				{Name: "age", Type: types.Int()},
				{Name: "favorite", Type: types.OptionalOf(types.EnumRef("Color"))},
			},
			Constraints: []types.Constraint{types.Assert("adult", "this.age >= 18")},
			Streaming:   types.StreamingBehavior{State: true},
		}).
		AddAlias("A", types.ListOf(types.AliasRef("A"))).
		AddAlias("Even", types.ListOf(types.AliasRef("Odd"))).
		AddAlias("Odd", types.OptionalOf(types.AliasRef("Even"))).
		AddAlias("P", types.ListOf(types.AliasRef("Q"))).
		AddAlias("Q", types.ListOf(types.AliasRef("P"))).
		AddAlias("JSON", types.UnionOf(
			types.String(), types.Int(), types.Float(), types.Bool(), types.Null(),
			types.ListOf(types.AliasRef("JSON")),
			types.MapOf(types.String(), types.AliasRef("JSON")),
		)).
		Build()
	require.NoError(t, err)
	return New(reg)
}

var leafTypes = []*types.FieldType{
	types.String(), types.Int(), types.Float(), types.Bool(), types.Null(),
	types.Image(), types.Audio(),
	types.LiteralString("a"), types.LiteralInt(5), types.LiteralBool(true),
	types.EnumRef("Color"), types.ClassRef("Person"),
	types.AliasRef("A"), types.AliasRef("JSON"), types.AliasRef("Odd"),
	types.Unit(),
}

// drawType draws a type of every kind, nesting up to depth levels.
func drawType(t *rapid.T, depth int, label string) *types.FieldType {
	if depth <= 0 {
		return rapid.SampledFrom(leafTypes).Draw(t, label)
	}
	child := func(i int) *types.FieldType {
		return drawType(t, depth-1, fmt.Sprintf("%s.%d", label, i))
	}
	switch rapid.IntRange(0, 7).Draw(t, label+".kind") {
	case 0:
		return types.ListOf(child(0))
	case 1:
		return types.MapOf(rapid.SampledFrom([]*types.FieldType{types.String(), types.EnumRef("Color")}).Draw(t, label+".key"), child(0))
	case 2:
		return types.OptionalOf(child(0))
	case 3:
		return types.UnionOf(child(0), child(1))
	case 4:
		return types.TupleOf(child(0), child(1))
	case 5:
		return types.WithMetadata(child(0),
			[]types.Constraint{types.Assert("", "true")},
			types.StreamingBehavior{Done: rapid.Bool().Draw(t, label+".done")})
	default:
		return child(0)
	}
}

// drawValue draws a value of every kind, nesting up to depth levels.
func drawValue(t *rapid.T, depth int, label string) *types.Value {
	var none types.NoMeta
	kinds := 7
	if depth > 0 {
		kinds = 10
	}
	switch rapid.IntRange(0, kinds-1).Draw(t, label+".kind") {
	case 0:
		return types.NewString(rapid.SampledFrom([]string{"a", "b", ""}).Draw(t, label+".s"), none)
	case 1:
		return types.NewInt(rapid.Int64Range(-3, 7).Draw(t, label+".i"), none)
	case 2:
		return types.NewFloat(rapid.Float64().Draw(t, label+".f"), none)
	case 3:
		return types.NewBool(rapid.Bool().Draw(t, label+".b"), none)
	case 4:
		return types.NewNull(none)
	case 5:
		return types.NewMedia(&types.Media{Type: types.PrimImage, URL: "http://x"}, none)
	case 6:
		return types.NewEnum("Color", "RED", none)
	case 7:
		n := rapid.IntRange(0, 3).Draw(t, label+".len")
		items := make([]*types.Value, n)
		for i := range items {
			items[i] = drawValue(t, depth-1, fmt.Sprintf("%s[%d]", label, i))
		}
		return types.NewList(none, items...)
	case 8:
		return types.NewMap(none,
			types.KV("x", drawValue(t, depth-1, label+".x")),
			types.KV("y", drawValue(t, depth-1, label+".y")))
	default:
		name := rapid.SampledFrom([]string{"Person", "Ghost"}).Draw(t, label+".class")
		return types.NewClass(name, none,
			types.KV("name", drawValue(t, depth-1, label+".name")),
			types.KV("age", drawValue(t, depth-1, label+".age")))
	}
}
