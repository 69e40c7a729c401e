package streaming

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/BaSui01/shapeflow/catalog"
	"github.com/BaSui01/shapeflow/flagged"
	"github.com/BaSui01/shapeflow/types"
	"github.com/BaSui01/shapeflow/unify"
)

func testCatalog(t testing.TB) *catalog.Registry {
	t.Helper()
	str := types.String()
	reg, err := catalog.NewBuilder().
		AddEnum(&catalog.Enum{
			Name:   "Color",
			Values: []catalog.EnumValue{{Name: "RED"}, {Name: "BLUE"}},
		}).
		AddClass(&catalog.Class{
			Name: "Person",
			Fields: []catalog.Field{
				{Name: "name", Type: str, StreamingNeeded: true},
				{Name: "age", Type: types.Int()},
				{Name: "nickname", Type: types.OptionalOf(str)},
			},
			Streaming: types.StreamingBehavior{State: true},
		}).
		AddClass(&catalog.Class{
			Name: "Counter",
			Fields: []catalog.Field{
				{Name: "label", Type: str},
				{Name: "count", Type: types.Int(), StreamingNeeded: true},
			},
		}).
		AddClass(&catalog.Class{
			Name: "Triple",
			Fields: []catalog.Field{
				{Name: "a", Type: str},
				{Name: "b", Type: str},
				{Name: "c", Type: str},
			},
		}).
		AddClass(&catalog.Class{
			Name: "Story",
			Fields: []catalog.Field{
				{Name: "title", Type: types.WithMetadata(str, nil, types.StreamingBehavior{Done: true})},
				{Name: "tags", Type: types.ListOf(types.WithMetadata(str, nil, types.StreamingBehavior{State: true}))},
			},
		}).
		AddAlias("A", types.ListOf(types.AliasRef("A"))).
		AddAlias("JSON", types.UnionOf(
			str, types.Int(), types.Float(), types.Bool(), types.Null(),
			types.ListOf(types.AliasRef("JSON")),
			types.MapOf(str, types.AliasRef("JSON")),
		)).
		Build()
	require.NoError(t, err)
	return reg
}

func testValidator(t testing.TB, opts ...Option) *Validator {
	t.Helper()
	return NewValidator(unify.New(testCatalog(t)), zap.NewNop(), opts...)
}

var propertyTypes = []*types.FieldType{
	types.ClassRef("Person"),
	types.ClassRef("Triple"),
	types.ClassRef("Story"),
	types.OptionalOf(types.ClassRef("Counter")),
	types.ListOf(types.Int()),
	types.ListOf(types.String()),
	types.MapOf(types.String(), types.Int()),
	types.AliasRef("JSON"),
	types.AliasRef("A"),
}

func drawFlags(t *rapid.T, label string) []flagged.Flag {
	switch rapid.IntRange(0, 3).Draw(t, label) {
	case 1:
		return []flagged.Flag{flagged.Incomplete()}
	case 2:
		return []flagged.Flag{flagged.Pending()}
	case 3:
		return []flagged.Flag{flagged.Incomplete(), flagged.Pending()}
	}
	return nil
}

// drawValue draws a flagged tree with streaming flags sprinkled at random.
func drawValue(t *rapid.T, depth int, label string) *flagged.Value {
	flags := drawFlags(t, label+".flags")
	kinds := 7
	if depth <= 0 {
		kinds = 4
	}
	switch rapid.IntRange(0, kinds).Draw(t, label+".kind") {
	case 0:
		return flagged.NewString(rapid.SampledFrom([]string{"", "a", "RED"}).Draw(t, label+".s"), flags...)
	case 1:
		return flagged.NewInt(rapid.Int64Range(-3, 3).Draw(t, label+".i"), flags...)
	case 2:
		return flagged.NewFloat(rapid.Float64Range(-10, 10).Draw(t, label+".f"), flags...)
	case 3:
		return flagged.NewBool(rapid.Bool().Draw(t, label+".b"), flags...)
	case 4:
		return flagged.NewNull(flags...)
	case 5:
		n := rapid.IntRange(0, 3).Draw(t, label+".len")
		items := make([]*flagged.Value, n)
		for i := range items {
			items[i] = drawValue(t, depth-1, fmt.Sprintf("%s[%d]", label, i))
		}
		return flagged.NewList(flagged.NewConditions(flags...), items...)
	case 6:
		keys := rapid.SampledFrom([][]string{nil, {"k"}, {"x", "y"}}).Draw(t, label+".keys")
		entries := make([]flagged.Entry, len(keys))
		for i, k := range keys {
			entries[i] = flagged.Field(k, drawValue(t, depth-1, label+"."+k))
		}
		return flagged.NewMap(flagged.NewConditions(flags...), entries...)
	default:
		class := rapid.SampledFrom([]string{"Person", "Triple", "Counter", "Story"}).Draw(t, label+".class")
		keys := rapid.SampledFrom([][]string{nil, {"name"}, {"a", "c"}, {"count", "label"}, {"title", "extra"}}).Draw(t, label+".fields")
		entries := make([]flagged.Entry, len(keys))
		for i, k := range keys {
			entries[i] = flagged.Field(k, drawValue(t, depth-1, label+"."+k))
		}
		return flagged.NewClass(class, flagged.NewConditions(flags...), entries...)
	}
}
