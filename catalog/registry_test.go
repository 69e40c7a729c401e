package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/shapeflow/types"
)

func TestBuilder_ResolvesReferences(t *testing.T) {
	reg, err := NewBuilder().
		AddEnum(&Enum{Name: "Color", Values: []EnumValue{{Name: "RED"}, {Name: "BLUE"}}}).
		AddAlias("Palette", types.ListOf(types.AliasRef("Color"))).
		AddClass(&Class{
			Name: "Shirt",
			Fields: []Field{
				{Name: "colors", Type: types.AliasRef("Palette")},
				{Name: "owner", Type: types.OptionalOf(types.AliasRef("Person"))},
			},
		}).
		AddClass(&Class{Name: "Person", Fields: []Field{{Name: "name", Type: types.String()}}}).
		Build()
	require.NoError(t, err)

	shirt, ok := reg.FindClass("Shirt")
	require.True(t, ok)

	colors, _ := shirt.Field("colors")
	assert.True(t, colors.Type.Equal(types.ListOf(types.EnumRef("Color"))), colors.Type.String())

	owner, _ := shirt.Field("owner")
	assert.True(t, owner.Type.Equal(types.OptionalOf(types.ClassRef("Person"))))

	alias, ok := reg.FindAlias("Palette")
	require.True(t, ok)
	assert.False(t, alias.Recursive)
	_, ok = reg.RecursiveAlias("Palette")
	assert.False(t, ok)

	assert.Empty(t, reg.StructuralCycles())
	assert.Empty(t, reg.FiniteCycles())
	assert.Equal(t, []string{"Shirt", "Person"}, namesOf(reg.Classes()))
}

func namesOf(classes []*Class) []string {
	out := make([]string, len(classes))
	for i, c := range classes {
		out[i] = c.Name
	}
	return out
}

func TestBuilder_StructuralAliasCycles(t *testing.T) {
	reg, err := NewBuilder().
		AddAlias("A", types.ListOf(types.AliasRef("A"))).
		AddAlias("JSON", types.UnionOf(
			types.String(), types.Int(), types.Null(),
			types.ListOf(types.AliasRef("JSON")),
			types.MapOf(types.String(), types.AliasRef("JSON")),
		)).
		AddAlias("Even", types.ListOf(types.AliasRef("Odd"))).
		AddAlias("Odd", types.OptionalOf(types.AliasRef("Even"))).
		AddAlias("Plain", types.Int()).
		Build()
	require.NoError(t, err)

	require.Len(t, reg.StructuralCycles(), 3)

	a, ok := reg.RecursiveAlias("A")
	require.True(t, ok)
	assert.True(t, a.Equal(types.ListOf(types.AliasRef("A"))))

	odd, ok := reg.RecursiveAlias("Odd")
	require.True(t, ok)
	assert.Equal(t, "Even?", odd.String())

	_, ok = reg.RecursiveAlias("Plain")
	assert.False(t, ok)

	for _, name := range []string{"A", "JSON", "Even", "Odd"} {
		alias, _ := reg.FindAlias(name)
		assert.True(t, alias.Recursive, name)
	}
}

func TestBuilder_FiniteClassCycles(t *testing.T) {
	reg, err := NewBuilder().
		AddClass(&Class{Name: "Node", Fields: []Field{
			{Name: "value", Type: types.Int()},
			{Name: "next", Type: types.OptionalOf(types.AliasRef("Node"))},
		}}).
		AddClass(&Class{Name: "Left", Fields: []Field{{Name: "r", Type: types.ListOf(types.ClassRef("Right"))}}}).
		AddClass(&Class{Name: "Right", Fields: []Field{{Name: "l", Type: types.AliasRef("Forest")}}}).
		AddAlias("Forest", types.ListOf(types.UnionOf(types.ClassRef("Left"), types.AliasRef("Forest")))).
		AddClass(&Class{Name: "Leaf", Fields: []Field{{Name: "n", Type: types.Int()}}}).
		Build()
	require.NoError(t, err)

	assert.ElementsMatch(t, [][]string{{"Node"}, {"Left", "Right"}}, reg.FiniteCycles())
}

func TestBuilder_Errors(t *testing.T) {
	tests := []struct {
		name    string
		builder *Builder
		errMsg  string
	}{
		{
			name: "duplicate name",
			builder: NewBuilder().
				AddClass(&Class{Name: "X"}).
				AddEnum(&Enum{Name: "X"}),
			errMsg: "already declared",
		},
		{
			name:    "primitive shadow",
			builder: NewBuilder().AddAlias("int", types.String()),
			errMsg:  "shadows a primitive",
		},
		{
			name: "unknown reference",
			builder: NewBuilder().AddClass(&Class{Name: "X", Fields: []Field{
				{Name: "y", Type: types.AliasRef("Missing")},
			}}),
			errMsg: "unknown type Missing",
		},
		{
			name: "unknown class ref",
			builder: NewBuilder().AddClass(&Class{Name: "X", Fields: []Field{
				{Name: "y", Type: types.ClassRef("Missing")},
			}}),
			errMsg: "unknown class Missing",
		},
		{
			name: "duplicate field",
			builder: NewBuilder().AddClass(&Class{Name: "X", Fields: []Field{
				{Name: "y", Type: types.Int()},
				{Name: "y", Type: types.String()},
			}}),
			errMsg: "declares field y twice",
		},
		{
			name: "direct alias cycle",
			builder: NewBuilder().
				AddAlias("A", types.AliasRef("B")).
				AddAlias("B", types.AliasRef("A")),
			errMsg: "no list, map or union indirection",
		},
		{
			name:    "self alias",
			builder: NewBuilder().AddAlias("A", types.AliasRef("A")),
			errMsg:  "no list, map or union indirection",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Build()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.Equal(t, types.ErrCatalogInvalid, types.GetErrorCode(err))
		})
	}
}

func TestClass_Helpers(t *testing.T) {
	c := &Class{Name: "C", Fields: []Field{
		{Name: "a", Type: types.Int(), StreamingNeeded: true},
		{Name: "b", Type: types.String()},
		{Name: "c", Type: types.Bool(), StreamingNeeded: true},
	}}

	assert.Equal(t, []string{"a", "b", "c"}, c.FieldNames())
	assert.Equal(t, []string{"a", "c"}, c.NeededFields())

	f, ok := c.Field("b")
	require.True(t, ok)
	assert.True(t, f.Type.Equal(types.String()))
	_, ok = c.Field("z")
	assert.False(t, ok)

	e := &Enum{Name: "E", Values: []EnumValue{{Name: "ON"}}}
	assert.True(t, e.Has("ON"))
	assert.False(t, e.Has("OFF"))
}

func TestStronglyConnected(t *testing.T) {
	nodes := []string{"a", "b", "c", "d"}
	edges := map[string][]string{
		"a": {"b"},
		"b": {"a", "c"},
		"c": {"outside"},
		"d": {"d"},
	}

	sccs := stronglyConnected(nodes, edges)
	assert.ElementsMatch(t, [][]string{{"a", "b"}, {"c"}, {"d"}}, sccs)

	assert.True(t, isCycle([]string{"d"}, edges))
	assert.False(t, isCycle([]string{"c"}, edges))
}
