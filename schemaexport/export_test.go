package schemaexport

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/shapeflow/catalog"
	"github.com/BaSui01/shapeflow/types"
)

func testRegistry(t *testing.T) *catalog.Registry {
	t.Helper()
	reg, err := catalog.NewBuilder().
		AddEnum(&catalog.Enum{
			Name:        "Color",
			Description: "a primary color",
			Values:      []catalog.EnumValue{{Name: "RED"}, {Name: "BLUE"}},
		}).
		AddClass(&catalog.Class{
			Name: "Person",
			Fields: []catalog.Field{
				{Name: "name", Type: types.String(), StreamingNeeded: true, Description: "full name"},
				{Name: "age", Type: types.WithMetadata(types.Int(),
					[]types.Constraint{types.Assert("adult", "this >= 18")},
					types.StreamingBehavior{Done: true})},
				{Name: "nickname", Type: types.OptionalOf(types.String())},
				{Name: "favorite", Type: types.EnumRef("Color")},
				{Name: "friends", Type: types.ListOf(types.ClassRef("Person"))},
			},
			Streaming: types.StreamingBehavior{State: true},
		}).
		AddAlias("JSON", types.UnionOf(
			types.String(), types.Int(), types.Null(),
			types.ListOf(types.AliasRef("JSON")),
			types.MapOf(types.String(), types.AliasRef("JSON")),
		)).
		Build()
	require.NoError(t, err)
	return reg
}

func render(t *testing.T, e *Exporter, ft *types.FieldType) (string, map[string]any) {
	t.Helper()
	s, err := e.Schema(ft)
	require.NoError(t, err)
	data, err := Marshal(s)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	return string(data), doc
}

func TestSchema_Scalars(t *testing.T) {
	e := New(testRegistry(t))
	tests := []struct {
		name string
		typ  *types.FieldType
		want string
	}{
		{"string", types.String(), `{"type":"string"}`},
		{"int", types.Int(), `{"type":"integer"}`},
		{"float", types.Float(), `{"type":"number"}`},
		{"bool", types.Bool(), `{"type":"boolean"}`},
		{"literal", types.LiteralString("yes"), `{"type":"string","const":"yes"}`},
		{"int literal", types.LiteralInt(5), `{"type":"integer","const":5}`},
		{"list", types.ListOf(types.Int()), `{"type":"array","items":{"type":"integer"}}`},
		{"optional", types.OptionalOf(types.Bool()), `{"anyOf":[{"type":"boolean"},{"type":"null"}]}`},
		{"map", types.MapOf(types.String(), types.Float()), `{"type":"object","additionalProperties":{"type":"number"}}`},
		{"tuple", types.TupleOf(types.Int(), types.String()), `{"type":"array","prefixItems":[{"type":"integer"},{"type":"string"}],"items":false}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := e.Schema(tt.typ)
			require.NoError(t, err)
			s.Version = ""
			data, err := json.Marshal(s)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestSchema_Class(t *testing.T) {
	data, doc := render(t, New(testRegistry(t)), types.ClassRef("Person"))

	assert.Equal(t, "#/$defs/Person", doc["$ref"])
	assert.Equal(t, jsonschemaVersion, doc["$schema"])

	defs := doc["$defs"].(map[string]any)
	require.Contains(t, defs, "Person")
	require.Contains(t, defs, "Color")

	person := defs["Person"].(map[string]any)
	assert.Equal(t, "object", person["type"])
	assert.Equal(t, []any{"name", "age", "favorite", "friends"}, person["required"])
	assert.Equal(t, map[string]any{"state": true}, person[KeyStreaming])

	props := person["properties"].(map[string]any)
	name := props["name"].(map[string]any)
	assert.Equal(t, "full name", name["description"])
	assert.Equal(t, true, name[KeyNotNull])

	age := props["age"].(map[string]any)
	assert.Equal(t, "integer", age["type"])
	assert.Equal(t, map[string]any{"done": true}, age[KeyStreaming])
	require.Len(t, age[KeyConstraints], 1)

	friends := props["friends"].(map[string]any)
	assert.Equal(t, map[string]any{"$ref": "#/$defs/Person"}, friends["items"])

	color := defs["Color"].(map[string]any)
	assert.Equal(t, []any{"RED", "BLUE"}, color["enum"])

	// declared field order survives encoding
	assert.Less(t, strings.Index(data, `"name"`), strings.Index(data, `"nickname"`))
	assert.Less(t, strings.Index(data, `"nickname"`), strings.Index(data, `"friends"`))
}

func TestSchema_RecursiveAlias(t *testing.T) {
	_, doc := render(t, New(testRegistry(t)), types.AliasRef("JSON"))

	assert.Equal(t, "#/$defs/JSON", doc["$ref"])
	def := doc["$defs"].(map[string]any)["JSON"].(map[string]any)
	assert.Equal(t, "JSON", def["title"])
	members := def["anyOf"].([]any)
	require.Len(t, members, 5)
	assert.Equal(t, map[string]any{"type": "array", "items": map[string]any{"$ref": "#/$defs/JSON"}}, members[3])
}

func TestSchema_Undeclared(t *testing.T) {
	e := New(testRegistry(t))
	for _, ft := range []*types.FieldType{types.ClassRef("Ghost"), types.EnumRef("Nope"), types.AliasRef("Missing")} {
		_, err := e.Schema(ft)
		require.Error(t, err, ft.String())
		assert.Equal(t, types.ErrCatalogNotFound, types.GetErrorCode(err))
	}
}

func TestDefinitions(t *testing.T) {
	reg := testRegistry(t)
	s, err := New(reg).Definitions(reg.Classes(), reg.Enums())
	require.NoError(t, err)
	assert.Empty(t, s.Ref)
	assert.Len(t, s.Definitions, 2)
	assert.Contains(t, s.Definitions, "Person")
	assert.Contains(t, s.Definitions, "Color")
}

const jsonschemaVersion = "https://json-schema.org/draft/2020-12/schema"
