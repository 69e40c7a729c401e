package catalog

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/shapeflow/types"
)

// Document is the YAML form of a catalog.
//
//	classes:
//	  - name: Person
//	    fields:
//	      - {name: name, type: string, not_null: true}
//	      - {name: age, type: {base: int, stream: {done: true}}}
//	      - {name: tags, type: "string[]"}
//	enums:
//	  - {name: Color, values: [RED, GREEN]}
//	aliases:
//	  - {name: Tree, type: {map: [string, "Tree[]"]}}
type Document struct {
	Classes []ClassDecl `yaml:"classes"`
	Enums   []EnumDecl  `yaml:"enums"`
	Aliases []AliasDecl `yaml:"aliases"`
}

type ClassDecl struct {
	Name        string                  `yaml:"name"`
	Description string                  `yaml:"description"`
	Fields      []FieldDecl             `yaml:"fields"`
	Constraints []types.Constraint      `yaml:"constraints"`
	Stream      types.StreamingBehavior `yaml:"stream"`
}

type FieldDecl struct {
	Name        string   `yaml:"name"`
	Type        TypeExpr `yaml:"type"`
	Description string   `yaml:"description"`
	NotNull     bool     `yaml:"not_null"`
}

type EnumDecl struct {
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Values      []EnumValue        `yaml:"values"`
	Constraints []types.Constraint `yaml:"constraints"`
}

type AliasDecl struct {
	Name string   `yaml:"name"`
	Type TypeExpr `yaml:"type"`
}

// UnmarshalYAML accepts a bare variant name or a mapping.
func (v *EnumValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		v.Name = node.Value
		return nil
	}
	var raw struct {
		Name        string `yaml:"name"`
		Alias       string `yaml:"alias"`
		Description string `yaml:"description"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*v = EnumValue(raw)
	return nil
}

// TypeExpr decodes a type expression. Scalars name a primitive or a declared
// type and may carry "[]" and "?" suffixes; mappings take exactly one of
// list, optional, map, union, tuple, literal, or base with constraints and
// stream annotations. Inside flow collections such as {type: "T?"} the "?"
// shorthand must be quoted, or YAML reads it as a mapping key indicator.
type TypeExpr struct {
	Type *types.FieldType
}

func (e *TypeExpr) UnmarshalYAML(node *yaml.Node) error {
	t, err := parseTypeNode(node)
	if err != nil {
		return err
	}
	e.Type = t
	return nil
}

func nodeError(node *yaml.Node, format string, args ...any) error {
	return fmt.Errorf("line %d: %s", node.Line, fmt.Sprintf(format, args...))
}

func parseTypeNode(node *yaml.Node) (*types.FieldType, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return parseTypeName(node, strings.TrimSpace(node.Value))
	case yaml.SequenceNode:
		// a bare sequence is shorthand for a union
		return parseUnion(node)
	case yaml.MappingNode:
		return parseTypeMapping(node)
	}
	return nil, nodeError(node, "unsupported type expression")
}

func parseTypeName(node *yaml.Node, name string) (*types.FieldType, error) {
	switch {
	case name == "":
		return nil, nodeError(node, "empty type name")
	case strings.HasSuffix(name, "[]"):
		inner, err := parseTypeName(node, strings.TrimSuffix(name, "[]"))
		if err != nil {
			return nil, err
		}
		return types.ListOf(inner), nil
	case strings.HasSuffix(name, "?"):
		inner, err := parseTypeName(node, strings.TrimSuffix(name, "?"))
		if err != nil {
			return nil, err
		}
		return types.OptionalOf(inner), nil
	}
	if p, ok := types.ParsePrimitive(name); ok {
		return types.Prim(p), nil
	}
	return types.AliasRef(name), nil
}

func parseUnion(node *yaml.Node) (*types.FieldType, error) {
	items, err := parseTypeList(node)
	if err != nil {
		return nil, err
	}
	if len(items) < 2 {
		return nil, nodeError(node, "union needs at least two members")
	}
	return types.UnionOf(items...), nil
}

func parseTypeList(node *yaml.Node) ([]*types.FieldType, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, nodeError(node, "expected a sequence of types")
	}
	items := make([]*types.FieldType, 0, len(node.Content))
	for _, child := range node.Content {
		t, err := parseTypeNode(child)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, nil
}

func parseTypeMapping(node *yaml.Node) (*types.FieldType, error) {
	keys := make(map[string]*yaml.Node, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keys[node.Content[i].Value] = node.Content[i+1]
	}

	if base, ok := keys["base"]; ok {
		return parseWithMetadata(base, keys)
	}
	if len(keys) != 1 {
		return nil, nodeError(node, "type mapping must have exactly one key")
	}

	for key, value := range keys {
		switch key {
		case "list":
			inner, err := parseTypeNode(value)
			if err != nil {
				return nil, err
			}
			return types.ListOf(inner), nil
		case "optional":
			inner, err := parseTypeNode(value)
			if err != nil {
				return nil, err
			}
			return types.OptionalOf(inner), nil
		case "map":
			kv, err := parseTypeList(value)
			if err != nil {
				return nil, err
			}
			if len(kv) != 2 {
				return nil, nodeError(value, "map takes [key, value]")
			}
			return types.MapOf(kv[0], kv[1]), nil
		case "union":
			return parseUnion(value)
		case "tuple":
			items, err := parseTypeList(value)
			if err != nil {
				return nil, err
			}
			return types.TupleOf(items...), nil
		case "literal":
			return parseLiteral(value)
		default:
			return nil, nodeError(node, "unknown type constructor %q", key)
		}
	}
	return nil, nodeError(node, "empty type mapping")
}

func parseWithMetadata(base *yaml.Node, keys map[string]*yaml.Node) (*types.FieldType, error) {
	inner, err := parseTypeNode(base)
	if err != nil {
		return nil, err
	}
	var constraints []types.Constraint
	if c, ok := keys["constraints"]; ok {
		if err := c.Decode(&constraints); err != nil {
			return nil, err
		}
	}
	var stream types.StreamingBehavior
	if s, ok := keys["stream"]; ok {
		if err := s.Decode(&stream); err != nil {
			return nil, err
		}
	}
	for key := range keys {
		if key != "base" && key != "constraints" && key != "stream" {
			return nil, nodeError(base, "unexpected key %q next to base", key)
		}
	}
	return types.WithMetadata(inner, constraints, stream), nil
}

func parseLiteral(node *yaml.Node) (*types.FieldType, error) {
	if node.Kind != yaml.ScalarNode {
		return nil, nodeError(node, "literal must be a scalar")
	}
	switch node.Tag {
	case "!!int":
		i, err := strconv.ParseInt(node.Value, 0, 64)
		if err != nil {
			return nil, nodeError(node, "bad int literal %q", node.Value)
		}
		return types.LiteralInt(i), nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return nil, err
		}
		return types.LiteralBool(b), nil
	case "!!str":
		return types.LiteralString(node.Value), nil
	}
	return nil, nodeError(node, "literal must be a string, int or bool")
}

// Parse decodes a YAML catalog document and builds it.
func Parse(data []byte) (*Registry, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, types.NewError(types.ErrCatalogInvalid, "failed to parse catalog").WithCause(err)
	}
	return doc.Build()
}

// ParseType decodes a single type expression, such as "Person[]" or
// "{map: [string, int]}", and resolves it against r.
func (r *Registry) ParseType(expr string) (*types.FieldType, error) {
	var e TypeExpr
	if err := yaml.Unmarshal([]byte(expr), &e); err != nil {
		return nil, types.NewError(types.ErrCatalogInvalid, "failed to parse type expression").WithCause(err)
	}
	if e.Type == nil {
		return nil, types.NewError(types.ErrCatalogInvalid, "empty type expression")
	}
	return r.Resolve(e.Type)
}

// LoadFile reads and builds a YAML catalog.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.NewError(types.ErrCatalogNotFound, path).WithCause(err)
		}
		return nil, types.NewError(types.ErrCatalogInvalid, "failed to read catalog").WithCause(err)
	}
	return Parse(data)
}

// Build feeds the document into a Builder.
func (d *Document) Build() (*Registry, error) {
	b := NewBuilder()
	for _, c := range d.Classes {
		class := &Class{
			Name:        c.Name,
			Description: c.Description,
			Constraints: c.Constraints,
			Streaming:   c.Stream,
		}
		for _, f := range c.Fields {
			class.Fields = append(class.Fields, Field{
				Name:            f.Name,
				Type:            f.Type.Type,
				Description:     f.Description,
				StreamingNeeded: f.NotNull,
			})
		}
		b.AddClass(class)
	}
	for _, e := range d.Enums {
		b.AddEnum(&Enum{
			Name:        e.Name,
			Description: e.Description,
			Values:      e.Values,
			Constraints: e.Constraints,
		})
	}
	for _, a := range d.Aliases {
		b.AddAlias(a.Name, a.Type.Type)
	}
	return b.Build()
}
