package schemaexport

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/BaSui01/shapeflow/catalog"
	"github.com/BaSui01/shapeflow/types"
)

// Extension keywords carrying annotations JSON Schema has no words for.
const (
	KeyConstraints = "x-constraints"
	KeyStreaming   = "x-streaming"
	KeyNotNull     = "x-stream-not-null"
)

// Exporter renders declared types as JSON Schema (draft 2020-12). Classes,
// enums and recursive aliases become entries under $defs and are referenced
// by name, so recursive types produce finite documents.
type Exporter struct {
	catalog catalog.Catalog
}

// New creates an exporter reading declarations from c.
func New(c catalog.Catalog) *Exporter {
	return &Exporter{catalog: c}
}

// run collects the definitions reached while rendering one document.
type run struct {
	c    catalog.Catalog
	defs jsonschema.Definitions
}

// Schema renders t as a standalone document.
func (e *Exporter) Schema(t *types.FieldType) (*jsonschema.Schema, error) {
	r := &run{c: e.catalog, defs: jsonschema.Definitions{}}
	root, err := r.schema(t)
	if err != nil {
		return nil, err
	}
	root.Version = jsonschema.Version
	if len(r.defs) > 0 {
		root.Definitions = r.defs
	}
	return root, nil
}

// Definitions renders every declared class and enum under $defs, with no
// root type.
func (e *Exporter) Definitions(classes []*catalog.Class, enums []*catalog.Enum) (*jsonschema.Schema, error) {
	r := &run{c: e.catalog, defs: jsonschema.Definitions{}}
	for _, en := range enums {
		if _, err := r.schema(types.EnumRef(en.Name)); err != nil {
			return nil, err
		}
	}
	for _, c := range classes {
		if _, err := r.schema(types.ClassRef(c.Name)); err != nil {
			return nil, err
		}
	}
	return &jsonschema.Schema{Version: jsonschema.Version, Definitions: r.defs}, nil
}

// Marshal renders s as indented JSON.
func Marshal(s *jsonschema.Schema) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

func ref(name string) *jsonschema.Schema {
	return &jsonschema.Schema{Ref: "#/$defs/" + name}
}

func (r *run) schema(t *types.FieldType) (*jsonschema.Schema, error) {
	switch t.Kind {
	case types.KindPrimitive:
		return primitive(t.Primitive), nil

	case types.KindLiteral:
		switch t.Literal.Kind {
		case types.LitInt:
			return &jsonschema.Schema{Type: "integer", Const: t.Literal.Int}, nil
		case types.LitBool:
			return &jsonschema.Schema{Type: "boolean", Const: t.Literal.Bool}, nil
		}
		return &jsonschema.Schema{Type: "string", Const: t.Literal.Str}, nil

	case types.KindEnum:
		return ref(t.Name), r.enum(t.Name)

	case types.KindClass:
		return ref(t.Name), r.class(t.Name)

	case types.KindAlias:
		return ref(t.Name), r.alias(t.Name)

	case types.KindList:
		items, err := r.schema(t.Elem)
		if err != nil {
			return nil, err
		}
		return &jsonschema.Schema{Type: "array", Items: items}, nil

	case types.KindMap:
		values, err := r.schema(t.Elem)
		if err != nil {
			return nil, err
		}
		s := &jsonschema.Schema{Type: "object", AdditionalProperties: values}
		if t.Key != nil && t.Key.Kind != types.KindPrimitive {
			keys, err := r.schema(t.Key)
			if err != nil {
				return nil, err
			}
			s.PropertyNames = keys
		}
		return s, nil

	case types.KindOptional:
		inner, err := r.schema(t.Elem)
		if err != nil {
			return nil, err
		}
		return &jsonschema.Schema{AnyOf: []*jsonschema.Schema{inner, {Type: "null"}}}, nil

	case types.KindUnion:
		members, err := r.all(t.Items)
		if err != nil {
			return nil, err
		}
		return &jsonschema.Schema{AnyOf: members}, nil

	case types.KindTuple:
		members, err := r.all(t.Items)
		if err != nil {
			return nil, err
		}
		return &jsonschema.Schema{Type: "array", PrefixItems: members, Items: jsonschema.FalseSchema}, nil

	case types.KindWithMetadata:
		s, err := r.schema(t.Elem)
		if err != nil {
			return nil, err
		}
		annotate(s, t.Constraints, t.Streaming)
		return s, nil
	}
	return nil, fmt.Errorf("cannot render %s type as JSON Schema", t.Kind)
}

func (r *run) all(ts []*types.FieldType) ([]*jsonschema.Schema, error) {
	out := make([]*jsonschema.Schema, len(ts))
	for i, t := range ts {
		s, err := r.schema(t)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func primitive(p types.Primitive) *jsonschema.Schema {
	switch p {
	case types.PrimInt:
		return &jsonschema.Schema{Type: "integer"}
	case types.PrimFloat:
		return &jsonschema.Schema{Type: "number"}
	case types.PrimBool:
		return &jsonschema.Schema{Type: "boolean"}
	case types.PrimNull:
		return &jsonschema.Schema{Type: "null"}
	case types.PrimImage, types.PrimAudio:
		props := orderedmap.New[string, *jsonschema.Schema]()
		props.Set("url", &jsonschema.Schema{Type: "string", Format: "uri"})
		props.Set("base64", &jsonschema.Schema{Type: "string", ContentEncoding: "base64"})
		props.Set("media_type", &jsonschema.Schema{Type: "string"})
		return &jsonschema.Schema{Type: "object", Title: p.String(), Properties: props}
	}
	return &jsonschema.Schema{Type: "string"}
}

func annotate(s *jsonschema.Schema, constraints []types.Constraint, streaming types.StreamingBehavior) {
	if len(constraints) == 0 && streaming == (types.StreamingBehavior{}) {
		return
	}
	if s.Extras == nil {
		s.Extras = map[string]any{}
	}
	if len(constraints) > 0 {
		s.Extras[KeyConstraints] = constraints
	}
	if streaming != (types.StreamingBehavior{}) {
		s.Extras[KeyStreaming] = streaming
	}
}

func (r *run) enum(name string) error {
	if _, done := r.defs[name]; done {
		return nil
	}
	e, ok := r.c.FindEnum(name)
	if !ok {
		return types.NewError(types.ErrCatalogNotFound, "enum "+name+" is not declared")
	}
	values := make([]any, len(e.Values))
	for i, v := range e.Values {
		values[i] = v.Name
	}
	s := &jsonschema.Schema{Type: "string", Title: name, Description: e.Description, Enum: values}
	annotate(s, e.Constraints, types.StreamingBehavior{})
	r.defs[name] = s
	return nil
}

func (r *run) class(name string) error {
	if _, done := r.defs[name]; done {
		return nil
	}
	c, ok := r.c.FindClass(name)
	if !ok {
		return types.NewError(types.ErrCatalogNotFound, "class "+name+" is not declared")
	}
	s := &jsonschema.Schema{
		Type:        "object",
		Title:       name,
		Description: c.Description,
		Properties:  orderedmap.New[string, *jsonschema.Schema](len(c.Fields)),
	}
	// Reserve the slot before descending so self references terminate.
	r.defs[name] = s

	for _, f := range c.Fields {
		fs, err := r.schema(f.Type)
		if err != nil {
			return err
		}
		if f.Description != "" {
			fs.Description = f.Description
		}
		if f.StreamingNeeded {
			if fs.Extras == nil {
				fs.Extras = map[string]any{}
			}
			fs.Extras[KeyNotNull] = true
		}
		s.Properties.Set(f.Name, fs)
		if !f.Type.IsOptional() {
			s.Required = append(s.Required, f.Name)
		}
	}
	annotate(s, c.Constraints, c.Streaming)
	return nil
}

func (r *run) alias(name string) error {
	if _, done := r.defs[name]; done {
		return nil
	}
	target, ok := r.c.RecursiveAlias(name)
	if !ok {
		a, found := r.c.FindAlias(name)
		if !found {
			return types.NewError(types.ErrCatalogNotFound, "type alias "+name+" is not declared")
		}
		target = a.Target
	}
	// Placeholder first: the target may refer back to this alias.
	placeholder := &jsonschema.Schema{}
	r.defs[name] = placeholder

	s, err := r.schema(target)
	if err != nil {
		return err
	}
	*placeholder = *s
	placeholder.Title = name
	return nil
}
