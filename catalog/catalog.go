package catalog

import "github.com/BaSui01/shapeflow/types"

// Catalog is the read-only view of declared classes, enums and type aliases
// that the type engine consults. Implementations must be safe for
// concurrent readers.
type Catalog interface {
	FindClass(name string) (*Class, bool)
	FindEnum(name string) (*Enum, bool)
	FindAlias(name string) (*TypeAlias, bool)

	// RecursiveAlias resolves an alias that takes part in a structural
	// cycle. Aliases outside every cycle are expanded at build time and
	// never resolve here.
	RecursiveAlias(name string) (*types.FieldType, bool)

	// StructuralCycles lists each alias cycle as a name to definition map.
	StructuralCycles() []map[string]*types.FieldType

	// FiniteCycles lists groups of classes that recurse into each other.
	FiniteCycles() [][]string
}

// Class is a declared class with its fields in declaration order.
type Class struct {
	Name        string
	Description string
	Fields      []Field
	Constraints []types.Constraint
	Streaming   types.StreamingBehavior
}

// Field is a single class field.
type Field struct {
	Name        string
	Type        *types.FieldType
	Description string

	// StreamingNeeded marks @stream.not_null: the field must be present and
	// non-null before its class may be surfaced mid-stream.
	StreamingNeeded bool
}

// Field looks up a field by name.
func (c *Class) Field(name string) (*Field, bool) {
	for i := range c.Fields {
		if c.Fields[i].Name == name {
			return &c.Fields[i], true
		}
	}
	return nil, false
}

// FieldNames returns field names in declaration order.
func (c *Class) FieldNames() []string {
	names := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		names[i] = f.Name
	}
	return names
}

// NeededFields returns the names of fields marked @stream.not_null.
func (c *Class) NeededFields() []string {
	var names []string
	for _, f := range c.Fields {
		if f.StreamingNeeded {
			names = append(names, f.Name)
		}
	}
	return names
}

// Enum is a declared enum.
type Enum struct {
	Name        string
	Description string
	Values      []EnumValue
	Constraints []types.Constraint
}

// EnumValue is one enum variant. Alias is the spelling shown to the model.
type EnumValue struct {
	Name        string
	Alias       string
	Description string
}

// Has reports whether the enum declares the variant.
func (e *Enum) Has(variant string) bool {
	for _, v := range e.Values {
		if v.Name == variant {
			return true
		}
	}
	return false
}

// TypeAlias is a named type.
type TypeAlias struct {
	Name      string
	Target    *types.FieldType
	Recursive bool
}
