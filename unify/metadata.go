package unify

import "github.com/BaSui01/shapeflow/types"

// Metadata is everything a type carries besides its shape.
type Metadata struct {
	Constraints []types.Constraint
	Streaming   types.StreamingBehavior
}

// DistributeMetadata strips metadata wrappers from t and returns the bare
// type with the collected metadata. Nested wrappers collapse with outer
// constraints first. A bare class or enum reference picks up the metadata
// declared on the class or enum itself.
func (u *Unifier) DistributeMetadata(t *types.FieldType) (*types.FieldType, Metadata) {
	switch t.Kind {
	case types.KindClass:
		if c, ok := u.catalog.FindClass(t.Name); ok {
			return t, Metadata{
				Constraints: append([]types.Constraint(nil), c.Constraints...),
				Streaming:   c.Streaming,
			}
		}
	case types.KindEnum:
		if e, ok := u.catalog.FindEnum(t.Name); ok {
			return t, Metadata{Constraints: append([]types.Constraint(nil), e.Constraints...)}
		}
	case types.KindWithMetadata:
		if t.Elem.Kind == types.KindWithMetadata {
			base, inner := u.DistributeMetadata(t.Elem)
			constraints := make([]types.Constraint, 0, len(t.Constraints)+len(inner.Constraints))
			constraints = append(constraints, t.Constraints...)
			constraints = append(constraints, inner.Constraints...)
			return base, Metadata{
				Constraints: constraints,
				Streaming:   t.Streaming.Combine(inner.Streaming),
			}
		}
		return t.Elem, Metadata{
			Constraints: append([]types.Constraint(nil), t.Constraints...),
			Streaming:   t.Streaming,
		}
	}
	return t, Metadata{}
}

// DistributeConstraints is DistributeMetadata without streaming annotations.
func (u *Unifier) DistributeConstraints(t *types.FieldType) (*types.FieldType, []types.Constraint) {
	base, meta := u.DistributeMetadata(t)
	return base, meta.Constraints
}

// StreamingBehavior returns the combined streaming annotations of t.
func (u *Unifier) StreamingBehavior(t *types.FieldType) types.StreamingBehavior {
	_, meta := u.DistributeMetadata(t)
	return meta.Streaming
}

func (u *Unifier) TypeHasConstraints(t *types.FieldType) bool {
	_, constraints := u.DistributeConstraints(t)
	return len(constraints) > 0
}

func (u *Unifier) TypeHasChecks(t *types.FieldType) bool {
	_, constraints := u.DistributeConstraints(t)
	for _, c := range constraints {
		if c.Level == types.ConstraintCheck {
			return true
		}
	}
	return false
}

// RecursiveAliasDefinition resolves an alias from the structural cycle table.
func (u *Unifier) RecursiveAliasDefinition(name string) (*types.FieldType, bool) {
	return u.catalog.RecursiveAlias(name)
}

// RequiredDone reports whether values of t must be complete before they are
// surfaced mid-stream: scalars other than strings always are, and any type
// annotated with @stream.done is.
func (u *Unifier) RequiredDone(t *types.FieldType) bool {
	base, meta := u.DistributeMetadata(t)
	if meta.Streaming.Done {
		return true
	}
	switch base.Kind {
	case types.KindPrimitive:
		return base.Primitive != types.PrimString
	case types.KindLiteral, types.KindEnum:
		return true
	}
	return false
}
