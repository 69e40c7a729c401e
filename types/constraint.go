package types

// ConstraintLevel distinguishes hard assertions from soft checks.
type ConstraintLevel uint8

const (
	ConstraintAssert ConstraintLevel = iota
	ConstraintCheck
)

func (l ConstraintLevel) String() string {
	if l == ConstraintCheck {
		return "check"
	}
	return "assert"
}

func (l ConstraintLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *ConstraintLevel) UnmarshalText(text []byte) error {
	switch string(text) {
	case "assert", "":
		*l = ConstraintAssert
	case "check":
		*l = ConstraintCheck
	default:
		return NewError(ErrCatalogInvalid, "unknown constraint level "+string(text))
	}
	return nil
}

// Constraint is a user-declared expression attached to a type. Evaluation
// happens elsewhere; this package only carries it.
type Constraint struct {
	Level      ConstraintLevel `json:"level" yaml:"level"`
	Expression string          `json:"expression" yaml:"expression"`
	Label      string          `json:"label,omitempty" yaml:"label,omitempty"`
}

// Assert builds an assert-level constraint.
func Assert(label, expression string) Constraint {
	return Constraint{Level: ConstraintAssert, Expression: expression, Label: label}
}

// Check builds a check-level constraint.
func Check(label, expression string) Constraint {
	return Constraint{Level: ConstraintCheck, Expression: expression, Label: label}
}

// StreamingBehavior carries the @stream.done and @stream.with_state
// annotations of a type.
type StreamingBehavior struct {
	Done  bool `json:"done,omitempty" yaml:"done,omitempty"`
	State bool `json:"state,omitempty" yaml:"with_state,omitempty"`
}

// Combine merges two annotations. Either side setting a flag sets it.
func (s StreamingBehavior) Combine(o StreamingBehavior) StreamingBehavior {
	return StreamingBehavior{
		Done:  s.Done || o.Done,
		State: s.State || o.State,
	}
}
