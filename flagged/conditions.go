package flagged

import (
	"strings"

	"github.com/BaSui01/shapeflow/types"
)

// Conditions is the ordered flag set attached to one node. Flags can only be
// appended. A nil *Conditions behaves as an empty set.
type Conditions struct {
	flags []Flag
}

// NewConditions creates a set holding the given flags.
func NewConditions(flags ...Flag) *Conditions {
	return &Conditions{flags: append([]Flag(nil), flags...)}
}

// Add appends a flag and returns the set for chaining.
func (c *Conditions) Add(f Flag) *Conditions {
	c.flags = append(c.flags, f)
	return c
}

// Flags returns a copy of the flags in the order they were added.
func (c *Conditions) Flags() []Flag {
	if c == nil {
		return nil
	}
	return append([]Flag(nil), c.flags...)
}

// Len reports how many flags are held.
func (c *Conditions) Len() int {
	if c == nil {
		return 0
	}
	return len(c.flags)
}

// Has reports whether any flag of the given kind is present.
func (c *Conditions) Has(kind FlagKind) bool {
	if c == nil {
		return false
	}
	for _, f := range c.flags {
		if f.Kind == kind {
			return true
		}
	}
	return false
}

// Score sums the scores of the flags held directly by this set.
func (c *Conditions) Score() int {
	if c == nil {
		return 0
	}
	total := 0
	for _, f := range c.flags {
		total += f.Score()
	}
	return total
}

// Explanation returns the parse errors carried by flags.
func (c *Conditions) Explanation() []*ParsingError {
	if c == nil {
		return nil
	}
	var out []*ParsingError
	for _, f := range c.flags {
		if f.Cause != nil {
			out = append(out, f.Cause)
		}
	}
	return out
}

// ConstraintResults collects the results of every ConstraintResults flag.
func (c *Conditions) ConstraintResults() []ConstraintResult {
	if c == nil {
		return nil
	}
	var out []ConstraintResult
	for _, f := range c.flags {
		if f.Kind == FlagConstraintResults {
			out = append(out, f.Results...)
		}
	}
	return out
}

// CompletionState derives the streaming state of the node. Pending wins
// over Incomplete; without either flag the node is Complete.
func (c *Conditions) CompletionState() types.CompletionState {
	return CompletionState(c.Flags())
}

func (c *Conditions) String() string {
	if c.Len() == 0 {
		return ""
	}
	parts := make([]string, len(c.flags))
	for i, f := range c.flags {
		parts[i] = f.String()
	}
	return strings.Join(parts, ", ")
}

// CompletionState derives a streaming state from a flag list.
func CompletionState(flags []Flag) types.CompletionState {
	state := types.Complete
	for _, f := range flags {
		switch f.Kind {
		case FlagPending:
			return types.Pending
		case FlagIncomplete:
			state = types.Incomplete
		}
	}
	return state
}
