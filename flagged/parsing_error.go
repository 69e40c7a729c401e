package flagged

import (
	"encoding/json"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ParsingError explains why a node was parsed the way it was. Scope is the
// path from the root, e.g. ["<root>", "parsed:0", "name"].
type ParsingError struct {
	Scope  []string
	Reason string
	Causes []*ParsingError
}

// NewParsingError creates an error with no scope, for use as a flag cause.
func NewParsingError(reason string, causes ...*ParsingError) *ParsingError {
	return &ParsingError{Reason: reason, Causes: causes}
}

// Path joins the scope with dots, or "<root>" when the scope is empty.
func (e *ParsingError) Path() string {
	if len(e.Scope) == 0 {
		return "<root>"
	}
	return strings.Join(e.Scope, ".")
}

func (e *ParsingError) Error() string {
	var b strings.Builder
	e.write(&b, 0)
	return b.String()
}

func (e *ParsingError) write(b *strings.Builder, depth int) {
	if depth > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString("- ")
	}
	b.WriteString(e.Path())
	b.WriteString(": ")
	b.WriteString(e.Reason)
	for _, cause := range e.Causes {
		cause.write(b, depth+1)
	}
}

// MarshalJSON renders {"<path>": reason, "causes": [...]} with the path key
// first.
func (e *ParsingError) MarshalJSON() ([]byte, error) {
	out := orderedmap.New[string, any](2)
	out.Set(e.Path(), e.Reason)
	causes := e.Causes
	if causes == nil {
		causes = []*ParsingError{}
	}
	out.Set("causes", causes)
	return json.Marshal(out)
}
