package types

// CompletionState is how far a streamed value has progressed.
type CompletionState uint8

const (
	// Complete is the zero value so that an unflagged node counts as done.
	Complete CompletionState = iota
	Incomplete
	Pending
)

func (s CompletionState) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Incomplete:
		return "Incomplete"
	default:
		return "Complete"
	}
}

// MarshalText renders the state by name in JSON and YAML output.
func (s CompletionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Completion is the per-node output of streaming validation.
type Completion struct {
	State        CompletionState `json:"state"`
	Display      bool            `json:"display"`
	RequiredDone bool            `json:"required_done"`
}
