package streaming

import (
	"fmt"
	"time"

	"github.com/BaSui01/shapeflow/types"
)

// Summary counts the nodes of a validated tree.
type Summary struct {
	Nodes        int `json:"nodes"`
	Complete     int `json:"complete"`
	Incomplete   int `json:"incomplete"`
	Pending      int `json:"pending"`
	Displayed    int `json:"displayed"`
	RequiredDone int `json:"required_done"`
}

func (s Summary) String() string {
	return fmt.Sprintf("nodes=%d complete=%d incomplete=%d pending=%d displayed=%d required_done=%d",
		s.Nodes, s.Complete, s.Incomplete, s.Pending, s.Displayed, s.RequiredDone)
}

// Summarize walks r depth-first. A nil tree summarizes to zero.
func Summarize(r *Result) Summary {
	var s Summary
	if r == nil {
		return s
	}
	for n := range r.All() {
		s.Nodes++
		switch n.Meta.State {
		case types.Complete:
			s.Complete++
		case types.Incomplete:
			s.Incomplete++
		case types.Pending:
			s.Pending++
		}
		if n.Meta.Display {
			s.Displayed++
		}
		if n.Meta.RequiredDone {
			s.RequiredDone++
		}
	}
	return s
}

// Stats counts the recoveries made during one validation.
type Stats struct {
	// Dropped list items and map entries.
	Dropped int `json:"dropped"`
	// Placeholders are class fields that failed and were replaced by null.
	Placeholders int `json:"placeholders"`
	// Fillers are declared class fields that had not arrived yet.
	Fillers int `json:"fillers"`
}

// Report describes a finished validation.
type Report struct {
	AllowPartials bool
	Duration      time.Duration
	Err           error
	Stats         Stats
	Summary       Summary
}

// Outcome is a short label for the report: "ok", "partial" when the error
// only means more stream data is needed, or "error".
func (r Report) Outcome() string {
	switch {
	case r.Err == nil:
		return "ok"
	case r.AllowPartials && types.IsRetryable(r.Err):
		return "partial"
	default:
		return "error"
	}
}

// Observer receives a report after every validation.
type Observer interface {
	ObserveValidation(Report)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Report)

func (f ObserverFunc) ObserveValidation(r Report) { f(r) }

type multiObserver []Observer

func (m multiObserver) ObserveValidation(r Report) {
	for _, o := range m {
		o.ObserveValidation(r)
	}
}

// MultiObserver fans a report out to every non-nil observer.
func MultiObserver(observers ...Observer) Observer {
	out := make(multiObserver, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}
