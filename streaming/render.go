package streaming

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/BaSui01/shapeflow/types"
)

// Annotate converts a validated tree into plain values where every node is
// an object holding its completion and its value. Containers nest annotated
// children. The result encodes to JSON or YAML in declared key order.
func Annotate(r *Result) any {
	if r == nil {
		return nil
	}
	node := orderedmap.New[string, any](4)
	node.Set("state", r.Meta.State)
	node.Set("display", r.Meta.Display)
	node.Set("required_done", r.Meta.RequiredDone)

	switch r.Kind {
	case types.ValueList:
		items := make([]any, len(r.Items))
		for i, item := range r.Items {
			items[i] = Annotate(item)
		}
		node.Set("value", items)
	case types.ValueClass, types.ValueMap:
		fields := orderedmap.New[string, any](r.Fields.Len())
		for key, child := range r.Entries() {
			fields.Set(key, Annotate(child))
		}
		if r.Kind == types.ValueClass {
			node.Set("class", r.Name)
		}
		node.Set("value", fields)
	default:
		node.Set("value", r.Plain())
	}
	return node
}
