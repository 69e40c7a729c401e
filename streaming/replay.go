package streaming

import (
	"github.com/BaSui01/shapeflow/flagged"
	"github.com/BaSui01/shapeflow/types"
)

// ChunkResult is the outcome of validating one snapshot of a stream.
type ChunkResult struct {
	Index   int     `json:"index"`
	Final   bool    `json:"final"`
	Result  *Result `json:"-"`
	Err     error   `json:"-"`
	Summary Summary `json:"summary"`
}

// Surfaced reports whether the snapshot produced a tree that can be shown.
func (c ChunkResult) Surfaced() bool {
	return c.Err == nil && c.Result != nil
}

// Replay validates accumulated snapshots of one stream in order. Every
// snapshot but the last is validated with partials allowed; the last one is
// treated as the end of the stream.
func (v *Validator) Replay(snapshots []*flagged.Value, t *types.FieldType) []ChunkResult {
	out := make([]ChunkResult, 0, len(snapshots))
	for i, snap := range snapshots {
		final := i == len(snapshots)-1
		res, err := v.Validate(snap, t, !final)
		out = append(out, ChunkResult{
			Index:   i,
			Final:   final,
			Result:  res,
			Err:     err,
			Summary: Summarize(res),
		})
	}
	return out
}

// LastSurfaced returns the newest chunk that produced a tree, or false if
// none did.
func LastSurfaced(chunks []ChunkResult) (ChunkResult, bool) {
	for i := len(chunks) - 1; i >= 0; i-- {
		if chunks[i].Surfaced() {
			return chunks[i], true
		}
	}
	return ChunkResult{}, false
}
