package engine

import (
	"encoding/json"

	"github.com/roach88/coedit/internal/ir"
)

// ParsePatchText decodes raw text into a Patch.
//
// Accepted shapes:
//
//	[{"op": "replace", "path": "/name", "value": "Ada"}]
//	{"patch": [{"op": "replace", "path": "/name", "value": "Ada"}]}
//
// Failures are *PatchError with code MALFORMED_INPUT. Text that is not JSON
// reports "JSON parse error: ..."; any other shape reports the expected
// format.
func ParsePatchText(raw string) (ir.Patch, error) {
	var probe any
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return nil, parseError(err)
	}

	ops := json.RawMessage(raw)
	switch v := probe.(type) {
	case []any:
		// bare array
	case map[string]any:
		if _, ok := v["patch"].([]any); !ok {
			return nil, shapeError(nil)
		}
		var wrapped struct {
			Patch json.RawMessage `json:"patch"`
		}
		if err := json.Unmarshal([]byte(raw), &wrapped); err != nil {
			return nil, shapeError(err)
		}
		ops = wrapped.Patch
	default:
		return nil, shapeError(nil)
	}

	var patch ir.Patch
	if err := json.Unmarshal(ops, &patch); err != nil {
		return nil, shapeError(err)
	}
	if patch == nil {
		patch = ir.Patch{}
	}
	return patch, nil
}
