package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/coedit/internal/ir"
)

// marshalSnapshot converts a snapshot to JSON TEXT for storage.
// Keys are sorted; strings are stored as given (no normalization), so a
// loaded snapshot is byte-for-byte the value that was committed.
func marshalSnapshot(snap ir.Snapshot) (string, error) {
	data, err := ir.MarshalValue(ir.Object(snap))
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	return string(data), nil
}

// unmarshalSnapshot parses stored JSON TEXT back into a snapshot.
// Numbers go through json.Number to avoid precision surprises.
func unmarshalSnapshot(data string) (ir.Snapshot, error) {
	v, err := ir.UnmarshalValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	obj, ok := v.(ir.Object)
	if !ok {
		return nil, fmt.Errorf("unmarshal snapshot: expected object, got %s", ir.TypeName(v))
	}
	return ir.Snapshot(obj), nil
}

// marshalJSON encodes v with HTML escaping disabled.
func marshalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

func marshalPatch(p ir.Patch) (string, error) {
	if p == nil {
		p = ir.Patch{}
	}
	s, err := marshalJSON(p)
	if err != nil {
		return "", fmt.Errorf("marshal patch: %w", err)
	}
	return s, nil
}

func unmarshalPatch(data string) (ir.Patch, error) {
	var p ir.Patch
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("unmarshal patch: %w", err)
	}
	return p, nil
}

func marshalResult(r ir.EditResult) (string, error) {
	s, err := marshalJSON(r)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	return s, nil
}

// unmarshalResult restores an EditResult. Code is not part of the JSON
// form and is stored in its own column.
func unmarshalResult(data, code string) (ir.EditResult, error) {
	var r ir.EditResult
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return ir.EditResult{}, fmt.Errorf("unmarshal result: %w", err)
	}
	r.Code = ir.ErrorCode(code)
	return r, nil
}
