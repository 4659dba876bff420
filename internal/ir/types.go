package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Op is an edit operation kind.
type Op string

const (
	OpReplace Op = "replace"
	OpAdd     Op = "add"
	OpRemove  Op = "remove"
)

// ValidOps defines the allowed operation kinds.
var ValidOps = []Op{OpReplace, OpAdd, OpRemove}

// Operation is one addressed edit. Path is a slash-separated pointer whose
// first segment names a top-level field; remaining segments address into
// that field's nested structure.
//
// Value is nil when the operation carried no "value" key, and Null{} when it
// carried an explicit JSON null.
type Operation struct {
	Op    Op     `json:"op" validate:"required,oneof=replace add remove"`
	Path  string `json:"path" validate:"required"`
	Value Value  `json:"value,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler for Operation.
func (o *Operation) UnmarshalJSON(data []byte) error {
	var wire struct {
		Op    Op              `json:"op"`
		Path  string          `json:"path"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	o.Op = wire.Op
	o.Path = wire.Path
	o.Value = nil
	if len(wire.Value) > 0 {
		v, err := UnmarshalValue(wire.Value)
		if err != nil {
			return fmt.Errorf("value: %w", err)
		}
		o.Value = v
	}
	return nil
}

// MarshalJSON implements json.Marshaler for Operation. The value key is
// omitted when Value is nil.
func (o Operation) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"op":`)
	opBytes, err := marshalString(string(o.Op), false)
	if err != nil {
		return nil, err
	}
	buf.Write(opBytes)
	buf.WriteString(`,"path":`)
	pathBytes, err := marshalString(o.Path, false)
	if err != nil {
		return nil, err
	}
	buf.Write(pathBytes)
	if o.Value != nil {
		buf.WriteString(`,"value":`)
		if err := encodeValue(&buf, o.Value, false); err != nil {
			return nil, fmt.Errorf("value: %w", err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Patch is an ordered batch of operations applied as one transaction.
type Patch []Operation

// Clone returns a deep copy of the patch, including operation values.
func (p Patch) Clone() Patch {
	if p == nil {
		return nil
	}
	out := make(Patch, len(p))
	for i, op := range p {
		out[i] = Operation{Op: op.Op, Path: op.Path, Value: Clone(op.Value)}
	}
	return out
}

// Source tags who submitted a patch.
type Source string

const (
	SourceUser   Source = "user"
	SourceLLM    Source = "llm"
	SourceSystem Source = "system"
)

// ParseSource converts a string into a Source.
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourceUser, SourceLLM, SourceSystem:
		return Source(s), nil
	default:
		return "", fmt.Errorf("invalid source %q: must be one of user, llm, system", s)
	}
}

// ErrorCode classifies why a patch was rejected.
type ErrorCode string

const (
	// ErrUnknownField: the path's root segment is not registered.
	ErrUnknownField ErrorCode = "UNKNOWN_FIELD"

	// ErrValidationFailure: the field's validator rejected the value.
	ErrValidationFailure ErrorCode = "VALIDATION_FAILURE"

	// ErrMalformedInput: unparseable text, wrong top-level shape or a
	// structurally invalid operation.
	ErrMalformedInput ErrorCode = "MALFORMED_INPUT"

	// ErrCommitFailure: the container refused an already-validated commit.
	ErrCommitFailure ErrorCode = "COMMIT_FAILURE"
)

// EditResult is the tagged outcome of applying a patch: success with a
// count of applied operations, or failure with a human-readable reason.
type EditResult struct {
	Success bool   `json:"success"`
	Applied int    `json:"applied,omitempty"`
	Error   string `json:"error,omitempty"`

	// Code is set on failures for programmatic callers. Not serialized.
	Code ErrorCode `json:"-"`
}

// Succeeded creates a success result.
func Succeeded(applied int) EditResult {
	return EditResult{Success: true, Applied: applied}
}

// Failed creates a failure result.
func Failed(code ErrorCode, message string) EditResult {
	return EditResult{Success: false, Error: message, Code: code}
}

// MarshalJSON emits exactly one of the two wire shapes:
// {"success":true,"applied":N} or {"success":false,"error":"..."}.
func (r EditResult) MarshalJSON() ([]byte, error) {
	if r.Success {
		return []byte(fmt.Sprintf(`{"success":true,"applied":%d}`, r.Applied)), nil
	}
	msg, err := marshalString(r.Error, false)
	if err != nil {
		return nil, err
	}
	return []byte(`{"success":false,"error":` + string(msg) + `}`), nil
}

// AuditEntry records one patch-application attempt.
type AuditEntry struct {
	ID        string     `json:"id"`        // Monotonic counter, string form
	Timestamp int64      `json:"timestamp"` // Milliseconds since epoch
	Patch     Patch      `json:"patch"`     // Original batch as submitted
	Source    Source     `json:"source"`
	Result    EditResult `json:"result"`
}

// Snapshot maps every registered field name to its current value.
type Snapshot map[string]Value

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = Clone(v)
	}
	return out
}

// Equal reports whether two snapshots hold deeply equal values.
func (s Snapshot) Equal(other Snapshot) bool {
	return Equal(Object(s), Object(other))
}

// MarshalJSON implements json.Marshaler for Snapshot with sorted keys.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	return Object(s).MarshalJSON()
}

// UnmarshalJSON implements json.Unmarshaler for Snapshot.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var obj Object
	if err := obj.UnmarshalJSON(data); err != nil {
		return err
	}
	*s = Snapshot(obj)
	return nil
}
