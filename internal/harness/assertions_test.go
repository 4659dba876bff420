package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/coedit/internal/ir"
)

func testHistory() []ir.AuditEntry {
	return []ir.AuditEntry{
		{ID: "1", Source: ir.SourceLLM, Patch: ir.Patch{{Op: ir.OpReplace, Path: "/a", Value: ir.Number(1)}}, Result: ir.Succeeded(1)},
		{ID: "2", Source: ir.SourceUser, Patch: ir.Patch{{Op: ir.OpReplace, Path: "/x", Value: ir.Number(1)}}, Result: ir.Failed(ir.ErrUnknownField, "Unknown field: x")},
	}
}

func TestAssertHistoryCount(t *testing.T) {
	assert.NoError(t, assertHistoryCount(testHistory(), Assertion{Count: 2}))

	err := assertHistoryCount(testHistory(), Assertion{Count: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected: 3 entries")
	assert.Contains(t, err.Error(), "[2] user 1 op(s): Unknown field: x")
}

func TestAssertHistoryContains(t *testing.T) {
	assert.NoError(t, assertHistoryContains(testHistory(), Assertion{Source: "user"}))
	assert.NoError(t, assertHistoryContains(testHistory(), Assertion{Success: ptr(false), Code: "UNKNOWN_FIELD"}))
	assert.NoError(t, assertHistoryContains(testHistory(), Assertion{Source: "llm", Success: ptr(true)}))

	err := assertHistoryContains(testHistory(), Assertion{Source: "llm", Success: ptr(false)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source=llm success=false")
}

func TestAssertHistoryOrder(t *testing.T) {
	assert.NoError(t, assertHistoryOrder(testHistory(), Assertion{Sources: []string{"llm", "user"}}))
	assert.Error(t, assertHistoryOrder(testHistory(), Assertion{Sources: []string{"user", "llm"}}))
	assert.Error(t, assertHistoryOrder(testHistory(), Assertion{Sources: []string{"llm"}}))
}

func TestAssertFieldEquals(t *testing.T) {
	snap := ir.Snapshot{
		"name":    ir.String("Ada"),
		"count":   ir.Number(3),
		"contact": ir.Object{"email": ir.String("a@b.c")},
		"tags":    ir.Array{ir.String("x")},
	}

	assert.NoError(t, assertFieldEquals(snap, Assertion{Field: "name", Value: "Ada"}))
	assert.NoError(t, assertFieldEquals(snap, Assertion{Field: "count", Value: 3}))
	assert.NoError(t, assertFieldEquals(snap, Assertion{Field: "contact", Value: map[string]any{"email": "a@b.c"}}))
	assert.NoError(t, assertFieldEquals(snap, Assertion{Field: "tags", Value: []any{"x"}}))

	err := assertFieldEquals(snap, Assertion{Field: "count", Value: 4})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected: count = 4")
	assert.Contains(t, err.Error(), "Actual: count = 3")

	err = assertFieldEquals(snap, Assertion{Field: "missing", Value: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field not in snapshot")
}

func TestCheckFinalState(t *testing.T) {
	result := NewResult()
	result.State = ir.Snapshot{"a": ir.Number(1), "b": ir.Number(2)}

	checkFinalState(result, map[string]any{"b": 3, "a": 0})

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "a = 0")
	assert.Contains(t, result.Errors[1], "b = 3")
}
