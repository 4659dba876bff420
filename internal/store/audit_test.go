package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/coedit/internal/ir"
)

func TestAudit_AppendAndReadInOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	sess := createTestSession(t, s, "Form")

	ok := createTestEntry("1", "/name", ir.String("Ada"), ir.Succeeded(1))
	bad := createTestEntry("2", "/nope", ir.Number(1), ir.Failed(ir.ErrUnknownField, "Unknown field: nope"))

	require.NoError(t, s.AppendAudit(ctx, sess.ID, ok))
	require.NoError(t, s.AppendAudit(ctx, sess.ID, bad))

	got, err := s.ReadAudit(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, ir.SourceLLM, got[0].Source)
	assert.Equal(t, int64(1704067200000), got[0].Timestamp)
	assert.True(t, got[0].Result.Success)
	assert.Equal(t, 1, got[0].Result.Applied)
	require.Len(t, got[0].Patch, 1)
	assert.Equal(t, ir.OpReplace, got[0].Patch[0].Op)
	assert.Equal(t, "/name", got[0].Patch[0].Path)
	assert.Equal(t, ir.String("Ada"), got[0].Patch[0].Value)

	assert.Equal(t, "2", got[1].ID)
	assert.False(t, got[1].Result.Success)
	assert.Equal(t, "Unknown field: nope", got[1].Result.Error)
	assert.Equal(t, ir.ErrUnknownField, got[1].Result.Code)
}

func TestAudit_RemoveOperationHasNoValue(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	sess := createTestSession(t, s, "Form")

	entry := ir.AuditEntry{
		ID:     "1",
		Patch:  ir.Patch{{Op: ir.OpRemove, Path: "/name"}, {Op: ir.OpReplace, Path: "/x", Value: ir.Null{}}},
		Source: ir.SourceUser,
		Result: ir.Succeeded(2),
	}
	require.NoError(t, s.AppendAudit(ctx, sess.ID, entry))

	got, err := s.ReadAudit(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Patch[0].Value)
	assert.Equal(t, ir.Null{}, got[0].Patch[1].Value)
}

func TestAudit_EmptyReturnsEmptySlice(t *testing.T) {
	s := createTestStore(t)
	sess := createTestSession(t, s, "Form")

	got, err := s.ReadAudit(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAudit_Clear(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	a := createTestSession(t, s, "Form")
	b := createTestSession(t, s, "Form")

	require.NoError(t, s.AppendAudit(ctx, a.ID, createTestEntry("1", "/n", ir.Number(1), ir.Succeeded(1))))
	require.NoError(t, s.AppendAudit(ctx, b.ID, createTestEntry("1", "/n", ir.Number(2), ir.Succeeded(1))))

	require.NoError(t, s.ClearAudit(ctx, a.ID))

	got, err := s.ReadAudit(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, got)

	other, err := s.ReadAudit(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, other, 1)

	// Appends after a clear start again from the front.
	require.NoError(t, s.AppendAudit(ctx, a.ID, createTestEntry("1", "/n", ir.Number(3), ir.Succeeded(1))))
	got, err = s.ReadAudit(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ir.Number(3), got[0].Patch[0].Value)
}
