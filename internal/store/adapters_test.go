package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/coedit/internal/audit"
	"github.com/roach88/coedit/internal/engine"
	"github.com/roach88/coedit/internal/ir"
	"github.com/roach88/coedit/internal/schema"
	"github.com/roach88/coedit/internal/state"
	"github.com/roach88/coedit/internal/testutil"
)

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg, err := schema.NewRegistry(schema.Schema{
		Name: "Form",
		Fields: []schema.FieldDefinition{
			{Name: "name", Label: "Name", Validator: &schema.String{MaxLength: schema.Int(10)}, Default: ir.String("")},
			{Name: "count", Label: "Count", Validator: &schema.Number{Integer: true}, Default: ir.Number(0)},
		},
	})
	require.NoError(t, err)
	return reg
}

// openEngineStore wires an engine.Store to sessionID the way the CLI does.
func openEngineStore(t *testing.T, s *Store, reg *schema.Registry, sessionID string) *engine.Store {
	t.Helper()
	ctx := context.Background()

	stateOpts := []state.Option{state.WithPersister(s.Persister(sessionID))}
	if snap, err := s.LoadSnapshot(ctx, sessionID); err == nil {
		stateOpts = append(stateOpts, state.WithInitial(snap))
	}
	entries, err := s.ReadAudit(ctx, sessionID)
	require.NoError(t, err)

	return engine.NewStore(reg,
		engine.WithStateOptions(stateOpts...),
		engine.WithAuditOptions(
			audit.WithSink(s.AuditSink(sessionID)),
			audit.WithEntries(entries),
			audit.WithClock(testutil.NewDeterministicClock()),
		),
	)
}

func TestAdapters_SessionSurvivesReopen(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	reg := testRegistry(t)
	sess := createTestSession(t, s, reg.Name())

	first := openEngineStore(t, s, reg, sess.ID)
	res := first.ApplyFromText(ctx, `[{"op":"replace","path":"/name","value":"Ada"}]`, ir.SourceLLM)
	require.True(t, res.Success)
	res = first.ApplyFromText(ctx, `[{"op":"replace","path":"/count","value":1.5}]`, ir.SourceLLM)
	require.False(t, res.Success)

	second := openEngineStore(t, s, reg, sess.ID)

	assert.Equal(t, ir.String("Ada"), second.Current()["name"])
	assert.Equal(t, ir.Number(0), second.Current()["count"])

	history := second.History()
	require.Len(t, history, 2)
	assert.Equal(t, "1", history[0].ID)
	assert.Equal(t, ir.ErrValidationFailure, history[1].Result.Code)

	// IDs continue after the archived entries.
	res = second.ApplyFromText(ctx, `[{"op":"replace","path":"/count","value":2}]`, ir.SourceUser)
	require.True(t, res.Success)
	history = second.History()
	require.Len(t, history, 3)
	assert.Equal(t, "3", history[2].ID)

	archived, err := s.ReadAudit(ctx, sess.ID)
	require.NoError(t, err)
	assert.Len(t, archived, 3)
}

func TestAdapters_PersisterSavesEveryCommit(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	reg := testRegistry(t)
	sess := createTestSession(t, s, reg.Name())

	es := openEngineStore(t, s, reg, sess.ID)
	require.True(t, es.SetField("name", ir.String("a")))
	require.True(t, es.SetField("name", ir.String("b")))
	require.False(t, es.SetField("name", ir.String("far too long")))
	es.Reset()

	n, err := s.SnapshotCount(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	snap, err := s.LoadSnapshot(ctx, sess.ID)
	require.NoError(t, err)
	assert.True(t, reg.Defaults().Equal(snap))
}

func TestAdapters_ClearHistoryClearsArchive(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	reg := testRegistry(t)
	sess := createTestSession(t, s, reg.Name())

	es := openEngineStore(t, s, reg, sess.ID)
	es.ApplyFromText(ctx, `[{"op":"replace","path":"/name","value":"x"}]`, ir.SourceLLM)
	es.ClearHistory()

	archived, err := s.ReadAudit(ctx, sess.ID)
	require.NoError(t, err)
	assert.Empty(t, archived)
}
