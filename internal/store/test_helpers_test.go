package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/coedit/internal/ir"
	"github.com/roach88/coedit/internal/testutil"
)

// createTestStore creates a new store in a temp dir with deterministic
// session IDs and timestamps.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path,
		WithIDGenerator(testutil.NewFixedIDGenerator()),
		WithClock(testutil.NewDeterministicClock()),
	)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSession creates a session for schemaName or fails the test.
func createTestSession(t *testing.T, s *Store, schemaName string) Session {
	t.Helper()
	sess, err := s.NewSession(context.Background(), schemaName)
	if err != nil {
		t.Fatalf("NewSession() failed: %v", err)
	}
	return sess
}

// createTestEntry builds an audit entry with a single replace operation.
func createTestEntry(id string, path string, value ir.Value, result ir.EditResult) ir.AuditEntry {
	return ir.AuditEntry{
		ID:        id,
		Timestamp: 1704067200000,
		Patch:     ir.Patch{{Op: ir.OpReplace, Path: path, Value: value}},
		Source:    ir.SourceLLM,
		Result:    result,
	}
}
