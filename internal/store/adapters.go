package store

import (
	"context"

	"github.com/roach88/coedit/internal/audit"
	"github.com/roach88/coedit/internal/ir"
	"github.com/roach88/coedit/internal/state"
)

// Persister binds a session to the state.Persister interface. Every
// committed snapshot is appended to the session's snapshot history.
func (s *Store) Persister(sessionID string) state.Persister {
	return state.PersisterFunc(func(snap ir.Snapshot) error {
		return s.SaveSnapshot(context.Background(), sessionID, snap)
	})
}

// AuditSink archives audit entries for one session.
type AuditSink struct {
	store     *Store
	sessionID string
}

var (
	_ audit.Sink    = (*AuditSink)(nil)
	_ audit.Clearer = (*AuditSink)(nil)
)

// AuditSink returns a sink archiving entries under sessionID.
func (s *Store) AuditSink(sessionID string) *AuditSink {
	return &AuditSink{store: s, sessionID: sessionID}
}

// Append implements audit.Sink.
func (a *AuditSink) Append(entry ir.AuditEntry) error {
	return a.store.AppendAudit(context.Background(), a.sessionID, entry)
}

// Clear implements audit.Clearer.
func (a *AuditSink) Clear() error {
	return a.store.ClearAudit(context.Background(), a.sessionID)
}
