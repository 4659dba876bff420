package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/coedit/internal/ir"
)

// AppendAudit archives one audit entry at the end of the session's history.
func (s *Store) AppendAudit(ctx context.Context, sessionID string, entry ir.AuditEntry) error {
	patch, err := marshalPatch(entry.Patch)
	if err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	result, err := marshalResult(entry.Result)
	if err != nil {
		return fmt.Errorf("append audit: %w", err)
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		var seq int64
		if err := tx.QueryRowContext(ctx, `
			SELECT COALESCE(MAX(seq), 0) + 1 FROM audit_entries WHERE session_id = ?
		`, sessionID).Scan(&seq); err != nil {
			return fmt.Errorf("append audit: next seq: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO audit_entries
			(session_id, seq, entry_id, timestamp, source, patch, result, code)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			sessionID,
			seq,
			entry.ID,
			entry.Timestamp,
			string(entry.Source),
			patch,
			result,
			string(entry.Result.Code),
		); err != nil {
			return fmt.Errorf("append audit: %w", err)
		}
		return nil
	})
}

// ReadAudit returns the session's archived entries in append order.
// Returns an empty slice (not nil) when there are none.
func (s *Store) ReadAudit(ctx context.Context, sessionID string) ([]ir.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT entry_id, timestamp, source, patch, result, code
		FROM audit_entries
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("read audit: %w", err)
	}
	defer rows.Close()

	entries := []ir.AuditEntry{}
	for rows.Next() {
		var (
			e                        ir.AuditEntry
			source, patch, res, code string
		)
		if err := rows.Scan(&e.ID, &e.Timestamp, &source, &patch, &res, &code); err != nil {
			return nil, fmt.Errorf("read audit: scan: %w", err)
		}
		e.Source = ir.Source(source)
		if e.Patch, err = unmarshalPatch(patch); err != nil {
			return nil, fmt.Errorf("read audit: entry %s: %w", e.ID, err)
		}
		if e.Result, err = unmarshalResult(res, code); err != nil {
			return nil, fmt.Errorf("read audit: entry %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read audit: %w", err)
	}
	return entries, nil
}

// ClearAudit drops the session's archived entries.
func (s *Store) ClearAudit(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM audit_entries WHERE session_id = ?
	`, sessionID); err != nil {
		return fmt.Errorf("clear audit: %w", err)
	}
	return nil
}
