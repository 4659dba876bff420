package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/coedit/internal/ir"
)

// SaveSnapshot appends snap to the session's snapshot history.
func (s *Store) SaveSnapshot(ctx context.Context, sessionID string, snap ir.Snapshot) error {
	body, err := marshalSnapshot(snap)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		var seq int64
		if err := tx.QueryRowContext(ctx, `
			SELECT COALESCE(MAX(seq), 0) + 1 FROM snapshots WHERE session_id = ?
		`, sessionID).Scan(&seq); err != nil {
			return fmt.Errorf("save snapshot: next seq: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO snapshots (session_id, seq, body, created_at)
			VALUES (?, ?, ?, ?)
		`, sessionID, seq, body, s.clock.NowMillis()); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		return nil
	})
}

// LoadSnapshot returns the latest snapshot of the session, or ErrNotFound
// if none was saved.
func (s *Store) LoadSnapshot(ctx context.Context, sessionID string) (ir.Snapshot, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `
		SELECT body
		FROM snapshots
		WHERE session_id = ?
		ORDER BY seq DESC
		LIMIT 1
	`, sessionID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load snapshot: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	snap, err := unmarshalSnapshot(body)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return snap, nil
}

// SnapshotCount returns how many snapshots the session has saved.
func (s *Store) SnapshotCount(ctx context.Context, sessionID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM snapshots WHERE session_id = ?
	`, sessionID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count snapshots: %w", err)
	}
	return n, nil
}
