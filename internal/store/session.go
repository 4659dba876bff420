package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Session is one persisted editing session over a named schema.
type Session struct {
	ID         string
	SchemaName string
	CreatedAt  int64
}

// NewSession creates a session for schemaName and returns it.
func (s *Store) NewSession(ctx context.Context, schemaName string) (Session, error) {
	sess := Session{
		ID:         s.ids.Generate(),
		SchemaName: schemaName,
		CreatedAt:  s.clock.NowMillis(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, schema_name, created_at)
		VALUES (?, ?, ?)
	`, sess.ID, sess.SchemaName, sess.CreatedAt)
	if err != nil {
		return Session{}, fmt.Errorf("new session: %w", err)
	}
	return sess, nil
}

// GetSession returns the session with the given ID, or ErrNotFound.
func (s *Store) GetSession(ctx context.Context, id string) (Session, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx, `
		SELECT id, schema_name, created_at
		FROM sessions
		WHERE id = ?
	`, id).Scan(&sess.ID, &sess.SchemaName, &sess.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("get session %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session %q: %w", id, err)
	}
	return sess, nil
}

// LatestSession returns the most recently created session for schemaName,
// or ErrNotFound. Ties on created_at are broken by rowid.
func (s *Store) LatestSession(ctx context.Context, schemaName string) (Session, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx, `
		SELECT id, schema_name, created_at
		FROM sessions
		WHERE schema_name = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`, schemaName).Scan(&sess.ID, &sess.SchemaName, &sess.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("latest session for %q: %w", schemaName, ErrNotFound)
	}
	if err != nil {
		return Session{}, fmt.Errorf("latest session for %q: %w", schemaName, err)
	}
	return sess, nil
}

// OpenSession returns the latest session for schemaName, creating one if
// none exists.
func (s *Store) OpenSession(ctx context.Context, schemaName string) (Session, error) {
	sess, err := s.LatestSession(ctx, schemaName)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Session{}, err
	}
	return s.NewSession(ctx, schemaName)
}
