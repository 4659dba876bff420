package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/roach88/coedit/internal/audit"
	"github.com/roach88/coedit/internal/compiler"
	"github.com/roach88/coedit/internal/engine"
	"github.com/roach88/coedit/internal/schema"
	"github.com/roach88/coedit/internal/state"
	"github.com/roach88/coedit/internal/store"
)

// session is an engine.Store bound to the persisted session for a schema.
// Without --db it is a fresh in-memory store starting at the defaults.
type session struct {
	store *engine.Store
	db    *store.Store
	id    string
}

// Close releases the session database, if any.
func (s *session) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// loadSchema compiles the schema named by --schema into a registry.
func loadSchema(opts *RootOptions, f *OutputFormatter) (*schema.Registry, error) {
	opts.applyEnv()
	if opts.Schema == "" {
		return nil, f.fail(ExitCommandError, ErrCodeNoSchema, "no schema given (use --schema or "+EnvSchema+")", nil)
	}
	if _, err := os.Stat(opts.Schema); os.IsNotExist(err) {
		return nil, f.fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("schema not found: %s", opts.Schema), nil)
	}

	f.VerboseLog("Loading schema from %s", opts.Schema)
	reg, err := compiler.LoadRegistry(opts.Schema)
	if err != nil {
		return nil, f.fail(ExitCommandError, ErrCodeSchemaLoad, fmt.Sprintf("failed to load schema: %v", err), nil)
	}
	return reg, nil
}

// openSession loads the schema and, when --db is set, restores the latest
// session for it: its newest snapshot becomes the initial state and its
// archived audit entries seed the log. Later commits and audit entries are
// written back through the store adapters.
func openSession(ctx context.Context, opts *RootOptions, f *OutputFormatter, logger *slog.Logger, engineOpts ...engine.Option) (*session, error) {
	reg, err := loadSchema(opts, f)
	if err != nil {
		return nil, err
	}

	stateOpts := []state.Option{state.WithLogger(logger)}
	auditOpts := []audit.Option{audit.WithLogger(logger)}
	engineOpts = append([]engine.Option{engine.WithLogger(logger)}, engineOpts...)

	if opts.DB == "" {
		return &session{
			store: engine.NewStore(reg,
				engine.WithStateOptions(stateOpts...),
				engine.WithAuditOptions(auditOpts...),
				engine.WithEngineOptions(engineOpts...),
			),
		}, nil
	}

	f.VerboseLog("Opening session database %s", opts.DB)
	db, err := store.Open(opts.DB)
	if err != nil {
		return nil, f.fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("failed to open database: %v", err), nil)
	}

	sess, err := db.OpenSession(ctx, reg.Name())
	if err != nil {
		db.Close()
		return nil, f.fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("failed to open session: %v", err), nil)
	}
	f.VerboseLog("Using session %s", sess.ID)

	snap, err := db.LoadSnapshot(ctx, sess.ID)
	switch {
	case err == nil:
		stateOpts = append(stateOpts, state.WithInitial(snap))
	case !errors.Is(err, store.ErrNotFound):
		db.Close()
		return nil, f.fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("failed to load snapshot: %v", err), nil)
	}

	entries, err := db.ReadAudit(ctx, sess.ID)
	if err != nil {
		db.Close()
		return nil, f.fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("failed to read audit log: %v", err), nil)
	}

	stateOpts = append(stateOpts, state.WithPersister(db.Persister(sess.ID)))
	auditOpts = append(auditOpts, audit.WithEntries(entries), audit.WithSink(db.AuditSink(sess.ID)))

	return &session{
		store: engine.NewStore(reg,
			engine.WithStateOptions(stateOpts...),
			engine.WithAuditOptions(auditOpts...),
			engine.WithEngineOptions(engineOpts...),
		),
		db: db,
		id: sess.ID,
	}, nil
}
