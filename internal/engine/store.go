package engine

import (
	"context"

	"github.com/roach88/coedit/internal/audit"
	"github.com/roach88/coedit/internal/ir"
	"github.com/roach88/coedit/internal/prompt"
	"github.com/roach88/coedit/internal/schema"
	"github.com/roach88/coedit/internal/state"
)

// Store is the single object both editors talk to. It binds one registry,
// one state container, one audit log and one engine.
type Store struct {
	registry  *schema.Registry
	container *state.Container
	log       *audit.Log
	engine    *Engine
	prompts   []prompt.Option
}

type storeConfig struct {
	stateOpts  []state.Option
	auditOpts  []audit.Option
	engineOpts []Option
	promptOpts []prompt.Option
}

// StoreOption configures a Store.
type StoreOption func(*storeConfig)

// WithStateOptions passes options to the state container.
func WithStateOptions(opts ...state.Option) StoreOption {
	return func(c *storeConfig) {
		c.stateOpts = append(c.stateOpts, opts...)
	}
}

// WithAuditOptions passes options to the audit log.
func WithAuditOptions(opts ...audit.Option) StoreOption {
	return func(c *storeConfig) {
		c.auditOpts = append(c.auditOpts, opts...)
	}
}

// WithEngineOptions passes options to the engine.
func WithEngineOptions(opts ...Option) StoreOption {
	return func(c *storeConfig) {
		c.engineOpts = append(c.engineOpts, opts...)
	}
}

// WithPromptOptions sets the transforms applied by Context and ToolSchema.
func WithPromptOptions(opts ...prompt.Option) StoreOption {
	return func(c *storeConfig) {
		c.promptOpts = append(c.promptOpts, opts...)
	}
}

// NewStore builds a Store over reg.
func NewStore(reg *schema.Registry, opts ...StoreOption) *Store {
	var cfg storeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	container := state.New(reg, cfg.stateOpts...)
	log := audit.New(cfg.auditOpts...)

	return &Store{
		registry:  reg,
		container: container,
		log:       log,
		engine:    New(reg, container, log, cfg.engineOpts...),
		prompts:   cfg.promptOpts,
	}
}

// Registry returns the field registry.
func (s *Store) Registry() *schema.Registry { return s.registry }

// Container returns the underlying state container.
func (s *Store) Container() *state.Container { return s.container }

// Engine returns the underlying patch engine.
func (s *Store) Engine() *Engine { return s.engine }

// Current returns a deep copy of the current snapshot.
func (s *Store) Current() ir.Snapshot {
	return s.container.Current()
}

// SetField sets one field directly. Not audited.
func (s *Store) SetField(name string, value ir.Value) bool {
	return s.container.SetField(name, value)
}

// SetMany sets several fields all-or-nothing. Not audited.
func (s *Store) SetMany(updates map[string]ir.Value) bool {
	return s.container.SetMany(updates)
}

// Reset restores every field to its default.
func (s *Store) Reset() {
	s.container.Reset()
}

// ApplyPatch applies a structured batch.
func (s *Store) ApplyPatch(ctx context.Context, patch ir.Patch, source ir.Source) ir.EditResult {
	return s.engine.ApplyPatch(ctx, patch, source)
}

// ApplyFromText applies a batch given as raw JSON text.
func (s *Store) ApplyFromText(ctx context.Context, raw string, source ir.Source) ir.EditResult {
	return s.engine.ApplyFromText(ctx, raw, source)
}

// History returns every audit entry, oldest first.
func (s *Store) History() []ir.AuditEntry {
	return s.log.All()
}

// ClearHistory empties the audit log; the next entry's ID is "1".
func (s *Store) ClearHistory() {
	s.log.Clear()
}

// Subscribe registers an observer of committed snapshots.
func (s *Store) Subscribe(fn state.Observer) (unsubscribe func()) {
	return s.container.Subscribe(fn)
}

// Context renders the prompt context block for the current state.
func (s *Store) Context() string {
	return prompt.Context(s.registry, s.container.Current(), s.prompts...)
}

// ToolSchema returns the function-calling schema for this registry.
func (s *Store) ToolSchema() map[string]any {
	return prompt.ToolSchema(s.registry, s.prompts...)
}
