// Package state holds the single current snapshot shared by every editor.
//
// The Container is the only writer of the snapshot. Every mutation goes
// through the registry's validators first and is committed all-or-nothing.
package state

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/roach88/coedit/internal/ir"
	"github.com/roach88/coedit/internal/schema"
)

// Persister receives every committed snapshot. Implementations must not
// retain the snapshot after returning unless they copy it.
type Persister interface {
	Persist(snap ir.Snapshot) error
}

// PersisterFunc adapts a function to the Persister interface.
type PersisterFunc func(ir.Snapshot) error

// Persist implements Persister.
func (f PersisterFunc) Persist(snap ir.Snapshot) error {
	return f(snap)
}

// Observer is notified after each successful commit.
type Observer func(ir.Snapshot)

// RejectedError reports a commit refused because a field value failed
// validation or the field set did not match the registry.
type RejectedError struct {
	Field string
	Err   error
}

func (e *RejectedError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("commit rejected: %v", e.Err)
	}
	return fmt.Sprintf("commit rejected: %s: %v", e.Field, e.Err)
}

func (e *RejectedError) Unwrap() error {
	return e.Err
}

// Container holds exactly one current snapshot and provides controlled
// mutation.
//
// Thread-safety model:
//   - Current(): safe from any goroutine (read lock)
//   - Commit/SetField/SetMany/Reset/Update: serialized by the write lock, so
//     a read-validate-write cycle never interleaves with another writer
//   - Observers run after the lock is released, on the committing goroutine
//
// INVARIANTS:
//   - The snapshot always holds every registered field and nothing else
//   - Every value in the snapshot was accepted by its field's validator
//   - The live snapshot never escapes; readers get deep copies
type Container struct {
	registry *schema.Registry
	logger   *slog.Logger

	mu        sync.RWMutex
	current   ir.Snapshot
	persister Persister
	initial   ir.Snapshot

	obsMu     sync.Mutex
	observers map[int]Observer
	nextObs   int
}

// Option configures a Container.
type Option func(*Container)

// WithPersister hands every committed snapshot to p. Errors are logged and
// never reach the caller.
func WithPersister(p Persister) Option {
	return func(c *Container) {
		c.persister = p
	}
}

// WithInitial restores a previously persisted snapshot at construction.
// A snapshot that fails validation is ignored and defaults are used.
func WithInitial(snap ir.Snapshot) Option {
	return func(c *Container) {
		c.initial = snap
	}
}

// WithLogger sets the logger used for persistence and restore warnings.
func WithLogger(l *slog.Logger) Option {
	return func(c *Container) {
		c.logger = l
	}
}

// New creates a Container starting at the registry's defaults, or at the
// snapshot given through WithInitial when it is valid.
func New(reg *schema.Registry, opts ...Option) *Container {
	c := &Container{
		registry:  reg,
		logger:    slog.Default(),
		observers: make(map[int]Observer),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.current = reg.Defaults()
	if c.initial != nil {
		restored, err := c.normalize(c.initial)
		if err != nil {
			c.logger.Warn("ignoring persisted snapshot", "schema", reg.Name(), "error", err)
		} else {
			c.current = restored
		}
		c.initial = nil
	}

	return c
}

// Registry returns the registry the container validates against.
func (c *Container) Registry() *schema.Registry {
	return c.registry
}

// Current returns a deep copy of the current snapshot.
func (c *Container) Current() ir.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current.Clone()
}

// Get returns a deep copy of one field's current value.
func (c *Container) Get(name string) (ir.Value, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.current[name]
	if !ok {
		return nil, false
	}
	return ir.Clone(v), true
}

// Commit atomically replaces the entire snapshot. The snapshot must name
// every registered field and no others, and every value must validate.
func (c *Container) Commit(snap ir.Snapshot) error {
	next, err := c.normalize(snap)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.swap(next)
	c.mu.Unlock()

	c.notify(next)
	return nil
}

// SetField validates value and commits a snapshot identical to the current
// one except for name. Reports false and leaves state untouched on failure.
func (c *Container) SetField(name string, value ir.Value) bool {
	return c.SetFieldResult(name, value) == nil
}

// SetFieldResult is SetField returning the rejection reason.
func (c *Container) SetFieldResult(name string, value ir.Value) error {
	return c.SetManyResult(map[string]ir.Value{name: value})
}

// SetMany validates every update before committing any. If one field fails,
// nothing is updated and false is returned.
func (c *Container) SetMany(updates map[string]ir.Value) bool {
	return c.SetManyResult(updates) == nil
}

// SetManyResult is SetMany returning the rejection reason.
func (c *Container) SetManyResult(updates map[string]ir.Value) error {
	return c.Update(func(ir.Snapshot) (map[string]ir.Value, error) {
		return updates, nil
	})
}

// Reset commits the registry's defaults.
func (c *Container) Reset() {
	defaults := c.registry.Defaults()

	c.mu.Lock()
	c.swap(defaults)
	c.mu.Unlock()

	c.notify(defaults)
}

// Update runs fn against a deep copy of the current snapshot while holding
// the write lock, then validates and commits the updates fn returns as one
// all-or-nothing multi-field set.
//
// An error from fn is returned unchanged and nothing is committed. A
// validation failure on the returned updates yields *RejectedError.
func (c *Container) Update(fn func(current ir.Snapshot) (map[string]ir.Value, error)) error {
	c.mu.Lock()

	updates, err := fn(c.current.Clone())
	if err != nil {
		c.mu.Unlock()
		return err
	}

	next := c.current.Clone()
	for _, name := range sortedNames(updates) {
		accepted, err := c.registry.Validate(name, updates[name])
		if err != nil {
			c.mu.Unlock()
			return &RejectedError{Field: name, Err: err}
		}
		next[name] = accepted
	}

	c.swap(next)
	c.mu.Unlock()

	c.notify(next)
	return nil
}

// Subscribe registers an observer and returns a function that removes it.
func (c *Container) Subscribe(fn Observer) (unsubscribe func()) {
	c.obsMu.Lock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	c.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.obsMu.Lock()
			delete(c.observers, id)
			c.obsMu.Unlock()
		})
	}
}

// swap installs next and persists it. Caller holds the write lock so
// snapshots reach the persister in commit order.
func (c *Container) swap(next ir.Snapshot) {
	c.current = next
	if c.persister == nil {
		return
	}
	if err := c.persister.Persist(next.Clone()); err != nil {
		c.logger.Warn("persist snapshot failed", "schema", c.registry.Name(), "error", err)
	}
}

func (c *Container) notify(snap ir.Snapshot) {
	c.obsMu.Lock()
	ids := make([]int, 0, len(c.observers))
	for id := range c.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	observers := make([]Observer, 0, len(ids))
	for _, id := range ids {
		observers = append(observers, c.observers[id])
	}
	c.obsMu.Unlock()

	for _, fn := range observers {
		fn(snap.Clone())
	}
}

// normalize validates a whole snapshot against the registry.
func (c *Container) normalize(snap ir.Snapshot) (ir.Snapshot, error) {
	next := make(ir.Snapshot, len(snap))
	for _, name := range sortedNames(snap) {
		if !c.registry.Has(name) {
			return nil, &RejectedError{Field: name, Err: &schema.UnknownFieldError{Name: name}}
		}
		accepted, err := c.registry.Validate(name, snap[name])
		if err != nil {
			return nil, &RejectedError{Field: name, Err: err}
		}
		next[name] = accepted
	}
	for _, name := range c.registry.Names() {
		if _, ok := next[name]; !ok {
			return nil, &RejectedError{Field: name, Err: fmt.Errorf("field missing from snapshot")}
		}
	}
	return next, nil
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
