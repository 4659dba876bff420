// Package audit keeps the append-only history of patch-application
// attempts. Every attempt is recorded, successful or not.
package audit

import (
	"log/slog"
	"strconv"
	"sync"

	"github.com/roach88/coedit/internal/ir"
)

// Sink receives each entry after it is recorded, e.g. a durable archive.
type Sink interface {
	Append(entry ir.AuditEntry) error
}

// Clearer is implemented by sinks that can drop their archived entries
// when the log is cleared.
type Clearer interface {
	Clear() error
}

// Log is an append-only, queryable history scoped to one store instance.
//
// INVARIANTS:
//   - IDs are "1", "2", ... in record order and reset to "1" after Clear
//   - No entry is ever mutated or removed individually
//   - Recorded patches are deep copies; later caller mutation cannot alter history
type Log struct {
	clock  Clock
	sink   Sink
	logger *slog.Logger

	mu      sync.RWMutex
	ids     idCounter
	entries []ir.AuditEntry
}

// Option configures a Log.
type Option func(*Log)

// WithClock sets the timestamp source. Defaults to SystemClock.
func WithClock(c Clock) Option {
	return func(l *Log) {
		l.clock = c
	}
}

// WithSink forwards every recorded entry to s. Sink errors are logged and
// never returned to the caller.
func WithSink(s Sink) Option {
	return func(l *Log) {
		l.sink = s
	}
}

// WithLogger sets the logger used to report sink failures.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Log) {
		l.logger = logger
	}
}

// WithEntries seeds the log with previously archived entries, e.g. when
// resuming a persisted session. The ID counter continues after the highest
// seeded ID.
func WithEntries(entries []ir.AuditEntry) Option {
	return func(l *Log) {
		for _, e := range entries {
			l.entries = append(l.entries, cloneEntry(e))
			if id, err := strconv.ParseInt(e.ID, 10, 64); err == nil && id > l.ids.current() {
				l.ids.seq.Store(id)
			}
		}
	}
}

// New creates an empty Log whose first entry gets ID "1".
func New(opts ...Option) *Log {
	l := &Log{
		clock:  SystemClock{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record appends an entry for one attempt and returns it.
func (l *Log) Record(patch ir.Patch, source ir.Source, result ir.EditResult) ir.AuditEntry {
	l.mu.Lock()
	entry := ir.AuditEntry{
		ID:        strconv.FormatInt(l.ids.next(), 10),
		Timestamp: l.clock.NowMillis(),
		Patch:     patch.Clone(),
		Source:    source,
		Result:    result,
	}
	l.entries = append(l.entries, entry)

	// Under the lock so the sink sees entries in ID order.
	if l.sink != nil {
		if err := l.sink.Append(cloneEntry(entry)); err != nil {
			l.logger.Warn("audit sink append failed", "id", entry.ID, "error", err)
		}
	}
	l.mu.Unlock()

	return cloneEntry(entry)
}

// All returns a copy of every entry, oldest first.
func (l *Log) All() []ir.AuditEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]ir.AuditEntry, len(l.entries))
	for i, e := range l.entries {
		out[i] = cloneEntry(e)
	}
	return out
}

// Len returns the number of recorded entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Clear empties the log and resets the ID counter so the next entry is "1".
// A sink implementing Clearer is cleared too.
func (l *Log) Clear() {
	l.mu.Lock()
	l.entries = nil
	l.ids.reset()

	if c, ok := l.sink.(Clearer); ok {
		if err := c.Clear(); err != nil {
			l.logger.Warn("audit sink clear failed", "error", err)
		}
	}
	l.mu.Unlock()
}

func cloneEntry(e ir.AuditEntry) ir.AuditEntry {
	e.Patch = e.Patch.Clone()
	return e
}
