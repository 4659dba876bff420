// Package store provides SQLite-backed durable storage for coedit sessions.
//
// A session binds one registry (by schema name) to:
//   - Snapshots: every committed snapshot, in commit order
//   - Audit entries: the archived history of patch attempts
//
// # Ordering
//
// All queries order by seq INTEGER, never by timestamp, so a resumed
// session sees exactly the order in which things were written.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// The state container and audit log reach the store through Persister and
// AuditSink, which bind a session ID to the state.Persister and audit.Sink
// interfaces.
package store
