// Package engine implements the coedit Patch Engine.
//
// The engine turns a batch of edit operations into one atomic update of the
// shared state container. Both editors (the human UI and the LLM agent) go
// through the same entry points and observe the same always-valid state.
//
// ARCHITECTURE:
//
// Batch Application Flow:
//  1. Each operation's shape is checked (op, path, value presence)
//  2. The path is split into a root field name and a nested path
//  3. Work happens on deep copies of the touched root values
//  4. Nested writes re-validate the whole root value, not just the leaf
//  5. The first failure aborts the batch; nothing is committed
//  6. On success, every modified root is committed in one multi-field set
//  7. Every attempt, success or failure, is appended to the audit log
//
// CRITICAL PATTERNS:
//
// Atomic Commit: the read of the current snapshot and the commit of the
// candidates run inside one state.Container.Update critical section, so two
// batches can never interleave a read-validate-write cycle.
//
// Total Contract: ApplyPatch and ApplyFromText never return an error and
// never panic. Every outcome is an ir.EditResult.
//
// Store facade: Store bundles the registry, container, audit log and engine
// into the single surface that UI code, the HTTP server and the CLI use.
package engine
