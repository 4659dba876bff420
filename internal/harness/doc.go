// Package harness runs YAML editing scenarios against a real store.
//
// A scenario names a CUE schema, then drives a fresh engine.Store through
// a sequence of steps: patches (raw text, as an agent would send), direct
// field writes (as a UI would), resets and history clears. Each step may
// carry an expectation on its outcome. After the steps, the final snapshot
// and the audit history are checked against the scenario's assertions.
//
// Runs are deterministic: audit timestamps come from a
// testutil.DeterministicClock, so the trace of a scenario can be compared
// byte for byte against a golden file.
//
// Example scenario:
//
//	name: contact-basic
//	description: LLM fills the name, then sends an invalid count
//	schema: schemas/contact.cue
//	steps:
//	  - source: llm
//	    patch: '[{"op": "replace", "path": "/name", "value": "Ada"}]'
//	    expect: {success: true, applied: 1}
//	  - source: llm
//	    patch: '[{"op": "replace", "path": "/count", "value": 1.5}]'
//	    expect: {success: false, error_contains: "Invalid value for count"}
//	final_state:
//	  name: Ada
//	assertions:
//	  - type: history_count
//	    count: 2
package harness
