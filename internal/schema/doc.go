// Package schema defines field validators and the Field Registry.
//
// A Validator is one of a closed set of variants (String, Number, Boolean,
// Enum, Array, Object, Optional). Each variant validates a value, returning
// the normalized value on success, and exposes its declared constraints
// through Classify so formatters never inspect validator internals.
//
// The Registry owns the mapping from top-level field name to
// FieldDefinition. It is built once from a Schema and never changes.
package schema
