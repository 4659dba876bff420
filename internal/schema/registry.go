package schema

import (
	"strings"

	"github.com/roach88/coedit/internal/ir"
)

// FieldDefinition identifies one top-level slot of the shared state.
// Immutable once registered.
type FieldDefinition struct {
	Name      string
	Label     string
	Validator Validator
	Default   ir.Value
}

// Schema is a named, ordered set of field definitions. Order is significant
// for rendered output only, never for validation.
type Schema struct {
	Name   string
	Fields []FieldDefinition
}

// Registry owns the mapping from field name to FieldDefinition.
//
// INVARIANTS:
//   - Field names are unique, non-empty and contain no '/'
//   - Every Default satisfies its field's Validator
//   - The field set never changes after NewRegistry returns
//
// Thread-safety: a Registry is read-only after construction and safe for
// concurrent use.
type Registry struct {
	name   string
	order  []string
	fields map[string]FieldDefinition
}

// NewRegistry registers every field of s at once. There is no partial or
// late registration.
//
// Defaults are validated and stored in their normalized form.
func NewRegistry(s Schema) (*Registry, error) {
	r := &Registry{
		name:   s.Name,
		order:  make([]string, 0, len(s.Fields)),
		fields: make(map[string]FieldDefinition, len(s.Fields)),
	}

	for _, def := range s.Fields {
		if def.Name == "" {
			return nil, &RegistryError{Field: def.Name, Message: "field name is required"}
		}
		if strings.Contains(def.Name, "/") {
			return nil, &RegistryError{Field: def.Name, Message: "field name must not contain '/'"}
		}
		if _, dup := r.fields[def.Name]; dup {
			return nil, &RegistryError{Field: def.Name, Message: "duplicate field name"}
		}
		if def.Validator == nil {
			return nil, &RegistryError{Field: def.Name, Message: "validator is required"}
		}
		if def.Default == nil {
			return nil, &RegistryError{Field: def.Name, Message: "default value is required"}
		}

		accepted, err := def.Validator.Validate(ir.Clone(def.Default))
		if err != nil {
			return nil, &RegistryError{Field: def.Name, Message: "default value is invalid", Err: err}
		}
		def.Default = accepted
		if def.Label == "" {
			def.Label = def.Name
		}

		r.fields[def.Name] = def
		r.order = append(r.order, def.Name)
	}

	return r, nil
}

// Name returns the schema name.
func (r *Registry) Name() string {
	return r.name
}

// Names returns field names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Fields returns field definitions in registration order.
// Defaults are deep copies.
func (r *Registry) Fields() []FieldDefinition {
	out := make([]FieldDefinition, 0, len(r.order))
	for _, name := range r.order {
		def := r.fields[name]
		def.Default = ir.Clone(def.Default)
		out = append(out, def)
	}
	return out
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.fields[name]
	return ok
}

// Field returns the definition for name.
func (r *Registry) Field(name string) (FieldDefinition, bool) {
	def, ok := r.fields[name]
	if ok {
		def.Default = ir.Clone(def.Default)
	}
	return def, ok
}

// Validate delegates to the named field's validator and returns the
// accepted value. Fails with *UnknownFieldError when name is not
// registered and *ValidationError when the value is rejected.
func (r *Registry) Validate(name string, v ir.Value) (ir.Value, error) {
	def, ok := r.fields[name]
	if !ok {
		return nil, &UnknownFieldError{Name: name}
	}
	accepted, err := def.Validator.Validate(v)
	if err != nil {
		return nil, err
	}
	if accepted == nil {
		// Optional field given no value at all.
		accepted = ir.Null{}
	}
	return accepted, nil
}

// Describe returns the classification of the named field's validator.
func (r *Registry) Describe(name string) (Classification, error) {
	def, ok := r.fields[name]
	if !ok {
		return Classification{}, &UnknownFieldError{Name: name}
	}
	return def.Validator.Classify(), nil
}

// Default returns a deep copy of the named field's default value.
func (r *Registry) Default(name string) (ir.Value, error) {
	def, ok := r.fields[name]
	if !ok {
		return nil, &UnknownFieldError{Name: name}
	}
	return ir.Clone(def.Default), nil
}

// Defaults returns a fresh snapshot holding every field's default value.
func (r *Registry) Defaults() ir.Snapshot {
	snap := make(ir.Snapshot, len(r.order))
	for _, name := range r.order {
		snap[name] = ir.Clone(r.fields[name].Default)
	}
	return snap
}
