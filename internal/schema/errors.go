package schema

import (
	"fmt"
	"strings"
)

// UnknownFieldError is returned when a field name is not registered.
type UnknownFieldError struct {
	Name string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("Unknown field: %s", e.Name)
}

// ValidationError reports a value rejected by a validator.
// Path locates the offending value inside the validated value; it is empty
// when the value itself was rejected.
type ValidationError struct {
	Path    []string
	Message string
}

func (e *ValidationError) Error() string {
	if len(e.Path) == 0 {
		return e.Message
	}
	return strings.Join(e.Path, ".") + ": " + e.Message
}

// RegistryError reports an invalid schema passed to NewRegistry.
type RegistryError struct {
	Field   string
	Message string
	Err     error
}

func (e *RegistryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("field %q: %s: %v", e.Field, e.Message, e.Err)
	}
	return fmt.Sprintf("field %q: %s", e.Field, e.Message)
}

func (e *RegistryError) Unwrap() error {
	return e.Err
}

// failf creates a ValidationError at the root of the validated value.
func failf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// nest prefixes a nested validation error's path with segment.
func nest(segment string, err error) error {
	if ve, ok := err.(*ValidationError); ok {
		path := make([]string, 0, len(ve.Path)+1)
		path = append(path, segment)
		path = append(path, ve.Path...)
		return &ValidationError{Path: path, Message: ve.Message}
	}
	return &ValidationError{Path: []string{segment}, Message: err.Error()}
}
