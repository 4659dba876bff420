package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/coedit/internal/ir"
)

// PatchError represents a rejected patch.
//
// The Message is the exact user-visible reason carried by the failure
// EditResult; Code classifies it for programmatic callers.
type PatchError struct {
	// Code identifies the error category.
	Code ir.ErrorCode

	// Message is the human-readable reason, e.g. "Unknown field: foo".
	Message string

	// Field is the root field the failing operation addressed, if any.
	Field string

	// Index is the position of the failing operation in the batch, or -1
	// when the failure is not tied to one operation.
	Index int

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *PatchError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *PatchError) Unwrap() error {
	return e.Err
}

// Result converts the error into a failure EditResult.
func (e *PatchError) Result() ir.EditResult {
	return ir.Failed(e.Code, e.Message)
}

// IsPatchError checks if an error is a PatchError with the given code.
func IsPatchError(err error, code ir.ErrorCode) bool {
	var pe *PatchError
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}

// Message constructors keep the user-visible wording in one place.

func unknownField(index int, name string) *PatchError {
	return &PatchError{
		Code:    ir.ErrUnknownField,
		Message: fmt.Sprintf("Unknown field: %s", name),
		Field:   name,
		Index:   index,
	}
}

func invalidValue(index int, field string, err error) *PatchError {
	return &PatchError{
		Code:    ir.ErrValidationFailure,
		Message: fmt.Sprintf("Invalid value for %s: %v", field, err),
		Field:   field,
		Index:   index,
		Err:     err,
	}
}

func malformedOperation(index int, reason string) *PatchError {
	return &PatchError{
		Code:    ir.ErrMalformedInput,
		Message: fmt.Sprintf("Invalid operation at index %d: %s", index, reason),
		Index:   index,
	}
}

func commitFailure(err error) *PatchError {
	return &PatchError{
		Code:    ir.ErrCommitFailure,
		Message: "Failed to commit changes to store",
		Index:   -1,
		Err:     err,
	}
}

// Text-level failures. These happen before the engine is entered and are
// not audited.

func parseError(err error) *PatchError {
	return &PatchError{
		Code:    ir.ErrMalformedInput,
		Message: fmt.Sprintf("JSON parse error: %v", err),
		Index:   -1,
		Err:     err,
	}
}

func shapeError(err error) *PatchError {
	return &PatchError{
		Code:    ir.ErrMalformedInput,
		Message: "Expected JSON Patch array or { patch: [...] } format",
		Index:   -1,
		Err:     err,
	}
}
