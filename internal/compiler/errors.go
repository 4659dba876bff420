package compiler

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Compile error codes (E100-E199)
const (
	ErrCodeCUE             = "E100" // CUE syntax or evaluation error
	ErrCodeMissingName     = "E101" // schema name is required
	ErrCodeNoFields        = "E102" // at least one field required
	ErrCodeInvalidType     = "E103" // unknown or missing field type
	ErrCodeInvalidDefault  = "E104" // default missing or not concrete
	ErrCodeInvalidOption   = "E105" // constraint has the wrong type
	ErrCodeInvalidPattern  = "E106" // pattern is not a valid regexp
	ErrCodeInvalidCheck    = "E107" // unknown or malformed object check
	ErrCodeRegistryFailure = "E108" // registry rejected the compiled schema
)

// CompileError represents a compilation error with source position.
type CompileError struct {
	Code    string
	Field   string
	Message string
	Pos     token.Pos
	Err     error
}

func (e *CompileError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, msg)
	}
	return fmt.Sprintf("%s: %s", e.Field, msg)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// Line returns the 1-based source line, or 0 when unknown.
func (e *CompileError) Line() int {
	if e.Pos.IsValid() {
		return e.Pos.Line()
	}
	return 0
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(field string, err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &CompileError{Code: ErrCodeCUE, Field: field, Message: err.Error()}
	}

	// Return first error with position info
	firstErr := errs[0]
	ce := &CompileError{Code: ErrCodeCUE, Field: field, Message: firstErr.Error()}
	if positions := errors.Positions(firstErr); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}
