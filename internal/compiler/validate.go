package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/coedit/internal/schema"
)

// Validation error codes (E200-E299)
const (
	ErrDuplicateField   = "E201" // duplicate top-level field name
	ErrInvalidFieldName = "E202" // empty name or name containing '/'
	ErrInvertedRange    = "E203" // min greater than max
	ErrInvertedLength   = "E204" // minLength greater than maxLength
	ErrInvertedItems    = "E205" // minItems greater than maxItems
	ErrEmptyEnum        = "E206" // enum without values
	ErrDuplicateEnum    = "E207" // enum value listed twice
	ErrDuplicateProp    = "E208" // object property declared twice
	ErrNegativeBound    = "E209" // length or item bound below zero
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled schema for constraints that can never be
// satisfied or are ambiguous. Returns all errors found (does not fail-fast).
//
// CompileSchema already rejects malformed input; Validate catches schemas
// that compile but are contradictory, like min: 10, max: 1.
func Validate(s *schema.Schema) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool, len(s.Fields))

	for _, def := range s.Fields {
		path := "fields." + def.Name
		if def.Name == "" || strings.Contains(def.Name, "/") {
			errs = append(errs, ValidationError{
				Field:   path,
				Message: "field name must be non-empty and must not contain '/'",
				Code:    ErrInvalidFieldName,
			})
		}
		if seen[def.Name] {
			errs = append(errs, ValidationError{
				Field:   path,
				Message: fmt.Sprintf("duplicate field name %q", def.Name),
				Code:    ErrDuplicateField,
			})
		}
		seen[def.Name] = true

		if def.Validator != nil {
			errs = append(errs, validateClassification(path, def.Validator.Classify())...)
		}
	}

	return errs
}

func validateClassification(path string, c schema.Classification) []ValidationError {
	var errs []ValidationError
	k := c.Constraints

	if k.Min != nil && k.Max != nil && *k.Min > *k.Max {
		errs = append(errs, ValidationError{
			Field:   path,
			Message: fmt.Sprintf("min %v is greater than max %v", *k.Min, *k.Max),
			Code:    ErrInvertedRange,
		})
	}
	errs = append(errs, checkBounds(path, "length", k.MinLength, k.MaxLength, ErrInvertedLength)...)
	errs = append(errs, checkBounds(path, "items", k.MinItems, k.MaxItems, ErrInvertedItems)...)

	if c.Kind == schema.KindEnum {
		if len(k.Enum) == 0 {
			errs = append(errs, ValidationError{Field: path, Message: "enum requires at least one value", Code: ErrEmptyEnum})
		}
		seen := make(map[string]bool, len(k.Enum))
		for _, v := range k.Enum {
			if seen[v] {
				errs = append(errs, ValidationError{
					Field:   path,
					Message: fmt.Sprintf("enum value %q listed more than once", v),
					Code:    ErrDuplicateEnum,
				})
			}
			seen[v] = true
		}
	}

	if c.Inner != nil {
		inner := path
		if c.Kind == schema.KindArray {
			inner = path + ".items"
		}
		errs = append(errs, validateClassification(inner, *c.Inner)...)
	}

	props := make(map[string]bool, len(c.Properties))
	for _, prop := range c.Properties {
		propPath := path + ".fields." + prop.Name
		if props[prop.Name] {
			errs = append(errs, ValidationError{
				Field:   propPath,
				Message: fmt.Sprintf("property %q declared more than once", prop.Name),
				Code:    ErrDuplicateProp,
			})
		}
		props[prop.Name] = true
		errs = append(errs, validateClassification(propPath, prop.Classification)...)
	}

	return errs
}

func checkBounds(path, what string, lo, hi *int, code string) []ValidationError {
	var errs []ValidationError
	if (lo != nil && *lo < 0) || (hi != nil && *hi < 0) {
		errs = append(errs, ValidationError{
			Field:   path,
			Message: fmt.Sprintf("%s bounds must not be negative", what),
			Code:    ErrNegativeBound,
		})
	}
	if lo != nil && hi != nil && *lo > *hi {
		errs = append(errs, ValidationError{
			Field:   path,
			Message: fmt.Sprintf("min %s %d is greater than max %s %d", what, *lo, what, *hi),
			Code:    code,
		})
	}
	return errs
}
