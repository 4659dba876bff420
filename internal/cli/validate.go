package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/coedit/internal/compiler"
	"github.com/roach88/coedit/internal/ir"
	"github.com/roach88/coedit/internal/prompt"
	"github.com/roach88/coedit/internal/schema"
)

// ValidationResult holds the result of schema validation.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Schema string                     `json:"schema,omitempty"`
	Fields []FieldSummary             `json:"fields,omitempty"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// FieldSummary describes one compiled field.
type FieldSummary struct {
	Name        string   `json:"name"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Default     ir.Value `json:"default"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <schema.cue>",
		Short: "Validate a CUE schema file",
		Long: `Compile a CUE schema file and check it for contradictory constraints.

Reports compile errors with their source line, then lints the compiled
schema (inverted ranges, empty enums, duplicate names). On success the
compiled fields are listed with their value descriptions.

Exit codes:
  0 - Schema is valid
  1 - Schema failed to compile or lint
  2 - Command error (file not found, etc.)

Examples:
  coedit validate ./contact.cue
  coedit validate ./contact.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return formatter.fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("schema not found: %s", path), nil)
	}

	formatter.VerboseLog("Compiling %s", path)
	s, err := compiler.LoadFile(path)
	if err != nil {
		return outputValidationErrors(formatter, []compiler.ValidationError{compileErrorToValidation(err)})
	}

	formatter.VerboseLog("Linting %d field(s)", len(s.Fields))
	if errs := compiler.Validate(s); len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}

	// The lint pass catches most registry failures with a better message;
	// anything left (a default that fails its validator) surfaces here.
	reg, err := schema.NewRegistry(*s)
	if err != nil {
		return outputValidationErrors(formatter, []compiler.ValidationError{{
			Field:   "schema",
			Message: err.Error(),
			Code:    compiler.ErrCodeRegistryFailure,
		}})
	}

	return outputValidateSuccess(formatter, reg)
}

// compileErrorToValidation converts a compile failure to the lint error shape
// so both are reported the same way.
func compileErrorToValidation(err error) compiler.ValidationError {
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		msg := ce.Message
		if ce.Err != nil {
			msg = fmt.Sprintf("%s: %v", ce.Message, ce.Err)
		}
		if line := ce.Line(); line > 0 {
			msg = fmt.Sprintf("line %d: %s", line, msg)
		}
		return compiler.ValidationError{Field: ce.Field, Message: msg, Code: ce.Code}
	}
	return compiler.ValidationError{Field: "schema", Message: err.Error(), Code: ErrCodeGeneric}
}

func summarizeFields(reg *schema.Registry) []FieldSummary {
	fields := reg.Fields()
	out := make([]FieldSummary, 0, len(fields))
	for _, def := range fields {
		out = append(out, FieldSummary{
			Name:        def.Name,
			Label:       def.Label,
			Description: prompt.Describe(def.Validator.Classify()),
			Default:     def.Default,
		})
	}
	return out
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, reg *schema.Registry) error {
	result := ValidationResult{
		Valid:  true,
		Schema: reg.Name(),
		Fields: summarizeFields(reg),
	}

	return formatter.Render(result, func(w io.Writer) error {
		fmt.Fprintf(w, "✓ Schema valid: %s (%d fields)\n\n", result.Schema, len(result.Fields))
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, f := range result.Fields {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", f.Name, f.Label, f.Description)
		}
		return tw.Flush()
	})
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	if formatter.Structured() {
		response := CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:  false,
				Errors: errs,
			},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}
		if err := formatter.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n", err.Code, err.Field, err.Message)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
