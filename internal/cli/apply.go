package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/coedit/internal/ir"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	Source string // user | llm | system
	File   string // patch file, "-" for stdin
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply [patch-json]",
		Short: "Apply patch text to the shared state",
		Long: `Apply a patch batch to the session state.

The patch is raw text as an LLM would send it: a JSON array of operations,
or an object with a "patch" array. The batch is atomic: either every
operation applies or none does. Every well-formed batch is recorded in the
audit log, accepted or not.

Exit codes:
  0 - Patch applied
  1 - Patch rejected (malformed text, unknown field, invalid value)
  2 - Command error (missing schema, unreadable input, etc.)

Examples:
  coedit apply --schema form.cue --db form.db '[{"op":"replace","path":"/name","value":"Ada"}]'
  coedit apply --schema form.cue --db form.db --source user --file patch.json
  echo '{"patch":[...]}' | coedit apply --schema form.cue --file -`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Source, "source", string(ir.SourceLLM), "edit source (user|llm|system)")
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "read the patch from a file (- for stdin)")

	return cmd
}

func runApply(opts *ApplyOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	source, err := ir.ParseSource(opts.Source)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeInvalidInput, err.Error(), nil)
	}

	raw, err := readPatchText(opts.File, args, cmd.InOrStdin())
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeInvalidInput, err.Error(), nil)
	}

	ctx := cmd.Context()
	sess, err := openSession(ctx, opts.RootOptions, formatter, opts.Logger(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	defer sess.Close()

	result := sess.store.ApplyFromText(ctx, raw, source)
	return outputEditResult(formatter, result)
}

// readPatchText takes the patch from --file, stdin or the single argument.
func readPatchText(file string, args []string, stdin io.Reader) (string, error) {
	switch {
	case file != "" && len(args) > 0:
		return "", fmt.Errorf("give the patch as an argument or with --file, not both")
	case file == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read patch file: %w", err)
		}
		return string(data), nil
	case len(args) == 1:
		return args[0], nil
	default:
		return "", fmt.Errorf("no patch given")
	}
}

// outputEditResult prints result. A rejected patch exits with ExitFailure.
func outputEditResult(formatter *OutputFormatter, result ir.EditResult) error {
	if result.Success {
		return formatter.Render(result, func(w io.Writer) error {
			fmt.Fprintf(w, "✓ Applied %d operation(s)\n", result.Applied)
			return nil
		})
	}

	if formatter.Structured() {
		if err := formatter.Encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error:  &CLIError{Code: string(result.Code), Message: result.Error},
		}); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(formatter.Writer, "✗ Rejected [%s]: %s\n", result.Code, result.Error)
	}
	return NewExitError(ExitFailure, result.Error)
}
