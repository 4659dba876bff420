package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/coedit/internal/ir"
	"github.com/roach88/coedit/internal/prompt"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Clear bool
}

// NewStateCommand creates the state command.
func NewStateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Print the current state snapshot",
		Long: `Print the current value of every field.

Without --db this is the schema defaults.

Examples:
  coedit state --schema form.cue --db form.db
  coedit state --schema form.cue --db form.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			sess, err := openSession(cmd.Context(), rootOpts, formatter, rootOpts.Logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer sess.Close()

			return outputSnapshot(formatter, sess)
		},
	}
}

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore every field to its default",
		Long: `Restore every field to its schema default and persist the result.

The audit log is left alone; use "history --clear" for that.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			sess, err := openSession(cmd.Context(), rootOpts, formatter, rootOpts.Logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer sess.Close()

			sess.store.Reset()
			formatter.VerboseLog("Reset %d field(s)", len(sess.store.Registry().Names()))
			return outputSnapshot(formatter, sess)
		},
	}
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print or clear the audit log",
		Long: `Print every recorded patch batch in order, oldest first.

With --clear the log is emptied instead and entry IDs restart at 1.

Examples:
  coedit history --schema form.cue --db form.db
  coedit history --schema form.cue --db form.db --clear`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			sess, err := openSession(cmd.Context(), rootOpts, formatter, rootOpts.Logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer sess.Close()

			if opts.Clear {
				n := len(sess.store.History())
				sess.store.ClearHistory()
				return formatter.Render(map[string]int{"cleared": n}, func(w io.Writer) error {
					fmt.Fprintf(w, "✓ Cleared %d entr%s\n", n, plural(n, "y", "ies"))
					return nil
				})
			}
			return outputHistory(formatter, sess.store.History())
		},
	}

	cmd.Flags().BoolVar(&opts.Clear, "clear", false, "empty the audit log")

	return cmd
}

// NewContextCommand creates the context command.
func NewContextCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "context",
		Short: "Print the LLM context text for the current state",
		Long: `Print the Markdown context block an LLM receives: every field with its
label, value description and current value, then editing instructions.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			sess, err := openSession(cmd.Context(), rootOpts, formatter, rootOpts.Logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer sess.Close()

			text := sess.store.Context()
			return formatter.Render(map[string]string{"context": text}, func(w io.Writer) error {
				_, err := io.WriteString(w, text)
				return err
			})
		},
	}
}

// NewToolSchemaCommand creates the tool-schema command.
func NewToolSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tool-schema",
		Short: "Print the tool definition for LLM function calling",
		Long: `Print the tool definition an LLM uses to submit patches. In text mode
the definition is printed as bare indented JSON, ready to paste into a
tool list.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			reg, err := loadSchema(rootOpts, formatter)
			if err != nil {
				return err
			}

			// The tool definition only depends on the registry.
			tool := prompt.ToolSchema(reg)

			return formatter.Render(tool, func(w io.Writer) error {
				encoder := json.NewEncoder(w)
				encoder.SetIndent("", "  ")
				encoder.SetEscapeHTML(false)
				return encoder.Encode(tool)
			})
		},
	}
}

func outputSnapshot(formatter *OutputFormatter, sess *session) error {
	snap := sess.store.Current()
	return formatter.Render(ir.Object(snap), func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, name := range sess.store.Registry().Names() {
			data, err := ir.MarshalValue(snap[name])
			if err != nil {
				return err
			}
			fmt.Fprintf(tw, "%s\t%s\n", name, data)
		}
		return tw.Flush()
	})
}

func outputHistory(formatter *OutputFormatter, entries []ir.AuditEntry) error {
	return formatter.Render(entries, func(w io.Writer) error {
		if len(entries) == 0 {
			fmt.Fprintln(w, "No history.")
			return nil
		}
		for _, e := range entries {
			ts := time.UnixMilli(e.Timestamp).UTC().Format(time.RFC3339)
			status := fmt.Sprintf("applied %d", e.Result.Applied)
			if !e.Result.Success {
				status = e.Result.Error
			}
			fmt.Fprintf(w, "[%s] %s %-6s %d op(s): %s\n", e.ID, ts, e.Source, len(e.Patch), status)
		}
		return nil
	})
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
