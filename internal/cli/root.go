package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/coedit/internal/ir"
)

// Environment variables consulted when --schema or --db are not given.
const (
	EnvSchema = "COEDIT_SCHEMA"
	EnvDB     = "COEDIT_DB"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "text" | "json" | "yaml"
	Schema  string // path to the CUE schema file
	DB      string // path to the SQLite session database; empty means in-memory
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// NewRootCommand creates the root command for the coedit CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "coedit",
		Version: ir.EngineVersion,
		Short:   "coedit - shared, schema-validated state for a human and an LLM",
		Long: `A shared object that a human UI and an LLM agent both edit.

Every edit is checked against a CUE field schema. LLM edits arrive as
atomic patch batches and every batch is recorded in an audit log.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			opts.applyEnv()
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	cmd.PersistentFlags().StringVar(&opts.Schema, "schema", "", "CUE schema file (env "+EnvSchema+")")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "SQLite session database (env "+EnvDB+")")

	// Add subcommands
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewApplyCommand(opts))
	cmd.AddCommand(NewStateCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewContextCommand(opts))
	cmd.AddCommand(NewToolSchemaCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// applyEnv fills Schema and DB from the environment when the flags are unset.
func (o *RootOptions) applyEnv() {
	if o.Schema == "" {
		o.Schema = os.Getenv(EnvSchema)
	}
	if o.DB == "" {
		o.DB = os.Getenv(EnvDB)
	}
}

// Logger returns a text logger on w. Verbose lowers the level to debug.
func (o *RootOptions) Logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
