package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/coedit/internal/engine"
	"github.com/roach88/coedit/internal/metrics"
	"github.com/roach88/coedit/internal/server"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr      string
	NoMetrics bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the shared state over HTTP",
		Long: `Serve the session over HTTP so a UI and an LLM agent can edit it.

Routes:
  GET    /state          current snapshot
  POST   /patch          apply the body as patch text (?source=user|llm|system)
  PUT    /fields/:name   set one field directly (not audited)
  POST   /reset          restore defaults
  GET    /history        audit log
  DELETE /history        clear the audit log
  GET    /context        LLM context text
  GET    /tool-schema    LLM tool definition
  GET    /metrics        Prometheus metrics (unless --no-metrics)

Stops gracefully on SIGINT or SIGTERM.

Examples:
  coedit serve --schema form.cue --db form.db --addr :8080`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&opts.NoMetrics, "no-metrics", false, "do not expose /metrics")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := opts.Logger(cmd.ErrOrStderr())

	var engineOpts []engine.Option
	serverOpts := []server.Option{server.WithLogger(logger)}
	if !opts.NoMetrics {
		m := metrics.New(true)
		engineOpts = append(engineOpts, engine.WithMetrics(m))
		serverOpts = append(serverOpts, server.WithMetrics(m))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := openSession(ctx, opts.RootOptions, formatter, logger, engineOpts...)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := server.New(sess.store, serverOpts...).Run(ctx, opts.Addr); err != nil {
		return WrapExitError(ExitCommandError, "server failed", err)
	}
	return nil
}
