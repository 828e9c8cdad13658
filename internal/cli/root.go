package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"regie/internal/platform/config"
	"regie/internal/platform/logging"
)

type rootState struct {
	cfg    config.Config
	logger *zap.Logger
}

// NewRootCommand builds the regie command tree. Running it without a
// subcommand starts the server.
func NewRootCommand() *cobra.Command {
	state := &rootState{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "regie",
		Short:         "Payroll overhead (social charges) service for production budgets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			state.cfg = config.Load()
			logger, err := logging.New(state.cfg.Environment, state.cfg.LogLevel)
			if err != nil {
				return err
			}
			state.logger = logger
			zap.ReplaceGlobals(logger)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = state.logger.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), state)
		},
	}

	root.AddCommand(
		newServeCommand(state),
		newMigrateCommand(state),
		newSeedCommand(state),
		newCalcCommand(),
		newTokenCommand(state),
	)
	return root
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
