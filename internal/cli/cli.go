package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"example.com/ecomdata/internal/config"
	"example.com/ecomdata/internal/logging"
	"example.com/ecomdata/internal/pipeline"
)

// StageFunc runs one pipeline stage.
type StageFunc func(ctx context.Context, runner *pipeline.Runner, logger *zap.Logger) error

// Command builds a no-argument command that loads the configuration, builds
// a logger and runner, then runs stage.
func Command(use, short string, stage StageFunc) *cobra.Command {
	return &cobra.Command{
		Use:           use,
		Short:         short,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			defer logger.Sync()

			runner := pipeline.NewRunner(cfg, logger, pipeline.NewMetrics(nil), cmd.OutOrStdout())
			if err := stage(cmd.Context(), runner, logger); err != nil {
				logger.Error(use+" failed", zap.Error(err))
				return err
			}
			return nil
		},
	}
}

// Execute runs cmd with an interrupt-aware context and exits 1 on failure.
func Execute(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", cmd.Name(), err)
		stop()
		os.Exit(1)
	}
}
