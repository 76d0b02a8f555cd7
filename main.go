package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"example.com/ecomdata/internal/config"
	"example.com/ecomdata/internal/logging"
	"example.com/ecomdata/internal/pipeline"
)

// Runs the whole pipeline once as a Temporal workflow, hosting the worker
// in-process against a local Temporal server.
func main() {
	var input pipeline.WorkflowInput
	cmd := &cobra.Command{
		Use:          "ecom-pipeline",
		Short:        "Run generate, ingest, run-queries and report as one Temporal workflow",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cmd, input)
		},
	}
	cmd.Flags().BoolVar(&input.SkipGenerate, "skip-generate", false, "reuse the existing exchange files")
	cmd.Flags().BoolVar(&input.SkipReport, "skip-report", false, "stop after running the queries")
	cmd.Flags().StringVar(&input.Reason, "reason", "manual", "free-form label recorded in workflow logs")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cobra.Command, input pipeline.WorkflowInput) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync()

	c, err := client.Dial(client.Options{
		HostPort: cfg.TemporalHostPort,
		Logger:   logging.NewTemporalLogger(logger.With(zap.String("component", "temporal"))),
	})
	if err != nil {
		logger.Error("connect temporal failed", zap.String("host_port", cfg.TemporalHostPort), zap.Error(err))
		return err
	}
	defer c.Close()

	runner := pipeline.NewRunner(cfg, logger, pipeline.NewMetrics(nil), cmd.OutOrStdout())
	w := pipeline.RegisterPipelineWorker(c, cfg.TaskQueue, runner, logger)
	if err := w.Start(); err != nil {
		logger.Error("start worker failed", zap.Error(err))
		return err
	}
	defer w.Stop()

	result, err := pipeline.NewTemporalOrchestrator(c, cfg.TaskQueue, logger).Run(ctx, input)
	if err != nil {
		return err
	}
	logger.Info("pipeline finished",
		zap.String("workflow_id", result.WorkflowID),
		zap.Any("tables", result.Tables),
		zap.Int("queries", len(result.Queries)),
	)
	return nil
}
