package main

import (
	"context"

	"go.uber.org/zap"

	"example.com/ecomdata/internal/cli"
	"example.com/ecomdata/internal/pipeline"
)

func main() {
	cli.Execute(cli.Command("run-queries", "Run every analytical query against the store and print the results",
		func(ctx context.Context, runner *pipeline.Runner, logger *zap.Logger) error {
			outcomes, err := runner.RunQueries(ctx)
			if err != nil {
				return err
			}
			logger.Info("queries finished", zap.Int("queries", len(outcomes)))
			return nil
		}))
}
