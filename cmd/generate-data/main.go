package main

import (
	"context"

	"go.uber.org/zap"

	"example.com/ecomdata/internal/cli"
	"example.com/ecomdata/internal/pipeline"
)

func main() {
	cli.Execute(cli.Command("generate-data", "Generate the synthetic dataset and write one CSV per entity",
		func(ctx context.Context, runner *pipeline.Runner, logger *zap.Logger) error {
			files, err := runner.Generate(ctx)
			if err != nil {
				return err
			}
			logger.Info("dataset generated", zap.Any("files", files))
			return nil
		}))
}
