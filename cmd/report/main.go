package main

import (
	"context"

	"go.uber.org/zap"

	"example.com/ecomdata/internal/cli"
	"example.com/ecomdata/internal/pipeline"
)

func main() {
	cli.Execute(cli.Command("report", "Print the pipeline report and export it as a workbook",
		func(ctx context.Context, runner *pipeline.Runner, logger *zap.Logger) error {
			summary, err := runner.Report(ctx)
			if err != nil {
				return err
			}
			logger.Info("report ready", zap.String("workbook", summary.Workbook), zap.Strings("warnings", summary.Warnings))
			return nil
		}))
}
