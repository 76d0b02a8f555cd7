package main

import (
	"context"

	"go.uber.org/zap"

	"example.com/ecomdata/internal/cli"
	"example.com/ecomdata/internal/pipeline"
)

func main() {
	cli.Execute(cli.Command("ingest-data", "Rebuild the SQLite store from the exchange files",
		func(ctx context.Context, runner *pipeline.Runner, logger *zap.Logger) error {
			tables, err := runner.Ingest(ctx)
			if err != nil {
				return err
			}
			logger.Info("store rebuilt", zap.Any("tables", tables))
			return nil
		}))
}
