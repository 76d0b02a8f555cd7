package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"example.com/ecomdata/internal/api"
	"example.com/ecomdata/internal/config"
	"example.com/ecomdata/internal/logging"
	"example.com/ecomdata/internal/pipeline"
	"example.com/ecomdata/internal/query"
	"example.com/ecomdata/internal/sqliteutil"
	"example.com/ecomdata/internal/store"
)

func main() {
	var addr string
	cmd := &cobra.Command{
		Use:          "report-api",
		Short:        "Serve table counts and analytical query results over HTTP",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (defaults to api_addr from config)")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func serve(ctx context.Context, addr string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.APIAddr
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ok, err := sqliteutil.Exists(cfg.DBPath)
	if err != nil {
		return err
	}
	if !ok {
		err := fmt.Errorf("%w: %s", store.ErrStoreMissing, cfg.DBPath)
		logger.Error("report api cannot start", zap.Error(err))
		return err
	}
	db, err := sqliteutil.OpenReadOnly(cfg.DBPath)
	if err != nil {
		logger.Error("open store failed", zap.Error(err))
		return err
	}
	defer db.Close()

	metrics := pipeline.NewMetrics(prometheus.DefaultRegisterer)
	serverLogger := logger.With(zap.String("component", "report.http"))
	handler := api.NewServer(
		store.New(db),
		query.NewCatalog(cfg.SQLDir),
		prometheus.DefaultGatherer,
		serverLogger,
		api.WithQueryObserver(metrics.ObserveQuery),
	).Router()
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		serverLogger.Info("report API listening", zap.String("addr", addr), zap.String("db", cfg.DBPath))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			serverLogger.Error("report server error", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		serverLogger.Error("graceful shutdown failed", zap.Error(err))
		return err
	}
	serverLogger.Info("report server stopped")
	return nil
}
