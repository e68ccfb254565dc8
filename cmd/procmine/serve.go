package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Ofi-Services/unified-backend/internal/analytics"
	"github.com/Ofi-Services/unified-backend/internal/config"
	"github.com/Ofi-Services/unified-backend/internal/observability"
	"github.com/Ofi-Services/unified-backend/internal/openapi"
	"github.com/Ofi-Services/unified-backend/internal/report"
	"github.com/Ofi-Services/unified-backend/internal/simulation"
	"github.com/Ofi-Services/unified-backend/internal/transport"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read API over the stored event log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), root, port)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "override server.port")
	return cmd
}

func serve(parent context.Context, root *rootOptions, port int) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	a, err := bootstrap(ctx, root, func(cfg *config.Config) {
		if port != 0 {
			cfg.Server.Port = port
		}
	})
	if err != nil {
		return err
	}
	cfg, logger := a.cfg, a.logger

	index, err := openapi.Load()
	if err != nil {
		a.close(context.Background())
		return fmt.Errorf("openapi: %w", err)
	}
	a.metrics.SetOpenAPIOperationsIndexed(len(index.AllOperationIDs()))

	times := analytics.NewService(a.store, analytics.WithLogger(logger), analytics.WithRecorder(a.metrics))
	handlers := transport.NewHandlers(report.NewService(a.store, times), index, simulation.DefaultGraph(), logger)

	readiness := observability.ReadinessChecks{
		OpenAPILoaded: func() bool { return len(index.AllOperationIDs()) > 0 },
		Store:         a.store,
	}
	if hc, ok := a.cache.(observability.HealthChecker); ok {
		readiness.Cache = hc
	}

	router := transport.NewRouter(transport.Dependencies{
		Config:         cfg,
		Handlers:       handlers,
		Logger:         logger,
		Metrics:        a.metrics,
		Cache:          a.cache,
		HealthHandler:  observability.HandleHealth(),
		ReadyHandler:   observability.HandleReady(readiness),
		MetricsHandler: observability.Handler(),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	logger.Info("server started",
		zap.Int("port", cfg.Server.Port),
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("store", cfg.Store.Driver),
		zap.String("cache", cfg.Cache.Driver),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown initiated")
	case serveErr = <-errCh:
		logger.Error("server error", zap.Error(serveErr))
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
	a.close(shutdownCtx)
	return serveErr
}
