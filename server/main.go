package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitlab.connectwisedev.com/inventory-service/pkg/bootstrap"
	"gitlab.connectwisedev.com/inventory-service/pkg/config"
	"gitlab.connectwisedev.com/inventory-service/pkg/grpcserver"
	"gitlab.connectwisedev.com/inventory-service/pkg/httpapi"
	"gitlab.connectwisedev.com/inventory-service/pkg/logger"
)

const readinessInterval = 10 * time.Second

func main() {
	config.LoadEnv(logger.Bootstrap()) // Load environment variables first
	cfg := config.Load()
	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize service")
	}
	defer deps.Close()

	if cfg.GRPCAddr != "" {
		health := grpcserver.New(cfg.GRPCAddr, log)
		go health.Monitor(ctx, readinessInterval, deps.Catalog.Ready)
		go func() {
			if err := health.Start(); err != nil {
				log.Error().Err(err).Msg("gRPC health server stopped")
			}
		}()
		defer health.Stop()
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(deps.App(), cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("inventory service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
