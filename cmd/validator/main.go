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

	"github.com/boddenberg/card-validation-bfa-go/internal/app"
	"github.com/boddenberg/card-validation-bfa-go/internal/config"
	"github.com/boddenberg/card-validation-bfa-go/internal/infra/observability"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel, "card-validation-bfa")
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("marca_api_url", cfg.MarcaAPIURL),
		zap.Duration("marca_timeout", cfg.MarcaTimeout),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Int("max_concurrency", cfg.MaxConcurrency),
		zap.Bool("strict_contract", cfg.StrictContract),
		zap.Bool("allow_zero_amount", cfg.AllowZeroAmount),
		zap.Bool("outbound_auth", cfg.MarcaAuthSecret != ""),
	)

	// --- Tracing ---
	shutdownTracer, err := observability.InitTracer(cfg.OTLPEndpoint, "card-validation-bfa")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdownTracer(context.Background())

	// --- Pipeline ---
	application := app.New(cfg, nil, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      application.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.MarcaTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	// --- Graceful shutdown ---
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("server shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}

	logger.Info("server stopped")
}
