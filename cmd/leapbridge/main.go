package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/leapbridge/leapbridge/internal/app"
	"github.com/leapbridge/leapbridge/internal/leap"
	"github.com/leapbridge/leapbridge/internal/observability"
	"github.com/leapbridge/leapbridge/internal/relay"
	"github.com/leapbridge/leapbridge/internal/shared"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	var dedup *shared.IdempotencyStore
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis ping, continuing without delivery dedup", slog.Any("error", err))
		} else {
			dedup = shared.NewIdempotencyStore(redisClient, cfg.DedupTTL)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	crm := leap.NewClient(cfg.LeapBaseURL, cfg.LeapAPIKey)
	metrics := observability.NewMetrics()

	verifier := relay.NewSignatureVerifier(cfg.WebhookSecret)
	if !verifier.Enabled() {
		logger.Warn("webhook secret not configured, accepting unsigned deliveries")
	}

	service := relay.NewService(logger, crm, dedup, metrics, cfg.LeapNoSaleStatus)
	relayHandler := relay.NewHandler(logger, service, verifier, metrics, !cfg.IsProduction())

	router := app.NewRouter(app.RouterParams{
		Logger:       logger,
		Config:       cfg,
		RelayHandler: relayHandler,
		Metrics:      metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
