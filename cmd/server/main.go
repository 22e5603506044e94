package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/darkgooddack/notification-distribution/internal/api"
	"github.com/darkgooddack/notification-distribution/internal/auth"
	"github.com/darkgooddack/notification-distribution/internal/broker"
	"github.com/darkgooddack/notification-distribution/internal/cache"
	"github.com/darkgooddack/notification-distribution/internal/config"
	"github.com/darkgooddack/notification-distribution/internal/db"
	"github.com/darkgooddack/notification-distribution/internal/metrics"
	"github.com/darkgooddack/notification-distribution/internal/repository"
	"github.com/darkgooddack/notification-distribution/internal/service"
	"github.com/darkgooddack/notification-distribution/internal/token"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// ---- database ----
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database migrations applied")

	// ---- credential cache ----
	// An unreachable cache degrades the feature instead of blocking startup:
	// auth falls back to signature-only validation.
	var tokenCache cache.TokenCache = cache.Disabled{}
	if cfg.TokenCacheEnabled {
		redisCache, err := cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("redis unreachable, continuing without the token cache", zap.Error(err))
		} else {
			defer redisCache.Close()
			tokenCache = redisCache
			logger.Info("token cache connected")
		}
	} else {
		logger.Info("token cache disabled by configuration")
	}

	// ---- message broker ----
	amqpBroker, err := broker.Dial(cfg.AMQPURL, logger)
	if err != nil {
		logger.Fatal("failed to connect to broker", zap.Error(err))
	}
	defer amqpBroker.Close()

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	users := repository.NewPgUserRepository(pool)
	notifications := repository.NewPgNotificationRepository(pool)

	tokens := token.NewManager(cfg.JWTSecret, cfg.AccessTokenExpiry)
	authSvc := auth.NewService(users, tokens, tokenCache, logger)

	onPublished, onPublishFailed := m.PublisherHooks()
	notifSvc := service.NewNotificationService(
		notifications, users, amqpBroker, cfg.TargetQueue, logger,
		service.MetricHooks{OnPublished: onPublished, OnPublishFailed: onPublishFailed},
	)

	// ---- HTTP server ----
	router := api.NewRouter(authSvc, notifSvc, amqpBroker, cfg.TargetQueue, reg, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	logger.Info("server stopped cleanly")
}
