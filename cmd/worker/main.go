package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/darkgooddack/notification-distribution/internal/broker"
	"github.com/darkgooddack/notification-distribution/internal/config"
	"github.com/darkgooddack/notification-distribution/internal/db"
	"github.com/darkgooddack/notification-distribution/internal/metrics"
	"github.com/darkgooddack/notification-distribution/internal/repository"
	"github.com/darkgooddack/notification-distribution/internal/sink"
	"github.com/darkgooddack/notification-distribution/internal/worker"
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
	// The worker assumes the server already applied migrations.
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	// ---- message broker ----
	// An unreachable broker is fatal here: a consumer without a queue has
	// nothing to do, and process supervision handles the restart/backoff.
	amqpBroker, err := broker.Dial(cfg.AMQPURL, logger)
	if err != nil {
		logger.Fatal("failed to connect to broker", zap.Error(err))
	}
	defer amqpBroker.Close()

	// ---- delivery sink ----
	deliverySink, err := sink.New(cfg.SinkKind, cfg.SinkURL, cfg.SinkTimeout, logger)
	if err != nil {
		logger.Fatal("failed to build delivery sink", zap.Error(err))
	}

	// ---- consumer pool ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	onDelivered, onDropped, onRequeued := m.WorkerHooks()

	users := repository.NewPgUserRepository(pool)
	notifications := repository.NewPgNotificationRepository(pool)

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	deliveries, err := amqpBroker.Consume(workerCtx, cfg.TargetQueue, cfg.WorkerCount)
	if err != nil {
		logger.Fatal("failed to start consuming", zap.Error(err))
	}

	consumerPool := worker.NewPool(cfg.WorkerCount, notifications, users, deliverySink, cfg.DeliveryRate, logger, worker.MetricHooks{
		OnDelivered: onDelivered,
		OnDropped:   onDropped,
		OnRequeued:  onRequeued,
	})
	consumerPool.Start(workerCtx, deliveries)
	logger.Info("worker started",
		zap.Int("consumers", cfg.WorkerCount),
		zap.String("queue", cfg.TargetQueue),
	)

	// poolDone fires on graceful shutdown, but also when the broker stream
	// closes underneath the consumers (lost connection).
	poolDone := make(chan struct{})
	go func() {
		consumerPool.Wait()
		close(poolDone)
	}()

	// ---- metrics listener ----
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	metricsSrv := &http.Server{Addr: ":" + cfg.MetricsPort, Handler: mux}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", zap.Error(err))
		}
	}()

	// ---- shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	streamLost := false
	select {
	case <-quit:
		logger.Info("shutdown signal received")
		// 1. Signal consumers to stop pulling new messages.
		cancelWorkers()
		// 2. Wait for in-flight messages to finish (ack or requeue).
		<-poolDone
	case <-poolDone:
		// The consumers only exit on their own when the delivery stream
		// closed underneath them. A worker without a stream must not idle:
		// exiting lets process supervision restart it with a fresh
		// connection.
		streamLost = true
		logger.Error("delivery stream closed, exiting for supervised restart")
	}

	// 3. Stop the metrics listener.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown error", zap.Error(err))
	}

	if streamLost {
		pool.Close()
		logger.Sync() //nolint:errcheck
		os.Exit(1)
	}
	logger.Info("worker stopped cleanly")
}
