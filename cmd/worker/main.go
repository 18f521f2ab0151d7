// Package main is the entry point for the admissions background worker.
// It relays outbox events to candidates and purges delivered messages.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"admissions/internal/config"
	"admissions/internal/domain/candidate"
	"admissions/internal/infrastructure/metrics"
	"admissions/internal/infrastructure/storage/postgres"
	"admissions/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(logger.WithLogger(context.Background(), log))
	defer cancel()

	log.Info("starting admissions worker")

	poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
	poolCfg.MaxConns = 4
	poolCfg.MinConns = 1

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)
	if err := postgres.Migrate(ctx, txManager); err != nil {
		log.Fatalw("failed to migrate database", "error", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	appMetrics := metrics.New(registry)

	notifications := candidate.NewNotificationHandler(candidate.LogSender{})
	relay := postgres.NewOutboxRelay(txManager,
		postgres.OutboxHandlerFunc(func(ctx context.Context, msg *postgres.OutboxMessage) error {
			return notifications.Handle(ctx, msg.EventType, msg.Payload)
		}),
		appMetrics,
		postgres.OutboxRelayConfig{
			BatchSize:    cfg.Worker.BatchSize,
			MaxAttempts:  cfg.Worker.MaxAttempts,
			RetryBackoff: cfg.Worker.RetryBackoff,
		},
	)

	metricsServer := &http.Server{
		Addr:              ":" + cfg.Worker.MetricsPort,
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("metrics server failed", "error", err)
		}
	}()

	worker := NewWorker(relay, cfg.Worker, log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()
	wg.Wait()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	_ = metricsServer.Shutdown(shutdownCtx)

	log.Info("worker stopped")
}

// Relay is the part of the outbox relay the worker drives.
type Relay interface {
	ProcessBatch(ctx context.Context) (int, error)
	PurgePublished(ctx context.Context, retention time.Duration) (int64, error)
}

// Worker polls the outbox until its context is cancelled.
type Worker struct {
	relay  Relay
	config config.WorkerConfig
	log    *logger.Logger
}

func NewWorker(relay Relay, cfg config.WorkerConfig, log *logger.Logger) *Worker {
	return &Worker{
		relay:  relay,
		config: cfg,
		log:    log.WithComponent("worker"),
	}
}

// Run processes the outbox on every poll tick and purges delivered
// messages on every cleanup tick.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	cleanupInterval := w.config.CleanupInterval
	if cleanupInterval <= 0 {
		cleanupInterval = time.Hour
	}
	cleanupTicker := time.NewTicker(cleanupInterval)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drain(ctx)
		case <-cleanupTicker.C:
			w.cleanup(ctx)
		}
	}
}

// drain processes full batches back to back so a backlog clears
// without waiting for the next tick.
func (w *Worker) drain(ctx context.Context) {
	for ctx.Err() == nil {
		n, err := w.relay.ProcessBatch(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				w.log.Errorw("outbox batch failed", "error", err)
			}
			return
		}
		if n > 0 {
			w.log.Debugw("processed outbox batch", "published", n)
		}
		if n < w.config.BatchSize {
			return
		}
	}
}

func (w *Worker) cleanup(ctx context.Context) {
	n, err := w.relay.PurgePublished(ctx, w.config.OutboxRetention)
	if err != nil {
		w.log.Errorw("outbox cleanup failed", "error", err)
		return
	}
	if n > 0 {
		w.log.Infow("purged published outbox messages", "count", n)
	}
}
