// Package main is the entry point for the back-office background worker.
// It relays the transactional outbox and purges expired rows.
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
	"github.com/redis/go-redis/v9"

	"backoffice/internal/config"
	"backoffice/internal/infrastructure/metrics"
	"backoffice/internal/infrastructure/notify"
	"backoffice/internal/infrastructure/storage/postgres"
	"backoffice/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.IsDev(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	if !cfg.DB.Enabled() {
		log.Fatal("DATABASE_URL is required for the worker")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting backoffice worker")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	poolCfg := postgres.DefaultPoolConfig(cfg.DB.URL)
	poolCfg.MaxConns = 5
	poolCfg.MinConns = 1
	poolCfg.ApplicationName = "backoffice-worker"
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)

	auditSink, err := postgres.NewAuditSink(txManager, cfg.Audit.CompressThreshold)
	if err != nil {
		log.Fatalw("failed to initialize audit sink", "error", err)
	}

	handler := notify.LogHandler
	if cfg.Redis.Enabled() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatalw("failed to connect to redis", "addr", cfg.Redis.Addr, "error", err)
		}
		handler = notify.NewRedisPublisher(client, cfg.Outbox.Channel)
	} else {
		log.Info("REDIS_ADDR not set, outbox messages are only logged")
	}

	worker := &Worker{
		relay:       postgres.NewOutboxRelay(txManager, cfg.Outbox.BatchSize, notify.Observed(handler, m)),
		audit:       auditSink,
		idempotency: postgres.NewIdempotencyStore(txManager, cfg.Idempotency.TTL),
		cfg:         cfg,
		log:         log.WithComponent("worker"),
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	var metricsServer *http.Server
	if cfg.Worker.MetricsPort != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		metricsServer = &http.Server{
			Addr:              ":" + cfg.Worker.MetricsPort,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorw("metrics server failed", "error", err)
			}
		}()
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = metricsServer.Shutdown(shutdownCtx)
		shutdownCancel()
	}

	wg.Wait()
	log.Info("worker stopped")
}

// Worker relays the outbox on a short interval and purges old rows hourly.
type Worker struct {
	relay       *postgres.OutboxRelay
	audit       *postgres.AuditSink
	idempotency *postgres.IdempotencyStore
	cfg         *config.Config
	log         *logger.Logger
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.Outbox.PollInterval)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(w.cfg.Worker.CleanupInterval)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processOutbox(ctx)
		case <-cleanupTicker.C:
			w.cleanup(ctx)
		}
	}
}

// processOutbox drains full batches so a backlog clears within one tick.
func (w *Worker) processOutbox(ctx context.Context) {
	for ctx.Err() == nil {
		n, err := w.relay.ProcessBatch(ctx)
		if err != nil {
			w.log.Errorw("outbox batch failed", "error", err)
			return
		}
		if n > 0 {
			w.log.Debugw("processed outbox batch", "count", n)
		}
		if n < w.cfg.Outbox.BatchSize {
			return
		}
	}
}

func (w *Worker) cleanup(ctx context.Context) {
	now := time.Now()

	if n, err := w.relay.PurgePublished(ctx, now.Add(-w.cfg.Outbox.Retention)); err != nil {
		w.log.Errorw("failed to purge outbox", "error", err)
	} else if n > 0 {
		w.log.Infow("purged published outbox messages", "count", n)
	}

	if n, err := w.audit.Purge(ctx, now.Add(-w.cfg.Audit.Retention)); err != nil {
		w.log.Errorw("failed to purge audit log", "error", err)
	} else if n > 0 {
		w.log.Infow("purged audit events", "count", n)
	}

	if n, err := w.idempotency.CleanupExpired(ctx); err != nil {
		w.log.Errorw("failed to clean up idempotency keys", "error", err)
	} else if n > 0 {
		w.log.Infow("cleaned up idempotency keys", "count", n)
	}
}
