// Package main is the entry point for the back-office API server.
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
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"backoffice/internal/config"
	corelock "backoffice/internal/core/lock"
	"backoffice/internal/domain"
	"backoffice/internal/domain/auth"
	"backoffice/internal/domain/documents/purchase_order"
	"backoffice/internal/domain/documents/sales_return"
	"backoffice/internal/domain/documents/stock_transfer"
	"backoffice/internal/domain/policy"
	"backoffice/internal/domain/registers/stock"
	v1 "backoffice/internal/infrastructure/http/v1"
	"backoffice/internal/infrastructure/lock"
	"backoffice/internal/infrastructure/metrics"
	"backoffice/pkg/logger"
	"backoffice/pkg/numerator"
)

const devJWTSecret = "development-secret-change-me"

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Infow("starting backoffice server", "env", cfg.App.Env, "version", cfg.App.Version)

	// --- Metrics ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// --- Storage ---
	var store *backend
	if cfg.DB.Enabled() {
		store, err = newPostgresBackend(ctx, cfg)
		if err != nil {
			log.Fatalw("failed to initialize database", "error", err)
		}
	} else {
		store = newMemoryBackend(ctx, cfg)
	}
	defer store.close()

	// --- Key locks ---
	locker, closeLocker := newLocker(ctx, cfg, log)
	defer closeLocker()

	// --- Domain services ---
	stockService := stock.NewService(store.stock, locker)
	stockService.SetObserver(m)

	numbers := func(prefix string, s numerator.Store) *numerator.Service {
		return numerator.New(numerator.DefaultConfig(prefix), s, numerator.WithMaxRetries(cfg.Numbers.MaxRetries))
	}

	purchaseOrders := purchase_order.NewService(
		store.purchaseOrders, stockService,
		numbers("PO", store.purchaseOrderNumbers),
		store.txManager, store.events,
	)
	observeTransitions(purchaseOrders.Hooks(), m, purchase_order.DocumentType, func(po *purchase_order.PurchaseOrder) string {
		return string(po.Status)
	})

	transfers := stock_transfer.NewService(
		store.transfers, stockService,
		numbers("TRF", store.transferNumbers),
		store.txManager, store.events,
	)
	observeTransitions(transfers.Hooks(), m, stock_transfer.DocumentType, func(t *stock_transfer.StockTransfer) string {
		return string(t.Status)
	})

	rules, err := policy.NewRuleEngine()
	if err != nil {
		log.Fatalw("failed to initialize approval rules", "error", err)
	}
	returns := sales_return.NewService(sales_return.Deps{
		Repo:                store.returns,
		Sales:               store.sales,
		Policies:            store.policies,
		Stock:               stockService,
		Numerator:           numbers("RTN", store.returnNumbers),
		TxManager:           store.txManager,
		Events:              store.events,
		Locker:              locker,
		Rules:               rules,
		DefaultApprovalRule: cfg.Returns.ApprovalRule,
	})
	observeTransitions(returns.Hooks(), m, sales_return.DocumentType, func(r *sales_return.Return) string {
		return string(r.Status)
	})

	// --- Auth ---
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		log.Warn("JWT_SECRET not set, using the development secret")
		secret = devJWTSecret
	}
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(secret))
	pins := auth.NewPINVerifier(cfg.Auth.ManagerPINHash)
	if !pins.Enabled() {
		log.Info("MANAGER_PIN_HASH not set, manager PIN override disabled")
	}

	// --- Router ---
	routerCfg := v1.RouterConfig{
		Logger:         log,
		Metrics:        m,
		Gatherer:       reg,
		JWTValidator:   jwtService,
		ManagerPIN:     pins,
		Idempotency:    store.idempotency,
		Database:       store.database,
		Version:        cfg.App.Version,
		PurchaseOrders: purchaseOrders,
		Transfers:      transfers,
		Returns:        returns,
		Stock:          stockService,
		History:        store.history,
		Debug:          cfg.App.IsDev(),
	}
	router := v1.NewRouter(routerCfg)

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.App.Port, "database", cfg.DB.Enabled(), "redis", cfg.Redis.Enabled())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// newLocker returns Redis key locks when REDIS_ADDR is set, in-process locks otherwise.
func newLocker(ctx context.Context, cfg *config.Config, log *logger.Logger) (corelock.Locker, func()) {
	if !cfg.Redis.Enabled() {
		log.Info("REDIS_ADDR not set, using in-process key locks")
		return lock.NewLocalLocker(), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalw("failed to connect to redis", "addr", cfg.Redis.Addr, "error", err)
	}

	locker, err := lock.NewRedisLocker(client, lock.RedisConfig{TTL: cfg.Lock.TTL, Wait: cfg.Lock.Wait})
	if err != nil {
		log.Fatalw("failed to initialize redis locker", "error", err)
	}
	return locker, func() { _ = client.Close() }
}

// observeTransitions counts creations and status changes of one document type.
func observeTransitions[T any](hooks *domain.HookRegistry[T], m *metrics.Metrics, document string, status func(T) string) {
	observe := func(_ context.Context, doc T) error {
		m.ObserveTransition(document, status(doc))
		return nil
	}
	hooks.On(domain.AfterCreate, observe)
	hooks.On(domain.AfterTransition, observe)
}
