package main

import (
	"context"
	"fmt"

	"backoffice/internal/config"
	"backoffice/internal/core/idempotency"
	"backoffice/internal/core/tx"
	"backoffice/internal/domain/audit"
	"backoffice/internal/domain/documents/purchase_order"
	"backoffice/internal/domain/documents/sales_return"
	"backoffice/internal/domain/documents/stock_transfer"
	"backoffice/internal/domain/registers/stock"
	"backoffice/internal/infrastructure/cache"
	"backoffice/internal/infrastructure/http/v1/handlers"
	numstore "backoffice/internal/infrastructure/numerator"
	"backoffice/internal/infrastructure/storage/memory"
	"backoffice/internal/infrastructure/storage/postgres"
	"backoffice/internal/infrastructure/storage/postgres/catalog_repo"
	"backoffice/internal/infrastructure/storage/postgres/document_repo"
	"backoffice/internal/infrastructure/storage/postgres/register_repo"
	"backoffice/pkg/logger"
	"backoffice/pkg/numerator"
)

// backend is the storage the services run on.
type backend struct {
	txManager tx.Manager

	purchaseOrders purchase_order.Repository
	transfers      stock_transfer.Repository
	returns        sales_return.Repository
	stock          stock.Repository

	purchaseOrderNumbers numerator.Store
	transferNumbers      numerator.Store
	returnNumbers        numerator.Store

	sales    sales_return.SaleReader
	policies sales_return.PolicyStore

	events      audit.Sink
	history     audit.Reader
	idempotency idempotency.Store

	// database is nil on the in-memory store
	database handlers.Pinger

	close func()
}

// newPostgresBackend connects to PostgreSQL. Lifecycle events go to the audit
// table and the outbox in the same transaction as the change.
func newPostgresBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	poolCfg := postgres.DefaultPoolConfig(cfg.DB.URL)
	poolCfg.MaxConns = cfg.DB.MaxConns
	poolCfg.MinConns = cfg.DB.MinConns
	poolCfg.MaxConnLifetime = cfg.DB.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.DB.MaxConnIdleTime

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	txManager := postgres.NewTxManager(pool)

	auditSink, err := postgres.NewAuditSink(txManager, cfg.Audit.CompressThreshold)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("audit sink: %w", err)
	}

	policies := cache.NewPolicyCache(catalog_repo.NewPolicyRepo(txManager), pool.Pool)
	if err := policies.Start(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("start policy cache: %w", err)
	}

	b := &backend{
		txManager:            txManager,
		purchaseOrders:       document_repo.NewPurchaseOrderRepo(txManager),
		transfers:            document_repo.NewStockTransferRepo(txManager),
		returns:              document_repo.NewSalesReturnRepo(txManager),
		stock:                register_repo.NewStockRepo(txManager),
		purchaseOrderNumbers: numstore.NewStore(txManager, document_repo.PurchaseOrdersTable),
		transferNumbers:      numstore.NewStore(txManager, document_repo.StockTransfersTable),
		returnNumbers:        numstore.NewStore(txManager, document_repo.SalesReturnsTable),
		sales:                catalog_repo.NewSaleRepo(txManager),
		policies:             policies,
		events:               audit.Fanout(auditSink, postgres.NewOutboxPublisher(txManager)),
		history:              auditSink,
		database:             pool,
		close: func() {
			policies.Stop()
			pool.Close()
		},
	}
	if cfg.Idempotency.Enabled {
		b.idempotency = postgres.NewIdempotencyStore(txManager, cfg.Idempotency.TTL)
	}

	pool.LogStats(ctx)
	return b, nil
}

// newMemoryBackend keeps everything in process. Nothing survives a restart.
func newMemoryBackend(ctx context.Context, cfg *config.Config) *backend {
	logger.Warn(ctx, "DATABASE_URL not set, using the in-memory store")

	db := memory.New()
	b := &backend{
		txManager:            db,
		purchaseOrders:       db.PurchaseOrders(),
		transfers:            db.StockTransfers(),
		returns:              db.SalesReturns(),
		stock:                db.Stock(),
		purchaseOrderNumbers: db.PurchaseOrderNumbers(),
		transferNumbers:      db.StockTransferNumbers(),
		returnNumbers:        db.SalesReturnNumbers(),
		sales:                db.Sales(),
		policies:             db.Policies(),
		events:               db.Audit(),
		history:              db.Audit(),
		close:                func() {},
	}
	if cfg.Idempotency.Enabled {
		b.idempotency = memory.NewIdempotencyStore(cfg.Idempotency.TTL)
	}
	return b
}
