// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"backoffice/internal/core/idempotency"
	"backoffice/internal/domain/audit"
	"backoffice/internal/domain/documents/purchase_order"
	"backoffice/internal/domain/documents/sales_return"
	"backoffice/internal/domain/documents/stock_transfer"
	"backoffice/internal/domain/registers/stock"
	"backoffice/internal/infrastructure/http/v1/handlers"
	"backoffice/internal/infrastructure/http/v1/middleware"
	"backoffice/internal/infrastructure/metrics"
	"backoffice/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Metrics and the registry served on /metrics (both optional)
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// ManagerPIN lets non-managers approve with an override PIN (optional)
	ManagerPIN middleware.PINChecker

	// Idempotency enables replay protection for mutating requests when set
	Idempotency idempotency.Store

	// Database is pinged by the readiness probe; nil on the in-memory store
	Database handlers.Pinger
	Version  string

	PurchaseOrders *purchase_order.Service
	Transfers      *stock_transfer.Service
	Returns        *sales_return.Service
	Stock          *stock.Service
	History        audit.Reader

	// Debug keeps gin in debug mode
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger, cfg.Metrics))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.Database, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	// API v1
	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.JWTValidator))
	if cfg.Idempotency != nil {
		v1.Use(middleware.Idempotency(cfg.Idempotency))
	}

	baseHandler := handlers.NewBaseHandler()
	approve := middleware.RequireApprover(cfg.ManagerPIN)

	var history *handlers.HistoryHandler
	if cfg.History != nil {
		history = handlers.NewHistoryHandler(baseHandler, cfg.History)
	}

	if cfg.PurchaseOrders != nil {
		group := v1.Group("/purchase-orders")
		handlers.NewPurchaseOrderHandler(baseHandler, cfg.PurchaseOrders).RegisterRoutes(group, approve)
		if history != nil {
			group.GET("/:id/history", history.For(purchase_order.DocumentType))
		}
	}

	if cfg.Transfers != nil {
		group := v1.Group("/stock-transfers")
		handlers.NewStockTransferHandler(baseHandler, cfg.Transfers).RegisterRoutes(group, approve)
		if history != nil {
			group.GET("/:id/history", history.For(stock_transfer.DocumentType))
		}
	}

	if cfg.Returns != nil {
		group := v1.Group("/returns")
		handlers.NewReturnHandler(baseHandler, cfg.Returns).RegisterRoutes(group, approve)
		if history != nil {
			group.GET("/:id/history", history.For(sales_return.DocumentType))
		}
	}

	if cfg.Stock != nil {
		handlers.NewStockHandler(baseHandler, cfg.Stock).RegisterRoutes(v1.Group("/stock"))
	}

	return router
}
