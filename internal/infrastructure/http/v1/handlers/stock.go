package handlers

import (
	"github.com/gin-gonic/gin"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/entity"
	"backoffice/internal/domain/registers/stock"
	"backoffice/internal/infrastructure/http/v1/dto"
)

// StockHandler serves ledger queries.
type StockHandler struct {
	*BaseHandler
	service *stock.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, service *stock.Service) *StockHandler {
	return &StockHandler{BaseHandler: base, service: service}
}

// OutletBalances handles GET /stock/outlets/:outletId.
func (h *StockHandler) OutletBalances(c *gin.Context) {
	outletID := c.Param("outletId")

	balances, err := h.service.OutletStock(c.Request.Context(), outletID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromBalances(outletID, balances))
}

// Movements handles GET /stock/movements.
func (h *StockHandler) Movements(c *gin.Context) {
	filter := stock.MovementFilter{
		OutletID:  c.Query("outletId"),
		ProductID: c.Query("productId"),
		Type:      entity.MovementType(c.Query("type")),
		FromDate:  h.ParseTimeQuery(c, "from"),
		ToDate:    h.ParseTimeQuery(c, "to"),
		Limit:     h.ParseIntQuery(c, "limit", 0),
		Offset:    h.ParseIntQuery(c, "offset", 0),
	}
	if filter.OutletID == "" && filter.ProductID == "" {
		h.Error(c, apperror.NewValidation("outletId or productId is required"))
		return
	}

	movements, err := h.service.MovementHistory(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": dto.FromMovements(movements)})
}

// RegisterRoutes registers stock routes.
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/outlets/:outletId", h.OutletBalances)
	rg.GET("/movements", h.Movements)
}
