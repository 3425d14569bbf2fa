package handlers

import (
	"github.com/gin-gonic/gin"

	"backoffice/internal/domain/documents/stock_transfer"
	"backoffice/internal/infrastructure/http/v1/dto"
)

// StockTransferHandler handles HTTP requests for stock transfers.
type StockTransferHandler struct {
	*BaseHandler
	service *stock_transfer.Service
}

// NewStockTransferHandler creates a new stock transfer handler.
func NewStockTransferHandler(base *BaseHandler, service *stock_transfer.Service) *StockTransferHandler {
	return &StockTransferHandler{BaseHandler: base, service: service}
}

// Create handles POST /stock-transfers.
func (h *StockTransferHandler) Create(c *gin.Context) {
	var req dto.CreateStockTransferRequest
	if !h.BindJSON(c, &req) {
		return
	}

	t, err := h.service.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromStockTransfer(t))
}

// Get handles GET /stock-transfers/:id.
func (h *StockTransferHandler) Get(c *gin.Context) {
	transferID, ok := h.ParseID(c)
	if !ok {
		return
	}

	t, err := h.service.GetByID(c.Request.Context(), transferID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromStockTransfer(t))
}

// List handles GET /stock-transfers. outletId matches either side.
func (h *StockTransferHandler) List(c *gin.Context) {
	result, err := h.service.List(c.Request.Context(), stock_transfer.ListFilter{ListFilter: h.ListFilter(c)})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result, dto.FromStockTransfer))
}

// Approve handles POST /stock-transfers/:id/approve.
func (h *StockTransferHandler) Approve(c *gin.Context) {
	transferID, ok := h.ParseID(c)
	if !ok {
		return
	}

	t, err := h.service.Approve(c.Request.Context(), transferID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromStockTransfer(t))
}

// Complete handles POST /stock-transfers/:id/complete.
func (h *StockTransferHandler) Complete(c *gin.Context) {
	transferID, ok := h.ParseID(c)
	if !ok {
		return
	}

	result, err := h.service.Complete(c.Request.Context(), transferID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromCompleteTransfer(result))
}

// Cancel handles POST /stock-transfers/:id/cancel.
func (h *StockTransferHandler) Cancel(c *gin.Context) {
	transferID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.ReasonRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}

	t, err := h.service.Cancel(c.Request.Context(), transferID, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromStockTransfer(t))
}

// RegisterRoutes registers stock transfer routes. approve guards approval.
func (h *StockTransferHandler) RegisterRoutes(rg *gin.RouterGroup, approve gin.HandlerFunc) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.POST("/:id/approve", approve, h.Approve)
	rg.POST("/:id/complete", h.Complete)
	rg.POST("/:id/cancel", h.Cancel)
}
