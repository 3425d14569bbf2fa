package handlers

import (
	"github.com/gin-gonic/gin"

	"backoffice/internal/domain/documents/purchase_order"
	"backoffice/internal/infrastructure/http/v1/dto"
)

// PurchaseOrderHandler handles HTTP requests for purchase orders.
type PurchaseOrderHandler struct {
	*BaseHandler
	service *purchase_order.Service
}

// NewPurchaseOrderHandler creates a new purchase order handler.
func NewPurchaseOrderHandler(base *BaseHandler, service *purchase_order.Service) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{BaseHandler: base, service: service}
}

// Create handles POST /purchase-orders.
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	var req dto.CreatePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	po, err := h.service.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromPurchaseOrder(po))
}

// Get handles GET /purchase-orders/:id.
func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	poID, ok := h.ParseID(c)
	if !ok {
		return
	}

	po, err := h.service.GetByID(c.Request.Context(), poID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromPurchaseOrder(po))
}

// List handles GET /purchase-orders.
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	filter := purchase_order.ListFilter{
		ListFilter: h.ListFilter(c),
		SupplierID: c.Query("supplierId"),
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result, dto.FromPurchaseOrder))
}

// Approve handles POST /purchase-orders/:id/approve.
func (h *PurchaseOrderHandler) Approve(c *gin.Context) {
	poID, ok := h.ParseID(c)
	if !ok {
		return
	}

	po, err := h.service.Approve(c.Request.Context(), poID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromPurchaseOrder(po))
}

// Cancel handles POST /purchase-orders/:id/cancel.
func (h *PurchaseOrderHandler) Cancel(c *gin.Context) {
	poID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.ReasonRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}

	po, err := h.service.Cancel(c.Request.Context(), poID, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromPurchaseOrder(po))
}

// Receive handles POST /purchase-orders/:id/receive.
func (h *PurchaseOrderHandler) Receive(c *gin.Context) {
	poID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.ReceivePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.Receive(c.Request.Context(), poID, req.ToReceived())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromReceiveResult(result))
}

// RegisterRoutes registers purchase order routes. approve guards approval.
func (h *PurchaseOrderHandler) RegisterRoutes(rg *gin.RouterGroup, approve gin.HandlerFunc) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.POST("/:id/approve", approve, h.Approve)
	rg.POST("/:id/cancel", h.Cancel)
	rg.POST("/:id/receive", h.Receive)
}
