package handlers

import (
	"github.com/gin-gonic/gin"

	"backoffice/internal/domain/documents/sales_return"
	"backoffice/internal/infrastructure/http/v1/dto"
)

// ReturnHandler handles HTTP requests for customer returns.
type ReturnHandler struct {
	*BaseHandler
	service *sales_return.Service
}

// NewReturnHandler creates a new return handler.
func NewReturnHandler(base *BaseHandler, service *sales_return.Service) *ReturnHandler {
	return &ReturnHandler{BaseHandler: base, service: service}
}

// Preview handles POST /returns/preview. Nothing is stored.
func (h *ReturnHandler) Preview(c *gin.Context) {
	var req dto.CreateReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}

	preview, err := h.service.Preview(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromPreview(preview))
}

// Create handles POST /returns.
func (h *ReturnHandler) Create(c *gin.Context) {
	var req dto.CreateReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ret, err := h.service.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromReturn(ret))
}

// Get handles GET /returns/:id.
func (h *ReturnHandler) Get(c *gin.Context) {
	returnID, ok := h.ParseID(c)
	if !ok {
		return
	}

	ret, err := h.service.GetByID(c.Request.Context(), returnID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromReturn(ret))
}

// List handles GET /returns.
func (h *ReturnHandler) List(c *gin.Context) {
	filter := sales_return.ListFilter{
		ListFilter:    h.ListFilter(c),
		TransactionID: c.Query("transactionId"),
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result, dto.FromReturn))
}

// Approve handles POST /returns/:id/approve.
func (h *ReturnHandler) Approve(c *gin.Context) {
	returnID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.ReasonRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}

	ret, err := h.service.Approve(c.Request.Context(), returnID, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromReturn(ret))
}

// Reject handles POST /returns/:id/reject.
func (h *ReturnHandler) Reject(c *gin.Context) {
	returnID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.ReasonRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}

	ret, err := h.service.Reject(c.Request.Context(), returnID, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromReturn(ret))
}

// Complete handles POST /returns/:id/complete.
func (h *ReturnHandler) Complete(c *gin.Context) {
	returnID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.CompleteReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.Complete(c.Request.Context(), returnID, sales_return.RefundMethod(req.RefundMethod))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromCompleteReturn(result))
}

// Cancel handles POST /returns/:id/cancel.
func (h *ReturnHandler) Cancel(c *gin.Context) {
	returnID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.ReasonRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}

	ret, err := h.service.Cancel(c.Request.Context(), returnID, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromReturn(ret))
}

// RegisterRoutes registers return routes. approve guards approve and reject.
func (h *ReturnHandler) RegisterRoutes(rg *gin.RouterGroup, approve gin.HandlerFunc) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.POST("/preview", h.Preview)
	rg.GET("/:id", h.Get)
	rg.POST("/:id/approve", approve, h.Approve)
	rg.POST("/:id/reject", approve, h.Reject)
	rg.POST("/:id/complete", h.Complete)
	rg.POST("/:id/cancel", h.Cancel)
}
