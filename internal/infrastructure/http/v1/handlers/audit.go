package handlers

import (
	"github.com/gin-gonic/gin"

	"backoffice/internal/domain/audit"
	"backoffice/internal/infrastructure/http/v1/dto"
)

// HistoryHandler serves the audit trail of a document.
type HistoryHandler struct {
	*BaseHandler
	reader audit.Reader
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(base *BaseHandler, reader audit.Reader) *HistoryHandler {
	return &HistoryHandler{BaseHandler: base, reader: reader}
}

// For returns a handler for GET /<documents>/:id/history of entityType.
func (h *HistoryHandler) For(entityType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		entityID, ok := h.ParseID(c)
		if !ok {
			return
		}

		events, err := h.reader.History(c.Request.Context(), entityType, entityID, h.ParseIntQuery(c, "limit", 100))
		if err != nil {
			h.Error(c, err)
			return
		}

		h.OK(c, dto.HistoryResponse{
			EntityType: entityType,
			EntityID:   entityID.String(),
			Events:     events,
		})
	}
}
