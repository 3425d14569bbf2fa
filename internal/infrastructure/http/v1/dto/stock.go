package dto

import (
	"time"

	"backoffice/internal/core/entity"
	"backoffice/internal/domain/audit"
)

// BalanceResponse is the on-hand quantity of one product at an outlet.
type BalanceResponse struct {
	ProductID string    `json:"productId"`
	Quantity  int64     `json:"quantity"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OutletStockResponse lists an outlet's balances.
type OutletStockResponse struct {
	OutletID string            `json:"outletId"`
	Balances []BalanceResponse `json:"balances"`
}

// FromBalances converts an outlet's balances.
func FromBalances(outletID string, balances []entity.StockBalance) OutletStockResponse {
	out := OutletStockResponse{OutletID: outletID, Balances: make([]BalanceResponse, 0, len(balances))}
	for _, b := range balances {
		out.Balances = append(out.Balances, BalanceResponse{ProductID: b.ProductID, Quantity: b.Quantity, UpdatedAt: b.UpdatedAt})
	}
	return out
}

// HistoryResponse is the audit trail of one document, newest first.
type HistoryResponse struct {
	EntityType string        `json:"entityType"`
	EntityID   string        `json:"entityId"`
	Events     []audit.Event `json:"events"`
}
