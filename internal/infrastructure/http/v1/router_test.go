package v1_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/domain/auth"
	"backoffice/internal/domain/documents/purchase_order"
	"backoffice/internal/domain/documents/sales_return"
	"backoffice/internal/domain/documents/stock_transfer"
	"backoffice/internal/domain/policy"
	"backoffice/internal/domain/registers/stock"
	v1 "backoffice/internal/infrastructure/http/v1"
	"backoffice/internal/infrastructure/lock"
	"backoffice/internal/infrastructure/metrics"
	"backoffice/internal/infrastructure/storage/memory"
	"backoffice/pkg/logger"
	"backoffice/pkg/numerator"
)

const testSecret = "router-test-secret-with-enough-bytes"

type api struct {
	t      *testing.T
	db     *memory.DB
	router http.Handler
	jwt    *auth.JWTService
}

func newAPI(t *testing.T) *api {
	t.Helper()

	db := memory.New()
	locker := lock.NewLocalLocker()
	stockService := stock.NewService(db.Stock(), locker)

	hash, err := auth.HashPIN("4321")
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	jwt := auth.NewJWTService(auth.DefaultJWTConfig(testSecret))

	router := v1.NewRouter(v1.RouterConfig{
		Logger:       logger.NewNop(),
		Metrics:      metrics.New(reg),
		Gatherer:     reg,
		JWTValidator: jwt,
		ManagerPIN:   auth.NewPINVerifier(hash),
		Idempotency:  memory.NewIdempotencyStore(time.Hour),
		Version:      "test",
		PurchaseOrders: purchase_order.NewService(db.PurchaseOrders(), stockService,
			numerator.New(numerator.DefaultConfig("PO"), db.PurchaseOrderNumbers()), db, db.Audit()),
		Transfers: stock_transfer.NewService(db.StockTransfers(), stockService,
			numerator.New(numerator.DefaultConfig("TRF"), db.StockTransferNumbers()), db, db.Audit()),
		Returns: sales_return.NewService(sales_return.Deps{
			Repo:      db.SalesReturns(),
			Sales:     db.Sales(),
			Policies:  db.Policies(),
			Stock:     stockService,
			Numerator: numerator.New(numerator.DefaultConfig("RTN"), db.SalesReturnNumbers()),
			TxManager: db,
			Events:    db.Audit(),
			Locker:    locker,
		}),
		Stock:   stockService,
		History: db.Audit(),
	})

	return &api{t: t, db: db, router: router, jwt: jwt}
}

func (a *api) token(roles ...string) string {
	a.t.Helper()
	token, _, err := a.jwt.GenerateAccessToken("user-"+strings.Join(roles, "-"), "OUT-1", roles, time.Now())
	require.NoError(a.t, err)
	return token
}

func (a *api) do(method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	a.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func orderBody() map[string]any {
	return map[string]any{
		"supplierId": "SUP-1",
		"outletId":   "OUT-1",
		"items": []map[string]any{
			{"productId": "P1", "quantity": 10, "unitPrice": 250},
		},
	}
}

func TestHealth(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "in-memory")
}

func TestAuthRequired(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodGet, "/api/v1/purchase-orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decode(t, rec)["code"])

	rec = a.do(http.MethodGet, "/api/v1/purchase-orders", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPurchaseOrderFlow(t *testing.T) {
	a := newAPI(t)
	manager := a.token("manager")

	rec := a.do(http.MethodPost, "/api/v1/purchase-orders", manager, orderBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)
	assert.True(t, strings.HasPrefix(created["number"].(string), "PO-"))
	assert.Equal(t, "pending", created["status"])
	assert.Equal(t, "25.00", created["totalAmount"].(map[string]any)["display"])

	path := "/api/v1/purchase-orders/" + created["id"].(string)

	rec = a.do(http.MethodPost, path+"/approve", manager, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(http.MethodPost, path+"/receive", manager, map[string]any{
		"items": []map[string]any{{"productId": "P1", "quantity": 7}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	received := decode(t, rec)
	assert.Equal(t, "received", received["order"].(map[string]any)["status"])
	assert.Equal(t, true, received["discrepancy"].(map[string]any)["hasDiscrepancy"])

	rec = a.do(http.MethodGet, "/api/v1/stock/outlets/OUT-1", manager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	balances := decode(t, rec)["balances"].([]any)
	require.Len(t, balances, 1)
	assert.EqualValues(t, 7, balances[0].(map[string]any)["quantity"])

	rec = a.do(http.MethodGet, path+"/history", manager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["events"].([]any), 3)

	rec = a.do(http.MethodPost, path+"/cancel", manager, map[string]any{"reason": "late"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INVALID_TRANSITION", decode(t, rec)["code"])
}

func TestValidationErrorsAreCollected(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodPost, "/api/v1/purchase-orders", a.token("cashier"), map[string]any{
		"items": []map[string]any{{"productId": "P1", "quantity": 0}},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "VALIDATION", body["code"])
	errs := body["details"].(map[string]any)["errors"].([]any)
	assert.Len(t, errs, 3)
}

func TestApprovalGuard(t *testing.T) {
	a := newAPI(t)
	cashier := a.token("cashier")

	rec := a.do(http.MethodPost, "/api/v1/purchase-orders", cashier, orderBody())
	require.Equal(t, http.StatusCreated, rec.Code)
	path := "/api/v1/purchase-orders/" + decode(t, rec)["id"].(string) + "/approve"

	rec = a.do(http.MethodPost, path, cashier, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(http.MethodPost, path, cashier, nil, "X-Manager-PIN", "0000")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(http.MethodPost, path, cashier, nil, "X-Manager-PIN", "4321")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "approved", decode(t, rec)["status"])
}

func TestTransferShortage(t *testing.T) {
	a := newAPI(t)
	require.NoError(t, a.db.Stock().SaveBalances(t.Context(), stock.Ledger{{OutletID: "A", ProductID: "P1"}: 2}, time.Now()))

	rec := a.do(http.MethodPost, "/api/v1/stock-transfers", a.token("manager"), map[string]any{
		"sourceOutletId":      "A",
		"destinationOutletId": "B",
		"items":               []map[string]any{{"productId": "P1", "quantity": 5}},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "available 2, requested 5")
}

func TestReturnPreviewAndCreate(t *testing.T) {
	a := newAPI(t)
	a.db.Sales().Put(sales_return.Sale{
		ID:       "TX-1",
		OutletID: "OUT-1",
		SaleDate: time.Now().AddDate(0, 0, -3),
		Items: []sales_return.SaleItem{
			{ID: "L1", ProductID: "P1", Quantity: 2, UnitPrice: 1000, DiscountAmount: 100},
		},
	})
	a.db.Policies().Set(&policy.ReturnPolicy{Name: "standard", MaxReturnDays: 30, IsActive: true})
	cashier := a.token("cashier")

	body := map[string]any{
		"transactionId": "TX-1",
		"items":         []map[string]any{{"transactionItemId": "L1", "quantity": 2, "reason": "changed_mind"}},
	}

	rec := a.do(http.MethodPost, "/api/v1/returns/preview", cashier, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	preview := decode(t, rec)
	assert.Equal(t, "18.00", preview["totalRefund"].(map[string]any)["display"])
	assert.Equal(t, true, preview["allowed"])

	rec = a.do(http.MethodGet, "/api/v1/returns", cashier, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode(t, rec)["totalCount"])

	rec = a.do(http.MethodPost, "/api/v1/returns", cashier, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)
	assert.Equal(t, "approved", created["status"])

	rec = a.do(http.MethodPost, "/api/v1/returns/"+created["id"].(string)+"/complete", cashier,
		map[string]any{"refundMethod": "cash"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode(t, rec)["movements"].([]any), 1)

	rec = a.do(http.MethodGet, "/api/v1/stock/movements?productId=P1", cashier, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["items"].([]any), 1)
}

func TestIdempotentReplay(t *testing.T) {
	a := newAPI(t)
	manager := a.token("manager")

	first := a.do(http.MethodPost, "/api/v1/purchase-orders", manager, orderBody(), "X-Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, first.Code)

	second := a.do(http.MethodPost, "/api/v1/purchase-orders", manager, orderBody(), "X-Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replay"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	rec := a.do(http.MethodGet, "/api/v1/purchase-orders", manager, nil)
	assert.EqualValues(t, 1, decode(t, rec)["totalCount"])

	changed := orderBody()
	changed["supplierId"] = "SUP-2"
	rec = a.do(http.MethodPost, "/api/v1/purchase-orders", manager, changed, "X-Idempotency-Key", "k-1")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	a := newAPI(t)
	a.do(http.MethodGet, "/health/live", "", nil)

	rec := a.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "backoffice_http_requests_total")
}
