package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentsystem/order-processing/internal/observability"
	"github.com/studentsystem/order-processing/internal/service"
	"github.com/studentsystem/order-processing/internal/store"
)

func newTestMetrics() *observability.Metrics {
	return observability.NewMetricsWithRegistry(prometheus.NewRegistry())
}

func TestOrdersHandler_CreateOrder_MalformedBody(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	createSvc := service.NewCreateOrderService(&store.Database{Pool: mock}, nil, newTestMetrics(), zerolog.Nop())
	handler := NewOrdersHandler(createSvc, nil, store.NewReadOnlyOrderRepository(&store.Database{Pool: mock}), store.NewReadOnlyOrderStatusRepository(&store.Database{Pool: mock}), zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()

	handler.CreateOrder(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestOrdersHandler_CreateOrder_ValidationFailureReturns422(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	createSvc := service.NewCreateOrderService(&store.Database{Pool: mock}, nil, newTestMetrics(), zerolog.Nop())
	handler := NewOrdersHandler(createSvc, nil, store.NewReadOnlyOrderRepository(&store.Database{Pool: mock}), store.NewReadOnlyOrderStatusRepository(&store.Database{Pool: mock}), zerolog.Nop())

	body, _ := json.Marshal(map[string]interface{}{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewBuffer(body))
	rec := httptest.NewRecorder()

	handler.CreateOrder(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestOrdersHandler_PaymentCallback_InvalidAmount(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	callbackSvc := service.NewPaymentCallbackService(&store.Database{Pool: mock}, newTestMetrics(), zerolog.Nop())
	handler := NewOrdersHandler(nil, callbackSvc, store.NewReadOnlyOrderRepository(&store.Database{Pool: mock}), store.NewReadOnlyOrderStatusRepository(&store.Database{Pool: mock}), zerolog.Nop())

	body, _ := json.Marshal(map[string]interface{}{
		"id":              uuid.New(),
		"user_id":         "user-1",
		"order_id":        uuid.New(),
		"amount":          "not-a-number",
		"status":          "succeeded",
		"idempotency_key": uuid.New(),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/payment-callback", bytes.NewBuffer(body))
	rec := httptest.NewRecorder()

	handler.PaymentCallback(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestOrdersHandler_PaymentCallback_PendingReturns200(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM inbox WHERE idempotency_key").
		WillReturnRows(pgxmock.NewRows([]string{"id", "event_type", "payload", "status", "idempotency_key", "created_at", "updated_at"}))
	mock.ExpectCommit()

	callbackSvc := service.NewPaymentCallbackService(&store.Database{Pool: mock}, newTestMetrics(), zerolog.Nop())
	handler := NewOrdersHandler(nil, callbackSvc, store.NewReadOnlyOrderRepository(&store.Database{Pool: mock}), store.NewReadOnlyOrderStatusRepository(&store.Database{Pool: mock}), zerolog.Nop())

	body, _ := json.Marshal(map[string]interface{}{
		"id":              uuid.New(),
		"user_id":         "user-1",
		"order_id":        uuid.New(),
		"amount":          "10.00",
		"status":          "pending",
		"idempotency_key": uuid.New(),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/payment-callback", bytes.NewBuffer(body))
	rec := httptest.NewRecorder()

	handler.PaymentCallback(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOrdersHandler_GetOrder_InvalidID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	db := &store.Database{Pool: mock}
	handler := NewOrdersHandler(nil, nil, store.NewReadOnlyOrderRepository(db), store.NewReadOnlyOrderStatusRepository(db), zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/not-a-uuid", nil)
	req = withMuxVar(req, "id", "not-a-uuid")
	rec := httptest.NewRecorder()

	handler.GetOrder(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestOrdersHandler_GetOrder_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery("FROM orders WHERE id").
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "item_id", "quantity", "amount", "idempotency_key", "created_at", "updated_at"}))

	db := &store.Database{Pool: mock}
	handler := NewOrdersHandler(nil, nil, store.NewReadOnlyOrderRepository(db), store.NewReadOnlyOrderStatusRepository(db), zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+id.String(), nil)
	req = withMuxVar(req, "id", id.String())
	rec := httptest.NewRecorder()

	handler.GetOrder(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrdersHandler_GetOrder_FoundWithStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	itemID := uuid.New()
	now := time.Now().UTC()
	orderRows := pgxmock.NewRows([]string{"id", "user_id", "item_id", "quantity", "amount", "idempotency_key", "created_at", "updated_at"}).
		AddRow(id, "user-1", itemID, 2, decimal.NewFromFloat(19.98), uuid.New(), now, now)
	mock.ExpectQuery("FROM orders WHERE id").WillReturnRows(orderRows)

	statusRows := pgxmock.NewRows([]string{"id", "order_id", "status", "created_at"}).
		AddRow(uuid.New(), id, "paid", now)
	mock.ExpectQuery("FROM order_status").WillReturnRows(statusRows)

	db := &store.Database{Pool: mock}
	handler := NewOrdersHandler(nil, nil, store.NewReadOnlyOrderRepository(db), store.NewReadOnlyOrderStatusRepository(db), zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+id.String(), nil)
	req = withMuxVar(req, "id", id.String())
	rec := httptest.NewRecorder()

	handler.GetOrder(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp orderWithStatusResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "paid", resp.Status)
	assert.Equal(t, id, resp.ID)
}
