package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentsystem/order-processing/internal/adapters/catalog"
	"github.com/studentsystem/order-processing/internal/httpclient"
	"github.com/studentsystem/order-processing/internal/models"
	"github.com/studentsystem/order-processing/internal/observability"
	"github.com/studentsystem/order-processing/internal/store"
)

func newTestCatalogClient(t *testing.T, handler http.HandlerFunc) *catalog.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	retrying := httpclient.New(httpclient.Config{}, zerolog.Nop())
	return catalog.New(retrying, server.URL, "test-token")
}

func newTestMetrics() *observability.Metrics {
	return observability.NewMetricsWithRegistry(prometheus.NewRegistry())
}

func TestCreateOrderService_CreateOrder_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	itemID := uuid.New()
	catalogClient := newTestCatalogClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(catalog.Item{
			ID:           itemID,
			Name:         "widget",
			Price:        decimalFromString(t, "9.99"),
			AvailableQty: 10,
		})
	})

	mock.ExpectBegin()
	mock.ExpectQuery("FROM orders WHERE idempotency_key").
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "item_id", "quantity", "amount", "idempotency_key", "created_at", "updated_at"}))
	mock.ExpectExec("INSERT INTO orders").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO order_status").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO outbox").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO outbox").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	svc := NewCreateOrderService(&store.Database{Pool: mock}, catalogClient, newTestMetrics(), zerolog.Nop())

	order, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		UserID:         "user-1",
		ItemID:         itemID,
		Quantity:       2,
		IdempotencyKey: uuid.New(),
	})
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, "user-1", order.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderService_CreateOrder_DuplicateIdempotencyKeyReturnsPriorOrder(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	key := uuid.New()
	priorID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectBegin()
	rows := pgxmock.NewRows([]string{"id", "user_id", "item_id", "quantity", "amount", "idempotency_key", "created_at", "updated_at"}).
		AddRow(priorID, "user-1", uuid.New(), 1, decimalFromString(t, "5.00"), key, now, now)
	mock.ExpectQuery("FROM orders WHERE idempotency_key").WillReturnRows(rows)
	mock.ExpectRollback()

	svc := NewCreateOrderService(&store.Database{Pool: mock}, nil, newTestMetrics(), zerolog.Nop())

	_, err = svc.CreateOrder(context.Background(), CreateOrderRequest{
		UserID:         "user-1",
		ItemID:         uuid.New(),
		Quantity:       1,
		IdempotencyKey: key,
	})
	require.Error(t, err)

	var existsErr *models.OrderAlreadyExistsError
	require.ErrorAs(t, err, &existsErr)
	assert.Equal(t, priorID, existsErr.Order.ID)
}

func TestCreateOrderService_CreateOrder_NotEnoughStock(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	itemID := uuid.New()
	catalogClient := newTestCatalogClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(catalog.Item{
			ID:           itemID,
			Price:        decimalFromString(t, "9.99"),
			AvailableQty: 1,
		})
	})

	mock.ExpectBegin()
	mock.ExpectQuery("FROM orders WHERE idempotency_key").
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "item_id", "quantity", "amount", "idempotency_key", "created_at", "updated_at"}))
	mock.ExpectRollback()

	svc := NewCreateOrderService(&store.Database{Pool: mock}, catalogClient, newTestMetrics(), zerolog.Nop())

	_, err = svc.CreateOrder(context.Background(), CreateOrderRequest{
		UserID:         "user-1",
		ItemID:         itemID,
		Quantity:       5,
		IdempotencyKey: uuid.New(),
	})
	require.ErrorIs(t, err, models.ErrNotEnoughStocks)
}

func TestCreateOrderService_CreateOrder_ValidationError(t *testing.T) {
	svc := NewCreateOrderService(&store.Database{}, nil, newTestMetrics(), zerolog.Nop())

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{})
	require.ErrorIs(t, err, models.ErrInvalidOrderInput)
}
