package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentsystem/order-processing/internal/models"
	"github.com/studentsystem/order-processing/internal/observability"
	"github.com/studentsystem/order-processing/internal/store"
)

func newTestMetrics() *observability.Metrics {
	return observability.NewMetricsWithRegistry(prometheus.NewRegistry())
}

func TestOutboxDispatcher_DrainOnce_DispatchesAndMarksSent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rowID := uuid.New()
	now := time.Now().UTC()

	// batch lease transaction
	mock.ExpectBegin()
	leaseRows := pgxmock.NewRows([]string{"id", "event_type", "payload", "status", "created_at", "updated_at"}).
		AddRow(rowID, models.EventTypePaymentRequested, json.RawMessage(`{}`), models.OutboxStatusPending, now, now)
	mock.ExpectQuery("FROM outbox").WillReturnRows(leaseRows)
	mock.ExpectCommit()

	// per-row dispatch transaction
	mock.ExpectBegin()
	mock.ExpectQuery("FROM outbox").
		WillReturnRows(pgxmock.NewRows([]string{"id", "event_type", "payload", "status", "created_at", "updated_at"}).
			AddRow(rowID, models.EventTypePaymentRequested, json.RawMessage(`{}`), models.OutboxStatusPending, now, now))
	mock.ExpectExec("UPDATE outbox SET status").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	var effectCalled bool
	dispatcher := NewOutboxDispatcher(&store.Database{Pool: mock}, []string{models.EventTypePaymentRequested}, func(ctx context.Context, row *models.OutboxRecord) error {
		effectCalled = true
		assert.Equal(t, rowID, row.ID)
		return nil
	}, newTestMetrics(), zerolog.Nop(), "payments")

	dispatcher.drainOnce(context.Background())

	assert.True(t, effectCalled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxDispatcher_DrainOnce_EffectFailureLeavesRowPending(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rowID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectBegin()
	leaseRows := pgxmock.NewRows([]string{"id", "event_type", "payload", "status", "created_at", "updated_at"}).
		AddRow(rowID, models.EventTypePaymentRequested, json.RawMessage(`{}`), models.OutboxStatusPending, now, now)
	mock.ExpectQuery("FROM outbox").WillReturnRows(leaseRows)
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM outbox").
		WillReturnRows(pgxmock.NewRows([]string{"id", "event_type", "payload", "status", "created_at", "updated_at"}).
			AddRow(rowID, models.EventTypePaymentRequested, json.RawMessage(`{}`), models.OutboxStatusPending, now, now))
	mock.ExpectRollback()

	dispatcher := NewOutboxDispatcher(&store.Database{Pool: mock}, []string{models.EventTypePaymentRequested}, func(ctx context.Context, row *models.OutboxRecord) error {
		return errSideEffect
	}, newTestMetrics(), zerolog.Nop(), "payments")

	dispatcher.drainOnce(context.Background())

	assert.NoError(t, mock.ExpectationsWereMet())
}

var errSideEffect = errors.New("side effect failed")

func TestOutboxDispatcher_DrainOnce_EmptyLeaseDoesNothing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM outbox").
		WillReturnRows(pgxmock.NewRows([]string{"id", "event_type", "payload", "status", "created_at", "updated_at"}))
	mock.ExpectCommit()

	dispatcher := NewOutboxDispatcher(&store.Database{Pool: mock}, []string{models.EventTypePaymentRequested}, func(ctx context.Context, row *models.OutboxRecord) error {
		t.Fatal("side effect should not be called for an empty lease")
		return nil
	}, newTestMetrics(), zerolog.Nop(), "payments")

	dispatcher.drainOnce(context.Background())
	assert.NoError(t, mock.ExpectationsWereMet())
}
