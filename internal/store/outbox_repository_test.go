package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentsystem/order-processing/internal/models"
)

func TestOutboxRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO outbox").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)
	repo := &OutboxRepository{tx: tx}

	rec, err := repo.Create(context.Background(), models.OutboxDraft{
		EventType: models.EventTypeOrderCreated,
		Payload:   json.RawMessage(`{"order_id":"` + uuid.New().String() + `"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, models.OutboxStatusPending, rec.Status)

	require.NoError(t, tx.Commit(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_Lease_ReturnsPendingRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()

	now := time.Now().UTC()
	id := uuid.New()
	rows := pgxmock.NewRows([]string{"id", "event_type", "payload", "status", "created_at", "updated_at"}).
		AddRow(id, models.EventTypePaymentRequested, json.RawMessage(`{}`), models.OutboxStatusPending, now, now)
	mock.ExpectQuery("FROM outbox").
		WithArgs([]string{models.EventTypePaymentRequested}, 10).
		WillReturnRows(rows)

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)
	repo := &OutboxRepository{tx: tx}

	leased, err := repo.Lease(context.Background(), []string{models.EventTypePaymentRequested}, 10)
	require.NoError(t, err)
	require.Len(t, leased, 1)
	assert.Equal(t, id, leased[0].ID)
}

func TestOutboxRepository_LeaseByID_AlreadyClaimedReturnsNil(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM outbox").
		WillReturnRows(pgxmock.NewRows([]string{"id", "event_type", "payload", "status", "created_at", "updated_at"}))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)
	repo := &OutboxRepository{tx: tx}

	rec, err := repo.LeaseByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestOutboxRepository_MarkSent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE outbox SET status").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)
	repo := &OutboxRepository{tx: tx}

	require.NoError(t, repo.MarkSent(context.Background(), uuid.New()))
	require.NoError(t, tx.Commit(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
