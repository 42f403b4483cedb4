package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/studentsystem/order-processing/internal/models"
)

// InboxRepository creates and leases inbox rows keyed by idempotency_key.
type InboxRepository struct {
	tx pgx.Tx
}

// CreateIfAbsent inserts a new pending inbox row, doing nothing if the
// idempotency key already exists (I1). Returns (nil, nil) on the no-op
// path so callers can detect "already recorded" without a second query.
func (r *InboxRepository) CreateIfAbsent(ctx context.Context, draft models.InboxDraft) (*models.InboxRecord, error) {
	now := time.Now().UTC()
	rec := &models.InboxRecord{
		ID:             uuid.New(),
		EventType:      draft.EventType,
		Payload:        draft.Payload,
		Status:         models.InboxStatusPending,
		IdempotencyKey: draft.IdempotencyKey,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	tag, err := r.tx.Exec(ctx, `
		INSERT INTO inbox (id, event_type, payload, status, idempotency_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (idempotency_key) DO NOTHING
	`, rec.ID, rec.EventType, rec.Payload, rec.Status, rec.IdempotencyKey, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create inbox record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, nil
	}
	return rec, nil
}

// GetByIdempotencyKey returns (nil, nil) when no inbox row exists for the
// key.
func (r *InboxRepository) GetByIdempotencyKey(ctx context.Context, key uuid.UUID) (*models.InboxRecord, error) {
	row := r.tx.QueryRow(ctx, `
		SELECT id, event_type, payload, status, idempotency_key, created_at, updated_at
		FROM inbox WHERE idempotency_key = $1
	`, key)
	return scanInbox(row)
}

func scanInbox(row pgx.Row) (*models.InboxRecord, error) {
	var rec models.InboxRecord
	var payload json.RawMessage
	err := row.Scan(&rec.ID, &rec.EventType, &payload, &rec.Status, &rec.IdempotencyKey, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan inbox record: %w", err)
	}
	rec.Payload = payload
	return &rec, nil
}

// Lease selects up to limit pending rows under SELECT ... FOR UPDATE SKIP
// LOCKED, same semantics as OutboxRepository.Lease.
func (r *InboxRepository) Lease(ctx context.Context, limit int) ([]*models.InboxRecord, error) {
	rows, err := r.tx.Query(ctx, `
		SELECT id, event_type, payload, status, idempotency_key, created_at, updated_at
		FROM inbox
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`, models.InboxStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("lease inbox records: %w", err)
	}
	defer rows.Close()

	var recs []*models.InboxRecord
	for rows.Next() {
		var rec models.InboxRecord
		var payload json.RawMessage
		if err := rows.Scan(&rec.ID, &rec.EventType, &payload, &rec.Status, &rec.IdempotencyKey, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan inbox record: %w", err)
		}
		rec.Payload = payload
		recs = append(recs, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("inbox rows: %w", err)
	}
	return recs, nil
}

// LeaseByID re-acquires the row-level lock on a single previously-seen
// row, skipping it (returns nil, nil) if another replica has already
// claimed it or it is no longer pending.
func (r *InboxRepository) LeaseByID(ctx context.Context, id uuid.UUID) (*models.InboxRecord, error) {
	row := r.tx.QueryRow(ctx, `
		SELECT id, event_type, payload, status, idempotency_key, created_at, updated_at
		FROM inbox
		WHERE id = $1 AND status = $2
		FOR UPDATE SKIP LOCKED
	`, id, models.InboxStatusPending)
	return scanInbox(row)
}

// MarkProcessed transitions a row pending -> processed (I3, one-way).
func (r *InboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	_, err := r.tx.Exec(ctx, `
		UPDATE inbox SET status = $1, updated_at = $2 WHERE id = $3
	`, models.InboxStatusProcessed, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("mark inbox record processed: %w", err)
	}
	return nil
}
