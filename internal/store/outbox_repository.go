package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/studentsystem/order-processing/internal/models"
)

// OutboxRepository creates and leases outbox rows. Create MUST be called
// within the same transaction as the state change it records (I2).
type OutboxRepository struct {
	tx pgx.Tx
}

// Create inserts a new pending outbox row.
func (r *OutboxRepository) Create(ctx context.Context, draft models.OutboxDraft) (*models.OutboxRecord, error) {
	now := time.Now().UTC()
	rec := &models.OutboxRecord{
		ID:        uuid.New(),
		EventType: draft.EventType,
		Payload:   draft.Payload,
		Status:    models.OutboxStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := r.tx.Exec(ctx, `
		INSERT INTO outbox (id, event_type, payload, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rec.ID, rec.EventType, rec.Payload, rec.Status, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create outbox record: %w", err)
	}
	return rec, nil
}

// Lease selects up to limit pending rows whose event_type is in eventTypes
// under SELECT ... FOR UPDATE SKIP LOCKED. Rows stay locked until the
// surrounding transaction commits or rolls back, so two dispatcher
// replicas of the same kind never lease the same row. A dispatcher
// specialization may lease more than one event_type (spec.md §4.F: the
// three specializations differ "only in which event types they lease").
func (r *OutboxRepository) Lease(ctx context.Context, eventTypes []string, limit int) ([]*models.OutboxRecord, error) {
	rows, err := r.tx.Query(ctx, `
		SELECT id, event_type, payload, status, created_at, updated_at
		FROM outbox
		WHERE event_type = ANY($1) AND status = $2
		ORDER BY created_at ASC
		LIMIT $3
		FOR UPDATE SKIP LOCKED
	`, eventTypes, models.OutboxStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("lease outbox records: %w", err)
	}
	defer rows.Close()

	var recs []*models.OutboxRecord
	for rows.Next() {
		var rec models.OutboxRecord
		var payload json.RawMessage
		if err := rows.Scan(&rec.ID, &rec.EventType, &payload, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox record: %w", err)
		}
		rec.Payload = payload
		recs = append(recs, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("outbox rows: %w", err)
	}
	return recs, nil
}

// LeaseByID re-acquires the row-level lock on a single previously-seen
// row, skipping it (returns nil, nil) if another replica has already
// claimed or it is no longer pending.
func (r *OutboxRepository) LeaseByID(ctx context.Context, id uuid.UUID) (*models.OutboxRecord, error) {
	row := r.tx.QueryRow(ctx, `
		SELECT id, event_type, payload, status, created_at, updated_at
		FROM outbox
		WHERE id = $1 AND status = $2
		FOR UPDATE SKIP LOCKED
	`, id, models.OutboxStatusPending)

	var rec models.OutboxRecord
	var payload json.RawMessage
	if err := row.Scan(&rec.ID, &rec.EventType, &payload, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("lease outbox record by id: %w", err)
	}
	rec.Payload = payload
	return &rec, nil
}

// MarkSent transitions a row pending -> sent. This is a one-way
// transition (I3); the core never moves a row back to pending.
func (r *OutboxRepository) MarkSent(ctx context.Context, id uuid.UUID) error {
	_, err := r.tx.Exec(ctx, `
		UPDATE outbox SET status = $1, updated_at = $2 WHERE id = $3
	`, models.OutboxStatusSent, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("mark outbox record sent: %w", err)
	}
	return nil
}
