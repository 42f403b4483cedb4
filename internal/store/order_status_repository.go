package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/studentsystem/order-processing/internal/models"
)

// OrderStatusRepository appends audit rows. Rows are never updated; the
// current status is a query over the greatest created_at, not a cached
// pointer (§9 "Cyclic references").
type OrderStatusRepository struct {
	tx pgx.Tx
}

// Append inserts a new status row for an order.
func (r *OrderStatusRepository) Append(ctx context.Context, orderID uuid.UUID, status models.OrderState) error {
	_, err := r.tx.Exec(ctx, `
		INSERT INTO order_status (id, order_id, status, created_at)
		VALUES ($1, $2, $3, $4)
	`, uuid.New(), orderID, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("append order status: %w", err)
	}
	return nil
}

// Current returns the most recent status row for an order, or (nil, nil)
// if the order has no status rows yet.
func (r *OrderStatusRepository) Current(ctx context.Context, orderID uuid.UUID) (*models.OrderStatus, error) {
	row := r.tx.QueryRow(ctx, `
		SELECT id, order_id, status, created_at
		FROM order_status
		WHERE order_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, orderID)

	var s models.OrderStatus
	err := row.Scan(&s.ID, &s.OrderID, &s.Status, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan order status: %w", err)
	}
	return &s, nil
}

// ReadOnlyOrderStatusRepository is the read path over order_status used
// outside a transaction, mirroring ReadOnlyOrderRepository.
type ReadOnlyOrderStatusRepository struct {
	db *Database
}

// NewReadOnlyOrderStatusRepository builds a read path bound to the pool
// directly, bypassing unit-of-work scoping for simple lookups.
func NewReadOnlyOrderStatusRepository(db *Database) *ReadOnlyOrderStatusRepository {
	return &ReadOnlyOrderStatusRepository{db: db}
}

// Current returns the most recent status row for an order, or (nil, nil) if
// the order has no status rows yet.
func (r *ReadOnlyOrderStatusRepository) Current(ctx context.Context, orderID uuid.UUID) (*models.OrderStatus, error) {
	row := r.db.Pool.QueryRow(ctx, `
		SELECT id, order_id, status, created_at
		FROM order_status
		WHERE order_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, orderID)

	var s models.OrderStatus
	err := row.Scan(&s.ID, &s.OrderID, &s.Status, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan order status: %w", err)
	}
	return &s, nil
}
