package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/studentsystem/order-processing/internal/models"
)

// ErrDuplicateIdempotencyKey signals a unique-constraint collision on
// orders.idempotency_key. Callers that already checked get_by_idempotency
// up front should not normally see this.
var ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

// OrderRepository reads and writes the orders table. Create MUST be called
// within a transaction (it takes no tx parameter because it is always
// bound to one via UnitOfWork).
type OrderRepository struct {
	tx pgx.Tx
}

// Create inserts a new order, assigning its id.
func (r *OrderRepository) Create(ctx context.Context, draft models.OrderDraft) (*models.Order, error) {
	now := time.Now().UTC()
	order := &models.Order{
		ID:             uuid.New(),
		UserID:         draft.UserID,
		ItemID:         draft.ItemID,
		Quantity:       draft.Quantity,
		Amount:         draft.Amount,
		IdempotencyKey: draft.IdempotencyKey,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	_, err := r.tx.Exec(ctx, `
		INSERT INTO orders (id, user_id, item_id, quantity, amount, idempotency_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, order.ID, order.UserID, order.ItemID, order.Quantity, order.Amount, order.IdempotencyKey, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateIdempotencyKey
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	return order, nil
}

// GetByIdempotencyKey returns (nil, nil) when no order exists for the key —
// used for create-order idempotency (I1).
func (r *OrderRepository) GetByIdempotencyKey(ctx context.Context, key uuid.UUID) (*models.Order, error) {
	row := r.tx.QueryRow(ctx, `
		SELECT id, user_id, item_id, quantity, amount, idempotency_key, created_at, updated_at
		FROM orders WHERE idempotency_key = $1
	`, key)
	return scanOrder(row)
}

// GetByID returns (nil, nil) when no order exists with the given id.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	row := r.tx.QueryRow(ctx, `
		SELECT id, user_id, item_id, quantity, amount, idempotency_key, created_at, updated_at
		FROM orders WHERE id = $1
	`, id)
	return scanOrder(row)
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	var amount decimal.Decimal
	err := row.Scan(&o.ID, &o.UserID, &o.ItemID, &o.Quantity, &amount, &o.IdempotencyKey, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	o.Amount = amount
	return &o, nil
}

// ReadOnlyOrderRepository is the read path over orders used outside a
// transaction (e.g. to serve GET /api/v1/orders/{id}).
type ReadOnlyOrderRepository struct {
	db *Database
}

// NewReadOnlyOrderRepository builds a read path bound to the pool directly,
// bypassing unit-of-work scoping for simple lookups.
func NewReadOnlyOrderRepository(db *Database) *ReadOnlyOrderRepository {
	return &ReadOnlyOrderRepository{db: db}
}

// GetByID returns (nil, nil) when no order exists with the given id.
func (r *ReadOnlyOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	row := r.db.Pool.QueryRow(ctx, `
		SELECT id, user_id, item_id, quantity, amount, idempotency_key, created_at, updated_at
		FROM orders WHERE id = $1
	`, id)
	return scanOrder(row)
}
