package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is the aggregate root created by the create-order transaction.
// Immutable after creation except for timestamps; never deleted by the core.
type Order struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	UserID         string          `json:"user_id" db:"user_id"`
	ItemID         uuid.UUID       `json:"item_id" db:"item_id"`
	Quantity       int             `json:"quantity" db:"quantity"`
	Amount         decimal.Decimal `json:"amount" db:"amount"`
	IdempotencyKey uuid.UUID       `json:"idempotency_key" db:"idempotency_key"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// OrderDraft carries the fields needed to insert a new Order.
type OrderDraft struct {
	UserID         string
	ItemID         uuid.UUID
	Quantity       int
	Amount         decimal.Decimal
	IdempotencyKey uuid.UUID
}

// OrderState is the conventional (store-unenforced) state machine status.
type OrderState string

const (
	OrderStateNew       OrderState = "new"
	OrderStatePaid      OrderState = "paid"
	OrderStateShipped   OrderState = "shipped"
	OrderStateCancelled OrderState = "cancelled"
)

// OrderStatus is an append-only audit row. The current status of an order
// is the row with the greatest CreatedAt for that OrderID — a query, not a
// cached pointer.
type OrderStatus struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	OrderID   uuid.UUID  `json:"order_id" db:"order_id"`
	Status    OrderState `json:"status" db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}
