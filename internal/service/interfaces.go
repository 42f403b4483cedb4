// Package service holds the hard substrate: the create-order transaction,
// the payment-callback handler and the shipping-result consumer. Each is a
// single unit-of-work, generalized from the teacher's
// service.OrderServiceImpl method shape (validate, idempotency-check,
// tx, repo calls, commit, metrics, log).
package service

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest is the parsed, validated body of
// POST /api/v1/orders.
type CreateOrderRequest struct {
	UserID         string    `validate:"required,max=255"`
	ItemID         uuid.UUID `validate:"required"`
	Quantity       int       `validate:"required,min=1"`
	IdempotencyKey uuid.UUID `validate:"required"`
}

// PaymentCallbackRequest is the parsed body of
// POST /api/v1/orders/payment-callback.
type PaymentCallbackRequest struct {
	ID             uuid.UUID       `json:"id" validate:"required"`
	UserID         string          `json:"user_id" validate:"required"`
	OrderID        uuid.UUID       `json:"order_id" validate:"required"`
	Amount         decimal.Decimal `json:"amount" validate:"required"`
	Status         PaymentStatus   `json:"status" validate:"required"`
	IdempotencyKey uuid.UUID       `json:"idempotency_key" validate:"required"`
}

// PaymentStatus is the payment callback's status enum.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
)
