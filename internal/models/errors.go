package models

import "errors"

// Domain errors
var (
	ErrItemNotFound      = errors.New("item not found")
	ErrNotEnoughStocks   = errors.New("not enough stocks")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidOrderInput = errors.New("invalid order input")
)

// Infrastructure errors
var (
	ErrPaymentServiceUnavailable      = errors.New("payment service unavailable")
	ErrNotificationServiceUnavailable = errors.New("notification service unavailable")
	ErrCatalogServiceUnavailable      = errors.New("catalog service unavailable")
	ErrBrokerUnavailable              = errors.New("broker unavailable")
)

// OrderAlreadyExistsError is returned by create-order when the supplied
// idempotency key already has a persisted order. It carries the prior
// order so the caller can surface it as an "already accepted" response.
type OrderAlreadyExistsError struct {
	Order *Order
}

func (e *OrderAlreadyExistsError) Error() string {
	return "order already exists for idempotency key"
}
