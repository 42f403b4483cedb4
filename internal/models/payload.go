package models

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Outbox/inbox payload is a JSON object whose shape depends on event_type.
// Each variant below is a tagged-sum member; at the store boundary the
// payload is opaque json.RawMessage, marshalled here and nowhere else.

// PaymentRequestedPayload backs event_type=payment.requested.
type PaymentRequestedPayload struct {
	OrderID        uuid.UUID `json:"order_id"`
	Amount         string    `json:"amount"`
	IdempotencyKey uuid.UUID `json:"idempotency_key"`
}

// NotificationPayload backs the *.created/*.paid/*.cancelled/*.shipped
// outbox notification variants — all share the same shape.
type NotificationPayload struct {
	Message        string    `json:"message"`
	IdempotencyKey uuid.UUID `json:"idempotency_key"`
}

// ShippingRequestedPayload backs event_type=shipping.requested, the
// message published to the broker asking for shipment of a paid order.
type ShippingRequestedPayload struct {
	EventType      string    `json:"event_type"`
	OrderID        uuid.UUID `json:"order_id"`
	ItemID         uuid.UUID `json:"item_id"`
	Quantity       string    `json:"quantity"`
	IdempotencyKey uuid.UUID `json:"idempotency_key"`
}

// ShippingResultMessage is the inbound broker message carrying a shipping
// result. ShipmentID is optional; see idempotency.ShippingKey for the
// dedup-key resolution order.
type ShippingResultMessage struct {
	EventType  string     `json:"event_type"`
	OrderID    uuid.UUID  `json:"order_id"`
	ItemID     uuid.UUID  `json:"item_id"`
	Quantity   int        `json:"quantity"`
	ShipmentID *uuid.UUID `json:"shipment_id,omitempty"`
}

// Marshal renders a tagged payload variant to the opaque JSON the store
// persists.
func Marshal(v interface{}) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return b, nil
}

// OrderIDFromPayload extracts order_id from any inbox payload variant
// (payment callback or shipping result) — every variant carries it under
// the same JSON key, so the inbox applier doesn't need to know the full
// variant shape to drive order_status.
func OrderIDFromPayload(payload json.RawMessage) (uuid.UUID, error) {
	var envelope struct {
		OrderID uuid.UUID `json:"order_id"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return uuid.Nil, fmt.Errorf("extract order_id from payload: %w", err)
	}
	return envelope.OrderID, nil
}

// NewPaymentRequestedPayload builds the payment.requested outbox payload
// for a freshly created order.
func NewPaymentRequestedPayload(orderID uuid.UUID, amount decimal.Decimal, idempotencyKey uuid.UUID) PaymentRequestedPayload {
	return PaymentRequestedPayload{
		OrderID:        orderID,
		Amount:         amount.StringFixed(2),
		IdempotencyKey: idempotencyKey,
	}
}

// NewNotificationPayload builds a notification envelope with a fresh
// dedup key, as spec.md requires for every notification outbox row.
func NewNotificationPayload(message string) NotificationPayload {
	return NotificationPayload{
		Message:        message,
		IdempotencyKey: uuid.New(),
	}
}

// NewShippingRequestedPayload builds the shipping.requested broker message
// enqueued after a successful payment.
func NewShippingRequestedPayload(orderID, itemID uuid.UUID, quantity int) ShippingRequestedPayload {
	return ShippingRequestedPayload{
		EventType:      "order.paid",
		OrderID:        orderID,
		ItemID:         itemID,
		Quantity:       fmt.Sprintf("%d", quantity),
		IdempotencyKey: uuid.New(),
	}
}
