package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OutboxStatus is a one-way transition: pending -> sent.
type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "pending"
	OutboxStatusSent    OutboxStatus = "sent"
)

// EventType constants for outbox/inbox records. Payload shape is
// discriminated by EventType — see payload.go for the tagged-sum variants.
const (
	EventTypeOrderCreated      = "order.created"
	EventTypeOrderPaid         = "order.paid"
	EventTypeOrderCancelled    = "order.cancelled"
	EventTypeOrderShipped      = "order.shipped"
	EventTypePaymentRequested  = "payment.requested"
	EventTypeShippingRequested = "shipping.requested"
)

// OutboxRecord is a durable outbound event envelope, inserted in the same
// transaction as the state change that motivates it.
type OutboxRecord struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	EventType string          `json:"event_type" db:"event_type"`
	Payload   json.RawMessage `json:"payload" db:"payload"`
	Status    OutboxStatus    `json:"status" db:"status"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// OutboxDraft carries the fields needed to insert a new OutboxRecord.
type OutboxDraft struct {
	EventType string
	Payload   json.RawMessage
}
