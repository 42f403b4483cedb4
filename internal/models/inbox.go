package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// InboxStatus is a one-way transition: pending -> processed.
type InboxStatus string

const (
	InboxStatusPending   InboxStatus = "pending"
	InboxStatusProcessed InboxStatus = "processed"
)

// InboxRecord is a durable inbound event envelope keyed by an external
// idempotency key, preventing duplicate effects across retries.
type InboxRecord struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	EventType      string          `json:"event_type" db:"event_type"`
	Payload        json.RawMessage `json:"payload" db:"payload"`
	Status         InboxStatus     `json:"status" db:"status"`
	IdempotencyKey uuid.UUID       `json:"idempotency_key" db:"idempotency_key"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// InboxDraft carries the fields needed to insert a new InboxRecord.
// Insertion is "on conflict (idempotency_key) do nothing": a nil returned
// record means the key already existed and the insert was a no-op.
type InboxDraft struct {
	EventType      string
	Payload        json.RawMessage
	IdempotencyKey uuid.UUID
}
