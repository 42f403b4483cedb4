package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification is the legacy notifications table's row shape. No write
// path in this core inserts into it; it is modeled only so the optional
// debug read endpoint has something to return.
type Notification struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Message   string    `json:"message" db:"message"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
