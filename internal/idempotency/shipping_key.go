// Package idempotency derives the stable dedup keys the core uses to make
// external events idempotent across retries and redelivery.
package idempotency

import (
	"github.com/google/uuid"

	"github.com/studentsystem/order-processing/internal/models"
)

// ShippingKey resolves the inbox idempotency_key for a shipping result
// message: a UUIDv5 derived from shipment_id when present, falling back to
// order_id. Returns false if neither field is usable, in which case the
// message must be dropped.
func ShippingKey(msg models.ShippingResultMessage) (uuid.UUID, bool) {
	switch {
	case msg.ShipmentID != nil:
		return uuid.NewSHA1(uuid.NameSpaceDNS, []byte("shipping-"+msg.ShipmentID.String())), true
	case msg.OrderID != uuid.Nil:
		return uuid.NewSHA1(uuid.NameSpaceDNS, []byte("shipping-"+msg.OrderID.String())), true
	default:
		return uuid.Nil, false
	}
}
