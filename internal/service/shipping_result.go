package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/studentsystem/order-processing/internal/idempotency"
	"github.com/studentsystem/order-processing/internal/models"
	"github.com/studentsystem/order-processing/internal/observability"
	"github.com/studentsystem/order-processing/internal/store"
)

// ShippingResultService implements §4.E: the broker-response consumer
// resolves a stable idempotency key for the inbound message, records it
// into inbox, and enqueues the matching outbox notification — all in one
// transaction that is committed before the broker offset is acknowledged.
type ShippingResultService struct {
	db      *store.Database
	metrics *observability.Metrics
	logger  zerolog.Logger
}

// NewShippingResultService builds a ShippingResultService.
func NewShippingResultService(db *store.Database, metrics *observability.Metrics, logger zerolog.Logger) *ShippingResultService {
	return &ShippingResultService{
		db:      db,
		metrics: metrics,
		logger:  logger.With().Str("component", "shipping_result_service").Logger(),
	}
}

// HandleMessage is the broker.MessageHandler passed to broker.Consumer.Run.
// It returns nil (and thus allows the offset to be marked) only once the
// database transaction has committed, or when a message carrying neither
// shipment_id nor order_id is dropped.
func (s *ShippingResultService) HandleMessage(ctx context.Context, value []byte) error {
	var msg models.ShippingResultMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		return fmt.Errorf("decode shipping result message: %w", err)
	}

	key, ok := idempotency.ShippingKey(msg)
	if !ok {
		s.logger.Warn().Str("event_type", msg.EventType).Msg("shipping result message carries neither shipment_id nor order_id, dropped")
		return nil
	}

	state := orderStateFromEventType(msg.EventType)

	err := store.WithinTx(ctx, s.db, s.logger, func(ctx context.Context, uow *store.UnitOfWork) error {
		existing, err := uow.Inbox.GetByIdempotencyKey(ctx, key)
		if err != nil {
			return fmt.Errorf("check inbox idempotency: %w", err)
		}
		if existing != nil {
			s.logger.Debug().Str("idempotency_key", key.String()).Msg("duplicate shipping result")
			return nil
		}

		payload, err := models.Marshal(msg)
		if err != nil {
			return err
		}

		eventType := models.EventTypeOrderShipped
		if state == models.OrderStateCancelled {
			eventType = models.EventTypeOrderCancelled
		}

		if _, err := uow.Inbox.CreateIfAbsent(ctx, models.InboxDraft{
			EventType:      eventType,
			Payload:        payload,
			IdempotencyKey: key,
		}); err != nil {
			return fmt.Errorf("record shipping result inbox: %w", err)
		}

		message := "Order has been shipped"
		if state == models.OrderStateCancelled {
			message = "Order has been cancelled"
		}
		notifyPayload, err := models.Marshal(models.NewNotificationPayload(message))
		if err != nil {
			return err
		}
		if _, err := uow.Outbox.Create(ctx, models.OutboxDraft{
			EventType: eventType,
			Payload:   notifyPayload,
		}); err != nil {
			return fmt.Errorf("enqueue shipping result notification: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.ShippingResultsProcessedTotal.WithLabelValues(msg.EventType).Inc()
	return nil
}

// orderStateFromEventType maps the broker message's event_type to the
// terminal order state it drives. Anything other than an explicit failure
// marker is treated as a successful shipment, matching spec.md's
// "order.shipped (or order.cancelled if event_type indicates failure)".
func orderStateFromEventType(eventType string) models.OrderState {
	switch eventType {
	case models.EventTypeOrderCancelled, "shipping.failed":
		return models.OrderStateCancelled
	default:
		return models.OrderStateShipped
	}
}
