package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/studentsystem/order-processing/internal/models"
	"github.com/studentsystem/order-processing/internal/observability"
	"github.com/studentsystem/order-processing/internal/store"
)

// PaymentCallbackService implements §4.D: idempotent inbox insert,
// cascaded outbox enqueue.
type PaymentCallbackService struct {
	db       *store.Database
	metrics  *observability.Metrics
	logger   zerolog.Logger
	validate *validator.Validate
}

// NewPaymentCallbackService builds a PaymentCallbackService.
func NewPaymentCallbackService(db *store.Database, metrics *observability.Metrics, logger zerolog.Logger) *PaymentCallbackService {
	return &PaymentCallbackService{
		db:       db,
		metrics:  metrics,
		logger:   logger.With().Str("component", "payment_callback_service").Logger(),
		validate: validator.New(),
	}
}

// HandleCallback records the payment callback. It always succeeds for
// duplicate deliveries and for status=pending (no effect yet) — the HTTP
// layer always returns 200 regardless of which branch below was taken.
func (s *PaymentCallbackService) HandleCallback(ctx context.Context, req PaymentCallbackRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %s", models.ErrInvalidOrderInput, err)
	}

	return store.WithinTx(ctx, s.db, s.logger, func(ctx context.Context, uow *store.UnitOfWork) error {
		existing, err := uow.Inbox.GetByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return fmt.Errorf("check inbox idempotency: %w", err)
		}
		if existing != nil {
			s.logger.Debug().Str("idempotency_key", req.IdempotencyKey.String()).Msg("duplicate payment callback")
			return nil
		}

		switch req.Status {
		case PaymentStatusPending:
			return nil

		case PaymentStatusSucceeded:
			return s.handleSucceeded(ctx, uow, req)

		case PaymentStatusFailed:
			return s.handleFailed(ctx, uow, req)

		default:
			return fmt.Errorf("%w: unknown payment status %q", models.ErrInvalidOrderInput, req.Status)
		}
	})
}

func (s *PaymentCallbackService) handleSucceeded(ctx context.Context, uow *store.UnitOfWork, req PaymentCallbackRequest) error {
	paymentPayload, err := models.Marshal(req)
	if err != nil {
		return err
	}
	if _, err := uow.Inbox.CreateIfAbsent(ctx, models.InboxDraft{
		EventType:      models.EventTypeOrderPaid,
		Payload:        paymentPayload,
		IdempotencyKey: req.IdempotencyKey,
	}); err != nil {
		return fmt.Errorf("record payment.succeeded inbox: %w", err)
	}

	notifyPayload, err := models.Marshal(models.NewNotificationPayload("Order is paid"))
	if err != nil {
		return err
	}
	if _, err := uow.Outbox.Create(ctx, models.OutboxDraft{
		EventType: models.EventTypeOrderPaid,
		Payload:   notifyPayload,
	}); err != nil {
		return fmt.Errorf("enqueue order.paid notification: %w", err)
	}

	order, err := uow.Orders.GetByID(ctx, req.OrderID)
	if err != nil {
		return fmt.Errorf("look up order for shipping request: %w", err)
	}
	if order == nil {
		return fmt.Errorf("%w: order %s", models.ErrOrderNotFound, req.OrderID)
	}

	shippingPayload, err := models.Marshal(models.NewShippingRequestedPayload(order.ID, order.ItemID, order.Quantity))
	if err != nil {
		return err
	}
	if _, err := uow.Outbox.Create(ctx, models.OutboxDraft{
		EventType: models.EventTypeShippingRequested,
		Payload:   shippingPayload,
	}); err != nil {
		return fmt.Errorf("enqueue shipping.requested: %w", err)
	}

	s.metrics.PaymentsSucceededTotal.Inc()
	return nil
}

func (s *PaymentCallbackService) handleFailed(ctx context.Context, uow *store.UnitOfWork, req PaymentCallbackRequest) error {
	paymentPayload, err := models.Marshal(req)
	if err != nil {
		return err
	}
	if _, err := uow.Inbox.CreateIfAbsent(ctx, models.InboxDraft{
		EventType:      models.EventTypeOrderCancelled,
		Payload:        paymentPayload,
		IdempotencyKey: req.IdempotencyKey,
	}); err != nil {
		return fmt.Errorf("record payment.failed inbox: %w", err)
	}

	notifyPayload, err := models.Marshal(models.NewNotificationPayload("Order is cancelled"))
	if err != nil {
		return err
	}
	if _, err := uow.Outbox.Create(ctx, models.OutboxDraft{
		EventType: models.EventTypeOrderCancelled,
		Payload:   notifyPayload,
	}); err != nil {
		return fmt.Errorf("enqueue order.cancelled notification: %w", err)
	}

	s.metrics.PaymentsFailedTotal.Inc()
	return nil
}
