package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/studentsystem/order-processing/internal/adapters/catalog"
	"github.com/studentsystem/order-processing/internal/models"
	"github.com/studentsystem/order-processing/internal/observability"
	"github.com/studentsystem/order-processing/internal/store"
)

// CreateOrderService implements §4.C: validate, persist the order, and
// enqueue payment.requested + order.created in one transaction.
type CreateOrderService struct {
	db       *store.Database
	catalog  *catalog.Client
	metrics  *observability.Metrics
	logger   zerolog.Logger
	validate *validator.Validate
}

// NewCreateOrderService builds a CreateOrderService.
func NewCreateOrderService(db *store.Database, catalogClient *catalog.Client, metrics *observability.Metrics, logger zerolog.Logger) *CreateOrderService {
	return &CreateOrderService{
		db:       db,
		catalog:  catalogClient,
		metrics:  metrics,
		logger:   logger.With().Str("component", "create_order_service").Logger(),
		validate: validator.New(),
	}
}

// CreateOrder runs the create-order transaction. On a duplicate
// idempotency key it returns *models.OrderAlreadyExistsError wrapping the
// prior order — the HTTP layer renders that as 200 with the prior order's
// data, not as an error to the caller.
func (s *CreateOrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrInvalidOrderInput, err)
	}

	var created *models.Order

	err := store.WithinTx(ctx, s.db, s.logger, func(ctx context.Context, uow *store.UnitOfWork) error {
		existing, err := uow.Orders.GetByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return fmt.Errorf("check idempotency: %w", err)
		}
		if existing != nil {
			return &models.OrderAlreadyExistsError{Order: existing}
		}

		item, err := s.catalog.GetItemStock(ctx, req.ItemID)
		if err != nil {
			return fmt.Errorf("%w: %s", models.ErrCatalogServiceUnavailable, err)
		}
		if item == nil {
			return models.ErrItemNotFound
		}
		if item.AvailableQty < req.Quantity {
			return models.ErrNotEnoughStocks
		}

		amount := item.Price.Mul(decimal.NewFromInt(int64(req.Quantity)))

		order, err := uow.Orders.Create(ctx, models.OrderDraft{
			UserID:         req.UserID,
			ItemID:         req.ItemID,
			Quantity:       req.Quantity,
			Amount:         amount,
			IdempotencyKey: req.IdempotencyKey,
		})
		if err != nil {
			return fmt.Errorf("persist order: %w", err)
		}

		if err := uow.Status.Append(ctx, order.ID, models.OrderStateNew); err != nil {
			return fmt.Errorf("append new status: %w", err)
		}

		paymentPayload, err := models.Marshal(models.NewPaymentRequestedPayload(order.ID, order.Amount, order.IdempotencyKey))
		if err != nil {
			return err
		}
		if _, err := uow.Outbox.Create(ctx, models.OutboxDraft{
			EventType: models.EventTypePaymentRequested,
			Payload:   paymentPayload,
		}); err != nil {
			return fmt.Errorf("enqueue payment.requested: %w", err)
		}

		notifyPayload, err := models.Marshal(models.NewNotificationPayload("Order created"))
		if err != nil {
			return err
		}
		if _, err := uow.Outbox.Create(ctx, models.OutboxDraft{
			EventType: models.EventTypeOrderCreated,
			Payload:   notifyPayload,
		}); err != nil {
			return fmt.Errorf("enqueue order.created: %w", err)
		}

		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.OrdersCreatedTotal.Inc()
	s.logger.Info().
		Str("order_id", created.ID.String()).
		Str("user_id", created.UserID).
		Str("amount", created.Amount.String()).
		Msg("order created")

	return created, nil
}
