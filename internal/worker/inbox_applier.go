package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/studentsystem/order-processing/internal/models"
	"github.com/studentsystem/order-processing/internal/observability"
	"github.com/studentsystem/order-processing/internal/store"
)

const inboxPollInterval = 5 * time.Second
const inboxLeaseLimit = 100

// InboxApplier leases pending inbox rows and advances order_status
// accordingly, one commit per row (same shape as OutboxDispatcher).
type InboxApplier struct {
	db      *store.Database
	metrics *observability.Metrics
	logger  zerolog.Logger
}

// NewInboxApplier builds the single inbox applier worker.
func NewInboxApplier(db *store.Database, metrics *observability.Metrics, logger zerolog.Logger) *InboxApplier {
	return &InboxApplier{
		db:      db,
		metrics: metrics,
		logger:  logger.With().Str("component", "inbox_applier").Logger(),
	}
}

// Run polls until ctx is cancelled.
func (a *InboxApplier) Run(ctx context.Context) {
	a.logger.Info().Msg("inbox applier started")
	ticker := time.NewTicker(inboxPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info().Msg("inbox applier stopping")
			return
		case <-ticker.C:
			a.drainOnce(ctx)
		}
	}
}

func (a *InboxApplier) drainOnce(ctx context.Context) {
	var leased []*models.InboxRecord
	err := store.WithinTx(ctx, a.db, a.logger, func(ctx context.Context, uow *store.UnitOfWork) error {
		rows, err := uow.Inbox.Lease(ctx, inboxLeaseLimit)
		if err != nil {
			return err
		}
		leased = rows
		return nil
	})
	if err != nil {
		a.logger.Error().Err(err).Msg("failed to lease inbox rows")
		return
	}
	if len(leased) == 0 {
		return
	}
	a.metrics.InboxLeasedTotal.Add(float64(len(leased)))

	for _, row := range leased {
		a.applyOne(ctx, row)
	}
}

func (a *InboxApplier) applyOne(ctx context.Context, row *models.InboxRecord) {
	err := store.WithinTx(ctx, a.db, a.logger, func(ctx context.Context, uow *store.UnitOfWork) error {
		leased, err := uow.Inbox.LeaseByID(ctx, row.ID)
		if err != nil {
			return err
		}
		if leased == nil {
			return nil
		}

		state, err := stateForEventType(leased.EventType)
		if err != nil {
			return err
		}

		orderID, err := models.OrderIDFromPayload(leased.Payload)
		if err != nil {
			return err
		}

		if err := uow.Status.Append(ctx, orderID, state); err != nil {
			return fmt.Errorf("append order status: %w", err)
		}

		return uow.Inbox.MarkProcessed(ctx, leased.ID)
	})

	if err != nil {
		a.metrics.InboxFailedTotal.WithLabelValues(row.EventType).Inc()
		a.logger.Error().Err(err).
			Str("inbox_id", row.ID.String()).
			Str("event_type", row.EventType).
			Msg("failed to apply inbox row, left pending for re-lease")
		return
	}

	a.metrics.InboxAppliedTotal.WithLabelValues(row.EventType).Inc()
	a.logger.Debug().Str("inbox_id", row.ID.String()).Str("event_type", row.EventType).Msg("applied inbox row")
}

func stateForEventType(eventType string) (models.OrderState, error) {
	switch eventType {
	case models.EventTypeOrderPaid:
		return models.OrderStatePaid, nil
	case models.EventTypeOrderCancelled:
		return models.OrderStateCancelled, nil
	case models.EventTypeOrderShipped:
		return models.OrderStateShipped, nil
	default:
		return "", fmt.Errorf("inbox applier: unhandled event_type %q", eventType)
	}
}
