// Package worker hosts the long-running dispatcher and applier loops that
// drain the outbox and inbox tables, generalized from the teacher's
// messaging.OutboxPublisher ticker-driven poll loop.
package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/studentsystem/order-processing/internal/models"
	"github.com/studentsystem/order-processing/internal/observability"
	"github.com/studentsystem/order-processing/internal/store"
)

// outboxPollInterval is fixed at 5s for every dispatcher specialization.
const outboxPollInterval = 5 * time.Second

// outboxLeaseLimit bounds a single lease to 100 rows.
const outboxLeaseLimit = 100

// SideEffect performs the one external action a dispatcher specialization
// is responsible for (HTTP POST to payments, HTTP POST to notifications, or
// a broker publish), keyed by the leased row's payload.
type SideEffect func(ctx context.Context, row *models.OutboxRecord) error

// OutboxDispatcher leases pending rows across a set of event types,
// performs a single side effect per row, and marks each row sent — one
// database commit per row, per spec.md §4.F. A specialization may cover
// more than one event_type (e.g. notifications covers every
// notification-shaped event), but every row still gets exactly one
// dispatch transaction.
type OutboxDispatcher struct {
	db         *store.Database
	eventTypes []string
	effect     SideEffect
	metrics    *observability.Metrics
	logger     zerolog.Logger
}

// NewOutboxDispatcher builds a dispatcher for one side effect leasing the
// given set of event types. name identifies the specialization in logs
// ("payments", "notifications", "shipping").
func NewOutboxDispatcher(db *store.Database, eventTypes []string, effect SideEffect, metrics *observability.Metrics, logger zerolog.Logger, name string) *OutboxDispatcher {
	return &OutboxDispatcher{
		db:         db,
		eventTypes: eventTypes,
		effect:     effect,
		metrics:    metrics,
		logger:     logger.With().Str("component", "outbox_dispatcher").Str("worker", name).Logger(),
	}
}

// Run polls until ctx is cancelled, sleeping outboxPollInterval between
// empty leases.
func (d *OutboxDispatcher) Run(ctx context.Context) {
	d.logger.Info().Strs("event_types", d.eventTypes).Msg("outbox dispatcher started")
	ticker := time.NewTicker(outboxPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info().Msg("outbox dispatcher stopping")
			return
		case <-ticker.C:
			d.drainOnce(ctx)
		}
	}
}

// drainOnce leases one batch and dispatches each row in its own
// transaction, so a crash mid-batch loses at most the in-flight row to
// re-lease.
func (d *OutboxDispatcher) drainOnce(ctx context.Context) {
	var leased []*models.OutboxRecord
	err := store.WithinTx(ctx, d.db, d.logger, func(ctx context.Context, uow *store.UnitOfWork) error {
		rows, err := uow.Outbox.Lease(ctx, d.eventTypes, outboxLeaseLimit)
		if err != nil {
			return err
		}
		leased = rows
		return nil
	})
	if err != nil {
		d.logger.Error().Err(err).Msg("failed to lease outbox rows")
		return
	}
	if len(leased) == 0 {
		return
	}

	for _, row := range leased {
		d.metrics.OutboxLeasedTotal.WithLabelValues(row.EventType).Inc()
		d.dispatchOne(ctx, row)
	}
}

// dispatchOne re-leases the single row inside its own transaction (the
// batch lease above already released its lock when that transaction
// committed), performs the side effect, and marks it sent in the same
// transaction as the lease that holds it.
func (d *OutboxDispatcher) dispatchOne(ctx context.Context, row *models.OutboxRecord) {
	start := time.Now()
	err := store.WithinTx(ctx, d.db, d.logger, func(ctx context.Context, uow *store.UnitOfWork) error {
		leased, err := uow.Outbox.LeaseByID(ctx, row.ID)
		if err != nil {
			return err
		}
		if leased == nil {
			// Already dispatched by another replica between the batch
			// lease and this re-lease; nothing to do.
			return nil
		}
		if err := d.effect(ctx, leased); err != nil {
			return err
		}
		return uow.Outbox.MarkSent(ctx, leased.ID)
	})
	duration := time.Since(start).Seconds()

	if err != nil {
		d.metrics.OutboxFailedTotal.WithLabelValues(row.EventType).Inc()
		d.metrics.OutboxDispatchDuration.WithLabelValues(row.EventType, "failure").Observe(duration)
		d.logger.Error().Err(err).
			Str("outbox_id", row.ID.String()).
			Str("event_type", row.EventType).
			Msg("failed to dispatch outbox row, left pending for re-lease")
		return
	}

	d.metrics.OutboxDispatchedTotal.WithLabelValues(row.EventType).Inc()
	d.metrics.OutboxDispatchDuration.WithLabelValues(row.EventType, "success").Observe(duration)
	d.logger.Debug().Str("outbox_id", row.ID.String()).Str("event_type", row.EventType).Msg("dispatched outbox row")
}
