package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// UnitOfWork is a scoped transactional context over the order, order
// status, outbox and inbox repositories — entered, performs N repository
// operations, and either commits or rolls back as one. Release (rollback
// on any uncaught failure) happens on every exit path.
type UnitOfWork struct {
	tx     pgx.Tx
	Orders *OrderRepository
	Status *OrderStatusRepository
	Outbox *OutboxRepository
	Inbox  *InboxRepository
}

func newUnitOfWork(tx pgx.Tx) *UnitOfWork {
	return &UnitOfWork{
		tx:     tx,
		Orders: &OrderRepository{tx: tx},
		Status: &OrderStatusRepository{tx: tx},
		Outbox: &OutboxRepository{tx: tx},
		Inbox:  &InboxRepository{tx: tx},
	}
}

// WithinTx opens a unit of work, runs fn, and commits on nil error or
// rolls back otherwise. Rollback also runs (harmlessly, against an
// already-committed tx) on every exit path via the deferred call — pgx
// treats rollback-after-commit as a no-op.
func WithinTx(ctx context.Context, db *Database, logger zerolog.Logger, fn func(ctx context.Context, uow *UnitOfWork) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
			logger.Debug().Err(rbErr).Msg("rollback after commit/failure")
		}
	}()

	uow := newUnitOfWork(tx)
	if err := fn(ctx, uow); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
