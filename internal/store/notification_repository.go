package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/studentsystem/order-processing/internal/models"
)

// NotificationRepository is a read-only path over the legacy notifications
// table. No unit-of-work writes through it — it exists only to back the
// optional debug read endpoint.
type NotificationRepository struct {
	db *Database
}

// NewNotificationRepository builds a NotificationRepository bound directly
// to the pool.
func NewNotificationRepository(db *Database) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Get returns (nil, nil) when no row exists with the given id.
func (r *NotificationRepository) Get(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	row := r.db.Pool.QueryRow(ctx, `
		SELECT id, message, created_at FROM notifications WHERE id = $1
	`, id)

	var n models.Notification
	if err := row.Scan(&n.ID, &n.Message, &n.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan notification: %w", err)
	}
	return &n, nil
}
