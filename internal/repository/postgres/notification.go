package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/connecthq/connect/internal/models"
)

type NotificationRepo struct {
	DB DBTX
}

const createNotification = `-- name: CreateNotification
INSERT INTO notifications (id, user_id, title, message, kind, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, user_id, title, message, kind, created_at
`

func (r *NotificationRepo) Create(ctx context.Context, n models.Notification) (models.Notification, error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	rows, _ := r.DB.Query(ctx, createNotification, n.ID, n.UserID, n.Title, n.Message, n.Kind, n.CreatedAt)
	created, err := pgx.CollectOneRow(rows, rowToNotification)
	if err != nil {
		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const listNotificationsByUser = `-- name: ListNotificationsByUser
SELECT id, user_id, title, message, kind, created_at FROM notifications
WHERE user_id = $1
ORDER BY created_at DESC
`

func (r *NotificationRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	rows, _ := r.DB.Query(ctx, listNotificationsByUser, userID)
	notifications, err := pgx.CollectRows(rows, rowToNotification)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return notifications, nil
}

func rowToNotification(row pgx.CollectableRow) (models.Notification, error) {
	var n models.Notification
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Kind, &n.CreatedAt)
	return n, err
}
