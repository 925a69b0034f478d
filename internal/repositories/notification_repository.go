package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"realtime-service/internal/models"
)

var ErrNotificationNotFound = errors.New("notification not found")

const defaultNotificationLimit = 50

// NotificationRepository stores durable per-user notifications.
type NotificationRepository interface {
	Create(ctx context.Context, userID string, kind string, data any) (models.Notification, error)
	List(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, notificationID string, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
}

// NotificationRepo is a sqlx implementation of NotificationRepository.
type NotificationRepo struct {
	db *sqlx.DB
}

// NewNotificationRepo constructs a NotificationRepo.
func NewNotificationRepo(db *sqlx.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

func (r *NotificationRepo) Create(ctx context.Context, userID string, kind string, data any) (models.Notification, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return models.Notification{}, fmt.Errorf("encode notification data: %w", err)
	}
	var n models.Notification
	err = r.db.GetContext(ctx, &n, `INSERT INTO notifications (user_id, type, data) VALUES ($1, $2, $3)
        RETURNING id, user_id, type, data, read, created_at`, userID, kind, raw)
	return n, err
}

// List returns the newest notifications first.
func (r *NotificationRepo) List(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	var list []models.Notification
	err := r.db.SelectContext(ctx, &list, `SELECT id, user_id, type, data, read, created_at FROM notifications
        WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	return list, err
}

func (r *NotificationRepo) MarkRead(ctx context.Context, notificationID string, userID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET read = TRUE WHERE id=$1 AND user_id=$2`, notificationID, userID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET read = TRUE WHERE user_id=$1 AND read = FALSE`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *NotificationRepo) UnreadCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM notifications WHERE user_id=$1 AND read = FALSE`, userID)
	return count, err
}
