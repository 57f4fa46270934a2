package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/itops-hk/itpm-service/internal/model"
)

// NotificationFilter scopes the inbox query to one recipient. Cursor is the
// created_at of the last row of the previous page.
type NotificationFilter struct {
	UserID     uuid.UUID
	UnreadOnly bool
	Cursor     *time.Time
	Limit      int
}

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) List(ctx context.Context, filter NotificationFilter) ([]model.Notification, error) {
	query := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ?", filter.UserID)

	if filter.UnreadOnly {
		query = query.Where("is_read = false")
	}
	if filter.Cursor != nil {
		query = query.Where("created_at < ?", *filter.Cursor)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	var notifications []model.Notification
	err := query.Order("created_at DESC").Limit(limit).Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *NotificationRepository) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND is_read = false", userID).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// MarkAsRead flips is_read for the recipient's own row. Returns
// gorm.ErrRecordNotFound when the row does not exist or belongs to someone
// else.
func (r *NotificationRepository) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND is_read = false", userID).
		Update("is_read", true).Error
}

func (r *NotificationRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.Notification{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkEmailSent(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ?", id).
		Update("email_sent", true).Error
}
