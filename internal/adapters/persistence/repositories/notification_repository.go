package repositories

import (
	"context"
	"time"

	"unibooks/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// notificationRepository implements NotificationRepository interface
type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// Create creates a new notification
func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// ListByRecipient lists a user's notifications, newest first
func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID uint, offset, limit int) ([]*models.Notification, int64, error) {
	var notifications []*models.Notification
	var total int64

	q := r.db.WithContext(ctx).Model(&models.Notification{}).Where("recipient_id = ?", recipientID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&notifications).Error; err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

// CountUnread counts a user's unread notifications
func (r *notificationRepository) CountUnread(ctx context.Context, recipientID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND `read` = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

// MarkAllRead marks every unread notification of the user as read
func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID uint) error {
	return r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND `read` = ?", recipientID, false).
		Update("read", true).Error
}

// ExistsTypeSince reports whether a notification of the given type was created
// for the user after the given instant (reminder suppression query).
func (r *notificationRepository) ExistsTypeSince(ctx context.Context, recipientID uint, notifType string, since time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND type = ? AND created_at >= ?", recipientID, notifType, since).
		Count(&count).Error
	return count > 0, err
}
