package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/partner-portal/internal/domain"
	"gorm.io/gorm"
)

type notificationRepository struct {
	db *gorm.DB
}

func (r *notificationRepository) CreateBatch(ctx context.Context, items []domain.Notification) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]notificationModel, 0, len(items))
	for _, item := range items {
		rows = append(rows, fromDomainNotification(item))
	}
	return r.db.WithContext(ctx).CreateInBatches(&rows, 100).Error
}

func (r *notificationRepository) Get(ctx context.Context, notificationID uuid.UUID) (domain.Notification, error) {
	var row notificationModel
	if err := r.db.WithContext(ctx).Where("notification_id = ?", notificationID).Take(&row).Error; err != nil {
		return domain.Notification{}, notFound(err)
	}
	return toDomainNotification(row), nil
}

func (r *notificationRepository) List(ctx context.Context, recipients []string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	if len(recipients) == 0 {
		return []domain.Notification{}, nil
	}
	q := r.db.WithContext(ctx).Model(&notificationModel{}).Where("recipient_id IN ?", recipients)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}
	var rows []notificationModel
	if err := page(q.Order("created_at DESC, notification_id ASC"), limit, offset).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Notification, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainNotification(row))
	}
	return out, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, notificationID uuid.UUID, at time.Time) (domain.Notification, error) {
	var out domain.Notification
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&notificationModel{}).
			Where("notification_id = ? AND read_at IS NULL", notificationID).
			Update("read_at", at.UTC()).Error; err != nil {
			return err
		}
		var row notificationModel
		if err := tx.Where("notification_id = ?", notificationID).Take(&row).Error; err != nil {
			return notFound(err)
		}
		out = toDomainNotification(row)
		return nil
	})
	return out, err
}
