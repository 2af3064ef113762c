package repository

import (
	"context"

	"github.com/northpeak/logistics-api/internal/domain"
	"gorm.io/gorm"
)

// NotificationLogRepository persists the audit trail of dispatched
// notification rounds.
type NotificationLogRepository struct {
	db *gorm.DB
}

func NewNotificationLogRepository(db *gorm.DB) *NotificationLogRepository {
	return &NotificationLogRepository{db: db}
}

func (r *NotificationLogRepository) Create(ctx context.Context, log *domain.NotificationLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *NotificationLogRepository) ListRecent(ctx context.Context, limit int) ([]domain.NotificationLog, error) {
	var logs []domain.NotificationLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
