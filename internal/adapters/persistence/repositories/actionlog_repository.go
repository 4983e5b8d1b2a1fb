package repositories

import (
	"context"

	"unibooks/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// actionLogRepository implements ActionLogRepository interface
type actionLogRepository struct {
	db *gorm.DB
}

// NewActionLogRepository creates a new action log repository
func NewActionLogRepository(db *gorm.DB) ActionLogRepository {
	return &actionLogRepository{db: db}
}

// Create appends an audit entry
func (r *actionLogRepository) Create(ctx context.Context, entry *models.ActionLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// List lists audit entries, newest first
func (r *actionLogRepository) List(ctx context.Context, offset, limit int) ([]*models.ActionLog, int64, error) {
	var entries []*models.ActionLog
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.ActionLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := r.db.WithContext(ctx).Preload("Actor").
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
