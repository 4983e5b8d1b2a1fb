package repositories

import (
	"context"

	"unibooks/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// missingRepository implements MissingRepository interface
type missingRepository struct {
	db *gorm.DB
}

// NewMissingRepository creates a new purchase request repository
func NewMissingRepository(db *gorm.DB) MissingRepository {
	return &missingRepository{db: db}
}

// Create creates a new purchase request
func (r *missingRepository) Create(ctx context.Context, mr *models.MissingRequest) error {
	return r.db.WithContext(ctx).Create(mr).Error
}

// GetByID gets a purchase request by ID with its relations
func (r *missingRepository) GetByID(ctx context.Context, id uint) (*models.MissingRequest, error) {
	var mr models.MissingRequest
	err := r.db.WithContext(ctx).Preload("Student").Preload("Handler").Where("id = ?", id).First(&mr).Error
	if err != nil {
		return nil, err
	}
	return &mr, nil
}

// Update saves a purchase request
func (r *missingRepository) Update(ctx context.Context, mr *models.MissingRequest) error {
	return r.db.WithContext(ctx).Save(mr).Error
}

// ListByStudent lists a student's purchase requests, newest first
func (r *missingRepository) ListByStudent(ctx context.Context, studentID uint) ([]*models.MissingRequest, error) {
	var mrs []*models.MissingRequest
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&mrs).Error
	return mrs, err
}

// List lists purchase requests, optionally filtered by status
func (r *missingRepository) List(ctx context.Context, status string, offset, limit int) ([]*models.MissingRequest, int64, error) {
	var mrs []*models.MissingRequest
	var total int64

	q := r.db.WithContext(ctx).Model(&models.MissingRequest{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Preload("Student").Preload("Handler").
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&mrs).Error; err != nil {
		return nil, 0, err
	}
	return mrs, total, nil
}
