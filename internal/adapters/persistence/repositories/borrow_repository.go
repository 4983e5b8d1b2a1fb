package repositories

import (
	"context"
	"time"

	"unibooks/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// borrowRepository implements BorrowRepository interface
type borrowRepository struct {
	db *gorm.DB
}

// NewBorrowRepository creates a new borrow request repository
func NewBorrowRepository(db *gorm.DB) BorrowRepository {
	return &borrowRepository{db: db}
}

// Create creates a new borrow request
func (r *borrowRepository) Create(ctx context.Context, br *models.BorrowRequest) error {
	return r.db.WithContext(ctx).Create(br).Error
}

// GetByID gets a borrow request by ID with its relations
func (r *borrowRepository) GetByID(ctx context.Context, id uint) (*models.BorrowRequest, error) {
	var br models.BorrowRequest
	err := r.db.WithContext(ctx).Preload("Student").Preload("Book").Where("id = ?", id).First(&br).Error
	if err != nil {
		return nil, err
	}
	return &br, nil
}

// Update saves a borrow request
func (r *borrowRepository) Update(ctx context.Context, br *models.BorrowRequest) error {
	return r.db.WithContext(ctx).Save(br).Error
}

// ListByStudent lists a student's borrow requests, newest first
func (r *borrowRepository) ListByStudent(ctx context.Context, studentID uint) ([]*models.BorrowRequest, error) {
	var brs []*models.BorrowRequest
	err := r.db.WithContext(ctx).Preload("Book").
		Where("student_id = ?", studentID).
		Order("requested_at DESC").
		Find(&brs).Error
	return brs, err
}

// List lists borrow requests, optionally filtered by status
func (r *borrowRepository) List(ctx context.Context, status string, offset, limit int) ([]*models.BorrowRequest, int64, error) {
	var brs []*models.BorrowRequest
	var total int64

	q := r.db.WithContext(ctx).Model(&models.BorrowRequest{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Preload("Student").Preload("Book").
		Order("requested_at DESC").Offset(offset).Limit(limit).Find(&brs).Error; err != nil {
		return nil, 0, err
	}
	return brs, total, nil
}

// ListApprovedDueBetween lists approved borrows due inside [from, to] (due-date sweep)
func (r *borrowRepository) ListApprovedDueBetween(ctx context.Context, from, to time.Time) ([]*models.BorrowRequest, error) {
	var brs []*models.BorrowRequest
	err := r.db.WithContext(ctx).Preload("Student").Preload("Book").
		Where("status = ? AND due_date >= ? AND due_date <= ?", models.BorrowStatusApproved, from, to).
		Order("id").
		Find(&brs).Error
	return brs, err
}

// ListApprovedOverdue lists approved borrows with due date strictly before the cutoff
func (r *borrowRepository) ListApprovedOverdue(ctx context.Context, before time.Time) ([]*models.BorrowRequest, error) {
	var brs []*models.BorrowRequest
	err := r.db.WithContext(ctx).Preload("Student").Preload("Book").
		Where("status = ? AND due_date < ?", models.BorrowStatusApproved, before).
		Order("id").
		Find(&brs).Error
	return brs, err
}
