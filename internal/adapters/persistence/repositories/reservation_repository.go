package repositories

import (
	"context"

	"unibooks/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// reservationRepository implements ReservationRepository interface
type reservationRepository struct {
	db *gorm.DB
}

// NewReservationRepository creates a new reservation repository
func NewReservationRepository(db *gorm.DB) ReservationRepository {
	return &reservationRepository{db: db}
}

// Create creates a new reservation
func (r *reservationRepository) Create(ctx context.Context, res *models.Reservation) error {
	return r.db.WithContext(ctx).Create(res).Error
}

// GetByID gets a reservation by ID with its relations
func (r *reservationRepository) GetByID(ctx context.Context, id uint) (*models.Reservation, error) {
	var res models.Reservation
	err := r.db.WithContext(ctx).Preload("Student").Preload("Book").Where("id = ?", id).First(&res).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Update saves a reservation
func (r *reservationRepository) Update(ctx context.Context, res *models.Reservation) error {
	return r.db.WithContext(ctx).Save(res).Error
}

// ListByStudent lists a student's reservations, newest first
func (r *reservationRepository) ListByStudent(ctx context.Context, studentID uint) ([]*models.Reservation, error) {
	var reservations []*models.Reservation
	err := r.db.WithContext(ctx).Preload("Book").
		Where("student_id = ?", studentID).
		Order("reserved_at DESC").
		Find(&reservations).Error
	return reservations, err
}

// List lists reservations, optionally filtered by status
func (r *reservationRepository) List(ctx context.Context, status string, offset, limit int) ([]*models.Reservation, int64, error) {
	var reservations []*models.Reservation
	var total int64

	q := r.db.WithContext(ctx).Model(&models.Reservation{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Preload("Student").Preload("Book").
		Order("reserved_at DESC").Offset(offset).Limit(limit).Find(&reservations).Error; err != nil {
		return nil, 0, err
	}
	return reservations, total, nil
}
