package services

import (
	"context"
	"errors"
	"log"

	"unibooks/internal/adapters/persistence/models"
	"unibooks/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

// Reservation service errors
var (
	ErrReservationNotFound = errors.New("reservation not found")
	ErrBookAvailable       = errors.New("book is available, no reservation needed")
)

// ReservationService handles reservation business logic
type ReservationService struct {
	reservationRepo repositories.ReservationRepository
	bookRepo        repositories.BookRepository
	notifier        *NotifierService
}

// NewReservationService creates a new reservation service
func NewReservationService(
	reservationRepo repositories.ReservationRepository,
	bookRepo repositories.BookRepository,
	notifier *NotifierService,
) *ReservationService {
	return &ReservationService{
		reservationRepo: reservationRepo,
		bookRepo:        bookRepo,
		notifier:        notifier,
	}
}

// CreateReservationInput represents reservation creation input
type CreateReservationInput struct {
	BookID uint `json:"book_id" validate:"required"`
}

// Create records a reservation for the student (status ACTIVE)
func (s *ReservationService) Create(ctx context.Context, studentID uint, input *CreateReservationInput) (*models.Reservation, error) {
	// 1. Validate book exists
	book, err := s.bookRepo.GetByID(ctx, input.BookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}

	// 2. Reservations only make sense for books with no copies left
	if book.Available() {
		return nil, ErrBookAvailable
	}

	// 3. Create reservation
	r := &models.Reservation{
		StudentID: studentID,
		BookID:    input.BookID,
		Status:    models.ReservationStatusActive,
	}
	if err := s.reservationRepo.Create(ctx, r); err != nil {
		return nil, err
	}

	// 4. Confirmation notification + audit
	if err := s.notifier.ReservationCreated(ctx, r, book); err != nil {
		log.Printf("⚠️ Reservation creation notification failed (reservation %d): %v", r.ID, err)
	}

	return r, nil
}

// UpdateReservationStatusInput represents staff status update input
type UpdateReservationStatusInput struct {
	Status string `json:"status" validate:"required"`
}

// UpdateStatus applies a status change to a reservation. The prior row
// is read first so the transition descriptor can drive notifications.
func (s *ReservationService) UpdateStatus(ctx context.Context, id uint, input *UpdateReservationStatusInput) (*models.Reservation, error) {
	switch input.Status {
	case models.ReservationStatusActive, models.ReservationStatusCancelled, models.ReservationStatusFulfilled:
	default:
		return nil, ErrInvalidStatus
	}

	// 1. Read prior state
	previous, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	transition := StatusTransition{Old: previous.Status, New: input.Status}

	// 2. Apply update
	r := previous
	r.Status = input.Status
	if err := s.reservationRepo.Update(ctx, r); err != nil {
		return nil, err
	}

	// 3. Notify on FULFILLED / CANCELLED transitions
	book, err := s.bookRepo.GetByID(ctx, r.BookID)
	if err != nil {
		return nil, err
	}
	if err := s.notifier.ReservationTransition(ctx, r, book, transition); err != nil {
		log.Printf("⚠️ Reservation transition notification failed (reservation %d): %v", r.ID, err)
	}

	return r, nil
}

// Cancel lets a student cancel their own reservation
func (s *ReservationService) Cancel(ctx context.Context, id, studentID uint) (*models.Reservation, error) {
	r, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	if r.StudentID != studentID {
		return nil, ErrNotRequestOwner
	}
	return s.UpdateStatus(ctx, id, &UpdateReservationStatusInput{Status: models.ReservationStatusCancelled})
}

// ListMine lists the student's own reservations
func (s *ReservationService) ListMine(ctx context.Context, studentID uint) ([]*models.Reservation, error) {
	return s.reservationRepo.ListByStudent(ctx, studentID)
}

// List lists reservations with optional status filter (staff view)
func (s *ReservationService) List(ctx context.Context, status string, offset, limit int) ([]*models.Reservation, int64, error) {
	return s.reservationRepo.List(ctx, status, offset, limit)
}
