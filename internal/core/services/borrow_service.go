package services

import (
	"context"
	"errors"
	"log"
	"time"

	"unibooks/internal/adapters/persistence/models"
	"unibooks/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

// Borrow service errors
var (
	ErrBorrowNotFound  = errors.New("borrow request not found")
	ErrBookNotFound    = errors.New("book not found")
	ErrBookUnavailable = errors.New("no copies available")
	ErrInvalidStatus   = errors.New("invalid status value")
	ErrNotRequestOwner = errors.New("not the owner of this request")
)

// BorrowService handles borrow request business logic
type BorrowService struct {
	borrowRepo repositories.BorrowRepository
	bookRepo   repositories.BookRepository
	userRepo   repositories.UserRepository
	notifier   *NotifierService
}

// NewBorrowService creates a new borrow service
func NewBorrowService(
	borrowRepo repositories.BorrowRepository,
	bookRepo repositories.BookRepository,
	userRepo repositories.UserRepository,
	notifier *NotifierService,
) *BorrowService {
	return &BorrowService{
		borrowRepo: borrowRepo,
		bookRepo:   bookRepo,
		userRepo:   userRepo,
		notifier:   notifier,
	}
}

// CreateBorrowInput represents borrow request creation input
type CreateBorrowInput struct {
	BookID uint `json:"book_id" validate:"required"`
}

// Create files a borrow request for the student (status PENDING)
func (s *BorrowService) Create(ctx context.Context, studentID uint, input *CreateBorrowInput) (*models.BorrowRequest, error) {
	// 1. Validate book exists
	book, err := s.bookRepo.GetByID(ctx, input.BookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}

	// 2. Create request
	br := &models.BorrowRequest{
		StudentID: studentID,
		BookID:    input.BookID,
		Status:    models.BorrowStatusPending,
	}
	if err := s.borrowRepo.Create(ctx, br); err != nil {
		return nil, err
	}

	// 3. Confirmation notification + audit
	if err := s.notifier.BorrowCreated(ctx, br, book); err != nil {
		log.Printf("⚠️ Borrow creation notification failed (request %d): %v", br.ID, err)
	}

	return br, nil
}

// UpdateBorrowStatusInput represents staff status update input
type UpdateBorrowStatusInput struct {
	Status       string     `json:"status" validate:"required"`
	BorrowDate   *time.Time `json:"borrow_date,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	AdminComment string     `json:"admin_comment,omitempty"`
}

// UpdateStatus applies a staff decision to a borrow request. The prior
// row is read before the write so the status transition can be detected
// and handed to the notifier as an explicit descriptor.
func (s *BorrowService) UpdateStatus(ctx context.Context, id uint, input *UpdateBorrowStatusInput) (*models.BorrowRequest, error) {
	switch input.Status {
	case models.BorrowStatusPending, models.BorrowStatusApproved, models.BorrowStatusRejected, models.BorrowStatusReturned:
	default:
		return nil, ErrInvalidStatus
	}

	// 1. Read prior state
	previous, err := s.borrowRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBorrowNotFound
		}
		return nil, err
	}
	transition := StatusTransition{Old: previous.Status, New: input.Status}

	// 2. Apply update
	br := previous
	br.Status = input.Status
	if input.BorrowDate != nil {
		br.BorrowDate = input.BorrowDate
	}
	if input.DueDate != nil {
		br.DueDate = input.DueDate
	}
	if input.AdminComment != "" {
		br.AdminComment = input.AdminComment
	}

	// 3. Copies accounting
	book, err := s.bookRepo.GetByID(ctx, br.BookID)
	if err != nil {
		return nil, err
	}
	if transition.Became(models.BorrowStatusApproved) {
		if !book.Available() {
			return nil, ErrBookUnavailable
		}
		book.AvailableCopies--
		if err := s.bookRepo.Update(ctx, book); err != nil {
			return nil, err
		}
	}
	if transition.Became(models.BorrowStatusReturned) && previous.Status == models.BorrowStatusApproved {
		book.AvailableCopies++
		if err := s.bookRepo.Update(ctx, book); err != nil {
			return nil, err
		}
	}

	if err := s.borrowRepo.Update(ctx, br); err != nil {
		return nil, err
	}

	// 4. Notify on the approval transition
	student, err := s.userRepo.GetByID(ctx, br.StudentID)
	if err != nil {
		return nil, err
	}
	if err := s.notifier.BorrowTransition(ctx, br, book, student, transition); err != nil {
		log.Printf("⚠️ Borrow transition notification failed (request %d): %v", br.ID, err)
	}

	return br, nil
}

// GetByID gets a borrow request, enforcing ownership for students
func (s *BorrowService) GetByID(ctx context.Context, id uint, requester *models.User) (*models.BorrowRequest, error) {
	br, err := s.borrowRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBorrowNotFound
		}
		return nil, err
	}
	if !requester.IsStaff && br.StudentID != requester.ID {
		return nil, ErrNotRequestOwner
	}
	return br, nil
}

// ListMine lists the student's own borrow requests
func (s *BorrowService) ListMine(ctx context.Context, studentID uint) ([]*models.BorrowRequest, error) {
	return s.borrowRepo.ListByStudent(ctx, studentID)
}

// List lists borrow requests with optional status filter (staff view)
func (s *BorrowService) List(ctx context.Context, status string, offset, limit int) ([]*models.BorrowRequest, int64, error) {
	return s.borrowRepo.List(ctx, status, offset, limit)
}
