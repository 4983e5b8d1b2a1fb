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

// Purchase request errors
var (
	ErrMissingNotFound = errors.New("purchase request not found")
	ErrAlreadyHandled  = errors.New("purchase request already handled")
)

// MissingService handles purchase request business logic
type MissingService struct {
	missingRepo   repositories.MissingRepository
	userRepo      repositories.UserRepository
	actionLogRepo repositories.ActionLogRepository
	notifier      *NotifierService
}

// NewMissingService creates a new purchase request service
func NewMissingService(
	missingRepo repositories.MissingRepository,
	userRepo repositories.UserRepository,
	actionLogRepo repositories.ActionLogRepository,
	notifier *NotifierService,
) *MissingService {
	return &MissingService{
		missingRepo:   missingRepo,
		userRepo:      userRepo,
		actionLogRepo: actionLogRepo,
		notifier:      notifier,
	}
}

// CreateMissingInput represents purchase request creation input
type CreateMissingInput struct {
	Title         string `json:"title" validate:"required"`
	Authors       string `json:"authors,omitempty"`
	Justification string `json:"justification" validate:"required"`
}

// Create files a purchase request and fans a notification out to staff
func (s *MissingService) Create(ctx context.Context, studentID uint, input *CreateMissingInput) (*models.MissingRequest, error) {
	// 1. Load the requesting student (name goes into the staff message)
	student, err := s.userRepo.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// 2. Create request
	mr := &models.MissingRequest{
		StudentID:     studentID,
		Title:         input.Title,
		Authors:       input.Authors,
		Justification: input.Justification,
		Status:        models.MissingStatusOpen,
	}
	if err := s.missingRepo.Create(ctx, mr); err != nil {
		return nil, err
	}

	// 3. Staff fan-out + audit + best-effort email
	if err := s.notifier.MissingCreated(ctx, mr, student); err != nil {
		log.Printf("⚠️ Purchase request fan-out failed (request %d): %v", mr.ID, err)
	}

	return mr, nil
}

// HandleMissingInput represents a staff decision on a purchase request
type HandleMissingInput struct {
	Status string `json:"status" validate:"required"`
	Note   string `json:"note,omitempty"`
}

// Handle records a staff decision (ORDERED or DENIED)
func (s *MissingService) Handle(ctx context.Context, id, staffID uint, input *HandleMissingInput) (*models.MissingRequest, error) {
	if input.Status != models.MissingStatusOrdered && input.Status != models.MissingStatusDenied {
		return nil, ErrInvalidStatus
	}

	mr, err := s.missingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMissingNotFound
		}
		return nil, err
	}
	if mr.IsHandled() {
		return nil, ErrAlreadyHandled
	}

	now := time.Now()
	mr.Status = input.Status
	mr.HandledBy = &staffID
	mr.HandledAt = &now
	mr.HandledNote = input.Note

	if err := s.missingRepo.Update(ctx, mr); err != nil {
		return nil, err
	}

	entry := &models.ActionLog{ActorID: &staffID, Action: "handled purchase request", Extra: map[string]interface{}{"request_id": mr.ID, "status": mr.Status}}
	if err := s.actionLogRepo.Create(ctx, entry); err != nil {
		log.Printf("⚠️ Action log write failed (handled purchase request): %v", err)
	}

	return mr, nil
}

// ListMine lists the student's own purchase requests
func (s *MissingService) ListMine(ctx context.Context, studentID uint) ([]*models.MissingRequest, error) {
	return s.missingRepo.ListByStudent(ctx, studentID)
}

// List lists purchase requests with optional status filter (staff view)
func (s *MissingService) List(ctx context.Context, status string, offset, limit int) ([]*models.MissingRequest, int64, error) {
	return s.missingRepo.List(ctx, status, offset, limit)
}
