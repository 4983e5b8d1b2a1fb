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

// UserService handles profile, notification and staff administration logic
type UserService struct {
	userRepo         repositories.UserRepository
	notificationRepo repositories.NotificationRepository
	actionLogRepo    repositories.ActionLogRepository
}

// NewUserService creates a new user service
func NewUserService(
	userRepo repositories.UserRepository,
	notificationRepo repositories.NotificationRepository,
	actionLogRepo repositories.ActionLogRepository,
) *UserService {
	return &UserService{
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		actionLogRepo:    actionLogRepo,
	}
}

// GetProfile gets a user profile by ID
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user.ToResponse(), nil
}

// UpdateProfileInput represents profile update input
type UpdateProfileInput struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Faculty   *string `json:"faculty,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Address   *string `json:"address,omitempty"`
	Avatar    *string `json:"avatar,omitempty"`
}

// UpdateProfile updates the caller's own profile fields
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, input *UpdateProfileInput) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Faculty != nil {
		user.Faculty = *input.Faculty
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.Address != nil {
		user.Address = *input.Address
	}
	if input.Avatar != nil {
		user.Avatar = *input.Avatar
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user.ToResponse(), nil
}

// ListNotifications lists the caller's notifications and marks them all
// read, matching the behavior of viewing the notification list.
func (s *UserService) ListNotifications(ctx context.Context, userID uint, offset, limit int) ([]*models.Notification, int64, error) {
	notifications, total, err := s.notificationRepo.ListByRecipient(ctx, userID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	if err := s.notificationRepo.MarkAllRead(ctx, userID); err != nil {
		log.Printf("⚠️ Mark-all-read failed for user %d: %v", userID, err)
	}
	return notifications, total, nil
}

// UnreadCount returns the caller's unread notification count
func (s *UserService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}

// ListUsers lists all accounts with pagination (staff view)
func (s *UserService) ListUsers(ctx context.Context, offset, limit int) ([]*models.UserResponse, int64, error) {
	users, total, err := s.userRepo.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]*models.UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, u.ToResponse())
	}
	return responses, total, nil
}

// RecordPaymentInput represents a staff payment registration
type RecordPaymentInput struct {
	PaidAt *time.Time `json:"paid_at,omitempty"`
}

// RecordPayment registers a subscription payment for a student. The
// expiration is derived on save from the payment timestamp; any value a
// caller tries to supply for it is discarded. Recording a payment also
// reactivates an account the expiry sweep had suspended.
func (s *UserService) RecordPayment(ctx context.Context, staffID, userID uint, input *RecordPaymentInput) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	paidAt := time.Now()
	if input.PaidAt != nil {
		paidAt = *input.PaidAt
	}
	user.PaidAt = &paidAt
	user.IsActive = true

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	entry := &models.ActionLog{ActorID: &staffID, Action: "recorded subscription payment", Extra: map[string]interface{}{"user_id": userID, "paid_at": paidAt.Format(time.RFC3339)}}
	if err := s.actionLogRepo.Create(ctx, entry); err != nil {
		log.Printf("⚠️ Action log write failed (recorded payment): %v", err)
	}

	return user.ToResponse(), nil
}

// SetForcePasswordChange toggles the forced password change flag (staff)
func (s *UserService) SetForcePasswordChange(ctx context.Context, staffID, userID uint, forced bool) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	user.ForcePasswordChange = forced
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	entry := &models.ActionLog{ActorID: &staffID, Action: "set force password change", Extra: map[string]interface{}{"user_id": userID, "forced": forced}}
	if err := s.actionLogRepo.Create(ctx, entry); err != nil {
		log.Printf("⚠️ Action log write failed (force password change): %v", err)
	}

	return user.ToResponse(), nil
}

// SetRolesInput represents a staff role update
type SetRolesInput struct {
	IsStaff     *bool `json:"is_staff,omitempty"`
	IsLibrarian *bool `json:"is_librarian,omitempty"`
}

// SetRoles grants or revokes staff/librarian roles
func (s *UserService) SetRoles(ctx context.Context, staffID, userID uint, input *SetRolesInput) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if input.IsStaff != nil {
		user.IsStaff = *input.IsStaff
	}
	if input.IsLibrarian != nil {
		user.IsLibrarian = *input.IsLibrarian
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	entry := &models.ActionLog{ActorID: &staffID, Action: "updated user roles", Extra: map[string]interface{}{"user_id": userID, "is_staff": user.IsStaff, "is_librarian": user.IsLibrarian}}
	if err := s.actionLogRepo.Create(ctx, entry); err != nil {
		log.Printf("⚠️ Action log write failed (updated roles): %v", err)
	}

	return user.ToResponse(), nil
}

// ListActionLogs lists the audit trail (staff view)
func (s *UserService) ListActionLogs(ctx context.Context, offset, limit int) ([]*models.ActionLog, int64, error) {
	return s.actionLogRepo.List(ctx, offset, limit)
}
