package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"unibooks/internal/adapters/persistence/models"
	"unibooks/internal/adapters/persistence/repositories"
	"unibooks/internal/config"
	"unibooks/internal/pkg/jwt"
	"unibooks/internal/pkg/password"

	"gorm.io/gorm"
)

// Auth errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrMatriculeUsed      = errors.New("matricule already registered")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrWeakPassword       = errors.New("password does not meet requirements")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrSessionNotFound    = errors.New("session not found or expired")
)

// AuthService handles authentication business logic
type AuthService struct {
	userRepo      repositories.UserRepository
	sessionRepo   repositories.SessionRepository
	actionLogRepo repositories.ActionLogRepository
	cfg           *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repositories.UserRepository,
	sessionRepo repositories.SessionRepository,
	actionLogRepo repositories.ActionLogRepository,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		sessionRepo:   sessionRepo,
		actionLogRepo: actionLogRepo,
		cfg:           cfg,
	}
}

// RegisterInput represents registration input
type RegisterInput struct {
	Matricule string `json:"matricule,omitempty"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Faculty   string `json:"faculty,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// LoginInput represents login input. Identifier may be a technical
// username, an email address or a matricule.
type LoginInput struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User        *models.UserResponse `json:"user"`
	AccessToken string               `json:"access_token"`
	SessionID   string               `json:"session_id"`
}

// resolveIdentifier finds the account a login identifier refers to.
// Precedence: technical username, then email when the identifier looks
// like one, then matricule. All three lookups are case-insensitive.
func (s *AuthService) resolveIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, identifier)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if user == nil && strings.Contains(identifier, "@") {
		user, err = s.userRepo.GetByEmail(ctx, identifier)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	if user == nil {
		user, err = s.userRepo.GetByMatricule(ctx, identifier)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	if user == nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Register registers a new student account
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (*AuthResponse, error) {
	// 1. Validate password strength
	if !password.Validate(input.Password) {
		return nil, ErrWeakPassword
	}

	// 2. Check if email already exists
	exists, err := s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserAlreadyExists
	}

	// 3. Check if matricule already exists
	if input.Matricule != "" {
		exists, err = s.userRepo.ExistsByMatricule(ctx, input.Matricule)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrMatriculeUsed
		}
	}

	// 4. Hash password
	hashedPassword, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	// 5. Create user (technical username is generated on save)
	user := &models.User{
		Email:     input.Email,
		Password:  hashedPassword,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Faculty:   input.Faculty,
		Phone:     input.Phone,
		IsActive:  true,
	}
	if input.Matricule != "" {
		m := input.Matricule
		user.Matricule = &m
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	// 6. Open a session and issue a token
	return s.openSession(ctx, user)
}

// Login authenticates by matricule, email or username
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	// 1. Resolve the identifier to an account
	user, err := s.resolveIdentifier(ctx, input.Identifier)
	if err != nil {
		return nil, err
	}

	// 2. Verify password
	if !password.Verify(input.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	// 3. Reject suspended accounts
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	// 4. Open a session and issue a token
	return s.openSession(ctx, user)
}

// openSession creates a server-side session row and a JWT bound to it.
func (s *AuthService) openSession(ctx context.Context, user *models.User) (*AuthResponse, error) {
	session, err := models.NewSession(user.ID, time.Duration(s.cfg.Session.TTLHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	token, err := jwt.GenerateAccessToken(user.ID, session.ID, user.Email, user.IsStaff, user.IsLibrarian, s.cfg.JWT.Secret, s.cfg.JWT.AccessTokenMins)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		User:        user.ToResponse(),
		AccessToken: token,
		SessionID:   session.ID,
	}, nil
}

// Logout deletes the session behind the presented token
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessionRepo.Delete(ctx, sessionID)
}

// ChangePasswordInput represents change password input
type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// ChangePassword updates the password, clears the forced-change flag and
// invalidates every other session belonging to the user.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, currentSessionID string, input *ChangePasswordInput) error {
	// 1. Load user
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	// 2. Verify current password
	if !password.Verify(input.CurrentPassword, user.Password) {
		return ErrWrongPassword
	}

	// 3. Validate new password
	if !password.Validate(input.NewPassword) {
		return ErrWeakPassword
	}

	// 4. Hash and persist; the forced-change flag clears here and only here
	hashed, err := password.Hash(input.NewPassword)
	if err != nil {
		return err
	}
	user.Password = hashed
	user.ForcePasswordChange = false
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	// 5. Invalidate every other session for this identity
	s.invalidateOtherSessions(ctx, userID, currentSessionID)

	// 6. Audit
	entry := &models.ActionLog{ActorID: &user.ID, Action: "password changed"}
	if err := s.actionLogRepo.Create(ctx, entry); err != nil {
		log.Printf("⚠️ Action log write failed (password changed): %v", err)
	}

	return nil
}

// invalidateOtherSessions scans the registry, decodes each session and
// deletes those belonging to the user, except the one presented. One bad
// session record must not stop cleanup of the rest.
func (s *AuthService) invalidateOtherSessions(ctx context.Context, userID uint, keepSessionID string) {
	sessions, err := s.sessionRepo.List(ctx)
	if err != nil {
		log.Printf("⚠️ Session scan failed for user %d: %v", userID, err)
		return
	}

	for _, sess := range sessions {
		if sess.ID == keepSessionID {
			continue
		}
		data, err := sess.Decode()
		if err != nil {
			log.Printf("⚠️ Undecodable session %s skipped: %v", sess.ID, err)
			continue
		}
		if data.UserID != userID {
			continue
		}
		if err := s.sessionRepo.Delete(ctx, sess.ID); err != nil {
			log.Printf("⚠️ Session delete failed (%s): %v", sess.ID, err)
		}
	}
}

// InvalidateSessions deletes every session belonging to the user.
// Used for the forced logout paths (expiry sweep, access gate).
func (s *AuthService) InvalidateSessions(ctx context.Context, userID uint) {
	s.invalidateOtherSessions(ctx, userID, "")
}

// ValidateSession checks that the session behind a token still exists
// and has not passed its server-side expiry.
func (s *AuthService) ValidateSession(ctx context.Context, sessionID string) (*models.SessionData, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.IsExpired() {
		// lazily reap
		if err := s.sessionRepo.Delete(ctx, session.ID); err != nil {
			log.Printf("⚠️ Expired session delete failed (%s): %v", session.ID, err)
		}
		return nil, ErrSessionNotFound
	}
	return session.Decode()
}
