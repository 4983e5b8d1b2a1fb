package repositories

import (
	"context"
	"time"

	"unibooks/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// sessionRepository implements SessionRepository interface
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

// Create stores a new session
func (r *sessionRepository) Create(ctx context.Context, session *models.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// GetByID gets a session by its key
func (r *sessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// List returns every live (non-expired) session
func (r *sessionRepository) List(ctx context.Context) ([]*models.Session, error) {
	var sessions []*models.Session
	err := r.db.WithContext(ctx).Where("expires_at > ?", time.Now()).Order("created_at").Find(&sessions).Error
	return sessions, err
}

// Delete removes a session by its key
func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Session{}).Error
}

// DeleteExpired removes sessions past their expiry
func (r *sessionRepository) DeleteExpired(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("expires_at <= ?", time.Now()).Delete(&models.Session{}).Error
}
