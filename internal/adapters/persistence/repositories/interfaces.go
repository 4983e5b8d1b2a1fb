package repositories

import (
	"context"
	"time"

	"unibooks/internal/adapters/persistence/models"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByMatricule(ctx context.Context, matricule string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context, offset, limit int) ([]*models.User, int64, error)
	ListStaff(ctx context.Context) ([]*models.User, error)
	ListWithPayment(ctx context.Context) ([]*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByMatricule(ctx context.Context, matricule string) (bool, error)
}

// SessionRepository defines the session registry interface.
// Scanning/decoding sessions is left to callers; the registry only stores rows.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	List(ctx context.Context) ([]*models.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) error
}

// BookRepository defines book repository interface
type BookRepository interface {
	Create(ctx context.Context, book *models.Book) error
	GetByID(ctx context.Context, id uint) (*models.Book, error)
	Update(ctx context.Context, book *models.Book) error
	List(ctx context.Context, query, availability string, offset, limit int) ([]*models.Book, int64, error)
	ListRecent(ctx context.Context, limit int) ([]*models.Book, error)
}

// BorrowRepository defines borrow request repository interface
type BorrowRepository interface {
	Create(ctx context.Context, br *models.BorrowRequest) error
	GetByID(ctx context.Context, id uint) (*models.BorrowRequest, error)
	Update(ctx context.Context, br *models.BorrowRequest) error
	ListByStudent(ctx context.Context, studentID uint) ([]*models.BorrowRequest, error)
	List(ctx context.Context, status string, offset, limit int) ([]*models.BorrowRequest, int64, error)
	ListApprovedDueBetween(ctx context.Context, from, to time.Time) ([]*models.BorrowRequest, error)
	ListApprovedOverdue(ctx context.Context, before time.Time) ([]*models.BorrowRequest, error)
}

// ReservationRepository defines reservation repository interface
type ReservationRepository interface {
	Create(ctx context.Context, r *models.Reservation) error
	GetByID(ctx context.Context, id uint) (*models.Reservation, error)
	Update(ctx context.Context, r *models.Reservation) error
	ListByStudent(ctx context.Context, studentID uint) ([]*models.Reservation, error)
	List(ctx context.Context, status string, offset, limit int) ([]*models.Reservation, int64, error)
}

// MissingRepository defines purchase request repository interface
type MissingRepository interface {
	Create(ctx context.Context, mr *models.MissingRequest) error
	GetByID(ctx context.Context, id uint) (*models.MissingRequest, error)
	Update(ctx context.Context, mr *models.MissingRequest) error
	ListByStudent(ctx context.Context, studentID uint) ([]*models.MissingRequest, error)
	List(ctx context.Context, status string, offset, limit int) ([]*models.MissingRequest, int64, error)
}

// NotificationRepository defines notification repository interface
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByRecipient(ctx context.Context, recipientID uint, offset, limit int) ([]*models.Notification, int64, error)
	CountUnread(ctx context.Context, recipientID uint) (int64, error)
	MarkAllRead(ctx context.Context, recipientID uint) error
	ExistsTypeSince(ctx context.Context, recipientID uint, notifType string, since time.Time) (bool, error)
}

// ActionLogRepository defines the append-only audit trail interface
type ActionLogRepository interface {
	Create(ctx context.Context, entry *models.ActionLog) error
	List(ctx context.Context, offset, limit int) ([]*models.ActionLog, int64, error)
}

// LikeRepository defines like repository interface
type LikeRepository interface {
	Get(ctx context.Context, studentID, bookID uint) (*models.Like, error)
	Create(ctx context.Context, like *models.Like) error
	Delete(ctx context.Context, id uint) error
	CountByBook(ctx context.Context, bookID uint) (int64, error)
}

// CommentRepository defines comment repository interface
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByBook(ctx context.Context, bookID uint) ([]*models.Comment, error)
}

// SiteInfoRepository defines the site info (single-row config) interface
type SiteInfoRepository interface {
	Latest(ctx context.Context) (*models.SiteInfo, error)
	Save(ctx context.Context, info *models.SiteInfo) error
}
