package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ============================================================
// Subscription constants
// ============================================================

const (
	// SubscriptionDays is the paid borrowing window (expiration = payment + 31 days)
	SubscriptionDays = 31
	// ReminderAfterDays is the day threshold for the renewal reminder
	ReminderAfterDays = 26
	// ReminderWindowDays is the lookback window that suppresses duplicate reminders
	ReminderWindowDays = 10
	// DueSoonDays is how many days before the due date the return reminder fires
	DueSoonDays = 3
)

// ============================================================
// Users & Sessions
// ============================================================

// User represents users table (students and library staff)
type User struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	Matricule           *string        `gorm:"uniqueIndex;size:30" json:"matricule"`
	Username            string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email               string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password            string         `gorm:"size:255;not null" json:"-"`
	FirstName           string         `gorm:"size:60" json:"first_name"`
	LastName            string         `gorm:"size:60" json:"last_name"`
	Faculty             string         `gorm:"size:120" json:"faculty"`
	Phone               string         `gorm:"size:30" json:"phone"`
	Address             string         `gorm:"type:text" json:"address"`
	ProofOfPayment      string         `gorm:"size:255" json:"proof_of_payment"`
	Avatar              string         `gorm:"size:255" json:"avatar"`
	ForcePasswordChange bool           `gorm:"default:false" json:"force_password_change"`
	IsStaff             bool           `gorm:"default:false" json:"is_staff"`
	IsLibrarian         bool           `gorm:"default:false" json:"is_librarian"`
	IsActive            bool           `gorm:"default:true" json:"is_active"`
	PaidAt              *time.Time     `json:"paid_at"`
	ExpiresAt           *time.Time     `json:"expires_at"`
	CreatedAt           time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// SubscriptionExpiry is the pure derivation: payment + 31 days, nil when no payment.
func SubscriptionExpiry(paidAt *time.Time) *time.Time {
	if paidAt == nil {
		return nil
	}
	exp := paidAt.Add(SubscriptionDays * 24 * time.Hour)
	return &exp
}

// ComputeExpiration returns the expiration timestamp (payment + 31 days) or nil.
func (u *User) ComputeExpiration() *time.Time {
	return SubscriptionExpiry(u.PaidAt)
}

// SubscriptionActive reports whether the subscription window covers now.
// The stored expiration is preferred; without a payment on record the answer is false.
func (u *User) SubscriptionActive(now time.Time) bool {
	end := u.ExpiresAt
	if end == nil {
		end = u.ComputeExpiration()
	}
	if end == nil {
		return false
	}
	return now.Before(*end)
}

// SubscriptionDaysElapsed returns full days since payment, -1 without a payment.
func (u *User) SubscriptionDaysElapsed(now time.Time) int {
	if u.PaidAt == nil {
		return -1
	}
	return int(now.Sub(*u.PaidAt).Hours() / 24)
}

// BeforeSave recomputes the expiration from the payment timestamp so a
// caller-supplied value can never stick, and backfills the technical username.
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.ExpiresAt = u.ComputeExpiration()

	// The technical username carries no business meaning; generate one when missing.
	if u.Username == "" {
		for {
			candidate := "u" + uuid.New().String()[:12]
			var count int64
			if err := tx.Model(&User{}).Where("username = ?", candidate).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				u.Username = candidate
				break
			}
		}
	}
	return nil
}

// FullName returns "First Last", falling back to email then username.
func (u *User) FullName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name != "" {
		return name
	}
	if u.Email != "" {
		return u.Email
	}
	return u.Username
}

// UserResponse DTO
type UserResponse struct {
	ID                  uint       `json:"id"`
	Matricule           *string    `json:"matricule"`
	Email               string     `json:"email"`
	FirstName           string     `json:"first_name"`
	LastName            string     `json:"last_name"`
	Faculty             string     `json:"faculty"`
	Phone               string     `json:"phone"`
	ForcePasswordChange bool       `json:"force_password_change"`
	IsStaff             bool       `json:"is_staff"`
	IsLibrarian         bool       `json:"is_librarian"`
	IsActive            bool       `json:"is_active"`
	PaidAt              *time.Time `json:"paid_at"`
	ExpiresAt           *time.Time `json:"expires_at"`
	SubscriptionActive  bool       `json:"subscription_active"`
	CreatedAt           time.Time  `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:                  u.ID,
		Matricule:           u.Matricule,
		Email:               u.Email,
		FirstName:           u.FirstName,
		LastName:            u.LastName,
		Faculty:             u.Faculty,
		Phone:               u.Phone,
		ForcePasswordChange: u.ForcePasswordChange,
		IsStaff:             u.IsStaff,
		IsLibrarian:         u.IsLibrarian,
		IsActive:            u.IsActive,
		PaidAt:              u.PaidAt,
		ExpiresAt:           u.ExpiresAt,
		SubscriptionActive:  u.SubscriptionActive(time.Now()),
		CreatedAt:           u.CreatedAt,
	}
}

// Session represents sessions table (one row per live login).
// The payload is JSON so the registry can be scanned and decoded
// without the issuing token at hand.
type Session struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Data      string    `gorm:"type:text;not null" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
}

func (Session) TableName() string {
	return "sessions"
}

// SessionData is the decoded session payload.
type SessionData struct {
	UserID uint `json:"user_id"`
}

// NewSession builds a session for the user with a fresh UUID key.
func NewSession(userID uint, ttl time.Duration) (*Session, error) {
	data, err := json.Marshal(SessionData{UserID: userID})
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:        uuid.New().String(),
		Data:      string(data),
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

// Decode extracts the payload embedded in the session record.
func (s *Session) Decode() (*SessionData, error) {
	var data SessionData
	if err := json.Unmarshal([]byte(s.Data), &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// ============================================================
// Catalog
// ============================================================

// Book represents books table
type Book struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Title           string    `gorm:"size:255;not null;index" json:"title"`
	Authors         string    `gorm:"size:255;not null" json:"authors"`
	Category        string    `gorm:"size:120" json:"category"`
	Description     string    `gorm:"type:text" json:"description"`
	TotalCopies     int       `gorm:"default:1" json:"total_copies"`
	AvailableCopies int       `gorm:"default:1" json:"available_copies"`
	Image           string    `gorm:"size:255" json:"image"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Book) TableName() string {
	return "books"
}

// Available reports whether at least one copy can be borrowed.
func (b *Book) Available() bool {
	return b.AvailableCopies > 0
}

// Like represents likes table (one per student/book pair)
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_like_student_book" json:"student_id"`
	BookID    uint      `gorm:"not null;uniqueIndex:idx_like_student_book" json:"book_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Like) TableName() string {
	return "likes"
}

// Comment represents comments table (threaded via parent_id)
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudentID uint      `gorm:"not null;index" json:"student_id"`
	BookID    uint      `gorm:"not null;index" json:"book_id"`
	ParentID  *uint     `json:"parent_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Student *User     `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Replies []Comment `gorm:"foreignKey:ParentID" json:"replies,omitempty"`
}

func (Comment) TableName() string {
	return "comments"
}

// ============================================================
// Borrow requests, reservations, purchase requests
// ============================================================

// Borrow request statuses
const (
	BorrowStatusPending  = "PENDING"
	BorrowStatusApproved = "APPROVED"
	BorrowStatusRejected = "REJECTED"
	BorrowStatusReturned = "RETURNED"
)

// BorrowRequest represents borrow_requests table
type BorrowRequest struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	StudentID    uint       `gorm:"not null;index" json:"student_id"`
	BookID       uint       `gorm:"not null;index" json:"book_id"`
	Status       string     `gorm:"size:20;not null;default:'PENDING';index" json:"status"`
	RequestedAt  time.Time  `gorm:"autoCreateTime" json:"requested_at"`
	AdminComment string     `gorm:"type:text" json:"admin_comment"`
	BorrowDate   *time.Time `gorm:"type:date" json:"borrow_date"`
	DueDate      *time.Time `gorm:"type:date;index" json:"due_date"`

	// Relations
	Student *User `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Book    *Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
}

func (BorrowRequest) TableName() string {
	return "borrow_requests"
}

// Reservation statuses
const (
	ReservationStatusActive    = "ACTIVE"
	ReservationStatusCancelled = "CANCELLED"
	ReservationStatusFulfilled = "FULFILLED"
)

// Reservation represents reservations table
type Reservation struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	StudentID  uint      `gorm:"not null;index" json:"student_id"`
	BookID     uint      `gorm:"not null;index" json:"book_id"`
	Status     string    `gorm:"size:20;not null;default:'ACTIVE';index" json:"status"`
	ReservedAt time.Time `gorm:"autoCreateTime" json:"reserved_at"`

	// Relations
	Student *User `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Book    *Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
}

func (Reservation) TableName() string {
	return "reservations"
}

// Missing request (purchase request) statuses
const (
	MissingStatusOpen    = "OPEN"
	MissingStatusOrdered = "ORDERED"
	MissingStatusDenied  = "DENIED"
)

// MissingRequest represents missing_requests table (purchase requests)
type MissingRequest struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	StudentID     uint       `gorm:"not null;index" json:"student_id"`
	Title         string     `gorm:"size:255;not null" json:"title"`
	Authors       string     `gorm:"size:255" json:"authors"`
	Justification string     `gorm:"type:text;not null" json:"justification"`
	Status        string     `gorm:"size:30;not null;default:'OPEN';index" json:"status"`
	HandledBy     *uint      `json:"handled_by"`
	HandledAt     *time.Time `json:"handled_at"`
	HandledNote   string     `gorm:"type:text" json:"handled_note"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Student *User `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Handler *User `gorm:"foreignKey:HandledBy" json:"handler,omitempty"`
}

func (MissingRequest) TableName() string {
	return "missing_requests"
}

// IsHandled reports whether staff already processed the request.
func (m *MissingRequest) IsHandled() bool {
	return m.HandledAt != nil
}

// ============================================================
// Notifications & Action log
// ============================================================

// Notification types
const (
	NotifTypeInfo                 = "info"
	NotifTypeBorrowApproved       = "borrow_approved"
	NotifTypeReservationReady     = "reservation_ready"
	NotifTypeReservationCancelled = "reservation_cancelled"
	NotifTypeMissingRequest       = "missing_request"
	NotifTypeSubscriptionReminder = "subscription_reminder"
	NotifTypeSubscriptionExpired  = "subscription_expired"
	NotifTypeReminder             = "reminder"
	NotifTypeOverdue              = "overdue"
)

// Notification represents notifications table
type Notification struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RecipientID uint      `gorm:"not null;index" json:"recipient_id"`
	Message     string    `gorm:"type:text;not null" json:"message"`
	Type        string    `gorm:"size:50;not null;default:'info';index" json:"type"`
	Read        bool      `gorm:"default:false" json:"read"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"created_at"`

	// Relations
	Recipient *User `gorm:"foreignKey:RecipientID" json:"-"`
}

func (Notification) TableName() string {
	return "notifications"
}

// ActionLog represents action_logs table (append-only audit trail).
// Actor is nil for system-initiated entries.
type ActionLog struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	ActorID   *uint             `gorm:"index" json:"actor_id"`
	Action    string            `gorm:"size:255;not null" json:"action"`
	Extra     datatypes.JSONMap `json:"extra,omitempty"`
	CreatedAt time.Time         `gorm:"autoCreateTime;index" json:"created_at"`

	// Relations
	Actor *User `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
}

func (ActionLog) TableName() string {
	return "action_logs"
}

// SiteInfo represents site_infos table: admin-editable site-wide messages.
// The dashboard shows the most recently updated row.
type SiteInfo struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	DailyTip     string    `gorm:"type:text" json:"daily_tip"`
	Announcement string    `gorm:"type:text" json:"announcement"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SiteInfo) TableName() string {
	return "site_infos"
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Session{},
		&Book{},
		&Like{},
		&Comment{},
		&BorrowRequest{},
		&Reservation{},
		&MissingRequest{},
		&Notification{},
		&ActionLog{},
		&SiteInfo{},
	)
}
