package services

import (
	"context"
	"errors"
	"log"

	"unibooks/internal/adapters/persistence/models"
	"unibooks/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

// DashboardService assembles the student landing page data
type DashboardService struct {
	bookRepo         repositories.BookRepository
	borrowRepo       repositories.BorrowRepository
	reservationRepo  repositories.ReservationRepository
	notificationRepo repositories.NotificationRepository
	siteInfoRepo     repositories.SiteInfoRepository
	actionLogRepo    repositories.ActionLogRepository
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	bookRepo repositories.BookRepository,
	borrowRepo repositories.BorrowRepository,
	reservationRepo repositories.ReservationRepository,
	notificationRepo repositories.NotificationRepository,
	siteInfoRepo repositories.SiteInfoRepository,
	actionLogRepo repositories.ActionLogRepository,
) *DashboardService {
	return &DashboardService{
		bookRepo:         bookRepo,
		borrowRepo:       borrowRepo,
		reservationRepo:  reservationRepo,
		notificationRepo: notificationRepo,
		siteInfoRepo:     siteInfoRepo,
		actionLogRepo:    actionLogRepo,
	}
}

// DashboardData represents the student dashboard payload
type DashboardData struct {
	RecentBooks  []*models.Book          `json:"recent_books"`
	Borrows      []*models.BorrowRequest `json:"borrows"`
	Reservations []*models.Reservation   `json:"reservations"`
	UnreadCount  int64                   `json:"unread_count"`
	SiteInfo     *models.SiteInfo        `json:"site_info,omitempty"`
}

// GetDashboard builds the landing page data for a student
func (s *DashboardService) GetDashboard(ctx context.Context, userID uint) (*DashboardData, error) {
	books, err := s.bookRepo.ListRecent(ctx, 8)
	if err != nil {
		return nil, err
	}

	borrows, err := s.borrowRepo.ListByStudent(ctx, userID)
	if err != nil {
		return nil, err
	}

	reservations, err := s.reservationRepo.ListByStudent(ctx, userID)
	if err != nil {
		return nil, err
	}

	unread, err := s.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}

	// The site message is optional; a missing row is not an error.
	info, err := s.siteInfoRepo.Latest(ctx)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return &DashboardData{
		RecentBooks:  books,
		Borrows:      borrows,
		Reservations: reservations,
		UnreadCount:  unread,
		SiteInfo:     info,
	}, nil
}

// GetSiteInfo returns the most recently updated site message
func (s *DashboardService) GetSiteInfo(ctx context.Context) (*models.SiteInfo, error) {
	info, err := s.siteInfoRepo.Latest(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.SiteInfo{}, nil
		}
		return nil, err
	}
	return info, nil
}

// UpdateSiteInfoInput represents a staff site message update
type UpdateSiteInfoInput struct {
	DailyTip     *string `json:"daily_tip,omitempty"`
	Announcement *string `json:"announcement,omitempty"`
}

// UpdateSiteInfo edits the site-wide message (staff)
func (s *DashboardService) UpdateSiteInfo(ctx context.Context, staffID uint, input *UpdateSiteInfoInput) (*models.SiteInfo, error) {
	info, err := s.siteInfoRepo.Latest(ctx)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		info = &models.SiteInfo{}
	}

	if input.DailyTip != nil {
		info.DailyTip = *input.DailyTip
	}
	if input.Announcement != nil {
		info.Announcement = *input.Announcement
	}

	if err := s.siteInfoRepo.Save(ctx, info); err != nil {
		return nil, err
	}

	entry := &models.ActionLog{ActorID: &staffID, Action: "updated site info"}
	if err := s.actionLogRepo.Create(ctx, entry); err != nil {
		log.Printf("⚠️ Action log write failed (updated site info): %v", err)
	}

	return info, nil
}
