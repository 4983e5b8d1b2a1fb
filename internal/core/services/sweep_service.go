package services

import (
	"context"
	"log"
	"time"

	"unibooks/internal/adapters/persistence/models"
	"unibooks/internal/adapters/persistence/repositories"
)

// SweepResult summarizes one batch run
type SweepResult struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Errored   int `json:"errored"`
}

// SweepService runs the periodic subscription and due-date jobs. Both
// jobs contain failures per entity: one bad row never stops the rest.
type SweepService struct {
	userRepo         repositories.UserRepository
	borrowRepo       repositories.BorrowRepository
	bookRepo         repositories.BookRepository
	sessionRepo      repositories.SessionRepository
	notificationRepo repositories.NotificationRepository
	notifier         *NotifierService
}

// NewSweepService creates a new sweep service
func NewSweepService(
	userRepo repositories.UserRepository,
	borrowRepo repositories.BorrowRepository,
	bookRepo repositories.BookRepository,
	sessionRepo repositories.SessionRepository,
	notificationRepo repositories.NotificationRepository,
	notifier *NotifierService,
) *SweepService {
	return &SweepService{
		userRepo:         userRepo,
		borrowRepo:       borrowRepo,
		bookRepo:         bookRepo,
		sessionRepo:      sessionRepo,
		notificationRepo: notificationRepo,
		notifier:         notifier,
	}
}

// SubscriptionSweep walks every user with a payment on record: reminder
// from day 26 (suppressed when one was already sent in the last 10
// days), expiry from day 31. Safe to re-run: an already-suspended user
// is not re-suspended and reminders are deduplicated by the lookback.
func (s *SweepService) SubscriptionSweep(ctx context.Context, now time.Time) (*SweepResult, error) {
	users, err := s.userRepo.ListWithPayment(ctx)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{}
	for _, u := range users {
		if u.PaidAt == nil {
			result.Skipped++
			continue
		}
		days := u.SubscriptionDaysElapsed(now)

		switch {
		case days >= models.SubscriptionDays:
			if err := s.expireUser(ctx, u, days); err != nil {
				log.Printf("❌ Subscription sweep: expiry failed for %s: %v", u.Username, err)
				result.Errored++
				continue
			}
			result.Processed++

		case days >= models.ReminderAfterDays:
			sent, err := s.remindUser(ctx, u, now, days)
			if err != nil {
				log.Printf("❌ Subscription sweep: reminder failed for %s: %v", u.Username, err)
				result.Errored++
				continue
			}
			if sent {
				result.Processed++
			} else {
				result.Skipped++
			}

		default:
			result.Skipped++
		}
	}

	log.Printf("✅ Subscription sweep done: %d processed, %d skipped, %d errored", result.Processed, result.Skipped, result.Errored)
	return result, nil
}

// expireUser suspends an overdue subscription. Deactivation and session
// cleanup only happen for still-active accounts; the expiry notice goes
// out on every run.
func (s *SweepService) expireUser(ctx context.Context, u *models.User, days int) error {
	if u.IsActive {
		u.IsActive = false
		if err := s.userRepo.Update(ctx, u); err != nil {
			return err
		}
		s.invalidateSessions(ctx, u.ID)
	}
	return s.notifier.SubscriptionExpired(ctx, u, days)
}

// remindUser sends the renewal reminder unless one already went out
// within the suppression window. Reports whether a reminder was sent.
func (s *SweepService) remindUser(ctx context.Context, u *models.User, now time.Time, days int) (bool, error) {
	windowStart := now.AddDate(0, 0, -models.ReminderWindowDays)
	already, err := s.notificationRepo.ExistsTypeSince(ctx, u.ID, models.NotifTypeSubscriptionReminder, windowStart)
	if err != nil {
		return false, err
	}
	if already {
		return false, nil
	}

	daysLeft := models.SubscriptionDays - days
	if err := s.notifier.SubscriptionReminder(ctx, u, daysLeft); err != nil {
		return false, err
	}
	return true, nil
}

// invalidateSessions scans the whole registry and deletes the user's
// sessions. One undecodable or undeletable row is skipped, not fatal.
func (s *SweepService) invalidateSessions(ctx context.Context, userID uint) {
	sessions, err := s.sessionRepo.List(ctx)
	if err != nil {
		log.Printf("⚠️ Session scan failed during expiry of user %d: %v", userID, err)
		return
	}
	for _, sess := range sessions {
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

// DueDateSweep notifies for approved borrows due within the next few
// days and for overdue ones. There is no suppression window: every run
// re-notifies for the same request.
func (s *SweepService) DueDateSweep(ctx context.Context, now time.Time) (*SweepResult, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	soon := today.AddDate(0, 0, models.DueSoonDays)

	result := &SweepResult{}

	dueSoon, err := s.borrowRepo.ListApprovedDueBetween(ctx, today, soon)
	if err != nil {
		return nil, err
	}
	for _, br := range dueSoon {
		if err := s.notifyBorrow(ctx, br, s.notifier.DueSoon); err != nil {
			log.Printf("❌ Due-date sweep: reminder failed for borrow %d: %v", br.ID, err)
			result.Errored++
			continue
		}
		result.Processed++
	}

	overdue, err := s.borrowRepo.ListApprovedOverdue(ctx, today)
	if err != nil {
		return nil, err
	}
	for _, br := range overdue {
		if err := s.notifyBorrow(ctx, br, s.notifier.Overdue); err != nil {
			log.Printf("❌ Due-date sweep: overdue notice failed for borrow %d: %v", br.ID, err)
			result.Errored++
			continue
		}
		result.Processed++
	}

	log.Printf("✅ Due-date sweep done: %d processed, %d errored", result.Processed, result.Errored)
	return result, nil
}

// notifyBorrow resolves the borrow's student and book and hands them to
// the given notifier callback.
func (s *SweepService) notifyBorrow(ctx context.Context, br *models.BorrowRequest, send func(context.Context, *models.BorrowRequest, *models.User, *models.Book) error) error {
	student, err := s.userRepo.GetByID(ctx, br.StudentID)
	if err != nil {
		return err
	}
	book, err := s.bookRepo.GetByID(ctx, br.BookID)
	if err != nil {
		return err
	}
	return send(ctx, br, student, book)
}
