package services

import (
	"context"
	"testing"
	"time"

	"unibooks/internal/adapters/persistence/models"
)

type sweepFixture struct {
	users         *stubUserRepo
	books         *stubBookRepo
	borrows       *stubBorrowRepo
	sessions      *stubSessionRepo
	notifications *stubNotificationRepo
	actionLogs    *stubActionLogRepo
	mail          *stubMailSender

	sweeps *SweepService
}

func newSweepFixture() *sweepFixture {
	f := &sweepFixture{
		users:         newStubUserRepo(),
		books:         newStubBookRepo(),
		borrows:       newStubBorrowRepo(),
		sessions:      newStubSessionRepo(),
		notifications: newStubNotificationRepo(),
		actionLogs:    newStubActionLogRepo(),
		mail:          &stubMailSender{},
	}
	notifier := NewNotifierService(f.notifications, f.actionLogs, f.users, f.mail)
	f.sweeps = NewSweepService(f.users, f.borrows, f.books, f.sessions, f.notifications, notifier)
	return f
}

func (f *sweepFixture) addPaidUser(email string, paidDaysAgo int, now time.Time) *models.User {
	paidAt := now.AddDate(0, 0, -paidDaysAgo)
	return f.users.add(&models.User{Email: email, Username: "u" + email, IsActive: true, PaidAt: &paidAt})
}

func TestSubscriptionSweepReminderBoundary(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	f := newSweepFixture()

	day26 := f.addPaidUser("d26@example.edu", 26, now)
	day25 := f.addPaidUser("d25@example.edu", 25, now)

	result, err := f.sweeps.SubscriptionSweep(ctx, now)
	if err != nil {
		t.Fatalf("SubscriptionSweep: %v", err)
	}
	if result.Processed != 1 {
		t.Errorf("expected 1 processed, got %d", result.Processed)
	}

	if got := len(f.notifications.ofType(day26.ID, models.NotifTypeSubscriptionReminder)); got != 1 {
		t.Errorf("day 26 user: expected 1 reminder, got %d", got)
	}
	if got := len(f.notifications.ofType(day25.ID, models.NotifTypeSubscriptionReminder)); got != 0 {
		t.Errorf("day 25 user: expected no reminder, got %d", got)
	}
}

func TestSubscriptionSweepReminderIdempotent(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	f := newSweepFixture()
	user := f.addPaidUser("d27@example.edu", 27, now)

	if _, err := f.sweeps.SubscriptionSweep(ctx, now); err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	second, err := f.sweeps.SubscriptionSweep(ctx, now)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}

	if got := len(f.notifications.ofType(user.ID, models.NotifTypeSubscriptionReminder)); got != 1 {
		t.Errorf("expected exactly 1 reminder across both runs, got %d", got)
	}
	if second.Processed != 0 || second.Skipped != 1 {
		t.Errorf("second run should skip the suppressed reminder, got processed=%d skipped=%d", second.Processed, second.Skipped)
	}
}

func TestSubscriptionSweepExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	f := newSweepFixture()
	user := f.addPaidUser("d31@example.edu", 31, now)

	// Two sessions for the user, one for someone else.
	s1, _ := models.NewSession(user.ID, time.Hour)
	s2, _ := models.NewSession(user.ID, time.Hour)
	other, _ := models.NewSession(user.ID+100, time.Hour)
	f.sessions.Create(ctx, s1)
	f.sessions.Create(ctx, s2)
	f.sessions.Create(ctx, other)

	if _, err := f.sweeps.SubscriptionSweep(ctx, now); err != nil {
		t.Fatalf("SubscriptionSweep: %v", err)
	}

	if user.IsActive {
		t.Error("expected user to be deactivated at day 31")
	}
	if got := len(f.notifications.ofType(user.ID, models.NotifTypeSubscriptionExpired)); got != 1 {
		t.Errorf("expected 1 expiry notification, got %d", got)
	}
	if _, err := f.sessions.GetByID(ctx, s1.ID); err == nil {
		t.Error("expected first session to be invalidated")
	}
	if _, err := f.sessions.GetByID(ctx, s2.ID); err == nil {
		t.Error("expected second session to be invalidated")
	}
	if _, err := f.sessions.GetByID(ctx, other.ID); err != nil {
		t.Error("other user's session must survive the sweep")
	}

	// Re-running does not re-deactivate (already inactive) but the user
	// stays suspended.
	if _, err := f.sweeps.SubscriptionSweep(ctx, now); err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if user.IsActive {
		t.Error("user must stay suspended on re-run")
	}
}

func TestSubscriptionActiveBoundary(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	exactly31 := now.AddDate(0, 0, -31)
	user := &models.User{PaidAt: &exactly31}
	user.ExpiresAt = user.ComputeExpiration()
	if user.SubscriptionActive(now) {
		t.Error("payment exactly 31 days ago must be inactive")
	}

	almost31 := now.Add(-(31*24*time.Hour - time.Minute))
	user = &models.User{PaidAt: &almost31}
	user.ExpiresAt = user.ComputeExpiration()
	if !user.SubscriptionActive(now) {
		t.Error("payment 30d23h59m ago must still be active")
	}
}

func TestDueDateSweepNotifiesAndResends(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	f := newSweepFixture()

	student := f.users.add(&models.User{Email: "s@example.edu", Username: "us", IsActive: true})
	book := f.books.add(&models.Book{Title: "Les Misérables", Authors: "V. Hugo", TotalCopies: 1, AvailableCopies: 0})

	dueSoon := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	overdue := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	farOff := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	f.borrows.add(&models.BorrowRequest{StudentID: student.ID, BookID: book.ID, Status: models.BorrowStatusApproved, DueDate: &dueSoon})
	f.borrows.add(&models.BorrowRequest{StudentID: student.ID, BookID: book.ID, Status: models.BorrowStatusApproved, DueDate: &overdue})
	f.borrows.add(&models.BorrowRequest{StudentID: student.ID, BookID: book.ID, Status: models.BorrowStatusApproved, DueDate: &farOff})
	f.borrows.add(&models.BorrowRequest{StudentID: student.ID, BookID: book.ID, Status: models.BorrowStatusPending, DueDate: &overdue})

	result, err := f.sweeps.DueDateSweep(ctx, now)
	if err != nil {
		t.Fatalf("DueDateSweep: %v", err)
	}
	if result.Processed != 2 {
		t.Errorf("expected 2 processed (1 due soon + 1 overdue), got %d", result.Processed)
	}
	if got := len(f.notifications.ofType(student.ID, models.NotifTypeReminder)); got != 1 {
		t.Errorf("expected 1 due-soon reminder, got %d", got)
	}
	if got := len(f.notifications.ofType(student.ID, models.NotifTypeOverdue)); got != 1 {
		t.Errorf("expected 1 overdue notice, got %d", got)
	}

	// No suppression window: a second run re-notifies both.
	if _, err := f.sweeps.DueDateSweep(ctx, now); err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if got := len(f.notifications.ofType(student.ID, models.NotifTypeReminder)); got != 2 {
		t.Errorf("expected the due-soon reminder to be re-sent, got %d", got)
	}
	if got := len(f.notifications.ofType(student.ID, models.NotifTypeOverdue)); got != 2 {
		t.Errorf("expected the overdue notice to be re-sent, got %d", got)
	}
}

func TestDueDateSweepContainsPerEntityErrors(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	f := newSweepFixture()

	student := f.users.add(&models.User{Email: "s@example.edu", Username: "us", IsActive: true})
	book := f.books.add(&models.Book{Title: "Bel-Ami", Authors: "G. de Maupassant", TotalCopies: 1, AvailableCopies: 0})

	overdue := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	// First borrow references a student that does not exist.
	f.borrows.add(&models.BorrowRequest{StudentID: 9999, BookID: book.ID, Status: models.BorrowStatusApproved, DueDate: &overdue})
	f.borrows.add(&models.BorrowRequest{StudentID: student.ID, BookID: book.ID, Status: models.BorrowStatusApproved, DueDate: &overdue})

	result, err := f.sweeps.DueDateSweep(ctx, now)
	if err != nil {
		t.Fatalf("DueDateSweep: %v", err)
	}
	if result.Errored != 1 {
		t.Errorf("expected 1 errored entity, got %d", result.Errored)
	}
	if result.Processed != 1 {
		t.Errorf("the bad row must not stop the rest: expected 1 processed, got %d", result.Processed)
	}
	if got := len(f.notifications.ofType(student.ID, models.NotifTypeOverdue)); got != 1 {
		t.Errorf("expected the healthy borrow to be notified, got %d", got)
	}
}
