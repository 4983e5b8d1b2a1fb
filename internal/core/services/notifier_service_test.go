package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"unibooks/internal/adapters/persistence/models"
)

type notifierFixture struct {
	users         *stubUserRepo
	books         *stubBookRepo
	borrows       *stubBorrowRepo
	reservations  *stubReservationRepo
	missing       *stubMissingRepo
	notifications *stubNotificationRepo
	actionLogs    *stubActionLogRepo
	mail          *stubMailSender

	notifier           *NotifierService
	borrowService      *BorrowService
	reservationService *ReservationService
	missingService     *MissingService
}

func newNotifierFixture() *notifierFixture {
	f := &notifierFixture{
		users:         newStubUserRepo(),
		books:         newStubBookRepo(),
		borrows:       newStubBorrowRepo(),
		reservations:  newStubReservationRepo(),
		missing:       newStubMissingRepo(),
		notifications: newStubNotificationRepo(),
		actionLogs:    newStubActionLogRepo(),
		mail:          &stubMailSender{},
	}
	f.notifier = NewNotifierService(f.notifications, f.actionLogs, f.users, f.mail)
	f.borrowService = NewBorrowService(f.borrows, f.books, f.users, f.notifier)
	f.reservationService = NewReservationService(f.reservations, f.books, f.notifier)
	f.missingService = NewMissingService(f.missing, f.users, f.actionLogs, f.notifier)
	return f
}

func (f *notifierFixture) addStudent(email string) *models.User {
	return f.users.add(&models.User{Email: email, Username: "u" + email, IsActive: true})
}

func (f *notifierFixture) addBook(title string) *models.Book {
	return f.books.add(&models.Book{Title: title, Authors: "A. Author", TotalCopies: 2, AvailableCopies: 2})
}

func (f *notifierFixture) addOutOfStockBook(title string) *models.Book {
	return f.books.add(&models.Book{Title: title, Authors: "A. Author", TotalCopies: 2, AvailableCopies: 0})
}

func TestBorrowApprovalNotification(t *testing.T) {
	ctx := context.Background()
	f := newNotifierFixture()
	student := f.addStudent("s1@example.edu")
	book := f.addBook("Le Petit Prince")

	br, err := f.borrowService.Create(ctx, student.ID, &CreateBorrowInput{BookID: book.ID})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	infos := f.notifications.ofType(student.ID, models.NotifTypeInfo)
	if len(infos) != 1 {
		t.Fatalf("expected 1 info notification after creation, got %d", len(infos))
	}

	due := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	_, err = f.borrowService.UpdateStatus(ctx, br.ID, &UpdateBorrowStatusInput{
		Status:  models.BorrowStatusApproved,
		DueDate: &due,
	})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	approved := f.notifications.ofType(student.ID, models.NotifTypeBorrowApproved)
	if len(approved) != 1 {
		t.Fatalf("expected 1 approval notification, got %d", len(approved))
	}
	if !strings.Contains(approved[0].Message, "2026-09-15") {
		t.Errorf("approval message should contain the due date, got %q", approved[0].Message)
	}
	if len(f.mail.sent) != 1 {
		t.Errorf("expected 1 approval email, got %d", len(f.mail.sent))
	}

	// Repeating the same update is a no-op transition: no new notification.
	_, err = f.borrowService.UpdateStatus(ctx, br.ID, &UpdateBorrowStatusInput{Status: models.BorrowStatusApproved})
	if err != nil {
		t.Fatalf("repeat UpdateStatus: %v", err)
	}
	if got := len(f.notifications.ofType(student.ID, models.NotifTypeBorrowApproved)); got != 1 {
		t.Errorf("no-op approval must not re-notify, got %d notifications", got)
	}
}

func TestBorrowApprovalDecrementsCopies(t *testing.T) {
	ctx := context.Background()
	f := newNotifierFixture()
	student := f.addStudent("s1@example.edu")
	book := f.addBook("Candide")

	br, _ := f.borrowService.Create(ctx, student.ID, &CreateBorrowInput{BookID: book.ID})
	if _, err := f.borrowService.UpdateStatus(ctx, br.ID, &UpdateBorrowStatusInput{Status: models.BorrowStatusApproved}); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if book.AvailableCopies != 1 {
		t.Errorf("expected 1 available copy after approval, got %d", book.AvailableCopies)
	}

	if _, err := f.borrowService.UpdateStatus(ctx, br.ID, &UpdateBorrowStatusInput{Status: models.BorrowStatusReturned}); err != nil {
		t.Fatalf("return: %v", err)
	}
	if book.AvailableCopies != 2 {
		t.Errorf("expected 2 available copies after return, got %d", book.AvailableCopies)
	}
}

func TestReservationLifecycleNotifications(t *testing.T) {
	ctx := context.Background()
	f := newNotifierFixture()
	student := f.addStudent("s2@example.edu")
	book := f.addOutOfStockBook("L'Étranger")

	r, err := f.reservationService.Create(ctx, student.ID, &CreateReservationInput{BookID: book.ID})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got := len(f.notifications.ofType(student.ID, models.NotifTypeInfo)); got != 1 {
		t.Fatalf("expected 1 info notification, got %d", got)
	}

	if _, err := f.reservationService.UpdateStatus(ctx, r.ID, &UpdateReservationStatusInput{Status: models.ReservationStatusFulfilled}); err != nil {
		t.Fatalf("fulfill: %v", err)
	}
	if got := len(f.notifications.ofType(student.ID, models.NotifTypeReservationReady)); got != 1 {
		t.Fatalf("expected 1 ready notification, got %d", got)
	}

	// FULFILLED -> FULFILLED does not notify again.
	if _, err := f.reservationService.UpdateStatus(ctx, r.ID, &UpdateReservationStatusInput{Status: models.ReservationStatusFulfilled}); err != nil {
		t.Fatalf("repeat fulfill: %v", err)
	}
	if got := len(f.notifications.ofType(student.ID, models.NotifTypeReservationReady)); got != 1 {
		t.Errorf("no-op fulfillment must not re-notify, got %d notifications", got)
	}
}

func TestReservationCancelledNotification(t *testing.T) {
	ctx := context.Background()
	f := newNotifierFixture()
	student := f.addStudent("s3@example.edu")
	book := f.addOutOfStockBook("Germinal")

	r, _ := f.reservationService.Create(ctx, student.ID, &CreateReservationInput{BookID: book.ID})
	if _, err := f.reservationService.Cancel(ctx, r.ID, student.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := len(f.notifications.ofType(student.ID, models.NotifTypeReservationCancelled)); got != 1 {
		t.Errorf("expected 1 cancelled notification, got %d", got)
	}
}

func TestReservationRejectedWhileBookAvailable(t *testing.T) {
	ctx := context.Background()
	f := newNotifierFixture()
	student := f.addStudent("s5@example.edu")
	book := f.addBook("Bel-Ami")

	_, err := f.reservationService.Create(ctx, student.ID, &CreateReservationInput{BookID: book.ID})
	if !errors.Is(err, ErrBookAvailable) {
		t.Fatalf("expected ErrBookAvailable, got %v", err)
	}
	if got := len(f.reservations.reservations); got != 0 {
		t.Errorf("expected no reservation rows, got %d", got)
	}
	if got := len(f.notifications.ofType(student.ID, models.NotifTypeInfo)); got != 0 {
		t.Errorf("expected no notifications, got %d", got)
	}

	// Once the last copy is out, the reservation goes through.
	book.AvailableCopies = 0
	if _, err := f.reservationService.Create(ctx, student.ID, &CreateReservationInput{BookID: book.ID}); err != nil {
		t.Fatalf("Create after stock-out: %v", err)
	}
}

func TestMissingRequestStaffFanOut(t *testing.T) {
	ctx := context.Background()
	f := newNotifierFixture()
	student := f.addStudent("s4@example.edu")
	staff1 := f.users.add(&models.User{Email: "a1@example.edu", Username: "ua1", IsStaff: true, IsActive: true})
	staff2 := f.users.add(&models.User{Email: "a2@example.edu", Username: "ua2", IsStaff: true, IsActive: true})
	staff3 := f.users.add(&models.User{Email: "a3@example.edu", Username: "ua3", IsStaff: true, IsActive: true})

	logsBefore := len(f.actionLogs.entries)
	_, err := f.missingService.Create(ctx, student.ID, &CreateMissingInput{
		Title:         "Introduction aux algorithmes",
		Justification: "Indisponible au catalogue",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for _, staff := range []*models.User{staff1, staff2, staff3} {
		if got := len(f.notifications.ofType(staff.ID, models.NotifTypeMissingRequest)); got != 1 {
			t.Errorf("staff %d: expected 1 notification, got %d", staff.ID, got)
		}
	}
	if got := len(f.notifications.ofType(student.ID, models.NotifTypeMissingRequest)); got != 0 {
		t.Errorf("student must not receive the staff fan-out, got %d", got)
	}
	if got := len(f.actionLogs.entries) - logsBefore; got != 1 {
		t.Errorf("expected exactly 1 action log entry, got %d", got)
	}
	if len(f.mail.sent) != 1 {
		t.Fatalf("expected 1 batch email to staff, got %d", len(f.mail.sent))
	}
	if got := len(f.mail.sent[0].To); got != 3 {
		t.Errorf("expected the batch email to address 3 staff members, got %d", got)
	}
}
