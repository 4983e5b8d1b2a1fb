package services

import (
	"context"
	"fmt"
	"log"

	"unibooks/internal/adapters/persistence/models"
	"unibooks/internal/adapters/persistence/repositories"

	"gorm.io/datatypes"
)

const dateLayout = "2006-01-02"

// StatusTransition describes one persisted status change, captured by
// reading the prior row before applying an update. A creation has no
// prior state and therefore no transition.
type StatusTransition struct {
	Old string
	New string
}

// Changed reports whether the status actually moved.
func (t StatusTransition) Changed() bool {
	return t.Old != t.New
}

// Became reports whether the status moved into the given value.
func (t StatusTransition) Became(status string) bool {
	return t.Changed() && t.New == status
}

// NotifierService turns entity state changes into notifications,
// action-log entries and best-effort email. The notification row is the
// authoritative effect; mail delivery failures never propagate.
type NotifierService struct {
	notificationRepo repositories.NotificationRepository
	actionLogRepo    repositories.ActionLogRepository
	userRepo         repositories.UserRepository
	mail             MailSender
}

// NewNotifierService creates a new notifier service
func NewNotifierService(
	notificationRepo repositories.NotificationRepository,
	actionLogRepo repositories.ActionLogRepository,
	userRepo repositories.UserRepository,
	mail MailSender,
) *NotifierService {
	return &NotifierService{
		notificationRepo: notificationRepo,
		actionLogRepo:    actionLogRepo,
		userRepo:         userRepo,
		mail:             mail,
	}
}

// notify persists a notification for one recipient.
func (s *NotifierService) notify(ctx context.Context, recipientID uint, message, notifType string) error {
	return s.notificationRepo.Create(ctx, &models.Notification{
		RecipientID: recipientID,
		Message:     message,
		Type:        notifType,
	})
}

// logAction appends an audit entry. A nil actor means the system acted.
func (s *NotifierService) logAction(ctx context.Context, actorID *uint, action string, extra datatypes.JSONMap) {
	entry := &models.ActionLog{ActorID: actorID, Action: action, Extra: extra}
	if err := s.actionLogRepo.Create(ctx, entry); err != nil {
		log.Printf("⚠️ Action log write failed (%s): %v", action, err)
	}
}

// BorrowCreated notifies the student that their request was received.
func (s *NotifierService) BorrowCreated(ctx context.Context, br *models.BorrowRequest, book *models.Book) error {
	msg := fmt.Sprintf("Votre demande d'emprunt pour \"%s\" a été reçue et est en attente de validation.", book.Title)
	if err := s.notify(ctx, br.StudentID, msg, models.NotifTypeInfo); err != nil {
		return err
	}
	s.logAction(ctx, &br.StudentID, fmt.Sprintf("Created borrow request %d", br.ID), nil)
	return nil
}

// BorrowTransition reacts to a borrow request status change. Only the
// move into APPROVED is notifiable; everything else is a no-op.
func (s *NotifierService) BorrowTransition(ctx context.Context, br *models.BorrowRequest, book *models.Book, student *models.User, t StatusTransition) error {
	if !t.Became(models.BorrowStatusApproved) {
		return nil
	}

	msg := fmt.Sprintf("Votre emprunt pour \"%s\" a été accepté.", book.Title)
	if br.BorrowDate != nil {
		msg += fmt.Sprintf(" Emprunté le %s.", br.BorrowDate.Format(dateLayout))
	}
	if br.DueDate != nil {
		msg += fmt.Sprintf(" Date d'échéance : %s.", br.DueDate.Format(dateLayout))
	}

	if err := s.notify(ctx, br.StudentID, msg, models.NotifTypeBorrowApproved); err != nil {
		return err
	}
	s.mail.Send("Emprunt accepté - UniBooks", msg, student.Email)
	s.logAction(ctx, nil, fmt.Sprintf("Borrow %d approved and notification sent", br.ID), nil)
	return nil
}

// ReservationCreated notifies the student that the reservation was recorded.
func (s *NotifierService) ReservationCreated(ctx context.Context, r *models.Reservation, book *models.Book) error {
	msg := fmt.Sprintf("Votre réservation pour \"%s\" a été enregistrée.", book.Title)
	if err := s.notify(ctx, r.StudentID, msg, models.NotifTypeInfo); err != nil {
		return err
	}
	s.logAction(ctx, &r.StudentID, fmt.Sprintf("Created reservation %d", r.ID), nil)
	return nil
}

// ReservationTransition reacts to a reservation status change. Moves
// into FULFILLED and CANCELLED are notifiable.
func (s *NotifierService) ReservationTransition(ctx context.Context, r *models.Reservation, book *models.Book, t StatusTransition) error {
	switch {
	case t.Became(models.ReservationStatusFulfilled):
		msg := fmt.Sprintf("Votre réservation pour \"%s\" est prête à être récupérée.", book.Title)
		if err := s.notify(ctx, r.StudentID, msg, models.NotifTypeReservationReady); err != nil {
			return err
		}
		s.logAction(ctx, nil, fmt.Sprintf("Reservation %d fulfilled; notified student", r.ID), nil)

	case t.Became(models.ReservationStatusCancelled):
		msg := fmt.Sprintf("Votre réservation pour \"%s\" a été annulée.", book.Title)
		if err := s.notify(ctx, r.StudentID, msg, models.NotifTypeReservationCancelled); err != nil {
			return err
		}
		s.logAction(ctx, nil, fmt.Sprintf("Reservation %d cancelled; notified student", r.ID), nil)
	}
	return nil
}

// MissingCreated fans one notification out to every staff user when a
// purchase request is filed. The staff roster is queried at event time
// so roster changes take effect immediately.
func (s *NotifierService) MissingCreated(ctx context.Context, mr *models.MissingRequest, student *models.User) error {
	msg := fmt.Sprintf("Nouvelle demande d'achat: \"%s\" par %s.", mr.Title, student.FullName())

	staff, err := s.userRepo.ListStaff(ctx)
	if err != nil {
		return err
	}

	for _, admin := range staff {
		if err := s.notify(ctx, admin.ID, msg, models.NotifTypeMissingRequest); err != nil {
			return err
		}
	}

	s.logAction(ctx, &mr.StudentID, fmt.Sprintf("Created MissingRequest %d", mr.ID), nil)

	var recipients []string
	for _, admin := range staff {
		if admin.Email != "" {
			recipients = append(recipients, admin.Email)
		}
	}
	s.mail.Send("Nouvelle demande d'achat - UniBooks", msg, recipients...)
	return nil
}

// SubscriptionReminder tells the user their subscription expires soon.
func (s *NotifierService) SubscriptionReminder(ctx context.Context, user *models.User, daysLeft int) error {
	msg := fmt.Sprintf("Rappel : votre abonnement expire dans %d jour(s). Pensez à le renouveler au guichet.", daysLeft)
	if err := s.notify(ctx, user.ID, msg, models.NotifTypeSubscriptionReminder); err != nil {
		return err
	}
	s.logAction(ctx, nil, fmt.Sprintf("Sent subscription reminder to %s", user.Username), datatypes.JSONMap{"days_left": daysLeft})
	return nil
}

// SubscriptionExpired tells the user their access was suspended.
func (s *NotifierService) SubscriptionExpired(ctx context.Context, user *models.User, days int) error {
	msg := "Votre abonnement de 31 jours est arrivé à expiration. Votre accès a été suspendu. Veuillez renouveler au guichet."
	if err := s.notify(ctx, user.ID, msg, models.NotifTypeSubscriptionExpired); err != nil {
		return err
	}
	s.logAction(ctx, nil, fmt.Sprintf("Auto-expired subscription for %s", user.Username), datatypes.JSONMap{"days": days})
	return nil
}

// DueSoon reminds the student a borrowed book is due within a few days.
func (s *NotifierService) DueSoon(ctx context.Context, br *models.BorrowRequest, student *models.User, book *models.Book) error {
	msg := fmt.Sprintf("Rappel: votre emprunt pour \"%s\" arrive à échéance le %s.", book.Title, br.DueDate.Format(dateLayout))
	if err := s.notify(ctx, br.StudentID, msg, models.NotifTypeReminder); err != nil {
		return err
	}
	s.mail.Send("Rappel de retour - UniBooks", msg, student.Email)
	s.logAction(ctx, nil, fmt.Sprintf("Sent due reminder for borrow %d", br.ID), nil)
	return nil
}

// Overdue warns the student a borrowed book is past its due date.
func (s *NotifierService) Overdue(ctx context.Context, br *models.BorrowRequest, student *models.User, book *models.Book) error {
	msg := fmt.Sprintf("Attention: votre emprunt pour \"%s\" est en retard depuis le %s.", book.Title, br.DueDate.Format(dateLayout))
	if err := s.notify(ctx, br.StudentID, msg, models.NotifTypeOverdue); err != nil {
		return err
	}
	s.mail.Send("Emprunt en retard - UniBooks", msg, student.Email)
	s.logAction(ctx, nil, fmt.Sprintf("Sent overdue reminder for borrow %d", br.ID), nil)
	return nil
}
