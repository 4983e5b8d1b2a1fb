package services

import (
	"context"
	"strings"
	"time"

	"unibooks/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// In-memory repository stubs used across the service tests.

type stubUserRepo struct {
	users  map[uint]*models.User
	nextID uint
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: map[uint]*models.User{}, nextID: 1}
}

func (r *stubUserRepo) add(u *models.User) *models.User {
	if u.ID == 0 {
		u.ID = r.nextID
		r.nextID++
	} else if u.ID >= r.nextID {
		r.nextID = u.ID + 1
	}
	u.ExpiresAt = u.ComputeExpiration()
	r.users[u.ID] = u
	return u
}

func (r *stubUserRepo) Create(ctx context.Context, user *models.User) error {
	r.add(user)
	return nil
}

func (r *stubUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *stubUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) GetByMatricule(ctx context.Context, matricule string) (*models.User, error) {
	for _, u := range r.users {
		if u.Matricule != nil && strings.EqualFold(*u.Matricule, matricule) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) Update(ctx context.Context, user *models.User) error {
	// mirror the save-time derivation: expiration always recomputed
	user.ExpiresAt = user.ComputeExpiration()
	r.users[user.ID] = user
	return nil
}

func (r *stubUserRepo) List(ctx context.Context, offset, limit int) ([]*models.User, int64, error) {
	all := r.sorted()
	return all, int64(len(all)), nil
}

func (r *stubUserRepo) ListStaff(ctx context.Context) ([]*models.User, error) {
	var staff []*models.User
	for _, u := range r.sorted() {
		if u.IsStaff {
			staff = append(staff, u)
		}
	}
	return staff, nil
}

func (r *stubUserRepo) ListWithPayment(ctx context.Context) ([]*models.User, error) {
	var paid []*models.User
	for _, u := range r.sorted() {
		if u.PaidAt != nil {
			paid = append(paid, u)
		}
	}
	return paid, nil
}

func (r *stubUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

func (r *stubUserRepo) ExistsByMatricule(ctx context.Context, matricule string) (bool, error) {
	_, err := r.GetByMatricule(ctx, matricule)
	return err == nil, nil
}

func (r *stubUserRepo) sorted() []*models.User {
	var out []*models.User
	for id := uint(1); id < r.nextID; id++ {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	return out
}

type stubSessionRepo struct {
	sessions map[string]*models.Session
}

func newStubSessionRepo() *stubSessionRepo {
	return &stubSessionRepo{sessions: map[string]*models.Session{}}
}

func (r *stubSessionRepo) Create(ctx context.Context, session *models.Session) error {
	r.sessions[session.ID] = session
	return nil
}

func (r *stubSessionRepo) GetByID(ctx context.Context, id string) (*models.Session, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *stubSessionRepo) List(ctx context.Context) ([]*models.Session, error) {
	var out []*models.Session
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out, nil
}

func (r *stubSessionRepo) Delete(ctx context.Context, id string) error {
	delete(r.sessions, id)
	return nil
}

func (r *stubSessionRepo) DeleteExpired(ctx context.Context) error {
	for id, s := range r.sessions {
		if s.IsExpired() {
			delete(r.sessions, id)
		}
	}
	return nil
}

type stubBookRepo struct {
	books  map[uint]*models.Book
	nextID uint
}

func newStubBookRepo() *stubBookRepo {
	return &stubBookRepo{books: map[uint]*models.Book{}, nextID: 1}
}

func (r *stubBookRepo) add(b *models.Book) *models.Book {
	if b.ID == 0 {
		b.ID = r.nextID
		r.nextID++
	}
	r.books[b.ID] = b
	return b
}

func (r *stubBookRepo) Create(ctx context.Context, book *models.Book) error {
	r.add(book)
	return nil
}

func (r *stubBookRepo) GetByID(ctx context.Context, id uint) (*models.Book, error) {
	b, ok := r.books[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return b, nil
}

func (r *stubBookRepo) Update(ctx context.Context, book *models.Book) error {
	r.books[book.ID] = book
	return nil
}

func (r *stubBookRepo) List(ctx context.Context, query, availability string, offset, limit int) ([]*models.Book, int64, error) {
	var out []*models.Book
	for _, b := range r.books {
		out = append(out, b)
	}
	return out, int64(len(out)), nil
}

func (r *stubBookRepo) ListRecent(ctx context.Context, limit int) ([]*models.Book, error) {
	var out []*models.Book
	for _, b := range r.books {
		out = append(out, b)
	}
	return out, nil
}

type stubBorrowRepo struct {
	borrows map[uint]*models.BorrowRequest
	nextID  uint
}

func newStubBorrowRepo() *stubBorrowRepo {
	return &stubBorrowRepo{borrows: map[uint]*models.BorrowRequest{}, nextID: 1}
}

func (r *stubBorrowRepo) add(br *models.BorrowRequest) *models.BorrowRequest {
	if br.ID == 0 {
		br.ID = r.nextID
		r.nextID++
	}
	r.borrows[br.ID] = br
	return br
}

func (r *stubBorrowRepo) Create(ctx context.Context, br *models.BorrowRequest) error {
	r.add(br)
	return nil
}

func (r *stubBorrowRepo) GetByID(ctx context.Context, id uint) (*models.BorrowRequest, error) {
	br, ok := r.borrows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *br
	return &copy, nil
}

func (r *stubBorrowRepo) Update(ctx context.Context, br *models.BorrowRequest) error {
	r.borrows[br.ID] = br
	return nil
}

func (r *stubBorrowRepo) ListByStudent(ctx context.Context, studentID uint) ([]*models.BorrowRequest, error) {
	var out []*models.BorrowRequest
	for _, br := range r.sorted() {
		if br.StudentID == studentID {
			out = append(out, br)
		}
	}
	return out, nil
}

func (r *stubBorrowRepo) List(ctx context.Context, status string, offset, limit int) ([]*models.BorrowRequest, int64, error) {
	all := r.sorted()
	return all, int64(len(all)), nil
}

func (r *stubBorrowRepo) ListApprovedDueBetween(ctx context.Context, from, to time.Time) ([]*models.BorrowRequest, error) {
	var out []*models.BorrowRequest
	for _, br := range r.sorted() {
		if br.Status != models.BorrowStatusApproved || br.DueDate == nil {
			continue
		}
		if !br.DueDate.Before(from) && !br.DueDate.After(to) {
			out = append(out, br)
		}
	}
	return out, nil
}

func (r *stubBorrowRepo) ListApprovedOverdue(ctx context.Context, before time.Time) ([]*models.BorrowRequest, error) {
	var out []*models.BorrowRequest
	for _, br := range r.sorted() {
		if br.Status != models.BorrowStatusApproved || br.DueDate == nil {
			continue
		}
		if br.DueDate.Before(before) {
			out = append(out, br)
		}
	}
	return out, nil
}

func (r *stubBorrowRepo) sorted() []*models.BorrowRequest {
	var out []*models.BorrowRequest
	for id := uint(1); id < r.nextID; id++ {
		if br, ok := r.borrows[id]; ok {
			out = append(out, br)
		}
	}
	return out
}

type stubReservationRepo struct {
	reservations map[uint]*models.Reservation
	nextID       uint
}

func newStubReservationRepo() *stubReservationRepo {
	return &stubReservationRepo{reservations: map[uint]*models.Reservation{}, nextID: 1}
}

func (r *stubReservationRepo) Create(ctx context.Context, res *models.Reservation) error {
	if res.ID == 0 {
		res.ID = r.nextID
		r.nextID++
	}
	r.reservations[res.ID] = res
	return nil
}

func (r *stubReservationRepo) GetByID(ctx context.Context, id uint) (*models.Reservation, error) {
	res, ok := r.reservations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *res
	return &copy, nil
}

func (r *stubReservationRepo) Update(ctx context.Context, res *models.Reservation) error {
	r.reservations[res.ID] = res
	return nil
}

func (r *stubReservationRepo) ListByStudent(ctx context.Context, studentID uint) ([]*models.Reservation, error) {
	var out []*models.Reservation
	for _, res := range r.reservations {
		if res.StudentID == studentID {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *stubReservationRepo) List(ctx context.Context, status string, offset, limit int) ([]*models.Reservation, int64, error) {
	var out []*models.Reservation
	for _, res := range r.reservations {
		out = append(out, res)
	}
	return out, int64(len(out)), nil
}

type stubMissingRepo struct {
	requests map[uint]*models.MissingRequest
	nextID   uint
}

func newStubMissingRepo() *stubMissingRepo {
	return &stubMissingRepo{requests: map[uint]*models.MissingRequest{}, nextID: 1}
}

func (r *stubMissingRepo) Create(ctx context.Context, mr *models.MissingRequest) error {
	if mr.ID == 0 {
		mr.ID = r.nextID
		r.nextID++
	}
	r.requests[mr.ID] = mr
	return nil
}

func (r *stubMissingRepo) GetByID(ctx context.Context, id uint) (*models.MissingRequest, error) {
	mr, ok := r.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return mr, nil
}

func (r *stubMissingRepo) Update(ctx context.Context, mr *models.MissingRequest) error {
	r.requests[mr.ID] = mr
	return nil
}

func (r *stubMissingRepo) ListByStudent(ctx context.Context, studentID uint) ([]*models.MissingRequest, error) {
	var out []*models.MissingRequest
	for _, mr := range r.requests {
		if mr.StudentID == studentID {
			out = append(out, mr)
		}
	}
	return out, nil
}

func (r *stubMissingRepo) List(ctx context.Context, status string, offset, limit int) ([]*models.MissingRequest, int64, error) {
	var out []*models.MissingRequest
	for _, mr := range r.requests {
		out = append(out, mr)
	}
	return out, int64(len(out)), nil
}

type stubNotificationRepo struct {
	notifications []*models.Notification
	nextID        uint
}

func newStubNotificationRepo() *stubNotificationRepo {
	return &stubNotificationRepo{nextID: 1}
}

func (r *stubNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	n.ID = r.nextID
	r.nextID++
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	r.notifications = append(r.notifications, n)
	return nil
}

func (r *stubNotificationRepo) ListByRecipient(ctx context.Context, recipientID uint, offset, limit int) ([]*models.Notification, int64, error) {
	var out []*models.Notification
	for _, n := range r.notifications {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubNotificationRepo) CountUnread(ctx context.Context, recipientID uint) (int64, error) {
	var count int64
	for _, n := range r.notifications {
		if n.RecipientID == recipientID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (r *stubNotificationRepo) MarkAllRead(ctx context.Context, recipientID uint) error {
	for _, n := range r.notifications {
		if n.RecipientID == recipientID {
			n.Read = true
		}
	}
	return nil
}

func (r *stubNotificationRepo) ExistsTypeSince(ctx context.Context, recipientID uint, notifType string, since time.Time) (bool, error) {
	for _, n := range r.notifications {
		if n.RecipientID == recipientID && n.Type == notifType && !n.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

// ofType filters the recorded notifications for assertions.
func (r *stubNotificationRepo) ofType(recipientID uint, notifType string) []*models.Notification {
	var out []*models.Notification
	for _, n := range r.notifications {
		if n.RecipientID == recipientID && n.Type == notifType {
			out = append(out, n)
		}
	}
	return out
}

type stubActionLogRepo struct {
	entries []*models.ActionLog
}

func newStubActionLogRepo() *stubActionLogRepo {
	return &stubActionLogRepo{}
}

func (r *stubActionLogRepo) Create(ctx context.Context, entry *models.ActionLog) error {
	entry.ID = uint(len(r.entries) + 1)
	r.entries = append(r.entries, entry)
	return nil
}

func (r *stubActionLogRepo) List(ctx context.Context, offset, limit int) ([]*models.ActionLog, int64, error) {
	return r.entries, int64(len(r.entries)), nil
}

// stubMailSender records outbound mail instead of delivering it.
type stubMailSender struct {
	sent []stubMail
}

type stubMail struct {
	Subject string
	Body    string
	To      []string
}

func (s *stubMailSender) Send(subject, body string, to ...string) {
	s.sent = append(s.sent, stubMail{Subject: subject, Body: body, To: to})
}
