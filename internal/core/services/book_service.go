package services

import (
	"context"
	"errors"
	"log"

	"unibooks/internal/adapters/persistence/models"
	"unibooks/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

// Catalog errors
var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrParentMismatch  = errors.New("parent comment belongs to another book")
)

// BookService handles catalog business logic
type BookService struct {
	bookRepo      repositories.BookRepository
	likeRepo      repositories.LikeRepository
	commentRepo   repositories.CommentRepository
	actionLogRepo repositories.ActionLogRepository
}

// NewBookService creates a new book service
func NewBookService(
	bookRepo repositories.BookRepository,
	likeRepo repositories.LikeRepository,
	commentRepo repositories.CommentRepository,
	actionLogRepo repositories.ActionLogRepository,
) *BookService {
	return &BookService{
		bookRepo:      bookRepo,
		likeRepo:      likeRepo,
		commentRepo:   commentRepo,
		actionLogRepo: actionLogRepo,
	}
}

// CreateBookInput represents book creation input (staff)
type CreateBookInput struct {
	Title       string `json:"title" validate:"required"`
	Authors     string `json:"authors" validate:"required"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	TotalCopies int    `json:"total_copies,omitempty"`
	Image       string `json:"image,omitempty"`
}

// Create adds a book to the catalog
func (s *BookService) Create(ctx context.Context, staffID uint, input *CreateBookInput) (*models.Book, error) {
	copies := input.TotalCopies
	if copies <= 0 {
		copies = 1
	}

	book := &models.Book{
		Title:           input.Title,
		Authors:         input.Authors,
		Category:        input.Category,
		Description:     input.Description,
		TotalCopies:     copies,
		AvailableCopies: copies,
		Image:           input.Image,
	}
	if err := s.bookRepo.Create(ctx, book); err != nil {
		return nil, err
	}

	entry := &models.ActionLog{ActorID: &staffID, Action: "added book to catalog", Extra: map[string]interface{}{"book_id": book.ID}}
	if err := s.actionLogRepo.Create(ctx, entry); err != nil {
		log.Printf("⚠️ Action log write failed (added book): %v", err)
	}

	return book, nil
}

// GetByID gets a book by ID
func (s *BookService) GetByID(ctx context.Context, id uint) (*models.Book, error) {
	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return book, nil
}

// List searches the catalog
func (s *BookService) List(ctx context.Context, query, availability string, offset, limit int) ([]*models.Book, int64, error) {
	return s.bookRepo.List(ctx, query, availability, offset, limit)
}

// ToggleLike likes a book, or removes the like when one already exists.
// Returns true when the book ends up liked.
func (s *BookService) ToggleLike(ctx context.Context, studentID, bookID uint) (bool, error) {
	if _, err := s.GetByID(ctx, bookID); err != nil {
		return false, err
	}

	existing, err := s.likeRepo.Get(ctx, studentID, bookID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	if existing != nil {
		if err := s.likeRepo.Delete(ctx, existing.ID); err != nil {
			return false, err
		}
		return false, nil
	}

	like := &models.Like{StudentID: studentID, BookID: bookID}
	if err := s.likeRepo.Create(ctx, like); err != nil {
		return false, err
	}
	return true, nil
}

// LikeCount returns how many students like a book
func (s *BookService) LikeCount(ctx context.Context, bookID uint) (int64, error) {
	return s.likeRepo.CountByBook(ctx, bookID)
}

// AddCommentInput represents comment input
type AddCommentInput struct {
	Content  string `json:"content" validate:"required"`
	ParentID *uint  `json:"parent_id,omitempty"`
}

// AddComment posts a comment (or reply) on a book
func (s *BookService) AddComment(ctx context.Context, studentID, bookID uint, input *AddCommentInput) (*models.Comment, error) {
	if _, err := s.GetByID(ctx, bookID); err != nil {
		return nil, err
	}

	if input.ParentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *input.ParentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCommentNotFound
			}
			return nil, err
		}
		if parent.BookID != bookID {
			return nil, ErrParentMismatch
		}
	}

	comment := &models.Comment{
		StudentID: studentID,
		BookID:    bookID,
		ParentID:  input.ParentID,
		Content:   input.Content,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// ListComments lists a book's comment thread
func (s *BookService) ListComments(ctx context.Context, bookID uint) ([]*models.Comment, error) {
	return s.commentRepo.ListByBook(ctx, bookID)
}
