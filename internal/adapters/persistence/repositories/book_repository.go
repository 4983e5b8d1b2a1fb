package repositories

import (
	"context"

	"unibooks/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// bookRepository implements BookRepository interface
type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository creates a new book repository
func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

// Create creates a new book
func (r *bookRepository) Create(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

// GetByID gets a book by ID
func (r *bookRepository) GetByID(ctx context.Context, id uint) (*models.Book, error) {
	var book models.Book
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// Update saves a book (copies accounting goes through here)
func (r *bookRepository) Update(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Save(book).Error
}

// List lists books, optionally filtered by a title/author query and availability
func (r *bookRepository) List(ctx context.Context, query, availability string, offset, limit int) ([]*models.Book, int64, error) {
	var books []*models.Book
	var total int64

	q := r.db.WithContext(ctx).Model(&models.Book{})
	if query != "" {
		like := "%" + query + "%"
		q = q.Where("title LIKE ? OR authors LIKE ?", like, like)
	}
	switch availability {
	case "available":
		q = q.Where("available_copies > 0")
	case "unavailable":
		q = q.Where("available_copies <= 0")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Order("title").Offset(offset).Limit(limit).Find(&books).Error; err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

// ListRecent returns the most recently added books (dashboard strip)
func (r *bookRepository) ListRecent(ctx context.Context, limit int) ([]*models.Book, error) {
	var books []*models.Book
	err := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&books).Error
	return books, err
}
