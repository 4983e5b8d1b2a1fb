package repositories

import (
	"context"

	"unibooks/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// likeRepository implements LikeRepository interface
type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

// Get gets a like by student and book
func (r *likeRepository) Get(ctx context.Context, studentID, bookID uint) (*models.Like, error) {
	var like models.Like
	err := r.db.WithContext(ctx).Where("student_id = ? AND book_id = ?", studentID, bookID).First(&like).Error
	if err != nil {
		return nil, err
	}
	return &like, nil
}

// Create creates a like
func (r *likeRepository) Create(ctx context.Context, like *models.Like) error {
	return r.db.WithContext(ctx).Create(like).Error
}

// Delete removes a like
func (r *likeRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Like{}, id).Error
}

// CountByBook counts likes for a book
func (r *likeRepository) CountByBook(ctx context.Context, bookID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).Where("book_id = ?", bookID).Count(&count).Error
	return count, err
}

// commentRepository implements CommentRepository interface
type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create creates a comment
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

// GetByID gets a comment by ID
func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListByBook lists a book's top-level comments with replies, newest first
func (r *commentRepository) ListByBook(ctx context.Context, bookID uint) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).Preload("Student").Preload("Replies").Preload("Replies.Student").
		Where("book_id = ? AND parent_id IS NULL", bookID).
		Order("created_at DESC").
		Find(&comments).Error
	return comments, err
}
