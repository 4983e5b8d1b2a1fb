package handlers

import (
	"errors"
	"strconv"

	"unibooks/internal/adapters/http/middleware"
	"unibooks/internal/core/services"
	"unibooks/internal/pkg/pagination"
	"unibooks/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// BookHandler handles catalog endpoints
type BookHandler struct {
	bookService *services.BookService
}

// NewBookHandler creates a new book handler
func NewBookHandler(bookService *services.BookService) *BookHandler {
	return &BookHandler{bookService: bookService}
}

// List searches the catalog
// @Summary List books
// @Tags Books
// @Produce json
// @Security BearerAuth
// @Param q query string false "Search in title/authors"
// @Param availability query string false "available or unavailable"
// @Param page query int false "Page"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /books [get]
func (h *BookHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	query := c.Query("q")
	availability := c.Query("availability")

	books, total, err := h.bookService.List(c.Context(), query, availability, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list books")
	}

	return response.Success(c, "OK", pagination.NewResponse(books, params, total))
}

// Get returns one book with its like count
// @Summary Get book
// @Tags Books
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /books/{id} [get]
func (h *BookHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid book ID")
	}

	book, err := h.bookService.GetByID(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrBookNotFound) {
			return response.NotFound(c, "Book not found")
		}
		return response.InternalServerError(c, "Failed to get book")
	}

	likes, err := h.bookService.LikeCount(c.Context(), book.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to get book")
	}

	return response.Success(c, "OK", fiber.Map{
		"book":  book,
		"likes": likes,
	})
}

// CreateBookRequest represents book creation request body
type CreateBookRequest struct {
	Title       string `json:"title"`
	Authors     string `json:"authors"`
	Category    string `json:"category"`
	Description string `json:"description"`
	TotalCopies int    `json:"total_copies"`
	Image       string `json:"image"`
}

// Create adds a book to the catalog (staff)
// @Summary Create book
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateBookRequest true "Book data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /admin/books [post]
func (h *BookHandler) Create(c *fiber.Ctx) error {
	var req CreateBookRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Title == "" {
		return response.BadRequest(c, "Title is required")
	}
	if req.Authors == "" {
		return response.BadRequest(c, "Authors is required")
	}

	staff := middleware.CurrentUser(c)
	input := &services.CreateBookInput{
		Title:       req.Title,
		Authors:     req.Authors,
		Category:    req.Category,
		Description: req.Description,
		TotalCopies: req.TotalCopies,
		Image:       req.Image,
	}

	book, err := h.bookService.Create(c.Context(), staff.ID, input)
	if err != nil {
		return response.InternalServerError(c, "Failed to create book")
	}

	return response.Created(c, "Book created successfully", book)
}

// ToggleLike likes or unlikes a book
// @Summary Toggle like
// @Tags Books
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /books/{id}/like [post]
func (h *BookHandler) ToggleLike(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid book ID")
	}

	user := middleware.CurrentUser(c)
	liked, err := h.bookService.ToggleLike(c.Context(), user.ID, uint(id))
	if err != nil {
		if errors.Is(err, services.ErrBookNotFound) {
			return response.NotFound(c, "Book not found")
		}
		return response.InternalServerError(c, "Failed to toggle like")
	}

	return response.Success(c, "OK", fiber.Map{"liked": liked})
}

// AddCommentRequest represents comment request body
type AddCommentRequest struct {
	Content  string `json:"content"`
	ParentID *uint  `json:"parent_id"`
}

// AddComment posts a comment on a book
// @Summary Add comment
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Param body body AddCommentRequest true "Comment"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /books/{id}/comments [post]
func (h *BookHandler) AddComment(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid book ID")
	}

	var req AddCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Content == "" {
		return response.BadRequest(c, "Content is required")
	}

	user := middleware.CurrentUser(c)
	input := &services.AddCommentInput{Content: req.Content, ParentID: req.ParentID}

	comment, err := h.bookService.AddComment(c.Context(), user.ID, uint(id), input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBookNotFound):
			return response.NotFound(c, "Book not found")
		case errors.Is(err, services.ErrCommentNotFound):
			return response.NotFound(c, "Parent comment not found")
		case errors.Is(err, services.ErrParentMismatch):
			return response.BadRequest(c, "Parent comment belongs to another book")
		default:
			return response.InternalServerError(c, "Failed to add comment")
		}
	}

	return response.Created(c, "Comment added successfully", comment)
}

// ListComments lists a book's comment thread
// @Summary List comments
// @Tags Books
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 200 {object} response.Response
// @Router /books/{id}/comments [get]
func (h *BookHandler) ListComments(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid book ID")
	}

	comments, err := h.bookService.ListComments(c.Context(), uint(id))
	if err != nil {
		return response.InternalServerError(c, "Failed to list comments")
	}

	return response.Success(c, "OK", comments)
}
