package handlers

import (
	"errors"
	"strconv"
	"time"

	"unibooks/internal/adapters/http/middleware"
	"unibooks/internal/core/services"
	"unibooks/internal/pkg/pagination"
	"unibooks/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// BorrowHandler handles borrow request endpoints
type BorrowHandler struct {
	borrowService *services.BorrowService
}

// NewBorrowHandler creates a new borrow handler
func NewBorrowHandler(borrowService *services.BorrowService) *BorrowHandler {
	return &BorrowHandler{borrowService: borrowService}
}

// CreateBorrowRequest represents borrow creation request body
type CreateBorrowRequest struct {
	BookID uint `json:"book_id"`
}

// Create files a borrow request
// @Summary Request a borrow
// @Tags Borrows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateBorrowRequest true "Borrow data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /borrows [post]
func (h *BorrowHandler) Create(c *fiber.Ctx) error {
	var req CreateBorrowRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.BookID == 0 {
		return response.BadRequest(c, "Book ID is required")
	}

	user := middleware.CurrentUser(c)
	br, err := h.borrowService.Create(c.Context(), user.ID, &services.CreateBorrowInput{BookID: req.BookID})
	if err != nil {
		if errors.Is(err, services.ErrBookNotFound) {
			return response.NotFound(c, "Book not found")
		}
		return response.InternalServerError(c, "Failed to create borrow request")
	}

	return response.Created(c, "Borrow request created successfully", br)
}

// ListMine lists the caller's borrow requests
// @Summary My borrow requests
// @Tags Borrows
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /borrows [get]
func (h *BorrowHandler) ListMine(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	borrows, err := h.borrowService.ListMine(c.Context(), user.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list borrow requests")
	}
	return response.Success(c, "OK", borrows)
}

// Get returns one borrow request
// @Summary Get borrow request
// @Tags Borrows
// @Produce json
// @Security BearerAuth
// @Param id path int true "Borrow request ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /borrows/{id} [get]
func (h *BorrowHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid borrow request ID")
	}

	user := middleware.CurrentUser(c)
	br, err := h.borrowService.GetByID(c.Context(), uint(id), user)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBorrowNotFound):
			return response.NotFound(c, "Borrow request not found")
		case errors.Is(err, services.ErrNotRequestOwner):
			return response.Forbidden(c, "Not the owner of this request")
		default:
			return response.InternalServerError(c, "Failed to get borrow request")
		}
	}
	return response.Success(c, "OK", br)
}

// List lists all borrow requests (staff)
// @Summary List borrow requests
// @Tags Borrows
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Param page query int false "Page"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /admin/borrows [get]
func (h *BorrowHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	status := c.Query("status")

	borrows, total, err := h.borrowService.List(c.Context(), status, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list borrow requests")
	}
	return response.Success(c, "OK", pagination.NewResponse(borrows, params, total))
}

// UpdateBorrowStatusRequest represents a staff decision request body.
// Dates use the YYYY-MM-DD format.
type UpdateBorrowStatusRequest struct {
	Status       string `json:"status"`
	BorrowDate   string `json:"borrow_date"`
	DueDate      string `json:"due_date"`
	AdminComment string `json:"admin_comment"`
}

// UpdateStatus applies a staff decision (staff)
// @Summary Update borrow status
// @Tags Borrows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Borrow request ID"
// @Param body body UpdateBorrowStatusRequest true "Decision"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/borrows/{id} [patch]
func (h *BorrowHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid borrow request ID")
	}

	var req UpdateBorrowStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Status == "" {
		return response.BadRequest(c, "Status is required")
	}

	input := &services.UpdateBorrowStatusInput{
		Status:       req.Status,
		AdminComment: req.AdminComment,
	}
	if req.BorrowDate != "" {
		d, err := time.Parse("2006-01-02", req.BorrowDate)
		if err != nil {
			return response.BadRequest(c, "Invalid borrow_date, expected YYYY-MM-DD")
		}
		input.BorrowDate = &d
	}
	if req.DueDate != "" {
		d, err := time.Parse("2006-01-02", req.DueDate)
		if err != nil {
			return response.BadRequest(c, "Invalid due_date, expected YYYY-MM-DD")
		}
		input.DueDate = &d
	}

	br, err := h.borrowService.UpdateStatus(c.Context(), uint(id), input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBorrowNotFound):
			return response.NotFound(c, "Borrow request not found")
		case errors.Is(err, services.ErrInvalidStatus):
			return response.BadRequest(c, "Invalid status value")
		case errors.Is(err, services.ErrBookUnavailable):
			return response.Conflict(c, "No copies available")
		default:
			return response.InternalServerError(c, "Failed to update borrow request")
		}
	}

	return response.Success(c, "Borrow request updated successfully", br)
}
