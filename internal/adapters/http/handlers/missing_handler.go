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

// MissingHandler handles purchase request endpoints
type MissingHandler struct {
	missingService *services.MissingService
}

// NewMissingHandler creates a new purchase request handler
func NewMissingHandler(missingService *services.MissingService) *MissingHandler {
	return &MissingHandler{missingService: missingService}
}

// CreateMissingRequest represents purchase request body
type CreateMissingRequest struct {
	Title         string `json:"title"`
	Authors       string `json:"authors"`
	Justification string `json:"justification"`
}

// Create files a purchase request
// @Summary Request a missing book
// @Description File a purchase request; every staff member is notified.
// @Tags PurchaseRequests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateMissingRequest true "Request data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /missing-requests [post]
func (h *MissingHandler) Create(c *fiber.Ctx) error {
	var req CreateMissingRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Title == "" {
		return response.BadRequest(c, "Title is required")
	}
	if req.Justification == "" {
		return response.BadRequest(c, "Justification is required")
	}

	user := middleware.CurrentUser(c)
	input := &services.CreateMissingInput{
		Title:         req.Title,
		Authors:       req.Authors,
		Justification: req.Justification,
	}

	mr, err := h.missingService.Create(c.Context(), user.ID, input)
	if err != nil {
		return response.InternalServerError(c, "Failed to create purchase request")
	}

	return response.Created(c, "Purchase request created successfully", mr)
}

// ListMine lists the caller's purchase requests
// @Summary My purchase requests
// @Tags PurchaseRequests
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /missing-requests [get]
func (h *MissingHandler) ListMine(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	requests, err := h.missingService.ListMine(c.Context(), user.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list purchase requests")
	}
	return response.Success(c, "OK", requests)
}

// List lists all purchase requests (staff)
// @Summary List purchase requests
// @Tags PurchaseRequests
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Param page query int false "Page"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /admin/missing-requests [get]
func (h *MissingHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	status := c.Query("status")

	requests, total, err := h.missingService.List(c.Context(), status, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list purchase requests")
	}
	return response.Success(c, "OK", pagination.NewResponse(requests, params, total))
}

// HandleMissingRequest represents a staff decision request body
type HandleMissingRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

// Handle records a staff decision (staff)
// @Summary Handle purchase request
// @Tags PurchaseRequests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Purchase request ID"
// @Param body body HandleMissingRequest true "Decision (ORDERED or DENIED)"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/missing-requests/{id} [patch]
func (h *MissingHandler) Handle(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid purchase request ID")
	}

	var req HandleMissingRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Status == "" {
		return response.BadRequest(c, "Status is required")
	}

	staff := middleware.CurrentUser(c)
	mr, err := h.missingService.Handle(c.Context(), uint(id), staff.ID, &services.HandleMissingInput{Status: req.Status, Note: req.Note})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingNotFound):
			return response.NotFound(c, "Purchase request not found")
		case errors.Is(err, services.ErrInvalidStatus):
			return response.BadRequest(c, "Status must be ORDERED or DENIED")
		case errors.Is(err, services.ErrAlreadyHandled):
			return response.Conflict(c, "Purchase request already handled")
		default:
			return response.InternalServerError(c, "Failed to handle purchase request")
		}
	}

	return response.Success(c, "Purchase request handled successfully", mr)
}
