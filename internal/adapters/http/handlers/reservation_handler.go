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

// ReservationHandler handles reservation endpoints
type ReservationHandler struct {
	reservationService *services.ReservationService
}

// NewReservationHandler creates a new reservation handler
func NewReservationHandler(reservationService *services.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservationService: reservationService}
}

// CreateReservationRequest represents reservation request body
type CreateReservationRequest struct {
	BookID uint `json:"book_id"`
}

// Create records a reservation
// @Summary Reserve a book
// @Tags Reservations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateReservationRequest true "Reservation data"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /reservations [post]
func (h *ReservationHandler) Create(c *fiber.Ctx) error {
	var req CreateReservationRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.BookID == 0 {
		return response.BadRequest(c, "Book ID is required")
	}

	user := middleware.CurrentUser(c)
	r, err := h.reservationService.Create(c.Context(), user.ID, &services.CreateReservationInput{BookID: req.BookID})
	if err != nil {
		if errors.Is(err, services.ErrBookNotFound) {
			return response.NotFound(c, "Book not found")
		}
		if errors.Is(err, services.ErrBookAvailable) {
			return response.Conflict(c, "Le livre est disponible, pas besoin de réserver.")
		}
		return response.InternalServerError(c, "Failed to create reservation")
	}

	return response.Created(c, "Reservation created successfully", r)
}

// ListMine lists the caller's reservations
// @Summary My reservations
// @Tags Reservations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /reservations [get]
func (h *ReservationHandler) ListMine(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	reservations, err := h.reservationService.ListMine(c.Context(), user.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list reservations")
	}
	return response.Success(c, "OK", reservations)
}

// Cancel cancels the caller's own reservation
// @Summary Cancel reservation
// @Tags Reservations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reservation ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /reservations/{id}/cancel [post]
func (h *ReservationHandler) Cancel(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid reservation ID")
	}

	user := middleware.CurrentUser(c)
	r, err := h.reservationService.Cancel(c.Context(), uint(id), user.ID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrReservationNotFound):
			return response.NotFound(c, "Reservation not found")
		case errors.Is(err, services.ErrNotRequestOwner):
			return response.Forbidden(c, "Not the owner of this reservation")
		default:
			return response.InternalServerError(c, "Failed to cancel reservation")
		}
	}

	return response.Success(c, "Reservation cancelled successfully", r)
}

// List lists all reservations (staff)
// @Summary List reservations
// @Tags Reservations
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Param page query int false "Page"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /admin/reservations [get]
func (h *ReservationHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	status := c.Query("status")

	reservations, total, err := h.reservationService.List(c.Context(), status, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list reservations")
	}
	return response.Success(c, "OK", pagination.NewResponse(reservations, params, total))
}

// UpdateReservationStatusRequest represents a staff status update body
type UpdateReservationStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus applies a staff status change (staff)
// @Summary Update reservation status
// @Tags Reservations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reservation ID"
// @Param body body UpdateReservationStatusRequest true "Status"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/reservations/{id} [patch]
func (h *ReservationHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid reservation ID")
	}

	var req UpdateReservationStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Status == "" {
		return response.BadRequest(c, "Status is required")
	}

	r, err := h.reservationService.UpdateStatus(c.Context(), uint(id), &services.UpdateReservationStatusInput{Status: req.Status})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrReservationNotFound):
			return response.NotFound(c, "Reservation not found")
		case errors.Is(err, services.ErrInvalidStatus):
			return response.BadRequest(c, "Invalid status value")
		default:
			return response.InternalServerError(c, "Failed to update reservation")
		}
	}

	return response.Success(c, "Reservation updated successfully", r)
}
