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

// AdminHandler handles staff administration endpoints
type AdminHandler struct {
	userService  *services.UserService
	sweepService *services.SweepService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(userService *services.UserService, sweepService *services.SweepService) *AdminHandler {
	return &AdminHandler{
		userService:  userService,
		sweepService: sweepService,
	}
}

// ListUsers lists all accounts
// @Summary List users
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	users, total, err := h.userService.ListUsers(c.Context(), params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list users")
	}
	return response.Success(c, "OK", pagination.NewResponse(users, params, total))
}

// RecordPaymentRequest represents a payment registration body. The date
// uses the YYYY-MM-DD format and defaults to today.
type RecordPaymentRequest struct {
	PaidAt string `json:"paid_at"`
}

// RecordPayment registers a subscription payment for a student
// @Summary Record subscription payment
// @Description Sets the payment timestamp; the expiration is derived from it and cannot be set directly.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param body body RecordPaymentRequest true "Payment data"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/users/{id}/payment [post]
func (h *AdminHandler) RecordPayment(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req RecordPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	input := &services.RecordPaymentInput{}
	if req.PaidAt != "" {
		d, err := time.Parse("2006-01-02", req.PaidAt)
		if err != nil {
			return response.BadRequest(c, "Invalid paid_at, expected YYYY-MM-DD")
		}
		input.PaidAt = &d
	}

	staff := middleware.CurrentUser(c)
	user, err := h.userService.RecordPayment(c.Context(), staff.ID, uint(id), input)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to record payment")
	}

	return response.Success(c, "Payment recorded successfully", user)
}

// ForcePasswordChangeRequest represents the flag toggle body
type ForcePasswordChangeRequest struct {
	Forced bool `json:"forced"`
}

// SetForcePasswordChange toggles the forced password change flag
// @Summary Force password change
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param body body ForcePasswordChangeRequest true "Flag"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/users/{id}/force-password-change [post]
func (h *AdminHandler) SetForcePasswordChange(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req ForcePasswordChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	staff := middleware.CurrentUser(c)
	user, err := h.userService.SetForcePasswordChange(c.Context(), staff.ID, uint(id), req.Forced)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to update user")
	}

	return response.Success(c, "User updated successfully", user)
}

// SetRolesRequest represents a role update body
type SetRolesRequest struct {
	IsStaff     *bool `json:"is_staff"`
	IsLibrarian *bool `json:"is_librarian"`
}

// SetRoles grants or revokes staff/librarian roles (librarian only)
// @Summary Update user roles
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param body body SetRolesRequest true "Roles"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/users/{id}/roles [post]
func (h *AdminHandler) SetRoles(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req SetRolesRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	staff := middleware.CurrentUser(c)
	input := &services.SetRolesInput{IsStaff: req.IsStaff, IsLibrarian: req.IsLibrarian}
	user, err := h.userService.SetRoles(c.Context(), staff.ID, uint(id), input)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to update roles")
	}

	return response.Success(c, "Roles updated successfully", user)
}

// ListActionLogs lists the audit trail
// @Summary List action logs
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /admin/action-logs [get]
func (h *AdminHandler) ListActionLogs(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	logs, total, err := h.userService.ListActionLogs(c.Context(), params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list action logs")
	}
	return response.Success(c, "OK", pagination.NewResponse(logs, params, total))
}

// RunSubscriptionSweep triggers the subscription sweep on demand
// @Summary Run subscription sweep
// @Description Runs the reminder/expiry batch job immediately.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /admin/sweeps/subscriptions [post]
func (h *AdminHandler) RunSubscriptionSweep(c *fiber.Ctx) error {
	result, err := h.sweepService.SubscriptionSweep(c.Context(), time.Now())
	if err != nil {
		return response.InternalServerError(c, "Subscription sweep failed")
	}
	return response.Success(c, "Subscription sweep completed", result)
}

// RunDueDateSweep triggers the due-date sweep on demand
// @Summary Run due-date sweep
// @Description Runs the due soon/overdue batch job immediately.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /admin/sweeps/due-dates [post]
func (h *AdminHandler) RunDueDateSweep(c *fiber.Ctx) error {
	result, err := h.sweepService.DueDateSweep(c.Context(), time.Now())
	if err != nil {
		return response.InternalServerError(c, "Due-date sweep failed")
	}
	return response.Success(c, "Due-date sweep completed", result)
}
