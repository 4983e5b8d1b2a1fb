package handlers

import (
	"unibooks/internal/adapters/http/middleware"
	"unibooks/internal/core/services"
	"unibooks/internal/pkg/pagination"
	"unibooks/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles profile and notification endpoints
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetProfile returns the caller's profile
// @Summary Get profile
// @Tags Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /profile [get]
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	profile, err := h.userService.GetProfile(c.Context(), user.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to get profile")
	}
	return response.Success(c, "OK", profile)
}

// UpdateProfileRequest represents profile update request body
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Faculty   *string `json:"faculty"`
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
	Avatar    *string `json:"avatar"`
}

// UpdateProfile updates the caller's profile
// @Summary Update profile
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body UpdateProfileRequest true "Profile fields"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /profile [patch]
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	user := middleware.CurrentUser(c)
	input := &services.UpdateProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Faculty:   req.Faculty,
		Phone:     req.Phone,
		Address:   req.Address,
		Avatar:    req.Avatar,
	}

	profile, err := h.userService.UpdateProfile(c.Context(), user.ID, input)
	if err != nil {
		return response.InternalServerError(c, "Failed to update profile")
	}
	return response.Success(c, "Profile updated successfully", profile)
}

// ListNotifications lists the caller's notifications. Viewing the list
// marks everything as read.
// @Summary My notifications
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /notifications [get]
func (h *UserHandler) ListNotifications(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	user := middleware.CurrentUser(c)

	notifications, total, err := h.userService.ListNotifications(c.Context(), user.ID, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list notifications")
	}
	return response.Success(c, "OK", pagination.NewResponse(notifications, params, total))
}

// UnreadCount returns the caller's unread notification count
// @Summary Unread notification count
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /notifications/unread-count [get]
func (h *UserHandler) UnreadCount(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	count, err := h.userService.UnreadCount(c.Context(), user.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to count notifications")
	}
	return response.Success(c, "OK", fiber.Map{"unread": count})
}

// SubscriptionRequired is the renewal information page. It is exempt
// from the subscription gate so a lapsed user can still read it.
// @Summary Subscription required notice
// @Tags Profile
// @Produce json
// @Success 200 {object} response.Response
// @Router /subscription-required [get]
func (h *UserHandler) SubscriptionRequired(c *fiber.Ctx) error {
	return response.Success(c, "OK", fiber.Map{
		"message": "Votre abonnement a expiré. Veuillez le renouveler au guichet de la bibliothèque.",
	})
}
