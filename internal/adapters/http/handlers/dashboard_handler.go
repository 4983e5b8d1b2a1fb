package handlers

import (
	"unibooks/internal/adapters/http/middleware"
	"unibooks/internal/core/services"
	"unibooks/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DashboardHandler handles dashboard and site info endpoints
type DashboardHandler struct {
	dashboardService *services.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetDashboard returns the student landing page data
// @Summary Dashboard
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /dashboard [get]
func (h *DashboardHandler) GetDashboard(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	data, err := h.dashboardService.GetDashboard(c.Context(), user.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to load dashboard")
	}
	return response.Success(c, "OK", data)
}

// GetSiteInfo returns the current site-wide message
// @Summary Site info
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Response
// @Router /site-info [get]
func (h *DashboardHandler) GetSiteInfo(c *fiber.Ctx) error {
	info, err := h.dashboardService.GetSiteInfo(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to load site info")
	}
	return response.Success(c, "OK", info)
}

// UpdateSiteInfoRequest represents the site message update body
type UpdateSiteInfoRequest struct {
	DailyTip     *string `json:"daily_tip"`
	Announcement *string `json:"announcement"`
}

// UpdateSiteInfo edits the site-wide message (staff)
// @Summary Update site info
// @Tags Dashboard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body UpdateSiteInfoRequest true "Site message"
// @Success 200 {object} response.Response
// @Router /admin/site-info [patch]
func (h *DashboardHandler) UpdateSiteInfo(c *fiber.Ctx) error {
	var req UpdateSiteInfoRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	staff := middleware.CurrentUser(c)
	input := &services.UpdateSiteInfoInput{DailyTip: req.DailyTip, Announcement: req.Announcement}
	info, err := h.dashboardService.UpdateSiteInfo(c.Context(), staff.ID, input)
	if err != nil {
		return response.InternalServerError(c, "Failed to update site info")
	}
	return response.Success(c, "Site info updated successfully", info)
}
