package handlers

import (
	"errors"
	"strings"
	"time"

	"unibooks/internal/adapters/http/middleware"
	"unibooks/internal/config"
	"unibooks/internal/core/services"
	"unibooks/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
	cfg         *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cfg:         cfg,
	}
}

// RegisterRequest represents registration request body
type RegisterRequest struct {
	Matricule string `json:"matricule"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Faculty   string `json:"faculty"`
	Phone     string `json:"phone"`
}

// LoginRequest represents login request body. Identifier accepts a
// matricule, an email or a technical username.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// Register handles student registration
// @Summary Register new student
// @Description Register a new student account
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "Registration data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	// Validate required fields
	if req.Email == "" {
		return response.BadRequest(c, "Email is required")
	}
	if req.Password == "" {
		return response.BadRequest(c, "Password is required")
	}
	if len(req.Password) < 8 {
		return response.BadRequest(c, "Password must be at least 8 characters")
	}

	input := &services.RegisterInput{
		Matricule: strings.TrimSpace(req.Matricule),
		Email:     strings.TrimSpace(req.Email),
		Password:  req.Password,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Faculty:   strings.TrimSpace(req.Faculty),
		Phone:     strings.TrimSpace(req.Phone),
	}

	result, err := h.authService.Register(c.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserAlreadyExists):
			return response.Conflict(c, "Email already registered")
		case errors.Is(err, services.ErrMatriculeUsed):
			return response.Conflict(c, "Matricule already registered")
		case errors.Is(err, services.ErrWeakPassword):
			return response.BadRequest(c, "Password does not meet requirements")
		default:
			return response.InternalServerError(c, "Failed to register user")
		}
	}

	h.setAuthCookie(c, result.AccessToken)

	return response.Created(c, "User registered successfully", fiber.Map{
		"access_token": result.AccessToken,
		"user":         result.User,
	})
}

// Login handles user login
// @Summary Login
// @Description Authenticate with matricule, email or username
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Identifier == "" {
		return response.BadRequest(c, "Identifier is required")
	}
	if req.Password == "" {
		return response.BadRequest(c, "Password is required")
	}

	input := &services.LoginInput{
		Identifier: strings.TrimSpace(req.Identifier),
		Password:   req.Password,
	}

	result, err := h.authService.Login(c.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			return response.Unauthorized(c, "Invalid identifier or password")
		case errors.Is(err, services.ErrUserInactive):
			return response.Forbidden(c, "User account is inactive")
		default:
			return response.InternalServerError(c, "Failed to login")
		}
	}

	h.setAuthCookie(c, result.AccessToken)

	return response.Success(c, "Login successful", fiber.Map{
		"access_token": result.AccessToken,
		"user":         result.User,
	})
}

// Logout handles user logout
// @Summary Logout
// @Description Delete the current session
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if sessionID := middleware.CurrentSessionID(c); sessionID != "" {
		_ = h.authService.Logout(c.Context(), sessionID)
	}

	h.clearAuthCookie(c)

	return response.Success(c, "Logged out successfully", nil)
}

// ChangePasswordRequest represents change password request body
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword handles password change
// @Summary Change password
// @Description Change the current user's password. Clears a pending forced password change and invalidates other sessions.
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ChangePasswordRequest true "Passwords"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/password [post]
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.CurrentPassword == "" || req.NewPassword == "" {
		return response.BadRequest(c, "Current and new passwords are required")
	}

	user := middleware.CurrentUser(c)
	input := &services.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	}

	err := h.authService.ChangePassword(c.Context(), user.ID, middleware.CurrentSessionID(c), input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrWrongPassword):
			return response.Unauthorized(c, "Current password is incorrect")
		case errors.Is(err, services.ErrWeakPassword):
			return response.BadRequest(c, "New password must be at least 8 characters")
		default:
			return response.InternalServerError(c, "Failed to change password")
		}
	}

	return response.Success(c, "Password changed successfully", nil)
}

// Me returns the authenticated user
// @Summary Current user
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	return response.Success(c, "OK", user.ToResponse())
}

// setAuthCookie stores the access token in an HTTP-only cookie
func (h *AuthHandler) setAuthCookie(c *fiber.Ctx, accessToken string) {
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Expires:  time.Now().Add(time.Duration(h.cfg.JWT.AccessTokenMins) * time.Minute),
		HTTPOnly: true,
		Secure:   h.cfg.IsProd(),
		SameSite: "Lax",
		Path:     "/",
	})
}

// clearAuthCookie removes the access token cookie
func (h *AuthHandler) clearAuthCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Path:     "/",
	})
}
