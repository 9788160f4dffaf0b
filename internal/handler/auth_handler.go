package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"educrm/internal/auth"
	apperrors "educrm/internal/errors"
	"educrm/internal/model"
	"educrm/internal/service"
)

// AuthHandler handles registration, login, logout and verification.
type AuthHandler struct {
	authService   service.AuthService
	tokenTTL      time.Duration
	secureCookies bool
}

// NewAuthHandler creates a new auth handler. secureCookies must be true in
// production so the session cookie carries the Secure attribute.
func NewAuthHandler(authService service.AuthService, tokenTTL time.Duration, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		tokenTTL:      tokenTTL,
		secureCookies: secureCookies,
	}
}

// RegisterRequest represents a registration request.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=STUDENT LECTURER ADMIN"`
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse pairs a human-readable message with the public user projection.
// The token itself travels only in the HTTP-only cookie.
type AuthResponse struct {
	Message string           `json:"message"`
	User    model.PublicUser `json:"user"`
}

// MessageResponse is a bare confirmation message.
type MessageResponse struct {
	Message string `json:"message"`
}

// Register godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return apperrors.Validation(err.Error())
	}

	user, err := h.authService.Register(c.Request().Context(), req.Email, req.Password, model.Role(req.Role))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, AuthResponse{
		Message: "User registered successfully",
		User:    user.Public(),
	})
}

// Login godoc
// @Summary Authenticate and start a session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return apperrors.Validation(err.Error())
	}

	token, user, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	auth.SetSessionCookie(c, token, h.tokenTTL, h.secureCookies)

	return c.JSON(http.StatusOK, AuthResponse{
		Message: "Login successful",
		User:    user.Public(),
	})
}

// Logout godoc
// @Summary End the current session
// @Tags auth
// @Produce json
// @Success 200 {object} MessageResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	// Logout never fails: the cookie is cleared whether or not a valid
	// token accompanied the request.
	h.authService.Logout(auth.ExtractToken(c))
	auth.ClearSessionCookie(c, h.secureCookies)

	return c.JSON(http.StatusOK, MessageResponse{Message: "Logout successful"})
}

// VerifyToken godoc
// @Summary Verify the current session token
// @Tags auth
// @Produce json
// @Success 200 {object} AuthResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/verify [post]
func (h *AuthHandler) VerifyToken(c echo.Context) error {
	principal, err := h.authService.Verify(auth.ExtractToken(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, AuthResponse{
		Message: "Token is valid",
		User: model.PublicUser{
			ID:    principal.ID,
			Email: principal.Email,
			Role:  principal.Role,
		},
	})
}
