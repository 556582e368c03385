package handlers

import (
	"errors"
	"net/http"

	"unimarket/internal/common"
	"unimarket/internal/middleware"
	"unimarket/internal/services"

	"github.com/labstack/echo/v4"
)

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	authService services.AuthService
	resolver    middleware.IdentityResolver
}

// NewAuthHandlers creates a new auth handlers instance
func NewAuthHandlers(authService services.AuthService, resolver middleware.IdentityResolver) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		resolver:    resolver,
	}
}

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number"`
}

// RegisterResponse confirms the created identity
type RegisterResponse struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Register handles user registration
func (h *AuthHandlers) Register(c echo.Context) error {
	ctx := c.Request().Context()

	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.PhoneNumber == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "First name, last name, email and phone number are required")
	}
	if len(req.Password) < 6 {
		return common.SendValidationError(c, "password", "password must be at least 6 characters")
	}

	user, err := h.authService.Register(ctx, services.RegisterInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			return echo.NewHTTPError(http.StatusBadRequest, common.ErrDuplicateEmail.Error())
		}
		return common.HTTPError(err)
	}

	return c.JSON(http.StatusOK, RegisterResponse{
		ID:      user.ID.String(),
		Email:   user.Email,
		Message: "User registered successfully",
	})
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the identity token for subsequent calls
type LoginResponse struct {
	Token string `json:"token"`
}

// Login handles user login with email and password
func (h *AuthHandlers) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Email and password are required")
	}

	user, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		// Uniform message, nothing distinguishes unknown emails from
		// wrong passwords.
		if errors.Is(err, common.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, common.ErrInvalidCredentials.Error())
		}
		return common.HTTPError(err)
	}

	token, err := h.resolver.Issue(user.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to issue identity token")
	}

	return c.JSON(http.StatusOK, LoginResponse{Token: token})
}
