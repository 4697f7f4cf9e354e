package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/payroll-backoffice/internal/domain"
	"github.com/mansoorceksport/payroll-backoffice/internal/middleware"
)

// Authenticator is the auth surface the handler needs
type Authenticator interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.Principal, error)
	ValidateUser(ctx context.Context, nationalID, password string) (*domain.Principal, error)
	Login(p *domain.Principal) (*domain.LoginResult, error)
	GetPrincipal(ctx context.Context, employeeID string) (*domain.Principal, error)
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	auth Authenticator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth Authenticator) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req domain.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}

	principal, err := h.auth.Register(c.UserContext(), req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    principal.View(),
	})
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req domain.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	principal, err := h.auth.ValidateUser(c.UserContext(), req.NationalID, req.Password)
	if err != nil {
		return err
	}

	result, err := h.auth.Login(principal)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// Me handles GET /v1/auth/me. Unlike login it includes permissions.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, err := h.auth.GetPrincipal(c.UserContext(), middleware.EmployeeID(c))
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidID) {
		// token outlived its identity
		return domain.ErrInvalidCredentials
	}
	if err != nil {
		return err
	}
	return c.JSON(principal)
}
