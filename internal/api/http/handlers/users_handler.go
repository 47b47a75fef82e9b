package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/hazardwatch/ticket-engine/internal/api/dto"
	"github.com/hazardwatch/ticket-engine/internal/auth"
	"github.com/hazardwatch/ticket-engine/internal/domain"
	"github.com/hazardwatch/ticket-engine/internal/service"
	apperrors "github.com/hazardwatch/ticket-engine/pkg/util"
)

// UsersHandler serves registration, login and the current-account view.
type UsersHandler struct {
	authSvc *service.AuthService
}

// NewUsersHandler constructs the handler.
func NewUsersHandler(authSvc *service.AuthService) *UsersHandler {
	return &UsersHandler{authSvc: authSvc}
}

// Register creates a reporter account. Staff roles are ignored on this
// route; they come from admin provisioning.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	user, err := h.authSvc.Register(c.UserContext(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.RoleReporter,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewUserResponse(user))
}

// ProvisionStaff creates an account with an arbitrary role. Admin only.
func (h *UsersHandler) ProvisionStaff(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	user, err := h.authSvc.Register(c.UserContext(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(strings.ToUpper(req.Role)),
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewUserResponse(user))
}

// Login verifies credentials and returns a bearer token.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	user, token, expiresAt, err := h.authSvc.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      dto.NewUserResponse(user),
	})
}

// Me returns the authenticated account.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(dto.NewUserResponse(principal.User))
}
