package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/factoryops/maintenance-service/internal/api/dto"
	"github.com/factoryops/maintenance-service/internal/auth"
	"github.com/factoryops/maintenance-service/internal/domain"
	"github.com/factoryops/maintenance-service/internal/repository"
	"github.com/factoryops/maintenance-service/internal/service"
	apperrors "github.com/factoryops/maintenance-service/pkg/util"
)

// UsersHandler manages account and credential endpoints.
type UsersHandler struct {
	service *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{service: authService}
}

// Register POST /auth/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	role := domain.UserRole(strings.ToUpper(strings.TrimSpace(req.Role)))
	if role == "" {
		role = domain.UserRoleRequester
	}
	user, err := h.service.Register(c.UserContext(), service.RegisterInput{
		Login:    req.Login,
		Password: req.Password,
		Name:     req.Name,
		Role:     role,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": userResponse(user)})
}

// Login POST /auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.service.Login(c.UserContext(), req.Login, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      userResponse(result.User),
	}})
}

// ChangePassword POST /auth/password/change.
func (h *UsersHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.service.ChangePassword(c.UserContext(), principal.User.ID, req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"changed": true}})
}

// ListTechnicians GET /users/technicians. Feeds assignment pickers.
func (h *UsersHandler) ListTechnicians(c *fiber.Ctx) error {
	role := domain.UserRoleTechnician
	active := true
	users, err := h.service.ListUsers(c.UserContext(), repository.UserFilter{Role: &role, Active: &active})
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:     user.ID,
		Login:  user.Login,
		Name:   user.Name,
		Role:   string(user.Role),
		Active: user.Active,
	}
}
