package handlers

import (
	"slices"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/restaurant-backoffice/internal/api/dto"
	"github.com/spec-kit/restaurant-backoffice/internal/auth"
	"github.com/spec-kit/restaurant-backoffice/internal/domain"
	"github.com/spec-kit/restaurant-backoffice/internal/repository"
	"github.com/spec-kit/restaurant-backoffice/internal/service"
	apperrors "github.com/spec-kit/restaurant-backoffice/pkg/util"
)

// UsersHandler manages back-office accounts.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// List handles GET /api/users. Delivery staff may only list drivers, which
// the delivery board needs for assignment.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	filter := repository.UserFilter{Search: c.Query("search")}
	if raw := c.Query("role"); raw != "" {
		role, err := domain.ParseRole(raw)
		if err != nil {
			return apperrors.NewValidationError("invalid role", map[string]any{"role": raw})
		}
		filter.Role = role
	}
	if !slices.Contains(auth.Supervisors, p.Role) && filter.Role != domain.RoleDeliveryStaff {
		return apperrors.NewForbidden("insufficient role")
	}

	profiles, err := h.users.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	page, size := paging(c)
	return c.JSON(dto.OK("", dto.NewPage(profiles, page, size)))
}

// Get handles GET /api/users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	profile, err := h.users.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("", profile))
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.UserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	profile, err := h.users.Create(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OK("User created successfully", profile))
}

// Update handles PUT /api/users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.UserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	profile, err := h.users.Update(c.UserContext(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("User updated successfully", profile))
}

// Delete handles DELETE /api/users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.users.Delete(c.UserContext(), p.UserID, id); err != nil {
		return err
	}
	return c.JSON(dto.OK[any]("User deleted successfully", nil))
}
