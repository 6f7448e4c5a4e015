package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/service"
)

// StaffHandler serves account administration endpoints.
type StaffHandler struct {
	auth  *service.AuthService
	users *service.UserService
}

// NewStaffHandler constructs handler.
func NewStaffHandler(authService *service.AuthService, users *service.UserService) *StaffHandler {
	return &StaffHandler{auth: authService, users: users}
}

// ProvisionUser POST /users. Admin only.
func (h *StaffHandler) ProvisionUser(c *fiber.Ctx) error {
	var req dto.UserProvisionRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	user, err := h.auth.ProvisionUser(c.UserContext(), auth.IdentityFromContext(c), service.ProvisionInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": userResponse(user)})
}

// ListTechnicians GET /users/technicians.
func (h *StaffHandler) ListTechnicians(c *fiber.Ctx) error {
	users, err := h.users.ListAssignees(c.UserContext(), auth.IdentityFromContext(c))
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetUser GET /users/:id.
func (h *StaffHandler) GetUser(c *fiber.Ctx) error {
	user, err := h.users.GetUser(c.UserContext(), auth.IdentityFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}
