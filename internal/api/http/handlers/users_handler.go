package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/contest-service/internal/api/dto"
	"github.com/spec-kit/contest-service/internal/service"
	apperrors "github.com/spec-kit/contest-service/pkg/util/errorutil"
)

// UsersHandler exposes user registration.
type UsersHandler struct {
	contestants *service.ContestantService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(contestants *service.ContestantService) *UsersHandler {
	return &UsersHandler{contestants: contestants}
}

// Register handles POST /users.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.contestants.RegisterUser(c.UserContext(), req.Username)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}
