package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/contest-service/internal/api/dto"
	"github.com/spec-kit/contest-service/internal/service"
	apperrors "github.com/spec-kit/contest-service/pkg/util/errorutil"
)

// ContestantsHandler exposes enrollment endpoints.
type ContestantsHandler struct {
	contestants *service.ContestantService
}

// NewContestantsHandler constructs handler.
func NewContestantsHandler(contestants *service.ContestantService) *ContestantsHandler {
	return &ContestantsHandler{contestants: contestants}
}

// Enroll handles POST /contests/:id/contestants.
func (h *ContestantsHandler) Enroll(c *fiber.Ctx) error {
	var req dto.EnrollContestantRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.UserID) == "" {
		return apperrors.NewValidationError("user_id is required", map[string]any{"field": "user_id"})
	}
	contestant, err := h.contestants.Enroll(c.UserContext(), c.Params("id"), req.UserID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewContestantResponse(contestant)})
}

// Count handles GET /contests/:id/contestants/count.
func (h *ContestantsHandler) Count(c *fiber.Ctx) error {
	contestID := c.Params("id")
	n, err := h.contestants.CountContestants(c.UserContext(), contestID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ContestantCountResponse{ContestID: contestID, Count: n}})
}

// Withdraw handles DELETE /contestants/:id.
func (h *ContestantsHandler) Withdraw(c *fiber.Ctx) error {
	if err := h.contestants.Withdraw(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
