package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/contest-service/internal/api/dto"
	"github.com/spec-kit/contest-service/internal/service"
	apperrors "github.com/spec-kit/contest-service/pkg/util/errorutil"
)

// ContestsHandler exposes the contest commands.
type ContestsHandler struct {
	contests *service.ContestService
}

// NewContestsHandler constructs handler.
func NewContestsHandler(contests *service.ContestService) *ContestsHandler {
	return &ContestsHandler{contests: contests}
}

// Create handles POST /contests.
func (h *ContestsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateContestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	contest, err := h.contests.Create(c.UserContext(), req.Name)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewContestResponse(contest)})
}

// Get handles GET /contests/:id.
func (h *ContestsHandler) Get(c *fiber.Ctx) error {
	contest, err := h.contests.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewContestResponse(contest)})
}

// Update handles PUT /contests/:id.
func (h *ContestsHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateContestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	contest, err := h.contests.Update(c.UserContext(), c.Params("id"), req.Name, req.LockDate)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewContestResponse(contest)})
}

// Publish handles POST /contests/:id/publish.
func (h *ContestsHandler) Publish(c *fiber.Ctx) error {
	contest, err := h.contests.Publish(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewContestResponse(contest)})
}

// Finalize handles POST /contests/:id/finalize.
func (h *ContestsHandler) Finalize(c *fiber.Ctx) error {
	contest, err := h.contests.Finalize(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewContestResponse(contest)})
}

// Delete handles DELETE /contests/:id.
func (h *ContestsHandler) Delete(c *fiber.Ctx) error {
	if err := h.contests.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
