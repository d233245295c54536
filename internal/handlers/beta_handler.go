package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/wdv96wdv/Doclimb/internal/models"
	"github.com/wdv96wdv/Doclimb/internal/services"
)

type betaService interface {
	List(ctx context.Context, viewer uuid.UUID) ([]models.Beta, error)
	Get(ctx context.Context, id int64, viewer uuid.UUID) (*models.Beta, error)
	Create(ctx context.Context, userID uuid.UUID, req services.CreateBetaRequest) (*models.Beta, error)
	Rate(ctx context.Context, betaID int64, userID uuid.UUID, difficulty string) (*models.Beta, error)
	Delete(ctx context.Context, userID uuid.UUID, id int64) error
}

type BetaHandler struct {
	service betaService
}

func NewBetaHandler(service betaService) *BetaHandler {
	return &BetaHandler{service: service}
}

func (h *BetaHandler) List(c *fiber.Ctx) error {
	betas, err := h.service.List(c.UserContext(), viewerID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"betas": betas})
}

func (h *BetaHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return writeError(c, err)
	}
	beta, err := h.service.Get(c.UserContext(), id, viewerID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(beta)
}

func (h *BetaHandler) Create(c *fiber.Ctx) error {
	var req services.CreateBetaRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, invalidField("body", "invalid request body"))
	}
	beta, err := h.service.Create(c.UserContext(), viewerID(c), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(beta)
}

func (h *BetaHandler) Rate(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return writeError(c, err)
	}
	var req struct {
		PerceivedDifficulty string `json:"perceived_difficulty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, invalidField("body", "invalid request body"))
	}
	beta, err := h.service.Rate(c.UserContext(), id, viewerID(c), req.PerceivedDifficulty)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(beta)
}

func (h *BetaHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.service.Delete(c.UserContext(), viewerID(c), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
