package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/wdv96wdv/Doclimb/internal/services"
)

type coachService interface {
	Recommend(ctx context.Context, userID uuid.UUID) (*services.Recommendation, error)
}

type CoachHandler struct {
	service  coachService
	function services.Recommender
}

// NewCoachHandler wires the member endpoint to service and the hosted
// ai-recommend function to function.
func NewCoachHandler(service coachService, function services.Recommender) *CoachHandler {
	return &CoachHandler{service: service, function: function}
}

func (h *CoachHandler) Recommend(c *fiber.Ctx) error {
	recommendation, err := h.service.Recommend(c.UserContext(), viewerID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(recommendation)
}

// Function serves the ai-recommend contract: POST {recent_records} and get
// back {recommendation}.
func (h *CoachHandler) Function(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return c.Status(fiber.StatusMethodNotAllowed).JSON(fiber.Map{"error": "POST only"})
	}

	var body struct {
		RecentRecords []services.RecordDigest `json:"recent_records"`
	}
	if err := c.App().Config().JSONDecoder(c.Body(), &body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON body"})
	}

	if h.function == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": services.ErrModelKeyMissing.Error()})
	}
	recommendation, err := h.function.Recommend(c.UserContext(), body.RecentRecords)
	if err != nil {
		if !errors.Is(err, services.ErrModelKeyMissing) {
			slog.Error("ai_function_failed", "error", err)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"recommendation": recommendation})
}
