package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/wdv96wdv/Doclimb/internal/calendar"
	"github.com/wdv96wdv/Doclimb/internal/models"
	"github.com/wdv96wdv/Doclimb/internal/services"
)

type recordService interface {
	Create(ctx context.Context, userID uuid.UUID, req services.RecordRequest) (*models.Record, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.Record, error)
	Get(ctx context.Context, userID uuid.UUID, id int64) (*models.Record, error)
	Update(ctx context.Context, userID uuid.UUID, id int64, req services.RecordRequest) (*models.Record, error)
	Delete(ctx context.Context, userID uuid.UUID, id int64) error
	Calendar(ctx context.Context, userID uuid.UUID, monthKey string) (*calendar.MonthView, error)
	Summary(ctx context.Context, userID uuid.UUID) (*models.RecordSummary, error)
}

type RecordHandler struct {
	service recordService
}

func NewRecordHandler(service recordService) *RecordHandler {
	return &RecordHandler{service: service}
}

func (h *RecordHandler) List(c *fiber.Ctx) error {
	records, err := h.service.List(c.UserContext(), viewerID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"records": records})
}

func (h *RecordHandler) Create(c *fiber.Ctx) error {
	var req services.RecordRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, invalidField("body", "invalid request body"))
	}
	record, err := h.service.Create(c.UserContext(), viewerID(c), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(record)
}

func (h *RecordHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return writeError(c, err)
	}
	record, err := h.service.Get(c.UserContext(), viewerID(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(record)
}

func (h *RecordHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return writeError(c, err)
	}
	var req services.RecordRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, invalidField("body", "invalid request body"))
	}
	record, err := h.service.Update(c.UserContext(), viewerID(c), id, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(record)
}

func (h *RecordHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.service.Delete(c.UserContext(), viewerID(c), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *RecordHandler) Calendar(c *fiber.Ctx) error {
	view, err := h.service.Calendar(c.UserContext(), viewerID(c), c.Query("month"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(view)
}

func (h *RecordHandler) Summary(c *fiber.Ctx) error {
	summary, err := h.service.Summary(c.UserContext(), viewerID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(summary)
}
