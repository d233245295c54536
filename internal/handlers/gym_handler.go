package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/wdv96wdv/Doclimb/internal/gymlist"
	"github.com/wdv96wdv/Doclimb/internal/models"
	"github.com/wdv96wdv/Doclimb/internal/services"
)

type gymService interface {
	List(filter gymlist.Filter, page int) gymlist.Page
	Get(ctx context.Context, id uuid.UUID) (*models.Gym, error)
	AdminList(ctx context.Context, query string, status int, page int) (*gymlist.Page, error)
	Create(ctx context.Context, req services.CreateGymRequest) (*models.Gym, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status int) (*models.Gym, error)
}

type GymHandler struct {
	service gymService
}

func NewGymHandler(service gymService) *GymHandler {
	return &GymHandler{service: service}
}

func queryFilter(c *fiber.Ctx) (gymlist.Filter, error) {
	status, ok := gymlist.ParseStatus(c.Query("status"))
	if !ok {
		return gymlist.Filter{}, invalidField("status", "status must be all or 0-3")
	}
	return gymlist.Filter{Query: c.Query("q"), Status: status}, nil
}

// List pages the congestion board from the in-memory catalog.
func (h *GymHandler) List(c *fiber.Ctx) error {
	filter, err := queryFilter(c)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(h.service.List(filter, queryPage(c)))
}

func (h *GymHandler) Get(c *fiber.Ctx) error {
	id, err := paramUUID(c)
	if err != nil {
		return writeError(c, err)
	}
	gym, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(gym)
}

func (h *GymHandler) AdminList(c *fiber.Ctx) error {
	filter, err := queryFilter(c)
	if err != nil {
		return writeError(c, err)
	}
	page, err := h.service.AdminList(c.UserContext(), filter.Query, filter.Status, queryPage(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(page)
}

func (h *GymHandler) Create(c *fiber.Ctx) error {
	var req services.CreateGymRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, invalidField("body", "invalid request body"))
	}
	gym, err := h.service.Create(c.UserContext(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(gym)
}

func (h *GymHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := paramUUID(c)
	if err != nil {
		return writeError(c, err)
	}
	var req struct {
		Status *int `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, invalidField("body", "invalid request body"))
	}
	if req.Status == nil {
		return writeError(c, invalidField("status", "status is required"))
	}
	gym, err := h.service.UpdateStatus(c.UserContext(), id, *req.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(gym)
}
