package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wdv96wdv/Doclimb/internal/guide"
	"github.com/wdv96wdv/Doclimb/internal/services"
)

type GuideHandler struct {
	guide *guide.Guide
}

func NewGuideHandler(g *guide.Guide) *GuideHandler {
	return &GuideHandler{guide: g}
}

func (h *GuideHandler) Get(c *fiber.Ctx) error {
	return c.JSON(h.guide)
}

func (h *GuideHandler) Tab(c *fiber.Ctx) error {
	tab, ok := h.guide.Tab(c.Params("tab"))
	if !ok {
		return writeError(c, services.ErrNotFound)
	}
	return c.JSON(tab)
}
