package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wdv96wdv/Doclimb/internal/middleware"
	"github.com/wdv96wdv/Doclimb/internal/navigation"
)

type NavigationHandler struct{}

func NewNavigationHandler() *NavigationHandler {
	return &NavigationHandler{}
}

func currentViewer(c *fiber.Ctx) navigation.Viewer {
	current := middleware.Current(c)
	return navigation.Viewer{HasProfile: current.IsAuthenticated, IsAdmin: current.IsAdmin}
}

// Resolve tells the client which page to render for ?path= and through
// which redirects it got there.
func (h *NavigationHandler) Resolve(c *fiber.Ctx) error {
	path := c.Query("path")
	if path == "" {
		return writeError(c, invalidField("path", "path is required"))
	}
	return c.JSON(navigation.Resolve(currentViewer(c), path))
}

func (h *NavigationHandler) Menu(c *fiber.Ctx) error {
	return c.JSON(navigation.MenuFor(currentViewer(c)))
}
