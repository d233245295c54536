package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/wdv96wdv/Doclimb/internal/models"
	"github.com/wdv96wdv/Doclimb/internal/services"
)

type postService interface {
	List(ctx context.Context, page, limit int) (*services.PostPage, error)
	Get(ctx context.Context, id int64) (*models.Post, error)
	Create(ctx context.Context, userID uuid.UUID, caption string, image *services.Upload) (*models.Post, error)
	Update(ctx context.Context, userID uuid.UUID, id int64, caption *string, image *services.Upload) (*models.Post, error)
	Delete(ctx context.Context, userID uuid.UUID, id int64) error
}

type PostHandler struct {
	service postService
}

func NewPostHandler(service postService) *PostHandler {
	return &PostHandler{service: service}
}

func (h *PostHandler) List(c *fiber.Ctx) error {
	page, err := h.service.List(c.UserContext(), queryPage(c), queryLimit(c, services.DefaultFeedLimit))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(page)
}

func (h *PostHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return writeError(c, err)
	}
	post, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(post)
}

// Create takes a multipart form with an image file and a caption.
func (h *PostHandler) Create(c *fiber.Ctx) error {
	image, closeImage, err := formUpload(c, "image")
	if err != nil {
		return writeError(c, err)
	}
	defer closeImage()

	post, err := h.service.Create(c.UserContext(), viewerID(c), c.FormValue("caption"), image)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// Update accepts a multipart form (caption and/or image) or a JSON caption.
func (h *PostHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return writeError(c, err)
	}

	var caption *string
	var image *services.Upload
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return writeError(c, invalidField("body", "invalid multipart form"))
		}
		if values, ok := form.Value["caption"]; ok && len(values) > 0 {
			caption = &values[0]
		}
		if files := form.File["image"]; len(files) > 0 {
			upload, closeImage, err := openUpload(files[0])
			if err != nil {
				return writeError(c, err)
			}
			defer closeImage()
			image = upload
		}
	} else {
		var req struct {
			Caption *string `json:"caption"`
		}
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, invalidField("body", "invalid request body"))
		}
		caption = req.Caption
	}

	post, err := h.service.Update(c.UserContext(), viewerID(c), id, caption, image)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(post)
}

func (h *PostHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.service.Delete(c.UserContext(), viewerID(c), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
