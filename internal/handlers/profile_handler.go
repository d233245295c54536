package handlers

import (
	"context"
	"errors"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"github.com/wdv96wdv/Doclimb/internal/models"
	"github.com/wdv96wdv/Doclimb/internal/services"
)

type profileService interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	Update(ctx context.Context, userID uuid.UUID, input services.UpdateProfileInput) (*models.Profile, error)
	UploadAvatar(ctx context.Context, userID uuid.UUID, file io.Reader, filename string, size int64) (*models.Profile, error)
}

type ProfileHandler struct {
	service profileService
}

func NewProfileHandler(service profileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

type updateProfileRequest struct {
	Name            *string  `json:"name"`
	DisplayNickname *string  `json:"display_nickname"`
	ClimbingLevel   *string  `json:"climbing_level"`
	PreferredGym    *string  `json:"preferred_gym"`
	ClimbingStyle   []string `json:"climbing_style"`
}

func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	profile, err := h.service.Get(c.UserContext(), viewerID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(profile)
}

func (h *ProfileHandler) Update(c *fiber.Ctx) error {
	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, invalidField("body", "invalid request body"))
	}

	profile, err := h.service.Update(c.UserContext(), viewerID(c), services.UpdateProfileInput{
		Name:            req.Name,
		DisplayNickname: req.DisplayNickname,
		ClimbingLevel:   req.ClimbingLevel,
		PreferredGym:    req.PreferredGym,
		ClimbingStyle:   req.ClimbingStyle,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(profile)
}

func (h *ProfileHandler) UploadAvatar(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return writeError(c, invalidField("avatar", "avatar file is required"))
	}
	file, err := fileHeader.Open()
	if err != nil {
		return writeError(c, err)
	}
	defer file.Close()

	profile, err := h.service.UploadAvatar(c.UserContext(), viewerID(c), file, fileHeader.Filename, fileHeader.Size)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"avatar_url": profile.AvatarURL, "profile": profile})
}

// formUpload opens an optional multipart file. The returned close func is
// always safe to call.
func formUpload(c *fiber.Ctx, field string) (*services.Upload, func(), error) {
	fileHeader, err := c.FormFile(field)
	if errors.Is(err, fasthttp.ErrMissingFile) || errors.Is(err, fasthttp.ErrNoMultipartForm) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, invalidField(field, "invalid file upload")
	}
	return openUpload(fileHeader)
}

func openUpload(fileHeader *multipart.FileHeader) (*services.Upload, func(), error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &services.Upload{File: file, Filename: fileHeader.Filename, Size: fileHeader.Size},
		func() { _ = file.Close() },
		nil
}
