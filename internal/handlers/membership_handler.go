package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/wdv96wdv/Doclimb/internal/models"
)

type membershipService interface {
	ListUsers(ctx context.Context, search string) ([]models.UserWithMemberships, error)
	Grant(ctx context.Context, userID uuid.UUID, membershipType string, days int) (*models.Membership, error)
	Revoke(ctx context.Context, userID uuid.UUID) (int64, error)
	Mine(ctx context.Context, userID uuid.UUID) (*models.UserWithMemberships, error)
}

type MembershipHandler struct {
	service membershipService
}

func NewMembershipHandler(service membershipService) *MembershipHandler {
	return &MembershipHandler{service: service}
}

type grantRequest struct {
	Type string `json:"type"`
	Days int    `json:"days"`
}

func (h *MembershipHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.service.ListUsers(c.UserContext(), c.Query("search"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"users": users})
}

func (h *MembershipHandler) Grant(c *fiber.Ctx) error {
	userID, err := paramUUID(c)
	if err != nil {
		return writeError(c, err)
	}
	var req grantRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, invalidField("body", "invalid request body"))
	}
	membership, err := h.service.Grant(c.UserContext(), userID, req.Type, req.Days)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(membership)
}

func (h *MembershipHandler) Revoke(c *fiber.Ctx) error {
	userID, err := paramUUID(c)
	if err != nil {
		return writeError(c, err)
	}
	cancelled, err := h.service.Revoke(c.UserContext(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"cancelled": cancelled})
}

func (h *MembershipHandler) Mine(c *fiber.Ctx) error {
	mine, err := h.service.Mine(c.UserContext(), viewerID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(mine)
}
