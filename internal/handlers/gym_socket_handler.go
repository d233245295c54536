package handlers

import (
	"context"
	"strings"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/wdv96wdv/Doclimb/internal/services"
	"github.com/wdv96wdv/Doclimb/internal/session"
	gymws "github.com/wdv96wdv/Doclimb/internal/websocket"
	"github.com/wdv96wdv/Doclimb/pkg/utils"
)

type sessionResolver interface {
	Resolve(ctx context.Context, claims *utils.Claims) (*session.Context, error)
}

type GymSocketHandler struct {
	hub       *gymws.Hub
	sessions  sessionResolver
	jwtSecret string
}

func NewGymSocketHandler(hub *gymws.Hub, sessions sessionResolver, jwtSecret string) *GymSocketHandler {
	return &GymSocketHandler{hub: hub, sessions: sessions, jwtSecret: jwtSecret}
}

// Upgrade admits websocket upgrades from members. Browsers cannot set
// headers on websocket requests, so ?token= is accepted too.
func (h *GymSocketHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}

	tokenString := strings.TrimSpace(c.Query("token"))
	if tokenString == "" {
		parts := strings.Split(strings.TrimSpace(c.Get("Authorization")), " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			tokenString = parts[1]
		}
	}
	if tokenString == "" {
		return writeError(c, services.ErrUnauthenticated)
	}

	claims, err := utils.ValidateToken(tokenString, h.jwtSecret)
	if err != nil {
		return writeError(c, services.ErrUnauthenticated)
	}
	current, err := h.sessions.Resolve(c.UserContext(), claims)
	if err != nil || !current.IsAuthenticated {
		return writeError(c, services.ErrUnauthenticated)
	}

	c.Locals("user_id", claims.UserID)
	return c.Next()
}

func (h *GymSocketHandler) Handle(conn *websocket.Conn) {
	h.hub.Serve(conn)
}
