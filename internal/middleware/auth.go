package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/wdv96wdv/Doclimb/internal/messages"
	"github.com/wdv96wdv/Doclimb/internal/services"
	"github.com/wdv96wdv/Doclimb/internal/session"
	"github.com/wdv96wdv/Doclimb/pkg/utils"
)

const sessionKey = "session"

type sessionResolver interface {
	Resolve(ctx context.Context, claims *utils.Claims) (*session.Context, error)
}

// Session resolves an optional bearer token into a session.Context. Requests
// without a usable token continue as anonymous; the guards below reject them
// where a member is required.
func Session(resolver sessionResolver, secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(sessionKey, session.Anonymous())

		tokenString, ok := bearerToken(c)
		if !ok {
			return c.Next()
		}

		claims, err := utils.ValidateToken(tokenString, secret)
		if err != nil {
			return c.Next()
		}

		current, err := resolver.Resolve(c.UserContext(), claims)
		if err != nil {
			if !errors.Is(err, session.ErrRevoked) {
				slog.Error("session_resolve_failed", "error", err, "user_id", claims.UserID)
			}
			return c.Next()
		}

		c.Locals(sessionKey, current)
		c.Locals("user_id", claims.UserID)
		c.Locals("role", claims.Role)
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	parts := strings.Split(c.Get("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Current returns the viewer context stored by Session, or an anonymous one.
func Current(c *fiber.Ctx) *session.Context {
	if current, ok := c.Locals(sessionKey).(*session.Context); ok && current != nil {
		return current
	}
	return session.Anonymous()
}

// SetCurrent stores a viewer context; tests use it in place of Session.
func SetCurrent(c *fiber.Ctx, current *session.Context) {
	c.Locals(sessionKey, current)
}

// AuthRequired rejects viewers that are not signed in with a profile.
func AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !Current(c).IsAuthenticated {
			return unauthenticated(c)
		}
		return c.Next()
	}
}

func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		current := Current(c)
		if !current.IsAuthenticated {
			return unauthenticated(c)
		}
		if !current.IsAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":  messages.For(c.Get(fiber.HeaderAcceptLanguage), string(services.ReasonForbidden)),
				"reason": services.ReasonForbidden,
			})
		}
		return c.Next()
	}
}

// ServiceKeyOrMember admits callers presenting the service key as a bearer
// token, or signed-in members. An empty key admits members only.
func ServiceKeyOrMember(serviceKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenString, ok := bearerToken(c); ok && serviceKey != "" &&
			subtle.ConstantTimeCompare([]byte(tokenString), []byte(serviceKey)) == 1 {
			return c.Next()
		}
		if !Current(c).IsAuthenticated {
			return unauthenticated(c)
		}
		return c.Next()
	}
}

func unauthenticated(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error":  messages.For(c.Get(fiber.HeaderAcceptLanguage), string(services.ReasonUnauthenticated)),
		"reason": services.ReasonUnauthenticated,
	})
}
