package handlers

import (
	"context"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/wdv96wdv/Doclimb/internal/middleware"
	"github.com/wdv96wdv/Doclimb/internal/models"
	"github.com/wdv96wdv/Doclimb/internal/services"
	"github.com/wdv96wdv/Doclimb/pkg/utils"
)

type authService interface {
	EmailAvailable(ctx context.Context, email string) (bool, error)
	NicknameAvailable(ctx context.Context, nickname string) (bool, error)
	SignUp(ctx context.Context, input services.SignUpInput) (*services.SignUpResult, error)
	SignIn(ctx context.Context, email, password string) (*services.SignInResult, error)
	SignOut(ctx context.Context, claims *utils.Claims)
	ResendConfirmation(ctx context.Context, email string) error
	ConfirmEmail(ctx context.Context, token string) (*models.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, password, confirm string) error
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
}

type oauthFlow interface {
	AuthURL(ctx context.Context, provider string) (string, error)
	Complete(ctx context.Context, provider, state, code string) (*services.SignInResult, error)
}

type AuthHandler struct {
	service     authService
	oauth       oauthFlow
	redirectURL string
}

func NewAuthHandler(service authService, oauth oauthFlow, redirectURL string) *AuthHandler {
	return &AuthHandler{service: service, oauth: oauth, redirectURL: redirectURL}
}

type signUpRequest struct {
	Email           string   `json:"email"`
	Password        string   `json:"password"`
	PasswordConfirm string   `json:"password_confirm"`
	Name            string   `json:"name"`
	Nickname        string   `json:"nickname"`
	DisplayNickname string   `json:"display_nickname"`
	ClimbingLevel   *string  `json:"climbing_level"`
	PreferredGym    *string  `json:"preferred_gym"`
	ClimbingStyle   []string `json:"climbing_style"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type passwordRequest struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req signUpRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, invalidField("body", "invalid request body"))
	}

	result, err := h.service.SignUp(c.UserContext(), services.SignUpInput{
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		Name:            req.Name,
		Nickname:        req.Nickname,
		DisplayNickname: req.DisplayNickname,
		ClimbingLevel:   req.ClimbingLevel,
		PreferredGym:    req.PreferredGym,
		ClimbingStyle:   req.ClimbingStyle,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *AuthHandler) CheckEmail(c *fiber.Ctx) error {
	available, err := h.service.EmailAvailable(c.UserContext(), c.Query("email"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"available": available})
}

func (h *AuthHandler) CheckNickname(c *fiber.Ctx) error {
	available, err := h.service.NicknameAvailable(c.UserContext(), c.Query("nickname"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"available": available})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, invalidField("body", "invalid request body"))
	}

	result, err := h.service.SignIn(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(result)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.service.SignOut(c.UserContext(), middleware.Current(c).Claims)
	return c.JSON(fiber.Map{"next": services.PathLogin})
}

func (h *AuthHandler) ResendConfirmation(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, invalidField("body", "invalid request body"))
	}
	if err := h.service.ResendConfirmation(c.UserContext(), req.Email); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"sent": true})
}

func (h *AuthHandler) Confirm(c *fiber.Ctx) error {
	user, err := h.service.ConfirmEmail(c.UserContext(), c.Query("token"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"confirmed": true, "email": user.Email, "next": services.PathLogin})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	return c.JSON(middleware.Current(c))
}

func (h *AuthHandler) OAuthStart(c *fiber.Ctx) error {
	if h.oauth == nil {
		return writeError(c, services.ErrNotFound)
	}
	target, err := h.oauth.AuthURL(c.UserContext(), c.Params("provider"))
	if err != nil {
		return writeError(c, err)
	}
	return c.Redirect(target, fiber.StatusFound)
}

// OAuthCallback finishes the provider flow and hands the session token to
// the client app in the URL fragment.
func (h *AuthHandler) OAuthCallback(c *fiber.Ctx) error {
	if h.oauth == nil {
		return writeError(c, services.ErrNotFound)
	}
	if reason := c.Query("error"); reason != "" {
		return writeError(c, invalidField("oauth", reason))
	}

	result, err := h.oauth.Complete(c.UserContext(), c.Params("provider"), c.Query("state"), c.Query("code"))
	if err != nil {
		return writeError(c, err)
	}

	fragment := url.Values{}
	fragment.Set("access_token", result.Token)
	fragment.Set("next", result.Next)
	return c.Redirect(h.redirectURL+"#"+fragment.Encode(), fiber.StatusFound)
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var req passwordRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, invalidField("body", "invalid request body"))
	}
	if err := h.service.ChangePassword(c.UserContext(), viewerID(c), req.Password, req.PasswordConfirm); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"next": services.PathLogin})
}

func (h *AuthHandler) DeleteAccount(c *fiber.Ctx) error {
	if err := h.service.DeleteAccount(c.UserContext(), viewerID(c)); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
