package handlers

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/wdv96wdv/Doclimb/internal/messages"
	"github.com/wdv96wdv/Doclimb/internal/middleware"
	"github.com/wdv96wdv/Doclimb/internal/services"
)

var reasonStatus = map[services.Reason]int{
	services.ReasonInvalidInput:       fiber.StatusBadRequest,
	services.ReasonForbidden:          fiber.StatusForbidden,
	services.ReasonNotFound:           fiber.StatusNotFound,
	services.ReasonConflict:           fiber.StatusConflict,
	services.ReasonInvalidCredentials: fiber.StatusUnauthorized,
	services.ReasonEmailNotConfirmed:  fiber.StatusForbidden,
	services.ReasonRateLimited:        fiber.StatusTooManyRequests,
	services.ReasonUserNotFound:       fiber.StatusNotFound,
	services.ReasonAlreadyRegistered:  fiber.StatusConflict,
	services.ReasonStorageUnavailable: fiber.StatusServiceUnavailable,
	services.ReasonAIUnavailable:      fiber.StatusBadGateway,
	services.ReasonUnauthenticated:    fiber.StatusUnauthorized,
}

// writeError answers with a localized message and the failure reason.
// Validation failures also name the offending field.
func writeError(c *fiber.Ctx, err error) error {
	reason := services.ReasonOf(err)
	status, ok := reasonStatus[reason]
	if !ok {
		status = fiber.StatusInternalServerError
		slog.Error("request_failed", "error", err, "method", c.Method(), "path", c.Path())
	}

	body := fiber.Map{
		"error":  messages.For(c.Get(fiber.HeaderAcceptLanguage), string(reason)),
		"reason": reason,
	}
	var validation *services.ValidationError
	if errors.As(err, &validation) {
		body["field"] = validation.Field
		body["detail"] = validation.Message
	}
	return c.Status(status).JSON(body)
}

func invalidField(field, message string) error {
	return &services.ValidationError{Field: field, Message: message}
}

func viewerID(c *fiber.Ctx) uuid.UUID {
	return middleware.Current(c).UserID
}

func paramID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, invalidField("id", "id must be a positive integer")
	}
	return id, nil
}

func paramUUID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, invalidField("id", "id must be a uuid")
	}
	return id, nil
}

// queryPage reads ?page=, treating anything unparsable as the first page.
func queryPage(c *fiber.Ctx) int {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func queryLimit(c *fiber.Ctx, fallback int) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 {
		return fallback
	}
	return limit
}
