package services

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrEmailNotConfirmed  = errors.New("email not confirmed")
	ErrRateLimited        = errors.New("too many requests")
	ErrUserNotFound       = errors.New("user not found")
	ErrAlreadyRegistered  = errors.New("user already registered")
	ErrStorageUnavailable = errors.New("storage service is not configured")
	ErrAIUnavailable      = errors.New("ai recommendation unavailable")
	ErrUnauthenticated    = errors.New("unauthenticated")
)

// Reason is the machine-readable failure code returned to clients.
type Reason string

const (
	ReasonInvalidInput       Reason = "invalid_input"
	ReasonForbidden          Reason = "forbidden"
	ReasonNotFound           Reason = "not_found"
	ReasonConflict           Reason = "conflict"
	ReasonInvalidCredentials Reason = "invalid_credentials"
	ReasonEmailNotConfirmed  Reason = "email_not_confirmed"
	ReasonRateLimited        Reason = "rate_limited"
	ReasonUserNotFound       Reason = "user_not_found"
	ReasonAlreadyRegistered  Reason = "already_registered"
	ReasonStorageUnavailable Reason = "storage_unavailable"
	ReasonAIUnavailable      Reason = "ai_unavailable"
	ReasonUnauthenticated    Reason = "unauthenticated"
	ReasonInternal           Reason = "internal"
)

// ValidationError is an input problem tied to one field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func ReasonOf(err error) Reason {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return ReasonInvalidInput
	case errors.Is(err, ErrForbidden):
		return ReasonForbidden
	case errors.Is(err, ErrInvalidCredentials):
		return ReasonInvalidCredentials
	case errors.Is(err, ErrEmailNotConfirmed):
		return ReasonEmailNotConfirmed
	case errors.Is(err, ErrRateLimited):
		return ReasonRateLimited
	case errors.Is(err, ErrUserNotFound):
		return ReasonUserNotFound
	case errors.Is(err, ErrAlreadyRegistered):
		return ReasonAlreadyRegistered
	case errors.Is(err, ErrStorageUnavailable):
		return ReasonStorageUnavailable
	case errors.Is(err, ErrAIUnavailable):
		return ReasonAIUnavailable
	case errors.Is(err, ErrUnauthenticated):
		return ReasonUnauthenticated
	case errors.Is(err, ErrConflict), isUniqueViolation(err):
		return ReasonConflict
	case errors.Is(err, ErrNotFound), errors.Is(err, pgx.ErrNoRows):
		return ReasonNotFound
	default:
		return ReasonInternal
	}
}
