package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestReasonOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Reason
	}{
		{name: "nil", err: nil, want: ""},
		{name: "validation", err: invalid("password", "too short"), want: ReasonInvalidInput},
		{name: "wrapped forbidden", err: fmt.Errorf("delete post: %w", ErrForbidden), want: ReasonForbidden},
		{name: "no rows", err: pgx.ErrNoRows, want: ReasonNotFound},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, want: ReasonConflict},
		{name: "credentials", err: ErrInvalidCredentials, want: ReasonInvalidCredentials},
		{name: "unconfirmed", err: ErrEmailNotConfirmed, want: ReasonEmailNotConfirmed},
		{name: "rate limited", err: ErrRateLimited, want: ReasonRateLimited},
		{name: "unknown", err: errors.New("boom"), want: ReasonInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ReasonOf(tc.err); got != tc.want {
				t.Fatalf("ReasonOf(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}

func TestValidationErrorUnwrapsToInvalidInput(t *testing.T) {
	err := invalid("name", "required")

	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ValidationError to match ErrInvalidInput")
	}
	var validation *ValidationError
	if !errors.As(err, &validation) || validation.Field != "name" {
		t.Fatalf("expected field name, got %+v", validation)
	}
}
