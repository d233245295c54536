package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/wdv96wdv/Doclimb/internal/models"
	"github.com/wdv96wdv/Doclimb/internal/repository"
)

type stubMembershipStore struct {
	rows   []models.Membership
	nextID int64
}

func (s *stubMembershipStore) FindActive(_ context.Context, userID uuid.UUID, today time.Time) (*models.Membership, error) {
	var found *models.Membership
	for i := range s.rows {
		row := &s.rows[i]
		if row.UserID != userID || row.Status != models.MembershipActive || row.EndDate.Before(today) {
			continue
		}
		if found == nil || row.EndDate.After(found.EndDate) {
			found = row
		}
	}
	if found == nil {
		return nil, pgx.ErrNoRows
	}
	copied := *found
	return &copied, nil
}

func (s *stubMembershipStore) MarkExtended(_ context.Context, id int64) error {
	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows[i].Status = models.MembershipExtended
		}
	}
	return nil
}

func (s *stubMembershipStore) Create(_ context.Context, input repository.CreateMembershipInput) (*models.Membership, error) {
	s.nextID++
	row := models.Membership{
		ID:        s.nextID,
		UserID:    input.UserID,
		Type:      input.Type,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
		Status:    models.MembershipActive,
	}
	s.rows = append(s.rows, row)
	return &row, nil
}

func (s *stubMembershipStore) CancelActive(_ context.Context, userID uuid.UUID, today time.Time) (int64, error) {
	var count int64
	for i := range s.rows {
		if s.rows[i].UserID == userID && s.rows[i].Status == models.MembershipActive {
			s.rows[i].Status = models.MembershipCancelled
			s.rows[i].EndDate = today
			count++
		}
	}
	return count, nil
}

func (s *stubMembershipStore) ListByUsers(_ context.Context, userIDs []uuid.UUID) ([]models.Membership, error) {
	wanted := make(map[uuid.UUID]bool, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = true
	}
	out := []models.Membership{}
	for i := len(s.rows) - 1; i >= 0; i-- {
		if wanted[s.rows[i].UserID] {
			out = append(out, s.rows[i])
		}
	}
	return out, nil
}

// stubTx applies changes to a copy and keeps them only when fn succeeds.
type stubTx struct {
	store *stubMembershipStore
	runs  int
}

func (t *stubTx) InTx(_ context.Context, fn func(store membershipStore) error) error {
	t.runs++
	staged := &stubMembershipStore{rows: append([]models.Membership(nil), t.store.rows...), nextID: t.store.nextID}
	if err := fn(staged); err != nil {
		return err
	}
	t.store.rows, t.store.nextID = staged.rows, staged.nextID
	return nil
}

type stubDirectory struct {
	profiles []models.Profile
}

func (d *stubDirectory) GetByID(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	for _, profile := range d.profiles {
		if profile.ID == id {
			return &profile, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (d *stubDirectory) Search(_ context.Context, _ string) ([]models.Profile, error) {
	return d.profiles, nil
}

func newMembershipFixture(t *testing.T, today string) (*MembershipService, *stubMembershipStore, uuid.UUID) {
	t.Helper()
	userID := uuid.New()
	store := &stubMembershipStore{}
	service := NewMembershipService(
		&stubDirectory{profiles: []models.Profile{{ID: userID, Name: "Kim"}}},
		store,
		&stubTx{store: store},
	)
	now := day(t, today).Add(15 * time.Hour)
	service.now = func() time.Time { return now }
	return service, store, userID
}

func TestGrantWithoutActiveMembershipStartsToday(t *testing.T) {
	service, _, userID := newMembershipFixture(t, "2024-05-10")

	granted, err := service.Grant(context.Background(), userID, "monthly", 0)
	if err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if got := granted.StartDate.Format(time.DateOnly); got != "2024-05-10" {
		t.Fatalf("expected start today, got %s", got)
	}
	if got := granted.EndDate.Format(time.DateOnly); got != "2024-06-09" {
		t.Fatalf("expected end today+30, got %s", got)
	}
}

func TestGrantExtendsActiveMembershipFromItsEnd(t *testing.T) {
	service, store, userID := newMembershipFixture(t, "2024-05-10")
	store.rows = []models.Membership{{
		ID:        1,
		UserID:    userID,
		Type:      "monthly",
		StartDate: day(t, "2024-04-20"),
		EndDate:   day(t, "2024-05-20"),
		Status:    models.MembershipActive,
	}}
	store.nextID = 1

	granted, err := service.Grant(context.Background(), userID, "custom", 7)
	if err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if got := granted.StartDate.Format(time.DateOnly); got != "2024-05-20" {
		t.Fatalf("expected start at previous end, got %s", got)
	}
	if got := granted.EndDate.Format(time.DateOnly); got != "2024-05-27" {
		t.Fatalf("expected end 7 days later, got %s", got)
	}
	if store.rows[0].Status != models.MembershipExtended {
		t.Fatalf("expected previous row flagged extended, got %q", store.rows[0].Status)
	}
}

func TestGrantIgnoresExpiredMembership(t *testing.T) {
	service, store, userID := newMembershipFixture(t, "2024-05-10")
	store.rows = []models.Membership{{
		ID: 1, UserID: userID, EndDate: day(t, "2024-05-09"), Status: models.MembershipActive,
	}}
	store.nextID = 1

	granted, err := service.Grant(context.Background(), userID, "day_pass", 0)
	if err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if got := granted.StartDate.Format(time.DateOnly); got != "2024-05-10" {
		t.Fatalf("expected start today, got %s", got)
	}
	if store.rows[0].Status != models.MembershipActive {
		t.Fatalf("expected expired row untouched, got %q", store.rows[0].Status)
	}
}

func TestGrantValidation(t *testing.T) {
	service, _, userID := newMembershipFixture(t, "2024-05-10")

	cases := []struct {
		kind string
		days int
	}{
		{"", 30},
		{"custom", 0},
		{"custom", -3},
		{"monthly", 4000},
	}
	for _, tc := range cases {
		if _, err := service.Grant(context.Background(), userID, tc.kind, tc.days); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected %q/%d to be rejected, got %v", tc.kind, tc.days, err)
		}
	}
	if _, err := service.Grant(context.Background(), uuid.New(), "monthly", 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestRevokeCancelsActiveRows(t *testing.T) {
	service, store, userID := newMembershipFixture(t, "2024-05-10")
	if _, err := service.Grant(context.Background(), userID, "monthly", 0); err != nil {
		t.Fatalf("Grant: %v", err)
	}

	cancelled, err := service.Revoke(context.Background(), userID)
	if err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if cancelled != 1 {
		t.Fatalf("expected one cancellation, got %d", cancelled)
	}
	row := store.rows[0]
	if row.Status != models.MembershipCancelled || row.EndDate.Format(time.DateOnly) != "2024-05-10" {
		t.Fatalf("unexpected row after revoke %+v", row)
	}
}

func TestListUsersAttachesActiveMembership(t *testing.T) {
	service, _, userID := newMembershipFixture(t, "2024-05-10")
	if _, err := service.Grant(context.Background(), userID, "monthly", 0); err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if _, err := service.Grant(context.Background(), userID, "day_pass", 0); err != nil {
		t.Fatalf("Grant extend: %v", err)
	}

	users, err := service.ListUsers(context.Background(), "")
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 1 || len(users[0].Memberships) != 2 {
		t.Fatalf("unexpected users %+v", users)
	}
	active := users[0].ActiveMembership
	if active == nil || active.Type != "day_pass" || active.EndDate.Format(time.DateOnly) != "2024-06-10" {
		t.Fatalf("unexpected active membership %+v", active)
	}
}
