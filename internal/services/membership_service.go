package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wdv96wdv/Doclimb/internal/models"
	"github.com/wdv96wdv/Doclimb/internal/repository"
)

const maxMembershipDays = 3650

// MembershipPresets maps the preset plan names to their length in days.
var MembershipPresets = map[string]int{
	"day_pass":  1,
	"monthly":   30,
	"quarterly": 90,
}

type membershipStore interface {
	FindActive(ctx context.Context, userID uuid.UUID, today time.Time) (*models.Membership, error)
	MarkExtended(ctx context.Context, id int64) error
	Create(ctx context.Context, input repository.CreateMembershipInput) (*models.Membership, error)
	CancelActive(ctx context.Context, userID uuid.UUID, today time.Time) (int64, error)
	ListByUsers(ctx context.Context, userIDs []uuid.UUID) ([]models.Membership, error)
}

type membershipTx interface {
	InTx(ctx context.Context, fn func(store membershipStore) error) error
}

type memberDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	Search(ctx context.Context, term string) ([]models.Profile, error)
}

// PgMembershipTx runs membership changes in one pgx transaction.
type PgMembershipTx struct {
	db *pgxpool.Pool
}

func NewPgMembershipTx(db *pgxpool.Pool) *PgMembershipTx {
	return &PgMembershipTx{db: db}
}

func (t *PgMembershipTx) InTx(ctx context.Context, fn func(store membershipStore) error) error {
	tx, err := t.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(repository.NewMembershipRepository(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type MembershipService struct {
	members     memberDirectory
	memberships membershipStore
	tx          membershipTx
	now         func() time.Time
}

func NewMembershipService(members memberDirectory, memberships membershipStore, tx membershipTx) *MembershipService {
	return &MembershipService{
		members:     members,
		memberships: memberships,
		tx:          tx,
		now:         time.Now,
	}
}

func (s *MembershipService) today() time.Time {
	year, month, day := s.now().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ResolvePlan returns the type and day count for a grant. A preset name
// without days uses the preset length.
func ResolvePlan(membershipType string, days int) (string, int, error) {
	membershipType = strings.TrimSpace(membershipType)
	if membershipType == "" {
		return "", 0, invalid("type", "membership type is required")
	}
	if days == 0 {
		preset, ok := MembershipPresets[membershipType]
		if !ok {
			return "", 0, invalid("days", "days is required for custom memberships")
		}
		days = preset
	}
	if days < 1 || days > maxMembershipDays {
		return "", 0, invalid("days", "days must be between 1 and 3650")
	}
	return membershipType, days, nil
}

// Grant adds days of membership. An active membership that has not ended is
// extended from its end date and flagged extended; otherwise the new period
// starts today.
func (s *MembershipService) Grant(ctx context.Context, userID uuid.UUID, membershipType string, days int) (*models.Membership, error) {
	membershipType, days, err := ResolvePlan(membershipType, days)
	if err != nil {
		return nil, err
	}
	if _, err := s.members.GetByID(ctx, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	today := s.today()
	var granted *models.Membership
	err = s.tx.InTx(ctx, func(store membershipStore) error {
		start := today

		active, err := store.FindActive(ctx, userID, today)
		switch {
		case err == nil:
			start = active.EndDate
			if err := store.MarkExtended(ctx, active.ID); err != nil {
				return fmt.Errorf("mark membership extended: %w", err)
			}
		case !errors.Is(err, pgx.ErrNoRows):
			return fmt.Errorf("find active membership: %w", err)
		}

		granted, err = store.Create(ctx, repository.CreateMembershipInput{
			UserID:    userID,
			Type:      membershipType,
			StartDate: start,
			EndDate:   start.AddDate(0, 0, days),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("membership_granted", "user_id", userID, "type", membershipType, "days", days, "end_date", granted.EndDate.Format(time.DateOnly))
	return granted, nil
}

// Revoke cancels every active membership of the user as of today.
func (s *MembershipService) Revoke(ctx context.Context, userID uuid.UUID) (int64, error) {
	cancelled, err := s.memberships.CancelActive(ctx, userID, s.today())
	if err != nil {
		return 0, err
	}
	slog.Info("membership_revoked", "user_id", userID, "cancelled", cancelled)
	return cancelled, nil
}

// ListUsers returns matching profiles, newest first, with their memberships.
func (s *MembershipService) ListUsers(ctx context.Context, search string) ([]models.UserWithMemberships, error) {
	profiles, err := s.members.Search(ctx, search)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(profiles))
	for i, profile := range profiles {
		ids[i] = profile.ID
	}
	memberships, err := s.memberships.ListByUsers(ctx, ids)
	if err != nil {
		return nil, err
	}

	byUser := make(map[uuid.UUID][]models.Membership, len(profiles))
	for _, membership := range memberships {
		byUser[membership.UserID] = append(byUser[membership.UserID], membership)
	}

	users := make([]models.UserWithMemberships, 0, len(profiles))
	for _, profile := range profiles {
		user := models.UserWithMemberships{
			Profile:     profile,
			Memberships: byUser[profile.ID],
		}
		if user.Memberships == nil {
			user.Memberships = []models.Membership{}
		}
		user.ActiveMembership = activeMembership(user.Memberships)
		users = append(users, user)
	}
	return users, nil
}

// Mine lists the user's own memberships with the active one.
func (s *MembershipService) Mine(ctx context.Context, userID uuid.UUID) (*models.UserWithMemberships, error) {
	profile, err := s.members.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	memberships, err := s.memberships.ListByUsers(ctx, []uuid.UUID{userID})
	if err != nil {
		return nil, err
	}
	return &models.UserWithMemberships{
		Profile:          *profile,
		Memberships:      memberships,
		ActiveMembership: activeMembership(memberships),
	}, nil
}

func activeMembership(memberships []models.Membership) *models.Membership {
	for i := range memberships {
		if memberships[i].Status == models.MembershipActive {
			active := memberships[i]
			return &active
		}
	}
	return nil
}
