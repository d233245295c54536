package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wdv96wdv/Doclimb/internal/models"
)

type MembershipRepository struct {
	db DBTX
}

type CreateMembershipInput struct {
	UserID    uuid.UUID
	Type      string
	StartDate time.Time
	EndDate   time.Time
}

func NewMembershipRepository(db DBTX) *MembershipRepository {
	return &MembershipRepository{db: db}
}

const membershipColumns = `id, user_id, type, start_date, end_date, status, created_at`

func scanMembership(row scanner) (*models.Membership, error) {
	var membership models.Membership
	if err := row.Scan(
		&membership.ID,
		&membership.UserID,
		&membership.Type,
		&membership.StartDate,
		&membership.EndDate,
		&membership.Status,
		&membership.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &membership, nil
}

// FindActive returns the active membership still valid on today, latest end date first.
func (r *MembershipRepository) FindActive(ctx context.Context, userID uuid.UUID, today time.Time) (*models.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE user_id = $1 AND status = 'active' AND end_date >= $2
		ORDER BY end_date DESC, id DESC
		LIMIT 1
		FOR UPDATE
	`
	return scanMembership(r.db.QueryRow(ctx, query, userID, today))
}

func (r *MembershipRepository) MarkExtended(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE memberships SET status = 'extended' WHERE id = $1`, id)
	return err
}

func (r *MembershipRepository) Create(ctx context.Context, input CreateMembershipInput) (*models.Membership, error) {
	query := `
		INSERT INTO memberships (user_id, type, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, 'active')
		RETURNING ` + membershipColumns
	return scanMembership(r.db.QueryRow(ctx, query, input.UserID, input.Type, input.StartDate, input.EndDate))
}

// CancelActive closes every active membership of the user on today.
func (r *MembershipRepository) CancelActive(ctx context.Context, userID uuid.UUID, today time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE memberships
		SET status = 'cancelled', end_date = $2
		WHERE user_id = $1 AND status = 'active'
	`, userID, today)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *MembershipRepository) ListByUsers(ctx context.Context, userIDs []uuid.UUID) ([]models.Membership, error) {
	if len(userIDs) == 0 {
		return []models.Membership{}, nil
	}

	ids := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		ids = append(ids, id.String())
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+membershipColumns+`
		FROM memberships
		WHERE user_id = ANY($1::uuid[])
		ORDER BY created_at DESC, id DESC
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	memberships := make([]models.Membership, 0)
	for rows.Next() {
		membership, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, *membership)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return memberships, nil
}
