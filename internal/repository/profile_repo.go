package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/wdv96wdv/Doclimb/internal/models"
)

type ProfileRepository struct {
	db DBTX
}

type CreateProfileInput struct {
	ID              uuid.UUID
	Name            string
	DisplayNickname string
	Email           string
	Role            string
	ClimbingLevel   *string
	PreferredGym    *string
	ClimbingStyle   []string
	AvatarURL       *string
}

type UpdateProfileInput struct {
	Name            *string
	DisplayNickname *string
	ClimbingLevel   *string
	PreferredGym    *string
	ClimbingStyle   *[]string
	AvatarURL       *string
}

func NewProfileRepository(db DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `id, name, display_nickname, email, role, climbing_level, preferred_gym,
		climbing_style, avatar_url, created_at, updated_at`

func scanProfile(row scanner) (*models.Profile, error) {
	var profile models.Profile
	if err := row.Scan(
		&profile.ID,
		&profile.Name,
		&profile.DisplayNickname,
		&profile.Email,
		&profile.Role,
		&profile.ClimbingLevel,
		&profile.PreferredGym,
		&profile.ClimbingStyle,
		&profile.AvatarURL,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if profile.ClimbingStyle == nil {
		profile.ClimbingStyle = []string{}
	}
	return &profile, nil
}

func (r *ProfileRepository) Create(ctx context.Context, input CreateProfileInput) (*models.Profile, error) {
	role := input.Role
	if role == "" {
		role = models.RoleUser
	}
	styles := input.ClimbingStyle
	if styles == nil {
		styles = []string{}
	}

	query := `
		INSERT INTO profiles (id, name, display_nickname, email, role, climbing_level, preferred_gym, climbing_style, avatar_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + profileColumns
	return scanProfile(r.db.QueryRow(ctx, query,
		input.ID,
		input.Name,
		input.DisplayNickname,
		input.Email,
		role,
		input.ClimbingLevel,
		input.PreferredGym,
		styles,
		input.AvatarURL,
	))
}

func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	return scanProfile(r.db.QueryRow(ctx, query, id))
}

func (r *ProfileRepository) NicknameTaken(ctx context.Context, nickname string, exclude *uuid.UUID) (bool, error) {
	var taken bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM profiles
			WHERE lower(display_nickname) = lower($1)
			AND ($2::uuid IS NULL OR id <> $2)
		)
	`
	err := r.db.QueryRow(ctx, query, nickname, exclude).Scan(&taken)
	return taken, err
}

func (r *ProfileRepository) UpdatePartial(ctx context.Context, id uuid.UUID, input UpdateProfileInput) (*models.Profile, error) {
	query := `
		UPDATE profiles
		SET name = COALESCE($1, name),
			display_nickname = COALESCE($2, display_nickname),
			climbing_level = COALESCE($3, climbing_level),
			preferred_gym = COALESCE($4, preferred_gym),
			climbing_style = COALESCE($5, climbing_style),
			avatar_url = COALESCE($6, avatar_url),
			updated_at = NOW()
		WHERE id = $7
		RETURNING ` + profileColumns
	return scanProfile(r.db.QueryRow(ctx, query,
		input.Name,
		input.DisplayNickname,
		input.ClimbingLevel,
		input.PreferredGym,
		input.ClimbingStyle,
		input.AvatarURL,
		id,
	))
}

func (r *ProfileRepository) SetRole(ctx context.Context, id uuid.UUID, role string) error {
	_, err := r.db.Exec(ctx, `UPDATE profiles SET role = $1, updated_at = NOW() WHERE id = $2`, role, id)
	return err
}

// Search lists profiles newest first, optionally narrowed by a name or e-mail substring.
func (r *ProfileRepository) Search(ctx context.Context, term string) ([]models.Profile, error) {
	args := []any{}
	where := ""
	if term = strings.TrimSpace(term); term != "" {
		args = append(args, "%"+escapeLike(term)+"%")
		where = fmt.Sprintf("WHERE name ILIKE $%d OR email ILIKE $%d", len(args), len(args))
	}

	query := fmt.Sprintf(`SELECT %s FROM profiles %s ORDER BY created_at DESC, id`, profileColumns, where)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := make([]models.Profile, 0)
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *profile)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return profiles, nil
}

func escapeLike(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(term)
}
