package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/wdv96wdv/Doclimb/internal/models"
)

type BetaRepository struct {
	db DBTX
}

type CreateBetaInput struct {
	VideoURL    string
	GymName     string
	ColorLevel  string
	Description *string
}

func NewBetaRepository(db DBTX) *BetaRepository {
	return &BetaRepository{db: db}
}

const betaSelect = `
	SELECT b.id, b.user_id, b.video_url, b.gym_name, b.color_level, b.description, b.created_at,
		pr.id, pr.display_nickname, pr.avatar_url
	FROM betas b
	JOIN profiles pr ON pr.id = b.user_id
`

func scanBeta(row scanner) (*models.Beta, error) {
	var beta models.Beta
	var author models.Author
	if err := row.Scan(
		&beta.ID,
		&beta.UserID,
		&beta.VideoURL,
		&beta.GymName,
		&beta.ColorLevel,
		&beta.Description,
		&beta.CreatedAt,
		&author.ID,
		&author.DisplayNickname,
		&author.AvatarURL,
	); err != nil {
		return nil, err
	}
	beta.Author = &author
	beta.Ratings = models.NewRatingSummary()
	return &beta, nil
}

func (r *BetaRepository) Create(ctx context.Context, userID uuid.UUID, input CreateBetaInput) (*models.Beta, error) {
	var id int64
	query := `
		INSERT INTO betas (user_id, video_url, gym_name, color_level, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	if err := r.db.QueryRow(ctx, query,
		userID,
		input.VideoURL,
		input.GymName,
		input.ColorLevel,
		input.Description,
	).Scan(&id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *BetaRepository) GetByID(ctx context.Context, id int64) (*models.Beta, error) {
	return scanBeta(r.db.QueryRow(ctx, betaSelect+` WHERE b.id = $1`, id))
}

func (r *BetaRepository) List(ctx context.Context) ([]models.Beta, error) {
	rows, err := r.db.Query(ctx, betaSelect+` ORDER BY b.created_at DESC, b.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	betas := make([]models.Beta, 0)
	for rows.Next() {
		beta, err := scanBeta(rows)
		if err != nil {
			return nil, err
		}
		betas = append(betas, *beta)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return betas, nil
}

func (r *BetaRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM betas WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// UpsertRating stores the user's vote, replacing any earlier vote on the same beta.
func (r *BetaRepository) UpsertRating(ctx context.Context, betaID int64, userID uuid.UUID, difficulty string) (*models.RouteRating, error) {
	query := `
		INSERT INTO route_ratings (beta_id, user_id, perceived_difficulty)
		VALUES ($1, $2, $3)
		ON CONFLICT (beta_id, user_id)
		DO UPDATE SET perceived_difficulty = EXCLUDED.perceived_difficulty, updated_at = NOW()
		RETURNING id, beta_id, user_id, perceived_difficulty, created_at, updated_at
	`
	var rating models.RouteRating
	err := r.db.QueryRow(ctx, query, betaID, userID, difficulty).Scan(
		&rating.ID,
		&rating.BetaID,
		&rating.UserID,
		&rating.PerceivedDifficulty,
		&rating.CreatedAt,
		&rating.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

// RatingCounts returns vote counts per difficulty keyed by beta id.
func (r *BetaRepository) RatingCounts(ctx context.Context, betaIDs []int64) (map[int64]map[string]int, error) {
	counts := make(map[int64]map[string]int, len(betaIDs))
	if len(betaIDs) == 0 {
		return counts, nil
	}

	query := `
		SELECT beta_id, perceived_difficulty, COUNT(*)
		FROM route_ratings
		WHERE beta_id = ANY($1)
		GROUP BY beta_id, perceived_difficulty
	`
	rows, err := r.db.Query(ctx, query, betaIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var betaID int64
		var difficulty string
		var count int
		if err := rows.Scan(&betaID, &difficulty, &count); err != nil {
			return nil, err
		}
		if counts[betaID] == nil {
			counts[betaID] = make(map[string]int)
		}
		counts[betaID][difficulty] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

// UserRatings returns the user's own vote keyed by beta id.
func (r *BetaRepository) UserRatings(ctx context.Context, betaIDs []int64, userID uuid.UUID) (map[int64]string, error) {
	ratings := make(map[int64]string, len(betaIDs))
	if len(betaIDs) == 0 {
		return ratings, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT beta_id, perceived_difficulty
		FROM route_ratings
		WHERE beta_id = ANY($1) AND user_id = $2
	`, betaIDs, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var betaID int64
		var difficulty string
		if err := rows.Scan(&betaID, &difficulty); err != nil {
			return nil, err
		}
		ratings[betaID] = difficulty
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ratings, nil
}
