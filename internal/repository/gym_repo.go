package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/wdv96wdv/Doclimb/internal/models"
)

type GymRepository struct {
	db DBTX
}

type GymSearchFilter struct {
	Query  string
	Status *int
	Limit  int
	Offset int
}

type CreateGymInput struct {
	Name        string
	Location    string
	Phone       *string
	Description *string
}

func NewGymRepository(db DBTX) *GymRepository {
	return &GymRepository{db: db}
}

const gymColumns = `id, name, location, phone, description, current_status, last_updated`

func scanGym(row scanner) (*models.Gym, error) {
	var gym models.Gym
	if err := row.Scan(
		&gym.ID,
		&gym.Name,
		&gym.Location,
		&gym.Phone,
		&gym.Description,
		&gym.CurrentStatus,
		&gym.LastUpdated,
	); err != nil {
		return nil, err
	}
	return &gym, nil
}

func (r *GymRepository) ListAll(ctx context.Context) ([]models.Gym, error) {
	rows, err := r.db.Query(ctx, `SELECT `+gymColumns+` FROM gyms ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	gyms := make([]models.Gym, 0)
	for rows.Next() {
		gym, err := scanGym(rows)
		if err != nil {
			return nil, err
		}
		gyms = append(gyms, *gym)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return gyms, nil
}

func (r *GymRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Gym, error) {
	return scanGym(r.db.QueryRow(ctx, `SELECT `+gymColumns+` FROM gyms WHERE id = $1`, id))
}

// Search filters by a name substring and exact status and returns one page with the exact total.
func (r *GymRepository) Search(ctx context.Context, filter GymSearchFilter) ([]models.Gym, int, error) {
	args := []any{}
	whereParts := []string{"TRUE"}

	if query := strings.TrimSpace(filter.Query); query != "" {
		args = append(args, "%"+escapeLike(query)+"%")
		whereParts = append(whereParts, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		whereParts = append(whereParts, fmt.Sprintf("current_status = $%d", len(args)))
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER()
		FROM gyms
		WHERE %s
		ORDER BY name ASC, id ASC
		LIMIT $%d OFFSET $%d
	`, gymColumns, strings.Join(whereParts, " AND "), len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	total := 0
	gyms := make([]models.Gym, 0)
	for rows.Next() {
		var gym models.Gym
		if err := rows.Scan(
			&gym.ID,
			&gym.Name,
			&gym.Location,
			&gym.Phone,
			&gym.Description,
			&gym.CurrentStatus,
			&gym.LastUpdated,
			&total,
		); err != nil {
			return nil, 0, err
		}
		gyms = append(gyms, gym)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return gyms, total, nil
}

func (r *GymRepository) Create(ctx context.Context, input CreateGymInput) (*models.Gym, error) {
	query := `
		INSERT INTO gyms (name, location, phone, description)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + gymColumns
	return scanGym(r.db.QueryRow(ctx, query, input.Name, input.Location, input.Phone, input.Description))
}

func (r *GymRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status int) (*models.Gym, error) {
	query := `
		UPDATE gyms
		SET current_status = $1, last_updated = NOW()
		WHERE id = $2
		RETURNING ` + gymColumns
	return scanGym(r.db.QueryRow(ctx, query, status, id))
}
