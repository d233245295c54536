package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/wdv96wdv/Doclimb/internal/models"
)

type RecordRepository struct {
	db DBTX
}

type RecordInput struct {
	Date       time.Time
	Location   string
	ClimbType  string
	Difficulty string
	Success    bool
}

func NewRecordRepository(db DBTX) *RecordRepository {
	return &RecordRepository{db: db}
}

const recordColumns = `id, user_id, date, location, climb_type, difficulty, success, created_at`

func scanRecord(row scanner) (*models.Record, error) {
	var record models.Record
	if err := row.Scan(
		&record.ID,
		&record.UserID,
		&record.Date,
		&record.Location,
		&record.ClimbType,
		&record.Difficulty,
		&record.Success,
		&record.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &record, nil
}

func collectRecords(rows pgx.Rows) ([]models.Record, error) {
	defer rows.Close()

	records := make([]models.Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *RecordRepository) Create(ctx context.Context, userID uuid.UUID, input RecordInput) (*models.Record, error) {
	query := `
		INSERT INTO records (user_id, date, location, climb_type, difficulty, success)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + recordColumns
	return scanRecord(r.db.QueryRow(ctx, query,
		userID,
		input.Date,
		input.Location,
		input.ClimbType,
		input.Difficulty,
		input.Success,
	))
}

func (r *RecordRepository) GetByID(ctx context.Context, id int64) (*models.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE id = $1`
	return scanRecord(r.db.QueryRow(ctx, query, id))
}

func (r *RecordRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE user_id = $1 ORDER BY date DESC, id DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

func (r *RecordRepository) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]models.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE user_id = $1 ORDER BY date DESC, id DESC LIMIT $2`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

// ListBetween returns the user's records with from <= date < to.
func (r *RecordRepository) ListBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM records
		WHERE user_id = $1 AND date >= $2 AND date < $3
		ORDER BY date DESC, id DESC
	`
	rows, err := r.db.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

func (r *RecordRepository) Update(ctx context.Context, id int64, input RecordInput) (*models.Record, error) {
	query := `
		UPDATE records
		SET date = $1, location = $2, climb_type = $3, difficulty = $4, success = $5
		WHERE id = $6
		RETURNING ` + recordColumns
	return scanRecord(r.db.QueryRow(ctx, query,
		input.Date,
		input.Location,
		input.ClimbType,
		input.Difficulty,
		input.Success,
		id,
	))
}

func (r *RecordRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM records WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
