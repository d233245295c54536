package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/wdv96wdv/Doclimb/internal/models"
)

type PostRepository struct {
	db DBTX
}

func NewPostRepository(db DBTX) *PostRepository {
	return &PostRepository{db: db}
}

const postSelect = `
	SELECT p.id, p.user_id, p.caption, p.image_url, p.created_at, p.updated_at,
		pr.id, pr.display_nickname, pr.avatar_url
	FROM community_posts p
	JOIN profiles pr ON pr.id = p.user_id
`

func scanPost(row scanner) (*models.Post, error) {
	var post models.Post
	var author models.Author
	if err := row.Scan(
		&post.ID,
		&post.UserID,
		&post.Caption,
		&post.ImageURL,
		&post.CreatedAt,
		&post.UpdatedAt,
		&author.ID,
		&author.DisplayNickname,
		&author.AvatarURL,
	); err != nil {
		return nil, err
	}
	post.Author = &author
	return &post, nil
}

func (r *PostRepository) Create(ctx context.Context, userID uuid.UUID, caption, imageURL string) (*models.Post, error) {
	var id int64
	query := `
		INSERT INTO community_posts (user_id, caption, image_url)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	if err := r.db.QueryRow(ctx, query, userID, caption, imageURL).Scan(&id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *PostRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	return scanPost(r.db.QueryRow(ctx, postSelect+` WHERE p.id = $1`, id))
}

// List returns one page of the feed, newest first, and the total post count.
func (r *PostRepository) List(ctx context.Context, limit, offset int) ([]models.Post, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM community_posts`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, postSelect+` ORDER BY p.created_at DESC, p.id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	posts := make([]models.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *PostRepository) Update(ctx context.Context, id int64, caption *string, imageURL *string) (*models.Post, error) {
	query := `
		UPDATE community_posts
		SET caption = COALESCE($1, caption),
			image_url = COALESCE($2, image_url),
			updated_at = NOW()
		WHERE id = $3
	`
	tag, err := r.db.Exec(ctx, query, caption, imageURL, id)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, pgx.ErrNoRows
	}
	return r.GetByID(ctx, id)
}

func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM community_posts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
