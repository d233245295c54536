package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/wdv96wdv/Doclimb/internal/models"
)

const (
	DefaultFeedLimit = 20
	MaxFeedLimit     = 50
	MaxPostImage     = 10 << 20
	maxCaptionLength = 2000
)

type postStore interface {
	Create(ctx context.Context, userID uuid.UUID, caption, imageURL string) (*models.Post, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	List(ctx context.Context, limit, offset int) ([]models.Post, int, error)
	Update(ctx context.Context, id int64, caption *string, imageURL *string) (*models.Post, error)
	Delete(ctx context.Context, id int64) error
}

// Upload is an image attached to a request.
type Upload struct {
	File     io.Reader
	Filename string
	Size     int64
}

type PostService struct {
	posts   postStore
	storage StorageService
}

func NewPostService(posts postStore, storage StorageService) *PostService {
	return &PostService{posts: posts, storage: storage}
}

type PostPage struct {
	Posts []models.Post         `json:"posts"`
	Meta  models.PaginationMeta `json:"meta"`
}

func (s *PostService) List(ctx context.Context, page, limit int) (*PostPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultFeedLimit
	}
	if limit > MaxFeedLimit {
		limit = MaxFeedLimit
	}

	posts, total, err := s.posts.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	return &PostPage{
		Posts: posts,
		Meta:  models.NewPaginationMeta(page, limit, total),
	}, nil
}

func (s *PostService) Get(ctx context.Context, id int64) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return post, err
}

func validateImage(upload *Upload, field string) error {
	if !isAllowedImage(upload.Filename) {
		return invalid(field, "only image files are allowed")
	}
	if upload.Size > MaxPostImage {
		return invalid(field, "image must be 10MB or smaller")
	}
	return nil
}

func validateCaption(caption string) (string, error) {
	caption = strings.TrimSpace(caption)
	if caption == "" {
		return "", invalid("caption", "caption is required")
	}
	if len([]rune(caption)) > maxCaptionLength {
		return "", invalid("caption", "caption is too long")
	}
	return caption, nil
}

// Create uploads the image first and inserts the post only once it is stored.
func (s *PostService) Create(ctx context.Context, userID uuid.UUID, caption string, image *Upload) (*models.Post, error) {
	caption, err := validateCaption(caption)
	if err != nil {
		return nil, err
	}
	if image == nil {
		return nil, invalid("image", "image is required")
	}
	if err := validateImage(image, "image"); err != nil {
		return nil, err
	}
	if s.storage == nil {
		return nil, ErrStorageUnavailable
	}

	imageURL, err := s.storage.UploadFile(ctx, image.File, buildObjectName(image.Filename), "posts/"+userID.String())
	if err != nil {
		return nil, fmt.Errorf("upload post image: %w", err)
	}

	post, err := s.posts.Create(ctx, userID, caption, imageURL)
	if err != nil {
		if cleanupErr := s.storage.DeleteFile(ctx, imageURL); cleanupErr != nil {
			err = errors.Join(err, cleanupErr)
		}
		return nil, err
	}
	return post, nil
}

func (s *PostService) owned(ctx context.Context, userID uuid.UUID, id int64) (*models.Post, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, ErrForbidden
	}
	return post, nil
}

// Update changes the caption and/or the image. The replaced image is removed
// once the row points at the new one.
func (s *PostService) Update(ctx context.Context, userID uuid.UUID, id int64, caption *string, image *Upload) (*models.Post, error) {
	current, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	var newCaption *string
	if caption != nil && strings.TrimSpace(*caption) != "" {
		trimmed, err := validateCaption(*caption)
		if err != nil {
			return nil, err
		}
		newCaption = &trimmed
	}

	var newImage *string
	if image != nil {
		if err := validateImage(image, "image"); err != nil {
			return nil, err
		}
		if s.storage == nil {
			return nil, ErrStorageUnavailable
		}
		url, err := s.storage.UploadFile(ctx, image.File, buildObjectName(image.Filename), "posts/"+userID.String())
		if err != nil {
			return nil, fmt.Errorf("upload post image: %w", err)
		}
		newImage = &url
	}

	if newCaption == nil && newImage == nil {
		return current, nil
	}

	post, err := s.posts.Update(ctx, id, newCaption, newImage)
	if err != nil {
		if newImage != nil {
			if cleanupErr := s.storage.DeleteFile(ctx, *newImage); cleanupErr != nil {
				err = errors.Join(err, cleanupErr)
			}
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if newImage != nil && current.ImageURL != "" {
		s.removeMedia(ctx, current.ImageURL, id)
	}
	return post, nil
}

func (s *PostService) Delete(ctx context.Context, userID uuid.UUID, id int64) error {
	post, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if post.ImageURL != "" {
		s.removeMedia(ctx, post.ImageURL, id)
	}
	return nil
}

func (s *PostService) removeMedia(ctx context.Context, url string, postID int64) {
	if s.storage == nil {
		return
	}
	if err := s.storage.DeleteFile(ctx, url); err != nil {
		slog.Warn("post_media_cleanup_failed", "error", err, "post_id", postID)
	}
}
