package services

import (
	"context"
	"errors"
	"net/url"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/wdv96wdv/Doclimb/internal/models"
	"github.com/wdv96wdv/Doclimb/internal/repository"
)

type betaStore interface {
	Create(ctx context.Context, userID uuid.UUID, input repository.CreateBetaInput) (*models.Beta, error)
	GetByID(ctx context.Context, id int64) (*models.Beta, error)
	List(ctx context.Context) ([]models.Beta, error)
	Delete(ctx context.Context, id int64) error
	UpsertRating(ctx context.Context, betaID int64, userID uuid.UUID, difficulty string) (*models.RouteRating, error)
	RatingCounts(ctx context.Context, betaIDs []int64) (map[int64]map[string]int, error)
	UserRatings(ctx context.Context, betaIDs []int64, userID uuid.UUID) (map[int64]string, error)
}

type BetaService struct {
	betas betaStore
}

func NewBetaService(betas betaStore) *BetaService {
	return &BetaService{betas: betas}
}

type CreateBetaRequest struct {
	VideoURL    string  `json:"video_url"`
	GymName     string  `json:"gym_name"`
	ColorLevel  string  `json:"color_level"`
	Description *string `json:"description"`
}

// EmbedURL turns a share link into its embeddable form: the query is dropped
// and "/embed" is appended.
func EmbedURL(videoURL string) string {
	base, _, _ := strings.Cut(strings.TrimSpace(videoURL), "?")
	if base == "" {
		return ""
	}
	if strings.HasSuffix(base, "/") {
		return base + "embed"
	}
	return base + "/embed"
}

func (s *BetaService) Create(ctx context.Context, userID uuid.UUID, req CreateBetaRequest) (*models.Beta, error) {
	videoURL := strings.TrimSpace(req.VideoURL)
	if videoURL == "" {
		return nil, invalid("video_url", "video url is required")
	}
	parsed, err := url.Parse(videoURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, invalid("video_url", "video url must be an http(s) link")
	}
	gymName := strings.TrimSpace(req.GymName)
	if gymName == "" {
		return nil, invalid("gym_name", "gym name is required")
	}
	color := strings.TrimSpace(req.ColorLevel)
	if color == "" {
		color = models.DefaultColorLevel
	}

	beta, err := s.betas.Create(ctx, userID, repository.CreateBetaInput{
		VideoURL:    videoURL,
		GymName:     gymName,
		ColorLevel:  color,
		Description: trimOptional(req.Description),
	})
	if err != nil {
		return nil, err
	}
	beta.EmbedURL = EmbedURL(beta.VideoURL)
	beta.Ratings = models.NewRatingSummary()
	return beta, nil
}

// List returns every beta, newest first, with rating counts and the viewer's vote.
func (s *BetaService) List(ctx context.Context, viewer uuid.UUID) ([]models.Beta, error) {
	betas, err := s.betas.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.decorate(ctx, betas, viewer); err != nil {
		return nil, err
	}
	return betas, nil
}

func (s *BetaService) Get(ctx context.Context, id int64, viewer uuid.UUID) (*models.Beta, error) {
	beta, err := s.betas.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	betas := []models.Beta{*beta}
	if err := s.decorate(ctx, betas, viewer); err != nil {
		return nil, err
	}
	return &betas[0], nil
}

func (s *BetaService) decorate(ctx context.Context, betas []models.Beta, viewer uuid.UUID) error {
	ids := make([]int64, len(betas))
	for i := range betas {
		ids[i] = betas[i].ID
	}

	counts, err := s.betas.RatingCounts(ctx, ids)
	if err != nil {
		return err
	}
	var mine map[int64]string
	if viewer != uuid.Nil {
		if mine, err = s.betas.UserRatings(ctx, ids, viewer); err != nil {
			return err
		}
	}

	for i := range betas {
		beta := &betas[i]
		beta.EmbedURL = EmbedURL(beta.VideoURL)
		summary := models.NewRatingSummary()
		for difficulty, count := range counts[beta.ID] {
			summary.Counts[difficulty] = count
			summary.Total += count
		}
		if vote, ok := mine[beta.ID]; ok {
			summary.Mine = &vote
		}
		beta.Ratings = summary
	}
	return nil
}

// Rate records the user's perceived difficulty, replacing an earlier vote.
func (s *BetaService) Rate(ctx context.Context, betaID int64, userID uuid.UUID, difficulty string) (*models.Beta, error) {
	difficulty = strings.ToLower(strings.TrimSpace(difficulty))
	if !slices.Contains(models.PerceivedDifficulties, difficulty) {
		return nil, invalid("perceived_difficulty", "difficulty must be easy, moderate or hard")
	}
	if _, err := s.betas.GetByID(ctx, betaID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if _, err := s.betas.UpsertRating(ctx, betaID, userID, difficulty); err != nil {
		return nil, err
	}
	return s.Get(ctx, betaID, userID)
}

func (s *BetaService) Delete(ctx context.Context, userID uuid.UUID, id int64) error {
	beta, err := s.betas.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if beta.UserID != userID {
		return ErrForbidden
	}
	if err := s.betas.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
