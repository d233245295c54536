package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/wdv96wdv/Doclimb/internal/models"
	"github.com/wdv96wdv/Doclimb/internal/repository"
	"github.com/wdv96wdv/Doclimb/internal/session"
)

const MaxAvatarBytes = 5 << 20

var allowedAvatarExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
}

type profileStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	NicknameTaken(ctx context.Context, nickname string, exclude *uuid.UUID) (bool, error)
	UpdatePartial(ctx context.Context, id uuid.UUID, input repository.UpdateProfileInput) (*models.Profile, error)
}

type ProfileService struct {
	profiles profileStore
	avatars  StorageService
	events   eventPublisher
}

func NewProfileService(profiles profileStore, avatars StorageService, events eventPublisher) *ProfileService {
	return &ProfileService{profiles: profiles, avatars: avatars, events: events}
}

type UpdateProfileInput struct {
	Name            *string  `json:"name"`
	DisplayNickname *string  `json:"display_nickname"`
	ClimbingLevel   *string  `json:"climbing_level"`
	PreferredGym    *string  `json:"preferred_gym"`
	ClimbingStyle   []string `json:"climbing_style"`
}

func (s *ProfileService) Get(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return profile, err
}

func (s *ProfileService) Update(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*models.Profile, error) {
	patch := repository.UpdateProfileInput{}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, invalid("name", "name is required")
		}
		patch.Name = &name
	}
	if input.DisplayNickname != nil {
		nickname := strings.TrimSpace(*input.DisplayNickname)
		if err := validateNickname(nickname); err != nil {
			return nil, err
		}
		taken, err := s.profiles.NicknameTaken(ctx, nickname, &userID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, fmt.Errorf("nickname %q: %w", nickname, ErrConflict)
		}
		patch.DisplayNickname = &nickname
	}
	if input.ClimbingLevel != nil {
		if err := validateLevel(input.ClimbingLevel); err != nil {
			return nil, err
		}
		patch.ClimbingLevel = input.ClimbingLevel
	}
	if input.PreferredGym != nil {
		gym := strings.TrimSpace(*input.PreferredGym)
		patch.PreferredGym = &gym
	}
	if input.ClimbingStyle != nil {
		if err := validateStyles(input.ClimbingStyle); err != nil {
			return nil, err
		}
		styles := input.ClimbingStyle
		patch.ClimbingStyle = &styles
	}

	profile, err := s.profiles.UpdatePartial(ctx, userID, patch)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}

	s.publish(userID)
	return profile, nil
}

// UploadAvatar stores a new avatar under the user's folder and swaps it in.
func (s *ProfileService) UploadAvatar(ctx context.Context, userID uuid.UUID, file io.Reader, filename string, size int64) (*models.Profile, error) {
	if s.avatars == nil {
		return nil, ErrStorageUnavailable
	}
	if _, ok := allowedAvatarExtensions[strings.ToLower(filepath.Ext(filename))]; !ok {
		return nil, invalid("avatar", "only jpg, jpeg, png and webp files are allowed")
	}
	if size > MaxAvatarBytes {
		return nil, invalid("avatar", "avatar must be 5MB or smaller")
	}

	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	url, err := s.avatars.UploadFile(ctx, file, buildObjectName(filename), userID.String())
	if err != nil {
		return nil, fmt.Errorf("upload avatar: %w", err)
	}

	profile, err := s.profiles.UpdatePartial(ctx, userID, repository.UpdateProfileInput{AvatarURL: &url})
	if err != nil {
		if cleanupErr := s.avatars.DeleteFile(ctx, url); cleanupErr != nil {
			err = errors.Join(err, cleanupErr)
		}
		return nil, err
	}

	if current.AvatarURL != nil && *current.AvatarURL != "" && *current.AvatarURL != url {
		if err := s.avatars.DeleteFile(ctx, *current.AvatarURL); err != nil {
			slog.Warn("avatar_cleanup_failed", "error", err, "user_id", userID)
		}
	}

	s.publish(userID)
	return profile, nil
}

func (s *ProfileService) publish(userID uuid.UUID) {
	if s.events != nil {
		s.events.Publish(session.Event{Kind: session.EventProfileUpdated, UserID: userID})
	}
}
