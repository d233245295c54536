package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/wdv96wdv/Doclimb/internal/models"
	"github.com/wdv96wdv/Doclimb/internal/repository"
	"github.com/wdv96wdv/Doclimb/internal/session"
)

type stubProfileEditor struct {
	profile   *models.Profile
	taken     map[string]bool
	lastPatch repository.UpdateProfileInput
}

func (s *stubProfileEditor) GetByID(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	if s.profile == nil || s.profile.ID != id {
		return nil, pgx.ErrNoRows
	}
	copied := *s.profile
	return &copied, nil
}

func (s *stubProfileEditor) NicknameTaken(_ context.Context, nickname string, exclude *uuid.UUID) (bool, error) {
	if exclude == nil || *exclude != s.profile.ID {
		return false, errors.New("expected own id to be excluded")
	}
	return s.taken[strings.ToLower(nickname)], nil
}

func (s *stubProfileEditor) UpdatePartial(_ context.Context, _ uuid.UUID, input repository.UpdateProfileInput) (*models.Profile, error) {
	s.lastPatch = input
	if input.Name != nil {
		s.profile.Name = *input.Name
	}
	if input.DisplayNickname != nil {
		s.profile.DisplayNickname = *input.DisplayNickname
	}
	if input.AvatarURL != nil {
		s.profile.AvatarURL = input.AvatarURL
	}
	copied := *s.profile
	return &copied, nil
}

func strPtr(value string) *string {
	return &value
}

func TestProfileUpdateValidatesAndPublishes(t *testing.T) {
	userID := uuid.New()
	store := &stubProfileEditor{
		profile: &models.Profile{ID: userID, Name: "Kim", DisplayNickname: "crimper", Role: models.RoleUser},
		taken:   map[string]bool{"dyno": true},
	}
	publisher := &recordingPublisher{}
	service := NewProfileService(store, nil, publisher)

	if _, err := service.Update(context.Background(), userID, UpdateProfileInput{Name: strPtr("  ")}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected empty name to fail, got %v", err)
	}
	if _, err := service.Update(context.Background(), userID, UpdateProfileInput{DisplayNickname: strPtr("Dyno")}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected taken nickname to conflict, got %v", err)
	}
	if _, err := service.Update(context.Background(), userID, UpdateProfileInput{ClimbingLevel: strPtr("PRO")}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected unknown level to fail, got %v", err)
	}
	if len(publisher.events) != 0 {
		t.Fatalf("expected no events for rejected updates")
	}

	profile, err := service.Update(context.Background(), userID, UpdateProfileInput{
		Name:            strPtr(" 김클라 "),
		DisplayNickname: strPtr("heelhook"),
		ClimbingStyle:   []string{models.StyleLead},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if profile.Name != "김클라" || profile.DisplayNickname != "heelhook" || profile.Role != models.RoleUser {
		t.Fatalf("unexpected profile %+v", profile)
	}
	if store.lastPatch.ClimbingStyle == nil || len(*store.lastPatch.ClimbingStyle) != 1 {
		t.Fatalf("expected styles in patch, got %+v", store.lastPatch)
	}
	if len(publisher.events) != 1 || publisher.events[0].Kind != session.EventProfileUpdated {
		t.Fatalf("expected profile-updated event, got %+v", publisher.events)
	}
}

func TestProfileUploadAvatarReplacesOldOne(t *testing.T) {
	userID := uuid.New()
	old := "https://cdn.example.com/" + userID.String() + "/old.png"
	store := &stubProfileEditor{profile: &models.Profile{ID: userID, AvatarURL: &old}}
	storage := &stubStorage{}
	service := NewProfileService(store, storage, &recordingPublisher{})

	if _, err := service.UploadAvatar(context.Background(), userID, strings.NewReader("x"), "a.gif", 10); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected gif avatar to be rejected, got %v", err)
	}
	if _, err := service.UploadAvatar(context.Background(), userID, strings.NewReader("x"), "a.png", MaxAvatarBytes+1); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected oversized avatar to be rejected, got %v", err)
	}

	profile, err := service.UploadAvatar(context.Background(), userID, strings.NewReader("x"), "me.webp", 1024)
	if err != nil {
		t.Fatalf("UploadAvatar: %v", err)
	}
	if profile.AvatarURL == nil || !strings.HasPrefix(*profile.AvatarURL, "https://cdn.example.com/"+userID.String()+"/") {
		t.Fatalf("expected avatar under the user's folder, got %v", profile.AvatarURL)
	}
	if len(storage.deleted) != 1 || storage.deleted[0] != old {
		t.Fatalf("expected old avatar removed, got %v", storage.deleted)
	}

	noStorage := NewProfileService(store, nil, nil)
	if _, err := noStorage.UploadAvatar(context.Background(), userID, strings.NewReader("x"), "a.png", 1); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}
