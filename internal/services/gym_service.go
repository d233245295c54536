package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/wdv96wdv/Doclimb/internal/gymlist"
	"github.com/wdv96wdv/Doclimb/internal/models"
	"github.com/wdv96wdv/Doclimb/internal/repository"
)

// GymUpdatesChannel is the Postgres NOTIFY channel fed by the gyms trigger.
const GymUpdatesChannel = "gym_updates"

type gymStore interface {
	ListAll(ctx context.Context) ([]models.Gym, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Gym, error)
	Search(ctx context.Context, filter repository.GymSearchFilter) ([]models.Gym, int, error)
	Create(ctx context.Context, input repository.CreateGymInput) (*models.Gym, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status int) (*models.Gym, error)
}

// GymBroadcaster pushes a changed gym to live viewers.
type GymBroadcaster interface {
	BroadcastGym(gym models.Gym)
}

type GymService struct {
	gyms        gymStore
	catalog     *gymlist.Catalog
	broadcaster GymBroadcaster
}

func NewGymService(gyms gymStore, catalog *gymlist.Catalog) *GymService {
	return &GymService{gyms: gyms, catalog: catalog}
}

// SetBroadcaster attaches the live channel. The hub depends on the service, so
// it is wired after construction.
func (s *GymService) SetBroadcaster(b GymBroadcaster) {
	s.broadcaster = b
}

func (s *GymService) Catalog() *gymlist.Catalog {
	return s.catalog
}

// Load fills the catalog from the store.
func (s *GymService) Load(ctx context.Context) error {
	gyms, err := s.gyms.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load gyms: %w", err)
	}
	s.catalog.Replace(gyms)
	slog.Info("gym_catalog_loaded", "count", len(gyms))
	return nil
}

// List serves the member board from the catalog.
func (s *GymService) List(filter gymlist.Filter, page int) gymlist.Page {
	return gymlist.Paginate(gymlist.Apply(s.catalog.Snapshot(), filter), page, gymlist.MemberPageSize)
}

func (s *GymService) Get(ctx context.Context, id uuid.UUID) (*models.Gym, error) {
	if gym, ok := s.catalog.Get(id); ok {
		return &gym, nil
	}
	gym, err := s.gyms.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return gym, nil
}

// AdminList filters by name in the store and returns an exact count.
func (s *GymService) AdminList(ctx context.Context, query string, status int, page int) (*gymlist.Page, error) {
	if page < 1 {
		page = 1
	}
	filter := repository.GymSearchFilter{
		Query:  strings.TrimSpace(query),
		Limit:  gymlist.AdminPageSize,
		Offset: (page - 1) * gymlist.AdminPageSize,
	}
	if status != gymlist.AnyStatus {
		filter.Status = &status
	}

	gyms, total, err := s.gyms.Search(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &gymlist.Page{
		Gyms:       gyms,
		Page:       page,
		PageSize:   gymlist.AdminPageSize,
		Total:      total,
		TotalPages: (total + gymlist.AdminPageSize - 1) / gymlist.AdminPageSize,
	}, nil
}

type CreateGymRequest struct {
	Name        string  `json:"name"`
	Location    string  `json:"location"`
	Phone       *string `json:"phone"`
	Description *string `json:"description"`
}

func (s *GymService) Create(ctx context.Context, req CreateGymRequest) (*models.Gym, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("name", "gym name is required")
	}
	location := strings.TrimSpace(req.Location)
	if location == "" {
		return nil, invalid("location", "location is required")
	}

	gym, err := s.gyms.Create(ctx, repository.CreateGymInput{
		Name:        name,
		Location:    location,
		Phone:       trimOptional(req.Phone),
		Description: trimOptional(req.Description),
	})
	if err != nil {
		return nil, err
	}
	s.ApplyUpdate(*gym)
	return gym, nil
}

func (s *GymService) UpdateStatus(ctx context.Context, id uuid.UUID, status int) (*models.Gym, error) {
	if !models.ValidGymStatus(status) {
		return nil, invalid("current_status", "status must be between 0 and 3")
	}
	gym, err := s.gyms.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.ApplyUpdate(*gym)
	return gym, nil
}

// ApplyUpdate patches the catalog and notifies live viewers.
func (s *GymService) ApplyUpdate(gym models.Gym) {
	s.catalog.Apply(gym)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastGym(gym)
	}
}

// HandleNotification decodes a gyms row sent over NOTIFY and applies it.
func (s *GymService) HandleNotification(payload string) {
	var gym models.Gym
	if err := json.Unmarshal([]byte(payload), &gym); err != nil {
		slog.Warn("gym_notification_invalid", "error", err)
		return
	}
	if gym.ID == uuid.Nil {
		slog.Warn("gym_notification_missing_id")
		return
	}
	s.ApplyUpdate(gym)
}
