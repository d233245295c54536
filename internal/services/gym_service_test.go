package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/wdv96wdv/Doclimb/internal/gymlist"
	"github.com/wdv96wdv/Doclimb/internal/models"
	"github.com/wdv96wdv/Doclimb/internal/repository"
)

type stubGymStore struct {
	gyms       []models.Gym
	lastSearch repository.GymSearchFilter
}

func (s *stubGymStore) ListAll(_ context.Context) ([]models.Gym, error) {
	return append([]models.Gym(nil), s.gyms...), nil
}

func (s *stubGymStore) GetByID(_ context.Context, id uuid.UUID) (*models.Gym, error) {
	for _, gym := range s.gyms {
		if gym.ID == id {
			return &gym, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *stubGymStore) Search(_ context.Context, filter repository.GymSearchFilter) ([]models.Gym, int, error) {
	s.lastSearch = filter
	return s.gyms[:1], 23, nil
}

func (s *stubGymStore) Create(_ context.Context, input repository.CreateGymInput) (*models.Gym, error) {
	gym := models.Gym{ID: uuid.New(), Name: input.Name, Location: input.Location, LastUpdated: time.Now()}
	s.gyms = append(s.gyms, gym)
	return &gym, nil
}

func (s *stubGymStore) UpdateStatus(_ context.Context, id uuid.UUID, status int) (*models.Gym, error) {
	for i := range s.gyms {
		if s.gyms[i].ID == id {
			s.gyms[i].CurrentStatus = status
			s.gyms[i].LastUpdated = time.Now()
			gym := s.gyms[i]
			return &gym, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type recordingBroadcaster struct {
	gyms []models.Gym
}

func (b *recordingBroadcaster) BroadcastGym(gym models.Gym) {
	b.gyms = append(b.gyms, gym)
}

func newGymFixture(t *testing.T) (*GymService, *stubGymStore, *recordingBroadcaster) {
	t.Helper()
	store := &stubGymStore{gyms: []models.Gym{
		{ID: uuid.New(), Name: "B gym", Location: "Seoul", CurrentStatus: models.StatusRelaxed},
		{ID: uuid.New(), Name: "A gym", Location: "Busan", CurrentStatus: models.StatusBusy},
	}}
	service := NewGymService(store, gymlist.NewCatalog())
	broadcaster := &recordingBroadcaster{}
	service.SetBroadcaster(broadcaster)
	if err := service.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return service, store, broadcaster
}

func TestGymUpdateStatusPatchesCatalogAndBroadcasts(t *testing.T) {
	service, store, broadcaster := newGymFixture(t)
	target := store.gyms[0].ID

	gym, err := service.UpdateStatus(context.Background(), target, models.StatusCrowded)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if gym.CurrentStatus != models.StatusCrowded {
		t.Fatalf("unexpected gym %+v", gym)
	}
	cached, _ := service.Catalog().Get(target)
	if cached.CurrentStatus != models.StatusCrowded {
		t.Fatalf("expected catalog to be patched, got %+v", cached)
	}
	if len(broadcaster.gyms) != 1 || broadcaster.gyms[0].ID != target {
		t.Fatalf("expected one broadcast, got %+v", broadcaster.gyms)
	}

	if _, err := service.UpdateStatus(context.Background(), target, 4); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid status to be rejected, got %v", err)
	}
	if _, err := service.UpdateStatus(context.Background(), uuid.New(), models.StatusBusy); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGymListFiltersCatalog(t *testing.T) {
	service, _, _ := newGymFixture(t)

	page := service.List(gymlist.Filter{Status: models.StatusBusy}, 1)
	if page.Total != 1 || page.Gyms[0].Name != "A gym" {
		t.Fatalf("unexpected page %+v", page)
	}
	if page.PageSize != gymlist.MemberPageSize {
		t.Fatalf("expected member page size, got %d", page.PageSize)
	}
}

func TestGymAdminListUsesStoreSearch(t *testing.T) {
	service, store, _ := newGymFixture(t)

	page, err := service.AdminList(context.Background(), " 강남 ", gymlist.AnyStatus, 3)
	if err != nil {
		t.Fatalf("AdminList: %v", err)
	}
	if store.lastSearch.Query != "강남" || store.lastSearch.Status != nil {
		t.Fatalf("unexpected search filter %+v", store.lastSearch)
	}
	if store.lastSearch.Limit != 10 || store.lastSearch.Offset != 20 {
		t.Fatalf("expected page size 10 offset 20, got %+v", store.lastSearch)
	}
	if page.Total != 23 || page.TotalPages != 3 {
		t.Fatalf("unexpected page meta %+v", page)
	}

	if _, err := service.AdminList(context.Background(), "", models.StatusBusy, 1); err != nil {
		t.Fatalf("AdminList status: %v", err)
	}
	if store.lastSearch.Status == nil || *store.lastSearch.Status != models.StatusBusy {
		t.Fatalf("expected status filter, got %+v", store.lastSearch)
	}
}

func TestGymCreateRequiresNameAndLocation(t *testing.T) {
	service, _, broadcaster := newGymFixture(t)

	if _, err := service.Create(context.Background(), CreateGymRequest{Location: "Seoul"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected missing name to fail, got %v", err)
	}
	if _, err := service.Create(context.Background(), CreateGymRequest{Name: "New"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected missing location to fail, got %v", err)
	}

	gym, err := service.Create(context.Background(), CreateGymRequest{Name: " New gym ", Location: " Incheon "})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if gym.Name != "New gym" || gym.CurrentStatus != models.StatusRelaxed {
		t.Fatalf("unexpected gym %+v", gym)
	}
	if service.Catalog().Len() != 3 || len(broadcaster.gyms) != 1 {
		t.Fatalf("expected new gym in catalog and broadcast")
	}
}

func TestGymHandleNotification(t *testing.T) {
	service, store, broadcaster := newGymFixture(t)
	target := store.gyms[1].ID

	service.HandleNotification(`{"id":"` + target.String() + `","name":"A gym","location":"Busan","current_status":0,"last_updated":"2024-05-01T10:00:00.123456+00:00"}`)

	cached, _ := service.Catalog().Get(target)
	if cached.CurrentStatus != models.StatusRelaxed {
		t.Fatalf("expected notification to patch catalog, got %+v", cached)
	}
	if len(broadcaster.gyms) != 1 {
		t.Fatalf("expected one broadcast, got %d", len(broadcaster.gyms))
	}

	service.HandleNotification(`not json`)
	service.HandleNotification(`{"name":"no id"}`)
	if len(broadcaster.gyms) != 1 {
		t.Fatalf("expected malformed payloads to be ignored")
	}
}
