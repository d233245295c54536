package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/wdv96wdv/Doclimb/internal/models"
)

type stubStorage struct {
	uploads   []string
	deleted   []string
	uploadErr error
}

func (s *stubStorage) UploadFile(_ context.Context, file io.Reader, filename string, folder string) (string, error) {
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	if _, err := io.ReadAll(file); err != nil {
		return "", err
	}
	url := "https://cdn.example.com/" + folder + "/" + filename
	s.uploads = append(s.uploads, url)
	return url, nil
}

func (s *stubStorage) DeleteFile(_ context.Context, fileURL string) error {
	s.deleted = append(s.deleted, fileURL)
	return nil
}

type stubPostStore struct {
	posts     map[int64]*models.Post
	nextID    int64
	createErr error
	listArgs  [2]int
}

func newStubPostStore() *stubPostStore {
	return &stubPostStore{posts: make(map[int64]*models.Post)}
}

func (s *stubPostStore) Create(_ context.Context, userID uuid.UUID, caption, imageURL string) (*models.Post, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.nextID++
	post := &models.Post{ID: s.nextID, UserID: userID, Caption: caption, ImageURL: imageURL}
	s.posts[post.ID] = post
	return post, nil
}

func (s *stubPostStore) GetByID(_ context.Context, id int64) (*models.Post, error) {
	if post, ok := s.posts[id]; ok {
		copied := *post
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (s *stubPostStore) List(_ context.Context, limit, offset int) ([]models.Post, int, error) {
	s.listArgs = [2]int{limit, offset}
	return []models.Post{}, 45, nil
}

func (s *stubPostStore) Update(_ context.Context, id int64, caption *string, imageURL *string) (*models.Post, error) {
	post, ok := s.posts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if caption != nil {
		post.Caption = *caption
	}
	if imageURL != nil {
		post.ImageURL = *imageURL
	}
	return post, nil
}

func (s *stubPostStore) Delete(_ context.Context, id int64) error {
	if _, ok := s.posts[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(s.posts, id)
	return nil
}

func upload(name string) *Upload {
	return &Upload{File: strings.NewReader("fake image"), Filename: name, Size: 10}
}

func TestPostCreateUploadsBeforeInsert(t *testing.T) {
	store := newStubPostStore()
	storage := &stubStorage{}
	service := NewPostService(store, storage)
	userID := uuid.New()

	post, err := service.Create(context.Background(), userID, " 첫 완등! ", upload("send.JPG"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if post.Caption != "첫 완등!" {
		t.Fatalf("expected trimmed caption, got %q", post.Caption)
	}
	if len(storage.uploads) != 1 || post.ImageURL != storage.uploads[0] {
		t.Fatalf("expected post to reference the upload, got %q / %v", post.ImageURL, storage.uploads)
	}
	if !strings.Contains(post.ImageURL, "/posts/"+userID.String()+"/") {
		t.Fatalf("expected upload under the user's folder, got %q", post.ImageURL)
	}
}

func TestPostCreateRemovesUploadWhenInsertFails(t *testing.T) {
	store := newStubPostStore()
	store.createErr = errors.New("insert failed")
	storage := &stubStorage{}
	service := NewPostService(store, storage)

	if _, err := service.Create(context.Background(), uuid.New(), "caption", upload("a.png")); err == nil {
		t.Fatalf("expected insert error")
	}
	if len(storage.deleted) != 1 || storage.deleted[0] != storage.uploads[0] {
		t.Fatalf("expected orphaned upload to be removed, got %v", storage.deleted)
	}
}

func TestPostCreateValidation(t *testing.T) {
	storage := &stubStorage{}
	service := NewPostService(newStubPostStore(), storage)

	if _, err := service.Create(context.Background(), uuid.New(), " ", upload("a.png")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected missing caption to fail, got %v", err)
	}
	if _, err := service.Create(context.Background(), uuid.New(), "caption", nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected missing image to fail, got %v", err)
	}
	if _, err := service.Create(context.Background(), uuid.New(), "caption", upload("script.exe")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected non-image to fail, got %v", err)
	}
	if len(storage.uploads) != 0 {
		t.Fatalf("expected no uploads for invalid input")
	}

	noStorage := NewPostService(newStubPostStore(), nil)
	if _, err := noStorage.Create(context.Background(), uuid.New(), "caption", upload("a.png")); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestPostUpdateAndDeleteAreOwnerOnly(t *testing.T) {
	store := newStubPostStore()
	storage := &stubStorage{}
	service := NewPostService(store, storage)
	owner, stranger := uuid.New(), uuid.New()

	post, err := service.Create(context.Background(), owner, "caption", upload("a.png"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	original := post.ImageURL

	caption := "edited"
	if _, err := service.Update(context.Background(), stranger, post.ID, &caption, nil); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	updated, err := service.Update(context.Background(), owner, post.ID, &caption, upload("b.webp"))
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Caption != "edited" || updated.ImageURL == original {
		t.Fatalf("unexpected update result %+v", updated)
	}
	if len(storage.deleted) != 1 || storage.deleted[0] != original {
		t.Fatalf("expected replaced image to be removed, got %v", storage.deleted)
	}

	if err := service.Delete(context.Background(), stranger, post.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden on delete, got %v", err)
	}
	if err := service.Delete(context.Background(), owner, post.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if last := storage.deleted[len(storage.deleted)-1]; last != updated.ImageURL {
		t.Fatalf("expected stored image to be removed on delete, got %q", last)
	}
	if _, err := service.Get(context.Background(), post.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestPostListClampsPaging(t *testing.T) {
	store := newStubPostStore()
	service := NewPostService(store, nil)

	page, err := service.List(context.Background(), 3, 500)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if store.listArgs != [2]int{MaxFeedLimit, 2 * MaxFeedLimit} {
		t.Fatalf("unexpected limit/offset %v", store.listArgs)
	}
	if page.Meta.Total != 45 || page.Meta.TotalPages != 1 {
		t.Fatalf("unexpected meta %+v", page.Meta)
	}
}
