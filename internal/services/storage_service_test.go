package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSupabaseUploadAndDelete(t *testing.T) {
	var uploadedPath, uploadedBody, deletedPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer service-key" || r.Header.Get("apikey") != "service-key" {
			t.Errorf("missing service credentials on %s %s", r.Method, r.URL.Path)
		}
		switch r.Method {
		case http.MethodPost:
			uploadedPath = r.URL.Path
			body, _ := io.ReadAll(r.Body)
			uploadedBody = string(body)
			if r.Header.Get("Content-Type") != "image/png" {
				t.Errorf("unexpected content type %q", r.Header.Get("Content-Type"))
			}
			_, _ = w.Write([]byte(`{"Key":"climbing/x"}`))
		case http.MethodDelete:
			deletedPath = r.URL.Path
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	defer server.Close()

	storage := NewSupabaseStorageService(server.URL+"/", "climbing", "service-key")

	url, err := storage.UploadFile(context.Background(), strings.NewReader("png-bytes"), "shot.png", "/posts/u1/")
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if uploadedPath != "/storage/v1/object/climbing/posts/u1/shot.png" || uploadedBody != "png-bytes" {
		t.Fatalf("unexpected upload %s %q", uploadedPath, uploadedBody)
	}
	if url != server.URL+"/storage/v1/object/public/climbing/posts/u1/shot.png" {
		t.Fatalf("unexpected public url %q", url)
	}

	if err := storage.DeleteFile(context.Background(), url); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if deletedPath != "/storage/v1/object/climbing/posts/u1/shot.png" {
		t.Fatalf("unexpected delete path %q", deletedPath)
	}

	if err := storage.DeleteFile(context.Background(), "https://elsewhere.example.com/storage/v1/object/public/avatars/a.png"); err == nil {
		t.Fatalf("expected url from another bucket to be rejected")
	}
}

func TestSupabaseUploadSurfacesStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"Duplicate"}`))
	}))
	defer server.Close()

	_, err := NewSupabaseStorageService(server.URL, "climbing", "k").UploadFile(context.Background(), strings.NewReader("x"), "a.png", "")
	if err == nil || !strings.Contains(err.Error(), "409") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestBuildObjectName(t *testing.T) {
	name := buildObjectName("My Send Photo.JPG")
	if !strings.HasSuffix(name, "-my-send-photo.jpg") {
		t.Fatalf("unexpected object name %q", name)
	}
	if got := buildObjectName("noext"); !strings.HasSuffix(got, "-noext.bin") {
		t.Fatalf("expected .bin fallback, got %q", got)
	}
	if buildObjectName("a.png") == buildObjectName("a.png") {
		t.Fatalf("expected unique names")
	}
}
