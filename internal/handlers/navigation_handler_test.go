package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func registerNavigation(app *fiber.App) {
	handler := NewNavigationHandler()
	app.Get("/navigation/resolve", handler.Resolve)
	app.Get("/navigation/menu", handler.Menu)
}

func TestResolveSendsAnonymousViewerToLogin(t *testing.T) {
	app := fiber.New()
	registerNavigation(app)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/navigation/resolve?path=/records", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["path"] != "/login" || body["page"] != "login" {
		t.Fatalf("unexpected decision %v", body)
	}
}

func TestResolveSendsAdminToDashboard(t *testing.T) {
	app := newMemberApp(true)
	registerNavigation(app)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/navigation/resolve?path=/login", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	body := decodeBody(t, resp)
	if body["path"] != "/admin" || body["page"] != "admin" {
		t.Fatalf("unexpected decision %v", body)
	}
}

func TestResolveRequiresPath(t *testing.T) {
	app := fiber.New()
	registerNavigation(app)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/navigation/resolve", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestMenuForMember(t *testing.T) {
	app := newMemberApp(false)
	registerNavigation(app)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/navigation/menu", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	body := decodeBody(t, resp)
	bottom, ok := body["bottom"].([]any)
	if !ok || len(bottom) == 0 {
		t.Fatalf("expected bottom navigation for member, got %v", body)
	}
}
