package routes

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/wdv96wdv/Doclimb/internal/config"
)

func TestRegisterDocsRoutesServesDocsPageAndOpenAPI(t *testing.T) {
	app := fiber.New()
	cfg := &config.Config{AppEnv: "development", EnableDocs: true}

	if err := registerDocsRoutes(app, cfg); err != nil {
		t.Fatalf("registerDocsRoutes: %v", err)
	}

	pageReq := httptest.NewRequest(http.MethodGet, "/docs", nil)
	pageResp, err := app.Test(pageReq)
	if err != nil {
		t.Fatalf("app.Test docs page: %v", err)
	}
	defer pageResp.Body.Close()

	if pageResp.StatusCode != http.StatusOK {
		t.Fatalf("expected docs page status 200, got %d", pageResp.StatusCode)
	}
	if got := pageResp.Header.Get("Content-Security-Policy"); !strings.Contains(got, "default-src 'none'") {
		t.Fatalf("expected restrictive CSP, got %q", got)
	}
	page, err := io.ReadAll(pageResp.Body)
	if err != nil {
		t.Fatalf("read docs page: %v", err)
	}
	if !strings.Contains(string(page), "<code>/api/v1/gyms</code>") {
		t.Fatalf("expected docs page to list gym routes")
	}

	openapiReq := httptest.NewRequest(http.MethodGet, "/docs/openapi.yaml", nil)
	openapiResp, err := app.Test(openapiReq)
	if err != nil {
		t.Fatalf("app.Test openapi: %v", err)
	}
	defer openapiResp.Body.Close()

	if openapiResp.StatusCode != http.StatusOK {
		t.Fatalf("expected openapi status 200, got %d", openapiResp.StatusCode)
	}
	if got := openapiResp.Header.Get(fiber.HeaderContentType); !strings.Contains(got, "application/yaml") {
		t.Fatalf("expected yaml content type, got %q", got)
	}
	body, err := io.ReadAll(openapiResp.Body)
	if err != nil {
		t.Fatalf("read openapi: %v", err)
	}
	if !strings.Contains(string(body), "/api/v1/gyms") {
		t.Fatalf("expected gym routes in openapi document")
	}
}

func TestOpenAPIPathsStopsAtNextSection(t *testing.T) {
	document := []byte("openapi: 3.0.3\npaths:\n  /health:\n    get: {}\n  /api/v1/gyms:\n    get: {}\ncomponents:\n  /not-a-path:\n")

	got := openAPIPaths(document)
	if len(got) != 2 || got[0] != "/health" || got[1] != "/api/v1/gyms" {
		t.Fatalf("unexpected paths %v", got)
	}
}

func TestRegisterDocsRoutesSkipsWhenDisabled(t *testing.T) {
	app := fiber.New()
	cfg := &config.Config{AppEnv: "production", EnableDocs: true}

	if err := registerDocsRoutes(app, cfg); err != nil {
		t.Fatalf("registerDocsRoutes: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/docs", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 when docs are not in development, got %d", resp.StatusCode)
	}
}
