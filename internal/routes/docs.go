package routes

import (
	"bufio"
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/wdv96wdv/Doclimb/docs"
	"github.com/wdv96wdv/Doclimb/internal/config"
)

var docsIndex = template.Must(template.New("docs").Parse(`<!doctype html>
<html lang="ko">
<head><meta charset="utf-8"><title>DoClimb API</title></head>
<body style="font-family: sans-serif; max-width: 48rem; margin: 2rem auto">
  <h1>DoClimb API</h1>
  <p><a href="/docs/openapi.yaml">openapi.yaml</a></p>
  <ul>{{ range . }}<li><code>{{ . }}</code></li>{{ end }}</ul>
</body>
</html>
`))

// openAPIPaths lists the path keys of the document in order.
func openAPIPaths(document []byte) []string {
	var paths []string
	inPaths := false
	scanner := bufio.NewScanner(bytes.NewReader(document))
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "paths:":
			inPaths = true
		case inPaths && line != "" && !strings.HasPrefix(line, " "):
			return paths
		case inPaths && strings.HasPrefix(line, "  /") && strings.HasSuffix(line, ":"):
			paths = append(paths, strings.TrimSuffix(strings.TrimSpace(line), ":"))
		}
	}
	return paths
}

func registerDocsRoutes(app fiber.Router, cfg *config.Config) error {
	if !cfg.DocsEnabled() {
		return nil
	}
	if len(docs.OpenAPI) == 0 {
		return fmt.Errorf("load openapi document: embedded file is empty")
	}

	var page bytes.Buffer
	if err := docsIndex.Execute(&page, openAPIPaths(docs.OpenAPI)); err != nil {
		return fmt.Errorf("render docs page: %w", err)
	}

	index := func(c *fiber.Ctx) error {
		noStore(c, fiber.MIMETextHTMLCharsetUTF8)
		c.Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'")
		return c.Send(page.Bytes())
	}
	app.Get("/docs", index)
	app.Get("/docs/", index)
	app.Get("/docs/openapi.yaml", func(c *fiber.Ctx) error {
		noStore(c, "application/yaml; charset=utf-8")
		c.Set("Content-Security-Policy", "default-src 'none'")
		return c.Send(docs.OpenAPI)
	})
	return nil
}

func noStore(c *fiber.Ctx, contentType string) {
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "no-store")
	c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
}
