package api

import (
	"net/http"

	"github.com/phrazzld/service-scaffold/internal/api/shared"
	"github.com/phrazzld/service-scaffold/internal/templates"
	"github.com/phrazzld/service-scaffold/internal/version"
)

// DocsHandler renders the Swagger UI page for the schema route.
type DocsHandler struct {
	templates *templates.Engine
	title     string
	schemaURL string
}

func (h *DocsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.templates.RenderResponse(w, r, http.StatusOK, "docs/swagger", map[string]any{
		"title":      h.title,
		"schema_url": h.schemaURL,
	})
}

// InfoHandler reports build metadata for project.
func InfoHandler(project string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithJSON(w, r, http.StatusOK, version.Get(project))
	})
}
