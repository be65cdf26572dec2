package schema

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/service-scaffold/internal/config"
)

func schemaConfig(debug bool, hosts ...string) *config.Config {
	return &config.Config{
		Debug:        debug,
		AllowedHosts: hosts,
		Schema: config.SchemaConfig{
			Title:               "acme API",
			Description:         "acme",
			Version:             "1.2.3",
			PostprocessingHooks: []string{"add_servers"},
		},
	}
}

func TestBuild(t *testing.T) {
	doc, err := Build(context.Background(), schemaConfig(false, "api.example.com", "*", ".example.org", "localhost:8000"))
	require.NoError(t, err)

	assert.Equal(t, "acme API", doc.Info.Title)
	assert.Equal(t, "acme", doc.Info.Description)
	assert.Equal(t, "1.2.3", doc.Info.Version)

	var urls []string
	for _, s := range doc.Servers {
		urls = append(urls, s.URL)
	}
	assert.Equal(t, []string{"https://api.example.com", "https://localhost:8000"}, urls)

	require.NotNil(t, doc.Paths.Value("/info/"))
	require.NotNil(t, doc.Paths.Value("/health/"))
	assert.NotNil(t, doc.Paths.Value("/admin/login/").Post.RequestBody)
	assert.Len(t, doc.Security, 1)
}

func TestAddServersDebugUsesHTTP(t *testing.T) {
	doc := &openapi3.T{}
	AddServers(doc, schemaConfig(true, "localhost"))
	require.Len(t, doc.Servers, 1)
	assert.Equal(t, "http://localhost", doc.Servers[0].URL)
}

func TestBuildUnknownHook(t *testing.T) {
	cfg := schemaConfig(false, "example.com")
	cfg.Schema.PostprocessingHooks = []string{"add_servers", "sort_tags"}
	_, err := Build(context.Background(), cfg)
	assert.ErrorContains(t, err, `"sort_tags"`)
}

func TestBuildWithoutHooks(t *testing.T) {
	cfg := schemaConfig(false, "example.com")
	cfg.Schema.PostprocessingHooks = nil
	doc, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	assert.Empty(t, doc.Servers)
}

func TestHandler(t *testing.T) {
	doc, err := Build(context.Background(), schemaConfig(false, "example.com"))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	Handler(doc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/schema/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.oai.openapi+json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, OpenAPIVersion, body["openapi"])
	assert.Equal(t, "acme API", body["info"].(map[string]any)["title"])
}
