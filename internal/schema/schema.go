// Package schema builds the OpenAPI document served at /schema/.
package schema

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/phrazzld/service-scaffold/internal/config"
)

// OpenAPIVersion is the specification version of generated documents.
const OpenAPIVersion = "3.0.3"

const sessionScheme = "cookieAuth"

// Hook post-processes a generated document.
type Hook func(doc *openapi3.T, cfg *config.Config)

var hooks = map[string]Hook{
	"add_servers": AddServers,
}

// Build generates the document for cfg and applies its post-processing hooks.
func Build(ctx context.Context, cfg *config.Config) (*openapi3.T, error) {
	doc := &openapi3.T{
		OpenAPI: OpenAPIVersion,
		Info: &openapi3.Info{
			Title:       cfg.Schema.Title,
			Description: cfg.Schema.Description,
			Version:     cfg.Schema.Version,
		},
		Paths: openapi3.NewPaths(
			openapi3.WithPath("/info/", &openapi3.PathItem{Get: infoOperation()}),
			openapi3.WithPath("/health/", &openapi3.PathItem{Get: healthOperation()}),
			openapi3.WithPath("/admin/login/", &openapi3.PathItem{Post: loginOperation()}),
			openapi3.WithPath("/admin/logout/", &openapi3.PathItem{Post: logoutOperation()}),
		),
		Components: &openapi3.Components{
			SecuritySchemes: openapi3.SecuritySchemes{
				sessionScheme: &openapi3.SecuritySchemeRef{Value: &openapi3.SecurityScheme{
					Type: "apiKey",
					In:   "cookie",
					Name: "sessionid",
				}},
			},
		},
		Security: *openapi3.NewSecurityRequirements().With(
			openapi3.NewSecurityRequirement().Authenticate(sessionScheme)),
	}

	for _, name := range cfg.Schema.PostprocessingHooks {
		hook, ok := hooks[name]
		if !ok {
			return nil, fmt.Errorf("unknown schema hook %q", name)
		}
		hook(doc, cfg)
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("generated schema is invalid: %w", err)
	}
	return doc, nil
}

// AddServers adds one server per concrete allowed host. Wildcards and
// domain patterns are skipped. Servers use https unless debug is on.
func AddServers(doc *openapi3.T, cfg *config.Config) {
	scheme := "https"
	if cfg.Debug {
		scheme = "http"
	}
	for _, host := range cfg.AllowedHosts {
		if host == "*" || strings.HasPrefix(host, ".") {
			continue
		}
		doc.AddServer(&openapi3.Server{URL: scheme + "://" + host})
	}
}

// Handler serves doc as JSON.
func Handler(doc *openapi3.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := doc.MarshalJSON()
		if err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.oai.openapi+json")
		_, _ = w.Write(body)
	})
}

func public() *openapi3.SecurityRequirements {
	return openapi3.NewSecurityRequirements()
}

func jsonResponse(description string, schema *openapi3.Schema) *openapi3.ResponseRef {
	return &openapi3.ResponseRef{Value: openapi3.NewResponse().
		WithDescription(description).
		WithJSONSchema(schema)}
}

func errorSchema() *openapi3.Schema {
	return openapi3.NewObjectSchema().
		WithProperty("error", openapi3.NewStringSchema()).
		WithProperty("cid", openapi3.NewStringSchema())
}

func infoOperation() *openapi3.Operation {
	info := openapi3.NewObjectSchema().
		WithProperty("name", openapi3.NewStringSchema()).
		WithProperty("version", openapi3.NewStringSchema()).
		WithProperty("commit", openapi3.NewStringSchema()).
		WithProperty("build_time", openapi3.NewStringSchema()).
		WithProperty("go_version", openapi3.NewStringSchema())

	return &openapi3.Operation{
		OperationID: "info_retrieve",
		Tags:        []string{"info"},
		Summary:     "Build and version information",
		Security:    public(),
		Responses: openapi3.NewResponses(
			openapi3.WithStatus(http.StatusOK, jsonResponse("Build information", info)),
		),
	}
}

func healthOperation() *openapi3.Operation {
	checks := openapi3.NewObjectSchema().
		WithAdditionalProperties(openapi3.NewStringSchema())

	format := openapi3.NewQueryParameter("format").
		WithDescription("Response format").
		WithSchema(openapi3.NewStringSchema().WithEnum("json"))

	return &openapi3.Operation{
		OperationID: "health_retrieve",
		Tags:        []string{"health"},
		Summary:     "Run the health checks",
		Security:    public(),
		Parameters:  openapi3.Parameters{{Value: format}},
		Responses: openapi3.NewResponses(
			openapi3.WithStatus(http.StatusOK, jsonResponse("Every check is working", checks)),
			openapi3.WithStatus(http.StatusInternalServerError, jsonResponse("At least one check failed", checks)),
		),
	}
}

func loginOperation() *openapi3.Operation {
	credentials := openapi3.NewObjectSchema().
		WithProperty("username", openapi3.NewStringSchema().WithMaxLength(150)).
		WithProperty("password", openapi3.NewStringSchema()).
		WithProperty("next", openapi3.NewStringSchema())
	credentials.Required = []string{"username", "password"}

	body := openapi3.NewRequestBody().
		WithRequired(true).
		WithJSONSchema(credentials)

	return &openapi3.Operation{
		OperationID: "admin_login",
		Tags:        []string{"admin"},
		Summary:     "Start an admin session",
		Security:    public(),
		RequestBody: &openapi3.RequestBodyRef{Value: body},
		Responses: openapi3.NewResponses(
			openapi3.WithStatus(http.StatusOK, jsonResponse("Session started; the session cookie is set",
				openapi3.NewObjectSchema().WithProperty("next", openapi3.NewStringSchema()))),
			openapi3.WithStatus(http.StatusUnauthorized, jsonResponse("Invalid credentials", errorSchema())),
		),
	}
}

func logoutOperation() *openapi3.Operation {
	return &openapi3.Operation{
		OperationID: "admin_logout",
		Tags:        []string{"admin"},
		Summary:     "End the admin session",
		Responses: openapi3.NewResponses(
			openapi3.WithStatus(http.StatusFound, &openapi3.ResponseRef{Value: openapi3.NewResponse().
				WithDescription("Redirect to the login page")}),
		),
	}
}
