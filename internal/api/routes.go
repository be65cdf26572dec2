package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"

	"github.com/phrazzld/service-scaffold/internal/api/middleware"
	"github.com/phrazzld/service-scaffold/internal/config"
	"github.com/phrazzld/service-scaffold/internal/health"
	"github.com/phrazzld/service-scaffold/internal/schema"
	"github.com/phrazzld/service-scaffold/internal/service"
	"github.com/phrazzld/service-scaffold/internal/service/auth"
	"github.com/phrazzld/service-scaffold/internal/templates"
)

// Route names used with Reverse.
const (
	RouteAdmin     = "admin"
	RouteSchema    = "schema"
	RouteSwaggerUI = "swagger-ui"
)

// ErrNoReverseMatch is returned by Reverse for unknown names.
var ErrNoReverseMatch = errors.New("no route with that name")

// Route binds a URL pattern to a handler. Name is empty for routes that are
// never reversed.
type Route struct {
	Pattern string
	Handler http.Handler
	Name    string
}

// Deps holds the services the route handlers use.
type Deps struct {
	Config    *config.Config
	Users     service.UserService
	Sessions  auth.SessionService
	Messages  *middleware.MessageStore
	Templates *templates.Engine
	Schema    *openapi3.T
	Health    *health.Registry
	Logger    *slog.Logger
}

// Routes returns the application's route table in mount order.
func Routes(d Deps) []Route {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Health == nil {
		d.Health = health.NewRegistry()
	}

	admin := NewAdminHandler(d)
	docs := &DocsHandler{templates: d.Templates, title: d.Config.Schema.Title}

	routes := []Route{
		{Pattern: "/admin/", Handler: admin.Router(), Name: RouteAdmin},
		{Pattern: "/schema/", Handler: middleware.RequireAuthenticated(schema.Handler(d.Schema)), Name: RouteSchema},
		{Pattern: "/docs/", Handler: middleware.RequireAuthenticated(docs), Name: RouteSwaggerUI},
		{Pattern: "/info/", Handler: InfoHandler(d.Config.ProjectName)},
		{Pattern: "/health/", Handler: health.Handler(d.Health)},
	}
	docs.schemaURL, _ = Reverse(routes, RouteSchema)
	return routes
}

// Mount registers every route on r. Handlers that are themselves routers are
// mounted below their pattern. A leaf pattern ending in a slash also answers
// its bare form with a permanent redirect to the slashed path.
func Mount(r chi.Router, routes []Route) {
	for _, rt := range routes {
		if _, ok := rt.Handler.(chi.Routes); ok {
			r.Mount(strings.TrimSuffix(rt.Pattern, "/"), rt.Handler)
			continue
		}
		r.Handle(rt.Pattern, rt.Handler)
		if bare := strings.TrimSuffix(rt.Pattern, "/"); bare != "" && bare != rt.Pattern {
			r.Handle(bare, appendSlash())
		}
	}
}

func appendSlash() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		target := url.URL{Path: r.URL.Path + "/", RawQuery: r.URL.RawQuery}
		http.Redirect(w, r, target.String(), http.StatusMovedPermanently)
	})
}

// Reverse returns the path of the route called name.
func Reverse(routes []Route, name string) (string, error) {
	if name != "" {
		for _, rt := range routes {
			if rt.Name == name {
				return rt.Pattern, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %q", ErrNoReverseMatch, name)
}
