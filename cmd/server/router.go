package main

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/service-scaffold/internal/api"
	"github.com/phrazzld/service-scaffold/internal/api/middleware"
)

// setupRouter builds the middleware chain and mounts the route table.
func (app *application) setupRouter() (http.Handler, error) {
	chain, err := middleware.Chain(app.config.Middleware, middleware.Deps{
		Config:   app.config,
		Sessions: app.sessions,
		Users:    app.users,
		Messages: app.messages,
		Logger:   app.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build middleware chain: %w", err)
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chain)

	api.Mount(r, api.Routes(api.Deps{
		Config:    app.config,
		Users:     app.users,
		Sessions:  app.sessions,
		Messages:  app.messages,
		Templates: app.templates,
		Schema:    app.schema,
		Health:    app.health,
		Logger:    app.logger,
	}))
	api.MountFiles(r, app.config)

	// Recoverer sits outside error tracking so a reported panic still
	// becomes a 500.
	return chimw.Recoverer(app.tracker.Wrap(r)), nil
}
