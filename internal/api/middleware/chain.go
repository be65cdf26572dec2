package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/phrazzld/service-scaffold/internal/config"
	"github.com/phrazzld/service-scaffold/internal/domain"
	"github.com/phrazzld/service-scaffold/internal/service/auth"
)

// ErrUnknownMiddleware is returned by Chain for names it cannot resolve.
var ErrUnknownMiddleware = errors.New("unknown middleware")

// UserLookup resolves the user behind a session.
type UserLookup interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// Deps holds everything the named middleware may need.
type Deps struct {
	Config   *config.Config
	Sessions auth.SessionService
	Users    UserLookup
	Messages *MessageStore
	Logger   *slog.Logger
}

type factory func(d Deps) (func(http.Handler) http.Handler, error)

var factories = map[string]factory{
	"correlation": func(d Deps) (func(http.Handler) http.Handler, error) {
		return Correlation(d.Config.Correlation), nil
	},
	"security": func(Deps) (func(http.Handler) http.Handler, error) {
		return SecurityHeaders, nil
	},
	"sessions": func(d Deps) (func(http.Handler) http.Handler, error) {
		if d.Sessions == nil {
			return nil, errors.New("sessions middleware requires a session service")
		}
		return Sessions(d.Sessions, !d.Config.Debug), nil
	},
	"common": func(d Deps) (func(http.Handler) http.Handler, error) {
		return AllowedHosts(d.Config.AllowedHosts), nil
	},
	"csrf": func(d Deps) (func(http.Handler) http.Handler, error) {
		return CSRF(d.Config.CORS.AllowedOrigins)
	},
	"authentication": func(d Deps) (func(http.Handler) http.Handler, error) {
		if d.Users == nil {
			return nil, errors.New("authentication middleware requires a user lookup")
		}
		return Authentication(d.Users), nil
	},
	"messages": func(d Deps) (func(http.Handler) http.Handler, error) {
		if d.Messages == nil {
			return nil, errors.New("messages middleware requires a message store")
		}
		return d.Messages.Middleware, nil
	},
	"clickjacking": func(Deps) (func(http.Handler) http.Handler, error) {
		return FrameDeny, nil
	},
	"cors": func(d Deps) (func(http.Handler) http.Handler, error) {
		return CORS(d.Config.CORS.AllowedOrigins), nil
	},
}

// Names returns the middleware names Chain understands.
func Names() []string {
	out := make([]string, 0, len(factories))
	for _, n := range config.DefaultMiddleware {
		if _, ok := factories[n]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Chain resolves names into a single middleware. The first name is the
// outermost handler. Any unknown name fails the whole chain.
func Chain(names []string, d Deps) (func(http.Handler) http.Handler, error) {
	if d.Config == nil {
		return nil, errors.New("middleware chain requires a config")
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	resolved := make([]func(http.Handler) http.Handler, 0, len(names))
	for _, name := range names {
		f, ok := factories[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMiddleware, name)
		}
		mw, err := f(d)
		if err != nil {
			return nil, fmt.Errorf("middleware %q: %w", name, err)
		}
		resolved = append(resolved, mw)
	}

	d.Logger.Debug("middleware chain resolved", slog.Any("middleware", names))

	return func(next http.Handler) http.Handler {
		h := next
		for i := len(resolved) - 1; i >= 0; i-- {
			h = resolved[i](h)
		}
		return h
	}, nil
}
