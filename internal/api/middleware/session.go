package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/service-scaffold/internal/api/shared"
	"github.com/phrazzld/service-scaffold/internal/redact"
	"github.com/phrazzld/service-scaffold/internal/service/auth"
	"github.com/phrazzld/service-scaffold/internal/store"
)

// SessionCookieName is the cookie holding the signed session token.
const SessionCookieName = "sessionid"

type sessionKey struct{}

type sessionState struct {
	claims *auth.Claims
	secure bool
}

// Sessions reads the session cookie and stores the validated claims in the
// request context. Invalid or expired cookies are cleared.
func Sessions(sessions auth.SessionService, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := &sessionState{secure: secure}

			if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
				claims, err := sessions.Validate(r.Context(), c.Value)
				switch {
				case err == nil:
					state.claims = claims
				case errors.Is(err, auth.ErrExpiredToken), errors.Is(err, auth.ErrInvalidToken):
					slog.DebugContext(r.Context(), "discarding session cookie", "error", err)
					ClearSession(w, r)
				default:
					slog.ErrorContext(r.Context(), "failed to validate session", "error", redact.Error(err))
				}
			}

			ctx := context.WithValue(r.Context(), sessionKey{}, state)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionUserID returns the user id of the request's session, if any.
func SessionUserID(r *http.Request) (uuid.UUID, bool) {
	state, ok := r.Context().Value(sessionKey{}).(*sessionState)
	if !ok || state.claims == nil {
		return uuid.Nil, false
	}
	return state.claims.UserID, true
}

// StartSession issues a session for userID and sets the session cookie.
func StartSession(
	w http.ResponseWriter,
	r *http.Request,
	sessions auth.SessionService,
	userID uuid.UUID,
) error {
	token, expires, err := sessions.Issue(r.Context(), userID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secureCookies(r),
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ClearSession expires the session cookie.
func ClearSession(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secureCookies(r),
		SameSite: http.SameSiteLaxMode,
	})
}

func secureCookies(r *http.Request) bool {
	state, ok := r.Context().Value(sessionKey{}).(*sessionState)
	return ok && state.secure
}

// Authentication loads the session's user into the request context.
// Requests without a session, or whose user is gone or inactive, stay anonymous.
func Authentication(users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := SessionUserID(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetUser(r.Context(), userID)
			switch {
			case err == nil && user.IsActive:
				r = r.WithContext(shared.WithUser(r.Context(), user))
			case err == nil, errors.Is(err, store.ErrUserNotFound):
				slog.DebugContext(r.Context(), "session user unavailable", "user_id", userID)
				ClearSession(w, r)
			default:
				slog.ErrorContext(r.Context(), "failed to load session user",
					"user_id", userID,
					"error", redact.Error(err))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireStaff redirects anonymous and non-staff users to loginPath,
// preserving the requested path in the next parameter.
func RequireStaff(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !shared.UserFromContext(r.Context()).CanAccessAdmin() {
				target := loginPath + "?" + url.Values{"next": {r.URL.RequestURI()}}.Encode()
				http.Redirect(w, r, target, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuthenticated answers anonymous requests with 403 and the JSON error envelope.
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shared.UserFromContext(r.Context()) == nil {
			shared.RespondWithError(w, r, http.StatusForbidden,
				"Authentication credentials were not provided.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
