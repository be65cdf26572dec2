package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/service-scaffold/internal/api/shared"
	"github.com/phrazzld/service-scaffold/internal/domain"
	"github.com/phrazzld/service-scaffold/internal/mocks"
	"github.com/phrazzld/service-scaffold/internal/service/auth"
	"github.com/phrazzld/service-scaffold/internal/store"
)

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestSessionRoundTrip(t *testing.T) {
	sessions, err := auth.NewSessionService("test-secret", time.Hour)
	require.NoError(t, err)

	user := &domain.User{ID: uuid.New(), Username: "admin", IsActive: true, IsStaff: true}
	users := &mocks.TestifyMockUserService{}
	users.On("GetUser", mock.Anything, user.ID).Return(user, nil)

	stack := func(h http.Handler) http.Handler {
		return Sessions(sessions, true)(Authentication(users)(h))
	}

	login := stack(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, StartSession(w, r, sessions, user.ID))
	}))
	rec := httptest.NewRecorder()
	login.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/login/", nil))

	cookie := findCookie(rec, SessionCookieName)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

	var seen *domain.User
	page := stack(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = shared.UserFromContext(r.Context())
		id, ok := SessionUserID(r)
		assert.True(t, ok)
		assert.Equal(t, user.ID, id)
	}))
	req := httptest.NewRequest(http.MethodGet, "/admin/", nil)
	req.AddCookie(cookie)
	page.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, seen)
	assert.Equal(t, "admin", seen.Username)
	users.AssertExpectations(t)
}

func TestSessionsInvalidCookieCleared(t *testing.T) {
	sessions := &mocks.MockSessionService{ValidateErr: auth.ErrExpiredToken}

	var hasSession bool
	h := Sessions(sessions, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasSession = SessionUserID(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "stale"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.False(t, hasSession)
	cleared := findCookie(rec, SessionCookieName)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)
}

func TestAuthenticationAnonymousCases(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name      string
		user      *domain.User
		err       error
		wantClear bool
	}{
		{"inactive user", &domain.User{ID: userID, IsActive: false}, nil, true},
		{"deleted user", nil, store.ErrUserNotFound, true},
		{"store failure", nil, errors.New("connection refused"), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			users := &mocks.TestifyMockUserService{}
			users.On("GetUser", mock.Anything, userID).Return(tc.user, tc.err)
			sessions := &mocks.MockSessionService{Claims: &auth.Claims{UserID: userID}}

			var seen *domain.User
			h := Sessions(sessions, false)(Authentication(users)(http.HandlerFunc(
				func(w http.ResponseWriter, r *http.Request) {
					seen = shared.UserFromContext(r.Context())
				})))

			req := httptest.NewRequest(http.MethodGet, "/admin/", nil)
			req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "token"})
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Nil(t, seen)
			assert.Equal(t, tc.wantClear, findCookie(rec, SessionCookieName) != nil)
		})
	}
}

func TestRequireStaff(t *testing.T) {
	h := RequireStaff("/admin/login/")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name string
		user *domain.User
		want int
	}{
		{"anonymous", nil, http.StatusFound},
		{"non-staff", &domain.User{IsActive: true}, http.StatusFound},
		{"staff", &domain.User{IsActive: true, IsStaff: true}, http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/users/?page=2", nil)
			if tc.user != nil {
				req = req.WithContext(shared.WithUser(req.Context(), tc.user))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.want, rec.Code)
			if tc.want == http.StatusFound {
				assert.Equal(t, "/admin/login/?next=%2Fadmin%2Fusers%2F%3Fpage%3D2", rec.Header().Get("Location"))
			}
		})
	}
}

func TestRequireAuthenticated(t *testing.T) {
	h := RequireAuthenticated(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/schema/", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"Authentication credentials were not provided."}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/schema/", nil)
	req = req.WithContext(shared.WithUser(req.Context(), &domain.User{IsActive: true}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
