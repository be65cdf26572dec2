package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/service-scaffold/internal/api/middleware"
	"github.com/phrazzld/service-scaffold/internal/domain"
	"github.com/phrazzld/service-scaffold/internal/service/auth"
	"github.com/phrazzld/service-scaffold/internal/version"
)

func TestAdminIndexRedirectsAnonymous(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, testHost+"/admin/", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/admin/login/?next=%2Fadmin%2F", rec.Header().Get("Location"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestAdminLoginPage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, testHost+"/admin/login/?next=/admin/users/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<title>Log in | acme</title>")
	assert.Contains(t, body, `name="next" value="/admin/users/"`)
	assert.Contains(t, body, "acme "+version.Version)

	t.Run("staff already logged in", func(t *testing.T) {
		cookie := env.sessionFor(t, staffUser())
		rec := env.do(httptest.NewRequest(http.MethodGet, testHost+"/admin/login/", nil), cookie)
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/admin/", rec.Header().Get("Location"))
	})
}

func TestAdminFormLoginFlow(t *testing.T) {
	env := newTestEnv(t)
	user := staffUser()
	env.users.On("Authenticate", mock.Anything, "admin", "s3cret-pass").Return(user, nil).Once()
	env.users.On("GetUser", mock.Anything, user.ID).Return(user, nil)
	env.users.On("ListUsers", mock.Anything).Return([]*domain.User{user}, nil)

	rec := env.do(formRequest("/admin/login/", url.Values{
		"username": {"admin"},
		"password": {"s3cret-pass"},
		"next":     {"/admin/users/"},
	}))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/admin/users/", rec.Header().Get("Location"))

	session := cookieNamed(rec, middleware.SessionCookieName)
	require.NotNil(t, session)
	assert.NotEmpty(t, session.Value)
	assert.True(t, session.HttpOnly)
	flash := cookieNamed(rec, middleware.MessagesCookieName)
	require.NotNil(t, flash)

	rec = env.do(httptest.NewRequest(http.MethodGet, testHost+"/admin/users/", nil), session, flash)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Welcome back, admin.")
	assert.Contains(t, body, "Welcome, <strong>admin</strong>")
	assert.Contains(t, body, "<td>admin@example.com</td>")

	rec = env.do(httptest.NewRequest(http.MethodGet, testHost+"/admin/", nil), session)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), version.Version)
	assert.NotContains(t, rec.Body.String(), "Welcome back", "flash messages are shown once")

	env.users.AssertExpectations(t)
}

func TestAdminFormLoginFailures(t *testing.T) {
	t.Run("bad credentials", func(t *testing.T) {
		env := newTestEnv(t)
		env.users.On("Authenticate", mock.Anything, "admin", "wrong").
			Return(nil, auth.ErrInvalidCredentials).Once()

		rec := env.do(formRequest("/admin/login/", url.Values{"username": {"admin"}, "password": {"wrong"}}))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Please enter the correct username and password")
		assert.Contains(t, rec.Body.String(), `value="admin"`)
		assert.Nil(t, cookieNamed(rec, middleware.SessionCookieName))
	})

	t.Run("non-staff account", func(t *testing.T) {
		env := newTestEnv(t)
		user := staffUser()
		user.IsStaff = false
		env.users.On("Authenticate", mock.Anything, "admin", "s3cret-pass").Return(user, nil).Once()

		rec := env.do(formRequest("/admin/login/", url.Values{"username": {"admin"}, "password": {"s3cret-pass"}}))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "for a staff account")
		assert.Nil(t, cookieNamed(rec, middleware.SessionCookieName))
	})

	t.Run("missing password", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(formRequest("/admin/login/", url.Values{"username": {"admin"}}))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid password: required field")
		env.users.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("store failure", func(t *testing.T) {
		env := newTestEnv(t)
		env.users.On("Authenticate", mock.Anything, "admin", "s3cret-pass").
			Return(nil, errors.New("connection reset")).Once()

		rec := env.do(formRequest("/admin/login/", url.Values{"username": {"admin"}, "password": {"s3cret-pass"}}))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "connection reset")
	})
}

func TestAdminLoginRejectsOffsiteNext(t *testing.T) {
	env := newTestEnv(t)
	env.users.On("Authenticate", mock.Anything, "admin", "s3cret-pass").Return(staffUser(), nil).Once()

	rec := env.do(formRequest("/admin/login/", url.Values{
		"username": {"admin"},
		"password": {"s3cret-pass"},
		"next":     {"https://evil.test/"},
	}))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/admin/", rec.Header().Get("Location"))
}

func TestAdminJSONLogin(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t)
		env.users.On("Authenticate", mock.Anything, "admin", "s3cret-pass").Return(staffUser(), nil).Once()

		rec := env.do(jsonRequest("/admin/login/", `{"username":"admin","password":"s3cret-pass"}`))
		require.Equal(t, http.StatusOK, rec.Code)
		var resp LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "/admin/", resp.Next)
		assert.NotNil(t, cookieNamed(rec, middleware.SessionCookieName))
	})

	t.Run("bad credentials", func(t *testing.T) {
		env := newTestEnv(t)
		env.users.On("Authenticate", mock.Anything, "admin", "wrong").
			Return(nil, auth.ErrInactiveUser).Once()

		rec := env.do(jsonRequest("/admin/login/", `{"username":"admin","password":"wrong"}`))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, loginFailed, resp["error"])
		assert.NotEmpty(t, resp["cid"])
	})

	t.Run("malformed body", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(jsonRequest("/admin/login/", `{"username":`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("validation", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(jsonRequest("/admin/login/", `{"username":"admin"}`))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid password: required field")
	})
}

func TestAdminCrossOriginPostRejected(t *testing.T) {
	env := newTestEnv(t)

	req := formRequest("/admin/login/", url.Values{"username": {"admin"}, "password": {"x"}})
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	rec := env.do(req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	env.users.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminLogout(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.sessionFor(t, staffUser())

	rec := env.do(httptest.NewRequest(http.MethodPost, testHost+"/admin/logout/", nil), cookie)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/admin/login/", rec.Header().Get("Location"))

	cleared := cookieNamed(rec, middleware.SessionCookieName)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)

	flash := cookieNamed(rec, middleware.MessagesCookieName)
	require.NotNil(t, flash)
	rec = env.do(httptest.NewRequest(http.MethodGet, testHost+"/admin/login/", nil), flash)
	assert.Contains(t, rec.Body.String(), "You have been logged out.")
}

func TestAdminIndexListFailure(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.sessionFor(t, staffUser())
	env.users.On("ListUsers", mock.Anything).Return(nil, errors.New("db down"))

	rec := env.do(httptest.NewRequest(http.MethodGet, testHost+"/admin/", nil), cookie)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
