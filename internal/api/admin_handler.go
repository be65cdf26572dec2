package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/phrazzld/service-scaffold/internal/api/middleware"
	"github.com/phrazzld/service-scaffold/internal/api/shared"
	"github.com/phrazzld/service-scaffold/internal/config"
	"github.com/phrazzld/service-scaffold/internal/domain"
	"github.com/phrazzld/service-scaffold/internal/service"
	"github.com/phrazzld/service-scaffold/internal/service/auth"
	"github.com/phrazzld/service-scaffold/internal/templates"
	"github.com/phrazzld/service-scaffold/internal/version"
)

const (
	adminLoginPath = "/admin/login/"
	loginFailed    = "Please enter the correct username and password for a staff account. " +
		"Note that both fields may be case-sensitive."
)

// AdminHandler serves the admin console.
type AdminHandler struct {
	cfg       *config.Config
	users     service.UserService
	sessions  auth.SessionService
	messages  *middleware.MessageStore
	templates *templates.Engine
	logger    *slog.Logger
}

// NewAdminHandler creates an AdminHandler from the route dependencies.
func NewAdminHandler(d Deps) *AdminHandler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{
		cfg:       d.Config,
		users:     d.Users,
		sessions:  d.Sessions,
		messages:  d.Messages,
		templates: d.Templates,
		logger:    logger.With("component", "admin"),
	}
}

// Router returns the admin routes, relative to the admin prefix.
func (h *AdminHandler) Router() chi.Router {
	r := chi.NewRouter()
	staff := middleware.RequireStaff(adminLoginPath)

	r.With(staff).Get("/", h.Index)
	r.Get("/login/", h.LoginPage)
	r.Post("/login/", h.Login)
	r.Post("/logout/", h.Logout)
	r.With(staff).Get("/users/", h.Users)
	return r
}

// page returns the values shared by every admin page.
func (h *AdminHandler) page(title string, extra map[string]any) map[string]any {
	data := map[string]any{
		"title":       title,
		"site_title":  h.cfg.ProjectName,
		"site_header": fmt.Sprintf("%s %s", h.cfg.ProjectName, version.Version),
		"index_title": h.cfg.ProjectName,
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}

// Index shows the site overview.
func (h *AdminHandler) Index(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	info := version.Get(h.cfg.ProjectName)
	h.templates.RenderResponse(w, r, http.StatusOK, "admin/index", h.page("Site administration", map[string]any{
		"user_count": len(users),
		"components": h.cfg.InstalledComponents,
		"middleware": h.cfg.Middleware,
		"version": map[string]any{
			"version": info.Version,
			"commit":  info.Commit,
		},
	}))
}

// LoginPage renders the login form. Staff who are already logged in go
// straight to their destination.
func (h *AdminHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	next := safeRedirect(r.URL.Query().Get("next"), h.cfg.LoginRedirectURL)
	if shared.UserFromContext(r.Context()).CanAccessAdmin() {
		http.Redirect(w, r, next, http.StatusFound)
		return
	}
	h.renderLogin(w, r, http.StatusOK, "", "", next)
}

func (h *AdminHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, errMsg, username, next string) {
	h.templates.RenderResponse(w, r, status, "admin/login", h.page("Log in", map[string]any{
		"error":    errMsg,
		"username": username,
		"next":     next,
	}))
}

// Login accepts credentials as a form or JSON. Only active staff may log in.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	isJSON := wantsJSON(r)

	var req LoginRequest
	if isJSON {
		if err := shared.DecodeJSON(w, r, &req); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			h.renderLogin(w, r, http.StatusBadRequest, "Invalid request format", "", "")
			return
		}
		req = LoginRequest{
			Username: r.PostFormValue("username"),
			Password: r.PostFormValue("password"),
			Next:     r.PostFormValue("next"),
		}
	}
	next := safeRedirect(req.Next, h.cfg.LoginRedirectURL)

	if err := shared.ValidateRequest(&req); err != nil {
		msg := SanitizeValidationError(err)
		if isJSON {
			shared.RespondWithError(w, r, http.StatusBadRequest, msg)
			return
		}
		h.renderLogin(w, r, http.StatusOK, msg, req.Username, next)
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err == nil && !user.CanAccessAdmin() {
		err = fmt.Errorf("%w: not a staff account", auth.ErrInvalidCredentials)
	}
	if err != nil {
		h.loginFailed(w, r, err, isJSON, req.Username, next)
		return
	}

	if err := middleware.StartSession(w, r, h.sessions, user.ID); err != nil {
		HandleAPIError(w, r, err, "Failed to start session")
		return
	}
	h.logger.InfoContext(r.Context(), "admin login", slog.String("user_id", user.ID.String()))

	if isJSON {
		shared.RespondWithJSON(w, r, http.StatusOK, LoginResponse{Next: next})
		return
	}
	h.messages.Add(w, r, shared.Message{
		Level: "success",
		Text:  fmt.Sprintf("Welcome back, %s.", user.Username),
	})
	http.Redirect(w, r, next, http.StatusFound)
}

func (h *AdminHandler) loginFailed(
	w http.ResponseWriter,
	r *http.Request,
	err error,
	isJSON bool,
	username, next string,
) {
	if !errors.Is(err, auth.ErrInvalidCredentials) && !errors.Is(err, auth.ErrInactiveUser) {
		HandleAPIError(w, r, err, "Failed to authenticate user")
		return
	}
	if isJSON {
		shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, loginFailed, err, shared.WithElevatedLogLevel())
		return
	}
	h.logger.WarnContext(r.Context(), "admin login failed", slog.String("reason", err.Error()))
	h.renderLogin(w, r, http.StatusOK, loginFailed, username, next)
}

// Logout ends the session and returns to the login page.
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearSession(w, r)
	h.messages.Add(w, r, shared.Message{Level: "info", Text: "You have been logged out."})
	http.Redirect(w, r, adminLoginPath, http.StatusFound)
}

// Users lists every account.
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	rows := make([]map[string]any, len(users))
	for i, u := range users {
		rows[i] = userRow(u)
	}
	h.templates.RenderResponse(w, r, http.StatusOK, "admin/users", h.page("Users", map[string]any{
		"users": rows,
	}))
}

func userRow(u *domain.User) map[string]any {
	return map[string]any{
		"username":     u.Username,
		"email":        u.Email,
		"is_active":    u.IsActive,
		"is_staff":     u.IsStaff,
		"is_superuser": u.IsSuperuser,
		"date_joined":  u.DateJoined,
		"last_login":   u.LastLogin,
	}
}
