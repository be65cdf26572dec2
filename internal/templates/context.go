package templates

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/service-scaffold/internal/api/shared"
)

// Processor contributes values to the context of every rendered page.
type Processor func(e *Engine, r *http.Request, ctx map[string]any)

var processorsByName = map[string]Processor{
	"debug":    debugProcessor,
	"request":  requestProcessor,
	"auth":     authProcessor,
	"messages": messagesProcessor,
}

func debugProcessor(e *Engine, _ *http.Request, ctx map[string]any) {
	ctx["debug"] = e.opts.Debug
}

func requestProcessor(_ *Engine, r *http.Request, ctx map[string]any) {
	ctx["request"] = map[string]any{
		"path":   r.URL.Path,
		"method": r.Method,
		"host":   r.Host,
	}
}

func authProcessor(_ *Engine, r *http.Request, ctx map[string]any) {
	user := shared.UserFromContext(r.Context())
	if user == nil {
		ctx["user"] = nil
		return
	}
	ctx["user"] = map[string]any{
		"username":     user.Username,
		"email":        user.Email,
		"is_staff":     user.IsStaff,
		"is_superuser": user.IsSuperuser,
	}
}

func messagesProcessor(_ *Engine, r *http.Request, ctx map[string]any) {
	msgs := shared.MessagesFromContext(r.Context())
	out := make([]map[string]string, len(msgs))
	for i, m := range msgs {
		out[i] = map[string]string{"level": m.Level, "text": m.Text}
	}
	ctx["messages"] = out
}

// Context builds the page context for r, then overlays data.
func (e *Engine) Context(r *http.Request, data map[string]any) map[string]any {
	ctx := make(map[string]any, len(data)+len(e.processors))
	for _, p := range e.processors {
		p(e, r, ctx)
	}
	for k, v := range data {
		ctx[k] = v
	}
	return ctx
}

// RenderResponse renders the named template as an HTML response.
func (e *Engine) RenderResponse(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	body, err := e.Render(name, e.Context(r, data))
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to render template",
			"template", name,
			"error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
