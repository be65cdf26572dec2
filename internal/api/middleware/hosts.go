package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/phrazzld/service-scaffold/internal/api/shared"
)

// AllowedHosts rejects requests whose Host header matches none of patterns
// with 400 Bad Request.
func AllowedHosts(patterns []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := hostWithoutPort(r.Host)
			if !HostAllowed(host, patterns) {
				slog.WarnContext(r.Context(), "request for disallowed host",
					slog.String("host", r.Host))
				shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid HTTP_HOST header")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// HostAllowed matches host against patterns. "*" matches anything, a pattern
// starting with "." matches the domain and every subdomain, anything else
// must match exactly. Matching ignores case.
func HostAllowed(host string, patterns []string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" {
		return false
	}
	for _, p := range patterns {
		p = strings.ToLower(p)
		switch {
		case p == "*":
			return true
		case strings.HasPrefix(p, "."):
			if host == p[1:] || strings.HasSuffix(host, p) {
				return true
			}
		case host == p:
			return true
		}
	}
	return false
}

func hostWithoutPort(hostport string) string {
	if host, _, err := net.SplitHostPort(hostport); err == nil {
		return strings.Trim(host, "[]")
	}
	return strings.Trim(hostport, "[]")
}
