package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/service-scaffold/internal/config"
	"github.com/phrazzld/service-scaffold/internal/correlation"
	"github.com/phrazzld/service-scaffold/internal/platform/logger"
)

// maxInboundIDLength caps correlation ids accepted from clients.
const maxInboundIDLength = 128

// Correlation reuses the inbound correlation id or generates a new one,
// stores it in the request context and echoes it on the response.
// It should run first so every later log line carries the id.
func Correlation(cfg config.CorrelationConfig) func(http.Handler) http.Handler {
	header := cfg.Header
	if header == "" {
		header = config.CorrelationHeader
	}
	respHeader := cfg.ResponseHeader
	if respHeader == "" {
		respHeader = config.CorrelationResponseHeader
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(header))
			if len(id) > maxInboundIDLength {
				id = ""
			}
			if id == "" && cfg.Generate {
				id = correlation.NewID()
			}
			if id == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := correlation.NewContext(r.Context(), id)
			w.Header().Set(respHeader, id)

			logger.FromContext(ctx).DebugContext(ctx, "request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
