package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/phrazzld/service-scaffold/internal/config"
)

// CORS allows cross-origin API calls from the configured origins. An empty
// list allows none; go-chi/cors would read it as a wildcard.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", config.CorrelationHeader},
		ExposedHeaders:   []string{config.CorrelationResponseHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
