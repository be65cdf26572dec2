package middleware

import (
	"fmt"
	"net/http"

	"github.com/phrazzld/service-scaffold/internal/api/shared"
)

// CSRF rejects cross-origin unsafe requests. trustedOrigins are allowed
// through in addition to same-origin requests.
func CSRF(trustedOrigins []string) (func(http.Handler) http.Handler, error) {
	cop := http.NewCrossOriginProtection()
	for _, origin := range trustedOrigins {
		if origin == "*" {
			continue
		}
		if err := cop.AddTrustedOrigin(origin); err != nil {
			return nil, fmt.Errorf("trusted origin %q: %w", origin, err)
		}
	}
	cop.SetDenyHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithError(w, r, http.StatusForbidden, "CSRF verification failed")
	}))
	return cop.Handler, nil
}
