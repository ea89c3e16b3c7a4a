package middleware

import (
	"net/http"
	"strings"

	"github.com/avolkov/bookstore-storefront/pkg/logger"
)

// BearerToken extracts an upstream bearer token into the request context when
// one is present. The token is opaque to the storefront; the item store is
// the authority on it, so nothing is rejected here. Operations that need a
// signed-in user enforce that themselves.
func BearerToken(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(r.Header.Get("Authorization"))
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithUserToken(r.Context(), token)
			if logg != nil {
				ctx = logg.WithField(ctx, "authenticated", true)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
