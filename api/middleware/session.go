package middleware

import (
	"net/http"
	"strings"

	"github.com/avolkov/bookstore-storefront/api/responses"
	pkgauth "github.com/avolkov/bookstore-storefront/pkg/auth"
	"github.com/avolkov/bookstore-storefront/pkg/config"
	pkgerrors "github.com/avolkov/bookstore-storefront/pkg/errors"
	"github.com/avolkov/bookstore-storefront/pkg/logger"
)

const sessionHeader = "X-Storefront-Session"

// Session validates the storefront-minted session token and seeds the request
// context with the session identifier. Carts, catalog views, and pending
// favorites all key off it.
func Session(cfg config.SessionConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(sessionHeader))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session token"))
				return
			}

			claims, err := pkgauth.ParseSessionToken(cfg, raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid session token"))
				return
			}

			sessionID := claims.SessionID.String()
			ctx := WithSessionID(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
