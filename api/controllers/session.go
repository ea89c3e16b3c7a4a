package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/avolkov/bookstore-storefront/api/responses"
	pkgauth "github.com/avolkov/bookstore-storefront/pkg/auth"
	"github.com/avolkov/bookstore-storefront/pkg/config"
	pkgerrors "github.com/avolkov/bookstore-storefront/pkg/errors"
	"github.com/avolkov/bookstore-storefront/pkg/logger"
)

type sessionResponse struct {
	Token     string    `json:"token"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionStart mints a storefront session token. Guests get one too; a
// session is what carries a cart, not a signed-in user.
func SessionStart(cfg config.SessionConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		sessionID := uuid.New()
		now := time.Now().UTC()

		token, err := pkgauth.MintSessionToken(cfg, now, pkgauth.SessionTokenPayload{SessionID: sessionID})
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint session token"))
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, sessionResponse{
			Token:     token,
			SessionID: sessionID.String(),
			ExpiresAt: now.Add(cfg.TTL()),
		})
	}
}
