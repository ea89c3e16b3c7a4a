package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/avolkov/bookstore-storefront/api/middleware"
	"github.com/avolkov/bookstore-storefront/api/responses"
	"github.com/avolkov/bookstore-storefront/internal/favorites"
	pkgerrors "github.com/avolkov/bookstore-storefront/pkg/errors"
	"github.com/avolkov/bookstore-storefront/pkg/logger"
)

// FavoritesList returns the confirmed favorites set plus the identifiers
// still awaiting a mutation response.
func FavoritesList(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "favorites service unavailable"))
			return
		}

		view, err := svc.List(ctx, middleware.UserTokenFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// FavoritesToggle flips one item's membership in the user's favorites set.
// An unauthenticated caller is told to sign in before any upstream call is
// made.
func FavoritesToggle(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "favorites service unavailable"))
			return
		}

		raw := strings.TrimSpace(chi.URLParam(r, "itemId"))
		itemID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || itemID <= 0 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item id must be a positive integer"))
			return
		}

		view, err := svc.Toggle(ctx, middleware.UserTokenFromContext(ctx), itemID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
