package controllers

import (
	"net/http"
	"strings"

	"github.com/avolkov/bookstore-storefront/api/middleware"
	"github.com/avolkov/bookstore-storefront/api/responses"
	"github.com/avolkov/bookstore-storefront/api/validators"
	"github.com/avolkov/bookstore-storefront/internal/catalog"
	pkgerrors "github.com/avolkov/bookstore-storefront/pkg/errors"
	"github.com/avolkov/bookstore-storefront/pkg/logger"
)

const (
	maxSearchLen  = 200
	maxPriceCents = 10_000_000
)

// CatalogBrowse renders the visible item list for the session's filter state.
// Category rides as a required query parameter; q and the price band are
// optional. Prices are integer cents.
func CatalogBrowse(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		sessionID := middleware.SessionIDFromContext(ctx)
		if sessionID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session"))
			return
		}

		category := strings.TrimSpace(r.URL.Query().Get("category"))
		if category == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "category is required"))
			return
		}

		priceFrom, err := validators.ParseQueryInt(r, "priceFrom", 0, 0, maxPriceCents)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		priceTo, err := validators.ParseQueryInt(r, "priceTo", 0, 0, maxPriceCents)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if priceFrom > 0 && priceTo < priceFrom {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "priceTo must not be below priceFrom"))
			return
		}

		view, err := svc.Browse(ctx, sessionID, catalog.Query{
			Category: category,
			Search:   validators.SanitizeString(r.URL.Query().Get("q"), maxSearchLen),
			Band:     catalog.PriceBand{MinCents: priceFrom, MaxCents: priceTo},
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}
