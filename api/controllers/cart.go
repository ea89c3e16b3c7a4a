package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/avolkov/bookstore-storefront/api/middleware"
	"github.com/avolkov/bookstore-storefront/api/responses"
	"github.com/avolkov/bookstore-storefront/api/validators"
	"github.com/avolkov/bookstore-storefront/internal/cart"
	pkgerrors "github.com/avolkov/bookstore-storefront/pkg/errors"
	"github.com/avolkov/bookstore-storefront/pkg/logger"
)

type addCartItemPayload struct {
	ItemID int64 `json:"item_id" validate:"required,gt=0"`
}

type setCartQuantityPayload struct {
	Quantity int `json:"quantity" validate:"gte=0,lte=1000"`
}

// CartGet returns the session's cart with its aggregates.
func CartGet(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID, ok := requireCartSession(ctx, svc, logg, w)
		if !ok {
			return
		}

		snap, err := svc.Get(ctx, sessionID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, snap)
	}
}

// CartAdd puts one unit of an item in the cart.
func CartAdd(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID, ok := requireCartSession(ctx, svc, logg, w)
		if !ok {
			return
		}

		var payload addCartItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		snap, err := svc.Add(ctx, sessionID, payload.ItemID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, snap)
	}
}

// CartRemove deletes one line. An item identifier of zero clears the cart.
func CartRemove(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID, ok := requireCartSession(ctx, svc, logg, w)
		if !ok {
			return
		}

		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		snap, err := svc.Remove(ctx, sessionID, itemID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, snap)
	}
}

// CartSetQuantity overwrites a line's quantity; zero deletes the line.
func CartSetQuantity(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID, ok := requireCartSession(ctx, svc, logg, w)
		if !ok {
			return
		}

		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload setCartQuantityPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		snap, err := svc.SetQuantity(ctx, sessionID, itemID, payload.Quantity)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, snap)
	}
}

func requireCartSession(ctx context.Context, svc cart.Service, logg *logger.Logger, w http.ResponseWriter) (string, bool) {
	if svc == nil {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
		return "", false
	}
	sessionID := middleware.SessionIDFromContext(ctx)
	if sessionID == "" {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session"))
		return "", false
	}
	return sessionID, true
}

func parseItemID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "itemId"))
	if raw == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	itemID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || itemID < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "item id must be a non-negative integer")
	}
	return itemID, nil
}
