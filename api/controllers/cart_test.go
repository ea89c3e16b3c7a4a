package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/avolkov/bookstore-storefront/api/middleware"
	"github.com/avolkov/bookstore-storefront/internal/cart"
	pkgerrors "github.com/avolkov/bookstore-storefront/pkg/errors"
)

type testCartService struct {
	getFn    func(ctx context.Context, sessionID string) (cart.Snapshot, error)
	addFn    func(ctx context.Context, sessionID string, itemID int64) (cart.Snapshot, error)
	removeFn func(ctx context.Context, sessionID string, itemID int64) (cart.Snapshot, error)
	setQtyFn func(ctx context.Context, sessionID string, itemID int64, quantity int) (cart.Snapshot, error)
}

func (s *testCartService) Get(ctx context.Context, sessionID string) (cart.Snapshot, error) {
	if s.getFn != nil {
		return s.getFn(ctx, sessionID)
	}
	return cart.Snapshot{}, nil
}

func (s *testCartService) Add(ctx context.Context, sessionID string, itemID int64) (cart.Snapshot, error) {
	if s.addFn != nil {
		return s.addFn(ctx, sessionID, itemID)
	}
	return cart.Snapshot{}, nil
}

func (s *testCartService) Remove(ctx context.Context, sessionID string, itemID int64) (cart.Snapshot, error) {
	if s.removeFn != nil {
		return s.removeFn(ctx, sessionID, itemID)
	}
	return cart.Snapshot{}, nil
}

func (s *testCartService) SetQuantity(ctx context.Context, sessionID string, itemID int64, quantity int) (cart.Snapshot, error) {
	if s.setQtyFn != nil {
		return s.setQtyFn(ctx, sessionID, itemID, quantity)
	}
	return cart.Snapshot{}, nil
}

func (s *testCartService) Clear(ctx context.Context, sessionID string) error {
	return nil
}

func withSession(req *http.Request) *http.Request {
	return req.WithContext(middleware.WithSessionID(req.Context(), "sess-1"))
}

func TestCartAddSuccess(t *testing.T) {
	var gotItemID int64
	svc := &testCartService{
		addFn: func(ctx context.Context, sessionID string, itemID int64) (cart.Snapshot, error) {
			gotItemID = itemID
			return cart.Snapshot{
				Lines:           []cart.Line{{ItemID: itemID, Title: "Anna Karenina", UnitPriceCents: 1200, Quantity: 1}},
				TotalCount:      1,
				TotalPriceCents: 1200,
			}, nil
		},
	}

	req := withSession(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"item_id":1}`)))
	resp := httptest.NewRecorder()
	CartAdd(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if gotItemID != 1 {
		t.Fatalf("unexpected item id %d", gotItemID)
	}

	var snap cart.Snapshot
	decodeData(t, resp, &snap)
	if snap.TotalCount != 1 || snap.TotalPriceCents != 1200 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestCartAddRejectsMissingItemID(t *testing.T) {
	req := withSession(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{}`)))
	resp := httptest.NewRecorder()
	CartAdd(&testCartService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartAddMissingSession(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"item_id":1}`))
	resp := httptest.NewRecorder()
	CartAdd(&testCartService{}, testLogger())(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCartRemoveAllViaZeroID(t *testing.T) {
	var gotItemID int64 = -1
	svc := &testCartService{
		removeFn: func(ctx context.Context, sessionID string, itemID int64) (cart.Snapshot, error) {
			gotItemID = itemID
			return cart.Snapshot{Lines: []cart.Line{}}, nil
		},
	}

	req := withSession(httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/0", nil))
	req = addRouteParam(req, "itemId", "0")
	resp := httptest.NewRecorder()
	CartRemove(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if gotItemID != 0 {
		t.Fatalf("clear-all must pass the zero identifier through, got %d", gotItemID)
	}
}

func TestCartSetQuantity(t *testing.T) {
	var gotQuantity int
	svc := &testCartService{
		setQtyFn: func(ctx context.Context, sessionID string, itemID int64, quantity int) (cart.Snapshot, error) {
			gotQuantity = quantity
			return cart.Snapshot{}, nil
		},
	}

	req := withSession(httptest.NewRequest(http.MethodPut, "/api/v1/cart/items/1", strings.NewReader(`{"quantity":5}`)))
	req = addRouteParam(req, "itemId", "1")
	resp := httptest.NewRecorder()
	CartSetQuantity(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if gotQuantity != 5 {
		t.Fatalf("unexpected quantity %d", gotQuantity)
	}
}

func TestCartSetQuantityMissingLine(t *testing.T) {
	svc := &testCartService{
		setQtyFn: func(ctx context.Context, sessionID string, itemID int64, quantity int) (cart.Snapshot, error) {
			return cart.Snapshot{}, pkgerrors.New(pkgerrors.CodeNotFound, "item is not in the cart")
		},
	}

	req := withSession(httptest.NewRequest(http.MethodPut, "/api/v1/cart/items/99", strings.NewReader(`{"quantity":2}`)))
	req = addRouteParam(req, "itemId", "99")
	resp := httptest.NewRecorder()
	CartSetQuantity(svc, testLogger())(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
