package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/avolkov/bookstore-storefront/api/middleware"
	"github.com/avolkov/bookstore-storefront/internal/catalog"
)

type testCatalogService struct {
	browseFn func(ctx context.Context, sessionID string, q catalog.Query) (catalog.View, error)
}

func (s *testCatalogService) Browse(ctx context.Context, sessionID string, q catalog.Query) (catalog.View, error) {
	if s.browseFn != nil {
		return s.browseFn(ctx, sessionID, q)
	}
	return catalog.View{}, nil
}

func TestCatalogBrowseSuccess(t *testing.T) {
	var gotQuery catalog.Query
	var gotSession string
	svc := &testCatalogService{
		browseFn: func(ctx context.Context, sessionID string, q catalog.Query) (catalog.View, error) {
			gotSession = sessionID
			gotQuery = q
			return catalog.View{
				Category: q.Category,
				Items:    []catalog.Item{{ID: 1, Title: "Anna Karenina", PriceCents: 1200}},
				Total:    1,
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog?category=fiction&q=tolstoy&priceFrom=40&priceTo=150", nil)
	req = req.WithContext(middleware.WithSessionID(req.Context(), "sess-1"))

	resp := httptest.NewRecorder()
	CatalogBrowse(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if gotSession != "sess-1" {
		t.Fatalf("unexpected session %q", gotSession)
	}
	if gotQuery.Category != "fiction" || gotQuery.Search != "tolstoy" {
		t.Fatalf("unexpected query %+v", gotQuery)
	}
	if gotQuery.Band.MinCents != 40 || gotQuery.Band.MaxCents != 150 {
		t.Fatalf("unexpected band %+v", gotQuery.Band)
	}

	var view catalog.View
	decodeData(t, resp, &view)
	if view.Total != 1 || len(view.Items) != 1 {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestCatalogBrowseMissingSession(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog?category=fiction", nil)
	resp := httptest.NewRecorder()
	CatalogBrowse(&testCatalogService{}, testLogger())(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCatalogBrowseMissingCategory(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil)
	req = req.WithContext(middleware.WithSessionID(req.Context(), "sess-1"))
	resp := httptest.NewRecorder()
	CatalogBrowse(&testCatalogService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if code := decodeErrorCode(t, resp); code != "VALIDATION_ERROR" {
		t.Fatalf("unexpected error code %q", code)
	}
}

func TestCatalogBrowseRejectsInvertedBand(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog?category=fiction&priceFrom=200&priceTo=100", nil)
	req = req.WithContext(middleware.WithSessionID(req.Context(), "sess-1"))
	resp := httptest.NewRecorder()
	CatalogBrowse(&testCatalogService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCatalogBrowseNonNumericPrice(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog?category=fiction&priceFrom=cheap", nil)
	req = req.WithContext(middleware.WithSessionID(req.Context(), "sess-1"))
	resp := httptest.NewRecorder()
	CatalogBrowse(&testCatalogService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
