package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/avolkov/bookstore-storefront/pkg/errors"
)

type stubFetcher struct {
	mu      sync.Mutex
	calls   []FetchRequest
	respond func(req FetchRequest) (Page, error)
}

func (s *stubFetcher) ListItems(ctx context.Context, req FetchRequest) (Page, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()
	return s.respond(req)
}

func (s *stubFetcher) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *stubFetcher) lastCall() FetchRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[len(s.calls)-1]
}

type memoryPageCache struct {
	mu    sync.Mutex
	pages map[string]Page
}

func newMemoryPageCache() *memoryPageCache {
	return &memoryPageCache{pages: map[string]Page{}}
}

func (m *memoryPageCache) GetPage(ctx context.Context, key string) (*Page, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	page, ok := m.pages[key]
	if !ok {
		return nil, false, nil
	}
	return &page, true, nil
}

func (m *memoryPageCache) SetPage(ctx context.Context, key string, page Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[key] = page
	return nil
}

func newTestService(t *testing.T, fetcher Fetcher, cache PageCache) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Fetcher:          fetcher,
		Cache:            cache,
		NewReleasesToken: "new-releases",
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestBrowseAppliesBandReFilter(t *testing.T) {
	page := Page{Items: []Item{
		{ID: 1, PriceCents: 100},
		{ID: 2, PriceCents: 200, DiscountCents: 50},
		{ID: 3, PriceCents: 300},
	}, Total: 3}
	fetcher := &stubFetcher{respond: func(FetchRequest) (Page, error) { return page, nil }}
	svc := newTestService(t, fetcher, nil)

	view, err := svc.Browse(context.Background(), "sess-1", Query{
		Category: "fiction",
		Band:     PriceBand{MinCents: 40, MaxCents: 150},
	})
	if err != nil {
		t.Fatalf("browse: %v", err)
	}

	if len(view.Items) != 2 {
		t.Fatalf("expected 2 visible items, got %d", len(view.Items))
	}
	if view.Items[0].ID != 1 || view.Items[1].ID != 2 {
		t.Fatalf("unexpected visible items: %+v", view.Items)
	}
	if view.MaxDiscountCents != 50 {
		t.Fatalf("expected derived max discount 50, got %d", view.MaxDiscountCents)
	}
}

func TestBrowseWithoutBandShowsRawPage(t *testing.T) {
	page := Page{Items: []Item{{ID: 1, PriceCents: 900}}, Total: 1}
	fetcher := &stubFetcher{respond: func(FetchRequest) (Page, error) { return page, nil }}
	svc := newTestService(t, fetcher, nil)

	view, err := svc.Browse(context.Background(), "sess-1", Query{Category: "fiction"})
	if err != nil {
		t.Fatalf("browse: %v", err)
	}
	if len(view.Items) != 1 {
		t.Fatalf("expected raw page, got %+v", view.Items)
	}
	if got := fetcher.lastCall(); got.PriceFromCents != 0 || got.PriceToCents != 0 {
		t.Fatalf("no band chosen must not send price bounds, got %+v", got)
	}
}

func TestBrowseWidensUpstreamBoundByPreviousPageDiscount(t *testing.T) {
	page := Page{Items: []Item{{ID: 2, PriceCents: 200, DiscountCents: 50}}, Total: 1}
	fetcher := &stubFetcher{respond: func(FetchRequest) (Page, error) { return page, nil }}
	svc := newTestService(t, fetcher, nil)

	q := Query{Category: "fiction", Band: PriceBand{MinCents: 40, MaxCents: 150}}

	if _, err := svc.Browse(context.Background(), "sess-1", q); err != nil {
		t.Fatalf("first browse: %v", err)
	}
	if got := fetcher.lastCall(); got.PriceToCents != 150 {
		t.Fatalf("first fetch should use the raw bound, got %d", got.PriceToCents)
	}

	if _, err := svc.Browse(context.Background(), "sess-1", q); err != nil {
		t.Fatalf("second browse: %v", err)
	}
	if got := fetcher.lastCall(); got.PriceToCents != 200 {
		t.Fatalf("second fetch should widen the bound by the observed discount, got %d", got.PriceToCents)
	}
}

func TestBrowseServesIdenticalKeysFromCache(t *testing.T) {
	page := Page{Items: []Item{{ID: 1, PriceCents: 100}}, Total: 1}
	fetcher := &stubFetcher{respond: func(FetchRequest) (Page, error) { return page, nil }}
	svc := newTestService(t, fetcher, newMemoryPageCache())

	q := Query{Category: "fiction"}
	if _, err := svc.Browse(context.Background(), "sess-1", q); err != nil {
		t.Fatalf("first browse: %v", err)
	}
	if _, err := svc.Browse(context.Background(), "sess-1", q); err != nil {
		t.Fatalf("second browse: %v", err)
	}

	if got := fetcher.callCount(); got != 1 {
		t.Fatalf("identical keys must not refetch, upstream saw %d calls", got)
	}
}

func TestBrowseNewReleasesPinsQuery(t *testing.T) {
	fetcher := &stubFetcher{respond: func(FetchRequest) (Page, error) { return Page{}, nil }}
	svc := newTestService(t, fetcher, nil)

	_, err := svc.Browse(context.Background(), "sess-1", Query{
		Category: "new-releases",
		Search:   "tolstoy",
		Band:     PriceBand{MinCents: 100, MaxCents: 200},
	})
	if err != nil {
		t.Fatalf("browse: %v", err)
	}

	got := fetcher.lastCall()
	if got.Search != "" || got.PriceFromCents != 0 || got.PriceToCents != 0 {
		t.Fatalf("new releases must suppress search and band upstream, got %+v", got)
	}
}

func TestBrowseFetchFailureIsDependencyError(t *testing.T) {
	fetcher := &stubFetcher{respond: func(FetchRequest) (Page, error) {
		return Page{}, errors.New("connection refused")
	}}
	svc := newTestService(t, fetcher, nil)

	_, err := svc.Browse(context.Background(), "sess-1", Query{Category: "fiction"})
	if err == nil {
		t.Fatal("expected error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestBrowseLastKeyWins(t *testing.T) {
	slowStarted := make(chan struct{})
	slowRelease := make(chan struct{})

	fetcher := &stubFetcher{respond: func(req FetchRequest) (Page, error) {
		switch req.Category {
		case "slow":
			close(slowStarted)
			<-slowRelease
			return Page{Items: []Item{{ID: 1, Title: "stale"}}, Total: 1}, nil
		default:
			return Page{Items: []Item{{ID: 2, Title: "fresh"}}, Total: 1}, nil
		}
	}}
	svc := newTestService(t, fetcher, nil)

	staleView := make(chan View, 1)
	go func() {
		view, err := svc.Browse(context.Background(), "sess-1", Query{Category: "slow"})
		if err != nil {
			t.Errorf("stale browse: %v", err)
		}
		staleView <- view
	}()

	<-slowStarted

	fresh, err := svc.Browse(context.Background(), "sess-1", Query{Category: "fast"})
	if err != nil {
		t.Fatalf("fresh browse: %v", err)
	}
	if len(fresh.Items) != 1 || fresh.Items[0].Title != "fresh" {
		t.Fatalf("unexpected fresh view: %+v", fresh.Items)
	}

	close(slowRelease)

	select {
	case view := <-staleView:
		if len(view.Items) != 1 || view.Items[0].Title != "fresh" {
			t.Fatalf("late completion must not overwrite the newer view, got %+v", view.Items)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stale browse never returned")
	}
}

func TestBrowseSupersededBeforeNewerCommitRendersEmptyView(t *testing.T) {
	historyStarted := make(chan struct{})
	historyRelease := make(chan struct{})
	poetryStarted := make(chan struct{})
	poetryRelease := make(chan struct{})

	fetcher := &stubFetcher{respond: func(req FetchRequest) (Page, error) {
		switch req.Category {
		case "history":
			close(historyStarted)
			<-historyRelease
			return Page{Items: []Item{{ID: 1, Title: "stale"}}, Total: 1}, nil
		default:
			close(poetryStarted)
			<-poetryRelease
			return Page{Items: []Item{{ID: 2, Title: "fresh"}}, Total: 1}, nil
		}
	}}
	svc := newTestService(t, fetcher, nil)

	firstView := make(chan View, 1)
	go func() {
		view, err := svc.Browse(context.Background(), "sess-1", Query{Category: "history"})
		if err != nil {
			t.Errorf("first browse: %v", err)
		}
		firstView <- view
	}()
	<-historyStarted

	secondView := make(chan View, 1)
	go func() {
		view, err := svc.Browse(context.Background(), "sess-1", Query{Category: "poetry"})
		if err != nil {
			t.Errorf("second browse: %v", err)
		}
		secondView <- view
	}()
	<-poetryStarted

	close(historyRelease)

	select {
	case view := <-firstView:
		if view.Items == nil {
			t.Fatal("superseded browse must render an empty list, not nil")
		}
		if len(view.Items) != 0 {
			t.Fatalf("superseded browse must not install its page, got %+v", view.Items)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first browse never returned")
	}

	close(poetryRelease)

	select {
	case view := <-secondView:
		if len(view.Items) != 1 || view.Items[0].Title != "fresh" {
			t.Fatalf("newest browse must install its page, got %+v", view.Items)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("second browse never returned")
	}
}

func TestBrowseRequiresSession(t *testing.T) {
	fetcher := &stubFetcher{respond: func(FetchRequest) (Page, error) { return Page{}, nil }}
	svc := newTestService(t, fetcher, nil)

	_, err := svc.Browse(context.Background(), "", Query{Category: "fiction"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
