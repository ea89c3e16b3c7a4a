package catalog

import (
	"context"
	"sync"

	"github.com/avolkov/bookstore-storefront/pkg/errors"
	"github.com/avolkov/bookstore-storefront/pkg/logger"
	"github.com/avolkov/bookstore-storefront/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

// Page is one fetched result from the item store.
type Page struct {
	Items []Item `json:"items"`
	Total int    `json:"total"`
}

// FetchRequest carries the query parameters sent upstream. Zero price bounds
// mean no band was chosen.
type FetchRequest struct {
	Category       string
	Search         string
	PriceFromCents int
	PriceToCents   int
}

// Fetcher lists catalog items from the upstream item store.
type Fetcher interface {
	ListItems(ctx context.Context, req FetchRequest) (Page, error)
}

// View is the derived catalog state rendered for one session.
type View struct {
	Category         string `json:"category"`
	Search           string `json:"search,omitempty"`
	Items            []Item `json:"items"`
	Total            int    `json:"total"`
	MaxDiscountCents int    `json:"max_discount_cents"`
}

// Service derives the visible item list for a session's filter state.
type Service interface {
	Browse(ctx context.Context, sessionID string, q Query) (View, error)
}

// ServiceParams groups dependencies for the catalog service.
type ServiceParams struct {
	Fetcher          Fetcher
	Cache            PageCache
	Metrics          *metrics.UpstreamMetrics
	Logger           *logger.Logger
	NewReleasesToken string
}

type service struct {
	fetcher     Fetcher
	cache       PageCache
	metrics     *metrics.UpstreamMetrics
	logg        *logger.Logger
	newReleases string

	group singleflight.Group

	// sessions holds one viewState per session token for the process
	// lifetime; entries are never evicted, so cardinality is bounded by the
	// sessions minted within one deploy cycle.
	mu       sync.Mutex
	sessions map[string]*viewState
}

// viewState tracks the last rendered view per session. Sequence numbers
// enforce the last-key-wins rule: a fetch that completes after a newer one
// was issued must not overwrite the newer result.
type viewState struct {
	mu          sync.Mutex
	issued      uint64
	committed   uint64
	view        View
	maxDiscount int
}

// NewService builds a catalog service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Fetcher == nil {
		return nil, errors.New(errors.CodeValidation, "catalog fetcher is required")
	}
	return &service{
		fetcher:     params.Fetcher,
		cache:       params.Cache,
		metrics:     params.Metrics,
		logg:        params.Logger,
		newReleases: params.NewReleasesToken,
		sessions:    map[string]*viewState{},
	}, nil
}

// Browse resolves the query, fetches (or reuses) the matching page, applies
// the discount-aware re-filter, and commits the result to the session's view.
// The returned view always reflects the most recently issued fetch for the
// session, so a stale completion hands back the newer committed data instead.
func (s *service) Browse(ctx context.Context, sessionID string, q Query) (View, error) {
	if sessionID == "" {
		return View{}, errors.New(errors.CodeValidation, "session id is required")
	}

	q = q.Pinned(s.newReleases)
	state := s.session(sessionID)

	state.mu.Lock()
	state.issued++
	seq := state.issued
	maxDiscount := state.maxDiscount
	state.mu.Unlock()

	key := q.FetchKey(maxDiscount)
	if s.logg != nil {
		ctx = s.logg.WithFetchKey(ctx, key)
	}

	page, err := s.loadPage(ctx, key, q, maxDiscount)
	if err != nil {
		return View{}, errors.Wrap(errors.CodeDependency, err, "fetch catalog page")
	}

	visible := page.Items
	if q.Band.Chosen() {
		visible = FilterByBand(page.Items, q.Band)
	}
	if visible == nil {
		visible = []Item{}
	}

	view := View{
		Category:         q.Category,
		Search:           q.Search,
		Items:            visible,
		Total:            page.Total,
		MaxDiscountCents: ComputeMaxDiscount(page.Items),
	}

	return state.commit(seq, view), nil
}

func (s *service) session(sessionID string) *viewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.sessions[sessionID]
	if !ok {
		state = &viewState{}
		s.sessions[sessionID] = state
	}
	return state
}

// loadPage serves the page from cache when possible and collapses concurrent
// identical fetches so one composite key never hits upstream twice at once.
func (s *service) loadPage(ctx context.Context, key string, q Query, maxDiscount int) (Page, error) {
	result, err, _ := s.group.Do(key, func() (any, error) {
		if s.cache != nil {
			cached, ok, cacheErr := s.cache.GetPage(ctx, key)
			if cacheErr != nil && s.logg != nil {
				s.logg.Warn(s.logg.WithField(ctx, "error", cacheErr.Error()), "catalog cache read failed")
			}
			if cacheErr == nil && ok {
				s.metrics.IncCacheHit("redis")
				return *cached, nil
			}
		}

		req := FetchRequest{Category: q.Category, Search: q.Search}
		if q.Band.Chosen() {
			req.PriceFromCents = q.Band.MinCents
			req.PriceToCents = q.Band.MaxCents + maxDiscount
		}

		page, fetchErr := s.fetcher.ListItems(ctx, req)
		if fetchErr != nil {
			return nil, fetchErr
		}

		if s.cache != nil {
			if cacheErr := s.cache.SetPage(ctx, key, page); cacheErr != nil && s.logg != nil {
				s.logg.Warn(s.logg.WithField(ctx, "error", cacheErr.Error()), "catalog cache write failed")
			}
		}
		return page, nil
	})
	if err != nil {
		return Page{}, err
	}
	return result.(Page), nil
}

// commit installs the view only if no newer fetch was issued meanwhile and
// returns whatever the session should render. A superseded completion that
// arrives before anything newer has committed still gets a renderable empty
// view, never a nil item list.
func (st *viewState) commit(seq uint64, view View) View {
	st.mu.Lock()
	defer st.mu.Unlock()
	if seq >= st.issued && seq > st.committed {
		st.committed = seq
		st.view = view
		st.maxDiscount = view.MaxDiscountCents
	}
	current := st.view
	if current.Items == nil {
		current.Items = []Item{}
	}
	return current
}
