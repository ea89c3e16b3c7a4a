package favorites

import (
	"context"
	"sort"
	"sync"

	"github.com/avolkov/bookstore-storefront/pkg/errors"
	"github.com/avolkov/bookstore-storefront/pkg/logger"
	"github.com/avolkov/bookstore-storefront/pkg/types"
)

type profileFetcher interface {
	FetchProfile(ctx context.Context, token string) (types.Profile, error)
}

type favoritesMutator interface {
	AddFavorite(ctx context.Context, token string, itemID int64) error
	RemoveFavorite(ctx context.Context, token string, itemID int64) error
}

// ItemState is the three-state favorites value for one item. An item is
// never just a boolean here: the pending window between issuing a mutation
// and re-fetching the profile is observable.
type ItemState string

const (
	StateConfirmedIn  ItemState = "confirmed_in"
	StateConfirmedOut ItemState = "confirmed_out"
	StatePending      ItemState = "pending"
)

// View is the favorites set rendered for one user: the confirmed membership
// from the last profile fetch plus the identifiers still awaiting a
// mutation response.
type View struct {
	ConfirmedIDs []int64 `json:"confirmed_ids"`
	PendingIDs   []int64 `json:"pending_ids"`
}

// StateFor resolves one item's three-state value from the view.
func (v View) StateFor(itemID int64) ItemState {
	for _, id := range v.PendingIDs {
		if id == itemID {
			return StatePending
		}
	}
	for _, id := range v.ConfirmedIDs {
		if id == itemID {
			return StateConfirmedIn
		}
	}
	return StateConfirmedOut
}

// Service exposes the favorites set and the per-item toggle.
type Service interface {
	List(ctx context.Context, token string) (View, error)
	Toggle(ctx context.Context, token string, itemID int64) (View, error)
}

// ServiceParams groups dependencies for the favorites service.
type ServiceParams struct {
	Profiles profileFetcher
	Mutator  favoritesMutator
	Logger   *logger.Logger
}

type service struct {
	profiles profileFetcher
	mutator  favoritesMutator
	logg     *logger.Logger

	// users holds one entry per bearer token for the process lifetime;
	// entries are never evicted, so cardinality is bounded by the tokens
	// seen within one deploy cycle.
	mu    sync.Mutex
	users map[string]*userState
}

// userState tracks one user's confirmed set (from the last profile fetch)
// and the items currently awaiting a mutation response.
type userState struct {
	mu        sync.Mutex
	seeded    bool
	confirmed map[int64]struct{}
	pending   map[int64]struct{}
}

// NewService builds a favorites service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Profiles == nil {
		return nil, errors.New(errors.CodeValidation, "profile fetcher is required")
	}
	if params.Mutator == nil {
		return nil, errors.New(errors.CodeValidation, "favorites mutator is required")
	}
	return &service{
		profiles: params.Profiles,
		mutator:  params.Mutator,
		logg:     params.Logger,
		users:    map[string]*userState{},
	}, nil
}

// List fetches the authoritative favorites set from the profile and renders
// it alongside any identifiers still pending.
func (s *service) List(ctx context.Context, token string) (View, error) {
	if token == "" {
		return View{}, errors.New(errors.CodeUnauthorized, "sign in to view favorites")
	}

	state := s.user(token)
	if err := s.refresh(ctx, token, state); err != nil {
		return View{}, errors.Wrap(errors.CodeDependency, err, "fetch profile")
	}
	return state.view(), nil
}

// Toggle flips the item's membership: add when not favorited, remove when
// favorited. Exactly one mutation is issued. Whatever the mutation's outcome,
// the pending marker is cleared and the confirmed set is re-fetched from the
// profile; an optimistic flip is never kept as final truth. A second toggle
// on the same item while the first is pending is rejected.
func (s *service) Toggle(ctx context.Context, token string, itemID int64) (View, error) {
	if token == "" {
		return View{}, errors.New(errors.CodeUnauthorized, "sign in to manage favorites")
	}
	if itemID <= 0 {
		return View{}, errors.New(errors.CodeValidation, "item id must be positive")
	}

	state := s.user(token)
	if !state.isSeeded() {
		if err := s.refresh(ctx, token, state); err != nil {
			return View{}, errors.Wrap(errors.CodeDependency, err, "fetch profile")
		}
	}

	favorited, ok := state.markPending(itemID)
	if !ok {
		return View{}, errors.New(errors.CodeStateConflict, "favorites update for this item is already in flight")
	}

	var mutErr error
	if favorited {
		mutErr = s.mutator.RemoveFavorite(ctx, token, itemID)
	} else {
		mutErr = s.mutator.AddFavorite(ctx, token, itemID)
	}

	state.clearPending(itemID)

	if refreshErr := s.refresh(ctx, token, state); refreshErr != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", refreshErr.Error()), "favorites profile refresh failed")
		}
		if mutErr == nil {
			return View{}, errors.Wrap(errors.CodeDependency, refreshErr, "refresh favorites after toggle")
		}
	}
	if mutErr != nil {
		return View{}, errors.Wrap(errors.CodeDependency, mutErr, "toggle favorite")
	}
	return state.view(), nil
}

func (s *service) user(token string) *userState {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.users[token]
	if !ok {
		state = &userState{confirmed: map[int64]struct{}{}, pending: map[int64]struct{}{}}
		s.users[token] = state
	}
	return state
}

func (s *service) refresh(ctx context.Context, token string, state *userState) error {
	profile, err := s.profiles.FetchProfile(ctx, token)
	if err != nil {
		return err
	}
	state.setConfirmed(profile.FavoriteItemIDs)
	return nil
}

// markPending reserves the item for one in-flight mutation and reports the
// item's confirmed membership at reservation time. Returns false when the
// item is already pending.
func (st *userState) markPending(itemID int64) (favorited, ok bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, busy := st.pending[itemID]; busy {
		return false, false
	}
	st.pending[itemID] = struct{}{}
	_, favorited = st.confirmed[itemID]
	return favorited, true
}

func (st *userState) isSeeded() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.seeded
}

func (st *userState) clearPending(itemID int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.pending, itemID)
}

func (st *userState) setConfirmed(ids []int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.confirmed = make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		st.confirmed[id] = struct{}{}
	}
	st.seeded = true
}

func (st *userState) view() View {
	st.mu.Lock()
	defer st.mu.Unlock()
	view := View{
		ConfirmedIDs: make([]int64, 0, len(st.confirmed)),
		PendingIDs:   make([]int64, 0, len(st.pending)),
	}
	for id := range st.confirmed {
		view.ConfirmedIDs = append(view.ConfirmedIDs, id)
	}
	for id := range st.pending {
		view.PendingIDs = append(view.PendingIDs, id)
	}
	sort.Slice(view.ConfirmedIDs, func(i, j int) bool { return view.ConfirmedIDs[i] < view.ConfirmedIDs[j] })
	sort.Slice(view.PendingIDs, func(i, j int) bool { return view.PendingIDs[i] < view.PendingIDs[j] })
	return view
}
