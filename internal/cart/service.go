package cart

import (
	"context"

	"github.com/avolkov/bookstore-storefront/internal/catalog"
	"github.com/avolkov/bookstore-storefront/pkg/errors"
	"github.com/avolkov/bookstore-storefront/pkg/logger"
)

type itemLoader interface {
	GetItem(ctx context.Context, id int64) (catalog.Item, error)
}

// Service exposes cart mutations for one storefront session.
type Service interface {
	Get(ctx context.Context, sessionID string) (Snapshot, error)
	Add(ctx context.Context, sessionID string, itemID int64) (Snapshot, error)
	Remove(ctx context.Context, sessionID string, itemID int64) (Snapshot, error)
	SetQuantity(ctx context.Context, sessionID string, itemID int64, quantity int) (Snapshot, error)
	Clear(ctx context.Context, sessionID string) error
}

// ServiceParams groups dependencies for the cart service.
type ServiceParams struct {
	Store  *Store
	Items  itemLoader
	Logger *logger.Logger
}

type service struct {
	store *Store
	items itemLoader
	logg  *logger.Logger
}

// NewService builds a cart service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, errors.New(errors.CodeValidation, "cart store is required")
	}
	if params.Items == nil {
		return nil, errors.New(errors.CodeValidation, "item loader is required")
	}
	return &service{store: params.Store, items: params.Items, logg: params.Logger}, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (Snapshot, error) {
	if sessionID == "" {
		return Snapshot{}, errors.New(errors.CodeValidation, "session id is required")
	}
	return s.store.Snapshot(sessionID), nil
}

// Add puts one unit of the item in the cart. The item's title, image, and
// effective price are copied from the item store at add time; an item already
// in the cart is incremented without another upstream call.
func (s *service) Add(ctx context.Context, sessionID string, itemID int64) (Snapshot, error) {
	if sessionID == "" {
		return Snapshot{}, errors.New(errors.CodeValidation, "session id is required")
	}
	if itemID <= 0 {
		return Snapshot{}, errors.New(errors.CodeValidation, "item id must be positive")
	}

	if snap, ok := s.store.Increment(sessionID, itemID); ok {
		return snap, nil
	}

	item, err := s.items.GetItem(ctx, itemID)
	if err != nil {
		return Snapshot{}, errors.Wrap(errors.CodeDependency, err, "load item for cart")
	}

	return s.store.Upsert(sessionID, Line{
		ItemID:         item.ID,
		Title:          item.Title,
		ImageURL:       item.ImageURL,
		UnitPriceCents: item.EffectivePriceCents(),
		Quantity:       1,
	}), nil
}

// Remove deletes one line, or the whole cart when the identifier is zero.
func (s *service) Remove(ctx context.Context, sessionID string, itemID int64) (Snapshot, error) {
	if sessionID == "" {
		return Snapshot{}, errors.New(errors.CodeValidation, "session id is required")
	}
	if itemID < 0 {
		return Snapshot{}, errors.New(errors.CodeValidation, "item id must not be negative")
	}
	return s.store.Remove(sessionID, itemID), nil
}

func (s *service) SetQuantity(ctx context.Context, sessionID string, itemID int64, quantity int) (Snapshot, error) {
	if sessionID == "" {
		return Snapshot{}, errors.New(errors.CodeValidation, "session id is required")
	}
	if itemID <= 0 {
		return Snapshot{}, errors.New(errors.CodeValidation, "item id must be positive")
	}

	snap, found := s.store.SetQuantity(sessionID, itemID, quantity)
	if !found {
		return Snapshot{}, errors.New(errors.CodeNotFound, "item is not in the cart")
	}
	return snap, nil
}

func (s *service) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return errors.New(errors.CodeValidation, "session id is required")
	}
	s.store.Clear(sessionID)
	return nil
}
