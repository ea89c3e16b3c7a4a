package orders

import (
	"context"
	"time"

	"github.com/avolkov/bookstore-storefront/internal/cart"
	"github.com/avolkov/bookstore-storefront/pkg/errors"
	"github.com/avolkov/bookstore-storefront/pkg/logger"
	"github.com/google/uuid"
)

type submitter interface {
	SubmitOrder(ctx context.Context, token string, order Order) error
}

type cartAccess interface {
	Get(ctx context.Context, sessionID string) (cart.Snapshot, error)
	Clear(ctx context.Context, sessionID string) error
}

// Contact carries the buyer's contact fields for one order.
type Contact struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// OrderLine is one cart line frozen at submission time.
type OrderLine struct {
	Title          string `json:"title"`
	ImageURL       string `json:"image_url"`
	UnitPriceCents int    `json:"unit_price_cents"`
	Count          int    `json:"count"`
}

// Order is the write-once submission snapshot. It is assembled from the cart
// at submit time and never mutated afterwards.
type Order struct {
	ID              uuid.UUID   `json:"id"`
	Contact         Contact     `json:"contact"`
	Items           []OrderLine `json:"items"`
	TotalPriceCents int         `json:"total_price_cents"`
	CreatedAt       time.Time   `json:"created_at"`
}

// Service submits orders built from the session's cart.
type Service interface {
	Submit(ctx context.Context, token, sessionID string, contact Contact) (Order, error)
}

// ServiceParams groups dependencies for the order service.
type ServiceParams struct {
	Submitter submitter
	Cart      cartAccess
	Logger    *logger.Logger
	Now       func() time.Time
}

type service struct {
	submitter submitter
	cart      cartAccess
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds an order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Submitter == nil {
		return nil, errors.New(errors.CodeValidation, "order submitter is required")
	}
	if params.Cart == nil {
		return nil, errors.New(errors.CodeValidation, "cart access is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		submitter: params.Submitter,
		cart:      params.Cart,
		logg:      params.Logger,
		now:       now,
	}, nil
}

// Submit freezes the current cart lines into an order and posts it exactly
// once. A missing token or an empty cart is a typed error, not a silent
// no-op. The cart is cleared only after the store confirms the order; a
// failed submission leaves it intact.
func (s *service) Submit(ctx context.Context, token, sessionID string, contact Contact) (Order, error) {
	if token == "" {
		return Order{}, errors.New(errors.CodeUnauthorized, "sign in to place an order")
	}
	if sessionID == "" {
		return Order{}, errors.New(errors.CodeValidation, "session id is required")
	}
	if contact.Email == "" || contact.FirstName == "" || contact.LastName == "" {
		return Order{}, errors.New(errors.CodeValidation, "contact name and email are required")
	}

	snap, err := s.cart.Get(ctx, sessionID)
	if err != nil {
		return Order{}, err
	}
	if len(snap.Lines) == 0 {
		return Order{}, errors.New(errors.CodeValidation, "cart is empty")
	}

	order := Order{
		ID:              uuid.New(),
		Contact:         contact,
		Items:           make([]OrderLine, 0, len(snap.Lines)),
		TotalPriceCents: snap.TotalPriceCents,
		CreatedAt:       s.now().UTC(),
	}
	for _, line := range snap.Lines {
		order.Items = append(order.Items, OrderLine{
			Title:          line.Title,
			ImageURL:       line.ImageURL,
			UnitPriceCents: line.UnitPriceCents,
			Count:          line.Quantity,
		})
	}

	if err := s.submitter.SubmitOrder(ctx, token, order); err != nil {
		return Order{}, errors.Wrap(errors.CodeDependency, err, "submit order")
	}

	if err := s.cart.Clear(ctx, sessionID); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "clear cart after order")
	}
	return order, nil
}
