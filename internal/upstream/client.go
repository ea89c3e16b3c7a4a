package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avolkov/bookstore-storefront/internal/catalog"
	"github.com/avolkov/bookstore-storefront/internal/orders"
	"github.com/avolkov/bookstore-storefront/pkg/config"
	pkgerrors "github.com/avolkov/bookstore-storefront/pkg/errors"
	"github.com/avolkov/bookstore-storefront/pkg/metrics"
	"github.com/avolkov/bookstore-storefront/pkg/types"
)

const responseBodyReadLimit int64 = 1024

// Client wraps the item store's REST API. The storefront owns no catalog or
// user data itself; every authoritative read and write goes through here.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *metrics.UpstreamMetrics
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithMetrics attaches request instrumentation.
func WithMetrics(m *metrics.UpstreamMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds an item store client from the upstream configuration.
func NewClient(cfg config.UpstreamConfig, opts ...Option) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "upstream base url is required")
	}

	client := &Client{
		baseURL:    strings.TrimRight(base, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return client, nil
}

// ListItems fetches one catalog page. The category rides in the path; search
// text and price bounds ride as query parameters. Zero price bounds are
// omitted entirely so an unbanded query stays cacheable upstream.
func (c *Client) ListItems(ctx context.Context, req catalog.FetchRequest) (catalog.Page, error) {
	if c == nil {
		return catalog.Page{}, pkgerrors.New(pkgerrors.CodeDependency, "item store client not configured")
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		return catalog.Page{}, pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	}

	query := url.Values{}
	if req.Search != "" {
		query.Set("q", req.Search)
	}
	if req.PriceFromCents > 0 || req.PriceToCents > 0 {
		query.Set("priceFrom", strconv.Itoa(req.PriceFromCents))
		query.Set("priceTo", strconv.Itoa(req.PriceToCents))
	}

	target := c.buildURL("books/"+url.PathEscape(category), query)

	var page catalog.Page
	if err := c.do(ctx, "list_items", http.MethodGet, target, "", nil, &page); err != nil {
		return catalog.Page{}, err
	}
	if page.Items == nil {
		page.Items = []catalog.Item{}
	}
	return page, nil
}

// GetItem fetches a single item by identifier.
func (c *Client) GetItem(ctx context.Context, id int64) (catalog.Item, error) {
	if c == nil {
		return catalog.Item{}, pkgerrors.New(pkgerrors.CodeDependency, "item store client not configured")
	}
	if id <= 0 {
		return catalog.Item{}, pkgerrors.New(pkgerrors.CodeValidation, "item id must be positive")
	}

	var item catalog.Item
	target := c.buildURL(fmt.Sprintf("book/%d", id), nil)
	if err := c.do(ctx, "get_item", http.MethodGet, target, "", nil, &item); err != nil {
		return catalog.Item{}, err
	}
	return item, nil
}

// AddFavorite puts the item in the user's favorites set. No request body; the
// item rides in the path and the user rides in the bearer token.
func (c *Client) AddFavorite(ctx context.Context, token string, itemID int64) error {
	if err := c.checkFavoriteArgs(token, itemID); err != nil {
		return err
	}
	target := c.buildURL(fmt.Sprintf("user/favorites/%d", itemID), nil)
	return c.do(ctx, "add_favorite", http.MethodPost, target, token, nil, nil)
}

// RemoveFavorite removes the item from the user's favorites set.
func (c *Client) RemoveFavorite(ctx context.Context, token string, itemID int64) error {
	if err := c.checkFavoriteArgs(token, itemID); err != nil {
		return err
	}
	target := c.buildURL(fmt.Sprintf("user/favorites/%d", itemID), nil)
	return c.do(ctx, "remove_favorite", http.MethodDelete, target, token, nil, nil)
}

// FetchProfile returns the authenticated user's profile, including the
// authoritative favorites set.
func (c *Client) FetchProfile(ctx context.Context, token string) (types.Profile, error) {
	if c == nil {
		return types.Profile{}, pkgerrors.New(pkgerrors.CodeDependency, "item store client not configured")
	}
	if token == "" {
		return types.Profile{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "bearer token is required")
	}

	var profile types.Profile
	target := c.buildURL("user/profile", nil)
	if err := c.do(ctx, "fetch_profile", http.MethodGet, target, token, nil, &profile); err != nil {
		return types.Profile{}, err
	}
	return profile, nil
}

// SubmitOrder posts the frozen order snapshot once. No retry; the caller
// decides what a failure means for cart state.
func (c *Client) SubmitOrder(ctx context.Context, token string, order orders.Order) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "item store client not configured")
	}
	if token == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "bearer token is required")
	}
	target := c.buildURL("orders", nil)
	return c.do(ctx, "submit_order", http.MethodPost, target, token, order, nil)
}

// Ping probes the item store's health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "item store client not configured")
	}
	return c.do(ctx, "ping", http.MethodGet, c.buildURL("health", nil), "", nil, nil)
}

func (c *Client) checkFavoriteArgs(token string, itemID int64) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "item store client not configured")
	}
	if token == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "bearer token is required")
	}
	if itemID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id must be positive")
	}
	return nil
}

func (c *Client) do(ctx context.Context, operation, method, target, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal "+operation+" request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build "+operation+" request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ObserveDuration(operation, time.Since(start))
	if err != nil {
		c.metrics.IncFailure(operation)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute "+operation+" request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.metrics.IncFailure(operation)
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(
			pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
			operation+" request failed",
		)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.metrics.IncFailure(operation)
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode "+operation+" response")
		}
	}

	c.metrics.IncSuccess(operation)
	return nil
}

func (c *Client) buildURL(path string, query url.Values) string {
	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return target
}
