package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/avolkov/bookstore-storefront/pkg/redis"
)

// PageCache stores fetched catalog pages keyed by composite fetch key.
type PageCache interface {
	GetPage(ctx context.Context, fetchKey string) (*Page, bool, error)
	SetPage(ctx context.Context, fetchKey string, page Page) error
}

type redisPageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisPageCache wraps the shared redis client as a catalog page cache.
func NewRedisPageCache(client *redis.Client, ttl time.Duration) PageCache {
	return &redisPageCache{client: client, ttl: ttl}
}

func (c *redisPageCache) GetPage(ctx context.Context, fetchKey string) (*Page, bool, error) {
	raw, err := c.client.Get(ctx, c.client.CatalogPageKey(fetchKey))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var page Page
	if err := json.Unmarshal([]byte(raw), &page); err != nil {
		return nil, false, err
	}
	return &page, true, nil
}

func (c *redisPageCache) SetPage(ctx context.Context, fetchKey string, page Page) error {
	buf, err := json.Marshal(page)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.client.CatalogPageKey(fetchKey), string(buf), c.ttl)
}
