// Package cache holds the Redis-backed read caches.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/helpdesk/internal/domain"
)

const categoryTreeKey = "helpdesk:categories:tree"

// CategoryCache stores the category tree served to the create form.
type CategoryCache interface {
	Get(ctx context.Context) ([]domain.Category, bool, error)
	Set(ctx context.Context, tree []domain.Category) error
	Invalidate(ctx context.Context) error
}

type redisCategoryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCategoryCache returns a Redis cache, or a no-op cache when client is nil.
func NewCategoryCache(client *redis.Client, ttl time.Duration) CategoryCache {
	if client == nil {
		return noopCategoryCache{}
	}
	return &redisCategoryCache{client: client, ttl: ttl}
}

func (c *redisCategoryCache) Get(ctx context.Context) ([]domain.Category, bool, error) {
	raw, err := c.client.Get(ctx, categoryTreeKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var tree []domain.Category
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, false, err
	}
	return tree, true, nil
}

func (c *redisCategoryCache) Set(ctx context.Context, tree []domain.Category) error {
	raw, err := json.Marshal(tree)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, categoryTreeKey, raw, c.ttl).Err()
}

func (c *redisCategoryCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, categoryTreeKey).Err()
}

type noopCategoryCache struct{}

func (noopCategoryCache) Get(context.Context) ([]domain.Category, bool, error) {
	return nil, false, nil
}
func (noopCategoryCache) Set(context.Context, []domain.Category) error { return nil }
func (noopCategoryCache) Invalidate(context.Context) error             { return nil }
