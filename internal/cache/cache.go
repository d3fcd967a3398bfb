package cache

import (
	"context"
	"errors"

	"order-cart/internal/model"
)

// ErrCacheMiss is returned when no cart is cached for a user.
var ErrCacheMiss = errors.New("cache miss")

// CartCache stores the stored fields of a user's cart. Populated items are not cached.
type CartCache interface {
	Get(ctx context.Context, userID string) (*model.Order, error)
	Set(ctx context.Context, userID string, cart *model.Order) error
	Delete(ctx context.Context, userID string) error
}

// NoopCache is a CartCache that never holds anything.
type NoopCache struct{}

// NewNoopCache creates a cache used when Redis is disabled.
func NewNoopCache() CartCache {
	return NoopCache{}
}

func (NoopCache) Get(context.Context, string) (*model.Order, error) { return nil, ErrCacheMiss }

func (NoopCache) Set(context.Context, string, *model.Order) error { return nil }

func (NoopCache) Delete(context.Context, string) error { return nil }
