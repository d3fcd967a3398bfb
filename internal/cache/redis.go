package cache

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"order-cart/internal/model"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
)

// RedisCache caches carts in Redis as BSON documents.
type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

// NewRedisCache creates a cache whose entries expire after ttl plus up to a fifth
// of ttl in jitter.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: ttl,
	}
}

func (r *RedisCache) Get(ctx context.Context, userID string) (*model.Order, error) {
	data, err := r.client.Get(ctx, cacheKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart model.Order
	if err := bson.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}

	return &cart, nil
}

func (r *RedisCache) Set(ctx context.Context, userID string, cart *model.Order) error {
	data, err := bson.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	if err := r.client.Set(ctx, cacheKey(userID), data, r.ttl()).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, cacheKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *RedisCache) ttl() time.Duration {
	spread := int64(r.baseTTL / 5)
	if spread <= 0 {
		return r.baseTTL
	}
	return r.baseTTL + time.Duration(rand.Int64N(spread))
}

func cacheKey(userID string) string {
	return fmt.Sprintf("cart:%s", userID)
}
