package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/Thiritin/shifty/pkg/errors"
)

// CacheRepository provides helpers around Redis for cached aggregates and
// short-lived login state.
type CacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCacheRepository constructs a cache repository.
func NewCacheRepository(client *redis.Client, logger *zap.Logger) *CacheRepository {
	return &CacheRepository{client: client, logger: logger}
}

// Get retrieves and unmarshals the cached value into the provided destination.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}

	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}

	return nil
}

// Set marshals the provided value and stores it with the given TTL.
func (r *CacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}

	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	return nil
}

// DeleteByPattern removes cached entries matching the provided pattern.
func (r *CacheRepository) DeleteByPattern(ctx context.Context, pattern string) error {
	if r.client == nil {
		return nil
	}

	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if err := r.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("redis delete %s: %w", key, err)
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan pattern %s: %w", pattern, err)
	}

	return nil
}

const loginStatePrefix = "oauth:state:"

// StoreLoginState records an OAuth state nonce with a TTL.
func (r *CacheRepository) StoreLoginState(ctx context.Context, state string, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("login state store unavailable")
	}
	if err := r.client.Set(ctx, loginStatePrefix+state, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis store login state: %w", err)
	}
	return nil
}

// ConsumeLoginState atomically checks and removes a state nonce so it can
// be redeemed at most once.
func (r *CacheRepository) ConsumeLoginState(ctx context.Context, state string) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("login state store unavailable")
	}
	deleted, err := r.client.Del(ctx, loginStatePrefix+state).Result()
	if err != nil {
		return false, fmt.Errorf("redis consume login state: %w", err)
	}
	return deleted > 0, nil
}
