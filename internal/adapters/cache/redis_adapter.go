package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carelocate/waitline/internal/domain/providers"
	redisclient "github.com/carelocate/waitline/internal/infrastructure/clients/redis"
)

// RedisAdapter is the Redis-backed CacheProvider. The live cache mirrors
// its wait-time snapshots through it so the last known values survive a
// process restart; the in-memory adapter covers deployments without Redis.
type RedisAdapter struct {
	client *redisclient.Client
}

// NewRedisAdapter wraps a connected Redis client as a CacheProvider.
func NewRedisAdapter(client *redisclient.Client) providers.CacheProvider {
	return &RedisAdapter{
		client: client,
	}
}

// Get returns the stored bytes for a key. A missing key is an error, not an
// empty value.
func (a *RedisAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := a.client.Client().Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("key not found: %s", key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get from cache: %w", err)
	}
	return result, nil
}

// Set stores a value under the key. expirationSeconds bounds how long a
// mirrored snapshot can outlive the process that wrote it; 0 keeps it forever.
func (a *RedisAdapter) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	expiration := time.Duration(expirationSeconds) * time.Second
	if err := a.client.Client().Set(ctx, key, value, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set in cache: %w", err)
	}
	return nil
}

// Delete removes a key. Deleting an absent key is not an error.
func (a *RedisAdapter) Delete(ctx context.Context, key string) error {
	if err := a.client.Client().Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete from cache: %w", err)
	}
	return nil
}

// Exists reports whether a key currently holds a value.
func (a *RedisAdapter) Exists(ctx context.Context, key string) (bool, error) {
	result, err := a.client.Client().Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check existence in cache: %w", err)
	}
	return result > 0, nil
}
