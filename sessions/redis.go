package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces flow entries in a shared Redis.
const redisKeyPrefix = "oauth2:state:"

// RedisStore is a strategy.SessionStore backed by Redis, for hosts running
// more than one instance. Expiry is enforced with key TTLs.
type RedisStore struct {
	rdb    redis.UniversalClient
	expiry time.Duration
}

// NewRedisStore connects to redisURL and pings it before returning.
// A zero expiry uses DefaultExpiry.
func NewRedisStore(ctx context.Context, redisURL string, expiry time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewRedisStoreFromClient(rdb, expiry), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(rdb redis.UniversalClient, expiry time.Duration) *RedisStore {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &RedisStore{rdb: rdb, expiry: expiry}
}

// SetIfAbsent stores value with SETNX so concurrent writers can not overwrite a pending flow.
func (s *RedisStore) SetIfAbsent(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}
	ok, err := s.rdb.SetNX(ctx, redisKeyPrefix+key, value, s.expiry).Result()
	if err != nil {
		return fmt.Errorf("failed to store flow session: %w", err)
	}
	if !ok {
		return ErrStateExists
	}
	return nil
}

// GetAndDelete reads and removes key atomically with GETDEL.
func (s *RedisStore) GetAndDelete(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, fmt.Errorf("key cannot be empty")
	}
	value, err := s.rdb.GetDel(ctx, redisKeyPrefix+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to consume flow session: %w", err)
	}
	return value, true, nil
}

// Close shuts down the Redis client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
