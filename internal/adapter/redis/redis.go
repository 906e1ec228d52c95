package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) Get(key string) ([]byte, error) {
	data, err := r.client.Get(context.Background(), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (r *RedisAdapter) Set(key string, value []byte, ttl time.Duration) error {
	return r.client.Set(context.Background(), key, value, ttl).Err()
}

func (r *RedisAdapter) Delete(key string) error {
	return r.client.Del(context.Background(), key).Err()
}

// NopCache is used when no redis address is configured: every read misses.
type NopCache struct{}

func NewNopCache() NopCache {
	return NopCache{}
}

func (NopCache) Get(string) ([]byte, error) {
	return nil, ErrCacheMiss
}

func (NopCache) Set(string, []byte, time.Duration) error {
	return nil
}

func (NopCache) Delete(string) error {
	return nil
}
