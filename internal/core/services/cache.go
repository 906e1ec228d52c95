package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/ports"
)

const (
	DefaultCacheTTL = 15 * time.Minute

	bikesCacheKey   = "bikes:all"
	loanersCacheKey = "loaner_bikes:all"
)

func bikeCacheKey(id int64) string {
	return fmt.Sprintf("bike:%d", id)
}

func loanerCacheKey(id int64) string {
	return fmt.Sprintf("loaner_bike:%d", id)
}

// cacheStore wraps the cache port with JSON encoding. Cache failures never
// fail an operation; they are logged and the store is read instead.
type cacheStore struct {
	cache  ports.CachePort
	logger ports.LoggerPort
	ttl    time.Duration
}

func (c *cacheStore) load(key string, v interface{}) bool {
	data, err := c.cache.Get(key)
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		c.logger.Warn("Failed to decode cached value", map[string]interface{}{
			"error": err.Error(),
			"key":   key,
		})
		return false
	}
	return true
}

func (c *cacheStore) store(key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("Failed to marshal value for cache", map[string]interface{}{
			"error": err.Error(),
			"key":   key,
		})
		return
	}
	if err := c.cache.Set(key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache value", map[string]interface{}{
			"error": err.Error(),
			"key":   key,
		})
	}
}

func (c *cacheStore) invalidate(keys ...string) {
	for _, key := range keys {
		if err := c.cache.Delete(key); err != nil {
			c.logger.Warn("Failed to invalidate cache", map[string]interface{}{
				"error": err.Error(),
				"key":   key,
			})
		}
	}
}
